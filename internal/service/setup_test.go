package service

import (
	"pool-route-scheduler/internal/database"
	"pool-route-scheduler/internal/models"
	"pool-route-scheduler/internal/repository"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testEnv struct {
	db *gorm.DB

	scheduleRepo    *repository.GormScheduleRepository
	occurrenceRepo  *repository.GormOccurrenceRepository
	routeRepo       *repository.GormRouteRepository
	stopRepo        *repository.GormRouteStopRepository
	unscheduledRepo *repository.GormUnscheduledStopRepository
	overrideRepo    *repository.GormOverrideRepository
	estimateRepo    *repository.GormEstimateRepository
	assignmentRepo  *repository.GormPropertyTechnicianRepository
	properties      *repository.PropertyRepository
	technicians     *repository.TechnicianRepository

	schedules   *ScheduleService
	occurrences *OccurrenceService
	routes      *RouteService
	overrides   *OverrideService
	assignments *PropertyTechnicianService
	jobs        *JobService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.OpenMemory(name)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	env := &testEnv{db: db}

	env.scheduleRepo, err = repository.NewGormScheduleRepository(db)
	require.NoError(t, err)
	env.occurrenceRepo, err = repository.NewGormOccurrenceRepository(db)
	require.NoError(t, err)
	env.routeRepo, err = repository.NewGormRouteRepository(db)
	require.NoError(t, err)
	env.stopRepo, err = repository.NewGormRouteStopRepository(db)
	require.NoError(t, err)
	env.unscheduledRepo, err = repository.NewGormUnscheduledStopRepository(db)
	require.NoError(t, err)
	env.overrideRepo, err = repository.NewGormOverrideRepository(db)
	require.NoError(t, err)
	env.estimateRepo, err = repository.NewGormEstimateRepository(db)
	require.NoError(t, err)
	env.assignmentRepo, err = repository.NewGormPropertyTechnicianRepository(db)
	require.NoError(t, err)
	env.properties, err = repository.NewPropertyRepository(db)
	require.NoError(t, err)
	env.technicians, err = repository.NewTechnicianRepository(db)
	require.NoError(t, err)

	env.occurrences = NewOccurrenceService(env.occurrenceRepo, env.scheduleRepo, env.routeRepo, env.properties)
	env.schedules = NewScheduleService(env.scheduleRepo, env.occurrences)
	env.routes = NewRouteService(
		env.routeRepo,
		env.stopRepo,
		env.unscheduledRepo,
		env.occurrenceRepo,
		env.scheduleRepo,
		env.assignmentRepo,
		env.properties,
		env.technicians,
	)
	env.overrides = NewOverrideService(env.overrideRepo, env.technicians)
	env.assignments = NewPropertyTechnicianService(env.assignmentRepo, env.technicians)
	env.jobs = NewJobService(env.estimateRepo, env.technicians)

	return env
}

func (env *testEnv) saveSchedule(t *testing.T, propertyID, season string, summer, winter []string) *models.RouteSchedule {
	t.Helper()

	schedule := &models.RouteSchedule{
		PropertyID:      propertyID,
		ActiveSeason:    season,
		SummerVisitDays: summer,
		WinterVisitDays: winter,
		IsActive:        true,
	}
	require.NoError(t, env.scheduleRepo.Save(schedule))
	return schedule
}

func (env *testEnv) createTechnician(t *testing.T, id, first, last string) *models.Technician {
	t.Helper()

	tech := &models.Technician{ID: id, FirstName: first, LastName: last, Role: models.RoleRepairTech, Active: true}
	require.NoError(t, env.technicians.Create(tech))
	return tech
}

func (env *testEnv) createRoute(t *testing.T, name string, day time.Weekday, technicianID string) *models.Route {
	t.Helper()

	in := RouteInput{Name: &name}
	d := int(day)
	in.DayOfWeek = &d
	if technicianID != "" {
		in.TechnicianID = &technicianID
	}
	route, err := env.routes.CreateRoute(in)
	require.NoError(t, err)
	return route
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func strPtr(s string) *string { return &s }

func intPtr(i int) *int { return &i }
