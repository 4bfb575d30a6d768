package service

import (
	"errors"
	"pool-route-scheduler/internal/logger"
	"pool-route-scheduler/internal/metrics"
	"pool-route-scheduler/internal/models"
	"pool-route-scheduler/internal/repository"
	"pool-route-scheduler/pkg/weekdays"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
)

// OccurrenceView is an occurrence enriched with directory data for display.
type OccurrenceView struct {
	models.ServiceOccurrence
	PropertyName string `json:"property_name"`
	CustomerName string `json:"customer_name"`
	Address      string `json:"address"`
}

// VisitView is one upcoming or recent visit of a property.
type VisitView struct {
	ID             string    `json:"id"`
	Date           time.Time `json:"date"`
	Status         string    `json:"status"`
	RouteID        *string   `json:"route_id"`
	RouteName      *string   `json:"route_name"`
	RouteColor     *string   `json:"route_color"`
	TechnicianName *string   `json:"technician_name"`
}

type OccurrenceService struct {
	repo       repository.OccurrenceRepository
	schedules  repository.ScheduleRepository
	routes     repository.RouteRepository
	properties PropertyDirectory
	logger     *logrus.Logger
	now        func() time.Time
}

func NewOccurrenceService(
	repo repository.OccurrenceRepository,
	schedules repository.ScheduleRepository,
	routes repository.RouteRepository,
	properties PropertyDirectory,
) *OccurrenceService {
	return &OccurrenceService{
		repo:       repo,
		schedules:  schedules,
		routes:     routes,
		properties: properties,
		logger:     logger.New(),
		now:        time.Now,
	}
}

// Generate creates the missing occurrences of every active schedule for the
// closed range [start, end] and returns how many were created.
func (s *OccurrenceService) Generate(start, end time.Time) (int, error) {
	start, end = weekdays.Day(start), weekdays.Day(end)
	if end.Before(start) {
		return 0, invalid("end date %s is before start date %s", weekdays.Key(end), weekdays.Key(start))
	}

	schedules, err := s.schedules.GetActive()
	if err != nil {
		return 0, storeError("list active schedules", err)
	}

	total := 0
	for _, schedule := range schedules {
		created, err := s.GenerateForSchedule(schedule, start, end)
		if err != nil {
			return total, err
		}
		total += len(created)
	}

	s.logger.WithFields(logrus.Fields{
		"start":     weekdays.Key(start),
		"end":       weekdays.Key(end),
		"schedules": len(schedules),
		"created":   total,
	}).Info("Occurrence generation finished")

	return total, nil
}

// GenerateForSchedule creates one unscheduled occurrence for every date in
// [start, end] whose weekday is in the schedule's active day set and that the
// property has no occurrence for yet.
func (s *OccurrenceService) GenerateForSchedule(schedule *models.RouteSchedule, start, end time.Time) ([]*models.ServiceOccurrence, error) {
	start, end = weekdays.Day(start), weekdays.Day(end)
	if !schedule.IsActive {
		return nil, nil
	}

	days := weekdays.Set(schedule.ActiveDays())
	if len(days) == 0 {
		return nil, nil
	}

	existing, err := s.repo.GetByPropertyInRange(schedule.PropertyID, start, end)
	if err != nil {
		return nil, storeError("load existing occurrences", err)
	}

	taken := make(map[string]bool, len(existing))
	for _, occ := range existing {
		taken[weekdays.Key(occ.Date)] = true
	}

	scheduleID := schedule.ID
	var created []*models.ServiceOccurrence
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		key := weekdays.Key(d)
		if !days[weekdays.FromDate(d)] || taken[key] {
			continue
		}
		taken[key] = true

		created = append(created, &models.ServiceOccurrence{
			PropertyID:       schedule.PropertyID,
			Date:             d,
			Status:           models.OccurrenceUnscheduled,
			SourceScheduleID: &scheduleID,
			IsAutoGenerated:  true,
		})
	}

	if err := s.repo.BulkCreate(created); err != nil {
		return nil, storeError("create occurrences", err)
	}

	metrics.RecordOccurrencesGenerated(len(created))
	return created, nil
}

// Regenerate drops every occurrence sourced from the schedule and generates
// the range again.
func (s *OccurrenceService) Regenerate(schedule *models.RouteSchedule, start, end time.Time) ([]*models.ServiceOccurrence, error) {
	deleted, err := s.repo.DeleteBySchedule(schedule.ID)
	if err != nil {
		return nil, storeError("delete schedule occurrences", err)
	}

	created, err := s.GenerateForSchedule(schedule, start, end)
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"schedule_id": schedule.ID,
		"deleted":     deleted,
		"created":     len(created),
	}).Debug("Schedule occurrences regenerated")

	return created, nil
}

// ListUnscheduled generates the range lazily, then returns its unscheduled
// occurrences enriched with property details.
func (s *OccurrenceService) ListUnscheduled(start, end time.Time) ([]OccurrenceView, error) {
	if _, err := s.Generate(start, end); err != nil {
		return nil, err
	}

	occurrences, err := s.repo.GetUnscheduled(weekdays.Day(start), weekdays.Day(end))
	if err != nil {
		return nil, storeError("list unscheduled occurrences", err)
	}

	return s.enrich(occurrences)
}

func (s *OccurrenceService) ListByProperty(propertyID string) ([]*models.ServiceOccurrence, error) {
	occurrences, err := s.repo.GetByProperty(propertyID)
	if err != nil {
		return nil, storeError("list property occurrences", err)
	}
	return occurrences, nil
}

// UpcomingVisits returns the property's occurrences from two weeks back to
// four weeks ahead with their route details.
func (s *OccurrenceService) UpcomingVisits(propertyID string) ([]VisitView, error) {
	today := weekdays.Day(s.now())
	occurrences, err := s.repo.GetByPropertyInRange(propertyID, today.AddDate(0, 0, -14), today.AddDate(0, 0, 28))
	if err != nil {
		return nil, storeError("list property visits", err)
	}

	routes := make(map[string]*models.Route)
	visits := make([]VisitView, 0, len(occurrences))
	for _, occ := range occurrences {
		visit := VisitView{
			ID:      occ.ID,
			Date:    occ.Date,
			Status:  occ.Status,
			RouteID: occ.RouteID,
		}

		if occ.IsScheduled() {
			route, ok := routes[*occ.RouteID]
			if !ok {
				route, err = s.routes.GetByID(*occ.RouteID)
				if err != nil {
					return nil, storeError("get route", err)
				}
				routes[*occ.RouteID] = route
			}
			if route != nil {
				visit.RouteName = &route.Name
				visit.RouteColor = &route.Color
				visit.TechnicianName = route.TechnicianName
			}
		}

		visits = append(visits, visit)
	}

	sort.SliceStable(visits, func(i, j int) bool { return visits[i].Date.Before(visits[j].Date) })
	return visits, nil
}

// Assign schedules the occurrence on a route. The technician defaults to the
// route's own technician.
func (s *OccurrenceService) Assign(id, routeID string, technicianID *string) (*models.ServiceOccurrence, error) {
	occ, err := s.repo.GetByID(id)
	if err != nil {
		return nil, storeError("get occurrence", err)
	}
	if occ == nil {
		return nil, notFound("occurrence", id)
	}

	route, err := s.routes.GetByID(routeID)
	if err != nil {
		return nil, storeError("get route", err)
	}
	if route == nil {
		return nil, notFound("route", routeID)
	}

	if technicianID == nil || *technicianID == "" {
		technicianID = route.TechnicianID
	}

	if err := s.repo.Assign(id, routeID, technicianID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound("occurrence", id)
		}
		return nil, storeError("assign occurrence", err)
	}

	s.logger.WithFields(logrus.Fields{
		"occurrence_id": id,
		"route_id":      routeID,
		"technician_id": deref(technicianID),
	}).Info("Occurrence assigned")

	return s.reload(id)
}

func (s *OccurrenceService) Unassign(id string) (*models.ServiceOccurrence, error) {
	if err := s.repo.Unassign(id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound("occurrence", id)
		}
		return nil, storeError("unassign occurrence", err)
	}

	s.logger.WithField("occurrence_id", id).Info("Occurrence unassigned")
	return s.reload(id)
}

func (s *OccurrenceService) reload(id string) (*models.ServiceOccurrence, error) {
	occ, err := s.repo.GetByID(id)
	if err != nil {
		return nil, storeError("get occurrence", err)
	}
	if occ == nil {
		return nil, notFound("occurrence", id)
	}
	return occ, nil
}

func (s *OccurrenceService) enrich(occurrences []*models.ServiceOccurrence) ([]OccurrenceView, error) {
	ids := make([]string, 0, len(occurrences))
	for _, occ := range occurrences {
		ids = append(ids, occ.PropertyID)
	}

	properties := map[string]*models.Property{}
	if s.properties != nil {
		found, err := s.properties.GetByIDs(ids)
		if err != nil {
			return nil, storeError("load properties", err)
		}
		properties = found
	}

	views := make([]OccurrenceView, 0, len(occurrences))
	for _, occ := range occurrences {
		view := OccurrenceView{ServiceOccurrence: *occ, PropertyName: occ.PropertyID}
		if p, ok := properties[occ.PropertyID]; ok {
			view.PropertyName = p.DisplayName()
			view.CustomerName = p.CustomerName()
			view.Address = p.FullAddress()
		}
		views = append(views, view)
	}
	return views, nil
}
