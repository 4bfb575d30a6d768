package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"pool-route-scheduler/internal/database"
	"pool-route-scheduler/internal/models"
	"pool-route-scheduler/internal/repository"
	"pool-route-scheduler/internal/service"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	router      *gin.Engine
	technicians *repository.TechnicianRepository
	estimates   *repository.GormEstimateRepository
}

func newTestServer(t *testing.T, jwtSecret string) *testServer {
	t.Helper()

	name := "handler_" + strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.OpenMemory(name)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	scheduleRepo, err := repository.NewGormScheduleRepository(db)
	require.NoError(t, err)
	occurrenceRepo, err := repository.NewGormOccurrenceRepository(db)
	require.NoError(t, err)
	routeRepo, err := repository.NewGormRouteRepository(db)
	require.NoError(t, err)
	stopRepo, err := repository.NewGormRouteStopRepository(db)
	require.NoError(t, err)
	unscheduledRepo, err := repository.NewGormUnscheduledStopRepository(db)
	require.NoError(t, err)
	overrideRepo, err := repository.NewGormOverrideRepository(db)
	require.NoError(t, err)
	estimateRepo, err := repository.NewGormEstimateRepository(db)
	require.NoError(t, err)
	assignmentRepo, err := repository.NewGormPropertyTechnicianRepository(db)
	require.NoError(t, err)
	properties, err := repository.NewPropertyRepository(db)
	require.NoError(t, err)
	technicians, err := repository.NewTechnicianRepository(db)
	require.NoError(t, err)

	occurrences := service.NewOccurrenceService(occurrenceRepo, scheduleRepo, routeRepo, properties)
	h := NewHandler(
		service.NewScheduleService(scheduleRepo, occurrences),
		occurrences,
		service.NewRouteService(routeRepo, stopRepo, unscheduledRepo, occurrenceRepo, scheduleRepo, assignmentRepo, properties, technicians),
		service.NewOverrideService(overrideRepo, technicians),
		service.NewPropertyTechnicianService(assignmentRepo, technicians),
		service.NewJobService(estimateRepo, technicians),
		service.NewDeadlineSweeper(estimateRepo, technicians, nil),
	)

	return &testServer{
		router:      h.Router(jwtSecret),
		technicians: technicians,
		estimates:   estimateRepo,
	}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}, header ...string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst), rec.Body.String())
}

type errorBody struct {
	Error   string   `json:"error"`
	Details []string `json:"details"`
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, "")

	rec := s.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	decode(t, rec, &body)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, false, body["sweeper_active"])
}

func TestScheduleEndpoints(t *testing.T) {
	s := newTestServer(t, "")

	rec := s.do(t, http.MethodPut, "/api/schedules/p1", map[string]interface{}{
		"summer_visit_days": []string{"Thursday", "mon"},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var schedule models.RouteSchedule
	decode(t, rec, &schedule)
	assert.Equal(t, "p1", schedule.PropertyID)
	assert.Equal(t, models.SeasonSummer, schedule.ActiveSeason)
	assert.Equal(t, []string{"monday", "thursday"}, []string(schedule.SummerVisitDays))

	rec = s.do(t, http.MethodGet, "/api/schedules/p1", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/schedules/p2", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodPut, "/api/schedules/p1", map[string]interface{}{"active_season": "spring"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var problems errorBody
	decode(t, rec, &problems)
	assert.Equal(t, "validation failed", problems.Error)
	assert.NotEmpty(t, problems.Details)

	rec = s.do(t, http.MethodPut, "/api/schedules/p1", map[string]interface{}{"visit_pattern": "Mon-Fri"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decode(t, rec, &schedule)
	assert.Equal(t, []string{"monday", "tuesday", "wednesday", "thursday", "friday"}, []string(schedule.SummerVisitDays))
}

func TestMalformedBody(t *testing.T) {
	s := newTestServer(t, "")

	rec := s.do(t, http.MethodPost, "/api/routes", `{"name": `)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body errorBody
	decode(t, rec, &body)
	assert.Equal(t, "invalid request body", body.Error)

	rec = s.do(t, http.MethodPost, "/api/overrides", `{"property_id":"p1","covering_technician_id":true}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUnscheduledRequiresRange(t *testing.T) {
	s := newTestServer(t, "")

	rec := s.do(t, http.MethodGet, "/api/occurrences/unscheduled?start_date=2024-06-01", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/occurrences/unscheduled?start_date=2024-06-01&end_date=June", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/occurrences/unscheduled?start_date=2024-06-01&end_date=2024-06-07", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestStopLifecycle(t *testing.T) {
	s := newTestServer(t, "")
	require.NoError(t, s.technicians.Create(&models.Technician{ID: "t1", FirstName: "Dana", LastName: "Reyes", Active: true}))

	rec := s.do(t, http.MethodPost, "/api/stops", map[string]interface{}{
		"technician_id": "t1",
		"day_of_week":   3,
		"property_id":   "p1",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var stop models.RouteStop
	decode(t, rec, &stop)
	assert.NotEmpty(t, stop.RouteID)
	assert.Equal(t, "Unknown Property", stop.PropertyName)

	rec = s.do(t, http.MethodGet, "/api/routes?day_of_week=3", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var routes []service.RouteWithStops
	decode(t, rec, &routes)
	require.Len(t, routes, 1)
	assert.Equal(t, "Dana Reyes's Wednesday Route", routes[0].Name)
	require.Len(t, routes[0].Stops, 1)
	assert.Equal(t, stop.ID, routes[0].Stops[0].ID)

	rec = s.do(t, http.MethodPost, "/api/routes", map[string]interface{}{"name": "Backup", "day_of_week": 3})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var backup models.Route
	decode(t, rec, &backup)

	rec = s.do(t, http.MethodPost, "/api/stops/"+stop.ID+"/move", map[string]interface{}{
		"route_id": backup.ID,
		"date":     "2024-06-05",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var onBackup []service.StopView
	rec = s.do(t, http.MethodGet, "/api/routes/"+backup.ID+"/stops?date=2024-06-05", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &onBackup)
	require.Len(t, onBackup, 1)
	assert.Equal(t, stop.ID, onBackup[0].ID)
	require.NotNil(t, onBackup[0].MovedFromRouteID)
	assert.Equal(t, stop.RouteID, *onBackup[0].MovedFromRouteID)

	var onOriginal []service.StopView
	rec = s.do(t, http.MethodGet, "/api/routes/"+stop.RouteID+"/stops?date=2024-06-05", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &onOriginal)
	assert.Empty(t, onOriginal)

	rec = s.do(t, http.MethodPost, "/api/stops/"+stop.ID+"/move", map[string]interface{}{"route_id": "nowhere", "permanent": true})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodDelete, "/api/routes/"+stop.RouteID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/routes/"+stop.RouteID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOverrideBatchEndpoint(t *testing.T) {
	s := newTestServer(t, "")

	entry := func(covering interface{}) map[string]interface{} {
		return map[string]interface{}{
			"date":                     "2024-07-01",
			"property_id":              "p1",
			"property_name":            "12 Palm Way",
			"original_technician_id":   "3",
			"covering_technician_id":   covering,
			"covering_technician_name": "Sam Ortiz",
			"override_type":            "reassign",
			"reason":                   "vacation",
		}
	}

	rec := s.do(t, http.MethodPost, "/api/overrides/batch", map[string]interface{}{
		"overrides": []interface{}{entry(7), entry(nil)},
	})
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	var problems errorBody
	decode(t, rec, &problems)
	assert.Contains(t, problems.Details, "overrides[1].covering_technician_id is required")

	rec = s.do(t, http.MethodGet, "/api/overrides?technician_id=7", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var none []models.RouteOverride
	decode(t, rec, &none)
	assert.Empty(t, none)

	rec = s.do(t, http.MethodPost, "/api/overrides/batch", map[string]interface{}{
		"overrides": []interface{}{entry(7), entry("8")},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/api/overrides?technician_id=7", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var covering []models.RouteOverride
	decode(t, rec, &covering)
	require.Len(t, covering, 1)
	assert.Equal(t, "7", *covering[0].CoveringTechnicianID)

	rec = s.do(t, http.MethodGet, "/api/overrides?technician_id=3", nil)
	var original []models.RouteOverride
	decode(t, rec, &original)
	assert.Len(t, original, 2)

	rec = s.do(t, http.MethodGet, "/api/overrides/history?page=1&limit=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var page service.OverridePage
	decode(t, rec, &page)
	assert.Len(t, page.Data, 1)
	assert.Equal(t, int64(2), page.Pagination.Total)
	assert.Equal(t, 2, page.Pagination.TotalPages)

	rec = s.do(t, http.MethodGet, "/api/overrides/date/2024-07-01", nil)
	var onDate []models.RouteOverride
	decode(t, rec, &onDate)
	assert.Len(t, onDate, 2)

	rec = s.do(t, http.MethodGet, "/api/overrides/date/July", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodDelete, "/api/overrides/"+covering[0].ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = s.do(t, http.MethodDelete, "/api/overrides/"+covering[0].ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestJobEndpoints(t *testing.T) {
	s := newTestServer(t, "")
	require.NoError(t, s.technicians.Create(&models.Technician{ID: "t1", FirstName: "Dana", LastName: "Reyes", Active: true}))

	rec := s.do(t, http.MethodPost, "/api/jobs/missing/assign", map[string]interface{}{"technician_id": "t1", "deadline_value": 4})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	job := &models.Estimate{PropertyName: "12 Palm Way", Status: models.EstimateStatusApproved}
	require.NoError(t, s.estimates.Create(job))

	rec = s.do(t, http.MethodPost, "/api/jobs/"+job.ID+"/assign", map[string]interface{}{"technician_id": "t1", "deadline_value": 4, "deadline_unit": "weeks"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/jobs/"+job.ID+"/assign", map[string]interface{}{"technician_id": "t1", "deadline_value": 2, "deadline_unit": "days"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var assigned models.Estimate
	decode(t, rec, &assigned)
	assert.Equal(t, models.EstimateStatusScheduled, assigned.Status)
	assert.Equal(t, "Dana Reyes", *assigned.RepairTechName)

	rec = s.do(t, http.MethodGet, "/api/jobs/"+job.ID+"/history", nil)
	var history []models.JobReassignment
	decode(t, rec, &history)
	assert.Len(t, history, 1)

	rec = s.do(t, http.MethodPost, "/api/jobs/sweep", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var result service.SweepResult
	decode(t, rec, &result)
	assert.Equal(t, service.SweepResult{}, result)
}

func TestRequireAuth(t *testing.T) {
	secret := "dispatch-secret"
	s := newTestServer(t, secret)

	rec := s.do(t, http.MethodGet, "/api/routes", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/routes", nil, "Authorization", "Token abc")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	forged, err := GenerateToken([]byte("other-secret"), "u1", "dispatcher", time.Hour)
	require.NoError(t, err)
	rec = s.do(t, http.MethodGet, "/api/routes", nil, "Authorization", "Bearer "+forged)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	expired, err := GenerateToken([]byte(secret), "u1", "dispatcher", -time.Hour)
	require.NoError(t, err)
	rec = s.do(t, http.MethodGet, "/api/routes", nil, "Authorization", "Bearer "+expired)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token, err := GenerateToken([]byte(secret), "u1", "dispatcher", time.Hour)
	require.NoError(t, err)
	rec = s.do(t, http.MethodGet, "/api/routes", nil, "Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t, "secret")

	rec := s.do(t, http.MethodOptions, "/api/routes", nil, "Origin", "http://dispatch.local")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://dispatch.local", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "PATCH")
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, "")

	s.do(t, http.MethodGet, "/health", nil)
	rec := s.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `scheduler_http_requests_total{method="GET",path="/health",status="200"}`)
}
