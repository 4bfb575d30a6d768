package handler

import (
	"errors"
	"net/http"
	"pool-route-scheduler/internal/logger"
	"pool-route-scheduler/internal/metrics"
	"pool-route-scheduler/internal/service"
	"pool-route-scheduler/pkg/weekdays"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type Handler struct {
	scheduleService   *service.ScheduleService
	occurrenceService *service.OccurrenceService
	routeService      *service.RouteService
	overrideService   *service.OverrideService
	assignmentService *service.PropertyTechnicianService
	jobService        *service.JobService
	sweeper           *service.DeadlineSweeper
	logger            *logrus.Logger
}

func NewHandler(
	scheduleService *service.ScheduleService,
	occurrenceService *service.OccurrenceService,
	routeService *service.RouteService,
	overrideService *service.OverrideService,
	assignmentService *service.PropertyTechnicianService,
	jobService *service.JobService,
	sweeper *service.DeadlineSweeper,
) *Handler {
	return &Handler{
		scheduleService:   scheduleService,
		occurrenceService: occurrenceService,
		routeService:      routeService,
		overrideService:   overrideService,
		assignmentService: assignmentService,
		jobService:        jobService,
		sweeper:           sweeper,
		logger:            logger.New(),
	}
}

// Router builds the HTTP API. An empty jwtSecret leaves /api open.
func (h *Handler) Router(jwtSecret string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), h.requestLogger(), CORS())

	r.GET("/health", h.health)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := r.Group("/api")
	if jwtSecret != "" {
		api.Use(RequireAuth([]byte(jwtSecret)))
	}

	api.GET("/schedules/:propertyId", h.getSchedule)
	api.PUT("/schedules/:propertyId", h.upsertSchedule)

	api.POST("/occurrences/generate", h.generateOccurrences)
	api.GET("/occurrences/unscheduled", h.listUnscheduled)
	api.POST("/occurrences/:id/assign", h.assignOccurrence)
	api.POST("/occurrences/:id/unassign", h.unassignOccurrence)

	api.GET("/properties/:propertyId/occurrences", h.listPropertyOccurrences)
	api.GET("/properties/:propertyId/visits", h.upcomingVisits)
	api.GET("/properties/:propertyId/technicians", h.listPropertyTechnicians)
	api.POST("/properties/:propertyId/technicians", h.assignPropertyTechnician)
	api.DELETE("/properties/:propertyId/technicians/:technicianId", h.removePropertyTechnician)

	api.GET("/routes", h.listRoutes)
	api.POST("/routes", h.createRoute)
	api.POST("/routes/reorder", h.reorderRoutes)
	api.GET("/routes/:id", h.getRoute)
	api.PATCH("/routes/:id", h.updateRoute)
	api.DELETE("/routes/:id", h.deleteRoute)
	api.GET("/routes/:id/stops", h.stopsOnDate)

	api.POST("/stops", h.createStop)
	api.POST("/stops/reorder", h.reorderStops)
	api.POST("/stops/sync", h.syncStops)
	api.PATCH("/stops/:id", h.updateStop)
	api.DELETE("/stops/:id", h.deleteStop)
	api.POST("/stops/:id/move", h.moveStop)

	api.GET("/technicians/:technicianId/stops", h.technicianStops)

	api.GET("/unscheduled-stops", h.listUnscheduledStops)
	api.POST("/unscheduled-stops", h.createUnscheduledStop)
	api.DELETE("/unscheduled-stops/:id", h.deleteUnscheduledStop)
	api.POST("/unscheduled-stops/:id/assign", h.assignUnscheduledStop)

	api.POST("/scheduling/reset", h.resetScheduling)

	api.GET("/overrides", h.queryOverrides)
	api.POST("/overrides", h.createOverride)
	api.POST("/overrides/batch", h.createOverrideBatch)
	api.GET("/overrides/history", h.overrideHistory)
	api.GET("/overrides/date/:date", h.overridesByDate)
	api.PATCH("/overrides/:id", h.patchOverride)
	api.DELETE("/overrides/:id", h.deleteOverride)

	api.POST("/jobs/sweep", h.sweepJobs)
	api.GET("/jobs/:id", h.getJob)
	api.POST("/jobs/:id/assign", h.assignJob)
	api.GET("/jobs/:id/history", h.jobHistory)

	return r
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":         "ok",
		"sweeper_active": h.sweeper != nil && h.sweeper.Running(),
	})
}

func (h *Handler) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := c.Writer.Status()
		elapsed := time.Since(start)
		metrics.RecordHTTPRequest(c.Request.Method, path, status, elapsed)

		entry := h.logger.WithFields(logrus.Fields{
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status":      status,
			"duration_ms": elapsed.Milliseconds(),
		})
		if status >= http.StatusInternalServerError {
			entry.Error("Request failed")
			return
		}
		entry.Debug("Request handled")
	}
}

// respondError maps service errors onto HTTP statuses.
func (h *Handler) respondError(c *gin.Context, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "details": verr.Problems})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		h.logger.WithError(err).WithField("path", c.Request.URL.Path).Error("Request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func badRequest(c *gin.Context, message string, err error) {
	body := gin.H{"error": message}
	if err != nil {
		body["details"] = []string{err.Error()}
	}
	c.JSON(http.StatusBadRequest, body)
}

// bindJSON decodes the body into dst and answers 400 when it cannot.
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		badRequest(c, "invalid request body", err)
		return false
	}
	return true
}

// dateQuery reads a YYYY-MM-DD query parameter. ok is false after a 400 was sent.
func dateQuery(c *gin.Context, name string) (date time.Time, present, ok bool) {
	raw := c.Query(name)
	if raw == "" {
		return time.Time{}, false, true
	}
	date, err := weekdays.ParseDate(raw)
	if err != nil {
		badRequest(c, "invalid "+name, err)
		return time.Time{}, true, false
	}
	return date, true, true
}

// dateRange reads start_date and end_date, both required.
func dateRange(c *gin.Context) (start, end time.Time, ok bool) {
	start, hasStart, ok := dateQuery(c, "start_date")
	if !ok {
		return start, end, false
	}
	end, hasEnd, ok := dateQuery(c, "end_date")
	if !ok {
		return start, end, false
	}
	if !hasStart || !hasEnd {
		badRequest(c, "start_date and end_date are required", nil)
		return start, end, false
	}
	return start, end, true
}
