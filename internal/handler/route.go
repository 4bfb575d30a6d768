package handler

import (
	"net/http"
	"pool-route-scheduler/internal/service"
	"pool-route-scheduler/pkg/weekdays"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

type reorderRequest struct {
	IDs []string `json:"ids" binding:"required"`
}

// listRoutes filters by day_of_week, or returns dated routes when
// start_date and end_date are given.
func (h *Handler) listRoutes(c *gin.Context) {
	if c.Query("start_date") != "" || c.Query("end_date") != "" {
		start, end, ok := dateRange(c)
		if !ok {
			return
		}
		routes, err := h.routeService.ListRoutesByDateRange(start, end)
		if err != nil {
			h.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, routes)
		return
	}

	var dayOfWeek *int
	if raw := c.Query("day_of_week"); raw != "" {
		day, err := strconv.Atoi(raw)
		if err != nil {
			badRequest(c, "invalid day_of_week", err)
			return
		}
		dayOfWeek = &day
	}

	routes, err := h.routeService.ListRoutes(dayOfWeek)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, routes)
}

func (h *Handler) createRoute(c *gin.Context) {
	var in service.RouteInput
	if !bindJSON(c, &in) {
		return
	}

	route, err := h.routeService.CreateRoute(in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, route)
}

func (h *Handler) getRoute(c *gin.Context) {
	route, err := h.routeService.GetRoute(c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, route)
}

func (h *Handler) updateRoute(c *gin.Context) {
	var in service.RouteInput
	if !bindJSON(c, &in) {
		return
	}

	route, err := h.routeService.UpdateRoute(c.Param("id"), in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, route)
}

func (h *Handler) deleteRoute(c *gin.Context) {
	if err := h.routeService.DeleteRoute(c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) reorderRoutes(c *gin.Context) {
	var req reorderRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.routeService.ReorderRoutes(req.IDs); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// stopsOnDate lists a route's stops for ?date=, today when absent.
func (h *Handler) stopsOnDate(c *gin.Context) {
	date, present, ok := dateQuery(c, "date")
	if !ok {
		return
	}
	if !present {
		date = weekdays.Day(time.Now())
	}

	stops, err := h.routeService.StopsOnDate(c.Param("id"), date)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stops)
}

func (h *Handler) createStop(c *gin.Context) {
	var in service.StopInput
	if !bindJSON(c, &in) {
		return
	}

	stop, err := h.routeService.CreateStop(in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, stop)
}

func (h *Handler) updateStop(c *gin.Context) {
	var patch service.StopPatch
	if !bindJSON(c, &patch) {
		return
	}

	stop, err := h.routeService.UpdateStop(c.Param("id"), patch)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stop)
}

func (h *Handler) deleteStop(c *gin.Context) {
	if err := h.routeService.DeleteStop(c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) reorderStops(c *gin.Context) {
	var req reorderRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.routeService.ReorderStops(req.IDs); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type moveStopRequest struct {
	RouteID   string `json:"route_id" binding:"required"`
	Permanent bool   `json:"permanent"`
	Date      string `json:"date"`
}

func (h *Handler) moveStop(c *gin.Context) {
	var req moveStopRequest
	if !bindJSON(c, &req) {
		return
	}

	var move service.StopMove = service.PermanentMove{RouteID: req.RouteID}
	if !req.Permanent {
		temporary := service.TemporaryMove{RouteID: req.RouteID}
		if req.Date != "" {
			date, err := weekdays.ParseDate(req.Date)
			if err != nil {
				badRequest(c, "invalid date", err)
				return
			}
			temporary.Date = date
		}
		move = temporary
	}

	stop, err := h.routeService.MoveStop(c.Param("id"), move)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stop)
}

func (h *Handler) technicianStops(c *gin.Context) {
	stops, err := h.routeService.TechnicianStops(c.Param("technicianId"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stops)
}

func (h *Handler) syncStops(c *gin.Context) {
	created, err := h.routeService.SyncStopsFromAssignments()
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"created": created})
}

func (h *Handler) listUnscheduledStops(c *gin.Context) {
	stops, err := h.routeService.ListUnscheduledStops()
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stops)
}

func (h *Handler) createUnscheduledStop(c *gin.Context) {
	var in service.UnscheduledStopInput
	if !bindJSON(c, &in) {
		return
	}

	stop, err := h.routeService.CreateUnscheduledStop(in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, stop)
}

func (h *Handler) deleteUnscheduledStop(c *gin.Context) {
	if err := h.routeService.DeleteUnscheduledStop(c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type assignStopRequest struct {
	RouteID string `json:"route_id" binding:"required"`
}

func (h *Handler) assignUnscheduledStop(c *gin.Context) {
	var req assignStopRequest
	if !bindJSON(c, &req) {
		return
	}

	stop, err := h.routeService.AssignUnscheduledStop(c.Param("id"), req.RouteID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, stop)
}

func (h *Handler) resetScheduling(c *gin.Context) {
	counts, err := h.routeService.ResetSchedulingData()
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, counts)
}
