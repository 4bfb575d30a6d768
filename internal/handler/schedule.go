package handler

import (
	"net/http"
	"pool-route-scheduler/internal/service"
	"pool-route-scheduler/pkg/weekdays"

	"github.com/gin-gonic/gin"
)

func (h *Handler) getSchedule(c *gin.Context) {
	propertyID := c.Param("propertyId")
	schedule, err := h.scheduleService.GetByProperty(propertyID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if schedule == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no schedule for property " + propertyID})
		return
	}
	c.JSON(http.StatusOK, schedule)
}

func (h *Handler) upsertSchedule(c *gin.Context) {
	var patch service.SchedulePatch
	if !bindJSON(c, &patch) {
		return
	}

	schedule, err := h.scheduleService.Upsert(c.Param("propertyId"), patch)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, schedule)
}

type generateRequest struct {
	StartDate string `json:"start_date" binding:"required"`
	EndDate   string `json:"end_date" binding:"required"`
}

func (h *Handler) generateOccurrences(c *gin.Context) {
	var req generateRequest
	if !bindJSON(c, &req) {
		return
	}
	start, err := weekdays.ParseDate(req.StartDate)
	if err != nil {
		badRequest(c, "invalid start_date", err)
		return
	}
	end, err := weekdays.ParseDate(req.EndDate)
	if err != nil {
		badRequest(c, "invalid end_date", err)
		return
	}

	created, err := h.occurrenceService.Generate(start, end)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"generated": created})
}

func (h *Handler) listUnscheduled(c *gin.Context) {
	start, end, ok := dateRange(c)
	if !ok {
		return
	}

	occurrences, err := h.occurrenceService.ListUnscheduled(start, end)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, occurrences)
}

type assignOccurrenceRequest struct {
	RouteID      string             `json:"route_id" binding:"required"`
	TechnicianID service.FlexibleID `json:"technician_id"`
}

func (h *Handler) assignOccurrence(c *gin.Context) {
	var req assignOccurrenceRequest
	if !bindJSON(c, &req) {
		return
	}

	occurrence, err := h.occurrenceService.Assign(c.Param("id"), req.RouteID, req.TechnicianID.Ptr())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, occurrence)
}

func (h *Handler) unassignOccurrence(c *gin.Context) {
	occurrence, err := h.occurrenceService.Unassign(c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, occurrence)
}

func (h *Handler) listPropertyOccurrences(c *gin.Context) {
	occurrences, err := h.occurrenceService.ListByProperty(c.Param("propertyId"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, occurrences)
}

func (h *Handler) upcomingVisits(c *gin.Context) {
	visits, err := h.occurrenceService.UpcomingVisits(c.Param("propertyId"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, visits)
}

func (h *Handler) listPropertyTechnicians(c *gin.Context) {
	assignments, err := h.assignmentService.ListPropertyTechnicians(c.Param("propertyId"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, assignments)
}

func (h *Handler) assignPropertyTechnician(c *gin.Context) {
	var in service.AssignmentInput
	if !bindJSON(c, &in) {
		return
	}

	assignment, err := h.assignmentService.AssignTechnician(c.Param("propertyId"), in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, assignment)
}

func (h *Handler) removePropertyTechnician(c *gin.Context) {
	if err := h.assignmentService.RemovePropertyTechnician(c.Param("propertyId"), c.Param("technicianId")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
