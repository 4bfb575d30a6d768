package handler

import (
	"net/http"
	"pool-route-scheduler/internal/service"
	"time"

	"github.com/gin-gonic/gin"
)

func (h *Handler) getJob(c *gin.Context) {
	job, err := h.jobService.GetJob(c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

func (h *Handler) assignJob(c *gin.Context) {
	var in service.JobAssignment
	if !bindJSON(c, &in) {
		return
	}

	job, err := h.jobService.AssignJob(c.Param("id"), in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

func (h *Handler) jobHistory(c *gin.Context) {
	records, err := h.jobService.History(c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}

// sweepJobs runs a deadline sweep outside the schedule.
func (h *Handler) sweepJobs(c *gin.Context) {
	if h.sweeper == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "deadline sweeper not configured"})
		return
	}
	c.JSON(http.StatusOK, h.sweeper.SweepOnce(time.Now()))
}
