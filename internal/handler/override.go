package handler

import (
	"net/http"
	"pool-route-scheduler/internal/service"
	"strconv"

	"github.com/gin-gonic/gin"
)

type batchOverrideRequest struct {
	Overrides []service.OverrideInput `json:"overrides" binding:"required"`
}

func (h *Handler) createOverride(c *gin.Context) {
	var in service.OverrideInput
	if !bindJSON(c, &in) {
		return
	}

	override, err := h.overrideService.Create(in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, override)
}

// createOverrideBatch stores every override or none of them.
func (h *Handler) createOverrideBatch(c *gin.Context) {
	var req batchOverrideRequest
	if !bindJSON(c, &req) {
		return
	}

	overrides, err := h.overrideService.CreateBatch(req.Overrides)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"created": len(overrides), "overrides": overrides})
}

func (h *Handler) queryOverrides(c *gin.Context) {
	var q service.OverrideQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, "invalid query", err)
		return
	}

	overrides, err := h.overrideService.Query(q)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, overrides)
}

func (h *Handler) overrideHistory(c *gin.Context) {
	var q service.OverrideQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, "invalid query", err)
		return
	}

	page, err := intQuery(c, "page", 1)
	if err != nil {
		badRequest(c, "invalid page", err)
		return
	}
	limit, err := intQuery(c, "limit", 0)
	if err != nil {
		badRequest(c, "invalid limit", err)
		return
	}

	result, err := h.overrideService.History(q, page, limit)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) overridesByDate(c *gin.Context) {
	overrides, err := h.overrideService.ByDate(c.Param("date"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, overrides)
}

func (h *Handler) patchOverride(c *gin.Context) {
	var patch service.CoveringPatch
	if !bindJSON(c, &patch) {
		return
	}

	override, err := h.overrideService.PatchCovering(c.Param("id"), patch)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, override)
}

func (h *Handler) deleteOverride(c *gin.Context) {
	if err := h.overrideService.Delete(c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func intQuery(c *gin.Context, name string, fallback int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}
