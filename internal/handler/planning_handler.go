package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/KasumiMercury/primind-dose-reminder/internal/service/reconcile"
)

type Planner interface {
	RequestPlanning(reason string)
	Reconcile(ctx context.Context, reasons ...string) (*reconcile.Result, error)
	Snapshot() reconcile.Snapshot
}

type TriggerRequest struct {
	Reason string `json:"reason"`
	Sync   bool   `json:"sync"`
}

type PlanningHandler struct {
	planner Planner
}

func NewPlanningHandler(planner Planner) *PlanningHandler {
	return &PlanningHandler{
		planner: planner,
	}
}

// Trigger requests a debounced pass, or runs one immediately when sync is
// set. Clients call it when the app returns to the foreground.
func (h *PlanningHandler) Trigger(c *gin.Context) {
	var req TriggerRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err)
			return
		}
	}
	if req.Reason == "" {
		req.Reason = "foreground"
	}

	if !req.Sync {
		h.planner.RequestPlanning(req.Reason)
		c.JSON(http.StatusAccepted, gin.H{"status": "queued", "reason": req.Reason})
		return
	}

	result, err := h.planner.Reconcile(c.Request.Context(), req.Reason)
	if err != nil && !errors.Is(err, reconcile.ErrPassFailed) {
		respondServiceError(c, err)
		return
	}
	if err != nil {
		c.JSON(http.StatusBadGateway, result)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *PlanningHandler) Snapshot(c *gin.Context) {
	c.JSON(http.StatusOK, h.planner.Snapshot())
}
