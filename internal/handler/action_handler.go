package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/KasumiMercury/primind-dose-reminder/internal/domain"
	"github.com/KasumiMercury/primind-dose-reminder/internal/service/action"
)

type ActionRequest struct {
	Action         string                     `json:"action" binding:"required"`
	NotificationID string                     `json:"notification_id"`
	Payload        domain.NotificationPayload `json:"payload"`
}

type ActionHandler struct {
	actionService *action.Service
}

func NewActionHandler(actionService *action.Service) *ActionHandler {
	return &ActionHandler{
		actionService: actionService,
	}
}

// Handle processes a button pressed on a delivered reminder.
func (h *ActionHandler) Handle(c *gin.Context) {
	ctx := c.Request.Context()

	var req ActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	slog.InfoContext(ctx, "handling notification action",
		slog.String("action", req.Action),
		slog.String("notification_id", req.NotificationID),
		slog.String("group_key", req.Payload.GroupKey),
	)

	result, err := h.actionService.Handle(ctx, action.Action(req.Action), req.Payload)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
