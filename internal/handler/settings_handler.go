package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/KasumiMercury/primind-dose-reminder/internal/domain"
	"github.com/KasumiMercury/primind-dose-reminder/internal/service/medication"
)

type SettingsBody struct {
	Enabled           bool   `json:"enabled"`
	QuietHoursEnabled bool   `json:"quiet_hours_enabled"`
	QuietFrom         string `json:"quiet_from"`
	QuietTo           string `json:"quiet_to"`
	RepeatEnabled     bool   `json:"repeat_enabled"`
	RepeatMinutes     int    `json:"repeat_minutes"`
	RepeatCount       int    `json:"repeat_count"`
}

type SettingsHandler struct {
	medicationService *medication.Service
}

func NewSettingsHandler(medicationService *medication.Service) *SettingsHandler {
	return &SettingsHandler{
		medicationService: medicationService,
	}
}

func (h *SettingsHandler) Get(c *gin.Context) {
	settings, err := h.medicationService.Settings(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, toSettingsBody(settings))
}

// Update applies the fields present in the body on top of the stored
// settings.
func (h *SettingsHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()

	current, err := h.medicationService.Settings(ctx)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	body := toSettingsBody(current)
	if err := c.ShouldBindJSON(&body); err != nil {
		bindError(c, err)
		return
	}

	updated, err := h.medicationService.UpdateSettings(ctx, domain.Settings{
		Enabled:           body.Enabled,
		QuietHoursEnabled: body.QuietHoursEnabled,
		QuietFrom:         body.QuietFrom,
		QuietTo:           body.QuietTo,
		RepeatEnabled:     body.RepeatEnabled,
		RepeatMinutes:     body.RepeatMinutes,
		RepeatCount:       body.RepeatCount,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, toSettingsBody(updated))
}

func toSettingsBody(s domain.Settings) SettingsBody {
	return SettingsBody{
		Enabled:           s.Enabled,
		QuietHoursEnabled: s.QuietHoursEnabled,
		QuietFrom:         s.QuietFrom,
		QuietTo:           s.QuietTo,
		RepeatEnabled:     s.RepeatEnabled,
		RepeatMinutes:     s.RepeatMinutes,
		RepeatCount:       s.RepeatCount,
	}
}
