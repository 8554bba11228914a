package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/KasumiMercury/primind-dose-reminder/internal/domain"
	"github.com/KasumiMercury/primind-dose-reminder/internal/service/medication"
)

type StatusRequest struct {
	Date         *domain.Date `json:"date"`
	MedicationID string       `json:"medication_id" binding:"required"`
	Time         string       `json:"time"`
	Status       string       `json:"status" binding:"required"`
}

type StatusResponse struct {
	Date         domain.Date `json:"date"`
	MedicationID string      `json:"medication_id"`
	Time         string      `json:"time,omitempty"`
	Status       string      `json:"status"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

type StatusHandler struct {
	medicationService *medication.Service
}

func NewStatusHandler(medicationService *medication.Service) *StatusHandler {
	return &StatusHandler{
		medicationService: medicationService,
	}
}

// History lists stored statuses filtered by from, to and medication_id.
func (h *StatusHandler) History(c *gin.Context) {
	from, err := queryDate(c, "from")
	if err != nil {
		bindError(c, err)
		return
	}
	to, err := queryDate(c, "to")
	if err != nil {
		bindError(c, err)
		return
	}

	records, err := h.medicationService.History(c.Request.Context(), medication.HistoryQuery{
		From:         from,
		To:           to,
		MedicationID: c.Query("medication_id"),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	resp := make([]StatusResponse, 0, len(records))
	for _, r := range records {
		resp = append(resp, StatusResponse{
			Date:         r.Date,
			MedicationID: r.MedicationID,
			Time:         r.Time,
			Status:       string(r.Status),
			UpdatedAt:    r.UpdatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"statuses": resp})
}

func (h *StatusHandler) Set(c *gin.Context) {
	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	record := domain.StatusRecord{
		MedicationID: req.MedicationID,
		Time:         req.Time,
		Status:       domain.DoseStatus(req.Status),
	}
	if req.Date != nil {
		record.Date = *req.Date
	}

	if err := h.medicationService.SetStatus(c.Request.Context(), record); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *StatusHandler) Progress(c *gin.Context) {
	date, err := queryDate(c, "date")
	if err != nil {
		bindError(c, err)
		return
	}

	progress, err := h.medicationService.Progress(c.Request.Context(), date)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, progress)
}
