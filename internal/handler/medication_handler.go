package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/KasumiMercury/primind-dose-reminder/internal/domain"
	"github.com/KasumiMercury/primind-dose-reminder/internal/service/medication"
	"github.com/KasumiMercury/primind-dose-reminder/internal/service/recurrence"
)

type RecurrenceBody struct {
	Kind     string        `json:"kind"`
	Weekdays []int         `json:"weekdays,omitempty"`
	Dates    []domain.Date `json:"dates,omitempty"`
}

type MedicationRequest struct {
	Name       string         `json:"name" binding:"required"`
	Dosage     string         `json:"dosage"`
	Notes      string         `json:"notes"`
	Times      []string       `json:"times"`
	Time       string         `json:"time"`
	StartDate  *domain.Date   `json:"start_date"`
	Recurrence RecurrenceBody `json:"recurrence"`
	RRule      string         `json:"rrule"`
	Paused     *bool          `json:"paused"`
}

type MedicationResponse struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Dosage     string         `json:"dosage,omitempty"`
	Notes      string         `json:"notes,omitempty"`
	Times      []string       `json:"times"`
	Time       string         `json:"time,omitempty"`
	StartDate  *domain.Date   `json:"start_date,omitempty"`
	Recurrence RecurrenceBody `json:"recurrence"`
	RRule      string         `json:"rrule,omitempty"`
	Paused     bool           `json:"paused"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

type PauseRequest struct {
	Paused *bool `json:"paused" binding:"required"`
}

type MedicationHandler struct {
	medicationService *medication.Service
}

func NewMedicationHandler(medicationService *medication.Service) *MedicationHandler {
	return &MedicationHandler{
		medicationService: medicationService,
	}
}

func (h *MedicationHandler) List(c *gin.Context) {
	meds, err := h.medicationService.List(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	resp := make([]MedicationResponse, 0, len(meds))
	for _, med := range meds {
		resp = append(resp, toMedicationResponse(med))
	}
	c.JSON(http.StatusOK, gin.H{"medications": resp})
}

func (h *MedicationHandler) Get(c *gin.Context) {
	med, err := h.medicationService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, toMedicationResponse(med))
}

func (h *MedicationHandler) Create(c *gin.Context) {
	var req MedicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	med, err := h.medicationService.Create(c.Request.Context(), req.toInput())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toMedicationResponse(med))
}

func (h *MedicationHandler) Update(c *gin.Context) {
	var req MedicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	med, err := h.medicationService.Update(c.Request.Context(), c.Param("id"), req.toInput())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, toMedicationResponse(med))
}

func (h *MedicationHandler) Delete(c *gin.Context) {
	if err := h.medicationService.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *MedicationHandler) Pause(c *gin.Context) {
	var req PauseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	med, err := h.medicationService.SetPaused(c.Request.Context(), c.Param("id"), *req.Paused)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, toMedicationResponse(med))
}

func (r MedicationRequest) toInput() medication.Input {
	return medication.Input{
		Name:       r.Name,
		Dosage:     r.Dosage,
		Notes:      r.Notes,
		Times:      r.Times,
		LegacyTime: r.Time,
		StartDate:  r.StartDate,
		Recurrence: domain.RecurrenceRule{
			Kind:     domain.RecurrenceKind(r.Recurrence.Kind),
			Weekdays: r.Recurrence.Weekdays,
			Dates:    r.Recurrence.Dates,
		},
		RRule:  r.RRule,
		Paused: r.Paused,
	}
}

func toMedicationResponse(med *domain.Medication) MedicationResponse {
	times := med.Times
	if times == nil {
		times = []string{}
	}

	// Date lists have no RRULE form.
	rrule, _ := recurrence.ToRRule(med.Recurrence)

	return MedicationResponse{
		ID:        med.ID,
		Name:      med.Name,
		Dosage:    med.Dosage,
		Notes:     med.Notes,
		Times:     times,
		Time:      med.LegacyTime,
		StartDate: med.StartDate,
		Recurrence: RecurrenceBody{
			Kind:     string(med.Recurrence.Kind),
			Weekdays: med.Recurrence.Weekdays,
			Dates:    med.Recurrence.Dates,
		},
		RRule:     rrule,
		Paused:    med.Paused,
		CreatedAt: med.CreatedAt,
		UpdatedAt: med.UpdatedAt,
	}
}
