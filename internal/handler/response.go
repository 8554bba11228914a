package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/KasumiMercury/primind-dose-reminder/internal/domain"
	"github.com/KasumiMercury/primind-dose-reminder/internal/service/action"
	"github.com/KasumiMercury/primind-dose-reminder/internal/service/recurrence"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func respondError(c *gin.Context, status int, errType, message string) {
	c.AbortWithStatusJSON(status, ErrorResponse{
		Error:   errType,
		Message: message,
	})
}

// respondServiceError maps service errors to HTTP statuses.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrMedicationNotFound):
		respondError(c, http.StatusNotFound, "not_found", err.Error())
	case isValidationError(err):
		respondError(c, http.StatusBadRequest, "validation_error", err.Error())
	default:
		slog.ErrorContext(c.Request.Context(), "request processing failed",
			slog.String("path", c.Request.URL.Path),
			slog.String("error", err.Error()),
		)
		respondError(c, http.StatusInternalServerError, "processing_error", "failed to process request")
	}
}

func isValidationError(err error) bool {
	for _, target := range []error{
		domain.ErrEmptyName,
		domain.ErrInvalidDate,
		domain.ErrInvalidTime,
		domain.ErrInvalidStatus,
		domain.ErrInvalidRecurrence,
		domain.ErrInvalidSettings,
		recurrence.ErrUnsupportedRRule,
		action.ErrUnknownAction,
		action.ErrInvalidPayload,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func bindError(c *gin.Context, err error) {
	slog.WarnContext(c.Request.Context(), "request validation failed",
		slog.String("error", err.Error()),
		slog.String("path", c.Request.URL.Path),
	)
	respondError(c, http.StatusBadRequest, "validation_error", err.Error())
}

// queryDate parses an optional YYYY-MM-DD query parameter.
func queryDate(c *gin.Context, key string) (*domain.Date, error) {
	v := c.Query(key)
	if v == "" {
		return nil, nil
	}
	d, err := domain.ParseDate(v)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
