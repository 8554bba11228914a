package planrecorder

import (
	"context"

	"github.com/KasumiMercury/primind-dose-reminder/internal/domain"
)

type noopRecorder struct{}

func NewNoopRecorder() domain.PlanResultRecorder {
	return &noopRecorder{}
}

func (n *noopRecorder) RecordPass(_ context.Context, _ domain.PlanResultRecord) error {
	return nil
}

func (n *noopRecorder) Close() error {
	return nil
}
