package domain

import (
	"context"
	"time"
)

// PlanResultRecord summarizes one reconciliation pass.
type PlanResultRecord struct {
	RunID      string
	StartedAt  time.Time
	Duration   time.Duration
	Reasons    []string
	Signature  string
	Changed    bool
	EventCount int
	Planned    int
	Scheduled  int
	Cancelled  int
	Skipped    int
	Failed     int
	Error      string
}

type PlanResultRecorder interface {
	RecordPass(ctx context.Context, record PlanResultRecord) error
	Close() error
}
