package reconcile

import (
	"context"
	"errors"
	"time"

	"github.com/KasumiMercury/primind-dose-reminder/internal/service/plan"
)

var ErrPassFailed = errors.New("no notification of the plan reached the delivery service")

// Planner computes the plan a pass reconciles against.
type Planner interface {
	Compute(ctx context.Context, now time.Time) (*plan.Plan, error)
}

type NotificationError struct {
	NotificationID string `json:"notification_id"`
	Operation      string `json:"operation"`
	Error          string `json:"error"`
}

// Result describes one reconciliation pass.
type Result struct {
	RunID      string              `json:"run_id"`
	StartedAt  time.Time           `json:"started_at"`
	Duration   time.Duration       `json:"duration"`
	Reasons    []string            `json:"reasons"`
	Signature  string              `json:"signature"`
	Changed    bool                `json:"changed"`
	EventCount int                 `json:"event_count"`
	Planned    int                 `json:"planned_count"`
	Scheduled  int                 `json:"scheduled_count"`
	Cancelled  int                 `json:"cancelled_count"`
	Skipped    int                 `json:"skipped_count"`
	Failed     int                 `json:"failed_count"`
	Errors     []NotificationError `json:"errors,omitempty"`
	Error      string              `json:"error,omitempty"`
}

// Snapshot is a read-only view of the reconciler state.
type Snapshot struct {
	Plan       *plan.Plan `json:"plan"`
	Signature  string     `json:"signature"`
	LastResult *Result    `json:"last_result"`
	Pending    bool       `json:"pending"`
	Running    bool       `json:"running"`
}
