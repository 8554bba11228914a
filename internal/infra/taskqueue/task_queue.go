package taskqueue

import (
	"context"

	"github.com/KasumiMercury/primind-dose-reminder/internal/domain"
)

//go:generate mockgen -source=task_queue.go -destination=mock.go -package=taskqueue

// TaskQueue is the platform delivery service. Notifications are scheduled
// as tasks named after their ids.
type TaskQueue interface {
	Schedule(ctx context.Context, notification *domain.Notification) (*TaskResponse, error)
	// Cancel removes a scheduled notification. Unknown ids are not an error.
	Cancel(ctx context.Context, id string) error
	List(ctx context.Context) ([]domain.ScheduledNotification, error)
}
