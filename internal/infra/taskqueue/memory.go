package taskqueue

import (
	"cmp"
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/KasumiMercury/primind-dose-reminder/internal/domain"
)

// MemoryQueue keeps scheduled notifications in process and only logs
// them. It stands in for a delivery service during local development.
type MemoryQueue struct {
	mu    sync.RWMutex
	tasks map[string]*domain.Notification
}

func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{
		tasks: make(map[string]*domain.Notification),
	}
}

func (q *MemoryQueue) Schedule(ctx context.Context, notification *domain.Notification) (*TaskResponse, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	stored := *notification
	q.tasks[notification.ID] = &stored

	slog.InfoContext(ctx, "notification scheduled in memory",
		slog.String("notification_id", notification.ID),
		slog.Time("deliver_at", notification.DeliverAt),
		slog.String("channel", string(notification.Channel)),
		slog.String("title", notification.Title),
	)

	return &TaskResponse{
		Name:         notification.ID,
		ScheduleTime: notification.DeliverAt,
		CreateTime:   time.Now(),
	}, nil
}

func (q *MemoryQueue) Cancel(_ context.Context, id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.tasks, id)
	return nil
}

// List returns scheduled notifications ordered by delivery time.
func (q *MemoryQueue) List(_ context.Context) ([]domain.ScheduledNotification, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	out := make([]domain.ScheduledNotification, 0, len(q.tasks))
	for _, n := range q.tasks {
		out = append(out, domain.ScheduledNotification{ID: n.ID, DeliverAt: n.DeliverAt, Payload: n.Payload})
	}
	slices.SortFunc(out, func(a, b domain.ScheduledNotification) int {
		if c := a.DeliverAt.Compare(b.DeliverAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}

func (q *MemoryQueue) Len() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.tasks)
}
