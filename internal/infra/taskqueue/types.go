package taskqueue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/KasumiMercury/primind-dose-reminder/internal/domain"
)

type TaskResponse struct {
	Name         string    `json:"name"`
	ScheduleTime time.Time `json:"schedule_time"`
	CreateTime   time.Time `json:"create_time"`
}

type PrimindTaskRequest struct {
	Task PrimindTask `json:"task"`
}

type PrimindTask struct {
	Name         string             `json:"name,omitempty"`
	HTTPRequest  PrimindHTTPRequest `json:"httpRequest"`
	ScheduleTime string             `json:"scheduleTime,omitempty"`
}

type PrimindHTTPRequest struct {
	Body    string            `json:"body"`
	Headers map[string]string `json:"headers,omitempty"`
}

type PrimindTaskResponse struct {
	Name         string             `json:"name"`
	ScheduleTime string             `json:"scheduleTime"`
	CreateTime   string             `json:"createTime"`
	HTTPRequest  PrimindHTTPRequest `json:"httpRequest"`
}

type PrimindListResponse struct {
	Tasks []PrimindTaskResponse `json:"tasks"`
}

func encodeNotification(n *domain.Notification) ([]byte, error) {
	data, err := json.Marshal(n)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal notification: %w", err)
	}
	return data, nil
}

// decodeNotification reads a task body back into a scheduled notification.
// Bodies that are not notifications yield ok=false.
func decodeNotification(id string, scheduleTime time.Time, body []byte) (domain.ScheduledNotification, bool) {
	var n domain.Notification
	if err := json.Unmarshal(body, &n); err != nil || n.Payload.Kind == "" {
		return domain.ScheduledNotification{}, false
	}
	if n.ID != "" {
		id = n.ID
	}
	deliverAt := n.DeliverAt
	if deliverAt.IsZero() {
		deliverAt = scheduleTime
	}
	return domain.ScheduledNotification{ID: id, DeliverAt: deliverAt, Payload: n.Payload}, true
}
