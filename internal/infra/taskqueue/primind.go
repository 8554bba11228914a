//go:build !gcloud

package taskqueue

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"time"

	"github.com/KasumiMercury/primind-dose-reminder/internal/domain"
)

// PrimindTasksClient talks to the Primind Tasks emulator, a Cloud Tasks
// compatible HTTP queue used outside GCP.
type PrimindTasksClient struct {
	baseURL    string
	queueName  string
	httpClient *http.Client
	maxRetries int
}

func NewPrimindTasksClient(baseURL, queueName string, maxRetries int) *PrimindTasksClient {
	if maxRetries <= 0 {
		maxRetries = 3
	}
	if queueName == "" {
		queueName = "default"
	}
	return &PrimindTasksClient{
		baseURL:   baseURL,
		queueName: queueName,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		maxRetries: maxRetries,
	}
}

func (c *PrimindTasksClient) queueURL() string {
	return fmt.Sprintf("%s/tasks/%s", c.baseURL, url.PathEscape(c.queueName))
}

func (c *PrimindTasksClient) Schedule(ctx context.Context, notification *domain.Notification) (*TaskResponse, error) {
	payload, err := encodeNotification(notification)
	if err != nil {
		return nil, err
	}

	primindReq := PrimindTaskRequest{
		Task: PrimindTask{
			Name: notification.ID,
			HTTPRequest: PrimindHTTPRequest{
				Body: base64.StdEncoding.EncodeToString(payload),
				Headers: map[string]string{
					"Content-Type": "application/json",
				},
			},
		},
	}

	if !notification.DeliverAt.IsZero() {
		primindReq.Task.ScheduleTime = notification.DeliverAt.UTC().Format(time.RFC3339)
	}

	reqBody, err := json.Marshal(primindReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal primind request: %w", err)
	}

	var resp *TaskResponse
	err = retry(ctx, c.maxRetries, "schedule notification", notification.ID, func(ctx context.Context) error {
		r, err := c.doCreate(ctx, reqBody, notification.ID)
		if err != nil {
			return err
		}
		resp = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *PrimindTasksClient) doCreate(ctx context.Context, reqBody []byte, id string) (*TaskResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.queueURL(), bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.WarnContext(ctx, "failed to send request to Primind Tasks",
			slog.String("notification_id", id),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		slog.WarnContext(ctx, "unexpected status code from Primind Tasks",
			slog.String("notification_id", id),
			slog.Int("status_code", resp.StatusCode),
		)
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var primindResp PrimindTaskResponse
	if err := json.NewDecoder(resp.Body).Decode(&primindResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	scheduleTime, _ := time.Parse(time.RFC3339, primindResp.ScheduleTime)
	createTime, _ := time.Parse(time.RFC3339, primindResp.CreateTime)

	slog.InfoContext(ctx, "notification scheduled on Primind Tasks",
		slog.String("task_name", primindResp.Name),
		slog.String("notification_id", id),
	)

	return &TaskResponse{
		Name:         primindResp.Name,
		ScheduleTime: scheduleTime,
		CreateTime:   createTime,
	}, nil
}

func (c *PrimindTasksClient) Cancel(ctx context.Context, id string) error {
	return retry(ctx, c.maxRetries, "cancel notification", id, func(ctx context.Context) error {
		return c.doDelete(ctx, id)
	})
}

func (c *PrimindTasksClient) doDelete(ctx context.Context, id string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.queueURL()+"/"+url.PathEscape(id), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent:
		slog.InfoContext(ctx, "notification cancelled on Primind Tasks",
			slog.String("notification_id", id),
		)
		return nil
	case http.StatusNotFound:
		slog.InfoContext(ctx, "task not found in Primind Tasks (may have been delivered)",
			slog.String("notification_id", id),
		)
		return nil
	default:
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
}

func (c *PrimindTasksClient) List(ctx context.Context) ([]domain.ScheduledNotification, error) {
	var out []domain.ScheduledNotification
	err := retry(ctx, c.maxRetries, "list notifications", "", func(ctx context.Context) error {
		listed, err := c.doList(ctx)
		if err != nil {
			return err
		}
		out = listed
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *PrimindTasksClient) doList(ctx context.Context) ([]domain.ScheduledNotification, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.queueURL(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var listResp PrimindListResponse
	if err := json.NewDecoder(resp.Body).Decode(&listResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	out := make([]domain.ScheduledNotification, 0, len(listResp.Tasks))
	for _, task := range listResp.Tasks {
		body, err := base64.StdEncoding.DecodeString(task.HTTPRequest.Body)
		if err != nil {
			continue
		}
		scheduleTime, _ := time.Parse(time.RFC3339, task.ScheduleTime)
		if n, ok := decodeNotification(path.Base(task.Name), scheduleTime, body); ok {
			out = append(out, n)
		}
	}
	return out, nil
}
