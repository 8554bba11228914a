//go:build gcloud

package taskqueue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"

	cloudtasks "cloud.google.com/go/cloudtasks/apiv2"
	taskspb "cloud.google.com/go/cloudtasks/apiv2/cloudtaskspb"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/KasumiMercury/primind-dose-reminder/internal/domain"
)

type CloudTasksClient struct {
	client     *cloudtasks.Client
	projectID  string
	locationID string
	queueID    string
	targetURL  string
	maxRetries int
}

type CloudTasksConfig struct {
	ProjectID  string
	LocationID string
	QueueID    string
	TargetURL  string
	// Endpoint overrides the API endpoint, e.g. for an emulator.
	Endpoint   string
	MaxRetries int
}

func NewCloudTasksClient(ctx context.Context, cfg CloudTasksConfig) (*CloudTasksClient, error) {
	var opts []option.ClientOption
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}

	client, err := cloudtasks.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create cloud tasks client: %w", err)
	}

	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}

	return &CloudTasksClient{
		client:     client,
		projectID:  cfg.ProjectID,
		locationID: cfg.LocationID,
		queueID:    cfg.QueueID,
		targetURL:  cfg.TargetURL,
		maxRetries: maxRetries,
	}, nil
}

func (c *CloudTasksClient) queuePath() string {
	return fmt.Sprintf("projects/%s/locations/%s/queues/%s", c.projectID, c.locationID, c.queueID)
}

func (c *CloudTasksClient) taskPath(id string) string {
	return c.queuePath() + "/tasks/" + id
}

func (c *CloudTasksClient) Schedule(ctx context.Context, notification *domain.Notification) (*TaskResponse, error) {
	payload, err := encodeNotification(notification)
	if err != nil {
		return nil, err
	}

	cloudTask := &taskspb.Task{
		Name: c.taskPath(notification.ID),
		MessageType: &taskspb.Task_HttpRequest{
			HttpRequest: &taskspb.HttpRequest{
				HttpMethod: taskspb.HttpMethod_POST,
				Url:        c.targetURL,
				Headers: map[string]string{
					"Content-Type": "application/json",
				},
				Body: payload,
			},
		},
	}

	if !notification.DeliverAt.IsZero() {
		cloudTask.ScheduleTime = timestamppb.New(notification.DeliverAt)
	}

	req := &taskspb.CreateTaskRequest{
		Parent: c.queuePath(),
		Task:   cloudTask,
	}

	var resp *TaskResponse
	err = retry(ctx, c.maxRetries, "schedule notification", notification.ID, func(ctx context.Context) error {
		r, err := c.createTask(ctx, req, notification.ID)
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

func (c *CloudTasksClient) createTask(ctx context.Context, req *taskspb.CreateTaskRequest, id string) (*TaskResponse, error) {
	createdTask, err := c.client.CreateTask(ctx, req)
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			slog.InfoContext(ctx, "task already exists in Cloud Tasks",
				slog.String("notification_id", id),
			)
			return &TaskResponse{Name: req.GetTask().GetName()}, nil
		}

		slog.WarnContext(ctx, "failed to create cloud task",
			slog.String("notification_id", id),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("failed to create cloud task: %w", err)
	}

	slog.InfoContext(ctx, "notification scheduled on Cloud Tasks",
		slog.String("task_name", createdTask.GetName()),
		slog.String("notification_id", id),
	)

	resp := &TaskResponse{Name: createdTask.GetName()}
	if createdTask.GetScheduleTime() != nil {
		resp.ScheduleTime = createdTask.GetScheduleTime().AsTime()
	}
	if createdTask.GetCreateTime() != nil {
		resp.CreateTime = createdTask.GetCreateTime().AsTime()
	}
	return resp, nil
}

func (c *CloudTasksClient) Cancel(ctx context.Context, id string) error {
	taskPath := c.taskPath(id)

	return retry(ctx, c.maxRetries, "cancel notification", id, func(ctx context.Context) error {
		err := c.client.DeleteTask(ctx, &taskspb.DeleteTaskRequest{Name: taskPath})
		if err != nil {
			if status.Code(err) == codes.NotFound {
				slog.InfoContext(ctx, "task not found in Cloud Tasks (may have been delivered)",
					slog.String("notification_id", id),
				)
				return nil
			}
			slog.WarnContext(ctx, "failed to delete cloud task",
				slog.String("notification_id", id),
				slog.String("error", err.Error()),
			)
			return fmt.Errorf("failed to delete cloud task: %w", err)
		}

		slog.InfoContext(ctx, "notification cancelled on Cloud Tasks",
			slog.String("notification_id", id),
		)
		return nil
	})
}

func (c *CloudTasksClient) List(ctx context.Context) ([]domain.ScheduledNotification, error) {
	var out []domain.ScheduledNotification
	err := retry(ctx, c.maxRetries, "list notifications", "", func(ctx context.Context) error {
		listed, err := c.listTasks(ctx)
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

func (c *CloudTasksClient) listTasks(ctx context.Context) ([]domain.ScheduledNotification, error) {
	it := c.client.ListTasks(ctx, &taskspb.ListTasksRequest{
		Parent:       c.queuePath(),
		ResponseView: taskspb.Task_FULL,
	})

	out := make([]domain.ScheduledNotification, 0)
	for {
		task, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list cloud tasks: %w", err)
		}

		req := task.GetHttpRequest()
		if req == nil {
			continue
		}
		scheduleTime := task.GetScheduleTime().AsTime()
		if n, ok := decodeNotification(path.Base(task.GetName()), scheduleTime, req.GetBody()); ok {
			out = append(out, n)
		}
	}
	return out, nil
}

func (c *CloudTasksClient) Close() error {
	return c.client.Close()
}
