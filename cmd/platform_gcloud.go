//go:build gcloud

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/KasumiMercury/primind-dose-reminder/internal/config"
	"github.com/KasumiMercury/primind-dose-reminder/internal/infra/taskqueue"
	"github.com/KasumiMercury/primind-dose-reminder/internal/observability"
	"github.com/KasumiMercury/primind-dose-reminder/internal/observability/logging"
)

// gcloudProjectID prefers the project Cloud Run injects over the one
// configured for the reminder queue.
func gcloudProjectID(cfg *config.Config) string {
	if id := os.Getenv("GOOGLE_CLOUD_PROJECT"); id != "" {
		return id
	}

	return cfg.TaskQueue.GCloudProjectID
}

func reminderQueueConfig(cfg *config.Config) taskqueue.CloudTasksConfig {
	return taskqueue.CloudTasksConfig{
		ProjectID:  cfg.TaskQueue.GCloudProjectID,
		LocationID: cfg.TaskQueue.GCloudLocationID,
		QueueID:    cfg.TaskQueue.GCloudQueueID,
		TargetURL:  cfg.TaskQueue.GCloudTargetURL,
		Endpoint:   cfg.TaskQueue.CloudTasksURL,
		MaxRetries: cfg.TaskQueue.MaxRetries,
	}
}

func initTaskQueue(ctx context.Context, cfg *config.Config) (taskqueue.TaskQueue, func() error, error) {
	queueCfg := reminderQueueConfig(cfg)

	client, err := taskqueue.NewCloudTasksClient(ctx, queueCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("reminder queue %s/%s: %w", queueCfg.LocationID, queueCfg.QueueID, err)
	}

	attrs := []any{
		slog.String("event", "taskqueue.init"),
		slog.String("type", "cloud_tasks"),
		slog.String("project", queueCfg.ProjectID),
		slog.String("location", queueCfg.LocationID),
		slog.String("queue", queueCfg.QueueID),
		slog.String("target_url", queueCfg.TargetURL),
		slog.String("timezone", cfg.Planner.Location.String()),
	}
	if queueCfg.Endpoint != "" {
		attrs = append(attrs, slog.String("endpoint", queueCfg.Endpoint))
	}
	slog.InfoContext(ctx, "reminder queue initialized", attrs...)

	cleanup := func() error {
		if err := client.Close(); err != nil {
			return fmt.Errorf("close reminder queue %s: %w", queueCfg.QueueID, err)
		}

		return nil
	}

	return client, cleanup, nil
}

func initObservability(ctx context.Context, cfg *config.Config) (*observability.Resources, error) {
	serviceName := os.Getenv("K_SERVICE")
	if serviceName == "" {
		serviceName = string(serviceModule)
	}

	env := logging.EnvProd
	if e := os.Getenv("ENV"); e != "" {
		env = logging.Environment(e)
	}

	return observability.Init(ctx, observability.Config{
		ServiceInfo: logging.ServiceInfo{
			Name:     serviceName,
			Version:  Version,
			Revision: os.Getenv("K_REVISION"),
		},
		Environment:   env,
		GCPProjectID:  gcloudProjectID(cfg),
		SamplingRate:  1.0,
		DefaultModule: serviceModule,
		LogLevel:      cfg.LogLevel,
	})
}
