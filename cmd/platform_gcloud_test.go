//go:build gcloud

package main

import (
	"testing"

	"github.com/KasumiMercury/primind-dose-reminder/internal/config"
)

func TestGCloudProjectID(t *testing.T) {
	tests := []struct {
		name     string
		injected string
		expected string
	}{
		{name: "cloud run project wins", injected: "run-project", expected: "run-project"},
		{name: "falls back to queue project", injected: "", expected: "queue-project"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("GOOGLE_CLOUD_PROJECT", tt.injected)

			cfg := &config.Config{TaskQueue: config.TaskQueueConfig{GCloudProjectID: "queue-project"}}
			if got := gcloudProjectID(cfg); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestReminderQueueConfig(t *testing.T) {
	cfg := &config.Config{TaskQueue: config.TaskQueueConfig{
		GCloudProjectID:  "queue-project",
		GCloudLocationID: "asia-northeast1",
		GCloudQueueID:    "dose-reminders",
		GCloudTargetURL:  "https://push.example.com/notify",
		CloudTasksURL:    "localhost:8123",
		MaxRetries:       4,
	}}

	got := reminderQueueConfig(cfg)

	if got.ProjectID != "queue-project" || got.LocationID != "asia-northeast1" || got.QueueID != "dose-reminders" {
		t.Errorf("unexpected queue path %s/%s/%s", got.ProjectID, got.LocationID, got.QueueID)
	}
	if got.TargetURL != "https://push.example.com/notify" {
		t.Errorf("unexpected target URL %q", got.TargetURL)
	}
	if got.Endpoint != "localhost:8123" {
		t.Errorf("unexpected endpoint %q", got.Endpoint)
	}
	if got.MaxRetries != 4 {
		t.Errorf("expected 4 retries, got %d", got.MaxRetries)
	}
}
