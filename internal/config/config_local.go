//go:build !gcloud

package config

import "log/slog"

// Validate accepts an empty PRIMIND_TASKS_URL; notifications are then
// only logged.
func (c *TaskQueueConfig) Validate() error {
	if c.PrimindTasksURL == "" {
		slog.Warn("PRIMIND_TASKS_URL not set, notification delivery will be logged only")
	}
	return nil
}
