//go:build gcloud

package planrecorder

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"cloud.google.com/go/bigquery"

	"github.com/KasumiMercury/primind-dose-reminder/internal/domain"
)

type bigQueryRecord struct {
	RecordedAt     time.Time `bigquery:"recorded_at"`
	RunID          string    `bigquery:"run_id"`
	StartedAt      time.Time `bigquery:"started_at"`
	DurationMs     int64     `bigquery:"duration_ms"`
	Reasons        string    `bigquery:"reasons"`
	Signature      string    `bigquery:"signature"`
	Changed        bool      `bigquery:"changed"`
	EventCount     int64     `bigquery:"event_count"`
	PlannedCount   int64     `bigquery:"planned_count"`
	ScheduledCount int64     `bigquery:"scheduled_count"`
	CancelledCount int64     `bigquery:"cancelled_count"`
	SkippedCount   int64     `bigquery:"skipped_count"`
	FailedCount    int64     `bigquery:"failed_count"`
	Error          string    `bigquery:"error"`
}

type bigQueryRecorder struct {
	client   *bigquery.Client
	inserter *bigquery.Inserter
}

func NewRecorder(ctx context.Context, cfg *Config) (domain.PlanResultRecorder, error) {
	if cfg.Disabled {
		slog.InfoContext(ctx, "plan result recording disabled")
		return NewNoopRecorder(), nil
	}

	if cfg.BigQueryProjectID == "" {
		slog.WarnContext(ctx, "BigQuery project ID not configured, plan result recording disabled")
		return NewNoopRecorder(), nil
	}

	client, err := bigquery.NewClient(ctx, cfg.BigQueryProjectID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to create BigQuery client, plan result recording disabled",
			slog.String("error", err.Error()),
			slog.String("project_id", cfg.BigQueryProjectID),
		)
		return NewNoopRecorder(), nil
	}

	inserter := client.Dataset(cfg.BigQueryDataset).Table(cfg.BigQueryTable).Inserter()

	slog.InfoContext(ctx, "plan result recorder initialized",
		slog.String("type", "bigquery"),
		slog.String("project_id", cfg.BigQueryProjectID),
		slog.String("dataset", cfg.BigQueryDataset),
		slog.String("table", cfg.BigQueryTable),
	)

	return &bigQueryRecorder{
		client:   client,
		inserter: inserter,
	}, nil
}

func (r *bigQueryRecorder) RecordPass(ctx context.Context, record domain.PlanResultRecord) error {
	row := &bigQueryRecord{
		RecordedAt:     time.Now(),
		RunID:          record.RunID,
		StartedAt:      record.StartedAt,
		DurationMs:     record.Duration.Milliseconds(),
		Reasons:        strings.Join(record.Reasons, ","),
		Signature:      record.Signature,
		Changed:        record.Changed,
		EventCount:     int64(record.EventCount),
		PlannedCount:   int64(record.Planned),
		ScheduledCount: int64(record.Scheduled),
		CancelledCount: int64(record.Cancelled),
		SkippedCount:   int64(record.Skipped),
		FailedCount:    int64(record.Failed),
		Error:          record.Error,
	}

	if err := r.inserter.Put(ctx, row); err != nil {
		slog.WarnContext(ctx, "failed to insert plan result to BigQuery",
			slog.String("error", err.Error()),
			slog.String("run_id", record.RunID),
		)
	}

	return nil
}

func (r *bigQueryRecorder) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}
