//go:build !gcloud

package planrecorder

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/KasumiMercury/primind-dose-reminder/internal/domain"
)

const passMeasurement = "plan_pass"

type influxDBRecorder struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
}

func NewRecorder(ctx context.Context, cfg *Config) (domain.PlanResultRecorder, error) {
	if cfg.Disabled {
		slog.InfoContext(ctx, "plan result recording disabled")
		return NewNoopRecorder(), nil
	}

	if cfg.InfluxDBToken == "" || cfg.InfluxDBOrg == "" {
		slog.WarnContext(ctx, "InfluxDB token or org not configured, plan result recording disabled",
			slog.String("url", cfg.InfluxDBURL),
		)
		return NewNoopRecorder(), nil
	}

	client := influxdb2.NewClient(cfg.InfluxDBURL, cfg.InfluxDBToken)
	writeAPI := client.WriteAPIBlocking(cfg.InfluxDBOrg, cfg.InfluxDBBucket)

	slog.InfoContext(ctx, "plan result recorder initialized",
		slog.String("type", "influxdb"),
		slog.String("url", cfg.InfluxDBURL),
		slog.String("bucket", cfg.InfluxDBBucket),
	)

	return &influxDBRecorder{
		client:   client,
		writeAPI: writeAPI,
	}, nil
}

// RecordPass writes one point per pass. Write failures are logged and
// never fail the pass.
func (r *influxDBRecorder) RecordPass(ctx context.Context, record domain.PlanResultRecord) error {
	if err := r.writeAPI.WritePoint(ctx, passPoint(record)); err != nil {
		slog.WarnContext(ctx, "failed to write plan result to InfluxDB",
			slog.String("error", err.Error()),
			slog.String("run_id", record.RunID),
		)
	}
	return nil
}

func passPoint(record domain.PlanResultRecord) *write.Point {
	return influxdb2.NewPoint(
		passMeasurement,
		map[string]string{
			"run_id":  record.RunID,
			"changed": strconv.FormatBool(record.Changed),
			"failed":  strconv.FormatBool(record.Error != ""),
		},
		map[string]any{
			"duration_ms":     record.Duration.Milliseconds(),
			"reasons":         strings.Join(record.Reasons, ","),
			"signature":       record.Signature,
			"event_count":     record.EventCount,
			"planned_count":   record.Planned,
			"scheduled_count": record.Scheduled,
			"cancelled_count": record.Cancelled,
			"skipped_count":   record.Skipped,
			"failed_count":    record.Failed,
			"error":           record.Error,
		},
		record.StartedAt,
	)
}

func (r *influxDBRecorder) Close() error {
	if r.client != nil {
		r.client.Close()
	}
	return nil
}
