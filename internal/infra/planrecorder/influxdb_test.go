//go:build !gcloud

package planrecorder

import (
	"context"
	"testing"
	"time"

	"github.com/KasumiMercury/primind-dose-reminder/internal/domain"
)

func TestNewRecorder_FallsBackToNoop(t *testing.T) {
	tests := []struct {
		name string
		cfg  *Config
	}{
		{name: "disabled", cfg: &Config{Disabled: true, InfluxDBToken: "t", InfluxDBOrg: "o"}},
		{name: "missing token", cfg: &Config{InfluxDBOrg: "o"}},
		{name: "missing org", cfg: &Config{InfluxDBToken: "t"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := NewRecorder(context.Background(), tt.cfg)
			if err != nil {
				t.Fatalf("NewRecorder() error = %v", err)
			}
			if _, ok := rec.(*noopRecorder); !ok {
				t.Errorf("NewRecorder() = %T, want *noopRecorder", rec)
			}
		})
	}
}

func TestPassPoint(t *testing.T) {
	started := time.Date(2024, 1, 15, 7, 0, 0, 0, time.UTC)
	point := passPoint(domain.PlanResultRecord{
		RunID:     "run-1",
		StartedAt: started,
		Duration:  1500 * time.Millisecond,
		Reasons:   []string{"startup", "settings"},
		Changed:   true,
		Scheduled: 4,
	})

	if point.Name() != passMeasurement {
		t.Errorf("Name() = %q, want %q", point.Name(), passMeasurement)
	}
	if !point.Time().Equal(started) {
		t.Errorf("Time() = %v, want %v", point.Time(), started)
	}

	tags := map[string]string{}
	for _, tag := range point.TagList() {
		tags[tag.Key] = tag.Value
	}
	if tags["run_id"] != "run-1" || tags["changed"] != "true" || tags["failed"] != "false" {
		t.Errorf("tags = %v", tags)
	}

	fields := map[string]any{}
	for _, f := range point.FieldList() {
		fields[f.Key] = f.Value
	}
	if fields["duration_ms"] != int64(1500) {
		t.Errorf("duration_ms = %v, want 1500", fields["duration_ms"])
	}
	if fields["reasons"] != "startup,settings" {
		t.Errorf("reasons = %v", fields["reasons"])
	}
}
