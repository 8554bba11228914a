package plan

import (
	"testing"

	"github.com/KasumiMercury/primind-dose-reminder/internal/domain"
)

func TestPeriodOf(t *testing.T) {
	tests := []struct {
		input    string
		expected Period
	}{
		{"04:59", PeriodEvening},
		{"05:00", PeriodMorning},
		{"11:59", PeriodMorning},
		{"12:00", PeriodDay},
		{"17:59", PeriodDay},
		{"18:00", PeriodEvening},
		{"00:30", PeriodEvening},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := PeriodOf(tt.input); got != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestBody(t *testing.T) {
	tests := []struct {
		name     string
		doses    []domain.DoseItem
		expected string
	}{
		{
			name:     "single dose",
			doses:    []domain.DoseItem{{Name: "Aspirin", Dosage: "100mg"}},
			expected: "08:00 • Aspirin 100mg",
		},
		{
			name:     "two doses",
			doses:    []domain.DoseItem{{Name: "Aspirin", Dosage: "100mg"}, {Name: "Biotin"}},
			expected: "08:00 • 2 medications: Aspirin 100mg, Biotin",
		},
		{
			name: "more than four doses",
			doses: []domain.DoseItem{
				{Name: "A"}, {Name: "B"}, {Name: "C"}, {Name: "D"}, {Name: "E"}, {Name: "F"},
			},
			expected: "08:00 • 6 medications: A, B, C, D, + 2 more",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Body("08:00", tt.doses); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}
