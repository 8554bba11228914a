package medication

import (
	"context"
	"fmt"
	"math"

	"github.com/KasumiMercury/primind-dose-reminder/internal/domain"
	"github.com/KasumiMercury/primind-dose-reminder/internal/service/timeset"
)

var maxDate = domain.NewDate(9999, 12, 31)

type HistoryQuery struct {
	From         *domain.Date
	To           *domain.Date
	MedicationID string
}

type Progress struct {
	Date             domain.Date `json:"date"`
	TotalDue         int         `json:"total_due"`
	TotalForProgress int         `json:"total_for_progress"`
	Taken            int         `json:"taken"`
	Skipped          int         `json:"skipped"`
	Percent          int         `json:"percent"`
}

// SetStatus stores the status of one dose. An empty Date means today and
// pending clears the record.
func (s *Service) SetStatus(ctx context.Context, record domain.StatusRecord) error {
	if !record.Status.Valid() {
		return fmt.Errorf("%w: %q", domain.ErrInvalidStatus, record.Status)
	}
	if record.Date.IsZero() {
		record.Date = s.today()
	}
	if record.Time != "" {
		if _, err := timeset.Minutes(record.Time); err != nil {
			return err
		}
		record.Time = timeset.Pad(record.Time)
	}

	if _, err := s.medRepo.GetMedication(ctx, record.MedicationID); err != nil {
		return err
	}

	record.UpdatedAt = s.clock.Now()
	if err := s.medRepo.SetStatus(ctx, record); err != nil {
		return fmt.Errorf("failed to set dose status: %w", err)
	}

	s.planner.RequestPlanning(reasonStatuses)
	return nil
}

func (s *Service) History(ctx context.Context, q HistoryQuery) ([]domain.StatusRecord, error) {
	from := domain.Date{}
	if q.From != nil {
		from = *q.From
	}
	to := maxDate
	if q.To != nil {
		to = *q.To
	}
	if to.Before(from) {
		return nil, fmt.Errorf("%w: to is before from", domain.ErrInvalidDate)
	}

	return s.medRepo.ListStatuses(ctx, from, to, q.MedicationID)
}

// Progress counts the doses due on date. A due medication without times
// counts as one dose tracked by its legacy status. Skipped doses leave
// the denominator.
func (s *Service) Progress(ctx context.Context, date *domain.Date) (*Progress, error) {
	day := s.today()
	if date != nil {
		day = *date
	}

	meds, err := s.medRepo.ListMedications(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list medications: %w", err)
	}
	records, err := s.medRepo.ListStatuses(ctx, day, day, "")
	if err != nil {
		return nil, fmt.Errorf("failed to list dose statuses: %w", err)
	}
	statuses := domain.NewStatusSet(records)

	doses := s.builder.DueOn(meds, day)
	for _, med := range meds {
		if med.Paused || len(timeset.Normalize(med.Times, med.LegacyTime)) > 0 {
			continue
		}
		if s.evaluator.IsDue(med.Recurrence, med.StartDate, day) {
			doses = append(doses, domain.DoseOccurrence{MedicationID: med.ID, Date: day})
		}
	}

	p := &Progress{Date: day, TotalDue: len(doses)}
	for _, d := range doses {
		switch statuses.Status(d.Date, d.MedicationID, d.Time) {
		case domain.DoseStatusTaken:
			p.Taken++
		case domain.DoseStatusSkipped:
			p.Skipped++
		}
	}

	p.TotalForProgress = max(0, p.TotalDue-p.Skipped)
	if p.TotalForProgress > 0 {
		p.Percent = int(math.Round(float64(p.Taken) / float64(p.TotalForProgress) * 100))
	}
	return p, nil
}
