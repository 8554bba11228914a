package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/KasumiMercury/primind-dose-reminder/internal/domain"
)

const (
	medicationKeyPrefix  = "med:medication:"
	medicationIndexKey   = "med:medications"
	statusHashKey        = "med:status:records"
	statusDateIndexKey   = "med:status:by_date"
	statusMedIndexPrefix = "med:status:by_medication:"
)

type medicationRepository struct {
	client *redis.Client
}

func NewMedicationRepository(client *redis.Client) domain.MedicationRepository {
	return &medicationRepository{
		client: client,
	}
}

func (r *medicationRepository) ListMedications(ctx context.Context) ([]*domain.Medication, error) {
	ids, err := r.client.SMembers(ctx, medicationIndexKey).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []*domain.Medication{}, nil
	}

	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, medicationKeyPrefix+id)
	}

	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	meds := make([]*domain.Medication, 0, len(values))
	for _, v := range values {
		s, ok := v.(string)
		if !ok {
			// Index entry without a record.
			continue
		}
		med, err := decodeMedication([]byte(s))
		if err != nil {
			return nil, err
		}
		meds = append(meds, med)
	}

	// Newest first.
	slices.SortFunc(meds, func(a, b *domain.Medication) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})

	return meds, nil
}

func (r *medicationRepository) GetMedication(ctx context.Context, id string) (*domain.Medication, error) {
	data, err := r.client.Get(ctx, medicationKeyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrMedicationNotFound
		}
		return nil, err
	}

	return decodeMedication(data)
}

func (r *medicationRepository) SaveMedication(ctx context.Context, med *domain.Medication) error {
	if med == nil || med.ID == "" {
		return ErrInvalidMedicationData
	}

	data, err := json.Marshal(toMedicationRecord(med))
	if err != nil {
		return ErrInvalidMedicationData
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, medicationKeyPrefix+med.ID, data, 0)
	pipe.SAdd(ctx, medicationIndexKey, med.ID)

	_, err = pipe.Exec(ctx)
	return err
}

func (r *medicationRepository) DeleteMedication(ctx context.Context, id string) error {
	exists, err := r.client.Exists(ctx, medicationKeyPrefix+id).Result()
	if err != nil {
		return err
	}
	if exists == 0 {
		return domain.ErrMedicationNotFound
	}

	medIndexKey := statusMedIndexPrefix + id
	members, err := r.client.SMembers(ctx, medIndexKey).Result()
	if err != nil {
		return err
	}

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, medicationKeyPrefix+id, medIndexKey)
	pipe.SRem(ctx, medicationIndexKey, id)
	if len(members) > 0 {
		pipe.HDel(ctx, statusHashKey, members...)
		pipe.ZRem(ctx, statusDateIndexKey, toAny(members)...)
	}

	_, err = pipe.Exec(ctx)
	return err
}

// GetStatus falls back to the legacy record of the medication and date
// when the dose has no record of its own.
func (r *medicationRepository) GetStatus(ctx context.Context, date domain.Date, medicationID, t string) (domain.DoseStatus, error) {
	fields := []string{statusMember(date, medicationID, t)}
	if t != "" {
		fields = append(fields, statusMember(date, medicationID, ""))
	}

	values, err := r.client.HMGet(ctx, statusHashKey, fields...).Result()
	if err != nil {
		return "", err
	}

	for _, v := range values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		record, err := decodeStatus([]byte(s))
		if err != nil {
			return "", err
		}
		return record.Status, nil
	}

	return domain.DoseStatusPending, nil
}

func (r *medicationRepository) SetStatus(ctx context.Context, record domain.StatusRecord) error {
	if !record.Status.Valid() {
		return domain.ErrInvalidStatus
	}

	member := statusMember(record.Date, record.MedicationID, record.Time)
	medIndexKey := statusMedIndexPrefix + record.MedicationID

	pipe := r.client.TxPipeline()

	if record.Status == domain.DoseStatusPending {
		pipe.HDel(ctx, statusHashKey, member)
		pipe.ZRem(ctx, statusDateIndexKey, member)
		pipe.SRem(ctx, medIndexKey, member)

		_, err := pipe.Exec(ctx)
		return err
	}

	data, err := json.Marshal(statusRecord{
		Date:         record.Date.String(),
		MedicationID: record.MedicationID,
		Time:         record.Time,
		Status:       string(record.Status),
		UpdatedAt:    record.UpdatedAt,
	})
	if err != nil {
		return ErrInvalidStatusData
	}

	pipe.HSet(ctx, statusHashKey, member, data)
	pipe.ZAdd(ctx, statusDateIndexKey, redis.Z{Score: dateScore(record.Date), Member: member})
	pipe.SAdd(ctx, medIndexKey, member)

	_, err = pipe.Exec(ctx)
	return err
}

func (r *medicationRepository) ListStatuses(ctx context.Context, from, to domain.Date, medicationID string) ([]domain.StatusRecord, error) {
	members, err := r.client.ZRangeByScore(ctx, statusDateIndexKey, &redis.ZRangeBy{
		Min: strconv.FormatFloat(dateScore(from), 'f', 0, 64),
		Max: strconv.FormatFloat(dateScore(to), 'f', 0, 64),
	}).Result()
	if err != nil {
		return nil, err
	}

	if medicationID != "" {
		members = slices.DeleteFunc(members, func(m string) bool {
			return medicationIDOfMember(m) != medicationID
		})
	}
	if len(members) == 0 {
		return []domain.StatusRecord{}, nil
	}

	values, err := r.client.HMGet(ctx, statusHashKey, members...).Result()
	if err != nil {
		return nil, err
	}

	out := make([]domain.StatusRecord, 0, len(values))
	for _, v := range values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		record, err := decodeStatus([]byte(s))
		if err != nil {
			return nil, err
		}
		out = append(out, record)
	}

	return out, nil
}

func decodeMedication(data []byte) (*domain.Medication, error) {
	var record medicationRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, ErrInvalidMedicationData
	}
	return record.toDomain()
}

func decodeStatus(data []byte) (domain.StatusRecord, error) {
	var record statusRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return domain.StatusRecord{}, fmt.Errorf("%w: %w", ErrInvalidStatusData, err)
	}
	return record.toDomain()
}

func toAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
