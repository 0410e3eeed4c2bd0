package records

import (
	"context"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrRecordNotFound = errors.New("health record not found")
	ErrShareNotFound  = errors.New("record share not found")
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) AutoMigrate() error {
	return r.db.AutoMigrate(&HealthRecord{}, &RecordShare{})
}

func (r *Repository) Create(ctx context.Context, rec *HealthRecord) error {
	rec.CreatedAt = time.Now().UTC()
	rec.UpdatedAt = rec.CreatedAt
	return r.db.WithContext(ctx).Create(rec).Error
}

func (r *Repository) Get(ctx context.Context, id string) (*HealthRecord, error) {
	var rec HealthRecord
	result := r.db.WithContext(ctx).First(&rec, "id = ?", id)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, ErrRecordNotFound
	}
	return &rec, result.Error
}

func (r *Repository) ListByPatient(ctx context.Context, patientID string, category Category, limit int) ([]HealthRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	query := r.db.WithContext(ctx).Where("patient_id = ?", patientID)
	if category != "" {
		query = query.Where("category = ?", category)
	}

	var recs []HealthRecord
	result := query.Order("record_date DESC").Limit(limit).Find(&recs)
	return recs, result.Error
}

// ListProcessedByPatient returns the analysis input: processed records in
// record-date order.
func (r *Repository) ListProcessedByPatient(ctx context.Context, patientID string) ([]HealthRecord, error) {
	var recs []HealthRecord
	result := r.db.WithContext(ctx).
		Where("patient_id = ? AND status = ?", patientID, StatusProcessed).
		Order("record_date ASC").
		Find(&recs)
	return recs, result.Error
}

func (r *Repository) Update(ctx context.Context, id string, fields map[string]interface{}) error {
	fields["updated_at"] = time.Now().UTC()
	result := r.db.WithContext(ctx).Model(&HealthRecord{}).
		Where("id = ?", id).
		Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&HealthRecord{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// ListStuckPending returns records still PENDING after the given age, oldest
// first, for the reprocess sweep.
func (r *Repository) ListStuckPending(ctx context.Context, olderThan time.Duration, limit int) ([]HealthRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	cutoff := time.Now().UTC().Add(-olderThan)

	var recs []HealthRecord
	result := r.db.WithContext(ctx).
		Where("status = ? AND updated_at < ?", StatusPending, cutoff).
		Order("updated_at ASC").
		Limit(limit).
		Find(&recs)
	return recs, result.Error
}

func (r *Repository) MarkProcessed(ctx context.Context, id string, extracted datatypes.JSONMap) error {
	return r.Update(ctx, id, map[string]interface{}{
		"status":           StatusProcessed,
		"extracted_values": extracted,
		"processing_error": "",
	})
}

func (r *Repository) MarkError(ctx context.Context, id, msg string) error {
	return r.Update(ctx, id, map[string]interface{}{
		"status":           StatusError,
		"processing_error": msg,
	})
}

func (r *Repository) CreateShare(ctx context.Context, share *RecordShare) error {
	share.CreatedAt = time.Now().UTC()
	share.UpdatedAt = share.CreatedAt
	return r.db.WithContext(ctx).Create(share).Error
}

func (r *Repository) GetShare(ctx context.Context, id string) (*RecordShare, error) {
	var share RecordShare
	result := r.db.WithContext(ctx).First(&share, "id = ?", id)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, ErrShareNotFound
	}
	return &share, result.Error
}

func (r *Repository) ListSharesByPatient(ctx context.Context, patientID string, status ShareStatus) ([]RecordShare, error) {
	query := r.db.WithContext(ctx).Where("patient_id = ?", patientID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var shares []RecordShare
	result := query.Order("created_at DESC").Find(&shares)
	return shares, result.Error
}

func (r *Repository) UpdateShare(ctx context.Context, id string, fields map[string]interface{}) error {
	fields["updated_at"] = time.Now().UTC()
	result := r.db.WithContext(ctx).Model(&RecordShare{}).
		Where("id = ?", id).
		Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrShareNotFound
	}
	return nil
}

// ExpireOverdueShares flips GRANTED shares past their expiry to EXPIRED in
// one statement and reports how many changed.
func (r *Repository) ExpireOverdueShares(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&RecordShare{}).
		Where("status = ? AND expires_at IS NOT NULL AND expires_at < ?", ShareGranted, now).
		Updates(map[string]interface{}{
			"status":     ShareExpired,
			"updated_at": now,
		})
	return result.RowsAffected, result.Error
}
