package identity

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

var ErrPatientNotFound = errors.New("patient not found")

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) AutoMigrate() error {
	return r.db.AutoMigrate(&Patient{})
}

func (r *Repository) Create(ctx context.Context, patient *Patient) error {
	patient.CreatedAt = time.Now().UTC()
	patient.UpdatedAt = patient.CreatedAt
	return r.db.WithContext(ctx).Create(patient).Error
}

func (r *Repository) Get(ctx context.Context, id string) (*Patient, error) {
	var patient Patient
	result := r.db.WithContext(ctx).First(&patient, "id = ?", id)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, ErrPatientNotFound
	}
	return &patient, result.Error
}

func (r *Repository) GetByMobile(ctx context.Context, mobile string) (*Patient, error) {
	var patient Patient
	result := r.db.WithContext(ctx).First(&patient, "mobile = ?", mobile)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, ErrPatientNotFound
	}
	return &patient, result.Error
}

func (r *Repository) GetByAadhaarToken(ctx context.Context, token string) (*Patient, error) {
	var patient Patient
	result := r.db.WithContext(ctx).First(&patient, "aadhaar_token = ?", token)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, ErrPatientNotFound
	}
	return &patient, result.Error
}

func (r *Repository) Update(ctx context.Context, id string, fields map[string]interface{}) error {
	fields["updated_at"] = time.Now().UTC()
	result := r.db.WithContext(ctx).Model(&Patient{}).
		Where("id = ?", id).
		Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPatientNotFound
	}
	return nil
}
