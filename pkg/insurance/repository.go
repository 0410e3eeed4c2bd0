package insurance

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

var (
	ErrPolicyNotFound = errors.New("insurance policy not found")
	ErrClaimNotFound  = errors.New("insurance claim not found")
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) AutoMigrate() error {
	return r.db.AutoMigrate(&Policy{}, &Claim{})
}

func (r *Repository) CreatePolicy(ctx context.Context, policy *Policy) error {
	policy.CreatedAt = time.Now().UTC()
	policy.UpdatedAt = policy.CreatedAt
	return r.db.WithContext(ctx).Create(policy).Error
}

func (r *Repository) GetPolicy(ctx context.Context, id string) (*Policy, error) {
	var policy Policy
	result := r.db.WithContext(ctx).First(&policy, "id = ?", id)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, ErrPolicyNotFound
	}
	return &policy, result.Error
}

func (r *Repository) ListPolicies(ctx context.Context, patientID string, status PolicyStatus) ([]Policy, error) {
	query := r.db.WithContext(ctx).Where("patient_id = ?", patientID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var policies []Policy
	result := query.Order("created_at DESC").Find(&policies)
	return policies, result.Error
}

func (r *Repository) UpdatePolicy(ctx context.Context, id string, fields map[string]interface{}) error {
	fields["updated_at"] = time.Now().UTC()
	result := r.db.WithContext(ctx).Model(&Policy{}).
		Where("id = ?", id).
		Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPolicyNotFound
	}
	return nil
}

// ExpireOverduePolicies flips ACTIVE policies past their end date to EXPIRED
// in one statement.
func (r *Repository) ExpireOverduePolicies(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&Policy{}).
		Where("status = ? AND end_date < ?", PolicyActive, now).
		Updates(map[string]interface{}{
			"status":     PolicyExpired,
			"updated_at": now,
		})
	return result.RowsAffected, result.Error
}

func (r *Repository) CreateClaim(ctx context.Context, claim *Claim) error {
	claim.CreatedAt = time.Now().UTC()
	claim.UpdatedAt = claim.CreatedAt
	return r.db.WithContext(ctx).Create(claim).Error
}

func (r *Repository) GetClaim(ctx context.Context, id string) (*Claim, error) {
	var claim Claim
	result := r.db.WithContext(ctx).First(&claim, "id = ?", id)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, ErrClaimNotFound
	}
	return &claim, result.Error
}

func (r *Repository) ListClaims(ctx context.Context, patientID string, status ClaimStatus) ([]Claim, error) {
	query := r.db.WithContext(ctx).Where("patient_id = ?", patientID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var claims []Claim
	result := query.Order("claim_date DESC").Find(&claims)
	return claims, result.Error
}

func (r *Repository) ListClaimsByPolicy(ctx context.Context, policyID string) ([]Claim, error) {
	var claims []Claim
	result := r.db.WithContext(ctx).
		Where("policy_id = ?", policyID).
		Order("claim_date DESC").
		Find(&claims)
	return claims, result.Error
}

func (r *Repository) UpdateClaim(ctx context.Context, id string, fields map[string]interface{}) error {
	fields["updated_at"] = time.Now().UTC()
	result := r.db.WithContext(ctx).Model(&Claim{}).
		Where("id = ?", id).
		Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrClaimNotFound
	}
	return nil
}
