package insurance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/reformhealth/platform/pkg/audit"
	"github.com/reformhealth/platform/pkg/common/kafka"
	"github.com/reformhealth/platform/pkg/common/logger"
	"github.com/reformhealth/platform/pkg/common/models"
)

const eventSource = "insurance-service"

var (
	errMissingPatient    = errors.New("patient_id required")
	errMissingPolicyNo   = errors.New("policy_number required")
	errMissingCompany    = errors.New("insurance_company required")
	errInvalidCoverage   = errors.New("coverage_amount must be positive")
	errInvalidPeriod     = errors.New("end_date must be after start_date")
	errMissingPolicy     = errors.New("policy_id required")
	errInvalidClaimed    = errors.New("claimed_amount must be positive")
	errPolicyNotActive   = errors.New("policy is not active")
	errMissingReason     = errors.New("rejection_reason required")
	ErrInvalidTransition = errors.New("invalid claim status transition")
)

type ValidationError struct {
	reason error
}

func (e ValidationError) Error() string {
	return e.reason.Error()
}

func (e ValidationError) Unwrap() error {
	return e.reason
}

func IsValidationError(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}

type CreatePolicyRequest struct {
	PatientID        string  `json:"patient_id"`
	PolicyNumber     string  `json:"policy_number"`
	InsuranceCompany string  `json:"insurance_company"`
	PolicyType       string  `json:"policy_type"`
	CoverageAmount   float64 `json:"coverage_amount"`
	StartDate        string  `json:"start_date"`
	EndDate          string  `json:"end_date"`
}

type SubmitClaimRequest struct {
	PolicyID            string   `json:"policy_id"`
	ProviderName        string   `json:"provider_name"`
	ClaimedAmount       float64  `json:"claimed_amount"`
	SupportingRecordIDs []string `json:"supporting_record_ids"`
	ClaimDate           string   `json:"claim_date"`
}

// ClaimDecisionRequest moves a claim along the review pipeline. ApprovedAmount
// is only read for APPROVED, RejectionReason only for REJECTED.
type ClaimDecisionRequest struct {
	Status          ClaimStatus `json:"status"`
	ApprovedAmount  float64     `json:"approved_amount"`
	RejectionReason string      `json:"rejection_reason"`
}

type Service struct {
	repo     *Repository
	producer *kafka.Producer
	dlq      *kafka.Producer
	auditor  *audit.Auditor
}

func NewService(repo *Repository, producer, dlq *kafka.Producer, auditor *audit.Auditor) *Service {
	return &Service{repo: repo, producer: producer, dlq: dlq, auditor: auditor}
}

func parseDate(raw string) (time.Time, error) {
	trimmed := strings.TrimSpace(raw)
	if t, err := time.Parse("2006-01-02", trimmed); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, trimmed)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

func (s *Service) CreatePolicy(ctx context.Context, req CreatePolicyRequest) (*Policy, error) {
	if strings.TrimSpace(req.PatientID) == "" {
		return nil, ValidationError{reason: errMissingPatient}
	}
	if strings.TrimSpace(req.PolicyNumber) == "" {
		return nil, ValidationError{reason: errMissingPolicyNo}
	}
	if strings.TrimSpace(req.InsuranceCompany) == "" {
		return nil, ValidationError{reason: errMissingCompany}
	}
	if req.CoverageAmount <= 0 {
		return nil, ValidationError{reason: errInvalidCoverage}
	}
	start, err := parseDate(req.StartDate)
	if err != nil {
		return nil, ValidationError{reason: fmt.Errorf("start_date '%s' unparseable", req.StartDate)}
	}
	end, err := parseDate(req.EndDate)
	if err != nil {
		return nil, ValidationError{reason: fmt.Errorf("end_date '%s' unparseable", req.EndDate)}
	}
	if !end.After(start) {
		return nil, ValidationError{reason: errInvalidPeriod}
	}

	policy := &Policy{
		ID:               uuid.New().String(),
		PatientID:        req.PatientID,
		PolicyNumber:     req.PolicyNumber,
		InsuranceCompany: req.InsuranceCompany,
		PolicyType:       req.PolicyType,
		CoverageAmount:   req.CoverageAmount,
		StartDate:        start,
		EndDate:          end,
		Status:           PolicyActive,
	}

	if err := s.repo.CreatePolicy(ctx, policy); err != nil {
		return nil, fmt.Errorf("persisting policy: %w", err)
	}

	_ = s.auditor.Record(ctx, audit.Log{
		UserID:      policy.PatientID,
		Action:      audit.ActionOther,
		EntityType:  "insurance_policy",
		EntityID:    policy.ID,
		Description: fmt.Sprintf("Added policy %s (%s)", policy.PolicyNumber, policy.InsuranceCompany),
	})

	return policy, nil
}

func (s *Service) GetPolicy(ctx context.Context, id string) (*Policy, error) {
	return s.repo.GetPolicy(ctx, id)
}

func (s *Service) ListPolicies(ctx context.Context, patientID string, status PolicyStatus) ([]Policy, error) {
	return s.repo.ListPolicies(ctx, patientID, status)
}

func (s *Service) CancelPolicy(ctx context.Context, id string) (*Policy, error) {
	if err := s.repo.UpdatePolicy(ctx, id, map[string]interface{}{
		"status": PolicyCancelled,
	}); err != nil {
		return nil, err
	}
	return s.repo.GetPolicy(ctx, id)
}

// SubmitClaim files a claim against an active policy. The claimed amount may
// exceed the remaining coverage; the cap is applied at approval, not here.
func (s *Service) SubmitClaim(ctx context.Context, req SubmitClaimRequest) (*Claim, error) {
	if strings.TrimSpace(req.PolicyID) == "" {
		return nil, ValidationError{reason: errMissingPolicy}
	}
	if req.ClaimedAmount <= 0 {
		return nil, ValidationError{reason: errInvalidClaimed}
	}

	policy, err := s.repo.GetPolicy(ctx, req.PolicyID)
	if err != nil {
		return nil, err
	}
	if policy.Status != PolicyActive {
		return nil, ValidationError{reason: errPolicyNotActive}
	}

	claimDate := time.Now().UTC()
	if strings.TrimSpace(req.ClaimDate) != "" {
		parsed, err := parseDate(req.ClaimDate)
		if err != nil {
			return nil, ValidationError{reason: fmt.Errorf("claim_date '%s' unparseable", req.ClaimDate)}
		}
		claimDate = parsed
	}

	if req.SupportingRecordIDs == nil {
		req.SupportingRecordIDs = []string{}
	}
	recordsJSON, _ := json.Marshal(req.SupportingRecordIDs)

	claim := &Claim{
		ID:                  uuid.New().String(),
		ClaimNumber:         NewClaimNumber(),
		PolicyID:            policy.ID,
		PatientID:           policy.PatientID,
		ProviderName:        req.ProviderName,
		ClaimedAmount:       req.ClaimedAmount,
		SupportingRecordIDs: datatypes.JSON(recordsJSON),
		Status:              ClaimPending,
		ClaimDate:           claimDate,
	}

	if err := s.repo.CreateClaim(ctx, claim); err != nil {
		return nil, fmt.Errorf("persisting claim: %w", err)
	}

	_ = s.auditor.Record(ctx, audit.Log{
		UserID:      claim.PatientID,
		Action:      audit.ActionOther,
		EntityType:  "insurance_claim",
		EntityID:    claim.ID,
		Description: fmt.Sprintf("Submitted claim %s for %.2f", claim.ClaimNumber, claim.ClaimedAmount),
	})

	s.publishClaimEvent(ctx, models.EventClaimSubmitted, claim)

	return claim, nil
}

func (s *Service) GetClaim(ctx context.Context, id string) (*Claim, error) {
	return s.repo.GetClaim(ctx, id)
}

func (s *Service) ListClaims(ctx context.Context, patientID string, status ClaimStatus) ([]Claim, error) {
	return s.repo.ListClaims(ctx, patientID, status)
}

func (s *Service) ListClaimsByPolicy(ctx context.Context, policyID string) ([]Claim, error) {
	return s.repo.ListClaimsByPolicy(ctx, policyID)
}

// capApproval resolves the amount actually paid out: the requested amount
// (claimed when the reviewer leaves it unset) capped at what the policy has
// left.
func capApproval(requested, claimed, remaining float64) float64 {
	amount := requested
	if amount <= 0 || amount > claimed {
		amount = claimed
	}
	if amount > remaining {
		amount = remaining
	}
	if amount < 0 {
		amount = 0
	}
	return amount
}

// DecideClaim advances a claim along the review pipeline. Approval caps the
// payout at the policy's remaining coverage and books it against used_amount.
func (s *Service) DecideClaim(ctx context.Context, id string, req ClaimDecisionRequest) (*Claim, error) {
	claim, err := s.repo.GetClaim(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canTransition(claim.Status, req.Status) {
		return nil, ValidationError{reason: fmt.Errorf("%s -> %s: %w", claim.Status, req.Status, ErrInvalidTransition)}
	}

	now := time.Now().UTC()
	fields := map[string]interface{}{"status": req.Status}

	switch req.Status {
	case ClaimApproved:
		policy, err := s.repo.GetPolicy(ctx, claim.PolicyID)
		if err != nil {
			return nil, err
		}
		approved := capApproval(req.ApprovedAmount, claim.ClaimedAmount, policy.RemainingAmount())
		fields["approved_amount"] = approved
		fields["approved_at"] = now

		if err := s.repo.UpdatePolicy(ctx, policy.ID, map[string]interface{}{
			"used_amount": policy.UsedAmount + approved,
		}); err != nil {
			return nil, fmt.Errorf("booking approved amount: %w", err)
		}
	case ClaimRejected:
		if strings.TrimSpace(req.RejectionReason) == "" {
			return nil, ValidationError{reason: errMissingReason}
		}
		fields["rejection_reason"] = req.RejectionReason
	case ClaimPaid:
		fields["paid_at"] = now
	}

	if err := s.repo.UpdateClaim(ctx, id, fields); err != nil {
		return nil, err
	}

	updated, err := s.repo.GetClaim(ctx, id)
	if err != nil {
		return nil, err
	}

	_ = s.auditor.Record(ctx, audit.Log{
		UserID:      updated.PatientID,
		Action:      audit.ActionOther,
		EntityType:  "insurance_claim",
		EntityID:    updated.ID,
		Description: fmt.Sprintf("Claim %s moved to %s", updated.ClaimNumber, updated.Status),
	})

	s.publishClaimEvent(ctx, models.EventClaimUpdated, updated)

	return updated, nil
}

func (s *Service) publishClaimEvent(ctx context.Context, eventType string, claim *Claim) {
	if s.producer == nil {
		return
	}

	payload := map[string]interface{}{
		"claim_id":       claim.ID,
		"claim_number":   claim.ClaimNumber,
		"policy_id":      claim.PolicyID,
		"patient_id":     claim.PatientID,
		"status":         string(claim.Status),
		"claimed_amount": claim.ClaimedAmount,
	}
	if claim.ApprovedAmount != nil {
		payload["approved_amount"] = *claim.ApprovedAmount
	}

	if err := s.producer.PublishEvent(ctx, eventType, eventSource, payload); err != nil {
		logger.Log.WithError(err).Error("Failed to publish claim event")
		if s.dlq != nil {
			if dlqErr := s.dlq.PublishEvent(ctx, eventType, eventSource, payload); dlqErr != nil {
				logger.Log.WithError(dlqErr).Error("Failed to push claim event to DLQ")
			}
		}
	}
}

// ExpireOverduePolicies is the periodic sweep behind the policy expiry
// ticker.
func (s *Service) ExpireOverduePolicies(ctx context.Context) (int64, error) {
	n, err := s.repo.ExpireOverduePolicies(ctx, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("expiring policies: %w", err)
	}
	if n > 0 {
		logger.Log.WithFields(map[string]interface{}{"count": n}).Info("Expired overdue policies")
	}
	return n, nil
}
