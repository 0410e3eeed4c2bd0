package insurance

import (
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type PolicyStatus string

const (
	PolicyActive    PolicyStatus = "ACTIVE"
	PolicyExpired   PolicyStatus = "EXPIRED"
	PolicyCancelled PolicyStatus = "CANCELLED"
)

type ClaimStatus string

const (
	ClaimPending          ClaimStatus = "PENDING"
	ClaimUnderReview      ClaimStatus = "UNDER_REVIEW"
	ClaimApproved         ClaimStatus = "APPROVED"
	ClaimRejected         ClaimStatus = "REJECTED"
	ClaimPaymentInitiated ClaimStatus = "PAYMENT_INITIATED"
	ClaimPaid             ClaimStatus = "PAID"
)

// claimTransitions is the review pipeline: a claim is reviewed before a
// decision, and payment follows approval. Anything else is rejected as an
// invalid transition.
var claimTransitions = map[ClaimStatus][]ClaimStatus{
	ClaimPending:          {ClaimUnderReview},
	ClaimUnderReview:      {ClaimApproved, ClaimRejected},
	ClaimApproved:         {ClaimPaymentInitiated},
	ClaimPaymentInitiated: {ClaimPaid},
}

func canTransition(from, to ClaimStatus) bool {
	for _, allowed := range claimTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

type Policy struct {
	ID               string       `json:"id" gorm:"primaryKey;column:id"`
	PatientID        string       `json:"patient_id" gorm:"column:patient_id;index:idx_policies_patient_status"`
	PolicyNumber     string       `json:"policy_number" gorm:"column:policy_number;index"`
	InsuranceCompany string       `json:"insurance_company" gorm:"column:insurance_company"`
	PolicyType       string       `json:"policy_type" gorm:"column:policy_type"`
	CoverageAmount   float64      `json:"coverage_amount" gorm:"column:coverage_amount"`
	UsedAmount       float64      `json:"used_amount" gorm:"column:used_amount"`
	StartDate        time.Time    `json:"start_date" gorm:"column:start_date"`
	EndDate          time.Time    `json:"end_date" gorm:"column:end_date;index"`
	Status           PolicyStatus `json:"status" gorm:"column:status;index:idx_policies_patient_status"`
	CreatedAt        time.Time    `json:"created_at" gorm:"column:created_at"`
	UpdatedAt        time.Time    `json:"updated_at" gorm:"column:updated_at"`
}

func (Policy) TableName() string {
	return "insurance_policies"
}

func (p Policy) RemainingAmount() float64 {
	return p.CoverageAmount - p.UsedAmount
}

func (p Policy) UsagePercentage() float64 {
	if p.CoverageAmount > 0 {
		return p.UsedAmount / p.CoverageAmount * 100
	}
	return 0
}

type Claim struct {
	ID                  string         `json:"id" gorm:"primaryKey;column:id"`
	ClaimNumber         string         `json:"claim_number" gorm:"column:claim_number;uniqueIndex"`
	PolicyID            string         `json:"policy_id" gorm:"column:policy_id;index:idx_claims_policy_status"`
	PatientID           string         `json:"patient_id" gorm:"column:patient_id;index"`
	ProviderName        string         `json:"provider_name" gorm:"column:provider_name"`
	ClaimedAmount       float64        `json:"claimed_amount" gorm:"column:claimed_amount"`
	ApprovedAmount      *float64       `json:"approved_amount,omitempty" gorm:"column:approved_amount"`
	SupportingRecordIDs datatypes.JSON `json:"supporting_record_ids" gorm:"column:supporting_record_ids"`
	Status              ClaimStatus    `json:"status" gorm:"column:status;index:idx_claims_policy_status"`
	RejectionReason     string         `json:"rejection_reason,omitempty" gorm:"column:rejection_reason"`
	ClaimDate           time.Time      `json:"claim_date" gorm:"column:claim_date"`
	ApprovedAt          *time.Time     `json:"approved_at,omitempty" gorm:"column:approved_at"`
	PaidAt              *time.Time     `json:"paid_at,omitempty" gorm:"column:paid_at"`
	CreatedAt           time.Time      `json:"created_at" gorm:"column:created_at"`
	UpdatedAt           time.Time      `json:"updated_at" gorm:"column:updated_at"`
}

func (Claim) TableName() string {
	return "insurance_claims"
}

// NewClaimNumber mints the human-facing claim handle: "CLM" plus ten
// uppercase hex characters.
func NewClaimNumber() string {
	u := uuid.New()
	return "CLM" + strings.ToUpper(hex.EncodeToString(u[:])[:10])
}
