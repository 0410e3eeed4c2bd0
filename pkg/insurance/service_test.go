package insurance

import (
	"context"
	"regexp"
	"testing"
)

var claimNumberPattern = regexp.MustCompile(`^CLM[0-9A-F]{10}$`)

func TestNewClaimNumberFormat(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		n := NewClaimNumber()
		if !claimNumberPattern.MatchString(n) {
			t.Fatalf("claim number %q does not match CLM + 10 uppercase hex", n)
		}
		if seen[n] {
			t.Fatalf("claim number %q repeated", n)
		}
		seen[n] = true
	}
}

func TestClaimTransitions(t *testing.T) {
	allowed := []struct {
		from, to ClaimStatus
	}{
		{ClaimPending, ClaimUnderReview},
		{ClaimUnderReview, ClaimApproved},
		{ClaimUnderReview, ClaimRejected},
		{ClaimApproved, ClaimPaymentInitiated},
		{ClaimPaymentInitiated, ClaimPaid},
	}
	for _, tc := range allowed {
		if !canTransition(tc.from, tc.to) {
			t.Errorf("expected %s -> %s to be allowed", tc.from, tc.to)
		}
	}

	forbidden := []struct {
		from, to ClaimStatus
	}{
		{ClaimPending, ClaimApproved},
		{ClaimPending, ClaimPaid},
		{ClaimApproved, ClaimRejected},
		{ClaimRejected, ClaimUnderReview},
		{ClaimPaid, ClaimPaymentInitiated},
		{ClaimPaid, ClaimPaid},
	}
	for _, tc := range forbidden {
		if canTransition(tc.from, tc.to) {
			t.Errorf("expected %s -> %s to be rejected", tc.from, tc.to)
		}
	}
}

func TestCapApproval(t *testing.T) {
	cases := []struct {
		name                          string
		requested, claimed, remaining float64
		want                          float64
	}{
		{"unset requested defaults to claimed", 0, 5000, 10000, 5000},
		{"requested below claimed honored", 3000, 5000, 10000, 3000},
		{"requested above claimed capped at claimed", 8000, 5000, 10000, 5000},
		{"claimed above remaining capped at remaining", 0, 5000, 2000, 2000},
		{"requested above remaining capped at remaining", 4000, 5000, 2500, 2500},
		{"exhausted policy approves nothing", 0, 5000, 0, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := capApproval(tc.requested, tc.claimed, tc.remaining)
			if got != tc.want {
				t.Fatalf("capApproval(%v, %v, %v) = %v, want %v", tc.requested, tc.claimed, tc.remaining, got, tc.want)
			}
		})
	}
}

func TestPolicyDerivedAmounts(t *testing.T) {
	p := Policy{CoverageAmount: 500000, UsedAmount: 125000}
	if got := p.RemainingAmount(); got != 375000 {
		t.Fatalf("expected remaining 375000, got %v", got)
	}
	if got := p.UsagePercentage(); got != 25 {
		t.Fatalf("expected usage 25%%, got %v", got)
	}

	zero := Policy{}
	if got := zero.UsagePercentage(); got != 0 {
		t.Fatalf("expected zero-coverage usage 0, got %v", got)
	}
}

func TestCreatePolicyValidation(t *testing.T) {
	svc := NewService(nil, nil, nil, nil)
	ctx := context.Background()

	valid := CreatePolicyRequest{
		PatientID:        "patient-1",
		PolicyNumber:     "POL-100",
		InsuranceCompany: "Acme Health",
		CoverageAmount:   500000,
		StartDate:        "2024-01-01",
		EndDate:          "2025-01-01",
	}

	cases := []struct {
		name   string
		mutate func(*CreatePolicyRequest)
	}{
		{"missing patient", func(r *CreatePolicyRequest) { r.PatientID = " " }},
		{"missing policy number", func(r *CreatePolicyRequest) { r.PolicyNumber = "" }},
		{"missing company", func(r *CreatePolicyRequest) { r.InsuranceCompany = "" }},
		{"non-positive coverage", func(r *CreatePolicyRequest) { r.CoverageAmount = 0 }},
		{"bad start date", func(r *CreatePolicyRequest) { r.StartDate = "soon" }},
		{"bad end date", func(r *CreatePolicyRequest) { r.EndDate = "" }},
		{"inverted period", func(r *CreatePolicyRequest) { r.StartDate, r.EndDate = r.EndDate, r.StartDate }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := valid
			tc.mutate(&req)
			if _, err := svc.CreatePolicy(ctx, req); !IsValidationError(err) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestSubmitClaimValidation(t *testing.T) {
	svc := NewService(nil, nil, nil, nil)
	ctx := context.Background()

	if _, err := svc.SubmitClaim(ctx, SubmitClaimRequest{ClaimedAmount: 100}); !IsValidationError(err) {
		t.Fatalf("expected validation error for missing policy_id, got %v", err)
	}
	if _, err := svc.SubmitClaim(ctx, SubmitClaimRequest{PolicyID: "p-1"}); !IsValidationError(err) {
		t.Fatalf("expected validation error for non-positive amount, got %v", err)
	}
}
