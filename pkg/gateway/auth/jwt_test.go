package auth

import (
	"context"
	"strings"
	"testing"
	"time"
)

func newTestManager(t *testing.T) *JWTManager {
	t.Helper()
	m, err := NewJWTManager("0123456789abcdef", "reform-identity", "reform-platform", time.Hour)
	if err != nil {
		t.Fatalf("failed to build manager: %v", err)
	}
	return m
}

func TestIssueAndValidateToken(t *testing.T) {
	m := newTestManager(t)

	token, err := m.IssueToken("patient-1", "+919876543210", true)
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}
	if strings.Count(token, ".") != 2 {
		t.Fatalf("expected three-segment token, got %s", token)
	}

	claims, err := m.ValidateToken(context.Background(), token)
	if err != nil {
		t.Fatalf("expected token to validate, got %v", err)
	}
	if claims.PatientID != "patient-1" {
		t.Fatalf("expected patient-1, got %s", claims.PatientID)
	}
	if claims.Mobile != "+919876543210" {
		t.Fatalf("expected mobile claim, got %s", claims.Mobile)
	}
	if !claims.Verified {
		t.Fatalf("expected verified claim")
	}
	if claims.Subject != "patient-1" {
		t.Fatalf("expected subject patient-1, got %s", claims.Subject)
	}
}

func TestValidateTokenRejectsTampering(t *testing.T) {
	m := newTestManager(t)

	token, err := m.IssueToken("patient-1", "+919876543210", false)
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}

	parts := strings.Split(token, ".")
	tampered := strings.Join([]string{parts[0], parts[1], "forged"}, ".")
	if _, err := m.ValidateToken(context.Background(), tampered); err == nil {
		t.Fatalf("expected tampered token to be rejected")
	}

	if _, err := m.ValidateToken(context.Background(), "not-a-token"); err == nil {
		t.Fatalf("expected malformed token to be rejected")
	}
	if _, err := m.ValidateToken(context.Background(), ""); err == nil {
		t.Fatalf("expected empty token to be rejected")
	}
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	m := newTestManager(t)
	issued := time.Now().Add(-3 * time.Hour)
	m.nowFunc = func() time.Time { return issued }

	token, err := m.IssueToken("patient-1", "+919876543210", false)
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}

	m.nowFunc = time.Now
	if _, err := m.ValidateToken(context.Background(), token); err == nil {
		t.Fatalf("expected expired token to be rejected")
	}
}

func TestValidateTokenRejectsWrongAudience(t *testing.T) {
	m := newTestManager(t)
	token, err := m.IssueToken("patient-1", "+919876543210", false)
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}

	otherAudience, err := NewJWTManager("0123456789abcdef", "reform-identity", "another-app", time.Hour)
	if err != nil {
		t.Fatalf("failed to build manager: %v", err)
	}
	if _, err := otherAudience.ValidateToken(context.Background(), token); err == nil {
		t.Fatalf("expected audience mismatch to be rejected")
	}
}

func TestNewJWTManagerRejectsShortSecret(t *testing.T) {
	if _, err := NewJWTManager("short", "iss", "aud", time.Hour); err == nil {
		t.Fatalf("expected short secret to be rejected")
	}
}
