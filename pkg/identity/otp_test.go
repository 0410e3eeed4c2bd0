package identity

import (
	"errors"
	"testing"
	"time"
)

func TestNormalizeAadhaarAcceptsSeparators(t *testing.T) {
	cases := []string{"123456789012", "1234-5678-9012", "1234 5678 9012", " 1234-5678-9012 "}
	for _, raw := range cases {
		got, err := NormalizeAadhaar(raw)
		if err != nil {
			t.Fatalf("expected %q to normalize, got %v", raw, err)
		}
		if got != "123456789012" {
			t.Fatalf("expected 123456789012 from %q, got %s", raw, got)
		}
	}
}

func TestNormalizeAadhaarRejectsBadShapes(t *testing.T) {
	cases := []string{"", "12345678901", "1234567890123", "12345678901a", "xxxx-xxxx-xxxx"}
	for _, raw := range cases {
		if _, err := NormalizeAadhaar(raw); !errors.Is(err, ErrInvalidAadhaar) {
			t.Fatalf("expected ErrInvalidAadhaar for %q, got %v", raw, err)
		}
	}
}

func TestFormatAadhaar(t *testing.T) {
	if got := FormatAadhaar("123456789012"); got != "1234-5678-9012" {
		t.Fatalf("expected 1234-5678-9012, got %s", got)
	}
	if got := FormatAadhaar("12345"); got != "12345" {
		t.Fatalf("expected passthrough for wrong length, got %s", got)
	}
}

func TestNormalizeMobile(t *testing.T) {
	for _, raw := range []string{"9876543210", "+919876543210", "+91 9876543210"} {
		got, err := NormalizeMobile(raw)
		if err != nil {
			t.Fatalf("expected %q to normalize, got %v", raw, err)
		}
		if got != "+919876543210" {
			t.Fatalf("expected +919876543210 from %q, got %s", raw, got)
		}
	}

	for _, raw := range []string{"", "987654321", "98765432101", "98765abcde"} {
		if _, err := NormalizeMobile(raw); !errors.Is(err, ErrInvalidMobile) {
			t.Fatalf("expected ErrInvalidMobile for %q, got %v", raw, err)
		}
	}
}

func TestSessionIDShape(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	id := SessionID("123456789012", "+919876543210", now)

	if len(id) != 32 {
		t.Fatalf("expected 32-char session id, got %d: %s", len(id), id)
	}
	for _, c := range id {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			t.Fatalf("expected lowercase hex, got %q in %s", c, id)
		}
	}

	if again := SessionID("123456789012", "+919876543210", now); again != id {
		t.Fatalf("expected deterministic id for same inputs, got %s and %s", id, again)
	}
	if later := SessionID("123456789012", "+919876543210", now.Add(time.Nanosecond)); later == id {
		t.Fatalf("expected different id for different timestamp")
	}
}

func TestOTPShape(t *testing.T) {
	// Mock verification accepts any 6-digit code while the session lives.
	accepted := []string{"000000", "123456", "999999"}
	for _, otp := range accepted {
		if !otpDigits.MatchString(otp) {
			t.Errorf("expected %q to be accepted", otp)
		}
	}

	rejected := []string{"", "12345", "1234567", "12345a", "12 456"}
	for _, otp := range rejected {
		if otpDigits.MatchString(otp) {
			t.Errorf("expected %q to be rejected", otp)
		}
	}
}
