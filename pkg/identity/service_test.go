package identity

import (
	"testing"
	"time"
)

func TestAadhaarTokenIsPepperedAndStable(t *testing.T) {
	svc := NewService(nil, nil, nil, "test-pepper", nil)

	first := svc.AadhaarToken("123456789012")
	second := svc.AadhaarToken("123456789012")
	if first != second {
		t.Fatalf("expected stable token, got %s and %s", first, second)
	}
	if len(first) != 64 {
		t.Fatalf("expected 64-char hex token, got %d", len(first))
	}

	other := NewService(nil, nil, nil, "other-pepper", nil)
	if other.AadhaarToken("123456789012") == first {
		t.Fatalf("expected different pepper to change the token")
	}

	if svc.AadhaarToken("210987654321") == first {
		t.Fatalf("expected different aadhaar to change the token")
	}
}

func TestSplitName(t *testing.T) {
	first, last := splitName("Mock User Name")
	if first != "Mock" || last != "User Name" {
		t.Fatalf("expected Mock / User Name, got %q / %q", first, last)
	}

	first, last = splitName("Cher")
	if first != "Cher" || last != "" {
		t.Fatalf("expected Cher / empty, got %q / %q", first, last)
	}

	first, last = splitName("  ")
	if first != "" || last != "" {
		t.Fatalf("expected empty names, got %q / %q", first, last)
	}
}

func TestParseDOB(t *testing.T) {
	dob := parseDOB("1990-01-01")
	if dob == nil {
		t.Fatalf("expected 1990-01-01 to parse")
	}
	want := time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC)
	if !dob.Equal(want) {
		t.Fatalf("expected %v, got %v", want, dob)
	}

	if parseDOB("01/01/1990") != nil {
		t.Fatalf("expected unparseable dob to return nil")
	}
}
