package notification

import (
	"testing"

	"github.com/reformhealth/platform/pkg/common/models"
)

func event(eventType string, data map[string]interface{}) models.Event {
	return models.Event{
		ID:   "evt-1",
		Type: eventType,
		Data: data,
	}
}

func TestTranslateRecordProcessed(t *testing.T) {
	n := Translate(event(models.EventRecordProcessed, map[string]interface{}{
		"patient_id":  "patient-1",
		"category":    "LAB_REPORT",
		"value_count": float64(5),
	}))
	if n == nil {
		t.Fatal("expected a notification")
	}
	if n.Type != TypeTestResult {
		t.Fatalf("expected TEST_RESULT, got %s", n.Type)
	}
	if n.UserID != "patient-1" {
		t.Fatalf("expected user patient-1, got %s", n.UserID)
	}
	if n.Message != "A LAB_REPORT record was processed; 5 values were extracted." {
		t.Fatalf("unexpected message: %q", n.Message)
	}
	if n.IsImportant {
		t.Fatal("processed record should not be flagged important")
	}
}

func TestTranslateShareIsImportant(t *testing.T) {
	n := Translate(event(models.EventRecordShared, map[string]interface{}{
		"patient_id":    "patient-1",
		"provider_name": "Apollo Clinic",
	}))
	if n == nil {
		t.Fatal("expected a notification")
	}
	if n.Type != TypeRecordShared {
		t.Fatalf("expected RECORD_SHARED, got %s", n.Type)
	}
	if !n.IsImportant {
		t.Fatal("share notifications should be important")
	}
	if n.Message != "Your records were shared with Apollo Clinic." {
		t.Fatalf("unexpected message: %q", n.Message)
	}
}

func TestTranslateClaimImportance(t *testing.T) {
	cases := []struct {
		status    string
		important bool
	}{
		{"UNDER_REVIEW", false},
		{"APPROVED", true},
		{"REJECTED", true},
		{"PAID", true},
	}
	for _, tc := range cases {
		n := Translate(event(models.EventClaimUpdated, map[string]interface{}{
			"patient_id":   "patient-1",
			"claim_number": "CLM1234ABCDEF",
			"status":       tc.status,
		}))
		if n == nil {
			t.Fatalf("expected a notification for status %s", tc.status)
		}
		if n.Type != TypeClaimStatus {
			t.Fatalf("expected CLAIM_STATUS, got %s", n.Type)
		}
		if n.IsImportant != tc.important {
			t.Errorf("status %s: expected important=%v, got %v", tc.status, tc.important, n.IsImportant)
		}
	}
}

func TestTranslateSkipsUnroutableEvents(t *testing.T) {
	if n := Translate(event(models.EventRecordProcessed, map[string]interface{}{})); n != nil {
		t.Fatalf("expected nil for event without patient_id, got %+v", n)
	}
	if n := Translate(event("unknown.event", map[string]interface{}{"patient_id": "patient-1"})); n != nil {
		t.Fatalf("expected nil for unknown event type, got %+v", n)
	}
}

func TestTranslateInsightsGenerated(t *testing.T) {
	n := Translate(event(models.EventInsightsGenerated, map[string]interface{}{
		"patient_id":    "patient-1",
		"insight_count": float64(3),
	}))
	if n == nil {
		t.Fatal("expected a notification")
	}
	if !n.IsImportant {
		t.Fatal("insight notifications should be important")
	}
	if n.Message != "3 new insights were generated from your records." {
		t.Fatalf("unexpected message: %q", n.Message)
	}
}
