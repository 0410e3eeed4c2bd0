package records

import (
	"encoding/json"
	"testing"
)

func TestParseValuesCoercesMixedTypes(t *testing.T) {
	raw := map[string]interface{}{
		"HbA1c":                   7.2,
		"Fasting Blood Sugar":     126,
		"Total Cholesterol":       int64(210),
		"Hemoglobin":              json.Number("13.5"),
		"Blood Pressure Systolic": "145",
	}

	parsed := ParseValues(raw)

	if len(parsed) != 5 {
		t.Fatalf("expected 5 parsed values, got %d: %v", len(parsed), parsed)
	}
	if parsed["HbA1c"] != 7.2 {
		t.Fatalf("expected HbA1c 7.2, got %v", parsed["HbA1c"])
	}
	if parsed["Fasting Blood Sugar"] != float64(126) {
		t.Fatalf("expected FBS 126, got %v", parsed["Fasting Blood Sugar"])
	}
	if parsed["Blood Pressure Systolic"] != float64(145) {
		t.Fatalf("expected systolic 145, got %v", parsed["Blood Pressure Systolic"])
	}
}

func TestParseValuesStripsUnitsFromStrings(t *testing.T) {
	raw := map[string]interface{}{
		"HbA1c":          "7.2 mg/dL",
		"Blood Pressure": "140mmHg",
		"Platelet Count": "1,50,000 /cumm",
	}

	parsed := ParseValues(raw)

	if parsed["HbA1c"] != 7.2 {
		t.Fatalf("expected 7.2 from '7.2 mg/dL', got %v", parsed["HbA1c"])
	}
	if parsed["Blood Pressure"] != float64(140) {
		t.Fatalf("expected 140 from '140mmHg', got %v", parsed["Blood Pressure"])
	}
	if parsed["Platelet Count"] != float64(150000) {
		t.Fatalf("expected 150000 from '1,50,000 /cumm', got %v", parsed["Platelet Count"])
	}
}

func TestParseValuesDropsUnreadableEntries(t *testing.T) {
	raw := map[string]interface{}{
		"HbA1c":        6.1,
		"Blood Group":  "O positive",
		"Notes":        "within normal limits",
		"Attachments":  []string{"scan.pdf"},
		"Empty":        "",
		"  ":           12.0,
		"Malaria Test": nil,
	}

	parsed := ParseValues(raw)

	if len(parsed) != 1 {
		t.Fatalf("expected only HbA1c to survive, got %v", parsed)
	}
	if parsed["HbA1c"] != 6.1 {
		t.Fatalf("expected HbA1c 6.1, got %v", parsed["HbA1c"])
	}
}

func TestParseValuesTrimsMetricNames(t *testing.T) {
	parsed := ParseValues(map[string]interface{}{"  HbA1c  ": 5.8})

	if _, ok := parsed["HbA1c"]; !ok {
		t.Fatalf("expected trimmed key 'HbA1c', got %v", parsed)
	}
}

func TestCoerceRejectsNonNumericStrings(t *testing.T) {
	cases := []string{"", "  ", "negative", "N/A", "/cumm"}
	for _, raw := range cases {
		if _, ok := Coerce(raw); ok {
			t.Fatalf("expected %q to be rejected", raw)
		}
	}
}

func TestCoerceReadsNegativeValues(t *testing.T) {
	v, ok := Coerce("-0.5")
	if !ok {
		t.Fatalf("expected -0.5 to coerce")
	}
	if v != -0.5 {
		t.Fatalf("expected -0.5, got %v", v)
	}
}
