package reference

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultCatalogCoversLabMetrics(t *testing.T) {
	cat := DefaultCatalog()

	r, ok := cat.Lookup("HbA1c")
	if !ok {
		t.Fatal("expected HbA1c range")
	}
	if *r.Min != 4.0 || *r.Max != 5.6 || r.Unit != "%" {
		t.Fatalf("unexpected HbA1c range: %+v", r)
	}

	hdl, ok := cat.Lookup("HDL Cholesterol")
	if !ok {
		t.Fatal("expected HDL range")
	}
	if hdl.Min == nil || hdl.Max != nil {
		t.Fatalf("expected HDL to have only a lower bound, got %+v", hdl)
	}

	if _, ok := cat.Lookup("Unknown Metric"); ok {
		t.Fatal("expected no range for unknown metric")
	}
}

func TestRangeBoundaries(t *testing.T) {
	min, max := 70.0, 100.0
	r := Range{Min: &min, Max: &max}

	if r.Outside(70) || r.Outside(100) {
		t.Fatal("bounds are inclusive")
	}
	if !r.Outside(69.9) {
		t.Fatal("expected below-min value to be outside")
	}
	if !r.Outside(100.1) {
		t.Fatal("expected above-max value to be outside")
	}

	open := Range{Min: &min}
	if open.Outside(1e9) {
		t.Fatal("expected no upper bound")
	}
	if !open.Outside(10) {
		t.Fatal("expected lower bound to hold")
	}
}

func TestRangeString(t *testing.T) {
	min, max := 90.0, 120.0
	if got := (Range{Min: &min, Max: &max}).String(); got != "90-120" {
		t.Fatalf("expected 90-120, got %s", got)
	}
	if got := (Range{Min: &min}).String(); got != "90-" {
		t.Fatalf("expected 90-, got %s", got)
	}
	if got := (Range{Max: &max}).String(); got != "-120" {
		t.Fatalf("expected -120, got %s", got)
	}
}

func TestLoadEmptyPathUsesDefaults(t *testing.T) {
	cat, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := cat.Lookup("Creatinine"); !ok {
		t.Fatal("expected default ranges")
	}
}

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	cat, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Fatal("expected an error for a missing file")
	}
	if _, ok := cat.Lookup("HbA1c"); !ok {
		t.Fatal("expected defaults to survive a missing file")
	}
}

func TestLoadCustomCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ranges.yaml")
	content := []byte(`ranges:
  "Glucose Tolerance":
    min: 50
    max: 140
    unit: mg/dL
  "HDL Cholesterol":
    min: 45
`)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	cat, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	r, ok := cat.Lookup("Glucose Tolerance")
	if !ok {
		t.Fatal("expected custom range")
	}
	if *r.Min != 50 || *r.Max != 140 || r.Unit != "mg/dL" {
		t.Fatalf("unexpected range: %+v", r)
	}

	hdl, ok := cat.Lookup("HDL Cholesterol")
	if !ok {
		t.Fatal("expected overridden HDL range")
	}
	if *hdl.Min != 45 || hdl.Max != nil {
		t.Fatalf("unexpected HDL range: %+v", hdl)
	}

	// A custom catalog replaces the table outright.
	if _, ok := cat.Lookup("HbA1c"); ok {
		t.Fatal("expected defaults to be replaced by the file")
	}
}

func TestLoadRejectsEmptyCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.yaml")
	if err := os.WriteFile(path, []byte("ranges: {}\n"), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("expected an error for an empty catalog")
	}
}
