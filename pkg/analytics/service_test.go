package analytics

import (
	"context"
	"errors"
	"testing"

	"github.com/reformhealth/platform/pkg/reference"
)

type stubSource struct {
	records []SourceRecord
	err     error
}

func (s *stubSource) ProcessedRecords(ctx context.Context, patientID string) ([]SourceRecord, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.records, nil
}

func TestServiceDetectAnomalies(t *testing.T) {
	source := &stubSource{records: []SourceRecord{
		record("r1", 0, map[string]interface{}{MetricFastingBloodSugar: 95.0}),
		record("r2", 7, map[string]interface{}{MetricFastingBloodSugar: 96.0}),
		record("r3", 14, map[string]interface{}{MetricFastingBloodSugar: 94.0}),
		record("r4", 21, map[string]interface{}{MetricFastingBloodSugar: 95.0}),
		record("r5", 28, map[string]interface{}{MetricFastingBloodSugar: 96.0}),
		record("r6", 35, map[string]interface{}{MetricFastingBloodSugar: 94.0}),
		record("r7", 42, map[string]interface{}{MetricFastingBloodSugar: 180.0}),
	}}
	svc := NewService(source, nil, reference.DefaultCatalog(), nil, nil, nil, 0)

	anomalies, err := svc.DetectAnomalies(context.Background(), "p1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(anomalies) != 1 {
		t.Fatalf("expected 1 anomaly, got %d", len(anomalies))
	}
	if anomalies[0].RecordID != "r7" {
		t.Fatalf("expected anomaly from r7, got %s", anomalies[0].RecordID)
	}
}

func TestServiceDetectAnomaliesSourceError(t *testing.T) {
	source := &stubSource{err: errors.New("store unavailable")}
	svc := NewService(source, nil, reference.DefaultCatalog(), nil, nil, nil, 0)

	if _, err := svc.DetectAnomalies(context.Background(), "p1"); err == nil {
		t.Fatal("expected source error to propagate")
	}
}
