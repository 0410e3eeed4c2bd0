package analytics

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"

	"github.com/reformhealth/platform/pkg/reference"
)

func testRouter(source RecordSource) *mux.Router {
	svc := NewService(source, nil, reference.DefaultCatalog(), nil, nil, nil, 0)
	handler := NewHTTPHandler(svc, 1<<20)

	router := mux.NewRouter()
	api := router.PathPrefix("/api/v1").Subrouter()
	handler.Register(api)
	return router
}

func TestDetectAnomaliesEndpoint(t *testing.T) {
	source := &stubSource{records: []SourceRecord{
		record("r1", 0, map[string]interface{}{MetricFastingBloodSugar: 95.0}),
		record("r2", 7, map[string]interface{}{MetricFastingBloodSugar: 96.0}),
		record("r3", 14, map[string]interface{}{MetricFastingBloodSugar: 94.0}),
		record("r4", 21, map[string]interface{}{MetricFastingBloodSugar: 95.0}),
		record("r5", 28, map[string]interface{}{MetricFastingBloodSugar: 96.0}),
		record("r6", 35, map[string]interface{}{MetricFastingBloodSugar: 94.0}),
		record("r7", 42, map[string]interface{}{MetricFastingBloodSugar: 180.0}),
	}}
	router := testRouter(source)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/analytics/insights/detect_anomalies",
		strings.NewReader(`{"patient_id":"p1"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Success   bool      `json:"success"`
		Anomalies []Anomaly `json:"anomalies"`
		Count     int       `json:"count"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.Success {
		t.Fatal("expected success envelope")
	}
	if resp.Count != 1 || len(resp.Anomalies) != 1 {
		t.Fatalf("expected 1 anomaly, got count=%d len=%d", resp.Count, len(resp.Anomalies))
	}
	if resp.Anomalies[0].Value != 180 {
		t.Fatalf("expected anomalous value 180, got %g", resp.Anomalies[0].Value)
	}
}

func TestDetectAnomaliesEmptyList(t *testing.T) {
	router := testRouter(&stubSource{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/analytics/insights/detect_anomalies",
		strings.NewReader(`{"patient_id":"p1"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `"anomalies":[]`) {
		t.Fatalf("expected an empty array, not null: %s", body)
	}
}

func TestEndpointsRequirePatientID(t *testing.T) {
	router := testRouter(&stubSource{})

	posts := []string{
		"/api/v1/analytics/trends/analyze",
		"/api/v1/analytics/risks/assess",
		"/api/v1/analytics/insights/generate",
		"/api/v1/analytics/insights/detect_anomalies",
	}
	for _, path := range posts {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(`{}`))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", path, rec.Code)
		}
		var resp struct {
			Success bool   `json:"success"`
			Error   string `json:"error"`
		}
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("%s: failed to decode response: %v", path, err)
		}
		if resp.Success {
			t.Fatalf("%s: expected failure envelope", path)
		}
		if resp.Error != "patient_id is required" {
			t.Fatalf("%s: unexpected error message: %s", path, resp.Error)
		}
	}

	gets := []string{
		"/api/v1/analytics/trends",
		"/api/v1/analytics/risks",
		"/api/v1/analytics/insights",
	}
	for _, path := range gets {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", path, rec.Code)
		}
	}
}

func TestMalformedBodyRejected(t *testing.T) {
	router := testRouter(&stubSource{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/analytics/trends/analyze",
		strings.NewReader(`{"patient_id":`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "invalid request body") {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

type ctxCheckSource struct {
	records []SourceRecord
}

func (s *ctxCheckSource) ProcessedRecords(ctx context.Context, patientID string) ([]SourceRecord, error) {
	if ctx == nil {
		panic("nil context")
	}
	return s.records, nil
}

func TestHandlerPassesRequestContext(t *testing.T) {
	router := testRouter(&ctxCheckSource{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/analytics/insights/detect_anomalies",
		strings.NewReader(`{"patient_id":"p1"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
