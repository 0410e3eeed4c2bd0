package records

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
)

func testRouter() *mux.Router {
	svc := NewService(NewValidator(nil), nil, nil, nil, nil, nil, 1)
	handler := NewHTTPHandler(svc, 1<<20)

	router := mux.NewRouter()
	handler.Register(router.PathPrefix("/api/v1").Subrouter())
	return router
}

func TestCreateRejectsInvalidRequest(t *testing.T) {
	router := testRouter()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/records", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body["success"] != false {
		t.Fatalf("expected success false, got %v", body["success"])
	}
	if body["error"] != "patient_id required" {
		t.Fatalf("expected patient_id error, got %v", body["error"])
	}
}

func TestCreateRejectsMalformedBody(t *testing.T) {
	router := testRouter()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/records", strings.NewReader(`{"title":`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "invalid request body") {
		t.Fatalf("expected invalid body error, got %s", rec.Body.String())
	}
}

func TestListRequiresPatientID(t *testing.T) {
	router := testRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/records", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "patient_id is required") {
		t.Fatalf("expected patient_id error, got %s", rec.Body.String())
	}
}

func TestShareRejectsMissingPurpose(t *testing.T) {
	router := testRouter()

	payload := `{"patient_id":"p1","provider_name":"Apollo Clinic","record_ids":["r1"]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/shares", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "purpose required") {
		t.Fatalf("expected purpose error, got %s", rec.Body.String())
	}
}
