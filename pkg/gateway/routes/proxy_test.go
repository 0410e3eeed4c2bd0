package routes

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"github.com/reformhealth/platform/pkg/common/config"
	"github.com/reformhealth/platform/pkg/gateway/httpclient"
)

func testProxy(t *testing.T, backendURL string) *Proxy {
	t.Helper()
	cfg := config.Load()
	cfg.RecordsBaseURL = backendURL
	cfg.GatewayRequestTimeout = 2 * time.Second
	return NewProxy(httpclient.New(2*time.Second), cfg)
}

func TestPassthroughForwardsRequest(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"path":       r.URL.Path,
			"query":      r.URL.RawQuery,
			"body":       string(body),
			"request_id": r.Header.Get("X-Request-ID"),
		})
	}))
	defer backend.Close()

	router := mux.NewRouter()
	RegisterRecordRoutes(router.PathPrefix("/api/v1").Subrouter(), testProxy(t, backend.URL))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/records?patient_id=p-1", strings.NewReader(`{"title":"CBC"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected upstream 201 to pass through, got %d", rec.Code)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body["path"] != "/api/v1/records" {
		t.Fatalf("expected path to be preserved, got %v", body["path"])
	}
	if body["query"] != "patient_id=p-1" {
		t.Fatalf("expected query to be preserved, got %v", body["query"])
	}
	if body["body"] != `{"title":"CBC"}` {
		t.Fatalf("expected body to be preserved, got %v", body["body"])
	}
	if body["request_id"] == "" {
		t.Fatal("expected a correlation ID to be injected")
	}
}

func TestPassthroughAnswersBadGatewayWhenUpstreamIsDown(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	backend.Close()

	router := mux.NewRouter()
	RegisterRecordRoutes(router.PathPrefix("/api/v1").Subrouter(), testProxy(t, backend.URL))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/records?patient_id=p-1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502 for unreachable upstream, got %d", rec.Code)
	}
}
