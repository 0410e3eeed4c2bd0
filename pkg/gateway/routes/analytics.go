package routes

import (
	"net/http"

	"github.com/gorilla/mux"
)

// RegisterAnalyticsRoutes exposes the analytics engine: trends, risks,
// insights, anomaly detection, forecasting, and the patient summary.
func RegisterAnalyticsRoutes(router *mux.Router, p *Proxy) {
	fwd := p.passthrough(p.Cfg.AnalyticsBaseURL)

	router.HandleFunc("/analytics/trends/analyze", fwd).Methods(http.MethodPost)
	router.HandleFunc("/analytics/trends", fwd).Methods(http.MethodGet)
	router.HandleFunc("/analytics/trends/{id}/predict", fwd).Methods(http.MethodGet)
	router.HandleFunc("/analytics/risks/assess", fwd).Methods(http.MethodPost)
	router.HandleFunc("/analytics/risks", fwd).Methods(http.MethodGet)
	router.HandleFunc("/analytics/insights/generate", fwd).Methods(http.MethodPost)
	router.HandleFunc("/analytics/insights/detect_anomalies", fwd).Methods(http.MethodPost)
	router.HandleFunc("/analytics/insights", fwd).Methods(http.MethodGet)
	router.HandleFunc("/analytics/patients/{id}/summary", fwd).Methods(http.MethodGet)
}
