package analytics

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/reformhealth/platform/pkg/common/logger"
)

// HTTPHandler exposes the engine under /analytics. Every list response uses
// the {"success": true, <items>, "count": n} envelope; failures use
// {"success": false, "error": msg}.
type HTTPHandler struct {
	service *Service
	maxBody int64
}

func NewHTTPHandler(service *Service, maxBody int64) *HTTPHandler {
	return &HTTPHandler{service: service, maxBody: maxBody}
}

func (h *HTTPHandler) Register(router *mux.Router) {
	router.HandleFunc("/analytics/trends/analyze", h.handleAnalyzeTrends).Methods(http.MethodPost)
	router.HandleFunc("/analytics/trends", h.handleListTrends).Methods(http.MethodGet)
	router.HandleFunc("/analytics/trends/{id}/predict", h.handlePredict).Methods(http.MethodGet)
	router.HandleFunc("/analytics/risks/assess", h.handleAssessRisks).Methods(http.MethodPost)
	router.HandleFunc("/analytics/risks", h.handleListRisks).Methods(http.MethodGet)
	router.HandleFunc("/analytics/insights/generate", h.handleGenerateInsights).Methods(http.MethodPost)
	router.HandleFunc("/analytics/insights/detect_anomalies", h.handleDetectAnomalies).Methods(http.MethodPost)
	router.HandleFunc("/analytics/insights", h.handleListInsights).Methods(http.MethodGet)
	router.HandleFunc("/analytics/patients/{id}/summary", h.handleSummary).Methods(http.MethodGet)
}

type patientRequest struct {
	PatientID  string `json:"patient_id"`
	MetricName string `json:"metric_name"`
}

func (h *HTTPHandler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if h.maxBody > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		logger.Log.WithError(err).Warn("Invalid analytics payload")
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func (h *HTTPHandler) handleAnalyzeTrends(w http.ResponseWriter, r *http.Request) {
	var req patientRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.PatientID == "" {
		writeError(w, http.StatusBadRequest, "patient_id is required")
		return
	}

	trends, err := h.service.AnalyzeTrends(r.Context(), req.PatientID, req.MetricName)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to analyze trends")
		writeError(w, http.StatusInternalServerError, "failed to analyze trends")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"trends":  trends,
		"count":   len(trends),
	})
}

func (h *HTTPHandler) handleListTrends(w http.ResponseWriter, r *http.Request) {
	patientID := r.URL.Query().Get("patient_id")
	if patientID == "" {
		writeError(w, http.StatusBadRequest, "patient_id is required")
		return
	}

	trends, err := h.service.ListTrends(r.Context(), patientID)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to list trends")
		writeError(w, http.StatusInternalServerError, "failed to list trends")
		return
	}
	if trends == nil {
		trends = []Trend{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"trends":  trends,
		"count":   len(trends),
	})
}

func (h *HTTPHandler) handlePredict(w http.ResponseWriter, r *http.Request) {
	trendID := mux.Vars(r)["id"]

	daysAhead := 0
	if raw := r.URL.Query().Get("days_ahead"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid days_ahead")
			return
		}
		daysAhead = parsed
	}

	trend, predictions, err := h.service.PredictForTrend(r.Context(), trendID, daysAhead)
	if err != nil {
		if errors.Is(err, ErrTrendNotFound) {
			writeError(w, http.StatusNotFound, "trend not found")
			return
		}
		if errors.Is(err, ErrInsufficientData) {
			writeError(w, http.StatusBadRequest, "Not enough data for prediction")
			return
		}
		logger.Log.WithError(err).Error("Failed to predict trend values")
		writeError(w, http.StatusInternalServerError, "failed to predict values")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":     true,
		"predictions": predictions,
		"metric_name": trend.MetricName,
	})
}

func (h *HTTPHandler) handleAssessRisks(w http.ResponseWriter, r *http.Request) {
	var req patientRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.PatientID == "" {
		writeError(w, http.StatusBadRequest, "patient_id is required")
		return
	}

	risks, err := h.service.AssessHealthRisks(r.Context(), req.PatientID)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to assess risks")
		writeError(w, http.StatusInternalServerError, "failed to assess risks")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"risks":   risks,
		"count":   len(risks),
	})
}

func (h *HTTPHandler) handleListRisks(w http.ResponseWriter, r *http.Request) {
	patientID := r.URL.Query().Get("patient_id")
	if patientID == "" {
		writeError(w, http.StatusBadRequest, "patient_id is required")
		return
	}

	risks, err := h.service.ListRisks(r.Context(), patientID)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to list risks")
		writeError(w, http.StatusInternalServerError, "failed to list risks")
		return
	}
	if risks == nil {
		risks = []Risk{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"risks":   risks,
		"count":   len(risks),
	})
}

func (h *HTTPHandler) handleGenerateInsights(w http.ResponseWriter, r *http.Request) {
	var req patientRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.PatientID == "" {
		writeError(w, http.StatusBadRequest, "patient_id is required")
		return
	}

	insights, err := h.service.GenerateInsights(r.Context(), req.PatientID)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to generate insights")
		writeError(w, http.StatusInternalServerError, "failed to generate insights")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"insights": insights,
		"count":    len(insights),
	})
}

func (h *HTTPHandler) handleDetectAnomalies(w http.ResponseWriter, r *http.Request) {
	var req patientRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.PatientID == "" {
		writeError(w, http.StatusBadRequest, "patient_id is required")
		return
	}

	anomalies, err := h.service.DetectAnomalies(r.Context(), req.PatientID)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to detect anomalies")
		writeError(w, http.StatusInternalServerError, "failed to detect anomalies")
		return
	}
	if anomalies == nil {
		anomalies = []Anomaly{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"anomalies": anomalies,
		"count":     len(anomalies),
	})
}

func (h *HTTPHandler) handleListInsights(w http.ResponseWriter, r *http.Request) {
	patientID := r.URL.Query().Get("patient_id")
	if patientID == "" {
		writeError(w, http.StatusBadRequest, "patient_id is required")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	insightType := InsightType(r.URL.Query().Get("type"))

	insights, err := h.service.ListInsights(r.Context(), patientID, insightType, limit)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to list insights")
		writeError(w, http.StatusInternalServerError, "failed to list insights")
		return
	}
	if insights == nil {
		insights = []Insight{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"insights": insights,
		"count":    len(insights),
	})
}

func (h *HTTPHandler) handleSummary(w http.ResponseWriter, r *http.Request) {
	patientID := mux.Vars(r)["id"]

	summary, err := h.service.Summary(r.Context(), patientID)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to build patient summary")
		writeError(w, http.StatusInternalServerError, "failed to build summary")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"summary": summary,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{
		"success": false,
		"error":   msg,
	})
}
