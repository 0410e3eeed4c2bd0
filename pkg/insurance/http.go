package insurance

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/reformhealth/platform/pkg/common/logger"
)

type HTTPHandler struct {
	service *Service
	maxBody int64
}

func NewHTTPHandler(service *Service, maxBody int64) *HTTPHandler {
	return &HTTPHandler{service: service, maxBody: maxBody}
}

func (h *HTTPHandler) Register(router *mux.Router) {
	router.HandleFunc("/policies", h.handleCreatePolicy).Methods(http.MethodPost)
	router.HandleFunc("/policies", h.handleListPolicies).Methods(http.MethodGet)
	router.HandleFunc("/policies/{id}", h.handleGetPolicy).Methods(http.MethodGet)
	router.HandleFunc("/policies/{id}/cancel", h.handleCancelPolicy).Methods(http.MethodPost)
	router.HandleFunc("/policies/{id}/claims", h.handlePolicyClaims).Methods(http.MethodGet)
	router.HandleFunc("/claims", h.handleSubmitClaim).Methods(http.MethodPost)
	router.HandleFunc("/claims", h.handleListClaims).Methods(http.MethodGet)
	router.HandleFunc("/claims/{id}", h.handleGetClaim).Methods(http.MethodGet)
	router.HandleFunc("/claims/{id}/status", h.handleDecideClaim).Methods(http.MethodPost)
}

func (h *HTTPHandler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if h.maxBody > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		logger.Log.WithError(err).Warn("Invalid insurance payload")
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func writeServiceError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case IsValidationError(err):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrPolicyNotFound):
		writeError(w, http.StatusNotFound, "policy not found")
	case errors.Is(err, ErrClaimNotFound):
		writeError(w, http.StatusNotFound, "claim not found")
	default:
		logger.Log.WithError(err).Error(fallback)
		writeError(w, http.StatusInternalServerError, fallback)
	}
}

func (h *HTTPHandler) handleCreatePolicy(w http.ResponseWriter, r *http.Request) {
	var req CreatePolicyRequest
	if !h.decode(w, r, &req) {
		return
	}

	policy, err := h.service.CreatePolicy(r.Context(), req)
	if err != nil {
		writeServiceError(w, err, "failed to create policy")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"policy":  policy,
	})
}

func (h *HTTPHandler) handleListPolicies(w http.ResponseWriter, r *http.Request) {
	patientID := r.URL.Query().Get("patient_id")
	if patientID == "" {
		writeError(w, http.StatusBadRequest, "patient_id is required")
		return
	}
	status := PolicyStatus(r.URL.Query().Get("status"))

	policies, err := h.service.ListPolicies(r.Context(), patientID, status)
	if err != nil {
		writeServiceError(w, err, "failed to list policies")
		return
	}
	if policies == nil {
		policies = []Policy{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"policies": policies,
		"count":    len(policies),
	})
}

func (h *HTTPHandler) handleGetPolicy(w http.ResponseWriter, r *http.Request) {
	policy, err := h.service.GetPolicy(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err, "failed to fetch policy")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":          true,
		"policy":           policy,
		"remaining_amount": policy.RemainingAmount(),
		"usage_percentage": policy.UsagePercentage(),
	})
}

func (h *HTTPHandler) handleCancelPolicy(w http.ResponseWriter, r *http.Request) {
	policy, err := h.service.CancelPolicy(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err, "failed to cancel policy")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"policy":  policy,
		"message": "policy cancelled",
	})
}

func (h *HTTPHandler) handlePolicyClaims(w http.ResponseWriter, r *http.Request) {
	claims, err := h.service.ListClaimsByPolicy(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err, "failed to list claims")
		return
	}
	if claims == nil {
		claims = []Claim{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"claims":  claims,
		"count":   len(claims),
	})
}

func (h *HTTPHandler) handleSubmitClaim(w http.ResponseWriter, r *http.Request) {
	var req SubmitClaimRequest
	if !h.decode(w, r, &req) {
		return
	}

	claim, err := h.service.SubmitClaim(r.Context(), req)
	if err != nil {
		writeServiceError(w, err, "failed to submit claim")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"claim":   claim,
	})
}

func (h *HTTPHandler) handleListClaims(w http.ResponseWriter, r *http.Request) {
	patientID := r.URL.Query().Get("patient_id")
	if patientID == "" {
		writeError(w, http.StatusBadRequest, "patient_id is required")
		return
	}
	status := ClaimStatus(r.URL.Query().Get("status"))

	claims, err := h.service.ListClaims(r.Context(), patientID, status)
	if err != nil {
		writeServiceError(w, err, "failed to list claims")
		return
	}
	if claims == nil {
		claims = []Claim{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"claims":  claims,
		"count":   len(claims),
	})
}

func (h *HTTPHandler) handleGetClaim(w http.ResponseWriter, r *http.Request) {
	claim, err := h.service.GetClaim(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err, "failed to fetch claim")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"claim":   claim,
	})
}

func (h *HTTPHandler) handleDecideClaim(w http.ResponseWriter, r *http.Request) {
	var req ClaimDecisionRequest
	if !h.decode(w, r, &req) {
		return
	}

	claim, err := h.service.DecideClaim(r.Context(), mux.Vars(r)["id"], req)
	if err != nil {
		writeServiceError(w, err, "failed to update claim")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"claim":   claim,
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
