package identity

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
	router.HandleFunc("/auth/otp/request", h.handleRequestOTP).Methods(http.MethodPost)
	router.HandleFunc("/auth/otp/verify", h.handleVerifyOTP).Methods(http.MethodPost)
	router.HandleFunc("/patients/{id}", h.handleGetPatient).Methods(http.MethodGet)
	router.HandleFunc("/patients/{id}", h.handleUpdateProfile).Methods(http.MethodPatch)
}

type otpRequest struct {
	AadhaarNumber string `json:"aadhaar_number"`
	Mobile        string `json:"mobile"`
}

type otpVerifyRequest struct {
	SessionID string `json:"session_id"`
	OTP       string `json:"otp"`
	Email     string `json:"email"`
}

func (h *HTTPHandler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if h.maxBody > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		logger.Log.WithError(err).Warn("Invalid identity payload")
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func writeServiceError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, ErrInvalidAadhaar),
		errors.Is(err, ErrInvalidMobile),
		errors.Is(err, ErrInvalidOTP),
		errors.Is(err, ErrSessionExpired):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrPatientNotFound):
		writeError(w, http.StatusNotFound, "patient not found")
	default:
		logger.Log.WithError(err).Error(fallback)
		writeError(w, http.StatusInternalServerError, fallback)
	}
}

func (h *HTTPHandler) handleRequestOTP(w http.ResponseWriter, r *http.Request) {
	var req otpRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.AadhaarNumber == "" || req.Mobile == "" {
		writeError(w, http.StatusBadRequest, "aadhaar_number and mobile are required")
		return
	}

	challenge, err := h.service.RequestOTP(r.Context(), req.AadhaarNumber, req.Mobile)
	if err != nil {
		writeServiceError(w, err, "failed to send OTP")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"session_id": challenge.SessionID,
		"expires_in": challenge.ExpiresIn,
		"message":    challenge.Message,
	})
}

func (h *HTTPHandler) handleVerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req otpVerifyRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.SessionID == "" || req.OTP == "" {
		writeError(w, http.StatusBadRequest, "session_id and otp are required")
		return
	}

	verified, err := h.service.VerifyOTP(r.Context(), req.SessionID, req.OTP, req.Email)
	if err != nil {
		writeServiceError(w, err, "failed to verify OTP")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"patient": verified.Patient,
		"token":   verified.Token,
	})
}

func (h *HTTPHandler) handleGetPatient(w http.ResponseWriter, r *http.Request) {
	patient, err := h.service.GetPatient(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err, "failed to fetch patient")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"patient": patient,
	})
}

func (h *HTTPHandler) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req UpdateProfileRequest
	if !h.decode(w, r, &req) {
		return
	}

	patient, err := h.service.UpdateProfile(r.Context(), mux.Vars(r)["id"], req)
	if err != nil {
		writeServiceError(w, err, "failed to update profile")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"patient": patient,
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
