package records

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

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
	router.HandleFunc("/records", h.handleCreate).Methods(http.MethodPost)
	router.HandleFunc("/records", h.handleList).Methods(http.MethodGet)
	router.HandleFunc("/records/{id}", h.handleGet).Methods(http.MethodGet)
	router.HandleFunc("/records/{id}", h.handleUpdate).Methods(http.MethodPatch)
	router.HandleFunc("/records/{id}", h.handleDelete).Methods(http.MethodDelete)
	router.HandleFunc("/records/{id}/process", h.handleProcess).Methods(http.MethodPost)
	router.HandleFunc("/shares", h.handleShare).Methods(http.MethodPost)
	router.HandleFunc("/shares", h.handleListShares).Methods(http.MethodGet)
	router.HandleFunc("/shares/{id}", h.handleGetShare).Methods(http.MethodGet)
	router.HandleFunc("/shares/{id}/records", h.handleSharedRecords).Methods(http.MethodGet)
	router.HandleFunc("/shares/{id}/revoke", h.handleRevoke).Methods(http.MethodPost)
}

func (h *HTTPHandler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if h.maxBody > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		logger.Log.WithError(err).Warn("Invalid records payload")
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// writeServiceError maps service failures onto the response envelope.
// Validation problems carry their own message; anything unexpected is logged
// and masked.
func writeServiceError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case IsValidationError(err):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrRecordNotFound):
		writeError(w, http.StatusNotFound, "record not found")
	case errors.Is(err, ErrShareNotFound):
		writeError(w, http.StatusNotFound, "share not found")
	default:
		logger.Log.WithError(err).Error(fallback)
		writeError(w, http.StatusInternalServerError, fallback)
	}
}

func (h *HTTPHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateRecordRequest
	if !h.decode(w, r, &req) {
		return
	}

	rec, err := h.service.Create(r.Context(), req)
	if err != nil {
		writeServiceError(w, err, "failed to create record")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"record":  rec,
	})
}

func (h *HTTPHandler) handleList(w http.ResponseWriter, r *http.Request) {
	patientID := r.URL.Query().Get("patient_id")
	if patientID == "" {
		writeError(w, http.StatusBadRequest, "patient_id is required")
		return
	}

	category := Category(r.URL.Query().Get("category"))
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	recs, err := h.service.List(r.Context(), patientID, category, limit)
	if err != nil {
		writeServiceError(w, err, "failed to list records")
		return
	}
	if recs == nil {
		recs = []HealthRecord{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"records": recs,
		"count":   len(recs),
	})
}

func (h *HTTPHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	rec, err := h.service.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err, "failed to fetch record")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"record":  rec,
	})
}

func (h *HTTPHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var req UpdateRecordRequest
	if !h.decode(w, r, &req) {
		return
	}

	rec, err := h.service.Update(r.Context(), mux.Vars(r)["id"], req)
	if err != nil {
		writeServiceError(w, err, "failed to update record")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"record":  rec,
	})
}

func (h *HTTPHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeServiceError(w, err, "failed to delete record")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "record deleted",
	})
}

func (h *HTTPHandler) handleProcess(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.service.Process(r.Context(), id); err != nil {
		writeServiceError(w, err, "failed to process record")
		return
	}

	rec, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "failed to fetch record")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"record":  rec,
	})
}

func (h *HTTPHandler) handleShare(w http.ResponseWriter, r *http.Request) {
	var req ShareRequest
	if !h.decode(w, r, &req) {
		return
	}

	share, err := h.service.Share(r.Context(), req)
	if err != nil {
		writeServiceError(w, err, "failed to create share")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"share":   share,
	})
}

func (h *HTTPHandler) handleListShares(w http.ResponseWriter, r *http.Request) {
	patientID := r.URL.Query().Get("patient_id")
	if patientID == "" {
		writeError(w, http.StatusBadRequest, "patient_id is required")
		return
	}
	status := ShareStatus(r.URL.Query().Get("status"))

	shares, err := h.service.ListShares(r.Context(), patientID, status)
	if err != nil {
		writeServiceError(w, err, "failed to list shares")
		return
	}
	if shares == nil {
		shares = []RecordShare{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"shares":  shares,
		"count":   len(shares),
	})
}

func (h *HTTPHandler) handleGetShare(w http.ResponseWriter, r *http.Request) {
	share, err := h.service.GetShare(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err, "failed to fetch share")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"share":   share,
	})
}

func (h *HTTPHandler) handleSharedRecords(w http.ResponseWriter, r *http.Request) {
	recs, err := h.service.SharedRecords(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err, "failed to resolve shared records")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"records": recs,
		"count":   len(recs),
	})
}

func (h *HTTPHandler) handleRevoke(w http.ResponseWriter, r *http.Request) {
	share, err := h.service.Revoke(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err, "failed to revoke share")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"share":   share,
		"message": "share revoked successfully",
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
