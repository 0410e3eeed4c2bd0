package notification

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
}

func NewHTTPHandler(service *Service) *HTTPHandler {
	return &HTTPHandler{service: service}
}

func (h *HTTPHandler) Register(router *mux.Router) {
	router.HandleFunc("/notifications", h.handleList).Methods(http.MethodGet)
	router.HandleFunc("/notifications/unread_count", h.handleUnreadCount).Methods(http.MethodGet)
	router.HandleFunc("/notifications/read_all", h.handleMarkAllRead).Methods(http.MethodPost)
	router.HandleFunc("/notifications/{id}/read", h.handleMarkRead).Methods(http.MethodPost)
}

func writeServiceError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, ErrNotificationNotFound):
		writeError(w, http.StatusNotFound, "notification not found")
	default:
		logger.Log.WithError(err).Error(fallback)
		writeError(w, http.StatusInternalServerError, fallback)
	}
}

func (h *HTTPHandler) handleList(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	unreadOnly := r.URL.Query().Get("unread") == "true"
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	notifications, err := h.service.List(r.Context(), userID, unreadOnly, limit)
	if err != nil {
		writeServiceError(w, err, "failed to list notifications")
		return
	}
	if notifications == nil {
		notifications = []Notification{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":       true,
		"notifications": notifications,
		"count":         len(notifications),
	})
}

func (h *HTTPHandler) handleUnreadCount(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	count, err := h.service.UnreadCount(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err, "failed to count notifications")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":      true,
		"unread_count": count,
	})
}

func (h *HTTPHandler) handleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	n, err := h.service.MarkAllRead(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err, "failed to mark notifications read")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"updated": n,
	})
}

func (h *HTTPHandler) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	n, err := h.service.MarkRead(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err, "failed to mark notification read")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":      true,
		"notification": n,
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
