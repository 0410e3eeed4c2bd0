package routes

import (
	"net/http"

	"github.com/gorilla/mux"
)

// RegisterNotificationRoutes exposes the notification inbox.
func RegisterNotificationRoutes(router *mux.Router, p *Proxy) {
	fwd := p.passthrough(p.Cfg.NotificationBaseURL)

	router.HandleFunc("/notifications", fwd).Methods(http.MethodGet)
	router.HandleFunc("/notifications/unread_count", fwd).Methods(http.MethodGet)
	router.HandleFunc("/notifications/read_all", fwd).Methods(http.MethodPost)
	router.HandleFunc("/notifications/{id}/read", fwd).Methods(http.MethodPost)
}
