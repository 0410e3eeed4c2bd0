package routes

import (
	"net/http"

	"github.com/gorilla/mux"
)

// RegisterRecordRoutes exposes the records service: health record CRUD,
// extraction, and the sharing/consent surface.
func RegisterRecordRoutes(router *mux.Router, p *Proxy) {
	fwd := p.passthrough(p.Cfg.RecordsBaseURL)

	router.HandleFunc("/records", fwd).Methods(http.MethodPost, http.MethodGet)
	router.HandleFunc("/records/{id}", fwd).Methods(http.MethodGet, http.MethodPatch, http.MethodDelete)
	router.HandleFunc("/records/{id}/process", fwd).Methods(http.MethodPost)
	router.HandleFunc("/shares", fwd).Methods(http.MethodPost, http.MethodGet)
	router.HandleFunc("/shares/{id}", fwd).Methods(http.MethodGet)
	router.HandleFunc("/shares/{id}/records", fwd).Methods(http.MethodGet)
	router.HandleFunc("/shares/{id}/revoke", fwd).Methods(http.MethodPost)
}
