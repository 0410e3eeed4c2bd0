package routes

import (
	"net/http"

	"github.com/gorilla/mux"
)

// RegisterInsuranceRoutes exposes the insurance service: policies and the
// claim review pipeline.
func RegisterInsuranceRoutes(router *mux.Router, p *Proxy) {
	fwd := p.passthrough(p.Cfg.InsuranceBaseURL)

	router.HandleFunc("/policies", fwd).Methods(http.MethodPost, http.MethodGet)
	router.HandleFunc("/policies/{id}", fwd).Methods(http.MethodGet)
	router.HandleFunc("/policies/{id}/cancel", fwd).Methods(http.MethodPost)
	router.HandleFunc("/policies/{id}/claims", fwd).Methods(http.MethodGet)
	router.HandleFunc("/claims", fwd).Methods(http.MethodPost, http.MethodGet)
	router.HandleFunc("/claims/{id}", fwd).Methods(http.MethodGet)
	router.HandleFunc("/claims/{id}/status", fwd).Methods(http.MethodPost)
}
