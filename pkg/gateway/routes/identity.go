package routes

import (
	"net/http"

	"github.com/gorilla/mux"
)

// RegisterIdentityRoutes exposes the identity service: the mock Aadhaar OTP
// exchange and the patient registry.
func RegisterIdentityRoutes(router *mux.Router, p *Proxy) {
	fwd := p.passthrough(p.Cfg.IdentityBaseURL)

	router.HandleFunc("/auth/otp/request", fwd).Methods(http.MethodPost)
	router.HandleFunc("/auth/otp/verify", fwd).Methods(http.MethodPost)
	router.HandleFunc("/patients/{id}", fwd).Methods(http.MethodGet, http.MethodPatch)
}
