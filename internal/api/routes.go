package api

import (
	"net/http"

	"github.com/gorilla/mux"
)

// NewRouter builds the HTTP router for the simulation control API.
func NewRouter(h *Handler) *mux.Router {
	r := mux.NewRouter()
	v1 := r.PathPrefix("/api/v1").Subrouter()

	v1.HandleFunc("/run/start", h.startRun).Methods(http.MethodPost)
	v1.HandleFunc("/run/pause", h.pauseRun).Methods(http.MethodPost)
	v1.HandleFunc("/run/resume", h.resumeRun).Methods(http.MethodPost)
	v1.HandleFunc("/run/stop", h.stopRun).Methods(http.MethodPost)
	v1.HandleFunc("/status", h.getStatus).Methods(http.MethodGet)
	v1.HandleFunc("/report", h.getReport).Methods(http.MethodGet)

	return r
}
