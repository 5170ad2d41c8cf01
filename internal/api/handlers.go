package api

import (
	"context"
	"encoding/json"
	"net/http"

	"stocksim/internal/ports"
	"stocksim/internal/sim"
)

// Handler serves the simulation control endpoints. Run configuration is
// fixed at construction time; the endpoints only drive the lifecycle.
type Handler struct {
	runner  *sim.Runner
	cfg     sim.Config
	prices  ports.PriceStore
	decider ports.DecisionSource
	logger  ports.Logger
}

// NewHandler creates a Handler around a runner and its run inputs.
func NewHandler(runner *sim.Runner, cfg sim.Config, prices ports.PriceStore, decider ports.DecisionSource, log ports.Logger) *Handler {
	return &Handler{runner: runner, cfg: cfg, prices: prices, decider: decider, logger: log}
}

type messageResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) startRun(w http.ResponseWriter, r *http.Request) {
	// Run outlives the HTTP request, so it gets its own context.
	if err := h.runner.Start(context.Background(), h.cfg, h.prices, h.decider); err != nil {
		h.respondJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
		return
	}
	h.logger.Info(r.Context(), "simulation started",
		map[string]interface{}{"start_date": h.cfg.StartDate, "end_date": h.cfg.EndDate})
	h.respondJSON(w, http.StatusAccepted, messageResponse{Message: "simulation started"})
}

func (h *Handler) pauseRun(w http.ResponseWriter, r *http.Request) {
	if err := h.runner.Pause(); err != nil {
		h.respondJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
		return
	}
	h.respondJSON(w, http.StatusOK, messageResponse{Message: "pause requested"})
}

func (h *Handler) resumeRun(w http.ResponseWriter, r *http.Request) {
	if err := h.runner.Resume(); err != nil {
		h.respondJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
		return
	}
	h.respondJSON(w, http.StatusOK, messageResponse{Message: "resumed"})
}

func (h *Handler) stopRun(w http.ResponseWriter, r *http.Request) {
	if err := h.runner.Stop(); err != nil {
		h.respondJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
		return
	}
	h.respondJSON(w, http.StatusOK, messageResponse{Message: "stop requested"})
}

func (h *Handler) getStatus(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, h.runner.Status())
}

func (h *Handler) getReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.runner.Report()
	if err != nil {
		h.respondJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	if report == nil {
		h.respondJSON(w, http.StatusNotFound, errorResponse{Error: "no completed run"})
		return
	}
	h.respondJSON(w, http.StatusOK, report)
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error(context.Background(), err, "failed to encode response")
	}
}
