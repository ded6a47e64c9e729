package worker

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"
)

// HealthServer serves the worker's probes:
//   - /health: liveness, always 200
//   - /health/ready: 200 once the scheduler runs, 503 before; the body carries the
//     last refresh report
type HealthServer struct {
	addr    string
	logger  *slog.Logger
	isReady atomic.Bool
	lastRun atomic.Pointer[RunReport]
	server  *http.Server
}

type healthResponse struct {
	Status      string     `json:"status"`
	LastRefresh *RunReport `json:"last_refresh,omitempty"`
}

// NewHealthServer creates a server for addr. It starts not ready.
func NewHealthServer(addr string, logger *slog.Logger) *HealthServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthServer{addr: addr, logger: logger}
}

// Handler returns the probe routes.
func (h *HealthServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", h.handleLiveness)
	mux.HandleFunc("/health/ready", h.handleReadiness)
	return mux
}

// Start serves until ctx is cancelled, then shuts down within 5 seconds.
// It returns http.ErrServerClosed after a graceful shutdown.
func (h *HealthServer) Start(ctx context.Context) error {
	h.server = &http.Server{
		Addr:         h.addr,
		Handler:      h.Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		h.logger.Info("health server starting", slog.String("addr", h.addr))
		if err := h.server.ListenAndServe(); err != nil {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		h.logger.Info("health server shutting down")
		if err := h.server.Shutdown(shutdownCtx); err != nil {
			h.logger.Error("health server shutdown failed", slog.Any("error", err))
			return err
		}
		h.logger.Info("health server stopped")
		return http.ErrServerClosed

	case err := <-errChan:
		if err == http.ErrServerClosed {
			return err
		}
		h.logger.Error("health server failed", slog.Any("error", err))
		return err
	}
}

// SetReady sets the readiness state.
func (h *HealthServer) SetReady(ready bool) {
	h.isReady.Store(ready)
	h.logger.Info("health server readiness changed", slog.Bool("ready", ready))
}

// RecordRun stores the report of the latest refresh for /health/ready.
func (h *HealthServer) RecordRun(report RunReport) {
	h.lastRun.Store(&report)
}

// LastRun returns the latest report, or nil before the first run.
func (h *HealthServer) LastRun() *RunReport {
	return h.lastRun.Load()
}

func (h *HealthServer) handleLiveness(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}

func (h *HealthServer) handleReadiness(w http.ResponseWriter, r *http.Request) {
	if !h.isReady.Load() {
		h.writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "not ready"})
		return
	}
	h.writeJSON(w, http.StatusOK, healthResponse{Status: "ok", LastRefresh: h.LastRun()})
}

func (h *HealthServer) writeJSON(w http.ResponseWriter, status int, body healthResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("failed to encode health response", slog.Any("error", err))
	}
}
