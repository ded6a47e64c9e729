package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"apod-feed/internal/app"
	workerPkg "apod-feed/internal/infra/worker"
	"apod-feed/internal/observability/tracing"
	"apod-feed/internal/resilience/circuitbreaker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HealthResponse represents a simple health check response.
type HealthResponse struct {
	Status string `json:"status"`
}

// BreakerHealthResponse reports the circuit breakers guarding the archive.
type BreakerHealthResponse struct {
	Healthy     bool                      `json:"healthy"`
	Breakers    []circuitbreaker.Snapshot `json:"breakers"`
	Cache       CacheStatus               `json:"cache"`
	LastRefresh *workerPkg.RunReport      `json:"last_refresh,omitempty"`
}

// CacheStatus summarizes the thumbnail and image caches.
type CacheStatus struct {
	Root            string `json:"root"`
	ThumbnailHits   int64  `json:"thumbnail_hits"`
	ThumbnailMisses int64  `json:"thumbnail_misses"`
	ImageHits       int64  `json:"image_hits"`
	ImageMisses     int64  `json:"image_misses"`
	BytesWritten    int64  `json:"bytes_written"`
}

// startMetricsServer serves, until ctx is cancelled:
//   - GET /metrics - Prometheus metrics
//   - GET /health - liveness, always 200
//   - GET /health/breakers - circuit breaker state, cache counters and the last
//     refresh; 503 while any breaker is open
func startMetricsServer(ctx context.Context, logger *slog.Logger, port int, application *app.App, health *workerPkg.HealthServer) *http.Server {
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      newMetricsMux(application, health),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("metrics server starting", slog.Int("port", port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server error", slog.Any("error", err))
		}
	}()

	go func() {
		<-ctx.Done()
		logger.Info("metrics server shutdown initiated")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("metrics server shutdown error", slog.Any("error", err))
		} else {
			logger.Info("metrics server stopped")
		}
	}()

	return server
}

func newMetricsMux(application *app.App, health *workerPkg.HealthServer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", healthHandler)
	mux.HandleFunc("/health/breakers", breakerHealthHandler(application, health))
	return tracing.Middleware(mux)
}

// healthHandler handles GET /health requests (liveness probe).
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(HealthResponse{Status: "healthy"})
}

// breakerHealthHandler reports 503 while any archive breaker is open.
func breakerHealthHandler(application *app.App, health *workerPkg.HealthServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		breakers := application.Breakers()
		snapshots := make([]circuitbreaker.Snapshot, 0, len(breakers))
		healthy := true
		for _, b := range breakers {
			snapshots = append(snapshots, b.Snapshot())
			if b.IsOpen() {
				healthy = false
			}
		}

		thumbs := application.Thumbnails.Stats()
		images := application.Images.Stats()

		statusCode := http.StatusOK
		if !healthy {
			statusCode = http.StatusServiceUnavailable
		}

		var lastRefresh *workerPkg.RunReport
		if health != nil {
			lastRefresh = health.LastRun()
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		_ = json.NewEncoder(w).Encode(BreakerHealthResponse{
			LastRefresh: lastRefresh,
			Healthy:     healthy,
			Breakers:    snapshots,
			Cache: CacheStatus{
				Root:            application.Thumbnails.Root(),
				ThumbnailHits:   thumbs.Hits,
				ThumbnailMisses: thumbs.Misses,
				ImageHits:       images.Hits,
				ImageMisses:     images.Misses,
				BytesWritten:    thumbs.BytesWritten + images.BytesWritten,
			},
		})
	}
}
