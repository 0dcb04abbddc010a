package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/assetiq/maintenance_backend/internal/assets"
	"github.com/assetiq/maintenance_backend/internal/engine"
	"github.com/assetiq/maintenance_backend/internal/lifecycle"
	"github.com/assetiq/maintenance_backend/internal/registry"
	"github.com/assetiq/maintenance_backend/internal/store"
	"github.com/assetiq/maintenance_backend/internal/ws"
)

// SetupRoutes configures all HTTP routes for the predictive maintenance API
func SetupRoutes(
	dataStore store.DataStore,
	eng *engine.Service,
	lcm *lifecycle.Manager,
	reg *registry.Registry,
	assetRegistry assets.Registry,
	wsHub *ws.Hub,
) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(ActorContext)

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"}, // In production, specify allowed origins
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Tenant-ID", "X-Actor-ID"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	handlers := NewHandlers(dataStore, eng, lcm, reg, assetRegistry)

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		// System stats
		r.Get("/stats", handlers.GetSystemStats)

		// Telemetry routes
		r.Route("/telemetry", func(r chi.Router) {
			r.Post("/readings", handlers.AddTelemetryReading)
			r.Get("/readings/latest", handlers.GetLatestReading)
			r.Get("/readings/recent", handlers.GetRecentReadings)
		})

		// Asset routes
		r.Route("/assets", func(r chi.Router) {
			r.Get("/", handlers.GetAssets)
			r.Get("/{assetID}", handlers.GetAsset)
			r.Get("/{assetID}/anomalies", handlers.GetAnomaliesByAsset)
			r.Get("/{assetID}/predictions", handlers.GetOpenPredictionsByAsset)
			r.Post("/{assetID}/score", handlers.ScoreAsset)
		})

		// Anomaly routes
		r.Get("/anomalies", handlers.GetAnomalies)

		// Predictive maintenance routes
		r.Route("/predictive", func(r chi.Router) {
			r.Get("/dashboard", handlers.GetDashboard)

			r.Route("/predictions", func(r chi.Router) {
				r.Get("/", handlers.GetPredictions)
				r.Get("/{predictionID}", handlers.GetPrediction)
				r.Post("/{predictionID}/acknowledge", handlers.AcknowledgePrediction)
				r.Post("/{predictionID}/dismiss", handlers.DismissPrediction)
				r.Post("/{predictionID}/work-order", handlers.CreateWorkOrder)
				r.Post("/{predictionID}/resolve", handlers.ResolvePrediction)
			})
		})

		// Model registry routes
		r.Route("/models", func(r chi.Router) {
			r.Get("/", handlers.GetModels)
			r.Post("/{modelID}/training-run", handlers.RecordTrainingRun)
		})

		// Export routes for maintenance reports
		r.Route("/export", func(r chi.Router) {
			r.Get("/report.xlsx", handlers.ExportHistoryExcel)
			r.Get("/predictions.csv", handlers.ExportHistoryCSV)
		})
	})

	// Prometheus metrics
	r.Handle("/metrics", promhttp.Handler())

	// Health check
	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		status := "ok"
		code := http.StatusOK
		if err := dataStore.Ping(); err != nil {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status": status,
			"time":   time.Now(),
		})
	})

	// WebSocket route for real-time updates
	r.HandleFunc("/ws", wsHub.HandleWebSocket)

	return r
}
