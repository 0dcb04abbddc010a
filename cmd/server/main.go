package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/assetiq/maintenance_backend/config"
	"github.com/assetiq/maintenance_backend/internal/assets"
	"github.com/assetiq/maintenance_backend/internal/cache"
	"github.com/assetiq/maintenance_backend/internal/database"
	"github.com/assetiq/maintenance_backend/internal/engine"
	httphandlers "github.com/assetiq/maintenance_backend/internal/http"
	"github.com/assetiq/maintenance_backend/internal/lifecycle"
	"github.com/assetiq/maintenance_backend/internal/metrics"
	"github.com/assetiq/maintenance_backend/internal/models"
	"github.com/assetiq/maintenance_backend/internal/mqtt"
	"github.com/assetiq/maintenance_backend/internal/registry"
	"github.com/assetiq/maintenance_backend/internal/services"
	"github.com/assetiq/maintenance_backend/internal/store"
	"github.com/assetiq/maintenance_backend/internal/workorder"
	"github.com/assetiq/maintenance_backend/internal/ws"
)

func main() {
	log.Println("🔧 Starting AssetIQ Predictive Maintenance Backend...")

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("⚠️  Warning: No .env file found: %v", err)
	} else {
		log.Println("✅ Loaded .env file")
	}

	// Load configuration
	cfg := config.Load()
	log.Printf("📋 Loaded configuration: Server port=%s, DB host=%s",
		cfg.Server.Port, cfg.Database.Host)

	// Initialize data store with PostgreSQL or fallback to in-memory
	var dataStore store.DataStore

	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Printf("⚠️  Warning: Failed to connect to database: %v", err)
		log.Println("📱 Falling back to in-memory storage")
		dataStore = store.NewStore(cfg.Engine.MaxPerStream)
		log.Println("💾 Initialized in-memory data store")
	} else {
		log.Println("✅ Connected to PostgreSQL database")

		if err := database.CreateTables(db.DB); err != nil {
			log.Fatalf("❌ Failed to run migrations: %v", err)
		}

		dataStore = database.NewDatabaseStore(db)
		defer db.Close()
		log.Println("💾 Initialized PostgreSQL data store")
	}

	// Initialize Redis read cache (optional)
	var readCache *cache.Cache
	if cfg.Redis.Enabled {
		readCache, err = cache.NewCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.TTL)
		if err != nil {
			log.Printf("⚠️  Warning: Failed to connect to Redis: %v", err)
			log.Println("📱 Continuing without read cache")
			readCache = nil
		} else {
			defer readCache.Close()
			log.Printf("⚡ Connected to Redis at %s", cfg.Redis.Addr)
		}
	}

	// Initialize WebSocket hub
	wsHub := ws.NewHub()
	go wsHub.Run()
	log.Println("🔌 Started WebSocket hub")

	// Core services
	assetRegistry := assets.NewMemoryRegistry()
	modelRegistry := registry.NewRegistry(dataStore)
	workOrders := workorder.NewMemoryService()
	lifecycleManager := lifecycle.NewManager(dataStore, workOrders)
	eng := engine.NewService(dataStore, modelRegistry, lifecycleManager, assetRegistry, readCache, wsHub)

	seedDefaults(dataStore, assetRegistry)

	// Initialize MQTT telemetry ingestion (skip if disabled)
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled && cfg.MQTT.BrokerURL != "" {
		log.Println("📡 Attempting to connect to MQTT broker...")
		mqttClient = mqtt.NewClient(&mqtt.Config{
			BrokerURL:    cfg.MQTT.BrokerURL,
			ClientID:     cfg.MQTT.ClientID,
			Username:     cfg.MQTT.Username,
			Password:     cfg.MQTT.Password,
			KeepAlive:    cfg.MQTT.KeepAlive,
			PingTimeout:  cfg.MQTT.PingTimeout,
			ConnectRetry: cfg.MQTT.ConnectRetry,
		})

		mqttClient.SetDataHandler(func(reading *models.Reading) {
			dataStore.AddReading(*reading)
			metrics.ReadingsIngested.WithLabelValues(string(reading.SensorType), "mqtt").Inc()
			wsHub.BroadcastReading(reading)
			eng.ProcessNewReading(models.SystemActor(models.DefaultTenant), reading)
		})
		mqttClient.SetErrorHandler(func(err error) {
			log.Printf("⚠️  MQTT: %v", err)
		})

		if err := mqttClient.Connect(); err != nil {
			log.Printf("⚠️  Warning: Failed to connect to MQTT broker: %v", err)
			log.Println("📡 Continuing without MQTT support")
			mqttClient = nil
		} else {
			if err := mqttClient.SubscribeToTelemetry(); err != nil {
				log.Printf("⚠️  Warning: Failed to subscribe to telemetry topics: %v", err)
			}
			defer mqttClient.Disconnect()
			log.Printf("📡 MQTT client connected - Broker: %s", cfg.MQTT.BrokerURL)
		}
	} else {
		log.Println("📡 MQTT disabled, skipping MQTT initialization")
	}

	// Initialize and start the background scheduler
	scheduler := services.NewScheduler(dataStore, eng, modelRegistry,
		cfg.Engine.ScoringInterval, cfg.Engine.RetrainInterval)
	scheduler.Start()
	defer scheduler.Stop()
	log.Println("🕐 Started scoring scheduler")

	// Setup HTTP routes
	router := httphandlers.SetupRoutes(dataStore, eng, lifecycleManager, modelRegistry, assetRegistry, wsHub)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start HTTP server in a goroutine
	go func() {
		log.Printf("🚀 Starting HTTP server on port %s", cfg.Server.Port)
		log.Println("📡 API endpoints available:")
		log.Println("  GET  /api/v1/stats - System statistics")
		log.Println("  POST /api/v1/telemetry/readings - Ingest a telemetry reading")
		log.Println("  GET  /api/v1/telemetry/readings/latest - Latest reading for a stream")
		log.Println("  GET  /api/v1/telemetry/readings/recent - Recent readings for a stream")
		log.Println("  GET  /api/v1/assets - Registered assets")
		log.Println("  POST /api/v1/assets/{id}/score - Trigger a scoring run")
		log.Println("  GET  /api/v1/anomalies - Recent anomalies")
		log.Println("  GET  /api/v1/predictive/dashboard - Dashboard summary")
		log.Println("  GET  /api/v1/predictive/predictions - List predictions")
		log.Println("  POST /api/v1/predictive/predictions/{id}/acknowledge - Acknowledge")
		log.Println("  POST /api/v1/predictive/predictions/{id}/dismiss - Dismiss")
		log.Println("  POST /api/v1/predictive/predictions/{id}/work-order - Create work order")
		log.Println("  POST /api/v1/predictive/predictions/{id}/resolve - Resolve")
		log.Println("  GET  /api/v1/models - Registered models")
		log.Println("  GET  /api/v1/export/report.xlsx - Export maintenance report")
		log.Println("  GET  /api/v1/export/predictions.csv - Export predictions as CSV")
		log.Println("  GET  /metrics - Prometheus metrics")
		log.Println("  WS   /ws - WebSocket for real-time updates")
		log.Printf("🌐 Server running at http://localhost:%s", cfg.Server.Port)

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ HTTP server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("❌ Server forced to shutdown: %v", err)
	}

	log.Println("✅ Server shutdown complete")
}

// seedDefaults registers the default asset fleet and makes sure every asset
// type has an active model per scoring path. Existing models are left alone.
func seedDefaults(dataStore store.DataStore, assetRegistry *assets.MemoryRegistry) {
	now := time.Now()
	tenant := models.DefaultTenant
	fleet := []models.AssetInfo{
		{ID: "PUMP-001", TenantID: tenant, Name: "Primary Coolant Pump", Tag: "P-001", Type: "pump", CommissionedAt: now.AddDate(-2, 0, 0)},
		{ID: "PUMP-002", TenantID: tenant, Name: "Backup Coolant Pump", Tag: "P-002", Type: "pump", CommissionedAt: now.AddDate(-1, -6, 0)},
		{ID: "MOTOR-001", TenantID: tenant, Name: "Conveyor Drive Motor", Tag: "M-001", Type: "motor", CommissionedAt: now.AddDate(-3, 0, 0)},
		{ID: "HVAC-001", TenantID: tenant, Name: "Plant Floor Air Handler", Tag: "H-001", Type: "hvac", CommissionedAt: now.AddDate(0, -8, 0)},
	}
	for _, info := range fleet {
		assetRegistry.Register(info)
	}
	log.Printf("🏭 Registered %d assets", len(fleet))

	assetTypes := []string{"pump", "motor", "hvac"}
	modelTypes := []models.PredictionType{
		models.PredictionAnomaly,
		models.PredictionDegradation,
		models.PredictionRemainingLife,
	}

	seeded := 0
	for _, assetType := range assetTypes {
		for _, modelType := range modelTypes {
			if _, err := dataStore.GetActiveModel(assetType, modelType); err == nil {
				continue
			}
			model := &models.Model{
				Name:       assetType + " " + string(modelType) + " model",
				AssetType:  assetType,
				ModelType:  modelType,
				Status:     models.ModelActive,
				Accuracy:   70,
				Parameters: models.DefaultParameters(),
			}
			if err := dataStore.SaveModel(model); err != nil {
				log.Printf("⚠️  Failed to seed model for %s/%s: %v", assetType, modelType, err)
				continue
			}
			seeded++
		}
	}
	if seeded > 0 {
		log.Printf("🧠 Seeded %d default models", seeded)
	}
}
