package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"time"

	"github.com/assetiq/maintenance_backend/config"
	"github.com/assetiq/maintenance_backend/internal/database"
	"github.com/assetiq/maintenance_backend/internal/models"
)

// seeddata wipes and repopulates the database with demo telemetry and
// models, and can dump what is currently stored
func main() {
	var (
		reset = flag.Bool("reset", false, "Drop and recreate tables before seeding")
		seed  = flag.Bool("seed", true, "Insert demo telemetry and models")
		view  = flag.String("view", "", "Dump a table instead of seeding (readings, anomalies, predictions, models)")
		limit = flag.Int("limit", 10, "Number of records to show with -view")
		days  = flag.Int("days", 7, "Days of demo telemetry to generate")
	)
	flag.Parse()

	log.Println("🌱 AssetIQ Data Seeder")
	log.Println("======================")

	cfg := config.Load()

	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer db.Close()

	log.Printf("✅ Connected to database: %s@%s:%s/%s",
		cfg.Database.User, cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)

	if *view != "" {
		viewTable(db, *view, *limit)
		return
	}

	if *reset {
		log.Println("🗑️  Resetting database...")
		if err := database.DropTables(db.DB); err != nil {
			log.Fatalf("❌ Failed to drop tables: %v", err)
		}
		if err := database.CreateTables(db.DB); err != nil {
			log.Fatalf("❌ Failed to create tables: %v", err)
		}
	}

	if *seed {
		dataStore := database.NewDatabaseStore(db)
		seedModels(dataStore)
		seedTelemetry(dataStore, *days)
		log.Println("🎉 Seeding completed successfully!")
	}
}

// seedModels inserts one active model per (asset type, scoring path)
func seedModels(dataStore *database.DatabaseStore) {
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
				log.Fatalf("❌ Failed to seed model for %s/%s: %v", assetType, modelType, err)
			}
			seeded++
		}
	}
	log.Printf("🧠 Seeded %d models", seeded)
}

// seedTelemetry generates hourly demo readings with a slow upward drift and
// occasional spikes so the scoring paths have something to find
func seedTelemetry(dataStore *database.DatabaseStore, days int) {
	assetSensors := map[string][]models.SensorType{
		"PUMP-001":  {models.SensorTemperature, models.SensorVibration, models.SensorPressure},
		"PUMP-002":  {models.SensorTemperature, models.SensorVibration},
		"MOTOR-001": {models.SensorTemperature, models.SensorCurrent},
		"HVAC-001":  {models.SensorTemperature, models.SensorPressure},
	}

	baselines := map[models.SensorType]float64{
		models.SensorTemperature: 58,
		models.SensorVibration:   2.4,
		models.SensorPressure:    4.1,
		models.SensorCurrent:     11.5,
	}

	rng := rand.New(rand.NewSource(42))
	start := time.Now().Add(-time.Duration(days) * 24 * time.Hour)
	inserted := 0

	for assetID, sensors := range assetSensors {
		for _, sensor := range sensors {
			base := baselines[sensor]
			for hour := 0; hour < days*24; hour++ {
				ts := start.Add(time.Duration(hour) * time.Hour)

				// Daily cycle plus drift plus noise
				value := base +
					0.04*base*math.Sin(2*math.Pi*float64(hour%24)/24) +
					0.0005*base*float64(hour) +
					rng.NormFloat64()*0.01*base

				// Rare spikes to trip the anomaly detector
				if rng.Float64() < 0.005 {
					value *= 1.5
				}

				dataStore.AddReading(models.Reading{
					AssetID:    assetID,
					SensorType: sensor,
					Value:      value,
					Timestamp:  ts,
				})
				inserted++
			}
		}
	}

	log.Printf("📈 Inserted %d demo readings across %d assets", inserted, len(assetSensors))
}

func viewTable(db *database.DB, table string, limit int) {
	switch table {
	case "readings":
		viewReadings(db, limit)
	case "anomalies":
		viewAnomalies(db, limit)
	case "predictions":
		viewPredictions(db, limit)
	case "models":
		viewModels(db)
	default:
		log.Printf("Unknown table: %s", table)
		log.Println("Available tables: readings, anomalies, predictions, models")
	}
}

func viewReadings(db *database.DB, limit int) {
	rows, err := db.Query(`
		SELECT id, asset_id, sensor_type, value, timestamp
		FROM readings ORDER BY timestamp DESC LIMIT $1`, limit)
	if err != nil {
		log.Fatalf("❌ Query failed: %v", err)
	}
	defer rows.Close()

	fmt.Printf("\n📊 Latest %d Readings:\n", limit)
	fmt.Printf("%-6s %-12s %-15s %-10s %-20s\n", "ID", "Asset", "Sensor", "Value", "Timestamp")
	for rows.Next() {
		var id int
		var assetID, sensor, ts string
		var value float64
		if err := rows.Scan(&id, &assetID, &sensor, &value, &ts); err != nil {
			log.Printf("❌ Error scanning row: %v", err)
			continue
		}
		fmt.Printf("%-6d %-12s %-15s %-10.2f %-20s\n", id, assetID, sensor, value, ts)
	}
}

func viewAnomalies(db *database.DB, limit int) {
	rows, err := db.Query(`
		SELECT id, asset_id, sensor_type, value, z_score, severity, timestamp
		FROM anomalies ORDER BY timestamp DESC LIMIT $1`, limit)
	if err != nil {
		log.Fatalf("❌ Query failed: %v", err)
	}
	defer rows.Close()

	fmt.Printf("\n🚨 Latest %d Anomalies:\n", limit)
	fmt.Printf("%-6s %-12s %-15s %-10s %-8s %-10s %-20s\n",
		"ID", "Asset", "Sensor", "Value", "Z", "Severity", "Timestamp")
	for rows.Next() {
		var id int
		var assetID, sensor, severity, ts string
		var value, z float64
		if err := rows.Scan(&id, &assetID, &sensor, &value, &z, &severity, &ts); err != nil {
			log.Printf("❌ Error scanning row: %v", err)
			continue
		}
		fmt.Printf("%-6d %-12s %-15s %-10.2f %-8.2f %-10s %-20s\n",
			id, assetID, sensor, value, z, severity, ts)
	}
}

func viewPredictions(db *database.DB, limit int) {
	rows, err := db.Query(`
		SELECT id, asset_id, prediction_type, status, risk_level, probability, updated_at
		FROM predictions ORDER BY updated_at DESC LIMIT $1`, limit)
	if err != nil {
		log.Fatalf("❌ Query failed: %v", err)
	}
	defer rows.Close()

	fmt.Printf("\n🔮 Latest %d Predictions:\n", limit)
	fmt.Printf("%-38s %-12s %-15s %-20s %-10s %-8s\n",
		"ID", "Asset", "Type", "Status", "Risk", "Prob")
	for rows.Next() {
		var id, assetID, ptype, status, risk, ts string
		var probability float64
		if err := rows.Scan(&id, &assetID, &ptype, &status, &risk, &probability, &ts); err != nil {
			log.Printf("❌ Error scanning row: %v", err)
			continue
		}
		fmt.Printf("%-38s %-12s %-15s %-20s %-10s %-8.1f\n",
			id, assetID, ptype, status, risk, probability)
	}
}

func viewModels(db *database.DB) {
	rows, err := db.Query(`
		SELECT id, name, asset_type, model_type, status, accuracy, training_data_points
		FROM models ORDER BY asset_type, model_type`)
	if err != nil {
		log.Fatalf("❌ Query failed: %v", err)
	}
	defer rows.Close()

	fmt.Println("\n🧠 Registered Models:")
	fmt.Printf("%-4s %-32s %-10s %-15s %-10s %-9s %-8s\n",
		"ID", "Name", "AssetType", "ModelType", "Status", "Accuracy", "Points")
	for rows.Next() {
		var id, points int
		var name, assetType, modelType, status string
		var accuracy float64
		if err := rows.Scan(&id, &name, &assetType, &modelType, &status, &accuracy, &points); err != nil {
			log.Printf("❌ Error scanning row: %v", err)
			continue
		}
		fmt.Printf("%-4d %-32s %-10s %-15s %-10s %-9.1f %-8d\n",
			id, name, assetType, modelType, status, accuracy, points)
	}
}
