package database

import (
	"database/sql"
	"fmt"
	"log"
)

// CreateTables creates all necessary tables for the predictive maintenance
// backend
func CreateTables(db *sql.DB) error {
	log.Println("Creating database tables...")

	// Telemetry readings from field devices
	readingsTable := `
	CREATE TABLE IF NOT EXISTS readings (
		id SERIAL PRIMARY KEY,
		asset_id VARCHAR(100) NOT NULL,
		sensor_type VARCHAR(50) NOT NULL,
		value DOUBLE PRECISION NOT NULL,
		unit VARCHAR(20) NOT NULL DEFAULT '',
		timestamp TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);`

	if _, err := db.Exec(readingsTable); err != nil {
		return fmt.Errorf("failed to create readings table: %w", err)
	}

	// Detected anomalies
	anomaliesTable := `
	CREATE TABLE IF NOT EXISTS anomalies (
		id SERIAL PRIMARY KEY,
		tenant_id VARCHAR(100) NOT NULL,
		asset_id VARCHAR(100) NOT NULL,
		sensor_type VARCHAR(50) NOT NULL,
		value DOUBLE PRECISION NOT NULL,
		z_score DOUBLE PRECISION NOT NULL DEFAULT 0,
		severity VARCHAR(20) NOT NULL CHECK (severity IN ('low', 'medium', 'high', 'critical')),
		timestamp TIMESTAMP WITH TIME ZONE NOT NULL,
		message TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);`

	if _, err := db.Exec(anomaliesTable); err != nil {
		return fmt.Errorf("failed to create anomalies table: %w", err)
	}

	// Prediction lifecycle records
	predictionsTable := `
	CREATE TABLE IF NOT EXISTS predictions (
		id UUID PRIMARY KEY,
		tenant_id VARCHAR(100) NOT NULL,
		asset_id VARCHAR(100) NOT NULL,
		prediction_type VARCHAR(50) NOT NULL
			CHECK (prediction_type IN ('anomaly', 'failure', 'remaining_life', 'degradation')),
		prediction_text TEXT NOT NULL DEFAULT '',
		probability DOUBLE PRECISION NOT NULL CHECK (probability >= 0 AND probability <= 100),
		confidence DOUBLE PRECISION NOT NULL CHECK (confidence >= 0 AND confidence <= 100),
		predicted_date TIMESTAMP WITH TIME ZONE,
		remaining_life_days INTEGER,
		risk_level VARCHAR(20) NOT NULL CHECK (risk_level IN ('low', 'medium', 'high', 'critical')),
		status VARCHAR(30) NOT NULL
			CHECK (status IN ('new', 'acknowledged', 'work_order_created', 'dismissed', 'false_positive', 'resolved')),
		factors JSONB NOT NULL DEFAULT '[]',
		recommended_action TEXT NOT NULL DEFAULT '',
		estimated_cost DOUBLE PRECISION,
		potential_savings DOUBLE PRECISION,
		work_order_ref VARCHAR(100) NOT NULL DEFAULT '',
		created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
	);`

	if _, err := db.Exec(predictionsTable); err != nil {
		return fmt.Errorf("failed to create predictions table: %w", err)
	}

	// At most one open prediction per (tenant, asset, type)
	openPredictionIndex := `
	CREATE UNIQUE INDEX IF NOT EXISTS uniq_open_prediction
	ON predictions (tenant_id, asset_id, prediction_type)
	WHERE status IN ('new', 'acknowledged');`

	if _, err := db.Exec(openPredictionIndex); err != nil {
		return fmt.Errorf("failed to create open prediction index: %w", err)
	}

	// Model registry
	modelsTable := `
	CREATE TABLE IF NOT EXISTS models (
		id SERIAL PRIMARY KEY,
		name VARCHAR(200) NOT NULL,
		asset_type VARCHAR(100) NOT NULL,
		model_type VARCHAR(50) NOT NULL
			CHECK (model_type IN ('anomaly', 'failure', 'remaining_life', 'degradation')),
		status VARCHAR(20) NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'inactive', 'training')),
		accuracy DOUBLE PRECISION NOT NULL DEFAULT 0 CHECK (accuracy >= 0 AND accuracy <= 100),
		training_data_points INTEGER NOT NULL DEFAULT 0,
		last_trained_at TIMESTAMP WITH TIME ZONE,
		parameters JSONB NOT NULL DEFAULT '{}',
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);`

	if _, err := db.Exec(modelsTable); err != nil {
		return fmt.Errorf("failed to create models table: %w", err)
	}

	// Create indexes for better performance
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_readings_stream ON readings(asset_id, sensor_type, timestamp DESC);",
		"CREATE INDEX IF NOT EXISTS idx_anomalies_tenant ON anomalies(tenant_id, timestamp DESC);",
		"CREATE INDEX IF NOT EXISTS idx_anomalies_asset ON anomalies(asset_id, timestamp DESC);",
		"CREATE INDEX IF NOT EXISTS idx_predictions_tenant ON predictions(tenant_id, updated_at DESC);",
		"CREATE INDEX IF NOT EXISTS idx_predictions_asset ON predictions(tenant_id, asset_id);",
		"CREATE INDEX IF NOT EXISTS idx_models_lookup ON models(asset_type, model_type, status);",
	}

	for _, indexSQL := range indexes {
		if _, err := db.Exec(indexSQL); err != nil {
			log.Printf("Warning: Failed to create index: %v", err)
		}
	}

	log.Println("✅ Database tables created successfully")
	return nil
}

// DropTables drops all tables (useful for testing)
func DropTables(db *sql.DB) error {
	log.Println("Dropping database tables...")

	tables := []string{
		"readings",
		"anomalies",
		"predictions",
		"models",
	}

	for _, table := range tables {
		query := fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE;", table)
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to drop table %s: %w", table, err)
		}
	}

	log.Println("✅ Database tables dropped successfully")
	return nil
}

// CheckTablesExist checks if all required tables exist
func CheckTablesExist(db *sql.DB) error {
	requiredTables := []string{
		"readings",
		"anomalies",
		"predictions",
		"models",
	}

	for _, table := range requiredTables {
		var exists bool
		query := `SELECT EXISTS (
			SELECT FROM information_schema.tables
			WHERE table_name = $1
		);`

		err := db.QueryRow(query, table).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to check table %s: %w", table, err)
		}

		if !exists {
			return fmt.Errorf("table %s does not exist", table)
		}
	}

	log.Println("✅ All required tables exist")
	return nil
}
