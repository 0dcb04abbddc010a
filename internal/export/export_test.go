package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/assetiq/maintenance_backend/internal/models"
)

func sampleExportData() ExportData {
	now := time.Now()
	predictedDate := now.Add(72 * time.Hour)
	remainingDays := 14

	return ExportData{
		Predictions: []models.Prediction{
			{
				ID:                "pred-1",
				TenantID:          "default",
				AssetID:           "PUMP-001",
				PredictionType:    models.PredictionFailure,
				PredictionText:    "Bearing wear detected",
				Probability:       78,
				Confidence:        82,
				PredictedDate:     &predictedDate,
				RemainingLifeDays: &remainingDays,
				RiskLevel:         models.RiskCritical,
				Status:            models.StatusAcknowledged,
				WorkOrderRef:      "WO-0001",
				CreatedAt:         now,
				UpdatedAt:         now,
			},
			{
				ID:             "pred-2",
				TenantID:       "default",
				AssetID:        "MOTOR-001",
				PredictionType: models.PredictionAnomaly,
				PredictionText: "Vibration spike",
				Probability:    55,
				Confidence:     70,
				RiskLevel:      models.RiskHigh,
				Status:         models.StatusNew,
				CreatedAt:      now,
				UpdatedAt:      now,
			},
		},
		Anomalies: []models.Anomaly{
			{
				ID: 1, TenantID: "default", AssetID: "MOTOR-001",
				SensorType: models.SensorVibration, Value: 9.8, ZScore: 4.2,
				Severity: models.RiskCritical, Timestamp: now, Message: "Vibration spike",
			},
		},
		Models: []models.Model{
			{
				ID: 1, Name: "Pump failure model", AssetType: "pump",
				ModelType: models.PredictionFailure, Status: models.ModelActive,
				Accuracy: 82, TrainingDataPoints: 1200,
			},
		},
		ExportMetadata: ExportMetadata{
			GeneratedAt:      now,
			DateRange:        "2026-02-01 to 2026-03-01",
			TenantID:         "default",
			TotalPredictions: 2,
			TotalAnomalies:   1,
		},
	}
}

func TestExportService_GenerateExcel(t *testing.T) {
	es := NewExportService()

	f, err := es.GenerateExcel(sampleExportData())
	if err != nil {
		t.Fatalf("GenerateExcel failed: %v", err)
	}
	defer f.Close()

	expectedSheets := []string{"Summary", "Predictions", "Anomalies", "Models"}
	sheets := f.GetSheetList()
	if len(sheets) != len(expectedSheets) {
		t.Fatalf("Expected %d sheets, got %d: %v", len(expectedSheets), len(sheets), sheets)
	}
	for _, name := range expectedSheets {
		if idx, _ := f.GetSheetIndex(name); idx < 0 {
			t.Errorf("Expected sheet %q to exist", name)
		}
	}

	// Spot-check a prediction row
	cell, err := f.GetCellValue("Predictions", "A2")
	if err != nil {
		t.Fatalf("GetCellValue failed: %v", err)
	}
	if cell != "pred-1" {
		t.Errorf("Expected first prediction id in A2, got %q", cell)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("Failed to serialize workbook: %v", err)
	}
	if buf.Len() == 0 {
		t.Error("Expected a non-empty workbook")
	}
}

func TestExportService_GenerateCSV(t *testing.T) {
	es := NewExportService()
	data := sampleExportData()

	rows, err := es.GenerateCSV(data.Predictions)
	if err != nil {
		t.Fatalf("GenerateCSV failed: %v", err)
	}

	// Header plus one row per prediction
	if len(rows) != 3 {
		t.Fatalf("Expected 3 rows, got %d", len(rows))
	}
	if rows[0][0] != "id" || rows[0][1] != "asset_id" {
		t.Errorf("Expected header row first, got %v", rows[0])
	}
	if rows[1][0] != "pred-1" {
		t.Errorf("Expected pred-1 in the first data row, got %v", rows[1][0])
	}

	// Optional fields render as empty strings, not placeholders
	var remainingIdx int
	for i, h := range rows[0] {
		if h == "remaining_life_days" {
			remainingIdx = i
		}
	}
	if rows[1][remainingIdx] != "14" {
		t.Errorf("Expected remaining life 14, got %q", rows[1][remainingIdx])
	}
	if rows[2][remainingIdx] != "" {
		t.Errorf("Expected empty remaining life when unset, got %q", rows[2][remainingIdx])
	}
}

func TestExportService_WriteCSV(t *testing.T) {
	es := NewExportService()
	data := sampleExportData()

	rows, err := es.GenerateCSV(data.Predictions)
	if err != nil {
		t.Fatalf("GenerateCSV failed: %v", err)
	}

	var buf bytes.Buffer
	if err := es.WriteCSV(csv.NewWriter(&buf), rows); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Errorf("Expected 3 CSV lines, got %d", len(lines))
	}
	if !strings.HasPrefix(lines[0], "id,asset_id") {
		t.Errorf("Expected the header line first, got %q", lines[0])
	}
}

func TestExportService_GenerateCSV_Empty(t *testing.T) {
	es := NewExportService()

	rows, err := es.GenerateCSV(nil)
	if err != nil {
		t.Fatalf("GenerateCSV failed: %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("Expected only the header row, got %d rows", len(rows))
	}
}
