package export

import (
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/assetiq/maintenance_backend/internal/models"
)

// ExportService handles data export functionality
type ExportService struct{}

// NewExportService creates a new export service instance
func NewExportService() *ExportService {
	return &ExportService{}
}

// ExportData represents data to be exported
type ExportData struct {
	Predictions    []models.Prediction
	Anomalies      []models.Anomaly
	Models         []models.Model
	ExportMetadata ExportMetadata
}

// ExportMetadata contains information about the export
type ExportMetadata struct {
	GeneratedAt      time.Time `json:"generated_at"`
	DateRange        string    `json:"date_range"`
	TenantID         string    `json:"tenant_id"`
	TotalPredictions int       `json:"total_predictions"`
	TotalAnomalies   int       `json:"total_anomalies"`
}

// GenerateExcel creates an Excel workbook with the maintenance report
func (es *ExportService) GenerateExcel(data ExportData) (*excelize.File, error) {
	f := excelize.NewFile()

	f.SetDocProps(&excelize.DocProperties{
		Category:       "AssetIQ Predictive Maintenance",
		Created:        data.ExportMetadata.GeneratedAt.Format(time.RFC3339),
		Creator:        "AssetIQ System",
		Description:    "Predictive maintenance report with predictions, anomalies and model status",
		LastModifiedBy: "AssetIQ Backend",
		Modified:       data.ExportMetadata.GeneratedAt.Format(time.RFC3339),
		Subject:        "Predictive Maintenance History",
		Title:          "AssetIQ Maintenance Report",
		Version:        "1.0",
	})

	es.createSummarySheet(f, data)
	es.createPredictionsSheet(f, data.Predictions)
	es.createAnomaliesSheet(f, data.Anomalies)
	es.createModelsSheet(f, data.Models)

	f.SetActiveSheet(0)

	return f, nil
}

// createSummarySheet creates the summary overview sheet
func (es *ExportService) createSummarySheet(f *excelize.File, data ExportData) error {
	sheetName := "Summary"
	f.SetSheetName("Sheet1", sheetName)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	f.SetCellValue(sheetName, "A1", "AssetIQ Predictive Maintenance Report")
	f.MergeCell(sheetName, "A1", "D1")
	f.SetCellStyle(sheetName, "A1", "D1", headerStyle)
	f.SetRowHeight(sheetName, 1, 25)

	f.SetCellValue(sheetName, "A3", "Generated At:")
	f.SetCellValue(sheetName, "B3", data.ExportMetadata.GeneratedAt.Format("2006-01-02 15:04:05"))
	f.SetCellValue(sheetName, "A4", "Date Range:")
	f.SetCellValue(sheetName, "B4", data.ExportMetadata.DateRange)
	f.SetCellValue(sheetName, "A5", "Tenant:")
	f.SetCellValue(sheetName, "B5", data.ExportMetadata.TenantID)
	f.SetCellValue(sheetName, "A6", "Total Predictions:")
	f.SetCellValue(sheetName, "B6", data.ExportMetadata.TotalPredictions)
	f.SetCellValue(sheetName, "A7", "Total Anomalies:")
	f.SetCellValue(sheetName, "B7", data.ExportMetadata.TotalAnomalies)

	// Risk breakdown
	byRisk := map[models.RiskLevel]int{}
	for _, p := range data.Predictions {
		byRisk[p.RiskLevel]++
	}
	f.SetCellValue(sheetName, "A9", "Predictions by Risk Level")
	row := 10
	for _, level := range []models.RiskLevel{models.RiskCritical, models.RiskHigh, models.RiskMedium, models.RiskLow} {
		f.SetCellValue(sheetName, "A"+strconv.Itoa(row), string(level))
		f.SetCellValue(sheetName, "B"+strconv.Itoa(row), byRisk[level])
		row++
	}

	f.SetColWidth(sheetName, "A", "A", 22)
	f.SetColWidth(sheetName, "B", "D", 18)

	return nil
}

// createPredictionsSheet creates the predictions detail sheet
func (es *ExportService) createPredictionsSheet(f *excelize.File, predictions []models.Prediction) error {
	sheetName := "Predictions"
	f.NewSheet(sheetName)

	headers := []string{"ID", "Asset", "Type", "Status", "Risk", "Probability", "Confidence",
		"Remaining Life (days)", "Predicted Date", "Work Order", "Created At", "Summary"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, header)
	}

	for i, p := range predictions {
		row := i + 2
		f.SetCellValue(sheetName, cellAt(1, row), p.ID)
		f.SetCellValue(sheetName, cellAt(2, row), p.AssetID)
		f.SetCellValue(sheetName, cellAt(3, row), string(p.PredictionType))
		f.SetCellValue(sheetName, cellAt(4, row), string(p.Status))
		f.SetCellValue(sheetName, cellAt(5, row), string(p.RiskLevel))
		f.SetCellValue(sheetName, cellAt(6, row), p.Probability)
		f.SetCellValue(sheetName, cellAt(7, row), p.Confidence)
		if p.RemainingLifeDays != nil {
			f.SetCellValue(sheetName, cellAt(8, row), *p.RemainingLifeDays)
		}
		if p.PredictedDate != nil {
			f.SetCellValue(sheetName, cellAt(9, row), p.PredictedDate.Format("2006-01-02"))
		}
		f.SetCellValue(sheetName, cellAt(10, row), p.WorkOrderRef)
		f.SetCellValue(sheetName, cellAt(11, row), p.CreatedAt.Format("2006-01-02 15:04:05"))
		f.SetCellValue(sheetName, cellAt(12, row), p.PredictionText)
	}

	f.SetColWidth(sheetName, "A", "A", 38)
	f.SetColWidth(sheetName, "B", "K", 16)
	f.SetColWidth(sheetName, "L", "L", 60)

	return nil
}

// createAnomaliesSheet creates the anomalies detail sheet
func (es *ExportService) createAnomaliesSheet(f *excelize.File, anomalies []models.Anomaly) error {
	sheetName := "Anomalies"
	f.NewSheet(sheetName)

	headers := []string{"ID", "Asset", "Sensor", "Value", "Z-Score", "Severity", "Timestamp", "Message"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, header)
	}

	for i, a := range anomalies {
		row := i + 2
		f.SetCellValue(sheetName, cellAt(1, row), a.ID)
		f.SetCellValue(sheetName, cellAt(2, row), a.AssetID)
		f.SetCellValue(sheetName, cellAt(3, row), string(a.SensorType))
		f.SetCellValue(sheetName, cellAt(4, row), a.Value)
		f.SetCellValue(sheetName, cellAt(5, row), a.ZScore)
		f.SetCellValue(sheetName, cellAt(6, row), string(a.Severity))
		f.SetCellValue(sheetName, cellAt(7, row), a.Timestamp.Format("2006-01-02 15:04:05"))
		f.SetCellValue(sheetName, cellAt(8, row), a.Message)
	}

	f.SetColWidth(sheetName, "A", "G", 16)
	f.SetColWidth(sheetName, "H", "H", 60)

	return nil
}

// createModelsSheet creates the model registry sheet
func (es *ExportService) createModelsSheet(f *excelize.File, modelList []models.Model) error {
	sheetName := "Models"
	f.NewSheet(sheetName)

	headers := []string{"ID", "Name", "Asset Type", "Model Type", "Status", "Accuracy",
		"Training Points", "Last Trained"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, header)
	}

	for i, m := range modelList {
		row := i + 2
		f.SetCellValue(sheetName, cellAt(1, row), m.ID)
		f.SetCellValue(sheetName, cellAt(2, row), m.Name)
		f.SetCellValue(sheetName, cellAt(3, row), m.AssetType)
		f.SetCellValue(sheetName, cellAt(4, row), string(m.ModelType))
		f.SetCellValue(sheetName, cellAt(5, row), string(m.Status))
		f.SetCellValue(sheetName, cellAt(6, row), m.Accuracy)
		f.SetCellValue(sheetName, cellAt(7, row), m.TrainingDataPoints)
		if m.LastTrainedAt != nil {
			f.SetCellValue(sheetName, cellAt(8, row), m.LastTrainedAt.Format("2006-01-02 15:04:05"))
		}
	}

	f.SetColWidth(sheetName, "A", "H", 18)

	return nil
}

func cellAt(col, row int) string {
	cell, _ := excelize.CoordinatesToCellName(col, row)
	return cell
}

// GenerateCSV flattens predictions into CSV rows, header first
func (es *ExportService) GenerateCSV(predictions []models.Prediction) ([][]string, error) {
	rows := [][]string{
		{"id", "asset_id", "prediction_type", "status", "risk_level", "probability",
			"confidence", "remaining_life_days", "predicted_date", "work_order_ref", "created_at", "summary"},
	}

	for _, p := range predictions {
		remaining := ""
		if p.RemainingLifeDays != nil {
			remaining = strconv.Itoa(*p.RemainingLifeDays)
		}
		predicted := ""
		if p.PredictedDate != nil {
			predicted = p.PredictedDate.Format("2006-01-02")
		}

		rows = append(rows, []string{
			p.ID,
			p.AssetID,
			string(p.PredictionType),
			string(p.Status),
			string(p.RiskLevel),
			fmt.Sprintf("%.1f", p.Probability),
			fmt.Sprintf("%.1f", p.Confidence),
			remaining,
			predicted,
			p.WorkOrderRef,
			p.CreatedAt.Format(time.RFC3339),
			p.PredictionText,
		})
	}

	return rows, nil
}

// WriteCSV writes the prepared rows through the given writer
func (es *ExportService) WriteCSV(w *csv.Writer, rows [][]string) error {
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}
