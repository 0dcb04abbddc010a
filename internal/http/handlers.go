package http

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/assetiq/maintenance_backend/internal/assets"
	"github.com/assetiq/maintenance_backend/internal/engine"
	"github.com/assetiq/maintenance_backend/internal/export"
	"github.com/assetiq/maintenance_backend/internal/lifecycle"
	"github.com/assetiq/maintenance_backend/internal/metrics"
	"github.com/assetiq/maintenance_backend/internal/models"
	"github.com/assetiq/maintenance_backend/internal/registry"
	"github.com/assetiq/maintenance_backend/internal/store"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	store         store.DataStore
	engine        *engine.Service
	lifecycle     *lifecycle.Manager
	registry      *registry.Registry
	assets        assets.Registry
	exportService *export.ExportService
}

// NewHandlers creates a new handlers instance
func NewHandlers(
	dataStore store.DataStore,
	eng *engine.Service,
	lcm *lifecycle.Manager,
	reg *registry.Registry,
	assetRegistry assets.Registry,
) *Handlers {
	return &Handlers{
		store:         dataStore,
		engine:        eng,
		lifecycle:     lcm,
		registry:      reg,
		assets:        assetRegistry,
		exportService: export.NewExportService(),
	}
}

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// sendJSON sends a success response with the given payload
func (h *Handlers) sendJSON(w http.ResponseWriter, data interface{}) {
	response := APIResponse{
		Success: true,
		Data:    data,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// sendErrorResponse sends a standardized error response
func (h *Handlers) sendErrorResponse(w http.ResponseWriter, message string, statusCode int) {
	response := APIResponse{
		Success: false,
		Error:   message,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(response)
}

// sendMappedError translates domain errors into their HTTP status codes
func (h *Handlers) sendMappedError(w http.ResponseWriter, err error) {
	var invalidTransition *lifecycle.InvalidTransitionError
	var modelConfig *engine.ModelConfigurationError

	switch {
	case errors.As(err, &invalidTransition):
		h.sendErrorResponse(w, err.Error(), http.StatusConflict)
	case errors.Is(err, store.ErrPredictionNotFound), errors.Is(err, store.ErrModelNotFound):
		h.sendErrorResponse(w, err.Error(), http.StatusNotFound)
	case errors.As(err, &modelConfig):
		h.sendErrorResponse(w, err.Error(), http.StatusServiceUnavailable)
	case errors.Is(err, engine.ErrInsufficientData):
		h.sendErrorResponse(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		h.sendErrorResponse(w, err.Error(), http.StatusInternalServerError)
	}
}

// AddTelemetryReading handles POST requests to ingest a telemetry reading
// over HTTP (field gateways that cannot speak MQTT)
func (h *Handlers) AddTelemetryReading(w http.ResponseWriter, r *http.Request) {
	var request models.TelemetryData

	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.sendErrorResponse(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	reading := models.Reading{
		AssetID:    request.AssetID,
		SensorType: models.SensorType(request.SensorType),
		Value:      request.Value,
		Unit:       request.Unit,
		Timestamp:  time.Now(),
	}

	if !reading.ValidateReading() {
		h.sendErrorResponse(w, "Invalid telemetry reading values", http.StatusBadRequest)
		return
	}

	h.store.AddReading(reading)
	metrics.ReadingsIngested.WithLabelValues(string(reading.SensorType), "http").Inc()

	actor := actorFrom(r)
	h.engine.ProcessNewReading(actor, &reading)

	log.Printf("📥 HTTP: Received telemetry from %s - asset: %s, sensor: %s, value: %.2f",
		r.RemoteAddr, reading.AssetID, reading.SensorType, reading.Value)

	response := APIResponse{
		Success: true,
		Message: "Telemetry reading accepted",
		Data:    reading,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(response)
}

// GetLatestReading returns the latest reading for an asset sensor stream
func (h *Handlers) GetLatestReading(w http.ResponseWriter, r *http.Request) {
	assetID := r.URL.Query().Get("asset_id")
	sensorType := r.URL.Query().Get("sensor_type")

	if assetID == "" || sensorType == "" {
		h.sendErrorResponse(w, "asset_id and sensor_type query parameters are required", http.StatusBadRequest)
		return
	}

	reading, exists := h.store.GetLatestReading(assetID, models.SensorType(sensorType))
	if !exists {
		h.sendErrorResponse(w, "No telemetry available for the specified stream", http.StatusNotFound)
		return
	}

	h.sendJSON(w, reading)
}

// GetRecentReadings returns recent readings for an asset sensor stream
func (h *Handlers) GetRecentReadings(w http.ResponseWriter, r *http.Request) {
	assetID := r.URL.Query().Get("asset_id")
	sensorType := r.URL.Query().Get("sensor_type")

	if assetID == "" || sensorType == "" {
		h.sendErrorResponse(w, "asset_id and sensor_type query parameters are required", http.StatusBadRequest)
		return
	}

	limit := 50 // Default limit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsedLimit, err := strconv.Atoi(limitStr); err == nil && parsedLimit > 0 && parsedLimit <= 1000 {
			limit = parsedLimit
		}
	}

	readings := h.store.GetRecentReadings(assetID, models.SensorType(sensorType), limit)
	h.sendJSON(w, readings)
}

// GetAssets returns the registered assets along with their active sensor
// streams
func (h *Handlers) GetAssets(w http.ResponseWriter, r *http.Request) {
	type assetView struct {
		models.AssetInfo
		Sensors []models.SensorType `json:"sensors"`
	}

	var views []assetView
	for _, info := range h.assets.List() {
		views = append(views, assetView{
			AssetInfo: info,
			Sensors:   h.store.GetSensorTypes(info.ID),
		})
	}

	h.sendJSON(w, views)
}

// GetAsset returns a single registered asset
func (h *Handlers) GetAsset(w http.ResponseWriter, r *http.Request) {
	assetID := chi.URLParam(r, "assetID")

	info, err := h.assets.Resolve(assetID)
	if err != nil {
		h.sendErrorResponse(w, "Asset not found: "+assetID, http.StatusNotFound)
		return
	}

	h.sendJSON(w, info)
}

// GetAnomalies returns recent anomalies for the tenant
func (h *Handlers) GetAnomalies(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)

	limit := 100
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsedLimit, err := strconv.Atoi(limitStr); err == nil && parsedLimit > 0 && parsedLimit <= 1000 {
			limit = parsedLimit
		}
	}

	anomalies, err := h.store.GetAnomalies(actor.TenantID, limit)
	if err != nil {
		h.sendMappedError(w, err)
		return
	}

	h.sendJSON(w, anomalies)
}

// GetAnomaliesByAsset returns anomalies for a specific asset
func (h *Handlers) GetAnomaliesByAsset(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)
	assetID := chi.URLParam(r, "assetID")

	anomalies, err := h.store.GetAnomaliesByAsset(actor.TenantID, assetID, 100)
	if err != nil {
		h.sendMappedError(w, err)
		return
	}

	if len(anomalies) == 0 {
		h.sendErrorResponse(w, "No anomalies found for asset: "+assetID, http.StatusNotFound)
		return
	}

	h.sendJSON(w, anomalies)
}

// GetSystemStats returns system statistics
func (h *Handlers) GetSystemStats(w http.ResponseWriter, r *http.Request) {
	stats := map[string]interface{}{
		"total_readings": h.store.GetReadingCount(),
		"active_assets":  len(h.store.GetActiveAssets()),
		"server_time":    time.Now(),
	}

	h.sendJSON(w, stats)
}

// exportWindow resolves the start/end query parameters, defaulting to the
// last 30 days
func (h *Handlers) exportWindow(r *http.Request) (time.Time, time.Time, error) {
	start := time.Now().AddDate(0, 0, -30)
	end := time.Now()
	var err error

	if startStr := r.URL.Query().Get("start"); startStr != "" {
		start, err = time.Parse(time.RFC3339, startStr)
		if err != nil {
			return start, end, fmt.Errorf("invalid start date format, use RFC3339")
		}
	}
	if endStr := r.URL.Query().Get("end"); endStr != "" {
		end, err = time.Parse(time.RFC3339, endStr)
		if err != nil {
			return start, end, fmt.Errorf("invalid end date format, use RFC3339")
		}
	}
	if end.Before(start) {
		return start, end, fmt.Errorf("end time must be after start time")
	}
	return start, end, nil
}

// collectExportData gathers the tenant's report data for the window
func (h *Handlers) collectExportData(actor models.Actor, start, end time.Time) (export.ExportData, error) {
	predictions, err := h.store.GetPredictions(actor.TenantID, "", "", 0)
	if err != nil {
		return export.ExportData{}, err
	}

	// Keep only predictions created inside the window
	filtered := predictions[:0]
	for _, p := range predictions {
		if !p.CreatedAt.Before(start) && !p.CreatedAt.After(end) {
			filtered = append(filtered, p)
		}
	}
	predictions = filtered

	anomalies, err := h.store.GetAnomalies(actor.TenantID, 0)
	if err != nil {
		return export.ExportData{}, err
	}
	filteredAnomalies := anomalies[:0]
	for _, a := range anomalies {
		if !a.Timestamp.Before(start) && !a.Timestamp.After(end) {
			filteredAnomalies = append(filteredAnomalies, a)
		}
	}
	anomalies = filteredAnomalies

	modelList, err := h.registry.ListModels()
	if err != nil {
		return export.ExportData{}, err
	}

	return export.ExportData{
		Predictions: predictions,
		Anomalies:   anomalies,
		Models:      modelList,
		ExportMetadata: export.ExportMetadata{
			GeneratedAt:      time.Now(),
			DateRange:        fmt.Sprintf("%s to %s", start.Format("2006-01-02"), end.Format("2006-01-02")),
			TenantID:         actor.TenantID,
			TotalPredictions: len(predictions),
			TotalAnomalies:   len(anomalies),
		},
	}, nil
}

// ExportHistoryExcel handles GET requests to export the maintenance report
// as an Excel workbook
func (h *Handlers) ExportHistoryExcel(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)

	start, end, err := h.exportWindow(r)
	if err != nil {
		h.sendErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	data, err := h.collectExportData(actor, start, end)
	if err != nil {
		h.sendMappedError(w, err)
		return
	}

	excelFile, err := h.exportService.GenerateExcel(data)
	if err != nil {
		h.sendErrorResponse(w, "Failed to generate Excel file", http.StatusInternalServerError)
		return
	}
	defer excelFile.Close()

	filename := fmt.Sprintf("assetiq_report_%s_to_%s.xlsx",
		start.Format("2006-01-02"), end.Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))

	if err := excelFile.Write(w); err != nil {
		h.sendErrorResponse(w, "Failed to write Excel file", http.StatusInternalServerError)
		return
	}
}

// ExportHistoryCSV handles GET requests to export predictions as CSV
func (h *Handlers) ExportHistoryCSV(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)

	start, end, err := h.exportWindow(r)
	if err != nil {
		h.sendErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	data, err := h.collectExportData(actor, start, end)
	if err != nil {
		h.sendMappedError(w, err)
		return
	}

	rows, err := h.exportService.GenerateCSV(data.Predictions)
	if err != nil {
		h.sendErrorResponse(w, "Failed to generate CSV data", http.StatusInternalServerError)
		return
	}

	filename := fmt.Sprintf("assetiq_predictions_%s_to_%s.csv",
		start.Format("2006-01-02"), end.Format("2006-01-02"))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))

	csvWriter := csv.NewWriter(w)
	if err := h.exportService.WriteCSV(csvWriter, rows); err != nil {
		h.sendErrorResponse(w, "Failed to write CSV data", http.StatusInternalServerError)
		return
	}
}
