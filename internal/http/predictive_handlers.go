package http

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/assetiq/maintenance_backend/internal/models"
)

// GetDashboard returns the predictive maintenance dashboard summary
func (h *Handlers) GetDashboard(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)

	summary, err := h.engine.DashboardSummary(actor)
	if err != nil {
		h.sendMappedError(w, err)
		return
	}

	h.sendJSON(w, summary)
}

// GetPredictions returns the tenant's predictions with optional status and
// risk filters
func (h *Handlers) GetPredictions(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)

	status := models.PredictionStatus(r.URL.Query().Get("status"))
	if status != "" && !status.IsValid() {
		h.sendErrorResponse(w, "Invalid status filter: "+string(status), http.StatusBadRequest)
		return
	}

	risk := models.RiskLevel(r.URL.Query().Get("risk"))
	if risk != "" && !risk.IsValid() {
		h.sendErrorResponse(w, "Invalid risk filter: "+string(risk), http.StatusBadRequest)
		return
	}

	limit := 100
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsedLimit, err := strconv.Atoi(limitStr); err == nil && parsedLimit > 0 && parsedLimit <= 1000 {
			limit = parsedLimit
		}
	}

	predictions, err := h.store.GetPredictions(actor.TenantID, status, risk, limit)
	if err != nil {
		h.sendMappedError(w, err)
		return
	}

	h.sendJSON(w, predictions)
}

// GetPrediction returns a single prediction by id
func (h *Handlers) GetPrediction(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)
	predictionID := chi.URLParam(r, "predictionID")

	prediction, err := h.store.GetPrediction(predictionID)
	if err != nil {
		h.sendMappedError(w, err)
		return
	}

	// Hide other tenants' predictions entirely
	if prediction.TenantID != actor.TenantID {
		h.sendErrorResponse(w, "prediction not found", http.StatusNotFound)
		return
	}

	h.sendJSON(w, prediction)
}

// GetOpenPredictionsByAsset returns the open predictions for one asset
func (h *Handlers) GetOpenPredictionsByAsset(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)
	assetID := chi.URLParam(r, "assetID")

	predictions, err := h.store.GetOpenPredictionsByAsset(actor.TenantID, assetID)
	if err != nil {
		h.sendMappedError(w, err)
		return
	}

	h.sendJSON(w, predictions)
}

// ScoreAsset triggers an immediate scoring run for one asset
func (h *Handlers) ScoreAsset(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)
	assetID := chi.URLParam(r, "assetID")

	if _, err := h.assets.Resolve(assetID); err != nil {
		h.sendErrorResponse(w, "Asset not found: "+assetID, http.StatusNotFound)
		return
	}

	if err := h.engine.ScoreAsset(actor, assetID); err != nil {
		h.sendMappedError(w, err)
		return
	}

	response := APIResponse{
		Success: true,
		Message: "Scoring run completed for asset " + assetID,
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// AcknowledgePrediction marks a new prediction as acknowledged
func (h *Handlers) AcknowledgePrediction(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)
	predictionID := chi.URLParam(r, "predictionID")

	prediction, err := h.lifecycle.Acknowledge(actor, predictionID)
	if err != nil {
		h.sendMappedError(w, err)
		return
	}

	h.sendJSON(w, prediction)
}

// DismissPrediction closes an open prediction as dismissed or false positive
func (h *Handlers) DismissPrediction(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)
	predictionID := chi.URLParam(r, "predictionID")

	var request struct {
		Status string `json:"status"` // "dismissed" or "false_positive"
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.sendErrorResponse(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if request.Status == "" {
		request.Status = string(models.StatusDismissed)
	}

	prediction, err := h.lifecycle.Dismiss(actor, predictionID, models.PredictionStatus(request.Status))
	if err != nil {
		h.sendMappedError(w, err)
		return
	}

	h.sendJSON(w, prediction)
}

// CreateWorkOrder generates a work order from an open prediction
func (h *Handlers) CreateWorkOrder(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)
	predictionID := chi.URLParam(r, "predictionID")

	prediction, err := h.lifecycle.GenerateWorkOrder(actor, predictionID)
	if err != nil {
		h.sendMappedError(w, err)
		return
	}

	log.Printf("🔧 Work order %s created from prediction %s by %s",
		prediction.WorkOrderRef, prediction.ID, actor.ActorID)

	h.sendJSON(w, prediction)
}

// ResolvePrediction closes a prediction whose work order was completed
func (h *Handlers) ResolvePrediction(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)
	predictionID := chi.URLParam(r, "predictionID")

	prediction, err := h.lifecycle.Resolve(actor, predictionID)
	if err != nil {
		h.sendMappedError(w, err)
		return
	}

	h.sendJSON(w, prediction)
}

// GetModels returns the registered models
func (h *Handlers) GetModels(w http.ResponseWriter, r *http.Request) {
	modelList, err := h.registry.ListModels()
	if err != nil {
		h.sendMappedError(w, err)
		return
	}

	h.sendJSON(w, modelList)
}

// RecordTrainingRun records the outcome of an offline training run
func (h *Handlers) RecordTrainingRun(w http.ResponseWriter, r *http.Request) {
	modelIDStr := chi.URLParam(r, "modelID")
	modelID, err := strconv.Atoi(modelIDStr)
	if err != nil {
		h.sendErrorResponse(w, "Invalid model id: "+modelIDStr, http.StatusBadRequest)
		return
	}

	var request struct {
		Accuracy   float64 `json:"accuracy"`
		DataPoints int     `json:"data_points"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.sendErrorResponse(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.registry.RecordTrainingRun(modelID, request.Accuracy, request.DataPoints, time.Now()); err != nil {
		h.sendMappedError(w, err)
		return
	}

	response := APIResponse{
		Success: true,
		Message: "Training run recorded",
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}
