package models

import (
	"time"
)

// Actor identifies who a scoring or lifecycle call is running on behalf of.
// Tenant and actor travel explicitly with every call; there is no ambient
// per-request global state.
type Actor struct {
	TenantID string `json:"tenant_id"`
	ActorID  string `json:"actor_id"`
}

// DefaultTenant is used for single-tenant deployments and unauthenticated
// device traffic
const DefaultTenant = "default"

// SystemActor is the actor recorded for scheduler-initiated scoring runs
func SystemActor(tenantID string) Actor {
	if tenantID == "" {
		tenantID = DefaultTenant
	}
	return Actor{TenantID: tenantID, ActorID: "system"}
}

// AssetInfo is the slice of the external asset registry this engine reads:
// identity for display, the owning tenant, and the commissioning date for
// age-in-service.
type AssetInfo struct {
	ID             string    `json:"id"`
	TenantID       string    `json:"tenant_id"`
	Name           string    `json:"name"`
	Tag            string    `json:"tag"`
	Type           string    `json:"type"`
	CommissionedAt time.Time `json:"commissioned_at"`
}

// OwnerTenant returns the tenant that owns the asset. Assets registered
// without a tenant belong to the default tenant.
func (a *AssetInfo) OwnerTenant() string {
	if a.TenantID == "" {
		return DefaultTenant
	}
	return a.TenantID
}

// AgeInServiceHours returns the elapsed service age of the asset
func (a *AssetInfo) AgeInServiceHours(now time.Time) float64 {
	if a.CommissionedAt.IsZero() || now.Before(a.CommissionedAt) {
		return 0
	}
	return now.Sub(a.CommissionedAt).Hours()
}

// AssetHealthScore is the per-asset rollup shown on the dashboard
type AssetHealthScore struct {
	AssetID   string    `json:"asset_id"`
	Name      string    `json:"name"`
	Score     float64   `json:"score"` // 0-100, 100 = healthy
	RiskLevel RiskLevel `json:"risk_level"`
}

// HealthCategory returns the display category for a health score
func (s *AssetHealthScore) HealthCategory() string {
	switch {
	case s.Score >= 90:
		return "excellent"
	case s.Score >= 75:
		return "good"
	case s.Score >= 50:
		return "fair"
	case s.Score >= 25:
		return "poor"
	default:
		return "critical"
	}
}

// DashboardSummary is the aggregate view consumed by the operator dashboard
type DashboardSummary struct {
	PredictionsByRisk    map[RiskLevel]int  `json:"predictions_by_risk"`
	OpenPredictions      int                `json:"open_predictions"`
	AnomaliesLast24h     int                `json:"anomalies_last_24h"`
	AverageModelAccuracy float64            `json:"average_model_accuracy"`
	AssetHealth          []AssetHealthScore `json:"asset_health"`
	GeneratedAt          time.Time          `json:"generated_at"`
}
