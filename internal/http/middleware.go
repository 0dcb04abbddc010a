package http

import (
	"context"
	"net/http"

	"github.com/assetiq/maintenance_backend/internal/models"
)

type contextKey string

const actorContextKey contextKey = "actor"

// ActorContext resolves the calling tenant and user from request headers and
// stashes them in the request context. Missing headers fall back to the
// default tenant so single-tenant deployments work without configuration.
func ActorContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tenantID := r.Header.Get("X-Tenant-ID")
		if tenantID == "" {
			tenantID = models.DefaultTenant
		}

		actorID := r.Header.Get("X-Actor-ID")
		if actorID == "" {
			actorID = "anonymous"
		}

		actor := models.Actor{TenantID: tenantID, ActorID: actorID}
		ctx := context.WithValue(r.Context(), actorContextKey, actor)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// actorFrom returns the actor resolved by ActorContext
func actorFrom(r *http.Request) models.Actor {
	if actor, ok := r.Context().Value(actorContextKey).(models.Actor); ok {
		return actor
	}
	return models.Actor{TenantID: models.DefaultTenant, ActorID: "anonymous"}
}
