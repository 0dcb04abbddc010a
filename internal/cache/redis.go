package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/assetiq/maintenance_backend/internal/metrics"
	"github.com/assetiq/maintenance_backend/internal/models"
)

// Cache is a Redis-backed read cache for dashboard aggregates and recent
// anomaly lists. A nil *Cache is valid and disables caching, so callers never
// branch on whether Redis is configured.
type Cache struct {
	client *redis.Client
	ctx    context.Context
	ttl    time.Duration
}

// NewCache connects to Redis and verifies the connection
func NewCache(addr, password string, db int, ttl time.Duration) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		PoolSize:     50,
		MinIdleConns: 5,
		MaxRetries:   3,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Cache{client: client, ctx: ctx, ttl: ttl}, nil
}

// GetDashboard returns a cached dashboard summary for a tenant, if present
func (c *Cache) GetDashboard(tenantID string) (*models.DashboardSummary, bool) {
	if c == nil {
		return nil, false
	}

	data, err := c.client.Get(c.ctx, "dashboard:"+tenantID).Bytes()
	if err != nil {
		if err != redis.Nil {
			metrics.CacheOperations.WithLabelValues("get", "error").Inc()
		} else {
			metrics.CacheOperations.WithLabelValues("get", "miss").Inc()
		}
		return nil, false
	}

	var summary models.DashboardSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		metrics.CacheOperations.WithLabelValues("get", "error").Inc()
		return nil, false
	}

	metrics.CacheOperations.WithLabelValues("get", "hit").Inc()
	return &summary, true
}

// StoreDashboard caches a dashboard summary for a tenant
func (c *Cache) StoreDashboard(tenantID string, summary *models.DashboardSummary) {
	if c == nil {
		return
	}

	data, err := json.Marshal(summary)
	if err != nil {
		return
	}

	if err := c.client.Set(c.ctx, "dashboard:"+tenantID, data, c.ttl).Err(); err != nil {
		metrics.CacheOperations.WithLabelValues("set", "error").Inc()
		return
	}
	metrics.CacheOperations.WithLabelValues("set", "ok").Inc()
}

// StoreAnomaly appends an anomaly to the tenant's recent-anomaly sorted set.
// Anomalies are kept longer than dashboard aggregates.
func (c *Cache) StoreAnomaly(tenantID string, anomaly *models.Anomaly) {
	if c == nil {
		return
	}

	data, err := json.Marshal(anomaly)
	if err != nil {
		return
	}

	key := fmt.Sprintf("anomaly:%s:%d", tenantID, anomaly.ID)
	listKey := "anomaly_list:" + tenantID
	anomalyTTL := c.ttl * 24

	pipe := c.client.Pipeline()
	pipe.Set(c.ctx, key, data, anomalyTTL)
	pipe.ZAdd(c.ctx, listKey, redis.Z{Score: float64(anomaly.Timestamp.Unix()), Member: key})
	pipe.Expire(c.ctx, listKey, anomalyTTL)

	if _, err := pipe.Exec(c.ctx); err != nil {
		metrics.CacheOperations.WithLabelValues("set", "error").Inc()
		return
	}
	metrics.CacheOperations.WithLabelValues("set", "ok").Inc()
}

// InvalidateDashboard drops the cached dashboard for a tenant, used after
// lifecycle transitions change the open-prediction counts
func (c *Cache) InvalidateDashboard(tenantID string) {
	if c == nil {
		return
	}
	c.client.Del(c.ctx, "dashboard:"+tenantID)
}

// Ping verifies the Redis connection
func (c *Cache) Ping() error {
	if c == nil {
		return nil
	}
	return c.client.Ping(c.ctx).Err()
}

// Close closes the Redis connection
func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}
