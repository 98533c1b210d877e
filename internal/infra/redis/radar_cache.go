package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/codegate/api/pkg/domain/shared"
	"github.com/codegate/api/pkg/domain/trust"
	"github.com/codegate/api/pkg/logger"
)

// radarKeyPrefix namespaces radar snapshot keys.
const radarKeyPrefix = "radar:axes:"

// RadarCache caches the current axis snapshot per user. Implements the
// app layer's RadarCache interface: every failure degrades to a miss.
type RadarCache struct {
	client *Client
	ttl    time.Duration
	logger *logger.Logger
}

// NewRadarCache creates a new radar snapshot cache.
func NewRadarCache(client *Client, ttl time.Duration, log *logger.Logger) *RadarCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &RadarCache{
		client: client,
		ttl:    ttl,
		logger: log.With("component", "radar_cache"),
	}
}

// GetRadar returns the cached axis snapshot, miss on any failure.
func (c *RadarCache) GetRadar(ctx context.Context, userID shared.ID) (map[trust.Axis]float64, bool) {
	raw, err := c.client.Get(ctx, radarKey(userID))
	if err != nil {
		if !errors.Is(err, ErrKeyNotFound) {
			c.logger.Warn("radar cache read failed", "user_id", userID.String(), "error", err)
		}
		return nil, false
	}

	var axes map[trust.Axis]float64
	if err := json.Unmarshal([]byte(raw), &axes); err != nil {
		c.logger.Warn("radar cache entry undecodable", "user_id", userID.String(), "error", err)
		return nil, false
	}
	return axes, true
}

// SetRadar stores the axis snapshot with the configured TTL.
func (c *RadarCache) SetRadar(ctx context.Context, userID shared.ID, axes map[trust.Axis]float64) {
	data, err := json.Marshal(axes)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, radarKey(userID), string(data), c.ttl); err != nil {
		c.logger.Warn("radar cache write failed", "user_id", userID.String(), "error", err)
	}
}

// InvalidateRadar drops the cached snapshot after a recalculation.
func (c *RadarCache) InvalidateRadar(ctx context.Context, userID shared.ID) {
	if err := c.client.Del(ctx, radarKey(userID)); err != nil {
		c.logger.Warn("radar cache invalidation failed", "user_id", userID.String(), "error", err)
	}
}

func radarKey(userID shared.ID) string {
	return fmt.Sprintf("%s%s", radarKeyPrefix, userID.String())
}
