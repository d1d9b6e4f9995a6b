// Package cache provides a best-effort Redis read-through cache for
// license lookups. A missing or unreachable Redis degrades to pass-through.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/support-intake/internal/domain"
)

const licenseKeyPrefix = "license:"

// LicenseCache stores classified license info keyed by email.
type LicenseCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewLicenseCache builds the cache. A nil client disables caching.
func NewLicenseCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *LicenseCache {
	return &LicenseCache{client: client, ttl: ttl, logger: logger}
}

// Get returns the cached license info for the email, if present.
func (c *LicenseCache) Get(ctx context.Context, email string) (domain.LicenseInfo, bool) {
	if c == nil || c.client == nil || email == "" {
		return domain.LicenseInfo{}, false
	}
	raw, err := c.client.Get(ctx, licenseKeyPrefix+email).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("license cache read failed", zap.Error(err))
		}
		return domain.LicenseInfo{}, false
	}
	var info domain.LicenseInfo
	if err := json.Unmarshal(raw, &info); err != nil {
		c.logger.Warn("license cache entry malformed", zap.Error(err))
		return domain.LicenseInfo{}, false
	}
	return info, true
}

// Set stores the license info. Failures are logged and ignored.
func (c *LicenseCache) Set(ctx context.Context, email string, info domain.LicenseInfo) {
	if c == nil || c.client == nil || email == "" {
		return
	}
	raw, err := json.Marshal(info)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, licenseKeyPrefix+email, raw, c.ttl).Err(); err != nil {
		c.logger.Warn("license cache write failed", zap.Error(err))
	}
}
