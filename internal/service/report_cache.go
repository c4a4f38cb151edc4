package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// ReportCache stores computed reports in Redis under a per-seller version number.
// Every sale write bumps the version, so stale entries are never read again and simply
// expire. A nil *ReportCache or a nil client disables caching.
type ReportCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewReportCache(rdb *redis.Client, ttl time.Duration) *ReportCache {
	return &ReportCache{rdb: rdb, ttl: ttl}
}

func (c *ReportCache) enabled() bool { return c != nil && c.rdb != nil }

func versionKey(sellerID uuid.UUID) string { return "reports:ver:" + sellerID.String() }

// Invalidate bumps the seller's report version. Failures are logged, never returned:
// the sale they follow has already committed.
func (c *ReportCache) Invalidate(ctx context.Context, sellerID uuid.UUID) {
	if !c.enabled() {
		return
	}
	if err := c.rdb.Incr(ctx, versionKey(sellerID)).Err(); err != nil {
		log.Warn().Err(err).Str("seller_id", sellerID.String()).Msg("report_cache: invalidate failed")
	}
}

func (c *ReportCache) key(ctx context.Context, sellerID uuid.UUID, report, params string) (string, error) {
	ver, err := c.rdb.Get(ctx, versionKey(sellerID)).Int64()
	if err != nil && err != redis.Nil {
		return "", err
	}
	return fmt.Sprintf("reports:%s:%s:v%d:%s", report, sellerID, ver, params), nil
}

// load resolves the versioned key for a report and decodes a cached copy into dst.
// The key is fixed before the caller queries, so a write that lands in between bumps
// the version past it and the result stored under it is never read. An empty key
// means caching is unavailable.
func (c *ReportCache) load(ctx context.Context, sellerID uuid.UUID, report, params string, dst interface{}) (string, bool) {
	if !c.enabled() {
		return "", false
	}
	key, err := c.key(ctx, sellerID, report, params)
	if err != nil {
		return "", false
	}
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return key, false
	}
	return key, json.Unmarshal(raw, dst) == nil
}

func (c *ReportCache) store(ctx context.Context, key string, v interface{}) {
	if !c.enabled() || key == "" {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("report_cache: store failed")
	}
}
