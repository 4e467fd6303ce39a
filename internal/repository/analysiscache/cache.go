// Package analysiscache caches comparison results in a key-value store.
// Comparing two large SBOMs re-reads and re-keys every component, so the
// result is remembered under a digest of both raw documents; any change to
// either file changes the digest and misses naturally.
package analysiscache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/sbomdex/sbomdex/internal/db"
	"github.com/sbomdex/sbomdex/internal/domain/sbom"
)

const keyPrefix = "sbomdex:compare:"

// store is the consumer interface for the cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Cache stores comparison results keyed by document content digests.
// Cache failures are never fatal: a broken cache degrades to recompute.
type Cache struct {
	store      store
	ttl        time.Duration
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a comparison result cache.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"), passed explicitly.
func New(s store, ttl time.Duration, cacheTotal *prometheus.CounterVec, logger *zap.Logger) *Cache {
	return &Cache{store: s, ttl: ttl, cacheTotal: cacheTotal, logger: logger}
}

// Key digests the raw bytes of both documents into a cache key. The key is
// order-sensitive: compare(a,b) and compare(b,a) are different results.
func Key(doc1, doc2 []byte) string {
	h := sha256.New()
	h.Write(doc1)
	h.Write([]byte{0})
	h.Write(doc2)
	return keyPrefix + hex.EncodeToString(h.Sum(nil))
}

// Get returns a cached comparison, if present.
func (c *Cache) Get(ctx context.Context, key string) (sbom.Comparison, bool) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to get cached comparison", zap.String("key", key), zap.Error(err))
		}
		c.incCache("miss")
		return sbom.Comparison{}, false
	}

	var result sbom.Comparison
	if err := json.Unmarshal(data, &result); err != nil {
		c.logger.Warn("Failed to parse cached comparison", zap.String("key", key), zap.Error(err))
		c.incCache("miss")
		return sbom.Comparison{}, false
	}

	c.incCache("hit")
	return result, true
}

// Put stores a comparison under the key, TTL-bound.
func (c *Cache) Put(ctx context.Context, key string, result sbom.Comparison) {
	data, err := json.Marshal(result)
	if err != nil {
		c.logger.Warn("Failed to marshal comparison", zap.Error(err))
		return
	}
	if err := c.store.SetWithTTL(ctx, key, data, c.ttl); err != nil {
		c.logger.Warn("Failed to cache comparison", zap.String("key", key), zap.Error(err))
	}
}

func (c *Cache) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}
