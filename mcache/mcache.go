// Package mcache caches model predictions keyed by their request payload.
package mcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"maps"
	"reflect"
	"time"

	"github.com/AminuIsrael/seldon-core/config/modules"
	"github.com/AminuIsrael/seldon-core/constants"
	"github.com/AminuIsrael/seldon-core/message"
	"github.com/AminuIsrael/seldon-core/payload"
	"github.com/AminuIsrael/seldon-core/pkg/cache"
	"github.com/AminuIsrael/seldon-core/pkg/metrics"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var KeyPrefix = constants.PredictionCacheKey.Prefix()

type PredictFunc func(ctx context.Context, req *message.SeldonMessage) (*message.SeldonMessage, error)

type PredictionCache struct {
	cache   cache.Cache
	log     *zap.SugaredLogger
	metrics *metrics.Metrics
}

func New(c cache.Cache, m *metrics.Metrics) *PredictionCache {
	if m == nil {
		m = metrics.Discard()
	}
	return &PredictionCache{
		cache:   c,
		log:     zap.S().Named("mcache"),
		metrics: m,
	}
}

// NewFromConfig builds an in-process cache, backed by Redis when
// cfg.Redis is set.
func NewFromConfig(cfg modules.CacheConfig, client *redis.Client, m *metrics.Metrics) (*PredictionCache, error) {
	l1, err := cache.NewMemoryCache(cfg.L1Size)
	if err != nil {
		return nil, err
	}
	levels := []cache.Level{{Cache: l1, Expiration: time.Duration(cfg.L1TTL) * time.Second}}
	if cfg.Redis && client != nil {
		levels = append(levels, cache.Level{
			Cache:      cache.NewRedisCache(client, nil),
			Expiration: time.Duration(cfg.L2TTL) * time.Second,
		})
	}
	return New(cache.NewTieredCache(levels...), m), nil
}

// Key returns the cache key of a request. The meta of the request is not
// part of the key.
func Key(req *message.SeldonMessage) (string, error) {
	msg := *req
	msg.Meta = nil
	msg.Status = nil
	b, err := json.Marshal(&msg)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return KeyPrefix + hex.EncodeToString(sum[:]), nil
}

// Get returns the cached response of req. The meta of the response is
// rebuilt from req, then the tags and metrics the component added when the
// entry was filled are merged in. Cache errors are logged and reported as a
// miss.
func (c *PredictionCache) Get(ctx context.Context, req *message.SeldonMessage) (*message.SeldonMessage, bool) {
	key, err := Key(req)
	if err != nil {
		c.log.Warnf("failed to compute cache key: %v", err)
		return nil, false
	}
	var resp message.SeldonMessage
	exist, err := c.cache.Get(ctx, key, &resp)
	if err != nil {
		c.log.Warnf("failed to read cache: %v", err)
	}
	if !exist {
		c.metrics.CacheMissCounter.Add(1)
		return nil, false
	}
	c.metrics.CacheHitCounter.Add(1)

	added := resp.Meta
	resp.Meta = payload.CopyMeta(req)
	if added != nil {
		if len(added.Tags) > 0 {
			meta := resp.GetMeta()
			if meta.Tags == nil {
				meta.Tags = make(map[string]any, len(added.Tags))
			}
			maps.Copy(meta.Tags, added.Tags)
		}
		if len(added.Metrics) > 0 {
			resp.GetMeta().Metrics = added.Metrics
		}
	}
	return &resp, true
}

// Put stores resp under the key of req. Only the meta the component added to
// the response is stored: tags differing from the request tags and metrics.
func (c *PredictionCache) Put(ctx context.Context, req *message.SeldonMessage, resp *message.SeldonMessage) {
	if resp == nil || resp.Failed() {
		return
	}
	key, err := Key(req)
	if err != nil {
		c.log.Warnf("failed to compute cache key: %v", err)
		return
	}
	entry := *resp
	entry.Meta = addedMeta(req, resp)
	if err := c.cache.Put(ctx, key, &entry, 0); err != nil {
		c.log.Warnf("failed to write cache: %v", err)
	}
}

func addedMeta(req *message.SeldonMessage, resp *message.SeldonMessage) *message.Meta {
	if resp.Meta == nil {
		return nil
	}
	var reqTags map[string]any
	if req.Meta != nil {
		reqTags = req.Meta.Tags
	}
	added := &message.Meta{Metrics: resp.Meta.Metrics}
	for k, v := range resp.Meta.Tags {
		if rv, ok := reqTags[k]; ok && reflect.DeepEqual(rv, v) {
			continue
		}
		if added.Tags == nil {
			added.Tags = make(map[string]any)
		}
		added.Tags[k] = v
	}
	if len(added.Tags) == 0 && len(added.Metrics) == 0 {
		return nil
	}
	return added
}

// Wrap serves predictions from the cache, calling predict on misses.
func (c *PredictionCache) Wrap(predict PredictFunc) PredictFunc {
	return func(ctx context.Context, req *message.SeldonMessage) (*message.SeldonMessage, error) {
		if resp, ok := c.Get(ctx, req); ok {
			return resp, nil
		}
		resp, err := predict(ctx, req)
		if err != nil {
			return nil, err
		}
		c.Put(ctx, req, resp)
		return resp, nil
	}
}
