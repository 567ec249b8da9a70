// SPDX-FileCopyrightText: 2026 The npcusync Authors
// SPDX-License-Identifier: Apache-2.0

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

const defaultTTL = 5 * time.Minute

// NamespaceStats is a point-in-time counter snapshot for one namespace.
type NamespaceStats struct {
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Sets      int64 `json:"sets"`
	Evictions int64 `json:"evictions"`
}

// Stats maps namespace to counters.
type Stats struct {
	Namespaces map[string]NamespaceStats `json:"namespaces"`
	Total      NamespaceStats            `json:"total"`
}

// Config holds the tunables for the two-tier cache.
type Config struct {
	// DefaultTTL applies when Set is called with a zero duration.
	DefaultTTL time.Duration
}

// Cache is the two-tier cache service. The fast tier is always consulted
// first; persistent hits are promoted into the fast tier. The persistent
// tier is optional (nil degrades to fast-tier-only operation).
//
// Every read/write failure of a tier is logged and treated as a miss or a
// skipped write. Cache trouble must never surface to callers.
type Cache struct {
	fast       S
	persistent S
	logger     *zap.Logger
	defaultTTL time.Duration

	lock  sync.Mutex
	stats map[string]*NamespaceStats
	known map[string]bool
}

// New builds a Cache over a fast tier and an optional persistent tier.
func New(fast S, persistent S, logger *zap.Logger, config Config) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.DefaultTTL <= 0 {
		config.DefaultTTL = defaultTTL
	}
	return &Cache{
		fast:       fast,
		persistent: persistent,
		logger:     logger,
		defaultTTL: config.DefaultTTL,
		stats:      map[string]*NamespaceStats{},
		known:      map[string]bool{},
	}
}

// Get returns the cached bytes for key, consulting the fast tier and then
// the persistent tier. The second return is false on a miss.
func (c *Cache) Get(ctx context.Context, key Key) ([]byte, bool) {
	entry, err := c.fast.Get(ctx, key)
	if err == nil {
		c.bump(key.Namespace, func(s *NamespaceStats) { s.Hits++ })
		return entry.Data, true
	}
	if !errors.Is(err, ErrEntryNotFound) {
		c.logger.Warn("fast tier read failed", zap.String("namespace", key.Namespace), zap.Error(err))
	}

	if c.persistent != nil {
		entry, err = c.persistent.Get(ctx, key)
		if err == nil {
			// promote so the next read stays in process
			if pushErr := c.fast.Push(ctx, entry); pushErr != nil {
				c.logger.Warn("fast tier promotion failed", zap.String("namespace", key.Namespace), zap.Error(pushErr))
			}
			c.bump(key.Namespace, func(s *NamespaceStats) { s.Hits++ })
			return entry.Data, true
		}
		if !errors.Is(err, ErrEntryNotFound) {
			c.logger.Warn("persistent tier read failed", zap.String("namespace", key.Namespace), zap.Error(err))
		}
	}

	c.bump(key.Namespace, func(s *NamespaceStats) { s.Misses++ })
	return nil, false
}

// Set writes to both tiers. A persistent write rejected for capacity gets one
// purge-and-retry; if that also fails the entry lives in the fast tier only.
func (c *Cache) Set(ctx context.Context, key Key, data []byte, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	entry := Entry{Key: key, Data: data, TTL: int64(ttl.Seconds())}

	if err := c.fast.Push(ctx, entry); err != nil {
		c.logger.Warn("fast tier write failed", zap.String("namespace", key.Namespace), zap.Error(err))
	}
	c.bump(key.Namespace, func(s *NamespaceStats) { s.Sets++ })

	if c.persistent == nil {
		return
	}
	err := c.persistent.Push(ctx, entry)
	if errors.Is(err, ErrTierCapacity) {
		purged, purgeErr := c.persistent.PurgeExpired(ctx)
		if purgeErr != nil {
			c.logger.Warn("persistent tier purge failed", zap.Error(purgeErr))
			return
		}
		c.bump(key.Namespace, func(s *NamespaceStats) { s.Evictions += int64(purged) })
		err = c.persistent.Push(ctx, entry)
	}
	if err != nil {
		c.logger.Warn("persistent tier write failed, entry is memory-only",
			zap.String("namespace", key.Namespace), zap.Error(err))
	}
}

// ClearAll drops every known namespace from both tiers. Namespaces are known
// from the moment they are wired with Wrap or RegisterNamespace, so entries a
// previous process persisted are cleared before this one has touched them.
func (c *Cache) ClearAll(ctx context.Context) {
	for _, namespace := range c.namespaces() {
		c.ClearNamespace(ctx, namespace)
	}
}

// RegisterNamespace records a namespace as in use so ClearAll reaches it.
// Wrap registers its namespace automatically.
func (c *Cache) RegisterNamespace(namespace string) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.known[namespace] = true
}

// ClearNamespace drops one namespace from both tiers.
func (c *Cache) ClearNamespace(ctx context.Context, namespace string) {
	if err := c.fast.DropNamespace(ctx, namespace); err != nil {
		c.logger.Warn("fast tier clear failed", zap.String("namespace", namespace), zap.Error(err))
	}
	if c.persistent != nil {
		if err := c.persistent.DropNamespace(ctx, namespace); err != nil {
			c.logger.Warn("persistent tier clear failed", zap.String("namespace", namespace), zap.Error(err))
		}
	}
}

// Stats snapshots the per-namespace counters.
func (c *Cache) Stats() Stats {
	c.lock.Lock()
	defer c.lock.Unlock()
	out := Stats{Namespaces: make(map[string]NamespaceStats, len(c.stats))}
	for namespace, s := range c.stats {
		out.Namespaces[namespace] = *s
		out.Total.Hits += s.Hits
		out.Total.Misses += s.Misses
		out.Total.Sets += s.Sets
		out.Total.Evictions += s.Evictions
	}
	return out
}

func (c *Cache) bump(namespace string, f func(*NamespaceStats)) {
	c.lock.Lock()
	defer c.lock.Unlock()
	s, ok := c.stats[namespace]
	if !ok {
		s = &NamespaceStats{}
		c.stats[namespace] = s
		c.known[namespace] = true
	}
	f(s)
}

func (c *Cache) namespaces() []string {
	c.lock.Lock()
	defer c.lock.Unlock()
	out := make([]string, 0, len(c.known))
	for namespace := range c.known {
		out = append(out, namespace)
	}
	return out
}

// Wrap decorates fetch with get-before/set-after caching keyed on the
// namespace and argument. A failing fetch is never cached and its error
// propagates unchanged. Corrupted cached payloads count as misses.
func Wrap[A any, R any](c *Cache, namespace string, ttl time.Duration, fetch func(context.Context, A) (R, error)) func(context.Context, A) (R, error) {
	c.RegisterNamespace(namespace)
	return func(ctx context.Context, arg A) (R, error) {
		key := NewKey(namespace, arg)
		if data, ok := c.Get(ctx, key); ok {
			var cached R
			if err := json.Unmarshal(data, &cached); err == nil {
				return cached, nil
			}
			c.logger.Warn("discarding undecodable cache entry", zap.String("namespace", namespace))
		}

		result, err := fetch(ctx, arg)
		if err != nil {
			return result, err
		}

		if data, marshalErr := json.Marshal(result); marshalErr == nil {
			c.Set(ctx, key, data, ttl)
		} else {
			c.logger.Warn("result not cacheable", zap.String("namespace", namespace), zap.Error(marshalErr))
		}
		return result, nil
	}
}
