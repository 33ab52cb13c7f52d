// Package aicache memoizes generative text service outputs keyed by a
// fingerprint of (operation, salient inputs), so semantically identical
// requests within the TTL never invoke the service twice. The store is
// bounded: expired entries are dropped on read and the oldest entry is
// evicted when the size cap is reached.
package aicache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"
	"time"
)

// maxInputChars bounds how much of each salient input contributes to the
// fingerprint. Long document texts differ meaningfully in their prefix.
const maxInputChars = 500

// Entry is one cached response.
type Entry struct {
	Text      string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Config holds cache settings.
type Config struct {
	TTL        time.Duration
	MaxEntries int
}

// DefaultConfig returns a Config with reasonable defaults.
func DefaultConfig() Config {
	return Config{
		TTL:        15 * time.Minute,
		MaxEntries: 2000,
	}
}

// Cache is a bounded TTL store of generative responses.
type Cache struct {
	mu         sync.RWMutex
	entries    map[string]Entry
	ttl        time.Duration
	maxEntries int
	// now is replaceable in tests
	now func() time.Time
}

// New creates a Cache with the given configuration.
func New(cfg Config) *Cache {
	if cfg.TTL <= 0 {
		cfg.TTL = 15 * time.Minute
	}
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = 2000
	}

	return &Cache{
		entries:    make(map[string]Entry),
		ttl:        cfg.TTL,
		maxEntries: cfg.MaxEntries,
		now:        time.Now,
	}
}

// Key builds the content-addressed fingerprint for an operation and its
// salient inputs. Inputs are normalized (trimmed, lowercased) and truncated
// before hashing so formatting noise does not defeat the cache.
func Key(operation string, inputs ...string) string {
	parts := make([]string, 0, len(inputs)+1)
	parts = append(parts, strings.ToLower(strings.TrimSpace(operation)))
	for _, in := range inputs {
		normalized := strings.TrimSpace(strings.ToLower(in))
		if len(normalized) > maxInputChars {
			normalized = normalized[:maxInputChars]
		}
		parts = append(parts, normalized)
	}

	sum := sha256.Sum256([]byte(strings.Join(parts, "||")))
	return hex.EncodeToString(sum[:])
}

// Get returns the cached text for key, if present and unexpired.
func (c *Cache) Get(key string) (string, bool) {
	c.mu.RLock()
	entry, exists := c.entries[key]
	c.mu.RUnlock()

	if !exists {
		return "", false
	}
	if c.now().After(entry.ExpiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return "", false
	}

	return entry.Text, true
}

// Set stores text under key with the cache's TTL.
func (c *Cache) Set(key, text string) {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxEntries {
		c.evictOldest()
	}

	c.entries[key] = Entry{
		Text:      text,
		CreatedAt: now,
		ExpiresAt: now.Add(c.ttl),
	}
}

// Len returns the current number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// evictOldest removes the entry with the earliest creation time.
// Caller must hold the write lock.
func (c *Cache) evictOldest() {
	var oldestKey string
	var oldestAt time.Time
	first := true

	for key, entry := range c.entries {
		if first || entry.CreatedAt.Before(oldestAt) {
			oldestKey = key
			oldestAt = entry.CreatedAt
			first = false
		}
	}

	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}
