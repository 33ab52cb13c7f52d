package aicache

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	t.Parallel()

	t.Run("identical inputs produce identical keys", func(t *testing.T) {
		t.Parallel()
		a := Key("analyze_review_responses", "student-1", "activity-2", "node-3")
		b := Key("analyze_review_responses", "student-1", "activity-2", "node-3")
		assert.Equal(t, a, b)
	})

	t.Run("formatting noise does not defeat the cache", func(t *testing.T) {
		t.Parallel()
		a := Key("generate_flashcards", "Photosynthesis Basics")
		b := Key("Generate_Flashcards", "  photosynthesis basics  ")
		assert.Equal(t, a, b)
	})

	t.Run("different inputs produce different keys", func(t *testing.T) {
		t.Parallel()
		a := Key("generate_flashcards", "photosynthesis")
		b := Key("generate_flashcards", "cell division")
		assert.NotEqual(t, a, b)
	})

	t.Run("operation participates in the fingerprint", func(t *testing.T) {
		t.Parallel()
		a := Key("analyze_review_responses", "same input")
		b := Key("generate_flashcards", "same input")
		assert.NotEqual(t, a, b)
	})

	t.Run("long inputs are truncated before hashing", func(t *testing.T) {
		t.Parallel()
		base := make([]byte, maxInputChars)
		for i := range base {
			base[i] = 'a'
		}
		a := Key("op", string(base)+"tail one")
		b := Key("op", string(base)+"tail two")
		assert.Equal(t, a, b, "differences past the truncation bound should not matter")
	})
}

func TestCacheGetSet(t *testing.T) {
	t.Parallel()

	cache := New(Config{TTL: time.Minute, MaxEntries: 10})
	key := Key("op", "input")

	_, ok := cache.Get(key)
	assert.False(t, ok, "empty cache should miss")

	cache.Set(key, "generated response")

	text, ok := cache.Get(key)
	require.True(t, ok)
	assert.Equal(t, "generated response", text)
	assert.Equal(t, 1, cache.Len())
}

func TestCacheExpiry(t *testing.T) {
	t.Parallel()

	cache := New(Config{TTL: time.Minute, MaxEntries: 10})

	current := time.Now()
	cache.now = func() time.Time { return current }

	key := Key("op", "input")
	cache.Set(key, "response")

	_, ok := cache.Get(key)
	assert.True(t, ok, "entry should be served within the TTL")

	current = current.Add(time.Minute + time.Second)

	_, ok = cache.Get(key)
	assert.False(t, ok, "entry should expire after the TTL")
	assert.Equal(t, 0, cache.Len(), "expired entry should be dropped on read")
}

func TestCacheEviction(t *testing.T) {
	t.Parallel()

	cache := New(Config{TTL: time.Hour, MaxEntries: 3})

	current := time.Now()
	cache.now = func() time.Time { return current }

	for i := 0; i < 3; i++ {
		cache.Set(fmt.Sprintf("key-%d", i), fmt.Sprintf("response-%d", i))
		current = current.Add(time.Second)
	}
	assert.Equal(t, 3, cache.Len())

	// A fourth distinct entry evicts the oldest.
	cache.Set("key-3", "response-3")
	assert.Equal(t, 3, cache.Len())

	_, ok := cache.Get("key-0")
	assert.False(t, ok, "oldest entry should have been evicted")

	_, ok = cache.Get("key-3")
	assert.True(t, ok)

	// Overwriting an existing key does not evict.
	cache.Set("key-2", "updated")
	assert.Equal(t, 3, cache.Len())

	text, ok := cache.Get("key-2")
	require.True(t, ok)
	assert.Equal(t, "updated", text)
}

func TestCacheDefaults(t *testing.T) {
	t.Parallel()

	cache := New(Config{})
	assert.Equal(t, 15*time.Minute, cache.ttl)
	assert.Equal(t, 2000, cache.maxEntries)
}
