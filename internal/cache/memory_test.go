// internal/cache/memory_test.go
package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyDeterministic(t *testing.T) {
	params := map[string]interface{}{
		"model":       "mistral-small-latest",
		"temperature": 0.3,
		"max_tokens":  1000,
	}

	k1 := Key("Analyse ce commentaire", params)
	k2 := Key("Analyse ce commentaire", params)
	assert.Equal(t, k1, k2)
	assert.Len(t, k1, 64)
}

func TestKeyVariesWithParams(t *testing.T) {
	base := map[string]interface{}{"model": "mistral-small-latest", "temperature": 0.3}
	changed := map[string]interface{}{"model": "mistral-small-latest", "temperature": 0.7}

	assert.NotEqual(t, Key("prompt", base), Key("prompt", changed))
	assert.NotEqual(t, Key("prompt", base), Key("other prompt", base))
}

func TestMemoryStoreGetPut(t *testing.T) {
	store := NewMemoryStore(5*time.Minute, 100)
	ctx := context.Background()

	_, ok, err := store.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Put(ctx, "k1", `{"note": 4.5}`))

	value, ok, err := store.Get(ctx, "k1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"note": 4.5}`, value)
}

func TestMemoryStoreTTLExpiry(t *testing.T) {
	store := NewMemoryStore(5*time.Minute, 100)
	ctx := context.Background()

	current := time.Now()
	store.now = func() time.Time { return current }

	require.NoError(t, store.Put(ctx, "k1", "cached"))

	// Still present just before expiry
	current = current.Add(5*time.Minute - time.Second)
	_, ok, err := store.Get(ctx, "k1")
	require.NoError(t, err)
	assert.True(t, ok)

	// Gone after expiry, and removed from the store
	current = current.Add(2 * time.Second)
	_, ok, err = store.Get(ctx, "k1")
	require.NoError(t, err)
	assert.False(t, ok)

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Entries)
}

func TestMemoryStoreEvictsToNewestHalf(t *testing.T) {
	store := NewMemoryStore(5*time.Minute, 100)
	ctx := context.Background()

	current := time.Now()
	store.now = func() time.Time { return current }

	for i := 0; i < 101; i++ {
		current = current.Add(time.Millisecond)
		require.NoError(t, store.Put(ctx, fmt.Sprintf("key-%03d", i), "value"))
	}

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 50, stats.Entries)
	assert.Equal(t, int64(51), stats.Evictions)

	// The newest entries survive, the oldest are gone
	_, ok, err := store.Get(ctx, "key-100")
	require.NoError(t, err)
	assert.True(t, ok)

	_, ok, err = store.Get(ctx, "key-000")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStoreStats(t *testing.T) {
	store := NewMemoryStore(5*time.Minute, 100)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "k1", "v1"))

	_, _, _ = store.Get(ctx, "k1")
	_, _, _ = store.Get(ctx, "k1")
	_, _, _ = store.Get(ctx, "absent")

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Entries)
	assert.Equal(t, 100, stats.MaxEntries)
	assert.Equal(t, int64(2), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
}
