// internal/cache/cache.go
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// Store is a content-addressed cache for remote judgment responses. Entries
// expire after the configured TTL; an expired entry is treated as absent and
// removed on access.
type Store interface {
	// Get returns the cached response for key, or ok=false on miss.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	// Put stores a response under key. When the entry count exceeds the
	// configured maximum, the oldest half is evicted.
	Put(ctx context.Context, key, value string) error
	// Stats reports the current entry count and hit/miss totals.
	Stats(ctx context.Context) (Statistics, error)
	// Close releases backend resources.
	Close() error
}

// Statistics describes the cache state for health reporting.
type Statistics struct {
	Entries    int   `json:"entries"`
	MaxEntries int   `json:"max_entries"`
	Hits       int64 `json:"hits"`
	Misses     int64 `json:"misses"`
	Evictions  int64 `json:"evictions"`
}

// Key derives the cache key for a prompt and its generation parameters.
// Parameters are serialized in sorted key order so the same request always
// hashes to the same key regardless of map iteration order.
func Key(prompt string, params map[string]interface{}) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(prompt)
	for _, k := range keys {
		b.WriteString("|")
		b.WriteString(k)
		b.WriteString("=")
		fmt.Fprintf(&b, "%v", params[k])
	}

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}
