package composer

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"sync"
	"time"
)

// PreviewKey identifies one rendered preview. Two keys with equal option trees
// (map order aside) and equal render settings share a cache slot.
type PreviewKey struct {
	Options    ChartOptions
	Theme      ThemeMode
	AssetsHost string
	Height     string
}

func (k PreviewKey) digest() string {
	return contentHash(k.Options, k.Theme.OrDefault(ThemeDark), k.AssetsHost, k.Height)
}

// PreviewCache memoizes rendered preview HTML.
type PreviewCache interface {
	Preview(key PreviewKey, render func() (string, error)) (string, error)
}

// MemoryPreviewCache keeps previews in memory for a fixed TTL. A non-positive
// TTL turns it into a pass-through.
type MemoryPreviewCache struct {
	ttl     time.Duration
	now     func() time.Time
	mu      sync.Mutex
	entries map[string]previewEntry
}

type previewEntry struct {
	html    string
	expires time.Time
}

// NewMemoryPreviewCache builds a cache whose entries live for ttl.
func NewMemoryPreviewCache(ttl time.Duration) *MemoryPreviewCache {
	return &MemoryPreviewCache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]previewEntry),
	}
}

// Preview returns the cached HTML for key, calling render on a miss. Failed
// renders are not cached.
func (c *MemoryPreviewCache) Preview(key PreviewKey, render func() (string, error)) (string, error) {
	if c == nil || c.ttl <= 0 {
		return render()
	}
	digest := key.digest()
	c.mu.Lock()
	entry, ok := c.entries[digest]
	c.mu.Unlock()
	if ok && c.now().Before(entry.expires) {
		return entry.html, nil
	}

	html, err := render()
	if err != nil {
		return "", err
	}
	c.mu.Lock()
	c.sweepLocked()
	c.entries[digest] = previewEntry{html: html, expires: c.now().Add(c.ttl)}
	c.mu.Unlock()
	return html, nil
}

// Len reports the number of unexpired previews.
func (c *MemoryPreviewCache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sweepLocked()
	return len(c.entries)
}

func (c *MemoryPreviewCache) sweepLocked() {
	now := c.now()
	for digest, entry := range c.entries {
		if !now.Before(entry.expires) {
			delete(c.entries, digest)
		}
	}
}

// contentHash is a deterministic key for any JSON-encodable value.
// encoding/json sorts map keys, so equal trees hash equally.
func contentHash(parts ...any) string {
	b, err := json.Marshal(parts)
	if err != nil {
		return "invalid"
	}
	sum := sha1.Sum(b)
	return hex.EncodeToString(sum[:])
}
