package composer

import (
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// IDGenerator produces identifiers that keep a readable prefix.
type IDGenerator interface {
	NewID(prefix string) string
}

// SequenceIDs combines a per-generator monotonic counter with a random
// session token, so ids never depend on wall-clock resolution.
type SequenceIDs struct {
	mu    sync.Mutex
	token string
	next  uint64
}

// NewSequenceIDs returns a generator with a fresh session token.
func NewSequenceIDs() *SequenceIDs {
	token := strings.ReplaceAll(uuid.NewString(), "-", "")
	return &SequenceIDs{token: token[:8]}
}

// NewID returns "<prefix>-<token>-<n>".
func (g *SequenceIDs) NewID(prefix string) string {
	g.mu.Lock()
	g.next++
	n := g.next
	g.mu.Unlock()
	if prefix == "" {
		prefix = "id"
	}
	return prefix + "-" + g.token + "-" + strconv.FormatUint(n, 10)
}

func normalizeIDs(ids IDGenerator) IDGenerator {
	if ids == nil {
		return NewSequenceIDs()
	}
	return ids
}

// maxIDAttempts bounds how many collisions uniqueID tolerates from a generator
// before it stops trusting it.
const maxIDAttempts = 16

// uniqueID draws ids until one is absent from taken. A generator that keeps
// colliding is abandoned for "<prefix>-<uuid>".
func uniqueID(ids IDGenerator, prefix string, taken func(string) bool) string {
	for range maxIDAttempts {
		if id := ids.NewID(prefix); !taken(id) {
			return id
		}
	}
	if prefix == "" {
		prefix = "id"
	}
	for {
		if id := prefix + "-" + uuid.NewString(); !taken(id) {
			return id
		}
	}
}
