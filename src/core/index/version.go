package index

import (
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// ErrReleased is returned by searches on an index that has been replaced and dropped.
var ErrReleased = errors.New("index was replaced")

// NewVersion returns a short random suffix for the storage name of one build. Every build
// writes to fresh storage, so an index that is still being served is never touched.
func NewVersion() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// Guard lets searches run until the index is retired. Retire waits for searches in flight.
type Guard struct {
	mu      sync.RWMutex
	retired bool
}

// Enter starts a search. A nil error must be paired with Exit.
func (g *Guard) Enter() error {
	g.mu.RLock()
	if g.retired {
		g.mu.RUnlock()
		return ErrReleased
	}
	return nil
}

func (g *Guard) Exit() {
	g.mu.RUnlock()
}

// Retire marks the index dropped. It reports false if it was already retired.
func (g *Guard) Retire() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.retired {
		return false
	}
	g.retired = true
	return true
}
