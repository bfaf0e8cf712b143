package store

import (
	"sync"

	"github.com/google/uuid"
)

// RunIDGenerator hands out batch run ids.
type RunIDGenerator interface {
	NewRunID() string
}

// UUIDv7 generates time-sortable run ids. Listing runs by id lists them in
// the order they started.
//
// UUIDv7 is stateless and safe for concurrent use.
type UUIDv7 struct{}

// NewRunID returns a hyphenated UUIDv7. Panics if the random source fails.
func (UUIDv7) NewRunID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// FixedRunIDs returns predetermined run ids in order. Tests use it to make
// journals reproducible.
type FixedRunIDs struct {
	mu  sync.Mutex
	ids []string
	idx int
}

// NewFixedRunIDs creates a generator that returns ids in order.
func NewFixedRunIDs(ids ...string) *FixedRunIDs {
	return &FixedRunIDs{ids: ids}
}

// NewRunID returns the next id. Panics once every id has been consumed.
func (g *FixedRunIDs) NewRunID() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.idx >= len(g.ids) {
		panic("FixedRunIDs: all ids exhausted")
	}
	id := g.ids[g.idx]
	g.idx++
	return id
}
