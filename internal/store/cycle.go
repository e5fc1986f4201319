package store

import (
	"sync"
	"time"

	"github.com/CynthiaArdman-Appomni/NightCityBot/internal/model"
)

// CycleStore persists the community-wide billing cooldown timestamp.
type CycleStore struct {
	mu    sync.Mutex
	path  string
	state model.CycleState
}

// OpenCycleStore loads the cycle state from disk.
func OpenCycleStore(path string) (*CycleStore, error) {
	c := &CycleStore{path: path}
	if err := LoadJSON(path, &c.state); err != nil {
		return nil, err
	}
	return c, nil
}

// LastRun returns when the last committed community cycle ran. The zero
// time means no cycle has run yet.
func (c *CycleStore) LastRun() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.LastRun
}

// MarkRun records a committed community cycle at t.
func (c *CycleStore) MarkRun(t time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.LastRun = t.UTC()
	return SaveJSON(c.path, c.state)
}
