package store

import "sync"

// Systems lists every subsystem that can be switched off at runtime.
var Systems = []string{
	"baseline",
	"housing_rent",
	"business_rent",
	"trauma_team",
	"cyberware",
	"open_shop",
	"attend",
	"loa",
}

// Toggles persists per-system enable flags. Unknown systems cannot be
// toggled; systems default to enabled so a fresh install bills normally.
type Toggles struct {
	mu     sync.Mutex
	path   string
	status map[string]bool
}

// OpenToggles loads the toggle document, filling in defaults for any
// system missing from it.
func OpenToggles(path string) (*Toggles, error) {
	t := &Toggles{path: path, status: map[string]bool{}}
	if err := LoadJSON(path, &t.status); err != nil {
		return nil, err
	}
	changed := false
	for _, name := range Systems {
		if _, ok := t.status[name]; !ok {
			t.status[name] = true
			changed = true
		}
	}
	if changed {
		if err := SaveJSON(path, t.status); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Enabled reports whether the named system is switched on.
func (t *Toggles) Enabled(system string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status[system]
}

// Set switches a system on or off. Returns false for unknown systems.
func (t *Toggles) Set(system string, enabled bool) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	known := false
	for _, name := range Systems {
		if name == system {
			known = true
			break
		}
	}
	if !known {
		return false, nil
	}
	t.status[system] = enabled
	return true, SaveJSON(t.path, t.status)
}

// Status returns a copy of all toggle states.
func (t *Toggles) Status() map[string]bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]bool, len(t.status))
	for k, v := range t.status {
		out[k] = v
	}
	return out
}
