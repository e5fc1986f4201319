package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// AuditLog appends billing lines to a per-month plain-text file. Files
// for closed months are never written again, which makes them safe to
// compress and archive.
type AuditLog struct {
	mu  sync.Mutex
	dir string
}

// NewAuditLog creates the audit directory if needed.
func NewAuditLog(dir string) (*AuditLog, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return &AuditLog{dir: dir}, nil
}

// Dir returns the audit directory.
func (a *AuditLog) Dir() string { return a.dir }

// PathFor returns the audit file path for the month containing t.
func (a *AuditLog) PathFor(t time.Time) string {
	return filepath.Join(a.dir, fmt.Sprintf("audit_%04d_%02d.log", t.Year(), int(t.Month())))
}

// Write appends timestamped lines to the current month's audit file.
func (a *AuditLog) Write(lines []string) error {
	if len(lines) == 0 {
		return nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	now := time.Now().UTC()
	f, err := os.OpenFile(a.PathFor(now), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}
	defer f.Close()

	stamp := now.Format(time.RFC3339)
	for _, line := range lines {
		if _, err := fmt.Fprintf(f, "%s %s\n", stamp, line); err != nil {
			return fmt.Errorf("append audit line: %w", err)
		}
	}
	return nil
}
