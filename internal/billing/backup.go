package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/CynthiaArdman-Appomni/NightCityBot/internal/archive"
	"github.com/CynthiaArdman-Appomni/NightCityBot/internal/model"
	"github.com/CynthiaArdman-Appomni/NightCityBot/internal/store"
)

// BackupBalances fetches and saves every member's current balance to a
// timestamped JSON file in the backup directory. Members whose balance
// cannot be fetched are skipped with a log line rather than failing the
// backup.
func (o *Orchestrator) BackupBalances(ctx context.Context, members []model.Member) (string, error) {
	data := map[string]model.Balance{}
	for _, m := range members {
		bal, err := o.deps.Ledger.GetBalance(ctx, m.ID)
		if err != nil {
			logf("[WARN] backup: balance fetch failed for %d: %v", m.ID, err)
			continue
		}
		data[strconv.FormatInt(m.ID, 10)] = bal
	}

	name := fmt.Sprintf("balances_%s.json", o.now().UTC().Format("20060102_150405"))
	path := filepath.Join(o.deps.BackupDir, name)
	if err := store.SaveJSON(path, data); err != nil {
		return "", err
	}
	logf("[INFO] backed up %d balance(s) to %s", len(data), path)
	return path, nil
}

// RestoreFromFile resets each recorded member's balance to the values in
// a backup file, applying the difference as a signed delta. Compressed
// ".zst" archives are read transparently.
func (o *Orchestrator) RestoreFromFile(ctx context.Context, path string) ([]string, error) {
	raw, err := archive.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read backup %s: %w", path, err)
	}
	data := map[string]model.Balance{}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("parse backup %s: %w", path, err)
	}

	reason := "Balance restore from " + filepath.Base(path)
	var lines []string
	for key, want := range data {
		memberID, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			lines = append(lines, fmt.Sprintf("Skipping invalid member key %q.", key))
			continue
		}
		line, err := o.restoreMember(ctx, memberID, want, reason)
		if err != nil {
			lines = append(lines, fmt.Sprintf("Restore failed for %d: %v", memberID, err))
			continue
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// RestoreFromLabel resets one member's balance to their most recent
// snapshot carrying the given label.
func (o *Orchestrator) RestoreFromLabel(ctx context.Context, m model.Member, label string) (string, error) {
	snap, ok := o.deps.Snapshots.Latest(m.ID, label)
	if !ok {
		return "", fmt.Errorf("no snapshot labeled %q for %s", label, m.Name)
	}
	return o.restoreMember(ctx, m.ID, model.Balance{Cash: snap.Cash, Bank: snap.Bank},
		"Balance restore ("+label+")")
}

func (o *Orchestrator) restoreMember(ctx context.Context, memberID int64, want model.Balance, reason string) (string, error) {
	current, err := o.deps.Ledger.GetBalance(ctx, memberID)
	if err != nil {
		return "", err
	}
	delta := model.BalanceDelta{Cash: want.Cash - current.Cash, Bank: want.Bank - current.Bank}
	if delta.Cash == 0 && delta.Bank == 0 {
		return fmt.Sprintf("Member %d already at Cash: $%d, Bank: $%d.", memberID, want.Cash, want.Bank), nil
	}
	if err := o.deps.Ledger.UpdateBalance(ctx, memberID, delta, reason); err != nil {
		return "", err
	}
	return fmt.Sprintf("Restored member %d to Cash: $%d, Bank: $%d.", memberID, want.Cash, want.Bank), nil
}

// ArchiveBackups compresses every closed backup and audit file.
func (o *Orchestrator) ArchiveBackups() error {
	if _, err := archive.RotateDir(o.deps.BackupDir, ""); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	if o.deps.Audit != nil {
		active := filepath.Base(o.deps.Audit.PathFor(o.now()))
		if _, err := archive.RotateDir(o.deps.Audit.Dir(), active); err != nil {
			return err
		}
	}
	return nil
}

// uniquePath returns dir/name, suffixing a counter if the file already
// exists.
func uniquePath(dir, name string) string {
	path := filepath.Join(dir, name)
	for i := 1; ; i++ {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return path
		}
		path = filepath.Join(dir, fmt.Sprintf("%s.%d", name, i))
	}
}
