package recorder

import (
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists billing history to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so operator dashboards can read while the bot writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS billing_events (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp   INTEGER NOT NULL,
			member_id   INTEGER NOT NULL,
			category    TEXT,
			amount      INTEGER,
			cash_before INTEGER,
			bank_before INTEGER,
			cash_after  INTEGER,
			bank_after  INTEGER,
			outcome     TEXT,
			dry_run     INTEGER,
			note        TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_billing_ts ON billing_events(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_billing_member ON billing_events(member_id)`,

		`CREATE TABLE IF NOT EXISTS cycle_runs (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp INTEGER NOT NULL,
			members   INTEGER,
			charged   INTEGER,
			skipped   INTEGER,
			failed    INTEGER,
			dry_run   INTEGER,
			forced    INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_cycle_ts ON cycle_runs(timestamp)`,

		`CREATE TABLE IF NOT EXISTS income_events (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp INTEGER NOT NULL,
			member_id INTEGER NOT NULL,
			source    TEXT,
			amount    INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_income_ts ON income_events(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordBilling(evt *BillingEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO billing_events
		(timestamp, member_id, category, amount,
		 cash_before, bank_before, cash_after, bank_after,
		 outcome, dry_run, note)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		time.Now().Unix(), evt.MemberID, evt.Category, evt.Amount,
		evt.CashBefore, evt.BankBefore, evt.CashAfter, evt.BankAfter,
		evt.Outcome, boolToInt(evt.DryRun), evt.Note,
	)
	return err
}

func (r *SQLiteRecorder) RecordCycle(run *CycleRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO cycle_runs
		(timestamp, members, charged, skipped, failed, dry_run, forced)
		VALUES (?,?,?,?,?,?,?)`,
		time.Now().Unix(), run.Members, run.Charged, run.Skipped, run.Failed,
		boolToInt(run.DryRun), boolToInt(run.Forced),
	)
	return err
}

func (r *SQLiteRecorder) RecordIncome(evt *IncomeEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO income_events
		(timestamp, member_id, source, amount)
		VALUES (?,?,?,?)`,
		time.Now().Unix(), evt.MemberID, evt.Source, evt.Amount,
	)
	return err
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
