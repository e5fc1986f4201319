// Package billing drives the recurring cost cycle: it computes what each
// member owes, mutates ledger balances through the external ledger
// client, and keeps an auditable snapshot history. A dry run walks the
// exact same branches as a committed run but issues no mutations.
package billing

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/CynthiaArdman-Appomni/NightCityBot/internal/economy"
	"github.com/CynthiaArdman-Appomni/NightCityBot/internal/ledger"
	"github.com/CynthiaArdman-Appomni/NightCityBot/internal/model"
	"github.com/CynthiaArdman-Appomni/NightCityBot/internal/recorder"
	"github.com/CynthiaArdman-Appomni/NightCityBot/internal/store"
	"github.com/CynthiaArdman-Appomni/NightCityBot/internal/streak"
)

var (
	// ErrCooldownActive means the community cycle ran inside the
	// cooldown window and the run was not forced.
	ErrCooldownActive = errors.New("billing cooldown active")

	// ErrCycleAlreadyRunning means another orchestrator run holds the
	// advisory run lock.
	ErrCycleAlreadyRunning = errors.New("billing cycle already running")

	// ErrNoMembers means no member matched the run's filter.
	ErrNoMembers = errors.New("no matching members")
)

// Notice purposes routed through the chat adapter.
const (
	NoticeRent     = "rent"
	NoticeEviction = "eviction"
	NoticeAdmin    = "admin"
)

// Ledger is the balance API the orchestrator consumes.
type Ledger interface {
	GetBalance(ctx context.Context, memberID int64) (model.Balance, error)
	UpdateBalance(ctx context.Context, memberID int64, delta model.BalanceDelta, reason string) error
	VerifyRoundTrip(ctx context.Context, memberID int64) bool
}

// Adapter is the chat-platform surface the orchestrator consumes: member
// resolution, role grants, and human-readable notices.
type Adapter interface {
	Members(ctx context.Context) ([]model.Member, error)
	GrantRole(ctx context.Context, memberID int64, role string) error
	Notify(ctx context.Context, purpose, message string) error
}

// Deps wires an Orchestrator. All fields are required except Recorder,
// Audit, and Summaries, which are skipped when nil.
type Deps struct {
	Ledger    Ledger
	Adapter   Adapter
	Streaks   *store.StreakStore
	Snapshots *store.SnapshotLog
	Cycle     *store.CycleStore
	Opens     *store.ActivityLog
	Toggles   *store.Toggles
	Recorder  recorder.Recorder
	Audit     *store.AuditLog
	Summaries *store.SummaryStore
	BackupDir string
}

// Orchestrator runs billing cycles over one or many members.
type Orchestrator struct {
	deps     Deps
	cooldown time.Duration
	now      func() time.Time
	running  atomic.Bool
}

// CycleCooldown is the minimum interval between committed community runs.
const CycleCooldown = 30 * 24 * time.Hour

// cyberwareWindow is the idempotency window for the weekly maintenance
// charge; shorter than the cycle cooldown because meds bill weekly.
const cyberwareWindow = 6 * 24 * time.Hour

// New builds an Orchestrator with the documented cooldown.
func New(d Deps) *Orchestrator {
	if d.Recorder == nil {
		d.Recorder = recorder.NewNoopRecorder()
	}
	return &Orchestrator{deps: d, cooldown: CycleCooldown, now: time.Now}
}

// MemberReport collects the human-readable outcome of processing one
// member.
type MemberReport struct {
	Member  model.Member
	Lines   []string
	Charged int
	Skipped bool
	Failed  bool
}

func (r *MemberReport) add(format string, args ...any) {
	r.Lines = append(r.Lines, fmt.Sprintf(format, args...))
}

// CycleReport summarises a whole run.
type CycleReport struct {
	Reports    []*MemberReport
	BackupFile string
	DryRun     bool
}

// Summary returns one line suited for the invoking channel.
func (c *CycleReport) Summary() string {
	charged, skipped, failed := 0, 0, 0
	for _, r := range c.Reports {
		switch {
		case r.Failed:
			failed++
		case r.Skipped:
			skipped++
		default:
			charged++
		}
	}
	verb := "collected"
	if c.DryRun {
		verb = "simulated"
	}
	return fmt.Sprintf("Rent %s for %d member(s): %d processed, %d skipped, %d failed.",
		verb, len(c.Reports), charged, skipped, failed)
}

// RunCycle is the whole-cycle entry point. It takes the advisory run
// lock, enforces the community cooldown (unless forced or targeted),
// filters the member set, snapshots balances around the run, and
// processes members sequentially. Per-member failures never abort the
// remaining members.
func (o *Orchestrator) RunCycle(ctx context.Context, opts Options) (*CycleReport, error) {
	if !o.running.CompareAndSwap(false, true) {
		return nil, ErrCycleAlreadyRunning
	}
	defer o.running.Store(false)

	now := o.now()
	wholeCycle := opts.Global() && opts.FullRun()
	if wholeCycle && !opts.Force {
		if last := o.deps.Cycle.LastRun(); !last.IsZero() && now.Sub(last) < o.cooldown {
			return nil, fmt.Errorf("%w: last run %s", ErrCooldownActive, last.Format(time.RFC3339))
		}
	}

	members, err := o.selectMembers(ctx, opts)
	if err != nil {
		return nil, err
	}

	// Record the cooldown before processing so a crash mid-run does not
	// invite an immediate double charge.
	if wholeCycle && !opts.DryRun {
		if err := o.deps.Cycle.MarkRun(now); err != nil {
			return nil, fmt.Errorf("mark cycle run: %w", err)
		}
	}

	report := &CycleReport{DryRun: opts.DryRun}
	if wholeCycle && !opts.DryRun {
		if path, err := o.BackupBalances(ctx, members); err == nil {
			report.BackupFile = path
		}
	}

	if wholeCycle {
		o.snapshotAll(ctx, members, "collect_rent_before", opts)
	}

	for _, m := range members {
		rep := o.ProcessMember(ctx, m, opts)
		report.Reports = append(report.Reports, rep)
		if o.deps.Summaries != nil && !opts.DryRun {
			summary := store.PaymentSummary{Timestamp: o.now().UTC(), Lines: rep.Lines, Charged: rep.Charged}
			if err := o.deps.Summaries.Set(m.ID, summary); err != nil {
				logf("[ERROR] persist payment summary for %d: %v", m.ID, err)
			}
		}
	}

	if wholeCycle {
		o.snapshotAll(ctx, members, "collect_rent_after", opts)
	}

	if wholeCycle && !opts.DryRun {
		o.rotateOpenLog(now)
	}

	o.finishCycle(report, opts)
	return report, nil
}

func (o *Orchestrator) selectMembers(ctx context.Context, opts Options) ([]model.Member, error) {
	if opts.Target != nil {
		return []model.Member{*opts.Target}, nil
	}
	all, err := o.deps.Adapter.Members(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve members: %w", err)
	}
	var members []model.Member
	for _, m := range all {
		if m.HasTieredRole() && m.Approved() {
			members = append(members, m)
		}
	}
	if len(members) == 0 {
		return nil, ErrNoMembers
	}
	return members, nil
}

func (o *Orchestrator) snapshotAll(ctx context.Context, members []model.Member, label string, opts Options) {
	if opts.DryRun {
		return
	}
	for _, m := range members {
		bal, err := o.deps.Ledger.GetBalance(ctx, m.ID)
		if err != nil {
			logf("[WARN] snapshot %s: balance fetch failed for %d: %v", label, m.ID, err)
			continue
		}
		if _, err := o.deps.Snapshots.Append(m.ID, label, bal); err != nil {
			logf("[ERROR] snapshot %s: append failed for %d: %v", label, m.ID, err)
		}
	}
}

func (o *Orchestrator) rotateOpenLog(now time.Time) {
	name := fmt.Sprintf("open_history_%s.json", now.Format("January_2006"))
	path := uniquePath(o.deps.BackupDir, name)
	if err := o.deps.Opens.Rotate(path); err != nil {
		logf("[ERROR] rotate open log: %v", err)
	}
}

func (o *Orchestrator) finishCycle(report *CycleReport, opts Options) {
	var lines []string
	for _, r := range report.Reports {
		lines = append(lines, r.Lines...)
	}
	if o.deps.Audit != nil && !opts.DryRun {
		if err := o.deps.Audit.Write(lines); err != nil {
			logf("[ERROR] write audit log: %v", err)
		}
	}
	run := &recorder.CycleRun{Members: len(report.Reports), DryRun: opts.DryRun, Forced: opts.Force}
	for _, r := range report.Reports {
		switch {
		case r.Failed:
			run.Failed++
		case r.Skipped:
			run.Skipped++
		default:
			run.Charged++
		}
	}
	if err := o.deps.Recorder.RecordCycle(run); err != nil {
		logf("[ERROR] record cycle: %v", err)
	}
}

// ProcessMember walks the per-member state machine:
// fetch → baseline → housing → business → trauma → cyberware → snapshot.
// Each category computes its own due from the current role set, checks
// sufficiency against the running post-deduction totals, and fails
// independently of the others.
func (o *Orchestrator) ProcessMember(ctx context.Context, m model.Member, opts Options) (rep *MemberReport) {
	rep = &MemberReport{Member: m}
	defer func() {
		if p := recover(); p != nil {
			rep.Failed = true
			rep.add("Error processing %s: %v", m.Name, p)
			logf("[ERROR] panic processing member %d: %v", m.ID, p)
		}
	}()

	rep.add("Working on %s", m.Name)
	if opts.Verbose {
		rep.add("Roles: %v", m.Roles)
	}
	if m.OnLeave() {
		rep.add("Member is on LOA — baseline, housing, and medical skipped.")
	}

	bal, err := o.deps.Ledger.GetBalance(ctx, m.ID)
	if err != nil {
		rep.Failed = true
		rep.add("Could not fetch balance: %v", err)
		return rep
	}
	cash, bank := bal.Cash, bal.Bank
	rep.add("Starting balance — Cash: $%d, Bank: $%d, Total: $%d", cash, bank, cash+bank)

	if opts.DryRun {
		if o.deps.Ledger.VerifyRoundTrip(ctx, m.ID) {
			rep.add("Ledger write access verified.")
		} else {
			rep.add("Ledger write access check FAILED.")
		}
	}

	if opts.FullRun() {
		cash = o.applyPassiveIncome(ctx, rep, m, opts, cash)
	}

	if opts.Includes(CategoryBaseline) && !m.OnLeave() {
		o.deductCategory(ctx, rep, m, opts, CategoryBaseline, model.BaselineLivingCost,
			"Flat Monthly Fee", &cash, &bank)
	}
	if opts.Includes(CategoryHousing) && !m.OnLeave() {
		due := o.roleTotal(rep, m.HousingRoles(), model.HousingCosts, "Rent")
		o.deductCategory(ctx, rep, m, opts, CategoryHousing, due, "Housing Rent", &cash, &bank)
	}
	if opts.Includes(CategoryBusiness) {
		due := o.roleTotal(rep, m.BusinessRoles(), model.BusinessCosts, "Rent")
		o.deductCategory(ctx, rep, m, opts, CategoryBusiness, due, "Business Rent", &cash, &bank)
	}
	if opts.Includes(CategoryTrauma) && !m.OnLeave() {
		due := 0
		if role, ok := m.TraumaRole(); ok {
			due = model.TraumaCosts[role]
			rep.add("%s → Subscription: $%d", role, due)
		}
		o.deductCategory(ctx, rep, m, opts, CategoryTrauma, due, "Trauma Team Subscription", &cash, &bank)
	}
	if opts.Includes(CategoryCyberware) && !m.OnLeave() {
		o.processCyberware(ctx, rep, m, opts, &cash, &bank)
	}

	rep.add("Final balance — Cash: $%d, Bank: $%d, Total: $%d", cash, bank, cash+bank)
	if rep.Charged == 0 && !rep.Failed {
		rep.Skipped = true
	}
	return rep
}

// roleTotal sums a role cost table over the member's roles, logging each
// contributing role.
func (o *Orchestrator) roleTotal(rep *MemberReport, roles []string, costs map[string]int, kind string) int {
	total := 0
	for _, role := range roles {
		amount := costs[role]
		total += amount
		rep.add("%s → %s: $%d", role, kind, amount)
	}
	return total
}

// deductOutcome reports how a deduction step ended. Skips leave the
// cycle state untouched, failures still count as a processed week.
type deductOutcome int

const (
	deductCharged deductOutcome = iota
	deductSkipped
	deductFailed
)

// deductCategory runs one independent deduction step against the running
// totals. Insufficiency emits a notice but never aborts later steps.
func (o *Orchestrator) deductCategory(ctx context.Context, rep *MemberReport, m model.Member,
	opts Options, cat Category, amount int, reason string, cash, bank *int) deductOutcome {

	if amount == 0 {
		return deductSkipped
	}
	if !o.deps.Toggles.Enabled(cat.Toggle()) {
		rep.add("%s system disabled — skipping.", cat.Toggle())
		o.recordBilling(m, cat, amount, *cash, *bank, *cash, *bank, "skipped", opts, "system disabled")
		return deductSkipped
	}
	window := o.cooldown
	if cat == CategoryCyberware {
		window = cyberwareWindow
	}
	if !opts.Force && o.deps.Snapshots.HasLabelSince(m.ID, string(cat)+"_after", o.now().Add(-window)) {
		rep.add("%s already collected within the window — skipping (use -force to override).", cat)
		o.recordBilling(m, cat, amount, *cash, *bank, *cash, *bank, "skipped", opts, "already collected")
		return deductSkipped
	}

	total := *cash + *bank
	if total < amount {
		if opts.DryRun {
			rep.add("would fail: insufficient funds for %s ($%d). Current balance: $%d.", cat, amount, total)
		} else {
			rep.add("Insufficient funds for %s ($%d). Current balance: $%d.", cat, amount, total)
		}
		o.sendInsufficiencyNotice(ctx, m, cat, amount, opts)
		o.recordBilling(m, cat, amount, *cash, *bank, *cash, *bank, "insufficient", opts, "")
		return deductFailed
	}

	cashPart, bankPart := economy.SplitDeduction(*cash, amount)
	before := model.Balance{Cash: *cash, Bank: *bank}

	if opts.DryRun {
		*cash -= cashPart
		*bank -= bankPart
		rep.Charged += amount
		rep.add("would deduct $%d for %s (Cash: $%d, Bank: $%d).", amount, cat, cashPart, bankPart)
		o.recordBilling(m, cat, amount, before.Cash, before.Bank, *cash, *bank, "charged", opts, "")
		return deductCharged
	}

	if _, err := o.deps.Snapshots.Append(m.ID, string(cat)+"_before", before); err != nil {
		logf("[ERROR] snapshot %s_before for %d: %v", cat, m.ID, err)
	}

	err := o.deps.Ledger.UpdateBalance(ctx, m.ID, model.BalanceDelta{Cash: -cashPart, Bank: -bankPart}, reason)
	if err != nil {
		rep.Failed = true
		if errors.Is(err, ledger.ErrRejected) {
			// Sufficiency was checked above, so a rejection means the
			// external state drifted between read and write.
			rep.add("Ledger REJECTED %s deduction despite sufficient funds: %v", cat, err)
		} else {
			rep.add("Ledger unavailable for %s deduction: %v", cat, err)
		}
		o.recordBilling(m, cat, amount, before.Cash, before.Bank, before.Cash, before.Bank, "failed", opts, err.Error())
		return deductFailed
	}

	*cash -= cashPart
	*bank -= bankPart
	rep.Charged += amount
	rep.add("Deducted $%d for %s (Cash: $%d, Bank: $%d). Balance now $%d.", amount, cat, cashPart, bankPart, *cash+*bank)

	if _, err := o.deps.Snapshots.Append(m.ID, string(cat)+"_after", model.Balance{Cash: *cash, Bank: *bank}); err != nil {
		logf("[ERROR] snapshot %s_after for %d: %v", cat, m.ID, err)
	}
	if cat == CategoryHousing || cat == CategoryBusiness {
		o.notify(ctx, NoticeRent, fmt.Sprintf("%s — %s paid: $%d", m.Name, reason, amount))
	}
	o.recordBilling(m, cat, amount, before.Cash, before.Bank, *cash, *bank, "charged", opts, "")
	return deductCharged
}

func (o *Orchestrator) sendInsufficiencyNotice(ctx context.Context, m model.Member, cat Category, amount int, opts Options) {
	if opts.DryRun {
		return
	}
	switch cat {
	case CategoryHousing, CategoryBusiness:
		o.notify(ctx, NoticeEviction, fmt.Sprintf(
			"%s — %s rent due: $%d — FAILED (insufficient funds). You have 7 days to pay or face eviction.",
			m.Name, cat, amount))
	case CategoryTrauma:
		o.notify(ctx, NoticeRent, fmt.Sprintf(
			"%s — Trauma Team payment of $%d failed. Subscription suspended.", m.Name, amount))
	case CategoryCyberware:
		o.notify(ctx, NoticeRent, fmt.Sprintf(
			"%s — could not pay $%d for cyberware meds. Seek a ripperdoc immediately.", m.Name, amount))
	}
}

// processCyberware advances the member's checkup streak and charges the
// escalated medication cost when the checkup role was kept all week.
func (o *Orchestrator) processCyberware(ctx context.Context, rep *MemberReport, m model.Member,
	opts Options, cash, bank *int) {

	if !o.deps.Toggles.Enabled("cyberware") {
		rep.add("cyberware system disabled — skipping.")
		return
	}
	entry, had := o.deps.Streaks.Get(m.ID)
	res := streak.Advance(m, entry, 1, o.now())

	switch {
	case res.Dropped:
		if had {
			rep.add("No maintenance tier roles remain — streak cleared.")
			if !opts.DryRun {
				if err := o.deps.Streaks.Remove(m.ID); err != nil {
					logf("[ERROR] remove streak for %d: %v", m.ID, err)
				}
			}
		}
	case res.GrantCheckup:
		if opts.DryRun {
			rep.add("would grant checkup role and reset streak — no charge.")
			return
		}
		rep.add("Checkup complete — streak reset, checkup role granted, no charge.")
		if err := o.deps.Adapter.GrantRole(ctx, m.ID, model.RoleCyberCheckup); err != nil {
			logf("[ERROR] grant checkup role to %d: %v", m.ID, err)
		}
		if err := o.deps.Streaks.Set(m.ID, res.Entry); err != nil {
			logf("[ERROR] persist streak for %d: %v", m.ID, err)
		}
	default:
		cost := economy.EscalationCost(m.CyberLevel(), res.Entry.Weeks)
		rep.add("Cyberware meds week %d → $%d", res.Entry.Weeks, cost)
		outcome := o.deductCategory(ctx, rep, m, opts, CategoryCyberware, cost, "Cyberware medication", cash, bank)
		if outcome == deductSkipped {
			// Already collected inside the window (or the category is
			// off): a repeat invocation must not inflate the streak.
			return
		}
		// The weeks passed whether or not the charge landed.
		if !opts.DryRun {
			if err := o.deps.Streaks.Set(m.ID, res.Entry); err != nil {
				logf("[ERROR] persist streak for %d: %v", m.ID, err)
			}
		}
	}
}

// applyPassiveIncome credits business income scaled by this month's
// logged shop openings before any rent is deducted.
func (o *Orchestrator) applyPassiveIncome(ctx context.Context, rep *MemberReport, m model.Member,
	opts Options, cash int) int {

	roles := m.BusinessRoles()
	if len(roles) == 0 {
		return cash
	}
	opens := o.deps.Opens.OpenCount(m.ID, o.now())
	total := 0
	for _, role := range roles {
		income := economy.PassiveIncome(role, opens)
		if income > 0 {
			rep.add("Passive income for %s: $%d (%d opens)", role, income, opens)
		}
		total += income
	}
	if total == 0 {
		return cash
	}
	if opts.DryRun {
		rep.add("would credit $%d passive income.", total)
		return cash + total
	}
	if err := o.deps.Ledger.UpdateBalance(ctx, m.ID, model.BalanceDelta{Cash: total}, "Passive income"); err != nil {
		rep.add("Failed to credit passive income: %v", err)
		return cash
	}
	rep.add("Added $%d passive income.", total)
	if err := o.deps.Recorder.RecordIncome(&recorder.IncomeEvent{MemberID: m.ID, Source: "passive", Amount: total}); err != nil {
		logf("[ERROR] record income for %d: %v", m.ID, err)
	}
	return cash + total
}

// Preview computes what a member currently owes without touching the
// ledger. It shares DueList with the collection path, so the preview and
// the following collection always agree.
func (o *Orchestrator) Preview(m model.Member) []model.Obligation {
	entry, _ := o.deps.Streaks.Get(m.ID)
	return economy.DueList(m, entry)
}

func (o *Orchestrator) recordBilling(m model.Member, cat Category, amount, cashBefore, bankBefore,
	cashAfter, bankAfter int, outcome string, opts Options, note string) {

	err := o.deps.Recorder.RecordBilling(&recorder.BillingEvent{
		MemberID:   m.ID,
		Category:   string(cat),
		Amount:     amount,
		CashBefore: cashBefore,
		BankBefore: bankBefore,
		CashAfter:  cashAfter,
		BankAfter:  bankAfter,
		Outcome:    outcome,
		DryRun:     opts.DryRun,
		Note:       note,
	})
	if err != nil {
		logf("[ERROR] record billing event for %d: %v", m.ID, err)
	}
}

func (o *Orchestrator) notify(ctx context.Context, purpose, message string) {
	if err := o.deps.Adapter.Notify(ctx, purpose, message); err != nil {
		logf("[ERROR] notify %s: %v", purpose, err)
	}
}

// RunWeeklyMaintenance runs only the cyberware category across the
// community; the weekly scheduler tick calls this every Saturday.
func (o *Orchestrator) RunWeeklyMaintenance(ctx context.Context, dryRun bool) (*CycleReport, error) {
	return o.RunCycle(ctx, Options{DryRun: dryRun, Categories: []Category{CategoryCyberware}})
}

func logf(format string, args ...any) {
	log.Printf(format, args...)
}
