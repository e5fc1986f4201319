package scheduler

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/CynthiaArdman-Appomni/NightCityBot/internal/billing"
	"github.com/CynthiaArdman-Appomni/NightCityBot/internal/discord"
	"github.com/CynthiaArdman-Appomni/NightCityBot/internal/economy"
	"github.com/CynthiaArdman-Appomni/NightCityBot/internal/model"
	"github.com/CynthiaArdman-Appomni/NightCityBot/internal/recorder"
)

const commandPrefix = "!"

const helpText = `Available commands:
• !collectrent [@user] [-v] [-force] — run the full billing cycle (Fixer)
• !collecthousing / !collectbusiness / !collecttrauma / !collectcyberware — one category (Fixer)
• !simulaterent [@user] — dry-run the cycle, no balances touched (Fixer)
• !due [@user] — list current obligations
• !lastbill [@user] — show the last recorded payment breakdown
• !openshop — log a Sunday shop opening for your business
• !attend — log Sunday attendance for the flat reward
• !startloa / !endloa — toggle your leave-of-absence status
• !checkup @user — clear a completed cyberware checkup (Ripperdoc)
• !backupbalances — snapshot everyone's balances to a file (Fixer)
• !restorebalance @user <label> — restore a balance from a labeled snapshot (Fixer)
• !restorefile <file> — restore all balances from a backup file (Fixer)
• !enablesystem / !disablesystem <name>, !systemstatus — billing system toggles (Fixer)`

// invocation is the parsed flag/mention set of one command message.
type invocation struct {
	verbose bool
	force   bool
	dry     bool
	target  *model.Member
	words   []string // args that were neither flags nor mentions
}

// HandleMessage parses and executes one chat command. The returned
// string, if non-empty, is sent back to the originating channel.
func (s *Scheduler) HandleMessage(msg discord.IncomingMessage) string {
	text := strings.TrimSpace(msg.Content)
	if !strings.HasPrefix(text, commandPrefix) {
		return ""
	}
	fields := strings.Fields(text)
	cmd := strings.ToLower(strings.TrimPrefix(fields[0], commandPrefix))

	invoker, err := s.Adapter.Member(s.Ctx, msg.AuthorID)
	if err != nil {
		log.Printf("[ERROR] resolve command author %d: %v", msg.AuthorID, err)
		return "Could not resolve your member record, try again."
	}

	inv, err := s.parseArgs(fields[1:])
	if err != nil {
		return err.Error()
	}

	switch cmd {
	case "collectrent":
		return s.runCollect(invoker, inv, nil)
	case "collecthousing":
		return s.runCollect(invoker, inv, []billing.Category{billing.CategoryHousing})
	case "collectbusiness":
		return s.runCollect(invoker, inv, []billing.Category{billing.CategoryBusiness})
	case "collecttrauma":
		return s.runCollect(invoker, inv, []billing.Category{billing.CategoryTrauma})
	case "collectcyberware":
		return s.runCollect(invoker, inv, []billing.Category{billing.CategoryCyberware})
	case "simulaterent":
		inv.dry = true
		return s.runCollect(invoker, inv, nil)
	case "due":
		return s.cmdDue(invoker, inv)
	case "lastbill":
		return s.cmdLastBill(invoker, inv)
	case "openshop":
		return s.cmdOpenShop(invoker)
	case "attend":
		return s.cmdAttend(invoker)
	case "startloa":
		return s.cmdSetLeave(invoker, true)
	case "endloa":
		return s.cmdSetLeave(invoker, false)
	case "checkup":
		return s.cmdCheckup(invoker, inv)
	case "backupbalances":
		return s.cmdBackup(invoker)
	case "restorebalance":
		return s.cmdRestoreLabel(invoker, inv)
	case "restorefile":
		return s.cmdRestoreFile(invoker, inv)
	case "enablesystem":
		return s.cmdToggle(invoker, inv, true)
	case "disablesystem":
		return s.cmdToggle(invoker, inv, false)
	case "systemstatus":
		return s.cmdSystemStatus(invoker)
	case "help":
		return helpText
	default:
		return ""
	}
}

func (s *Scheduler) parseArgs(args []string) (invocation, error) {
	var inv invocation
	for _, arg := range args {
		switch {
		case arg == "-v":
			inv.verbose = true
		case arg == "-force":
			inv.force = true
		case arg == "-dry":
			inv.dry = true
		case strings.HasPrefix(arg, "<@"):
			id, err := discord.ParseMention(arg)
			if err != nil {
				return inv, fmt.Errorf("bad mention %q", arg)
			}
			m, err := s.Adapter.Member(s.Ctx, id)
			if err != nil {
				return inv, fmt.Errorf("member <@%d> not found", id)
			}
			inv.target = &m
		default:
			inv.words = append(inv.words, arg)
		}
	}
	return inv, nil
}

func (s *Scheduler) runCollect(invoker model.Member, inv invocation, cats []billing.Category) string {
	if !invoker.HasRole(model.RoleFixer) {
		return "Only Fixers can run collections."
	}
	opts := billing.Options{
		DryRun:     inv.dry,
		Verbose:    inv.verbose,
		Force:      inv.force,
		Target:     inv.target,
		Categories: cats,
	}
	report, err := s.Orc.RunCycle(s.Ctx, opts)
	if err != nil {
		switch {
		case errors.Is(err, billing.ErrCooldownActive):
			return fmt.Sprintf("Collection is on cooldown (%v). Use -force to override.", err)
		case errors.Is(err, billing.ErrCycleAlreadyRunning):
			return "A collection run is already in progress."
		case errors.Is(err, billing.ErrNoMembers):
			return "No approved members with billable roles found."
		default:
			log.Printf("[ERROR] collection run: %v", err)
			return fmt.Sprintf("Collection failed: %v", err)
		}
	}
	if inv.target != nil {
		var b strings.Builder
		for _, r := range report.Reports {
			for _, line := range r.Lines {
				b.WriteString(line)
				b.WriteByte('\n')
			}
		}
		return strings.TrimRight(b.String(), "\n")
	}
	return report.Summary()
}

func (s *Scheduler) cmdDue(invoker model.Member, inv invocation) string {
	m := invoker
	if inv.target != nil {
		if !invoker.HasRole(model.RoleFixer) {
			return "Only Fixers can inspect other members' obligations."
		}
		m = *inv.target
	}
	dues := s.Orc.Preview(m)
	if len(dues) == 0 {
		return fmt.Sprintf("%s has no recurring obligations.", m.Name)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Obligations for %s:\n", m.Name)
	for _, d := range dues {
		fmt.Fprintf(&b, "• %s: $%d\n", d.Name, d.Amount)
	}
	fmt.Fprintf(&b, "Total: $%d", economy.DueTotal(dues))
	return b.String()
}

func (s *Scheduler) cmdLastBill(invoker model.Member, inv invocation) string {
	m := invoker
	if inv.target != nil {
		if !invoker.HasRole(model.RoleFixer) {
			return "Only Fixers can inspect other members' payment history."
		}
		m = *inv.target
	}
	summary, ok := s.Summary.Get(m.ID)
	if !ok {
		return fmt.Sprintf("No recorded payments for %s yet.", m.Name)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Last payment for %s (%s):\n", m.Name, summary.Timestamp.Format("2006-01-02 15:04 MST"))
	for _, line := range summary.Lines {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "Total charged: $%d", summary.Charged)
	return b.String()
}

func (s *Scheduler) cmdOpenShop(m model.Member) string {
	if !s.Toggles.Enabled("open_shop") {
		return "Shop openings are currently disabled."
	}
	roles := m.BusinessRoles()
	if len(roles) == 0 {
		return "You need a business role to open a shop."
	}
	now := time.Now()
	reward := 0
	err := s.Opens.Record(m.ID, now, func(existing []time.Time) error {
		if now.Weekday() != time.Sunday {
			return errors.New("Shops can only be opened on Sundays.")
		}
		opensBefore := 0
		for _, t := range existing {
			if t.Year() == now.Year() && t.Month() == now.Month() {
				opensBefore++
			}
			if sameDay(t, now) {
				return errors.New("You already opened your shop today.")
			}
		}
		reward = economy.OpenReward(roles, opensBefore)
		return nil
	})
	if err != nil {
		return err.Error()
	}
	if reward > 0 {
		if err := s.Ledger.UpdateBalance(s.Ctx, m.ID, model.BalanceDelta{Cash: reward}, "Shop opening reward"); err != nil {
			log.Printf("[ERROR] pay open reward to %d: %v", m.ID, err)
			return "Opening logged, but the reward payout failed. Ping a Fixer."
		}
		s.recordIncome(m.ID, "open_shop", reward)
	}
	return fmt.Sprintf("Shop opening logged. Reward: $%d.", reward)
}

func (s *Scheduler) cmdAttend(m model.Member) string {
	if !s.Toggles.Enabled("attend") {
		return "Attendance rewards are currently disabled."
	}
	now := time.Now()
	err := s.Attends.Record(m.ID, now, func(existing []time.Time) error {
		if now.Weekday() != time.Sunday {
			return errors.New("Attendance can only be logged on Sundays.")
		}
		for _, t := range existing {
			if now.Sub(t) < 7*24*time.Hour {
				return errors.New("You already logged attendance this week.")
			}
		}
		return nil
	})
	if err != nil {
		return err.Error()
	}
	if err := s.Ledger.UpdateBalance(s.Ctx, m.ID, model.BalanceDelta{Cash: model.AttendReward}, "Sunday attendance"); err != nil {
		log.Printf("[ERROR] pay attend reward to %d: %v", m.ID, err)
		return "Attendance logged, but the reward payout failed. Ping a Fixer."
	}
	s.recordIncome(m.ID, "attend", model.AttendReward)
	return fmt.Sprintf("Attendance logged. $%d paid out.", model.AttendReward)
}

func (s *Scheduler) cmdSetLeave(m model.Member, start bool) string {
	if !s.Toggles.Enabled("loa") {
		return "LOA changes are currently disabled."
	}
	if start {
		if m.OnLeave() {
			return "You are already on LOA."
		}
		if err := s.Adapter.GrantRole(s.Ctx, m.ID, model.RoleLOA); err != nil {
			log.Printf("[ERROR] grant LOA to %d: %v", m.ID, err)
			return "Could not set your LOA status."
		}
		return "LOA started. Baseline, housing, and medical charges are paused; business rent still applies."
	}
	if !m.OnLeave() {
		return "You are not on LOA."
	}
	if err := s.Adapter.RevokeRole(s.Ctx, m.ID, model.RoleLOA); err != nil {
		log.Printf("[ERROR] revoke LOA from %d: %v", m.ID, err)
		return "Could not clear your LOA status."
	}
	return "Welcome back. Regular billing resumes next cycle."
}

func (s *Scheduler) cmdCheckup(invoker model.Member, inv invocation) string {
	if !invoker.HasRole(model.RoleRipperdoc) {
		return "Only Ripperdocs can sign off checkups."
	}
	if inv.target == nil {
		return "Mention the patient: !checkup @user"
	}
	t := inv.target
	if !t.CheckupPending() {
		return fmt.Sprintf("%s has no pending checkup.", t.Name)
	}
	if err := s.Adapter.RevokeRole(s.Ctx, t.ID, model.RoleCyberCheckup); err != nil {
		log.Printf("[ERROR] clear checkup for %d: %v", t.ID, err)
		return "Could not clear the checkup role."
	}
	return fmt.Sprintf("Checkup recorded for %s. Their medication streak resets on the next maintenance pass.", t.Name)
}

func (s *Scheduler) cmdBackup(invoker model.Member) string {
	if !invoker.HasRole(model.RoleFixer) {
		return "Only Fixers can back up balances."
	}
	members, err := s.Adapter.Members(s.Ctx)
	if err != nil {
		log.Printf("[ERROR] resolve members for backup: %v", err)
		return "Could not resolve the member list."
	}
	path, err := s.Orc.BackupBalances(s.Ctx, members)
	if err != nil {
		log.Printf("[ERROR] backup balances: %v", err)
		return fmt.Sprintf("Backup failed: %v", err)
	}
	return fmt.Sprintf("Balances backed up to %s (%d members).", path, len(members))
}

func (s *Scheduler) cmdRestoreLabel(invoker model.Member, inv invocation) string {
	if !invoker.HasRole(model.RoleFixer) {
		return "Only Fixers can restore balances."
	}
	if inv.target == nil || len(inv.words) == 0 {
		return "Usage: !restorebalance @user <snapshot-label>"
	}
	line, err := s.Orc.RestoreFromLabel(s.Ctx, *inv.target, inv.words[0])
	if err != nil {
		return fmt.Sprintf("Restore failed: %v", err)
	}
	return line
}

func (s *Scheduler) cmdRestoreFile(invoker model.Member, inv invocation) string {
	if !invoker.HasRole(model.RoleFixer) {
		return "Only Fixers can restore balances."
	}
	if len(inv.words) == 0 {
		return "Usage: !restorefile <backup-file>"
	}
	lines, err := s.Orc.RestoreFromFile(s.Ctx, inv.words[0])
	if err != nil {
		return fmt.Sprintf("Restore failed: %v", err)
	}
	return strings.Join(lines, "\n")
}

func (s *Scheduler) cmdToggle(invoker model.Member, inv invocation, enable bool) string {
	if !invoker.HasRole(model.RoleFixer) {
		return "Only Fixers can change system toggles."
	}
	if len(inv.words) == 0 {
		return "Name a system, e.g. !disablesystem housing_rent"
	}
	name := inv.words[0]
	known, err := s.Toggles.Set(name, enable)
	if err != nil {
		log.Printf("[ERROR] persist toggle %s: %v", name, err)
		return "Could not persist the toggle."
	}
	if !known {
		return fmt.Sprintf("Unknown system %q. See !systemstatus for the list.", name)
	}
	state := "disabled"
	if enable {
		state = "enabled"
	}
	return fmt.Sprintf("System %s is now %s.", name, state)
}

func (s *Scheduler) cmdSystemStatus(invoker model.Member) string {
	if !invoker.HasRole(model.RoleFixer) {
		return "Only Fixers can inspect system toggles."
	}
	status := s.Toggles.Status()
	names := make([]string, 0, len(status))
	for name := range status {
		names = append(names, name)
	}
	sort.Strings(names)
	var b strings.Builder
	b.WriteString("Billing systems:\n")
	for _, name := range names {
		mark := "❌"
		if status[name] {
			mark = "✅"
		}
		fmt.Fprintf(&b, "%s %s\n", mark, name)
	}
	return strings.TrimRight(b.String(), "\n")
}

func (s *Scheduler) recordIncome(memberID int64, source string, amount int) {
	if err := s.Recorder.RecordIncome(&recorder.IncomeEvent{MemberID: memberID, Source: source, Amount: amount}); err != nil {
		log.Printf("[ERROR] record %s income for %d: %v", source, memberID, err)
	}
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
