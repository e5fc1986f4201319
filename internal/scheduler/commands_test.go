package scheduler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/CynthiaArdman-Appomni/NightCityBot/internal/billing"
	"github.com/CynthiaArdman-Appomni/NightCityBot/internal/discord"
	"github.com/CynthiaArdman-Appomni/NightCityBot/internal/model"
	"github.com/CynthiaArdman-Appomni/NightCityBot/internal/store"
)

type fakeLedger struct {
	mu      sync.Mutex
	updates int
}

func (f *fakeLedger) GetBalance(_ context.Context, _ int64) (model.Balance, error) {
	return model.Balance{Cash: 5000, Bank: 1000}, nil
}

func (f *fakeLedger) UpdateBalance(_ context.Context, _ int64, _ model.BalanceDelta, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates++
	return nil
}

func (f *fakeLedger) VerifyRoundTrip(_ context.Context, _ int64) bool { return true }

// guildAPI serves just enough of the Discord REST surface for Member and
// role resolution.
func guildAPI(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/guilds/g1/roles":
			fmt.Fprint(w, `[
				{"id":"r1","name":"Fixer"},
				{"id":"r2","name":"Approved"},
				{"id":"r3","name":"Housing Tier 1"},
				{"id":"r4","name":"Trauma Team Silver"}
			]`)
		case "/guilds/g1/members/1":
			fmt.Fprint(w, `{"user":{"id":"1","username":"fixer"},"roles":["r1","r2"]}`)
		case "/guilds/g1/members/2":
			fmt.Fprint(w, `{"user":{"id":"2","username":"tenant"},"roles":["r2","r3","r4"]}`)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestScheduler(t *testing.T, fl billing.Ledger) *Scheduler {
	t.Helper()
	srv := guildAPI(t)
	session := discord.NewSession("tok", "")
	session.BaseURL = srv.URL
	adapter := discord.NewAdapter(session, "g1", nil)

	dir := t.TempDir()
	streaks, err := store.OpenStreakStore(filepath.Join(dir, "streaks.json"))
	if err != nil {
		t.Fatal(err)
	}
	snaps, err := store.OpenSnapshotLog(filepath.Join(dir, "snapshots.json"))
	if err != nil {
		t.Fatal(err)
	}
	cycle, err := store.OpenCycleStore(filepath.Join(dir, "cycle.json"))
	if err != nil {
		t.Fatal(err)
	}
	opens, err := store.OpenActivityLog(filepath.Join(dir, "opens.json"))
	if err != nil {
		t.Fatal(err)
	}
	attends, err := store.OpenActivityLog(filepath.Join(dir, "attendance.json"))
	if err != nil {
		t.Fatal(err)
	}
	toggles, err := store.OpenToggles(filepath.Join(dir, "systems.json"))
	if err != nil {
		t.Fatal(err)
	}
	summaries, err := store.OpenSummaryStore(filepath.Join(dir, "last_payments.json"))
	if err != nil {
		t.Fatal(err)
	}

	orc := billing.New(billing.Deps{
		Ledger:    fl,
		Adapter:   adapter,
		Streaks:   streaks,
		Snapshots: snaps,
		Cycle:     cycle,
		Opens:     opens,
		Toggles:   toggles,
		Summaries: summaries,
		BackupDir: filepath.Join(dir, "backups"),
	})
	return NewScheduler(context.Background(), Deps{
		Orchestrator: orc,
		Adapter:      adapter,
		Ledger:       fl,
		Opens:        opens,
		Attends:      attends,
		Toggles:      toggles,
		Summary:      summaries,
	})
}

func TestHandleMessage_IgnoresNonCommands(t *testing.T) {
	s := newTestScheduler(t, &fakeLedger{})
	if got := s.HandleMessage(discord.IncomingMessage{AuthorID: 1, Content: "just chatting"}); got != "" {
		t.Errorf("expected no reply, got %q", got)
	}
}

func TestHandleMessage_CollectRequiresFixer(t *testing.T) {
	s := newTestScheduler(t, &fakeLedger{})
	got := s.HandleMessage(discord.IncomingMessage{AuthorID: 2, Content: "!collectrent"})
	if !strings.Contains(got, "Only Fixers") {
		t.Errorf("expected permission refusal, got %q", got)
	}
}

func TestHandleMessage_DueListsObligations(t *testing.T) {
	s := newTestScheduler(t, &fakeLedger{})
	got := s.HandleMessage(discord.IncomingMessage{AuthorID: 2, Content: "!due"})
	// Baseline 500 + Housing Tier 1 1000 + Trauma Silver 1000.
	if !strings.Contains(got, "Total: $2500") {
		t.Errorf("unexpected due reply: %q", got)
	}
}

func TestHandleMessage_DueForOthersNeedsFixer(t *testing.T) {
	s := newTestScheduler(t, &fakeLedger{})
	got := s.HandleMessage(discord.IncomingMessage{AuthorID: 2, Content: "!due <@1>"})
	if !strings.Contains(got, "Only Fixers") {
		t.Errorf("expected refusal, got %q", got)
	}
	got = s.HandleMessage(discord.IncomingMessage{AuthorID: 1, Content: "!due <@2>"})
	if !strings.Contains(got, "Total: $2500") {
		t.Errorf("fixer should see the target's dues: %q", got)
	}
}

func TestHandleMessage_SimulateRentTargeted(t *testing.T) {
	fl := &fakeLedger{}
	s := newTestScheduler(t, fl)
	got := s.HandleMessage(discord.IncomingMessage{AuthorID: 1, Content: "!simulaterent <@2>"})
	if !strings.Contains(got, "would deduct") {
		t.Errorf("dry run reply should list would-deduct lines: %q", got)
	}
	if fl.updates != 0 {
		t.Errorf("simulation must not touch the ledger, got %d updates", fl.updates)
	}
}

func TestHandleMessage_CollectRentTargeted(t *testing.T) {
	fl := &fakeLedger{}
	s := newTestScheduler(t, fl)
	got := s.HandleMessage(discord.IncomingMessage{AuthorID: 1, Content: "!collectrent <@2>"})
	if !strings.Contains(got, "Deducted") {
		t.Errorf("expected deduction lines: %q", got)
	}
	if fl.updates == 0 {
		t.Error("committed run should update the ledger")
	}
}

func TestHandleMessage_LastBill(t *testing.T) {
	fl := &fakeLedger{}
	s := newTestScheduler(t, fl)

	got := s.HandleMessage(discord.IncomingMessage{AuthorID: 2, Content: "!lastbill"})
	if !strings.Contains(got, "No recorded payments") {
		t.Errorf("expected empty-history reply, got %q", got)
	}

	s.HandleMessage(discord.IncomingMessage{AuthorID: 1, Content: "!collectrent <@2>"})

	got = s.HandleMessage(discord.IncomingMessage{AuthorID: 2, Content: "!lastbill"})
	if !strings.Contains(got, "Last payment for") || !strings.Contains(got, "Total charged: $") {
		t.Errorf("expected persisted payment summary, got %q", got)
	}

	got = s.HandleMessage(discord.IncomingMessage{AuthorID: 2, Content: "!lastbill <@1>"})
	if !strings.Contains(got, "Only Fixers") {
		t.Errorf("expected refusal, got %q", got)
	}
}

func TestHandleMessage_SystemToggles(t *testing.T) {
	s := newTestScheduler(t, &fakeLedger{})

	got := s.HandleMessage(discord.IncomingMessage{AuthorID: 1, Content: "!disablesystem housing_rent"})
	if !strings.Contains(got, "disabled") {
		t.Errorf("unexpected toggle reply: %q", got)
	}
	if s.Toggles.Enabled("housing_rent") {
		t.Error("toggle should be off")
	}

	got = s.HandleMessage(discord.IncomingMessage{AuthorID: 1, Content: "!enablesystem no_such_system"})
	if !strings.Contains(got, "Unknown system") {
		t.Errorf("unexpected reply for unknown system: %q", got)
	}

	got = s.HandleMessage(discord.IncomingMessage{AuthorID: 2, Content: "!systemstatus"})
	if !strings.Contains(got, "Only Fixers") {
		t.Errorf("systemstatus should be fixer-only: %q", got)
	}
}

func TestHandleMessage_OpenShopNeedsBusinessRole(t *testing.T) {
	s := newTestScheduler(t, &fakeLedger{})
	got := s.HandleMessage(discord.IncomingMessage{AuthorID: 2, Content: "!openshop"})
	if !strings.Contains(got, "business role") {
		t.Errorf("expected business role requirement, got %q", got)
	}
}

func TestParseArgs_FlagsAndMention(t *testing.T) {
	s := newTestScheduler(t, &fakeLedger{})
	inv, err := s.parseArgs([]string{"-v", "<@2>", "-force", "somelabel"})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !inv.verbose || !inv.force || inv.dry {
		t.Errorf("flags wrong: %+v", inv)
	}
	if inv.target == nil || inv.target.ID != 2 {
		t.Errorf("target wrong: %+v", inv.target)
	}
	if len(inv.words) != 1 || inv.words[0] != "somelabel" {
		t.Errorf("words wrong: %v", inv.words)
	}

	if _, err := s.parseArgs([]string{"<@999>"}); err == nil {
		t.Error("expected error for unresolvable mention")
	}
}
