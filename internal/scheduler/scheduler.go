// Package scheduler owns the cron cadence of the billing engine and the
// chat command surface that drives it manually.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/CynthiaArdman-Appomni/NightCityBot/internal/billing"
	"github.com/CynthiaArdman-Appomni/NightCityBot/internal/discord"
	"github.com/CynthiaArdman-Appomni/NightCityBot/internal/recorder"
	"github.com/CynthiaArdman-Appomni/NightCityBot/internal/store"

	"github.com/robfig/cron/v3"
)

// Scheduler manages all cron tasks.
type Scheduler struct {
	Cron     *cron.Cron
	Orc      *billing.Orchestrator
	Adapter  *discord.Adapter
	Ledger   billing.Ledger
	Opens    *store.ActivityLog
	Attends  *store.ActivityLog
	Toggles  *store.Toggles
	Summary  *store.SummaryStore
	Recorder recorder.Recorder
	Ctx      context.Context
}

// Deps carries the collaborators a Scheduler needs. Recorder defaults to
// a no-op when nil.
type Deps struct {
	Orchestrator *billing.Orchestrator
	Adapter      *discord.Adapter
	Ledger       billing.Ledger
	Opens        *store.ActivityLog
	Attends      *store.ActivityLog
	Toggles      *store.Toggles
	Summary      *store.SummaryStore
	Recorder     recorder.Recorder
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, d Deps) *Scheduler {
	if d.Recorder == nil {
		d.Recorder = recorder.NewNoopRecorder()
	}
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds()),
		Orc:      d.Orchestrator,
		Adapter:  d.Adapter,
		Ledger:   d.Ledger,
		Opens:    d.Opens,
		Attends:  d.Attends,
		Toggles:  d.Toggles,
		Summary:  d.Summary,
		Recorder: d.Recorder,
		Ctx:      ctx,
	}
}

// RegisterAll registers the monthly billing cycle and the weekly
// cyberware maintenance pass.
func (s *Scheduler) RegisterAll(monthlyCron, weeklyCron string) error {
	if _, err := s.Cron.AddFunc(monthlyCron, s.monthlyTask); err != nil {
		return fmt.Errorf("register monthly task: %w", err)
	}
	if _, err := s.Cron.AddFunc(weeklyCron, s.weeklyTask); err != nil {
		return fmt.Errorf("register weekly task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	s.Cron.Stop()
	log.Println("[INFO] scheduler stopped")
}

// RunMonthlyNow executes the monthly billing cycle immediately.
func (s *Scheduler) RunMonthlyNow() {
	s.monthlyTask()
}

func (s *Scheduler) monthlyTask() {
	log.Println("[INFO] running monthly billing cycle")
	report, err := s.Orc.RunCycle(s.Ctx, billing.Options{})
	if err != nil {
		if errors.Is(err, billing.ErrCooldownActive) {
			log.Printf("[WARN] monthly cycle skipped: %v", err)
			return
		}
		log.Printf("[ERROR] monthly cycle: %v", err)
		s.tryNotify(billing.NoticeAdmin, fmt.Sprintf("Monthly billing cycle failed: %v", err))
		return
	}
	s.tryNotify(billing.NoticeAdmin, report.Summary())

	if err := s.Orc.ArchiveBackups(); err != nil {
		log.Printf("[ERROR] archive backups: %v", err)
	}
}

func (s *Scheduler) weeklyTask() {
	log.Println("[INFO] running weekly cyberware maintenance")
	report, err := s.Orc.RunWeeklyMaintenance(s.Ctx, false)
	if err != nil {
		log.Printf("[ERROR] weekly maintenance: %v", err)
		return
	}
	s.tryNotify(billing.NoticeAdmin, report.Summary())
}

func (s *Scheduler) tryNotify(purpose, text string) {
	if err := s.Adapter.Notify(s.Ctx, purpose, text); err != nil {
		log.Printf("[ERROR] send notification: %v", err)
	}
}
