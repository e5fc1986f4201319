package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/CynthiaArdman-Appomni/NightCityBot/internal/billing"
	"github.com/CynthiaArdman-Appomni/NightCityBot/internal/config"
	"github.com/CynthiaArdman-Appomni/NightCityBot/internal/discord"
	"github.com/CynthiaArdman-Appomni/NightCityBot/internal/ledger"
	"github.com/CynthiaArdman-Appomni/NightCityBot/internal/recorder"
	"github.com/CynthiaArdman-Appomni/NightCityBot/internal/scheduler"
	"github.com/CynthiaArdman-Appomni/NightCityBot/internal/store"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] NightCityBot starting...")

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	// Ledger client
	lc := ledger.NewClient(cfg.Ledger.BaseURL, cfg.Ledger.APIToken)

	// Discord session + guild adapter
	session := discord.NewSession(cfg.Discord.BotToken, cfg.Proxy)
	adapter := discord.NewAdapter(session, cfg.Discord.GuildID, map[string]string{
		billing.NoticeRent:     cfg.Discord.Channels.RentLog,
		billing.NoticeEviction: cfg.Discord.Channels.Eviction,
		billing.NoticeAdmin:    cfg.Discord.Channels.Admin,
	})

	// Persistent state
	streaks, err := store.OpenStreakStore(cfg.StatePath("streaks.json"))
	if err != nil {
		log.Fatalf("[FATAL] open streak store: %v", err)
	}
	snaps, err := store.OpenSnapshotLog(cfg.StatePath("balance_snapshots.json"))
	if err != nil {
		log.Fatalf("[FATAL] open snapshot log: %v", err)
	}
	cycle, err := store.OpenCycleStore(cfg.StatePath("billing_cycle.json"))
	if err != nil {
		log.Fatalf("[FATAL] open cycle store: %v", err)
	}
	opens, err := store.OpenActivityLog(cfg.StatePath("open_history.json"))
	if err != nil {
		log.Fatalf("[FATAL] open shop activity log: %v", err)
	}
	attends, err := store.OpenActivityLog(cfg.StatePath("attendance.json"))
	if err != nil {
		log.Fatalf("[FATAL] open attendance log: %v", err)
	}
	toggles, err := store.OpenToggles(cfg.StatePath("systems.json"))
	if err != nil {
		log.Fatalf("[FATAL] open toggles: %v", err)
	}
	summaries, err := store.OpenSummaryStore(cfg.StatePath("last_payments.json"))
	if err != nil {
		log.Fatalf("[FATAL] open payment summaries: %v", err)
	}
	audit, err := store.NewAuditLog(cfg.Data.AuditDir)
	if err != nil {
		log.Fatalf("[FATAL] open audit log: %v", err)
	}

	// Recorder
	var rec recorder.Recorder
	if cfg.Data.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Data.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	// Billing orchestrator
	orc := billing.New(billing.Deps{
		Ledger:    lc,
		Adapter:   adapter,
		Streaks:   streaks,
		Snapshots: snaps,
		Cycle:     cycle,
		Opens:     opens,
		Toggles:   toggles,
		Recorder:  rec,
		Audit:     audit,
		Summaries: summaries,
		BackupDir: cfg.Data.BackupDir,
	})

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Scheduler + command dispatch
	sched := scheduler.NewScheduler(ctx, scheduler.Deps{
		Orchestrator: orc,
		Adapter:      adapter,
		Ledger:       lc,
		Opens:        opens,
		Attends:      attends,
		Toggles:      toggles,
		Summary:      summaries,
		Recorder:     rec,
	})
	if err := sched.RegisterAll(cfg.Schedule.MonthlyCron, cfg.Schedule.WeeklyCron); err != nil {
		log.Fatalf("[FATAL] register cron tasks: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	// Gateway event stream
	gateway := discord.NewGateway(session, sched.HandleMessage)
	go gateway.Run(ctx)
	log.Println("[INFO] gateway client started")

	// Optional: run immediately on start
	if os.Getenv("RUN_ON_START") == "true" {
		log.Println("[INFO] RUN_ON_START enabled, executing billing cycle now")
		go sched.RunMonthlyNow()
	}

	log.Println("[INFO] NightCityBot is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[INFO] shutdown signal received, stopping...")
	cancel()
	log.Println("[INFO] NightCityBot stopped")
}
