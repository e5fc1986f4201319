package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoad_FileWithDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
discord:
  bot_token: tok
  guild_id: g1
  channels:
    rent_log: c1
    eviction: c2
ledger:
  base_url: http://ledger.local
  api_token: secret
data:
  dir: /var/lib/ncb
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Discord.BotToken != "tok" || cfg.Discord.GuildID != "g1" {
		t.Errorf("discord block not parsed: %+v", cfg.Discord)
	}
	if cfg.Discord.Channels.RentLog != "c1" || cfg.Discord.Channels.Eviction != "c2" {
		t.Errorf("channels not parsed: %+v", cfg.Discord.Channels)
	}
	if cfg.Schedule.MonthlyCron != "0 0 18 1 * *" {
		t.Errorf("monthly cron default: %q", cfg.Schedule.MonthlyCron)
	}
	if cfg.Schedule.WeeklyCron != "0 0 18 * * 6" {
		t.Errorf("weekly cron default: %q", cfg.Schedule.WeeklyCron)
	}
	if cfg.Data.SQLitePath != filepath.Join("/var/lib/ncb", "nightcity.db") {
		t.Errorf("sqlite path default: %q", cfg.Data.SQLitePath)
	}
	if got := cfg.StatePath("streaks.json"); got != filepath.Join("/var/lib/ncb", "streaks.json") {
		t.Errorf("state path: %q", got)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("validate: %v", err)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DISCORD_BOT_TOKEN", "env-tok")
	t.Setenv("LEDGER_BASE_URL", "http://override.local")
	t.Setenv("CRON_MONTHLY", "0 30 9 2 * *")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Discord.BotToken != "env-tok" {
		t.Errorf("bot token override: %q", cfg.Discord.BotToken)
	}
	if cfg.Ledger.BaseURL != "http://override.local" {
		t.Errorf("base url override: %q", cfg.Ledger.BaseURL)
	}
	if cfg.Schedule.MonthlyCron != "0 30 9 2 * *" {
		t.Errorf("cron override: %q", cfg.Schedule.MonthlyCron)
	}
}

func TestValidate_MissingFields(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	err = cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "bot_token") {
		t.Errorf("expected bot_token error, got %v", err)
	}

	cfg.Discord.BotToken = "tok"
	cfg.Discord.GuildID = "g1"
	err = cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "base_url") {
		t.Errorf("expected base_url error, got %v", err)
	}
}
