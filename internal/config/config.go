package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Discord struct {
		BotToken string `yaml:"bot_token"`
		GuildID  string `yaml:"guild_id"`
		Channels struct {
			RentLog  string `yaml:"rent_log"`
			Eviction string `yaml:"eviction"`
			Admin    string `yaml:"admin"`
			Business string `yaml:"business_activity"`
		} `yaml:"channels"`
	} `yaml:"discord"`
	Ledger struct {
		BaseURL  string `yaml:"base_url"`
		APIToken string `yaml:"api_token"`
	} `yaml:"ledger"`
	Schedule struct {
		MonthlyCron string `yaml:"monthly_cron"`
		WeeklyCron  string `yaml:"weekly_cron"`
	} `yaml:"schedule"`
	Data struct {
		Dir        string `yaml:"dir"`
		SQLitePath string `yaml:"sqlite_path"`
		BackupDir  string `yaml:"backup_dir"`
		AuditDir   string `yaml:"audit_dir"`
	} `yaml:"data"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("DISCORD_BOT_TOKEN"); v != "" {
		cfg.Discord.BotToken = v
	}
	if v := os.Getenv("DISCORD_GUILD_ID"); v != "" {
		cfg.Discord.GuildID = v
	}
	if v := os.Getenv("LEDGER_BASE_URL"); v != "" {
		cfg.Ledger.BaseURL = v
	}
	if v := os.Getenv("LEDGER_API_TOKEN"); v != "" {
		cfg.Ledger.APIToken = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("CRON_MONTHLY"); v != "" {
		cfg.Schedule.MonthlyCron = v
	}
	if v := os.Getenv("CRON_WEEKLY"); v != "" {
		cfg.Schedule.WeeklyCron = v
	}
	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.Data.Dir = v
	}

	// Defaults
	if cfg.Schedule.MonthlyCron == "" {
		// First day of the month, 18:00 server time.
		cfg.Schedule.MonthlyCron = "0 0 18 1 * *"
	}
	if cfg.Schedule.WeeklyCron == "" {
		// Saturdays at 18:00 for the cyberware maintenance pass.
		cfg.Schedule.WeeklyCron = "0 0 18 * * 6"
	}
	if cfg.Data.Dir == "" {
		cfg.Data.Dir = "data"
	}
	if cfg.Data.SQLitePath == "" {
		cfg.Data.SQLitePath = filepath.Join(cfg.Data.Dir, "nightcity.db")
	}
	if cfg.Data.BackupDir == "" {
		cfg.Data.BackupDir = filepath.Join(cfg.Data.Dir, "backups")
	}
	if cfg.Data.AuditDir == "" {
		cfg.Data.AuditDir = filepath.Join(cfg.Data.Dir, "audits")
	}

	return cfg, nil
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if c.Discord.BotToken == "" {
		return fmt.Errorf("discord.bot_token is required")
	}
	if c.Discord.GuildID == "" {
		return fmt.Errorf("discord.guild_id is required")
	}
	if c.Ledger.BaseURL == "" {
		return fmt.Errorf("ledger.base_url is required")
	}
	if c.Ledger.APIToken == "" {
		return fmt.Errorf("ledger.api_token is required")
	}
	return nil
}

// StatePath returns the path of a JSON state file under the data dir.
func (c *Config) StatePath(name string) string {
	return filepath.Join(c.Data.Dir, name)
}
