// Package config handles application configuration from a YAML file with
// environment overrides for secrets.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"digest_curator/internal/estimate"
)

// Environment overrides.
const (
	passwordEnv = "FNGS_PASSWORD"
	botTokenEnv = "TELEGRAM_BOT_TOKEN"
)

// Server describes the gathering server connection.
type Server struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

// Curation tunes the estimation reconciliation policy.
type Curation struct {
	// MajorityThreshold is the exclusive vote-share cutoff for bulk
	// accepting crowd votes. Defaults to 0.5.
	MajorityThreshold float64 `yaml:"majorityThreshold"`
	// TrustedVoters override the majority; order decides whose field
	// values win.
	TrustedVoters []string `yaml:"trustedVoters"`
	// AttentionSources get an attention marker in rendered documents.
	AttentionSources []string `yaml:"attentionSources"`
}

// Bot configures the crowd-vote Telegram bot.
type Bot struct {
	Token       string `yaml:"token"`
	ChatID      int64  `yaml:"chatId"`
	PollMinutes int    `yaml:"pollMinutes"`
}

// Config holds the application configuration.
type Config struct {
	Server     Server   `yaml:"server"`
	Curation   Curation `yaml:"curation"`
	Bot        Bot      `yaml:"bot"`
	BackupPath string   `yaml:"backupPath"`
	LogLevel   string   `yaml:"logLevel"`
}

// Load reads configuration from the YAML file at path and applies
// environment overrides.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := &Config{
		Curation:   Curation{MajorityThreshold: estimate.DefaultMajorityThreshold},
		Bot:        Bot{PollMinutes: 10},
		BackupPath: "./data/backups.db",
		LogLevel:   "info",
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if v := os.Getenv(passwordEnv); v != "" {
		cfg.Server.Password = v
	}
	if v := os.Getenv(botTokenEnv); v != "" {
		cfg.Bot.Token = v
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Host == "" {
		return fmt.Errorf("server.host is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d is out of range", c.Server.Port)
	}
	if c.Server.User == "" {
		return fmt.Errorf("server.user is required")
	}
	if c.Server.Password == "" {
		return fmt.Errorf("server.password is required (config or %s)", passwordEnv)
	}
	if c.Curation.MajorityThreshold < 0 || c.Curation.MajorityThreshold >= 1 {
		return fmt.Errorf("curation.majorityThreshold %v must be in [0, 1)", c.Curation.MajorityThreshold)
	}
	return nil
}

// Policy builds the estimation policy from the curation settings.
func (c *Config) Policy() estimate.Policy {
	return estimate.Policy{
		MajorityThreshold: c.Curation.MajorityThreshold,
		TrustedVoters:     c.Curation.TrustedVoters,
	}
}

// IsTrustedVoter checks whether a user is in the trusted voter list.
func (c *Config) IsTrustedVoter(user string) bool {
	for _, v := range c.Curation.TrustedVoters {
		if v == user {
			return true
		}
	}
	return false
}
