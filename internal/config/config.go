// Package config holds the runtime settings of the moneyflow daemon.
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	defaultListenAddr        = ":3000"
	defaultDatabaseURL       = "data/database.sqlite"
	defaultAllowedOrigin     = "http://localhost:5173"
	defaultBackupDir         = "data/backups"
	defaultRetentionDays     = 30
	defaultRecurringInterval = 5 * time.Minute
	defaultBackupAt          = 2 * time.Hour
	defaultHorizonCutoff     = 23*time.Hour + 55*time.Minute
	defaultShutdownTimeout   = 5 * time.Second
	day                      = 24 * time.Hour
)

// Config aggregates runtime settings for the daemon.
type Config struct {
	ListenAddr     string
	DatabaseURL    string
	AllowedOrigins []string
	// AppAPIKey guards the transaction and backup routes. Empty leaves them unavailable.
	AppAPIKey string
	// OpenClawAPIKey guards the agent routes. Empty leaves them unavailable.
	OpenClawAPIKey      string
	InstanceID          string
	TelegramBotToken    string
	TelegramChatID      string
	BackupDir           string
	BackupRetentionDays int
	RecurringInterval   time.Duration
	// BackupAt is the local time of day of the daily backup. Nil means 02:00.
	BackupAt *time.Duration
	// HorizonCutoff is the local time of day after which today is materialized. Nil means 23:55; zero is midnight.
	HorizonCutoff   *time.Duration
	ShutdownTimeout time.Duration
}

// Validate applies defaults and rejects values the daemon cannot run with.
func (cfg *Config) Validate() error {
	cfg.ListenAddr = defaultIfEmpty(cfg.ListenAddr, defaultListenAddr)
	cfg.DatabaseURL = defaultIfEmpty(cfg.DatabaseURL, defaultDatabaseURL)
	cfg.BackupDir = defaultIfEmpty(cfg.BackupDir, defaultBackupDir)
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{defaultAllowedOrigin}
	}
	if cfg.BackupRetentionDays < 0 {
		cfg.BackupRetentionDays = defaultRetentionDays
	}
	if cfg.RecurringInterval <= 0 {
		cfg.RecurringInterval = defaultRecurringInterval
	}
	if cfg.BackupAt == nil {
		backupAt := defaultBackupAt
		cfg.BackupAt = &backupAt
	}
	if cfg.HorizonCutoff == nil {
		cutoff := defaultHorizonCutoff
		cfg.HorizonCutoff = &cutoff
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}
	cfg.AppAPIKey = strings.TrimSpace(cfg.AppAPIKey)
	cfg.OpenClawAPIKey = strings.TrimSpace(cfg.OpenClawAPIKey)
	if *cfg.HorizonCutoff < 0 || *cfg.HorizonCutoff >= day {
		return fmt.Errorf("horizon cutoff must be within a day, got %s", *cfg.HorizonCutoff)
	}
	if *cfg.BackupAt < 0 || *cfg.BackupAt >= day {
		return fmt.Errorf("backup time must be within a day, got %s", *cfg.BackupAt)
	}
	if (cfg.TelegramBotToken == "") != (cfg.TelegramChatID == "") {
		return fmt.Errorf("telegram bot token and chat id must be set together")
	}
	return nil
}

func defaultIfEmpty(value string, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return strings.TrimSpace(value)
}

// ParseAllowedOrigins splits comma-delimited origins into a slice.
func ParseAllowedOrigins(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return []string{}
	}
	parts := strings.Split(raw, ",")
	normalized := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			normalized = append(normalized, trimmed)
		}
	}
	return normalized
}

// ParseRetentionDays reads a day count. Blank, malformed and negative values fall back to 30; 0 disables pruning.
func ParseRetentionDays(raw string) int {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return defaultRetentionDays
	}
	days, err := strconv.Atoi(trimmed)
	if err != nil || days < 0 {
		return defaultRetentionDays
	}
	return days
}
