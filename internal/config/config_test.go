package config

import (
	"reflect"
	"testing"
	"time"
)

func TestValidateAppliesDefaults(test *testing.T) {
	test.Parallel()
	cfg := Config{BackupRetentionDays: -1, AppAPIKey: "  secret  "}
	if err := cfg.Validate(); err != nil {
		test.Fatalf("validate failed: %v", err)
	}
	if cfg.ListenAddr != defaultListenAddr || cfg.DatabaseURL != defaultDatabaseURL || cfg.BackupDir != defaultBackupDir {
		test.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.BackupRetentionDays != 30 || cfg.RecurringInterval != 5*time.Minute || *cfg.BackupAt != 2*time.Hour {
		test.Fatalf("unexpected schedule defaults %+v", cfg)
	}
	if *cfg.HorizonCutoff != 23*time.Hour+55*time.Minute {
		test.Fatalf("unexpected cutoff %s", *cfg.HorizonCutoff)
	}
	if cfg.AppAPIKey != "secret" {
		test.Fatalf("expected trimmed api key, got %q", cfg.AppAPIKey)
	}
	if len(cfg.AllowedOrigins) != 1 {
		test.Fatalf("expected default origin, got %v", cfg.AllowedOrigins)
	}
}

func durationPointer(value time.Duration) *time.Duration {
	return &value
}

func TestValidateKeepsMidnightSchedules(test *testing.T) {
	test.Parallel()
	cfg := Config{HorizonCutoff: durationPointer(0), BackupAt: durationPointer(0)}
	if err := cfg.Validate(); err != nil {
		test.Fatalf("validate failed: %v", err)
	}
	if *cfg.HorizonCutoff != 0 {
		test.Fatalf("expected midnight cutoff to be kept, got %s", *cfg.HorizonCutoff)
	}
	if *cfg.BackupAt != 0 {
		test.Fatalf("expected midnight backup to be kept, got %s", *cfg.BackupAt)
	}
}

func TestValidateRejectsInvalidValues(test *testing.T) {
	test.Parallel()
	testCases := []struct {
		name string
		cfg  Config
	}{
		{name: "cutoff past midnight", cfg: Config{HorizonCutoff: durationPointer(24 * time.Hour)}},
		{name: "negative cutoff", cfg: Config{HorizonCutoff: durationPointer(-time.Minute)}},
		{name: "backup past midnight", cfg: Config{BackupAt: durationPointer(25 * time.Hour)}},
		{name: "telegram token without chat", cfg: Config{TelegramBotToken: "token"}},
	}
	for _, testCase := range testCases {
		testCase := testCase
		test.Run(testCase.name, func(test *testing.T) {
			test.Parallel()
			if err := testCase.cfg.Validate(); err == nil {
				test.Fatalf("expected validation error")
			}
		})
	}
}

func TestParseAllowedOrigins(test *testing.T) {
	test.Parallel()
	origins := ParseAllowedOrigins(" http://a.test, ,http://b.test ")
	if !reflect.DeepEqual(origins, []string{"http://a.test", "http://b.test"}) {
		test.Fatalf("unexpected origins %v", origins)
	}
	if len(ParseAllowedOrigins("  ")) != 0 {
		test.Fatalf("expected no origins for blank input")
	}
}

func TestParseRetentionDays(test *testing.T) {
	test.Parallel()
	testCases := map[string]int{
		"":    30,
		"7":   7,
		"0":   0,
		"-3":  30,
		"abc": 30,
	}
	for raw, expected := range testCases {
		if actual := ParseRetentionDays(raw); actual != expected {
			test.Fatalf("ParseRetentionDays(%q): expected %d, got %d", raw, expected, actual)
		}
	}
}
