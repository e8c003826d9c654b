package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/MarkoPoloResearchLab/moneyflow/internal/alerts"
	"github.com/MarkoPoloResearchLab/moneyflow/internal/backup"
	"github.com/MarkoPoloResearchLab/moneyflow/internal/config"
	"github.com/MarkoPoloResearchLab/moneyflow/internal/httpapi"
	"github.com/MarkoPoloResearchLab/moneyflow/internal/oplog"
	"github.com/MarkoPoloResearchLab/moneyflow/internal/scheduler"
	"github.com/MarkoPoloResearchLab/moneyflow/internal/store/gormstore"
	"github.com/MarkoPoloResearchLab/moneyflow/pkg/finance"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	flagDatabaseURL         = "database-url"
	flagListenAddr          = "listen-addr"
	flagAllowedOrigins      = "allowed-origins"
	flagAppAPIKey           = "app-api-key"
	flagOpenClawAPIKey      = "openclaw-api-key"
	flagInstanceID          = "instance-id"
	flagTelegramBotToken    = "telegram-bot-token"
	flagTelegramChatID      = "telegram-chat-id"
	flagBackupDir           = "backup-dir"
	flagBackupRetentionDays = "backup-retention-days"
	flagRecurringInterval   = "recurring-interval"
	flagBackupAt            = "backup-at"
	flagHorizonCutoff       = "horizon-cutoff"
	flagShutdownTimeout     = "shutdown-timeout"
	configKeyPort           = "port"
	envPrefix               = "MONEYFLOW"
)

// legacyEnv lists the unprefixed variable names accepted alongside MONEYFLOW_*.
var legacyEnv = map[string][]string{
	flagDatabaseURL:         {"DATABASE_URL", "DB_PATH"},
	flagListenAddr:          {"LISTEN_ADDR"},
	flagAllowedOrigins:      {"CORS_ORIGIN"},
	flagAppAPIKey:           {"APP_API_KEY"},
	flagOpenClawAPIKey:      {"OPENCLAW_API_KEY"},
	flagInstanceID:          {"INSTANCE_ID"},
	flagTelegramBotToken:    {"TELEGRAM_BOT_TOKEN"},
	flagTelegramChatID:      {"TELEGRAM_CHAT_ID"},
	flagBackupDir:           {"BACKUP_DIR"},
	flagBackupRetentionDays: {"BACKUP_RETENTION_DAYS"},
	flagRecurringInterval:   {},
	flagBackupAt:            {},
	flagHorizonCutoff:       {},
	flagShutdownTimeout:     {},
}

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "moneyflowd: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cfg := &config.Config{}
	cmd := &cobra.Command{
		Use:           "moneyflowd",
		Short:         "Personal finance API with recurring expense materialization",
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfig(cmd, cfg)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServer(ctx, cfg)
		},
	}

	cmd.Flags().String(flagDatabaseURL, "", "SQLite path or postgres:// URL (default data/database.sqlite)")
	cmd.Flags().String(flagListenAddr, "", "HTTP listen address (default :3000, or :$PORT)")
	cmd.Flags().String(flagAllowedOrigins, "", "comma-separated list of allowed CORS origins")
	cmd.Flags().String(flagAppAPIKey, "", "API key for transaction and backup routes")
	cmd.Flags().String(flagOpenClawAPIKey, "", "API key for the agent import routes")
	cmd.Flags().String(flagInstanceID, "", "job lock holder tag (default hostname:pid)")
	cmd.Flags().String(flagTelegramBotToken, "", "Telegram bot token for alerts")
	cmd.Flags().String(flagTelegramChatID, "", "Telegram chat id for alerts")
	cmd.Flags().String(flagBackupDir, "", "directory for SQLite backups (default data/backups)")
	cmd.Flags().String(flagBackupRetentionDays, "", "days to keep backups, 0 keeps all (default 30)")
	cmd.Flags().Duration(flagRecurringInterval, 0, "recurring expense materializer interval (default 5m)")
	cmd.Flags().Duration(flagBackupAt, 0, "local time of day of the daily SQLite backup (default 2h, i.e. 02:00)")
	cmd.Flags().Duration(flagHorizonCutoff, 0, "local time of day after which today is materialized (default 23h55m)")
	cmd.Flags().Duration(flagShutdownTimeout, 0, "graceful shutdown timeout (default 5s)")

	return cmd
}

func loadConfig(cmd *cobra.Command, cfg *config.Config) error {
	// A missing .env is the normal case in production.
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	for flagName, legacyNames := range legacyEnv {
		prefixed := envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(flagName, "-", "_"))
		if err := v.BindEnv(append([]string{flagName, prefixed}, legacyNames...)...); err != nil {
			return err
		}
		if err := v.BindPFlag(flagName, cmd.Flags().Lookup(flagName)); err != nil {
			return err
		}
	}
	if err := v.BindEnv(configKeyPort, "PORT"); err != nil {
		return err
	}

	cfg.DatabaseURL = v.GetString(flagDatabaseURL)
	cfg.ListenAddr = v.GetString(flagListenAddr)
	if cfg.ListenAddr == "" {
		if port := strings.TrimSpace(v.GetString(configKeyPort)); port != "" {
			cfg.ListenAddr = ":" + port
		}
	}
	cfg.AllowedOrigins = config.ParseAllowedOrigins(v.GetString(flagAllowedOrigins))
	cfg.AppAPIKey = v.GetString(flagAppAPIKey)
	cfg.OpenClawAPIKey = v.GetString(flagOpenClawAPIKey)
	cfg.InstanceID = v.GetString(flagInstanceID)
	cfg.TelegramBotToken = strings.TrimSpace(v.GetString(flagTelegramBotToken))
	cfg.TelegramChatID = strings.TrimSpace(v.GetString(flagTelegramChatID))
	cfg.BackupDir = v.GetString(flagBackupDir)
	cfg.BackupRetentionDays = config.ParseRetentionDays(v.GetString(flagBackupRetentionDays))
	cfg.RecurringInterval = v.GetDuration(flagRecurringInterval)
	cfg.BackupAt = optionalDuration(v, flagBackupAt)
	cfg.HorizonCutoff = optionalDuration(v, flagHorizonCutoff)
	cfg.ShutdownTimeout = v.GetDuration(flagShutdownTimeout)

	return cfg.Validate()
}

// optionalDuration returns nil when key was never set, so an explicit zero survives defaulting.
func optionalDuration(v *viper.Viper, key string) *time.Duration {
	if !v.IsSet(key) {
		return nil
	}
	value := v.GetDuration(key)
	return &value
}

func runServer(ctx context.Context, cfg *config.Config) error {
	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("logger init: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	connection, err := gormstore.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("database open: %w", err)
	}
	defer func() { _ = connection.Close() }()
	if err := gormstore.Migrate(connection.DB); err != nil {
		return err
	}
	store := gormstore.New(connection.DB)

	alerter := alerts.New(logger.Named("alerts"), alerts.Config{
		TelegramBotToken: cfg.TelegramBotToken,
		TelegramChatID:   cfg.TelegramChatID,
	})
	options := []finance.ServiceOption{
		finance.WithOperationLogger(oplog.New(logger.Named("finance"))),
		finance.WithAlerter(alerter),
		finance.WithHorizonCutoff(*cfg.HorizonCutoff),
		finance.WithInstanceID(cfg.InstanceID),
	}

	settingsService, err := finance.NewSettingsService(store)
	if err != nil {
		return fmt.Errorf("settings service init: %w", err)
	}
	categoryService, err := finance.NewCategoryService(store)
	if err != nil {
		return fmt.Errorf("category service init: %w", err)
	}
	transactionService, err := finance.NewTransactionService(store)
	if err != nil {
		return fmt.Errorf("transaction service init: %w", err)
	}
	recurringService, err := finance.NewRecurringService(store, settingsService, time.Now, options...)
	if err != nil {
		return fmt.Errorf("recurring service init: %w", err)
	}
	importService, err := finance.NewImportService(store, options...)
	if err != nil {
		return fmt.Errorf("import service init: %w", err)
	}
	locker, err := finance.NewJobLocker(store, time.Now, options...)
	if err != nil {
		return fmt.Errorf("job locker init: %w", err)
	}
	materializer, err := finance.NewMaterializer(store, locker, settingsService, time.Now, options...)
	if err != nil {
		return fmt.Errorf("materializer init: %w", err)
	}

	jobs := []scheduler.Job{{
		Name:       finance.LockRecurringExpenses,
		Interval:   cfg.RecurringInterval,
		RunOnStart: true,
		Run:        materializer.Tick,
	}}
	var backups httpapi.BackupService
	backupService, err := backup.New(connection.DB, backup.Config{
		SQLitePath:    connection.SQLitePath,
		Dir:           cfg.BackupDir,
		RetentionDays: cfg.BackupRetentionDays,
	}, locker, alerter, logger.Named("backup"), time.Now,
		backup.WithOffsetProvider(settingsService), backup.WithDailyAt(*cfg.BackupAt))
	switch {
	case err == nil:
		backups = backupService
		jobs = append(jobs, scheduler.Job{
			Name:    finance.LockSQLiteBackup,
			Next:    backupService.NextRun,
			OnStart: backupService.CatchUp,
			Run:     backupService.Tick,
		})
	case errors.Is(err, backup.ErrUnavailable):
		logger.Info("sqlite backups disabled", zap.String("driver", connection.Driver))
	default:
		return fmt.Errorf("backup service init: %w", err)
	}

	jobScheduler, err := scheduler.New(logger.Named("scheduler"), jobs...)
	if err != nil {
		return fmt.Errorf("scheduler init: %w", err)
	}
	if err := jobScheduler.Start(ctx); err != nil {
		return err
	}
	defer jobScheduler.Stop()

	router, err := httpapi.NewRouter(httpapi.Config{
		AllowedOrigins: cfg.AllowedOrigins,
		AppAPIKey:      cfg.AppAPIKey,
		OpenClawAPIKey: cfg.OpenClawAPIKey,
	}, httpapi.Services{
		Categories:   categoryService,
		Settings:     settingsService,
		Transactions: transactionService,
		Recurring:    recurringService,
		Imports:      importService,
		Backups:      backups,
		Database:     store,
	}, logger.Named("http"))
	if err != nil {
		return fmt.Errorf("router init: %w", err)
	}

	logger.Info("moneyflowd starting",
		zap.String("driver", connection.Driver),
		zap.String("instance_id", locker.Holder()),
		zap.Bool("telegram_alerts", alerter.TelegramEnabled()),
	)
	return httpapi.Serve(ctx, cfg.ListenAddr, router, logger, cfg.ShutdownTimeout)
}
