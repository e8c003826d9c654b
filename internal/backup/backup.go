// Package backup snapshots the SQLite database into gzip archives and prunes old ones.
package backup

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/MarkoPoloResearchLab/moneyflow/pkg/finance"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	// DefaultDir is used when no backup directory is configured.
	DefaultDir = "data/backups"
	// DefaultRetentionDays applies when retention is unset or invalid.
	DefaultRetentionDays = 30
	// LockTTL bounds how long one backup run may hold the job lock.
	LockTTL = 2 * time.Hour
	// DefaultDailyAt is the local time of day of the scheduled backup.
	DefaultDailyAt = 2 * time.Hour

	filePrefix      = "money-flow-backup-"
	snapshotSuffix  = ".sqlite"
	archiveSuffix   = ".sqlite.gz"
	timestampLayout = "2006-01-02T15:04:05.000Z"
	memoryPath      = ":memory:"
	day             = 24 * time.Hour
)

var (
	// ErrUnavailable reports a database that cannot be backed up to a file.
	ErrUnavailable = errors.New("backup: sqlite file database required")
	// ErrInvalidConfig reports missing dependencies.
	ErrInvalidConfig = errors.New("backup: invalid configuration")
)

// Config describes where archives go and how long they live. RetentionDays 0 keeps everything.
type Config struct {
	SQLitePath    string
	Dir           string
	RetentionDays int
}

// Result describes one written archive.
type Result struct {
	Name      string
	Path      string
	SizeBytes int64
	Removed   int
}

// Service creates backups on demand and on a schedule.
type Service struct {
	db      *gorm.DB
	cfg     Config
	locker  finance.Locker
	alerter finance.Alerter
	logger  *zap.Logger
	nowFn   func() time.Time
	offsets finance.OffsetProvider
	dailyAt time.Duration
}

// Option customizes a Service.
type Option func(*Service)

// WithOffsetProvider makes NextRun follow the configured UTC offset instead of UTC.
func WithOffsetProvider(offsets finance.OffsetProvider) Option {
	return func(service *Service) {
		service.offsets = offsets
	}
}

// WithDailyAt moves the scheduled backup to another local time of day.
func WithDailyAt(at time.Duration) Option {
	return func(service *Service) {
		if at >= 0 && at < day {
			service.dailyAt = at
		}
	}
}

// New validates cfg and returns a Service. The locker and alerter are only needed by Tick.
func New(db *gorm.DB, cfg Config, locker finance.Locker, alerter finance.Alerter, logger *zap.Logger, now func() time.Time, options ...Option) (*Service, error) {
	if db == nil {
		return nil, fmt.Errorf("%w: database is required", ErrInvalidConfig)
	}
	path := strings.TrimSpace(cfg.SQLitePath)
	if path == "" || path == memoryPath {
		return nil, ErrUnavailable
	}
	if strings.TrimSpace(cfg.Dir) == "" {
		cfg.Dir = DefaultDir
	}
	if cfg.RetentionDays < 0 {
		cfg.RetentionDays = DefaultRetentionDays
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if now == nil {
		now = time.Now
	}
	service := &Service{db: db, cfg: cfg, locker: locker, alerter: alerter, logger: logger, nowFn: now, dailyAt: DefaultDailyAt}
	for _, option := range options {
		if option != nil {
			option(service)
		}
	}
	return service, nil
}

// NextRun returns the first daily backup time strictly after now, in local time per the UTC offset.
func (service *Service) NextRun(ctx context.Context, now time.Time) time.Time {
	var offset finance.UTCOffset
	if service.offsets != nil {
		resolved, err := service.offsets.UTCOffset(ctx)
		if err != nil {
			service.logger.Warn("utc offset unavailable, scheduling backup in UTC", zap.Error(err))
		} else {
			offset = resolved
		}
	}
	return nextDailyRun(now, offset.Minutes(), service.dailyAt)
}

// CatchUp runs Tick unless an archive younger than a day already exists.
func (service *Service) CatchUp(ctx context.Context) error {
	latest, found, err := service.latestArchive()
	if err != nil {
		service.alert(ctx, fmt.Sprintf("SQLite backup failed: %v", err))
		return err
	}
	if found && service.nowFn().Sub(latest) < day {
		service.logger.Debug("recent sqlite backup found, skipping catch-up", zap.Time("latest", latest))
		return nil
	}
	return service.Tick(ctx)
}

// Tick runs one scheduled backup under the sqlite-backup lock. Failures are alerted and returned.
func (service *Service) Tick(ctx context.Context) error {
	if service.locker == nil {
		return fmt.Errorf("%w: locker is required", ErrInvalidConfig)
	}
	acquired, err := service.locker.Acquire(ctx, finance.LockSQLiteBackup, LockTTL)
	if err != nil {
		service.alert(ctx, fmt.Sprintf("SQLite backup lock failed: %v", err))
		return err
	}
	if !acquired {
		return nil
	}
	result, err := service.Create(ctx)
	if err != nil {
		service.alert(ctx, fmt.Sprintf("SQLite backup failed: %v", err))
		return err
	}
	service.logger.Info("sqlite backup created",
		zap.String("path", result.Path),
		zap.Int64("size_bytes", result.SizeBytes),
		zap.Int("removed", result.Removed),
	)
	return nil
}

// Create writes a compressed snapshot and applies retention.
func (service *Service) Create(ctx context.Context) (Result, error) {
	if err := os.MkdirAll(service.cfg.Dir, 0o755); err != nil {
		return Result{}, fmt.Errorf("create backup dir: %w", err)
	}
	now := service.nowFn().UTC()
	stamp := strings.NewReplacer(":", "-", ".", "-").Replace(now.Format(timestampLayout))
	snapshotPath := filepath.Join(service.cfg.Dir, filePrefix+stamp+snapshotSuffix)
	archivePath := snapshotPath + ".gz"

	if err := service.snapshot(ctx, snapshotPath); err != nil {
		_ = os.Remove(snapshotPath)
		return Result{}, err
	}
	defer func() { _ = os.Remove(snapshotPath) }()

	if err := compressFile(snapshotPath, archivePath); err != nil {
		_ = os.Remove(archivePath)
		return Result{}, fmt.Errorf("compress backup: %w", err)
	}
	info, err := os.Stat(archivePath)
	if err != nil {
		return Result{}, err
	}
	removed, err := service.Cleanup(now)
	if err != nil {
		return Result{}, fmt.Errorf("cleanup backups: %w", err)
	}
	return Result{Name: filepath.Base(archivePath), Path: archivePath, SizeBytes: info.Size(), Removed: removed}, nil
}

// Cleanup deletes archives whose modification time is older than the retention window.
func (service *Service) Cleanup(now time.Time) (int, error) {
	if service.cfg.RetentionDays == 0 {
		return 0, nil
	}
	entries, err := os.ReadDir(service.cfg.Dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, err
	}
	cutoff := now.Add(-time.Duration(service.cfg.RetentionDays) * day)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), archiveSuffix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return removed, err
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(service.cfg.Dir, entry.Name())); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

func (service *Service) latestArchive() (time.Time, bool, error) {
	entries, err := os.ReadDir(service.cfg.Dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, err
	}
	var latest time.Time
	found := false
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), filePrefix) || !strings.HasSuffix(entry.Name(), archiveSuffix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return time.Time{}, false, err
		}
		if !found || info.ModTime().After(latest) {
			latest = info.ModTime()
			found = true
		}
	}
	return latest, found, nil
}

func nextDailyRun(now time.Time, offsetMinutes int, at time.Duration) time.Time {
	shift := time.Duration(offsetMinutes) * time.Minute
	local := now.UTC().Add(shift)
	next := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC).Add(at)
	if !next.After(local) {
		next = next.AddDate(0, 0, 1)
	}
	return next.Add(-shift)
}

func (service *Service) snapshot(ctx context.Context, target string) error {
	statement := fmt.Sprintf("VACUUM INTO '%s'", strings.ReplaceAll(target, "'", "''"))
	vacuumErr := service.db.WithContext(ctx).Exec(statement).Error
	if vacuumErr == nil {
		return nil
	}
	service.logger.Warn("VACUUM INTO failed, copying database file", zap.Error(vacuumErr))
	if err := copyFile(service.cfg.SQLitePath, target); err != nil {
		return fmt.Errorf("snapshot database: %w", errors.Join(vacuumErr, err))
	}
	return nil
}

func (service *Service) alert(ctx context.Context, message string) {
	if service.alerter != nil {
		service.alerter.Alert(ctx, message)
	}
}

func copyFile(source string, target string) error {
	input, err := os.Open(source)
	if err != nil {
		return err
	}
	defer input.Close()
	output, err := os.Create(target)
	if err != nil {
		return err
	}
	if _, err := io.Copy(output, input); err != nil {
		_ = output.Close()
		return err
	}
	return output.Close()
}

func compressFile(source string, target string) error {
	input, err := os.Open(source)
	if err != nil {
		return err
	}
	defer input.Close()
	output, err := os.Create(target)
	if err != nil {
		return err
	}
	writer, err := gzip.NewWriterLevel(output, gzip.BestCompression)
	if err != nil {
		_ = output.Close()
		return err
	}
	if _, err := io.Copy(writer, input); err != nil {
		_ = writer.Close()
		_ = output.Close()
		return err
	}
	if err := writer.Close(); err != nil {
		_ = output.Close()
		return err
	}
	return output.Close()
}
