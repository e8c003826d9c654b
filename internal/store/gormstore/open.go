package gormstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	sqliteMemoryPath   = ":memory:"
	sqliteSchemePrefix = "sqlite://"
	sqliteDefaultPath  = "data/database.sqlite"
	sqlitePragmas      = "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
)

// Connection is an open database handle plus the facts callers need about it.
type Connection struct {
	DB     *gorm.DB
	Driver string
	// SQLitePath is the database file for the sqlite driver, empty otherwise.
	SQLitePath string
	close      func() error
}

// Close releases the underlying pool.
func (connection *Connection) Close() error {
	if connection.close == nil {
		return nil
	}
	return connection.close()
}

// Open connects to dsn: postgres:// URLs use PostgreSQL, sqlite:// URLs and bare paths use SQLite.
func Open(ctx context.Context, dsn string) (*Connection, error) {
	driver, sqlitePath, err := ResolveDriver(dsn)
	if err != nil {
		return nil, err
	}

	cfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)}
	var db *gorm.DB
	switch driver {
	case DriverPostgres:
		db, err = gorm.Open(postgres.Open(dsn), cfg)
	case DriverSQLite:
		db, err = gorm.Open(sqlite.Open(sqliteDSN(sqlitePath)), cfg)
	default:
		return nil, fmt.Errorf("unsupported database scheme %q", driver)
	}
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if driver == DriverSQLite && sqlitePath == sqliteMemoryPath {
		sqlDB.SetMaxOpenConns(1)
	}
	return &Connection{
		DB:         db.WithContext(ctx),
		Driver:     driver,
		SQLitePath: sqlitePath,
		close:      sqlDB.Close,
	}, nil
}

// Migrate creates or updates every table.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// ResolveDriver returns the driver name and, for SQLite, the normalized file path.
func ResolveDriver(dsn string) (string, string, error) {
	trimmed := strings.TrimSpace(dsn)
	if strings.HasPrefix(trimmed, "postgres://") || strings.HasPrefix(trimmed, "postgresql://") {
		return DriverPostgres, "", nil
	}
	path := trimmed
	if strings.HasPrefix(trimmed, sqliteSchemePrefix) {
		path = strings.TrimPrefix(trimmed, sqliteSchemePrefix)
		if index := strings.Index(path, "?"); index >= 0 {
			path = path[:index]
		}
	}
	if path == "" || path == "/" {
		path = sqliteDefaultPath
	}
	sqlitePath, err := normalizeSQLitePath(path)
	return DriverSQLite, sqlitePath, err
}

func normalizeSQLitePath(path string) (string, error) {
	if path == sqliteMemoryPath {
		return path, nil
	}
	if strings.HasPrefix(path, "/") {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return "", err
		}
		return path, nil
	}
	abs := filepath.Join(".", path)
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return "", err
	}
	return abs, nil
}

func sqliteDSN(path string) string {
	if path == sqliteMemoryPath {
		return path + "?_pragma=foreign_keys(1)"
	}
	return path + "?" + sqlitePragmas
}
