// Package database opens SQLite and PostgreSQL connections and checks
// that they are reachable.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver
	_ "modernc.org/sqlite"

	"github.com/nhle/taskboard/internal/model"
)

const (
	defaultMaxOpenConns    = 25
	defaultMaxIdleConns    = 25
	defaultConnMaxLifetime = 5 * time.Minute
	defaultConnMaxIdleTime = 1 * time.Minute

	pingTimeout = 10 * time.Second
)

// Open connects to the database described by driver and dsn and pings it.
// SQLite connections get WAL mode and foreign keys enabled and are
// limited to a single open connection, which also keeps ":memory:"
// databases shared across queries.
func Open(driver, dsn string) (*sqlx.DB, error) {
	switch driver {
	case model.DriverSQLite:
		return openSQLite(dsn)
	case model.DriverPostgres:
		return openPostgres(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

func openSQLite(path string) (*sqlx.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is empty")
	}

	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	// Enable foreign keys.
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	return db, nil
}

func openPostgres(dsn string) (*sqlx.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres connection string is empty (set DATABASE_URL)")
	}

	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening postgres db: %w", err)
	}

	db.SetMaxOpenConns(defaultMaxOpenConns)
	db.SetMaxIdleConns(defaultMaxIdleConns)
	db.SetConnMaxLifetime(defaultConnMaxLifetime)
	db.SetConnMaxIdleTime(defaultConnMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}

	return db, nil
}

// Info describes a reachable database.
type Info struct {
	Driver        string
	ServerVersion string
	CurrentTime   time.Time
	Latency       time.Duration
}

// Check pings db and reads the server version and clock.
func Check(ctx context.Context, db *sqlx.DB) (Info, error) {
	info := Info{Driver: db.DriverName()}

	start := time.Now()
	if err := db.PingContext(ctx); err != nil {
		return info, fmt.Errorf("pinging database: %w", err)
	}
	info.Latency = time.Since(start)

	versionQuery := "SELECT version()"
	if info.Driver == "sqlite" {
		versionQuery = "SELECT sqlite_version()"
	}
	if err := db.GetContext(ctx, &info.ServerVersion, versionQuery); err != nil {
		return info, fmt.Errorf("reading server version: %w", err)
	}

	// CURRENT_TIMESTAMP comes back as text on SQLite, so read it as a string
	// and parse where needed.
	var now string
	if err := db.GetContext(ctx, &now, "SELECT CAST(CURRENT_TIMESTAMP AS TEXT)"); err != nil {
		return info, fmt.Errorf("reading server time: %w", err)
	}
	info.CurrentTime = parseServerTime(now)

	return info, nil
}

var serverTimeLayouts = []string{
	"2006-01-02 15:04:05.999999-07",
	"2006-01-02 15:04:05.999999-07:00",
	"2006-01-02 15:04:05",
	time.RFC3339Nano,
}

// parseServerTime parses the textual CURRENT_TIMESTAMP of either driver.
// Unknown formats yield the zero time.
func parseServerTime(s string) time.Time {
	for _, layout := range serverTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
