package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/nhle/taskboard/internal/database"
	"github.com/nhle/taskboard/internal/model"
)

// postgresMigrationLock is the advisory lock key held while migrating a
// PostgreSQL database so concurrent runners serialise.
const postgresMigrationLock = 727274

// SQLStore implements the Store interface on top of sqlx. Queries are
// written with "?" placeholders and rebound for the underlying driver.
type SQLStore struct {
	db *sqlx.DB
}

var _ Store = (*SQLStore)(nil)

// New wraps an already opened database. It does not run migrations.
func New(db *sqlx.DB) *SQLStore {
	return &SQLStore{db: db}
}

// Open connects to the configured database and applies pending migrations.
func Open(ctx context.Context, cfg model.DatabaseConfig) (*SQLStore, error) {
	db, err := database.Open(cfg.Driver, cfg.DSN())
	if err != nil {
		return nil, err
	}

	s := New(db)
	if _, err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath
// and runs any pending schema migrations.
func NewSQLiteStore(dbPath string) (*SQLStore, error) {
	return Open(context.Background(), model.DatabaseConfig{
		Driver: model.DriverSQLite,
		Path:   dbPath,
	})
}

// DB exposes the underlying connection for tooling such as the seeder.
func (s *SQLStore) DB() *sqlx.DB {
	return s.db
}

// Close closes the underlying database connection.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// SchemaVersion returns the highest applied migration version, or 0 on a
// fresh database.
func (s *SQLStore) SchemaVersion(ctx context.Context) (int, error) {
	if _, err := s.db.ExecContext(ctx, schemaVersionDDL); err != nil {
		return 0, fmt.Errorf("creating schema_version table: %w", err)
	}

	var version int
	err := s.db.GetContext(ctx, &version, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
	if err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	return version, nil
}

// Migrate applies every outstanding migration inside one transaction and
// returns the versions applied. Either all pending migrations are applied
// or none are.
func (s *SQLStore) Migrate(ctx context.Context) ([]int, error) {
	return s.migrate(ctx, migrations)
}

func (s *SQLStore) migrate(ctx context.Context, list []migration) ([]int, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if s.db.DriverName() == model.DriverPostgres {
		if _, err := tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock($1)", postgresMigrationLock); err != nil {
			return nil, fmt.Errorf("acquiring migration lock: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, schemaVersionDDL); err != nil {
		return nil, fmt.Errorf("creating schema_version table: %w", err)
	}

	var current int
	if err := tx.GetContext(ctx, &current, "SELECT COALESCE(MAX(version), 0) FROM schema_version"); err != nil {
		return nil, fmt.Errorf("reading schema version: %w", err)
	}

	insertVersion := tx.Rebind("INSERT INTO schema_version (version) VALUES (?)")

	var applied []int
	for _, m := range list {
		if m.version <= current {
			continue
		}
		if _, err := tx.ExecContext(ctx, m.sql); err != nil {
			return nil, fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
		if _, err := tx.ExecContext(ctx, insertVersion, m.version); err != nil {
			return nil, fmt.Errorf("recording migration v%d: %w", m.version, err)
		}
		applied = append(applied, m.version)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing migrations: %w", err)
	}
	return applied, nil
}

// CreateUser inserts a new user. Generates a UUID if ID is empty and
// fills role and status defaults.
func (s *SQLStore) CreateUser(ctx context.Context, user model.User) (string, error) {
	user.Email = strings.TrimSpace(strings.ToLower(user.Email))
	if user.Email == "" {
		return "", fmt.Errorf("user email must not be empty")
	}
	if user.Password == "" {
		return "", fmt.Errorf("user password must not be empty")
	}
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.Role == "" {
		user.Role = model.RoleMember
	}
	if user.Status == "" {
		user.Status = model.UserStatusActive
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, s.db.Rebind(`
		INSERT INTO users (
			id, email, password, name, role, status,
			is_online, login_count, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		user.ID, user.Email, user.Password, user.Name, user.Role, user.Status,
		user.IsOnline, user.LoginCount, user.CreatedAt.UTC(), user.UpdatedAt,
	)
	if err != nil {
		return "", fmt.Errorf("creating user %s: %w", user.Email, err)
	}
	return user.ID, nil
}

const userColumns = `id, email, password, name, role, status,
	is_online, login_count, created_at, updated_at`

// GetUserByID retrieves a single user by ID.
func (s *SQLStore) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	var u model.User
	err := s.db.GetContext(ctx, &u,
		s.db.Rebind("SELECT "+userColumns+" FROM users WHERE id = ?"), id)
	if err != nil {
		return nil, fmt.Errorf("getting user %s: %w", id, notFound(err))
	}
	return &u, nil
}

// GetUserByEmail retrieves a single user by email (case-insensitive).
func (s *SQLStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User
	err := s.db.GetContext(ctx, &u,
		s.db.Rebind("SELECT "+userColumns+" FROM users WHERE email = ?"),
		strings.TrimSpace(strings.ToLower(email)))
	if err != nil {
		return nil, fmt.Errorf("getting user %s: %w", email, notFound(err))
	}
	return &u, nil
}

// ListUsers returns all users ordered by email.
func (s *SQLStore) ListUsers(ctx context.Context) ([]model.User, error) {
	var users []model.User
	err := s.db.SelectContext(ctx, &users, "SELECT "+userColumns+" FROM users ORDER BY email")
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	return users, nil
}

// RecordLogin increments the login counter and marks the user online.
func (s *SQLStore) RecordLogin(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, s.db.Rebind(`
		UPDATE users SET
			login_count = login_count + 1,
			is_online = ?,
			updated_at = ?
		WHERE id = ?`),
		true, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("recording login for %s: %w", id, err)
	}
	return requireAffected(result, "user", id)
}

// SetOnline updates the user's presence flag.
func (s *SQLStore) SetOnline(ctx context.Context, id string, online bool) error {
	result, err := s.db.ExecContext(ctx,
		s.db.Rebind("UPDATE users SET is_online = ?, updated_at = ? WHERE id = ?"),
		online, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("updating presence for %s: %w", id, err)
	}
	return requireAffected(result, "user", id)
}

// CreateNotification inserts a new notification into the feed.
func (s *SQLStore) CreateNotification(ctx context.Context, n model.Notification) (string, error) {
	if strings.TrimSpace(n.Title) == "" {
		return "", fmt.Errorf("notification title must not be empty")
	}
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	n.Type = model.ParseNotificationType(string(n.Type))

	_, err := s.db.ExecContext(ctx, s.db.Rebind(`
		INSERT INTO notifications (id, user_id, type, title, message, link, is_read, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		n.ID, n.UserID, string(n.Type), n.Title, n.Message, n.Link,
		n.Read, n.CreatedAt.UTC(),
	)
	if err != nil {
		return "", fmt.Errorf("creating notification: %w", err)
	}
	return n.ID, nil
}

// ListNotificationsSince returns the user's notifications positioned
// after the cursor, oldest first. A limit <= 0 means no limit.
func (s *SQLStore) ListNotificationsSince(
	ctx context.Context,
	userID string,
	after Cursor,
	limit int,
) ([]model.Notification, error) {
	query := `
		SELECT id, user_id, type, title, message, link, is_read, created_at
		FROM notifications
		WHERE user_id = ?
		  AND (created_at > ? OR (created_at = ? AND id > ?))
		ORDER BY created_at, id`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	ts := after.CreatedAt.UTC()
	var notifications []model.Notification
	err := s.db.SelectContext(ctx, &notifications, s.db.Rebind(query),
		userID, ts, ts, after.ID)
	if err != nil {
		return nil, fmt.Errorf("querying notifications for %s: %w", userID, err)
	}

	for i := range notifications {
		notifications[i].Type = model.ParseNotificationType(string(notifications[i].Type))
	}
	return notifications, nil
}

// notFound maps sql.ErrNoRows onto ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func requireAffected(result sql.Result, kind, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking %s %s: %w", kind, id, err)
	}
	if rows == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
	}
	return nil
}
