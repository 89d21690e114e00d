// Package seed loads a SQL script and demo data into a fresh database.
package seed

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/nhle/taskboard/internal/model"
)

//go:embed default.sql
var defaultScript string

// Policy decides what happens when a script statement fails.
type Policy int

const (
	// PolicyContinue logs the failure, records it in the report and moves on.
	PolicyContinue Policy = iota
	// PolicyAbort stops at the first failure.
	PolicyAbort
)

func (p Policy) String() string {
	if p == PolicyAbort {
		return "abort"
	}
	return "continue"
}

// ParsePolicy accepts "continue" (or "") and "abort".
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "continue":
		return PolicyContinue, nil
	case "abort":
		return PolicyAbort, nil
	default:
		return PolicyContinue, fmt.Errorf("unknown seed policy %q", s)
	}
}

// StatementError records one failed script statement.
type StatementError struct {
	Index     int
	Statement string
	Err       error
}

func (e StatementError) Error() string {
	return fmt.Sprintf("statement %d: %v", e.Index+1, e.Err)
}

// Report summarises a seeding run.
type Report struct {
	Executed      int
	Failed        []StatementError
	Users         int
	Notifications int
}

// DemoUser is a user inserted by the seeder.
type DemoUser struct {
	Email      string
	Name       string
	Password   string
	Role       string
	Status     string
	IsOnline   bool
	LoginCount int
}

// DemoUsers is the default set of demo accounts.
var DemoUsers = []DemoUser{
	{Email: "admin@taskboard.dev", Name: "Avery Admin", Password: "admin-demo-pass", Role: model.RoleAdmin, Status: model.UserStatusActive, LoginCount: 12},
	{Email: "member@taskboard.dev", Name: "Morgan Member", Password: "member-demo-pass", Role: model.RoleMember, Status: model.UserStatusActive, LoginCount: 3},
	{Email: "guest@taskboard.dev", Name: "Gray Guest", Password: "guest-demo-pass", Role: model.RoleGuest, Status: model.UserStatusInactive},
	{Email: "suspended@taskboard.dev", Name: "", Password: "suspended-demo-pass", Role: model.RoleMember, Status: model.UserStatusSuspended, LoginCount: 1},
}

// demoNotifications are attached to the first demo user, one per type.
var demoNotifications = []model.Notification{
	{Type: model.NotificationTask, Title: "New task assigned", Message: "**Update onboarding docs** was assigned to you.", Link: "https://taskboard.dev/tasks/42"},
	{Type: model.NotificationMeeting, Title: "Sprint review at 15:00", Message: "Agenda:\n\n1. Demo\n2. Retro"},
	{Type: model.NotificationReminder, Title: "Timesheet due", Message: "Submit this week's timesheet before Friday."},
	{Type: model.NotificationSystem, Title: "Maintenance window", Message: "The database will be read-only on Sunday 02:00-03:00 UTC.", Read: true},
	{Type: model.NotificationOther, Title: "Welcome to taskboard", Message: "Press `?` for help."},
}

// Seeder runs a seed script and inserts demo data.
type Seeder struct {
	db     *sqlx.DB
	policy Policy
	log    logrus.FieldLogger
	users  []DemoUser
	cost   int
	now    func() time.Time
}

// New creates a Seeder on db.
func New(db *sqlx.DB, policy Policy, log logrus.FieldLogger) *Seeder {
	return &Seeder{
		db:     db,
		policy: policy,
		log:    log.WithField("component", "seed"),
		users:  DemoUsers,
		now:    time.Now,
	}
}

// LoadScript returns the contents of path, or the built-in script when
// path is empty.
func LoadScript(path string) (string, error) {
	if path == "" {
		return defaultScript, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading seed file: %w", err)
	}
	return string(b), nil
}

// Run executes script and then inserts demo users and notifications.
// With PolicyAbort the first failing statement stops the run and is
// returned as the error; the report reflects what ran before it.
func (s *Seeder) Run(ctx context.Context, script string) (Report, error) {
	var report Report

	if err := s.RunScript(ctx, script, &report); err != nil {
		return report, err
	}

	users, err := s.seedUsers(ctx)
	report.Users = users
	if err != nil {
		return report, err
	}

	notifications, err := s.seedNotifications(ctx)
	report.Notifications = notifications
	if err != nil {
		return report, err
	}

	s.log.WithFields(logrus.Fields{
		"executed":      report.Executed,
		"failed":        len(report.Failed),
		"users":         report.Users,
		"notifications": report.Notifications,
	}).Info("seeding finished")
	return report, nil
}

// RunScript executes each statement of script in order, outside any
// transaction, recording results in report.
func (s *Seeder) RunScript(ctx context.Context, script string, report *Report) error {
	for i, stmt := range SplitStatements(script) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			failure := StatementError{Index: i, Statement: stmt, Err: err}
			report.Failed = append(report.Failed, failure)
			s.log.WithError(err).WithField("statement", i+1).Warn("seed statement failed")

			if s.policy == PolicyAbort {
				return fmt.Errorf("running seed script: %w", failure)
			}
			continue
		}
		report.Executed++
	}
	return nil
}

// seedUsers inserts demo users that do not exist yet and returns how many
// were inserted.
func (s *Seeder) seedUsers(ctx context.Context) (int, error) {
	query := s.db.Rebind(`
		INSERT INTO users (
			id, email, password, name, role, status,
			is_online, login_count, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (email) DO NOTHING`)

	inserted := 0
	now := s.now().UTC()
	for _, u := range s.users {
		hash, err := model.HashPassword(u.Password, s.cost)
		if err != nil {
			return inserted, fmt.Errorf("seeding user %s: %w", u.Email, err)
		}
		res, err := s.db.ExecContext(ctx, query,
			uuid.New().String(), strings.ToLower(u.Email), hash, u.Name, u.Role, u.Status,
			u.IsOnline, u.LoginCount, now, now,
		)
		if err != nil {
			return inserted, fmt.Errorf("seeding user %s: %w", u.Email, err)
		}
		if rows, _ := res.RowsAffected(); rows > 0 {
			inserted++
		}
	}
	return inserted, nil
}

// seedNotifications gives the first demo user one notification of every
// type. IDs are derived from the user so re-seeding does not duplicate.
func (s *Seeder) seedNotifications(ctx context.Context) (int, error) {
	if len(s.users) == 0 {
		return 0, nil
	}

	var userID string
	err := s.db.GetContext(ctx, &userID,
		s.db.Rebind("SELECT id FROM users WHERE email = ?"),
		strings.ToLower(s.users[0].Email))
	if err != nil {
		return 0, fmt.Errorf("looking up demo user: %w", err)
	}

	query := s.db.Rebind(`
		INSERT INTO notifications (id, user_id, type, title, message, link, is_read, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING`)

	inserted := 0
	base := s.now().UTC().Add(-time.Duration(len(demoNotifications)) * time.Hour)
	for i, n := range demoNotifications {
		id := fmt.Sprintf("seed-%s-%s", userID, n.Type)
		res, err := s.db.ExecContext(ctx, query,
			id, userID, string(n.Type), n.Title, n.Message, n.Link, n.Read,
			base.Add(time.Duration(i)*time.Hour),
		)
		if err != nil {
			return inserted, fmt.Errorf("seeding notification %s: %w", n.Type, err)
		}
		if rows, _ := res.RowsAffected(); rows > 0 {
			inserted++
		}
	}
	return inserted, nil
}
