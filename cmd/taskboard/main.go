// Command taskboard is the terminal UI: a notification dropdown fed by
// the configured sources, a profile menu and a markdown preview.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/nhle/taskboard/internal/app"
	"github.com/nhle/taskboard/internal/bootstrap"
	"github.com/nhle/taskboard/internal/logging"
	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/notify"
	"github.com/nhle/taskboard/internal/store"
	appsync "github.com/nhle/taskboard/internal/sync"
	"github.com/nhle/taskboard/internal/theme"
)

const startupTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "taskboard: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		return err
	}

	// The terminal belongs to the UI, so logs go to a file.
	log, logFile, err := logging.NewFile(cfg.Log)
	if err != nil {
		return err
	}
	defer logFile.Close()

	deps := app.Deps{
		Notifications: notify.New(),
		Log:           log,
		Theme:         theme.ParseMode(cfg.Display.Theme),
		OnThemeChange: func(m theme.Mode) error {
			cfg.Display.Theme = string(m)
			return bootstrap.SaveConfig(cfg)
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	s, err := store.Open(ctx, cfg.Database)
	if err != nil {
		log.WithError(err).Warn("database unavailable, running without a user feed")
	} else {
		defer s.Close()
		deps.Users = s
		deps.User = lookupUser(ctx, s, cfg.Profile.Email, log)
	}
	cancel()

	deps.Poller = appsync.New(deps.Notifications, cfg.Notifications.Schedule, log)
	n := app.RegisterSources(cfg.Notifications, deps.Poller, deps.Users, deps.User, log)
	log.WithField("sources", n).Info("taskboard starting")

	p := tea.NewProgram(app.New(deps), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running UI: %w", err)
	}

	log.Info("taskboard stopped")
	return nil
}

// lookupUser returns the profile user, or nil when none is configured or
// it cannot be found.
func lookupUser(ctx context.Context, s store.Store, email string, log logrus.FieldLogger) *model.User {
	if email == "" {
		return nil
	}
	u, err := s.GetUserByEmail(ctx, email)
	switch {
	case errors.Is(err, store.ErrNotFound):
		log.WithField("email", email).Warn("profile user not found")
		return nil
	case err != nil:
		log.WithError(err).Warn("loading profile user")
		return nil
	}
	return u
}
