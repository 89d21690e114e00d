// Command seed loads demo users, notifications and the seed SQL script
// into the configured database. Failed script statements are reported
// and, unless seed_policy is "abort", skipped.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/nhle/taskboard/internal/bootstrap"
	"github.com/nhle/taskboard/internal/logging"
	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/seed"
	"github.com/nhle/taskboard/internal/store"
)

func main() {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "seed: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.Log, os.Stdout)
	logger.SetReportCaller(true)
	log := logger.WithField("cmd", "seed")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg.Database, log); err != nil {
		log.WithError(err).WithField("chain", logging.ErrorChain(err)).Error("seeding failed")
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg model.DatabaseConfig, log logrus.FieldLogger) error {
	policy, err := seed.ParsePolicy(cfg.SeedPolicy)
	if err != nil {
		return err
	}
	script, err := seed.LoadScript(cfg.SeedFile)
	if err != nil {
		return err
	}

	s, err := store.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	_, err = seed.New(s.DB(), policy, log).Run(ctx, script)

	var stmtErr seed.StatementError
	if errors.As(err, &stmtErr) {
		log.WithFields(logrus.Fields{
			"statement": stmtErr.Index + 1,
			"sql":       stmtErr.Statement,
		}).WithError(stmtErr.Err).Error("aborting on failed statement")
	}

	return err
}
