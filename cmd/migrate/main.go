// Command migrate applies pending schema migrations to the configured
// database.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/nhle/taskboard/internal/bootstrap"
	"github.com/nhle/taskboard/internal/database"
	"github.com/nhle/taskboard/internal/logging"
	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/store"
)

func main() {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.Log, os.Stdout)
	logger.SetReportCaller(true)
	log := logger.WithField("cmd", "migrate")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg.Database, log); err != nil {
		log.WithError(err).WithField("chain", logging.ErrorChain(err)).Error("migration failed")
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg model.DatabaseConfig, log logrus.FieldLogger) error {
	db, err := database.Open(cfg.Driver, cfg.DSN())
	if err != nil {
		return err
	}
	defer db.Close()

	s := store.New(db)
	before, err := s.SchemaVersion(ctx)
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"driver":  cfg.Driver,
		"version": before,
		"latest":  store.LatestVersion(),
	}).Info("connected")

	applied, err := s.Migrate(ctx)
	if err != nil {
		return err
	}
	if len(applied) == 0 {
		log.Info("schema is up to date")
		return nil
	}
	for _, v := range applied {
		log.WithField("version", v).Info("applied migration")
	}
	log.WithField("count", len(applied)).Info("migrations complete")
	return nil
}
