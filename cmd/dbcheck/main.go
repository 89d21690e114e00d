// Command dbcheck verifies that the configured database is reachable and
// prints what it reports about itself.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nhle/taskboard/internal/bootstrap"
	"github.com/nhle/taskboard/internal/database"
	"github.com/nhle/taskboard/internal/logging"
)

const checkTimeout = 15 * time.Second

func main() {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "dbcheck: %v\n", err)
		os.Exit(1)
	}
	log := logging.New(cfg.Log, os.Stdout).WithField("cmd", "dbcheck")

	ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
	defer cancel()

	db, err := database.Open(cfg.Database.Driver, cfg.Database.DSN())
	if err != nil {
		log.WithError(err).Error("connection failed")
		cancel()
		os.Exit(1)
	}
	defer db.Close()

	info, err := database.Check(ctx, db)
	if err != nil {
		log.WithError(err).Error("database check failed")
		db.Close()
		cancel()
		os.Exit(1)
	}

	log.WithFields(logrus.Fields{
		"driver":  info.Driver,
		"version": info.ServerVersion,
		"latency": info.Latency.Round(time.Microsecond).String(),
		"time":    info.CurrentTime.Format(time.RFC3339),
	}).Info("database is reachable")
}
