// Command publish sends a notification to a user, either by inserting it
// into the database feed or by publishing it on the user's redis channel.
//
//	publish -to ada@taskboard.dev -title "Deploy done" -type system
//	publish -via redis -redis localhost:6379 -to ada@taskboard.dev -title "Standup" -type meeting
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/nhle/taskboard/internal/bootstrap"
	"github.com/nhle/taskboard/internal/logging"
	"github.com/nhle/taskboard/internal/model"
	sourceredis "github.com/nhle/taskboard/internal/source/redis"
	"github.com/nhle/taskboard/internal/store"
)

const publishDeadline = 15 * time.Second

type options struct {
	via     string
	to      string
	kind    string
	title   string
	message string
	link    string
	addr    string
}

func main() {
	var opts options
	flag.StringVar(&opts.via, "via", "db", `delivery path: "db" or "redis"`)
	flag.StringVar(&opts.to, "to", "", "recipient email")
	flag.StringVar(&opts.kind, "type", string(model.NotificationOther), "notification type")
	flag.StringVar(&opts.title, "title", "", "notification title")
	flag.StringVar(&opts.message, "message", "", "markdown body")
	flag.StringVar(&opts.link, "link", "", "optional link")
	flag.StringVar(&opts.addr, "redis", "localhost:6379", "redis address")
	flag.Parse()

	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "publish: %v\n", err)
		os.Exit(1)
	}
	log := logging.New(cfg.Log, os.Stdout).WithField("cmd", "publish")

	ctx, cancel := context.WithTimeout(context.Background(), publishDeadline)
	defer cancel()

	if err := run(ctx, cfg.Database, opts, log); err != nil {
		log.WithError(err).Error("publish failed")
		cancel()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg model.DatabaseConfig, opts options, log logrus.FieldLogger) error {
	if opts.to == "" || opts.title == "" {
		return fmt.Errorf("-to and -title are required")
	}

	s, err := store.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	user, err := s.GetUserByEmail(ctx, opts.to)
	if err != nil {
		return fmt.Errorf("looking up %s: %w", opts.to, err)
	}

	n := model.Notification{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		Type:      model.ParseNotificationType(opts.kind),
		Title:     opts.title,
		Message:   opts.message,
		Link:      opts.link,
		CreatedAt: time.Now().UTC(),
	}
	entry := log.WithFields(logrus.Fields{"to": user.Email, "type": n.Type, "via": opts.via})

	switch opts.via {
	case "db":
		id, err := s.CreateNotification(ctx, n)
		if err != nil {
			return err
		}
		entry.WithField("id", id).Info("notification stored")
	case "redis":
		client := goredis.NewClient(&goredis.Options{
			Addr:     opts.addr,
			Password: os.Getenv("TASKBOARD_REDIS_PASSWORD"),
		})
		defer client.Close()
		if err := sourceredis.Publish(ctx, client, user.ID, n); err != nil {
			return err
		}
		entry.WithField("channel", sourceredis.Channel(user.ID)).Info("notification published")
	default:
		return fmt.Errorf("unknown delivery path %q", opts.via)
	}
	return nil
}
