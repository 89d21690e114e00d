package app

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/nhle/taskboard/internal/credential"
	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/source"
	sourcedb "github.com/nhle/taskboard/internal/source/database"
	"github.com/nhle/taskboard/internal/source/email"
	sourceredis "github.com/nhle/taskboard/internal/source/redis"
	"github.com/nhle/taskboard/internal/store"
	appsync "github.com/nhle/taskboard/internal/sync"
)

// resolveSecret looks up a credential: the environment first, then the
// system keyring.
var resolveSecret = credential.Resolve

// RegisterSources builds every enabled source in cfg and registers it with
// the poller. When no sources are configured and a user is signed in, the
// user's database feed is registered. Sources that cannot be built are
// logged and skipped. It returns the number registered.
func RegisterSources(
	cfg model.NotificationsConfig,
	p *appsync.Poller,
	users store.Store,
	user *model.User,
	log logrus.FieldLogger,
) int {
	configs := cfg.Sources
	if len(configs) == 0 && users != nil && user != nil {
		configs = []model.SourceConfig{{
			ID:      "database",
			Type:    string(source.SourceTypeDatabase),
			Name:    "Notification feed",
			Enabled: true,
		}}
	}

	registered := 0
	for _, sc := range configs {
		if !sc.Enabled {
			continue
		}
		entry := log.WithFields(logrus.Fields{"source": sc.ID, "type": sc.Type})

		src, err := buildSource(sc, users, user, log)
		if err != nil {
			entry.WithError(err).Warn("skipping source")
			continue
		}
		if err := p.RegisterSource(src, sc); err != nil {
			entry.WithError(err).Warn("skipping source")
			continue
		}
		registered++
	}
	return registered
}

func buildSource(
	sc model.SourceConfig,
	users store.Store,
	user *model.User,
	log logrus.FieldLogger,
) (source.Source, error) {
	switch source.SourceType(sc.Type) {
	case source.SourceTypeDatabase:
		if users == nil || user == nil {
			return nil, fmt.Errorf("database source needs a signed-in user")
		}
		return sourcedb.New(users, user.ID), nil

	case source.SourceTypeEmail:
		password, err := resolveSecret(os.Getenv("TASKBOARD_IMAP_PASSWORD"), credential.SourceKey(credential.KeyIMAPPassword, sc.ID))
		if err != nil {
			return nil, fmt.Errorf("loading IMAP password: %w", err)
		}
		if password == "" {
			return nil, fmt.Errorf("no IMAP password in TASKBOARD_IMAP_PASSWORD or keyring")
		}
		return email.NewSourceFromConfig(sc.Config, password)

	case source.SourceTypeRedis:
		password, err := resolveSecret(os.Getenv("TASKBOARD_REDIS_PASSWORD"), credential.SourceKey(credential.KeyRedisPassword, sc.ID))
		if err != nil {
			return nil, fmt.Errorf("loading redis password: %w", err)
		}
		recipient := sc.Config["user"]
		if recipient == "" && user != nil {
			recipient = user.ID
		}
		if recipient == "" {
			return nil, fmt.Errorf("redis source needs a user")
		}
		return sourceredis.NewFromConfig(sc.Config, password, recipient, log)

	default:
		return nil, fmt.Errorf("unknown source type %q", sc.Type)
	}
}
