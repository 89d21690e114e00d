// Package redis receives notifications published on a Redis Pub/Sub
// channel and buffers them until the next fetch.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/source"
)

const (
	channelPrefix  = "taskboard:notifications:"
	maxBuffered    = 500
	publishTimeout = 2 * time.Second
)

// Channel returns the Pub/Sub channel carrying a user's notifications.
func Channel(userID string) string {
	return channelPrefix + userID
}

// envelope is the JSON shape published on the channel.
type envelope struct {
	ID      string    `json:"id,omitempty"`
	Type    string    `json:"type"`
	Title   string    `json:"title"`
	Message string    `json:"message,omitempty"`
	Link    string    `json:"link,omitempty"`
	SentAt  time.Time `json:"sent_at"`
}

// Source subscribes to a user's channel in the background. Messages are
// kept in a bounded buffer; Fetch drains it.
type Source struct {
	client  *goredis.Client
	channel string
	log     logrus.FieldLogger

	mu      sync.Mutex
	buf     []model.Notification
	dropped int

	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a source for userID on the given client.
func New(client *goredis.Client, userID string, log logrus.FieldLogger) *Source {
	return &Source{
		client:  client,
		channel: Channel(userID),
		log:     log.WithField("source", "redis"),
		done:    make(chan struct{}),
	}
}

// NewFromConfig builds a client from a source entry's "config" map
// (addr, db) and the resolved password.
func NewFromConfig(cfg map[string]string, password, userID string, log logrus.FieldLogger) (*Source, error) {
	addr := cfg["addr"]
	if addr == "" {
		addr = "localhost:6379"
	}
	db := 0
	if v := cfg["db"]; v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("parsing redis db %q: %w", v, err)
		}
		db = n
	}
	client := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return New(client, userID, log), nil
}

// Type implements source.Source.
func (s *Source) Type() source.SourceType {
	return source.SourceTypeRedis
}

// ValidateConnection pings the server and starts the subscriber.
func (s *Source) ValidateConnection(ctx context.Context) (string, error) {
	if err := s.client.Ping(ctx).Err(); err != nil {
		if isAuthFailure(err) {
			return "", &source.AuthError{SourceType: source.SourceTypeRedis, Message: err.Error()}
		}
		return "", fmt.Errorf("pinging redis: %w", err)
	}
	if err := s.start(ctx); err != nil {
		return "", err
	}
	return fmt.Sprintf("Subscribed to %s", s.channel), nil
}

// Fetch starts the subscriber on first use and returns everything
// buffered since the previous call.
func (s *Source) Fetch(ctx context.Context) ([]model.Notification, error) {
	if err := s.start(ctx); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dropped > 0 {
		s.log.WithField("dropped", s.dropped).Warn("notification buffer overflowed")
		s.dropped = 0
	}
	out := s.buf
	s.buf = nil
	return out, nil
}

// Publish sends a notification to userID's channel.
func Publish(ctx context.Context, client *goredis.Client, userID string, n model.Notification) error {
	body, err := encode(n)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	if err := client.Publish(ctx, Channel(userID), body).Err(); err != nil {
		return fmt.Errorf("publishing to %s: %w", Channel(userID), err)
	}
	return nil
}

// Close stops the subscriber and closes the client.
func (s *Source) Close() error {
	var started bool
	s.mu.Lock()
	started = s.cancel != nil
	if started {
		s.cancel()
	}
	s.mu.Unlock()
	if started {
		<-s.done
	}
	return s.client.Close()
}

func (s *Source) start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return nil
	}

	pubsub := s.client.Subscribe(ctx, s.channel)
	// Wait for the subscription confirmation before reading messages.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return fmt.Errorf("subscribing to %s: %w", s.channel, err)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go s.run(runCtx, pubsub)

	s.log.WithField("channel", s.channel).Info("redis subscriber started")
	return nil
}

func (s *Source) run(ctx context.Context, pubsub *goredis.PubSub) {
	defer close(s.done)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			n, err := decode([]byte(msg.Payload))
			if err != nil {
				s.log.WithError(err).Warn("dropping malformed notification")
				continue
			}
			s.push(n)
		}
	}
}

// push appends n, discarding the oldest entry when the buffer is full.
func (s *Source) push(n model.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.buf) >= maxBuffered {
		s.buf = s.buf[1:]
		s.dropped++
	}
	s.buf = append(s.buf, n)
}

func encode(n model.Notification) ([]byte, error) {
	sent := n.CreatedAt
	if sent.IsZero() {
		sent = time.Now()
	}
	body, err := json.Marshal(envelope{
		ID:      n.ID,
		Type:    string(n.Type),
		Title:   n.Title,
		Message: n.Message,
		Link:    n.Link,
		SentAt:  sent.UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("encoding notification: %w", err)
	}
	return body, nil
}

func decode(payload []byte) (model.Notification, error) {
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return model.Notification{}, fmt.Errorf("decoding notification: %w", err)
	}
	if env.Title == "" {
		return model.Notification{}, fmt.Errorf("notification has no title")
	}
	n := model.Notification{
		Type:      model.ParseNotificationType(env.Type),
		Title:     env.Title,
		Message:   env.Message,
		Link:      env.Link,
		CreatedAt: env.SentAt,
	}
	if env.ID != "" {
		n.ID = "redis:" + env.ID
	}
	return n, nil
}

func isAuthFailure(err error) bool {
	msg := err.Error()
	return strings.HasPrefix(msg, "NOAUTH") || strings.HasPrefix(msg, "WRONGPASS")
}
