package email

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/source"
)

const (
	defaultFetchLimit = 20
	maxPreviewRunes   = 600

	// maxPagesPerFetch bounds one Fetch; the rest waits for the next poll.
	maxPagesPerFetch = 10
)

// fetcher is the part of IMAPClient the source needs. FetchSince returns
// at most limit messages above afterUID, oldest first.
type fetcher interface {
	FetchSince(ctx context.Context, afterUID uint32, limit int) ([]Message, error)
}

// Source turns new inbox messages into notifications.
type Source struct {
	client   *IMAPClient
	fetcher  fetcher
	username string
	limit    int

	mu      sync.Mutex
	lastUID uint32
}

// NewSource creates an email notification source.
func NewSource(host, port, username, password string, useTLS bool) *Source {
	c := NewIMAPClient(host, port, username, password, useTLS)
	return &Source{
		client:   c,
		fetcher:  c,
		username: username,
		limit:    defaultFetchLimit,
	}
}

// NewSourceFromConfig builds a source from the "config" map of a source
// entry: host, port, username, tls ("true"/"false"), mailbox, limit.
func NewSourceFromConfig(cfg map[string]string, password string) (*Source, error) {
	host := cfg["host"]
	username := cfg["username"]
	if host == "" || username == "" {
		return nil, fmt.Errorf("email source needs host and username")
	}
	port := cfg["port"]
	if port == "" {
		port = "993"
	}
	useTLS := cfg["tls"] != "false"

	s := NewSource(host, port, username, password, useTLS)
	if mb := cfg["mailbox"]; mb != "" {
		s.client.mailbox = mb
	}
	if l, err := strconv.Atoi(cfg["limit"]); err == nil && l > 0 {
		s.limit = l
	}
	return s, nil
}

// Type implements source.Source.
func (s *Source) Type() source.SourceType {
	return source.SourceTypeEmail
}

// ValidateConnection verifies IMAP credentials by connecting,
// authenticating, and selecting the mailbox. Returns the username on success.
func (s *Source) ValidateConnection(ctx context.Context) (string, error) {
	client, err := s.client.Connect(ctx)
	if err != nil {
		return "", fmt.Errorf("validating email connection: %w", err)
	}
	defer func() { _ = client.Logout().Wait() }()

	if _, err := client.Select(s.client.mailbox, nil).Wait(); err != nil {
		return "", fmt.Errorf("selecting %s: %w", s.client.mailbox, err)
	}

	return s.username, nil
}

// Fetch returns notifications for messages newer than the last fetch,
// reading the backlog page by page, oldest first.
func (s *Source) Fetch(ctx context.Context) ([]model.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []model.Notification
	for page := 0; page < maxPagesPerFetch; page++ {
		messages, err := s.fetcher.FetchSince(ctx, s.lastUID, s.limit)

		before := s.lastUID
		for _, m := range messages {
			if m.Envelope.UID <= s.lastUID {
				continue
			}
			s.lastUID = m.Envelope.UID
			out = append(out, toNotification(m))
		}

		if err != nil {
			err = fmt.Errorf("fetching email notifications: %w", err)
			if len(out) == 0 {
				return nil, err
			}
			return out, err
		}
		if s.limit <= 0 || len(messages) < s.limit || s.lastUID == before {
			break
		}
	}
	return out, nil
}

// toNotification maps a message onto a notification.
func toNotification(m Message) model.Notification {
	env := m.Envelope

	id := "email:" + strconv.FormatUint(uint64(env.UID), 10)
	link := ""
	if env.MessageID != "" {
		id = "email:" + env.MessageID
		link = "mid:" + env.MessageID
	}

	title := strings.TrimSpace(env.Subject)
	if title == "" {
		title = "(no subject)"
	}

	created := env.Date
	if created.IsZero() {
		created = time.Now()
	}

	return model.Notification{
		ID:        id,
		Type:      Classify(m),
		Title:     title,
		Message:   previewBody(env.From, m.TextBody),
		Link:      link,
		Read:      m.Seen(),
		CreatedAt: created,
	}
}

// previewBody renders the sender and the start of the body as markdown.
func previewBody(from, body string) string {
	body = strings.TrimSpace(body)
	if r := []rune(body); len(r) > maxPreviewRunes {
		body = string(r[:maxPreviewRunes]) + "…"
	}
	if from == "" {
		return body
	}
	if body == "" {
		return fmt.Sprintf("**From:** %s", from)
	}
	return fmt.Sprintf("**From:** %s\n\n%s", from, body)
}

// Classify picks a notification type for a message.
func Classify(m Message) model.NotificationType {
	subject := strings.ToLower(m.Envelope.Subject)
	sender := strings.ToLower(m.Envelope.FromAddr)

	switch {
	case m.HasCalendar,
		strings.HasPrefix(subject, "invitation:"),
		strings.Contains(subject, "meeting"):
		return model.NotificationMeeting
	case strings.Contains(subject, "reminder"):
		return model.NotificationReminder
	case strings.Contains(subject, "[task]"),
		strings.Contains(subject, "assigned to you"),
		strings.Contains(subject, "assigned you"):
		return model.NotificationTask
	case strings.HasPrefix(sender, "mailer-daemon@"),
		strings.HasPrefix(sender, "postmaster@"),
		strings.HasPrefix(sender, "no-reply@"),
		strings.HasPrefix(sender, "noreply@"):
		return model.NotificationSystem
	default:
		return model.NotificationOther
	}
}
