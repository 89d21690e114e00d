package email

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/taskboard/internal/model"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		msg  Message
		want model.NotificationType
	}{
		{"calendar part", Message{HasCalendar: true, Envelope: Envelope{Subject: "Sync"}}, model.NotificationMeeting},
		{"invitation subject", Message{Envelope: Envelope{Subject: "Invitation: Sprint review"}}, model.NotificationMeeting},
		{"reminder", Message{Envelope: Envelope{Subject: "Reminder: submit timesheet"}}, model.NotificationReminder},
		{"task tag", Message{Envelope: Envelope{Subject: "[Task] Fix login"}}, model.NotificationTask},
		{"assigned", Message{Envelope: Envelope{Subject: "PROJ-12 was assigned to you"}}, model.NotificationTask},
		{"bounce", Message{Envelope: Envelope{Subject: "Undeliverable", FromAddr: "MAILER-DAEMON@example.com"}}, model.NotificationSystem},
		{"no-reply", Message{Envelope: Envelope{Subject: "Your invoice", FromAddr: "no-reply@shop.test"}}, model.NotificationSystem},
		{"other", Message{Envelope: Envelope{Subject: "Lunch?", FromAddr: "bob@example.com"}}, model.NotificationOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.msg))
		})
	}
}

func TestParseMIMEBody(t *testing.T) {
	raw := strings.Join([]string{
		"From: Alice <alice@example.com>",
		"Subject: Planning",
		"MIME-Version: 1.0",
		`Content-Type: multipart/mixed; boundary="b1"`,
		"",
		"--b1",
		"Content-Type: text/plain; charset=utf-8",
		"",
		"See you at ten.",
		"--b1",
		"Content-Type: text/calendar; method=REQUEST",
		`Content-Disposition: attachment; filename="invite.ics"`,
		"",
		"BEGIN:VCALENDAR",
		"END:VCALENDAR",
		"--b1--",
		"",
	}, "\r\n")

	text, hasCalendar := parseMIMEBody([]byte(raw))
	assert.Equal(t, "See you at ten.", strings.TrimSpace(text))
	assert.True(t, hasCalendar)
}

func TestParseMIMEBodyPlainMessage(t *testing.T) {
	raw := "Subject: hi\r\nContent-Type: text/plain\r\n\r\nhello there\r\n"

	text, hasCalendar := parseMIMEBody([]byte(raw))
	assert.Equal(t, "hello there", strings.TrimSpace(text))
	assert.False(t, hasCalendar)
}

func TestToNotification(t *testing.T) {
	date := time.Date(2026, 3, 2, 14, 0, 0, 0, time.UTC)
	n := toNotification(Message{
		Envelope: Envelope{
			MessageID: "abc@mail",
			Subject:   "  ",
			From:      "Alice",
			Date:      date,
			Flags:     []string{`\Seen`},
			UID:       7,
		},
		TextBody: strings.Repeat("x", maxPreviewRunes+10),
	})

	assert.Equal(t, "email:abc@mail", n.ID)
	assert.Equal(t, "mid:abc@mail", n.Link)
	assert.Equal(t, "(no subject)", n.Title)
	assert.True(t, n.Read)
	assert.True(t, n.CreatedAt.Equal(date))
	assert.True(t, strings.HasPrefix(n.Message, "**From:** Alice"))
	assert.True(t, strings.HasSuffix(n.Message, "…"))

	noID := toNotification(Message{Envelope: Envelope{UID: 42, Subject: "x"}})
	assert.Equal(t, "email:42", noID.ID)
	assert.Empty(t, noID.Link)
	assert.False(t, noID.Read)
}

type fakeFetcher struct {
	calls   []uint32
	batches [][]Message
	err     error
}

func (f *fakeFetcher) FetchSince(_ context.Context, afterUID uint32, _ int) ([]Message, error) {
	f.calls = append(f.calls, afterUID)
	if f.err != nil {
		return nil, f.err
	}
	if len(f.batches) == 0 {
		return nil, nil
	}
	b := f.batches[0]
	f.batches = f.batches[1:]
	return b, nil
}

func TestFetchTracksLastUID(t *testing.T) {
	f := &fakeFetcher{batches: [][]Message{
		{{Envelope: Envelope{UID: 3, Subject: "a"}}, {Envelope: Envelope{UID: 9, Subject: "b"}}},
		{{Envelope: Envelope{UID: 12, Subject: "c"}}},
	}}
	s := NewSource("imap.example.com", "993", "me@example.com", "pw", true)
	s.fetcher = f

	first, err := s.Fetch(context.Background())
	require.NoError(t, err)
	assert.Len(t, first, 2)

	second, err := s.Fetch(context.Background())
	require.NoError(t, err)
	assert.Len(t, second, 1)

	assert.Equal(t, []uint32{0, 9}, f.calls)
}

func TestFetchWrapsErrors(t *testing.T) {
	s := NewSource("imap.example.com", "993", "me@example.com", "pw", true)
	s.fetcher = &fakeFetcher{err: errors.New("boom")}

	_, err := s.Fetch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetching email notifications")
}

func TestNewSourceFromConfig(t *testing.T) {
	_, err := NewSourceFromConfig(map[string]string{"host": "imap.test"}, "pw")
	assert.Error(t, err)

	s, err := NewSourceFromConfig(map[string]string{
		"host":     "imap.test",
		"username": "me",
		"tls":      "false",
		"mailbox":  "Work",
		"limit":    "5",
	}, "pw")
	require.NoError(t, err)
	assert.Equal(t, "993", s.client.port)
	assert.False(t, s.client.tls)
	assert.Equal(t, "Work", s.client.mailbox)
	assert.Equal(t, 5, s.limit)
}

// mailbox serves FetchSince from a fixed set of UIDs the way the server
// does: oldest first, at most limit per call.
type mailbox struct {
	uids      []uint32
	calls     []uint32
	failAfter int
}

func (m *mailbox) FetchSince(_ context.Context, afterUID uint32, limit int) ([]Message, error) {
	m.calls = append(m.calls, afterUID)
	if m.failAfter > 0 && len(m.calls) > m.failAfter {
		return nil, errors.New("connection reset")
	}
	var out []Message
	for _, uid := range m.uids {
		if uid <= afterUID {
			continue
		}
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, Message{Envelope: Envelope{UID: uid, Subject: fmt.Sprintf("m%d", uid)}})
	}
	return out, nil
}

func TestFetchPagesThroughBacklogOldestFirst(t *testing.T) {
	box := &mailbox{uids: []uint32{2, 4, 5, 7, 8}}
	s := NewSource("imap.example.com", "993", "me@example.com", "pw", true)
	s.fetcher = box
	s.limit = 2

	got, err := s.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 5)
	for i, want := range []string{"m2", "m4", "m5", "m7", "m8"} {
		assert.Equal(t, want, got[i].Title)
	}
	assert.Equal(t, []uint32{0, 4, 7}, box.calls)

	box.uids = append(box.uids, 9)
	got, err = s.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "m9", got[0].Title)
}

func TestFetchKeepsDeliveredPagesOnError(t *testing.T) {
	box := &mailbox{uids: []uint32{1, 2, 3, 4, 5}, failAfter: 1}
	s := NewSource("imap.example.com", "993", "me@example.com", "pw", true)
	s.fetcher = box
	s.limit = 2

	got, err := s.Fetch(context.Background())
	require.Error(t, err)
	require.Len(t, got, 2, "first page is still delivered")

	box.failAfter = 0
	got, err = s.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "m3", got[0].Title, "resumes after the last delivered message")
}
