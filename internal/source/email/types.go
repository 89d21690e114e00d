package email

import "time"

// Envelope holds the parsed envelope data from an IMAP message.
type Envelope struct {
	MessageID string
	Subject   string
	From      string
	FromAddr  string
	Date      time.Time
	Flags     []string // \Seen, \Flagged, \Answered, \Deleted
	UID       uint32
}

// Message is an envelope plus the parts of the body the notification
// mapping needs.
type Message struct {
	Envelope    Envelope
	TextBody    string
	HasCalendar bool
}

// Seen reports whether the message carries the \Seen flag.
func (m Message) Seen() bool {
	for _, f := range m.Envelope.Flags {
		if f == `\Seen` {
			return true
		}
	}
	return false
}
