// Package sync polls notification sources on cron schedules and feeds the
// results into the notification store.
package sync

import (
	"context"
	"fmt"
	"sort"
	gosync "sync"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/notify"
	"github.com/nhle/taskboard/internal/source"
)

// SyncState represents the current state of a source sync operation.
type SyncState int

const (
	SyncIdle SyncState = iota
	SyncRunning
	SyncError
)

func (s SyncState) String() string {
	switch s {
	case SyncRunning:
		return "running"
	case SyncError:
		return "error"
	default:
		return "idle"
	}
}

// SyncStatus holds the sync state for a single source.
type SyncStatus struct {
	SourceID   string
	SourceType source.SourceType
	State      SyncState
	LastSync   time.Time
	Error      error
}

// SyncResultMsg is a tea.Msg sent when a sync operation completes.
type SyncResultMsg struct {
	SourceID  string
	Source    source.SourceType
	Fetched   int
	Added     int
	Error     error
	AuthError *AuthErrorMsg
}

// AuthErrorMsg is a tea.Msg sent when a source returns an authentication error.
type AuthErrorMsg struct {
	SourceType source.SourceType
	Message    string
}

// fetchTimeout is the maximum time allowed for a single fetch operation.
const fetchTimeout = 30 * time.Second

// DefaultSchedule is used for sources without their own schedule.
const DefaultSchedule = "@every 2m"

// sourceEntry holds a registered source and its configuration.
type sourceEntry struct {
	src      source.Source
	cfg      model.SourceConfig
	schedule string
	busy     atomic.Bool

	// validated is cleared after an auth failure so the connection is
	// checked again before the next fetch.
	validated atomic.Bool
}

// Poller orchestrates background polling of registered sources.
type Poller struct {
	store    *notify.Store
	log      logrus.FieldLogger
	cron     *cron.Cron
	schedule string

	sources  []*sourceEntry
	statuses map[string]*SyncStatus
	resultCh chan SyncResultMsg
	mu       gosync.Mutex
	running  bool
}

// New creates a new Poller that adds fetched notifications to s.
// An empty schedule falls back to DefaultSchedule.
func New(s *notify.Store, schedule string, log logrus.FieldLogger) *Poller {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	log = log.WithField("component", "poller")
	return &Poller{
		store:    s,
		log:      log,
		cron:     cron.New(cron.WithLogger(cron.PrintfLogger(log))),
		schedule: schedule,
		statuses: make(map[string]*SyncStatus),
		resultCh: make(chan SyncResultMsg, 16),
	}
}

// RegisterSource adds a source and its configuration to the poller.
// The effective schedule is validated here so a bad spec fails at startup.
func (p *Poller) RegisterSource(src source.Source, cfg model.SourceConfig) error {
	schedule := cfg.Schedule
	if schedule == "" {
		schedule = p.schedule
	}
	if _, err := cron.ParseStandard(schedule); err != nil {
		return fmt.Errorf("parsing schedule %q for source %s: %w", schedule, cfg.ID, err)
	}
	if cfg.ID == "" {
		cfg.ID = string(src.Type())
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, dup := p.statuses[cfg.ID]; dup {
		return fmt.Errorf("source %s registered twice", cfg.ID)
	}
	p.sources = append(p.sources, &sourceEntry{src: src, cfg: cfg, schedule: schedule})
	p.statuses[cfg.ID] = &SyncStatus{
		SourceID:   cfg.ID,
		SourceType: src.Type(),
		State:      SyncIdle,
	}
	return nil
}

// Start schedules every source, kicks off an immediate first fetch and
// returns a command that delivers the first SyncResultMsg.
func (p *Poller) Start() tea.Cmd {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = true
	entries := append([]*sourceEntry(nil), p.sources...)
	p.mu.Unlock()

	for _, entry := range entries {
		if _, err := p.cron.AddFunc(entry.schedule, func() { p.poll(entry) }); err != nil {
			p.log.WithError(err).WithField("source", entry.cfg.ID).Error("scheduling source")
			continue
		}
		go p.poll(entry)
	}
	p.cron.Start()
	p.log.WithField("sources", len(entries)).Info("poller started")

	return p.waitForResult()
}

// Stop halts the scheduler, waits for running fetches and closes sources
// that hold connections.
func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	entries := append([]*sourceEntry(nil), p.sources...)
	p.mu.Unlock()

	<-p.cron.Stop().Done()

	for _, entry := range entries {
		if c, ok := entry.src.(source.Closer); ok {
			if err := c.Close(); err != nil {
				p.log.WithError(err).WithField("source", entry.cfg.ID).Warn("closing source")
			}
		}
	}
}

// RefreshAll triggers an immediate poll of all registered sources.
func (p *Poller) RefreshAll() tea.Cmd {
	p.mu.Lock()
	entries := append([]*sourceEntry(nil), p.sources...)
	p.mu.Unlock()

	for _, entry := range entries {
		go p.poll(entry)
	}
	return nil
}

// SyncNow fetches every source once on the calling goroutine and returns
// the results in registration order.
func (p *Poller) SyncNow(ctx context.Context) []SyncResultMsg {
	p.mu.Lock()
	entries := append([]*sourceEntry(nil), p.sources...)
	p.mu.Unlock()

	results := make([]SyncResultMsg, 0, len(entries))
	for _, entry := range entries {
		if !entry.busy.CompareAndSwap(false, true) {
			continue
		}
		results = append(results, p.fetch(ctx, entry))
		entry.busy.Store(false)
	}
	return results
}

// GetStatuses returns the current sync status of all registered sources,
// ordered by source ID.
func (p *Poller) GetStatuses() []SyncStatus {
	p.mu.Lock()
	defer p.mu.Unlock()

	statuses := make([]SyncStatus, 0, len(p.statuses))
	for _, s := range p.statuses {
		statuses = append(statuses, *s)
	}
	sort.Slice(statuses, func(i, j int) bool {
		return statuses[i].SourceID < statuses[j].SourceID
	})
	return statuses
}

// poll runs one fetch unless one is already in flight for the source.
func (p *Poller) poll(entry *sourceEntry) {
	if !entry.busy.CompareAndSwap(false, true) {
		return
	}
	defer entry.busy.Store(false)

	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	p.sendResult(p.fetch(ctx, entry))
}

// fetch validates the connection on first use, performs a single fetch
// and adds the results to the store.
func (p *Poller) fetch(ctx context.Context, entry *sourceEntry) SyncResultMsg {
	id := entry.cfg.ID
	st := entry.src.Type()
	log := p.log.WithFields(logrus.Fields{"source": id, "type": st})

	p.setStatus(id, SyncRunning, nil)

	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	if !entry.validated.Load() {
		status, err := entry.src.ValidateConnection(ctx)
		if err != nil {
			return p.failed(log, entry, SyncResultMsg{SourceID: id, Source: st},
				fmt.Errorf("validating connection: %w", err))
		}
		entry.validated.Store(true)
		log.WithField("status", status).Info("source connected")
	}

	items, err := entry.src.Fetch(ctx)

	// Sources may return a partial batch along with an error.
	added := 0
	if len(items) > 0 {
		added = p.store.Add(items...)
	}
	result := SyncResultMsg{SourceID: id, Source: st, Fetched: len(items), Added: added}

	if err != nil {
		return p.failed(log, entry, result, err)
	}

	p.setStatus(id, SyncIdle, nil)
	if added > 0 {
		log.WithField("added", added).Info("notifications received")
	}
	return result
}

// failed records err on the source status and result. Auth errors get an
// AuthErrorMsg and force the connection to be validated again.
func (p *Poller) failed(log logrus.FieldLogger, entry *sourceEntry, result SyncResultMsg, err error) SyncResultMsg {
	p.setStatus(entry.cfg.ID, SyncError, err)
	result.Error = err

	if source.IsAuthError(err) {
		entry.validated.Store(false)
		log.WithError(err).Warn("source authentication failed")
		result.AuthError = &AuthErrorMsg{
			SourceType: result.Source,
			Message: fmt.Sprintf(
				"%s: authentication failed. Check the stored credentials.",
				entry.cfg.ID,
			),
		}
		return result
	}

	log.WithError(err).Error("fetching notifications")
	return result
}

// setStatus updates the sync status for a source.
func (p *Poller) setStatus(id string, state SyncState, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	status, ok := p.statuses[id]
	if !ok {
		return
	}

	status.State = state
	status.Error = err
	if state == SyncIdle && err == nil {
		status.LastSync = time.Now()
	}
}

// sendResult sends a SyncResultMsg on the result channel without blocking.
func (p *Poller) sendResult(msg SyncResultMsg) {
	select {
	case p.resultCh <- msg:
	default:
		// Drop if channel is full to avoid blocking the poller
	}
}

// waitForResult returns a tea.Cmd that waits for the next result from
// the result channel.
func (p *Poller) waitForResult() tea.Cmd {
	return func() tea.Msg {
		result, ok := <-p.resultCh
		if !ok {
			return nil
		}
		return result
	}
}

// WaitForNextResult returns a tea.Cmd that waits for the next sync result.
// This should be called after processing a SyncResultMsg to continue
// listening for future results.
func (p *Poller) WaitForNextResult() tea.Cmd {
	return p.waitForResult()
}
