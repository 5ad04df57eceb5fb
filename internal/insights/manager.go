package insights

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"sync"
	"time"

	"github.com/odyssey-erp/finconsol/internal/analytics"
)

// Phase is the lifecycle position of an insight request for one view.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhasePending   Phase = "pending"
	PhaseSucceeded Phase = "succeeded"
	PhaseFailed    Phase = "failed"
)

// DefaultTimeout bounds a single summarizer call.
const DefaultTimeout = 30 * time.Second

var (
	// ErrRequestInFlight is returned when a view already has a pending request.
	ErrRequestInFlight = errors.New("insights: request already in flight")
	// ErrNoSummarizer is returned when the manager has nothing to call.
	ErrNoSummarizer = errors.New("insights: summarizer not configured")
)

// Snapshot is the externally visible state of a view's insight.
type Snapshot struct {
	View        analytics.View `json:"view"`
	Phase       Phase          `json:"phase"`
	Text        string         `json:"text,omitempty"`
	HTML        template.HTML  `json:"html,omitempty"`
	Reason      string         `json:"reason,omitempty"`
	RequestedAt time.Time      `json:"requested_at,omitempty"`
	CompletedAt time.Time      `json:"completed_at,omitempty"`
}

type slot struct {
	snap   Snapshot
	cancel context.CancelFunc
	gen    uint64
}

// Manager runs at most one insight request per view.
type Manager struct {
	summarizer Summarizer
	timeout    time.Duration
	logger     *slog.Logger
	clock      func() time.Time

	mu    sync.Mutex
	slots map[analytics.View]*slot
	wg    sync.WaitGroup
}

// NewManager constructs a manager. A non-positive timeout uses DefaultTimeout.
func NewManager(summarizer Summarizer, timeout time.Duration, logger *slog.Logger) *Manager {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		summarizer: summarizer,
		timeout:    timeout,
		logger:     logger,
		clock:      func() time.Time { return time.Now().UTC() },
		slots:      make(map[analytics.View]*slot),
	}
}

// Request starts summarising payload for view. The call returns immediately
// with the pending snapshot; the result lands in State once the summarizer returns.
func (m *Manager) Request(ctx context.Context, view analytics.View, payload Payload) (Snapshot, error) {
	if m.summarizer == nil {
		return Snapshot{}, ErrNoSummarizer
	}
	prompt := BuildPrompt(payload)

	m.mu.Lock()
	s := m.slot(view)
	if s.snap.Phase == PhasePending {
		snap := s.snap
		m.mu.Unlock()
		return snap, ErrRequestInFlight
	}
	runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.timeout)
	s.gen++
	gen := s.gen
	s.cancel = cancel
	s.snap = Snapshot{View: view, Phase: PhasePending, RequestedAt: m.clock()}
	snap := s.snap
	m.wg.Add(1)
	m.mu.Unlock()

	go m.run(runCtx, cancel, view, gen, prompt)
	return snap, nil
}

func (m *Manager) run(ctx context.Context, cancel context.CancelFunc, view analytics.View, gen uint64, prompt string) {
	defer m.wg.Done()
	defer cancel()

	text, err := m.summarizer.Summarize(ctx, prompt)
	var html template.HTML
	if err == nil {
		html, err = RenderMarkdown(text)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.slot(view)
	if s.gen != gen {
		return
	}
	s.cancel = nil
	s.snap.CompletedAt = m.clock()
	if err != nil {
		s.snap.Phase = PhaseFailed
		s.snap.Reason = failureReason(err)
		m.logger.Warn("insight request failed", slog.String("view", string(view)), slog.Any("error", err))
		return
	}
	s.snap.Phase = PhaseSucceeded
	s.snap.Text = text
	s.snap.HTML = html
}

// Cancel aborts a pending request and returns the view to idle. It reports
// whether anything was cancelled.
func (m *Manager) Cancel(view analytics.View) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.slots[view]
	if !ok || s.snap.Phase != PhasePending {
		return false
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.gen++
	s.snap = Snapshot{View: view, Phase: PhaseIdle}
	return true
}

// CancelAllExcept cancels pending requests on every view other than keep,
// matching navigation away from a screen.
func (m *Manager) CancelAllExcept(keep analytics.View) int {
	m.mu.Lock()
	pending := make([]analytics.View, 0, len(m.slots))
	for view, s := range m.slots {
		if view != keep && s.snap.Phase == PhasePending {
			pending = append(pending, view)
		}
	}
	m.mu.Unlock()
	cancelled := 0
	for _, view := range pending {
		if m.Cancel(view) {
			cancelled++
		}
	}
	return cancelled
}

// State returns a copy of the view's snapshot.
func (m *Manager) State(view analytics.View) Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.slots[view]; ok {
		return s.snap
	}
	return Snapshot{View: view, Phase: PhaseIdle}
}

// Wait blocks until every started request goroutine has returned.
func (m *Manager) Wait() {
	m.wg.Wait()
}

func (m *Manager) slot(view analytics.View) *slot {
	s, ok := m.slots[view]
	if !ok {
		s = &slot{snap: Snapshot{View: view, Phase: PhaseIdle}}
		m.slots[view] = s
	}
	return s
}

func failureReason(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "insight generation timed out"
	}
	return fmt.Sprintf("insight generation failed: %v", err)
}
