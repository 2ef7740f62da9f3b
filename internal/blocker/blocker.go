// Package blocker declines calls through the on-screen call UI when the app
// is not the platform's call-screening handler.
//
// The blocker is best-effort. It searches a vendor-controlled tree for a
// decline control, activates it, and retries a bounded number of times.
// Every failure degrades to the call ringing through.
package blocker

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/ppiankov/offhours/internal/heuristics"
	"github.com/ppiankov/offhours/internal/logger"
	"github.com/ppiankov/offhours/internal/model"
	"github.com/ppiankov/offhours/internal/policy"
	"github.com/ppiankov/offhours/internal/uitree"
)

// State is a blocker FSM state.
type State string

const (
	Idle               State = "idle"
	CallScreenDetected State = "call_screen_detected"
	Searching          State = "searching"
	RetryPending       State = "retry_pending"
	Declined           State = "declined"
	GaveUp             State = "gave_up"
)

// Terminal reports whether s ends a session.
func (s State) Terminal() bool {
	return s == Declined || s == GaveUp
}

// Host is the platform side of the blocker. Its methods are called with the
// blocker's lock held and must not call back into the Blocker.
type Host interface {
	// IsDefaultCallHandler reports whether the app owns call screening.
	IsDefaultCallHandler() model.Tristate
	// RootNode returns a freshly fetched tree, or nil if none is available.
	RootNode() uitree.Node
	// Activate performs mode on the node at path. Returns false on failure.
	Activate(n uitree.Node, path uitree.Path, mode uitree.Mode) bool
	// GlobalBack performs a generic navigate-back action.
	GlobalBack() bool
}

// Config tunes retries and traversal bounds.
type Config struct {
	MaxAttempts  int           `yaml:"max_attempts" validate:"min=1,max=10"`
	Backoff      time.Duration `yaml:"backoff" validate:"min=0"`
	MaxDepth     int           `yaml:"max_depth" validate:"min=1"`
	MaxNodes     int           `yaml:"max_nodes" validate:"min=1"`
	BackOnGiveUp bool          `yaml:"back_on_give_up"`
}

// DefaultConfig returns the reference tuning: 3 attempts, 500ms apart.
func DefaultConfig() Config {
	return Config{
		MaxAttempts: 3,
		Backoff:     500 * time.Millisecond,
		MaxDepth:    64,
		MaxNodes:    2000,
	}
}

// Outcome is reported whenever a session ends.
type Outcome struct {
	SessionID string
	State     State // Declined, GaveUp or Idle (policy allowed the call)
	Attempts  int
	Decision  model.Decision
	Match     string
	Path      string
	WentBack  bool
}

// Option configures a Blocker.
type Option func(*Blocker)

// WithScheduler replaces time.AfterFunc.
func WithScheduler(s Scheduler) Option {
	return func(b *Blocker) { b.sched = s }
}

// WithLogger sets the blocker logger.
func WithLogger(l *logger.Logger) Option {
	return func(b *Blocker) { b.log = l }
}

// WithOutcomeHook registers fn to receive every session outcome. fn runs
// after the blocker's lock is released.
func WithOutcomeHook(fn func(Outcome)) Option {
	return func(b *Blocker) { b.onOutcome = fn }
}

// Blocker is the fallback enforcement state machine. All transitions are
// serialized behind one mutex; retries run on scheduler timers and carry the
// id of the session that scheduled them.
type Blocker struct {
	host      Host
	pol       policy.Evaluator
	heur      atomic.Pointer[heuristics.Heuristics]
	cfg       Config
	sched     Scheduler
	log       *logger.Logger
	onOutcome func(Outcome)

	mu        sync.Mutex
	state     State
	sessionID string
	attempts  int
	decision  model.Decision
	timer     Timer
	last      *Outcome
}

// New creates a Blocker in the Idle state.
func New(host Host, pol policy.Evaluator, h *heuristics.Heuristics, cfg Config, opts ...Option) *Blocker {
	b := &Blocker{
		host:  host,
		pol:   pol,
		cfg:   cfg,
		sched: realScheduler{},
		state: Idle,
	}
	if b.cfg.MaxAttempts <= 0 {
		b.cfg.MaxAttempts = DefaultConfig().MaxAttempts
	}
	if h == nil {
		h = heuristics.NewDefault()
	}
	b.heur.Store(h)
	for _, o := range opts {
		o(b)
	}
	if b.log == nil {
		b.log = logger.Named("blocker")
	}
	return b
}

// SetHeuristics swaps the heuristic data used by subsequent scans.
func (b *Blocker) SetHeuristics(h *heuristics.Heuristics) {
	if h != nil {
		b.heur.Store(h)
	}
}

// Heuristics returns the heuristic data currently in use.
func (b *Blocker) Heuristics() *heuristics.Heuristics {
	return b.heur.Load()
}

// State returns the current FSM state.
func (b *Blocker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// SessionID returns the live session id, or "" when Idle.
func (b *Blocker) SessionID() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sessionID
}

// LastOutcome returns the outcome of the most recently ended session.
func (b *Blocker) LastOutcome() (Outcome, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.last == nil {
		return Outcome{}, false
	}
	return *b.last, true
}

// OnUIEvent handles a UI-state-changed signal and returns the state after it.
// Windows that are not call screens, duplicate signals for a live session,
// and events while the app is the default handler are ignored.
func (b *Blocker) OnUIEvent(ctx context.Context, ev uitree.Event) State {
	b.mu.Lock()
	out := b.onUIEventLocked(ctx, ev)
	state := b.state
	b.mu.Unlock()
	b.emit(out)
	return state
}

func (b *Blocker) onUIEventLocked(ctx context.Context, ev uitree.Event) *Outcome {
	if !b.heur.Load().IsCallScreen(ev.PackageName, ev.ClassName) {
		return nil
	}
	if b.sessionID != "" {
		b.log.Debug().Str("session_id", b.sessionID).Str("state", string(b.state)).Msg("call screen already handled by live session")
		return nil
	}
	if b.isDefaultHandler() {
		b.log.Debug().Msg("default call handler, fallback stands down")
		return nil
	}

	b.sessionID = uuid.NewString()
	b.attempts = 0
	b.state = CallScreenDetected
	b.log.Info().Str("session_id", b.sessionID).Str("package", ev.PackageName).Msg("call screen detected")

	ev2 := b.pol.Evaluate(ctx, model.FeatureFallback)
	b.decision = ev2.Decision
	if !ev2.Decision.Blocked() {
		b.log.Info().Str("session_id", b.sessionID).Str("reason", string(ev2.Decision.Reason)).Msg("call allowed")
		return b.endLocked(Idle, "", "")
	}

	root := ev.Root
	if root == nil {
		root = b.fetchRoot()
	}
	return b.searchLocked(root)
}

// searchLocked runs one Searching pass. Each pass is one attempt.
func (b *Blocker) searchLocked(root uitree.Node) *Outcome {
	b.state = Searching
	b.attempts++
	log := b.log.With().Str("session_id", b.sessionID).Int("attempt", b.attempts).Logger()

	res := Scan(root, b.heur.Load(), Limits{MaxDepth: b.cfg.MaxDepth, MaxNodes: b.cfg.MaxNodes})
	if res.Skipped > 0 || res.Truncated {
		log.Debug().Int("skipped", res.Skipped).Bool("truncated", res.Truncated).Msg("partial scan")
	}

	if c, ok := res.First(); ok {
		log.Debug().Str("path", c.Path.String()).Str("match", c.Match.String()).Int("candidates", len(res.Candidates)).Msg("decline candidate")
		if b.activate(c, uitree.Click) || b.activate(c, uitree.LongClick) {
			log.Info().Str("match", c.Match.String()).Msg("call declined")
			return b.endLocked(Declined, c.Match.String(), c.Path.String())
		}
		log.Debug().Msg("activation failed")
	} else {
		log.Debug().Int("visited", res.Visited).Msg("no decline candidate")
	}

	if b.attempts >= b.cfg.MaxAttempts {
		return b.giveUpLocked()
	}

	b.state = RetryPending
	id := b.sessionID
	b.timer = b.sched.AfterFunc(b.cfg.Backoff, func() { b.retry(id) })
	return nil
}

// retry is the timer callback for session id. It is a no-op once that
// session has ended or been superseded.
func (b *Blocker) retry(id string) {
	b.mu.Lock()
	if b.sessionID != id || b.state != RetryPending {
		b.mu.Unlock()
		b.log.Debug().Str("session_id", id).Msg("stale retry ignored")
		return
	}
	b.timer = nil
	out := b.searchLocked(b.fetchRoot())
	b.mu.Unlock()
	b.emit(out)
}

func (b *Blocker) giveUpLocked() *Outcome {
	wentBack := false
	if b.cfg.BackOnGiveUp {
		wentBack = b.globalBack()
	}
	b.log.Warn().
		Str("session_id", b.sessionID).
		Int("attempts", b.attempts).
		Bool("went_back", wentBack).
		Msg("no decline control activated, giving up")
	out := b.endLocked(GaveUp, "", "")
	out.WentBack = wentBack
	return out
}

// endLocked records the outcome and returns the FSM to Idle.
func (b *Blocker) endLocked(final State, match, path string) *Outcome {
	out := &Outcome{
		SessionID: b.sessionID,
		State:     final,
		Attempts:  b.attempts,
		Decision:  b.decision,
		Match:     match,
		Path:      path,
	}
	b.last = out
	b.resetLocked()
	return out
}

func (b *Blocker) resetLocked() {
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	b.sessionID = ""
	b.attempts = 0
	b.decision = model.Decision{}
	b.state = Idle
}

// Reset abandons the live session, if any. Call it when the call ends or a
// new call begins. A retry already scheduled for the abandoned session
// becomes a no-op.
func (b *Blocker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.sessionID == "" {
		return
	}
	b.log.Debug().Str("session_id", b.sessionID).Str("state", string(b.state)).Msg("session superseded")
	b.resetLocked()
}

func (b *Blocker) emit(out *Outcome) {
	if out != nil && b.onOutcome != nil {
		b.onOutcome(*out)
	}
}

// The host wrappers below contain adapter panics so a misbehaving platform
// binding cannot take the blocker down.

func (b *Blocker) isDefaultHandler() (is bool) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Warn().Interface("panic", r).Msg("default handler query failed")
			is = false
		}
	}()
	return b.host.IsDefaultCallHandler().IsTrue()
}

func (b *Blocker) fetchRoot() (root uitree.Node) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Warn().Interface("panic", r).Msg("root fetch failed")
			root = nil
		}
	}()
	return b.host.RootNode()
}

func (b *Blocker) activate(c Candidate, mode uitree.Mode) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Warn().Interface("panic", r).Str("mode", string(mode)).Msg("activation failed")
			ok = false
		}
	}()
	return b.host.Activate(c.Node, c.Path, mode)
}

func (b *Blocker) globalBack() (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
		}
	}()
	return b.host.GlobalBack()
}
