package policy

import (
	"context"
	"fmt"
	"time"

	"github.com/ppiankov/offhours/internal/logger"
	"github.com/ppiankov/offhours/internal/model"
	"github.com/ppiankov/offhours/internal/settings"
)

// DefaultReadTimeout bounds a single settings read.
const DefaultReadTimeout = 250 * time.Millisecond

// Evaluation is a decision together with the inputs it was computed from.
// Settings is nil when the decision is an error fallback.
type Evaluation struct {
	Decision model.Decision
	Feature  model.Feature
	At       time.Time
	Settings *settings.Settings
	Err      error
}

// Evaluator evaluates a feature chain at the current time. Engine is the
// production implementation.
type Evaluator interface {
	Evaluate(ctx context.Context, f model.Feature) Evaluation
}

// Engine reads settings fresh for every decision and never fails: any error
// reading or parsing them yields Allow(error_fallback).
type Engine struct {
	store   settings.Store
	now     func() time.Time
	timeout time.Duration
	log     *logger.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithReadTimeout bounds each settings read through its context. Stores
// that honor ctx.Done (file, SQLite, memory) return early; a read past the
// bound yields Allow(error_fallback). Zero disables the bound.
func WithReadTimeout(d time.Duration) Option {
	return func(e *Engine) { e.timeout = d }
}

// WithLogger sets the engine logger.
func WithLogger(l *logger.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// NewEngine creates an engine over store.
func NewEngine(store settings.Store, opts ...Option) *Engine {
	e := &Engine{
		store:   store,
		now:     time.Now,
		timeout: DefaultReadTimeout,
	}
	for _, o := range opts {
		o(e)
	}
	if e.log == nil {
		e.log = logger.Named("policy")
	}
	return e
}

// Now returns the engine clock reading.
func (e *Engine) Now() time.Time {
	return e.now()
}

// Decide evaluates the call-blocking chain at the current time.
func (e *Engine) Decide(ctx context.Context) model.Decision {
	return e.Evaluate(ctx, model.FeatureCalls).Decision
}

// Evaluate evaluates feature f at the current time.
func (e *Engine) Evaluate(ctx context.Context, f model.Feature) Evaluation {
	return e.EvaluateAt(ctx, f, e.now())
}

// EvaluateAt evaluates feature f at a given instant. The instant is
// converted to the configured timezone before the window check.
func (e *Engine) EvaluateAt(ctx context.Context, f model.Feature, at time.Time) (ev Evaluation) {
	ev = Evaluation{Feature: f, At: at}
	defer func() {
		if r := recover(); r != nil {
			ev = e.fallback(ev, fmt.Errorf("panic reading settings: %v", r))
		}
	}()

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}
	s, err := settings.Load(ctx, e.store)
	if err != nil {
		return e.fallback(ev, err)
	}

	ev.At = at.In(s.Location())
	ev.Settings = s
	ev.Decision = Evaluate(f, s.Flags, s.Schedule, ev.At)
	e.log.Debug().
		Str("feature", string(f)).
		Str("outcome", string(ev.Decision.Outcome)).
		Str("reason", string(ev.Decision.Reason)).
		Time("at", ev.At).
		Msg("decision")
	return ev
}

func (e *Engine) fallback(ev Evaluation, err error) Evaluation {
	ev.Decision = model.AllowBecause(model.ReasonErrorFallback)
	ev.Settings = nil
	ev.Err = err
	e.log.Warn().Err(err).Str("feature", string(ev.Feature)).Msg("settings unavailable, failing open")
	return ev
}
