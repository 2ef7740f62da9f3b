// Package app assembles the engine, adapters and capabilities into one runtime.
package app

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/ppiankov/offhours/internal/audit"
	"github.com/ppiankov/offhours/internal/autoreply"
	"github.com/ppiankov/offhours/internal/blocker"
	"github.com/ppiankov/offhours/internal/config"
	"github.com/ppiankov/offhours/internal/dnd"
	"github.com/ppiankov/offhours/internal/heuristics"
	"github.com/ppiankov/offhours/internal/host"
	"github.com/ppiankov/offhours/internal/logger"
	"github.com/ppiankov/offhours/internal/model"
	"github.com/ppiankov/offhours/internal/notify"
	"github.com/ppiankov/offhours/internal/policy"
	"github.com/ppiankov/offhours/internal/profile"
	"github.com/ppiankov/offhours/internal/ratelimit"
	"github.com/ppiankov/offhours/internal/screening"
	"github.com/ppiankov/offhours/internal/settings"
)

// Runtime holds every wired component. Platform capabilities are served by
// a single remote host that the bridges feed.
type Runtime struct {
	Config    config.Config
	Store     settings.Store
	Engine    *policy.Engine
	Host      *host.Remote
	Notifier  *notify.Dispatcher
	Screening *screening.Adapter
	Blocker   *blocker.Blocker
	DND       *dnd.Suppressor
	AutoReply *autoreply.Dispatcher
	Limiter   *ratelimit.Limiter
	Audit     *audit.Log // nil when no audit_log is configured

	log *logger.Logger
}

type options struct {
	store     settings.Store
	now       func() time.Time
	scheduler blocker.Scheduler
	sinks     []notify.Sink
}

// Option configures New.
type Option func(*options)

// WithStore uses s instead of opening the configured DSN.
func WithStore(s settings.Store) Option {
	return func(o *options) { o.store = s }
}

// WithClock replaces time.Now for every decision.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithScheduler replaces the blocker's retry timer.
func WithScheduler(s blocker.Scheduler) Option {
	return func(o *options) { o.scheduler = s }
}

// WithSink adds an observer sink next to the configured webhooks.
func WithSink(s notify.Sink) Option {
	return func(o *options) { o.sinks = append(o.sinks, s) }
}

// New builds a runtime from cfg.
func New(cfg config.Config, opts ...Option) (*Runtime, error) {
	var o options
	for _, fn := range opts {
		fn(&o)
	}

	store := o.store
	if store == nil {
		s, err := settings.Open(cfg.Settings)
		if err != nil {
			return nil, fmt.Errorf("open settings: %w", err)
		}
		store = s
	}

	h, err := BuildHeuristics(cfg.Heuristics, cfg.Profiles)
	if err != nil {
		return nil, err
	}

	log := logger.Named("app")
	n := notify.NewDispatcher(o.sinks...)
	for _, wh := range cfg.Webhooks {
		n.Add(notify.NewWebhookSink(wh, logger.Named("notify")))
	}

	var journal *audit.Log
	if cfg.AuditLog != "" {
		journal, err = audit.Open(cfg.AuditLog)
		if err != nil {
			return nil, err
		}
		n.Add(journal)
	}

	engineOpts := []policy.Option{}
	if o.now != nil {
		engineOpts = append(engineOpts, policy.WithClock(o.now))
	}
	engine := policy.NewEngine(store, engineOpts...)

	remote := host.NewRemote()
	limiter := ratelimit.New(cfg.AutoReply.Dedup)
	if o.now != nil {
		limiter.WithClock(o.now)
	}

	blockerOpts := []blocker.Option{
		blocker.WithOutcomeHook(func(out blocker.Outcome) { n.Notify(BlockerEvent(out)) }),
	}
	if o.scheduler != nil {
		blockerOpts = append(blockerOpts, blocker.WithScheduler(o.scheduler))
	}

	return &Runtime{
		Config:    cfg,
		Store:     store,
		Engine:    engine,
		Host:      remote,
		Notifier:  n,
		Screening: screening.New(engine, screening.WithNotifier(n), screening.WithBudget(cfg.Screening.Budget)),
		Blocker:   blocker.New(remote, engine, h, cfg.Blocker, blockerOpts...),
		DND:       dnd.New(remote, engine, dnd.WithNotifier(n)),
		AutoReply: autoreply.New(remote, engine, autoreply.WithLimiter(limiter), autoreply.WithNotifier(n)),
		Limiter:   limiter,
		Audit:     journal,
		log:       log,
	}, nil
}

// BuildHeuristics loads the heuristics file over the defaults and applies
// the named profiles on top.
func BuildHeuristics(path string, profiles []string) (*heuristics.Heuristics, error) {
	p, err := heuristics.LoadPatterns(path, heuristics.DefaultPatterns)
	if err != nil {
		return nil, err
	}
	p, err = profile.Apply(p, profiles...)
	if err != nil {
		return nil, fmt.Errorf("apply profiles: %w", err)
	}
	return heuristics.New(p), nil
}

// ReloadHeuristics rebuilds the heuristics from the configured file and
// profiles. The running blocker keeps its old data on error.
func (r *Runtime) ReloadHeuristics() error {
	h, err := BuildHeuristics(r.Config.Heuristics, r.Config.Profiles)
	if err != nil {
		return err
	}
	r.Blocker.SetHeuristics(h)
	r.log.Info().Msg("heuristics reloaded")
	return nil
}

// Decide evaluates feature f at at, or now when at is zero.
func (r *Runtime) Decide(ctx context.Context, f model.Feature, at time.Time) policy.Evaluation {
	if at.IsZero() {
		return r.Engine.Evaluate(ctx, f)
	}
	return r.Engine.EvaluateAt(ctx, f, at)
}

// Close stops the blocker and releases the audit log and settings store.
func (r *Runtime) Close() error {
	r.Blocker.Reset()
	var err error
	if r.Audit != nil {
		err = r.Audit.Close()
	}
	if c, ok := r.Store.(io.Closer); ok {
		if cerr := c.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

// BlockerEvent converts a blocker outcome to an observer event.
func BlockerEvent(out blocker.Outcome) notify.Event {
	ev := notify.NewEvent(notify.KindBlocker, time.Time{})
	d := out.Decision
	ev.Decision = &d
	ev.State = string(out.State)
	switch {
	case out.Match != "":
		ev.Detail = fmt.Sprintf("session %s: %s at %s after %d attempt(s)", out.SessionID, out.Match, out.Path, out.Attempts)
	default:
		ev.Detail = fmt.Sprintf("session %s: %d attempt(s)", out.SessionID, out.Attempts)
	}
	return ev
}
