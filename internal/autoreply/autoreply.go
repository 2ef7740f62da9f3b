// Package autoreply answers inbound messages received outside business hours.
package autoreply

import (
	"context"
	"errors"
	"fmt"

	"github.com/ppiankov/offhours/internal/logger"
	"github.com/ppiankov/offhours/internal/model"
	"github.com/ppiankov/offhours/internal/notify"
	"github.com/ppiankov/offhours/internal/policy"
	"github.com/ppiankov/offhours/internal/ratelimit"
)

// ErrNoSender is returned for messages without a sender address.
var ErrNoSender = errors.New("message has no sender")

// Sender is the platform SMS capability.
type Sender interface {
	Send(ctx context.Context, to, body string) error
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, to, body string) error

func (f SenderFunc) Send(ctx context.Context, to, body string) error { return f(ctx, to, body) }

// Result describes what happened to one inbound message.
type Result struct {
	Decision model.Decision
	Replied  bool
	Body     string

	// Suppressed is set when a reply was due but the per-sender limit
	// had been reached.
	Suppressed bool
}

// Dispatcher sends at most one reply per inbound message.
type Dispatcher struct {
	sender   Sender
	pol      policy.Evaluator
	limiter  *ratelimit.Limiter
	notifier notify.Sink
	log      *logger.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLimit suppresses repeated replies to the same sender. A disabled
// limit replies to every message.
func WithLimit(l ratelimit.Limit) Option {
	return func(d *Dispatcher) { d.limiter = ratelimit.New(l) }
}

// WithLimiter shares an existing limiter.
func WithLimiter(l *ratelimit.Limiter) Option {
	return func(d *Dispatcher) { d.limiter = l }
}

// WithNotifier publishes a message event for every inbound message.
func WithNotifier(s notify.Sink) Option {
	return func(d *Dispatcher) { d.notifier = s }
}

// WithLogger sets the dispatcher logger.
func WithLogger(l *logger.Logger) Option {
	return func(d *Dispatcher) { d.log = l }
}

// New creates a Dispatcher.
func New(sender Sender, pol policy.Evaluator, opts ...Option) *Dispatcher {
	d := &Dispatcher{sender: sender, pol: pol}
	for _, o := range opts {
		o(d)
	}
	if d.log == nil {
		d.log = logger.Named("autoreply")
	}
	return d
}

// OnInboundMessage evaluates the auto-reply chain and, after hours, sends
// one rendered reply to msg.Sender. A failed send is not retried.
func (d *Dispatcher) OnInboundMessage(ctx context.Context, msg model.InboundMessage) (Result, error) {
	if msg.Sender == "" {
		return Result{Decision: model.AllowBecause(model.ReasonNoCallerID)}, ErrNoSender
	}

	ev := d.pol.Evaluate(ctx, model.FeatureSMS)
	res := Result{Decision: ev.Decision}
	if d.notifier != nil {
		d.notifier.Notify(notify.MessageEvent(msg, ev.Decision))
	}
	if !ev.Decision.Blocked() || ev.Settings == nil {
		d.log.Debug().
			Str("sender", logger.MaskNumber(msg.Sender)).
			Str("reason", string(ev.Decision.Reason)).
			Msg("no auto-reply")
		return res, nil
	}

	if d.limiter != nil {
		if check := d.limiter.Allow(msg.Sender); check.Exceeded {
			res.Suppressed = true
			d.log.Info().
				Str("sender", logger.MaskNumber(msg.Sender)).
				Str("detail", check.Reason).
				Msg("auto-reply suppressed")
			return res, nil
		}
	}

	res.Body = Render(ev.Settings.CustomMessage, NewData(msg.Sender, ev.Settings.Schedule, ev.At))
	if err := d.sender.Send(ctx, msg.Sender, res.Body); err != nil {
		d.log.Error().Err(err).Str("sender", logger.MaskNumber(msg.Sender)).Msg("auto-reply send failed")
		return res, fmt.Errorf("send auto-reply: %w", err)
	}
	res.Replied = true
	d.log.Info().Str("sender", logger.MaskNumber(msg.Sender)).Msg("auto-reply sent")
	return res, nil
}
