// Package screening is the primary enforcement path: it answers the
// platform's call-screening callback.
package screening

import (
	"context"
	"fmt"
	"time"

	"github.com/ppiankov/offhours/internal/logger"
	"github.com/ppiankov/offhours/internal/model"
	"github.com/ppiankov/offhours/internal/notify"
	"github.com/ppiankov/offhours/internal/policy"
)

// DefaultBudget bounds the time spent deciding. The platform applies its own
// default if no response arrives before its deadline.
const DefaultBudget = 200 * time.Millisecond

// Responder submits the response to the platform.
type Responder func(model.CallResponse) error

// Result is the decision for one call and the response derived from it.
type Result struct {
	Decision model.Decision
	Response model.CallResponse
}

// Adapter turns screening callbacks into responses.
type Adapter struct {
	pol      policy.Evaluator
	notifier notify.Sink
	budget   time.Duration
	log      *logger.Logger
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithNotifier publishes a call event for every screened call.
func WithNotifier(s notify.Sink) Option {
	return func(a *Adapter) { a.notifier = s }
}

// WithBudget bounds each decision.
func WithBudget(d time.Duration) Option {
	return func(a *Adapter) { a.budget = d }
}

// WithLogger sets the adapter logger.
func WithLogger(l *logger.Logger) Option {
	return func(a *Adapter) { a.log = l }
}

// New creates an Adapter.
func New(pol policy.Evaluator, opts ...Option) *Adapter {
	a := &Adapter{pol: pol, budget: DefaultBudget}
	for _, o := range opts {
		o(a)
	}
	if a.log == nil {
		a.log = logger.Named("screening")
	}
	return a
}

// OnScreenCall returns the response for one call.
func (a *Adapter) OnScreenCall(ctx context.Context, call model.CallEvent) model.CallResponse {
	return a.Evaluate(ctx, call).Response
}

// Evaluate decides one call. It never fails: errors and panics in the
// policy yield Allow(error_fallback). Calls without a caller id are allowed
// without consulting settings.
func (a *Adapter) Evaluate(ctx context.Context, call model.CallEvent) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			a.log.Error().Interface("panic", r).Msg("screening policy panicked, allowing call")
			res = a.finish(call, model.AllowBecause(model.ReasonErrorFallback))
		}
	}()

	if call.PhoneNumber == "" {
		return a.finish(call, model.AllowBecause(model.ReasonNoCallerID))
	}

	if a.budget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.budget)
		defer cancel()
	}
	ev := a.pol.Evaluate(ctx, model.FeatureCalls)
	return a.finish(call, ev.Decision)
}

func (a *Adapter) finish(call model.CallEvent, d model.Decision) Result {
	res := Result{Decision: d, Response: model.ResponseFor(d)}
	a.log.Info().
		Str("phone", logger.MaskNumber(call.PhoneNumber)).
		Str("outcome", string(d.Outcome)).
		Str("reason", string(d.Reason)).
		Msg("call screened")
	if a.notifier != nil {
		a.notifier.Notify(notify.CallEvent(call, d))
	}
	return res
}

// Screen decides one call and submits exactly one response through respond.
// A failed submission is logged and returned; the platform then applies
// its own default to the call.
func (a *Adapter) Screen(ctx context.Context, call model.CallEvent, respond Responder) (Result, error) {
	res := a.Evaluate(ctx, call)
	if err := submit(respond, res.Response); err != nil {
		a.log.Error().Err(err).Bool("reject", res.Response.Reject).Msg("failed to submit call response, platform default applies")
		return res, err
	}
	return res, nil
}

func submit(respond Responder, resp model.CallResponse) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("respond panicked: %v", r)
		}
	}()
	return respond(resp)
}
