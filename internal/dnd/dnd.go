// Package dnd toggles the platform do-not-disturb mode outside business hours.
package dnd

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ppiankov/offhours/internal/logger"
	"github.com/ppiankov/offhours/internal/model"
	"github.com/ppiankov/offhours/internal/notify"
	"github.com/ppiankov/offhours/internal/policy"
)

var (
	// ErrUnsupported means the platform has no DND capability.
	ErrUnsupported = errors.New("do-not-disturb not supported")
	// ErrPermission means the app may not change the DND mode.
	ErrPermission = errors.New("do-not-disturb permission not granted")
)

// Controller is the platform DND capability.
type Controller interface {
	Supported() bool
	HasPermission() bool
	IsDND() (bool, error)
	SetDND(on bool) error
}

// Status summarizes the capability for display.
type Status string

const (
	StatusUnsupported      Status = "unsupported"
	StatusPermissionDenied Status = "permission_denied"
	StatusEnabled          Status = "enabled"
	StatusDisabled         Status = "disabled"
)

// ShouldEnable applies the DND feature chain: app switch, then the DND
// flag, then business hours. True means outside hours with DND wanted.
func ShouldEnable(flags model.FeatureFlags, schedule model.WeeklySchedule, now time.Time) bool {
	return policy.Evaluate(model.FeatureDND, flags, schedule, now).Blocked()
}

// Suppressor wraps a Controller and fails closed: a mutating call that
// cannot be performed returns false and changes nothing.
type Suppressor struct {
	ctrl     Controller
	pol      policy.Evaluator
	notifier notify.Sink
	log      *logger.Logger

	mu    sync.Mutex
	owned bool // DND was switched on by us
}

// Option configures a Suppressor.
type Option func(*Suppressor)

// WithNotifier publishes an event whenever Reconcile changes the mode.
func WithNotifier(s notify.Sink) Option {
	return func(x *Suppressor) { x.notifier = s }
}

// WithLogger sets the suppressor logger.
func WithLogger(l *logger.Logger) Option {
	return func(x *Suppressor) { x.log = l }
}

// New creates a Suppressor. pol may be nil when only the toggles are used.
func New(ctrl Controller, pol policy.Evaluator, opts ...Option) *Suppressor {
	s := &Suppressor{ctrl: ctrl, pol: pol}
	for _, o := range opts {
		o(s)
	}
	if s.log == nil {
		s.log = logger.Named("dnd")
	}
	return s
}

func (s *Suppressor) check() error {
	if !s.ctrl.Supported() {
		return ErrUnsupported
	}
	if !s.ctrl.HasPermission() {
		return ErrPermission
	}
	return nil
}

// HasPermission reports whether the mode can be changed.
func (s *Suppressor) HasPermission() bool {
	return s.check() == nil
}

// IsEnabled reports whether DND is on. Errors read as off.
func (s *Suppressor) IsEnabled() bool {
	if !s.ctrl.Supported() {
		return false
	}
	on, err := s.ctrl.IsDND()
	return err == nil && on
}

// Enable turns DND on. Returns false without side effects when the
// capability or permission is missing.
func (s *Suppressor) Enable() bool {
	return s.set(true)
}

// Disable turns DND off, with the same guarantees as Enable.
func (s *Suppressor) Disable() bool {
	return s.set(false)
}

func (s *Suppressor) set(on bool) bool {
	if err := s.check(); err != nil {
		s.log.Warn().Err(err).Bool("on", on).Msg("dnd change refused")
		return false
	}
	if err := s.ctrl.SetDND(on); err != nil {
		s.log.Error().Err(err).Bool("on", on).Msg("dnd change failed")
		return false
	}
	s.mu.Lock()
	s.owned = on
	s.mu.Unlock()
	s.log.Info().Bool("on", on).Msg("dnd changed")
	return true
}

// Status reports the capability state.
func (s *Suppressor) Status() Status {
	switch {
	case !s.ctrl.Supported():
		return StatusUnsupported
	case !s.ctrl.HasPermission():
		return StatusPermissionDenied
	case s.IsEnabled():
		return StatusEnabled
	default:
		return StatusDisabled
	}
}

// Reconcile brings the mode in line with the policy at the current time.
// It switches DND on outside hours and off again inside hours, but only
// turns off a DND mode it switched on itself. changed reports a toggle.
func (s *Suppressor) Reconcile(ctx context.Context) (changed bool, err error) {
	if s.pol == nil {
		return false, fmt.Errorf("dnd: no policy configured")
	}
	if err := s.check(); err != nil {
		return false, err
	}
	ev := s.pol.Evaluate(ctx, model.FeatureDND)
	want := ev.Decision.Blocked()
	on := s.IsEnabled()

	s.mu.Lock()
	owned := s.owned
	s.mu.Unlock()

	switch {
	case want && !on:
		if !s.Enable() {
			return false, fmt.Errorf("dnd: enable failed")
		}
	case !want && on && owned:
		if !s.Disable() {
			return false, fmt.Errorf("dnd: disable failed")
		}
	default:
		return false, nil
	}

	if s.notifier != nil {
		n := notify.NewEvent(notify.KindDND, ev.At)
		d := ev.Decision
		n.Decision = &d
		n.State = string(s.Status())
		s.notifier.Notify(n)
	}
	return true, nil
}

// Run reconciles every interval until ctx is done. Window boundaries pass
// without any platform event, so a periodic check is the only trigger.
func (s *Suppressor) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	s.reconcileLogged(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.reconcileLogged(ctx)
		}
	}
}

func (s *Suppressor) reconcileLogged(ctx context.Context) {
	if _, err := s.Reconcile(ctx); err != nil && !errors.Is(err, ErrUnsupported) && !errors.Is(err, ErrPermission) {
		s.log.Warn().Err(err).Msg("dnd reconcile failed")
	}
}
