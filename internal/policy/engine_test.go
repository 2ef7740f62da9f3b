package policy

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ppiankov/offhours/internal/logger"
	"github.com/ppiankov/offhours/internal/model"
	"github.com/ppiankov/offhours/internal/settings"
)

type failingStore struct{ err error }

func (f failingStore) Values(context.Context) (settings.Values, error) { return nil, f.err }
func (f failingStore) Set(context.Context, string, string) error       { return f.err }

type panickingStore struct{}

func (panickingStore) Values(context.Context) (settings.Values, error) { panic("disk on fire") }
func (panickingStore) Set(context.Context, string, string) error       { return nil }

type slowStore struct{}

func (slowStore) Values(ctx context.Context) (settings.Values, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}
func (slowStore) Set(context.Context, string, string) error { return nil }

func newEngine(store settings.Store, now time.Time) *Engine {
	return NewEngine(store,
		WithClock(func() time.Time { return now }),
		WithLogger(logger.Nop()),
	)
}

func TestEngineReadsFreshSettings(t *testing.T) {
	ctx := context.Background()
	store := settings.NewMemoryStore(settings.Values{settings.KeyEnabled: "true"})
	e := newEngine(store, at(12, 20, 0))

	if got := e.Decide(ctx); got != model.BlockAfterHours() {
		t.Fatalf("got %s, want block", got)
	}
	if err := store.Set(ctx, settings.KeyBlockCalls, "false"); err != nil {
		t.Fatal(err)
	}
	if got := e.Decide(ctx); got != model.AllowBecause(model.ReasonFeatureDisabled) {
		t.Errorf("after toggle got %s, want allow(feature_disabled)", got)
	}
}

func TestEngineFailsOpen(t *testing.T) {
	stores := map[string]settings.Store{
		"error":   failingStore{err: errors.New("storage unavailable")},
		"panic":   panickingStore{},
		"timeout": slowStore{},
		"invalid": settings.NewMemoryStore(settings.Values{settings.KeyEnabled: "yes please"}),
	}
	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			e := NewEngine(store,
				WithClock(func() time.Time { return at(12, 20, 0) }),
				WithReadTimeout(10*time.Millisecond),
				WithLogger(logger.Nop()),
			)
			ev := e.Evaluate(context.Background(), model.FeatureCalls)
			if ev.Decision != model.AllowBecause(model.ReasonErrorFallback) {
				t.Errorf("got %s, want allow(error_fallback)", ev.Decision)
			}
			if ev.Err == nil {
				t.Error("expected Err to be recorded")
			}
			if ev.Settings != nil {
				t.Error("fallback should not carry settings")
			}
		})
	}
}

func TestEngineAppliesTimezone(t *testing.T) {
	// Monday 20:00 UTC is Tuesday 10:00 in Pacific/Kiritimati (UTC+14).
	store := settings.NewMemoryStore(settings.Values{
		settings.KeyEnabled:  "true",
		settings.KeyTimezone: "Pacific/Kiritimati",
	})
	e := newEngine(store, at(12, 20, 0))
	ev := e.Evaluate(context.Background(), model.FeatureCalls)
	if ev.Decision != model.AllowBecause(model.ReasonBusinessHours) {
		t.Errorf("got %s, want allow(business_hours)", ev.Decision)
	}
	if ev.At.Weekday() != time.Tuesday || ev.At.Hour() != 10 {
		t.Errorf("local time = %s", ev.At)
	}
}

func TestEngineEvaluateAt(t *testing.T) {
	store := settings.NewMemoryStore(settings.Values{settings.KeyEnabled: "true"})
	e := newEngine(store, at(12, 20, 0))
	ev := e.EvaluateAt(context.Background(), model.FeatureSMS, at(12, 10, 0))
	if ev.Decision != model.AllowBecause(model.ReasonBusinessHours) {
		t.Errorf("got %s", ev.Decision)
	}
	if ev.Settings == nil || ev.Settings.CustomMessage != settings.DefaultCustomMessage {
		t.Error("evaluation should carry the settings it used")
	}
}
