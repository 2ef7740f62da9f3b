package notify

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ppiankov/offhours/internal/logger"
	"github.com/ppiankov/offhours/internal/model"
)

func TestDispatcherFansOut(t *testing.T) {
	var a, b int
	d := NewDispatcher(SinkFunc(func(Event) { a++ }), nil, SinkFunc(func(Event) { b++ }))
	d.Notify(NewEvent(KindCall, time.Time{}))
	if a != 1 || b != 1 {
		t.Errorf("a=%d b=%d, want 1 each", a, b)
	}
}

func TestNilDispatcherIsNoop(t *testing.T) {
	var d *Dispatcher
	d.Notify(NewEvent(KindCall, time.Time{}))
}

func TestChanSinkDropsWhenFull(t *testing.T) {
	c := NewChanSink(1)
	c.Notify(NewEvent(KindCall, time.Time{}))
	c.Notify(NewEvent(KindMessage, time.Time{}))
	if c.Dropped() != 1 {
		t.Errorf("dropped = %d, want 1", c.Dropped())
	}
	ev := <-c.Events()
	if ev.Kind != KindCall {
		t.Errorf("kind = %s, want call", ev.Kind)
	}
}

func TestCallAndMessageEvents(t *testing.T) {
	ts := time.Date(2026, 10, 12, 20, 0, 0, 0, time.UTC)
	ce := CallEvent(model.CallEvent{PhoneNumber: "+15550001111", Timestamp: ts}, model.BlockAfterHours())
	if ce.Kind != KindCall || ce.PhoneNumber != "+15550001111" || !ce.Timestamp.Equal(ts) || ce.ID == "" {
		t.Errorf("call event = %+v", ce)
	}
	me := MessageEvent(model.InboundMessage{Sender: "+1555", Body: "hi", Timestamp: ts}, model.BlockAfterHours())
	if me.Kind != KindMessage || me.MessageBody != "hi" || me.PhoneNumber != "+1555" {
		t.Errorf("message event = %+v", me)
	}
	if ce.ID == me.ID {
		t.Error("event ids must be unique")
	}
}

func TestWebhookMatchesKinds(t *testing.T) {
	var called atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := NewWebhookSink(WebhookConfig{URL: srv.URL, Kinds: []string{"blocker"}}, logger.Nop())
	s.Notify(NewEvent(KindCall, time.Time{}))
	s.Notify(NewEvent(KindBlocker, time.Time{}))
	time.Sleep(200 * time.Millisecond)

	if called.Load() != 1 {
		t.Errorf("expected 1 call, got %d", called.Load())
	}
}

func TestWebhookRetriesOn5xx(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := NewWebhookSink(WebhookConfig{URL: srv.URL}, logger.Nop())
	s.backoff = time.Millisecond
	if err := s.Send(NewEvent(KindCall, time.Time{})); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if attempts.Load() != 3 {
		t.Errorf("attempts = %d, want 3", attempts.Load())
	}
}

func TestWebhookNoRetryOn4xx(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	s := NewWebhookSink(WebhookConfig{URL: srv.URL}, logger.Nop())
	if err := s.Send(NewEvent(KindCall, time.Time{})); err == nil {
		t.Fatal("expected error on 403")
	}
	if attempts.Load() != 1 {
		t.Errorf("attempts = %d, want 1", attempts.Load())
	}
}

func TestWebhookPayloadAndHeaders(t *testing.T) {
	got := make(chan map[string]any, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Token") != "s3cret" {
			t.Errorf("missing header")
		}
		body, _ := io.ReadAll(r.Body)
		var m map[string]any
		json.Unmarshal(body, &m)
		got <- m
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := NewWebhookSink(WebhookConfig{URL: srv.URL, Format: "slack", Headers: map[string]string{"X-Token": "s3cret"}}, logger.Nop())
	ev := CallEvent(model.CallEvent{PhoneNumber: "+15550001111"}, model.BlockAfterHours())
	if err := s.Send(ev); err != nil {
		t.Fatalf("Send: %v", err)
	}
	m := <-got
	text, _ := m["text"].(string)
	if !strings.Contains(text, "*******1111") || !strings.Contains(text, "block(after_hours)") {
		t.Errorf("slack text = %q", text)
	}
	if strings.Contains(text, "5550001111") {
		t.Error("slack text leaks the full number")
	}
}
