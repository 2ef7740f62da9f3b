package client

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/ppiankov/offhours/internal/app"
	"github.com/ppiankov/offhours/internal/bridge"
	"github.com/ppiankov/offhours/internal/config"
	"github.com/ppiankov/offhours/internal/server"
	"github.com/ppiankov/offhours/internal/settings"
)

// startTestServer starts a bridge server and returns its address.
func startTestServer(t *testing.T) string {
	t.Helper()

	// 2026-10-12 is a Monday.
	now := time.Date(2026, 10, 12, 20, 0, 0, 0, time.UTC)
	rt, err := app.New(config.Default(),
		app.WithStore(settings.NewMemoryStore(settings.Values{settings.KeyEnabled: "true"})),
		app.WithClock(func() time.Time { return now }),
	)
	if err != nil {
		t.Fatalf("app.New: %v", err)
	}
	srv := server.New(bridge.NewService(rt))

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	go srv.ServeOn(lis)

	t.Cleanup(func() {
		srv.GracefulStop()
		rt.Close()
	})
	return lis.Addr().String()
}

func TestClientScreenCall(t *testing.T) {
	c, err := New(startTestServer(t))
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	resp, err := c.ScreenCall(context.Background(), bridge.ScreenCallRequest{PhoneNumber: "+15550001111"})
	if err != nil {
		t.Fatal(err)
	}
	if !resp.Reject {
		t.Errorf("resp = %+v, want reject", resp)
	}
}

func TestClientDecideAndMessage(t *testing.T) {
	c, err := New(startTestServer(t))
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	ctx := context.Background()

	d, err := c.Decide(ctx, bridge.DecideRequest{Feature: "dnd"})
	if err != nil {
		t.Fatal(err)
	}
	if d.Outcome != "block" || d.Feature != "dnd" {
		t.Errorf("decision = %+v", d)
	}

	m, err := c.InboundMessage(ctx, bridge.MessageRequest{Sender: "+15550001111"})
	if err != nil {
		t.Fatal(err)
	}
	if !m.Replied || len(m.Commands) != 1 {
		t.Errorf("message = %+v", m)
	}

	if _, err := c.InboundMessage(ctx, bridge.MessageRequest{}); err == nil {
		t.Error("expected error for message without sender")
	}
}

func TestClientFailsOpen(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := lis.Addr().String()
	lis.Close()

	c, err := New(addr)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	c.timeout = 500 * time.Millisecond

	resp, err := c.ScreenCall(context.Background(), bridge.ScreenCallRequest{PhoneNumber: "+1"})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Reject || resp.Decision.Reason != "error_fallback" || resp.Decision.Error == "" {
		t.Errorf("resp = %+v, want fail-open allow", resp)
	}

	d, _ := c.Decide(context.Background(), bridge.DecideRequest{Feature: "sms"})
	if d.Outcome != "allow" || d.Reason != "error_fallback" || d.Feature != "sms" {
		t.Errorf("decision = %+v", d)
	}
}
