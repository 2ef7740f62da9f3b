package host

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ppiankov/offhours/internal/autoreply"
	"github.com/ppiankov/offhours/internal/blocker"
	"github.com/ppiankov/offhours/internal/dnd"
	"github.com/ppiankov/offhours/internal/heuristics"
	"github.com/ppiankov/offhours/internal/logger"
	"github.com/ppiankov/offhours/internal/model"
	"github.com/ppiankov/offhours/internal/policy"
	"github.com/ppiankov/offhours/internal/uitree"
)

var (
	_ blocker.Host     = (*Remote)(nil)
	_ dnd.Controller   = (*Remote)(nil)
	_ autoreply.Sender = (*Remote)(nil)
)

func tree() *uitree.Snapshot {
	return &uitree.Snapshot{Kids: []*uitree.Snapshot{
		{Text: "Answer", CanClick: true},
		{Text: "Decline", CanClick: true},
	}}
}

func TestRootNodeNilWhenUnreported(t *testing.T) {
	r := NewRemote()
	if r.RootNode() != nil {
		t.Error("expected untyped nil root")
	}
	if r.IsDefaultCallHandler() != model.Unknown {
		t.Error("default handler should start unknown")
	}
}

func TestActivateQueuesResolvablePaths(t *testing.T) {
	r := NewRemote()
	if r.Activate(nil, uitree.Path{1}, uitree.Click) {
		t.Error("activate without a tree must fail")
	}
	r.ReportRoot(tree())
	if r.Activate(nil, uitree.Path{5}, uitree.Click) {
		t.Error("activate on a missing path must fail")
	}
	if !r.Activate(nil, uitree.Path{1}, uitree.LongClick) {
		t.Fatal("activate failed")
	}
	r.GlobalBack()

	cmds := r.Drain()
	want := []Command{
		{Kind: CommandActivate, Path: "/1", Mode: uitree.LongClick},
		{Kind: CommandBack},
	}
	if len(cmds) != len(want) {
		t.Fatalf("commands = %+v", cmds)
	}
	for i := range want {
		if cmds[i] != want[i] {
			t.Errorf("command %d = %+v, want %+v", i, cmds[i], want[i])
		}
	}
	if r.Pending() != 0 {
		t.Error("drain should clear the queue")
	}
}

func TestDNDCapability(t *testing.T) {
	r := NewRemote()
	if _, err := r.IsDND(); !errors.Is(err, dnd.ErrUnsupported) {
		t.Errorf("IsDND err = %v", err)
	}
	if err := r.SetDND(true); !errors.Is(err, dnd.ErrUnsupported) {
		t.Errorf("SetDND err = %v", err)
	}

	r.ReportDND(DNDState{Supported: true})
	if r.HasPermission() {
		t.Error("permission not reported")
	}
	if err := r.SetDND(true); !errors.Is(err, dnd.ErrPermission) {
		t.Errorf("SetDND err = %v, want ErrPermission", err)
	}

	r.ReportDND(DNDState{Supported: true, Permission: true})
	if err := r.SetDND(true); err != nil {
		t.Fatal(err)
	}
	if on, _ := r.IsDND(); !on {
		t.Error("SetDND should be reflected until the next report")
	}
	if cmds := r.Drain(); len(cmds) != 1 || cmds[0] != (Command{Kind: CommandSetDND, On: true}) {
		t.Errorf("commands = %+v", cmds)
	}
}

type blockPolicy struct{}

func (blockPolicy) Evaluate(_ context.Context, f model.Feature) policy.Evaluation {
	return policy.Evaluation{Decision: model.BlockAfterHours(), Feature: f}
}

func TestDrivesBlocker(t *testing.T) {
	r := NewRemote()
	r.ReportDefaultHandler(model.False)
	r.ReportRoot(tree())

	b := blocker.New(r, blockPolicy{}, heuristics.NewDefault(), blocker.Config{
		MaxAttempts: 3, Backoff: time.Hour, MaxDepth: 64, MaxNodes: 2000,
	}, blocker.WithLogger(logger.Nop()))

	ev := uitree.Event{PackageName: "com.android.incallui", ClassName: "InCallActivity"}
	b.OnUIEvent(context.Background(), ev)
	if out, ok := b.LastOutcome(); !ok || out.State != blocker.Declined {
		t.Fatalf("outcome = %+v, want declined", out)
	}
	cmds := r.Drain()
	if len(cmds) != 1 || cmds[0].Path != "/1" || cmds[0].Mode != uitree.Click {
		t.Errorf("commands = %+v", cmds)
	}
}

func TestSendQueuesSMS(t *testing.T) {
	r := NewRemote()
	if err := r.Send(context.Background(), "+15550001111", "closed"); err != nil {
		t.Fatal(err)
	}
	cmds := r.Drain()
	if len(cmds) != 1 || cmds[0] != (Command{Kind: CommandSendSMS, To: "+15550001111", Body: "closed"}) {
		t.Errorf("commands = %+v", cmds)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := r.Send(ctx, "+1", "x"); err == nil {
		t.Error("expected error on cancelled context")
	}
}
