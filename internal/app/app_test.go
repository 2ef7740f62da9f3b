package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ppiankov/offhours/internal/audit"
	"github.com/ppiankov/offhours/internal/blocker"
	"github.com/ppiankov/offhours/internal/config"
	"github.com/ppiankov/offhours/internal/host"
	"github.com/ppiankov/offhours/internal/model"
	"github.com/ppiankov/offhours/internal/notify"
	"github.com/ppiankov/offhours/internal/settings"
	"github.com/ppiankov/offhours/internal/uitree"
)

type manualTimer struct{}

func (manualTimer) Stop() bool { return true }

type manualScheduler struct{ fns []func() }

func (s *manualScheduler) AfterFunc(_ time.Duration, f func()) blocker.Timer {
	s.fns = append(s.fns, f)
	return manualTimer{}
}

// 2026-10-12 is a Monday.
var monEvening = time.Date(2026, 10, 12, 20, 0, 0, 0, time.UTC)

func newRuntime(t *testing.T, cfg config.Config, opts ...Option) (*Runtime, *notify.ChanSink) {
	t.Helper()
	sink := notify.NewChanSink(16)
	store := settings.NewMemoryStore(settings.Values{settings.KeyEnabled: "true"})
	opts = append([]Option{
		WithStore(store),
		WithClock(func() time.Time { return monEvening }),
		WithSink(sink),
	}, opts...)
	rt, err := New(cfg, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { rt.Close() })
	return rt, sink
}

func drain(sink *notify.ChanSink) []notify.Event {
	var out []notify.Event
	for {
		select {
		case ev := <-sink.Events():
			out = append(out, ev)
		default:
			return out
		}
	}
}

func TestScreeningBlocksAfterHours(t *testing.T) {
	rt, sink := newRuntime(t, config.Default())
	resp := rt.Screening.OnScreenCall(context.Background(), model.CallEvent{PhoneNumber: "+15550001111", Timestamp: monEvening})
	if !resp.Reject {
		t.Error("expected reject after hours")
	}
	evs := drain(sink)
	if len(evs) != 1 || evs[0].Kind != notify.KindCall {
		t.Errorf("events = %+v", evs)
	}
}

func TestFallbackDeclinesThroughRemoteHost(t *testing.T) {
	rt, sink := newRuntime(t, config.Default())
	rt.Host.ReportDefaultHandler(model.False)
	root := &uitree.Snapshot{Kids: []*uitree.Snapshot{{Text: "Decline", CanClick: true}}}
	rt.Host.ReportRoot(root)

	rt.Blocker.OnUIEvent(context.Background(), uitree.Event{PackageName: "com.android.incallui", Root: root})
	cmds := rt.Host.Drain()
	if len(cmds) != 1 || cmds[0].Kind != host.CommandActivate {
		t.Fatalf("commands = %+v", cmds)
	}
	evs := drain(sink)
	if len(evs) != 1 || evs[0].Kind != notify.KindBlocker || evs[0].State != string(blocker.Declined) {
		t.Errorf("events = %+v", evs)
	}
}

func TestFallbackRetriesOnSchedule(t *testing.T) {
	sched := &manualScheduler{}
	rt, _ := newRuntime(t, config.Default(), WithScheduler(sched))
	rt.Host.ReportDefaultHandler(model.False)
	rt.Host.ReportRoot(&uitree.Snapshot{Text: "Incoming call"})

	rt.Blocker.OnUIEvent(context.Background(), uitree.Event{PackageName: "com.android.incallui"})
	if rt.Blocker.State() != blocker.RetryPending || len(sched.fns) != 1 {
		t.Fatalf("state = %s, timers = %d", rt.Blocker.State(), len(sched.fns))
	}

	rt.Host.ReportRoot(&uitree.Snapshot{Kids: []*uitree.Snapshot{{Text: "Decline", CanClick: true}}})
	sched.fns[0]()
	if out, ok := rt.Blocker.LastOutcome(); !ok || out.State != blocker.Declined || out.Attempts != 2 {
		t.Errorf("outcome = %+v", out)
	}
}

func TestAutoReplyQueuesSMS(t *testing.T) {
	rt, _ := newRuntime(t, config.Default())
	res, err := rt.AutoReply.OnInboundMessage(context.Background(), model.InboundMessage{Sender: "+15550001111"})
	if err != nil || !res.Replied {
		t.Fatalf("res = %+v, err = %v", res, err)
	}
	cmds := rt.Host.Drain()
	if len(cmds) != 1 || cmds[0].Kind != host.CommandSendSMS || cmds[0].Body != settings.DefaultCustomMessage {
		t.Errorf("commands = %+v", cmds)
	}
}

func TestDNDReconcileQueuesToggle(t *testing.T) {
	rt, _ := newRuntime(t, config.Default())
	rt.Host.ReportDND(host.DNDState{Supported: true, Permission: true})

	changed, err := rt.DND.Reconcile(context.Background())
	if err != nil || !changed {
		t.Fatalf("changed = %v, err = %v", changed, err)
	}
	cmds := rt.Host.Drain()
	if len(cmds) != 1 || cmds[0] != (host.Command{Kind: host.CommandSetDND, On: true}) {
		t.Errorf("commands = %+v", cmds)
	}
}

func TestReloadHeuristics(t *testing.T) {
	path := filepath.Join(t.TempDir(), "heuristics.yaml")
	cfg := config.Default()
	cfg.Heuristics = path
	rt, _ := newRuntime(t, cfg)

	if _, ok := rt.Blocker.Heuristics().MatchDecline("Nicht jetzt", "", ""); ok {
		t.Fatal("label should not match before reload")
	}
	if err := os.WriteFile(path, []byte("labels: [\"nicht jetzt\"]\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := rt.ReloadHeuristics(); err != nil {
		t.Fatal(err)
	}
	if _, ok := rt.Blocker.Heuristics().MatchDecline("Nicht jetzt", "", ""); !ok {
		t.Error("label should match after reload")
	}

	if err := os.WriteFile(path, []byte("labels: ["), 0644); err != nil {
		t.Fatal(err)
	}
	if err := rt.ReloadHeuristics(); err == nil {
		t.Error("expected error for invalid heuristics")
	}
	if _, ok := rt.Blocker.Heuristics().MatchDecline("Nicht jetzt", "", ""); !ok {
		t.Error("failed reload must keep previous heuristics")
	}
}

func TestUnknownProfileFails(t *testing.T) {
	cfg := config.Default()
	cfg.Profiles = []string{"no-such-profile"}
	if _, err := New(cfg, WithStore(settings.NewMemoryStore(nil))); err == nil {
		t.Error("expected error for unknown profile")
	}
}

func TestDecideAt(t *testing.T) {
	rt, _ := newRuntime(t, config.Default())
	ev := rt.Decide(context.Background(), model.FeatureCalls, time.Date(2026, 10, 12, 10, 0, 0, 0, time.UTC))
	if ev.Decision != model.AllowBecause(model.ReasonBusinessHours) {
		t.Errorf("decision = %s", ev.Decision)
	}
	if rt.Decide(context.Background(), model.FeatureCalls, time.Time{}).Decision != model.BlockAfterHours() {
		t.Error("zero time should use the runtime clock")
	}
}

func TestAuditLogRecordsDecisions(t *testing.T) {
	cfg := config.Default()
	cfg.AuditLog = filepath.Join(t.TempDir(), "decisions.jsonl")
	rt, _ := newRuntime(t, cfg)
	if rt.Audit == nil {
		t.Fatal("audit log not opened")
	}

	rt.Screening.OnScreenCall(context.Background(), model.CallEvent{PhoneNumber: "+15550001111", Timestamp: monEvening})
	rt.Screening.OnScreenCall(context.Background(), model.CallEvent{Timestamp: monEvening})
	rt.Audit.Flush()

	s, err := audit.Summarize(cfg.AuditLog, audit.Filter{})
	if err != nil {
		t.Fatal(err)
	}
	if s.Total != 2 || s.Blocked != 1 || s.ByReason["no_caller_id"] != 1 {
		t.Errorf("summary = %+v", s)
	}
	if r := audit.Verify(cfg.AuditLog); !r.Valid {
		t.Errorf("verify = %+v", r)
	}
}

func TestScreeningDoesNotWaitForJournal(t *testing.T) {
	cfg := config.Default()
	cfg.AuditLog = filepath.Join(t.TempDir(), "decisions.jsonl")
	rt, _ := newRuntime(t, cfg)

	// Fill the journal queue; the screening path must still answer at once.
	for i := 0; i < audit.QueueSize*2; i++ {
		rt.Notifier.Notify(notify.NewEvent(notify.KindDND, monEvening))
	}
	start := time.Now()
	res := rt.Screening.Evaluate(context.Background(), model.CallEvent{PhoneNumber: "+15550001111", Timestamp: monEvening})
	if !res.Response.Reject {
		t.Errorf("decision = %+v", res.Decision)
	}
	if elapsed := time.Since(start); elapsed > 200*time.Millisecond {
		t.Errorf("screening took %s with a saturated journal", elapsed)
	}

	rt.Audit.Flush()
	if r := audit.Verify(cfg.AuditLog); !r.Valid || int64(r.Lines)+rt.Audit.Dropped() != int64(audit.QueueSize*2+1) {
		t.Errorf("verify = %+v, dropped = %d", r, rt.Audit.Dropped())
	}
}
