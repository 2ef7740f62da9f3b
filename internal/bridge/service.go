package bridge

import (
	"context"
	"errors"
	"fmt"

	"github.com/ppiankov/offhours/internal/app"
	"github.com/ppiankov/offhours/internal/autoreply"
	"github.com/ppiankov/offhours/internal/model"
	"github.com/ppiankov/offhours/internal/uitree"
)

// ErrBadRequest marks a request the caller must fix.
var ErrBadRequest = errors.New("bad request")

// Service answers device requests against a runtime.
type Service struct {
	rt *app.Runtime
}

// NewService creates a Service over rt.
func NewService(rt *app.Runtime) *Service {
	return &Service{rt: rt}
}

// Runtime returns the wired runtime.
func (s *Service) Runtime() *app.Runtime { return s.rt }

// ScreenCall decides one incoming call.
func (s *Service) ScreenCall(ctx context.Context, req *ScreenCallRequest) (*ScreenCallResponse, error) {
	res := s.rt.Screening.Evaluate(ctx, model.CallEvent{PhoneNumber: req.PhoneNumber, Timestamp: req.Timestamp})
	return &ScreenCallResponse{
		Reject:           res.Response.Reject,
		SkipCallLog:      res.Response.SkipCallLog,
		SkipNotification: res.Response.SkipNotification,
		Decision:         DecisionOf(res.Decision),
	}, nil
}

// InboundMessage runs the auto-reply for one message. A failed send is
// reported in the response, not as an error.
func (s *Service) InboundMessage(ctx context.Context, req *MessageRequest) (*MessageResponse, error) {
	res, err := s.rt.AutoReply.OnInboundMessage(ctx, model.InboundMessage{
		Sender:    req.Sender,
		Body:      req.Body,
		Timestamp: req.Timestamp,
	})
	if errors.Is(err, autoreply.ErrNoSender) {
		return nil, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	resp := &MessageResponse{
		Replied:    res.Replied,
		Suppressed: res.Suppressed,
		Decision:   DecisionOf(res.Decision),
		Commands:   s.rt.Host.Drain(),
	}
	if err != nil {
		resp.Error = err.Error()
	}
	return resp, nil
}

// UIEvent feeds one window-state change to the fallback blocker and
// returns the commands it queued.
func (s *Service) UIEvent(ctx context.Context, req *UIEventRequest) (*UIEventResponse, error) {
	b := s.rt.Blocker
	if req.CallEnded {
		b.Reset()
		return &UIEventResponse{State: string(b.State()), Commands: s.rt.Host.Drain()}, nil
	}

	handler := model.Unknown
	if req.DefaultHandler != nil {
		handler = model.TristateOf(*req.DefaultHandler)
	}
	s.rt.Host.ReportDefaultHandler(handler)
	s.rt.Host.ReportRoot(req.Root)

	ev := uitree.Event{PackageName: req.PackageName, ClassName: req.ClassName}
	if req.Root != nil {
		ev.Root = req.Root
	}
	prev, _ := b.LastOutcome()
	state := b.OnUIEvent(ctx, ev)

	resp := &UIEventResponse{
		SessionID: b.SessionID(),
		State:     string(state),
		Commands:  s.rt.Host.Drain(),
	}
	if out, ok := b.LastOutcome(); ok && out.SessionID != prev.SessionID {
		resp.Outcome = OutcomeOf(out)
	}
	return resp, nil
}

// Decide evaluates a feature chain.
func (s *Service) Decide(ctx context.Context, req *DecideRequest) (*Decision, error) {
	f, ok := model.ParseFeature(req.Feature)
	if !ok {
		return nil, fmt.Errorf("%w: unknown feature %q", ErrBadRequest, req.Feature)
	}
	ev := s.rt.Decide(ctx, f, req.At)
	d := DecisionOf(ev.Decision)
	d.Feature = string(f)
	d.At = ev.At
	if ev.Err != nil {
		d.Error = ev.Err.Error()
	}
	return &d, nil
}

// DND records the reported state and reconciles the mode against the policy.
func (s *Service) DND(ctx context.Context, req *DNDRequest) (*DNDResponse, error) {
	s.rt.Host.ReportDND(*req)
	changed, err := s.rt.DND.Reconcile(ctx)
	resp := &DNDResponse{
		Status:   string(s.rt.DND.Status()),
		Changed:  changed,
		Commands: s.rt.Host.Drain(),
	}
	if err != nil {
		resp.Error = err.Error()
	}
	return resp, nil
}

// Commands drains the command queue. Retries scheduled by the blocker
// queue their activations after the triggering UIEvent has returned.
func (s *Service) Commands(_ context.Context, _ *CommandsRequest) (*CommandsResponse, error) {
	return &CommandsResponse{Commands: s.rt.Host.Drain()}, nil
}
