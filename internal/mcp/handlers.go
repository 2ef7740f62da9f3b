package mcp

import (
	"context"
	"fmt"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ppiankov/offhours/internal/hours"
	"github.com/ppiankov/offhours/internal/model"
	"github.com/ppiankov/offhours/internal/settings"
)

// DecideInput defines parameters for the offhours_decide tool.
type DecideInput struct {
	Feature string `json:"feature,omitempty" jsonschema:"feature chain: calls (default), fallback, dnd or sms"`
	At      string `json:"at,omitempty" jsonschema:"RFC 3339 instant to evaluate, omit for now"`
}

// DecideOutput is the decision.
type DecideOutput struct {
	Feature string `json:"feature"`
	Outcome string `json:"outcome"`
	Reason  string `json:"reason"`
	At      string `json:"at"`
	Error   string `json:"error,omitempty"`
}

// ScheduleInput takes no parameters.
type ScheduleInput struct{}

// DayOutput is one weekday row.
type DayOutput struct {
	Day    string `json:"day"`
	Window string `json:"window"`
}

// ScheduleOutput describes the configured schedule.
type ScheduleOutput struct {
	Timezone    string          `json:"timezone"`
	Features    map[string]bool `json:"features"`
	Days        []DayOutput     `json:"days"`
	OpenNow     bool            `json:"open_now"`
	NextOpening string          `json:"next_opening,omitempty"`
	Message     string          `json:"message"`
}

// SetInput defines parameters for the offhours_set tool.
type SetInput struct {
	Key   string `json:"key" jsonschema:"setting key, e.g. isEnabled or friday_endHour"`
	Value string `json:"value" jsonschema:"new value"`
}

// SetOutput confirms the change.
type SetOutput struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

func (s *Server) handleDecide(ctx context.Context, req *mcpsdk.CallToolRequest, input DecideInput) (*mcpsdk.CallToolResult, DecideOutput, error) {
	f, ok := model.ParseFeature(input.Feature)
	if !ok {
		return nil, DecideOutput{}, fmt.Errorf("unknown feature %q", input.Feature)
	}
	at := s.engine.Now()
	if input.At != "" {
		t, err := time.Parse(time.RFC3339, input.At)
		if err != nil {
			return nil, DecideOutput{}, fmt.Errorf("invalid at %q: %w", input.At, err)
		}
		at = t
	}

	ev := s.engine.EvaluateAt(ctx, f, at)
	out := DecideOutput{
		Feature: string(f),
		Outcome: string(ev.Decision.Outcome),
		Reason:  string(ev.Decision.Reason),
		At:      ev.At.Format(time.RFC3339),
	}
	if ev.Err != nil {
		out.Error = ev.Err.Error()
	}
	return nil, out, nil
}

func (s *Server) handleSchedule(ctx context.Context, req *mcpsdk.CallToolRequest, input ScheduleInput) (*mcpsdk.CallToolResult, ScheduleOutput, error) {
	cfg, err := settings.Load(ctx, s.store)
	if err != nil {
		return nil, ScheduleOutput{}, err
	}
	now := s.engine.Now().In(cfg.Location())

	out := ScheduleOutput{
		Timezone: cfg.Location().String(),
		Features: map[string]bool{
			settings.KeyEnabled:       cfg.Flags.AppEnabled,
			settings.KeyBlockCalls:    cfg.Flags.BlockCallsEnabled,
			settings.KeySendSMS:       cfg.Flags.SMSAutoReplyEnabled,
			settings.KeyAccessibility: cfg.Flags.AccessibilityEnabled,
			settings.KeyDND:           cfg.Flags.DNDEnabled,
		},
		OpenNow: hours.IsWithinBusinessHours(cfg.Schedule, now),
		Message: cfg.CustomMessage,
	}
	for d := time.Monday; ; d = (d + 1) % 7 {
		out.Days = append(out.Days, DayOutput{Day: model.DayName(d), Window: hours.Describe(cfg.Schedule.Day(d))})
		if d == time.Sunday {
			break
		}
	}
	if next, ok := hours.NextOpening(cfg.Schedule, now); ok {
		out.NextOpening = next.Format(time.RFC3339)
	}
	return nil, out, nil
}

func (s *Server) handleSet(ctx context.Context, req *mcpsdk.CallToolRequest, input SetInput) (*mcpsdk.CallToolResult, SetOutput, error) {
	if err := s.store.Set(ctx, input.Key, input.Value); err != nil {
		return nil, SetOutput{}, err
	}
	return nil, SetOutput{Key: input.Key, Value: input.Value}, nil
}
