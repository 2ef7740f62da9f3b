package model

import "time"

// Outcome is the disposition applied to a call or message.
type Outcome string

const (
	Allow Outcome = "allow"
	Block Outcome = "block"
)

// Reason explains which precedence step produced a Decision.
type Reason string

const (
	ReasonAppDisabled     Reason = "app_disabled"
	ReasonFeatureDisabled Reason = "feature_disabled"
	ReasonBusinessHours   Reason = "business_hours"
	ReasonAfterHours      Reason = "after_hours"
	ReasonErrorFallback   Reason = "error_fallback"
	ReasonNoCallerID      Reason = "no_caller_id"
)

// Decision is the result of evaluating the disposition policy.
type Decision struct {
	Outcome Outcome `json:"outcome" yaml:"outcome"`
	Reason  Reason  `json:"reason" yaml:"reason"`
}

// Blocked reports whether the decision asks the caller to act against the event.
func (d Decision) Blocked() bool {
	return d.Outcome == Block
}

func (d Decision) String() string {
	return string(d.Outcome) + "(" + string(d.Reason) + ")"
}

// AllowBecause returns an Allow decision with the given reason.
func AllowBecause(r Reason) Decision {
	return Decision{Outcome: Allow, Reason: r}
}

// BlockAfterHours is the only Block decision the policy produces.
func BlockAfterHours() Decision {
	return Decision{Outcome: Block, Reason: ReasonAfterHours}
}

// FeatureFlags are the independently toggleable switches read per decision.
type FeatureFlags struct {
	AppEnabled           bool `json:"app_enabled"`
	BlockCallsEnabled    bool `json:"block_calls_enabled"`
	SMSAutoReplyEnabled  bool `json:"sms_auto_reply_enabled"`
	AccessibilityEnabled bool `json:"accessibility_enabled"`
	DNDEnabled           bool `json:"dnd_enabled"`
}

// DefaultFeatureFlags mirrors a fresh install: app off, every feature on.
func DefaultFeatureFlags() FeatureFlags {
	return FeatureFlags{
		AppEnabled:           false,
		BlockCallsEnabled:    true,
		SMSAutoReplyEnabled:  true,
		AccessibilityEnabled: true,
		DNDEnabled:           true,
	}
}

// Feature selects the flag chain the policy applies before the hours check.
type Feature string

const (
	FeatureCalls    Feature = "calls"
	FeatureFallback Feature = "fallback"
	FeatureDND      Feature = "dnd"
	FeatureSMS      Feature = "sms"
)

// Features lists every Feature in a stable order.
var Features = []Feature{FeatureCalls, FeatureFallback, FeatureDND, FeatureSMS}

// ParseFeature maps a name to a Feature; empty means FeatureCalls.
func ParseFeature(s string) (Feature, bool) {
	if s == "" {
		return FeatureCalls, true
	}
	for _, f := range Features {
		if string(f) == s {
			return f, true
		}
	}
	return "", false
}

// Tristate is a capability answer that may be unknown.
type Tristate int

const (
	Unknown Tristate = iota
	True
	False
)

// IsTrue treats Unknown conservatively as false.
func (t Tristate) IsTrue() bool {
	return t == True
}

func (t Tristate) String() string {
	switch t {
	case True:
		return "true"
	case False:
		return "false"
	default:
		return "unknown"
	}
}

// TristateOf converts a known boolean.
func TristateOf(b bool) Tristate {
	if b {
		return True
	}
	return False
}

// CallEvent is an inbound call delivered by the platform's screening callback.
// PhoneNumber is empty when the caller id is absent.
type CallEvent struct {
	PhoneNumber string    `json:"phone_number,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// InboundMessage is an inbound SMS. Sender is empty when absent.
type InboundMessage struct {
	Sender    string    `json:"sender,omitempty"`
	Body      string    `json:"body"`
	Timestamp time.Time `json:"timestamp"`
}

// CallResponse is the single answer returned for a screened call.
type CallResponse struct {
	Reject           bool `json:"reject"`
	SkipCallLog      bool `json:"skip_call_log"`
	SkipNotification bool `json:"skip_notification"`
}

// ResponseFor maps a decision onto a screening response. Rejected calls stay
// in the call log and still notify.
func ResponseFor(d Decision) CallResponse {
	if d.Blocked() {
		return CallResponse{Reject: true, SkipCallLog: false, SkipNotification: false}
	}
	return CallResponse{}
}
