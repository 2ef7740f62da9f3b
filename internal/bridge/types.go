// Package bridge is the transport-neutral surface a remote device talks to.
// The gRPC and HTTP servers both delegate to Service.
package bridge

import (
	"time"

	"github.com/ppiankov/offhours/internal/blocker"
	"github.com/ppiankov/offhours/internal/host"
	"github.com/ppiankov/offhours/internal/model"
	"github.com/ppiankov/offhours/internal/uitree"
)

// Decision is the wire form of a policy decision.
type Decision struct {
	Outcome string    `json:"outcome"`
	Reason  string    `json:"reason"`
	Feature string    `json:"feature,omitempty"`
	At      time.Time `json:"at,omitempty"`
	Error   string    `json:"error,omitempty"`
}

// DecisionOf converts d.
func DecisionOf(d model.Decision) Decision {
	return Decision{Outcome: string(d.Outcome), Reason: string(d.Reason)}
}

// ScreenCallRequest is one call-screening callback.
type ScreenCallRequest struct {
	PhoneNumber string    `json:"phone_number"`
	Timestamp   time.Time `json:"timestamp,omitempty"`
}

// ScreenCallResponse is the response the device must submit.
type ScreenCallResponse struct {
	Reject           bool     `json:"reject"`
	SkipCallLog      bool     `json:"skip_call_log"`
	SkipNotification bool     `json:"skip_notification"`
	Decision         Decision `json:"decision"`
}

// MessageRequest is one inbound SMS.
type MessageRequest struct {
	Sender    string    `json:"sender"`
	Body      string    `json:"body"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// MessageResponse reports whether a reply was queued.
type MessageResponse struct {
	Replied    bool           `json:"replied"`
	Suppressed bool           `json:"suppressed,omitempty"`
	Decision   Decision       `json:"decision"`
	Error      string         `json:"error,omitempty"`
	Commands   []host.Command `json:"commands,omitempty"`
}

// UIEventRequest is one window-state change. DefaultHandler nil means the
// device could not tell. CallEnded abandons the live blocker session.
type UIEventRequest struct {
	PackageName    string           `json:"package_name"`
	ClassName      string           `json:"class_name"`
	DefaultHandler *bool            `json:"default_handler,omitempty"`
	Root           *uitree.Snapshot `json:"root,omitempty"`
	CallEnded      bool             `json:"call_ended,omitempty"`
}

// Outcome is the wire form of a finished blocker session.
type Outcome struct {
	SessionID string `json:"session_id"`
	State     string `json:"state"`
	Attempts  int    `json:"attempts"`
	Match     string `json:"match,omitempty"`
	Path      string `json:"path,omitempty"`
	WentBack  bool   `json:"went_back,omitempty"`
}

// OutcomeOf converts o.
func OutcomeOf(o blocker.Outcome) *Outcome {
	return &Outcome{
		SessionID: o.SessionID,
		State:     string(o.State),
		Attempts:  o.Attempts,
		Match:     o.Match,
		Path:      o.Path,
		WentBack:  o.WentBack,
	}
}

// UIEventResponse carries the blocker state and the actions to perform.
type UIEventResponse struct {
	SessionID string         `json:"session_id,omitempty"`
	State     string         `json:"state"`
	Outcome   *Outcome       `json:"outcome,omitempty"`
	Commands  []host.Command `json:"commands,omitempty"`
}

// DecideRequest asks for a decision. Empty Feature means calls; zero At means now.
type DecideRequest struct {
	Feature string    `json:"feature,omitempty"`
	At      time.Time `json:"at,omitempty"`
}

// DNDRequest reports the device's do-not-disturb state and asks for a reconcile.
type DNDRequest = host.DNDState

// DNDResponse reports the reconcile result.
type DNDResponse struct {
	Status   string         `json:"status"`
	Changed  bool           `json:"changed"`
	Error    string         `json:"error,omitempty"`
	Commands []host.Command `json:"commands,omitempty"`
}

// CommandsRequest polls for queued commands.
type CommandsRequest struct{}

// CommandsResponse lists the commands queued since the last poll.
type CommandsResponse struct {
	Commands []host.Command `json:"commands"`
}
