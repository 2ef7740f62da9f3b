// Package notify delivers observer events for inbound calls, messages and
// blocker outcomes to any interested consumer.
package notify

import (
	"time"

	"github.com/google/uuid"

	"github.com/ppiankov/offhours/internal/model"
)

// Kind classifies an Event.
type Kind string

const (
	KindCall    Kind = "call"
	KindMessage Kind = "message"
	KindBlocker Kind = "blocker"
	KindDND     Kind = "dnd"
)

// Event is the payload published to sinks.
type Event struct {
	ID          string          `json:"id"`
	Kind        Kind            `json:"kind"`
	PhoneNumber string          `json:"phone_number,omitempty"`
	MessageBody string          `json:"message_body,omitempty"`
	Timestamp   time.Time       `json:"timestamp"`
	Decision    *model.Decision `json:"decision,omitempty"`
	State       string          `json:"state,omitempty"`
	Detail      string          `json:"detail,omitempty"`
}

// NewEvent stamps an event with a fresh id. A zero ts means now.
func NewEvent(kind Kind, ts time.Time) Event {
	if ts.IsZero() {
		ts = time.Now()
	}
	return Event{ID: uuid.NewString(), Kind: kind, Timestamp: ts}
}

// CallEvent is published for every screened inbound call.
func CallEvent(call model.CallEvent, d model.Decision) Event {
	ev := NewEvent(KindCall, call.Timestamp)
	ev.PhoneNumber = call.PhoneNumber
	ev.Decision = &d
	return ev
}

// MessageEvent is published for every inbound message.
func MessageEvent(msg model.InboundMessage, d model.Decision) Event {
	ev := NewEvent(KindMessage, msg.Timestamp)
	ev.PhoneNumber = msg.Sender
	ev.MessageBody = msg.Body
	ev.Decision = &d
	return ev
}
