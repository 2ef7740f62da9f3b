// Package audit keeps a tamper-evident JSONL journal of every decision the
// daemon makes.
package audit

import (
	"github.com/ppiankov/offhours/internal/logger"
	"github.com/ppiankov/offhours/internal/notify"
)

// TimestampFormat is the layout used in entry timestamps.
const TimestampFormat = "2006-01-02T15:04:05.000Z"

// Entry is one line in the hash-chained log. Fields are fixed so
// json.Marshal output is deterministic for hashing.
type Entry struct {
	Timestamp string `json:"ts"`
	EventID   string `json:"event_id"`
	Kind      string `json:"kind"`
	Number    string `json:"number,omitempty"`
	Decision  string `json:"decision,omitempty"`
	Reason    string `json:"reason,omitempty"`
	State     string `json:"state,omitempty"`
	Detail    string `json:"detail,omitempty"`
	PrevHash  string `json:"prev_hash"`
}

// EntryOf flattens an observer event. Phone numbers are masked and message
// bodies are never recorded.
func EntryOf(ev notify.Event) Entry {
	e := Entry{
		EventID: ev.ID,
		Kind:    string(ev.Kind),
		Number:  logger.MaskNumber(ev.PhoneNumber),
		State:   ev.State,
		Detail:  ev.Detail,
	}
	if !ev.Timestamp.IsZero() {
		e.Timestamp = ev.Timestamp.UTC().Format(TimestampFormat)
	}
	if ev.Decision != nil {
		e.Decision = string(ev.Decision.Outcome)
		e.Reason = string(ev.Decision.Reason)
	}
	return e
}
