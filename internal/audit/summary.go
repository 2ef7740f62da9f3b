package audit

import (
	"fmt"
	"time"

	"github.com/ppiankov/offhours/internal/blocker"
	"github.com/ppiankov/offhours/internal/model"
)

// Filter selects entries for Summarize. Zero fields match everything.
type Filter struct {
	Kind string
	From time.Time
	To   time.Time
}

func (f Filter) match(e Entry) bool {
	if f.Kind != "" && e.Kind != f.Kind {
		return false
	}
	if f.From.IsZero() && f.To.IsZero() {
		return true
	}
	ts, err := time.Parse(TimestampFormat, e.Timestamp)
	if err != nil {
		return false
	}
	if !f.From.IsZero() && ts.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && ts.After(f.To) {
		return false
	}
	return true
}

// Summary counts decisions and blocker outcomes over a journal.
type Summary struct {
	Total    int            `json:"total"`
	Blocked  int            `json:"blocked"`
	Allowed  int            `json:"allowed"`
	ByKind   map[string]int `json:"by_kind"`
	ByReason map[string]int `json:"by_reason"`
	Declined int            `json:"declined"`
	GaveUp   int            `json:"gave_up"`
	First    string         `json:"first,omitempty"`
	Last     string         `json:"last,omitempty"`
}

// Summarize reads the journal at path and tallies entries matching f.
func Summarize(path string, f Filter) (*Summary, error) {
	s := &Summary{ByKind: map[string]int{}, ByReason: map[string]int{}}
	err := scan(path, func(_ int, _ []byte, e Entry) error {
		if f.match(e) {
			s.add(e)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read audit log: %w", err)
	}
	return s, nil
}

func (s *Summary) add(e Entry) {
	s.Total++
	s.ByKind[e.Kind]++
	switch e.Decision {
	case string(model.Block):
		s.Blocked++
	case string(model.Allow):
		s.Allowed++
	}
	if e.Reason != "" {
		s.ByReason[e.Reason]++
	}
	switch e.State {
	case string(blocker.Declined):
		s.Declined++
	case string(blocker.GaveUp):
		s.GaveUp++
	}
	if s.First == "" {
		s.First = e.Timestamp
	}
	s.Last = e.Timestamp
}
