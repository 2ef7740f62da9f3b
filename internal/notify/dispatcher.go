package notify

import "sync/atomic"

// Sink receives events. Notify must not block the caller.
type Sink interface {
	Notify(Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event)

func (f SinkFunc) Notify(ev Event) { f(ev) }

// Dispatcher fans events out to every sink. A nil *Dispatcher is a valid
// no-op notifier.
type Dispatcher struct {
	sinks []Sink
}

// NewDispatcher creates a Dispatcher over sinks, skipping nil entries.
func NewDispatcher(sinks ...Sink) *Dispatcher {
	d := &Dispatcher{}
	for _, s := range sinks {
		if s != nil {
			d.sinks = append(d.sinks, s)
		}
	}
	return d
}

// Add registers another sink.
func (d *Dispatcher) Add(s Sink) {
	if s != nil {
		d.sinks = append(d.sinks, s)
	}
}

// Notify delivers ev to all sinks.
func (d *Dispatcher) Notify(ev Event) {
	if d == nil {
		return
	}
	for _, s := range d.sinks {
		s.Notify(ev)
	}
}

// ChanSink buffers events on a channel and drops them when the buffer is full.
type ChanSink struct {
	ch      chan Event
	dropped atomic.Int64
}

// NewChanSink creates a sink with the given buffer size.
func NewChanSink(size int) *ChanSink {
	if size < 1 {
		size = 1
	}
	return &ChanSink{ch: make(chan Event, size)}
}

func (c *ChanSink) Notify(ev Event) {
	select {
	case c.ch <- ev:
	default:
		c.dropped.Add(1)
	}
}

// Events returns the receive side of the buffer.
func (c *ChanSink) Events() <-chan Event { return c.ch }

// Dropped returns how many events were discarded because the buffer was full.
func (c *ChanSink) Dropped() int64 { return c.dropped.Load() }
