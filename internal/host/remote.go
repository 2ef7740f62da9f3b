// Package host implements the platform capabilities for a device that is
// driven remotely: the device pushes its state and polls for commands.
package host

import (
	"context"
	"sync"

	"github.com/ppiankov/offhours/internal/dnd"
	"github.com/ppiankov/offhours/internal/model"
	"github.com/ppiankov/offhours/internal/uitree"
)

// CommandKind names an action the device must perform.
type CommandKind string

const (
	CommandActivate CommandKind = "activate"
	CommandBack     CommandKind = "back"
	CommandSetDND   CommandKind = "set_dnd"
	CommandSendSMS  CommandKind = "send_sms"
)

// Command is one queued action.
type Command struct {
	Kind CommandKind `json:"kind"`
	Path string      `json:"path,omitempty"`
	Mode uitree.Mode `json:"mode,omitempty"`
	On   bool        `json:"on,omitempty"`
	To   string      `json:"to,omitempty"`
	Body string      `json:"body,omitempty"`
}

// DNDState is the device's report of its do-not-disturb capability.
type DNDState struct {
	Supported  bool `json:"supported"`
	Permission bool `json:"permission"`
	On         bool `json:"on"`
}

// Remote records the latest state pushed by the device and queues the
// actions taken against it. Safe for concurrent use.
type Remote struct {
	mu             sync.Mutex
	defaultHandler model.Tristate
	root           *uitree.Snapshot
	dnd            DNDState
	queue          []Command
}

// NewRemote creates a host with nothing reported yet.
func NewRemote() *Remote {
	return &Remote{}
}

// ReportDefaultHandler records the default call-handler query result.
func (r *Remote) ReportDefaultHandler(t model.Tristate) {
	r.mu.Lock()
	r.defaultHandler = t
	r.mu.Unlock()
}

// ReportRoot records the current UI tree. nil clears it.
func (r *Remote) ReportRoot(s *uitree.Snapshot) {
	r.mu.Lock()
	r.root = s
	r.mu.Unlock()
}

// ReportDND records the do-not-disturb state.
func (r *Remote) ReportDND(s DNDState) {
	r.mu.Lock()
	r.dnd = s
	r.mu.Unlock()
}

// Drain returns the queued commands and clears the queue.
func (r *Remote) Drain() []Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.queue
	r.queue = nil
	return out
}

// Pending returns how many commands are queued.
func (r *Remote) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.queue)
}

func (r *Remote) IsDefaultCallHandler() model.Tristate {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.defaultHandler
}

func (r *Remote) RootNode() uitree.Node {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.root == nil {
		return nil
	}
	return r.root
}

// Activate queues an activation of the node at path. It fails when path
// does not resolve in the last reported tree.
func (r *Remote) Activate(_ uitree.Node, path uitree.Path, mode uitree.Mode) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.root == nil || uitree.Resolve(r.root, path) == nil {
		return false
	}
	r.queue = append(r.queue, Command{Kind: CommandActivate, Path: path.String(), Mode: mode})
	return true
}

func (r *Remote) GlobalBack() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queue = append(r.queue, Command{Kind: CommandBack})
	return true
}

func (r *Remote) Supported() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dnd.Supported
}

func (r *Remote) HasPermission() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dnd.Supported && r.dnd.Permission
}

func (r *Remote) IsDND() (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.dnd.Supported {
		return false, dnd.ErrUnsupported
	}
	return r.dnd.On, nil
}

// SetDND queues the change and assumes it succeeds until the device
// reports otherwise.
func (r *Remote) SetDND(on bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch {
	case !r.dnd.Supported:
		return dnd.ErrUnsupported
	case !r.dnd.Permission:
		return dnd.ErrPermission
	}
	r.dnd.On = on
	r.queue = append(r.queue, Command{Kind: CommandSetDND, On: on})
	return nil
}

// Send queues an SMS for the device to deliver.
func (r *Remote) Send(ctx context.Context, to, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queue = append(r.queue, Command{Kind: CommandSendSMS, To: to, Body: body})
	return nil
}
