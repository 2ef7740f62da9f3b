// Package uitree defines the read-only UI tree handed to the fallback blocker
// by a platform adapter.
package uitree

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Node is one element of an on-screen accessibility tree. Implementations
// are owned by the platform adapter; callers only read them.
type Node interface {
	Label() string
	Description() string
	Identifier() string
	Clickable() bool
	Children() []Node
}

// Mode selects how a node is activated.
type Mode string

const (
	Click     Mode = "click"
	LongClick Mode = "long_click"
)

// Event is a UI-state-changed notification.
type Event struct {
	PackageName string
	ClassName   string
	Root        Node
}

// Path addresses a node by child indices from the root.
type Path []int

func (p Path) String() string {
	if len(p) == 0 {
		return "/"
	}
	parts := make([]string, len(p))
	for i, n := range p {
		parts[i] = strconv.Itoa(n)
	}
	return "/" + strings.Join(parts, "/")
}

// ParsePath is the inverse of Path.String.
func ParsePath(s string) (Path, error) {
	s = strings.Trim(s, "/")
	if s == "" {
		return Path{}, nil
	}
	parts := strings.Split(s, "/")
	p := make(Path, len(parts))
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid path segment %q", part)
		}
		p[i] = n
	}
	return p, nil
}

// Append returns a copy of p extended with i.
func (p Path) Append(i int) Path {
	out := make(Path, len(p)+1)
	copy(out, p)
	out[len(p)] = i
	return out
}

// Resolve walks p from root. Returns nil when the path no longer exists.
func Resolve(root Node, p Path) Node {
	n := root
	for _, i := range p {
		if n == nil {
			return nil
		}
		kids := n.Children()
		if i >= len(kids) {
			return nil
		}
		n = kids[i]
	}
	return n
}

// Snapshot is a plain, serializable Node.
type Snapshot struct {
	Text     string      `json:"label,omitempty" yaml:"label,omitempty"`
	Desc     string      `json:"description,omitempty" yaml:"description,omitempty"`
	ID       string      `json:"identifier,omitempty" yaml:"identifier,omitempty"`
	CanClick bool        `json:"clickable,omitempty" yaml:"clickable,omitempty"`
	Kids     []*Snapshot `json:"children,omitempty" yaml:"children,omitempty"`
}

func (s *Snapshot) Label() string       { return s.Text }
func (s *Snapshot) Description() string { return s.Desc }
func (s *Snapshot) Identifier() string  { return s.ID }
func (s *Snapshot) Clickable() bool     { return s.CanClick }

// Children keeps the index of every child. A null child is a nil Node, not
// a nil *Snapshot, so callers can test it with == nil.
func (s *Snapshot) Children() []Node {
	out := make([]Node, len(s.Kids))
	for i, k := range s.Kids {
		if k != nil {
			out[i] = k
		}
	}
	return out
}

// Capture copies any Node into a Snapshot, to at most maxDepth levels.
func Capture(n Node, maxDepth int) *Snapshot {
	if n == nil {
		return nil
	}
	s := &Snapshot{
		Text:     n.Label(),
		Desc:     n.Description(),
		ID:       n.Identifier(),
		CanClick: n.Clickable(),
	}
	if maxDepth > 0 {
		for _, k := range n.Children() {
			s.Kids = append(s.Kids, Capture(k, maxDepth-1))
		}
	}
	return s
}

// ScreenFile is a recorded UI-state event: window identity plus tree.
type ScreenFile struct {
	PackageName string    `json:"package_name" yaml:"package_name"`
	ClassName   string    `json:"class_name" yaml:"class_name"`
	Root        *Snapshot `json:"root" yaml:"root"`
}

// Event converts the file into an Event.
func (f *ScreenFile) Event() Event {
	ev := Event{PackageName: f.PackageName, ClassName: f.ClassName}
	if f.Root != nil {
		ev.Root = f.Root
	}
	return ev
}

// LoadScreenFile reads a recorded screen in JSON or YAML (by extension).
func LoadScreenFile(path string) (*ScreenFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read screen file: %w", err)
	}
	var f ScreenFile
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, &f)
	default:
		err = yaml.Unmarshal(data, &f)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse screen file: %w", err)
	}
	return &f, nil
}
