// Package heuristics holds the locale- and vendor-specific data used to
// recognize call screens and decline controls.
package heuristics

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Patterns holds the raw heuristic strings organized by category.
type Patterns struct {
	Labels                 []string `yaml:"labels,omitempty" json:"labels,omitempty"`
	Descriptions           []string `yaml:"descriptions,omitempty" json:"descriptions,omitempty"`
	Identifiers            []string `yaml:"identifiers,omitempty" json:"identifiers,omitempty"`
	ScreenPackages         []string `yaml:"screen_packages,omitempty" json:"screen_packages,omitempty"`
	ScreenPackageFragments []string `yaml:"screen_package_fragments,omitempty" json:"screen_package_fragments,omitempty"`
	ScreenClassFragments   []string `yaml:"screen_class_fragments,omitempty" json:"screen_class_fragments,omitempty"`
}

// File is the on-disk heuristics document. Its patterns extend the defaults
// unless ReplaceDefaults is set.
type File struct {
	ReplaceDefaults bool `yaml:"replace_defaults"`
	Patterns        `yaml:",inline"`
}

// Merge returns p extended with o, dropping case-insensitive duplicates.
func (p Patterns) Merge(o Patterns) Patterns {
	return Patterns{
		Labels:                 mergeList(p.Labels, o.Labels),
		Descriptions:           mergeList(p.Descriptions, o.Descriptions),
		Identifiers:            mergeList(p.Identifiers, o.Identifiers),
		ScreenPackages:         mergeList(p.ScreenPackages, o.ScreenPackages),
		ScreenPackageFragments: mergeList(p.ScreenPackageFragments, o.ScreenPackageFragments),
		ScreenClassFragments:   mergeList(p.ScreenClassFragments, o.ScreenClassFragments),
	}
}

func mergeList(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, s := range append(append([]string{}, a...), b...) {
		k := strings.ToLower(strings.TrimSpace(s))
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, s)
	}
	return out
}

// Heuristics holds compiled patterns for matching. Immutable after New.
type Heuristics struct {
	labels       []term
	descriptions []term
	identifiers  []term
	packages     map[string]bool
	pkgFragments []string
	clsFragments []string
	raw          Patterns
}

// New compiles p.
func New(p Patterns) *Heuristics {
	h := &Heuristics{
		labels:       compileAll(p.Labels),
		descriptions: compileAll(p.Descriptions),
		identifiers:  compileAll(p.Identifiers),
		packages:     make(map[string]bool, len(p.ScreenPackages)),
		raw:          p,
	}
	for _, s := range p.ScreenPackages {
		h.packages[strings.ToLower(strings.TrimSpace(s))] = true
	}
	for _, s := range p.ScreenPackageFragments {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			h.pkgFragments = append(h.pkgFragments, s)
		}
	}
	for _, s := range p.ScreenClassFragments {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			h.clsFragments = append(h.clsFragments, s)
		}
	}
	return h
}

// NewDefault compiles DefaultPatterns.
func NewDefault() *Heuristics {
	return New(DefaultPatterns)
}

// DefaultPath returns ~/.offhours/heuristics.yaml.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".offhours", "heuristics.yaml")
}

// LoadPatterns reads a heuristics file and resolves it against base.
// Empty path falls back to DefaultPath. Missing file returns base.
// Invalid YAML returns an error.
func LoadPatterns(path string, base Patterns) (Patterns, error) {
	if path == "" {
		path = DefaultPath()
		if path == "" {
			return base, nil
		}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return base, nil
		}
		return Patterns{}, fmt.Errorf("failed to read heuristics: %w", err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Patterns{}, fmt.Errorf("failed to parse heuristics: %w", err)
	}
	if f.ReplaceDefaults {
		return f.Patterns, nil
	}
	return base.Merge(f.Patterns), nil
}

// Load reads a heuristics file on top of the defaults.
func Load(path string) (*Heuristics, error) {
	p, err := LoadPatterns(path, DefaultPatterns)
	if err != nil {
		return nil, err
	}
	return New(p), nil
}

// Patterns returns the raw patterns h was compiled from.
func (h *Heuristics) Patterns() Patterns {
	return h.raw
}

// IsCallScreen reports whether a window with this package and class is a
// call-in-progress screen.
func (h *Heuristics) IsCallScreen(packageName, className string) bool {
	pkg := strings.ToLower(packageName)
	cls := strings.ToLower(className)
	if pkg != "" {
		if h.packages[pkg] {
			return true
		}
		for _, f := range h.pkgFragments {
			if strings.Contains(pkg, f) {
				return true
			}
		}
	}
	if cls != "" {
		for _, f := range h.clsFragments {
			if strings.Contains(cls, f) {
				return true
			}
		}
	}
	return false
}

// Match describes why a control was recognized as a decline control.
type Match struct {
	Field string // "label", "description" or "identifier"
	Term  string
}

func (m Match) String() string {
	return m.Field + " matches " + fmt.Sprintf("%q", m.Term)
}

// MatchDecline checks a control's label, description and identifier against
// the decline sets, in that order.
func (h *Heuristics) MatchDecline(label, description, identifier string) (Match, bool) {
	if t, ok := firstMatch(h.labels, label); ok {
		return Match{Field: "label", Term: t}, true
	}
	if t, ok := firstMatch(h.descriptions, description); ok {
		return Match{Field: "description", Term: t}, true
	}
	if t, ok := firstMatch(h.identifiers, identifier); ok {
		return Match{Field: "identifier", Term: t}, true
	}
	return Match{}, false
}
