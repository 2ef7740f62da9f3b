// Package profile provides named bundles of heuristic data for a vendor
// dialer or a UI language.
package profile

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/offhours/internal/heuristics"
)

// Profile is a named, reusable set of heuristics that extends the defaults.
type Profile struct {
	Name        string              `yaml:"name"`
	Description string              `yaml:"description"`
	Heuristics  heuristics.Patterns `yaml:"heuristics"`
}

func userDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".offhours", "profiles"), nil
}

// Load loads a profile by name. Checks built-in profiles first,
// then falls back to ~/.offhours/profiles/<name>.yaml.
func Load(name string) (*Profile, error) {
	if data, ok := builtinProfiles[name]; ok {
		var p Profile
		if err := yaml.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("failed to parse built-in profile %q: %w", name, err)
		}
		return &p, nil
	}

	dir, err := userDir()
	if err != nil {
		return nil, fmt.Errorf("profile %q not found (no built-in, cannot determine home dir)", name)
	}
	data, err := os.ReadFile(filepath.Join(dir, name+".yaml"))
	if err != nil {
		return nil, fmt.Errorf("profile %q not found", name)
	}

	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse profile %q: %w", name, err)
	}
	if err := Validate(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// List returns sorted names of all available profiles (built-in + user).
func List() []string {
	seen := make(map[string]bool)
	for name := range builtinProfiles {
		seen[name] = true
	}
	if dir, err := userDir(); err == nil {
		if entries, err := os.ReadDir(dir); err == nil {
			for _, e := range entries {
				if e.IsDir() {
					continue
				}
				name := e.Name()
				if ext := filepath.Ext(name); ext == ".yaml" || ext == ".yml" {
					seen[name[:len(name)-len(ext)]] = true
				}
			}
		}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks that a profile is well-formed.
func Validate(p *Profile) error {
	if p.Name == "" {
		return fmt.Errorf("profile name is required")
	}
	h := p.Heuristics
	if len(h.Labels)+len(h.Descriptions)+len(h.Identifiers)+
		len(h.ScreenPackages)+len(h.ScreenPackageFragments)+len(h.ScreenClassFragments) == 0 {
		return fmt.Errorf("profile %q adds no heuristics", p.Name)
	}
	return nil
}

// Apply loads each named profile and merges it onto base, in order.
// Additive only: a profile never removes a pattern.
func Apply(base heuristics.Patterns, names ...string) (heuristics.Patterns, error) {
	out := base
	for _, name := range names {
		p, err := Load(name)
		if err != nil {
			return heuristics.Patterns{}, err
		}
		out = out.Merge(p.Heuristics)
	}
	return out, nil
}
