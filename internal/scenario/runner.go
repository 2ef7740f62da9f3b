// Package scenario checks recorded decision expectations against the engine.
package scenario

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/offhours/internal/logger"
	"github.com/ppiankov/offhours/internal/model"
	"github.com/ppiankov/offhours/internal/policy"
	"github.com/ppiankov/offhours/internal/settings"
)

// Run evaluates every case through a policy engine over the scenario's
// settings. Invalid settings are not an error: the engine fails open and
// the cases see error_fallback.
func Run(s *Scenario) *RunResult {
	values := settings.Values{}
	for k, v := range s.Settings {
		values[k] = fmt.Sprint(v)
	}
	engine := policy.NewEngine(settings.NewMemoryStore(values), policy.WithLogger(logger.Nop()))

	result := &RunResult{
		Name:  s.Name,
		Total: len(s.Cases),
	}
	for i, c := range s.Cases {
		cr := runCase(engine, c)
		cr.Index = i + 1
		if cr.Passed {
			result.Passed++
		} else {
			result.Failed++
		}
		result.Cases = append(result.Cases, cr)
	}
	return result
}

func runCase(engine *policy.Engine, c Case) CaseResult {
	cr := CaseResult{Feature: c.Feature, At: c.At, Expected: expectation(c)}

	f, ok := model.ParseFeature(c.Feature)
	if !ok {
		cr.Error = fmt.Sprintf("unknown feature %q", c.Feature)
		return cr
	}
	cr.Feature = string(f)
	at, err := time.Parse(time.RFC3339, c.At)
	if err != nil {
		cr.Error = fmt.Sprintf("invalid at %q: %v", c.At, err)
		return cr
	}

	ev := engine.EvaluateAt(context.Background(), f, at)
	cr.Actual = ev.Decision.String()
	if ev.Err != nil {
		cr.Error = ev.Err.Error()
	}
	cr.Passed = strings.EqualFold(string(ev.Decision.Outcome), c.Expect) &&
		(c.Reason == "" || strings.EqualFold(string(ev.Decision.Reason), c.Reason))
	return cr
}

func expectation(c Case) string {
	exp := strings.ToLower(c.Expect)
	if c.Reason != "" {
		exp += "(" + strings.ToLower(c.Reason) + ")"
	}
	return exp
}

// Load parses a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario %s: %w", path, err)
	}
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	if s.Name == "" {
		s.Name = path
	}
	return &s, nil
}

// LoadAndRun loads a scenario file and runs it.
func LoadAndRun(path string) (*RunResult, error) {
	s, err := Load(path)
	if err != nil {
		return nil, err
	}
	result := Run(s)
	result.File = path
	return result, nil
}
