package scenario

// Case is one decision to check.
type Case struct {
	At      string `yaml:"at"`
	Feature string `yaml:"feature,omitempty"`
	Expect  string `yaml:"expect"`
	Reason  string `yaml:"reason,omitempty"`
}

// Scenario is a named set of cases evaluated against one settings snapshot.
// Settings values may be written as native YAML scalars.
type Scenario struct {
	Name     string         `yaml:"name"`
	Settings map[string]any `yaml:"settings,omitempty"`
	Cases    []Case         `yaml:"cases"`
}

// CaseResult is the outcome of evaluating one test case.
type CaseResult struct {
	Index    int    `json:"index"`
	Passed   bool   `json:"passed"`
	Feature  string `json:"feature"`
	At       string `json:"at"`
	Expected string `json:"expected"`
	Actual   string `json:"actual"`
	Error    string `json:"error,omitempty"`
}

// RunResult is the outcome of running all cases in one scenario file.
type RunResult struct {
	File   string       `json:"file"`
	Name   string       `json:"name"`
	Total  int          `json:"total"`
	Passed int          `json:"passed"`
	Failed int          `json:"failed"`
	Cases  []CaseResult `json:"cases"`
}
