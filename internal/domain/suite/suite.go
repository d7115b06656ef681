// Package suite defines declarative test suites: named cases that expand
// into flat analysis request lists and fold back into per-case statistics.
package suite

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Strob0t/LensForge/internal/domain/analysis"
)

// DefaultViewport is used when a case declares no viewports.
const DefaultViewport = "desktop"

// Suite is a named collection of test cases loaded from a YAML document.
type Suite struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	Cases       []Case `yaml:"cases"`
}

// Case declares one test case. It expands combinatorially into
// sources × queries × viewports analysis requests.
type Case struct {
	Name      string            `yaml:"name"`
	Sources   []string          `yaml:"sources"`
	Queries   []string          `yaml:"queries"`
	Viewports []string          `yaml:"viewports,omitempty"`
	Context   map[string]string `yaml:"context,omitempty"`
	// Expect is consumed only by external reporting, never by the engine.
	Expect *Expectation `yaml:"expect,omitempty"`
}

// Expectation annotates a case with reporting thresholds.
type Expectation struct {
	MinConfidence float64 `yaml:"min_confidence,omitempty"`
	Answer        string  `yaml:"answer,omitempty"`
}

// Load reads and parses a suite document from disk.
func Load(path string) (*Suite, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path comes from the caller's own configuration
	if err != nil {
		return nil, analysis.WrapError(analysis.KindConfiguration, fmt.Sprintf("read suite %s", path), err)
	}
	return Parse(data)
}

// Parse parses a YAML suite document and validates it.
func Parse(data []byte) (*Suite, error) {
	var s Suite
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, analysis.WrapError(analysis.KindConfiguration, "parse suite", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate rejects malformed suites before any batch work starts.
// A case that would expand to zero requests is a configuration error,
// not a vacuous pass.
func (s *Suite) Validate() error {
	if s.Name == "" {
		return analysis.NewError(analysis.KindConfiguration, "suite name is required")
	}
	if len(s.Cases) == 0 {
		return analysis.NewError(analysis.KindConfiguration, fmt.Sprintf("suite %q has no cases", s.Name))
	}
	for _, c := range s.Cases {
		if c.Name == "" {
			return analysis.NewError(analysis.KindConfiguration, fmt.Sprintf("suite %q contains an unnamed case", s.Name))
		}
		if len(c.Sources) == 0 || len(c.Queries) == 0 {
			return analysis.NewError(analysis.KindConfiguration,
				fmt.Sprintf("case %q expands to zero requests (sources=%d queries=%d)", c.Name, len(c.Sources), len(c.Queries)))
		}
	}
	return nil
}

// Expand produces the flat request list for the whole suite plus a
// parallel slice mapping each request to its owning case index, so one
// batch can serve every case while results fold back correctly.
func (s *Suite) Expand(model string) (requests []analysis.Request, caseIndex []int) {
	for i, c := range s.Cases {
		for _, req := range c.expand(model) {
			requests = append(requests, req)
			caseIndex = append(caseIndex, i)
		}
	}
	return requests, caseIndex
}

func (c Case) expand(model string) []analysis.Request {
	viewports := c.Viewports
	if len(viewports) == 0 {
		viewports = []string{DefaultViewport}
	}

	requests := make([]analysis.Request, 0, len(c.Sources)*len(c.Queries)*len(viewports))
	for _, source := range c.Sources {
		for _, query := range c.Queries {
			for _, viewport := range viewports {
				requests = append(requests, analysis.Request{
					Source:   source,
					Query:    query,
					Viewport: viewport,
					Context:  c.Context,
					Model:    model,
				})
			}
		}
	}
	return requests
}

// CaseResult holds the folded statistics for one case after a suite run.
type CaseResult struct {
	Name        string            `json:"name"`
	Total       int               `json:"total"`
	Passed      int               `json:"passed"`
	Failed      int               `json:"failed"`
	SuccessRate float64           `json:"success_rate"`
	Results     []analysis.Result `json:"results,omitempty"`
}

// RunResult is the outcome of executing a whole suite as one batch.
type RunResult struct {
	RunID       string        `json:"run_id"`
	SuiteName   string        `json:"suite_name"`
	Cases       []CaseResult  `json:"cases"`
	Total       int           `json:"total"`
	Passed      int           `json:"passed"`
	SuccessRate float64       `json:"success_rate"`
	Duration    time.Duration `json:"duration_ns"`
}
