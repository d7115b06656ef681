// Package analysis defines the core domain types of the batch-analysis
// engine: requests, results, and batch aggregates.
package analysis

import (
	"time"
)

// Request describes one visual-analysis question: a source artifact, a
// natural-language query, and the viewport/model it applies to.
// Requests are value types and never mutated after creation.
type Request struct {
	// Source identifies the visual artifact: a screenshot path or a
	// capture-service identifier. Resolution to image bytes is the
	// capture port's concern.
	Source   string            `json:"source"`
	Query    string            `json:"query"`
	Viewport string            `json:"viewport"`
	Context  map[string]string `json:"context,omitempty"`
	Model    string            `json:"model"`
}

// Validate checks the request fields that the engine itself depends on.
func (r Request) Validate() error {
	if r.Source == "" {
		return NewError(KindValidation, "source is required")
	}
	if r.Query == "" {
		return NewError(KindValidation, "query is required")
	}
	return nil
}

// ErrorDetail is the serializable failure record attached to a failed Result.
type ErrorDetail struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
}

// Result is the normalized outcome of analyzing one Request, whether it
// came from a provider or from cache. Immutable once produced.
type Result struct {
	Source     string            `json:"source"`
	Query      string            `json:"query"`
	Viewport   string            `json:"viewport"`
	Answer     string            `json:"answer"`
	Confidence float64           `json:"confidence"`
	Reasoning  string            `json:"reasoning"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	Provider   string            `json:"provider,omitempty"`
	Model      string            `json:"model,omitempty"`
	CacheHit   bool              `json:"cache_hit"`
	Failed     bool              `json:"failed"`
	Error      *ErrorDetail      `json:"error,omitempty"`
	Duration   time.Duration     `json:"duration_ns"`
}

// FailureResult builds a failed Result for req from err, preserving the
// error kind when err is a typed *Error.
func FailureResult(req Request, err error) Result {
	kind := KindOf(err)
	if kind == "" {
		kind = KindProvider
	}
	return Result{
		Source:   req.Source,
		Query:    req.Query,
		Viewport: req.Viewport,
		Model:    req.Model,
		Failed:   true,
		Error:    &ErrorDetail{Kind: kind, Message: err.Error()},
	}
}

// BatchResult holds the ordered results of one batch invocation.
// Results[i] always corresponds to the i-th input request.
type BatchResult struct {
	ID        string        `json:"id"`
	Results   []Result      `json:"results"`
	Total     int           `json:"total"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	Duration  time.Duration `json:"duration_ns"`
}

// Summarize computes the aggregate counters from a completed result slice.
func Summarize(id string, results []Result, duration time.Duration) BatchResult {
	br := BatchResult{
		ID:       id,
		Results:  results,
		Total:    len(results),
		Duration: duration,
	}
	for _, r := range results {
		if r.Failed {
			br.Failed++
		} else {
			br.Succeeded++
		}
	}
	return br
}
