package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Strob0t/LensForge/internal/domain/analysis"
	"github.com/Strob0t/LensForge/internal/domain/suite"
	"github.com/Strob0t/LensForge/internal/service"
)

// maxBodyBytes bounds request bodies; batch documents stay well under this.
const maxBodyBytes = 4 << 20

// Handlers bundles the services exposed over HTTP.
type Handlers struct {
	analyzer *service.Analyzer
	suites   *service.SuiteRunner
	log      *slog.Logger
}

// NewHandlers creates the handler set.
func NewHandlers(a *service.Analyzer, s *service.SuiteRunner, log *slog.Logger) *Handlers {
	return &Handlers{analyzer: a, suites: s, log: log}
}

// Analyze answers a single visual-analysis request.
// POST /api/v1/analyze
func (h *Handlers) Analyze(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[analysis.Request](w, r, maxBodyBytes)
	if !ok {
		return
	}
	if err := req.Validate(); err != nil {
		writeAnalysisError(w, err)
		return
	}

	res := h.analyzer.Analyze(r.Context(), req)
	writeJSON(w, http.StatusOK, res)
}

type batchRequest struct {
	Requests []analysis.Request `json:"requests"`
	// MaxConcurrent overrides the configured concurrency ceiling when > 0.
	MaxConcurrent int `json:"max_concurrent,omitempty"`
	// NoCache bypasses lookup and write-through for this batch.
	NoCache bool `json:"no_cache,omitempty"`
}

// AnalyzeBatch runs a whole batch and returns ordered results.
// Per-request failures are embedded in their results; the batch itself
// succeeds unless the input is unusable.
// POST /api/v1/batch
func (h *Handlers) AnalyzeBatch(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[batchRequest](w, r, maxBodyBytes)
	if !ok {
		return
	}
	if len(req.Requests) == 0 {
		writeError(w, http.StatusBadRequest, "requests must not be empty")
		return
	}

	br := h.analyzer.AnalyzeBatchOpts(r.Context(), req.Requests, service.BatchOptions{
		MaxConcurrent: req.MaxConcurrent,
		DisableCache:  req.NoCache,
	})
	writeJSON(w, http.StatusOK, br)
}

type suiteRequest struct {
	// Path points to a YAML suite document on the server.
	Path string `json:"path,omitempty"`
	// YAML is an inline suite document, used when Path is empty.
	YAML  string `json:"yaml,omitempty"`
	Model string `json:"model,omitempty"`
}

// RunSuite executes a declarative test suite as one batch.
// POST /api/v1/suite
func (h *Handlers) RunSuite(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[suiteRequest](w, r, maxBodyBytes)
	if !ok {
		return
	}

	var (
		s   *suite.Suite
		err error
	)
	switch {
	case req.Path != "":
		s, err = suite.Load(req.Path)
	case req.YAML != "":
		s, err = suite.Parse([]byte(req.YAML))
	default:
		writeError(w, http.StatusBadRequest, "path or yaml is required")
		return
	}
	if err != nil {
		writeAnalysisError(w, err)
		return
	}

	run, err := h.suites.Run(r.Context(), s, req.Model)
	if err != nil {
		writeAnalysisError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// CacheStats reports hit/miss counters.
// GET /api/v1/cache/stats
func (h *Handlers) CacheStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.analyzer.CacheStats())
}

// InvalidateCacheEntry removes one cached result by fingerprint.
// DELETE /api/v1/cache/{fingerprint}
func (h *Handlers) InvalidateCacheEntry(w http.ResponseWriter, r *http.Request) {
	fp := chi.URLParam(r, "fingerprint")
	if fp == "" {
		writeError(w, http.StatusBadRequest, "fingerprint is required")
		return
	}
	if err := h.analyzer.InvalidateCache(r.Context(), fp); err != nil {
		writeAnalysisError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PurgeCache removes every cached result.
// DELETE /api/v1/cache
func (h *Handlers) PurgeCache(w http.ResponseWriter, r *http.Request) {
	if err := h.analyzer.PurgeCache(r.Context()); err != nil {
		writeAnalysisError(w, err)
		return
	}
	h.log.Info("cache purged")
	w.WriteHeader(http.StatusNoContent)
}

// Health reports liveness.
// GET /health
func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
