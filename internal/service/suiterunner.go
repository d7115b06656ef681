package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Strob0t/LensForge/internal/domain/suite"
)

// SuiteRunner executes declarative test suites through the Analyzer.
type SuiteRunner struct {
	analyzer *Analyzer
	log      *slog.Logger
}

// NewSuiteRunner creates a SuiteRunner.
func NewSuiteRunner(a *Analyzer, log *slog.Logger) *SuiteRunner {
	return &SuiteRunner{analyzer: a, log: log}
}

// RunFile loads a suite document from disk and runs it.
func (r *SuiteRunner) RunFile(ctx context.Context, path, model string) (*suite.RunResult, error) {
	s, err := suite.Load(path)
	if err != nil {
		return nil, err
	}
	return r.Run(ctx, s, model)
}

// Run expands every case into one flat batch, executes it, and folds
// the ordered results back into per-case statistics. A request passes
// when its Result is not failed; answer content is reporting territory.
func (r *SuiteRunner) Run(ctx context.Context, s *suite.Suite, model string) (*suite.RunResult, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	runID := uuid.NewString()

	requests, caseIndex := s.Expand(model)
	r.log.Info("suite run started",
		"run_id", runID,
		"suite", s.Name,
		"cases", len(s.Cases),
		"requests", len(requests),
	)

	batch := r.analyzer.AnalyzeBatch(ctx, requests)

	run := &suite.RunResult{
		RunID:     runID,
		SuiteName: s.Name,
		Cases:     make([]suite.CaseResult, len(s.Cases)),
		Total:     batch.Total,
		Duration:  time.Since(start),
	}
	for i, c := range s.Cases {
		run.Cases[i].Name = c.Name
	}

	for i, res := range batch.Results {
		cr := &run.Cases[caseIndex[i]]
		cr.Total++
		cr.Results = append(cr.Results, res)
		if res.Failed {
			cr.Failed++
		} else {
			cr.Passed++
			run.Passed++
		}
	}
	for i := range run.Cases {
		cr := &run.Cases[i]
		if cr.Total > 0 {
			cr.SuccessRate = float64(cr.Passed) / float64(cr.Total)
		}
	}
	if run.Total > 0 {
		run.SuccessRate = float64(run.Passed) / float64(run.Total)
	}

	r.log.Info("suite run finished",
		"run_id", runID,
		"suite", s.Name,
		"total", run.Total,
		"passed", run.Passed,
		"success_rate", run.SuccessRate,
		"duration", run.Duration,
	)
	return run, nil
}
