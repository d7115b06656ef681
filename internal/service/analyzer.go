package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/Strob0t/LensForge/internal/adapter/otel"
	"github.com/Strob0t/LensForge/internal/domain/analysis"
	"github.com/Strob0t/LensForge/internal/port/cache"
	"github.com/Strob0t/LensForge/internal/port/capture"
	"github.com/Strob0t/LensForge/internal/port/provider"
)

// Analyzer orchestrates single and batch analysis: cache lookup, in-flight
// deduplication, gated provider calls, and write-through of fresh results.
type Analyzer struct {
	provider provider.Provider
	resolver capture.Resolver
	store    cache.Store
	gate     *Gate

	ttl         time.Duration
	callTimeout time.Duration

	log     *slog.Logger
	metrics *otel.Metrics

	hits   atomic.Uint64
	misses atomic.Uint64
}

// AnalyzerOption customizes an Analyzer.
type AnalyzerOption func(*Analyzer)

// WithCache attaches a result cache with the given entry TTL.
// A ttl <= 0 disables write-through: results are computed but not stored.
func WithCache(store cache.Store, ttl time.Duration) AnalyzerOption {
	return func(a *Analyzer) {
		a.store = store
		a.ttl = ttl
	}
}

// WithCallTimeout bounds each individual provider call.
func WithCallTimeout(d time.Duration) AnalyzerOption {
	return func(a *Analyzer) { a.callTimeout = d }
}

// WithMetrics attaches metric instruments.
func WithMetrics(m *otel.Metrics) AnalyzerOption {
	return func(a *Analyzer) { a.metrics = m }
}

// NewAnalyzer creates an Analyzer with at most maxConcurrent simultaneous
// provider calls.
func NewAnalyzer(p provider.Provider, r capture.Resolver, maxConcurrent int, log *slog.Logger, opts ...AnalyzerOption) *Analyzer {
	a := &Analyzer{
		provider: p,
		resolver: r,
		gate:     NewGate(maxConcurrent),
		log:      log,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// BatchOptions tunes one batch invocation.
type BatchOptions struct {
	// MaxConcurrent overrides the construction-time limit when > 0.
	MaxConcurrent int
	// DisableCache skips both lookup and write-through for this batch.
	DisableCache bool
}

// batchRun carries the per-invocation state shared by all requests in
// one batch: the dedup registry, the admission gate, and the cache
// toggle. It is discarded when the batch completes.
type batchRun struct {
	flight   singleflight.Group
	gate     *Gate
	useCache bool
}

func (a *Analyzer) newRun(opts BatchOptions) *batchRun {
	run := &batchRun{gate: a.gate, useCache: !opts.DisableCache}
	if opts.MaxConcurrent > 0 {
		run.gate = NewGate(opts.MaxConcurrent)
	}
	return run
}

// Analyze answers a single request, going through the same cache and
// gate path as batch work.
func (a *Analyzer) Analyze(ctx context.Context, req analysis.Request) analysis.Result {
	return a.analyzeOne(ctx, req, a.newRun(BatchOptions{}))
}

// AnalyzeBatch runs all requests concurrently, bounded by the gate, and
// returns results in input order. Per-request failures are embedded in
// the corresponding Result; they never abort the batch. Identical
// requests within the batch trigger one provider call whose result all
// duplicates share.
func (a *Analyzer) AnalyzeBatch(ctx context.Context, reqs []analysis.Request) analysis.BatchResult {
	return a.AnalyzeBatchOpts(ctx, reqs, BatchOptions{})
}

// AnalyzeBatchOpts is AnalyzeBatch with per-invocation overrides.
func (a *Analyzer) AnalyzeBatchOpts(ctx context.Context, reqs []analysis.Request, opts BatchOptions) analysis.BatchResult {
	start := time.Now()
	batchID := uuid.NewString()

	a.log.Info("batch started", "batch_id", batchID, "requests", len(reqs))
	if a.metrics != nil {
		a.metrics.BatchesStarted.Add(ctx, 1)
	}

	run := a.newRun(opts)

	results := make([]analysis.Result, len(reqs))
	var wg sync.WaitGroup

	for i, req := range reqs {
		wg.Add(1)
		go func(idx int, req analysis.Request) {
			defer wg.Done()
			results[idx] = a.analyzeOne(ctx, req, run)
		}(i, req)
	}
	wg.Wait()

	br := analysis.Summarize(batchID, results, time.Since(start))
	a.log.Info("batch finished",
		"batch_id", batchID,
		"total", br.Total,
		"succeeded", br.Succeeded,
		"failed", br.Failed,
		"duration", br.Duration,
	)
	if a.metrics != nil {
		a.metrics.BatchDuration.Record(ctx, br.Duration.Seconds())
	}
	return br
}

// analyzeOne runs the full pipeline for one request. It always returns a
// Result; failures are folded into it via FailureResult.
func (a *Analyzer) analyzeOne(ctx context.Context, req analysis.Request, run *batchRun) analysis.Result {
	res, err := a.tryAnalyze(ctx, req, run)
	if err != nil {
		a.log.Warn("analysis failed", "source", req.Source, "query", req.Query, "kind", analysis.KindOf(err), "error", err)
		if a.metrics != nil {
			a.metrics.AnalysesFailed.Add(ctx, 1)
		}
		return analysis.FailureResult(req, err)
	}
	if a.metrics != nil {
		a.metrics.AnalysesCompleted.Add(ctx, 1)
	}
	return res
}

func (a *Analyzer) tryAnalyze(ctx context.Context, req analysis.Request, run *batchRun) (analysis.Result, error) {
	if err := req.Validate(); err != nil {
		return analysis.Result{}, err
	}
	if err := ctx.Err(); err != nil {
		return analysis.Result{}, analysis.WrapError(analysis.KindCanceled, "batch canceled", err)
	}

	image, err := a.resolver.Resolve(ctx, req.Source, req.Viewport)
	if err != nil {
		return analysis.Result{}, err
	}

	fp := analysis.Fingerprint(analysis.ContentHash(image), req)

	if run.useCache {
		if res, ok := a.cacheGet(ctx, fp); ok {
			return res, nil
		}
	}

	// Dedup within the batch: concurrent identical requests wait for
	// the leader's provider call and share its result.
	v, err, _ := run.flight.Do(fp, func() (any, error) {
		res, err := a.callProvider(ctx, req, image, run.gate)
		if err != nil {
			return nil, err
		}
		if run.useCache {
			a.cacheSet(ctx, fp, res)
		}
		return res, nil
	})
	if err != nil {
		return analysis.Result{}, err
	}
	return v.(analysis.Result), nil
}

// callProvider invokes the vision backend through the admission gate,
// applying the per-call timeout inside the gated section so queue wait
// does not eat into it.
func (a *Analyzer) callProvider(ctx context.Context, req analysis.Request, image []byte, gate *Gate) (analysis.Result, error) {
	var res analysis.Result
	err := gate.Run(ctx, func() error {
		callCtx := ctx
		if a.callTimeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, a.callTimeout)
			defer cancel()
		}

		var err error
		res, err = a.provider.Analyze(callCtx, req, image)
		return err
	})
	if err != nil {
		if analysis.KindOf(err) == "" {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return analysis.Result{}, analysis.WrapError(analysis.KindCanceled, "batch canceled", ctxErr)
			}
			// The batch context is alive, so a deadline here is the
			// per-call timeout expiring on an unclassified error.
			if errors.Is(err, context.DeadlineExceeded) {
				return analysis.Result{}, analysis.WrapError(analysis.KindTimeout, "call timed out", err)
			}
		}
		return analysis.Result{}, err
	}
	return res, nil
}

// cacheGet looks up the fingerprint. Backend errors are logged and
// treated as a miss; the cache must never fail an analysis.
func (a *Analyzer) cacheGet(ctx context.Context, fp string) (analysis.Result, bool) {
	if a.store == nil {
		return analysis.Result{}, false
	}

	entry, ok, err := a.store.Get(ctx, fp)
	if err != nil {
		a.log.Warn("cache get failed, treating as miss", "fingerprint", fp, "error", err)
		a.misses.Add(1)
		if a.metrics != nil {
			a.metrics.CacheMisses.Add(ctx, 1)
		}
		return analysis.Result{}, false
	}
	if !ok {
		a.misses.Add(1)
		if a.metrics != nil {
			a.metrics.CacheMisses.Add(ctx, 1)
		}
		return analysis.Result{}, false
	}

	a.hits.Add(1)
	if a.metrics != nil {
		a.metrics.CacheHits.Add(ctx, 1)
	}
	res := entry.Result
	res.CacheHit = true
	return res, true
}

// cacheSet writes through a fresh result. Failures are logged and
// swallowed; only successful provider results are cached.
func (a *Analyzer) cacheSet(ctx context.Context, fp string, res analysis.Result) {
	if a.store == nil || a.ttl <= 0 {
		return
	}

	entry := cache.Entry{
		Fingerprint: fp,
		Result:      res,
		CreatedAt:   time.Now(),
		TTL:         a.ttl,
	}
	if err := a.store.Set(ctx, entry); err != nil {
		a.log.Warn("cache set failed", "fingerprint", fp, "error", err)
	}
}

// CacheStats reports hit/miss counters accumulated across this
// Analyzer's lookups.
func (a *Analyzer) CacheStats() cache.Stats {
	hits := a.hits.Load()
	misses := a.misses.Load()
	s := cache.Stats{Hits: hits, Misses: misses}
	if total := hits + misses; total > 0 {
		s.HitRate = float64(hits) / float64(total)
	}
	return s
}

// InvalidateCache removes the entry for one fingerprint.
func (a *Analyzer) InvalidateCache(ctx context.Context, fingerprint string) error {
	if a.store == nil {
		return nil
	}
	return a.store.Delete(ctx, fingerprint)
}

// PurgeCache drops every cached entry. Hit and miss counters are left
// alone; they describe lookups, not contents.
func (a *Analyzer) PurgeCache(ctx context.Context) error {
	if a.store == nil {
		return nil
	}
	return a.store.Purge(ctx)
}
