package analysis_test

import (
	"testing"

	"github.com/Strob0t/LensForge/internal/domain/analysis"
)

func baseRequest() analysis.Request {
	return analysis.Request{
		Source:   "home.png",
		Query:    "Is the navigation visible?",
		Viewport: "desktop",
		Model:    "gpt-4o-mini",
		Context:  map[string]string{"user_type": "guest"},
	}
}

func TestFingerprint_Deterministic(t *testing.T) {
	hash := analysis.ContentHash([]byte("image-bytes"))

	fp1 := analysis.Fingerprint(hash, baseRequest())
	fp2 := analysis.Fingerprint(hash, baseRequest())

	if fp1 != fp2 {
		t.Fatalf("identical requests produced different fingerprints: %s vs %s", fp1, fp2)
	}
	if len(fp1) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(fp1))
	}
}

func TestFingerprint_ContextOrderIndependent(t *testing.T) {
	hash := analysis.ContentHash([]byte("image-bytes"))

	a := baseRequest()
	a.Context = map[string]string{"a": "1", "b": "2", "c": "3"}
	b := baseRequest()
	b.Context = map[string]string{"c": "3", "b": "2", "a": "1"}

	if analysis.Fingerprint(hash, a) != analysis.Fingerprint(hash, b) {
		t.Fatal("context key order changed the fingerprint")
	}
}

func TestFingerprint_FieldSensitivity(t *testing.T) {
	hash := analysis.ContentHash([]byte("image-bytes"))
	base := analysis.Fingerprint(hash, baseRequest())

	mutations := map[string]func(*analysis.Request){
		"query":    func(r *analysis.Request) { r.Query = "Is the footer visible?" },
		"viewport": func(r *analysis.Request) { r.Viewport = "mobile" },
		"model":    func(r *analysis.Request) { r.Model = "gpt-4o" },
		"context":  func(r *analysis.Request) { r.Context = map[string]string{"user_type": "admin"} },
	}

	for name, mutate := range mutations {
		req := baseRequest()
		mutate(&req)
		if analysis.Fingerprint(hash, req) == base {
			t.Errorf("changing %s did not change the fingerprint", name)
		}
	}

	otherHash := analysis.ContentHash([]byte("other-image"))
	if analysis.Fingerprint(otherHash, baseRequest()) == base {
		t.Error("changing source content did not change the fingerprint")
	}
}

func TestFingerprint_NoFieldAliasing(t *testing.T) {
	hash := analysis.ContentHash(nil)

	a := baseRequest()
	a.Query, a.Viewport = "ab", "c"
	b := baseRequest()
	b.Query, b.Viewport = "a", "bc"

	if analysis.Fingerprint(hash, a) == analysis.Fingerprint(hash, b) {
		t.Fatal("adjacent fields aliased into the same fingerprint")
	}
}

func TestSummarize_Counters(t *testing.T) {
	results := []analysis.Result{
		{Answer: "yes"},
		{Failed: true, Error: &analysis.ErrorDetail{Kind: analysis.KindTimeout, Message: "deadline exceeded"}},
		{Answer: "no"},
	}

	br := analysis.Summarize("batch-1", results, 0)
	if br.Total != 3 || br.Succeeded != 2 || br.Failed != 1 {
		t.Fatalf("unexpected counters: total=%d succeeded=%d failed=%d", br.Total, br.Succeeded, br.Failed)
	}
}

func TestKindOf(t *testing.T) {
	err := analysis.WrapError(analysis.KindNetwork, "post chat completion", analysis.NewError(analysis.KindTimeout, "inner"))
	if analysis.KindOf(err) != analysis.KindNetwork {
		t.Fatalf("expected outermost kind network, got %s", analysis.KindOf(err))
	}
	if analysis.KindOf(nil) != "" {
		t.Fatal("expected empty kind for nil error")
	}
	if !analysis.IsKind(analysis.NewError(analysis.KindCache, "disk"), analysis.KindCache) {
		t.Fatal("IsKind failed for direct typed error")
	}
}
