package filecache_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/Strob0t/LensForge/internal/adapter/filecache"
	"github.com/Strob0t/LensForge/internal/domain/analysis"
	"github.com/Strob0t/LensForge/internal/port/cache"
)

func newEntry(fingerprint, answer string, ttl time.Duration) cache.Entry {
	return cache.Entry{
		Fingerprint: fingerprint,
		Result:      analysis.Result{Answer: answer, Confidence: 0.8, Reasoning: "looks right"},
		CreatedAt:   time.Now(),
		TTL:         ttl,
	}
}

func TestStore_SetGetDelete(t *testing.T) {
	s, err := filecache.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	if err := s.Set(ctx, newEntry("abc123", "yes", time.Minute)); err != nil {
		t.Fatal(err)
	}

	entry, found, err := s.Get(ctx, "abc123")
	if err != nil {
		t.Fatal(err)
	}
	if !found {
		t.Fatal("expected hit after Set")
	}
	if entry.Result.Answer != "yes" {
		t.Fatalf("expected answer yes, got %q", entry.Result.Answer)
	}

	if err := s.Delete(ctx, "abc123"); err != nil {
		t.Fatal(err)
	}
	if _, found, _ := s.Get(ctx, "abc123"); found {
		t.Fatal("expected miss after Delete")
	}
}

func TestStore_PersistsAcrossInstances(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s1, err := filecache.New(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := s1.Set(ctx, newEntry("persist1", "survives", time.Hour)); err != nil {
		t.Fatal(err)
	}

	s2, err := filecache.New(dir)
	if err != nil {
		t.Fatal(err)
	}
	entry, found, err := s2.Get(ctx, "persist1")
	if err != nil {
		t.Fatal(err)
	}
	if !found || entry.Result.Answer != "survives" {
		t.Fatalf("expected persisted entry, found=%v answer=%q", found, entry.Result.Answer)
	}
}

func TestStore_ExpiredIsRemoved(t *testing.T) {
	dir := t.TempDir()
	s, err := filecache.New(dir)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	entry := newEntry("stale1", "old", 50*time.Millisecond)
	entry.CreatedAt = time.Now().Add(-time.Second)
	if err := s.Set(ctx, entry); err != nil {
		t.Fatal(err)
	}

	if _, found, _ := s.Get(ctx, "stale1"); found {
		t.Fatal("expected expired entry to behave as a miss")
	}
	if _, err := os.Stat(filepath.Join(dir, "stale1.json")); !os.IsNotExist(err) {
		t.Fatal("expected expired record to be unlinked")
	}
}

func TestStore_CorruptRecordIsMiss(t *testing.T) {
	dir := t.TempDir()
	s, err := filecache.New(dir)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	if err := os.WriteFile(filepath.Join(dir, "broken1.json"), []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}

	_, found, err := s.Get(ctx, "broken1")
	if err != nil {
		t.Fatalf("corrupt record must not be fatal: %v", err)
	}
	if found {
		t.Fatal("expected corrupt record to behave as a miss")
	}
	if _, err := os.Stat(filepath.Join(dir, "broken1.json")); !os.IsNotExist(err) {
		t.Fatal("expected corrupt record to be removed")
	}
}

func TestStore_Overwrite(t *testing.T) {
	s, err := filecache.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	_ = s.Set(ctx, newEntry("fp1", "first", time.Minute))
	_ = s.Set(ctx, newEntry("fp1", "second", time.Minute))

	entry, found, _ := s.Get(ctx, "fp1")
	if !found || entry.Result.Answer != "second" {
		t.Fatalf("expected overwritten entry, found=%v answer=%q", found, entry.Result.Answer)
	}
}

func TestStore_RejectsTraversal(t *testing.T) {
	s, err := filecache.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	for _, fp := range []string{"", "../evil", "a/b", `a\b`, "a.b"} {
		if _, _, err := s.Get(ctx, fp); !analysis.IsKind(err, analysis.KindCache) {
			t.Errorf("fingerprint %q: expected cache error, got %v", fp, err)
		}
	}
}

func TestStore_Purge(t *testing.T) {
	s, err := filecache.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	_ = s.Set(ctx, newEntry("p1", "a", time.Hour))
	_ = s.Set(ctx, newEntry("p2", "b", time.Hour))

	if err := s.Purge(ctx); err != nil {
		t.Fatal(err)
	}
	if _, found, _ := s.Get(ctx, "p1"); found {
		t.Fatal("expected p1 purged")
	}
	if _, found, _ := s.Get(ctx, "p2"); found {
		t.Fatal("expected p2 purged")
	}
}

func TestStore_ConcurrentReadersWriters(t *testing.T) {
	s, err := filecache.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			fp := fmt.Sprintf("fp%d", n%5)
			if n%2 == 0 {
				_ = s.Set(ctx, newEntry(fp, "answer", time.Minute))
				return
			}
			entry, found, err := s.Get(ctx, fp)
			if err != nil {
				t.Errorf("concurrent get: %v", err)
			}
			if found && entry.Result.Answer != "answer" {
				t.Errorf("observed partial record: %q", entry.Result.Answer)
			}
		}(i)
	}
	wg.Wait()
}
