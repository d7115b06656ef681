package memcache_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Strob0t/LensForge/internal/adapter/memcache"
	"github.com/Strob0t/LensForge/internal/domain/analysis"
	"github.com/Strob0t/LensForge/internal/port/cache"
)

func newEntry(fingerprint, answer string, ttl time.Duration) cache.Entry {
	return cache.Entry{
		Fingerprint: fingerprint,
		Result:      analysis.Result{Answer: answer, Confidence: 0.9},
		CreatedAt:   time.Now(),
		TTL:         ttl,
	}
}

func TestStore_SetGetDelete(t *testing.T) {
	s, err := memcache.New(100)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	ctx := context.Background()

	if err := s.Set(ctx, newEntry("fp1", "yes", time.Minute)); err != nil {
		t.Fatal(err)
	}

	entry, found, err := s.Get(ctx, "fp1")
	if err != nil {
		t.Fatal(err)
	}
	if !found {
		t.Fatal("expected hit after Set")
	}
	if entry.Result.Answer != "yes" {
		t.Fatalf("expected answer yes, got %q", entry.Result.Answer)
	}

	if err := s.Delete(ctx, "fp1"); err != nil {
		t.Fatal(err)
	}
	if _, found, _ := s.Get(ctx, "fp1"); found {
		t.Fatal("expected miss after Delete")
	}
}

func TestStore_Overwrite(t *testing.T) {
	s, err := memcache.New(100)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	ctx := context.Background()

	_ = s.Set(ctx, newEntry("fp1", "first", time.Minute))
	_ = s.Set(ctx, newEntry("fp1", "second", time.Minute))

	entry, found, _ := s.Get(ctx, "fp1")
	if !found || entry.Result.Answer != "second" {
		t.Fatalf("expected overwritten entry, found=%v answer=%q", found, entry.Result.Answer)
	}
}

func TestStore_ExpiredIsMiss(t *testing.T) {
	s, err := memcache.New(100)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	ctx := context.Background()

	entry := newEntry("fp1", "yes", 10*time.Millisecond)
	// Backdate creation so the entry is already stale.
	entry.CreatedAt = time.Now().Add(-time.Second)
	_ = s.Set(ctx, entry)

	if _, found, _ := s.Get(ctx, "fp1"); found {
		t.Fatal("expected expired entry to behave as a miss")
	}
}

func TestStore_PurgeClearsEverything(t *testing.T) {
	s, err := memcache.New(100)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_ = s.Set(ctx, newEntry(fmt.Sprintf("fp-%d", i), "yes", time.Minute))
	}

	if err := s.Purge(ctx); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		if _, found, _ := s.Get(ctx, fmt.Sprintf("fp-%d", i)); found {
			t.Fatalf("fp-%d survived purge", i)
		}
	}
}

func TestStore_ConcurrentAccess(t *testing.T) {
	s, err := memcache.New(1000)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			fp := fmt.Sprintf("fp-%d", n%10)
			_ = s.Set(ctx, newEntry(fp, "answer", time.Minute))
			_, _, _ = s.Get(ctx, fp)
		}(i)
	}
	wg.Wait()
}
