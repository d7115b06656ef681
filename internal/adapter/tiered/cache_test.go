package tiered_test

import (
	"context"
	"testing"
	"time"

	"github.com/Strob0t/LensForge/internal/adapter/tiered"
	"github.com/Strob0t/LensForge/internal/domain/analysis"
	"github.com/Strob0t/LensForge/internal/port/cache"
)

// stubStore is a map-backed cache.Store for exercising the composition.
type stubStore struct {
	entries map[string]cache.Entry
}

func newStubStore() *stubStore {
	return &stubStore{entries: make(map[string]cache.Entry)}
}

func (m *stubStore) Get(_ context.Context, fp string) (cache.Entry, bool, error) {
	e, ok := m.entries[fp]
	if ok && e.Expired(time.Now()) {
		delete(m.entries, fp)
		return cache.Entry{}, false, nil
	}
	return e, ok, nil
}

func (m *stubStore) Set(_ context.Context, e cache.Entry) error {
	m.entries[e.Fingerprint] = e
	return nil
}

func (m *stubStore) Delete(_ context.Context, fp string) error {
	delete(m.entries, fp)
	return nil
}

func (m *stubStore) Purge(_ context.Context) error {
	m.entries = make(map[string]cache.Entry)
	return nil
}

func entry(fp, answer string, ttl time.Duration) cache.Entry {
	return cache.Entry{
		Fingerprint: fp,
		Result:      analysis.Result{Answer: answer},
		CreatedAt:   time.Now(),
		TTL:         ttl,
	}
}

func TestStore_L1Hit(t *testing.T) {
	l1, l2 := newStubStore(), newStubStore()
	s := tiered.New(l1, l2)
	ctx := context.Background()

	_ = l1.Set(ctx, entry("fp1", "from-l1", time.Minute))

	got, found, err := s.Get(ctx, "fp1")
	if err != nil {
		t.Fatal(err)
	}
	if !found || got.Result.Answer != "from-l1" {
		t.Fatalf("expected L1 hit, found=%v answer=%q", found, got.Result.Answer)
	}
}

func TestStore_L2HitBackfillsL1(t *testing.T) {
	l1, l2 := newStubStore(), newStubStore()
	s := tiered.New(l1, l2)
	ctx := context.Background()

	e := entry("fp2", "from-l2", time.Minute)
	e.CreatedAt = time.Now().Add(-30 * time.Second)
	_ = l2.Set(ctx, e)

	got, found, err := s.Get(ctx, "fp2")
	if err != nil {
		t.Fatal(err)
	}
	if !found || got.Result.Answer != "from-l2" {
		t.Fatalf("expected L2 hit, found=%v answer=%q", found, got.Result.Answer)
	}

	promoted, ok := l1.entries["fp2"]
	if !ok {
		t.Fatal("expected L1 backfill on L2 hit")
	}
	if !promoted.CreatedAt.Equal(e.CreatedAt) {
		t.Fatal("backfill must not restart the TTL clock")
	}
}

func TestStore_Miss(t *testing.T) {
	s := tiered.New(newStubStore(), newStubStore())

	if _, found, err := s.Get(context.Background(), "missing"); err != nil || found {
		t.Fatalf("expected clean miss, found=%v err=%v", found, err)
	}
}

func TestStore_SetAndDeleteBothLevels(t *testing.T) {
	l1, l2 := newStubStore(), newStubStore()
	s := tiered.New(l1, l2)
	ctx := context.Background()

	if err := s.Set(ctx, entry("fp3", "both", time.Minute)); err != nil {
		t.Fatal(err)
	}
	if _, ok := l1.entries["fp3"]; !ok {
		t.Fatal("expected fp3 in L1")
	}
	if _, ok := l2.entries["fp3"]; !ok {
		t.Fatal("expected fp3 in L2")
	}

	if err := s.Delete(ctx, "fp3"); err != nil {
		t.Fatal(err)
	}
	if _, ok := l1.entries["fp3"]; ok {
		t.Fatal("expected fp3 deleted from L1")
	}
	if _, ok := l2.entries["fp3"]; ok {
		t.Fatal("expected fp3 deleted from L2")
	}
}

func TestStore_PurgeClearsBothLevels(t *testing.T) {
	l1, l2 := newStubStore(), newStubStore()
	s := tiered.New(l1, l2)
	ctx := context.Background()

	_ = s.Set(ctx, entry("fp4", "a", time.Minute))
	_ = s.Set(ctx, entry("fp5", "b", time.Minute))

	if err := s.Purge(ctx); err != nil {
		t.Fatal(err)
	}
	if len(l1.entries) != 0 || len(l2.entries) != 0 {
		t.Fatalf("entries survived purge: l1=%d l2=%d", len(l1.entries), len(l2.entries))
	}
}
