package catalog

import (
	"context"
	"errors"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"imagebot/internal/config"
	"imagebot/internal/models"
)

type countingFetcher struct {
	calls atomic.Int32
	delay time.Duration
	ids   []string
	err   error
}

func (f *countingFetcher) FetchModels(ctx context.Context, cfg *config.BotConfig) ([]string, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.err != nil {
		return nil, f.err
	}
	return slices.Clone(f.ids), nil
}

var _ models.Fetcher = (*CachedFetcher)(nil)
var _ models.Fetcher = (*HTTPFetcher)(nil)

func TestCachedFetcher_CachesWithinTTL(t *testing.T) {
	next := &countingFetcher{ids: []string{"sdxl"}}
	cached := NewCachedFetcher(next, time.Hour, nil)
	defer func() { _ = cached.Close() }()

	cfg := botConfigFor("http://catalog.local")
	for range 3 {
		ids, err := cached.FetchModels(context.Background(), cfg)
		if err != nil || !slices.Equal(ids, []string{"sdxl"}) {
			t.Fatalf("FetchModels() = %v, %v", ids, err)
		}
	}
	if next.calls.Load() != 1 {
		t.Errorf("expected 1 upstream call, got %d", next.calls.Load())
	}

	cached.Invalidate("http://catalog.local")
	if _, err := cached.FetchModels(context.Background(), cfg); err != nil {
		t.Fatalf("FetchModels failed: %v", err)
	}
	if next.calls.Load() != 2 {
		t.Errorf("Invalidate should force a refetch, got %d calls", next.calls.Load())
	}
}

func TestCachedFetcher_ReturnsCopies(t *testing.T) {
	next := &countingFetcher{ids: []string{"sdxl"}}
	cached := NewCachedFetcher(next, time.Hour, nil)
	defer func() { _ = cached.Close() }()

	cfg := botConfigFor("http://catalog.local")
	first, _ := cached.FetchModels(context.Background(), cfg)
	first[0] = "mutated"

	second, _ := cached.FetchModels(context.Background(), cfg)
	if second[0] != "sdxl" {
		t.Errorf("cached snapshot was mutated through a returned slice: %v", second)
	}
}

func TestCachedFetcher_DisabledTTL(t *testing.T) {
	next := &countingFetcher{ids: []string{"sdxl"}}
	cached := NewCachedFetcher(next, 0, nil)
	defer func() { _ = cached.Close() }()

	cfg := botConfigFor("http://catalog.local")
	_, _ = cached.FetchModels(context.Background(), cfg)
	_, _ = cached.FetchModels(context.Background(), cfg)
	if next.calls.Load() != 2 {
		t.Errorf("ttl=0 should not cache, got %d calls", next.calls.Load())
	}
}

func TestCachedFetcher_ErrorsAreNotCached(t *testing.T) {
	next := &countingFetcher{err: errors.New("catalog down")}
	cached := NewCachedFetcher(next, time.Hour, nil)
	defer func() { _ = cached.Close() }()

	cfg := botConfigFor("http://catalog.local")
	for range 2 {
		if _, err := cached.FetchModels(context.Background(), cfg); err == nil {
			t.Fatal("expected error")
		}
	}
	if next.calls.Load() != 2 {
		t.Errorf("errors must not be cached, got %d calls", next.calls.Load())
	}
}

func TestCachedFetcher_CollapsesConcurrentFetches(t *testing.T) {
	next := &countingFetcher{ids: []string{"sdxl"}, delay: 100 * time.Millisecond}
	cached := NewCachedFetcher(next, 0, nil)
	defer func() { _ = cached.Close() }()

	cfg := botConfigFor("http://catalog.local")
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cached.FetchModels(context.Background(), cfg); err != nil {
				t.Errorf("FetchModels failed: %v", err)
			}
		}()
	}
	wg.Wait()

	if n := next.calls.Load(); n >= 8 {
		t.Errorf("concurrent fetches should share upstream calls, got %d", n)
	}
}

func TestCachedFetcher_WaiterHonoursContext(t *testing.T) {
	next := &countingFetcher{ids: []string{"sdxl"}, delay: time.Second}
	cached := NewCachedFetcher(next, 0, nil)
	defer func() { _ = cached.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := cached.FetchModels(ctx, botConfigFor("http://catalog.local")); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline error, got %v", err)
	}
}

type blockingFetcher struct {
	started  chan struct{}
	release  chan struct{}
	calls    atomic.Int32
	canceled atomic.Bool
}

func (f *blockingFetcher) FetchModels(ctx context.Context, cfg *config.BotConfig) ([]string, error) {
	if f.calls.Add(1) == 1 {
		close(f.started)
	}
	select {
	case <-f.release:
		return []string{"sdxl", "flux-dev"}, nil
	case <-ctx.Done():
		f.canceled.Store(true)
		return nil, ctx.Err()
	}
}

func TestCachedFetcher_SharedFetchSurvivesWaiterCancel(t *testing.T) {
	next := &blockingFetcher{started: make(chan struct{}), release: make(chan struct{})}
	cached := NewCachedFetcher(next, 0, nil)
	defer func() { _ = cached.Close() }()

	cfg := botConfigFor("http://catalog.local")
	ctxA, cancelA := context.WithCancel(context.Background())
	defer cancelA()

	errA := make(chan error, 1)
	go func() {
		_, err := cached.FetchModels(ctxA, cfg)
		errA <- err
	}()
	<-next.started

	type result struct {
		ids []string
		err error
	}
	resB := make(chan result, 1)
	go func() {
		ids, err := cached.FetchModels(context.Background(), cfg)
		resB <- result{ids, err}
	}()
	time.Sleep(20 * time.Millisecond)

	cancelA()
	if err := <-errA; !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled waiter should get context.Canceled, got %v", err)
	}

	close(next.release)
	res := <-resB
	if res.err != nil {
		t.Fatalf("live waiter should not inherit another caller's cancellation: %v", res.err)
	}
	if !slices.Equal(res.ids, []string{"sdxl", "flux-dev"}) {
		t.Errorf("unexpected ids %v", res.ids)
	}
	if next.canceled.Load() {
		t.Error("shared fetch context should not be cancelled by a waiter")
	}
	if n := next.calls.Load(); n != 1 {
		t.Errorf("expected one shared upstream call, got %d", n)
	}
}
