package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type counter struct {
	calls atomic.Int32
}

func (c *counter) fetch(_ context.Context) ([]string, error) {
	c.calls.Add(1)
	return []string{"bolt", "nut"}, nil
}

func TestValueTTL(t *testing.T) {
	clock := newFakeClock()
	v := NewValue[[]string](2*time.Minute, clock.Now)
	var c counter
	ctx := context.Background()

	first, hit, err := v.Get(ctx, false, c.fetch)
	if err != nil || hit {
		t.Fatalf("first Get: hit=%v err=%v", hit, err)
	}

	clock.Advance(90 * time.Second)
	second, hit, _ := v.Get(ctx, false, c.fetch)
	if !hit || c.calls.Load() != 1 {
		t.Fatalf("Get at 90s: hit=%v calls=%d, want hit and 1 call", hit, c.calls.Load())
	}
	if &second[0] != &first[0] {
		t.Error("cache hit returned a different slice")
	}

	clock.Advance(40 * time.Second)
	if _, hit, _ := v.Get(ctx, false, c.fetch); hit || c.calls.Load() != 2 {
		t.Fatalf("Get at 130s: hit=%v calls=%d, want miss and 2 calls", hit, c.calls.Load())
	}
	if _, hit, _ := v.Get(ctx, false, c.fetch); !hit || c.calls.Load() != 2 {
		t.Errorf("Get after refetch: hit=%v calls=%d", hit, c.calls.Load())
	}
}

func TestValueForceAndInvalidate(t *testing.T) {
	clock := newFakeClock()
	v := NewValue[[]string](5*time.Minute, clock.Now)
	var c counter
	ctx := context.Background()

	v.Get(ctx, false, c.fetch)
	if _, hit, _ := v.Get(ctx, true, c.fetch); hit || c.calls.Load() != 2 {
		t.Errorf("forced Get: hit=%v calls=%d", hit, c.calls.Load())
	}

	v.Invalidate()
	if _, ok := v.FetchedAt(); ok {
		t.Error("FetchedAt reports a value after Invalidate")
	}
	if _, hit, _ := v.Get(ctx, false, c.fetch); hit || c.calls.Load() != 3 {
		t.Errorf("Get after Invalidate: hit=%v calls=%d", hit, c.calls.Load())
	}
}

func TestValueErrorNotCached(t *testing.T) {
	v := NewValue[int](time.Minute, nil)
	boom := errors.New("boom")
	ctx := context.Background()

	if _, _, err := v.Get(ctx, false, func(context.Context) (int, error) { return 0, boom }); !errors.Is(err, boom) {
		t.Fatalf("error = %v, want boom", err)
	}
	got, hit, err := v.Get(ctx, false, func(context.Context) (int, error) { return 7, nil })
	if err != nil || hit || got != 7 {
		t.Errorf("Get after error = %d, %v, %v", got, hit, err)
	}
}

func TestValueCoalescesConcurrentMisses(t *testing.T) {
	v := NewValue[int](time.Minute, nil)
	var calls atomic.Int32
	release := make(chan struct{})
	fetch := func(context.Context) (int, error) {
		calls.Add(1)
		<-release
		return 42, nil
	}

	var wg sync.WaitGroup
	results := make([]int, 8)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], _, _ = v.Get(context.Background(), false, fetch)
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if n := calls.Load(); n != 1 {
		t.Errorf("fetch calls = %d, want 1", n)
	}
	for i, r := range results {
		if r != 42 {
			t.Errorf("result[%d] = %d, want 42", i, r)
		}
	}
}

func TestInvalidateDuringFetchDiscardsResult(t *testing.T) {
	v := NewValue[int](time.Minute, nil)
	started := make(chan struct{})
	release := make(chan struct{})

	done := make(chan struct{})
	go func() {
		defer close(done)
		v.Get(context.Background(), false, func(context.Context) (int, error) {
			close(started)
			<-release
			return 1, nil
		})
	}()
	<-started
	v.Invalidate()
	close(release)
	<-done

	if _, ok := v.FetchedAt(); ok {
		t.Error("stale fetch repopulated the cache after Invalidate")
	}
}

// blockingFetch returns a fetch that reports each call on started and then
// waits for release before returning the call number.
func blockingFetch(calls *atomic.Int32, started chan<- struct{}, release <-chan struct{}) Fetch[int] {
	return func(context.Context) (int, error) {
		n := calls.Add(1)
		started <- struct{}{}
		<-release
		return int(n), nil
	}
}

func TestGetAfterInvalidateFetchesAgain(t *testing.T) {
	v := NewValue[int](time.Minute, nil)
	var calls atomic.Int32
	started := make(chan struct{}, 2)
	release := make(chan struct{})
	fetch := blockingFetch(&calls, started, release)

	first := make(chan int)
	go func() {
		val, _, _ := v.Get(context.Background(), false, fetch)
		first <- val
	}()
	<-started
	v.Invalidate()

	second := make(chan int)
	go func() {
		val, _, _ := v.Get(context.Background(), false, fetch)
		second <- val
	}()
	<-started
	close(release)

	if got := <-first; got != 1 {
		t.Errorf("reader before Invalidate got %d, want 1", got)
	}
	if got := <-second; got != 2 {
		t.Errorf("reader after Invalidate got %d, want the fresh fetch 2", got)
	}
	if n := calls.Load(); n != 2 {
		t.Errorf("fetch calls = %d, want 2", n)
	}
	if val, hit, _ := v.Get(context.Background(), false, fetch); !hit || val != 2 {
		t.Errorf("cached value = %d (hit %v), want 2", val, hit)
	}
}

func TestForceDoesNotJoinOlderFetch(t *testing.T) {
	v := NewValue[int](time.Minute, nil)
	var calls atomic.Int32
	started := make(chan struct{}, 2)
	release := make(chan struct{})
	fetch := blockingFetch(&calls, started, release)

	first := make(chan int)
	go func() {
		val, _, _ := v.Get(context.Background(), false, fetch)
		first <- val
	}()
	<-started

	forced := make(chan int)
	go func() {
		val, _, _ := v.Get(context.Background(), true, fetch)
		forced <- val
	}()
	<-started
	close(release)

	<-first
	if got := <-forced; got != 2 {
		t.Errorf("forced read got %d, want its own fetch 2", got)
	}
	if val, _, _ := v.Get(context.Background(), false, fetch); val != 2 {
		t.Errorf("cached value = %d, want the forced result 2", val)
	}
}

func TestCallerCancelDoesNotFailJoiners(t *testing.T) {
	v := NewValue[int](time.Minute, nil)
	var calls atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})
	var fetchErr error
	fetch := func(ctx context.Context) (int, error) {
		calls.Add(1)
		close(started)
		<-release
		fetchErr = ctx.Err()
		return 7, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	leader := make(chan error)
	go func() {
		_, _, err := v.Get(ctx, false, fetch)
		leader <- err
	}()
	<-started

	joiner := make(chan int)
	go func() {
		val, _, err := v.Get(context.Background(), false, fetch)
		if err != nil {
			t.Errorf("joiner: %v", err)
		}
		joiner <- val
	}()
	time.Sleep(20 * time.Millisecond)

	cancel()
	if err := <-leader; !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled caller got %v, want context.Canceled", err)
	}
	close(release)

	if got := <-joiner; got != 7 {
		t.Errorf("joiner got %d, want 7", got)
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("fetch calls = %d, want 1", n)
	}
	if fetchErr != nil {
		t.Errorf("fetch saw a cancelled context: %v", fetchErr)
	}
}

func TestKeyed(t *testing.T) {
	clock := newFakeClock()
	k := NewKeyed[int64, []string](2*time.Minute, clock.Now)
	calls := map[int64]int{}
	var mu sync.Mutex
	fetchFor := func(id int64) Fetch[[]string] {
		return func(context.Context) ([]string, error) {
			mu.Lock()
			calls[id]++
			mu.Unlock()
			return []string{"x"}, nil
		}
	}
	ctx := context.Background()

	k.Get(ctx, 1, false, fetchFor(1))
	k.Get(ctx, 2, false, fetchFor(2))
	if _, hit, _ := k.Get(ctx, 1, false, fetchFor(1)); !hit {
		t.Error("key 1 not cached")
	}

	k.Invalidate(1)
	if _, hit, _ := k.Get(ctx, 1, false, fetchFor(1)); hit {
		t.Error("key 1 served from cache after Invalidate")
	}
	if _, hit, _ := k.Get(ctx, 2, false, fetchFor(2)); !hit {
		t.Error("key 2 lost by invalidating key 1")
	}

	k.InvalidateAll()
	k.Get(ctx, 1, false, fetchFor(1))
	k.Get(ctx, 2, false, fetchFor(2))
	if calls[1] != 3 || calls[2] != 2 {
		t.Errorf("calls = %v, want 1:3 2:2", calls)
	}
}
