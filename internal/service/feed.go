package service

import (
	"context"
	"sync"
	"time"
)

// FeedState is the lifecycle state of one data feed.
type FeedState string

const (
	FeedIdle    FeedState = "idle"
	FeedLoading FeedState = "loading"
	FeedReady   FeedState = "ready"
	FeedError   FeedState = "error"
)

// FetchFunc loads the feed's payload for one set of request parameters. The
// force flag propagates from forced refetches so implementations can bypass
// their own caches.
type FetchFunc[P comparable, T any] func(ctx context.Context, params P, force bool) (T, error)

// Feed is the fetch orchestrator for one independent data feed. Requests are
// keyed by their parameter value: an unforced request whose parameters match
// the last successfully completed one is skipped while a cached result exists.
// This is plain memoization, not a TTL cache. A debounce delay, when set,
// absorbs rapid parameter changes between Trigger calls; forced or explicit
// refetches always dispatch immediately.
//
// A stale in-flight response can never overwrite newer state: every dispatch
// bumps a sequence number which is re-checked at completion time.
type Feed[P comparable, T any] struct {
	mu sync.Mutex

	fetch    FetchFunc[P, T]
	debounce time.Duration

	timer   *time.Timer
	pending P

	seq uint64

	state       FeedState
	data        T
	hasData     bool
	errMsg      string
	doneParams  P
	lastUpdated time.Time

	closed bool
}

// FeedView is a consistent copy of a feed's externally visible state.
type FeedView[T any] struct {
	State       FeedState `json:"state"`
	Data        T         `json:"data"`
	HasData     bool      `json:"has_data"`
	Error       string    `json:"error,omitempty"`
	LastUpdated time.Time `json:"last_updated"`
}

func NewFeed[P comparable, T any](fetch FetchFunc[P, T], debounce time.Duration) *Feed[P, T] {
	return &Feed[P, T]{
		fetch:    fetch,
		debounce: debounce,
		state:    FeedIdle,
	}
}

// Trigger notes a parameter change. With a debounce delay the fetch fires
// after the delay, superseding any earlier pending trigger; without one it
// dispatches immediately. Triggered fetches are never forced, so a trigger
// matching the last completed parameters settles without a fetch.
func (f *Feed[P, T]) Trigger(params P) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}

	if f.hasData && params == f.doneParams {
		// satisfied by the memoized result; supersedes any pending trigger
		if f.timer != nil {
			f.timer.Stop()
			f.timer = nil
		}
		f.state = FeedReady
		return
	}

	if f.debounce <= 0 {
		f.dispatchLocked(context.Background(), params, false)
		return
	}

	f.pending = params
	f.state = FeedLoading
	if f.timer != nil {
		f.timer.Stop()
	}
	f.timer = time.AfterFunc(f.debounce, func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.closed {
			return
		}
		f.timer = nil
		f.dispatchLocked(context.Background(), f.pending, false)
	})
}

// Refetch dispatches immediately, cancelling any pending debounced trigger.
// The returned channel closes when this particular request settles; it closes
// right away when the request is skipped by the memoization guard.
func (f *Feed[P, T]) Refetch(ctx context.Context, params P, force bool) <-chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.timer != nil {
		f.timer.Stop()
		f.timer = nil
	}
	return f.dispatchLocked(ctx, params, force)
}

func (f *Feed[P, T]) dispatchLocked(ctx context.Context, params P, force bool) <-chan struct{} {
	done := make(chan struct{})
	if f.closed {
		close(done)
		return done
	}
	if !force && f.hasData && params == f.doneParams {
		// satisfied by the memoized result
		f.state = FeedReady
		close(done)
		return done
	}

	f.seq++
	mySeq := f.seq
	f.state = FeedLoading

	go func() {
		defer close(done)
		data, err := f.fetch(ctx, params, force)

		f.mu.Lock()
		defer f.mu.Unlock()
		if f.closed || f.seq != mySeq {
			// superseded by a newer request; drop the result
			return
		}
		if err != nil {
			f.state = FeedError
			f.errMsg = err.Error()
			// previously loaded data and lastUpdated stay intact
			return
		}
		f.state = FeedReady
		f.data = data
		f.hasData = true
		f.errMsg = ""
		f.doneParams = params
		f.lastUpdated = time.Now()
	}()

	return done
}

// Invalidate drops the memoized result so the next request dispatches even
// with unchanged parameters. Already-loaded data stays visible until then.
func (f *Feed[P, T]) Invalidate() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hasData = false
}

// View returns a copy of the feed's current state.
func (f *Feed[P, T]) View() FeedView[T] {
	f.mu.Lock()
	defer f.mu.Unlock()
	return FeedView[T]{
		State:       f.state,
		Data:        f.data,
		HasData:     f.hasData,
		Error:       f.errMsg,
		LastUpdated: f.lastUpdated,
	}
}

// Close stops any pending debounce timer and freezes the feed. In-flight
// responses arriving afterwards are dropped.
func (f *Feed[P, T]) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	if f.timer != nil {
		f.timer.Stop()
		f.timer = nil
	}
}
