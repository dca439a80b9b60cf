package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/onnwee/chattail/chat"
	"github.com/onnwee/chattail/innertube"
)

// fakeTransport scripts the protocol: one watch page and a sequence of
// continuation results keyed by token.
type fakeTransport struct {
	mu      sync.Mutex
	page    string
	pageErr error
	results map[string]fetchResult
}

type fetchResult struct {
	resp *innertube.ChatResponse
	raw  []byte
	err  error
}

func (f *fakeTransport) FetchWatchPage(ctx context.Context, target innertube.Target) (string, error) {
	return f.page, f.pageErr
}

func (f *fakeTransport) FetchContinuation(ctx context.Context, page innertube.PageContext, token string) (*innertube.ChatResponse, []byte, error) {
	f.mu.Lock()
	r, ok := f.results[token]
	f.mu.Unlock()
	if !ok {
		return nil, nil, fmt.Errorf("unscripted token %q", token)
	}
	return r.resp, r.raw, r.err
}

func watchPage(continuation string) string {
	return `<link rel="canonical" href="https://www.youtube.com/watch?v=vid123">` +
		`{"INNERTUBE_API_KEY":"k","clientVersion":"1.0","continuation":"` + continuation + `"}`
}

func chatResponse(next string, ids ...string) *innertube.ChatResponse {
	resp := &innertube.ChatResponse{ContinuationContents: &innertube.ContinuationContents{}}
	if next != "" {
		resp.ContinuationContents.LiveChatContinuation.Continuations = []innertube.Continuation{
			{InvalidationContinuationData: &innertube.ContinuationData{Continuation: next}},
		}
	}
	for _, id := range ids {
		resp.ContinuationContents.LiveChatContinuation.Actions = append(
			resp.ContinuationContents.LiveChatContinuation.Actions,
			innertube.Action{AddChatItemAction: &innertube.AddChatItemAction{
				Item: innertube.Item{TextMessage: &innertube.TextMessageRenderer{
					ID:            id,
					AuthorName:    &innertube.Text{SimpleText: "a"},
					Message:       &innertube.Message{Runs: []innertube.Run{{Text: "x"}}},
					TimestampUsec: "1700000000000000",
				}},
			}},
		)
	}
	return resp
}

func fastOptions() Options {
	return Options{
		Target:       innertube.Target{LiveID: "vid123"},
		PollInterval: time.Millisecond,
		BackoffBase:  time.Millisecond,
		BackoffCap:   5 * time.Millisecond,
		MaxAttempts:  3,
	}
}

func TestSessionEmitsItemsInOrderAndStopsAtStreamEnd(t *testing.T) {
	ft := &fakeTransport{
		page: watchPage("t0"),
		results: map[string]fetchResult{
			"t0": {resp: chatResponse("t1", "m1", "m2")},
			"t1": {resp: chatResponse("", "m3")},
		},
	}
	s := New(ft, fastOptions())

	var mu sync.Mutex
	var ids []string
	var bootID string
	var stopReason string
	s.OnBootstrap(func(liveID string) { mu.Lock(); bootID = liveID; mu.Unlock() })
	s.OnItem(func(item chat.ChatItem) { mu.Lock(); ids = append(ids, item.ID); mu.Unlock() })
	s.OnStop(func(reason string) { mu.Lock(); stopReason = reason; mu.Unlock() })

	s.Start(context.Background(), false)
	s.Wait()

	mu.Lock()
	defer mu.Unlock()
	if bootID != "vid123" {
		t.Errorf("bootstrap live id = %q", bootID)
	}
	if len(ids) != 3 || ids[0] != "m1" || ids[1] != "m2" || ids[2] != "m3" {
		t.Errorf("items = %v, want [m1 m2 m3]", ids)
	}
	if stopReason != "stream ended or continuation lost" {
		t.Errorf("stop reason = %q", stopReason)
	}
	if s.State() != StateStopped {
		t.Errorf("state = %v, want stopped", s.State())
	}
	if s.Items() != 3 {
		t.Errorf("Items() = %d, want 3", s.Items())
	}
}

func TestSessionRetriesTransientThenRecovers(t *testing.T) {
	// The first token fails twice with a transient error, then succeeds.
	flaky := &atomic.Int64{}
	s := New(&scriptedTransport{
		page: watchPage("t0"),
		fetch: func(token string) (*innertube.ChatResponse, []byte, error) {
			if token == "t0" && flaky.Add(1) <= 2 {
				return nil, nil, errors.New("service unavailable")
			}
			if token == "t0" {
				return chatResponse("t1", "m1"), nil, nil
			}
			return chatResponse("", "m2"), nil, nil
		},
	}, fastOptions())

	var mu sync.Mutex
	var ids []string
	s.OnItem(func(item chat.ChatItem) { mu.Lock(); ids = append(ids, item.ID); mu.Unlock() })

	s.Start(context.Background(), false)
	s.Wait()

	mu.Lock()
	defer mu.Unlock()
	if len(ids) != 2 || ids[0] != "m1" || ids[1] != "m2" {
		t.Errorf("items = %v, want [m1 m2]", ids)
	}
	if s.State() != StateStopped {
		t.Errorf("state = %v", s.State())
	}
}

// scriptedTransport delegates continuation fetches to a func.
type scriptedTransport struct {
	page  string
	fetch func(token string) (*innertube.ChatResponse, []byte, error)
}

func (s *scriptedTransport) FetchWatchPage(ctx context.Context, target innertube.Target) (string, error) {
	return s.page, nil
}

func (s *scriptedTransport) FetchContinuation(ctx context.Context, page innertube.PageContext, token string) (*innertube.ChatResponse, []byte, error) {
	return s.fetch(token)
}

func TestSessionGivesUpAfterMaxAttempts(t *testing.T) {
	fetches := &atomic.Int64{}
	s := New(&scriptedTransport{
		page: watchPage("t0"),
		fetch: func(token string) (*innertube.ChatResponse, []byte, error) {
			fetches.Add(1)
			return nil, nil, errors.New("dial tcp: i/o timeout")
		},
	}, fastOptions())

	var mu sync.Mutex
	var stopReason string
	s.OnStop(func(reason string) { mu.Lock(); stopReason = reason; mu.Unlock() })

	s.Start(context.Background(), false)
	s.Wait()

	if got := fetches.Load(); got != 3 {
		t.Errorf("fetches = %d, want 3 (MaxAttempts)", got)
	}
	mu.Lock()
	defer mu.Unlock()
	if stopReason == "" {
		t.Error("expected a stop reason")
	}
	if s.State() != StateStopped {
		t.Errorf("state = %v", s.State())
	}
}

func TestSessionForbiddenIsNotRetried(t *testing.T) {
	fetches := &atomic.Int64{}
	s := New(&scriptedTransport{
		page: watchPage("t0"),
		fetch: func(token string) (*innertube.ChatResponse, []byte, error) {
			fetches.Add(1)
			return nil, nil, fmt.Errorf("continuation fetch: %w", innertube.ErrForbidden)
		},
	}, fastOptions())

	var mu sync.Mutex
	var errs []error
	var stopReason string
	s.OnError(func(err error) { mu.Lock(); errs = append(errs, err); mu.Unlock() })
	s.OnStop(func(reason string) { mu.Lock(); stopReason = reason; mu.Unlock() })

	s.Start(context.Background(), false)
	s.Wait()

	if got := fetches.Load(); got != 1 {
		t.Errorf("fetches = %d, want 1", got)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(errs) != 1 || !errors.Is(errs[0], innertube.ErrForbidden) {
		t.Errorf("errors = %v", errs)
	}
	if stopReason != "access forbidden" {
		t.Errorf("stop reason = %q", stopReason)
	}
}

func TestSessionBootstrapFailureFaults(t *testing.T) {
	ft := &fakeTransport{pageErr: errors.New("unexpected status 500")}
	s := New(ft, fastOptions())

	var mu sync.Mutex
	var errs []error
	stopCalled := false
	s.OnError(func(err error) { mu.Lock(); errs = append(errs, err); mu.Unlock() })
	s.OnStop(func(reason string) { mu.Lock(); stopCalled = true; mu.Unlock() })

	s.Start(context.Background(), false)
	s.Wait()

	if s.State() != StateFaulted {
		t.Errorf("state = %v, want faulted", s.State())
	}
	mu.Lock()
	defer mu.Unlock()
	if len(errs) != 1 {
		t.Errorf("errors = %v, want one bootstrap error", errs)
	}
	if stopCalled {
		t.Error("stop notification not expected on bootstrap failure")
	}
}

func TestSessionCancellation(t *testing.T) {
	// An endless stream of successful polls; only cancellation ends it.
	s := New(&scriptedTransport{
		page: watchPage("t0"),
		fetch: func(token string) (*innertube.ChatResponse, []byte, error) {
			return chatResponse("t0", "m"), nil, nil
		},
	}, fastOptions())

	var mu sync.Mutex
	var stopReason string
	s.OnStop(func(reason string) { mu.Lock(); stopReason = reason; mu.Unlock() })

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx, false)
	time.Sleep(20 * time.Millisecond)
	cancel()
	s.Wait()

	mu.Lock()
	defer mu.Unlock()
	if stopReason != "operation cancelled" {
		t.Errorf("stop reason = %q", stopReason)
	}
	if s.State() != StateStopped {
		t.Errorf("state = %v", s.State())
	}
}

func TestSessionStartIgnoredWhileActive(t *testing.T) {
	started := &atomic.Int64{}
	s := New(&scriptedTransport{
		page: watchPage("t0"),
		fetch: func(token string) (*innertube.ChatResponse, []byte, error) {
			started.Add(1)
			return chatResponse("t0"), nil, nil
		},
	}, fastOptions())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx, false)
	for s.State() != StatePolling {
		time.Sleep(time.Millisecond)
	}
	s.Start(ctx, false) // no-op while active
	if s.State() != StatePolling {
		t.Errorf("state = %v, want polling", s.State())
	}
	cancel()
	s.Wait()
}

func TestSessionStartOverwriteReplacesActiveLoop(t *testing.T) {
	s := New(&scriptedTransport{
		page: watchPage("t0"),
		fetch: func(token string) (*innertube.ChatResponse, []byte, error) {
			return chatResponse("t0"), nil, nil
		},
	}, fastOptions())

	ctx := context.Background()
	s.Start(ctx, false)
	for s.State() != StatePolling {
		time.Sleep(time.Millisecond)
	}
	s.Start(ctx, true)
	for s.State() != StatePolling {
		time.Sleep(time.Millisecond)
	}
	s.Stop()
	s.Wait()
	if s.State() != StateStopped {
		t.Errorf("state = %v", s.State())
	}
}

func TestSessionListenerPanicDoesNotKillLoop(t *testing.T) {
	s := New(&scriptedTransport{
		page: watchPage("t0"),
		fetch: func(token string) (*innertube.ChatResponse, []byte, error) {
			if token == "t0" {
				return chatResponse("t1", "m1"), nil, nil
			}
			return chatResponse("", "m2"), nil, nil
		},
	}, fastOptions())

	var mu sync.Mutex
	var ids []string
	s.OnItem(func(item chat.ChatItem) { panic("listener bug") })
	s.OnItem(func(item chat.ChatItem) { mu.Lock(); ids = append(ids, item.ID); mu.Unlock() })

	s.Start(context.Background(), false)
	s.Wait()

	mu.Lock()
	defer mu.Unlock()
	if len(ids) != 2 {
		t.Errorf("items = %v, want both despite panicking listener", ids)
	}
	if s.State() != StateStopped {
		t.Errorf("state = %v", s.State())
	}
}

func TestBackoffDelayBounds(t *testing.T) {
	base := 100 * time.Millisecond
	max := time.Second
	for attempt := 1; attempt <= 8; attempt++ {
		d := backoffDelay(base, max, attempt)
		// Nominal value doubles per attempt, capped; jitter is ±20%.
		nominal := base << (attempt - 1)
		if nominal > max || nominal <= 0 {
			nominal = max
		}
		lo := time.Duration(float64(nominal) * 0.8)
		hi := time.Duration(float64(nominal)*1.2) + time.Nanosecond
		if d < lo || d > hi {
			t.Errorf("attempt %d: delay %v outside [%v, %v]", attempt, d, lo, hi)
		}
	}
}

func TestSessionWaitBeforeStartReturns(t *testing.T) {
	s := New(&fakeTransport{}, fastOptions())
	done := make(chan struct{})
	go func() {
		s.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Wait blocked for a never-started session")
	}
}
