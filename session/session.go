package session

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/onnwee/chattail/chat"
	"github.com/onnwee/chattail/innertube"
	"github.com/onnwee/chattail/telemetry"
)

// State is the lifecycle state of a session.
type State int

const (
	StateIdle State = iota
	StateBootstrapping
	StatePolling
	StateStopped
	StateFaulted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateBootstrapping:
		return "bootstrapping"
	case StatePolling:
		return "polling"
	case StateStopped:
		return "stopped"
	case StateFaulted:
		return "faulted"
	default:
		return "unknown"
	}
}

// Transport abstracts the two protocol operations the session needs
// (for tests/mocks). *innertube.Client satisfies it.
type Transport interface {
	FetchWatchPage(ctx context.Context, target innertube.Target) (string, error)
	FetchContinuation(ctx context.Context, page innertube.PageContext, token string) (*innertube.ChatResponse, []byte, error)
}

// Options configures a session. Zero values take the defaults noted on
// each field.
type Options struct {
	// Target identifies the stream; exactly one identifier is used,
	// precedence handle > channel id > live id.
	Target innertube.Target
	// PollInterval is the wait between successful fetches. Default 1s.
	PollInterval time.Duration
	// MaxAttempts bounds consecutive transient fetch failures before
	// the session gives up. Default 5.
	MaxAttempts int
	// BackoffBase and BackoffCap bound the retry wait:
	// min(base * 2^(attempt-1), cap), jittered by ±20%.
	// Defaults 1s and 30s.
	BackoffBase time.Duration
	BackoffCap  time.Duration
	// Trace, when non-nil, receives every raw continuation payload.
	Trace *TraceSink
}

func (o Options) withDefaults() Options {
	if o.PollInterval <= 0 {
		o.PollInterval = time.Second
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 5
	}
	if o.BackoffBase <= 0 {
		o.BackoffBase = time.Second
	}
	if o.BackoffCap <= 0 {
		o.BackoffCap = 30 * time.Second
	}
	return o
}

// Session owns one polling lifecycle. The continuation token is owned
// exclusively by the polling goroutine and threaded through the loop as
// a value; nothing else mutates it, so it needs no lock.
type Session struct {
	transport Transport
	opts      Options

	mu     sync.Mutex
	state  State
	liveID string
	cancel context.CancelFunc
	done   chan struct{}

	onBootstrap []func(liveID string)
	onItem      []func(item chat.ChatItem)
	onStop      []func(reason string)
	onError     []func(err error)

	items atomic.Uint64
}

// New creates a session. Register listeners before calling Start.
func New(t Transport, opts Options) *Session {
	return &Session{transport: t, opts: opts.withDefaults(), state: StateIdle}
}

// OnBootstrap registers a listener for the bootstrap-complete
// notification, which carries the resolved live id.
func (s *Session) OnBootstrap(fn func(liveID string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onBootstrap = append(s.onBootstrap, fn)
}

// OnItem registers a listener for normalized chat items. Items are
// delivered in wire order within a batch and continuation order across
// batches.
func (s *Session) OnItem(fn func(item chat.ChatItem)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onItem = append(s.onItem, fn)
}

// OnStop registers a listener for session termination with a free-text
// reason.
func (s *Session) OnStop(fn func(reason string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onStop = append(s.onStop, fn)
}

// OnError registers a listener for faults. Errors never abort the
// loop on their own; fatal ones are followed by a stop notification.
func (s *Session) OnError(fn func(err error)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onError = append(s.onError, fn)
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// LiveID returns the resolved live id, empty before bootstrap
// completes.
func (s *Session) LiveID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.liveID
}

// Items returns the number of items emitted so far.
func (s *Session) Items() uint64 {
	return s.items.Load()
}

// Start launches the bootstrap+poll sequence on a background goroutine
// and returns immediately. While a loop is active, Start is a no-op
// unless overwrite is set, in which case the active loop is cancelled
// and awaited before the new one begins.
func (s *Session) Start(ctx context.Context, overwrite bool) {
	s.mu.Lock()
	if s.state == StateBootstrapping || s.state == StatePolling {
		if !overwrite {
			s.mu.Unlock()
			slog.Info("session already active; start ignored", slog.String("component", "session"))
			return
		}
		cancel, done := s.cancel, s.done
		s.mu.Unlock()
		cancel()
		<-done
		s.mu.Lock()
	}
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done
	s.state = StateBootstrapping
	s.mu.Unlock()

	telemetry.IncSessionStarted()
	go s.run(runCtx, done)
}

// Stop requests cooperative cancellation of the active loop. It does
// not wait; use Wait for that.
func (s *Session) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Wait blocks until the active loop has exited. It returns immediately
// if the session was never started.
func (s *Session) Wait() {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	if done != nil {
		<-done
	}
}

func (s *Session) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	defer telemetry.SetSessionUp(false)
	defer func() {
		// No fault may escape the background goroutine: report and
		// convert to a stop.
		if r := recover(); r != nil {
			err := fmt.Errorf("polling loop panic: %v", r)
			slog.Error("session loop panicked", slog.Any("err", err), slog.String("component", "session"))
			s.emitError(err)
			s.finish(StateFaulted, "internal fault")
		}
	}()

	boot, err := s.bootstrap(ctx)
	if err != nil {
		if ctx.Err() != nil {
			s.finish(StateStopped, "operation cancelled")
			return
		}
		slog.Error("bootstrap failed", slog.Any("err", err), slog.String("component", "session"))
		s.emitError(fmt.Errorf("bootstrap: %w", err))
		s.setState(StateFaulted)
		telemetry.IncSessionStopped("faulted")
		return
	}

	s.mu.Lock()
	s.liveID = boot.Page.LiveID
	s.state = StatePolling
	s.mu.Unlock()
	telemetry.SetSessionUp(true)
	slog.Info("bootstrap complete", slog.String("live_id", boot.Page.LiveID), slog.String("component", "session"))
	s.emitBootstrap(boot.Page.LiveID)

	s.poll(ctx, boot.Page, boot.Continuation)
}

func (s *Session) bootstrap(ctx context.Context) (*innertube.Bootstrap, error) {
	html, err := s.transport.FetchWatchPage(ctx, s.opts.Target)
	if err != nil {
		return nil, fmt.Errorf("fetch watch page: %w", err)
	}
	return innertube.ExtractBootstrap(html)
}

func (s *Session) poll(ctx context.Context, page innertube.PageContext, token string) {
	attempts := 0
	for {
		if ctx.Err() != nil {
			s.finish(StateStopped, "operation cancelled")
			return
		}
		if token == "" {
			s.finish(StateStopped, "continuation missing")
			return
		}

		start := time.Now()
		resp, raw, err := s.transport.FetchContinuation(ctx, page, token)
		telemetry.ObserveFetch(time.Since(start))
		telemetry.IncPoll()
		if s.opts.Trace != nil && len(raw) > 0 {
			s.opts.Trace.Append(raw)
		}

		if err != nil {
			if ctx.Err() != nil {
				s.finish(StateStopped, "operation cancelled")
				return
			}
			telemetry.IncPollFailure()
			if IsFatalError(err) {
				slog.Error("continuation fetch rejected", slog.Any("err", err), slog.String("component", "session"))
				s.emitError(err)
				s.finish(StateStopped, "access forbidden")
				return
			}
			attempts++
			if attempts >= s.opts.MaxAttempts {
				s.finish(StateStopped, fmt.Sprintf("giving up after %d failed attempts: %v", attempts, err))
				return
			}
			telemetry.IncRetry()
			delay := backoffDelay(s.opts.BackoffBase, s.opts.BackoffCap, attempts)
			slog.Warn("continuation fetch failed; retrying",
				slog.Int("attempt", attempts),
				slog.Duration("backoff", delay),
				slog.Any("err", err),
				slog.String("component", "session"))
			if !s.sleep(ctx, delay) {
				s.finish(StateStopped, "operation cancelled")
				return
			}
			continue
		}
		attempts = 0

		for _, action := range resp.Actions() {
			item, ok := chat.Normalize(action)
			if !ok {
				continue
			}
			telemetry.IncItem(item.Kind())
			s.items.Add(1)
			s.emitItem(item)
		}

		next := resp.NextContinuation()
		if next == "" {
			s.finish(StateStopped, "stream ended or continuation lost")
			return
		}
		token = next

		if !s.sleep(ctx, s.opts.PollInterval) {
			s.finish(StateStopped, "operation cancelled")
			return
		}
	}
}

// backoffDelay computes min(base * 2^(attempt-1), cap) with ±20%
// jitter.
func backoffDelay(base, max time.Duration, attempt int) time.Duration {
	d := base
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= max {
			d = max
			break
		}
	}
	if d > max {
		d = max
	}
	jitter := 0.8 + 0.4*rand.Float64()
	return time.Duration(float64(d) * jitter)
}

// sleep waits for d or until cancellation; false means cancelled.
func (s *Session) sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func (s *Session) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

func (s *Session) finish(st State, reason string) {
	s.setState(st)
	telemetry.IncSessionStopped(st.String())
	slog.Info("session finished", slog.String("state", st.String()), slog.String("reason", reason), slog.String("component", "session"))
	s.emitStop(reason)
}

func (s *Session) emitBootstrap(liveID string) {
	for _, fn := range s.bootstrapListeners() {
		safeNotify("bootstrap", func() { fn(liveID) })
	}
}

func (s *Session) emitItem(item chat.ChatItem) {
	for _, fn := range s.itemListeners() {
		safeNotify("item", func() { fn(item) })
	}
}

func (s *Session) emitStop(reason string) {
	for _, fn := range s.stopListeners() {
		safeNotify("stop", func() { fn(reason) })
	}
}

func (s *Session) emitError(err error) {
	for _, fn := range s.errorListeners() {
		safeNotify("error", func() { fn(err) })
	}
}

func (s *Session) bootstrapListeners() []func(string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.onBootstrap
}

func (s *Session) itemListeners() []func(chat.ChatItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.onItem
}

func (s *Session) stopListeners() []func(string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.onStop
}

func (s *Session) errorListeners() []func(error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.onError
}

// safeNotify shields the polling loop from listener panics.
func safeNotify(channel string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("listener panicked", slog.String("channel", channel), slog.Any("panic", r), slog.String("component", "session"))
		}
	}()
	fn()
}
