package telemetry

import (
	"context"
	"testing"
	"time"
)

// The nil-guarded helpers must be callable before Init.
func TestHelpersSafeWithoutInit(t *testing.T) {
	IncPoll()
	IncPollFailure()
	IncRetry()
	IncSessionStarted()
	IncSessionStopped("stopped")
	IncItem("text")
	IncArchiveInsert(false)
	IncArchiveInsert(true)
	ObserveFetch(time.Millisecond)
	SetSessionUp(true)
	SetSessionUp(false)
}

func TestInitIdempotent(t *testing.T) {
	Init()
	Init() // second call must not re-register

	if PollsTotal == nil || SessionsStopped == nil || FetchDuration == nil {
		t.Error("metrics not registered")
	}
	IncPoll()
	IncSessionStopped("faulted")
	IncItem("superchat")
	ObserveFetch(10 * time.Millisecond)
}

func TestCorrelation(t *testing.T) {
	ctx := context.Background()
	if got := GetCorrelation(ctx); got != "" {
		t.Errorf("GetCorrelation(empty) = %q", got)
	}
	ctx = WithCorrelation(ctx, "corr-1")
	if got := GetCorrelation(ctx); got != "corr-1" {
		t.Errorf("GetCorrelation = %q", got)
	}
	if LoggerWithCorr(ctx) == nil {
		t.Error("LoggerWithCorr returned nil")
	}
}

func TestTimeFunc(t *testing.T) {
	d := TimeFunc(nil, func() { time.Sleep(time.Millisecond) })
	if d < time.Millisecond {
		t.Errorf("duration = %v", d)
	}
}
