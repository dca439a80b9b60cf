// Package session drives the live chat polling lifecycle: bootstrap a
// continuation token from the watch page, then repeatedly fetch the
// next batch of actions, normalize them, emit items to registered
// listeners, and advance the token.
//
// A session moves Idle → Bootstrapping → Polling → {Stopped | Faulted}.
// Stopped and Faulted are terminal; a fresh Start re-enters
// Bootstrapping. The whole bootstrap+poll sequence runs on a single
// background goroutine per session; Start never blocks the caller, and
// at most one loop is active per session instance.
//
// Failure handling follows a small taxonomy: access-forbidden responses
// and bootstrap failures are fatal, transient fetch failures are
// retried with capped exponential backoff and jitter, and a missing
// next continuation is benign termination reported only on the stop
// channel. No fault escapes the background goroutine.
package session
