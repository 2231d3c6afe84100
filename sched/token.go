// Package sched provides the work-scheduling half of the tile core: a
// cooperative cancellation primitive, a registry indexing tokens by job id,
// a strict-priority job scheduler, and a worker pool that drains it.
//
// Cancellation is cooperative throughout: a worker must poll its token
// during a long render and stop on its own. Nothing here preempts work.
package sched

import "sync/atomic"

// Token is a shared cooperative cancel flag. Copies of a Token observe the
// same underlying flag, so a token handed to a worker and a token kept by
// the UI cancel together.
//
// The zero Token is valid and never reports cancellation; Cancel and Reset
// on it are no-ops.
type Token struct {
	flag *atomic.Bool
}

// NewToken returns a fresh, un-cancelled token.
func NewToken() Token {
	return Token{flag: new(atomic.Bool)}
}

// Cancel marks the token cancelled. It is idempotent and safe to call from
// any goroutine; the store uses release ordering so a worker's acquire
// load observes it without locking.
func (t Token) Cancel() {
	if t.flag != nil {
		t.flag.Store(true)
	}
}

// Cancelled reports whether the token has been cancelled.
func (t Token) Cancelled() bool {
	return t.flag != nil && t.flag.Load()
}

// Reset reopens the token for all copies sharing its flag.
func (t Token) Reset() {
	if t.flag != nil {
		t.flag.Store(false)
	}
}
