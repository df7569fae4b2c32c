// Package rewind implements the rewindable buffering iterable that lets
// a streaming retry interceptor replay a caller's already-consumed
// request messages on retry: every reader ("generation") created before
// the most recent one is invalidated, but the buffer that fed it keeps
// growing so the newest generation can replay the full history before
// joining the live source.
package rewind

import (
	"context"
	"errors"
	"sync"
)

// ErrAlreadyFinished is the programming-error signal raised by
// NewReader once OnRetryFinished has been called: no more retries can
// occur, so no more generations may be created.
var ErrAlreadyFinished = errors.New("rewind: NewReader called after OnRetryFinished")

// Source is the producer a Rewindable wraps. It is pulled at most once
// per item across every generation and reader (I1); Next returns
// done=true, err=nil at end of stream.
type Source[T any] interface {
	Next(ctx context.Context) (value T, done bool, err error)
}

// pull is the single in-flight call to the source, shared by every
// reader that is currently blocked waiting for the next item.
type pull[T any] struct {
	done  chan struct{}
	value T
	eof   bool
	err   error
}

// Rewindable wraps one source of T and permits multiple sequential
// reader generations over it. See the package doc and spec.md §4.5 for
// the invariants (I1-I5) this type must uphold.
type Rewindable[T any] struct {
	mu                sync.Mutex
	source            Source[T]
	buffer            []T
	currentGeneration int
	retryFinished     bool
	pending           *pull[T]
}

// New wraps source in a Rewindable. The Rewindable owns source for its
// lifetime.
func New[T any](source Source[T]) *Rewindable[T] {
	return &Rewindable[T]{source: source}
}

// NewReader returns a fresh iterator bound to a new generation,
// invalidating every prior generation's in-flight and future reads
// (I3). It fails with ErrAlreadyFinished once OnRetryFinished has been
// called (I4).
func (r *Rewindable[T]) NewReader() (*Reader[T], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.retryFinished {
		return nil, ErrAlreadyFinished
	}
	r.currentGeneration++
	return &Reader[T]{owner: r, generation: r.currentGeneration}, nil
}

// OnRetryFinished marks the iterable as done retrying: the current
// generation (and only it) may keep reading, no further generation can
// be created, and idempotent repeat calls are no-ops.
func (r *Rewindable[T]) OnRetryFinished() {
	r.mu.Lock()
	r.retryFinished = true
	r.mu.Unlock()
}

// Reader is one generation's view over a Rewindable's buffer plus the
// live source. A Reader is safe for concurrent use; concurrent Next
// calls on the same Reader are served one at a time, in the order they
// acquire the reader's mutex.
type Reader[T any] struct {
	owner      *Rewindable[T]
	generation int

	mu     sync.Mutex
	cursor int
}

// Next returns the reader's next item. If a newer generation has since
// been created, Next returns done=true without error (I3) — the reader
// has been invalidated, not failed.
func (rd *Reader[T]) Next(ctx context.Context) (T, bool, error) {
	rd.mu.Lock()
	defer rd.mu.Unlock()

	r := rd.owner
	for {
		r.mu.Lock()
		if rd.generation < r.currentGeneration {
			r.mu.Unlock()
			var zero T
			return zero, true, nil
		}
		if rd.cursor < len(r.buffer) {
			v := r.buffer[rd.cursor]
			rd.cursor++
			r.mu.Unlock()
			return v, false, nil
		}

		// Buffer exhausted: join (or start) the single in-flight source
		// pull. At most one goroutine ever calls r.source.Next at a time.
		existing := r.pending
		if existing == nil {
			p := &pull[T]{done: make(chan struct{})}
			r.pending = p
			r.mu.Unlock()

			value, eof, err := r.source.Next(ctx)

			r.mu.Lock()
			p.value, p.eof, p.err = value, eof, err
			if err == nil && !eof {
				r.buffer = append(r.buffer, value)
			}
			r.pending = nil
			r.mu.Unlock()
			close(p.done)

			existing = p
		} else {
			r.mu.Unlock()
			select {
			case <-existing.done:
			case <-ctx.Done():
				var zero T
				return zero, false, ctx.Err()
			}
		}

		if existing.err != nil {
			var zero T
			return zero, false, existing.err
		}
		if existing.eof {
			var zero T
			return zero, true, nil
		}
		// A value was pulled (possibly by another reader); loop back to
		// re-check generation and buffer before delivering it (I3).
	}
}
