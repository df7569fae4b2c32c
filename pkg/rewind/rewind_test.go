package rewind

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// blockingSource is a test Source[T] whose Next call blocks until the
// test hands it an item via push/finish: each push/finish rendezvous
// with exactly one Next call, whether that call is already waiting or
// arrives later.
type blockingSource struct {
	items chan sourceItem

	mu    sync.Mutex
	pulls int
}

type sourceItem struct {
	value string
	eof   bool
}

func newBlockingSource() *blockingSource {
	return &blockingSource{items: make(chan sourceItem)}
}

func (s *blockingSource) Next(ctx context.Context) (string, bool, error) {
	s.mu.Lock()
	s.pulls++
	s.mu.Unlock()

	select {
	case item := <-s.items:
		return item.value, item.eof, nil
	case <-ctx.Done():
		return "", false, ctx.Err()
	}
}

// push rendezvous with exactly one Next call, delivering value.
func (s *blockingSource) push(value string) {
	s.items <- sourceItem{value: value}
}

func (s *blockingSource) finish() {
	s.items <- sourceItem{eof: true}
}

func (s *blockingSource) pullCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pulls
}

// sliceSource replays a fixed slice, one item per Next call.
type sliceSource struct {
	mu    sync.Mutex
	items []string
	idx   int
}

func (s *sliceSource) Next(ctx context.Context) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.idx >= len(s.items) {
		return "", true, nil
	}
	v := s.items[s.idx]
	s.idx++
	return v, false, nil
}

func nextAsync(t *testing.T, rd *Reader[string]) <-chan struct {
	val  string
	done bool
	err  error
} {
	t.Helper()
	out := make(chan struct {
		val  string
		done bool
		err  error
	}, 1)
	go func() {
		v, d, e := rd.Next(context.Background())
		out <- struct {
			val  string
			done bool
			err  error
		}{v, d, e}
	}()
	return out
}

func drain(t *testing.T, ch <-chan struct {
	val  string
	done bool
	err  error
}) (string, bool, error) {
	t.Helper()
	select {
	case r := <-ch:
		return r.val, r.done, r.err
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for Next to resolve")
		return "", false, nil
	}
}

func TestRewindable_SingleReaderSequential(t *testing.T) {
	src := &sliceSource{items: []string{"a", "b", "c"}}
	r := New[string](src)

	rd, err := r.NewReader()
	require.NoError(t, err)

	for _, want := range []string{"a", "b", "c"} {
		v, done, err := rd.Next(context.Background())
		require.NoError(t, err)
		assert.False(t, done)
		assert.Equal(t, want, v)
	}

	_, done, err := rd.Next(context.Background())
	require.NoError(t, err)
	assert.True(t, done)
}

func TestRewindable_SecondReaderReplaysBuffer(t *testing.T) {
	src := &sliceSource{items: []string{"msg1", "msg2", "msg3"}}
	r := New[string](src)

	rd1, err := r.NewReader()
	require.NoError(t, err)
	v, _, _ := rd1.Next(context.Background())
	assert.Equal(t, "msg1", v)
	v, _, _ = rd1.Next(context.Background())
	assert.Equal(t, "msg2", v)

	rd2, err := r.NewReader()
	require.NoError(t, err)

	// rd1 is now stale: any further Next terminates with done=true.
	_, done, err := rd1.Next(context.Background())
	require.NoError(t, err)
	assert.True(t, done)

	// rd2 replays the buffered prefix, then joins the live source.
	var got []string
	for {
		v, done, err := rd2.Next(context.Background())
		require.NoError(t, err)
		if done {
			break
		}
		got = append(got, v)
	}
	assert.Equal(t, []string{"msg1", "msg2", "msg3"}, got)
}

func TestRewindable_SourcePulledOnce(t *testing.T) {
	src := &sliceSource{items: []string{"a", "b", "c", "d"}}
	r := New[string](src)

	rd1, err := r.NewReader()
	require.NoError(t, err)
	rd1.Next(context.Background())
	rd1.Next(context.Background())

	rd2, err := r.NewReader()
	require.NoError(t, err)
	var got []string
	for {
		v, done, err := rd2.Next(context.Background())
		require.NoError(t, err)
		if done {
			break
		}
		got = append(got, v)
	}
	assert.Equal(t, []string{"a", "b", "c", "d"}, got)

	src.mu.Lock()
	pulls := src.idx
	src.mu.Unlock()
	assert.Equal(t, 4, pulls, "each source item must be pulled exactly once across all generations")
}

func TestRewindable_NewReaderAfterRetryFinishedFails(t *testing.T) {
	src := &sliceSource{items: []string{"a"}}
	r := New[string](src)

	_, err := r.NewReader()
	require.NoError(t, err)

	r.OnRetryFinished()
	r.OnRetryFinished() // idempotent

	_, err = r.NewReader()
	assert.ErrorIs(t, err, ErrAlreadyFinished)
}

func TestRewindable_ExistingGenerationUnaffectedByRetryFinished(t *testing.T) {
	src := &sliceSource{items: []string{"a", "b"}}
	r := New[string](src)

	rd, err := r.NewReader()
	require.NoError(t, err)
	r.OnRetryFinished()

	v, done, err := rd.Next(context.Background())
	require.NoError(t, err)
	assert.False(t, done)
	assert.Equal(t, "a", v)
}

// TestRewindable_CanonicalMultiGenerationScenario walks the exact
// sequence from spec.md §4.5 / §8 S6.
func TestRewindable_CanonicalMultiGenerationScenario(t *testing.T) {
	src := newBlockingSource()
	r := New[string](src)

	r1, err := r.NewReader()
	require.NoError(t, err)

	c1 := nextAsync(t, r1)
	src.push("a")
	v, done, err := drain(t, c1)
	require.NoError(t, err)
	assert.False(t, done)
	assert.Equal(t, "a", v)

	r1c2 := nextAsync(t, r1) // will block on source

	r2, err := r.NewReader()
	require.NoError(t, err)
	v, done, err = r2.Next(context.Background())
	require.NoError(t, err)
	assert.False(t, done)
	assert.Equal(t, "a", v)

	r2c2 := nextAsync(t, r2) // will also block on source (shares pending pull)

	r3, err := r.NewReader()
	require.NoError(t, err)
	v, done, err = r3.Next(context.Background())
	require.NoError(t, err)
	assert.False(t, done)
	assert.Equal(t, "a", v)

	r3c2 := nextAsync(t, r3)
	time.Sleep(20 * time.Millisecond) // let r3c2 join the same in-flight pull
	r3c3 := nextAsync(t, r3)          // queues behind r3c2 on the same reader

	// Unblock with "b": r1's second Next is stale -> done, but "b" lands
	// in the buffer for everyone else.
	src.push("b")
	v, done, err = drain(t, r1c2)
	require.NoError(t, err)
	assert.True(t, done)

	v, done, err = drain(t, r2c2)
	require.NoError(t, err)
	assert.True(t, done)

	v, done, err = drain(t, r3c2)
	require.NoError(t, err)
	assert.False(t, done)
	assert.Equal(t, "b", v)

	// Unblock with "c": r3's third Next (already queued) picks it up.
	src.push("c")
	v, done, err = drain(t, r3c3)
	require.NoError(t, err)
	assert.False(t, done)
	assert.Equal(t, "c", v)

	r.OnRetryFinished()

	r3c4 := nextAsync(t, r3)
	src.push("d")
	v, done, err = drain(t, r3c4)
	require.NoError(t, err)
	assert.False(t, done)
	assert.Equal(t, "d", v)

	_, err = r.NewReader()
	assert.ErrorIs(t, err, ErrAlreadyFinished)
}

func TestRewindable_ContextCancellationDuringPull(t *testing.T) {
	src := newBlockingSource()
	r := New[string](src)

	rd, err := r.NewReader()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	var gotErr error
	go func() {
		_, _, gotErr = rd.Next(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
		assert.ErrorIs(t, gotErr, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Next did not return after context cancellation")
	}
}
