package waitfor

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestWaiter builds a waiter with a fast interval and silenced output,
// plus any extra options the test needs.
func newTestWaiter(t *testing.T, url string, opts ...Option) *Waiter {
	t.Helper()
	base := []Option{
		WithInterval(2 * time.Millisecond),
		WithErrorWriter(io.Discard),
		WithLogger(discardLogger()),
	}
	w, err := New(url, append(base, opts...)...)
	require.NoError(t, err)
	return w
}

type waitOutcome struct {
	res Result
	err error
}

// waitAsync runs Wait in a goroutine and returns a channel with the outcome.
func waitAsync(ctx context.Context, w *Waiter) <-chan waitOutcome {
	ch := make(chan waitOutcome, 1)
	go func() {
		res, err := w.Wait(ctx)
		ch <- waitOutcome{res, err}
	}()
	return ch
}

func TestWait_ReadyOnFirstResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"version_major": "23.0"}`))
	}))
	defer server.Close()

	w := newTestWaiter(t, server.URL)

	res, err := w.Wait(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Ready)
	assert.Equal(t, 0, res.Attempts)
	assert.Equal(t, "23.0", res.Version)
}

// Scenario: the target port refuses connections for a while, then the
// service comes up and answers with JSON.
func TestWait_ConnectionRefusedThenUp(t *testing.T) {
	// reserve a port, then free it so probes get connection refused
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	w := newTestWaiter(t, "http://"+addr, WithTimeout(500))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	outcome := waitAsync(ctx, w)

	// let a few probes fail before the service appears
	time.Sleep(30 * time.Millisecond)

	l2, err := net.Listen("tcp", addr)
	require.NoError(t, err)
	srv := &http.Server{Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"version_major": "23.0"}`))
	})}
	go func() { _ = srv.Serve(l2) }()
	defer func() { _ = srv.Close() }()

	select {
	case got := <-outcome:
		require.NoError(t, got.err)
		assert.True(t, got.res.Ready)
		assert.Greater(t, got.res.Attempts, 0, "attempts should count the refused connections")
		assert.Equal(t, "23.0", got.res.Version)
	case <-ctx.Done():
		t.Fatal("wait did not complete")
	}
}

// Scenario: the server answers 403 forever and the budget is 2. Attempts
// run at count 1, 2, 3; the third trips 3 > 2.
func TestWait_AlwaysForbiddenTimesOut(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	var progress, errOut bytes.Buffer
	w, err := New(server.URL,
		WithTimeout(2),
		WithInterval(time.Millisecond),
		WithAPIKey("key=notyet"),
		WithVerbose(true),
		WithProgressWriter(&progress),
		WithErrorWriter(&errOut),
		WithLogger(discardLogger()),
	)
	require.NoError(t, err)

	res, err := w.Wait(context.Background())
	require.ErrorIs(t, err, ErrTimedOut)
	assert.False(t, res.Ready)
	assert.Equal(t, 3, res.Attempts)
	assert.Equal(t, "Failed to contact service\n", errOut.String())

	assert.Contains(t, progress.String(), "[00] provided key not (yet) valid... HTTP 403")
	assert.Contains(t, progress.String(), "[01]")
	assert.Contains(t, progress.String(), "[02]")
}

// Scenario: first response is 200 but not JSON, second is JSON.
func TestWait_NotJSONThenJSON(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			_, _ = w.Write([]byte("not json"))
			return
		}
		_, _ = w.Write([]byte(`{"version_major": "1"}`))
	}))
	defer server.Close()

	w := newTestWaiter(t, server.URL)

	res, err := w.Wait(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Ready)
	assert.Equal(t, 1, res.Attempts)
	assert.Equal(t, "1", res.Version)
}

// Budget N gives up on the N+1th attempt; the comparison is exactly
// count > N after incrementing.
func TestWait_TimeoutBoundary(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html>starting up</html>"))
	}))
	defer server.Close()

	for _, budget := range []int{1, 2, 5} {
		w := newTestWaiter(t, server.URL, WithTimeout(budget))

		res, err := w.Wait(context.Background())
		require.ErrorIs(t, err, ErrTimedOut)
		assert.Equal(t, budget+1, res.Attempts)
	}
}

// A zero budget never times out; only success or cancellation ends the wait.
func TestWait_ZeroTimeoutCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // connection refused on every attempt

	w := newTestWaiter(t, server.URL)

	ctx, cancel := context.WithCancel(context.Background())
	outcome := waitAsync(ctx, w)

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case got := <-outcome:
		require.Error(t, got.err)
		assert.ErrorIs(t, got.err, context.Canceled)
		assert.NotErrorIs(t, got.err, ErrTimedOut)
		assert.False(t, got.res.Ready)
	case <-time.After(5 * time.Second):
		t.Fatal("cancellation did not end the wait")
	}
}

func TestWait_VerboseNarratesRetries(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			_, _ = w.Write([]byte("booting"))
			return
		}
		_, _ = w.Write([]byte(`{"version_major": "23.0"}`))
	}))
	defer server.Close()

	var progress bytes.Buffer
	w := newTestWaiter(t, server.URL,
		WithVerbose(true),
		WithProgressWriter(&progress),
	)

	res, err := w.Wait(context.Background())
	require.NoError(t, err)
	require.True(t, res.Ready)

	assert.Contains(t, progress.String(), "[00] no valid json returned... HTTP 200")
	assert.Contains(t, progress.String(), "service version: 23.0")
}

func TestWait_SilentWhenNotVerbose(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	var progress bytes.Buffer
	w := newTestWaiter(t, server.URL, WithProgressWriter(&progress))

	res, err := w.Wait(context.Background())
	require.NoError(t, err)
	require.True(t, res.Ready)
	assert.Empty(t, progress.String())
}

// The sleep between iterations goes through the injected clock, so the
// loop is deterministic under a mock clock: two advances of the default
// one-second interval exhaust a budget of 2 with no real sleeping.
func TestWait_MockClockInterval(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	mClock := quartz.NewMock(t)
	trap := mClock.Trap().NewTimer("sleep")
	defer trap.Close()

	w, err := New(server.URL,
		WithTimeout(2),
		WithClock(mClock),
		WithErrorWriter(io.Discard),
		WithLogger(discardLogger()),
	)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	outcome := waitAsync(ctx, w)

	for i := 0; i < 2; i++ {
		call := trap.MustWait(ctx)
		call.Release(ctx)
		mClock.Advance(time.Second).MustWait(ctx)
	}

	select {
	case got := <-outcome:
		require.ErrorIs(t, got.err, ErrTimedOut)
		assert.Equal(t, 3, got.res.Attempts)
	case <-ctx.Done():
		t.Fatal("wait did not complete under mock clock")
	}
}

func TestWait_ReusableAcrossCalls(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"version_major": "2"}`))
	}))
	defer server.Close()

	w := newTestWaiter(t, server.URL)

	for i := 0; i < 2; i++ {
		res, err := w.Wait(context.Background())
		require.NoError(t, err)
		assert.True(t, res.Ready)
		assert.Equal(t, 0, res.Attempts)
	}
}

func TestWait_AlreadyCancelledContext(t *testing.T) {
	w := newTestWaiter(t, "http://localhost:1")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := w.Wait(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, res.Ready)
	assert.Equal(t, 0, res.Attempts)
}
