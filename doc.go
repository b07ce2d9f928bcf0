// Package waitfor blocks until a remote HTTP service becomes responsive.
//
// The service's unauthenticated version endpoint (<url>/api/version) is
// polled at a fixed interval until it returns a body that parses as JSON,
// an optional iteration budget is exhausted, or the caller's context is
// cancelled. This is the synchronization primitive needed in container
// entrypoints and RUN steps, where a dependent process must not start work
// until an upstream service is reachable and minimally functional.
//
// # Quick Start
//
// Create a waiter and block until the service answers:
//
//	w, _ := waitfor.New("http://localhost:8080")
//
//	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer stop()
//
//	res, err := w.Wait(ctx) // blocks until ready, timeout, or cancellation
//
// # Configuration
//
// waitfor uses the functional options pattern for configuration:
//
//	w, err := waitfor.New("http://localhost:8080",
//	    waitfor.WithTimeout(120),
//	    waitfor.WithAPIKey("key=c0ffee"),
//	    waitfor.WithInterval(time.Second),
//	    waitfor.WithVerbose(true),
//	)
//
// # Success criteria
//
// Any response body that parses as valid JSON counts as "alive", regardless
// of shape. The version endpoint is expected to report a version_major
// field, but its presence is never required before declaring success; it is
// only read for the verbose progress message. This leniency is intentional
// and part of the observable contract.
//
// Supplying an API key appends it verbatim to the version URL's query
// string. The key is not needed to read the endpoint; it exists to provoke
// HTTP 403 responses until the key becomes valid server-side, so a single
// wait covers both "service up" and "key usable". 403 responses are retried
// exactly like connection failures.
//
// # Cancellation
//
// Cancellation is cooperative: the context is observed between iterations
// and while sleeping, never mid-classification. Wait returns the wrapped
// context error; deciding what a cancelled wait means is left to the caller.
package waitfor
