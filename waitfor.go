package waitfor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"time"

	"github.com/coder/quartz"

	"github.com/jpalmerr/waitfor/internal/probe"
)

const (
	// defaultInterval is the pause between probe attempts. The timeout
	// budget counts iterations, so with the default interval the budget
	// approximates seconds.
	defaultInterval = 1 * time.Second

	// defaultRequestTimeout bounds each individual probe request.
	defaultRequestTimeout = 10 * time.Second
)

// ErrTimedOut is returned by [Waiter.Wait] when the iteration budget is
// exhausted before the service becomes responsive.
var ErrTimedOut = errors.New("service did not become responsive within the timeout budget")

// Result summarizes a completed wait.
type Result struct {
	// Ready reports whether the service answered with a JSON body.
	Ready bool

	// Attempts is the number of failed probe attempts. On success this is
	// the count of retries that preceded the successful probe; on timeout
	// it is budget+1, the attempt that tripped the budget included.
	Attempts int

	// Version is the version_major value reported by the service, when
	// present. Only meaningful if Ready is true, and may be empty even
	// then; readiness never depends on it.
	Version string
}

// Waiter polls a target service's version endpoint until it is responsive.
//
// Waiter is immutable after creation via [New] and safe to reuse; each call
// to [Waiter.Wait] runs an independent poll loop. Configuration uses the
// functional options pattern with [Option] functions such as [WithTimeout],
// [WithAPIKey], [WithInterval], and [WithVerbose].
type Waiter struct {
	url            string
	apiKey         string
	timeout        int
	interval       time.Duration
	requestTimeout time.Duration
	verbose        bool
	progress       io.Writer
	errOut         io.Writer
	logger         *slog.Logger
	clock          quartz.Clock
}

// New creates a [Waiter] for the given service base URL.
//
// The rawURL parameter must be a valid URL with an http:// or https://
// scheme; the version endpoint path is appended internally. Options are
// applied in order. Defaults:
//   - Timeout: 0 (wait forever)
//   - Interval: 1 second
//   - Request timeout: 10 seconds
//   - Progress writer: os.Stdout, error writer: os.Stderr
//
// Example:
//
//	w, err := waitfor.New("http://localhost:8080",
//	    waitfor.WithTimeout(300),
//	    waitfor.WithVerbose(true),
//	)
func New(rawURL string, opts ...Option) (*Waiter, error) {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return nil, errors.New("URL must have a scheme (http:// or https://)")
	}

	cfg := &waiterConfig{
		interval:       defaultInterval,
		requestTimeout: defaultRequestTimeout,
		progress:       os.Stdout,
		errOut:         os.Stderr,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}
	clock := cfg.clock
	if clock == nil {
		clock = quartz.NewReal()
	}

	return &Waiter{
		url:            rawURL,
		apiKey:         cfg.apiKey,
		timeout:        cfg.timeout,
		interval:       cfg.interval,
		requestTimeout: cfg.requestTimeout,
		verbose:        cfg.verbose,
		progress:       cfg.progress,
		errOut:         cfg.errOut,
		logger:         logger,
		clock:          clock,
	}, nil
}

// Wait blocks until the service becomes responsive, the iteration budget is
// exhausted, or ctx is cancelled.
//
// Each iteration issues one GET against the version endpoint and classifies
// the outcome:
//
//   - a body that parses as JSON (any shape) terminates the wait with
//     success, immediately
//   - connection failures, HTTP 403 (key not yet valid), and unparseable
//     bodies are all retried after one interval
//
// The timeout budget counts iterations, not wall-clock time: with a budget
// of N, Wait gives up when the failed-attempt count first exceeds N, i.e.
// on the N+1th attempt. A budget of 0 retries indefinitely.
//
// Returns:
//   - (Result{Ready: true, ...}, nil) on success
//   - (Result, ErrTimedOut) when the budget is exhausted; a one-line
//     failure notice is written to the error writer first
//   - (Result, wrapped ctx.Err()) on cancellation, observed between
//     iterations
//
// In verbose mode every retry reason is narrated to the progress writer;
// otherwise Wait is silent until timeout. No error escapes the poll loop
// itself: all network and parse failures downgrade to "keep retrying".
func (w *Waiter) Wait(ctx context.Context) (Result, error) {
	prober := probe.New(w.url, w.apiKey, w.requestTimeout, w.logger)
	defer prober.Close()

	w.logger.Debug("waiting for service",
		"url", prober.URL(),
		"timeout", w.timeout,
		"interval", w.interval.String(),
	)

	count := 0
	for {
		if err := ctx.Err(); err != nil {
			return Result{Attempts: count}, fmt.Errorf("wait cancelled: %w", err)
		}

		report := prober.Probe(ctx)
		if report.Outcome == probe.OutcomeReady {
			if w.verbose {
				fmt.Fprintf(w.progress, "service version: %s\n", report.Version)
			}
			return Result{Ready: true, Attempts: count, Version: report.Version}, nil
		}

		if w.verbose {
			switch report.Outcome {
			case probe.OutcomeKeyNotValid:
				fmt.Fprintf(w.progress, "[%02d] provided key not (yet) valid... %s\n", count, report.Detail)
			case probe.OutcomeNotJSON:
				fmt.Fprintf(w.progress, "[%02d] no valid json returned... %s\n", count, report.Detail)
			default:
				fmt.Fprintf(w.progress, "[%02d] service not up yet... %s\n", count, report.Detail)
			}
		}

		count++

		// the budget is an iteration count, never a wall-clock deadline;
		// the exact comparison makes budget N fail on the N+1th attempt
		if w.timeout != 0 && count > w.timeout {
			fmt.Fprintln(w.errOut, "Failed to contact service")
			return Result{Attempts: count}, ErrTimedOut
		}

		if err := w.sleep(ctx); err != nil {
			return Result{Attempts: count}, fmt.Errorf("wait cancelled: %w", err)
		}
	}
}

// sleep pauses for one interval, honoring cancellation.
func (w *Waiter) sleep(ctx context.Context) error {
	timer := w.clock.NewTimer(w.interval, "sleep")
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
