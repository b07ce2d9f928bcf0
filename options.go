package waitfor

import (
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/coder/quartz"
)

// waiterConfig holds mutable state during Waiter construction.
type waiterConfig struct {
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

// Option is a function that configures a [Waiter] during construction.
//
// Option implements the functional options pattern, allowing optional
// configuration to be passed to [New] in a type-safe, extensible way.
// Options return an error if validation fails.
type Option func(*waiterConfig) error

// WithTimeout sets the iteration budget for the wait.
//
// The budget counts retry iterations rather than wall-clock seconds; with
// the default one-second interval the two approximate each other. A budget
// of N gives up on the N+1th failed attempt. The default of 0 waits
// forever.
//
// Returns an error if n is negative.
func WithTimeout(n int) Option {
	return func(cfg *waiterConfig) error {
		if n < 0 {
			return errors.New("timeout cannot be negative")
		}
		cfg.timeout = n
		return nil
	}
}

// WithAPIKey sets a credential to append to the version URL.
//
// The key is appended verbatim as the raw query string ("?<key>"), with no
// URL encoding. The version endpoint itself needs no authentication; the
// key's only purpose is to make the server answer 403 until the key is
// valid, so the wait covers both "service up" and "key usable".
func WithAPIKey(key string) Option {
	return func(cfg *waiterConfig) error {
		cfg.apiKey = key
		return nil
	}
}

// WithInterval sets the pause between probe attempts.
//
// Defaults to 1 second. Note that shortening the interval also shortens the
// effective wall-clock timeout, since the budget counts iterations.
//
// Returns an error if the duration is zero or negative.
func WithInterval(d time.Duration) Option {
	return func(cfg *waiterConfig) error {
		if d <= 0 {
			return errors.New("interval must be positive")
		}
		cfg.interval = d
		return nil
	}
}

// WithRequestTimeout sets the timeout for each individual probe request.
//
// A probe that exceeds this timeout is classified as unreachable and
// retried like any other connection failure. Defaults to 10 seconds.
//
// Returns an error if the duration is zero or negative.
func WithRequestTimeout(d time.Duration) Option {
	return func(cfg *waiterConfig) error {
		if d <= 0 {
			return errors.New("request timeout must be positive")
		}
		cfg.requestTimeout = d
		return nil
	}
}

// WithVerbose enables progress narration.
//
// When enabled, every retry reason is written to the progress writer and
// the reported service version is printed on success. When disabled (the
// default), the wait is silent until either success or the timeout notice.
func WithVerbose(v bool) Option {
	return func(cfg *waiterConfig) error {
		cfg.verbose = v
		return nil
	}
}

// WithProgressWriter sets the destination for verbose progress narration.
// Defaults to os.Stdout.
//
// Returns an error if the writer is nil.
func WithProgressWriter(w io.Writer) Option {
	return func(cfg *waiterConfig) error {
		if w == nil {
			return errors.New("progress writer cannot be nil")
		}
		cfg.progress = w
		return nil
	}
}

// WithErrorWriter sets the destination for the timeout failure notice.
// Defaults to os.Stderr.
//
// Returns an error if the writer is nil.
func WithErrorWriter(w io.Writer) Option {
	return func(cfg *waiterConfig) error {
		if w == nil {
			return errors.New("error writer cannot be nil")
		}
		cfg.errOut = w
		return nil
	}
}

// WithLogger sets a custom [slog.Logger] for diagnostic logging.
//
// The logger carries debug-level detail about each probe attempt,
// independent of the user-facing verbose narration. If not specified,
// [slog.Default] is used.
//
// Returns an error if the logger is nil.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *waiterConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithClock sets the clock used for the pause between iterations.
//
// Intended for tests, where a [quartz.Mock] makes the loop deterministic
// without real sleeps. Defaults to the real clock.
//
// Returns an error if the clock is nil.
func WithClock(clock quartz.Clock) Option {
	return func(cfg *waiterConfig) error {
		if clock == nil {
			return errors.New("clock cannot be nil")
		}
		cfg.clock = clock
		return nil
	}
}
