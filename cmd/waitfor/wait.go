package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/waitfor"
	"github.com/jpalmerr/waitfor/config"
)

const (
	defaultInterval       = 1 * time.Second
	defaultRequestTimeout = 10 * time.Second
)

func init() {
	registerWaitFlags(rootCmd)
}

// registerWaitFlags defines the wait flags on cmd. Split out from init so
// tests can build a fresh command with the same flag set.
func registerWaitFlags(cmd *cobra.Command) {
	cmd.Flags().Int("timeout", 0, "startup timeout as an iteration budget; 0 waits forever")
	cmd.Flags().StringP("api_key", "a", "", "wait until this key becomes valid (appended raw to the query string)")
	cmd.Flags().BoolP("verbose", "v", false, "narrate every retry to stdout")
	cmd.Flags().Duration("interval", defaultInterval, "pause between probe attempts")
	cmd.Flags().Duration("request-timeout", defaultRequestTimeout, "timeout for each individual probe request")
	cmd.Flags().StringP("config", "c", "", "path to config file")
}

// waitOptions is the fully resolved set of inputs for one wait run,
// after merging config file values and command line flags.
type waitOptions struct {
	url            string
	apiKey         string
	timeout        int
	interval       time.Duration
	requestTimeout time.Duration
	verbose        bool
}

// resolveOptions merges the config file (if any) with command line flags.
// Flags that were explicitly set override config file values; the
// positional URL argument overrides the config file URL.
func resolveOptions(cmd *cobra.Command, args []string) (waitOptions, error) {
	opts := waitOptions{
		interval:       defaultInterval,
		requestTimeout: defaultRequestTimeout,
	}

	configFile, _ := cmd.Flags().GetString("config")
	if configFile != "" {
		cfg, err := config.Load(configFile)
		if err != nil {
			return waitOptions{}, fmt.Errorf("failed to load config: %w", err)
		}
		opts.url = cfg.URL
		opts.apiKey = cfg.APIKey
		opts.timeout = cfg.Timeout
		opts.interval = cfg.Interval.Duration()
		opts.requestTimeout = cfg.RequestTimeout.Duration()
		opts.verbose = cfg.Verbose
	}

	if len(args) > 0 {
		opts.url = args[0]
	}
	if opts.url == "" {
		return waitOptions{}, fmt.Errorf("a target URL is required (positional argument or config file)")
	}

	if cmd.Flags().Changed("timeout") {
		opts.timeout, _ = cmd.Flags().GetInt("timeout")
	}
	if cmd.Flags().Changed("api_key") {
		opts.apiKey, _ = cmd.Flags().GetString("api_key")
	}
	if cmd.Flags().Changed("verbose") {
		opts.verbose, _ = cmd.Flags().GetBool("verbose")
	}
	if cmd.Flags().Changed("interval") {
		opts.interval, _ = cmd.Flags().GetDuration("interval")
	}
	if cmd.Flags().Changed("request-timeout") {
		opts.requestTimeout, _ = cmd.Flags().GetDuration("request-timeout")
	}

	return opts, nil
}

// newLogger creates a JSON logger for CLI use. Debug-level probe detail is
// only emitted in verbose mode.
func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

func runWait(cmd *cobra.Command, args []string) error {
	opts, err := resolveOptions(cmd, args)
	if err != nil {
		return err
	}

	w, err := waitfor.New(opts.url,
		waitfor.WithTimeout(opts.timeout),
		waitfor.WithAPIKey(opts.apiKey),
		waitfor.WithInterval(opts.interval),
		waitfor.WithRequestTimeout(opts.requestTimeout),
		waitfor.WithVerbose(opts.verbose),
		waitfor.WithLogger(newLogger(opts.verbose)),
	)
	if err != nil {
		return err
	}

	// cancel on SIGINT/SIGTERM; observed between iterations
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	_, err = w.Wait(ctx)
	return err
}
