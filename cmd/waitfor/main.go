// Package main is the entry point for the waitfor CLI.
//
// waitfor can be used either as a library (SDK) or as a standalone binary.
// The binary blocks until the target service's version endpoint answers
// with JSON, then exits 0; on timeout it exits 1.
//
// Usage:
//
//	waitfor http://localhost:8080                  # wait forever
//	waitfor http://localhost:8080 --timeout 300    # give up after ~5 min
//	waitfor -c waitfor.yaml                        # options from a file
//	waitfor validate -c waitfor.yaml               # check a config file
//	waitfor version                                # show version info
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/waitfor"
)

// Version information - set by GoReleaser at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCmd is the base command; unlike most CLIs it does the actual work,
// since this tool has exactly one job.
var rootCmd = &cobra.Command{
	Use:   "waitfor [URL]",
	Short: "Block until an HTTP service is responsive",
	Long: `waitfor blocks until a remote HTTP service becomes responsive.

It polls <URL>/api/version once per interval until the endpoint returns a
JSON body, then exits 0. If --timeout iterations pass without a valid
response it prints a notice to stderr and exits 1.

Passing an API key (-a) appends it to the version URL's query string; the
server then answers 403 until the key is valid, so the wait also covers
"key usable". 403 responses are retried like connection failures.

The target URL is taken from the positional argument, or from a config
file given with --config. Flags override config file values.

Examples:
  waitfor http://localhost:8080
  waitfor http://localhost:8080 --timeout 300 -v
  waitfor http://localhost:8080 -a key=c0ffee
  waitfor -c /etc/waitfor.yaml`,
	Args:          cobra.MaximumNArgs(1),
	RunE:          runWait,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and translates the outcome to an exit
// status: 0 when the service became responsive, 1 otherwise.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// the timeout notice is already on stderr and a cancelled wait
		// needs no narration; everything else is a genuine CLI error
		if !errors.Is(err, waitfor.ErrTimedOut) && !errors.Is(err, context.Canceled) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func main() {
	Execute()
}

// versionCmd prints version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit hash, and build date of this waitfor binary.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("waitfor %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
