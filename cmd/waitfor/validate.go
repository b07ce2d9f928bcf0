package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/waitfor/config"
)

// validateCmd validates a config file without running the wait.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a config file",
	Long: `Validate a waitfor configuration file without contacting the service.

This command parses the YAML, expands environment variables, and validates
all fields. It's useful for CI/CD pipelines or pre-deployment checks.

Exit codes:
  0 - Config is valid
  1 - Config is invalid (error details printed to stderr)

Example:
  waitfor validate -c waitfor.yaml
  waitfor validate --config /etc/waitfor.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	_ = validateCmd.MarkFlagRequired("config")
}

func runValidate(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	timeout := "wait forever"
	if cfg.Timeout != 0 {
		timeout = fmt.Sprintf("%d iterations", cfg.Timeout)
	}

	fmt.Printf("Config is valid!\n")
	fmt.Printf("  URL:      %s\n", cfg.URL)
	fmt.Printf("  Timeout:  %s\n", timeout)
	fmt.Printf("  Interval: %s\n", cfg.Interval.Duration())

	return nil
}
