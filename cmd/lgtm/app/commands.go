// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package app provides the entry point for the lgtm command-line application.
package app

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/stacklok/otel-greeter/pkg/logger"
	"github.com/stacklok/otel-greeter/pkg/testkit/lgtm"
)

// NewRootCmd creates a new root command for the lgtm CLI.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:               "lgtm",
		DisableAutoGenTag: true,
		Short:             "Run the Grafana LGTM observability stack locally",
		Long: `lgtm starts the Grafana LGTM all-in-one image (OpenTelemetry collector,
Loki, Grafana, Tempo and Mimir) the same way the test suites do, so the
greeter services can be pointed at it by hand.

The image, reuse and startup timeout follow the LGTM_* environment variables.`,
		Run: func(cmd *cobra.Command, _ []string) {
			// If no subcommand is provided, print help
			if err := cmd.Help(); err != nil {
				logger.Errorf("Error displaying help: %v", err)
			}
		},
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			logger.Initialize()
		},
	}

	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug mode")
	if err := viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug")); err != nil {
		logger.Errorf("Error binding debug flag: %v", err)
	}

	rootCmd.AddCommand(newUpCmd())

	// Silence printing the usage on error
	rootCmd.SilenceUsage = true

	return rootCmd
}

func newUpCmd() *cobra.Command {
	var wait bool

	cmd := &cobra.Command{
		Use:   "up",
		Short: "Start the backend and print its endpoints",
		Long: `Start the LGTM backend, wait for its readiness log line and print the
Grafana URL and OTLP endpoints. With LGTM_REUSE (the default) the container
outlives this command and later runs attach to it.

With --wait the command blocks until interrupted and then removes the
container.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := lgtm.LoadConfigFromEnv()
			if err != nil {
				return err
			}

			backend, err := lgtm.Start(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			printEndpoints(cmd.OutOrStdout(), backend.Endpoints())

			if !wait {
				return nil
			}
			<-cmd.Context().Done()
			logger.Info("Stopping LGTM backend...")
			// The command context is done; terminate on a fresh one.
			return backend.Terminate(context.WithoutCancel(cmd.Context()))
		},
	}

	cmd.Flags().BoolVar(&wait, "wait", false, "Block until interrupted, then remove the container")

	return cmd
}

func printEndpoints(w io.Writer, e lgtm.Endpoints) {
	fmt.Fprintf(w, "Grafana:    %s\n", e.GrafanaURL)
	fmt.Fprintf(w, "OTLP/gRPC:  %s\n", e.OTLPGRPC)
	fmt.Fprintf(w, "OTLP/HTTP:  %s\n", e.OTLPHTTP)
	fmt.Fprintf(w, "\nexport GREETER_TELEMETRY_ENDPOINT=%s\n", e.OTLPHTTP)
}
