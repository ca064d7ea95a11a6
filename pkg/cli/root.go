// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package cli builds the cobra command tree shared by the greeter binaries.
package cli

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/stacklok/otel-greeter/pkg/config"
	"github.com/stacklok/otel-greeter/pkg/greeting"
	"github.com/stacklok/otel-greeter/pkg/logger"
	"github.com/stacklok/otel-greeter/pkg/telemetry"
)

// Variant describes one greeter binary.
type Variant struct {
	// Name is the binary name and the default service name
	Name string

	// Short is the one-line command description
	Short string

	// Long is the full command description
	Long string

	// Defaults are the variant's configuration defaults
	Defaults config.Defaults

	// NewRecorder builds the greeting side effect once telemetry is up
	NewRecorder func(p *telemetry.Provider) (greeting.Recorder, error)
}

// NewRootCmd creates the root command for a greeter binary. Running it
// without a subcommand starts the server.
func NewRootCmd(variant Variant) *cobra.Command {
	v := viper.GetViper()
	config.Setup(v, variant.Defaults)

	rootCmd := &cobra.Command{
		Use:               variant.Name,
		DisableAutoGenTag: true,
		Short:             variant.Short,
		Long:              variant.Long,
		Args:              cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), v, variant)
		},
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			logger.Initialize()
		},
	}

	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug mode")
	bindFlag(v, config.KeyDebug, rootCmd.PersistentFlags().Lookup("debug"))

	addServeFlags(rootCmd.PersistentFlags(), v, variant.Defaults)

	rootCmd.AddCommand(newServeCmd(v, variant))
	rootCmd.AddCommand(newVersionCmd(variant.Name))

	// Silence printing the usage on error
	rootCmd.SilenceUsage = true

	return rootCmd
}
