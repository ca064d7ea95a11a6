// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package app provides the entry point for the metrics-otel command-line application.
package app

import (
	"github.com/spf13/cobra"

	"github.com/stacklok/otel-greeter/pkg/cli"
)

// NewRootCmd creates a new root command for the metrics-otel CLI.
func NewRootCmd() *cobra.Command {
	return cli.NewRootCmd(cli.MetricsVariant)
}
