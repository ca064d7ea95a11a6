// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/stacklok/otel-greeter/pkg/config"
	"github.com/stacklok/otel-greeter/pkg/logger"
	"github.com/stacklok/otel-greeter/pkg/telemetry/providers/otlp"
)

func newServeCmd(v *viper.Viper, variant Variant) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the greeting server",
		Long: fmt.Sprintf(`Start the %s HTTP server on --address.

GET /greeting?name=<name> answers "Hello <name>" and emits telemetry to the
OTLP collector configured with --otel-endpoint.`, variant.Name),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), v, variant)
		},
	}
}

// addServeFlags registers the server flags on flags and binds them to v.
func addServeFlags(flags *pflag.FlagSet, v *viper.Viper, d config.Defaults) {
	flags.String("address", config.DefaultAddress, "Address to listen on")
	flags.String("otel-service-name", d.ServiceName, "OpenTelemetry service name")
	flags.String("otel-endpoint", "", "OTLP collector endpoint as host:port, e.g. localhost:4318")
	flags.String("otel-protocol", otlp.ProtocolHTTP, "OTLP protocol: http/protobuf or grpc")
	flags.Bool("otel-insecure", true, "Connect to the OTLP endpoint without TLS")
	flags.String("otel-headers", "", "OTLP headers as key=value pairs separated by commas")
	flags.String("otel-resource-attributes", "", "Extra resource attributes as key=value pairs separated by commas")
	flags.Bool("otel-tracing-enabled", d.TracingEnabled, "Export traces over OTLP")
	flags.Bool("otel-metrics-enabled", d.MetricsEnabled, "Export metrics over OTLP")
	flags.Bool("otel-logs-enabled", d.LogsEnabled, "Export logs over OTLP")
	flags.Float64("otel-sampling-rate", 1.0, "Trace sampling rate (0.0-1.0)")
	flags.Duration("otel-metric-export-interval", 0,
		"OTLP metric export interval; 0 uses OTEL_METRIC_EXPORT_INTERVAL or the SDK default")
	flags.Bool("otel-enable-prometheus-metrics-path", false, "Serve Prometheus metrics on /metrics")

	for flag, key := range flagKeys {
		bindFlag(v, key, flags.Lookup(flag))
	}
}

// flagKeys maps flag names to viper keys.
var flagKeys = map[string]string{
	"address":                             config.KeyAddress,
	"otel-service-name":                   config.KeyServiceName,
	"otel-endpoint":                       config.KeyEndpoint,
	"otel-protocol":                       config.KeyProtocol,
	"otel-insecure":                       config.KeyInsecure,
	"otel-headers":                        config.KeyHeaders,
	"otel-resource-attributes":            config.KeyResourceAttributes,
	"otel-tracing-enabled":                config.KeyTracingEnabled,
	"otel-metrics-enabled":                config.KeyMetricsEnabled,
	"otel-logs-enabled":                   config.KeyLogsEnabled,
	"otel-sampling-rate":                  config.KeySamplingRate,
	"otel-metric-export-interval":         config.KeyMetricExportInterval,
	"otel-enable-prometheus-metrics-path": config.KeyEnablePrometheusMetricsPath,
}

func bindFlag(v *viper.Viper, key string, flag *pflag.Flag) {
	if err := v.BindPFlag(key, flag); err != nil {
		logger.Errorf("Error binding %s flag: %v", flag.Name, err)
	}
}

func runServe(ctx context.Context, v *viper.Viper, variant Variant) error {
	cfg, err := config.Load(v)
	if err != nil {
		return err
	}

	svc, err := NewService(ctx, cfg, variant)
	if err != nil {
		return err
	}
	return svc.Run(ctx)
}
