// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"github.com/stacklok/otel-greeter/pkg/config"
	"github.com/stacklok/otel-greeter/pkg/greeting"
	"github.com/stacklok/otel-greeter/pkg/logger"
	"github.com/stacklok/otel-greeter/pkg/telemetry"
)

// MetricsVariant counts greetings on the greetings.total counter and
// exports them as OTLP metrics.
var MetricsVariant = Variant{
	Name:  "metrics-otel",
	Short: "Greeting service that exports a per-name counter over OTLP",
	Long: `metrics-otel serves GET /greeting and increments the greetings.total
counter, tagged with the greeted name, for every request. The counter is
exported to an OpenTelemetry collector over OTLP.`,
	Defaults: config.Defaults{
		ServiceName:    "metrics-otel",
		MetricsEnabled: true,
	},
	NewRecorder: func(p *telemetry.Provider) (greeting.Recorder, error) {
		return greeting.NewCounterRecorder(p.MeterProvider())
	},
}

// TracesVariant logs every greeting and exports traces and logs over OTLP.
var TracesVariant = Variant{
	Name:  "traces-otel",
	Short: "Greeting service that exports traces and logs over OTLP",
	Long: `traces-otel serves GET /greeting and writes one INFO log record,
"Greeting: Hello <name>", for every request. Request spans and log records
are exported to an OpenTelemetry collector over OTLP and correlated by
trace id.`,
	Defaults: config.Defaults{
		ServiceName:    "traces-otel",
		TracingEnabled: true,
		LogsEnabled:    true,
	},
	NewRecorder: func(*telemetry.Provider) (greeting.Recorder, error) {
		// The logger must be read after the OTLP handler is attached.
		return greeting.NewLogRecorder(logger.Get()), nil
	},
}
