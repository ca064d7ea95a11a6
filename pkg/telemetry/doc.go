// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package telemetry wires the greeter services to an OpenTelemetry collector:
// OTLP traces, metrics and logs, an optional Prometheus /metrics endpoint,
// and the HTTP server middleware that instruments every request.
package telemetry
