// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package greeting

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	// meterName is the instrumentation scope of the greeting counter
	meterName = "github.com/stacklok/otel-greeter/pkg/greeting"

	// CounterName is the name of the greeting counter
	CounterName = "greetings.total"

	// NameAttribute tags each count with the greeted name
	NameAttribute = "name"

	// LogMessagePrefix starts every greeting log record
	LogMessagePrefix = "Greeting: "
)

// CounterRecorder counts greetings per name.
type CounterRecorder struct {
	counter metric.Int64Counter
}

// NewCounterRecorder registers the greetings.total counter on meterProvider.
func NewCounterRecorder(meterProvider metric.MeterProvider) (*CounterRecorder, error) {
	counter, err := meterProvider.Meter(meterName).Int64Counter(
		CounterName,
		metric.WithDescription("Number of greetings served, by name"),
		metric.WithUnit("{greeting}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s counter: %w", CounterName, err)
	}
	return &CounterRecorder{counter: counter}, nil
}

// Record adds one to the counter for name.
func (c *CounterRecorder) Record(ctx context.Context, name string) {
	c.counter.Add(ctx, 1, metric.WithAttributes(attribute.String(NameAttribute, name)))
}

// LogRecorder writes one INFO record per greeting.
type LogRecorder struct {
	logger *slog.Logger
}

// NewLogRecorder returns a recorder that logs through l.
func NewLogRecorder(l *slog.Logger) *LogRecorder {
	return &LogRecorder{logger: l}
}

// Record logs "Greeting: Hello <name>". The context carries the active span,
// which the OTel log bridge attaches to the exported record.
func (l *LogRecorder) Record(ctx context.Context, name string) {
	l.logger.InfoContext(ctx, LogMessagePrefix+Greet(name), slog.String(NameAttribute, name))
}
