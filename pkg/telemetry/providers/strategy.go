// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package providers

import (
	"context"
	"fmt"
	"net/http"

	"go.opentelemetry.io/otel/log"
	lognoop "go.opentelemetry.io/otel/log/noop"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/stacklok/otel-greeter/pkg/telemetry/providers/otlp"
	"github.com/stacklok/otel-greeter/pkg/telemetry/providers/prometheus"
)

// TracerStrategy builds a tracer provider for a configuration.
type TracerStrategy interface {
	CreateTracerProvider(ctx context.Context, config Config, res *resource.Resource) (
		trace.TracerProvider, func(context.Context) error, error)
}

// MeterStrategy builds a meter provider for a configuration.
type MeterStrategy interface {
	CreateMeterProvider(ctx context.Context, config Config, res *resource.Resource) (*MeterResult, error)
}

// LoggerStrategy builds an OTel logger provider for a configuration.
type LoggerStrategy interface {
	CreateLoggerProvider(ctx context.Context, config Config, res *resource.Resource) (
		log.LoggerProvider, func(context.Context) error, error)
}

// MeterResult is the outcome of a MeterStrategy.
type MeterResult struct {
	MeterProvider     metric.MeterProvider
	PrometheusHandler http.Handler
	ShutdownFunc      func(context.Context) error
}

// StrategySelector picks the provider strategies for a configuration.
type StrategySelector struct {
	config Config
}

// NewStrategySelector creates a selector for config.
func NewStrategySelector(config Config) *StrategySelector {
	return &StrategySelector{config: config}
}

// SelectTracerStrategy returns the OTLP strategy when an endpoint is set and tracing is enabled.
func (s *StrategySelector) SelectTracerStrategy() TracerStrategy {
	if s.config.OTLPEndpoint != "" && s.config.TracingEnabled {
		return &OTLPTracerStrategy{}
	}
	return &NoOpTracerStrategy{}
}

// SelectMeterStrategy returns the unified strategy when any metric reader is needed.
func (s *StrategySelector) SelectMeterStrategy() MeterStrategy {
	if s.otlpMetrics() || s.config.EnablePrometheusMetricsPath {
		return &UnifiedMeterStrategy{}
	}
	return &NoOpMeterStrategy{}
}

// SelectLoggerStrategy returns the OTLP strategy when an endpoint is set and logs are enabled.
func (s *StrategySelector) SelectLoggerStrategy() LoggerStrategy {
	if s.config.OTLPEndpoint != "" && s.config.LogsEnabled {
		return &OTLPLoggerStrategy{}
	}
	return &NoOpLoggerStrategy{}
}

// IsFullyNoOp reports whether no signal would be exported or served.
func (s *StrategySelector) IsFullyNoOp() bool {
	_, noopTracer := s.SelectTracerStrategy().(*NoOpTracerStrategy)
	_, noopMeter := s.SelectMeterStrategy().(*NoOpMeterStrategy)
	_, noopLogger := s.SelectLoggerStrategy().(*NoOpLoggerStrategy)
	return noopTracer && noopMeter && noopLogger
}

func (s *StrategySelector) otlpMetrics() bool {
	return s.config.OTLPEndpoint != "" && s.config.MetricsEnabled
}

// NoOpTracerStrategy discards spans.
type NoOpTracerStrategy struct{}

// CreateTracerProvider returns a no-op tracer provider.
func (*NoOpTracerStrategy) CreateTracerProvider(
	_ context.Context, _ Config, _ *resource.Resource,
) (trace.TracerProvider, func(context.Context) error, error) {
	return tracenoop.NewTracerProvider(), nil, nil
}

// OTLPTracerStrategy exports spans over OTLP.
type OTLPTracerStrategy struct{}

// CreateTracerProvider returns an SDK tracer provider with an OTLP batcher.
func (*OTLPTracerStrategy) CreateTracerProvider(
	ctx context.Context, config Config, res *resource.Resource,
) (trace.TracerProvider, func(context.Context) error, error) {
	return otlp.NewTracerProviderWithShutdown(ctx, otlpConfig(config), res)
}

// NoOpMeterStrategy discards measurements.
type NoOpMeterStrategy struct{}

// CreateMeterProvider returns a no-op meter provider.
func (*NoOpMeterStrategy) CreateMeterProvider(
	_ context.Context, _ Config, _ *resource.Resource,
) (*MeterResult, error) {
	return &MeterResult{MeterProvider: noop.NewMeterProvider()}, nil
}

// UnifiedMeterStrategy builds one SDK meter provider with an OTLP periodic
// reader, a Prometheus pull reader, or both.
type UnifiedMeterStrategy struct{}

// CreateMeterProvider returns the SDK meter provider with every configured reader attached.
func (*UnifiedMeterStrategy) CreateMeterProvider(
	ctx context.Context, config Config, res *resource.Resource,
) (*MeterResult, error) {
	opts := []sdkmetric.Option{sdkmetric.WithResource(res)}
	result := &MeterResult{}

	if config.OTLPEndpoint != "" && config.MetricsEnabled {
		reader, err := otlp.NewMetricReader(ctx, otlpConfig(config))
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP metric reader: %w", err)
		}
		opts = append(opts, sdkmetric.WithReader(reader))
	}

	if config.EnablePrometheusMetricsPath {
		reader, handler, err := prometheus.NewReader(prometheus.Config{
			EnableMetricsPath:     true,
			IncludeRuntimeMetrics: true,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create Prometheus reader: %w", err)
		}
		opts = append(opts, sdkmetric.WithReader(reader))
		result.PrometheusHandler = handler
	}

	provider := sdkmetric.NewMeterProvider(opts...)
	result.MeterProvider = provider
	result.ShutdownFunc = provider.Shutdown
	return result, nil
}

// NoOpLoggerStrategy discards log records.
type NoOpLoggerStrategy struct{}

// CreateLoggerProvider returns a no-op logger provider.
func (*NoOpLoggerStrategy) CreateLoggerProvider(
	_ context.Context, _ Config, _ *resource.Resource,
) (log.LoggerProvider, func(context.Context) error, error) {
	return lognoop.NewLoggerProvider(), nil, nil
}

// OTLPLoggerStrategy exports log records over OTLP.
type OTLPLoggerStrategy struct{}

// CreateLoggerProvider returns an SDK logger provider with an OTLP batch processor.
func (*OTLPLoggerStrategy) CreateLoggerProvider(
	ctx context.Context, config Config, res *resource.Resource,
) (log.LoggerProvider, func(context.Context) error, error) {
	return otlp.NewLoggerProviderWithShutdown(ctx, otlpConfig(config), res)
}

func otlpConfig(config Config) otlp.Config {
	return otlp.Config{
		Endpoint:       config.OTLPEndpoint,
		Protocol:       config.Protocol,
		Headers:        config.Headers,
		Insecure:       config.Insecure,
		SamplingRate:   config.SamplingRate,
		ExportInterval: config.MetricExportInterval,
	}
}
