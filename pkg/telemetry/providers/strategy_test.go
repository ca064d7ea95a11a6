// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package providers

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

func createTestResource(t *testing.T) *resource.Resource {
	t.Helper()
	res, err := resource.New(context.Background(),
		resource.WithAttributes(
			semconv.ServiceName("test-service"),
			semconv.ServiceVersion("1.0.0"),
		),
	)
	require.NoError(t, err)
	return res
}

func getTypeName(v any) string {
	return fmt.Sprintf("%T", v)
}

func TestStrategySelector_SelectTracerStrategy(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		config       Config
		expectedType string
	}{
		{
			name:         "OTLP tracer when endpoint and tracing enabled",
			config:       Config{OTLPEndpoint: "localhost:4318", TracingEnabled: true},
			expectedType: "*providers.OTLPTracerStrategy",
		},
		{
			name:         "NoOp tracer when tracing disabled",
			config:       Config{OTLPEndpoint: "localhost:4318"},
			expectedType: "*providers.NoOpTracerStrategy",
		},
		{
			name:         "NoOp tracer when no endpoint",
			config:       Config{TracingEnabled: true},
			expectedType: "*providers.NoOpTracerStrategy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			strategy := NewStrategySelector(tt.config).SelectTracerStrategy()
			assert.Equal(t, tt.expectedType, getTypeName(strategy))
		})
	}
}

func TestStrategySelector_SelectMeterStrategy(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		config       Config
		expectedType string
	}{
		{
			name:         "Unified meter when OTLP metrics enabled",
			config:       Config{OTLPEndpoint: "localhost:4318", MetricsEnabled: true},
			expectedType: "*providers.UnifiedMeterStrategy",
		},
		{
			name:         "Unified meter when Prometheus enabled",
			config:       Config{EnablePrometheusMetricsPath: true},
			expectedType: "*providers.UnifiedMeterStrategy",
		},
		{
			name:         "NoOp meter when metrics disabled",
			config:       Config{OTLPEndpoint: "localhost:4318"},
			expectedType: "*providers.NoOpMeterStrategy",
		},
		{
			name:         "NoOp meter when empty config",
			config:       Config{},
			expectedType: "*providers.NoOpMeterStrategy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			strategy := NewStrategySelector(tt.config).SelectMeterStrategy()
			assert.Equal(t, tt.expectedType, getTypeName(strategy))
		})
	}
}

func TestStrategySelector_SelectLoggerStrategy(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		config       Config
		expectedType string
	}{
		{
			name:         "OTLP logger when endpoint and logs enabled",
			config:       Config{OTLPEndpoint: "localhost:4318", LogsEnabled: true},
			expectedType: "*providers.OTLPLoggerStrategy",
		},
		{
			name:         "NoOp logger when logs disabled",
			config:       Config{OTLPEndpoint: "localhost:4318", TracingEnabled: true},
			expectedType: "*providers.NoOpLoggerStrategy",
		},
		{
			name:         "NoOp logger without endpoint",
			config:       Config{LogsEnabled: true},
			expectedType: "*providers.NoOpLoggerStrategy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			strategy := NewStrategySelector(tt.config).SelectLoggerStrategy()
			assert.Equal(t, tt.expectedType, getTypeName(strategy))
		})
	}
}

func TestStrategySelector_IsFullyNoOp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		config   Config
		expected bool
	}{
		{"nothing configured", Config{}, true},
		{"endpoint but nothing enabled", Config{OTLPEndpoint: "localhost:4318"}, true},
		{"signals enabled without endpoint", Config{TracingEnabled: true, MetricsEnabled: true, LogsEnabled: true}, true},
		{"tracing", Config{OTLPEndpoint: "localhost:4318", TracingEnabled: true}, false},
		{"metrics", Config{OTLPEndpoint: "localhost:4318", MetricsEnabled: true}, false},
		{"logs", Config{OTLPEndpoint: "localhost:4318", LogsEnabled: true}, false},
		{"prometheus", Config{EnablePrometheusMetricsPath: true}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, NewStrategySelector(tt.config).IsFullyNoOp())
		})
	}
}

func TestNoOpStrategies(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	res := createTestResource(t)

	tp, tracerShutdown, err := (&NoOpTracerStrategy{}).CreateTracerProvider(ctx, Config{}, res)
	require.NoError(t, err)
	assert.Contains(t, getTypeName(tp), "noop")
	assert.Nil(t, tracerShutdown)

	mr, err := (&NoOpMeterStrategy{}).CreateMeterProvider(ctx, Config{}, res)
	require.NoError(t, err)
	assert.Contains(t, getTypeName(mr.MeterProvider), "noop")
	assert.Nil(t, mr.PrometheusHandler)
	assert.Nil(t, mr.ShutdownFunc)

	lp, loggerShutdown, err := (&NoOpLoggerStrategy{}).CreateLoggerProvider(ctx, Config{}, res)
	require.NoError(t, err)
	assert.Contains(t, getTypeName(lp), "noop")
	assert.Nil(t, loggerShutdown)
}

func TestOTLPTracerStrategy_CreateTracerProvider(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		config Config
	}{
		{"http", Config{OTLPEndpoint: "localhost:4318", Insecure: true, SamplingRate: 0.1}},
		{"http with headers", Config{OTLPEndpoint: "localhost:4318", Insecure: true, SamplingRate: 1.0,
			Headers: map[string]string{"Authorization": "Bearer token"}}},
		{"grpc", Config{OTLPEndpoint: "localhost:4317", Protocol: "grpc", Insecure: true, SamplingRate: 1.0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctx := context.Background()
			provider, shutdown, err := (&OTLPTracerStrategy{}).CreateTracerProvider(ctx, tt.config, createTestResource(t))
			require.NoError(t, err)
			require.NotNil(t, shutdown)
			assert.NotContains(t, getTypeName(provider), "noop")
			_ = shutdown(ctx)
		})
	}
}

func TestUnifiedMeterStrategy_Configurations(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		config        Config
		expectHandler bool
		expectErr     bool
	}{
		{
			name:   "OTLP only",
			config: Config{OTLPEndpoint: "localhost:4318", MetricsEnabled: true, Insecure: true},
		},
		{
			name:          "Prometheus only",
			config:        Config{EnablePrometheusMetricsPath: true},
			expectHandler: true,
		},
		{
			name: "both readers",
			config: Config{
				OTLPEndpoint:                "localhost:4317",
				Protocol:                    "grpc",
				MetricsEnabled:              true,
				Insecure:                    true,
				EnablePrometheusMetricsPath: true,
			},
			expectHandler: true,
		},
		{
			name:      "bad protocol",
			config:    Config{OTLPEndpoint: "localhost:4318", Protocol: "carrier-pigeon", MetricsEnabled: true},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctx := context.Background()
			result, err := (&UnifiedMeterStrategy{}).CreateMeterProvider(ctx, tt.config, createTestResource(t))
			if tt.expectErr {
				assert.Error(t, err)
				assert.Nil(t, result)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, result.ShutdownFunc)
			assert.NotContains(t, getTypeName(result.MeterProvider), "noop")
			if tt.expectHandler {
				assert.NotNil(t, result.PrometheusHandler)
			} else {
				assert.Nil(t, result.PrometheusHandler)
			}
			_ = result.ShutdownFunc(ctx)
		})
	}
}
