// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package providers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCompositeProvider_NoOp(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	provider, err := NewCompositeProvider(ctx,
		WithServiceName("metrics-otel"),
		WithServiceVersion("1.0.0"),
	)
	require.NoError(t, err)

	assert.Contains(t, getTypeName(provider.TracerProvider()), "noop")
	assert.Contains(t, getTypeName(provider.MeterProvider()), "noop")
	assert.Contains(t, getTypeName(provider.LoggerProvider()), "noop")
	assert.Nil(t, provider.PrometheusHandler())
	assert.NoError(t, provider.Shutdown(ctx))
}

func TestNewCompositeProvider_AllSignals(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	provider, err := NewCompositeProvider(ctx,
		WithServiceName("traces-otel"),
		WithServiceVersion("1.0.0"),
		WithServiceInstanceID("instance-1"),
		WithOTLPEndpoint("localhost:4318"),
		WithInsecure(true),
		WithTracingEnabled(true),
		WithMetricsEnabled(true),
		WithLogsEnabled(true),
		WithSamplingRate(1.0),
		WithMetricExportInterval(500*time.Millisecond),
		WithEnablePrometheusMetricsPath(true),
	)
	require.NoError(t, err)

	assert.NotContains(t, getTypeName(provider.TracerProvider()), "noop")
	assert.NotContains(t, getTypeName(provider.MeterProvider()), "noop")
	assert.NotContains(t, getTypeName(provider.LoggerProvider()), "noop")
	require.NotNil(t, provider.PrometheusHandler())
	assert.Len(t, provider.shutdownFuncs, 3)

	counter, err := provider.MeterProvider().Meter("test").Int64Counter("greetings.total")
	require.NoError(t, err)
	counter.Add(ctx, 1)

	rec := httptest.NewRecorder()
	provider.PrometheusHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "greetings_total")

	// no collector is listening; shutdown errors are tolerated
	_ = provider.Shutdown(ctx)
}

func TestNewCompositeProvider_OptionErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		option ProviderOption
		errMsg string
	}{
		{"empty service name", WithServiceName(""), "service name cannot be empty"},
		{"empty service version", WithServiceVersion(""), "service version cannot be empty"},
		{"sampling rate above one", WithSamplingRate(1.5), "sampling rate must be between"},
		{"sampling rate below zero", WithSamplingRate(-0.1), "sampling rate must be between"},
		{"negative export interval", WithMetricExportInterval(-time.Second), "cannot be negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			provider, err := NewCompositeProvider(context.Background(), tt.option)
			assert.Nil(t, provider)
			assert.ErrorContains(t, err, tt.errMsg)
		})
	}
}

func TestNewCompositeProvider_BadProtocol(t *testing.T) {
	t.Parallel()

	provider, err := NewCompositeProvider(context.Background(),
		WithServiceName("metrics-otel"),
		WithServiceVersion("1.0.0"),
		WithOTLPEndpoint("localhost:4318"),
		WithProtocol("http/json"),
		WithMetricsEnabled(true),
	)
	assert.Nil(t, provider)
	assert.ErrorContains(t, err, "failed to create meter provider")
}

func TestCompositeProvider_Shutdown(t *testing.T) {
	t.Parallel()

	var calls []int
	provider := &CompositeProvider{
		shutdownFuncs: []func(context.Context) error{
			func(context.Context) error { calls = append(calls, 0); return errors.New("first failed") },
			func(context.Context) error { calls = append(calls, 1); return nil },
			func(context.Context) error { calls = append(calls, 2); return errors.New("third failed") },
		},
	}

	err := provider.Shutdown(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "shutdown failed with 2 errors")
	assert.Equal(t, []int{0, 1, 2}, calls, "every provider must get a shutdown call")
}

func TestCompositeProvider_ShutdownTimeout(t *testing.T) {
	t.Parallel()

	provider := &CompositeProvider{
		shutdownFuncs: []func(context.Context) error{
			func(ctx context.Context) error {
				deadline, ok := ctx.Deadline()
				require.True(t, ok)
				assert.WithinDuration(t, time.Now().Add(shutdownTimeout), deadline, time.Second)
				return nil
			},
		},
	}

	assert.NoError(t, provider.Shutdown(context.Background()))
}
