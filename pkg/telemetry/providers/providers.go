// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package providers contains telemetry provider implementations and builder logic
package providers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/log"
	lognoop "go.opentelemetry.io/otel/log/noop"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/stacklok/otel-greeter/pkg/logger"
)

// shutdownTimeout bounds the final flush of all providers.
const shutdownTimeout = 5 * time.Second

// Config holds the telemetry configuration for all providers.
type Config struct {
	// Service information
	ServiceName       string // ServiceName identifies the service for telemetry data
	ServiceVersion    string // ServiceVersion identifies the service version for telemetry data
	ServiceInstanceID string // ServiceInstanceID distinguishes processes of the same service

	// CustomAttributes are extra resource attributes attached to every signal
	CustomAttributes []attribute.KeyValue

	// OTLP configuration
	OTLPEndpoint         string            // OTLPEndpoint is the collector endpoint (e.g., "localhost:4318")
	Protocol             string            // Protocol is "http/protobuf" or "grpc"
	Headers              map[string]string // Headers are additional headers to send with OTLP requests
	Insecure             bool              // Insecure disables TLS for OTLP
	TracingEnabled       bool              // TracingEnabled controls OTLP trace export
	MetricsEnabled       bool              // MetricsEnabled controls OTLP metric export
	LogsEnabled          bool              // LogsEnabled controls OTLP log export
	SamplingRate         float64           // SamplingRate controls trace sampling (0.0 to 1.0)
	MetricExportInterval time.Duration     // MetricExportInterval overrides the periodic reader interval

	// Prometheus configuration
	EnablePrometheusMetricsPath bool // EnablePrometheusMetricsPath enables the Prometheus /metrics endpoint
}

// ProviderOption is an option type used to configure the telemetry providers
type ProviderOption func(*Config) error

// WithServiceName sets the service name
func WithServiceName(serviceName string) ProviderOption {
	return func(config *Config) error {
		if serviceName == "" {
			return fmt.Errorf("service name cannot be empty")
		}
		config.ServiceName = serviceName
		return nil
	}
}

// WithServiceVersion sets the service version
func WithServiceVersion(serviceVersion string) ProviderOption {
	return func(config *Config) error {
		if serviceVersion == "" {
			return fmt.Errorf("service version cannot be empty")
		}
		config.ServiceVersion = serviceVersion
		return nil
	}
}

// WithServiceInstanceID sets the service instance id
func WithServiceInstanceID(id string) ProviderOption {
	return func(config *Config) error {
		config.ServiceInstanceID = id
		return nil
	}
}

// WithCustomAttributes sets extra resource attributes
func WithCustomAttributes(attrs []attribute.KeyValue) ProviderOption {
	return func(config *Config) error {
		config.CustomAttributes = attrs
		return nil
	}
}

// WithOTLPEndpoint sets the OTLP endpoint
func WithOTLPEndpoint(endpoint string) ProviderOption {
	return func(config *Config) error {
		config.OTLPEndpoint = endpoint
		return nil
	}
}

// WithProtocol sets the OTLP wire protocol
func WithProtocol(protocol string) ProviderOption {
	return func(config *Config) error {
		config.Protocol = protocol
		return nil
	}
}

// WithHeaders sets the headers
func WithHeaders(headers map[string]string) ProviderOption {
	return func(config *Config) error {
		config.Headers = headers
		return nil
	}
}

// WithInsecure sets the insecure flag
func WithInsecure(insecure bool) ProviderOption {
	return func(config *Config) error {
		config.Insecure = insecure
		return nil
	}
}

// WithTracingEnabled sets the tracing enabled flag
func WithTracingEnabled(tracingEnabled bool) ProviderOption {
	return func(config *Config) error {
		config.TracingEnabled = tracingEnabled
		return nil
	}
}

// WithMetricsEnabled sets the metrics enabled flag
func WithMetricsEnabled(metricsEnabled bool) ProviderOption {
	return func(config *Config) error {
		config.MetricsEnabled = metricsEnabled
		return nil
	}
}

// WithLogsEnabled sets the logs enabled flag
func WithLogsEnabled(logsEnabled bool) ProviderOption {
	return func(config *Config) error {
		config.LogsEnabled = logsEnabled
		return nil
	}
}

// WithSamplingRate sets the sampling rate
func WithSamplingRate(samplingRate float64) ProviderOption {
	return func(config *Config) error {
		if samplingRate < 0 || samplingRate > 1 {
			return fmt.Errorf("sampling rate must be between 0.0 and 1.0, got %v", samplingRate)
		}
		config.SamplingRate = samplingRate
		return nil
	}
}

// WithMetricExportInterval sets the periodic metric export interval
func WithMetricExportInterval(interval time.Duration) ProviderOption {
	return func(config *Config) error {
		if interval < 0 {
			return fmt.Errorf("metric export interval cannot be negative")
		}
		config.MetricExportInterval = interval
		return nil
	}
}

// WithEnablePrometheusMetricsPath sets the enable prometheus metrics path flag
func WithEnablePrometheusMetricsPath(enablePrometheusMetricsPath bool) ProviderOption {
	return func(config *Config) error {
		config.EnablePrometheusMetricsPath = enablePrometheusMetricsPath
		return nil
	}
}

// CompositeProvider combines telemetry providers into a single interface.
// It manages tracer, meter and logger providers, the Prometheus handler, and cleanup.
type CompositeProvider struct {
	tracerProvider    trace.TracerProvider
	meterProvider     metric.MeterProvider
	loggerProvider    log.LoggerProvider
	prometheusHandler http.Handler
	shutdownFuncs     []func(context.Context) error
}

// NewCompositeProvider creates the appropriate providers based on provided options
func NewCompositeProvider(
	ctx context.Context,
	options ...ProviderOption,
) (*CompositeProvider, error) {
	config := Config{}
	for _, option := range options {
		if err := option(&config); err != nil {
			return nil, err
		}
	}

	res, err := newResource(ctx, config)
	if err != nil {
		return nil, err
	}

	selector := NewStrategySelector(config)

	if selector.IsFullyNoOp() {
		logger.Infof("No telemetry configured, using no-op providers")
		return createNoOpProvider(), nil
	}

	return buildProviders(ctx, config, selector, res)
}

func newResource(ctx context.Context, config Config) (*resource.Resource, error) {
	attrs := []resource.Option{
		resource.WithFromEnv(),
		resource.WithAttributes(config.CustomAttributes...),
		resource.WithAttributes(
			semconv.ServiceName(config.ServiceName),
			semconv.ServiceVersion(config.ServiceVersion),
		),
	}
	if config.ServiceInstanceID != "" {
		attrs = append(attrs, resource.WithAttributes(semconv.ServiceInstanceID(config.ServiceInstanceID)))
	}

	res, err := resource.New(ctx, attrs...)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource with service name '%s' and version '%s': %w",
			config.ServiceName, config.ServiceVersion, err)
	}
	return res, nil
}

func createNoOpProvider() *CompositeProvider {
	return &CompositeProvider{
		tracerProvider:    tracenoop.NewTracerProvider(),
		meterProvider:     noop.NewMeterProvider(),
		loggerProvider:    lognoop.NewLoggerProvider(),
		prometheusHandler: nil,
		shutdownFuncs:     []func(context.Context) error{},
	}
}

func buildProviders(
	ctx context.Context,
	config Config,
	selector *StrategySelector,
	res *resource.Resource,
) (*CompositeProvider, error) {
	composite := &CompositeProvider{
		shutdownFuncs: []func(context.Context) error{},
	}

	if err := createMetricsProvider(ctx, config, composite, selector, res); err != nil {
		return nil, err
	}

	if err := createTracingProvider(ctx, config, composite, selector, res); err != nil {
		return nil, err
	}

	if err := createLoggingProvider(ctx, config, composite, selector, res); err != nil {
		return nil, err
	}

	logger.Infow("Telemetry providers created",
		"endpoint", config.OTLPEndpoint,
		"protocol", config.Protocol,
		"tracing", config.TracingEnabled,
		"metrics", config.MetricsEnabled,
		"logs", config.LogsEnabled,
		"prometheus", config.EnablePrometheusMetricsPath,
	)
	return composite, nil
}

func createMetricsProvider(
	ctx context.Context,
	config Config,
	composite *CompositeProvider,
	selector *StrategySelector,
	res *resource.Resource,
) error {
	meterResult, err := selector.SelectMeterStrategy().CreateMeterProvider(ctx, config, res)
	if err != nil {
		return fmt.Errorf(
			"failed to create meter provider with config (endpoint: %s, metrics enabled: %t, prometheus enabled: %t): %w",
			config.OTLPEndpoint,
			config.MetricsEnabled,
			config.EnablePrometheusMetricsPath,
			err)
	}

	composite.meterProvider = meterResult.MeterProvider
	composite.prometheusHandler = meterResult.PrometheusHandler

	if meterResult.ShutdownFunc != nil {
		composite.shutdownFuncs = append(composite.shutdownFuncs, meterResult.ShutdownFunc)
	}
	return nil
}

func createTracingProvider(
	ctx context.Context,
	config Config,
	composite *CompositeProvider,
	selector *StrategySelector,
	res *resource.Resource,
) error {
	tracerProvider, tracerShutdown, err := selector.SelectTracerStrategy().CreateTracerProvider(ctx, config, res)
	if err != nil {
		return fmt.Errorf("failed to create tracer provider with config (endpoint: %s, tracing enabled: %t): %w",
			config.OTLPEndpoint,
			config.TracingEnabled,
			err)
	}

	composite.tracerProvider = tracerProvider

	if tracerShutdown != nil {
		composite.shutdownFuncs = append(composite.shutdownFuncs, tracerShutdown)
	}
	return nil
}

func createLoggingProvider(
	ctx context.Context,
	config Config,
	composite *CompositeProvider,
	selector *StrategySelector,
	res *resource.Resource,
) error {
	loggerProvider, loggerShutdown, err := selector.SelectLoggerStrategy().CreateLoggerProvider(ctx, config, res)
	if err != nil {
		return fmt.Errorf("failed to create logger provider with config (endpoint: %s, logs enabled: %t): %w",
			config.OTLPEndpoint,
			config.LogsEnabled,
			err)
	}

	composite.loggerProvider = loggerProvider

	if loggerShutdown != nil {
		composite.shutdownFuncs = append(composite.shutdownFuncs, loggerShutdown)
	}
	return nil
}

// TracerProvider returns the tracer provider
func (p *CompositeProvider) TracerProvider() trace.TracerProvider {
	return p.tracerProvider
}

// MeterProvider returns the meter provider
func (p *CompositeProvider) MeterProvider() metric.MeterProvider {
	return p.meterProvider
}

// LoggerProvider returns the OTel logger provider
func (p *CompositeProvider) LoggerProvider() log.LoggerProvider {
	return p.loggerProvider
}

// PrometheusHandler returns the Prometheus metrics handler if configured
func (p *CompositeProvider) PrometheusHandler() http.Handler {
	return p.prometheusHandler
}

// Shutdown flushes and shuts down all providers. Every provider is given the
// chance to shut down even when an earlier one fails.
func (p *CompositeProvider) Shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	var errs []error
	for i, shutdown := range p.shutdownFuncs {
		if err := shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("provider %d shutdown failed: %w", i, err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown failed with %d errors: %v", len(errs), errs)
	}
	return nil
}
