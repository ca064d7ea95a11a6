// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/stacklok/otel-greeter/pkg/errors"
	"github.com/stacklok/otel-greeter/pkg/logger"
	"github.com/stacklok/otel-greeter/pkg/telemetry/providers"
	"github.com/stacklok/otel-greeter/pkg/telemetry/providers/otlp"
	"github.com/stacklok/otel-greeter/pkg/versions"
)

// Config holds the configuration for OpenTelemetry instrumentation.
type Config struct {
	// Endpoint is the OTLP collector host:port, without scheme
	Endpoint string `json:"endpoint"`

	// Protocol is the OTLP wire protocol: "http/protobuf" or "grpc"
	Protocol string `json:"protocol"`

	// ServiceName is the service name for telemetry
	ServiceName string `json:"serviceName"`

	// ServiceVersion is the service version for telemetry
	ServiceVersion string `json:"serviceVersion"`

	// ServiceInstanceID identifies this process among instances of the service
	ServiceInstanceID string `json:"serviceInstanceId"`

	// TracingEnabled controls whether spans are exported
	TracingEnabled bool `json:"tracingEnabled"`

	// MetricsEnabled controls whether OTLP metrics are exported.
	// This is independent of EnablePrometheusMetricsPath
	MetricsEnabled bool `json:"metricsEnabled"`

	// LogsEnabled controls whether log records are exported through the OTLP log bridge
	LogsEnabled bool `json:"logsEnabled"`

	// SamplingRate is the trace sampling rate (0.0-1.0)
	SamplingRate float64 `json:"samplingRate"`

	// MetricExportInterval overrides the OTLP metric export period.
	// Zero defers to OTEL_METRIC_EXPORT_INTERVAL, then the SDK default of 60s
	MetricExportInterval time.Duration `json:"metricExportInterval"`

	// Headers contains authentication headers for the OTLP endpoint
	Headers map[string]string `json:"headers"`

	// ResourceAttributes are extra attributes attached to the telemetry resource
	ResourceAttributes map[string]string `json:"resourceAttributes"`

	// Insecure indicates whether to use HTTP instead of HTTPS for the OTLP endpoint
	Insecure bool `json:"insecure"`

	// EnablePrometheusMetricsPath exposes a Prometheus-style /metrics endpoint
	// on the service port, in addition to any OTLP export
	EnablePrometheusMetricsPath bool `json:"enablePrometheusMetricsPath"`
}

// DefaultConfig returns a default telemetry configuration for serviceName.
// Nothing is exported until an endpoint is configured.
func DefaultConfig(serviceName string) Config {
	versionInfo := versions.GetVersionInfo()
	return Config{
		Protocol:                    otlp.ProtocolHTTP,
		ServiceName:                 serviceName,
		ServiceVersion:              versionInfo.Version,
		TracingEnabled:              false,
		MetricsEnabled:              false,
		LogsEnabled:                 false,
		SamplingRate:                1.0,
		Headers:                     make(map[string]string),
		ResourceAttributes:          make(map[string]string),
		Insecure:                    true,
		EnablePrometheusMetricsPath: false,
	}
}

// Provider encapsulates OpenTelemetry providers and configuration.
type Provider struct {
	config            Config
	tracerProvider    trace.TracerProvider
	meterProvider     metric.MeterProvider
	loggerProvider    log.LoggerProvider
	prometheusHandler http.Handler
	shutdown          func(context.Context) error
}

// NewProvider creates a new OpenTelemetry provider with the given configuration
// and installs it as the global OTel provider set.
func NewProvider(ctx context.Context, config Config) (*Provider, error) {
	if err := validateOtelConfig(config); err != nil {
		return nil, err
	}

	telemetryOptions := []providers.ProviderOption{
		providers.WithServiceName(config.ServiceName),
		providers.WithServiceVersion(config.ServiceVersion),
		providers.WithServiceInstanceID(config.ServiceInstanceID),
		providers.WithCustomAttributes(ConvertMapToAttributes(config.ResourceAttributes)),
		providers.WithOTLPEndpoint(config.Endpoint),
		providers.WithProtocol(config.Protocol),
		providers.WithHeaders(config.Headers),
		providers.WithInsecure(config.Insecure),
		providers.WithTracingEnabled(config.TracingEnabled),
		providers.WithMetricsEnabled(config.MetricsEnabled),
		providers.WithLogsEnabled(config.LogsEnabled),
		providers.WithSamplingRate(config.SamplingRate),
		providers.WithMetricExportInterval(config.MetricExportInterval),
		providers.WithEnablePrometheusMetricsPath(config.EnablePrometheusMetricsPath),
	}

	telemetryProviders, err := providers.NewCompositeProvider(ctx, telemetryOptions...)
	if err != nil {
		return nil, errors.NewTelemetryError("failed to build telemetry providers", err)
	}

	return setGlobalProvidersAndReturn(telemetryProviders, config), nil
}

// setGlobalProvidersAndReturn sets the global providers for OTEL and returns the providers
func setGlobalProvidersAndReturn(telemetryProviders *providers.CompositeProvider, config Config) *Provider {
	tracingProvider := telemetryProviders.TracerProvider()
	meterProvider := telemetryProviders.MeterProvider()
	loggerProvider := telemetryProviders.LoggerProvider()

	otel.SetTracerProvider(tracingProvider)
	otel.SetMeterProvider(meterProvider)
	global.SetLoggerProvider(loggerProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	// Export failures surface here, never on the request path. The logger is
	// captured before the OTLP log bridge is attached so that a failing
	// export cannot feed itself more records.
	diagnostics := logger.Get()
	otel.SetLogger(logger.NewLogr())
	otel.SetErrorHandler(otel.ErrorHandlerFunc(func(err error) {
		diagnostics.Warn("telemetry export failed", "error", err)
	}))

	return &Provider{
		config:            config,
		tracerProvider:    tracingProvider,
		meterProvider:     meterProvider,
		loggerProvider:    loggerProvider,
		prometheusHandler: telemetryProviders.PrometheusHandler(),
		shutdown:          telemetryProviders.Shutdown,
	}
}

// Middleware returns an HTTP middleware that instruments requests with OpenTelemetry.
func (p *Provider) Middleware() func(http.Handler) http.Handler {
	return NewHTTPMiddleware(p.config, p.tracerProvider, p.meterProvider)
}

// LogHandler returns a slog.Handler that forwards records to the OTLP log
// exporter, or nil when log export is disabled.
func (p *Provider) LogHandler() slog.Handler {
	if !p.config.LogsEnabled || p.config.Endpoint == "" {
		return nil
	}
	return otelslog.NewHandler(instrumentationName, otelslog.WithLoggerProvider(p.loggerProvider))
}

// Shutdown flushes pending telemetry and shuts the providers down.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.shutdown != nil {
		return p.shutdown(ctx)
	}
	return nil
}

// Config returns the configuration the provider was built with.
func (p *Provider) Config() Config {
	return p.config
}

// TracerProvider returns the configured tracer provider.
func (p *Provider) TracerProvider() trace.TracerProvider {
	return p.tracerProvider
}

// MeterProvider returns the configured meter provider.
func (p *Provider) MeterProvider() metric.MeterProvider {
	return p.meterProvider
}

// LoggerProvider returns the configured OTel logger provider.
func (p *Provider) LoggerProvider() log.LoggerProvider {
	return p.loggerProvider
}

// PrometheusHandler returns the Prometheus metrics handler, or nil when the
// metrics path is disabled.
func (p *Provider) PrometheusHandler() http.Handler {
	return p.prometheusHandler
}

// validateOtelConfig validates the otel configuration
func validateOtelConfig(config Config) error {
	if config.Endpoint != "" && !config.TracingEnabled && !config.MetricsEnabled && !config.LogsEnabled {
		return errors.NewInvalidArgumentError(
			"OTLP endpoint is configured but tracing, metrics and logs are all disabled; "+
				"enable at least one signal or remove the endpoint", nil)
	}
	if strings.HasPrefix(config.Endpoint, "http://") || strings.HasPrefix(config.Endpoint, "https://") {
		return errors.NewInvalidArgumentError(
			fmt.Sprintf("OTLP endpoint %q should be host:port without http:// or https://", config.Endpoint), nil)
	}
	if config.SamplingRate < 0 || config.SamplingRate > 1 {
		return errors.NewInvalidArgumentError(
			fmt.Sprintf("sampling rate must be between 0.0 and 1.0, got %v", config.SamplingRate), nil)
	}
	if err := otlp.ValidateProtocol(config.Protocol); err != nil {
		return errors.NewInvalidArgumentError("invalid OTLP protocol", err)
	}
	return nil
}
