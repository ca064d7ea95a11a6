// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package config loads greeter service settings from flags, GREETER_*
// environment variables and defaults through viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/stacklok/otel-greeter/pkg/errors"
	"github.com/stacklok/otel-greeter/pkg/telemetry"
	"github.com/stacklok/otel-greeter/pkg/telemetry/providers/otlp"
	"github.com/stacklok/otel-greeter/pkg/versions"
)

// EnvPrefix prefixes every environment variable read by the services.
const EnvPrefix = "GREETER"

// Viper keys
const (
	KeyAddress                     = "address"
	KeyDebug                       = "debug"
	KeyServiceName                 = "telemetry.service-name"
	KeyEndpoint                    = "telemetry.endpoint"
	KeyProtocol                    = "telemetry.protocol"
	KeyInsecure                    = "telemetry.insecure"
	KeyHeaders                     = "telemetry.headers"
	KeyResourceAttributes          = "telemetry.resource-attributes"
	KeyTracingEnabled              = "telemetry.tracing-enabled"
	KeyMetricsEnabled              = "telemetry.metrics-enabled"
	KeyLogsEnabled                 = "telemetry.logs-enabled"
	KeySamplingRate                = "telemetry.sampling-rate"
	KeyMetricExportInterval        = "telemetry.metric-export-interval"
	KeyEnablePrometheusMetricsPath = "telemetry.enable-prometheus-metrics-path"
)

// DefaultAddress is the listen address used when none is configured.
const DefaultAddress = ":8080"

// Defaults are the per-binary starting values.
type Defaults struct {
	ServiceName    string
	TracingEnabled bool
	MetricsEnabled bool
	LogsEnabled    bool
}

// Config is the resolved service configuration.
type Config struct {
	Address   string
	Debug     bool
	Telemetry TelemetryConfig
}

// TelemetryConfig is the telemetry section of Config.
type TelemetryConfig struct {
	ServiceName                 string
	Endpoint                    string
	Protocol                    string
	Insecure                    bool
	Headers                     map[string]string
	ResourceAttributes          map[string]string
	TracingEnabled              bool
	MetricsEnabled              bool
	LogsEnabled                 bool
	SamplingRate                float64
	MetricExportInterval        time.Duration
	EnablePrometheusMetricsPath bool
}

// Setup registers defaults and environment binding on v.
func Setup(v *viper.Viper, d Defaults) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyAddress, DefaultAddress)
	v.SetDefault(KeyDebug, false)
	v.SetDefault(KeyServiceName, d.ServiceName)
	v.SetDefault(KeyEndpoint, "")
	v.SetDefault(KeyProtocol, otlp.ProtocolHTTP)
	v.SetDefault(KeyInsecure, true)
	v.SetDefault(KeyHeaders, "")
	v.SetDefault(KeyResourceAttributes, "")
	v.SetDefault(KeyTracingEnabled, d.TracingEnabled)
	v.SetDefault(KeyMetricsEnabled, d.MetricsEnabled)
	v.SetDefault(KeyLogsEnabled, d.LogsEnabled)
	v.SetDefault(KeySamplingRate, 1.0)
	v.SetDefault(KeyMetricExportInterval, time.Duration(0))
	v.SetDefault(KeyEnablePrometheusMetricsPath, false)
}

// Load resolves the configuration from v.
func Load(v *viper.Viper) (*Config, error) {
	headers, err := telemetry.ParseKeyValuePairs(v.GetString(KeyHeaders))
	if err != nil {
		return nil, errors.NewInvalidArgumentError(fmt.Sprintf("invalid %s", KeyHeaders), err)
	}
	attrs, err := telemetry.ParseKeyValuePairs(v.GetString(KeyResourceAttributes))
	if err != nil {
		return nil, errors.NewInvalidArgumentError(fmt.Sprintf("invalid %s", KeyResourceAttributes), err)
	}

	cfg := &Config{
		Address: v.GetString(KeyAddress),
		Debug:   v.GetBool(KeyDebug),
		Telemetry: TelemetryConfig{
			ServiceName:                 v.GetString(KeyServiceName),
			Endpoint:                    v.GetString(KeyEndpoint),
			Protocol:                    v.GetString(KeyProtocol),
			Insecure:                    v.GetBool(KeyInsecure),
			Headers:                     headers,
			ResourceAttributes:          attrs,
			TracingEnabled:              v.GetBool(KeyTracingEnabled),
			MetricsEnabled:              v.GetBool(KeyMetricsEnabled),
			LogsEnabled:                 v.GetBool(KeyLogsEnabled),
			SamplingRate:                v.GetFloat64(KeySamplingRate),
			MetricExportInterval:        v.GetDuration(KeyMetricExportInterval),
			EnablePrometheusMetricsPath: v.GetBool(KeyEnablePrometheusMetricsPath),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the fields that telemetry.NewProvider does not.
func (c *Config) Validate() error {
	if c.Address == "" {
		return errors.NewInvalidArgumentError(fmt.Sprintf("%s cannot be empty", KeyAddress), nil)
	}
	if c.Telemetry.ServiceName == "" {
		return errors.NewInvalidArgumentError(fmt.Sprintf("%s cannot be empty", KeyServiceName), nil)
	}
	if c.Telemetry.MetricExportInterval < 0 {
		return errors.NewInvalidArgumentError(
			fmt.Sprintf("%s cannot be negative, got %s", KeyMetricExportInterval, c.Telemetry.MetricExportInterval), nil)
	}
	return nil
}

// TelemetryConfig converts the telemetry section for telemetry.NewProvider.
func (c *Config) TelemetryConfig(instanceID string) telemetry.Config {
	tc := telemetry.DefaultConfig(c.Telemetry.ServiceName)
	tc.ServiceVersion = versions.GetVersionInfo().Version
	tc.ServiceInstanceID = instanceID
	tc.Endpoint = c.Telemetry.Endpoint
	tc.Protocol = c.Telemetry.Protocol
	tc.Insecure = c.Telemetry.Insecure
	tc.Headers = c.Telemetry.Headers
	tc.ResourceAttributes = c.Telemetry.ResourceAttributes
	tc.TracingEnabled = c.Telemetry.TracingEnabled
	tc.MetricsEnabled = c.Telemetry.MetricsEnabled
	tc.LogsEnabled = c.Telemetry.LogsEnabled
	tc.SamplingRate = c.Telemetry.SamplingRate
	tc.MetricExportInterval = c.Telemetry.MetricExportInterval
	tc.EnablePrometheusMetricsPath = c.Telemetry.EnablePrometheusMetricsPath
	return tc
}
