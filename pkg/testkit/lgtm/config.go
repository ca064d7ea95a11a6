// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package lgtm

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	// DefaultImage is the Grafana LGTM all-in-one image
	DefaultImage = "docker.io/grafana/otel-lgtm:0.6.0"

	// DefaultContainerName names the reusable container
	DefaultContainerName = "otel-greeter-lgtm"

	// DefaultStartupTimeout bounds the wait for the readiness log line
	DefaultStartupTimeout = 2 * time.Minute

	// DefaultMetricExportInterval is the collector's metric export period in milliseconds
	DefaultMetricExportInterval = "500"

	// ReadyLogPattern matches the line the image prints once every component is up
	ReadyLogPattern = `.*The OpenTelemetry collector and the Grafana LGTM stack are up and running.*\s`

	// Container ports
	GrafanaPort  = "3000/tcp"
	OTLPGRPCPort = "4317/tcp"
	OTLPHTTPPort = "4318/tcp"
)

// Config controls how the LGTM backend is started.
type Config struct {
	Image                string        `env:"LGTM_IMAGE"                  envDefault:"docker.io/grafana/otel-lgtm:0.6.0"`
	Reuse                bool          `env:"LGTM_REUSE"                  envDefault:"true"`
	ContainerName        string        `env:"LGTM_CONTAINER_NAME"         envDefault:"otel-greeter-lgtm"`
	StartupTimeout       time.Duration `env:"LGTM_STARTUP_TIMEOUT"        envDefault:"2m"`
	MetricExportInterval string        `env:"LGTM_METRIC_EXPORT_INTERVAL" envDefault:"500"`
	GrafanaUser          string        `env:"LGTM_GRAFANA_USER"           envDefault:"admin"`
	GrafanaPassword      string        `env:"LGTM_GRAFANA_PASSWORD"       envDefault:"admin"`
}

// DefaultConfig returns the configuration used when no LGTM_* variable is set.
func DefaultConfig() Config {
	return Config{
		Image:                DefaultImage,
		Reuse:                true,
		ContainerName:        DefaultContainerName,
		StartupTimeout:       DefaultStartupTimeout,
		MetricExportInterval: DefaultMetricExportInterval,
		GrafanaUser:          "admin",
		GrafanaPassword:      "admin",
	}
}

// LoadConfigFromEnv reads LGTM_* variables over the defaults.
func LoadConfigFromEnv() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cfg for values testcontainers would reject.
func (c Config) Validate() error {
	if c.Image == "" {
		return fmt.Errorf("LGTM_IMAGE cannot be empty")
	}
	if c.StartupTimeout <= 0 {
		return fmt.Errorf("LGTM_STARTUP_TIMEOUT must be positive, got %s", c.StartupTimeout)
	}
	// Docker only reuses containers it can find by name.
	if c.Reuse && c.ContainerName == "" {
		return fmt.Errorf("LGTM_CONTAINER_NAME is required when LGTM_REUSE is set")
	}
	return nil
}
