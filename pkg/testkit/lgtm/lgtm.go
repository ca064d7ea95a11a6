// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package lgtm starts the Grafana LGTM observability stack (an OTel
// collector in front of Loki, Grafana, Tempo and Mimir) as a disposable
// test dependency and queries what it received.
package lgtm

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/stacklok/otel-greeter/pkg/errors"
	"github.com/stacklok/otel-greeter/pkg/logger"
)

// Endpoints are the host-reachable addresses of a running backend.
type Endpoints struct {
	// GrafanaURL is the Grafana base URL, e.g. http://localhost:3000
	GrafanaURL string

	// OTLPGRPC is the OTLP/gRPC host:port
	OTLPGRPC string

	// OTLPHTTP is the OTLP/HTTP host:port
	OTLPHTTP string
}

// Backend is a running LGTM stack.
type Backend struct {
	endpoints Endpoints
	container testcontainers.Container
	client    *http.Client
	user      string
	password  string
}

// Start launches the backend and blocks until it reports readiness or
// cfg.StartupTimeout elapses. On readiness failure the container is
// terminated and a backend_startup error is returned.
func Start(ctx context.Context, cfg Config) (*Backend, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.NewInvalidArgumentError("invalid LGTM configuration", err)
	}

	req := testcontainers.ContainerRequest{
		Image:        cfg.Image,
		ExposedPorts: []string{GrafanaPort, OTLPGRPCPort, OTLPHTTPPort},
		Env: map[string]string{
			"OTEL_METRIC_EXPORT_INTERVAL": cfg.MetricExportInterval,
		},
		WaitingFor: wait.ForLog(ReadyLogPattern).
			AsRegexp().
			WithOccurrence(1).
			WithStartupTimeout(cfg.StartupTimeout),
	}
	if cfg.Reuse {
		req.Name = cfg.ContainerName
	}

	logger.Infof("Starting LGTM backend %s (reuse=%t)", cfg.Image, cfg.Reuse)
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
		Reuse:            cfg.Reuse,
	})
	if err != nil {
		if termErr := testcontainers.TerminateContainer(container); termErr != nil {
			logger.Warnf("Failed to terminate LGTM container after startup failure: %v", termErr)
		}
		return nil, errors.NewBackendStartupError(
			fmt.Sprintf("LGTM backend not ready within %s", cfg.StartupTimeout), err)
	}

	endpoints, err := resolveEndpoints(ctx, container)
	if err != nil {
		if termErr := testcontainers.TerminateContainer(container); termErr != nil {
			logger.Warnf("Failed to terminate LGTM container: %v", termErr)
		}
		return nil, errors.NewBackendStartupError("failed to resolve LGTM endpoints", err)
	}

	logger.Infow("LGTM backend ready",
		"grafana", endpoints.GrafanaURL,
		"otlp_grpc", endpoints.OTLPGRPC,
		"otlp_http", endpoints.OTLPHTTP)

	b := Attach(endpoints, cfg)
	b.container = container
	return b, nil
}

// Attach wraps an already running stack, such as one left up by `lgtm up`.
func Attach(endpoints Endpoints, cfg Config) *Backend {
	return &Backend{
		endpoints: endpoints,
		client:    &http.Client{Timeout: 10 * time.Second},
		user:      cfg.GrafanaUser,
		password:  cfg.GrafanaPassword,
	}
}

func resolveEndpoints(ctx context.Context, container testcontainers.Container) (Endpoints, error) {
	host, err := container.Host(ctx)
	if err != nil {
		return Endpoints{}, fmt.Errorf("failed to get container host: %w", err)
	}

	mapped := make(map[nat.Port]string, 3)
	for _, port := range []nat.Port{GrafanaPort, OTLPGRPCPort, OTLPHTTPPort} {
		p, err := container.MappedPort(ctx, port)
		if err != nil {
			return Endpoints{}, fmt.Errorf("failed to get mapped port for %s: %w", port, err)
		}
		mapped[port] = net.JoinHostPort(host, p.Port())
	}

	return Endpoints{
		GrafanaURL: "http://" + mapped[GrafanaPort],
		OTLPGRPC:   mapped[OTLPGRPCPort],
		OTLPHTTP:   mapped[OTLPHTTPPort],
	}, nil
}

// Endpoints returns the backend's addresses.
func (b *Backend) Endpoints() Endpoints {
	return b.endpoints
}

// Terminate stops and removes the container. Attached backends are left running.
func (b *Backend) Terminate(ctx context.Context) error {
	if b.container == nil {
		return nil
	}
	if err := b.container.Terminate(ctx); err != nil {
		return fmt.Errorf("failed to terminate LGTM container: %w", err)
	}
	return nil
}
