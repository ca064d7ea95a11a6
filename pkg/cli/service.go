// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"context"
	"fmt"
	"net"
	"net/http"

	"github.com/google/uuid"

	"github.com/stacklok/otel-greeter/pkg/config"
	"github.com/stacklok/otel-greeter/pkg/logger"
	"github.com/stacklok/otel-greeter/pkg/server"
	"github.com/stacklok/otel-greeter/pkg/telemetry"
)

// Service is a greeter with telemetry installed and its listener bound.
type Service struct {
	// InstanceID is the service.instance.id resource attribute of this process
	InstanceID string

	server     *server.Server
	provider   *telemetry.Provider
	detachLogs func()
}

// NewService installs telemetry for cfg and binds the server. The caller
// must call Run, which owns shutdown of both.
func NewService(ctx context.Context, cfg *config.Config, variant Variant) (*Service, error) {
	instanceID := uuid.NewString()
	provider, err := telemetry.NewProvider(ctx, cfg.TelemetryConfig(instanceID))
	if err != nil {
		return nil, err
	}

	detachLogs := logger.AttachHandler(provider.LogHandler())

	recorder, err := variant.NewRecorder(provider)
	if err != nil {
		detachLogs()
		shutdownTelemetry(provider)
		return nil, fmt.Errorf("failed to create greeting recorder: %w", err)
	}

	srv, err := server.New(server.Options{
		Address:        cfg.Address,
		Recorder:       recorder,
		Middlewares:    []func(http.Handler) http.Handler{provider.Middleware()},
		MetricsHandler: provider.PrometheusHandler(),
	})
	if err != nil {
		detachLogs()
		shutdownTelemetry(provider)
		return nil, err
	}

	logger.Infow("Starting greeter",
		"service", cfg.Telemetry.ServiceName,
		"instance_id", instanceID,
		"otel_endpoint", cfg.Telemetry.Endpoint,
		"otel_protocol", cfg.Telemetry.Protocol)

	return &Service{
		InstanceID: instanceID,
		server:     srv,
		provider:   provider,
		detachLogs: detachLogs,
	}, nil
}

// Addr returns the bound address.
func (s *Service) Addr() net.Addr {
	return s.server.Addr()
}

// Run serves until ctx is cancelled, then drains connections, detaches the
// log bridge and flushes pending telemetry.
func (s *Service) Run(ctx context.Context) error {
	defer shutdownTelemetry(s.provider)
	defer s.detachLogs()
	return s.server.Serve(ctx)
}

func shutdownTelemetry(provider *telemetry.Provider) {
	// Callers' contexts are usually cancelled by now; the provider bounds the flush.
	if err := provider.Shutdown(context.Background()); err != nil {
		logger.Errorw("Telemetry shutdown failed", "error", err)
	}
}
