// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package otlp

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/log"
	lognoop "go.opentelemetry.io/otel/log/noop"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/resource"
)

func createLogExporter(ctx context.Context, config Config) (sdklog.Exporter, error) {
	if err := ValidateProtocol(config.Protocol); err != nil {
		return nil, err
	}

	if config.useGRPC() {
		opts := []otlploggrpc.Option{
			otlploggrpc.WithEndpoint(config.Endpoint),
		}
		if len(config.Headers) > 0 {
			opts = append(opts, otlploggrpc.WithHeaders(config.Headers))
		}
		if config.Insecure {
			opts = append(opts, otlploggrpc.WithInsecure())
		}
		return otlploggrpc.New(ctx, opts...)
	}

	opts := []otlploghttp.Option{
		otlploghttp.WithEndpoint(config.Endpoint),
	}
	if len(config.Headers) > 0 {
		opts = append(opts, otlploghttp.WithHeaders(config.Headers))
	}
	if config.Insecure {
		opts = append(opts, otlploghttp.WithInsecure())
	}
	return otlploghttp.New(ctx, opts...)
}

// NewLoggerProviderWithShutdown creates an OTLP logger provider with a shutdown function.
// Records are queued by a batch processor so emitting never waits on the collector.
func NewLoggerProviderWithShutdown(
	ctx context.Context,
	config Config,
	res *resource.Resource,
) (log.LoggerProvider, func(context.Context) error, error) {
	if config.Endpoint == "" {
		return lognoop.NewLoggerProvider(), nil, nil
	}

	exporter, err := createLogExporter(ctx, config)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create OTLP log exporter: %w", err)
	}

	provider := sdklog.NewLoggerProvider(
		sdklog.WithResource(res),
		sdklog.WithProcessor(sdklog.NewBatchProcessor(exporter)),
	)

	return provider, provider.Shutdown, nil
}
