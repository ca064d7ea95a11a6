// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package otlp provides OpenTelemetry Protocol (OTLP) provider implementations
// for both wire variants: HTTP/protobuf and gRPC.
package otlp

import (
	"fmt"
	"time"
)

// Wire protocols understood by the exporters, named as in OTEL_EXPORTER_OTLP_PROTOCOL.
const (
	ProtocolHTTP = "http/protobuf"
	ProtocolGRPC = "grpc"
)

// Default collector ports for each protocol.
const (
	DefaultHTTPPort = 4318
	DefaultGRPCPort = 4317
)

// Config holds OTLP exporter settings shared by traces, metrics and logs.
type Config struct {
	// Endpoint is host:port of the collector, without scheme
	Endpoint string
	// Protocol is ProtocolHTTP or ProtocolGRPC; empty means ProtocolHTTP
	Protocol string
	Headers  map[string]string
	Insecure bool
	// SamplingRate is the trace sampling ratio in [0, 1]
	SamplingRate float64
	// ExportInterval overrides the periodic metric reader interval.
	// Zero leaves it to the SDK, which honors OTEL_METRIC_EXPORT_INTERVAL.
	ExportInterval time.Duration
}

// ValidateProtocol returns an error for anything but the two supported protocols.
func ValidateProtocol(protocol string) error {
	switch protocol {
	case "", ProtocolHTTP, ProtocolGRPC:
		return nil
	default:
		return fmt.Errorf("unsupported OTLP protocol %q (expected %q or %q)", protocol, ProtocolHTTP, ProtocolGRPC)
	}
}

func (c Config) useGRPC() bool {
	return c.Protocol == ProtocolGRPC
}
