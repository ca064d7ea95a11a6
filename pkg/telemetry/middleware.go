// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const (
	// instrumentationName is the name of this instrumentation package
	instrumentationName = "github.com/stacklok/otel-greeter/pkg/telemetry"

	// unmatchedRoute labels requests that no chi route matched
	unmatchedRoute = "unmatched"
)

// RequestDurationBuckets are the histogram bucket boundaries, in seconds,
// for greeter_http_request_duration.
var RequestDurationBuckets = []float64{
	0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5,
}

// HTTPMiddleware provides OpenTelemetry instrumentation for HTTP requests.
type HTTPMiddleware struct {
	config Config
	tracer trace.Tracer

	requestCounter  metric.Int64Counter
	requestDuration metric.Float64Histogram
	activeRequests  metric.Int64UpDownCounter
}

// NewHTTPMiddleware creates a new HTTP middleware for OpenTelemetry instrumentation.
// It must be installed on a chi router so spans can be named after the matched route.
func NewHTTPMiddleware(
	config Config,
	tracerProvider trace.TracerProvider,
	meterProvider metric.MeterProvider,
) func(http.Handler) http.Handler {
	meter := meterProvider.Meter(instrumentationName)

	requestCounter, _ := meter.Int64Counter(
		"greeter_http_requests", // The exporter adds the _total suffix automatically
		metric.WithDescription("Total number of HTTP requests"),
	)

	requestDuration, _ := meter.Float64Histogram(
		"greeter_http_request_duration", // The exporter adds the _seconds suffix automatically
		metric.WithDescription("Duration of HTTP requests in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(RequestDurationBuckets...),
	)

	activeRequests, _ := meter.Int64UpDownCounter(
		"greeter_http_active_requests",
		metric.WithDescription("Number of in-flight HTTP requests"),
	)

	middleware := &HTTPMiddleware{
		config:          config,
		tracer:          tracerProvider.Tracer(instrumentationName),
		requestCounter:  requestCounter,
		requestDuration: requestDuration,
		activeRequests:  activeRequests,
	}

	return middleware.Handler
}

// Handler implements the middleware function that wraps HTTP handlers.
// Panic recovery is handled by chi's Recoverer, installed outside this middleware.
func (m *HTTPMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Extract trace context from incoming request headers
		ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

		m.activeRequests.Add(ctx, 1)
		defer m.activeRequests.Add(ctx, -1)

		// The route is only known after chi has matched it, so the span
		// starts with the raw path and is renamed once next returns.
		ctx, span := m.tracer.Start(ctx, fmt.Sprintf("%s %s", r.Method, r.URL.Path),
			trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()

		rw := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.addHTTPAttributes(span, r)

		startTime := time.Now()
		next.ServeHTTP(rw, r.WithContext(ctx))
		duration := time.Since(startTime)

		route := routePattern(r)
		span.SetName(fmt.Sprintf("%s %s", r.Method, route))
		span.SetAttributes(attribute.String("http.route", route))

		m.finalizeSpan(span, rw, duration)
		m.recordMetrics(r, rw, route, duration)
	})
}

// routePattern returns the chi route template that matched r.
func routePattern(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return unmatchedRoute
	}
	if pattern := rctx.RoutePattern(); pattern != "" {
		return pattern
	}
	return unmatchedRoute
}

// addHTTPAttributes adds standard HTTP attributes to the span.
func (*HTTPMiddleware) addHTTPAttributes(span trace.Span, r *http.Request) {
	span.SetAttributes(
		attribute.String("http.method", r.Method),
		attribute.String("http.target", r.URL.RequestURI()),
		attribute.String("http.user_agent", r.UserAgent()),
	)

	if host, port, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		span.SetAttributes(attribute.String("net.peer.ip", host))
		if p, err := strconv.Atoi(port); err == nil {
			span.SetAttributes(attribute.Int("net.peer.port", p))
		}
	}

	if r.ContentLength > 0 {
		span.SetAttributes(attribute.Int64("http.request_content_length", r.ContentLength))
	}
}

// finalizeSpan adds response attributes and sets the span status.
func (*HTTPMiddleware) finalizeSpan(span trace.Span, rw *responseWriter, duration time.Duration) {
	span.SetAttributes(
		attribute.Int("http.status_code", rw.statusCode),
		attribute.Int64("http.response_content_length", rw.bytesWritten),
		attribute.Float64("http.duration_ms", float64(duration.Nanoseconds())/1e6),
	)

	// Only server errors mark the span as failed; 4xx is the client's fault.
	if rw.statusCode >= 500 {
		span.SetStatus(codes.Error, fmt.Sprintf("HTTP %d", rw.statusCode))
		span.SetAttributes(attribute.String("error.type", strconv.Itoa(rw.statusCode)))
	} else {
		span.SetStatus(codes.Ok, "")
	}
}

// recordMetrics records request metrics.
func (m *HTTPMiddleware) recordMetrics(r *http.Request, rw *responseWriter, route string, duration time.Duration) {
	status := "success"
	if rw.statusCode >= 400 {
		status = "error"
	}

	attrs := metric.WithAttributes(
		attribute.String("method", r.Method),
		attribute.String("route", route),
		attribute.String("status_code", strconv.Itoa(rw.statusCode)),
		attribute.String("status", status),
		attribute.String("service", m.config.ServiceName),
	)

	ctx := r.Context()
	m.requestCounter.Add(ctx, 1, attrs)
	m.requestDuration.Record(ctx, duration.Seconds(), attrs)
}

// responseWriter wraps http.ResponseWriter to capture response details.
type responseWriter struct {
	http.ResponseWriter
	statusCode    int
	bytesWritten  int64
	headerWritten bool
}

// WriteHeader captures the status code and ignores duplicate calls.
func (rw *responseWriter) WriteHeader(statusCode int) {
	if rw.headerWritten {
		return
	}
	rw.headerWritten = true
	rw.statusCode = statusCode
	rw.ResponseWriter.WriteHeader(statusCode)
}

// Write captures the number of bytes written.
// A Write before WriteHeader fixes the status at 200.
func (rw *responseWriter) Write(data []byte) (int, error) {
	if !rw.headerWritten {
		rw.headerWritten = true
		rw.statusCode = http.StatusOK
	}

	n, err := rw.ResponseWriter.Write(data)
	rw.bytesWritten += int64(n)
	return n, err
}

// Flush implements http.Flusher if the underlying ResponseWriter supports it.
func (rw *responseWriter) Flush() {
	if flusher, ok := rw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}
