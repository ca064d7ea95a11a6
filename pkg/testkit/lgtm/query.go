// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package lgtm

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/tidwall/gjson"

	"github.com/stacklok/otel-greeter/pkg/logger"
)

const (
	// Grafana datasource proxy paths for the datasources bundled in the image
	prometheusQueryPath = "/api/datasources/proxy/uid/prometheus/api/v1/query"
	lokiQueryRangePath  = "/api/datasources/proxy/uid/loki/loki/api/v1/query_range"

	// logLookback is how far back CountLogLines searches
	logLookback = time.Hour
)

// QueryCounter returns the current value of counter metric, summed over every
// series matching labels. It returns 0 when no series matches yet.
func (b *Backend) QueryCounter(ctx context.Context, metric string, labels map[string]string) (float64, error) {
	params := url.Values{}
	params.Set("query", fmt.Sprintf("sum(%s)", selector(metric, labels)))

	body, err := b.get(ctx, prometheusQueryPath, params)
	if err != nil {
		return 0, err
	}

	if status := gjson.GetBytes(body, "status").String(); status != "success" {
		return 0, fmt.Errorf("prometheus query failed: status=%q error=%q",
			status, gjson.GetBytes(body, "error").String())
	}

	results := gjson.GetBytes(body, "data.result").Array()
	if len(results) == 0 {
		return 0, nil
	}
	// Instant vector samples are [timestamp, "value"].
	raw := results[0].Get("value.1").String()
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid sample value %q: %w", raw, err)
	}
	return value, nil
}

// CountLogLines returns how many log lines from service, received within the
// last hour, contain the given text.
func (b *Backend) CountLogLines(ctx context.Context, service, contains string) (int, error) {
	end := time.Now()
	params := url.Values{}
	params.Set("query", fmt.Sprintf("%s |= %s",
		selector("", map[string]string{"service_name": service}), strconv.Quote(contains)))
	params.Set("start", strconv.FormatInt(end.Add(-logLookback).UnixNano(), 10))
	params.Set("end", strconv.FormatInt(end.UnixNano(), 10))
	params.Set("limit", "5000")

	body, err := b.get(ctx, lokiQueryRangePath, params)
	if err != nil {
		return 0, err
	}

	if status := gjson.GetBytes(body, "status").String(); status != "success" {
		return 0, fmt.Errorf("loki query failed: status=%q", status)
	}

	count := 0
	gjson.GetBytes(body, "data.result").ForEach(func(_, stream gjson.Result) bool {
		count += len(stream.Get("values").Array())
		return true
	})
	return count, nil
}

// WaitForCounter polls QueryCounter until it reads want or timeout elapses.
// A value above want fails immediately, since counters never go down.
func (b *Backend) WaitForCounter(
	ctx context.Context,
	metric string,
	labels map[string]string,
	want float64,
	timeout time.Duration,
) (float64, error) {
	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = 250 * time.Millisecond
	expBackoff.MaxInterval = 2 * time.Second

	operation := func() (float64, error) {
		got, err := b.QueryCounter(ctx, metric, labels)
		if err != nil {
			return got, err
		}
		if got > want {
			return got, backoff.Permanent(fmt.Errorf("%s = %v, overshot %v", metric, got, want))
		}
		if got < want {
			return got, fmt.Errorf("%s = %v, waiting for %v", metric, got, want)
		}
		return got, nil
	}

	return backoff.Retry(ctx, operation,
		backoff.WithBackOff(expBackoff),
		backoff.WithMaxElapsedTime(timeout),
		backoff.WithNotify(func(err error, d time.Duration) {
			logger.Debugw("Retrying counter query", "after", d, "error", err)
		}),
	)
}

func (b *Backend) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	target := strings.TrimSuffix(b.endpoints.GrafanaURL, "/") + path + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if b.user != "" {
		req.SetBasicAuth(b.user, b.password)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response from %s: %w", path, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s returned %d: %s", path, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return body, nil
}

// selector renders a Prometheus/LogQL series selector with sorted labels.
func selector(metric string, labels map[string]string) string {
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	matchers := make([]string, 0, len(keys))
	for _, k := range keys {
		matchers = append(matchers, k+"="+strconv.Quote(labels[k]))
	}
	return metric + "{" + strings.Join(matchers, ",") + "}"
}
