// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"fmt"
	"sort"
	"strings"

	"go.opentelemetry.io/otel/attribute"
)

// ParseKeyValuePairs parses a comma-separated list of key=value pairs into a map.
// It accepts the OTEL_EXPORTER_OTLP_HEADERS / OTEL_RESOURCE_ATTRIBUTES style,
// e.g. "deployment.environment=dev,team=platform".
func ParseKeyValuePairs(input string) (map[string]string, error) {
	pairs := make(map[string]string)
	if input == "" {
		return pairs, nil
	}

	for _, pair := range strings.Split(input, ",") {
		trimmedPair := strings.TrimSpace(pair)
		if trimmedPair == "" {
			continue
		}

		parts := strings.SplitN(trimmedPair, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid attribute format '%s': expected key=value", trimmedPair)
		}

		key := strings.TrimSpace(parts[0])
		if key == "" {
			return nil, fmt.Errorf("empty attribute key in '%s'", trimmedPair)
		}
		pairs[key] = strings.TrimSpace(parts[1])
	}

	return pairs, nil
}

// ConvertMapToAttributes converts a map to OpenTelemetry attributes, sorted by key.
func ConvertMapToAttributes(attrs map[string]string) []attribute.KeyValue {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	result := make([]attribute.KeyValue, 0, len(keys))
	for _, k := range keys {
		result = append(result, attribute.String(k, attrs[k]))
	}
	return result
}
