// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package lgtm

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/otel-greeter/pkg/errors"
)

func TestLoadConfigFromEnv_Defaults(t *testing.T) { //nolint:paralleltest // reads process env
	cfg, err := LoadConfigFromEnv()
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfigFromEnv_Overrides(t *testing.T) { //nolint:paralleltest // uses t.Setenv
	t.Setenv("LGTM_IMAGE", "docker.io/grafana/otel-lgtm:latest")
	t.Setenv("LGTM_REUSE", "false")
	t.Setenv("LGTM_STARTUP_TIMEOUT", "30s")
	t.Setenv("LGTM_CONTAINER_NAME", "")

	cfg, err := LoadConfigFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "docker.io/grafana/otel-lgtm:latest", cfg.Image)
	assert.False(t, cfg.Reuse)
	assert.Equal(t, 30*time.Second, cfg.StartupTimeout)
}

func TestLoadConfigFromEnv_BadDuration(t *testing.T) { //nolint:paralleltest // uses t.Setenv
	t.Setenv("LGTM_STARTUP_TIMEOUT", "soon")

	_, err := LoadConfigFromEnv()
	assert.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "empty image", mutate: func(c *Config) { c.Image = "" }, wantErr: "LGTM_IMAGE"},
		{name: "zero timeout", mutate: func(c *Config) { c.StartupTimeout = 0 }, wantErr: "LGTM_STARTUP_TIMEOUT"},
		{
			name:    "reuse without name",
			mutate:  func(c *Config) { c.ContainerName = "" },
			wantErr: "LGTM_CONTAINER_NAME",
		},
		{
			name: "no reuse without name",
			mutate: func(c *Config) {
				c.Reuse = false
				c.ContainerName = ""
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := DefaultConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestStart_InvalidConfig(t *testing.T) {
	t.Parallel()
	cfg := DefaultConfig()
	cfg.StartupTimeout = -time.Second

	backend, err := Start(context.Background(), cfg)
	require.Error(t, err)
	assert.Nil(t, backend)
	assert.True(t, errors.IsInvalidArgument(err))
}

func TestAttach_TerminateIsNoOp(t *testing.T) {
	t.Parallel()
	endpoints := Endpoints{GrafanaURL: "http://localhost:3000", OTLPGRPC: "localhost:4317", OTLPHTTP: "localhost:4318"}
	backend := Attach(endpoints, DefaultConfig())

	assert.Equal(t, endpoints, backend.Endpoints())
	assert.NoError(t, backend.Terminate(context.Background()))
}
