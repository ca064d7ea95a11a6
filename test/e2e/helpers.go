// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package e2e provides end-to-end testing utilities for the greeter services.
package e2e

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	. "github.com/onsi/ginkgo/v2" //nolint:staticcheck // Standard practice for Ginkgo
	. "github.com/onsi/gomega"    //nolint:staticcheck // Standard practice for Gomega
	"github.com/spf13/viper"
	"github.com/testcontainers/testcontainers-go"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/stacklok/otel-greeter/pkg/cli"
	"github.com/stacklok/otel-greeter/pkg/config"
	"github.com/stacklok/otel-greeter/pkg/testkit/lgtm"
)

const (
	// EnableEnvVar turns the suite on; it needs a Docker daemon
	EnableEnvVar = "GREETER_E2E"

	// exportInterval is the greeters' OTLP metric export period
	exportInterval = 500 * time.Millisecond
)

// Enabled reports whether the end-to-end suite should run.
func Enabled() bool {
	enabled, _ := strconv.ParseBool(os.Getenv(EnableEnvVar))
	return enabled
}

// KeepBackend reports whether the LGTM container should outlive the suite.
func KeepBackend() bool {
	cfg, err := lgtm.LoadConfigFromEnv()
	return err == nil && cfg.Reuse
}

// StartBackend starts the LGTM stack configured by LGTM_* variables and
// fails the suite if it does not become ready.
func StartBackend(ctx context.Context) *lgtm.Backend {
	cfg, err := lgtm.LoadConfigFromEnv()
	Expect(err).ToNot(HaveOccurred(), "LGTM_* configuration should be valid")

	GinkgoWriter.Printf("Starting %s (timeout %s)\n", cfg.Image, cfg.StartupTimeout)
	backend, err := lgtm.Start(ctx, cfg)
	Expect(err).ToNot(HaveOccurred(), "LGTM backend should report readiness")
	return backend
}

// sessionLabel is set by testcontainers on every container this process creates.
const sessionLabel = "org.testcontainers.sessionId"

// SessionContainers returns how many containers, running or stopped, this test
// session still has for image.
func SessionContainers(ctx context.Context, image string) int {
	cli, err := testcontainers.NewDockerClientWithOpts(ctx)
	Expect(err).ToNot(HaveOccurred(), "Docker client should connect")
	defer cli.Close()

	list, err := cli.ContainerList(ctx, container.ListOptions{
		All:     true,
		Filters: filters.NewArgs(filters.Arg("label", sessionLabel+"="+testcontainers.SessionID())),
	})
	Expect(err).ToNot(HaveOccurred(), "containers should be listed")

	count := 0
	for _, c := range list {
		if c.Image == image {
			count++
		}
	}
	return count
}

// Greeter is a greeter service running in-process against the backend.
type Greeter struct {
	InstanceID string
	BaseURL    string
	client     *http.Client
	cancel     context.CancelFunc
	done       chan error
}

// StartGreeter runs variant with OTLP export to endpoint over protocol.
func StartGreeter(variant cli.Variant, endpoint, protocol string) *Greeter {
	v := viper.New()
	config.Setup(v, variant.Defaults)
	v.Set(config.KeyAddress, "127.0.0.1:0")
	v.Set(config.KeyEndpoint, endpoint)
	v.Set(config.KeyProtocol, protocol)
	v.Set(config.KeyMetricExportInterval, exportInterval)

	cfg, err := config.Load(v)
	Expect(err).ToNot(HaveOccurred())

	svc, err := cli.NewService(context.Background(), cfg, variant)
	Expect(err).ToNot(HaveOccurred(), "greeter should start")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()

	return &Greeter{
		InstanceID: svc.InstanceID,
		BaseURL:    fmt.Sprintf("http://%s", svc.Addr()),
		client: &http.Client{
			Timeout:   10 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		cancel: cancel,
		done:   done,
	}
}

// Get issues a GET request to path on the greeter.
func (g *Greeter) Get(path string) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodGet, g.BaseURL+path, nil)
	if err != nil {
		return nil, err
	}
	return g.client.Do(req)
}

// Stop shuts the greeter down, flushing its telemetry.
func (g *Greeter) Stop() {
	g.cancel()
	Eventually(g.done, 15*time.Second).Should(Receive(BeNil()))
}
