// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package e2e_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/stacklok/otel-greeter/pkg/errors"
	"github.com/stacklok/otel-greeter/pkg/testkit/lgtm"
	"github.com/stacklok/otel-greeter/test/e2e"
)

var _ = Describe("LGTM readiness gate", Label("lgtm", "e2e"), func() {
	It("times out and removes a running container that never reports readiness", func() {
		cfg := lgtm.DefaultConfig()
		// nginx keeps running but never prints the LGTM readiness line.
		cfg.Image = "docker.io/library/nginx:alpine"
		cfg.Reuse = false
		cfg.StartupTimeout = 5 * time.Second

		ctx := context.Background()
		start := time.Now()
		started, err := lgtm.Start(ctx, cfg)
		elapsed := time.Since(start)

		Expect(err).To(HaveOccurred())
		Expect(started).To(BeNil())
		Expect(errors.IsBackendStartup(err)).To(BeTrue(), "got %v", err)
		Expect(elapsed).To(BeNumerically(">=", cfg.StartupTimeout))
		Expect(e2e.SessionContainers(ctx, cfg.Image)).To(BeZero(), "container should be terminated")
	})
})
