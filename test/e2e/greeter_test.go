// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package e2e_test

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/stacklok/otel-greeter/pkg/cli"
	"github.com/stacklok/otel-greeter/pkg/greeting"
	"github.com/stacklok/otel-greeter/pkg/telemetry/providers/otlp"
	"github.com/stacklok/otel-greeter/test/e2e"
)

func greet(g *e2e.Greeter, name string) string {
	GinkgoHelper()
	resp, err := g.Get("/greeting?name=" + url.QueryEscape(name))
	Expect(err).ToNot(HaveOccurred())
	defer resp.Body.Close()

	Expect(resp.StatusCode).To(Equal(http.StatusOK))
	body, err := io.ReadAll(resp.Body)
	Expect(err).ToNot(HaveOccurred())
	return string(body)
}

var _ = Describe("metrics-otel", Label("metrics", "e2e"), func() {
	for _, protocol := range []string{otlp.ProtocolHTTP, otlp.ProtocolGRPC} {
		Context("exporting over "+protocol, func() {
			var greeter *e2e.Greeter

			BeforeEach(func() {
				endpoint := backend.Endpoints().OTLPHTTP
				if protocol == otlp.ProtocolGRPC {
					endpoint = backend.Endpoints().OTLPGRPC
				}
				greeter = e2e.StartGreeter(cli.MetricsVariant, endpoint, protocol)
			})

			AfterEach(func() {
				greeter.Stop()
			})

			It("counts each greeting once per name", func() {
				By("Greeting Spring twice")
				Expect(greet(greeter, "Spring")).To(Equal("Hello Spring"))
				Expect(greet(greeter, "Spring")).To(Equal("Hello Spring"))

				By("Reading the counter for this instance from Prometheus")
				value, err := backend.WaitForCounter(context.Background(), "greetings_total",
					map[string]string{greeting.NameAttribute: "Spring", "instance": greeter.InstanceID},
					2, time.Minute)
				Expect(err).ToNot(HaveOccurred())
				Expect(value).To(Equal(2.0))
			})
		})
	}
})

var _ = Describe("traces-otel", Label("traces", "e2e"), func() {
	var greeter *e2e.Greeter

	BeforeEach(func() {
		greeter = e2e.StartGreeter(cli.TracesVariant, backend.Endpoints().OTLPHTTP, otlp.ProtocolHTTP)
	})

	AfterEach(func() {
		greeter.Stop()
	})

	It("ships one log record per greeting to Loki", func() {
		// A unique name keeps reused backends from counting earlier runs.
		name := "Spring-" + uuid.NewString()[:8]
		Expect(greet(greeter, name)).To(Equal("Hello " + name))

		Eventually(func() (int, error) {
			return backend.CountLogLines(context.Background(), cli.TracesVariant.Name, "Greeting: Hello "+name)
		}, time.Minute, time.Second).Should(Equal(1))
	})
})
