// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package greeting

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/stacklok/otel-greeter/pkg/logger"
)

// Router sets up the greeting route.
func Router(recorder Recorder) http.Handler {
	routes := &greetingRoutes{recorder: recorder}
	r := chi.NewRouter()
	r.Get("/", routes.getGreeting)
	return r
}

type greetingRoutes struct {
	recorder Recorder
}

// getGreeting answers GET /greeting?name=<name>.
// Any supplied value is echoed, including the empty string; only an absent
// parameter falls back to DefaultName.
func (g *greetingRoutes) getGreeting(w http.ResponseWriter, r *http.Request) {
	name, ok := queryParam(r.URL.RawQuery, "name")
	if !ok {
		name = DefaultName
	}

	g.recorder.Record(r.Context(), name)

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if _, err := w.Write([]byte(Greet(name))); err != nil {
		logger.Debugf("failed to write greeting response: %v", err)
	}
}

// queryParam returns the first value of key in rawQuery. Unlike
// url.ParseQuery it never drops a pair: a semicolon stays part of the value
// and a malformed escape is returned as sent.
func queryParam(rawQuery, key string) (string, bool) {
	for rawQuery != "" {
		var pair string
		pair, rawQuery, _ = strings.Cut(rawQuery, "&")
		if pair == "" {
			continue
		}
		k, v, _ := strings.Cut(pair, "=")
		if unescape(k) != key {
			continue
		}
		return unescape(v), true
	}
	return "", false
}

func unescape(s string) string {
	if u, err := url.QueryUnescape(s); err == nil {
		return u
	}
	return s
}
