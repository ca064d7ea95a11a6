// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package greeting

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/stacklok/otel-greeter/pkg/greeting/mocks"
)

func newTestRouter(recorder Recorder) http.Handler {
	r := chi.NewRouter()
	r.Mount("/greeting", Router(recorder))
	return r
}

func TestGetGreeting(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		query    string
		wantName string
	}{
		{name: "absent parameter uses default", query: "", wantName: DefaultName},
		{name: "plain name", query: "name=Spring", wantName: "Spring"},
		{name: "empty name is echoed", query: "name=", wantName: ""},
		{name: "spaces", query: "name=" + url.QueryEscape("Ada Lovelace"), wantName: "Ada Lovelace"},
		{name: "unicode", query: "name=" + url.QueryEscape("Zoë 世界"), wantName: "Zoë 世界"},
		{name: "ampersand", query: "name=" + url.QueryEscape("Tom & Jerry"), wantName: "Tom & Jerry"},
		{name: "percent", query: "name=" + url.QueryEscape("100%"), wantName: "100%"},
		{name: "slash", query: "name=" + url.QueryEscape("a/b"), wantName: "a/b"},
		{name: "first value wins", query: "name=first&name=second", wantName: "first"},
		{name: "semicolon kept in value", query: "name=a;b", wantName: "a;b"},
		{name: "malformed escape echoed as sent", query: "name=%zz", wantName: "%zz"},
		{name: "malformed pair does not hide first value", query: "name=a;b&name=second", wantName: "a;b"},
		{name: "other parameters ignored", query: "lang=en&name=Ada", wantName: "Ada"},
		{name: "bare key is empty name", query: "name", wantName: ""},
		{name: "plus is a space", query: "name=Ada+Lovelace", wantName: "Ada Lovelace"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctrl := gomock.NewController(t)
			recorder := mocks.NewMockRecorder(ctrl)
			recorder.EXPECT().Record(gomock.Any(), tt.wantName).Times(1)

			target := "/greeting"
			if tt.query != "" {
				target += "?" + tt.query
			}
			rec := httptest.NewRecorder()
			newTestRouter(recorder).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))

			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "Hello "+tt.wantName, rec.Body.String())
			assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
		})
	}
}

func TestGetGreeting_MethodNotAllowed(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	recorder := mocks.NewMockRecorder(ctrl)
	recorder.EXPECT().Record(gomock.Any(), gomock.Any()).Times(0)

	rec := httptest.NewRecorder()
	newTestRouter(recorder).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/greeting", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestGetGreeting_UnknownPath(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	recorder := mocks.NewMockRecorder(ctrl)

	rec := httptest.NewRecorder()
	newTestRouter(recorder).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/hello", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRecorderFunc(t *testing.T) {
	t.Parallel()
	var got string
	rec := httptest.NewRecorder()
	newTestRouter(RecorderFunc(func(_ context.Context, name string) {
		got = name
	})).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/greeting?name=Func", nil))

	assert.Equal(t, "Func", got)
	assert.Equal(t, "Hello Func", rec.Body.String())
}
