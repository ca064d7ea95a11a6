// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package greeting

import "context"

//go:generate mockgen -destination=mocks/mock_recorder.go -package=mocks -source=greeting.go Recorder

// DefaultName is used when the request carries no name parameter.
const DefaultName = "World"

// Recorder emits the telemetry side effect of a single greeting.
type Recorder interface {
	// Record is called once per request with the name that was greeted.
	Record(ctx context.Context, name string)
}

// RecorderFunc adapts a plain function to Recorder.
type RecorderFunc func(ctx context.Context, name string)

// Record calls f(ctx, name).
func (f RecorderFunc) Record(ctx context.Context, name string) {
	f(ctx, name)
}

// Greet renders the greeting for name.
func Greet(name string) string {
	return "Hello " + name
}
