// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

/*
Package greeting serves the GET /greeting endpoint shared by the greeter
binaries.

The handler renders "Hello <name>" and hands the name to a Recorder, which
produces the binary's telemetry side effect:

  - CounterRecorder increments the greetings.total counter, tagged with the name.
  - LogRecorder writes one INFO record "Greeting: Hello <name>".

Recorders must not block on export and must not fail the request.
*/
package greeting
