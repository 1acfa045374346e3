// Copyright 2026 The Ticketd Authors
// SPDX-License-Identifier: Apache-2.0

// Package process provides binary entrypoint helpers for the ticketd
// daemon. These functions centralize the two legitimate raw I/O
// patterns that exist before or after the structured logger:
//
//   - Fatal error reporting to stderr when the logger may not be
//     initialized (pre-logger).
//   - Process exit after an unrecoverable error in main().
//
// All other diagnostics in ticketd should go through the structured
// slog logger rather than direct fmt.Fprintf/fmt.Printf calls. This
// package, along with lib/version's --version output, is the
// exception: both run before the logger exists.
package process
