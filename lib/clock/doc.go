// Copyright 2026 The Ticketd Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time abstraction for testability.
//
// Production code accepts a Clock parameter instead of calling
// time.Now directly. In production, Real() provides the standard
// library's clock. In tests, Fake() provides a deterministic clock
// that advances only when Advance is called.
//
// # Wiring Pattern
//
// Add a Clock field to structs that use time:
//
//	type Server struct {
//	    clock clock.Clock
//	    // ...
//	}
//
// In production:
//
//	s := &Server{clock: clock.Real()}
//
// In tests:
//
//	c := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	s := &Server{clock: c}
//	c.Advance(5 * time.Second)
package clock
