// Copyright 2026 The Ticketd Authors
// SPDX-License-Identifier: Apache-2.0

package core

import (
	"sync/atomic"

	"github.com/ticketworks/ticketd/lib/statsdump"
)

// Stats holds the lifetime counters a running Server accumulates. The
// event loop goroutine both writes these on every dispatch and reads
// them for the periodic snapshot (socket.go's Run loop does both from
// the same goroutine, never concurrently) — these are atomics anyway,
// matching the teacher's telemetry ingestion counters, so the fields
// stay safe to read from a second goroutine if one is ever added.
type Stats struct {
	EventsServed         atomic.Uint64
	ReservationsAccepted atomic.Uint64
	ReservationsRejected atomic.Uint64
	RedemptionsAccepted  atomic.Uint64
	RedemptionsRejected  atomic.Uint64
	TicketsIssued        atomic.Uint64
	ExpiredReservations  atomic.Uint64
}

// Snapshot captures the current counters, plus the live derived count
// of active reservations, into a statsdump.Snapshot ready to write to
// disk. fingerprint is the catalog's BLAKE3 fingerprint computed once
// at startup.
//
// ActiveCount reads the reservation store directly rather than through
// an atomic counter, which is safe only because Run calls Snapshot
// (through writeSnapshot) from the same goroutine that runs the event
// loop, when a receive deadline expires between dispatch calls, not
// from a concurrent goroutine — see socket.go's Run loop.
func (s *Server) Snapshot(unixSeconds uint64, fingerprint string) statsdump.Snapshot {
	return statsdump.Snapshot{
		UnixSeconds:           unixSeconds,
		EventsServed:          s.stats.EventsServed.Load(),
		ReservationsAccepted:  s.stats.ReservationsAccepted.Load(),
		ReservationsRejected:  s.stats.ReservationsRejected.Load(),
		RedemptionsAccepted:   s.stats.RedemptionsAccepted.Load(),
		RedemptionsRejected:   s.stats.RedemptionsRejected.Load(),
		ActiveReservations:    uint64(s.store.ActiveCount()),
		TicketsIssued:         s.stats.TicketsIssued.Load(),
		ExpiredReservations:   s.stats.ExpiredReservations.Load(),
		CatalogFingerprint:    fingerprint,
	}
}
