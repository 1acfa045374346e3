// Copyright 2026 The Ticketd Authors
// SPDX-License-Identifier: Apache-2.0

// Package idgen implements the three uniqueness-preserving identifier
// generators spec.md §4.4 requires: reservation ids, cookies, and
// ticket codes. Each algorithm is spec-exact and auditable, which is
// why none of them defers to a generic ID library (see SPEC_FULL.md's
// "not delegated to a generic ID library" note).
package idgen

import "math"

// ReservationIDFloor is the lowest legal reservation id (spec.md §3):
// reservation ids and event ids partition disjoint ranges so clients
// can never confuse the two.
const ReservationIDFloor = 1_000_000

// ReservationAllocator implements the reservation-id allocation policy
// of spec.md §4.4: monotonic with gap-scanning reuse. It does not own
// the reservation store; callers pass the set of currently-present ids
// at allocation time (via the Existing interface) since the store is
// the source of truth for membership.
type ReservationAllocator struct{}

// NewReservationAllocator returns a ReservationAllocator. It carries
// no state of its own — membership lives in the reservation store —
// so a zero value works too; the constructor exists for symmetry with
// CookieGenerator and TicketCodeGenerator and to leave room for future
// caching of the last-allocated id without changing call sites.
func NewReservationAllocator() *ReservationAllocator {
	return &ReservationAllocator{}
}

// Existing answers which reservation ids are currently present in the
// store: the largest one, and membership of a given id. Implementations
// are provided by lib/reservation;
// idgen only consumes the contract so it has no dependency on the
// store's internal representation.
type Existing interface {
	// Max returns the largest id present and true, or false if the
	// store is empty.
	Max() (uint32, bool)

	// Has reports whether id is present.
	Has(id uint32) bool
}

// Next allocates the next reservation id per spec.md §4.4:
//  1. Empty store → ReservationIDFloor.
//  2. Otherwise, max+1 if it doesn't overflow uint32.
//  3. Otherwise, scan ascending from ReservationIDFloor for the first
//     gap.
//
// Case 3 is included for totality but is unreachable under any
// workload that doesn't allocate and hold close to 2^32-1,000,000
// reservations simultaneously.
func (a *ReservationAllocator) Next(existing Existing) uint32 {
	max, ok := existing.Max()
	if !ok {
		return ReservationIDFloor
	}
	if max < math.MaxUint32 {
		return max + 1
	}

	for id := uint32(ReservationIDFloor); ; id++ {
		if !existing.Has(id) {
			return id
		}
		if id == math.MaxUint32 {
			break
		}
	}
	// Unreachable: the store can hold at most 2^32 - ReservationIDFloor
	// ids in [ReservationIDFloor, MaxUint32], so a gap always exists
	// before the scan wraps, unless every one of those ids is active —
	// a state no real deployment reaches.
	panic("idgen: reservation id space exhausted")
}
