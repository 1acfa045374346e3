// Copyright 2026 The Ticketd Authors
// SPDX-License-Identifier: Apache-2.0

// Package reservation implements the reservation store and its
// expiration lifecycle (spec.md §3, §4.5). The store is a single
// owned record with two indexes — by reservation id, and by expiration
// timestamp — exactly as spec.md §9's "Reservation store indexing"
// design note prescribes.
//
// Store has no internal locking. Per spec.md §5, it is owned
// exclusively by the single-threaded event loop.
package reservation

import "github.com/ticketworks/ticketd/lib/idgen"

// Reservation is one hold on tickets for an event (spec.md §3).
type Reservation struct {
	ID          uint32
	EventID     uint32
	TicketCount uint16
	Cookie      [idgen.CookieSize]byte

	// Expiration is an absolute Unix timestamp in seconds. Inert once
	// Tickets is non-nil (a redeemed reservation never expires).
	Expiration uint64

	// Tickets is nil until first redemption, after which it holds
	// exactly TicketCount unique codes in issuance order.
	Tickets []string
}

// Redeemed reports whether this reservation has been redeemed.
func (r *Reservation) Redeemed() bool {
	return r.Tickets != nil
}

// Store holds all reservations, active and redeemed, indexed by id for
// GET_TICKETS lookups and by expiration bucket for the sweeper.
type Store struct {
	byID       map[uint32]*Reservation
	liveCookie map[[idgen.CookieSize]byte]bool
	expiry     expirationIndex
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		byID:       make(map[uint32]*Reservation),
		liveCookie: make(map[[idgen.CookieSize]byte]bool),
	}
}

// Max implements idgen.Existing: the largest reservation id currently
// in the store, active or redeemed.
func (s *Store) Max() (uint32, bool) {
	var max uint32
	found := false
	for id := range s.byID {
		if !found || id > max {
			max = id
			found = true
		}
	}
	return max, found
}

// Has implements idgen.Existing.
func (s *Store) Has(id uint32) bool {
	_, ok := s.byID[id]
	return ok
}

// CookieLive implements idgen.Exists against the set of cookies
// belonging to active (not yet redeemed or expired) reservations —
// the scope spec.md §3's uniqueness invariant names. A cookie is
// freed for reuse once its reservation redeems or expires.
func (s *Store) CookieLive(cookie [idgen.CookieSize]byte) bool {
	return s.liveCookie[cookie]
}

// ActiveCount returns the number of unredeemed, unexpired reservations
// currently held. Used for the periodic stats snapshot; not on any
// request-handling hot path.
func (s *Store) ActiveCount() int {
	return len(s.liveCookie)
}

// Get returns the reservation with the given id, or nil.
func (s *Store) Get(id uint32) *Reservation {
	return s.byID[id]
}

// Add inserts a newly created, unredeemed reservation into the store
// and both indexes.
func (s *Store) Add(r *Reservation) {
	s.byID[r.ID] = r
	s.liveCookie[r.Cookie] = true
	s.expiry.insert(r.ID, r.Expiration)
}

// Redeem marks a reservation as redeemed with the given ticket codes,
// removing it from the expiration index (so it is retained
// indefinitely, per spec.md §4.3) and freeing its cookie for reuse.
// Redeem is idempotent-safe at the caller level: the handler only
// calls it the first time a reservation is redeemed (spec.md §4.3's
// "if the reservation has never been redeemed" guard lives in the
// handler, not here, since generating ticket codes is an effect this
// package shouldn't decide to skip or repeat).
func (s *Store) Redeem(r *Reservation, tickets []string) {
	r.Tickets = tickets
	s.expiry.remove(r.ID, r.Expiration)
	delete(s.liveCookie, r.Cookie)
}

// Sweep removes every reservation whose expiration is strictly before
// now (a Unix timestamp in seconds) and has not been redeemed, per
// spec.md §4.5. It returns the removed reservations so the caller can
// credit their tickets back to the catalog and log the expirations.
//
// A redeemed reservation is never returned here because Redeem already
// removed it from the expiration index.
func (s *Store) Sweep(now uint64) []*Reservation {
	ids := s.expiry.sweepBefore(now)
	if len(ids) == 0 {
		return nil
	}

	expired := make([]*Reservation, 0, len(ids))
	for _, id := range ids {
		r := s.byID[id]
		if r == nil {
			continue
		}
		delete(s.byID, id)
		delete(s.liveCookie, r.Cookie)
		expired = append(expired, r)
	}
	return expired
}
