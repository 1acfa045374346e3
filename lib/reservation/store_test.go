// Copyright 2026 The Ticketd Authors
// SPDX-License-Identifier: Apache-2.0

package reservation

import (
	"testing"

	"github.com/ticketworks/ticketd/lib/idgen"
)

func newTestReservation(id uint32, expiration uint64) *Reservation {
	var cookie [idgen.CookieSize]byte
	cookie[0] = byte(id) // distinct per id for these tests
	return &Reservation{ID: id, EventID: 0, TicketCount: 1, Cookie: cookie, Expiration: expiration}
}

func TestStoreAddGetMaxHas(t *testing.T) {
	t.Parallel()

	s := New()
	if _, ok := s.Max(); ok {
		t.Fatal("empty store should report no max")
	}

	r1 := newTestReservation(idgen.ReservationIDFloor, 100)
	r2 := newTestReservation(idgen.ReservationIDFloor+5, 200)
	s.Add(r1)
	s.Add(r2)

	if max, ok := s.Max(); !ok || max != idgen.ReservationIDFloor+5 {
		t.Fatalf("Max() = (%d, %v), want (%d, true)", max, ok, idgen.ReservationIDFloor+5)
	}
	if !s.Has(r1.ID) || !s.Has(r2.ID) {
		t.Fatal("Has() should report both reservations present")
	}
	if s.Get(r1.ID) != r1 {
		t.Fatal("Get() should return the same pointer that was Added")
	}
	if !s.CookieLive(r1.Cookie) {
		t.Fatal("CookieLive() should be true for an active reservation's cookie")
	}
}

func TestStoreRedeemRemovesFromExpiryAndFreesCookie(t *testing.T) {
	t.Parallel()

	s := New()
	r := newTestReservation(idgen.ReservationIDFloor, 100)
	s.Add(r)

	s.Redeem(r, []string{"0000000"})

	if !r.Redeemed() {
		t.Fatal("Redeemed() should be true after Redeem")
	}
	if s.CookieLive(r.Cookie) {
		t.Fatal("cookie should be freed after redemption")
	}
	// Sweeping past the (now-inert) expiration must not remove a
	// redeemed reservation.
	if expired := s.Sweep(1000); len(expired) != 0 {
		t.Fatalf("Sweep() removed %d redeemed reservations, want 0", len(expired))
	}
	if !s.Has(r.ID) {
		t.Fatal("redeemed reservation should persist in the store")
	}
}

func TestStoreSweepRemovesOnlyExpired(t *testing.T) {
	t.Parallel()

	s := New()
	early := newTestReservation(idgen.ReservationIDFloor, 100)
	late := newTestReservation(idgen.ReservationIDFloor+1, 200)
	s.Add(early)
	s.Add(late)

	expired := s.Sweep(150)
	if len(expired) != 1 || expired[0].ID != early.ID {
		t.Fatalf("Sweep(150) = %v, want only %d", idsOf(expired), early.ID)
	}
	if s.Has(early.ID) {
		t.Fatal("expired reservation should be removed from the store")
	}
	if !s.Has(late.ID) {
		t.Fatal("unexpired reservation should remain")
	}
	if s.CookieLive(early.Cookie) {
		t.Fatal("expired reservation's cookie should be freed")
	}

	// now == expiration is not yet expired ("strictly less than now").
	if expired := s.Sweep(200); len(expired) != 0 {
		t.Fatalf("Sweep(200) removed %v, want none (boundary not yet expired)", idsOf(expired))
	}
	if expired := s.Sweep(201); len(expired) != 1 || expired[0].ID != late.ID {
		t.Fatalf("Sweep(201) = %v, want only %d", idsOf(expired), late.ID)
	}
}

func TestStoreSweepSharedTimestampBucket(t *testing.T) {
	t.Parallel()

	s := New()
	a := newTestReservation(idgen.ReservationIDFloor, 100)
	b := newTestReservation(idgen.ReservationIDFloor+1, 100)
	s.Add(a)
	s.Add(b)

	expired := s.Sweep(101)
	if len(expired) != 2 {
		t.Fatalf("Sweep() removed %d, want 2 (shared timestamp bucket)", len(expired))
	}
}

func idsOf(rs []*Reservation) []uint32 {
	ids := make([]uint32, len(rs))
	for i, r := range rs {
		ids[i] = r.ID
	}
	return ids
}
