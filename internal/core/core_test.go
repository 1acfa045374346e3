// Copyright 2026 The Ticketd Authors
// SPDX-License-Identifier: Apache-2.0

package core

import (
	"testing"
	"time"

	"github.com/ticketworks/ticketd/lib/catalog"
	"github.com/ticketworks/ticketd/lib/clock"
	"github.com/ticketworks/ticketd/lib/wire"
)

func newTestServer(t *testing.T) (*Server, *clock.FakeClock) {
	t.Helper()
	cat, err := catalog.New([]string{"Concert", "Play"}, []uint16{10, 2})
	if err != nil {
		t.Fatalf("catalog.New() error: %v", err)
	}
	fake := clock.Fake(time.Unix(1_700_000_000, 0))
	return New(cat, 5, fake, nil), fake
}

func getEventsDatagram() []byte { return wire.EncodeGetEvents() }

func getReservationDatagram(eventID uint32, ticketCount uint16) []byte {
	return wire.EncodeGetReservation(eventID, ticketCount)
}

func TestDiscoveryListsBothEvents(t *testing.T) {
	t.Parallel()

	server, _ := newTestServer(t)
	reply, ok := server.HandleDatagram(getEventsDatagram())
	if !ok {
		t.Fatal("GET_EVENTS should always produce a reply")
	}

	records, err := wire.DecodeEvents(reply[1:])
	if err != nil {
		t.Fatalf("DecodeEvents() error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d event records, want 2", len(records))
	}
	if records[0].ID != 0 || records[0].Description != "Concert" || records[0].Available != 10 {
		t.Errorf("record 0 = %+v", records[0])
	}
	if records[1].ID != 1 || records[1].Description != "Play" || records[1].Available != 2 {
		t.Errorf("record 1 = %+v", records[1])
	}
}

func TestReservationThenRedemption(t *testing.T) {
	t.Parallel()

	server, fake := newTestServer(t)

	reply, ok := server.HandleDatagram(getReservationDatagram(0, 3))
	if !ok {
		t.Fatal("GET_RESERVATION should produce a reply")
	}
	reservation, err := wire.DecodeReservationReply(reply)
	if err != nil {
		t.Fatalf("DecodeReservationReply() error: %v", err)
	}
	if reservation.EventID != 0 || reservation.TicketCount != 3 {
		t.Fatalf("reservation = %+v", reservation)
	}
	if want := uint64(fake.Now().Unix()) + 5; reservation.Expiration != want {
		t.Errorf("expiration = %d, want %d", reservation.Expiration, want)
	}
	if event := server.catalog.Lookup(0); event.Available != 7 {
		t.Errorf("event 0 available = %d, want 7", event.Available)
	}

	getTickets := wire.EncodeGetTickets(reservation.ReservationID, reservation.Cookie)
	reply, ok = server.HandleDatagram(getTickets)
	if !ok {
		t.Fatal("GET_TICKETS should produce a reply")
	}
	tickets, err := wire.DecodeTicketsReply(reply)
	if err != nil {
		t.Fatalf("DecodeTicketsReply() error: %v", err)
	}
	if len(tickets.Tickets) != 3 {
		t.Fatalf("got %d tickets, want 3", len(tickets.Tickets))
	}

	// Idempotent re-redemption: identical request yields identical reply.
	reply2, ok := server.HandleDatagram(getTickets)
	if !ok {
		t.Fatal("repeated GET_TICKETS should still produce a reply")
	}
	if string(reply) != string(reply2) {
		t.Fatalf("repeated redemption replies differ: %x vs %x", reply, reply2)
	}
}

func TestOverReservationYieldsBadRequest(t *testing.T) {
	t.Parallel()

	server, _ := newTestServer(t)
	reply, ok := server.HandleDatagram(getReservationDatagram(1, 3))
	if !ok {
		t.Fatal("GET_RESERVATION should produce a BAD_REQUEST reply, not a drop")
	}
	offendingID, err := wire.DecodeBadRequest(reply)
	if err != nil {
		t.Fatalf("DecodeBadRequest() error: %v", err)
	}
	if offendingID != 1 {
		t.Errorf("offending id = %d, want 1", offendingID)
	}
	if event := server.catalog.Lookup(1); event.Available != 2 {
		t.Errorf("event 1 available = %d, want unchanged 2", event.Available)
	}
}

func TestExpirationReturnsTicketsToInventory(t *testing.T) {
	t.Parallel()

	server, fake := newTestServer(t)

	reply, ok := server.HandleDatagram(getReservationDatagram(0, 5))
	if !ok {
		t.Fatal("GET_RESERVATION should produce a reply")
	}
	reservation, err := wire.DecodeReservationReply(reply)
	if err != nil {
		t.Fatalf("DecodeReservationReply() error: %v", err)
	}
	if event := server.catalog.Lookup(0); event.Available != 5 {
		t.Fatalf("event 0 available = %d, want 5", event.Available)
	}

	fake.Advance(6 * time.Second)

	// Any subsequent dispatch runs the sweeper first.
	server.HandleDatagram(getEventsDatagram())

	if event := server.catalog.Lookup(0); event.Available != 10 {
		t.Errorf("event 0 available after expiration = %d, want 10", event.Available)
	}

	getTickets := wire.EncodeGetTickets(reservation.ReservationID, reservation.Cookie)
	reply, ok = server.HandleDatagram(getTickets)
	if !ok {
		t.Fatal("GET_TICKETS after expiration should still produce a BAD_REQUEST reply")
	}
	if _, err := wire.DecodeBadRequest(reply); err != nil {
		t.Fatalf("expected BAD_REQUEST after expiration, got %x", reply)
	}
}

func TestCookieMismatchYieldsBadRequest(t *testing.T) {
	t.Parallel()

	server, _ := newTestServer(t)
	reply, ok := server.HandleDatagram(getReservationDatagram(0, 1))
	if !ok {
		t.Fatal("GET_RESERVATION should produce a reply")
	}
	reservation, err := wire.DecodeReservationReply(reply)
	if err != nil {
		t.Fatalf("DecodeReservationReply() error: %v", err)
	}

	var wrongCookie [wire.CookieSize]byte
	for i := range wrongCookie {
		wrongCookie[i] = '!'
	}

	reply, ok = server.HandleDatagram(wire.EncodeGetTickets(reservation.ReservationID, wrongCookie))
	if !ok {
		t.Fatal("cookie mismatch should produce a BAD_REQUEST reply")
	}
	offendingID, err := wire.DecodeBadRequest(reply)
	if err != nil {
		t.Fatalf("DecodeBadRequest() error: %v", err)
	}
	if offendingID != reservation.ReservationID {
		t.Errorf("offending id = %d, want %d", offendingID, reservation.ReservationID)
	}

	// The reservation remains redeemable with the correct cookie.
	reply, ok = server.HandleDatagram(wire.EncodeGetTickets(reservation.ReservationID, reservation.Cookie))
	if !ok {
		t.Fatal("correct cookie should still redeem after a mismatch")
	}
	if _, err := wire.DecodeTicketsReply(reply); err != nil {
		t.Fatalf("expected TICKETS reply, got error: %v", err)
	}
}

func TestZeroLengthDatagramIsDropped(t *testing.T) {
	t.Parallel()

	server, _ := newTestServer(t)
	if _, ok := server.HandleDatagram(nil); ok {
		t.Fatal("empty datagram should be dropped with no reply")
	}
}

func TestUnknownMessageTypeIsDropped(t *testing.T) {
	t.Parallel()

	server, _ := newTestServer(t)
	if _, ok := server.HandleDatagram([]byte{42}); ok {
		t.Fatal("unknown message type should be dropped with no reply")
	}
}

func TestTicketCountBoundaries(t *testing.T) {
	t.Parallel()

	server := catalogServerWithInventory(t, 20000)

	if _, ok := server.HandleDatagram(getReservationDatagram(0, 0)); !ok {
		t.Fatal("ticket_count=0 should yield BAD_REQUEST, not a drop")
	}
	if reply, ok := server.HandleDatagram(getReservationDatagram(0, 9358)); !ok {
		t.Fatal("ticket_count=9358 should yield BAD_REQUEST, not a drop")
	} else if _, err := wire.DecodeBadRequest(reply); err != nil {
		t.Fatalf("expected BAD_REQUEST, got: %v", err)
	}

	reply, ok := server.HandleDatagram(getReservationDatagram(0, 9357))
	if !ok {
		t.Fatal("ticket_count=9357 should succeed given sufficient inventory")
	}
	if _, err := wire.DecodeReservationReply(reply); err != nil {
		t.Fatalf("expected RESERVATION reply, got: %v", err)
	}
}

func catalogServerWithInventory(t *testing.T, available uint16) *Server {
	t.Helper()
	cat, err := catalog.New([]string{"Big Venue"}, []uint16{available})
	if err != nil {
		t.Fatalf("catalog.New() error: %v", err)
	}
	fake := clock.Fake(time.Unix(1_700_000_000, 0))
	return New(cat, 5, fake, nil)
}
