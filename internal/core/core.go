// Copyright 2026 The Ticketd Authors
// SPDX-License-Identifier: Apache-2.0

// Package core is the request-reply protocol engine: the dispatcher,
// its three handlers, and the expiration sweeper that spec.md §2
// calls "the core." It binds lib/catalog, lib/reservation, lib/idgen,
// and lib/wire into one single-threaded event loop (spec.md §5) —
// nothing here takes a lock, because nothing here is ever called from
// more than one goroutine at a time.
//
// Grounded on the teacher's internal/core package existing as the
// placeholder seam for "the thing everything else wires into" — here
// filled with the datagram server itself rather than Bureau's agent
// core.
package core

import (
	"log/slog"

	"github.com/ticketworks/ticketd/lib/catalog"
	"github.com/ticketworks/ticketd/lib/clock"
	"github.com/ticketworks/ticketd/lib/idgen"
	"github.com/ticketworks/ticketd/lib/reservation"
	"github.com/ticketworks/ticketd/lib/wire"
)

// maxTicketCount is the largest ticket_count a single GET_RESERVATION
// may request (spec.md §4.3): with a 7-byte ticket code and a 7-byte
// TICKETS header, ⌊(65507 - 7) / 7⌋ = 9357 tickets is the most that
// fits in one reply datagram.
const maxTicketCount = 9357

// Server holds every piece of in-memory state spec.md §3 and §5
// describe: the catalog, the reservation store, the three identifier
// generators, and a scratch buffer reused across EVENTS replies so a
// large catalog doesn't allocate a new 65507-byte buffer per request.
//
// A Server is owned exclusively by one goroutine — the event loop in
// Run (see socket.go) — and must not be shared across goroutines
// without external synchronization the teacher's own single-owner
// stores also don't provide.
type Server struct {
	catalog *catalog.Catalog
	store   *reservation.Store

	reservationAlloc *idgen.ReservationAllocator
	cookieGen        *idgen.CookieGenerator
	ticketGen        *idgen.TicketCodeGenerator

	clock          clock.Clock
	timeoutSeconds uint64
	logger         *slog.Logger

	eventsBuf [wire.MaxDatagramSize]byte

	stats Stats
}

// New constructs a Server over an already-loaded catalog. timeout is
// the reservation validity window (spec.md §6's "timeout" scalar).
func New(cat *catalog.Catalog, timeout uint64, clk clock.Clock, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		catalog:          cat,
		store:            reservation.New(),
		reservationAlloc: idgen.NewReservationAllocator(),
		cookieGen:        idgen.NewCookieGenerator(),
		ticketGen:        idgen.NewTicketCodeGenerator(),
		clock:            clk,
		timeoutSeconds:   timeout,
		logger:           logger,
	}
}

// HandleDatagram runs one full dispatch pass over an inbound datagram
// (spec.md §4.2): the length-zero check, the expiration sweep, and the
// type switch to a handler. It returns the reply to send, or ok=false
// if the datagram should be dropped with no reply (malformed input or
// an unknown message type — spec.md's "Design decision" that transport
// noise never gets a BAD_REQUEST).
func (s *Server) HandleDatagram(datagram []byte) (reply []byte, ok bool) {
	if len(datagram) == 0 {
		s.logger.Debug("dropping empty datagram")
		return nil, false
	}

	s.sweep()

	switch datagram[0] {
	case wire.TypeGetEvents:
		return s.handleGetEvents(datagram)
	case wire.TypeGetReservation:
		return s.handleGetReservation(datagram[1:])
	case wire.TypeGetTickets:
		return s.handleGetTickets(datagram[1:])
	default:
		s.logger.Debug("dropping datagram with unknown type", "type", datagram[0])
		return nil, false
	}
}

// sweep runs the expiration sweeper (spec.md §4.5) and credits
// reclaimed tickets back to their events' available counts.
func (s *Server) sweep() {
	now := uint64(s.clock.Now().Unix())
	expired := s.store.Sweep(now)
	for _, r := range expired {
		if event := s.catalog.Lookup(r.EventID); event != nil {
			event.Release(r.TicketCount)
		}
		s.stats.ExpiredReservations.Add(1)
		s.logger.Debug("reservation expired", "reservation_id", r.ID, "event_id", r.EventID, "ticket_count", r.TicketCount)
	}
}
