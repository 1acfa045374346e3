// Copyright 2026 The Ticketd Authors
// SPDX-License-Identifier: Apache-2.0

package core

import (
	"github.com/ticketworks/ticketd/lib/reservation"
	"github.com/ticketworks/ticketd/lib/wire"
)

// handleGetEvents implements spec.md §4.3's GET_EVENTS handler.
func (s *Server) handleGetEvents(datagram []byte) (reply []byte, ok bool) {
	if !wire.IsValidGetEvents(datagram) {
		s.logger.Debug("dropping malformed GET_EVENTS", "length", len(datagram))
		return nil, false
	}

	events := s.catalog.Events()
	records := make([]wire.EventRecord, len(events))
	for i, event := range events {
		records[i] = wire.EventRecord{
			ID:          event.ID,
			Available:   event.Available,
			Description: event.Description,
		}
	}

	encoded, written := wire.EncodeEvents(s.eventsBuf[:], records)
	if written < len(records) {
		s.logger.Warn("EVENTS reply truncated to fit maximum datagram size",
			"catalog_size", len(records), "records_written", written)
	}
	s.stats.EventsServed.Add(1)
	return encoded, true
}

// handleGetReservation implements spec.md §4.3's GET_RESERVATION
// handler. payload excludes the leading type byte.
func (s *Server) handleGetReservation(payload []byte) (reply []byte, ok bool) {
	request, err := wire.DecodeGetReservation(payload)
	if err != nil {
		s.logger.Debug("dropping malformed GET_RESERVATION", "error", err)
		return nil, false
	}

	event := s.catalog.Lookup(request.EventID)
	switch {
	case event == nil:
		s.logger.Debug("rejecting GET_RESERVATION for unknown event", "event_id", request.EventID)
		s.stats.ReservationsRejected.Add(1)
		return wire.EncodeBadRequest(request.EventID), true
	case request.TicketCount == 0:
		s.logger.Debug("rejecting GET_RESERVATION for zero tickets", "event_id", request.EventID)
		s.stats.ReservationsRejected.Add(1)
		return wire.EncodeBadRequest(request.EventID), true
	case request.TicketCount > maxTicketCount:
		s.logger.Debug("rejecting GET_RESERVATION over max ticket count",
			"event_id", request.EventID, "ticket_count", request.TicketCount)
		s.stats.ReservationsRejected.Add(1)
		return wire.EncodeBadRequest(request.EventID), true
	case request.TicketCount > event.Available:
		s.logger.Debug("rejecting GET_RESERVATION over available inventory",
			"event_id", request.EventID, "ticket_count", request.TicketCount, "available", event.Available)
		s.stats.ReservationsRejected.Add(1)
		return wire.EncodeBadRequest(request.EventID), true
	}

	if !event.Reserve(request.TicketCount) {
		// Unreachable given the Available check above, which observed
		// the same single-threaded, unmutated state Reserve now acts
		// on — but Reserve's own bounds check is the source of truth,
		// so failing safe here costs nothing.
		s.stats.ReservationsRejected.Add(1)
		return wire.EncodeBadRequest(request.EventID), true
	}

	cookie, err := s.cookieGen.Next(s.store.CookieLive)
	if err != nil {
		// Entropy source failure: event.Reserve already mutated
		// Available, so restore it before surfacing this as a dropped
		// request rather than leaking held inventory.
		event.Release(request.TicketCount)
		s.logger.Error("generating reservation cookie", "error", err)
		return nil, false
	}

	id := s.reservationAlloc.Next(s.store)
	now := uint64(s.clock.Now().Unix())
	reservationRecord := &reservation.Reservation{
		ID:          id,
		EventID:     request.EventID,
		TicketCount: request.TicketCount,
		Cookie:      cookie,
		Expiration:  now + s.timeoutSeconds,
	}
	s.store.Add(reservationRecord)
	s.stats.ReservationsAccepted.Add(1)

	return wire.ReservationReply{
		ReservationID: id,
		EventID:       request.EventID,
		TicketCount:   request.TicketCount,
		Cookie:        cookie,
		Expiration:    reservationRecord.Expiration,
	}.Encode(), true
}

// handleGetTickets implements spec.md §4.3's GET_TICKETS handler,
// including re-redemption idempotence.
func (s *Server) handleGetTickets(payload []byte) (reply []byte, ok bool) {
	request, err := wire.DecodeGetTickets(payload)
	if err != nil {
		s.logger.Debug("dropping malformed GET_TICKETS", "error", err)
		return nil, false
	}

	r := s.store.Get(request.ReservationID)
	switch {
	case r == nil:
		s.logger.Debug("rejecting GET_TICKETS for unknown reservation", "reservation_id", request.ReservationID)
		s.stats.RedemptionsRejected.Add(1)
		return wire.EncodeBadRequest(request.ReservationID), true
	case r.Cookie != request.Cookie:
		s.logger.Debug("rejecting GET_TICKETS for cookie mismatch", "reservation_id", request.ReservationID)
		s.stats.RedemptionsRejected.Add(1)
		return wire.EncodeBadRequest(request.ReservationID), true
	}

	if !r.Redeemed() {
		tickets := make([]string, r.TicketCount)
		for i := range tickets {
			tickets[i] = s.ticketGen.Next()
		}
		s.store.Redeem(r, tickets)
		s.stats.TicketsIssued.Add(uint64(len(tickets)))
	}
	s.stats.RedemptionsAccepted.Add(1)

	return wire.TicketsReply{
		ReservationID: r.ID,
		Tickets:       r.Tickets,
	}.Encode(), true
}
