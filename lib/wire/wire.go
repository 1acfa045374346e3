// Copyright 2026 The Ticketd Authors
// SPDX-License-Identifier: Apache-2.0

// Package wire implements the ticketd binary datagram protocol: six
// fixed-format message types distinguished by their first byte, all
// multi-byte integers big-endian.
//
// The dispatcher (internal/core) switches on the first byte of an
// inbound datagram and calls the matching DecodeGetX function on the
// remaining bytes (GET_EVENTS, which has no payload, is checked whole
// with IsValidGetEvents). Server replies (Events, Reservation, Tickets,
// BadRequest) encode via Encode/EncodeEvents into a byte slice the
// caller sends as-is. The layout mirrors the teacher's observe package,
// which frames its own binary messages with fixed headers and explicit
// length fields rather than a self-describing codec — but every field
// here is exactly where spec.md §4.1 puts it, since this protocol (unlike
// observe's) is consumed by an independent client implementation.
package wire

import (
	"encoding/binary"
	"fmt"
)

// Message type tags. These are the first byte of every datagram.
const (
	TypeGetEvents      byte = 1
	TypeEvents         byte = 2
	TypeGetReservation byte = 3
	TypeReservation    byte = 4
	TypeGetTickets     byte = 5
	TypeTickets        byte = 6
	TypeBadRequest     byte = 255
)

// MaxDatagramSize is the IPv4/UDP payload ceiling (spec.md §6).
const MaxDatagramSize = 65507

// CookieSize is the fixed length of a reservation cookie in bytes.
const CookieSize = 48

// TicketCodeSize is the fixed length of one ticket code in bytes.
const TicketCodeSize = 7

// Fixed request lengths, by type.
const (
	getEventsLength      = 1
	getReservationLength = 1 + 4 + 2
	getTicketsLength     = 1 + 4 + CookieSize
)

// Fixed reply lengths.
const (
	eventsHeaderLength      = 1
	reservationReplyLength  = 1 + 4 + 4 + 2 + CookieSize + 8
	ticketsHeaderLength     = 1 + 4 + 2
	badRequestReplyLength   = 1 + 4
	eventRecordHeaderLength = 4 + 2 + 1 // id:u32 | available:u16 | desc_len:u8
)

// ErrMalformed is returned by decode functions when a datagram has the
// wrong length or an otherwise invalid shape for its declared type.
// Per spec.md §4.2/§7, malformed datagrams are logged and dropped —
// never answered with BAD_REQUEST.
type ErrMalformed struct {
	Reason string
}

func (e *ErrMalformed) Error() string { return "wire: malformed datagram: " + e.Reason }

func malformed(format string, args ...any) error {
	return &ErrMalformed{Reason: fmt.Sprintf(format, args...)}
}

// GetReservationRequest is the decoded form of a GET_RESERVATION
// datagram (type 3).
type GetReservationRequest struct {
	EventID     uint32
	TicketCount uint16
}

// GetTicketsRequest is the decoded form of a GET_TICKETS datagram
// (type 5).
type GetTicketsRequest struct {
	ReservationID uint32
	Cookie        [CookieSize]byte
}

// EncodeGetEvents returns the one-byte GET_EVENTS datagram.
func EncodeGetEvents() []byte {
	return []byte{TypeGetEvents}
}

// EncodeGetReservation returns the wire bytes for a GET_RESERVATION
// request (including its type byte). Used by clients and by tests that
// drive the dispatcher directly rather than through a socket.
func EncodeGetReservation(eventID uint32, ticketCount uint16) []byte {
	buf := make([]byte, getReservationLength)
	buf[0] = TypeGetReservation
	binary.BigEndian.PutUint32(buf[1:5], eventID)
	binary.BigEndian.PutUint16(buf[5:7], ticketCount)
	return buf
}

// EncodeGetTickets returns the wire bytes for a GET_TICKETS request
// (including its type byte).
func EncodeGetTickets(reservationID uint32, cookie [CookieSize]byte) []byte {
	buf := make([]byte, getTicketsLength)
	buf[0] = TypeGetTickets
	binary.BigEndian.PutUint32(buf[1:5], reservationID)
	copy(buf[5:5+CookieSize], cookie[:])
	return buf
}

// DecodeGetReservation parses a GET_RESERVATION payload (the bytes
// after the type byte). Returns ErrMalformed if the length is wrong.
func DecodeGetReservation(payload []byte) (GetReservationRequest, error) {
	if len(payload) != getReservationLength-1 {
		return GetReservationRequest{}, malformed("GET_RESERVATION length %d, want %d", len(payload)+1, getReservationLength)
	}
	return GetReservationRequest{
		EventID:     binary.BigEndian.Uint32(payload[0:4]),
		TicketCount: binary.BigEndian.Uint16(payload[4:6]),
	}, nil
}

// DecodeGetTickets parses a GET_TICKETS payload (the bytes after the
// type byte). Returns ErrMalformed if the length is wrong.
func DecodeGetTickets(payload []byte) (GetTicketsRequest, error) {
	if len(payload) != getTicketsLength-1 {
		return GetTicketsRequest{}, malformed("GET_TICKETS length %d, want %d", len(payload)+1, getTicketsLength)
	}
	request := GetTicketsRequest{
		ReservationID: binary.BigEndian.Uint32(payload[0:4]),
	}
	copy(request.Cookie[:], payload[4:4+CookieSize])
	return request, nil
}

// IsValidGetEvents reports whether a received datagram (including its
// type byte) is a well-formed GET_EVENTS request: exactly one byte.
func IsValidGetEvents(datagram []byte) bool {
	return len(datagram) == getEventsLength
}

// EventRecord is one entry in an EVENTS reply.
type EventRecord struct {
	ID          uint32
	Available   uint16
	Description string
}

// EncodeEvents writes an EVENTS reply (type 2) built from records into
// buf starting at offset 0 (buf's previous contents are discarded and
// its capacity reused), stopping before any record that would overflow
// MaxDatagramSize. It returns the encoded datagram and the number of
// records actually written. Per spec.md §4.1, the list has no length prefix —
// the datagram length itself terminates it — so a client can only
// recover the count by decoding until the buffer is exhausted.
func EncodeEvents(buf []byte, records []EventRecord) (encoded []byte, written int) {
	buf = buf[:0]
	buf = append(buf, TypeEvents)

	for _, record := range records {
		recordLength := eventRecordHeaderLength + len(record.Description)
		if len(buf)+recordLength > MaxDatagramSize {
			break
		}

		var header [eventRecordHeaderLength]byte
		binary.BigEndian.PutUint32(header[0:4], record.ID)
		binary.BigEndian.PutUint16(header[4:6], record.Available)
		header[6] = byte(len(record.Description))

		buf = append(buf, header[:]...)
		buf = append(buf, record.Description...)
		written++
	}

	return buf, written
}

// DecodeEvents parses an EVENTS reply payload (the bytes after the
// type byte) into a slice of records. Used by tests to round-trip
// EncodeEvents and by any client-side tooling.
func DecodeEvents(payload []byte) ([]EventRecord, error) {
	var records []EventRecord
	offset := 0
	for offset < len(payload) {
		if offset+eventRecordHeaderLength > len(payload) {
			return nil, malformed("truncated event record header at offset %d", offset)
		}
		id := binary.BigEndian.Uint32(payload[offset : offset+4])
		available := binary.BigEndian.Uint16(payload[offset+4 : offset+6])
		descLen := int(payload[offset+6])
		offset += eventRecordHeaderLength
		if offset+descLen > len(payload) {
			return nil, malformed("truncated event description at offset %d", offset)
		}
		description := string(payload[offset : offset+descLen])
		offset += descLen
		records = append(records, EventRecord{ID: id, Available: available, Description: description})
	}
	return records, nil
}

// ReservationReply is the decoded/encoded form of a RESERVATION reply
// (type 4).
type ReservationReply struct {
	ReservationID uint32
	EventID       uint32
	TicketCount   uint16
	Cookie        [CookieSize]byte
	Expiration    uint64
}

// Encode returns the wire bytes for a RESERVATION reply.
func (r ReservationReply) Encode() []byte {
	buf := make([]byte, reservationReplyLength)
	buf[0] = TypeReservation
	binary.BigEndian.PutUint32(buf[1:5], r.ReservationID)
	binary.BigEndian.PutUint32(buf[5:9], r.EventID)
	binary.BigEndian.PutUint16(buf[9:11], r.TicketCount)
	copy(buf[11:11+CookieSize], r.Cookie[:])
	binary.BigEndian.PutUint64(buf[11+CookieSize:11+CookieSize+8], r.Expiration)
	return buf
}

// DecodeReservationReply parses a RESERVATION reply (including its
// type byte). Used by round-trip tests.
func DecodeReservationReply(datagram []byte) (ReservationReply, error) {
	if len(datagram) != reservationReplyLength || datagram[0] != TypeReservation {
		return ReservationReply{}, malformed("RESERVATION reply malformed")
	}
	var reply ReservationReply
	reply.ReservationID = binary.BigEndian.Uint32(datagram[1:5])
	reply.EventID = binary.BigEndian.Uint32(datagram[5:9])
	reply.TicketCount = binary.BigEndian.Uint16(datagram[9:11])
	copy(reply.Cookie[:], datagram[11:11+CookieSize])
	reply.Expiration = binary.BigEndian.Uint64(datagram[11+CookieSize : 11+CookieSize+8])
	return reply, nil
}

// TicketsReply is the decoded/encoded form of a TICKETS reply (type 6).
type TicketsReply struct {
	ReservationID uint32
	Tickets       []string // each exactly TicketCodeSize bytes
}

// Encode returns the wire bytes for a TICKETS reply.
func (t TicketsReply) Encode() []byte {
	buf := make([]byte, ticketsHeaderLength+len(t.Tickets)*TicketCodeSize)
	buf[0] = TypeTickets
	binary.BigEndian.PutUint32(buf[1:5], t.ReservationID)
	binary.BigEndian.PutUint16(buf[5:7], uint16(len(t.Tickets)))
	offset := ticketsHeaderLength
	for _, code := range t.Tickets {
		copy(buf[offset:offset+TicketCodeSize], code)
		offset += TicketCodeSize
	}
	return buf
}

// DecodeTicketsReply parses a TICKETS reply (including its type byte).
// Used by round-trip tests.
func DecodeTicketsReply(datagram []byte) (TicketsReply, error) {
	if len(datagram) < ticketsHeaderLength || datagram[0] != TypeTickets {
		return TicketsReply{}, malformed("TICKETS reply malformed")
	}
	reservationID := binary.BigEndian.Uint32(datagram[1:5])
	count := binary.BigEndian.Uint16(datagram[5:7])
	want := ticketsHeaderLength + int(count)*TicketCodeSize
	if len(datagram) != want {
		return TicketsReply{}, malformed("TICKETS reply length %d, want %d", len(datagram), want)
	}
	tickets := make([]string, count)
	offset := ticketsHeaderLength
	for i := range tickets {
		tickets[i] = string(datagram[offset : offset+TicketCodeSize])
		offset += TicketCodeSize
	}
	return TicketsReply{ReservationID: reservationID, Tickets: tickets}, nil
}

// EncodeBadRequest returns the wire bytes for a BAD_REQUEST reply
// (type 255) carrying offendingID. Per spec.md §9, the caller need not
// know whether the id is an event id or a reservation id — this is a
// single operation over an unsigned 32-bit scalar.
func EncodeBadRequest(offendingID uint32) []byte {
	buf := make([]byte, badRequestReplyLength)
	buf[0] = TypeBadRequest
	binary.BigEndian.PutUint32(buf[1:5], offendingID)
	return buf
}

// DecodeBadRequest parses a BAD_REQUEST reply (including its type
// byte). Used by round-trip tests.
func DecodeBadRequest(datagram []byte) (uint32, error) {
	if len(datagram) != badRequestReplyLength || datagram[0] != TypeBadRequest {
		return 0, malformed("BAD_REQUEST reply malformed")
	}
	return binary.BigEndian.Uint32(datagram[1:5]), nil
}
