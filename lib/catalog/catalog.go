// Copyright 2026 The Ticketd Authors
// SPDX-License-Identifier: Apache-2.0

// Package catalog holds the immutable set of events ticketd serves and
// their mutable available-ticket counts (spec.md §3).
package catalog

import "fmt"

// MaxDescriptionLength and MinDescriptionLength bound an event
// description per spec.md §3: "length 1-255 bytes."
const (
	MinDescriptionLength = 1
	MaxDescriptionLength = 255
)

// Event is one catalog entry. Description and ID are immutable once
// loaded; Available mutates as reservations are made and released.
type Event struct {
	ID          uint32
	Description string

	// Initial is the ticket count the event was loaded with. Available
	// never exceeds Initial (spec.md §3 invariant).
	Initial   uint16
	Available uint16
}

// Catalog is the immutable-membership, ordered set of events loaded at
// startup. It keeps events both in creation order (for deterministic
// EVENTS replies — see DESIGN.md's "open question" note) and indexed
// by id (for O(1) GET_RESERVATION lookups).
//
// Catalog has no internal locking: per spec.md §5, the single-threaded
// event loop is its only caller, exactly like the rest of ticketd's
// in-memory state.
type Catalog struct {
	ordered []*Event
	byID    map[uint32]*Event
}

// New builds a Catalog from a list of (description, initialCount)
// pairs, assigning ids 0, 1, 2, ... in order, per spec.md §3 and §6.
func New(descriptions []string, counts []uint16) (*Catalog, error) {
	if len(descriptions) != len(counts) {
		return nil, fmt.Errorf("catalog: %d descriptions but %d counts", len(descriptions), len(counts))
	}

	c := &Catalog{byID: make(map[uint32]*Event, len(descriptions))}
	for i, description := range descriptions {
		length := len(description)
		if length < MinDescriptionLength || length > MaxDescriptionLength {
			return nil, fmt.Errorf("catalog: event %d description length %d out of range [%d, %d]", i, length, MinDescriptionLength, MaxDescriptionLength)
		}

		event := &Event{
			ID:          uint32(i),
			Description: description,
			Initial:     counts[i],
			Available:   counts[i],
		}
		c.ordered = append(c.ordered, event)
		c.byID[event.ID] = event
	}
	return c, nil
}

// Lookup returns the event with the given id, or nil if it is not in
// the catalog.
func (c *Catalog) Lookup(id uint32) *Event {
	return c.byID[id]
}

// Events returns the catalog's events in creation order. The slice and
// the *Event values it points to are owned by the Catalog — callers in
// the single-threaded event loop may mutate Available through them but
// must not retain them across a catalog reload (ticketd never reloads,
// so in practice this is just a read view).
func (c *Catalog) Events() []*Event {
	return c.ordered
}

// Len returns the number of events in the catalog.
func (c *Catalog) Len() int {
	return len(c.ordered)
}

// Reserve attempts to subtract count tickets from event's available
// pool. Returns false (no mutation) if count exceeds Available.
func (e *Event) Reserve(count uint16) bool {
	if count > e.Available {
		return false
	}
	e.Available -= count
	return true
}

// Release adds count tickets back to event's available pool, used by
// the expiration sweeper (spec.md §4.5) to restore inventory held by
// an unredeemed, expired reservation.
func (e *Event) Release(count uint16) {
	e.Available += count
	if e.Available > e.Initial {
		// Catalog conservation law (spec.md §3) makes this
		// unreachable in correct operation; guard rather than
		// silently corrupt inventory if it ever is.
		panic(fmt.Sprintf("catalog: event %d available %d exceeds initial %d after release", e.ID, e.Available, e.Initial))
	}
}
