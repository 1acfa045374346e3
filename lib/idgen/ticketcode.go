// Copyright 2026 The Ticketd Authors
// SPDX-License-Identifier: Apache-2.0

package idgen

// TicketCodeLength is the fixed length of a ticket code (spec.md §3).
const TicketCodeLength = 7

// ticketAlphabet is the 36-symbol alphabet, digits ordered below
// letters, per spec.md §4.4.
const ticketAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// TicketCodeGenerator produces the deterministic monotonic sequence of
// 7-character ticket codes described in spec.md §4.4: a little-endian
// (position 0 first) successor over the 36-symbol alphabet, starting
// at "0000000".
//
// A TicketCodeGenerator is owned by the single-threaded event loop
// (spec.md §5) and is not safe for concurrent use.
type TicketCodeGenerator struct {
	cursor [TicketCodeLength]byte
}

// NewTicketCodeGenerator returns a generator whose first Next() call
// yields "0000000".
func NewTicketCodeGenerator() *TicketCodeGenerator {
	g := &TicketCodeGenerator{}
	for i := range g.cursor {
		g.cursor[i] = ticketAlphabet[0]
	}
	return g
}

// Next returns the current cursor value, then advances the cursor by
// one per the successor rule in spec.md §4.4. After 36^7 calls the
// cursor wraps back through "0000000" — spec.md §9 leaves wraparound
// behavior unspecified, and this implementation's total successor rule
// means a wrapped generator silently starts reissuing old codes rather
// than erroring. No deployment is expected to reach 36^7 ≈ 7.8×10^10
// issued tickets.
func (g *TicketCodeGenerator) Next() string {
	code := string(g.cursor[:])
	g.advance()
	return code
}

func (g *TicketCodeGenerator) advance() {
	for i := range g.cursor {
		next, carry := successor(g.cursor[i])
		g.cursor[i] = next
		if !carry {
			return
		}
	}
}

// successor returns the next symbol in ticketAlphabet after b, and
// whether advancing b caused a carry (b was the last symbol, 'Z').
func successor(b byte) (next byte, carry bool) {
	for i, symbol := range []byte(ticketAlphabet) {
		if symbol == b {
			if i == len(ticketAlphabet)-1 {
				return ticketAlphabet[0], true
			}
			return ticketAlphabet[i+1], false
		}
	}
	// Unreachable: the cursor only ever holds bytes drawn from
	// ticketAlphabet by construction (initialized in
	// NewTicketCodeGenerator and only ever written by this function).
	panic("idgen: ticket code cursor contains a byte outside the alphabet")
}
