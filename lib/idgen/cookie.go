// Copyright 2026 The Ticketd Authors
// SPDX-License-Identifier: Apache-2.0

package idgen

import (
	"crypto/rand"
	"fmt"
)

// CookieSize is the fixed length of a reservation cookie (spec.md §3).
const CookieSize = 48

// cookieByteFloor and cookieByteRange describe the inclusive ASCII
// range [33, 126] each cookie byte is drawn from, per spec.md §3.
const (
	cookieByteFloor = 33
	cookieByteRange = 126 - 33 + 1 // 94
)

// CookieGenerator produces random 48-byte printable-ASCII cookies,
// rejection-sampled for global uniqueness against whatever set of live
// cookies the caller supplies. Entropy comes from crypto/rand, mirroring
// lib/servicetoken's use of crypto/rand for key material.
type CookieGenerator struct{}

// NewCookieGenerator returns a CookieGenerator. Like
// ReservationAllocator, it's stateless — the caller supplies the
// uniqueness set at call time — so the constructor exists for call-site
// symmetry rather than necessity.
func NewCookieGenerator() *CookieGenerator {
	return &CookieGenerator{}
}

// Exists reports whether a cookie is currently live. Implemented by
// the reservation store.
type Exists func(cookie [CookieSize]byte) bool

// Next draws a cookie uniformly from the 94^48 possible values and
// retries if it collides with an existing live cookie. Collision
// probability is negligible (spec.md §4.4); the loop exists for formal
// totality, not because collisions are expected in practice.
func (g *CookieGenerator) Next(exists Exists) ([CookieSize]byte, error) {
	for {
		cookie, err := randomCookie()
		if err != nil {
			return cookie, err
		}
		if !exists(cookie) {
			return cookie, nil
		}
	}
}

func randomCookie() ([CookieSize]byte, error) {
	// Bytes at or above the largest multiple of 94 that fits in a byte
	// are rejected, so b%cookieByteRange stays uniform.
	const rejectFrom = 256 - 256%cookieByteRange // 188

	var cookie [CookieSize]byte
	var raw [CookieSize]byte
	filled := 0
	for filled < CookieSize {
		if _, err := rand.Read(raw[:]); err != nil {
			return cookie, fmt.Errorf("idgen: reading random bytes for cookie: %w", err)
		}
		for _, b := range raw {
			if b >= rejectFrom || filled == CookieSize {
				continue
			}
			cookie[filled] = cookieByteFloor + b%cookieByteRange
			filled++
		}
	}
	return cookie, nil
}
