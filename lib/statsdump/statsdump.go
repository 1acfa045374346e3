// Copyright 2026 The Ticketd Authors
// SPDX-License-Identifier: Apache-2.0

// Package statsdump periodically writes a CBOR-encoded snapshot of
// ticketd's counters to disk for external monitoring to scrape. This
// is pure diagnostics, not persisted application state — spec.md §6's
// "Persisted state: None" is about reservations and catalog inventory,
// which this package never touches; restarting ticketd still resets
// all of that.
package statsdump

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fxamacker/cbor/v2"
	"github.com/klauspost/compress/zstd"
)

// encMode is configured with Core Deterministic Encoding, matching the
// teacher's lib/codec: sorted map keys, smallest integer encoding, no
// indefinite-length items, so identical snapshots produce identical
// bytes (useful when diffing rotated snapshots by hand).
var encMode cbor.EncMode

func init() {
	options := cbor.CoreDetEncOptions()
	options.TextMarshaler = cbor.TextMarshalerTextString
	mode, err := options.EncMode()
	if err != nil {
		panic("statsdump: CBOR encoder initialization failed: " + err.Error())
	}
	encMode = mode
}

// Snapshot is one point-in-time capture of ticketd's counters.
type Snapshot struct {
	// UnixSeconds is when the snapshot was taken.
	UnixSeconds uint64 `cbor:"unix_seconds"`

	// EventsServed counts GET_EVENTS replies sent.
	EventsServed uint64 `cbor:"events_served"`

	// ReservationsAccepted counts successful GET_RESERVATION replies.
	ReservationsAccepted uint64 `cbor:"reservations_accepted"`

	// ReservationsRejected counts BAD_REQUEST replies to GET_RESERVATION.
	ReservationsRejected uint64 `cbor:"reservations_rejected"`

	// RedemptionsAccepted counts successful GET_TICKETS replies
	// (including idempotent repeats).
	RedemptionsAccepted uint64 `cbor:"redemptions_accepted"`

	// RedemptionsRejected counts BAD_REQUEST replies to GET_TICKETS.
	RedemptionsRejected uint64 `cbor:"redemptions_rejected"`

	// ActiveReservations is the number of unredeemed, unexpired
	// reservations at snapshot time.
	ActiveReservations uint64 `cbor:"active_reservations"`

	// TicketsIssued is the lifetime count of ticket codes generated.
	TicketsIssued uint64 `cbor:"tickets_issued"`

	// ExpiredReservations counts reservations the sweeper has reclaimed.
	ExpiredReservations uint64 `cbor:"expired_reservations"`

	// CatalogFingerprint is the hex-encoded BLAKE3 digest of the
	// catalog file that was loaded at startup (lib/catalog.Fingerprint).
	CatalogFingerprint string `cbor:"catalog_fingerprint"`
}

// Write encodes snapshot as CBOR and atomically replaces the file at
// path. If a file already exists at path, it is first compressed with
// zstd (mirroring the teacher's lib/artifactstore use of
// klauspost/compress for content at rest) and kept alongside as
// path+".1.zst", so an operator always has the previous interval's
// counters even if the process dies mid-write.
func Write(path string, snapshot Snapshot) error {
	encoded, err := encMode.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("statsdump: encoding snapshot: %w", err)
	}

	if err := rotate(path); err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, encoded, 0o644); err != nil {
		return fmt.Errorf("statsdump: writing %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("statsdump: renaming %s to %s: %w", tmp, path, err)
	}
	return nil
}

// rotate compresses an existing snapshot file at path into
// path+".1.zst", if one exists. Absence of a prior file is not an
// error — the very first Write has nothing to rotate.
func rotate(path string) error {
	previous, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("statsdump: reading previous snapshot %s: %w", path, err)
	}

	encoder, err := zstd.NewWriter(nil)
	if err != nil {
		return fmt.Errorf("statsdump: creating zstd encoder: %w", err)
	}
	defer encoder.Close()

	compressed := encoder.EncodeAll(previous, nil)
	rotatedPath := path + ".1.zst"
	if err := os.WriteFile(rotatedPath, compressed, 0o644); err != nil {
		return fmt.Errorf("statsdump: writing rotated snapshot %s: %w", rotatedPath, err)
	}
	return nil
}

// Read decodes a snapshot previously written by Write.
func Read(path string) (Snapshot, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Snapshot{}, fmt.Errorf("statsdump: reading %s: %w", path, err)
	}

	var snapshot Snapshot
	if err := cbor.Unmarshal(content, &snapshot); err != nil {
		return Snapshot{}, fmt.Errorf("statsdump: decoding %s: %w", path, err)
	}
	return snapshot, nil
}

// ReadRotated decodes the previous interval's snapshot, compressed by
// the most recent rotate().
func ReadRotated(path string) (Snapshot, error) {
	rotatedPath := path + ".1.zst"
	compressed, err := os.ReadFile(rotatedPath)
	if err != nil {
		return Snapshot{}, fmt.Errorf("statsdump: reading %s: %w", rotatedPath, err)
	}

	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return Snapshot{}, fmt.Errorf("statsdump: creating zstd decoder: %w", err)
	}
	defer decoder.Close()

	content, err := decoder.DecodeAll(compressed, nil)
	if err != nil {
		return Snapshot{}, fmt.Errorf("statsdump: decompressing %s: %w", rotatedPath, err)
	}

	var snapshot Snapshot
	if err := cbor.Unmarshal(content, &snapshot); err != nil {
		return Snapshot{}, fmt.Errorf("statsdump: decoding %s: %w", rotatedPath, err)
	}
	return snapshot, nil
}

// EnsureDir creates the parent directory of path if it doesn't exist,
// so callers can point StatsPath at a fresh directory without a
// separate mkdir step.
func EnsureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("statsdump: creating directory %s: %w", dir, err)
	}
	return nil
}
