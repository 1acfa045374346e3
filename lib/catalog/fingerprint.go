// Copyright 2026 The Ticketd Authors
// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// catalogDomainKey is a fixed 32-byte key for BLAKE3 keyed hashing,
// domain-separating catalog fingerprints from any other keyed hash a
// future ticketd component might add. Readable ASCII, zero-padded,
// mirrors the teacher's lib/artifact domain-key convention.
var catalogDomainKey = [32]byte{
	't', 'i', 'c', 'k', 'e', 't', 'd', '.', 'c', 'a', 't', 'a', 'l', 'o', 'g',
}

// Fingerprint computes a keyed BLAKE3 digest of the raw catalog file
// content. It's logged once at startup so operators can confirm which
// catalog file is actually live without diffing the file by hand.
func Fingerprint(content []byte) [32]byte {
	hasher, err := blake3.NewKeyed(catalogDomainKey[:])
	if err != nil {
		// NewKeyed only fails for a wrong-size key; catalogDomainKey is
		// a fixed 32-byte array, so this is unreachable.
		panic("catalog: blake3.NewKeyed: " + err.Error())
	}
	hasher.Write(content)

	var digest [32]byte
	copy(digest[:], hasher.Sum(nil))
	return digest
}

// FormatFingerprint returns the hex encoding of a Fingerprint digest
// for log output.
func FormatFingerprint(digest [32]byte) string {
	return hex.EncodeToString(digest[:])
}
