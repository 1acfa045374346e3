// Copyright 2026 The Ticketd Authors
// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
)

// Load reads a catalog from the alternating-line text format described
// in spec.md §6: odd lines (1-indexed) give a description, even lines
// give the initial ticket count as a decimal unsigned integer. Event
// ids are assigned 0, 1, 2, ... in stream order.
//
// This mirrors _examples/original_source's initialize_database, which
// reads a description line then a paired count line per event; see
// SPEC_FULL.md's "Supplemented features" for why a trailing unpaired
// description line is treated as a startup error here rather than
// silently defaulting that event's count to zero.
func Load(r io.Reader) (*Catalog, error) {
	scanner := bufio.NewScanner(r)
	// Descriptions are bounded at 255 bytes but a malicious or corrupt
	// catalog line could otherwise be arbitrarily long; cap generously.
	scanner.Buffer(make([]byte, 0, 4096), 1<<20)

	var descriptions []string
	var counts []uint16

	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		description := scanner.Text()

		if !scanner.Scan() {
			return nil, fmt.Errorf("catalog: line %d %q has no paired ticket-count line", lineNumber, description)
		}
		lineNumber++
		countLine := scanner.Text()

		count, err := strconv.ParseUint(countLine, 10, 16)
		if err != nil {
			return nil, fmt.Errorf("catalog: line %d %q is not a valid uint16 ticket count: %w", lineNumber, countLine, err)
		}
		if count > math.MaxUint16 {
			return nil, fmt.Errorf("catalog: line %d ticket count %d exceeds uint16 range", lineNumber, count)
		}

		descriptions = append(descriptions, description)
		counts = append(counts, uint16(count))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("catalog: reading catalog: %w", err)
	}

	return New(descriptions, counts)
}

// LoadFile opens path and loads a catalog from it, per Load. It also
// returns the raw file content so callers can compute a fingerprint
// with Fingerprint without a second read.
func LoadFile(path string) (*Catalog, []byte, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("catalog: opening %s: %w", path, err)
	}

	c, err := Load(bytes.NewReader(content))
	if err != nil {
		return nil, nil, err
	}
	return c, content, nil
}
