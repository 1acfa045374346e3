// Copyright 2026 The Ticketd Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil provides small, focused helpers for classifying
// network errors. ticketd's event loop needs exactly one: telling a
// normal shutdown-triggered close apart from a genuine transport
// anomaly (spec.md §7 category 2), so that only the latter propagates
// up as a fatal error.
package netutil

import (
	"errors"
	"io"
	"net"
	"syscall"
)

// IsExpectedCloseError reports whether err is a normal connection
// termination: EOF, closed connection, broken pipe, or connection
// reset. ticketd's event loop closes its own UDP socket in response to
// context cancellation (see internal/core.Run); the ReadFrom call
// blocked on that socket then fails with net.ErrClosed, which is this
// shutdown path working as intended, not a transport anomaly worth
// terminating the process over with a fatal diagnostic.
func IsExpectedCloseError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
		return true
	}
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno == syscall.EPIPE || errno == syscall.ECONNRESET
	}
	return false
}
