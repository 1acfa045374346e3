// Copyright 2026 The Ticketd Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"fmt"
	"os"
)

// Fatal writes "error: err" to stderr and exits with code 1. This is
// the standard ticketd entrypoint error handler. Use it in main() for
// errors from run() where the structured logger may not be
// initialized — startup failures per spec (invalid configuration,
// unreadable catalog, failed bind).
func Fatal(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
