// Copyright 2026 The Ticketd Authors
// SPDX-License-Identifier: Apache-2.0

package core

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"github.com/ticketworks/ticketd/lib/netutil"
	"github.com/ticketworks/ticketd/lib/statsdump"
	"github.com/ticketworks/ticketd/lib/wire"
)

// SocketOptions tunes the UDP socket spec.md §6 binds (SO_RCVBUF);
// SO_REUSEADDR is always set so a restarted ticketd doesn't wait out a
// TIME_WAIT-equivalent hold on the port (UDP has no TIME_WAIT, but the
// option is harmless).
type SocketOptions struct {
	ReceiveBufferBytes int
}

// Listen binds the UDP/IPv4 socket spec.md §6 describes. Socket tuning
// goes through net.ListenConfig.Control, grounded on the teacher's
// direct golang.org/x/sys/unix syscalls in lib/secret for the same
// reason: the standard library's net package has no portable knob for
// SO_RCVBUF, so the raw syscall is the idiomatic escape hatch.
func Listen(ctx context.Context, addr string, opts SocketOptions) (net.PacketConn, error) {
	lc := net.ListenConfig{
		Control: func(network, address string, c syscall.RawConn) error {
			return c.Control(func(fd uintptr) {
				_ = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
				if opts.ReceiveBufferBytes > 0 {
					_ = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_RCVBUF, opts.ReceiveBufferBytes)
				}
			})
		},
	}

	conn, err := lc.ListenPacket(ctx, "udp4", addr)
	if err != nil {
		return nil, fmt.Errorf("core: binding udp4 %s: %w", addr, err)
	}
	return conn, nil
}

// RunOptions configures the event loop in Run.
type RunOptions struct {
	// StatsPath, if non-empty, enables periodic snapshot writes via
	// lib/statsdump every StatsInterval.
	StatsPath    string
	StatsInterval time.Duration

	// CatalogFingerprint is logged into each snapshot so an operator
	// can confirm which catalog file was live when the snapshot was
	// taken.
	CatalogFingerprint string
}

// Run is ticketd's event loop (spec.md §5): block on receive, dispatch
// exactly one request to completion, repeat. Its only suspension point
// is the receive itself — when stats snapshotting is enabled the
// receive carries a deadline so the loop wakes on a timer even with no
// traffic, but a deadline expiring is still the same suspension point,
// not a second one.
//
// Run returns nil on a graceful shutdown (ctx canceled, or conn closed
// by the caller in response to ctx), and a non-nil error for any other
// receive failure — spec.md §7 category 2's "transport anomalies...
// terminate" maps directly to returning that error up to main().
func (s *Server) Run(ctx context.Context, conn net.PacketConn, opts RunOptions) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	var buf [wire.MaxDatagramSize]byte
	nextSnapshot := s.statsDeadline(opts)

	for {
		if opts.StatsPath != "" && opts.StatsInterval > 0 {
			if err := conn.SetReadDeadline(nextSnapshot); err != nil {
				return fmt.Errorf("core: setting read deadline: %w", err)
			}
		}

		n, addr, err := conn.ReadFrom(buf[:])
		if err != nil {
			if isReadTimeout(err) {
				s.writeSnapshot(opts)
				nextSnapshot = nextSnapshot.Add(opts.StatsInterval)
				continue
			}
			if netutil.IsExpectedCloseError(err) {
				return nil
			}
			return fmt.Errorf("core: receiving datagram: %w", err)
		}

		reply, ok := s.HandleDatagram(buf[:n])
		if !ok {
			continue
		}

		if _, err := conn.WriteTo(reply, addr); err != nil {
			s.logger.Warn("sending reply", "peer", addr, "error", err)
		}
	}
}

func (s *Server) statsDeadline(opts RunOptions) time.Time {
	if opts.StatsPath == "" || opts.StatsInterval <= 0 {
		return time.Time{}
	}
	return s.clock.Now().Add(opts.StatsInterval)
}

func (s *Server) writeSnapshot(opts RunOptions) {
	now := uint64(s.clock.Now().Unix())
	snapshot := s.Snapshot(now, opts.CatalogFingerprint)
	if err := statsdump.Write(opts.StatsPath, snapshot); err != nil {
		s.logger.Warn("writing stats snapshot", "path", opts.StatsPath, "error", err)
	}
}

// isReadTimeout reports whether err is a read-deadline expiration
// rather than a real transport failure.
func isReadTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
