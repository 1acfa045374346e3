// Copyright 2026 The Ticketd Authors
// SPDX-License-Identifier: Apache-2.0

package core

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/ticketworks/ticketd/lib/catalog"
	"github.com/ticketworks/ticketd/lib/clock"
	"github.com/ticketworks/ticketd/lib/netutil"
	"github.com/ticketworks/ticketd/lib/wire"
)

func TestIsReadTimeout(t *testing.T) {
	t.Parallel()

	conn, err := net.ListenPacket("udp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("ListenPacket() error: %v", err)
	}
	defer conn.Close()

	if err := conn.SetReadDeadline(time.Now().Add(time.Millisecond)); err != nil {
		t.Fatalf("SetReadDeadline() error: %v", err)
	}

	buf := make([]byte, 64)
	_, _, readErr := conn.ReadFrom(buf)
	if !isReadTimeout(readErr) {
		t.Fatalf("isReadTimeout(%v) = false, want true", readErr)
	}
	if netutil.IsExpectedCloseError(readErr) {
		t.Fatalf("IsExpectedCloseError(%v) = true, want false", readErr)
	}
}

func TestIsExpectedShutdownAfterClose(t *testing.T) {
	t.Parallel()

	conn, err := net.ListenPacket("udp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("ListenPacket() error: %v", err)
	}
	conn.Close()

	buf := make([]byte, 64)
	_, _, readErr := conn.ReadFrom(buf)
	if !netutil.IsExpectedCloseError(readErr) {
		t.Fatalf("IsExpectedCloseError(%v) = false, want true", readErr)
	}
	if !errors.Is(readErr, net.ErrClosed) {
		t.Fatalf("expected net.ErrClosed, got %v", readErr)
	}
}

func TestRunStopsGracefullyOnContextCancel(t *testing.T) {
	t.Parallel()

	cat, err := catalog.New([]string{"Concert"}, []uint16{10})
	if err != nil {
		t.Fatalf("catalog.New() error: %v", err)
	}
	fake := clock.Fake(time.Unix(1_700_000_000, 0))
	server := New(cat, 5, fake, nil)

	conn, err := net.ListenPacket("udp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("ListenPacket() error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	runDone := make(chan error, 1)
	go func() {
		runDone <- server.Run(ctx, conn, RunOptions{})
	}()

	cancel()

	select {
	case err := <-runDone:
		if err != nil {
			t.Fatalf("Run() returned %v, want nil on graceful shutdown", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after context cancellation")
	}
}

func TestRunDispatchesOverUDP(t *testing.T) {
	t.Parallel()

	cat, err := catalog.New([]string{"Concert"}, []uint16{10})
	if err != nil {
		t.Fatalf("catalog.New() error: %v", err)
	}
	fake := clock.Fake(time.Unix(1_700_000_000, 0))
	server := New(cat, 5, fake, nil)

	serverConn, err := net.ListenPacket("udp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("ListenPacket() error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	runDone := make(chan error, 1)
	go func() {
		runDone <- server.Run(ctx, serverConn, RunOptions{})
	}()

	clientConn, err := net.Dial("udp4", serverConn.LocalAddr().String())
	if err != nil {
		t.Fatalf("Dial() error: %v", err)
	}
	defer clientConn.Close()

	if _, err := clientConn.Write(wire.EncodeGetEvents()); err != nil {
		t.Fatalf("Write() error: %v", err)
	}

	if err := clientConn.SetReadDeadline(time.Now().Add(5 * time.Second)); err != nil {
		t.Fatalf("SetReadDeadline() error: %v", err)
	}
	buf := make([]byte, wire.MaxDatagramSize)
	n, err := clientConn.Read(buf)
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}

	records, err := wire.DecodeEvents(buf[1:n])
	if err != nil {
		t.Fatalf("DecodeEvents() error: %v", err)
	}
	if len(records) != 1 || records[0].Description != "Concert" {
		t.Fatalf("records = %+v", records)
	}

	cancel()
	select {
	case <-runDone:
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after context cancellation")
	}
}
