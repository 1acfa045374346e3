// Copyright 2026 The Ticketd Authors
// SPDX-License-Identifier: Apache-2.0

// ticketd is a connectionless UDP ticket-reservation server: it loads
// a fixed catalog of events from a text file and serves discovery,
// reservation, and redemption requests over a single datagram socket
// until signaled to stop.
//
// Usage:
//
//	ticketd --catalog events.txt [--port 2022] [--timeout 5] [--config ticketd.yaml]
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/ticketworks/ticketd/internal/core"
	"github.com/ticketworks/ticketd/lib/catalog"
	"github.com/ticketworks/ticketd/lib/clock"
	"github.com/ticketworks/ticketd/lib/process"
	"github.com/ticketworks/ticketd/lib/serverconfig"
	"github.com/ticketworks/ticketd/lib/statsdump"
	"github.com/ticketworks/ticketd/lib/version"
)

func main() {
	if err := run(); err != nil {
		process.Fatal(err)
	}
}

func run() error {
	var (
		catalogPath string
		port        uint16
		timeout     uint64
		configPath  string
		showVersion bool
		showHelp    bool
	)

	flagSet := pflag.NewFlagSet("ticketd", pflag.ContinueOnError)
	flagSet.StringVarP(&catalogPath, "catalog", "f", "", "path to the event catalog text file (required)")
	flagSet.Uint16VarP(&port, "port", "p", 2022, "UDP port to bind")
	flagSet.Uint64VarP(&timeout, "timeout", "t", 5, "reservation validity window in seconds (1-86400)")
	flagSet.StringVar(&configPath, "config", "", "path to an optional ambient YAML config file")
	flagSet.BoolVar(&showVersion, "version", false, "print version information and exit")
	flagSet.BoolVarP(&showHelp, "help", "h", false, "show this help message")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			printUsage(flagSet)
			return nil
		}
		return err
	}

	if showHelp {
		printUsage(flagSet)
		return nil
	}
	if showVersion {
		fmt.Println(version.Full())
		return nil
	}

	if catalogPath == "" {
		return fmt.Errorf("ticketd: --catalog is required")
	}
	if timeout < 1 || timeout > 86400 {
		return fmt.Errorf("ticketd: --timeout %d out of range [1, 86400]", timeout)
	}

	cfg, err := serverconfig.Load(configPath)
	if err != nil {
		return err
	}

	logger := newLogger(cfg)

	cat, content, err := catalog.LoadFile(catalogPath)
	if err != nil {
		return fmt.Errorf("ticketd: loading catalog: %w", err)
	}
	fingerprintDigest := catalog.Fingerprint(content)
	fingerprint := catalog.FormatFingerprint(fingerprintDigest)
	logger.Info("catalog loaded",
		"path", catalogPath,
		"event_count", cat.Len(),
		"fingerprint", fingerprint,
	)

	addr := fmt.Sprintf(":%d", port)
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	conn, err := core.Listen(ctx, addr, core.SocketOptions{
		ReceiveBufferBytes: cfg.SocketReceiveBufferBytes,
	})
	if err != nil {
		return fmt.Errorf("ticketd: binding socket: %w", err)
	}

	if cfg.StatsPath != "" {
		if err := statsdump.EnsureDir(cfg.StatsPath); err != nil {
			return err
		}
	}

	server := core.New(cat, timeout, clock.Real(), logger)

	logger.Info("ticketd listening", "addr", addr, "timeout_seconds", timeout)

	runErr := server.Run(ctx, conn, core.RunOptions{
		StatsPath:          cfg.StatsPath,
		StatsInterval:      time.Duration(cfg.StatsIntervalSeconds) * time.Second,
		CatalogFingerprint: fingerprint,
	})
	if runErr != nil {
		return fmt.Errorf("ticketd: event loop: %w", runErr)
	}

	logger.Info("ticketd shut down")
	return nil
}

func newLogger(cfg *serverconfig.Config) *slog.Logger {
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.LogFormat == "text" {
		handler = slog.NewTextHandler(os.Stderr, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}

func printUsage(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `ticketd — connectionless UDP ticket-reservation server.

Usage: ticketd --catalog <path> [flags]

Flags:
`)
	flagSet.PrintDefaults()
}
