// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package main

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/natefinch/lumberjack"
	"golang.org/x/sync/errgroup"

	"github.com/danielhkuo/veato/auth"
	"github.com/danielhkuo/veato/cliparse"
	"github.com/danielhkuo/veato/pollsync"
	"github.com/danielhkuo/veato/push"
	"github.com/danielhkuo/veato/repository"
	"github.com/danielhkuo/veato/store"
)

func main() {
	if err := cliparse.LoadEnv(".env"); err != nil {
		slog.Error("Error loading .env", "error", err)
		os.Exit(1)
	}

	// Parse configuration
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = run(ctx, cfg, logger, os.Stdin, os.Stdout)
	if err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("Session ended", "error", err)
		os.Exit(1)
	}
	slog.Info("Session ended")
}

func newLogger(cfg cliparse.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if cfg.Debug {
		opts.Level = slog.LevelDebug
	}

	if cfg.LogFile != "" {
		file := &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     28,
			Compress:   true,
		}
		return slog.New(slog.NewJSONHandler(file, opts))
	}

	fd := os.Stderr.Fd()
	if isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd) {
		return slog.New(slog.NewTextHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, opts))
}

// run joins the poll and drives the session until the poll closes, the
// user quits, or ctx is cancelled
func run(ctx context.Context, cfg cliparse.Config, logger *slog.Logger, in io.Reader, out io.Writer) error {
	creds, err := auth.NewCredentials(cfg.UserID, cfg.AuthToken)
	if err != nil {
		return err
	}

	remote := repository.NewHTTPRepository(cfg.ServiceURL, creds, repository.WithLogger(logger))
	var repo repository.Repository = remote

	// With a database the session runs against the document store; the
	// service still produces veto replacements
	if cfg.DatabaseURL != "" {
		s, err := store.Open(cfg.DatabaseType, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer s.Close()
		slog.Info("Document store ready", "type", cfg.DatabaseType)
		repo = repository.NewDocumentRepository(s, creds.UserID, remote)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	interval := pollsync.NewIntervalPacer(cfg.Tick, cfg.BackoffFactor)
	var pacer pollsync.Pacer = interval
	if cfg.Transport == cliparse.TransportPush {
		p, err := push.New(cfg.ServiceURL, cfg.PollID, creds,
			push.WithFallback(interval),
			push.WithLogger(logger),
		)
		if err != nil {
			return err
		}
		g.Go(func() error { return p.Run(ctx) })
		pacer = p
	}

	vm := pollsync.New(repo, cfg.PollID, creds.UserID,
		pollsync.WithPacer(pacer),
		pollsync.WithLogger(logger),
	)

	g.Go(func() error {
		err := vm.Run(ctx)
		// A closed poll ends the session
		cancel()
		return err
	})

	g.Go(func() error {
		for {
			select {
			case s := <-vm.Updates():
				render(out, s, time.Now())
			case <-ctx.Done():
				return nil
			}
		}
	})

	lines := readLines(ctx, in)
	g.Go(func() error {
		for {
			select {
			case line, ok := <-lines:
				if !ok {
					// stdin closed; keep watching
					lines = nil
					continue
				}
				cmd, err := parseCommand(line)
				if err != nil {
					printf(out, "%v\n", err)
					continue
				}
				if cmd.name == cmdQuit {
					cancel()
					return nil
				}
				if err := cmd.apply(ctx, vm); err != nil {
					printf(out, "%v\n", err)
				}
			case <-ctx.Done():
				return nil
			}
		}
	})

	err = g.Wait()
	render(out, vm.State(), time.Now())
	return err
}

// readLines feeds stdin lines until EOF or ctx is done. The scanner
// cannot be interrupted, so this goroutine is not part of the group.
func readLines(ctx context.Context, in io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	return lines
}
