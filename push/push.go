// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package push wakes the sync loop from the poll service's WebSocket
// event stream instead of a fixed tick.
package push

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/danielhkuo/veato/auth"
	"github.com/danielhkuo/veato/models"
	"github.com/danielhkuo/veato/pollsync"
	"github.com/danielhkuo/veato/router"
)

const (
	DefaultCeiling = 15 * time.Second
	DefaultRetry   = 3 * time.Second
)

var _ pollsync.Pacer = (*Pacer)(nil)

// Pacer releases the sync loop when a poll event arrives, or after the
// ceiling at the latest so a silent stream never freezes the screen
type Pacer struct {
	url      string
	pollID   string
	header   http.Header
	dialer   *websocket.Dialer
	fallback *pollsync.IntervalPacer
	ceiling  time.Duration
	retry    time.Duration
	logger   *slog.Logger

	wake chan struct{}
}

type Option func(*Pacer)

func WithCeiling(d time.Duration) Option {
	return func(p *Pacer) { p.ceiling = d }
}

func WithRetry(d time.Duration) Option {
	return func(p *Pacer) { p.retry = d }
}

func WithFallback(f *pollsync.IntervalPacer) Option {
	return func(p *Pacer) { p.fallback = f }
}

func WithLogger(l *slog.Logger) Option {
	return func(p *Pacer) { p.logger = l }
}

func New(serviceURL, pollID string, creds auth.Credentials, opts ...Option) (*Pacer, error) {
	u, err := router.URL(serviceURL, router.OpEvents, "pollId", pollID)
	if err != nil {
		return nil, err
	}
	switch {
	case strings.HasPrefix(u, "https://"):
		u = "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		u = "ws://" + strings.TrimPrefix(u, "http://")
	default:
		return nil, fmt.Errorf("unsupported service URL scheme: %s", serviceURL)
	}

	header := http.Header{}
	creds.Apply(header)

	p := &Pacer{
		url:      u,
		pollID:   pollID,
		header:   header,
		dialer:   websocket.DefaultDialer,
		fallback: pollsync.NewIntervalPacer(pollsync.DefaultTick, pollsync.DefaultBackoffFactor),
		ceiling:  DefaultCeiling,
		retry:    DefaultRetry,
		logger:   slog.Default(),
		wake:     make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Wait blocks until an event, the ceiling, or cancellation.
// After a failed fetch it backs off like the interval pacer.
func (p *Pacer) Wait(ctx context.Context, failed bool) error {
	if failed {
		return p.fallback.Wait(ctx, true)
	}

	t := time.NewTimer(p.ceiling)
	defer t.Stop()

	select {
	case <-p.wake:
		return nil
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run keeps the event stream connected until ctx is cancelled
func (p *Pacer) Run(ctx context.Context) error {
	for {
		err := p.listen(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		p.logger.Warn("event stream dropped, reconnecting", "error", err, "retry_in", p.retry)

		select {
		case <-time.After(p.retry):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (p *Pacer) listen(ctx context.Context) error {
	header := p.header.Clone()
	header.Set(auth.HeaderRequestID, auth.NewRequestID())

	conn, _, err := p.dialer.DialContext(ctx, p.url, header)
	if err != nil {
		return err
	}
	defer conn.Close()

	// ReadMessage does not take a context
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	p.logger.Info("event stream connected", "url", p.url)
	// Events may have been missed while disconnected
	p.notify()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return errors.New("stream closed by server")
			}
			return err
		}

		var ev models.PollEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			p.logger.Debug("ignoring malformed event", "error", err)
			continue
		}
		if !p.wakes(ev) {
			continue
		}
		p.logger.Debug("poll event", "type", ev.Type, "phase", ev.Phase)
		p.notify()
	}
}

// wakes reports whether ev should release the sync loop. Only updates and
// closes of this poll count; an empty poll id means the stream is
// already scoped to it.
func (p *Pacer) wakes(ev models.PollEvent) bool {
	if ev.PollID != "" && ev.PollID != p.pollID {
		return false
	}
	switch ev.Type {
	case models.EventPollUpdated, models.EventPollClosed:
		return true
	}
	return false
}

func (p *Pacer) notify() {
	select {
	case p.wake <- struct{}{}:
	default:
	}
}
