// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/danielhkuo/veato/auth"
	"github.com/danielhkuo/veato/models"
)

// maxErrorBody caps how much of an error response is read
const maxErrorBody = 64 << 10

// RoundTripperFunc adapts a function to http.RoundTripper
type RoundTripperFunc func(*http.Request) (*http.Response, error)

func (f RoundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

// Chain wraps base with each wrapper in order; the first wrapper runs outermost
func Chain(base http.RoundTripper, wrappers ...func(http.RoundTripper) http.RoundTripper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	for i := len(wrappers) - 1; i >= 0; i-- {
		base = wrappers[i](base)
	}
	return base
}

// WithLogging wraps a transport with request logging
func WithLogging(logger *slog.Logger) func(http.RoundTripper) http.RoundTripper {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			start := time.Now()

			resp, err := next.RoundTrip(r)

			duration := time.Since(start)
			if err != nil {
				logger.Warn("request failed",
					"method", r.Method,
					"path", r.URL.Path,
					"duration_ms", duration.Milliseconds(),
					"error", err,
				)
				return nil, err
			}

			logger.Debug("request completed",
				"method", r.Method,
				"path", r.URL.Path,
				"status", resp.StatusCode,
				"request_id", r.Header.Get(auth.HeaderRequestID),
				"duration_ms", duration.Milliseconds(),
			)
			return resp, nil
		})
	}
}

// WithCredentials sets identity and request-id headers on every request
func WithCredentials(creds auth.Credentials) func(http.RoundTripper) http.RoundTripper {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			// RoundTrippers must not mutate the caller's request
			r = r.Clone(r.Context())
			creds.Apply(r.Header)
			if r.Header.Get(auth.HeaderRequestID) == "" {
				r.Header.Set(auth.HeaderRequestID, auth.NewRequestID())
			}
			return next.RoundTrip(r)
		})
	}
}

// EncodeJSON encodes v into a request body
func EncodeJSON(v interface{}) (io.Reader, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(b), nil
}

// DecodeJSON decodes a response body into v
func DecodeJSON(r io.Reader, v interface{}) error {
	return json.NewDecoder(r).Decode(v)
}

// DecodeError reads a service error body. Non-JSON bodies are returned as the message.
func DecodeError(resp *http.Response) models.ErrorResponse {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var e models.ErrorResponse
	if err := json.Unmarshal(body, &e); err != nil || (e.Error == "" && e.Message == "") {
		e = models.ErrorResponse{Message: string(bytes.TrimSpace(body))}
	}
	if e.Error == "" {
		e.Error = http.StatusText(resp.StatusCode)
	}
	return e
}
