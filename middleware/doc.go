// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides client-side HTTP transport wrappers and JSON
helpers for talking to the poll service.

# Transport Wrappers

Wrappers compose around an http.RoundTripper:

	rt := middleware.Chain(http.DefaultTransport,
		middleware.WithLogging(logger),
		middleware.WithCredentials(creds),
	)
	client := &http.Client{Transport: rt}

WithLogging logs method, path, status and duration at debug level, and
failures at warn level. WithCredentials sets X-User-ID, Authorization
and X-Request-ID on a clone of each request.

# JSON Helpers

	body, err := middleware.EncodeJSON(req)
	err := middleware.DecodeJSON(resp.Body, &poll)
	e := middleware.DecodeError(resp)

Encoding uses github.com/goccy/go-json. DecodeError accepts both JSON
error bodies ({"error": "...", "message": "..."}) and plain text.
*/
package middleware
