// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth carries the session identity sent to the poll service.

# Credentials

Credentials are built once per session and injected wherever a request
is made:

	creds, err := auth.NewCredentials(cfg.UserID, cfg.AuthToken)
	if err != nil {
		log.Fatal(err)
	}
	creds.Apply(req.Header)

The user id is immutable for the session. Nothing in the module reads
it from global state.

# Headers

Apply sets:

  - X-User-ID: the session user id
  - Authorization: Bearer token, when one is configured

# Request IDs

NewRequestID returns a UUID used as X-Request-ID so that client logs and
service logs can be joined.
*/
package auth
