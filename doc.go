// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the veato command, a terminal client for live
Veato team polls.

Veato decides where a team eats. A poll runs in two voting phases: in
PHASE1 members approve any number of candidates and may veto one, which
the poll service replaces; in PHASE2 they pick one of the top three.
When the poll closes the results are shown.

# Starting a Session

	veato -s https://veato.example.com -poll 42 -user alice

Or with environment variables (a .env file is read first):

	SERVICE_URL=... POLL_ID=42 USER_ID=alice veato

# Commands

	select <name>   toggle a candidate
	veto <n>        veto candidate number n
	lock            lock in the ballot for the current phase
	ballot          send the selection as a simple ballot
	dismiss         clear banners and errors
	quit            leave the poll

# Architecture

  - pollsync: sync loop, reconciliation and user actions
  - repository: poll service over HTTP, or the document store
  - push: WebSocket event stream pacing the sync loop
  - screens: per-phase rules (lock-in, veto, results)
  - store: SQLite/PostgreSQL document store
  - router, middleware, auth: HTTP client plumbing
  - cliparse: configuration parsing

See package documentation for each component.
*/
package main
