// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	if err := cliparse.LoadEnv(".env"); err != nil {
		log.Fatal(err)
	}
	cfg, err := cliparse.ParseFlags(os.Args[1:])

# Config Fields

  - ServiceURL: Poll service base URL (required)
  - PollID: Poll to join (required)
  - UserID: Session user, fixed for the run (required)
  - AuthToken: Bearer token sent to the service
  - Tick: Fetch interval (default: 1s)
  - BackoffFactor: Tick multiplier after a failed fetch (default: 3)
  - Transport: "poll" or "push" (default: poll)
  - DatabaseURL, DatabaseType: Optional document store (default type: sqlite)
  - LogFile: Rotated JSON log file

# CLI Flags

	-s          Service URL
	-poll       Poll ID
	-user       User ID
	-token      Auth token
	-tick       Fetch interval
	-backoff    Backoff factor
	-transport  poll | push
	-d          Database URL
	-t          Database type
	-log        Log file
	-debug      Debug logging

# Environment Variables

Flags fall back to environment variables:

	SERVICE_URL          → -s
	POLL_ID              → -poll
	USER_ID              → -user
	AUTH_TOKEN           → -token
	POLL_TICK            → -tick
	POLL_BACKOFF_FACTOR  → -backoff
	POLL_TRANSPORT       → -transport
	DATABASE_URL         → -d
	DATABASE_TYPE        → -t
	LOG_FILE             → -log

CLI flags take precedence over environment variables. LoadEnv reads a
.env file first; it never overrides variables already set.
*/
package cliparse
