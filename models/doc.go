// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines the poll snapshot, request, and document types
exchanged with the poll service.

# Domain Types

Snapshots fetched from the poll service:

  - Poll: full poll state for the current phase
  - Candidate: a votable menu choice, identified by name

Snapshots are never patched in place. Each fetch replaces the previous
Poll wholesale.

# Request Types

Bodies sent to the poll service:

  - SendBallotRequest: selectedIndices (legacy simple vote)
  - VetoRequest: candidateIndex
  - Phase1VoteRequest: approvedIndices, rejectedIndex
  - Phase2VoteRequest: selectedIndex

Indices always refer to positions in the candidate list of the snapshot
the caller last saw.

# Documents

Per-user records kept in a document store:

  - Ballot: simple-vote selection
  - LockIn: a locked-in ballot for one phase

# Constants

Phases:

	Phase1 = "PHASE1"
	Phase2 = "PHASE2"
	Closed = "CLOSED"

Push events:

	EventPollUpdated = "poll.updated"
	EventPollClosed  = "poll.closed"
*/
package models
