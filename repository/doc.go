// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package repository is the poll service as the view-model sees it.

# Implementations

HTTPRepository calls the poll service over JSON/HTTP. Routes come from
package router; requests carry the session credentials and a request id.

	repo := repository.NewHTTPRepository(cfg.ServiceURL, creds)

DocumentRepository reads polls from a store.DocumentStore and writes
ballots and lock-ins as documents. Vetoes are delegated to a Vetoer,
usually an HTTPRepository, since only the service picks replacements.

	repo := repository.NewDocumentRepository(s, creds.UserID, remote)

# Errors

  - FetchError: GetPoll failed; callers retry.
  - VetoError: the veto was refused. Reason is safe to show the user.
  - BallotSubmissionError: sendBallot, revokeBallot or a lock-in failed.

All three unwrap to the sentinels (ErrNotFound, ErrVetoUsed,
ErrWrongPhase, ErrIndexOutOfRange, ErrUnauthorized) or to a StatusError
for unmapped service answers.

Indices always refer to the candidate list of the latest snapshot.
*/
package repository
