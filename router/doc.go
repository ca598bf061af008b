// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router holds the route table of the external poll service.

The client never hard-codes paths; it looks them up by operation:

	u, err := router.URL(cfg.ServiceURL, router.OpGetPoll, "pollId", pollID)

# Routes

	GET    /polls/{pollId}                   → getPoll
	GET    /polls/{pollId}/events            → push event stream (WebSocket)
	PUT    /polls/{pollId}/ballots/{userId}  → sendBallot
	DELETE /polls/{pollId}/ballots/{userId}  → revokeBallot
	POST   /polls/{pollId}/veto              → rejectCandidateImmediately
	POST   /polls/{pollId}/phase1-votes      → submitPhase1Vote
	POST   /polls/{pollId}/phase2-votes      → submitPhase2Vote

Path values are escaped with url.PathEscape. Unfilled or empty values
are an error.
*/
package router
