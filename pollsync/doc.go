// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package pollsync keeps one user's view of a live poll in step with the
poll service.

# Sync Loop

ViewModel.Run fetches the poll, folds the snapshot into ScreenState and
waits on a Pacer before fetching again:

	vm := pollsync.New(repo, "poll-1", "alice",
		pollsync.WithPacer(pollsync.NewIntervalPacer(time.Second, 3)),
	)
	go vm.Run(ctx)
	for s := range vm.Updates() {
		render(s)
	}

The loop ends with nil when the poll closes and with ctx.Err() when the
context is cancelled. A failed fetch leaves the state alone and the next
wait is longer (tick × backoff factor).

# Reconciliation

Reconcile compares each snapshot with the previous one:

  - Phase changed: all per-phase state is reset.
  - Same candidate names: the snapshot is swapped in.
  - Names differ in PHASE1: the selection is remapped by name, the
    replacement banner is set, and a lock-in that included a removed
    candidate is revoked.

Candidates are tracked by name. Indices are computed against the live
list right before each repository call.

# Mutations

ToggleSelection, SetRejectedCandidate, SubmitPhase1Vote,
SubmitPhase2Vote and SendBallot may be called from any goroutine. Each
mutation is followed by an immediate refetch, and any fetch that started
before the mutation finished is discarded.

The ballot revoke that follows an invalidated lock-in runs off the loop;
its result is delivered back to the loop, which clears RevokePending and
records RevokeError on failure. Until then the user may reselect, but
lock-ins and vetoes fail with ErrRevokePending so the revoke cannot land
on a newer ballot. A phase change cancels the revoke; its late result is
dropped without touching the new phase.
*/
package pollsync
