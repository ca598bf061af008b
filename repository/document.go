// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/danielhkuo/veato/models"
	"github.com/danielhkuo/veato/store"
)

// Document collections
const (
	CollectionPolls   = "polls"
	CollectionBallots = "ballots"
	CollectionLockIns = "lockins"
)

// DocumentRepository reads poll snapshots and writes ballots straight to a
// document store. Vetoes go through a Vetoer because the replacement
// candidate is chosen by the poll service.
type DocumentRepository struct {
	store  store.DocumentStore
	userID string
	vetoer Vetoer
	now    func() time.Time
}

func NewDocumentRepository(s store.DocumentStore, userID string, vetoer Vetoer) *DocumentRepository {
	return &DocumentRepository{store: s, userID: userID, vetoer: vetoer, now: time.Now}
}

// BallotKey is the document id of a user's simple-vote ballot
func BallotKey(pollID, userID string) string {
	return pollID + "/" + userID
}

// LockInKey is the document id of a user's lock-in for one phase
func LockInKey(pollID string, phase models.Phase, userID string) string {
	return pollID + "/" + string(phase) + "/" + userID
}

func (r *DocumentRepository) GetPoll(ctx context.Context, pollID string) (*models.Poll, error) {
	poll, err := r.loadPoll(ctx, pollID)
	if err != nil {
		return nil, &FetchError{PollID: pollID, Err: err}
	}

	poll.HasCurrentUserLockedIn = false
	if poll.Phase.IsVoting() {
		_, err := r.store.Get(ctx, CollectionLockIns, LockInKey(pollID, poll.Phase, r.userID))
		switch {
		case err == nil:
			poll.HasCurrentUserLockedIn = true
		case !errors.Is(err, store.ErrNotFound):
			return nil, &FetchError{PollID: pollID, Err: err}
		}
	}
	return poll, nil
}

func (r *DocumentRepository) SendBallot(ctx context.Context, pollID, userID string, selectedIndices []int) error {
	fail := func(err error) error { return &BallotSubmissionError{Op: OpSendBallot, Err: err} }

	poll, err := r.loadPoll(ctx, pollID)
	if err != nil {
		return fail(err)
	}
	if !poll.IsOpen {
		return fail(ErrWrongPhase)
	}
	for _, idx := range selectedIndices {
		if err := checkIndex(poll, idx); err != nil {
			return fail(err)
		}
	}

	ballot := models.Ballot{
		UserID:          userID,
		SelectedIndices: nonNil(selectedIndices),
		UpdatedAt:       r.now().UTC(),
	}
	if err := store.PutJSON(ctx, r.store, CollectionBallots, BallotKey(pollID, userID), ballot); err != nil {
		return fail(err)
	}
	return nil
}

// RevokeBallot clears the simple-vote ballot and the phase 1 lock-in.
// Only phase 1 vetoes invalidate a lock-in, so a phase 2 lock-in is never
// touched, even by a revoke that arrives after the phase moved on.
func (r *DocumentRepository) RevokeBallot(ctx context.Context, pollID, userID string) error {
	fail := func(err error) error { return &BallotSubmissionError{Op: OpRevokeBallot, Err: err} }

	if _, err := r.loadPoll(ctx, pollID); err != nil {
		return fail(err)
	}

	if err := r.store.Delete(ctx, CollectionBallots, BallotKey(pollID, userID)); err != nil {
		return fail(err)
	}
	if err := r.store.Delete(ctx, CollectionLockIns, LockInKey(pollID, models.Phase1, userID)); err != nil {
		return fail(err)
	}
	return nil
}

func (r *DocumentRepository) RejectCandidateImmediately(ctx context.Context, pollID string, candidateIndex int) (*models.Poll, error) {
	if r.vetoer == nil {
		return nil, &VetoError{Reason: reason(ErrNoVetoService), Err: ErrNoVetoService}
	}

	// Cheap local checks before the round trip
	poll, err := r.loadPoll(ctx, pollID)
	if err != nil {
		return nil, &VetoError{Reason: reason(err), Err: err}
	}
	if poll.Phase != models.Phase1 {
		return nil, &VetoError{Reason: reason(ErrWrongPhase), Err: ErrWrongPhase}
	}
	if err := checkIndex(poll, candidateIndex); err != nil {
		return nil, &VetoError{Reason: reason(err), Err: err}
	}

	return r.vetoer.RejectCandidateImmediately(ctx, pollID, candidateIndex)
}

func (r *DocumentRepository) SubmitPhase1Vote(ctx context.Context, pollID string, approvedIndices []int, rejectedIndex *int) error {
	fail := func(err error) error { return &BallotSubmissionError{Op: OpPhase1Vote, Err: err} }

	poll, err := r.loadPoll(ctx, pollID)
	if err != nil {
		return fail(err)
	}
	if poll.Phase != models.Phase1 {
		return fail(ErrWrongPhase)
	}
	for _, idx := range approvedIndices {
		if err := checkIndex(poll, idx); err != nil {
			return fail(err)
		}
	}
	if rejectedIndex != nil {
		if err := checkIndex(poll, *rejectedIndex); err != nil {
			return fail(err)
		}
	}

	lockIn := models.LockIn{
		UserID:          r.userID,
		Phase:           models.Phase1,
		ApprovedIndices: nonNil(approvedIndices),
		RejectedIndex:   rejectedIndex,
		LockedAt:        r.now().UTC(),
	}
	if err := store.PutJSON(ctx, r.store, CollectionLockIns, LockInKey(pollID, models.Phase1, r.userID), lockIn); err != nil {
		return fail(err)
	}
	return nil
}

func (r *DocumentRepository) SubmitPhase2Vote(ctx context.Context, pollID string, selectedIndex int) error {
	fail := func(err error) error { return &BallotSubmissionError{Op: OpPhase2Vote, Err: err} }

	poll, err := r.loadPoll(ctx, pollID)
	if err != nil {
		return fail(err)
	}
	if poll.Phase != models.Phase2 {
		return fail(ErrWrongPhase)
	}
	if err := checkIndex(poll, selectedIndex); err != nil {
		return fail(err)
	}

	idx := selectedIndex
	lockIn := models.LockIn{
		UserID:        r.userID,
		Phase:         models.Phase2,
		SelectedIndex: &idx,
		LockedAt:      r.now().UTC(),
	}
	if err := store.PutJSON(ctx, r.store, CollectionLockIns, LockInKey(pollID, models.Phase2, r.userID), lockIn); err != nil {
		return fail(err)
	}
	return nil
}

func (r *DocumentRepository) loadPoll(ctx context.Context, pollID string) (*models.Poll, error) {
	var poll models.Poll
	err := store.GetJSON(ctx, r.store, CollectionPolls, pollID, &poll)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load poll: %w", err)
	}
	if poll.PollID == "" {
		poll.PollID = pollID
	}
	return &poll, nil
}
