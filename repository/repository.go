// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package repository

import (
	"context"

	"github.com/danielhkuo/veato/models"
)

// Repository is the poll service as seen by the view-model.
// It never pushes state: every mutation is followed by a GetPoll from the caller.
// Indices refer to the candidate list of the latest snapshot.
type Repository interface {
	GetPoll(ctx context.Context, pollID string) (*models.Poll, error)

	// SendBallot is the legacy simple-vote mode; repeated calls overwrite
	SendBallot(ctx context.Context, pollID, userID string, selectedIndices []int) error
	RevokeBallot(ctx context.Context, pollID, userID string) error

	// RejectCandidateImmediately applies a veto and returns the updated poll
	RejectCandidateImmediately(ctx context.Context, pollID string, candidateIndex int) (*models.Poll, error)

	SubmitPhase1Vote(ctx context.Context, pollID string, approvedIndices []int, rejectedIndex *int) error
	SubmitPhase2Vote(ctx context.Context, pollID string, selectedIndex int) error
}

// Vetoer is the part of the poll service that produces replacements
type Vetoer interface {
	RejectCandidateImmediately(ctx context.Context, pollID string, candidateIndex int) (*models.Poll, error)
}

// Operation names used in BallotSubmissionError
const (
	OpSendBallot   = "sendBallot"
	OpRevokeBallot = "revokeBallot"
	OpPhase1Vote   = "submitPhase1Vote"
	OpPhase2Vote   = "submitPhase2Vote"
)

func checkIndex(poll *models.Poll, idx int) error {
	if idx < 0 || idx >= len(poll.Candidates) {
		return ErrIndexOutOfRange
	}
	return nil
}
