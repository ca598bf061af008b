// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/danielhkuo/veato/models"
	"github.com/danielhkuo/veato/store"
	"github.com/danielhkuo/veato/testutil"
)

type stubVetoer struct {
	calls int
	poll  *models.Poll
}

func (v *stubVetoer) RejectCandidateImmediately(ctx context.Context, pollID string, candidateIndex int) (*models.Poll, error) {
	v.calls++
	return v.poll, nil
}

func seedPoll(t *testing.T, s store.DocumentStore, p *models.Poll) {
	t.Helper()
	if err := store.PutJSON(context.Background(), s, CollectionPolls, p.PollID, p); err != nil {
		t.Fatalf("failed to seed poll: %v", err)
	}
}

func TestDocument_GetPoll(t *testing.T) {
	s := testutil.SetupTestStore(t)
	seedPoll(t, s, testutil.NewPoll("p1", models.Phase1, "Pizza", "Sushi"))
	repo := NewDocumentRepository(s, "alice", nil)
	ctx := context.Background()

	poll, err := repo.GetPoll(ctx, "p1")
	if err != nil {
		t.Fatalf("GetPoll() error = %v", err)
	}
	if poll.HasCurrentUserLockedIn {
		t.Error("alice has not locked in yet")
	}

	_, err = repo.GetPoll(ctx, "missing")
	var fe *FetchError
	if !errors.As(err, &fe) || !errors.Is(err, ErrNotFound) {
		t.Errorf("expected FetchError wrapping ErrNotFound, got %v", err)
	}
}

func TestDocument_LockInAndRevoke(t *testing.T) {
	s := testutil.SetupTestStore(t)
	seedPoll(t, s, testutil.NewPoll("p1", models.Phase1, "Pizza", "Sushi", "Tacos"))
	repo := NewDocumentRepository(s, "alice", nil)
	bob := NewDocumentRepository(s, "bob", nil)
	ctx := context.Background()

	rejected := 2
	if err := repo.SubmitPhase1Vote(ctx, "p1", []int{0, 1}, &rejected); err != nil {
		t.Fatalf("SubmitPhase1Vote() error = %v", err)
	}

	var lockIn models.LockIn
	if err := store.GetJSON(ctx, s, CollectionLockIns, LockInKey("p1", models.Phase1, "alice"), &lockIn); err != nil {
		t.Fatalf("lock-in not stored: %v", err)
	}
	if lockIn.RejectedIndex == nil || *lockIn.RejectedIndex != 2 || len(lockIn.ApprovedIndices) != 2 {
		t.Errorf("unexpected lock-in %+v", lockIn)
	}

	poll, _ := repo.GetPoll(ctx, "p1")
	if !poll.HasCurrentUserLockedIn {
		t.Error("expected alice locked in")
	}
	if poll, _ := bob.GetPoll(ctx, "p1"); poll.HasCurrentUserLockedIn {
		t.Error("lock-in is per user")
	}

	if err := repo.RevokeBallot(ctx, "p1", "alice"); err != nil {
		t.Fatalf("RevokeBallot() error = %v", err)
	}
	if poll, _ := repo.GetPoll(ctx, "p1"); poll.HasCurrentUserLockedIn {
		t.Error("revoke should clear the lock-in")
	}
	// Revoking twice is fine
	if err := repo.RevokeBallot(ctx, "p1", "alice"); err != nil {
		t.Errorf("second RevokeBallot() error = %v", err)
	}
}

func TestDocument_RevokeKeepsPhase2LockIn(t *testing.T) {
	s := testutil.SetupTestStore(t)
	seedPoll(t, s, testutil.NewPoll("p1", models.Phase2, "Pizza", "Sushi"))
	repo := NewDocumentRepository(s, "alice", nil)
	ctx := context.Background()

	if err := repo.SubmitPhase2Vote(ctx, "p1", 1); err != nil {
		t.Fatal(err)
	}
	// A revoke issued for the phase 1 ballot lands after the flip
	if err := repo.RevokeBallot(ctx, "p1", "alice"); err != nil {
		t.Fatalf("RevokeBallot() error = %v", err)
	}

	poll, err := repo.GetPoll(ctx, "p1")
	if err != nil {
		t.Fatal(err)
	}
	if !poll.HasCurrentUserLockedIn {
		t.Error("phase 2 lock-in must survive a revoke")
	}
}

func TestDocument_SendBallotOverwrites(t *testing.T) {
	s := testutil.SetupTestStore(t)
	seedPoll(t, s, testutil.NewPoll("p1", models.Phase1, "Pizza", "Sushi", "Tacos"))
	repo := NewDocumentRepository(s, "alice", nil)
	ctx := context.Background()

	if err := repo.SendBallot(ctx, "p1", "alice", []int{0}); err != nil {
		t.Fatal(err)
	}
	if err := repo.SendBallot(ctx, "p1", "alice", []int{1, 2}); err != nil {
		t.Fatal(err)
	}

	var ballot models.Ballot
	if err := store.GetJSON(ctx, s, CollectionBallots, BallotKey("p1", "alice"), &ballot); err != nil {
		t.Fatal(err)
	}
	if len(ballot.SelectedIndices) != 2 || ballot.SelectedIndices[0] != 1 {
		t.Errorf("expected the latest ballot, got %v", ballot.SelectedIndices)
	}

	err := repo.SendBallot(ctx, "p1", "alice", []int{3})
	if !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("expected ErrIndexOutOfRange, got %v", err)
	}
}

func TestDocument_PhaseChecks(t *testing.T) {
	s := testutil.SetupTestStore(t)
	seedPoll(t, s, testutil.NewPoll("p1", models.Phase2, "Pizza", "Sushi", "Tacos"))
	seedPoll(t, s, testutil.NewClosedPoll("p2", []string{"Pizza"}))
	repo := NewDocumentRepository(s, "alice", nil)
	ctx := context.Background()

	if err := repo.SubmitPhase1Vote(ctx, "p1", []int{0}, nil); !errors.Is(err, ErrWrongPhase) {
		t.Errorf("phase 1 vote in phase 2: expected ErrWrongPhase, got %v", err)
	}
	if err := repo.SubmitPhase2Vote(ctx, "p1", 5); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("expected ErrIndexOutOfRange, got %v", err)
	}
	if err := repo.SubmitPhase2Vote(ctx, "p1", 1); err != nil {
		t.Errorf("SubmitPhase2Vote() error = %v", err)
	}
	if err := repo.SendBallot(ctx, "p2", "alice", []int{0}); !errors.Is(err, ErrWrongPhase) {
		t.Errorf("ballot on closed poll: expected ErrWrongPhase, got %v", err)
	}

	var be *BallotSubmissionError
	err := repo.SubmitPhase2Vote(ctx, "missing", 0)
	if !errors.As(err, &be) || !errors.Is(err, ErrNotFound) {
		t.Errorf("expected BallotSubmissionError wrapping ErrNotFound, got %v", err)
	}
}

func TestDocument_Veto(t *testing.T) {
	s := testutil.SetupTestStore(t)
	seedPoll(t, s, testutil.NewPoll("p1", models.Phase1, "Pizza", "Sushi"))
	seedPoll(t, s, testutil.NewPoll("p2", models.Phase2, "Pizza", "Sushi"))
	ctx := context.Background()

	if _, err := NewDocumentRepository(s, "alice", nil).RejectCandidateImmediately(ctx, "p1", 0); !errors.Is(err, ErrNoVetoService) {
		t.Errorf("expected ErrNoVetoService, got %v", err)
	}

	v := &stubVetoer{poll: testutil.NewPoll("p1", models.Phase1, "Sushi", "Ramen")}
	repo := NewDocumentRepository(s, "alice", v)

	tests := []struct {
		name     string
		pollID   string
		index    int
		sentinel error
	}{
		{"wrong phase", "p2", 0, ErrWrongPhase},
		{"out of range", "p1", 2, ErrIndexOutOfRange},
		{"missing poll", "nope", 0, ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := repo.RejectCandidateImmediately(ctx, tt.pollID, tt.index)
			var ve *VetoError
			if !errors.As(err, &ve) || !errors.Is(err, tt.sentinel) {
				t.Errorf("expected VetoError wrapping %v, got %v", tt.sentinel, err)
			}
		})
	}
	if v.calls != 0 {
		t.Fatalf("invalid vetoes must not reach the service, got %d calls", v.calls)
	}

	poll, err := repo.RejectCandidateImmediately(ctx, "p1", 0)
	if err != nil {
		t.Fatal(err)
	}
	if v.calls != 1 || poll.Candidates[1].Name != "Ramen" {
		t.Errorf("expected delegated veto, got %d calls and %v", v.calls, poll.CandidateNames())
	}
}
