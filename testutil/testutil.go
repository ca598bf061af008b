// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/danielhkuo/veato/cliparse"
	"github.com/danielhkuo/veato/models"
	"github.com/danielhkuo/veato/store"
)

// WaitTimeout bounds every blocking helper so a broken test fails instead of hanging
const WaitTimeout = 2 * time.Second

// NewPoll builds an open poll snapshot with the given candidates
func NewPoll(pollID string, phase models.Phase, names ...string) *models.Poll {
	candidates := make([]models.Candidate, len(names))
	for i, n := range names {
		candidates[i] = models.Candidate{Name: n}
	}
	return &models.Poll{
		PollID:               pollID,
		TeamID:               "team-1",
		TeamName:             "Lunch Crew",
		PollTitle:            "Friday lunch",
		Phase:                phase,
		Duration:             300,
		RemainingTimeSeconds: 300,
		IsOpen:               phase.IsVoting(),
		Candidates:           candidates,
	}
}

// NewClosedPoll builds a closed poll with results sorted as given
func NewClosedPoll(pollID string, candidates []string, results ...models.Candidate) *models.Poll {
	p := NewPoll(pollID, models.Closed, candidates...)
	p.RemainingTimeSeconds = 0
	p.Results = results
	return p
}

// SetupTestStore opens an in-memory SQLite document store
func SetupTestStore(t *testing.T) *store.SQLStore {
	t.Helper()

	s, err := store.Open(store.TypeSQLite, ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		ServiceURL:    "http://localhost:3318",
		PollID:        "poll-1",
		UserID:        "alice",
		Tick:          time.Second,
		BackoffFactor: 3,
		Transport:     cliparse.TransportPoll,
	}
}

// Call records one repository call
type Call struct {
	Op       string
	Indices  []int
	Rejected *int
	UserID   string
}

// FakeRepository is a scripted, in-memory poll service.
// Tests swap the served snapshot with SetPoll and inject errors per operation.
type FakeRepository struct {
	mu    sync.Mutex
	poll  *models.Poll
	calls []Call

	FetchErr  error
	VetoErr   error
	SubmitErr error
	RevokeErr error

	// VetoResult is returned by RejectCandidateImmediately; when nil the
	// vetoed candidate is swapped for ReplacementName
	VetoResult      *models.Poll
	ReplacementName string

	// Block, when set, holds mutating calls until it is closed
	Block chan struct{}
	// RevokeBlock does the same for RevokeBallot only
	RevokeBlock chan struct{}
}

func NewFakeRepository(p *models.Poll) *FakeRepository {
	return &FakeRepository{poll: p, ReplacementName: "Replacement"}
}

func (f *FakeRepository) SetPoll(p *models.Poll) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.poll = p
}

func (f *FakeRepository) SetFetchErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.FetchErr = err
}

// Calls returns every recorded call to op ("" for all)
func (f *FakeRepository) Calls(op string) []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Call
	for _, c := range f.calls {
		if op == "" || c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

func (f *FakeRepository) record(c Call) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, c)
}

func (f *FakeRepository) wait(ctx context.Context) error {
	return gate(ctx, f.Block)
}

func gate(ctx context.Context, block chan struct{}) error {
	if block == nil {
		return nil
	}
	select {
	case <-block:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *FakeRepository) GetPoll(ctx context.Context, pollID string) (*models.Poll, error) {
	f.record(Call{Op: "getPoll"})
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FetchErr != nil {
		return nil, f.FetchErr
	}
	return f.poll.Clone(), nil
}

func (f *FakeRepository) SendBallot(ctx context.Context, pollID, userID string, selectedIndices []int) error {
	f.record(Call{Op: "sendBallot", Indices: selectedIndices, UserID: userID})
	if err := f.wait(ctx); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.SubmitErr
}

func (f *FakeRepository) RevokeBallot(ctx context.Context, pollID, userID string) error {
	f.record(Call{Op: "revokeBallot", UserID: userID})
	if err := gate(ctx, f.RevokeBlock); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.RevokeErr != nil {
		return f.RevokeErr
	}
	if f.poll != nil {
		f.poll.HasCurrentUserLockedIn = false
	}
	return nil
}

func (f *FakeRepository) RejectCandidateImmediately(ctx context.Context, pollID string, candidateIndex int) (*models.Poll, error) {
	f.record(Call{Op: "rejectCandidateImmediately", Indices: []int{candidateIndex}})
	if err := f.wait(ctx); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.VetoErr != nil {
		return nil, f.VetoErr
	}
	if f.VetoResult != nil {
		f.poll = f.VetoResult.Clone()
		return f.VetoResult.Clone(), nil
	}

	next := f.poll.Clone()
	next.Candidates = append(next.Candidates[:candidateIndex:candidateIndex], next.Candidates[candidateIndex+1:]...)
	next.Candidates = append(next.Candidates, models.Candidate{Name: f.ReplacementName})
	f.poll = next
	return next.Clone(), nil
}

func (f *FakeRepository) SubmitPhase1Vote(ctx context.Context, pollID string, approvedIndices []int, rejectedIndex *int) error {
	f.record(Call{Op: "submitPhase1Vote", Indices: approvedIndices, Rejected: rejectedIndex})
	if err := f.wait(ctx); err != nil {
		return err
	}
	return f.lockIn()
}

func (f *FakeRepository) SubmitPhase2Vote(ctx context.Context, pollID string, selectedIndex int) error {
	f.record(Call{Op: "submitPhase2Vote", Indices: []int{selectedIndex}})
	if err := f.wait(ctx); err != nil {
		return err
	}
	return f.lockIn()
}

func (f *FakeRepository) lockIn() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SubmitErr != nil {
		return f.SubmitErr
	}
	if f.poll != nil {
		f.poll.HasCurrentUserLockedIn = true
		f.poll.LockedInUserCount++
	}
	return nil
}

// StepPacer lets a test advance the sync loop one tick at a time
type StepPacer struct {
	waits chan bool
	step  chan struct{}
}

func NewStepPacer() *StepPacer {
	return &StepPacer{waits: make(chan bool, 64), step: make(chan struct{})}
}

func (p *StepPacer) Wait(ctx context.Context, failed bool) error {
	p.waits <- failed
	select {
	case <-p.step:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Waited blocks until the loop finishes a tick and starts waiting.
// It returns whether the tick's fetch failed.
func (p *StepPacer) Waited(t *testing.T) bool {
	t.Helper()
	select {
	case failed := <-p.waits:
		return failed
	case <-time.After(WaitTimeout):
		t.Fatal("sync loop did not reach its wait")
		return false
	}
}

// Step releases the loop from its current wait
func (p *StepPacer) Step(t *testing.T) {
	t.Helper()
	select {
	case p.step <- struct{}{}:
	case <-time.After(WaitTimeout):
		t.Fatal("sync loop is not waiting")
	}
}

// Eventually polls cond until it holds or the timeout expires
func Eventually(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(WaitTimeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met: %s", msg)
}

// WriteJSON writes a JSON response from a test poll service handler
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// DecodeBody decodes a request body inside a test poll service handler
func DecodeBody(t *testing.T, r *http.Request, v interface{}) {
	t.Helper()
	// Handlers run off the test goroutine, so no Fatal here
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		t.Errorf("Failed to decode request body: %v", err)
	}
}
