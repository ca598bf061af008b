// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package pollsync

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/danielhkuo/veato/async"
	"github.com/danielhkuo/veato/models"
	"github.com/danielhkuo/veato/repository"
)

var (
	ErrAlreadyRunning   = errors.New("sync loop already running")
	ErrNoPoll           = errors.New("poll not loaded yet")
	ErrNotVoting        = errors.New("poll is not open for voting")
	ErrLockedIn         = errors.New("ballot already locked in")
	ErrUnknownCandidate = errors.New("unknown candidate")
	ErrNoSelection      = errors.New("select at least one candidate")
	ErrSelectionCount   = errors.New("select exactly one candidate")
	ErrVetoInFlight     = errors.New("a veto is already in progress")
	ErrRevokePending    = errors.New("previous ballot is still being revoked")
)

// ViewModel owns one user's session on one poll. Run drives the sync
// loop; the remaining methods are user actions and may be called from
// any goroutine.
type ViewModel struct {
	repo   repository.Repository
	pollID string
	userID string
	pacer  Pacer
	logger *slog.Logger
	now    func() time.Time

	mu    sync.Mutex
	state ScreenState
	// epoch changes whenever a mutation completes; a fetch that spans
	// a change is discarded
	epoch    uint64
	inflight int
	// revoke is set while a revoke is on the wire, across phase changes too.
	// Lock-ins and vetoes wait for it so it cannot delete a newer ballot.
	revoke *pendingRevoke

	refresh chan struct{}
	revokes chan revokeResult
	updates chan ScreenState
	running atomic.Bool
}

type pendingRevoke struct {
	phase  models.Phase
	cancel context.CancelFunc
}

type revokeResult struct {
	phase models.Phase
	err   error
}

type Option func(*ViewModel)

func WithPacer(p Pacer) Option {
	return func(vm *ViewModel) { vm.pacer = p }
}

func WithLogger(l *slog.Logger) Option {
	return func(vm *ViewModel) { vm.logger = l }
}

func WithClock(now func() time.Time) Option {
	return func(vm *ViewModel) { vm.now = now }
}

// New creates a view-model. userID is fixed for the whole session.
func New(repo repository.Repository, pollID, userID string, opts ...Option) *ViewModel {
	vm := &ViewModel{
		repo:    repo,
		pollID:  pollID,
		userID:  userID,
		pacer:   NewIntervalPacer(DefaultTick, DefaultBackoffFactor),
		logger:  slog.Default(),
		now:     time.Now,
		state:   ScreenState{IsBusy: true, SelectedCandidateNames: map[string]bool{}},
		refresh: make(chan struct{}, 1),
		revokes: make(chan revokeResult, 8),
		updates: make(chan ScreenState, 1),
	}
	for _, opt := range opts {
		opt(vm)
	}
	vm.logger = vm.logger.With("poll_id", pollID, "user_id", userID)
	return vm
}

// State returns a copy of the current screen state
func (vm *ViewModel) State() ScreenState {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.state.Clone()
}

// Updates delivers state changes. Only the latest unread state is kept.
func (vm *ViewModel) Updates() <-chan ScreenState {
	return vm.updates
}

// Run polls until the poll closes (returns nil) or ctx is cancelled
// (returns ctx.Err()). Fetch failures never stop the loop.
func (vm *ViewModel) Run(ctx context.Context) error {
	if !vm.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer vm.running.Store(false)

	vm.logger.Info("poll sync started")
	for {
		open, failed := vm.tick(ctx)
		if err := ctx.Err(); err != nil {
			return err
		}
		if !failed && !open {
			vm.logger.Info("poll closed, sync stopped")
			return nil
		}
		if err := vm.wait(ctx, failed); err != nil {
			return err
		}
	}
}

// Refresh asks the loop to fetch now instead of at the next tick
func (vm *ViewModel) Refresh() {
	select {
	case vm.refresh <- struct{}{}:
	default:
	}
}

func (vm *ViewModel) tick(ctx context.Context) (open, failed bool) {
	vm.mu.Lock()
	epoch := vm.epoch
	vm.mu.Unlock()

	poll, err := vm.repo.GetPoll(ctx, vm.pollID)
	if err != nil {
		if ctx.Err() == nil {
			vm.logger.Warn("poll fetch failed, backing off", "error", err)
		}
		return true, true
	}

	vm.mu.Lock()
	if vm.epoch != epoch || vm.inflight > 0 {
		// May predate a veto or lock-in; the mutation triggers a refetch
		vm.mu.Unlock()
		vm.logger.Debug("discarding stale snapshot")
		return true, false
	}

	next, fx := Reconcile(vm.state, poll, vm.now())
	next.IsBusy = false
	vm.state = next
	if fx.PhaseChanged && vm.revoke != nil {
		// The old phase's ballot is gone with the phase
		vm.revoke.cancel()
	}
	if fx.Revoke {
		vm.startRevokeLocked(ctx)
	}
	vm.publishLocked()
	vm.mu.Unlock()

	if fx.PhaseChanged {
		vm.logger.Info("poll phase changed", "phase", poll.Phase)
	}
	if len(fx.Removed) > 0 {
		vm.logger.Info("candidate list changed", "added", fx.Added, "removed", fx.Removed)
	}
	return poll.IsOpen, false
}

func (vm *ViewModel) wait(ctx context.Context, failed bool) error {
	waitCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := async.ErrAble(func() error { return vm.pacer.Wait(waitCtx, failed) })
	for {
		select {
		case err := <-done:
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if err != nil {
				vm.logger.Debug("pacer returned early", "error", err)
			}
			return nil

		case <-vm.refresh:
			cancel()
			<-done
			return ctx.Err()

		case r := <-vm.revokes:
			vm.applyRevokeResult(r)
		}
	}
}

// startRevokeLocked revokes the ballot off-loop; the result comes back on
// vm.revokes and is applied by the loop. Caller holds vm.mu.
func (vm *ViewModel) startRevokeLocked(ctx context.Context) {
	if vm.revoke != nil {
		// The revoke on the wire covers this one too
		return
	}

	phase := vm.state.Phase()
	rctx, cancel := context.WithCancel(ctx)
	vm.revoke = &pendingRevoke{phase: phase, cancel: cancel}
	vm.logger.Info("locked-in ballot invalidated by veto, revoking", "phase", phase)

	go func() {
		defer cancel()
		err := vm.repo.RevokeBallot(rctx, vm.pollID, vm.userID)
		select {
		case vm.revokes <- revokeResult{phase: phase, err: err}:
		case <-ctx.Done():
		}
	}()
}

func (vm *ViewModel) applyRevokeResult(r revokeResult) {
	vm.mu.Lock()
	vm.revoke = nil
	if r.phase == vm.state.Phase() {
		vm.state.RevokePending = false
		if r.err != nil {
			vm.logger.Warn("ballot revoke failed", "error", r.err)
			vm.state.RevokeError = r.err.Error()
		}
	} else {
		vm.logger.Debug("revoke from an earlier phase settled", "phase", r.phase, "error", r.err)
	}
	vm.epoch++
	vm.publishLocked()
	vm.mu.Unlock()

	vm.Refresh()
}

// revokingLocked reports whether a revoke has not been applied yet
func (vm *ViewModel) revokingLocked() bool {
	return vm.state.RevokePending || vm.revoke != nil
}

// publishLocked hands the latest state to Updates; caller holds vm.mu
func (vm *ViewModel) publishLocked() {
	s := vm.state.Clone()
	for {
		select {
		case vm.updates <- s:
			return
		default:
		}
		select {
		case <-vm.updates:
		default:
		}
	}
}

// ToggleSelection adds or removes a candidate from the selection.
// Phase 1 allows any number; phase 2 keeps at most one.
func (vm *ViewModel) ToggleSelection(name string) error {
	vm.mu.Lock()
	defer vm.mu.Unlock()

	p := vm.state.Poll
	if p == nil {
		return ErrNoPoll
	}
	if !p.IsOpen || !p.Phase.IsVoting() {
		return ErrNotVoting
	}
	if vm.state.IsLockedIn() {
		return ErrLockedIn
	}
	if !p.HasCandidate(name) {
		return ErrUnknownCandidate
	}

	sel := vm.state.SelectedCandidateNames
	switch {
	case sel[name]:
		delete(sel, name)
	case p.Phase == models.Phase2:
		vm.state.SelectedCandidateNames = map[string]bool{name: true}
	default:
		sel[name] = true
	}

	vm.publishLocked()
	return nil
}

// SetRejectedCandidate vetoes the candidate at index. The veto is applied
// locally only after the service confirms it.
func (vm *ViewModel) SetRejectedCandidate(ctx context.Context, index int) error {
	vm.mu.Lock()
	p := vm.state.Poll
	switch {
	case p == nil:
		vm.mu.Unlock()
		return ErrNoPoll
	case vm.state.RejectionUsed:
		vm.mu.Unlock()
		return repository.ErrVetoUsed
	case p.Phase != models.Phase1:
		vm.mu.Unlock()
		return repository.ErrWrongPhase
	case index < 0 || index >= len(p.Candidates):
		vm.mu.Unlock()
		return repository.ErrIndexOutOfRange
	case vm.state.IsVetoing:
		vm.mu.Unlock()
		return ErrVetoInFlight
	case vm.revokingLocked():
		vm.mu.Unlock()
		return ErrRevokePending
	case vm.state.IsLockedIn():
		vm.mu.Unlock()
		return ErrLockedIn
	}

	name := p.Candidates[index].Name
	oldNames := p.CandidateNames()
	oldPhase := p.Phase
	vm.state.IsVetoing = true
	vm.state.VetoError = ""
	vm.inflight++
	vm.publishLocked()
	vm.mu.Unlock()

	updated, err := vm.repo.RejectCandidateImmediately(ctx, vm.pollID, index)

	vm.mu.Lock()
	vm.inflight--
	vm.epoch++
	vm.state.IsVetoing = false

	if err != nil {
		vm.state.VetoError = vetoMessage(err)
		vm.publishLocked()
		vm.mu.Unlock()
		vm.logger.Warn("veto failed", "candidate", name, "error", err)
		vm.Refresh()
		return err
	}

	var fx Effects
	if updated.Phase != oldPhase || vm.state.Phase() != oldPhase {
		// Phase moved underneath the veto; treat it as a normal snapshot
		vm.state, fx = Reconcile(vm.state, updated, vm.now())
		if fx.Revoke {
			vm.startRevokeLocked(ctx)
		}
	} else {
		s := vm.state.Clone()
		s.Poll = updated.Clone()
		s.RejectionUsed = true
		s.RejectedCandidateName = name
		delete(s.SelectedCandidateNames, name)
		s.NewlyAddedCandidateName = first(missingFrom(updated.CandidateNames(), oldNames))
		s.VetoAnimationTimestamp = vm.now()
		s.pruneSelection()
		vm.state = s
	}
	vm.publishLocked()
	vm.mu.Unlock()

	vm.logger.Info("veto applied", "candidate", name, "phase_changed", fx.PhaseChanged)
	vm.Refresh()
	return nil
}

// SubmitPhase1Vote locks in the approvals and the user's own veto, if any
func (vm *ViewModel) SubmitPhase1Vote(ctx context.Context) error {
	return vm.submit(ctx, repository.OpPhase1Vote, func(s ScreenState) (func() error, error) {
		if s.Poll.Phase != models.Phase1 {
			return nil, repository.ErrWrongPhase
		}
		approved := s.SelectedIndices()
		if len(approved) == 0 {
			return nil, ErrNoSelection
		}

		// Names survive replacements; resolve the index against the live list
		var rejected *int
		if s.RejectionUsed && s.RejectedCandidateName != "" {
			if idx, ok := s.Poll.IndexOf(s.RejectedCandidateName); ok {
				rejected = &idx
			}
		}

		return func() error {
			return vm.repo.SubmitPhase1Vote(ctx, vm.pollID, approved, rejected)
		}, nil
	})
}

// SubmitPhase2Vote locks in the single runoff pick
func (vm *ViewModel) SubmitPhase2Vote(ctx context.Context) error {
	return vm.submit(ctx, repository.OpPhase2Vote, func(s ScreenState) (func() error, error) {
		if s.Poll.Phase != models.Phase2 {
			return nil, repository.ErrWrongPhase
		}
		selected := s.SelectedIndices()
		if len(selected) != 1 {
			return nil, ErrSelectionCount
		}

		return func() error {
			return vm.repo.SubmitPhase2Vote(ctx, vm.pollID, selected[0])
		}, nil
	})
}

// SendBallot records the selection in legacy simple-vote mode
func (vm *ViewModel) SendBallot(ctx context.Context) error {
	return vm.submit(ctx, repository.OpSendBallot, func(s ScreenState) (func() error, error) {
		selected := s.SelectedIndices()
		return func() error {
			return vm.repo.SendBallot(ctx, vm.pollID, vm.userID, selected)
		}, nil
	})
}

// submit runs a lock-in style mutation. prepare validates the state under
// the lock and returns the repository call to make.
func (vm *ViewModel) submit(ctx context.Context, op string, prepare func(ScreenState) (func() error, error)) error {
	vm.mu.Lock()
	if vm.state.Poll == nil {
		vm.mu.Unlock()
		return ErrNoPoll
	}
	if !vm.state.Poll.IsOpen || !vm.state.Poll.Phase.IsVoting() {
		vm.mu.Unlock()
		return ErrNotVoting
	}
	if vm.revokingLocked() {
		vm.mu.Unlock()
		return ErrRevokePending
	}
	if vm.state.IsLockedIn() {
		vm.mu.Unlock()
		return ErrLockedIn
	}
	call, err := prepare(vm.state)
	if err != nil {
		vm.mu.Unlock()
		return err
	}

	vm.state.IsBusy = true
	vm.state.SubmissionError = ""
	vm.inflight++
	vm.publishLocked()
	vm.mu.Unlock()

	err = call()

	vm.mu.Lock()
	vm.inflight--
	vm.epoch++
	vm.state.IsBusy = false
	if err != nil {
		var be *repository.BallotSubmissionError
		if !errors.As(err, &be) {
			err = &repository.BallotSubmissionError{Op: op, Err: err}
		}
		vm.state.SubmissionError = err.Error()
		vm.publishLocked()
		vm.mu.Unlock()
		vm.logger.Warn("ballot submission failed", "op", op, "error", err)
		vm.Refresh()
		return err
	}
	vm.state.Voted = true
	vm.publishLocked()
	vm.mu.Unlock()

	vm.logger.Info("ballot submitted", "op", op)
	vm.Refresh()
	return nil
}

// DismissVetoBanner clears the replacement highlight
func (vm *ViewModel) DismissVetoBanner() {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	vm.state.NewlyAddedCandidateName = ""
	vm.state.RejectedCandidateName = ""
	vm.state.VetoAnimationTimestamp = time.Time{}
	vm.publishLocked()
}

func (vm *ViewModel) ClearVetoError() {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	vm.state.VetoError = ""
	vm.publishLocked()
}

func (vm *ViewModel) ClearSubmissionError() {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	vm.state.SubmissionError = ""
	vm.publishLocked()
}

// AcknowledgeReview clears the invalidated-selection notice
func (vm *ViewModel) AcknowledgeReview() {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	vm.state.NeedsReview = false
	vm.state.InvalidatedCandidateNames = nil
	vm.state.RevokeError = ""
	vm.publishLocked()
}

func vetoMessage(err error) string {
	var ve *repository.VetoError
	if errors.As(err, &ve) && ve.Reason != "" {
		return ve.Reason
	}
	return err.Error()
}
