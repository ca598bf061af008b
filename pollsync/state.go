// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package pollsync

import (
	"time"

	"github.com/danielhkuo/veato/models"
)

// ScreenState is the client-local view of one user's poll session.
// Candidates are tracked by name; indices are derived from Poll on demand.
type ScreenState struct {
	Poll *models.Poll

	IsBusy bool
	Voted  bool

	SelectedCandidateNames map[string]bool

	RejectionUsed         bool
	RejectedCandidateName string
	IsVetoing             bool
	VetoError             string

	// Highlight banner for a just-replaced candidate
	NewlyAddedCandidateName string
	VetoAnimationTimestamp  time.Time

	// Raised when a server-side veto removed something the user had picked
	NeedsReview               bool
	InvalidatedCandidateNames []string

	SubmissionError string
	RevokePending   bool
	RevokeError     string
}

// Clone returns a copy that shares nothing mutable with s
func (s ScreenState) Clone() ScreenState {
	c := s
	c.Poll = s.Poll.Clone()
	c.SelectedCandidateNames = make(map[string]bool, len(s.SelectedCandidateNames))
	for name, ok := range s.SelectedCandidateNames {
		if ok {
			c.SelectedCandidateNames[name] = true
		}
	}
	c.InvalidatedCandidateNames = append([]string(nil), s.InvalidatedCandidateNames...)
	return c
}

// Phase returns the phase of the current snapshot, or "" while loading
func (s ScreenState) Phase() models.Phase {
	if s.Poll == nil {
		return ""
	}
	return s.Poll.Phase
}

// IsLockedIn reports whether the user's ballot for this phase is final.
// A server-reported lock-in stops counting once a revoke is in flight.
func (s ScreenState) IsLockedIn() bool {
	if s.Voted {
		return true
	}
	return s.Poll != nil && s.Poll.HasCurrentUserLockedIn && !s.RevokePending
}

func (s ScreenState) IsSelected(name string) bool {
	return s.SelectedCandidateNames[name]
}

// SelectedNames returns the selection in candidate-list order
func (s ScreenState) SelectedNames() []string {
	if s.Poll == nil {
		return nil
	}
	var names []string
	for _, c := range s.Poll.Candidates {
		if s.SelectedCandidateNames[c.Name] {
			names = append(names, c.Name)
		}
	}
	return names
}

// SelectedIndices translates the selection to positions in the current list
func (s ScreenState) SelectedIndices() []int {
	if s.Poll == nil {
		return nil
	}
	indices := []int{}
	for i, c := range s.Poll.Candidates {
		if s.SelectedCandidateNames[c.Name] {
			indices = append(indices, i)
		}
	}
	return indices
}

// resetPhase clears everything that only has meaning within one phase
func (s *ScreenState) resetPhase() {
	s.Voted = false
	s.SelectedCandidateNames = map[string]bool{}
	s.RejectionUsed = false
	s.RejectedCandidateName = ""
	s.VetoError = ""
	s.NewlyAddedCandidateName = ""
	s.VetoAnimationTimestamp = time.Time{}
	s.NeedsReview = false
	s.InvalidatedCandidateNames = nil
	s.SubmissionError = ""
	s.RevokePending = false
	s.RevokeError = ""
}

// pruneSelection drops every selected name missing from the current list
func (s *ScreenState) pruneSelection() {
	if s.SelectedCandidateNames == nil {
		s.SelectedCandidateNames = map[string]bool{}
	}
	for name := range s.SelectedCandidateNames {
		if s.Poll == nil || !s.Poll.HasCandidate(name) || !s.SelectedCandidateNames[name] {
			delete(s.SelectedCandidateNames, name)
		}
	}
}
