// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package pollsync

import (
	"slices"
	"time"

	"github.com/danielhkuo/veato/models"
)

// Effects are side effects the caller must carry out after Reconcile
type Effects struct {
	// Revoke asks for the user's ballot to be revoked because it
	// includes a candidate that no longer exists.
	Revoke bool

	PhaseChanged bool
	Added        []string
	Removed      []string
}

// Reconcile folds a freshly fetched snapshot into the previous state.
// next replaces prev.Poll wholesale; only selection-related fields are
// reinterpreted. After it returns, every selected name exists in
// next.Candidates.
func Reconcile(prev ScreenState, next *models.Poll, now time.Time) (ScreenState, Effects) {
	s := prev.Clone()
	s.Poll = next.Clone()

	var fx Effects
	old := prev.Poll

	if old == nil {
		s.pruneSelection()
		return s, fx
	}

	if old.Phase != next.Phase {
		fx.PhaseChanged = true
		s.resetPhase()
		return s, fx
	}

	oldNames := old.CandidateNames()
	newNames := next.CandidateNames()
	if slices.Equal(oldNames, newNames) {
		s.pruneSelection()
		return s, fx
	}

	fx.Added = missingFrom(newNames, oldNames)
	fx.Removed = missingFrom(oldNames, newNames)

	if next.Phase == models.Phase1 {
		var invalidated []string
		for _, name := range fx.Removed {
			if prev.SelectedCandidateNames[name] {
				invalidated = append(invalidated, name)
			}
		}

		if len(invalidated) > 0 {
			s.NeedsReview = true
			s.InvalidatedCandidateNames = invalidated

			// A lock-in that includes a vanished candidate must not stay locked
			if prev.Voted || old.HasCurrentUserLockedIn || next.HasCurrentUserLockedIn {
				fx.Revoke = true
				s.RevokePending = true
				s.Voted = false
				s.SelectedCandidateNames = map[string]bool{}
			}
		}

		if len(fx.Added) > 0 || len(fx.Removed) > 0 {
			s.NewlyAddedCandidateName = first(fx.Added)
			s.RejectedCandidateName = first(fx.Removed)
			s.VetoAnimationTimestamp = now
		}
	}

	// Name-based remap: indices shift, names do not
	s.pruneSelection()
	return s, fx
}

// missingFrom returns names in a that are absent from b, in a's order
func missingFrom(a, b []string) []string {
	var out []string
	for _, name := range a {
		if !slices.Contains(b, name) {
			out = append(out, name)
		}
	}
	return out
}

func first(names []string) string {
	if len(names) == 0 {
		return ""
	}
	return names[0]
}
