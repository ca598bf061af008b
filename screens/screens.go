// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package screens

import (
	"fmt"
	"slices"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/danielhkuo/veato/models"
	"github.com/danielhkuo/veato/pollsync"
)

// Row is one candidate as shown on a voting screen
type Row struct {
	Index    int
	Name     string
	Selected bool
	// Highlight marks the replacement from the latest veto
	Highlight bool
	// ApprovalCount is the read-only phase 1 tally shown in phase 2
	ApprovalCount int
}

type Phase1View struct {
	Rows          []Row
	Interactive   bool
	CanLockIn     bool
	VetoAvailable bool
	LockedIn      bool
	LockedInUsers int
}

// CanVeto reports whether the named candidate can be vetoed right now
func (v Phase1View) CanVeto(name string) bool {
	if !v.VetoAvailable {
		return false
	}
	return slices.ContainsFunc(v.Rows, func(r Row) bool { return r.Name == name })
}

// Phase1 derives the approval/veto screen. Everything but viewing is
// disabled once the ballot is locked in.
func Phase1(s pollsync.ScreenState) Phase1View {
	var v Phase1View
	if s.Poll == nil || s.Poll.Phase != models.Phase1 {
		return v
	}

	v.LockedIn = s.IsLockedIn()
	v.LockedInUsers = s.Poll.LockedInUserCount
	v.Interactive = s.Poll.IsOpen && !v.LockedIn && !s.IsBusy
	v.CanLockIn = v.Interactive && len(s.SelectedIndices()) > 0
	v.VetoAvailable = v.Interactive && !s.RejectionUsed && !s.IsVetoing

	for i, c := range s.Poll.Candidates {
		v.Rows = append(v.Rows, Row{
			Index:     i,
			Name:      c.Name,
			Selected:  s.IsSelected(c.Name),
			Highlight: c.Name == s.NewlyAddedCandidateName,
		})
	}
	return v
}

type Phase2View struct {
	// Rows are ordered by phase 1 approvals, highest first
	Rows          []Row
	Interactive   bool
	CanLockIn     bool
	LockedIn      bool
	LockedInUsers int
}

// Phase2 derives the single-pick runoff screen
func Phase2(s pollsync.ScreenState) Phase2View {
	var v Phase2View
	if s.Poll == nil || s.Poll.Phase != models.Phase2 {
		return v
	}

	v.LockedIn = s.IsLockedIn()
	v.LockedInUsers = s.Poll.LockedInUserCount
	v.Interactive = s.Poll.IsOpen && !v.LockedIn && !s.IsBusy
	v.CanLockIn = v.Interactive && len(s.SelectedIndices()) == 1

	for i, c := range s.Poll.Candidates {
		v.Rows = append(v.Rows, Row{
			Index:         i,
			Name:          c.Name,
			Selected:      s.IsSelected(c.Name),
			ApprovalCount: c.Phase1ApprovalCount,
		})
	}
	// Index stays the server position; only the display order changes
	slices.SortStableFunc(v.Rows, func(a, b Row) int {
		return b.ApprovalCount - a.ApprovalCount
	})
	return v
}

type ResultsView struct {
	Winner *models.Candidate
	Rows   []models.Candidate
}

// Results derives the read-only outcome. The winner is the first result;
// rows only keep candidates from the final votable set.
func Results(p *models.Poll) ResultsView {
	var v ResultsView
	if p == nil || len(p.Results) == 0 {
		return v
	}

	winner := p.Results[0]
	v.Winner = &winner
	for _, r := range p.Results {
		if p.HasCandidate(r.Name) {
			v.Rows = append(v.Rows, r)
		}
	}
	return v
}

// Countdown renders the time left in the current phase as of now,
// e.g. "4 minutes left"
func Countdown(p *models.Poll, now time.Time) string {
	if p == nil {
		return ""
	}
	if !p.IsOpen {
		return "closed"
	}
	if p.RemainingTimeSeconds <= 0 {
		return "closing"
	}
	return humanize.RelTime(now, now.Add(time.Duration(p.RemainingTimeSeconds)*time.Second), "left", "ago")
}

// Banner describes the latest veto, or "" when there is nothing to show
func Banner(s pollsync.ScreenState) string {
	switch {
	case s.RejectedCandidateName != "" && s.NewlyAddedCandidateName != "":
		return fmt.Sprintf("%s was vetoed, %s was added", s.RejectedCandidateName, s.NewlyAddedCandidateName)
	case s.NewlyAddedCandidateName != "":
		return fmt.Sprintf("%s was added", s.NewlyAddedCandidateName)
	case s.RejectedCandidateName != "" && !s.VetoAnimationTimestamp.IsZero():
		return fmt.Sprintf("%s was vetoed", s.RejectedCandidateName)
	}
	return ""
}

// Tally formats a vote count with its ordinal rank, e.g. "1st  Pizza  1,204"
func Tally(rank int, c models.Candidate) string {
	return fmt.Sprintf("%-5s %s  %s", humanize.Ordinal(rank), c.Name, humanize.Comma(int64(c.VoteCount)))
}
