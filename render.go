// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/danielhkuo/veato/models"
	"github.com/danielhkuo/veato/pollsync"
	"github.com/danielhkuo/veato/screens"
)

func printf(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintf(w, format, args...)
}

// render writes a plain-text frame for the current state as of now
func render(w io.Writer, s pollsync.ScreenState, now time.Time) {
	p := s.Poll
	if p == nil {
		printf(w, "loading poll...\n")
		return
	}

	printf(w, "\n%s (%s) - %s, %s\n", p.PollTitle, p.TeamName, p.Phase, screens.Countdown(p, now))

	if banner := screens.Banner(s); banner != "" {
		printf(w, "  ! %s\n", banner)
	}
	if s.NeedsReview {
		printf(w, "  ! vetoed from your ballot: %s, please review\n", strings.Join(s.InvalidatedCandidateNames, ", "))
	}
	for _, msg := range []string{s.VetoError, s.SubmissionError, s.RevokeError} {
		if msg != "" {
			printf(w, "  error: %s\n", msg)
		}
	}

	switch p.Phase {
	case models.Phase1:
		v := screens.Phase1(s)
		for _, r := range v.Rows {
			printf(w, "  %s %d. %s%s\n", box(r.Selected), r.Index+1, r.Name, star(r.Highlight))
		}
		printf(w, "  %s locked in%s\n", humanize.Comma(int64(v.LockedInUsers)), lockHint(v.LockedIn, v.CanLockIn))
		if v.VetoAvailable {
			printf(w, "  veto available\n")
		}

	case models.Phase2:
		v := screens.Phase2(s)
		for _, r := range v.Rows {
			printf(w, "  %s %d. %s (%d approvals)\n", box(r.Selected), r.Index+1, r.Name, r.ApprovalCount)
		}
		printf(w, "  %s locked in%s\n", humanize.Comma(int64(v.LockedInUsers)), lockHint(v.LockedIn, v.CanLockIn))

	case models.Closed:
		v := screens.Results(p)
		if v.Winner == nil {
			printf(w, "  no votes were cast\n")
			return
		}
		printf(w, "  winner: %s\n", v.Winner.Name)
		for i, r := range v.Rows {
			printf(w, "  %s\n", screens.Tally(i+1, r))
		}
	}
}

func box(selected bool) string {
	if selected {
		return "[x]"
	}
	return "[ ]"
}

func star(on bool) string {
	if on {
		return " *new*"
	}
	return ""
}

func lockHint(locked, canLock bool) string {
	switch {
	case locked:
		return ", including you"
	case canLock:
		return ", type 'lock' to submit"
	}
	return ""
}
