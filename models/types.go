// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import "time"

// Phase is the poll state machine position, set by the poll service.
type Phase string

// Poll phase constants
const (
	Phase1 Phase = "PHASE1"
	Phase2 Phase = "PHASE2"
	Closed Phase = "CLOSED"
)

// IsVoting reports whether ballots can be cast in this phase.
func (p Phase) IsVoting() bool {
	return p == Phase1 || p == Phase2
}

// Event type constants
const (
	EventPollUpdated = "poll.updated"
	EventPollClosed  = "poll.closed"
)

// Domain types

// Candidate is identified by Name; there is no stable ID.
type Candidate struct {
	Name                string `json:"name"`
	VoteCount           int    `json:"voteCount"`
	Phase1ApprovalCount int    `json:"phase1ApprovalCount"`
}

type Poll struct {
	PollID                 string      `json:"pollId"`
	TeamID                 string      `json:"teamId"`
	TeamName               string      `json:"teamName"`
	PollTitle              string      `json:"pollTitle"`
	Phase                  Phase       `json:"phase"`
	Duration               int         `json:"duration"` // seconds
	RemainingTimeSeconds   int         `json:"remainingTimeSeconds"`
	IsOpen                 bool        `json:"isOpen"`
	Candidates             []Candidate `json:"candidates"`
	LockedInUserCount      int         `json:"lockedInUserCount"`
	HasCurrentUserLockedIn bool        `json:"hasCurrentUserLockedIn"`
	Results                []Candidate `json:"results"`
}

// CandidateNames returns candidate names in list order
func (p *Poll) CandidateNames() []string {
	names := make([]string, len(p.Candidates))
	for i, c := range p.Candidates {
		names[i] = c.Name
	}
	return names
}

// IndexOf returns the current position of a candidate by name
func (p *Poll) IndexOf(name string) (int, bool) {
	for i, c := range p.Candidates {
		if c.Name == name {
			return i, true
		}
	}
	return -1, false
}

func (p *Poll) HasCandidate(name string) bool {
	_, ok := p.IndexOf(name)
	return ok
}

// Clone returns a deep copy so snapshots can be handed out safely
func (p *Poll) Clone() *Poll {
	if p == nil {
		return nil
	}
	c := *p
	c.Candidates = append([]Candidate(nil), p.Candidates...)
	c.Results = append([]Candidate(nil), p.Results...)
	return &c
}

// Request types

type SendBallotRequest struct {
	SelectedIndices []int `json:"selectedIndices"`
}

type VetoRequest struct {
	CandidateIndex int `json:"candidateIndex"`
}

type Phase1VoteRequest struct {
	ApprovedIndices []int `json:"approvedIndices"`
	RejectedIndex   *int  `json:"rejectedIndex,omitempty"`
}

type Phase2VoteRequest struct {
	SelectedIndex int `json:"selectedIndex"`
}

// Stored documents

// Ballot is the per-user document written in simple-vote mode
type Ballot struct {
	UserID          string    `json:"userId"`
	SelectedIndices []int     `json:"selectedIndices"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// LockIn is the per-user, per-phase document written on lock-in
type LockIn struct {
	UserID          string    `json:"userId"`
	Phase           Phase     `json:"phase"`
	ApprovedIndices []int     `json:"approvedIndices,omitempty"`
	RejectedIndex   *int      `json:"rejectedIndex,omitempty"`
	SelectedIndex   *int      `json:"selectedIndex,omitempty"`
	LockedAt        time.Time `json:"lockedAt"`
}

// Push events

type PollEvent struct {
	Type   string    `json:"type"`
	PollID string    `json:"pollId"`
	Phase  Phase     `json:"phase,omitempty"`
	At     time.Time `json:"at"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
