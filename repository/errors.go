// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package repository

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/danielhkuo/veato/models"
)

var (
	ErrNotFound        = errors.New("poll not found")
	ErrVetoUsed        = errors.New("veto already used")
	ErrWrongPhase      = errors.New("poll is not in the required phase")
	ErrIndexOutOfRange = errors.New("candidate index out of range")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrNoVetoService   = errors.New("no veto service configured")
)

// FetchError is a transient failure while reading a poll snapshot.
// Callers retry; it is never shown to the user mid-session.
type FetchError struct {
	PollID string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch poll %s: %v", e.PollID, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// VetoError is an invalid or rejected veto attempt
type VetoError struct {
	Reason string
	Err    error
}

func (e *VetoError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("veto rejected: %v", e.Err)
	}
	return "veto rejected: " + e.Reason
}

func (e *VetoError) Unwrap() error { return e.Err }

// BallotSubmissionError is a failed sendBallot, revokeBallot or lock-in
type BallotSubmissionError struct {
	Op  string
	Err error
}

func (e *BallotSubmissionError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *BallotSubmissionError) Unwrap() error { return e.Err }

// StatusError is a non-2xx answer the client has no sentinel for
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("poll service returned %d", e.Code)
	}
	return fmt.Sprintf("poll service returned %d: %s", e.Code, e.Message)
}

// statusErr maps a service error response onto the sentinel errors
func statusErr(code int, body models.ErrorResponse) error {
	msg := body.Message
	if msg == "" {
		msg = body.Error
	}

	var sentinel error
	switch code {
	case http.StatusNotFound:
		sentinel = ErrNotFound
	case http.StatusUnauthorized, http.StatusForbidden:
		sentinel = ErrUnauthorized
	case http.StatusConflict:
		// The service uses 409 for both; the message tells them apart
		if strings.Contains(strings.ToLower(msg), "veto") {
			sentinel = ErrVetoUsed
		} else {
			sentinel = ErrWrongPhase
		}
	case http.StatusUnprocessableEntity:
		sentinel = ErrIndexOutOfRange
	default:
		return &StatusError{Code: code, Message: msg}
	}

	if msg == "" {
		return sentinel
	}
	return fmt.Errorf("%w: %s", sentinel, msg)
}

// reason returns a user-facing message for a veto failure
func reason(err error) string {
	switch {
	case errors.Is(err, ErrVetoUsed):
		return "You have already used your veto in this poll"
	case errors.Is(err, ErrWrongPhase):
		return "Vetoes are only allowed in phase 1"
	case errors.Is(err, ErrIndexOutOfRange):
		return "That candidate is no longer available"
	case errors.Is(err, ErrNoVetoService):
		return "Vetoes are unavailable right now"
	}
	var se *StatusError
	if errors.As(err, &se) && se.Message != "" {
		return se.Message
	}
	return "Could not veto, please try again"
}
