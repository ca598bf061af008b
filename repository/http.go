// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package repository

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielhkuo/veato/auth"
	"github.com/danielhkuo/veato/middleware"
	"github.com/danielhkuo/veato/models"
	"github.com/danielhkuo/veato/router"
)

const defaultTimeout = 10 * time.Second

// HTTPRepository talks JSON to the poll service
type HTTPRepository struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

type HTTPOption func(*HTTPRepository)

// WithHTTPClient uses c as the base client; its transport is still wrapped
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(r *HTTPRepository) {
		cp := *c
		r.client = &cp
	}
}

func WithLogger(l *slog.Logger) HTTPOption {
	return func(r *HTTPRepository) { r.logger = l }
}

func NewHTTPRepository(baseURL string, creds auth.Credentials, opts ...HTTPOption) *HTTPRepository {
	r := &HTTPRepository{
		baseURL: baseURL,
		client:  &http.Client{Timeout: defaultTimeout},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}

	// Credentials run first so the request id shows up in the log
	r.client.Transport = middleware.Chain(r.client.Transport,
		middleware.WithCredentials(creds),
		middleware.WithLogging(r.logger),
	)
	return r
}

// GetPoll handles GET /polls/:pollId
func (r *HTTPRepository) GetPoll(ctx context.Context, pollID string) (*models.Poll, error) {
	var poll models.Poll
	if err := r.do(ctx, router.OpGetPoll, nil, &poll, "pollId", pollID); err != nil {
		return nil, &FetchError{PollID: pollID, Err: err}
	}
	if poll.PollID == "" {
		poll.PollID = pollID
	}
	return &poll, nil
}

// SendBallot handles PUT /polls/:pollId/ballots/:userId
func (r *HTTPRepository) SendBallot(ctx context.Context, pollID, userID string, selectedIndices []int) error {
	body := models.SendBallotRequest{SelectedIndices: nonNil(selectedIndices)}
	if err := r.do(ctx, router.OpSendBallot, body, nil, "pollId", pollID, "userId", userID); err != nil {
		return &BallotSubmissionError{Op: OpSendBallot, Err: err}
	}
	return nil
}

// RevokeBallot handles DELETE /polls/:pollId/ballots/:userId
func (r *HTTPRepository) RevokeBallot(ctx context.Context, pollID, userID string) error {
	if err := r.do(ctx, router.OpRevokeBallot, nil, nil, "pollId", pollID, "userId", userID); err != nil {
		return &BallotSubmissionError{Op: OpRevokeBallot, Err: err}
	}
	return nil
}

// RejectCandidateImmediately handles POST /polls/:pollId/veto
func (r *HTTPRepository) RejectCandidateImmediately(ctx context.Context, pollID string, candidateIndex int) (*models.Poll, error) {
	if candidateIndex < 0 {
		return nil, &VetoError{Reason: reason(ErrIndexOutOfRange), Err: ErrIndexOutOfRange}
	}

	var poll models.Poll
	body := models.VetoRequest{CandidateIndex: candidateIndex}
	if err := r.do(ctx, router.OpVeto, body, &poll, "pollId", pollID); err != nil {
		return nil, &VetoError{Reason: reason(err), Err: err}
	}
	if poll.PollID == "" {
		poll.PollID = pollID
	}
	return &poll, nil
}

// SubmitPhase1Vote handles POST /polls/:pollId/phase1-votes
func (r *HTTPRepository) SubmitPhase1Vote(ctx context.Context, pollID string, approvedIndices []int, rejectedIndex *int) error {
	body := models.Phase1VoteRequest{ApprovedIndices: nonNil(approvedIndices), RejectedIndex: rejectedIndex}
	if err := r.do(ctx, router.OpPhase1Vote, body, nil, "pollId", pollID); err != nil {
		return &BallotSubmissionError{Op: OpPhase1Vote, Err: err}
	}
	return nil
}

// SubmitPhase2Vote handles POST /polls/:pollId/phase2-votes
func (r *HTTPRepository) SubmitPhase2Vote(ctx context.Context, pollID string, selectedIndex int) error {
	body := models.Phase2VoteRequest{SelectedIndex: selectedIndex}
	if err := r.do(ctx, router.OpPhase2Vote, body, nil, "pollId", pollID); err != nil {
		return &BallotSubmissionError{Op: OpPhase2Vote, Err: err}
	}
	return nil
}

func (r *HTTPRepository) do(ctx context.Context, op router.Op, body, out interface{}, params ...string) error {
	route, _ := router.Lookup(op)
	url, err := router.URL(r.baseURL, op, params...)
	if err != nil {
		return err
	}

	var reqBody io.Reader
	if body != nil {
		reqBody, err = middleware.EncodeJSON(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, route.Method, url, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusErr(resp.StatusCode, middleware.DecodeError(resp))
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := middleware.DecodeJSON(resp.Body, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", op, err)
	}
	return nil
}

// nonNil keeps empty lists as [] on the wire instead of null
func nonNil(s []int) []int {
	if s == nil {
		return []int{}
	}
	return s
}
