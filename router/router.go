// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Op names one poll service operation
type Op string

const (
	OpGetPoll      Op = "getPoll"
	OpSendBallot   Op = "sendBallot"
	OpRevokeBallot Op = "revokeBallot"
	OpVeto         Op = "rejectCandidateImmediately"
	OpPhase1Vote   Op = "submitPhase1Vote"
	OpPhase2Vote   Op = "submitPhase2Vote"
	OpEvents       Op = "events"
)

type Route struct {
	Method  string
	Pattern string
}

var routes = map[Op]Route{
	// Reads
	OpGetPoll: {http.MethodGet, "/polls/{pollId}"},
	OpEvents:  {http.MethodGet, "/polls/{pollId}/events"},

	// Ballots
	OpSendBallot:   {http.MethodPut, "/polls/{pollId}/ballots/{userId}"},
	OpRevokeBallot: {http.MethodDelete, "/polls/{pollId}/ballots/{userId}"},

	// Phase voting
	OpVeto:       {http.MethodPost, "/polls/{pollId}/veto"},
	OpPhase1Vote: {http.MethodPost, "/polls/{pollId}/phase1-votes"},
	OpPhase2Vote: {http.MethodPost, "/polls/{pollId}/phase2-votes"},
}

// Lookup returns the route for an operation
func Lookup(op Op) (Route, bool) {
	r, ok := routes[op]
	return r, ok
}

// Routes returns a copy of the full route table
func Routes() map[Op]Route {
	out := make(map[Op]Route, len(routes))
	for op, r := range routes {
		out[op] = r
	}
	return out
}

// Path expands the route pattern with escaped path values.
// params are name/value pairs: "pollId", id, "userId", uid.
func (r Route) Path(params ...string) (string, error) {
	if len(params)%2 != 0 {
		return "", fmt.Errorf("odd number of path params for %s", r.Pattern)
	}
	path := r.Pattern
	for i := 0; i < len(params); i += 2 {
		if params[i+1] == "" {
			return "", fmt.Errorf("empty value for {%s}", params[i])
		}
		path = strings.ReplaceAll(path, "{"+params[i]+"}", url.PathEscape(params[i+1]))
	}
	if strings.Contains(path, "{") {
		return "", fmt.Errorf("unfilled path params in %s", path)
	}
	return path, nil
}

// URL joins the base service URL with an operation path
func URL(base string, op Op, params ...string) (string, error) {
	route, ok := Lookup(op)
	if !ok {
		return "", fmt.Errorf("unknown operation %q", op)
	}
	path, err := route.Path(params...)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(base, "/") + path, nil
}
