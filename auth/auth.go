// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrMissingUser  = errors.New("user id is required")
	ErrInvalidToken = errors.New("invalid token format")
)

// Header names understood by the poll service
const (
	HeaderAuthorization = "Authorization"
	HeaderUserID        = "X-User-ID"
	HeaderRequestID     = "X-Request-ID"
)

const bearerPrefix = "Bearer "

// Credentials identify the signed-in user for a whole session.
// They are resolved once at startup and never re-queried.
type Credentials struct {
	UserID string
	Token  string
}

// NewCredentials validates and returns session credentials. The token may
// be given bare or as a full "Bearer ..." header value.
func NewCredentials(userID, token string) (Credentials, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return Credentials{}, ErrMissingUser
	}
	if strings.HasPrefix(token, bearerPrefix) {
		t, err := ParseBearer(token)
		if err != nil {
			return Credentials{}, err
		}
		token = t
	}
	if strings.ContainsAny(token, " \t\r\n") {
		return Credentials{}, ErrInvalidToken
	}
	return Credentials{UserID: userID, Token: token}, nil
}

// Apply sets the identity headers on an outgoing request.
// An empty token sends the user id only (dev services).
func (c Credentials) Apply(h http.Header) {
	h.Set(HeaderUserID, c.UserID)
	if c.Token != "" {
		h.Set(HeaderAuthorization, bearerPrefix+c.Token)
	}
}

// NewRequestID creates a random id used to correlate client and service logs
func NewRequestID() string {
	return uuid.NewString()
}

// ParseBearer extracts the token from an Authorization header value
func ParseBearer(value string) (string, error) {
	if !strings.HasPrefix(value, bearerPrefix) {
		return "", ErrInvalidToken
	}
	token := strings.TrimSpace(value[len(bearerPrefix):])
	if token == "" || strings.ContainsAny(token, " \t") {
		return "", ErrInvalidToken
	}
	return token, nil
}
