package gateway

import (
	"context"
	"errors"
)

// ErrNoSession is wrapped by StaleSession failures raised before any call.
var ErrNoSession = errors.New("no active session")

// TokenSource yields the current bearer token, or "" when signed out.
type TokenSource interface {
	Token() string
}

// Invalidator is the single entry point for reporting that the identity
// service no longer accepts token.
type Invalidator interface {
	InvalidateSession(ctx context.Context, token string) bool
}

// Doer is the subset of Gateway the authorized client needs.
type Doer interface {
	Do(ctx context.Context, req Request, out any) error
}

// AuthorizedClient attaches the session token to business-data calls and
// reports authorization failures back to the session owner.
type AuthorizedClient struct {
	doer        Doer
	tokens      TokenSource
	invalidator Invalidator
}

// NewAuthorizedClient builds a client. tokens and invalidator are normally
// the same auth machine.
func NewAuthorizedClient(doer Doer, tokens TokenSource, invalidator Invalidator) *AuthorizedClient {
	return &AuthorizedClient{doer: doer, tokens: tokens, invalidator: invalidator}
}

// Do performs an authorized call. A 401/403 answer invalidates the session
// the call was made with and is returned as a StaleSession failure.
func (c *AuthorizedClient) Do(ctx context.Context, method, endpoint string, payload, out any) error {
	token := c.tokens.Token()
	if token == "" {
		return &RequestFailure{Kind: StaleSession, Endpoint: endpoint, Message: "sign in required", Err: ErrNoSession}
	}

	err := c.doer.Do(ctx, Request{Method: method, Endpoint: endpoint, Payload: payload, Token: token}, out)
	if err == nil || !IsAuthorizationFailure(err) {
		return err
	}

	failure, _ := AsFailure(err)
	if c.invalidator != nil {
		c.invalidator.InvalidateSession(ctx, token)
	}
	return &RequestFailure{
		Kind:     StaleSession,
		Endpoint: endpoint,
		Status:   failure.Status,
		Message:  failure.Message,
		Err:      err,
	}
}
