// Package identity resolves request credentials to user ids. Accounts,
// sessions and tokens are owned by an external identity service; this
// package only asks it who the caller is.
package identity

import (
	"context"
	"errors"
	"strings"
)

var ErrUnknownToken = errors.New("identity: unknown token")

// Principal is the authenticated caller.
type Principal struct {
	ID   string
	Name string
}

// Provider resolves a bearer token to the principal it belongs to.
type Provider interface {
	Resolve(ctx context.Context, token string) (Principal, error)
}

// Static maps fixed tokens to principals. Used in dev and tests.
type Static map[string]Principal

func (s Static) Resolve(_ context.Context, token string) (Principal, error) {
	p, ok := s[token]
	if !ok {
		return Principal{}, ErrUnknownToken
	}
	return p, nil
}

// Passthrough treats the token itself as the user id. Dev convenience
// only; never run it in front of real traffic.
type Passthrough struct{}

func (Passthrough) Resolve(_ context.Context, token string) (Principal, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Principal{}, ErrUnknownToken
	}
	return Principal{ID: token}, nil
}
