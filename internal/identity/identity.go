// Package identity abstracts the third-party identity provider the booking
// engine snapshots display names from.
package identity

import (
	"context"
	"errors"
)

// ErrNoSession means the account has no stored provider session, so its
// identity cannot be resolved without a fresh login.
var ErrNoSession = errors.New("no session for account")

type Reader interface {
	// Nickname returns the account's current display name. An empty
	// string means the provider knows the account but it has no name.
	Nickname(ctx context.Context, accountID string) (string, error)
}
