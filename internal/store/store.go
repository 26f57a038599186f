// Package store provides durable credential persistence for the chat
// server behind a narrow interface, so the backing engine can change
// without touching protocol or handler code.
package store

import (
	"context"
	"errors"
)

// ErrUsernameTaken indicates a registration attempt for a username that
// already exists.
var ErrUsernameTaken = errors.New("username already exists")

// CredentialStore is the durable mapping from username to secret.
type CredentialStore interface {
	// Register creates a credential. It returns ErrUsernameTaken when the
	// username exists; concurrent registrations of the same username yield
	// exactly one success.
	Register(ctx context.Context, username, secret string) error

	// Validate reports whether the pair matches a stored credential. It is
	// a pure read. Unknown usernames and wrong secrets are both (false, nil);
	// a non-nil error means the store itself failed.
	Validate(ctx context.Context, username, secret string) (bool, error)
}
