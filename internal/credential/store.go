// Package credential stores the PIN credential enrolled for each identifier.
// PINs are never stored in the clear: the store keeps a bcrypt hash and only
// exposes enroll/verify operations.
package credential

import (
	"context"
	"errors"
)

var (
	// ErrNotFound indicates no credential is enrolled for the identifier.
	ErrNotFound = errors.New("credential not found")
)

// Store is the contract for credential backends. Enroll overwrites any
// existing credential for the identifier (PIN reset reuses it). There is no
// delete operation.
type Store interface {
	// Enroll hashes and saves the PIN for identifier, registering the
	// identifier if it is new.
	Enroll(ctx context.Context, identifier, pin string) error
	// Verify reports whether pin matches the enrolled credential.
	// Returns ErrNotFound when the identifier is not enrolled.
	Verify(ctx context.Context, identifier, pin string) (bool, error)
	// Exists reports whether a credential is enrolled for identifier.
	Exists(ctx context.Context, identifier string) (bool, error)
	// Identifiers returns all registered identifiers.
	Identifiers(ctx context.Context) ([]string, error)
}
