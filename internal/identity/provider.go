package identity

import "context"

// Identity is an authenticated user as reported by the provider.
type Identity struct {
	UserID      string
	DisplayName string
}

// Change is emitted whenever the signed-in identity changes. SignedIn
// false means the previous identity signed out.
type Change struct {
	Identity Identity
	SignedIn bool
}

// Provider abstracts the external authentication service. Credential
// acquisition is opaque to callers; a failure fails the enclosing
// operation.
type Provider interface {
	// Current returns the signed-in identity, if any.
	Current() (Identity, bool)
	// Credential returns a bearer token for the identity.
	Credential(ctx context.Context, id Identity) (string, error)
	// Subscribe returns a channel of identity changes. The caller must
	// invoke the returned cancel function to avoid leaks.
	Subscribe() (<-chan Change, func())
}
