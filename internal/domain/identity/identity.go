package identity

import (
	"context"
	"errors"
)

// Identity is the verified caller claim. Used only as a partition key
// for history and job accounting; never persisted beyond that.
type Identity struct {
	Subject string `json:"subject"`
	Email   string `json:"email"`
}

// Key returns the partition key used for history and pending uploads.
func (i Identity) Key() string {
	if i.Email != "" {
		return i.Email
	}
	return i.Subject
}

// Verifier port (bearer credential -> Identity)
type Verifier interface {
	Verify(ctx context.Context, rawToken string) (Identity, error)
}

// Auth failures. Raw verification internals never leak to callers.
var (
	ErrMissingCredential = errors.New("missing credential")
	ErrInvalidSignature  = errors.New("invalid signature")
	ErrExpired           = errors.New("credential expired")
	ErrMissingClaim      = errors.New("required identity claim missing")
)

// IsAuthError reports whether err is one of the auth failures above.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrMissingCredential) ||
		errors.Is(err, ErrInvalidSignature) ||
		errors.Is(err, ErrExpired) ||
		errors.Is(err, ErrMissingClaim)
}
