// Package domain defines authentication domain models and errors.
//
// Two credential kinds resolve to the same principal shape: a signed session
// token carried by interactive clients, and an opaque API token carried by
// non-interactive clients. Endpoints are statically bound to exactly one
// strategy; there is no fallback chaining between them.
package domain

import (
	"github.com/google/uuid"

	"github.com/allisson/envstore/internal/errors"
)

// Principal is the authenticated identity derived from a credential for the
// duration of one request.
type Principal struct {
	ID    uuid.UUID
	Email string

	// AccessToken carries a replacement session token when the presented one
	// was close to expiry (refresh-on-read). Empty for API token principals
	// and for session tokens with plenty of lifetime left.
	AccessToken string
}

// LoginInput contains the credentials for a password login.
type LoginInput struct {
	Email    string
	Password string
}

// LoginOutput contains the session token issued after a successful login.
type LoginOutput struct {
	AccessToken string
}

// FederatedProfile describes the identity asserted by an external provider
// after a completed OAuth exchange.
type FederatedProfile struct {
	Provider   string
	ProviderID string
	Email      string
	FullName   string
	Avatar     string
}

// Authentication errors.
var (
	// ErrInvalidCredentials indicates a failed password login. Unknown email
	// and wrong password are indistinguishable to prevent user enumeration.
	ErrInvalidCredentials = errors.Wrap(errors.ErrUnauthorized, "invalid credentials")

	// ErrInvalidSessionToken indicates a session token that is missing, malformed,
	// carries a bad signature, or is expired.
	ErrInvalidSessionToken = errors.Wrap(errors.ErrUnauthorized, "invalid session token")

	// ErrInvalidAPIToken indicates an API token that is missing or has no
	// matching record, including tokens whose owning record was deleted.
	ErrInvalidAPIToken = errors.Wrap(errors.ErrUnauthorized, "invalid api token")
)
