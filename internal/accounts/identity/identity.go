// Package identity defines the contract between the account services and the
// system that owns credentials and issues bearer tokens.
package identity

import (
	"context"
	"errors"
)

var (
	ErrEmailExists     = errors.New("identity: email already registered")
	ErrAccountNotFound = errors.New("identity: account not found")
	ErrInvalidToken    = errors.New("identity: invalid token")
)

// Account is the provider's view of a registered user.
type Account struct {
	ID            string
	Email         string
	DisplayName   string
	EmailVerified bool
}

// Claims are the verified facts carried by a bearer ID token.
type Claims struct {
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
}

// CredentialUpdate carries the credential fields to replace. Empty fields are
// left alone.
type CredentialUpdate struct {
	Password string
}

// Provider is an identity provider. Implementations must be safe for
// concurrent use.
type Provider interface {
	CreateAccount(ctx context.Context, email, password, displayName string) (Account, error)
	DeleteAccount(ctx context.Context, id string) error
	UpdateCredential(ctx context.Context, id string, update CredentialUpdate) error

	// VerifyBearerToken validates an ID token. Every rejection wraps
	// ErrInvalidToken.
	VerifyBearerToken(ctx context.Context, token string) (Claims, error)

	// IssueExchangeToken mints a short lived token the client trades for a
	// session with the provider.
	IssueExchangeToken(ctx context.Context, id string) (string, error)

	GenerateEmailVerificationLink(ctx context.Context, email string) (string, error)
}
