package jwtx

import (
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token uses carried in the token_use claim. A verifier pinned to one use
// rejects every other kind, so an exchange token never passes as an ID token.
const (
	UseID          = "id"
	UseExchange    = "exchange"
	UseVerifyEmail = "verify_email"
)

// Claims issued by the local identity provider.
type Claims struct {
	jwt.RegisteredClaims

	TokenUse      string `json:"token_use"`
	Email         string `json:"email,omitempty"`
	EmailVerified bool   `json:"email_verified,omitempty"`
	Name          string `json:"name,omitempty"`
}

// NewClaims builds claims for subject valid from now for ttl.
func NewClaims(issuer, subject, use string, ttl time.Duration, now time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        NewJTI(),
		},
		TokenUse: use,
	}
}

// NewJTI returns a URL-safe random identifier for the "jti" claim.
func NewJTI() string {
	var b [20]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}
