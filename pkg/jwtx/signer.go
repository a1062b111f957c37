package jwtx

import (
	"crypto/ed25519"
	"errors"

	"github.com/aussiebroadwan/accounts/pkg/cryptox"
	"github.com/golang-jwt/jwt/v5"
)

// Signer signs claims with a single Ed25519 key.
type Signer struct {
	kid string
	key ed25519.PrivateKey
	pub ed25519.PublicKey
}

// NewSigner loads a PKCS8 PEM Ed25519 private key.
func NewSigner(kid string, pemKey []byte) (*Signer, error) {
	if kid == "" {
		return nil, errors.New("jwtx: signer needs a kid")
	}
	key, err := cryptox.ParseEd25519PrivateKey(pemKey)
	if err != nil {
		return nil, err
	}
	return &Signer{
		kid: kid,
		key: key,
		pub: key.Public().(ed25519.PublicKey),
	}, nil
}

func (s *Signer) KID() string { return s.kid }

func (s *Signer) Sign(claims Claims) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	t.Header["kid"] = s.kid
	return t.SignedString(s.key)
}

// PublicJWK returns the verification key for publishing in a JWKS.
func (s *Signer) PublicJWK() JWK {
	return NewEd25519JWK(s.kid, s.pub)
}
