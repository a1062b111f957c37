package jwtx

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMalformed    = errors.New("jwtx: malformed token")
	ErrUnknownKID   = errors.New("jwtx: unknown kid")
	ErrInvalidSig   = errors.New("jwtx: invalid signature")
	ErrIssuer       = errors.New("jwtx: issuer mismatch")
	ErrExpired      = errors.New("jwtx: token expired")
	ErrNotYetValid  = errors.New("jwtx: token not yet valid")
	ErrTokenUse     = errors.New("jwtx: wrong token use")
	ErrInvalidClaim = errors.New("jwtx: invalid claims")
)

// VerifyOptions captures what a verifier enforces. Empty fields are not
// checked.
type VerifyOptions struct {
	Issuer string
	Leeway time.Duration
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Verifier validates EdDSA tokens against a KeySet.
type Verifier struct {
	keys *KeySet
	opts VerifyOptions
}

func NewVerifier(keys *KeySet, opts VerifyOptions) *Verifier {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Verifier{keys: keys, opts: opts}
}

// Verify parses token and checks signature, time bounds, issuer and that
// token_use equals use.
func (v *Verifier) Verify(token, use string) (*Claims, error) {
	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodEdDSA.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(v.opts.Leeway),
		jwt.WithTimeFunc(v.opts.Now),
	}
	if v.opts.Issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(v.opts.Issuer))
	}

	parsed, err := jwt.NewParser(parserOpts...).ParseWithClaims(token, &Claims{}, v.keyFunc)
	if err != nil {
		return nil, classify(err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidClaim
	}
	if claims.TokenUse != use {
		return nil, fmt.Errorf("%w: got %q", ErrTokenUse, claims.TokenUse)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing sub", ErrInvalidClaim)
	}
	return claims, nil
}

func (v *Verifier) keyFunc(t *jwt.Token) (any, error) {
	kid, _ := t.Header["kid"].(string)
	if kid == "" {
		return nil, fmt.Errorf("%w: missing kid", ErrUnknownKID)
	}
	pub, err := v.keys.Get(kid)
	if err != nil {
		return nil, fmt.Errorf("%w %q", ErrUnknownKID, kid)
	}
	return pub, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, ErrUnknownKID):
		return err
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	case errors.Is(err, jwt.ErrTokenNotValidYet), errors.Is(err, jwt.ErrTokenUsedBeforeIssued):
		return ErrNotYetValid
	case errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return ErrIssuer
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrInvalidSig
	case errors.Is(err, jwt.ErrTokenMalformed), errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	default:
		return fmt.Errorf("%w: %v", ErrInvalidClaim, err)
	}
}
