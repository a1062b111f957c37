package local

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/aussiebroadwan/accounts/internal/accounts/identity"
	"github.com/aussiebroadwan/accounts/pkg/jwtx"
	"github.com/golang-jwt/jwt/v5"
)

// VerifyBearerToken accepts only ID tokens whose account still exists. The
// returned claims reflect the account as stored now, not as signed.
func (p *Provider) VerifyBearerToken(ctx context.Context, token string) (identity.Claims, error) {
	claims, err := p.verifier.Verify(token, jwtx.UseID)
	if err != nil {
		return identity.Claims{}, fmt.Errorf("%w: %v", identity.ErrInvalidToken, err)
	}

	acct, err := p.findByID(ctx, claims.Subject)
	if errors.Is(err, identity.ErrAccountNotFound) {
		return identity.Claims{}, fmt.Errorf("%w: account no longer exists", identity.ErrInvalidToken)
	}
	if err != nil {
		return identity.Claims{}, err
	}

	return identity.Claims{
		Subject:       acct.ID,
		Email:         acct.Email,
		EmailVerified: acct.EmailVerified,
		Name:          acct.DisplayName,
	}, nil
}

func (p *Provider) IssueExchangeToken(ctx context.Context, id string) (string, error) {
	acct, err := p.findByID(ctx, id)
	if err != nil {
		return "", err
	}

	claims := jwtx.NewClaims(p.cfg.Issuer, acct.ID, jwtx.UseExchange, p.cfg.ExchangeTokenTTL, p.cfg.Now())
	claims.Audience = jwt.ClaimStrings{ExchangeAudience}
	return p.signer.Sign(claims)
}

// RedeemExchangeToken trades an exchange token for an ID token. Each
// exchange token redeems once.
func (p *Provider) RedeemExchangeToken(ctx context.Context, token string) (string, error) {
	claims, err := p.verifier.Verify(token, jwtx.UseExchange)
	if err != nil {
		return "", fmt.Errorf("%w: %v", identity.ErrInvalidToken, err)
	}
	if err := p.markRedeemed(ctx, claims); err != nil {
		return "", err
	}

	acct, err := p.findByID(ctx, claims.Subject)
	if errors.Is(err, identity.ErrAccountNotFound) {
		return "", fmt.Errorf("%w: account no longer exists", identity.ErrInvalidToken)
	}
	if err != nil {
		return "", err
	}
	return p.issueIDToken(acct.Account)
}

// GenerateEmailVerificationLink returns VerifyEmailURL with a signed token
// query parameter.
func (p *Provider) GenerateEmailVerificationLink(ctx context.Context, email string) (string, error) {
	acct, err := p.findByEmail(ctx, email)
	if err != nil {
		return "", err
	}

	claims := jwtx.NewClaims(p.cfg.Issuer, acct.ID, jwtx.UseVerifyEmail, p.cfg.VerifyEmailTTL, p.cfg.Now())
	claims.Email = acct.Email
	token, err := p.signer.Sign(claims)
	if err != nil {
		return "", err
	}

	link, err := url.Parse(p.cfg.VerifyEmailURL)
	if err != nil {
		return "", fmt.Errorf("local: verify email url: %w", err)
	}
	q := link.Query()
	q.Set("token", token)
	link.RawQuery = q.Encode()
	return link.String(), nil
}

// ConfirmEmail redeems a verification token. A token minted for an address
// the account no longer has is rejected.
func (p *Provider) ConfirmEmail(ctx context.Context, token string) error {
	claims, err := p.verifier.Verify(token, jwtx.UseVerifyEmail)
	if err != nil {
		return fmt.Errorf("%w: %v", identity.ErrInvalidToken, err)
	}

	err = p.markEmailVerified(ctx, claims.Subject, claims.Email)
	if errors.Is(err, identity.ErrAccountNotFound) {
		return fmt.Errorf("%w: account or email changed", identity.ErrInvalidToken)
	}
	return err
}

func (p *Provider) issueIDToken(acct identity.Account) (string, error) {
	claims := jwtx.NewClaims(p.cfg.Issuer, acct.ID, jwtx.UseID, p.cfg.IDTokenTTL, p.cfg.Now())
	claims.Email = acct.Email
	claims.EmailVerified = acct.EmailVerified
	claims.Name = acct.DisplayName
	return p.signer.Sign(claims)
}

// markRedeemed records the token's jti, failing if it was already recorded.
// Rows for tokens that have expired anyway are pruned on the way.
func (p *Provider) markRedeemed(ctx context.Context, claims *jwtx.Claims) error {
	if claims.ID == "" {
		return fmt.Errorf("%w: missing jti", identity.ErrInvalidToken)
	}

	if _, err := p.db.ExecContext(ctx,
		`DELETE FROM redeemed_exchange_tokens WHERE expires_at < ?`, p.cfg.Now().Unix(),
	); err != nil {
		return fmt.Errorf("local: prune redeemed tokens: %w", err)
	}

	res, err := p.db.ExecContext(ctx, `
		INSERT INTO redeemed_exchange_tokens (jti, expires_at) VALUES (?, ?)
		ON CONFLICT (jti) DO NOTHING`,
		claims.ID, claims.ExpiresAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("local: record redeemed token: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("local: record redeemed token: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: exchange token already redeemed", identity.ErrInvalidToken)
	}
	return nil
}
