// Package local is a self-contained identity provider: accounts live in their
// own sqlite database, passwords are argon2id hashed and tokens are EdDSA
// JWTs verifiable through a published JWKS.
package local

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aussiebroadwan/accounts/internal/accounts/identity"
	"github.com/aussiebroadwan/accounts/pkg/cryptox"
	"github.com/aussiebroadwan/accounts/pkg/jwtx"

	_ "modernc.org/sqlite"
)

// ErrInvalidCredentials is returned by SignInWithPassword for an unknown
// email or a wrong password alike.
var ErrInvalidCredentials = errors.New("local: invalid email or password")

// ExchangeAudience is the aud claim of exchange tokens.
const ExchangeAudience = "exchange"

// Config configures the provider. Zero durations fall back to the defaults.
type Config struct {
	Issuer         string
	VerifyEmailURL string

	IDTokenTTL       time.Duration
	ExchangeTokenTTL time.Duration
	VerifyEmailTTL   time.Duration

	Pepper        string
	SigningKeyPEM []byte

	// Now overrides the clock, for tests.
	Now func() time.Time
}

const (
	DefaultIDTokenTTL       = time.Hour
	DefaultExchangeTokenTTL = time.Hour
	DefaultVerifyEmailTTL   = 24 * time.Hour
)

type Provider struct {
	db       *sql.DB
	cfg      Config
	hasher   cryptox.Hasher
	signer   *jwtx.Signer
	keys     *jwtx.KeySet
	verifier *jwtx.Verifier

	// dummyHash is verified against when the email is unknown so sign in
	// costs the same either way.
	dummyHash string
}

var _ identity.Provider = (*Provider)(nil)

// Open opens (or creates) the accounts database at dsn and applies its
// migrations.
func Open(dsn string, cfg Config) (*Provider, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("local: open database: %w", err)
	}
	if dsn == ":memory:" || strings.Contains(dsn, "mode=memory") {
		db.SetMaxOpenConns(1)
	}
	if _, err := db.ExecContext(context.Background(), `PRAGMA busy_timeout = 5000;`); err != nil {
		_ = db.Close()
		return nil, err
	}

	p, err := New(db, cfg)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := p.applyMigrations(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("local: migrate: %w", err)
	}
	return p, nil
}

// New wraps an already migrated database.
func New(db *sql.DB, cfg Config) (*Provider, error) {
	if cfg.Issuer == "" {
		return nil, errors.New("local: issuer is required")
	}
	if cfg.IDTokenTTL <= 0 {
		cfg.IDTokenTTL = DefaultIDTokenTTL
	}
	if cfg.ExchangeTokenTTL <= 0 {
		cfg.ExchangeTokenTTL = DefaultExchangeTokenTTL
	}
	if cfg.VerifyEmailTTL <= 0 {
		cfg.VerifyEmailTTL = DefaultVerifyEmailTTL
	}
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return time.Now().UTC() }
	}

	key := cfg.SigningKeyPEM
	if len(key) == 0 {
		generated, err := cryptox.GenerateEd25519Key()
		if err != nil {
			return nil, err
		}
		key = generated
	}

	// The kid is stable for a given key so restarts keep old tokens valid.
	signer, err := jwtx.NewSigner(cryptox.FingerprintToken(string(key))[:16], key)
	if err != nil {
		return nil, fmt.Errorf("local: signing key: %w", err)
	}
	keys := jwtx.NewKeySet()
	if err := keys.AddSigner(signer); err != nil {
		return nil, err
	}

	hasher := cryptox.Hasher{Pepper: cfg.Pepper}
	dummy, err := hasher.Hash("not-a-real-password")
	if err != nil {
		return nil, err
	}

	return &Provider{
		db:     db,
		cfg:    cfg,
		hasher: hasher,
		signer: signer,
		keys:   keys,
		verifier: jwtx.NewVerifier(keys, jwtx.VerifyOptions{
			Issuer: cfg.Issuer,
			Leeway: 30 * time.Second,
			Now:    cfg.Now,
		}),
		dummyHash: dummy,
	}, nil
}

func (p *Provider) Close() error { return p.db.Close() }

func (p *Provider) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

// JWKS returns the public keys tokens are signed with.
func (p *Provider) JWKS() jwtx.JWKS {
	return p.keys.PublicJWKS()
}

// IDTokenTTL is the lifetime of ID tokens issued by sign in and exchange.
func (p *Provider) IDTokenTTL() time.Duration {
	return p.cfg.IDTokenTTL
}
