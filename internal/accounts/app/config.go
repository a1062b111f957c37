package app

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/aussiebroadwan/accounts/pkg/httpx"
	"github.com/caarlos0/env/v11"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverLocal    = "local"
	DriverLog      = "log"
	DriverRedis    = "redis"
)

type Config struct {
	Env                 string        `env:"ENV" envDefault:"dev"`
	LogLevel            string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat           string        `env:"LOG_FORMAT" envDefault:"json"`
	Port                int           `env:"PORT" envDefault:"8080"`
	ShutdownGracePeriod time.Duration `env:"SHUTDOWN_GRACE_PERIOD" envDefault:"10s"`

	// AppName labels TOTP entries in authenticator apps.
	AppName string `env:"APP_NAME" envDefault:"Accounts"`

	TFA          TFAConfig          `envPrefix:"TFA_"`
	ProfileStore ProfileStoreConfig `envPrefix:"PROFILE_STORE_"`
	IDP          IDPConfig          `envPrefix:"IDP_"`
	Notify       NotifyConfig       `envPrefix:"NOTIFY_"`

	OrphanReconcileInterval time.Duration `env:"ORPHAN_RECONCILE_INTERVAL" envDefault:"15m"`
	OTelEndpoint            string        `env:"OTEL_ENDPOINT"`

	RateLimits httpx.RateLimits `envPrefix:"RATELIMIT_"`
}

type TFAConfig struct {
	// EncryptionKey wins over EncryptionKeyFile. With neither, secrets are
	// stored in plaintext.
	EncryptionKey     string `env:"ENCRYPTION_KEY"`
	EncryptionKeyFile string `env:"ENCRYPTION_KEY_FILE"`

	// ExposeSecret returns the raw secret from /auth/tfa/generate. Dev only.
	ExposeSecret bool `env:"EXPOSE_SECRET"`
}

type ProfileStoreConfig struct {
	Driver      string `env:"DRIVER" envDefault:"sqlite"`
	SQLiteFile  string `env:"SQLITE_FILE" envDefault:"accounts.db"`
	PostgresDSN string `env:"POSTGRES_DSN"`
}

type IDPConfig struct {
	Driver           string        `env:"DRIVER" envDefault:"local"`
	Issuer           string        `env:"ISSUER" envDefault:"http://localhost:8080"`
	DatabaseFile     string        `env:"DATABASE_FILE" envDefault:"idp.db"`
	PepperFile       string        `env:"PEPPER_FILE" envDefault:"pepper"`
	SigningKeyFile   string        `env:"SIGNING_KEY_FILE" envDefault:"idp_signing_key.pem"`
	VerifyEmailURL   string        `env:"VERIFY_EMAIL_URL" envDefault:"http://localhost:8080/idp/v1/verify-email"`
	IDTokenTTL       time.Duration `env:"ID_TOKEN_TTL" envDefault:"1h"`
	ExchangeTokenTTL time.Duration `env:"EXCHANGE_TOKEN_TTL" envDefault:"1h"`
}

type NotifyConfig struct {
	Driver      string `env:"DRIVER" envDefault:"log"`
	RedisAddr   string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisStream string `env:"REDIS_STREAM" envDefault:"accounts:notifications"`
}

// LoadConfig reads the environment. Rate limits start from the built-in
// profiles and only the variables that are set override them.
func LoadConfig() (Config, error) {
	cfg := Config{RateLimits: httpx.DefaultRateLimits()}
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error

	switch c.ProfileStore.Driver {
	case DriverSQLite:
	case DriverPostgres:
		if c.ProfileStore.PostgresDSN == "" {
			errs = append(errs, errors.New("PROFILE_STORE_POSTGRES_DSN is required for the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown PROFILE_STORE_DRIVER %q", c.ProfileStore.Driver))
	}

	if c.IDP.Driver != DriverLocal {
		errs = append(errs, fmt.Errorf("unknown IDP_DRIVER %q", c.IDP.Driver))
	}
	if c.IDP.Issuer == "" {
		errs = append(errs, errors.New("IDP_ISSUER is required"))
	}

	if _, err := httpx.ParseTrustedProxies(c.RateLimits.TrustedProxies); err != nil {
		errs = append(errs, fmt.Errorf("RATELIMIT_TRUSTED_PROXIES: %w", err))
	}

	switch c.Notify.Driver {
	case DriverLog, DriverRedis:
	default:
		errs = append(errs, fmt.Errorf("unknown NOTIFY_DRIVER %q", c.Notify.Driver))
	}

	return errors.Join(errs...)
}

// TFAKey returns the configured cipher key material, or nil when TFA secrets
// are left unencrypted.
func (c Config) TFAKey() ([]byte, error) {
	if c.TFA.EncryptionKey != "" {
		return []byte(c.TFA.EncryptionKey), nil
	}
	if c.TFA.EncryptionKeyFile == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(c.TFA.EncryptionKeyFile)
	if err != nil {
		return nil, fmt.Errorf("read TFA_ENCRYPTION_KEY_FILE: %w", err)
	}
	return []byte(strings.TrimSpace(string(raw))), nil
}
