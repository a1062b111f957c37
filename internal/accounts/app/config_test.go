package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aussiebroadwan/accounts/pkg/httpx"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	require.Equal(t, 8080, cfg.Port)
	require.Equal(t, DriverSQLite, cfg.ProfileStore.Driver)
	require.Equal(t, DriverLocal, cfg.IDP.Driver)
	require.Equal(t, DriverLog, cfg.Notify.Driver)
	require.Equal(t, 15*time.Minute, cfg.OrphanReconcileInterval)
	require.Equal(t, httpx.DefaultRateLimits(), cfg.RateLimits)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("PROFILE_STORE_DRIVER", "postgres")
	t.Setenv("PROFILE_STORE_POSTGRES_DSN", "postgres://accounts@db/accounts")
	t.Setenv("NOTIFY_DRIVER", "redis")
	t.Setenv("IDP_ID_TOKEN_TTL", "15m")
	t.Setenv("RATELIMIT_STRICT_REQUESTS", "2")
	t.Setenv("RATELIMIT_TRUSTED_PROXIES", "10.0.0.0/8,192.168.1.1")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	require.Equal(t, 9090, cfg.Port)
	require.Equal(t, DriverPostgres, cfg.ProfileStore.Driver)
	require.Equal(t, DriverRedis, cfg.Notify.Driver)
	require.Equal(t, 15*time.Minute, cfg.IDP.IDTokenTTL)
	require.Equal(t, 2, cfg.RateLimits.Strict.RequestsPerWindow)
	require.Equal(t, []string{"10.0.0.0/8", "192.168.1.1"}, cfg.RateLimits.TrustedProxies)
	// Unset fields of the same profile keep their defaults.
	require.Equal(t, httpx.DefaultRateLimits().Strict.Window, cfg.RateLimits.Strict.Window)
}

func TestLoadConfigRejects(t *testing.T) {
	t.Run("postgres without dsn", func(t *testing.T) {
		t.Setenv("PROFILE_STORE_DRIVER", "postgres")
		_, err := LoadConfig()
		require.ErrorContains(t, err, "PROFILE_STORE_POSTGRES_DSN")
	})

	t.Run("unknown drivers", func(t *testing.T) {
		t.Setenv("PROFILE_STORE_DRIVER", "mongo")
		t.Setenv("NOTIFY_DRIVER", "smtp")
		_, err := LoadConfig()
		require.ErrorContains(t, err, "PROFILE_STORE_DRIVER")
		require.ErrorContains(t, err, "NOTIFY_DRIVER")
	})

	t.Run("bad trusted proxy", func(t *testing.T) {
		t.Setenv("RATELIMIT_TRUSTED_PROXIES", "proxy.internal")
		_, err := LoadConfig()
		require.ErrorContains(t, err, "RATELIMIT_TRUSTED_PROXIES")
	})

	t.Run("bad duration", func(t *testing.T) {
		t.Setenv("SHUTDOWN_GRACE_PERIOD", "soon")
		_, err := LoadConfig()
		require.Error(t, err)
	})
}

func TestTFAKey(t *testing.T) {
	key, err := Config{}.TFAKey()
	require.NoError(t, err)
	require.Nil(t, key)

	path := filepath.Join(t.TempDir(), "tfa.key")
	require.NoError(t, os.WriteFile(path, []byte("from-file\n"), 0o600))

	key, err = Config{TFA: TFAConfig{EncryptionKeyFile: path}}.TFAKey()
	require.NoError(t, err)
	require.Equal(t, []byte("from-file"), key)

	key, err = Config{TFA: TFAConfig{EncryptionKey: "inline", EncryptionKeyFile: path}}.TFAKey()
	require.NoError(t, err)
	require.Equal(t, []byte("inline"), key)

	_, err = Config{TFA: TFAConfig{EncryptionKeyFile: filepath.Join(t.TempDir(), "missing")}}.TFAKey()
	require.Error(t, err)
}
