package notify_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aussiebroadwan/accounts/internal/accounts/domain"
	"github.com/aussiebroadwan/accounts/internal/accounts/notify"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func profileWithCode() domain.Profile {
	return domain.Profile{
		IdentityRef: "01J000000000000000000ALICE",
		Email:       "alice@example.com",
		FullName:    "Alice Example",
		Reset: &domain.ResetCode{
			Code:      "123456",
			ExpiresAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		},
	}
}

func newRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestRedisDispatcherRecoveryCode(t *testing.T) {
	ctx := context.Background()
	rdb := newRedis(t)
	d := notify.NewRedisDispatcher(rdb, "")

	require.NoError(t, d.SendRecoveryCode(ctx, profileWithCode()))

	entries, err := rdb.XRange(ctx, notify.DefaultStream, "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, entries, 1)

	values := entries[0].Values
	require.Equal(t, notify.KindRecoveryCode, values["type"])
	require.Equal(t, "alice@example.com", values["email"])
	require.Equal(t, "Alice Example", values["name"])
	require.Equal(t, "123456", values["code"])
	require.Equal(t, "2026-01-02T03:04:05Z", values["expires_at"])
	require.NotEmpty(t, values["message_id"])
}

func TestRedisDispatcherVerificationLink(t *testing.T) {
	ctx := context.Background()
	rdb := newRedis(t)
	d := notify.NewRedisDispatcher(rdb, "mail")

	require.NoError(t, d.SendVerificationLink(ctx, "alice@example.com", "https://x.test/verify?token=abc"))
	require.NoError(t, d.SendVerificationLink(ctx, "bob@example.com", "https://x.test/verify?token=def"))

	entries, err := rdb.XRange(ctx, "mail", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, notify.KindVerificationLink, entries[0].Values["type"])
	require.Equal(t, "https://x.test/verify?token=abc", entries[0].Values["link"])
	require.Equal(t, "bob@example.com", entries[1].Values["email"])
}

func TestRedisDispatcherErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("profile without code", func(t *testing.T) {
		d := notify.NewRedisDispatcher(newRedis(t), "")
		require.ErrorIs(t, d.SendRecoveryCode(ctx, domain.Profile{Email: "a@b.co"}), notify.ErrNoResetCode)
	})

	t.Run("redis down", func(t *testing.T) {
		mr := miniredis.RunT(t)
		rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { _ = rdb.Close() })
		mr.Close()

		d := notify.NewRedisDispatcher(rdb, "")
		require.Error(t, d.SendVerificationLink(ctx, "a@b.co", "https://x.test"))
	})
}

func TestLogDispatcher(t *testing.T) {
	var buf bytes.Buffer
	d := &notify.LogDispatcher{Logger: slog.New(slog.NewJSONHandler(&buf, nil))}

	require.NoError(t, d.SendRecoveryCode(context.Background(), profileWithCode()))
	require.Contains(t, buf.String(), `"code":"123456"`)
	require.Contains(t, buf.String(), `"email":"alice@example.com"`)

	buf.Reset()
	require.NoError(t, d.SendVerificationLink(context.Background(), "alice@example.com", "https://x.test"))
	require.Contains(t, buf.String(), `"link":"https://x.test"`)

	require.ErrorIs(t, d.SendRecoveryCode(context.Background(), domain.Profile{}), notify.ErrNoResetCode)
}
