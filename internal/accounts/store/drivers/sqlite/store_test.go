package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aussiebroadwan/accounts/internal/accounts/domain"
	"github.com/aussiebroadwan/accounts/internal/accounts/store"
	"github.com/aussiebroadwan/accounts/internal/accounts/store/drivers/sqlite"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, s.ApplyMigrations())
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func alice() domain.Profile {
	return domain.Profile{
		IdentityRef: "01J000000000000000000ALICE",
		Email:       "alice@example.com",
		Username:    "alice",
		FullName:    "Alice Example",
		Phone:       "+61400000000",
	}
}

func TestApplyMigrationsIsIdempotent(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.ApplyMigrations())
	require.NoError(t, s.Ping(context.Background()))
}

func TestProfileInsertAndFind(t *testing.T) {
	ctx := context.Background()
	profiles := newStore(t).Profiles()

	require.NoError(t, profiles.Insert(ctx, alice()))

	got, err := profiles.FindByIdentityRef(ctx, alice().IdentityRef)
	require.NoError(t, err)
	require.Equal(t, "alice@example.com", got.Email)
	require.Equal(t, "alice", got.Username)
	require.Equal(t, "Alice Example", got.FullName)
	require.Equal(t, "+61400000000", got.Phone)
	require.Equal(t, domain.DefaultRole, got.Role)
	require.Nil(t, got.Reset)
	require.Empty(t, got.TFASecret)
	require.False(t, got.TFAEnabled)
	require.False(t, got.CreatedAt.IsZero())

	byEmail, err := profiles.FindByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	require.Equal(t, got.IdentityRef, byEmail.IdentityRef)

	exists, err := profiles.ExistsByUsername(ctx, "alice")
	require.NoError(t, err)
	require.True(t, exists)

	exists, err = profiles.ExistsByUsername(ctx, "bob")
	require.NoError(t, err)
	require.False(t, exists)
}

func TestProfileFindMissing(t *testing.T) {
	ctx := context.Background()
	profiles := newStore(t).Profiles()

	_, err := profiles.FindByIdentityRef(ctx, "nope")
	require.ErrorIs(t, err, store.ErrNotFound)

	_, err = profiles.FindByEmail(ctx, "nope@example.com")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestProfileInsertDuplicates(t *testing.T) {
	ctx := context.Background()
	profiles := newStore(t).Profiles()
	require.NoError(t, profiles.Insert(ctx, alice()))

	tests := []struct {
		name  string
		edit  func(*domain.Profile)
		field string
	}{
		{"same identity ref", func(p *domain.Profile) { p.Email, p.Username = "other@example.com", "other" }, "identity_ref"},
		{"same email", func(p *domain.Profile) { p.IdentityRef, p.Username = "ref-2", "other" }, "email"},
		{"same username", func(p *domain.Profile) { p.IdentityRef, p.Email = "ref-3", "other@example.com" }, "username"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := alice()
			tt.edit(&p)

			err := profiles.Insert(ctx, p)
			require.ErrorIs(t, err, store.ErrAlreadyExists)

			var dup *store.DuplicateError
			require.True(t, errors.As(err, &dup))
			require.Equal(t, tt.field, dup.Field)
		})
	}
}

func TestProfileUpdateReset(t *testing.T) {
	ctx := context.Background()
	profiles := newStore(t).Profiles()
	require.NoError(t, profiles.Insert(ctx, alice()))

	expiry := time.Now().UTC().Add(time.Hour).Truncate(time.Second)
	require.NoError(t, profiles.UpdateByIdentityRef(ctx, alice().IdentityRef, store.ProfileUpdate{
		Reset: &domain.ResetCode{Code: "123456", ExpiresAt: expiry},
	}))

	got, err := profiles.FindByIdentityRef(ctx, alice().IdentityRef)
	require.NoError(t, err)
	require.NotNil(t, got.Reset)
	require.Equal(t, "123456", got.Reset.Code)
	require.True(t, expiry.Equal(got.Reset.ExpiresAt), "want %v got %v", expiry, got.Reset.ExpiresAt)

	require.NoError(t, profiles.UpdateByIdentityRef(ctx, alice().IdentityRef, store.ProfileUpdate{ClearReset: true}))

	got, err = profiles.FindByIdentityRef(ctx, alice().IdentityRef)
	require.NoError(t, err)
	require.Nil(t, got.Reset)
}

func TestProfileUpdateTFA(t *testing.T) {
	ctx := context.Background()
	profiles := newStore(t).Profiles()
	require.NoError(t, profiles.Insert(ctx, alice()))

	enabled := true
	secret := "v1.nonce.tag.ct"

	t.Run("enabling without a secret violates the check", func(t *testing.T) {
		err := profiles.UpdateByIdentityRef(ctx, alice().IdentityRef, store.ProfileUpdate{TFAEnabled: &enabled})
		require.Error(t, err)
	})

	require.NoError(t, profiles.UpdateByIdentityRef(ctx, alice().IdentityRef, store.ProfileUpdate{TFASecret: &secret}))
	got, err := profiles.FindByIdentityRef(ctx, alice().IdentityRef)
	require.NoError(t, err)
	require.Equal(t, domain.TFAPendingConfirmation, got.TFAState())

	require.NoError(t, profiles.UpdateByIdentityRef(ctx, alice().IdentityRef, store.ProfileUpdate{TFAEnabled: &enabled}))
	got, err = profiles.FindByIdentityRef(ctx, alice().IdentityRef)
	require.NoError(t, err)
	require.Equal(t, domain.TFAEnabled, got.TFAState())
	require.Equal(t, secret, got.TFASecret)
}

func TestProfileUpdateMissing(t *testing.T) {
	secret := "s"
	err := newStore(t).Profiles().UpdateByIdentityRef(context.Background(), "nope", store.ProfileUpdate{TFASecret: &secret})
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestOrphanLedger(t *testing.T) {
	ctx := context.Background()
	orphans := newStore(t).Orphans()
	base := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

	for i, ref := range []string{"ref-a", "ref-b"} {
		require.NoError(t, orphans.Record(ctx, domain.Orphan{
			ID:          "orphan-" + ref,
			IdentityRef: ref,
			Email:       ref + "@example.com",
			Reason:      "profile insert failed",
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
		}))
	}

	list, err := orphans.ListUnresolved(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "ref-a", list[0].IdentityRef)
	require.Zero(t, list[0].Attempts)

	require.NoError(t, orphans.MarkAttempt(ctx, "orphan-ref-a", "provider unavailable"))
	require.NoError(t, orphans.MarkAttempt(ctx, "orphan-ref-a", "provider unavailable again"))
	require.NoError(t, orphans.Resolve(ctx, "orphan-ref-b", base.Add(time.Hour)))

	list, err = orphans.ListUnresolved(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, 2, list[0].Attempts)
	require.Equal(t, "provider unavailable again", list[0].LastError)

	require.ErrorIs(t, orphans.Resolve(ctx, "orphan-ref-b", base), store.ErrNotFound)
	require.ErrorIs(t, orphans.MarkAttempt(ctx, "missing", "x"), store.ErrNotFound)

	list, err = orphans.ListUnresolved(ctx, 0)
	require.NoError(t, err)
	require.Empty(t, list)
}
