package service

import (
	"context"
	"testing"
	"time"

	"github.com/aussiebroadwan/accounts/internal/accounts/domain"
	"github.com/aussiebroadwan/accounts/internal/accounts/identity"
	"github.com/aussiebroadwan/accounts/pkg/slogx"
	"github.com/stretchr/testify/require"
)

// flakyDeleteProvider fails deletes for one account only.
type flakyDeleteProvider struct {
	*fakeProvider
	failFor string
}

func (p *flakyDeleteProvider) DeleteAccount(ctx context.Context, id string) error {
	if id == p.failFor {
		return errBoom
	}
	return p.fakeProvider.DeleteAccount(ctx, id)
}

func recordOrphan(t *testing.T, r *OrphanReconciler, id, ref string, age time.Duration) {
	t.Helper()
	require.NoError(t, r.Store.Orphans().Record(context.Background(), domain.Orphan{
		ID:          id,
		IdentityRef: ref,
		Email:       ref + "@example.com",
		Reason:      "undo create_account: provider unavailable",
		CreatedAt:   testNow.Add(-age),
	}))
}

func TestOrphanReconcilerRunOnce(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	provider := &flakyDeleteProvider{fakeProvider: newFakeProvider(), failFor: "acct-stuck"}
	r := NewOrphanReconciler(st, provider, slogx.Discard(), time.Minute)

	// Deletable now.
	provider.addAccount("acct-orphan", "orphan@example.com", "")
	recordOrphan(t, r, "o1", "acct-orphan", 4*time.Hour)
	// Already gone from the provider.
	recordOrphan(t, r, "o2", "acct-gone", 3*time.Hour)
	// The profile did get written, so the account must stay.
	provider.addAccount("acct-kept", "kept@example.com", "")
	seedProfile(t, st, "acct-kept", "kept@example.com", "kept")
	recordOrphan(t, r, "o3", "acct-kept", 2*time.Hour)
	// Still failing.
	provider.addAccount("acct-stuck", "stuck@example.com", "")
	recordOrphan(t, r, "o4", "acct-stuck", time.Hour)

	resolved, err := r.RunOnce(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, resolved)

	require.False(t, provider.has("acct-orphan"))
	require.True(t, provider.has("acct-kept"))
	require.True(t, provider.has("acct-stuck"))

	remaining, err := st.Orphans().ListUnresolved(ctx, 10)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	require.Equal(t, "o4", remaining[0].ID)
	require.Equal(t, 1, remaining[0].Attempts)
	require.Contains(t, remaining[0].LastError, "boom")

	// A second pass retries the stuck one and leaves the rest alone.
	resolved, err = r.RunOnce(ctx)
	require.NoError(t, err)
	require.Zero(t, resolved)

	remaining, err = st.Orphans().ListUnresolved(ctx, 10)
	require.NoError(t, err)
	require.Equal(t, 2, remaining[0].Attempts)
}

func TestOrphanReconcilerStartStop(t *testing.T) {
	st := newTestStore(t)
	provider := newFakeProvider()
	r := NewOrphanReconciler(st, provider, slogx.Discard(), time.Hour)

	provider.addAccount("acct-orphan", "orphan@example.com", "")
	recordOrphan(t, r, "o1", "acct-orphan", time.Hour)

	// Start runs a pass immediately.
	r.Start()
	require.Eventually(t, func() bool {
		return !provider.has("acct-orphan")
	}, 2*time.Second, 10*time.Millisecond)
	r.Stop()

	remaining, err := st.Orphans().ListUnresolved(context.Background(), 10)
	require.NoError(t, err)
	require.Empty(t, remaining)
}

func TestOrphanReconcilerStopIsIdempotent(t *testing.T) {
	t.Run("without start", func(t *testing.T) {
		r := NewOrphanReconciler(newTestStore(t), newFakeProvider(), slogx.Discard(), time.Hour)
		stopped := make(chan struct{})
		go func() {
			r.Stop()
			r.Stop()
			close(stopped)
		}()
		select {
		case <-stopped:
		case <-time.After(5 * time.Second):
			t.Fatal("Stop blocked without Start")
		}

		// Start after Stop stays stopped.
		r.Start()
		r.Stop()
	})

	t.Run("after start", func(t *testing.T) {
		r := NewOrphanReconciler(newTestStore(t), newFakeProvider(), slogx.Discard(), time.Hour)
		r.Start()
		r.Start()
		require.NotPanics(t, func() {
			r.Stop()
			r.Stop()
		})
	})
}

func TestNewOrphanReconcilerDefaultInterval(t *testing.T) {
	r := NewOrphanReconciler(newTestStore(t), newFakeProvider(), slogx.Discard(), 0)
	require.Equal(t, 15*time.Minute, r.Interval)
}

var _ identity.Provider = (*flakyDeleteProvider)(nil)
