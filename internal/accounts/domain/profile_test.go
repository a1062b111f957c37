package domain_test

import (
	"testing"
	"time"

	"github.com/aussiebroadwan/accounts/internal/accounts/domain"
	"github.com/stretchr/testify/require"
)

func TestProfileTFAState(t *testing.T) {
	var p domain.Profile
	require.Equal(t, domain.TFANotEnrolled, p.TFAState())

	p.TFASecret = "v1.a.b.c"
	require.Equal(t, domain.TFAPendingConfirmation, p.TFAState())

	p.TFAEnabled = true
	require.Equal(t, domain.TFAEnabled, p.TFAState())
	require.Equal(t, "enabled", p.TFAState().String())
}

func TestResetCodeExpired(t *testing.T) {
	now := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	code := domain.ResetCode{Code: "123456", ExpiresAt: now.Add(time.Hour)}

	require.False(t, code.Expired(now))
	require.False(t, code.Expired(now.Add(59*time.Minute)))
	require.True(t, code.Expired(now.Add(time.Hour)))
	require.True(t, code.Expired(now.Add(2*time.Hour)))
}

func TestNormalize(t *testing.T) {
	require.Equal(t, "alice@example.com", domain.NormalizeEmail("  Alice@Example.COM "))
	require.Equal(t, "alice", domain.NormalizeUsername(" ALICE"))
}
