package service

import (
	"context"
	"testing"

	"github.com/aussiebroadwan/accounts/internal/accounts/domain"
	"github.com/stretchr/testify/require"
)

func newProfileService(t *testing.T) (*ProfileService, *fakeProvider, *fakeDispatcher) {
	t.Helper()
	st := newTestStore(t)
	require.NoError(t, st.Profiles().Insert(context.Background(), domain.Profile{
		IdentityRef: "acct-alice",
		Email:       "alice@example.com",
		Username:    "alice",
		FullName:    "Alice Example",
		Phone:       "+61400000000",
	}))

	provider := newFakeProvider()
	provider.addAccount("acct-alice", "alice@example.com", "Alice")
	dispatcher := &fakeDispatcher{}

	return &ProfileService{Store: st, Provider: provider, Dispatcher: dispatcher}, provider, dispatcher
}

func TestVerifyToken(t *testing.T) {
	svc, provider, _ := newProfileService(t)

	got, err := svc.VerifyToken(context.Background(), bearerFor("acct-alice"))
	require.NoError(t, err)
	require.Equal(t, TokenProfile{
		IdentityRef: "acct-alice",
		Email:       "alice@example.com",
		Phone:       "+61400000000",
		Name:        "Alice",
		Username:    "alice",
	}, got)

	_, err = svc.VerifyToken(context.Background(), "garbage")
	require.ErrorIs(t, err, ErrUnauthorized)

	provider.addAccount("acct-ghost", "ghost@example.com", "")
	_, err = svc.VerifyToken(context.Background(), bearerFor("acct-ghost"))
	require.ErrorIs(t, err, ErrNotFound)
}

func TestVerifyTokenFallsBackToProfileName(t *testing.T) {
	svc, provider, _ := newProfileService(t)
	provider.addAccount("acct-alice", "alice@example.com", "")

	got, err := svc.VerifyToken(context.Background(), bearerFor("acct-alice"))
	require.NoError(t, err)
	require.Equal(t, "Alice Example", got.Name)
}

func TestSendEmailVerification(t *testing.T) {
	svc, _, dispatcher := newProfileService(t)

	known, err := svc.SendEmailVerification(context.Background(), " Alice@Example.com")
	require.NoError(t, err)
	unknown, err := svc.SendEmailVerification(context.Background(), "nobody@example.com")
	require.NoError(t, err)

	require.Equal(t, VerificationSentMessage, known)
	require.Equal(t, known, unknown)
	require.Equal(t, []sentLink{{"alice@example.com", "https://idp.test/verify?token=acct-alice"}}, dispatcher.links)
}

func TestSendEmailVerificationFailures(t *testing.T) {
	svc, provider, dispatcher := newProfileService(t)

	_, err := svc.SendEmailVerification(context.Background(), "")
	requireKind(t, err, KindInvalidInput)

	dispatcher.err = errBoom
	_, err = svc.SendEmailVerification(context.Background(), "alice@example.com")
	requireKind(t, err, KindInternal)

	dispatcher.err = nil
	provider.linkErr = errBoom
	_, err = svc.SendEmailVerification(context.Background(), "alice@example.com")
	requireKind(t, err, KindInternal)
}
