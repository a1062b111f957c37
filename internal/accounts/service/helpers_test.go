package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/accounts/internal/accounts/domain"
	"github.com/aussiebroadwan/accounts/internal/accounts/identity"
	"github.com/aussiebroadwan/accounts/internal/accounts/store"
	"github.com/aussiebroadwan/accounts/internal/accounts/store/drivers/sqlite"
	"github.com/aussiebroadwan/accounts/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, s.ApplyMigrations())
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newTestCipher(t *testing.T) *cryptox.SecretCipher {
	t.Helper()
	c, err := cryptox.NewSecretCipher([]byte("test-tfa-key"))
	require.NoError(t, err)
	return c
}

// seedProfile inserts a profile directly, bypassing registration.
func seedProfile(t *testing.T, st store.ProfileStore, ref, email, username string) domain.Profile {
	t.Helper()
	p := domain.Profile{
		IdentityRef: ref,
		Email:       email,
		Username:    username,
		FullName:    strings.ToUpper(username[:1]) + username[1:],
		Role:        domain.DefaultRole,
	}
	require.NoError(t, st.Profiles().Insert(context.Background(), p))
	return p
}

func mustProfile(t *testing.T, st store.ProfileStore, ref string) domain.Profile {
	t.Helper()
	p, err := st.Profiles().FindByIdentityRef(context.Background(), ref)
	require.NoError(t, err)
	return p
}

// fakeProvider is an in-memory identity.Provider. Bearer tokens are
// "bearer:<id>" and exchange tokens "exchange:<id>".
type fakeProvider struct {
	mu       sync.Mutex
	accounts map[string]identity.Account
	password map[string]string
	seq      int

	createErr   error
	deleteErr   error
	updateErr   error
	exchangeErr error
	linkErr     error

	creates int
	deletes []string
}

var _ identity.Provider = (*fakeProvider)(nil)

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		accounts: make(map[string]identity.Account),
		password: make(map[string]string),
	}
}

func bearerFor(id string) string { return "bearer:" + id }

// addAccount registers an account without going through CreateAccount.
func (f *fakeProvider) addAccount(id, email, name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accounts[id] = identity.Account{ID: id, Email: email, DisplayName: name}
}

func (f *fakeProvider) has(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.accounts[id]
	return ok
}

func (f *fakeProvider) CreateAccount(_ context.Context, email, password, displayName string) (identity.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	if f.createErr != nil {
		return identity.Account{}, f.createErr
	}
	for _, a := range f.accounts {
		if a.Email == email {
			return identity.Account{}, identity.ErrEmailExists
		}
	}
	f.seq++
	acct := identity.Account{ID: fmt.Sprintf("acct-%d", f.seq), Email: email, DisplayName: displayName}
	f.accounts[acct.ID] = acct
	f.password[acct.ID] = password
	return acct, nil
}

func (f *fakeProvider) DeleteAccount(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, id)
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if _, ok := f.accounts[id]; !ok {
		return identity.ErrAccountNotFound
	}
	delete(f.accounts, id)
	return nil
}

func (f *fakeProvider) UpdateCredential(_ context.Context, id string, u identity.CredentialUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	if _, ok := f.accounts[id]; !ok {
		return identity.ErrAccountNotFound
	}
	f.password[id] = u.Password
	return nil
}

func (f *fakeProvider) VerifyBearerToken(_ context.Context, token string) (identity.Claims, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := strings.CutPrefix(token, "bearer:")
	acct, exists := f.accounts[id]
	if !ok || !exists {
		return identity.Claims{}, identity.ErrInvalidToken
	}
	return identity.Claims{Subject: acct.ID, Email: acct.Email, EmailVerified: acct.EmailVerified, Name: acct.DisplayName}, nil
}

func (f *fakeProvider) IssueExchangeToken(_ context.Context, id string) (string, error) {
	if f.exchangeErr != nil {
		return "", f.exchangeErr
	}
	return "exchange:" + id, nil
}

func (f *fakeProvider) GenerateEmailVerificationLink(_ context.Context, email string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.linkErr != nil {
		return "", f.linkErr
	}
	for _, a := range f.accounts {
		if a.Email == email {
			return "https://idp.test/verify?token=" + a.ID, nil
		}
	}
	return "", identity.ErrAccountNotFound
}

type sentLink struct{ email, link string }

type fakeDispatcher struct {
	mu    sync.Mutex
	codes []domain.Profile
	links []sentLink
	err   error
}

func (d *fakeDispatcher) SendRecoveryCode(_ context.Context, p domain.Profile) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.codes = append(d.codes, p)
	return nil
}

func (d *fakeDispatcher) SendVerificationLink(_ context.Context, email, link string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.links = append(d.links, sentLink{email, link})
	return nil
}

// faultyStore wraps a real store and fails selected calls.
type faultyStore struct {
	store.ProfileStore
	insertErr error
	findErr   error
	recordErr error
}

func (s *faultyStore) Profiles() store.Profiles {
	return &faultyProfiles{Profiles: s.ProfileStore.Profiles(), s: s}
}

func (s *faultyStore) Orphans() store.Orphans {
	return &faultyOrphans{Orphans: s.ProfileStore.Orphans(), s: s}
}

type faultyProfiles struct {
	store.Profiles
	s *faultyStore
}

func (p *faultyProfiles) Insert(ctx context.Context, profile domain.Profile) error {
	if p.s.insertErr != nil {
		return p.s.insertErr
	}
	return p.Profiles.Insert(ctx, profile)
}

func (p *faultyProfiles) FindByIdentityRef(ctx context.Context, ref string) (domain.Profile, error) {
	if p.s.findErr != nil {
		return domain.Profile{}, p.s.findErr
	}
	return p.Profiles.FindByIdentityRef(ctx, ref)
}

func (p *faultyProfiles) FindByEmail(ctx context.Context, email string) (domain.Profile, error) {
	if p.s.findErr != nil {
		return domain.Profile{}, p.s.findErr
	}
	return p.Profiles.FindByEmail(ctx, email)
}

type faultyOrphans struct {
	store.Orphans
	s *faultyStore
}

func (o *faultyOrphans) Record(ctx context.Context, orphan domain.Orphan) error {
	if o.s.recordErr != nil {
		return o.s.recordErr
	}
	return o.Orphans.Record(ctx, orphan)
}

var errBoom = errors.New("boom")

func requireKind(t *testing.T, err error, kind Kind) *Error {
	t.Helper()
	var svcErr *Error
	require.ErrorAs(t, err, &svcErr)
	require.Equal(t, kind, svcErr.Kind, "error: %v", err)
	return svcErr
}
