package auth

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	admindom "sripavan/internal/domain/admin"
	"sripavan/internal/domain/notification"
	userdom "sripavan/internal/domain/user"
)

const (
	adminEmail    = "admin@sripavancomputers.in"
	bootstrapPass = "bootstrap-secret"
	regularEmail  = "ravi@example.com"
	regularPass   = "hunter22"
)

type harness struct {
	m        *Manager
	provider *fakeProvider
	users    *fakeUsers
	admins   *fakeAdmins
	notes    *recordingNotifier
	store    *memStore
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		provider: newFakeProvider(),
		users:    newFakeUsers(),
		admins:   newFakeAdmins(),
		notes:    &recordingNotifier{},
		store:    newMemStore(),
	}
	h.m = h.build(t)
	return h
}

func (h *harness) build(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(Deps{
		Provider: h.provider,
		Users:    h.users,
		Admins:   h.admins,
		Notifier: h.notes,
		Store:    h.store,
		Policy:   AdminPolicy{Email: adminEmail, Credential: PlainCredential(bootstrapPass)},
	}, WithClock(fixedClock{t: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)}))
	require.NoError(t, err)
	m.Start(context.Background())
	t.Cleanup(m.Close)
	return m
}

// seedAdmin registers an existing admin account, record and index entry.
func (h *harness) seedAdmin(t *testing.T, uid, password string) {
	t.Helper()
	h.provider.addAccount(uid, adminEmail, password)
	u, err := userdom.New(uid, strPtr(adminEmail), nil, nil, true, time.Now())
	require.NoError(t, err)
	require.NoError(t, h.users.Create(context.Background(), u))
	e, err := admindom.NewEntry(uid, adminEmail, time.Now())
	require.NoError(t, err)
	require.NoError(t, h.admins.Add(context.Background(), e))
}

func TestNewManager_RequiresPolicy(t *testing.T) {
	_, err := NewManager(Deps{
		Provider: newFakeProvider(),
		Users:    newFakeUsers(),
		Admins:   newFakeAdmins(),
	})
	require.ErrorIs(t, err, ErrAdminPolicyNotConfigured)
}

func TestStart_AnonymousWhenNoPersistedSession(t *testing.T) {
	h := newHarness(t)

	assert.False(t, h.m.Loading())
	assert.Equal(t, StateAnonymous, h.m.State())
	assert.Nil(t, h.m.Current())
}

func TestStart_RestoreFailureDegradesToAnonymous(t *testing.T) {
	h := newHarness(t)
	h.provider.restoreErr = errBoom

	m := h.build(t)
	assert.False(t, m.Loading())
	assert.Equal(t, StateAnonymous, m.State())
}

func TestStart_PublishesLoadingThenResolved(t *testing.T) {
	h := newHarness(t)
	m, err := NewManager(Deps{
		Provider: h.provider,
		Users:    h.users,
		Admins:   h.admins,
		Policy:   AdminPolicy{Email: adminEmail, Credential: PlainCredential(bootstrapPass)},
	})
	require.NoError(t, err)
	assert.Equal(t, StateUninitialized, m.State())
	assert.True(t, m.Loading())

	var states []State
	m.Subscribe(func(s Snapshot) { states = append(states, s.State) })
	m.Start(context.Background())

	assert.Equal(t, []State{StateLoading, StateAnonymous}, states)
}

func TestSignUp_ReservedEmailMakesNoProviderCall(t *testing.T) {
	h := newHarness(t)

	err := h.m.SignUp(context.Background(), "  ADMIN@SriPavanComputers.in ", "whatever1", "Boss")

	require.ErrorIs(t, err, ErrReservedIdentity)
	assert.Equal(t, 0, h.provider.createCalls)
	assert.Nil(t, h.m.Current())
	assert.Equal(t, notification.SeverityError, h.notes.last().Severity)
}

func TestSignUp_CreatesRegularRecord(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.m.SignUp(context.Background(), regularEmail, regularPass, "Ravi"))

	cur := h.m.Current()
	require.NotNil(t, cur)
	assert.Equal(t, StateAuthenticatedRegular, h.m.State())
	assert.False(t, h.m.AdminMode())

	rec, ok := h.users.get(cur.UID)
	require.True(t, ok)
	assert.Equal(t, regularEmail, rec.EmailValue())
	require.NotNil(t, rec.DisplayName)
	assert.Equal(t, "Ravi", *rec.DisplayName)
	assert.Nil(t, rec.PhotoURL)
	assert.False(t, rec.IsAdmin)
	assert.False(t, rec.CreatedAt.IsZero())

	assert.Equal(t, notification.SeveritySuccess, h.notes.last().Severity)
}

func TestSignUp_DuplicateEmail(t *testing.T) {
	h := newHarness(t)
	h.provider.addAccount("u1", regularEmail, regularPass)

	err := h.m.SignUp(context.Background(), regularEmail, "another1", "Ravi")

	require.ErrorIs(t, err, ErrDuplicateEmail)
	assert.Nil(t, h.m.Current())
	assert.Contains(t, h.notes.last().Description, "already registered")
}

func TestSignUp_StoreFailureKeepsDetailOutOfNotification(t *testing.T) {
	h := newHarness(t)
	h.users.createErr = errors.New("rpc error: code = Unavailable desc = connection refused")

	err := h.m.SignUp(context.Background(), regularEmail, regularPass, "Ravi")

	require.Error(t, err)
	assert.Nil(t, h.m.Current())
	note := h.notes.last()
	assert.Equal(t, notification.SeverityError, note.Severity)
	assert.Equal(t, GenericErrorMessage, note.Description)
	assert.NotContains(t, note.Description, "rpc error")
}

func TestDescribe(t *testing.T) {
	assert.Empty(t, Describe(nil))
	assert.Contains(t, Describe(ErrDuplicateEmail), "already registered")
	assert.Contains(t, Describe(fmt.Errorf("wrapped: %w", ErrTooManyAttempts)), "Too many")
	assert.Equal(t, GenericErrorMessage, Describe(errors.New("auth: create user record: boom")))
}

func TestSignIn_RegularAdminRecordLeavesAdminModeOff(t *testing.T) {
	h := newHarness(t)
	h.seedAdmin(t, "admin-1", "real-pass")

	u, err := h.m.SignIn(context.Background(), adminEmail, "real-pass", false)

	require.NoError(t, err)
	assert.True(t, u.IsAdmin)
	assert.False(t, h.m.AdminMode())
	assert.Equal(t, StateAuthenticatedRegular, h.m.State())
}

func TestSignIn_BadPasswordAndUnknownEmailMapToInvalidCredentials(t *testing.T) {
	h := newHarness(t)
	h.provider.addAccount("u1", regularEmail, regularPass)

	_, err := h.m.SignIn(context.Background(), regularEmail, "wrong", false)
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = h.m.SignIn(context.Background(), "nobody@example.com", "wrong", false)
	require.ErrorIs(t, err, ErrInvalidCredentials)

	assert.Nil(t, h.m.Current())
}

func TestSignIn_ProviderErrorsMapped(t *testing.T) {
	cases := []struct {
		code string
		want error
	}{
		{CodeTooManyRequests, ErrTooManyAttempts},
		{CodeDisabledAccount, ErrDisabledAccount},
	}
	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			h := newHarness(t)
			h.provider.authErr = &ProviderError{Code: tc.code}

			_, err := h.m.SignIn(context.Background(), regularEmail, regularPass, false)
			require.ErrorIs(t, err, tc.want)
		})
	}

	t.Run("unmapped", func(t *testing.T) {
		h := newHarness(t)
		h.provider.authErr = &ProviderError{Code: "network-request-failed"}

		_, err := h.m.SignIn(context.Background(), regularEmail, regularPass, false)
		var unmapped *UnmappedProviderError
		require.ErrorAs(t, err, &unmapped)
		assert.Equal(t, "network-request-failed", unmapped.Code)
		assert.Contains(t, h.notes.last().Description, "network-request-failed")
	})
}

func TestSignIn_CreatesMissingRecord(t *testing.T) {
	h := newHarness(t)
	h.provider.addAccount("u1", regularEmail, regularPass)

	u, err := h.m.SignIn(context.Background(), regularEmail, regularPass, false)

	require.NoError(t, err)
	rec, ok := h.users.get("u1")
	require.True(t, ok)
	assert.False(t, rec.IsAdmin)
	assert.False(t, u.IsAdmin)
}

func TestSignIn_AdminsIndexOverridesStaleRecord(t *testing.T) {
	h := newHarness(t)
	h.provider.addAccount("u1", regularEmail, regularPass)
	stale, err := userdom.New("u1", strPtr(regularEmail), nil, nil, false, time.Now())
	require.NoError(t, err)
	require.NoError(t, h.users.Create(context.Background(), stale))
	e, err := admindom.NewEntry("u1", "RAVI@example.com", time.Now())
	require.NoError(t, err)
	require.NoError(t, h.admins.Add(context.Background(), e))

	u, err := h.m.SignIn(context.Background(), regularEmail, regularPass, false)

	require.NoError(t, err)
	assert.True(t, u.IsAdmin)
	rec, _ := h.users.get("u1")
	assert.True(t, rec.IsAdmin, "index hit is backfilled")
}

func TestResolveIsAdmin(t *testing.T) {
	admin := &userdom.User{UID: "a", IsAdmin: true}
	plain := &userdom.User{UID: "b"}

	assert.True(t, ResolveIsAdmin(admin, false))
	assert.True(t, ResolveIsAdmin(plain, true))
	assert.True(t, ResolveIsAdmin(nil, true))
	assert.False(t, ResolveIsAdmin(plain, false))
	assert.False(t, ResolveIsAdmin(nil, false))
}

func TestAdminSignIn_WrongEmailDeniedWithoutProviderCall(t *testing.T) {
	h := newHarness(t)

	_, err := h.m.SignIn(context.Background(), regularEmail, bootstrapPass, true)

	require.ErrorIs(t, err, ErrAdminAccessDenied)
	assert.Equal(t, 0, h.provider.authCalls)
	assert.Equal(t, 0, h.provider.createCalls)
}

func TestAdminSignIn_BootstrapCreatesSingleAdmin(t *testing.T) {
	h := newHarness(t)

	u, err := h.m.SignIn(context.Background(), "Admin@SriPavanComputers.in", bootstrapPass, true)

	require.NoError(t, err)
	assert.True(t, u.IsAdmin)
	assert.True(t, h.m.AdminMode())
	assert.Equal(t, StateAuthenticatedAdmin, h.m.State())
	assert.Equal(t, 1, h.provider.createCalls)
	assert.Equal(t, 1, h.users.creates)
	assert.Equal(t, 1, h.admins.len())

	rec, ok := h.users.get(u.UID)
	require.True(t, ok)
	assert.True(t, rec.IsAdmin)
}

func TestAdminSignIn_BootstrapWithEnumerationProtection(t *testing.T) {
	h := newHarness(t)
	h.provider.enumerationProtection = true

	_, err := h.m.SignIn(context.Background(), adminEmail, bootstrapPass, true)

	require.NoError(t, err)
	assert.True(t, h.m.AdminMode())
	assert.Equal(t, 1, h.admins.len())
}

func TestAdminSignIn_UnknownAccountWrongBootstrapPassword(t *testing.T) {
	h := newHarness(t)

	_, err := h.m.SignIn(context.Background(), adminEmail, "guess", true)

	require.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Equal(t, 0, h.provider.createCalls)
	assert.Equal(t, 0, h.admins.len())
	assert.False(t, h.m.AdminMode())
}

func TestAdminSignIn_ExistingAdminWrongPasswordKeepsAdminMode(t *testing.T) {
	h := newHarness(t)
	h.seedAdmin(t, "admin-1", "real-pass")

	_, err := h.m.SignIn(context.Background(), adminEmail, "real-pass", true)
	require.NoError(t, err)
	require.True(t, h.m.AdminMode())

	_, err = h.m.SignIn(context.Background(), adminEmail, "wrong-pass", true)

	require.ErrorIs(t, err, ErrInvalidCredentials)
	assert.True(t, h.m.AdminMode(), "a failed attempt does not touch admin mode")
	assert.Equal(t, 0, h.provider.createCalls)
}

func TestAdminSignIn_ExistingAdminBootstrapPasswordDoesNotRecreate(t *testing.T) {
	h := newHarness(t)
	h.seedAdmin(t, "admin-1", "real-pass")

	_, err := h.m.SignIn(context.Background(), adminEmail, bootstrapPass, true)

	require.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Equal(t, 0, h.provider.createCalls)
	assert.False(t, h.m.AdminMode())
}

func TestAdminSignIn_PromotesWithBootstrapPassword(t *testing.T) {
	h := newHarness(t)
	// account exists (created as a regular user) and its password is the bootstrap one
	h.provider.addAccount("u-admin", adminEmail, bootstrapPass)

	u, err := h.m.SignIn(context.Background(), adminEmail, bootstrapPass, true)

	require.NoError(t, err)
	assert.True(t, u.IsAdmin)
	assert.True(t, h.m.AdminMode())
	rec, _ := h.users.get("u-admin")
	assert.True(t, rec.IsAdmin)
	assert.Equal(t, 1, h.admins.len())
}

func TestAdminSignIn_NotAdminWithoutBootstrapPasswordSignsOut(t *testing.T) {
	h := newHarness(t)
	h.provider.addAccount("u-admin", adminEmail, "own-pass")

	_, err := h.m.SignIn(context.Background(), adminEmail, "own-pass", true)

	require.ErrorIs(t, err, ErrAdminAccessDenied)
	assert.Equal(t, 1, h.provider.endCalls)
	assert.Nil(t, h.m.Current())
	assert.False(t, h.m.AdminMode())
	assert.Equal(t, 0, h.admins.len())
}

func TestAdminSignIn_IndexFailureIsReported(t *testing.T) {
	h := newHarness(t)
	h.admins.err = errBoom

	_, err := h.m.SignIn(context.Background(), adminEmail, bootstrapPass, true)

	require.ErrorIs(t, err, errBoom)
	assert.False(t, h.m.AdminMode())
}

func TestAdminMode_RestoredOnlyForAdmins(t *testing.T) {
	h := newHarness(t)

	_, err := h.m.SignIn(context.Background(), adminEmail, bootstrapPass, true)
	require.NoError(t, err)
	v, ok, _ := h.store.Get(context.Background(), adminModeKey)
	require.True(t, ok)
	assert.Equal(t, "1", v)

	// a fresh manager on the same device restores admin mode
	m2 := h.build(t)
	assert.Equal(t, StateAuthenticatedAdmin, m2.State())

	// the flag is ignored for a non-admin identity
	h2 := newHarness(t)
	h2.provider.addAccount("u1", regularEmail, regularPass)
	_, err = h2.m.SignIn(context.Background(), regularEmail, regularPass, false)
	require.NoError(t, err)
	require.NoError(t, h2.store.Set(context.Background(), adminModeKey, "1"))
	m3 := h2.build(t)
	assert.Equal(t, StateAuthenticatedRegular, m3.State())
	assert.False(t, m3.AdminMode())
}

func TestLogOut_ClearsSession(t *testing.T) {
	h := newHarness(t)
	_, err := h.m.SignIn(context.Background(), adminEmail, bootstrapPass, true)
	require.NoError(t, err)

	require.NoError(t, h.m.LogOut(context.Background()))

	assert.Nil(t, h.m.Current())
	assert.False(t, h.m.AdminMode())
	assert.Equal(t, StateAnonymous, h.m.State())
	_, ok, _ := h.store.Get(context.Background(), adminModeKey)
	assert.False(t, ok)
}

func TestLogOut_ProviderFailureStillClears(t *testing.T) {
	h := newHarness(t)
	h.provider.addAccount("u1", regularEmail, regularPass)
	_, err := h.m.SignIn(context.Background(), regularEmail, regularPass, false)
	require.NoError(t, err)
	h.provider.endErr = errBoom

	require.NoError(t, h.m.LogOut(context.Background()))

	assert.Nil(t, h.m.Current())
	assert.False(t, h.m.AdminMode())
	assert.Equal(t, notification.SeverityWarning, h.notes.last().Severity)
}

func TestProviderExpiryClearsSession(t *testing.T) {
	h := newHarness(t)
	h.provider.addAccount("u1", regularEmail, regularPass)
	_, err := h.m.SignIn(context.Background(), regularEmail, regularPass, false)
	require.NoError(t, err)

	h.provider.expire()

	assert.Nil(t, h.m.Current())
	assert.Equal(t, StateAnonymous, h.m.State())
}

func TestForgotPassword(t *testing.T) {
	h := newHarness(t)
	h.provider.addAccount("u1", regularEmail, regularPass)

	require.NoError(t, h.m.ForgotPassword(context.Background(), regularEmail))
	assert.Equal(t, notification.SeveritySuccess, h.notes.last().Severity)

	err := h.m.ForgotPassword(context.Background(), "ghost@example.com")
	require.ErrorIs(t, err, ErrUnknownAccount)
	assert.Equal(t, notification.SeverityError, h.notes.last().Severity)
}

func TestUpdateProfile(t *testing.T) {
	h := newHarness(t)

	err := h.m.UpdateProfile(context.Background(), userdom.ProfilePatch{DisplayName: strPtr("X")})
	require.ErrorIs(t, err, ErrUnauthenticated)

	require.NoError(t, h.m.SignUp(context.Background(), regularEmail, regularPass, "Ravi"))
	var seen []Snapshot
	h.m.Subscribe(func(s Snapshot) { seen = append(seen, s) })

	photo := "https://storage.googleapis.com/b/u.png"
	name := "Ravi Kumar"
	require.NoError(t, h.m.UpdateProfile(context.Background(), userdom.ProfilePatch{DisplayName: &name, PhotoURL: &photo}))

	cur := h.m.Current()
	require.NotNil(t, cur.DisplayName)
	assert.Equal(t, name, *cur.DisplayName)
	require.NotNil(t, cur.PhotoURL)
	assert.Equal(t, photo, *cur.PhotoURL)

	rec, _ := h.users.get(cur.UID)
	assert.Equal(t, name, *rec.DisplayName)
	require.Len(t, seen, 1)
	assert.Equal(t, name, *seen[0].Identity.DisplayName)
}

func TestUpdateProfile_ProviderFailureKeepsIdentity(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.m.SignUp(context.Background(), regularEmail, regularPass, "Ravi"))
	h.provider.profileErr = &ProviderError{Code: CodeTooManyRequests}

	name := "Other"
	err := h.m.UpdateProfile(context.Background(), userdom.ProfilePatch{DisplayName: &name})

	require.ErrorIs(t, err, ErrTooManyAttempts)
	assert.Equal(t, "Ravi", *h.m.Current().DisplayName)
}

func TestCurrentReturnsCopy(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.m.SignUp(context.Background(), regularEmail, regularPass, "Ravi"))

	cur := h.m.Current()
	*cur.DisplayName = "mutated"
	cur.IsAdmin = true

	assert.Equal(t, "Ravi", *h.m.Current().DisplayName)
	assert.False(t, h.m.Current().IsAdmin)
}
