package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/client/client"
	"github.com/dmitrijs2005/gophauth/internal/client/models"
	"github.com/dmitrijs2005/gophauth/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---- fakes ----

type fakeClient struct {
	mu    sync.Mutex
	calls []string

	verifyFn   func(ctx context.Context, token string) (*models.UserProfile, error)
	loginFn    func(ctx context.Context, email, password string) (*client.AuthResult, error)
	registerFn func(ctx context.Context, reg models.Registration) (*client.AuthResult, error)
	logoutFn   func(ctx context.Context, token string) error
	updateFn   func(ctx context.Context, token string, patch models.ProfilePatch) (*models.UserProfile, error)
}

func (f *fakeClient) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeClient) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeClient) Verify(ctx context.Context, token string) (*models.UserProfile, error) {
	f.record("verify " + token)
	return f.verifyFn(ctx, token)
}

func (f *fakeClient) Login(ctx context.Context, email, password string) (*client.AuthResult, error) {
	f.record("login " + email)
	return f.loginFn(ctx, email, password)
}

func (f *fakeClient) Register(ctx context.Context, reg models.Registration) (*client.AuthResult, error) {
	f.record("register " + reg.Email)
	return f.registerFn(ctx, reg)
}

func (f *fakeClient) Logout(ctx context.Context, token string) error {
	f.record("logout " + token)
	if f.logoutFn == nil {
		return nil
	}
	return f.logoutFn(ctx, token)
}

func (f *fakeClient) UpdateProfile(ctx context.Context, token string, patch models.ProfilePatch) (*models.UserProfile, error) {
	f.record("update " + token)
	return f.updateFn(ctx, token, patch)
}

// failingStore wraps a repository and fails the configured writes.
type failingStore struct {
	metadata.Repository
	setErr   error
	clearErr error
}

func (s *failingStore) Set(ctx context.Context, key string, value []byte) error {
	if s.setErr != nil {
		return s.setErr
	}
	return s.Repository.Set(ctx, key, value)
}

func (s *failingStore) Clear(ctx context.Context) error {
	if s.clearErr != nil {
		return s.clearErr
	}
	return s.Repository.Clear(ctx)
}

// ---- helpers ----

func newStore(t *testing.T) metadata.Repository {
	t.Helper()
	db, err := client.InitDatabase(context.Background(), ":memory:", logging.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return metadata.NewSQLiteRepository(db)
}

func storedToken(t *testing.T, store metadata.Repository) string {
	t.Helper()
	v, err := store.Get(context.Background(), common.TokenStorageKey)
	require.NoError(t, err)
	return string(v)
}

func putToken(t *testing.T, store metadata.Repository, token string) {
	t.Helper()
	require.NoError(t, store.Set(context.Background(), common.TokenStorageKey, []byte(token)))
}

func profile(id string) *models.UserProfile {
	return &models.UserProfile{
		ID:        id,
		Name:      "Name" + id,
		Surname:   "Lee",
		Email:     id + "@b.com",
		Phone:     "5551234567",
		CreatedAt: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
	}
}

func authOK(id, token string) func(context.Context, string, string) (*client.AuthResult, error) {
	return func(context.Context, string, string) (*client.AuthResult, error) {
		return &client.AuthResult{User: profile(id), Token: token, Message: "Login successful"}, nil
	}
}

var (
	errRejected = &client.RejectedError{Status: 401, Reason: "Invalid credentials"}
	errNetwork  = fmt.Errorf("POST /login: %w: connection refused", client.ErrUnavailable)
)

func newManager(t *testing.T, fc *fakeClient, store metadata.Repository) *Manager {
	t.Helper()
	return NewManager(fc, store, logging.Discard())
}

// startedAnonymous returns a manager that has settled with no stored token.
func startedAnonymous(t *testing.T, fc *fakeClient, store metadata.Repository) *Manager {
	t.Helper()
	m := newManager(t, fc, store)
	require.NoError(t, m.Start(context.Background()))
	return m
}

// startedAs returns a manager signed in as id with token.
func startedAs(t *testing.T, fc *fakeClient, store metadata.Repository, id, token string) *Manager {
	t.Helper()
	m := startedAnonymous(t, fc, store)
	prev := fc.loginFn
	fc.loginFn = authOK(id, token)
	_, err := m.Login(context.Background(), id+"@b.com", "Abcdef1!")
	require.NoError(t, err)
	fc.loginFn = prev
	return m
}

// ---- startup ----

func TestStart_NoStoredToken_SettlesAnonymousWithoutNetwork(t *testing.T) {
	fc := &fakeClient{}
	m := newManager(t, fc, newStore(t))

	require.True(t, m.Snapshot().Loading)
	require.Equal(t, models.StatusUninitialized, m.Snapshot().Status)

	require.NoError(t, m.Start(context.Background()))

	s := m.Snapshot()
	assert.Equal(t, models.StatusAnonymous, s.Status)
	assert.False(t, s.IsAuthenticated)
	assert.False(t, s.Loading)
	assert.Nil(t, s.User)
	assert.Empty(t, fc.Calls())
}

func TestStart_ValidToken_RestoresSession(t *testing.T) {
	store := newStore(t)
	putToken(t, store, "tok-1")
	fc := &fakeClient{verifyFn: func(context.Context, string) (*models.UserProfile, error) {
		return profile("u1"), nil
	}}
	m := newManager(t, fc, store)

	require.NoError(t, m.Start(context.Background()))

	s := m.Snapshot()
	assert.Equal(t, models.StatusAuthenticated, s.Status)
	assert.True(t, s.IsAuthenticated)
	assert.False(t, s.Loading)
	if diff := cmp.Diff(profile("u1"), s.User); diff != "" {
		t.Errorf("user mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "tok-1", storedToken(t, store))
	assert.Equal(t, []string{"verify tok-1"}, fc.Calls())
}

func TestStart_VerifyFailure_EvictsToken(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"rejected", &client.RejectedError{Status: 404, Reason: "User not found"}},
		{"network", fmt.Errorf("GET /profile: %w: refused", client.ErrUnavailable)},
		{"malformed", fmt.Errorf("%w: missing user", client.ErrMalformed)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newStore(t)
			putToken(t, store, "stale")
			fc := &fakeClient{verifyFn: func(context.Context, string) (*models.UserProfile, error) {
				return nil, tt.err
			}}
			m := newManager(t, fc, store)

			require.NoError(t, m.Start(context.Background()))

			s := m.Snapshot()
			assert.Equal(t, models.StatusAnonymous, s.Status)
			assert.False(t, s.IsAuthenticated)
			assert.False(t, s.Loading)
			assert.Empty(t, storedToken(t, store))
		})
	}
}

func TestStart_SecondCallIsNoop(t *testing.T) {
	fc := &fakeClient{}
	m := startedAnonymous(t, fc, newStore(t))

	require.NoError(t, m.Start(context.Background()))
	assert.Equal(t, models.StatusAnonymous, m.Snapshot().Status)
}

func TestStart_SupersededByRejectedLogin_EvictsToken(t *testing.T) {
	store := newStore(t)
	putToken(t, store, "stored")

	entered, release := make(chan struct{}), make(chan struct{})
	fc := &fakeClient{
		verifyFn: func(context.Context, string) (*models.UserProfile, error) {
			close(entered)
			<-release
			return profile("u1"), nil
		},
		loginFn: func(context.Context, string, string) (*client.AuthResult, error) {
			return nil, errRejected
		},
	}
	m := newManager(t, fc, store)

	started := make(chan error, 1)
	go func() { started <- m.Start(context.Background()) }()
	<-entered

	_, err := m.Login(context.Background(), "a@b.com", "wrong")
	require.ErrorIs(t, err, errRejected)
	assert.Equal(t, models.StatusVerifying, m.Snapshot().Status)

	close(release)
	require.NoError(t, <-started)

	s := m.Snapshot()
	assert.Equal(t, models.StatusAnonymous, s.Status)
	assert.False(t, s.IsAuthenticated)
	assert.False(t, s.Loading)
	assert.Empty(t, storedToken(t, store))
}

func TestStart_SupersededBySuccessfulLogin_KeepsNewToken(t *testing.T) {
	store := newStore(t)
	putToken(t, store, "stored")

	entered, release := make(chan struct{}), make(chan struct{})
	fc := &fakeClient{
		verifyFn: func(context.Context, string) (*models.UserProfile, error) {
			close(entered)
			<-release
			return profile("old"), nil
		},
		loginFn: authOK("u2", "tok-2"),
	}
	m := newManager(t, fc, store)

	started := make(chan error, 1)
	go func() { started <- m.Start(context.Background()) }()
	<-entered

	_, err := m.Login(context.Background(), "u2@b.com", "Abcdef1!")
	require.NoError(t, err)

	close(release)
	require.NoError(t, <-started)

	s := m.Snapshot()
	assert.Equal(t, models.StatusAuthenticated, s.Status)
	assert.Equal(t, "u2", s.User.ID)
	assert.Equal(t, "tok-2", storedToken(t, store))
}

// ---- login / register ----

func TestLogin_Success(t *testing.T) {
	store := newStore(t)
	fc := &fakeClient{loginFn: authOK("u1", "tok-1")}
	m := startedAnonymous(t, fc, store)

	res, err := m.Login(context.Background(), "a@b.com", "goodpass")
	require.NoError(t, err)
	assert.Equal(t, "Login successful", res.Message)

	s := m.Snapshot()
	assert.True(t, s.IsAuthenticated)
	assert.False(t, s.Loading)
	assert.Equal(t, models.StatusAuthenticated, s.Status)
	assert.Equal(t, profile("u1"), s.User)
	assert.Equal(t, "tok-1", storedToken(t, store))
}

func TestLogin_Failure_LeavesStateUnchanged(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantBanner string
	}{
		{"rejected", errRejected, "Invalid credentials"},
		{"network", errNetwork, MsgNetworkError},
		{"malformed", fmt.Errorf("%w: missing token", client.ErrMalformed), MsgNetworkError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newStore(t)
			fc := &fakeClient{loginFn: func(context.Context, string, string) (*client.AuthResult, error) {
				return nil, tt.err
			}}
			m := startedAnonymous(t, fc, store)
			before := m.Snapshot()

			res, err := m.Login(context.Background(), "a@b.com", "bad")
			require.Error(t, err)
			assert.Nil(t, res)
			assert.Equal(t, tt.wantBanner, SubmitError(err))

			assert.Equal(t, before, m.Snapshot())
			assert.False(t, m.Snapshot().Loading)
			assert.Empty(t, storedToken(t, store))
		})
	}
}

func TestLogin_RejectedWhileSignedIn_KeepsExistingSession(t *testing.T) {
	store := newStore(t)
	fc := &fakeClient{}
	m := startedAs(t, fc, store, "u1", "tok-1")
	fc.loginFn = func(context.Context, string, string) (*client.AuthResult, error) { return nil, errRejected }

	_, err := m.Login(context.Background(), "x@b.com", "bad")
	require.ErrorAs(t, err, new(*client.RejectedError))

	s := m.Snapshot()
	assert.True(t, s.IsAuthenticated)
	assert.Equal(t, "u1", s.User.ID)
	assert.Equal(t, "tok-1", storedToken(t, store))
}

func TestLogin_EmptyArguments(t *testing.T) {
	fc := &fakeClient{}
	m := startedAnonymous(t, fc, newStore(t))

	_, err := m.Login(context.Background(), "", "x")
	require.ErrorIs(t, err, ErrMissingCredentials)
	_, err = m.Login(context.Background(), "a@b.com", "")
	require.ErrorIs(t, err, ErrMissingCredentials)

	assert.Empty(t, fc.Calls())
	assert.False(t, m.Snapshot().Loading)
}

func TestLogin_PersistFailure_DoesNotSignIn(t *testing.T) {
	store := &failingStore{Repository: newStore(t)}
	fc := &fakeClient{loginFn: authOK("u1", "tok-1")}
	m := startedAnonymous(t, fc, store)
	store.setErr = errors.New("disk full")

	_, err := m.Login(context.Background(), "a@b.com", "goodpass")
	require.Error(t, err)
	assert.Equal(t, MsgUnexpectedError, SubmitError(err))

	s := m.Snapshot()
	assert.False(t, s.IsAuthenticated)
	assert.False(t, s.Loading)
	assert.Nil(t, s.User)
}

func TestLogin_LoadingWhileInFlight(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	fc := &fakeClient{loginFn: func(context.Context, string, string) (*client.AuthResult, error) {
		close(entered)
		<-release
		return nil, errRejected
	}}
	m := startedAnonymous(t, fc, newStore(t))

	done := make(chan error, 1)
	go func() {
		_, err := m.Login(context.Background(), "a@b.com", "x")
		done <- err
	}()

	<-entered
	assert.True(t, m.Snapshot().Loading)
	close(release)

	require.Error(t, <-done)
	assert.False(t, m.Snapshot().Loading)
}

func TestRegister_Success(t *testing.T) {
	store := newStore(t)
	var got models.Registration
	fc := &fakeClient{registerFn: func(_ context.Context, reg models.Registration) (*client.AuthResult, error) {
		got = reg
		return &client.AuthResult{User: profile("u9"), Token: "tok-9", Message: "User registered successfully"}, nil
	}}
	m := startedAnonymous(t, fc, store)

	reg := models.Registration{Name: "Ann", Surname: "Lee", Email: "u9@b.com", Phone: "5551234567", Password: "Abcdef1!"}
	res, err := m.Register(context.Background(), reg)
	require.NoError(t, err)

	assert.Equal(t, reg, got)
	assert.Equal(t, "User registered successfully", res.Message)
	assert.True(t, m.Snapshot().IsAuthenticated)
	assert.Equal(t, "u9", m.Snapshot().User.ID)
	assert.Equal(t, "tok-9", storedToken(t, store))
}

func TestRegister_Rejected(t *testing.T) {
	store := newStore(t)
	fc := &fakeClient{registerFn: func(context.Context, models.Registration) (*client.AuthResult, error) {
		return nil, &client.RejectedError{Status: 409, Reason: "User already exists"}
	}}
	m := startedAnonymous(t, fc, store)

	_, err := m.Register(context.Background(), models.Registration{Email: "a@b.com"})
	assert.Equal(t, "User already exists", SubmitError(err))
	assert.False(t, m.Snapshot().IsAuthenticated)
	assert.False(t, m.Snapshot().Loading)
	assert.Empty(t, storedToken(t, store))
}

// ---- logout ----

func TestLogout_ClearsSessionRegardlessOfNetwork(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"server ok", nil},
		{"server rejects", &client.RejectedError{Status: 500, Reason: "boom"}},
		{"network down", errNetwork},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newStore(t)
			fc := &fakeClient{logoutFn: func(context.Context, string) error { return tt.err }}
			m := startedAs(t, fc, store, "u1", "tok-1")

			require.NoError(t, m.Logout(context.Background()))

			s := m.Snapshot()
			assert.False(t, s.IsAuthenticated)
			assert.False(t, s.Loading)
			assert.Nil(t, s.User)
			assert.Equal(t, models.StatusAnonymous, s.Status)
			assert.Empty(t, storedToken(t, store))
			assert.Contains(t, fc.Calls(), "logout tok-1")
		})
	}
}

func TestLogout_ClearsWholeStore(t *testing.T) {
	store := newStore(t)
	fc := &fakeClient{}
	m := startedAs(t, fc, store, "u1", "tok-1")
	require.NoError(t, store.Set(context.Background(), "last_email", []byte("u1@b.com")))

	require.NoError(t, m.Logout(context.Background()))

	v, err := store.Get(context.Background(), "last_email")
	require.NoError(t, err)
	assert.Nil(t, v)
	assert.Empty(t, storedToken(t, store))
}

func TestLogout_WithoutSessionSkipsNetwork(t *testing.T) {
	fc := &fakeClient{}
	m := startedAnonymous(t, fc, newStore(t))

	require.NoError(t, m.Logout(context.Background()))
	assert.Empty(t, fc.Calls())
	assert.False(t, m.Snapshot().IsAuthenticated)
}

func TestLogout_Twice_SameAsOnce(t *testing.T) {
	store := newStore(t)
	fc := &fakeClient{}
	m := startedAs(t, fc, store, "u1", "tok-1")

	require.NoError(t, m.Logout(context.Background()))
	once := m.Snapshot()

	require.NoError(t, m.Logout(context.Background()))
	assert.Equal(t, once, m.Snapshot())
	assert.Empty(t, storedToken(t, store))
	assert.Equal(t, 1, countPrefix(fc.Calls(), "logout"))
}

func TestLogout_StoreFailureStillClearsMemory(t *testing.T) {
	store := &failingStore{Repository: newStore(t)}
	fc := &fakeClient{}
	m := startedAs(t, fc, store, "u1", "tok-1")
	store.clearErr = errors.New("io error")

	err := m.Logout(context.Background())
	require.Error(t, err)
	assert.False(t, m.Snapshot().IsAuthenticated)
	assert.False(t, m.Snapshot().Loading)
}

func countPrefix(calls []string, prefix string) int {
	n := 0
	for _, c := range calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

// ---- profile update ----

func TestUpdateProfile_RequiresSession(t *testing.T) {
	fc := &fakeClient{}
	m := startedAnonymous(t, fc, newStore(t))

	name := "Bob"
	_, err := m.UpdateProfile(context.Background(), models.ProfilePatch{Name: &name})
	require.ErrorIs(t, err, ErrNotAuthenticated)
	assert.Equal(t, MsgNotAuthenticated, SubmitError(err))
	assert.Empty(t, fc.Calls())
	assert.False(t, m.Snapshot().Loading)
}

func TestUpdateProfile_ReplacesUserWithServerCopy(t *testing.T) {
	store := newStore(t)
	fc := &fakeClient{}
	m := startedAs(t, fc, store, "u1", "tok-1")

	last := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	server := &models.UserProfile{ID: "u1", Name: "Bob", Surname: "Server", Email: "u1@b.com", LastLogin: &last}
	var gotToken string
	fc.updateFn = func(_ context.Context, token string, _ models.ProfilePatch) (*models.UserProfile, error) {
		gotToken = token
		return server, nil
	}

	name := "Bob"
	u, err := m.UpdateProfile(context.Background(), models.ProfilePatch{Name: &name})
	require.NoError(t, err)

	assert.Equal(t, "tok-1", gotToken)
	assert.Equal(t, server, u)
	assert.Equal(t, server, m.Snapshot().User)
	assert.Equal(t, "tok-1", storedToken(t, store))
	assert.True(t, m.Snapshot().IsAuthenticated)
}

func TestUpdateProfile_Rejected_KeepsUser(t *testing.T) {
	fc := &fakeClient{}
	m := startedAs(t, fc, newStore(t), "u1", "tok-1")
	fc.updateFn = func(context.Context, string, models.ProfilePatch) (*models.UserProfile, error) {
		return nil, &client.RejectedError{Status: 400, Reason: "Invalid phone"}
	}
	before := m.Snapshot()

	phone := "1"
	_, err := m.UpdateProfile(context.Background(), models.ProfilePatch{Phone: &phone})
	assert.Equal(t, "Invalid phone", SubmitError(err))
	assert.Equal(t, before, m.Snapshot())
}

func TestSnapshot_UserIsACopy(t *testing.T) {
	fc := &fakeClient{}
	m := startedAs(t, fc, newStore(t), "u1", "tok-1")

	s := m.Snapshot()
	s.User.Name = "mutated"
	assert.Equal(t, "Nameu1", m.Snapshot().User.Name)
}

// ---- ordering ----

// gatedLogin blocks each login until its gate is released.
type gatedLogin struct {
	mu      sync.Mutex
	entered map[string]chan struct{}
	gates   map[string]chan struct{}
}

func newGatedLogin(emails ...string) *gatedLogin {
	g := &gatedLogin{entered: map[string]chan struct{}{}, gates: map[string]chan struct{}{}}
	for _, e := range emails {
		g.entered[e] = make(chan struct{})
		g.gates[e] = make(chan struct{})
	}
	return g
}

func (g *gatedLogin) fn(_ context.Context, email, _ string) (*client.AuthResult, error) {
	close(g.entered[email])
	<-g.gates[email]
	return &client.AuthResult{User: profile(email), Token: "tok-" + email}, nil
}

func TestLogin_LaterStartedWins_WhenEarlierFinishesLast(t *testing.T) {
	store := newStore(t)
	g := newGatedLogin("first", "second")
	fc := &fakeClient{loginFn: g.fn}
	m := startedAnonymous(t, fc, store)

	first := make(chan error, 1)
	go func() { _, err := m.Login(context.Background(), "first", "x"); first <- err }()
	<-g.entered["first"]

	second := make(chan error, 1)
	go func() { _, err := m.Login(context.Background(), "second", "x"); second <- err }()
	<-g.entered["second"]

	close(g.gates["second"])
	require.NoError(t, <-second)
	assert.True(t, m.Snapshot().Loading)

	close(g.gates["first"])
	require.ErrorIs(t, <-first, ErrSuperseded)
	assert.Empty(t, SubmitError(ErrSuperseded))

	s := m.Snapshot()
	assert.False(t, s.Loading)
	assert.Equal(t, "second", s.User.ID)
	assert.Equal(t, "tok-second", storedToken(t, store))
}

func TestLogin_LaterStartedWins_WhenEarlierFinishesFirst(t *testing.T) {
	store := newStore(t)
	g := newGatedLogin("first", "second")
	fc := &fakeClient{loginFn: g.fn}
	m := startedAnonymous(t, fc, store)

	first := make(chan error, 1)
	go func() { _, err := m.Login(context.Background(), "first", "x"); first <- err }()
	<-g.entered["first"]

	second := make(chan error, 1)
	go func() { _, err := m.Login(context.Background(), "second", "x"); second <- err }()
	<-g.entered["second"]

	close(g.gates["first"])
	require.ErrorIs(t, <-first, ErrSuperseded)
	close(g.gates["second"])
	require.NoError(t, <-second)

	assert.Equal(t, "second", m.Snapshot().User.ID)
	assert.Equal(t, "tok-second", storedToken(t, store))
}

func TestLogout_SupersedesInFlightLogin(t *testing.T) {
	store := newStore(t)
	g := newGatedLogin("late")
	fc := &fakeClient{loginFn: g.fn}
	m := startedAnonymous(t, fc, store)

	res := make(chan error, 1)
	go func() { _, err := m.Login(context.Background(), "late", "x"); res <- err }()
	<-g.entered["late"]

	require.NoError(t, m.Logout(context.Background()))
	close(g.gates["late"])
	require.ErrorIs(t, <-res, ErrSuperseded)

	assert.False(t, m.Snapshot().IsAuthenticated)
	assert.Empty(t, storedToken(t, store))
}

func TestConcurrentLogins_NeverMixUserAndToken(t *testing.T) {
	store := newStore(t)
	fc := &fakeClient{loginFn: func(_ context.Context, email, _ string) (*client.AuthResult, error) {
		time.Sleep(time.Duration(len(email)%3) * time.Millisecond)
		return &client.AuthResult{User: profile(email), Token: "tok-" + email}, nil
	}}
	m := startedAnonymous(t, fc, store)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _ = m.Login(context.Background(), fmt.Sprintf("user%d", i), "x")
		}(i)
	}
	wg.Wait()

	s := m.Snapshot()
	require.True(t, s.IsAuthenticated)
	assert.False(t, s.Loading)
	assert.Equal(t, "tok-"+s.User.ID, storedToken(t, store))
}

// ---- subscriptions ----

func TestSubscribe_ReceivesSnapshotsInOrder(t *testing.T) {
	fc := &fakeClient{loginFn: authOK("u1", "tok-1")}
	m := startedAnonymous(t, fc, newStore(t))

	var got []models.Snapshot
	unsubscribe := m.Subscribe(func(s models.Snapshot) { got = append(got, s) })

	_, err := m.Login(context.Background(), "a@b.com", "x")
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.True(t, got[0].Loading)
	assert.False(t, got[0].IsAuthenticated)
	assert.False(t, got[1].Loading)
	assert.True(t, got[1].IsAuthenticated)

	unsubscribe()
	unsubscribe()
	require.NoError(t, m.Logout(context.Background()))
	assert.Len(t, got, 2)
}

func TestSubscribe_ListenerMayReadSnapshot(t *testing.T) {
	fc := &fakeClient{}
	m := newManager(t, fc, newStore(t))

	var statuses []models.Status
	m.Subscribe(func(models.Snapshot) { statuses = append(statuses, m.Snapshot().Status) })

	require.NoError(t, m.Start(context.Background()))
	assert.Equal(t, []models.Status{models.StatusVerifying, models.StatusAnonymous}, statuses)
}

func TestSubscribe_ConcurrentLoginsWithSnapshotReader(t *testing.T) {
	fc := &fakeClient{loginFn: func(_ context.Context, email, _ string) (*client.AuthResult, error) {
		return &client.AuthResult{User: profile(email), Token: "tok-" + email}, nil
	}}
	m := startedAnonymous(t, fc, newStore(t))
	m.Subscribe(func(models.Snapshot) { _ = m.Snapshot() })

	done := make(chan struct{})
	go func() {
		defer close(done)
		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, _ = m.Login(context.Background(), fmt.Sprintf("user%d", i), "x")
			}(i)
		}
		wg.Wait()
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("logins did not finish")
	}
	s := m.Snapshot()
	assert.True(t, s.IsAuthenticated)
	assert.False(t, s.Loading)
}

// ---- SubmitError ----

func TestSubmitError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"superseded", ErrSuperseded, ""},
		{"rejected", errRejected, "Invalid credentials"},
		{"wrapped rejection", fmt.Errorf("login: %w", errRejected), "Invalid credentials"},
		{"unavailable", errNetwork, MsgNetworkError},
		{"malformed", client.ErrMalformed, MsgNetworkError},
		{"not authenticated", ErrNotAuthenticated, MsgNotAuthenticated},
		{"missing credentials", ErrMissingCredentials, "Email and password are required"},
		{"other", errors.New("boom"), MsgUnexpectedError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SubmitError(tt.err))
		})
	}
}
