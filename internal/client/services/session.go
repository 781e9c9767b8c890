package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/gophauth/internal/client/client"
	"github.com/dmitrijs2005/gophauth/internal/client/models"
	"github.com/dmitrijs2005/gophauth/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/logging"
)

// Session is what the view layer may depend on.
type Session interface {
	Snapshot() models.Snapshot
	Subscribe(fn func(models.Snapshot)) (unsubscribe func())
	Login(ctx context.Context, email, password string) (*client.AuthResult, error)
	Register(ctx context.Context, reg models.Registration) (*client.AuthResult, error)
	Logout(ctx context.Context) error
	UpdateProfile(ctx context.Context, patch models.ProfilePatch) (*models.UserProfile, error)
}

type listener struct {
	id uint64
	fn func(models.Snapshot)
}

// Manager is the session state machine. Every identity-changing operation
// takes a ticket from one increasing sequence when it starts; its result is
// committed only if no later operation has started since. Commits write the
// durable token slot and the in-memory state under the same lock.
//
// The zero value is not usable; create one with NewManager.
type Manager struct {
	client client.Client
	store  metadata.Repository
	log    logging.Logger

	mu      sync.Mutex
	user    *models.UserProfile
	token   string
	status  models.Status
	pending int
	seq     uint64

	listeners []listener
	nextID    uint64

	// notifyMu keeps deliveries in mutation order.
	notifyMu sync.Mutex
}

var _ Session = (*Manager)(nil)

func NewManager(c client.Client, store metadata.Repository, log logging.Logger) *Manager {
	return &Manager{
		client: c,
		store:  store,
		log:    log.With("component", "session"),
		status: models.StatusUninitialized,
	}
}

// Snapshot returns the current state. Loading is true until Start settles
// and while any operation is in flight.
func (m *Manager) Snapshot() models.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

func (m *Manager) snapshotLocked() models.Snapshot {
	return models.Snapshot{
		User:            m.user.Clone(),
		IsAuthenticated: m.user != nil && m.token != "",
		Loading:         m.pending > 0 || m.status == models.StatusUninitialized,
		Status:          m.status,
	}
}

// Subscribe registers fn to receive a snapshot after every state change.
// Deliveries happen outside the state lock in mutation order. fn may read
// Snapshot but must not call other Manager operations synchronously.
func (m *Manager) Subscribe(fn func(models.Snapshot)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	id := m.nextID
	m.listeners = append(m.listeners, listener{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			for i, l := range m.listeners {
				if l.id == id {
					m.listeners = append(m.listeners[:i:i], m.listeners[i+1:]...)
					return
				}
			}
		})
	}
}

// mutate runs fn under the state lock and then notifies listeners.
// notifyMu is always taken before mu, and mu is released before delivery,
// so listeners may call Snapshot.
func (m *Manager) mutate(fn func()) {
	m.notifyMu.Lock()
	defer m.notifyMu.Unlock()

	m.mu.Lock()
	fn()
	snap := m.snapshotLocked()
	ls := make([]listener, len(m.listeners))
	copy(ls, m.listeners)
	m.mu.Unlock()

	for _, l := range ls {
		l.fn(snap)
	}
}

// begin takes a ticket and marks an operation in flight. If check fails
// nothing changes.
func (m *Manager) begin(check func() error) (ticket uint64, token string, err error) {
	m.mutate(func() {
		if check != nil {
			if err = check(); err != nil {
				return
			}
		}
		m.seq++
		m.pending++
		ticket, token = m.seq, m.token
	})
	return ticket, token, err
}

// finish ends the operation holding ticket. apply runs under the state lock
// only when the ticket is still the latest; otherwise ErrSuperseded is
// returned. superseded, if set, runs instead.
func (m *Manager) finish(ticket uint64, apply, superseded func() error) error {
	var err error
	m.mutate(func() {
		m.pending--
		if ticket != m.seq {
			err = ErrSuperseded
			if superseded != nil {
				_ = superseded()
			}
			return
		}
		if apply != nil {
			err = apply()
		}
	})
	return err
}

// Start restores a persisted session. A missing token settles anonymous
// without a network call; a token the server does not accept, for any
// reason, is evicted. Verification failures are logged, never returned.
// Calls after the first are no-ops.
func (m *Manager) Start(ctx context.Context) error {
	ticket, _, err := m.begin(func() error {
		if m.status != models.StatusUninitialized {
			return errAlreadyStarted
		}
		m.status = models.StatusVerifying
		return nil
	})
	if err != nil {
		return nil
	}

	settleAnonymous := func() error {
		if m.status == models.StatusVerifying {
			m.status = models.StatusAnonymous
		}
		return nil
	}

	raw, err := m.store.Get(ctx, common.TokenStorageKey)
	if err != nil {
		_ = m.finish(ticket, settleAnonymous, settleAnonymous)
		m.log.Error(ctx, "reading stored token failed", "error", err)
		return fmt.Errorf("read stored token: %w", err)
	}

	token := string(raw)
	if token == "" {
		_ = m.finish(ticket, settleAnonymous, settleAnonymous)
		m.log.Info(ctx, "no stored session")
		return nil
	}

	user, verr := m.client.Verify(ctx, token)
	commitCtx := context.WithoutCancel(ctx)

	// A later operation that left no token in memory must not leave the
	// verified one in storage either.
	var evictErr error
	settleSuperseded := func() error {
		_ = settleAnonymous()
		if m.token == "" {
			evictErr = m.store.Delete(commitCtx, common.TokenStorageKey)
		}
		return nil
	}

	err = m.finish(ticket, func() error {
		if verr != nil {
			m.status = models.StatusAnonymous
			return m.store.Delete(commitCtx, common.TokenStorageKey)
		}
		m.user, m.token = user.Clone(), token
		m.status = models.StatusAuthenticated
		return nil
	}, settleSuperseded)

	switch {
	case errors.Is(err, ErrSuperseded):
		m.log.Debug(ctx, "startup verification superseded")
		if evictErr != nil {
			m.log.Error(ctx, "evicting stored token failed", "error", evictErr)
		}
		return nil
	case verr != nil:
		m.log.Warn(ctx, "stored session rejected, starting anonymous", "error", verr)
		if err != nil {
			m.log.Error(ctx, "evicting stored token failed", "error", err)
		}
		return nil
	case err != nil:
		return err
	}

	m.log.Info(ctx, "session restored", "user_id", user.ID)
	return nil
}

// Login authenticates with email and password. Shape validation is the
// caller's job; only presence is checked here.
func (m *Manager) Login(ctx context.Context, email, password string) (*client.AuthResult, error) {
	if email == "" || password == "" {
		return nil, ErrMissingCredentials
	}

	ticket, _, _ := m.begin(nil)
	res, err := m.client.Login(ctx, email, password)
	return m.settleAuth(ctx, ticket, "login", res, err)
}

// Register creates an account and signs in with the issued token.
func (m *Manager) Register(ctx context.Context, reg models.Registration) (*client.AuthResult, error) {
	ticket, _, _ := m.begin(nil)
	res, err := m.client.Register(ctx, reg)
	return m.settleAuth(ctx, ticket, "register", res, err)
}

func (m *Manager) settleAuth(ctx context.Context, ticket uint64, op string, res *client.AuthResult, opErr error) (*client.AuthResult, error) {
	commitCtx := context.WithoutCancel(ctx)

	err := m.finish(ticket, func() error {
		if opErr != nil {
			return opErr
		}
		if err := m.store.Set(commitCtx, common.TokenStorageKey, []byte(res.Token)); err != nil {
			return fmt.Errorf("persist token: %w", err)
		}
		m.user, m.token = res.User.Clone(), res.Token
		m.status = models.StatusAuthenticated
		return nil
	}, nil)

	switch {
	case err == nil:
		m.log.Info(ctx, op+" succeeded", "user_id", res.User.ID)
		return res, nil
	case errors.Is(err, ErrSuperseded):
		m.log.Debug(ctx, op+" result discarded", "cause", opErr)
	case err == opErr:
		m.log.Info(ctx, op+" failed", "error", err)
	default:
		m.log.Error(ctx, op+" failed", "error", err)
	}
	return nil, err
}

// Logout ends the session. Local state and everything in the durable store
// are cleared first and unconditionally; the server is then told on a best-effort
// basis. Calling it without a session is a no-op beyond the clearing.
func (m *Manager) Logout(ctx context.Context) error {
	commitCtx := context.WithoutCancel(ctx)

	var (
		token     string
		deleteErr error
	)
	m.mutate(func() {
		m.seq++
		m.pending++
		token = m.token
		m.user, m.token = nil, ""
		m.status = models.StatusAnonymous
		deleteErr = m.store.Clear(commitCtx)
	})

	if token != "" {
		if err := m.client.Logout(ctx, token); err != nil {
			m.log.Warn(ctx, "server logout failed, session cleared locally", "error", err)
		}
	}

	m.mutate(func() { m.pending-- })

	if deleteErr != nil {
		m.log.Error(ctx, "removing stored token failed", "error", deleteErr)
		return fmt.Errorf("remove stored token: %w", deleteErr)
	}
	m.log.Info(ctx, "logged out")
	return nil
}

// UpdateProfile sends patch and replaces the user with the server's copy.
// The token is left as is.
func (m *Manager) UpdateProfile(ctx context.Context, patch models.ProfilePatch) (*models.UserProfile, error) {
	ticket, token, err := m.begin(func() error {
		if m.user == nil || m.token == "" {
			return ErrNotAuthenticated
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	user, opErr := m.client.UpdateProfile(ctx, token, patch)

	err = m.finish(ticket, func() error {
		if opErr != nil {
			return opErr
		}
		m.user = user.Clone()
		return nil
	}, nil)

	switch {
	case err == nil:
		m.log.Info(ctx, "profile updated", "user_id", user.ID)
		return user.Clone(), nil
	case errors.Is(err, ErrSuperseded):
		m.log.Debug(ctx, "profile update result discarded", "cause", opErr)
	default:
		m.log.Info(ctx, "profile update failed", "error", err)
	}
	return nil, err
}
