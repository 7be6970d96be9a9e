// Package account keeps the signed-in user identity for the session and
// persists it across restarts.
package account

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"memepump/internal/localstore"
	"memepump/pkg/memepump"

	"go.uber.org/zap"
)

// StorageKey holds the JSON identity record (id, username, avatar, bio, socials).
const StorageKey = "memepump_user"

var ErrNotLoggedIn = errors.New("not logged in")

// API is the subset of the REST API used for identity. *memepump.RESTClient satisfies it.
type API interface {
	CreateUser(ctx context.Context, req memepump.CreateUserRequest) (*memepump.User, error)
	Login(ctx context.Context, req memepump.LoginRequest) (*memepump.User, error)
	UpdateUser(ctx context.Context, id string, req memepump.UpdateUserRequest) (*memepump.User, error)
	GetPortfolio(ctx context.Context, userID string) ([]memepump.PortfolioItem, error)
}

// Manager owns the current identity. It is loaded once and changed only
// through Register, Login, Update and Logout.
type Manager struct {
	api    API
	kv     localstore.KV
	logger *zap.Logger

	mu      sync.RWMutex
	current *memepump.User
}

func NewManager(api API, kv localstore.KV, logger *zap.Logger) *Manager {
	return &Manager{api: api, kv: kv, logger: logger}
}

// Restore loads a previously saved identity. An absent record means logged
// out; an unreadable one is discarded.
func (m *Manager) Restore() (memepump.User, bool) {
	var u memepump.User
	err := localstore.GetJSON(m.kv, StorageKey, &u)
	switch {
	case errors.Is(err, localstore.ErrNotFound):
		return memepump.User{}, false
	case err != nil:
		m.logger.Warn("discarding unreadable identity record", zap.Error(err))
		_ = m.kv.Delete(StorageKey)
		return memepump.User{}, false
	case u.ID == "":
		m.logger.Warn("discarding identity record without id")
		_ = m.kv.Delete(StorageKey)
		return memepump.User{}, false
	}

	m.mu.Lock()
	m.current = &u
	m.mu.Unlock()
	m.logger.Info("restored identity", zap.String("user", u.Username))
	return u, true
}

// Current returns the signed-in user.
func (m *Manager) Current() (memepump.User, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return memepump.User{}, false
	}
	return *m.current, true
}

func (m *Manager) Register(ctx context.Context, req memepump.CreateUserRequest) (memepump.User, error) {
	u, err := m.api.CreateUser(ctx, req)
	if err != nil {
		return memepump.User{}, fmt.Errorf("register: %w", err)
	}
	return m.save(u)
}

func (m *Manager) Login(ctx context.Context, username, pin string) (memepump.User, error) {
	u, err := m.api.Login(ctx, memepump.LoginRequest{Username: username, Pin: pin})
	if err != nil {
		return memepump.User{}, fmt.Errorf("login: %w", err)
	}
	return m.save(u)
}

// Update changes the signed-in user's profile. req.Pin authorises the change.
func (m *Manager) Update(ctx context.Context, req memepump.UpdateUserRequest) (memepump.User, error) {
	cur, ok := m.Current()
	if !ok {
		return memepump.User{}, ErrNotLoggedIn
	}
	u, err := m.api.UpdateUser(ctx, cur.ID, req)
	if err != nil {
		return memepump.User{}, fmt.Errorf("update profile: %w", err)
	}
	return m.save(u)
}

// Logout forgets the identity. It is safe to call when logged out.
func (m *Manager) Logout() error {
	m.mu.Lock()
	m.current = nil
	m.mu.Unlock()

	if err := m.kv.Delete(StorageKey); err != nil {
		return fmt.Errorf("clear identity: %w", err)
	}
	return nil
}

func (m *Manager) save(u *memepump.User) (memepump.User, error) {
	if u == nil || u.ID == "" {
		return memepump.User{}, errors.New("server returned a user without id")
	}
	if err := localstore.SetJSON(m.kv, StorageKey, u); err != nil {
		return memepump.User{}, fmt.Errorf("persist identity: %w", err)
	}

	m.mu.Lock()
	m.current = u
	m.mu.Unlock()
	m.logger.Info("identity saved", zap.String("user", u.Username))
	return *u, nil
}
