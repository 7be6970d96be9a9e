package account

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"memepump/internal/localstore"
	"memepump/pkg/memepump"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func fakeServer(t *testing.T) *httptest.Server {
	t.Helper()
	users := map[string]memepump.User{}
	pins := map[string]string{}

	writeJSON := func(w http.ResponseWriter, status int, v any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(v)
	}

	r := mux.NewRouter()
	r.HandleFunc("/users", func(w http.ResponseWriter, r *http.Request) {
		var req memepump.CreateUserRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		u := memepump.User{ID: "u-" + req.Username, Username: req.Username, Avatar: req.Avatar, Bio: req.Bio}
		users[u.ID], pins[u.ID] = u, req.Pin
		writeJSON(w, http.StatusCreated, u)
	}).Methods(http.MethodPost)
	r.HandleFunc("/users/login", func(w http.ResponseWriter, r *http.Request) {
		var req memepump.LoginRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		id := "u-" + req.Username
		if pins[id] != req.Pin {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid username or PIN"})
			return
		}
		writeJSON(w, http.StatusOK, users[id])
	}).Methods(http.MethodPost)
	r.HandleFunc("/users/{id}", func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]
		var req memepump.UpdateUserRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if pins[id] != req.Pin {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid PIN"})
			return
		}
		u := users[id]
		u.Bio = req.Bio
		users[id] = u
		writeJSON(w, http.StatusOK, u)
	}).Methods(http.MethodPut)
	r.HandleFunc("/users/{id}/portfolio", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []memepump.PortfolioItem{
			{Coin: &memepump.Coin{ID: "c1", Symbol: "PEPE", Price: 0.2}, Amount: 10, Value: 2, AvgPrice: 0.1},
			{Coin: &memepump.Coin{ID: "c2", Symbol: "DOGE", Price: 0.05}, Amount: 20, Value: 1, AvgPrice: 0.1},
		})
	}).Methods(http.MethodGet)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func newManager(t *testing.T, kv localstore.KV) *Manager {
	t.Helper()
	srv := fakeServer(t)
	return NewManager(memepump.NewRESTClient(srv.URL, 2*time.Second), kv, zap.NewNop())
}

func memKV(t *testing.T) *localstore.Badger {
	t.Helper()
	kv, err := localstore.Open(localstore.Options{InMemory: true}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = kv.Close() })
	return kv
}

func TestRegisterPersistsWithoutPin(t *testing.T) {
	kv := memKV(t)
	m := newManager(t, kv)

	u, err := m.Register(context.Background(), memepump.CreateUserRequest{Username: "alice", Pin: "1234", Bio: "gm"})
	require.NoError(t, err)
	assert.Equal(t, "u-alice", u.ID)

	raw, err := kv.Get(StorageKey)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "1234")
	assert.Contains(t, string(raw), `"username":"alice"`)

	// a fresh manager over the same storage restores the identity
	restored, ok := NewManager(nil, kv, zap.NewNop()).Restore()
	require.True(t, ok)
	assert.Equal(t, u, restored)
}

func TestLoginAndUpdate(t *testing.T) {
	m := newManager(t, memKV(t))
	ctx := context.Background()

	_, err := m.Update(ctx, memepump.UpdateUserRequest{Pin: "1234", Bio: "x"})
	assert.ErrorIs(t, err, ErrNotLoggedIn)

	_, err = m.Register(ctx, memepump.CreateUserRequest{Username: "bob", Pin: "1234"})
	require.NoError(t, err)
	require.NoError(t, m.Logout())

	_, err = m.Login(ctx, "bob", "0000")
	var apiErr *memepump.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	_, ok := m.Current()
	assert.False(t, ok)

	_, err = m.Login(ctx, "bob", "")
	assert.ErrorIs(t, err, memepump.ErrValidation)

	_, err = m.Login(ctx, "bob", "1234")
	require.NoError(t, err)

	u, err := m.Update(ctx, memepump.UpdateUserRequest{Pin: "1234", Bio: "wagmi"})
	require.NoError(t, err)
	assert.Equal(t, "wagmi", u.Bio)
	cur, _ := m.Current()
	assert.Equal(t, "wagmi", cur.Bio)
}

func TestLogoutClearsRecord(t *testing.T) {
	kv := memKV(t)
	m := newManager(t, kv)

	_, err := m.Register(context.Background(), memepump.CreateUserRequest{Username: "carol", Pin: "1"})
	require.NoError(t, err)
	require.NoError(t, m.Logout())
	require.NoError(t, m.Logout())

	_, err = kv.Get(StorageKey)
	assert.ErrorIs(t, err, localstore.ErrNotFound)
	_, ok := m.Restore()
	assert.False(t, ok)
}

func TestRestoreDiscardsCorruptRecord(t *testing.T) {
	kv := memKV(t)
	require.NoError(t, kv.Set(StorageKey, []byte("not json")))

	_, ok := NewManager(nil, kv, zap.NewNop()).Restore()
	assert.False(t, ok)
	_, err := kv.Get(StorageKey)
	assert.ErrorIs(t, err, localstore.ErrNotFound)
}

func TestPortfolioTotals(t *testing.T) {
	m := newManager(t, memKV(t))
	ctx := context.Background()

	_, err := m.Portfolio(ctx)
	assert.ErrorIs(t, err, ErrNotLoggedIn)

	_, err = m.Register(ctx, memepump.CreateUserRequest{Username: "dave", Pin: "1"})
	require.NoError(t, err)

	p, err := m.Portfolio(ctx)
	require.NoError(t, err)
	require.Len(t, p.Holdings, 2)
	assert.Equal(t, "3", p.TotalValue.String())
	assert.Equal(t, "3", p.TotalCost.String())
	assert.Equal(t, "0", p.TotalPnL.String())
	assert.Equal(t, "1", p.Holdings[0].PnL.String())
	assert.Equal(t, "-1", p.Holdings[1].PnL.String())
	assert.True(t, p.PnLPercent().IsZero())
}
