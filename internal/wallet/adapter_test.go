package wallet

import (
	"context"
	"crypto/ed25519"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"memepump/internal/localstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func memKV(t *testing.T) *localstore.Badger {
	t.Helper()
	kv, err := localstore.Open(localstore.Options{InMemory: true}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = kv.Close() })
	return kv
}

func testKeypair(t *testing.T) *KeypairProvider {
	t.Helper()
	seed := make([]byte, ed25519.SeedSize)
	for i := range seed {
		seed[i] = byte(i)
	}
	p, err := NewKeypairProvider(ed25519.NewKeyFromSeed(seed))
	require.NoError(t, err)
	return p
}

// countingSolana records handshakes.
type countingSolana struct {
	*KeypairProvider
	connects    atomic.Int32
	disconnects atomic.Int32
}

func (c *countingSolana) Connect(ctx context.Context) (string, error) {
	c.connects.Add(1)
	return c.KeypairProvider.Connect(ctx)
}

func (c *countingSolana) Disconnect(ctx context.Context) error {
	c.disconnects.Add(1)
	return c.KeypairProvider.Disconnect(ctx)
}

type rpcLog struct {
	mu   sync.Mutex
	reqs []rpcRequest
}

func (l *rpcLog) requests() []rpcRequest {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]rpcRequest(nil), l.reqs...)
}

// rpcWallet is a JSON-RPC wallet bridge answering EIP-1193 methods.
func rpcWallet(t *testing.T, reject bool) (*httptest.Server, *rpcLog) {
	t.Helper()
	log := &rpcLog{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		log.mu.Lock()
		log.reqs = append(log.reqs, req)
		log.mu.Unlock()

		resp := map[string]any{"jsonrpc": "2.0", "id": req.ID}
		switch {
		case reject:
			resp["error"] = map[string]any{"code": 4001, "message": "User rejected the request."}
		case req.Method == "eth_requestAccounts":
			resp["result"] = []string{"0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed"}
		case req.Method == "personal_sign":
			resp["result"] = "0xdeadbeef"
		default:
			resp["error"] = map[string]any{"code": -32601, "message": "method not found"}
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv, log
}

func TestConnectSolanaNotInstalled(t *testing.T) {
	kv := memKV(t)
	a := NewAdapter(&Injected{}, kv, zap.NewNop())

	_, err := a.Connect(context.Background(), ChainSolana)
	require.ErrorIs(t, err, ErrNotInstalled)
	var nie *NotInstalledError
	require.ErrorAs(t, err, &nie)
	assert.Equal(t, PhantomInstallURL, nie.InstallURL)

	_, connected := a.Session()
	assert.False(t, connected)
	_, err = kv.Get(WalletKey)
	assert.ErrorIs(t, err, localstore.ErrNotFound)
}

func TestConnectPersistsAndRestoreSkipsHandshake(t *testing.T) {
	kv := memKV(t)
	sol := &countingSolana{KeypairProvider: testKeypair(t)}
	env := &Injected{}
	env.SetSolana(sol)

	s, err := NewAdapter(env, kv, zap.NewNop()).Connect(context.Background(), ChainSolana)
	require.NoError(t, err)
	assert.Equal(t, ChainSolana, s.Chain)
	assert.Equal(t, sol.Address(), s.Address)
	assert.Equal(t, int32(1), sol.connects.Load())

	// "reload": a new adapter over the same storage
	restored, ok := NewAdapter(env, kv, zap.NewNop()).RestoreSession()
	require.True(t, ok)
	assert.Equal(t, s, restored)
	assert.Equal(t, int32(1), sol.connects.Load())
}

func TestAutoDetectPrefersSolana(t *testing.T) {
	srv, _ := rpcWallet(t, false)
	ctx := context.Background()

	env := &Injected{}
	a := NewAdapter(env, memKV(t), zap.NewNop())
	_, err := a.Connect(ctx, "")
	assert.ErrorIs(t, err, ErrNoWallet)

	env.SetEthereum(NewRPCProvider(srv.URL, time.Second))
	assert.Equal(t, Availability{EVM: true}, a.DetectAvailability())
	s, err := a.Connect(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, ChainEVM, s.Chain)

	env.SetSolana(testKeypair(t))
	assert.Equal(t, Availability{Solana: true, EVM: true}, a.DetectAvailability())
	s, err = a.Connect(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, ChainSolana, s.Chain)
}

func TestEVMConnectAndSign(t *testing.T) {
	srv, seen := rpcWallet(t, false)
	env := &Injected{}
	env.SetEthereum(NewRPCProvider(srv.URL, time.Second))
	a := NewAdapter(env, memKV(t), zap.NewNop())
	ctx := context.Background()

	s, err := a.Connect(ctx, ChainEVM)
	require.NoError(t, err)
	assert.Equal(t, "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", s.Address)

	sig, err := a.SignMessage(ctx, "hi")
	require.NoError(t, err)
	assert.Equal(t, Signature{Signature: "0xdeadbeef", Message: "hi", Address: s.Address}, sig)

	reqs := seen.requests()
	require.Len(t, reqs, 2)
	last := reqs[1]
	assert.Equal(t, "personal_sign", last.Method)
	assert.Equal(t, []any{"0x6869", s.Address}, last.Params)

	// EVM keeps no provider session; disconnect is local only
	require.NoError(t, a.Disconnect(ctx))
	assert.Len(t, seen.requests(), 2)
}

func TestUserRejection(t *testing.T) {
	srv, _ := rpcWallet(t, true)
	env := &Injected{}
	env.SetEthereum(NewRPCProvider(srv.URL, time.Second))
	a := NewAdapter(env, memKV(t), zap.NewNop())

	_, err := a.Connect(context.Background(), ChainEVM)
	assert.ErrorIs(t, err, ErrRejected)
	_, ok := a.Session()
	assert.False(t, ok)

	kp := testKeypair(t)
	kp.Approve = func(context.Context, string) bool { return false }
	env.SetSolana(kp)
	_, err = a.Connect(context.Background(), ChainSolana)
	assert.ErrorIs(t, err, ErrRejected)
}

func TestSignMessageErrors(t *testing.T) {
	env := &Injected{}
	kp := testKeypair(t)
	env.SetSolana(kp)
	a := NewAdapter(env, memKV(t), zap.NewNop())
	ctx := context.Background()

	_, err := a.SignMessage(ctx, "hello")
	assert.ErrorIs(t, err, ErrNotConnected)

	s, err := a.Connect(ctx, ChainSolana)
	require.NoError(t, err)

	sig, err := a.SignMessage(ctx, "hello")
	require.NoError(t, err)
	require.NoError(t, VerifySolanaSignature(s.Address, []byte("hello"), sig.Signature))

	env.SetSolana(nil)
	_, err = a.SignMessage(ctx, "hello")
	assert.ErrorIs(t, err, ErrProviderUnavailable)
}

func TestSignRejectsSwappedKeypair(t *testing.T) {
	kv := memKV(t)
	env := &Injected{}
	env.SetSolana(testKeypair(t))
	ctx := context.Background()

	_, err := NewAdapter(env, kv, zap.NewNop()).Connect(ctx, ChainSolana)
	require.NoError(t, err)

	// the keypair file changes between runs
	seed := make([]byte, ed25519.SeedSize)
	seed[0] = 0xff
	other, err := NewKeypairProvider(ed25519.NewKeyFromSeed(seed))
	require.NoError(t, err)
	env.SetSolana(other)

	a := NewAdapter(env, kv, zap.NewNop())
	_, ok := a.RestoreSession()
	require.True(t, ok)
	_, err = a.SignMessage(ctx, "hello")
	assert.ErrorIs(t, err, ErrProviderUnavailable)
}

func TestConnectUnknownChain(t *testing.T) {
	a := NewAdapter(&Injected{}, memKV(t), zap.NewNop())
	_, err := a.Connect(context.Background(), Chain("cosmos"))
	assert.ErrorIs(t, err, ErrUnknownChain)
}

func TestDisconnectSolanaClearsSession(t *testing.T) {
	kv := memKV(t)
	sol := &countingSolana{KeypairProvider: testKeypair(t)}
	env := &Injected{}
	env.SetSolana(sol)
	a := NewAdapter(env, kv, zap.NewNop())
	ctx := context.Background()

	_, err := a.Connect(ctx, ChainSolana)
	require.NoError(t, err)
	require.NoError(t, a.Disconnect(ctx))

	assert.Equal(t, int32(1), sol.disconnects.Load())
	_, ok := a.Session()
	assert.False(t, ok)
	_, ok = NewAdapter(env, kv, zap.NewNop()).RestoreSession()
	assert.False(t, ok)

	// idempotent
	require.NoError(t, a.Disconnect(ctx))
}

func TestLoadKeypair(t *testing.T) {
	kp := testKeypair(t)
	ints := make([]int, 0, ed25519.PrivateKeySize)
	for _, b := range kp.key {
		ints = append(ints, int(b))
	}
	data, err := json.Marshal(ints)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "id.json")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	loaded, err := LoadKeypair(path)
	require.NoError(t, err)
	assert.Equal(t, kp.Address(), loaded.Address())

	bad := append([]byte(nil), kp.key...)
	bad[40] ^= 0xff
	_, err = NewKeypairProvider(bad)
	assert.Error(t, err)
}
