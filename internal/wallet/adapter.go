// Package wallet connects to Solana-style and EVM-style wallet providers
// through a single capability interface and keeps the session across restarts.
package wallet

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"memepump/internal/localstore"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Storage keys of the persisted session. Both must be present to restore.
const (
	WalletKey = "memepump_wallet"
	ChainKey  = "memepump_chain"
)

type Session struct {
	Address string `json:"address"`
	Chain   Chain  `json:"chain"`
}

// Signature is the result of SignMessage.
type Signature struct {
	Signature string `json:"signature"`
	Message   string `json:"message"`
	Address   string `json:"address"`
}

// Availability reports which providers are present.
type Availability struct {
	Solana bool `json:"solana"`
	EVM    bool `json:"evm"`
}

// Adapter owns the wallet session. Connectors are tried in the order given
// to NewAdapter when no chain is requested.
type Adapter struct {
	connectors []Connector
	kv         localstore.KV
	logger     *zap.Logger

	mu      sync.Mutex
	session *Session
}

// NewAdapter creates an adapter over the injected providers, preferring Solana.
func NewAdapter(env *Injected, kv localstore.KV, logger *zap.Logger) *Adapter {
	return NewAdapterWithConnectors(kv, logger, NewSolanaConnector(env), NewEVMConnector(env))
}

func NewAdapterWithConnectors(kv localstore.KV, logger *zap.Logger, connectors ...Connector) *Adapter {
	return &Adapter{connectors: connectors, kv: kv, logger: logger}
}

// DetectAvailability probes every provider without prompting.
func (a *Adapter) DetectAvailability() Availability {
	var av Availability
	for _, c := range a.connectors {
		switch c.Chain() {
		case ChainSolana:
			av.Solana = av.Solana || c.Available()
		case ChainEVM:
			av.EVM = av.EVM || c.Available()
		}
	}
	return av
}

func (a *Adapter) connector(chain Chain) (Connector, bool) {
	for _, c := range a.connectors {
		if c.Chain() == chain {
			return c, true
		}
	}
	return nil, false
}

// Connect connects the wallet of the given chain, or the first available one
// when chain is empty. A missing provider yields a *NotInstalledError and
// leaves the session unchanged; with no provider at all auto-detection
// yields ErrNoWallet.
func (a *Adapter) Connect(ctx context.Context, chain Chain) (Session, error) {
	var c Connector
	if chain == "" {
		for _, cand := range a.connectors {
			if cand.Available() {
				c = cand
				break
			}
		}
		if c == nil {
			return Session{}, ErrNoWallet
		}
	} else {
		var ok bool
		if c, ok = a.connector(chain); !ok {
			return Session{}, fmt.Errorf("%w %q", ErrUnknownChain, chain)
		}
		if !c.Available() {
			a.logger.Info("wallet not installed", zap.String("chain", string(chain)), zap.String("install", c.InstallURL()))
			return Session{}, &NotInstalledError{Chain: chain, InstallURL: c.InstallURL()}
		}
	}

	// the provider may wait on the user indefinitely, so no lock is held here
	addr, err := c.Connect(ctx)
	if err != nil {
		if errors.Is(err, ErrRejected) {
			a.logger.Info("wallet connection rejected", zap.String("chain", string(c.Chain())))
		} else {
			a.logger.Warn("wallet connection failed", zap.String("chain", string(c.Chain())), zap.Error(err))
		}
		return Session{}, fmt.Errorf("connect %s wallet: %w", c.Chain(), err)
	}

	s := Session{Address: addr, Chain: c.Chain()}
	a.mu.Lock()
	a.session = &s
	a.mu.Unlock()

	if err := a.persist(s); err != nil {
		a.logger.Warn("failed to persist wallet session", zap.Error(err))
	}
	a.logger.Info("wallet connected", zap.String("chain", string(s.Chain)), zap.String("address", s.Address))
	return s, nil
}

// RestoreSession marks the adapter connected from the persisted session
// without contacting any provider.
func (a *Adapter) RestoreSession() (Session, bool) {
	addr, err := a.kv.Get(WalletKey)
	if err != nil {
		return Session{}, false
	}
	chain, err := a.kv.Get(ChainKey)
	if err != nil {
		return Session{}, false
	}
	s := Session{Address: string(addr), Chain: Chain(chain)}
	if s.Address == "" {
		return Session{}, false
	}
	if _, ok := a.connector(s.Chain); !ok {
		a.logger.Warn("ignoring persisted wallet session for unknown chain", zap.String("chain", string(s.Chain)))
		return Session{}, false
	}

	a.mu.Lock()
	a.session = &s
	a.mu.Unlock()
	a.logger.Info("wallet session restored", zap.String("chain", string(s.Chain)), zap.String("address", s.Address))
	return s, true
}

// Session returns the current session.
func (a *Adapter) Session() (Session, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.session == nil {
		return Session{}, false
	}
	return *a.session, true
}

// Disconnect releases the provider session where the variant keeps one,
// then clears the session and its persisted record. Provider failures are
// logged, never returned.
func (a *Adapter) Disconnect(ctx context.Context) error {
	a.mu.Lock()
	s := a.session
	a.session = nil
	a.mu.Unlock()

	if s != nil {
		if c, ok := a.connector(s.Chain); ok {
			if err := c.Disconnect(ctx); err != nil {
				a.logger.Warn("provider disconnect failed", zap.String("chain", string(s.Chain)), zap.Error(err))
			}
		}
	}

	err := multierr.Append(a.kv.Delete(WalletKey), a.kv.Delete(ChainKey))
	if err != nil {
		return fmt.Errorf("clear wallet session: %w", err)
	}
	a.logger.Info("wallet disconnected")
	return nil
}

// SignMessage signs message with the connected wallet.
func (a *Adapter) SignMessage(ctx context.Context, message string) (Signature, error) {
	s, ok := a.Session()
	if !ok {
		return Signature{}, ErrNotConnected
	}
	c, ok := a.connector(s.Chain)
	if !ok || !c.Available() {
		return Signature{}, ErrProviderUnavailable
	}

	sig, err := c.SignMessage(ctx, s.Address, []byte(message))
	if err != nil {
		return Signature{}, fmt.Errorf("sign with %s wallet: %w", s.Chain, err)
	}
	return Signature{Signature: sig, Message: message, Address: s.Address}, nil
}

func (a *Adapter) persist(s Session) error {
	if err := a.kv.Set(WalletKey, []byte(s.Address)); err != nil {
		return err
	}
	return a.kv.Set(ChainKey, []byte(s.Chain))
}
