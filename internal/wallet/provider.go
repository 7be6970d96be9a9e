package wallet

import (
	"context"
	"encoding/json"
	"sync"
)

// Chain names a wallet variant. The values are the persisted chain record.
type Chain string

const (
	ChainSolana Chain = "solana"
	ChainEVM    Chain = "evm"
)

// Install hints shown when a provider is missing.
const (
	PhantomInstallURL  = "https://phantom.app/"
	MetaMaskInstallURL = "https://metamask.io/"
)

// SolanaProvider is a Phantom-shaped provider. Connect returns the base58 public key.
type SolanaProvider interface {
	Connect(ctx context.Context) (string, error)
	Disconnect(ctx context.Context) error
	SignMessage(ctx context.Context, message []byte) ([]byte, error)
}

// EthereumProvider is an EIP-1193 provider.
type EthereumProvider interface {
	Request(ctx context.Context, method string, params ...any) (json.RawMessage, error)
}

// Injected holds the providers currently present. Providers may be
// installed or removed while the program runs.
type Injected struct {
	mu       sync.RWMutex
	solana   SolanaProvider
	ethereum EthereumProvider
}

func (i *Injected) SetSolana(p SolanaProvider) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.solana = p
}

func (i *Injected) SetEthereum(p EthereumProvider) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.ethereum = p
}

func (i *Injected) Solana() (SolanaProvider, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.solana, i.solana != nil
}

func (i *Injected) Ethereum() (EthereumProvider, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.ethereum, i.ethereum != nil
}
