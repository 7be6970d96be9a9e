package wallet

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/mr-tron/base58"
)

// KeypairProvider is a SolanaProvider backed by a Solana CLI keypair file
// (a JSON array of 64 bytes: seed followed by public key).
type KeypairProvider struct {
	key ed25519.PrivateKey

	// Approve, if set, is asked before connecting and before every signature.
	// Returning false rejects the request.
	Approve func(ctx context.Context, action string) bool

	mu        sync.Mutex
	connected bool
}

// LoadKeypair reads a Solana CLI keypair file.
func LoadKeypair(path string) (*KeypairProvider, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read keypair: %w", err)
	}
	var raw []byte
	var ints []int
	if err := json.Unmarshal(data, &ints); err != nil {
		return nil, fmt.Errorf("decode keypair %s: %w", path, err)
	}
	for _, v := range ints {
		if v < 0 || v > 255 {
			return nil, fmt.Errorf("decode keypair %s: byte out of range", path)
		}
		raw = append(raw, byte(v))
	}
	return NewKeypairProvider(raw)
}

// NewKeypairProvider builds a provider from a 64-byte seed+public key pair.
func NewKeypairProvider(keypair []byte) (*KeypairProvider, error) {
	if len(keypair) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("keypair must be %d bytes, got %d", ed25519.PrivateKeySize, len(keypair))
	}
	key := ed25519.NewKeyFromSeed(keypair[:ed25519.SeedSize])
	if !bytes.Equal(key.Public().(ed25519.PublicKey), keypair[ed25519.SeedSize:]) {
		return nil, errors.New("keypair public key does not match its seed")
	}
	return &KeypairProvider{key: key}, nil
}

// Address is the base58 public key.
func (p *KeypairProvider) Address() string {
	return base58.Encode(p.key.Public().(ed25519.PublicKey))
}

func (p *KeypairProvider) Connect(ctx context.Context) (string, error) {
	if err := p.approve(ctx, "connect"); err != nil {
		return "", err
	}
	p.mu.Lock()
	p.connected = true
	p.mu.Unlock()
	return p.Address(), nil
}

func (p *KeypairProvider) Disconnect(context.Context) error {
	p.mu.Lock()
	p.connected = false
	p.mu.Unlock()
	return nil
}

func (p *KeypairProvider) SignMessage(ctx context.Context, message []byte) ([]byte, error) {
	p.mu.Lock()
	connected := p.connected
	p.mu.Unlock()
	if !connected {
		// a restored session never handshook with this provider
		if _, err := p.Connect(ctx); err != nil {
			return nil, err
		}
	}
	if err := p.approve(ctx, "sign message"); err != nil {
		return nil, err
	}
	return ed25519.Sign(p.key, message), nil
}

func (p *KeypairProvider) approve(ctx context.Context, action string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.Approve != nil && !p.Approve(ctx, action) {
		return ErrRejected
	}
	return nil
}
