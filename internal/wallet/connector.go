package wallet

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
)

// Connector is the capability set every wallet variant provides.
type Connector interface {
	Chain() Chain
	InstallURL() string
	// Available is a non-blocking probe for the variant's provider.
	Available() bool
	// Connect performs the provider handshake and returns the account address.
	Connect(ctx context.Context) (string, error)
	// Disconnect releases the provider session if the variant keeps one.
	Disconnect(ctx context.Context) error
	// SignMessage signs message for address and returns the encoded signature.
	SignMessage(ctx context.Context, address string, message []byte) (string, error)
}

type solanaConnector struct {
	env *Injected
}

// NewSolanaConnector returns the Solana-style variant.
func NewSolanaConnector(env *Injected) Connector {
	return solanaConnector{env: env}
}

func (solanaConnector) Chain() Chain       { return ChainSolana }
func (solanaConnector) InstallURL() string { return PhantomInstallURL }

func (c solanaConnector) Available() bool {
	_, ok := c.env.Solana()
	return ok
}

func (c solanaConnector) Connect(ctx context.Context) (string, error) {
	p, ok := c.env.Solana()
	if !ok {
		return "", ErrProviderUnavailable
	}
	addr, err := p.Connect(ctx)
	if err != nil {
		return "", err
	}
	if err := ValidateSolanaAddress(addr); err != nil {
		return "", fmt.Errorf("provider returned %w", err)
	}
	return addr, nil
}

func (c solanaConnector) Disconnect(ctx context.Context) error {
	p, ok := c.env.Solana()
	if !ok {
		return nil
	}
	return p.Disconnect(ctx)
}

// SignMessage returns the signature base64-encoded. A provider that exposes
// its key must hold the session's address, or the signature would be
// attributed to a key that did not produce it.
func (c solanaConnector) SignMessage(ctx context.Context, address string, message []byte) (string, error) {
	p, ok := c.env.Solana()
	if !ok {
		return "", ErrProviderUnavailable
	}
	if k, ok := p.(interface{ Address() string }); ok && k.Address() != address {
		return "", ErrProviderUnavailable
	}
	sig, err := p.SignMessage(ctx, message)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(sig), nil
}

type evmConnector struct {
	env *Injected
}

// NewEVMConnector returns the EVM-style variant. It keeps no client-side
// session, so Disconnect never reaches the provider.
func NewEVMConnector(env *Injected) Connector {
	return evmConnector{env: env}
}

func (evmConnector) Chain() Chain       { return ChainEVM }
func (evmConnector) InstallURL() string { return MetaMaskInstallURL }

func (c evmConnector) Available() bool {
	_, ok := c.env.Ethereum()
	return ok
}

func (c evmConnector) Connect(ctx context.Context) (string, error) {
	p, ok := c.env.Ethereum()
	if !ok {
		return "", ErrProviderUnavailable
	}
	raw, err := p.Request(ctx, "eth_requestAccounts")
	if err != nil {
		return "", err
	}
	var accounts []string
	if err := json.Unmarshal(raw, &accounts); err != nil {
		return "", fmt.Errorf("decode accounts: %w", err)
	}
	if len(accounts) == 0 {
		return "", errors.New("provider returned no accounts")
	}
	return ChecksumAddress(accounts[0])
}

func (evmConnector) Disconnect(context.Context) error { return nil }

// SignMessage uses personal_sign with the message hex-encoded as the
// provider expects and returns the signature as the provider reports it.
func (c evmConnector) SignMessage(ctx context.Context, address string, message []byte) (string, error) {
	p, ok := c.env.Ethereum()
	if !ok {
		return "", ErrProviderUnavailable
	}
	raw, err := p.Request(ctx, "personal_sign", "0x"+hex.EncodeToString(message), address)
	if err != nil {
		return "", err
	}
	var sig string
	if err := json.Unmarshal(raw, &sig); err != nil {
		return "", fmt.Errorf("decode signature: %w", err)
	}
	return sig, nil
}
