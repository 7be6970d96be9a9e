package wallet

import (
	"errors"
	"fmt"
)

var (
	ErrNotInstalled        = errors.New("wallet not installed")
	ErrNotConnected        = errors.New("wallet not connected")
	ErrProviderUnavailable = errors.New("wallet provider unavailable")
	ErrRejected            = errors.New("request rejected by user")
	ErrNoWallet            = errors.New("no wallet detected, install Phantom or MetaMask")
	ErrUnknownChain        = errors.New("unknown chain")
)

// NotInstalledError reports a connect attempt for a chain without a provider.
// It matches ErrNotInstalled.
type NotInstalledError struct {
	Chain      Chain
	InstallURL string
}

func (e *NotInstalledError) Error() string {
	return fmt.Sprintf("%s wallet not installed, get one at %s", e.Chain, e.InstallURL)
}

func (e *NotInstalledError) Is(target error) bool {
	return target == ErrNotInstalled
}

// ProviderError is an EIP-1193 provider error. Code 4001 means the user
// rejected the request and matches ErrRejected.
type ProviderError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

const codeUserRejected = 4001

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider error %d: %s", e.Code, e.Message)
}

func (e *ProviderError) Is(target error) bool {
	return target == ErrRejected && e.Code == codeUserRejected
}
