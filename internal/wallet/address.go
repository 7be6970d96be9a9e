package wallet

import (
	"crypto/ed25519"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
	"golang.org/x/crypto/sha3"
)

var (
	ErrInvalidAddress   = errors.New("invalid address")
	ErrInvalidSignature = errors.New("invalid signature")
)

// ValidateSolanaAddress checks that addr is a base58 ed25519 public key on the curve.
func ValidateSolanaAddress(addr string) error {
	_, err := decodeSolanaAddress(addr)
	return err
}

func decodeSolanaAddress(addr string) (ed25519.PublicKey, error) {
	b, err := base58.Decode(addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %q is not base58", ErrInvalidAddress, addr)
	}
	if len(b) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("%w: %q decodes to %d bytes", ErrInvalidAddress, addr, len(b))
	}
	if _, err := new(edwards25519.Point).SetBytes(b); err != nil {
		return nil, fmt.Errorf("%w: %q is off the ed25519 curve", ErrInvalidAddress, addr)
	}
	return ed25519.PublicKey(b), nil
}

// VerifySolanaSignature checks a base64 signature produced by a Solana wallet
// over message.
func VerifySolanaSignature(address string, message []byte, signature string) error {
	pub, err := decodeSolanaAddress(address)
	if err != nil {
		return err
	}
	sig, err := base64.StdEncoding.DecodeString(signature)
	if err != nil || len(sig) != ed25519.SignatureSize {
		return fmt.Errorf("%w: malformed", ErrInvalidSignature)
	}
	if !ed25519.Verify(pub, message, sig) {
		return ErrInvalidSignature
	}
	return nil
}

// ChecksumAddress returns the EIP-55 mixed-case form of a 20-byte hex address.
func ChecksumAddress(addr string) (string, error) {
	h := strings.TrimPrefix(strings.TrimPrefix(addr, "0x"), "0X")
	if len(h) != 40 {
		return "", fmt.Errorf("%w: %q is not 20 bytes", ErrInvalidAddress, addr)
	}
	if _, err := hex.DecodeString(h); err != nil {
		return "", fmt.Errorf("%w: %q is not hex", ErrInvalidAddress, addr)
	}
	lower := strings.ToLower(h)

	hasher := sha3.NewLegacyKeccak256()
	hasher.Write([]byte(lower))
	hash := hasher.Sum(nil)

	out := []byte(lower)
	for i, c := range out {
		if c < 'a' {
			continue
		}
		nibble := hash[i/2]
		if i%2 == 0 {
			nibble >>= 4
		}
		if nibble&0x0f >= 8 {
			out[i] = c - 'a' + 'A'
		}
	}
	return "0x" + string(out), nil
}
