package signer

import (
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/anyproto/go-slip10"
	"github.com/btcsuite/btcd/btcutil/bech32"
	"github.com/tyler-smith/go-bip39"
)

const (
	// AddressHRP is the bech32 human readable part of account addresses.
	AddressHRP = "erd"
	// CoinType is the registered BIP-44 coin type.
	CoinType = 508

	phraseEntropyBits = 256 // 24 words
)

// Ed25519 derives keys along m/44'/508'/0'/0'/Index' and signs with ed25519.
type Ed25519 struct {
	Index uint32
}

var _ Crypto = Ed25519{}

func (Ed25519) GenerateRecoveryPhrase() (string, error) {
	entropy, err := bip39.NewEntropy(phraseEntropyBits)
	if err != nil {
		return "", fmt.Errorf("generate entropy: %w", err)
	}
	defer clear(entropy)
	return bip39.NewMnemonic(entropy)
}

func (e Ed25519) DeriveKeyFromPhrase(phrase string) (string, error) {
	phrase = normalizePhrase(phrase)
	if !bip39.IsMnemonicValid(phrase) {
		return "", ErrInvalidPhrase
	}
	seed := bip39.NewSeed(phrase, "")
	defer clear(seed)

	node, err := slip10.DeriveForPath(e.Path(), seed)
	if err != nil {
		return "", fmt.Errorf("derive key: %w", err)
	}
	_, priv := node.Keypair()
	defer clear(priv)
	return hex.EncodeToString(priv.Seed()), nil
}

// Path is the hardened derivation path for this account index.
func (e Ed25519) Path() string {
	return fmt.Sprintf("m/44'/%d'/0'/0'/%d'", CoinType, e.Index)
}

func (Ed25519) DeriveAddress(secretKey string) (string, error) {
	priv, err := privateKey(secretKey)
	if err != nil {
		return "", err
	}
	defer clear(priv)
	return EncodeAddress(priv.Public().(ed25519.PublicKey))
}

func (Ed25519) Sign(secretKey string, payload []byte) ([]byte, error) {
	priv, err := privateKey(secretKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSigning, err)
	}
	defer clear(priv)
	return ed25519.Sign(priv, payload), nil
}

func (Ed25519) ValidateAddress(address string) error {
	_, err := DecodeAddress(address)
	return err
}

// EncodeAddress renders a 32-byte public key as an erd1... address.
func EncodeAddress(pub []byte) (string, error) {
	if len(pub) != ed25519.PublicKeySize {
		return "", fmt.Errorf("%w: public key must be %d bytes", ErrInvalidAddress, ed25519.PublicKeySize)
	}
	data, err := bech32.ConvertBits(pub, 8, 5, true)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	return bech32.Encode(AddressHRP, data)
}

// DecodeAddress returns the public key behind an erd1... address.
func DecodeAddress(address string) ([]byte, error) {
	hrp, data, err := bech32.Decode(address)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	if hrp != AddressHRP {
		return nil, fmt.Errorf("%w: expected %s prefix, got %s", ErrInvalidAddress, AddressHRP, hrp)
	}
	pub, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	if len(pub) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("%w: wrong length", ErrInvalidAddress)
	}
	return pub, nil
}

// Verify checks an ed25519 signature made by the owner of address.
func Verify(address string, payload, signature []byte) bool {
	pub, err := DecodeAddress(address)
	if err != nil {
		return false
	}
	return ed25519.Verify(pub, payload, signature)
}

func privateKey(secretKey string) (ed25519.PrivateKey, error) {
	secretKey = strings.TrimPrefix(strings.TrimSpace(secretKey), "0x")
	raw, err := hex.DecodeString(secretKey)
	if err != nil {
		return nil, fmt.Errorf("%w: not hex", ErrInvalidKey)
	}
	defer clear(raw)

	switch len(raw) {
	case ed25519.SeedSize:
		return ed25519.NewKeyFromSeed(raw), nil
	case ed25519.PrivateKeySize:
		// seed || public key, as some exporters write it
		return ed25519.NewKeyFromSeed(raw[:ed25519.SeedSize]), nil
	default:
		return nil, fmt.Errorf("%w: expected %d or %d bytes, got %d", ErrInvalidKey, ed25519.SeedSize, ed25519.PrivateKeySize, len(raw))
	}
}

func normalizePhrase(phrase string) string {
	return strings.Join(strings.Fields(strings.ToLower(phrase)), " ")
}
