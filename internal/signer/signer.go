package signer

import "errors"

var (
	ErrInvalidPhrase  = errors.New("invalid recovery phrase")
	ErrInvalidKey     = errors.New("invalid private key")
	ErrInvalidAddress = errors.New("invalid address")
	ErrSigning        = errors.New("signing failed")
)

// Crypto is everything the wallet needs from key management. Secret keys
// cross this boundary as hex strings, addresses as bech32 strings.
type Crypto interface {
	GenerateRecoveryPhrase() (string, error)
	DeriveKeyFromPhrase(phrase string) (string, error)
	DeriveAddress(secretKey string) (string, error)
	Sign(secretKey string, payload []byte) ([]byte, error)
	ValidateAddress(address string) error
}
