package tx

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/yolodolo42/erdwallet/internal/gateway"
	"github.com/yolodolo42/erdwallet/internal/network"
)

// Transaction is a value transfer. Signature is empty until signed.
type Transaction struct {
	Nonce     uint64
	Value     *big.Int
	Receiver  string
	Sender    string
	GasPrice  uint64
	GasLimit  uint64
	Data      []byte
	ChainID   string
	Version   uint32
	Signature []byte
}

// NewTransfer builds an unsigned transfer with the network's gas settings.
func NewTransfer(n *network.Network, nonce uint64, from, to string, value *big.Int) *Transaction {
	return &Transaction{
		Nonce:    nonce,
		Value:    new(big.Int).Set(value),
		Receiver: to,
		Sender:   from,
		GasPrice: n.GasPrice,
		GasLimit: n.GasLimit,
		ChainID:  n.ChainID,
		Version:  n.Version,
	}
}

// signingPayload fixes the field order of the canonical serialization.
type signingPayload struct {
	Nonce    uint64 `json:"nonce"`
	Value    string `json:"value"`
	Receiver string `json:"receiver"`
	Sender   string `json:"sender"`
	GasPrice uint64 `json:"gasPrice"`
	GasLimit uint64 `json:"gasLimit"`
	Data     string `json:"data,omitempty"`
	ChainID  string `json:"chainID"`
	Version  uint32 `json:"version"`
}

// SigningBytes is the canonical serialization the sender signs.
func (t *Transaction) SigningBytes() ([]byte, error) {
	if t.Value == nil {
		return nil, fmt.Errorf("transaction value missing")
	}
	return json.Marshal(signingPayload{
		Nonce:    t.Nonce,
		Value:    t.Value.String(),
		Receiver: t.Receiver,
		Sender:   t.Sender,
		GasPrice: t.GasPrice,
		GasLimit: t.GasLimit,
		Data:     t.encodedData(),
		ChainID:  t.ChainID,
		Version:  t.Version,
	})
}

// Fee is the maximum fee the transfer can burn (gasPrice * gasLimit).
func (t *Transaction) Fee() *big.Int {
	return new(big.Int).Mul(new(big.Int).SetUint64(t.GasPrice), new(big.Int).SetUint64(t.GasLimit))
}

// Wire converts a signed transaction into the gateway submission form.
func (t *Transaction) Wire() gateway.SignedTransaction {
	return gateway.SignedTransaction{
		Nonce:     t.Nonce,
		Value:     t.Value.String(),
		Receiver:  t.Receiver,
		Sender:    t.Sender,
		GasPrice:  t.GasPrice,
		GasLimit:  t.GasLimit,
		Data:      t.encodedData(),
		ChainID:   t.ChainID,
		Version:   t.Version,
		Signature: hex.EncodeToString(t.Signature),
	}
}

func (t *Transaction) encodedData() string {
	if len(t.Data) == 0 {
		return ""
	}
	return base64.StdEncoding.EncodeToString(t.Data)
}
