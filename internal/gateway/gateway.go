package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Gateway is the remote ledger API the wallet reads from and submits to.
type Gateway interface {
	// GetAccount returns the zero state for accounts the ledger has never seen.
	GetAccount(ctx context.Context, address string) (AccountState, error)
	GetTokenBalances(ctx context.Context, address string) ([]TokenBalance, error)
	SubmitTransaction(ctx context.Context, tx SignedTransaction) (hash string, err error)
	// GetTransactions returns history newest first.
	GetTransactions(ctx context.Context, address string) ([]Transaction, error)
}

// AccountState is the on-chain state of one address. Balance is an integer
// string in the smallest unit.
type AccountState struct {
	Address string `json:"address"`
	Balance string `json:"balance"`
	Nonce   uint64 `json:"nonce"`
}

// TokenBalance is a fungible token holding. Balance is in the token's
// smallest unit; Decimals says where the point goes.
type TokenBalance struct {
	Identifier string `json:"identifier"`
	Ticker     string `json:"ticker"`
	Name       string `json:"name"`
	Balance    string `json:"balance"`
	Decimals   int    `json:"decimals"`
}

// Transaction is one history entry as reported by the gateway.
type Transaction struct {
	Hash      string `json:"txHash"`
	Sender    string `json:"sender"`
	Receiver  string `json:"receiver"`
	Value     string `json:"value"`
	Fee       string `json:"fee"`
	Status    string `json:"status"`
	Nonce     uint64 `json:"nonce"`
	Function  string `json:"function,omitempty"`
	Timestamp int64  `json:"timestamp"` // Unix seconds
}

// SignedTransaction is the wire form accepted by POST /transactions.
type SignedTransaction struct {
	Nonce     uint64 `json:"nonce"`
	Value     string `json:"value"`
	Receiver  string `json:"receiver"`
	Sender    string `json:"sender"`
	GasPrice  uint64 `json:"gasPrice"`
	GasLimit  uint64 `json:"gasLimit"`
	Data      string `json:"data,omitempty"`
	ChainID   string `json:"chainID"`
	Version   uint32 `json:"version"`
	Signature string `json:"signature"`
}

var (
	// ErrGateway matches every failure reported by a Gateway.
	ErrGateway           = errors.New("gateway error")
	ErrNotFound          = errors.New("not found")
	ErrTimeout           = errors.New("gateway timeout")
	ErrInsufficientFunds = errors.New("insufficient funds")
)

// Error is a failed gateway call. StatusCode is 0 when no HTTP response
// was received.
type Error struct {
	Op         string
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, ": status %d", e.StatusCode)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil && (e.Message == "" || !strings.Contains(e.Message, e.Err.Error())) {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() []error {
	errs := []error{ErrGateway}
	if e.StatusCode == 404 {
		errs = append(errs, ErrNotFound)
	}
	if strings.Contains(strings.ToLower(e.Message), "insufficient funds") {
		errs = append(errs, ErrInsufficientFunds)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// StatusCode extracts the HTTP status of a gateway failure, or 0.
func StatusCode(err error) int {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.StatusCode
	}
	return 0
}
