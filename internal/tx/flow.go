package tx

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/yolodolo42/erdwallet/internal/account"
	"github.com/yolodolo42/erdwallet/internal/gateway"
	"github.com/yolodolo42/erdwallet/internal/logging"
	"github.com/yolodolo42/erdwallet/internal/network"
	"github.com/yolodolo42/erdwallet/internal/signer"
	"go.uber.org/zap"
)

// Result describes an accepted submission.
type Result struct {
	Hash  string
	Nonce uint64
	Value *big.Int
	Fee   *big.Int
}

// Flow validates, signs and submits value transfers. It keeps no state
// between calls: the nonce is fetched fresh for every transfer.
type Flow struct {
	gw      gateway.Gateway
	crypto  signer.Crypto
	network *network.Network
	logger  *zap.Logger
}

func NewFlow(gw gateway.Gateway, crypto signer.Crypto, n *network.Network, logger *zap.Logger) *Flow {
	return &Flow{
		gw:      gw,
		crypto:  crypto,
		network: n,
		logger:  logging.OrNop(logger),
	}
}

// Send transfers a human amount (e.g. "1.5") from the given account.
func (f *Flow) Send(ctx context.Context, from account.Record, to, amount string) (Result, error) {
	value, err := ParseAmount(amount, f.network.Decimals)
	if err != nil {
		return Result{}, err
	}
	return f.send(ctx, from, to, value)
}

// SendRaw transfers an amount already in smallest units.
func (f *Flow) SendRaw(ctx context.Context, from account.Record, to, rawAmount string) (Result, error) {
	value, err := ParseRawAmount(rawAmount)
	if err != nil {
		return Result{}, err
	}
	return f.send(ctx, from, to, value)
}

func (f *Flow) send(ctx context.Context, from account.Record, to string, value *big.Int) (Result, error) {
	if err := ValidateParties(f.crypto, from.Address, to); err != nil {
		return Result{}, err
	}

	state, err := f.gw.GetAccount(ctx, from.Address)
	if err != nil {
		return Result{}, fmt.Errorf("fetch nonce: %w", err)
	}

	t := NewTransfer(f.network, state.Nonce, from.Address, to, value)
	payload, err := t.SigningBytes()
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", signer.ErrSigning, err)
	}

	sig, err := f.crypto.Sign(from.SecretKey, payload)
	if err != nil {
		if errors.Is(err, signer.ErrSigning) {
			return Result{}, err
		}
		return Result{}, fmt.Errorf("%w: %w", signer.ErrSigning, err)
	}
	t.Signature = sig

	hash, err := f.gw.SubmitTransaction(ctx, t.Wire())
	if err != nil {
		f.logger.Warn("transaction rejected",
			zap.String("sender", from.Address),
			zap.Uint64("nonce", t.Nonce),
			zap.Int("status", gateway.StatusCode(err)),
			zap.Error(err),
		)
		return Result{}, fmt.Errorf("submit transaction: %w", err)
	}

	f.logger.Info("transaction submitted",
		zap.String("hash", hash),
		zap.String("sender", from.Address),
		zap.String("receiver", to),
		zap.String("value", value.String()),
		zap.Uint64("nonce", t.Nonce),
	)
	return Result{Hash: hash, Nonce: t.Nonce, Value: value, Fee: t.Fee()}, nil
}
