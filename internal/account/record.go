package account

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap/zapcore"
)

var (
	ErrInvalidRecord = errors.New("invalid account record")
	ErrNotFound      = errors.New("account not found")
)

// Record is one stored account. SecretKey and RecoveryPhrase are secret
// material and must never reach a log or be printed unless the user asks.
type Record struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Address        string `json:"address"`
	SecretKey      string `json:"privateKey"`
	RecoveryPhrase string `json:"mnemonic,omitempty"`
	CreatedAt      int64  `json:"createdAt"` // Unix milliseconds
}

// NewRecord fills in ID and CreatedAt for a freshly derived account.
func NewRecord(name, address, secretKey, phrase string) Record {
	return Record{
		ID:             uuid.NewString(),
		Name:           name,
		Address:        address,
		SecretKey:      secretKey,
		RecoveryPhrase: phrase,
		CreatedAt:      time.Now().UnixMilli(),
	}
}

// Validate checks the fields every stored record must have.
func (r Record) Validate() error {
	if r.Address == "" {
		return fmt.Errorf("%w: address is required", ErrInvalidRecord)
	}
	if r.SecretKey == "" {
		return fmt.Errorf("%w: secret key is required", ErrInvalidRecord)
	}
	return nil
}

// Created returns CreatedAt as a time.Time.
func (r Record) Created() time.Time {
	return time.UnixMilli(r.CreatedAt)
}

// HasPhrase reports whether the account was derived from a recovery phrase.
func (r Record) HasPhrase() bool {
	return r.RecoveryPhrase != ""
}

// String omits secret material.
func (r Record) String() string {
	return fmt.Sprintf("%s (%s)", r.Name, r.Address)
}

// MarshalLogObject lets records be passed to zap.Object without leaking secrets.
func (r Record) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("id", r.ID)
	enc.AddString("name", r.Name)
	enc.AddString("address", r.Address)
	enc.AddInt64("createdAt", r.CreatedAt)
	return nil
}
