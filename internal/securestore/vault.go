package securestore

import (
	"context"
	"errors"
	"fmt"

	"github.com/yolodolo42/erdwallet/internal/storage"
)

// SecretKey is the storage key of the single sealed secret.
const SecretKey = "encryptedSecret"

var ErrNoSecret = errors.New("no sealed secret stored")

// Vault persists one password-sealed secret in a storage.Store.
type Vault struct {
	store storage.Store
}

func NewVault(store storage.Store) *Vault {
	return &Vault{store: store}
}

// Seal encrypts secret with password and replaces any previously sealed value.
func (v *Vault) Seal(ctx context.Context, secret, password string) error {
	blob, err := Encrypt(secret, password)
	if err != nil {
		return fmt.Errorf("seal secret: %w", err)
	}
	return v.store.Set(ctx, SecretKey, blob)
}

// Open returns the sealed secret, ErrNoSecret when none is stored, or
// ErrDecryption when password is wrong.
func (v *Vault) Open(ctx context.Context, password string) (string, error) {
	blob, ok, err := v.store.Get(ctx, SecretKey)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrNoSecret
	}
	return Decrypt(blob, password)
}

func (v *Vault) Exists(ctx context.Context) (bool, error) {
	_, ok, err := v.store.Get(ctx, SecretKey)
	return ok, err
}

func (v *Vault) Forget(ctx context.Context) error {
	return v.store.Delete(ctx, SecretKey)
}
