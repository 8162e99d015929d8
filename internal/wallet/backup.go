package wallet

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/yolodolo42/erdwallet/internal/account"
	"github.com/yolodolo42/erdwallet/internal/securestore"
	"go.uber.org/zap"
)

const (
	backupKind    = "erdwallet-backup"
	backupVersion = 1
)

// scrypt cost for backup files. StandardScryptN and StandardScryptP are
// secure defaults; tests lower them.
var (
	backupScryptN = keystore.StandardScryptN
	backupScryptP = keystore.StandardScryptP
)

var ErrInvalidBackup = errors.New("invalid backup file")

// Backup is the on-disk export format. Only Crypto holds secret material.
type Backup struct {
	Kind    string              `json:"kind"`
	Version int                 `json:"version"`
	Name    string              `json:"name"`
	Address string              `json:"address"`
	Crypto  keystore.CryptoJSON `json:"crypto"`
}

// backupPayload is what gets encrypted inside a Backup.
type backupPayload struct {
	Name       string `json:"name"`
	Address    string `json:"address"`
	PrivateKey string `json:"privateKey"`
	Mnemonic   string `json:"mnemonic,omitempty"`
}

// ExportBackup returns a password-encrypted backup of one stored account.
func (s *Session) ExportBackup(ctx context.Context, address, password string) ([]byte, error) {
	rec, err := s.lookup(ctx, address)
	if err != nil {
		return nil, err
	}

	plain, err := json.Marshal(backupPayload{
		Name:       rec.Name,
		Address:    rec.Address,
		PrivateKey: rec.SecretKey,
		Mnemonic:   rec.RecoveryPhrase,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal backup: %w", err)
	}
	defer clear(plain)

	cj, err := keystore.EncryptDataV3(plain, []byte(password), backupScryptN, backupScryptP)
	if err != nil {
		return nil, fmt.Errorf("encrypt backup: %w", err)
	}

	out, err := json.MarshalIndent(Backup{
		Kind:    backupKind,
		Version: backupVersion,
		Name:    rec.Name,
		Address: rec.Address,
		Crypto:  cj,
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal backup: %w", err)
	}
	s.logger.Info("account exported", zap.String("address", rec.Address))
	return out, nil
}

// ImportBackup decrypts a backup produced by ExportBackup, stores the
// account (deduplicated by address) and activates it.
func (s *Session) ImportBackup(ctx context.Context, data []byte, password string) (account.Record, error) {
	var b Backup
	if err := json.Unmarshal(data, &b); err != nil {
		return account.Record{}, fmt.Errorf("%w: %v", ErrInvalidBackup, err)
	}
	if b.Kind != backupKind || b.Version != backupVersion {
		return account.Record{}, fmt.Errorf("%w: unsupported kind %q version %d", ErrInvalidBackup, b.Kind, b.Version)
	}

	plain, err := keystore.DecryptDataV3(b.Crypto, password)
	if err != nil {
		if errors.Is(err, keystore.ErrDecrypt) {
			return account.Record{}, fmt.Errorf("%w: wrong password or corrupted backup", securestore.ErrDecryption)
		}
		return account.Record{}, fmt.Errorf("%w: %v", ErrInvalidBackup, err)
	}
	defer clear(plain)

	var p backupPayload
	if err := json.Unmarshal(plain, &p); err != nil {
		return account.Record{}, fmt.Errorf("%w: %v", ErrInvalidBackup, err)
	}

	addr, err := s.crypto.DeriveAddress(p.PrivateKey)
	if err != nil {
		return account.Record{}, fmt.Errorf("%w: %w", ErrInvalidBackup, err)
	}
	if addr != p.Address || addr != b.Address {
		return account.Record{}, fmt.Errorf("%w: key does not match address %s", ErrInvalidBackup, b.Address)
	}
	if p.Mnemonic != "" {
		if err := s.checkPhrase(p.Mnemonic, addr); err != nil {
			return account.Record{}, err
		}
	}

	return s.addAndActivate(ctx, p.PrivateKey, p.Mnemonic, p.Name)
}

// checkPhrase reports ErrInvalidBackup unless phrase derives the account at
// address.
func (s *Session) checkPhrase(phrase, address string) error {
	key, err := s.crypto.DeriveKeyFromPhrase(phrase)
	if err != nil {
		return fmt.Errorf("%w: recovery phrase: %w", ErrInvalidBackup, err)
	}
	derived, err := s.crypto.DeriveAddress(key)
	if err != nil {
		return fmt.Errorf("%w: recovery phrase: %w", ErrInvalidBackup, err)
	}
	if derived != address {
		return fmt.Errorf("%w: recovery phrase does not belong to %s", ErrInvalidBackup, address)
	}
	return nil
}

// Seal stores a password-encrypted copy of an account's private key in
// the single-secret slot, replacing whatever was sealed before.
func (s *Session) Seal(ctx context.Context, address, password string) error {
	rec, err := s.lookup(ctx, address)
	if err != nil {
		return err
	}
	if err := s.vault.Seal(ctx, rec.SecretKey, password); err != nil {
		return err
	}
	s.logger.Info("secret sealed", zap.String("address", rec.Address))
	return nil
}

// Unseal decrypts the sealed secret and imports it as an account.
func (s *Session) Unseal(ctx context.Context, password string) (account.Record, error) {
	secret, err := s.vault.Open(ctx, password)
	if err != nil {
		return account.Record{}, err
	}
	return s.ImportKey(ctx, secret, "")
}

// HasSealed reports whether a sealed secret is stored.
func (s *Session) HasSealed(ctx context.Context) (bool, error) {
	return s.vault.Exists(ctx)
}

// ForgetSealed removes the sealed secret, if any.
func (s *Session) ForgetSealed(ctx context.Context) error {
	return s.vault.Forget(ctx)
}
