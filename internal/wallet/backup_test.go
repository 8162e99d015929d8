package wallet

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yolodolo42/erdwallet/internal/account"
	"github.com/yolodolo42/erdwallet/internal/securestore"
)

func lightScrypt(t *testing.T) {
	t.Helper()
	n, p := backupScryptN, backupScryptP
	backupScryptN, backupScryptP = keystore.LightScryptN, keystore.LightScryptP
	t.Cleanup(func() { backupScryptN, backupScryptP = n, p })
}

func TestBackup_RoundTrip(t *testing.T) {
	lightScrypt(t)
	ctx := context.Background()

	src := newHarness(t)
	rec, err := src.session.ImportPhrase(ctx, abandonAbout, "Savings")
	require.NoError(t, err)

	data, err := src.session.ExportBackup(ctx, rec.Address, "correct horse")
	require.NoError(t, err)
	assert.NotContains(t, string(data), rec.SecretKey)
	assert.NotContains(t, string(data), "abandon")

	t.Run("restores into an empty wallet", func(t *testing.T) {
		dst := newHarness(t)
		got, err := dst.session.ImportBackup(ctx, data, "correct horse")
		require.NoError(t, err)
		assert.Equal(t, rec.Address, got.Address)
		assert.Equal(t, rec.SecretKey, got.SecretKey)
		assert.Equal(t, abandonAbout, got.RecoveryPhrase)
		assert.Equal(t, "Savings", got.Name)

		active, _ := dst.session.Active()
		assert.Equal(t, rec.Address, active)
	})

	t.Run("restoring a stored account keeps one record", func(t *testing.T) {
		_, err := src.session.ImportBackup(ctx, data, "correct horse")
		require.NoError(t, err)
		all, err := src.session.Accounts(ctx, account.Ascending)
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})

	t.Run("wrong password", func(t *testing.T) {
		dst := newHarness(t)
		_, err := dst.session.ImportBackup(ctx, data, "wrong")
		assert.ErrorIs(t, err, securestore.ErrDecryption)
		assert.Equal(t, NoAccount, dst.session.State())
	})

	t.Run("address mismatch", func(t *testing.T) {
		var b Backup
		require.NoError(t, json.Unmarshal(data, &b))
		b.Address = aliceAddress
		tampered, err := json.Marshal(b)
		require.NoError(t, err)

		dst := newHarness(t)
		_, err = dst.session.ImportBackup(ctx, tampered, "correct horse")
		assert.ErrorIs(t, err, ErrInvalidBackup)
	})

	t.Run("phrase must belong to the key", func(t *testing.T) {
		plain, err := json.Marshal(backupPayload{
			Name:       "Alice",
			Address:    aliceAddress,
			PrivateKey: aliceKey,
			Mnemonic:   abandonAbout,
		})
		require.NoError(t, err)
		cj, err := keystore.EncryptDataV3(plain, []byte("correct horse"), backupScryptN, backupScryptP)
		require.NoError(t, err)
		mixed, err := json.Marshal(Backup{Kind: backupKind, Version: backupVersion, Address: aliceAddress, Crypto: cj})
		require.NoError(t, err)

		dst := newHarness(t)
		_, err = dst.session.ImportBackup(ctx, mixed, "correct horse")
		assert.ErrorIs(t, err, ErrInvalidBackup)
		assert.Equal(t, NoAccount, dst.session.State())
	})

	t.Run("not a backup", func(t *testing.T) {
		dst := newHarness(t)
		_, err := dst.session.ImportBackup(ctx, []byte(`{"kind":"other","version":1}`), "x")
		assert.ErrorIs(t, err, ErrInvalidBackup)
		_, err = dst.session.ImportBackup(ctx, []byte(`nope`), "x")
		assert.ErrorIs(t, err, ErrInvalidBackup)
	})

	t.Run("unknown account", func(t *testing.T) {
		_, err := src.session.ExportBackup(ctx, aliceAddress, "pw")
		assert.ErrorIs(t, err, ErrUnknownAccount)
	})
}

func TestSession_SealUnseal(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	sealed, err := h.session.HasSealed(ctx)
	require.NoError(t, err)
	assert.False(t, sealed)

	rec, err := h.session.ImportKey(ctx, aliceKey, "alice")
	require.NoError(t, err)
	require.NoError(t, h.session.Seal(ctx, rec.Address, "hunter22"))

	sealed, err = h.session.HasSealed(ctx)
	require.NoError(t, err)
	assert.True(t, sealed)

	require.NoError(t, h.session.Clear(ctx))

	t.Run("wrong password", func(t *testing.T) {
		_, err := h.session.Unseal(ctx, "nope")
		assert.ErrorIs(t, err, securestore.ErrDecryption)
	})

	t.Run("restores the account", func(t *testing.T) {
		got, err := h.session.Unseal(ctx, "hunter22")
		require.NoError(t, err)
		assert.Equal(t, aliceAddress, got.Address)
		active, _ := h.session.Active()
		assert.Equal(t, aliceAddress, active)
	})

	t.Run("unknown account", func(t *testing.T) {
		assert.ErrorIs(t, h.session.Seal(ctx, "erd1missing", "pw"), ErrUnknownAccount)
	})
}
