package securestore

import (
	"context"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yolodolo42/erdwallet/internal/storage"
)

func TestEncryptDecrypt(t *testing.T) {
	cases := []struct {
		name      string
		plaintext string
		password  string
	}{
		{"hex private key", "1f2e3d4c5b6a79881f2e3d4c5b6a79881f2e3d4c5b6a79881f2e3d4c5b6a7988", "correct horse"},
		{"recovery phrase", "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about", "pw"},
		{"empty plaintext", "", "pw"},
		{"empty password", "secret", ""},
		{"unicode", "clé privée ✓", "mot de passe"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			blob, err := Encrypt(tc.plaintext, tc.password)
			require.NoError(t, err)

			got, err := Decrypt(blob, tc.password)
			require.NoError(t, err)
			assert.Equal(t, tc.plaintext, got)
		})
	}
}

func TestEncrypt(t *testing.T) {
	t.Run("layout is salt nonce ciphertext", func(t *testing.T) {
		blob, err := Encrypt("abc", "pw")
		require.NoError(t, err)

		raw, err := base64.StdEncoding.DecodeString(blob)
		require.NoError(t, err)
		// 16 salt + 12 nonce + 3 plaintext + 16 tag
		assert.Len(t, raw, 16+12+3+16)
	})

	t.Run("fresh salt and nonce per call", func(t *testing.T) {
		a, err := Encrypt("same", "pw")
		require.NoError(t, err)
		b, err := Encrypt("same", "pw")
		require.NoError(t, err)
		assert.NotEqual(t, a, b)
	})
}

func TestDecrypt(t *testing.T) {
	blob, err := Encrypt("top secret", "right")
	require.NoError(t, err)

	t.Run("wrong password", func(t *testing.T) {
		_, err := Decrypt(blob, "wrong")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrDecryption)
	})

	t.Run("not base64", func(t *testing.T) {
		_, err := Decrypt("%%%", "right")
		assert.ErrorIs(t, err, ErrDecryption)
	})

	t.Run("truncated blob", func(t *testing.T) {
		raw, _ := base64.StdEncoding.DecodeString(blob)
		short := base64.StdEncoding.EncodeToString(raw[:20])
		_, err := Decrypt(short, "right")
		assert.ErrorIs(t, err, ErrDecryption)
	})

	t.Run("tampered ciphertext", func(t *testing.T) {
		raw, _ := base64.StdEncoding.DecodeString(blob)
		raw[len(raw)-1] ^= 0xff
		_, err := Decrypt(base64.StdEncoding.EncodeToString(raw), "right")
		assert.ErrorIs(t, err, ErrDecryption)
	})
}

func TestVault(t *testing.T) {
	ctx := context.Background()

	t.Run("open without seal", func(t *testing.T) {
		v := NewVault(storage.NewMemory())
		_, err := v.Open(ctx, "pw")
		assert.ErrorIs(t, err, ErrNoSecret)

		ok, err := v.Exists(ctx)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("seal then open", func(t *testing.T) {
		store := storage.NewMemory()
		v := NewVault(store)
		require.NoError(t, v.Seal(ctx, "deadbeef", "pw"))

		raw, ok, err := store.Get(ctx, SecretKey)
		require.NoError(t, err)
		require.True(t, ok)
		assert.NotContains(t, raw, "deadbeef")

		got, err := v.Open(ctx, "pw")
		require.NoError(t, err)
		assert.Equal(t, "deadbeef", got)

		_, err = v.Open(ctx, "nope")
		assert.ErrorIs(t, err, ErrDecryption)
	})

	t.Run("seal replaces previous secret", func(t *testing.T) {
		v := NewVault(storage.NewMemory())
		require.NoError(t, v.Seal(ctx, "first", "pw"))
		require.NoError(t, v.Seal(ctx, "second", "pw2"))

		got, err := v.Open(ctx, "pw2")
		require.NoError(t, err)
		assert.Equal(t, "second", got)
	})

	t.Run("forget", func(t *testing.T) {
		v := NewVault(storage.NewMemory())
		require.NoError(t, v.Seal(ctx, "x", "pw"))
		require.NoError(t, v.Forget(ctx))

		ok, err := v.Exists(ctx)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}
