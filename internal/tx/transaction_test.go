package tx

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransaction_SigningBytes(t *testing.T) {
	base := func() *Transaction {
		return NewTransfer(testNetwork(t), 7, "erd1from", "erd1to", big.NewInt(1500))
	}

	t.Run("canonical field order", func(t *testing.T) {
		b, err := base().SigningBytes()
		require.NoError(t, err)
		assert.Equal(t,
			`{"nonce":7,"value":"1500","receiver":"erd1to","sender":"erd1from","gasPrice":1000000000,"gasLimit":50000,"chainID":"D","version":1}`,
			string(b))
	})

	t.Run("data is base64 encoded", func(t *testing.T) {
		tx := base()
		tx.Data = []byte("hello")
		b, err := tx.SigningBytes()
		require.NoError(t, err)
		assert.Contains(t, string(b), `"gasLimit":50000,"data":"aGVsbG8=","chainID":"D"`)
	})

	t.Run("signature is excluded", func(t *testing.T) {
		tx := base()
		before, err := tx.SigningBytes()
		require.NoError(t, err)
		tx.Signature = []byte{1, 2, 3}
		after, err := tx.SigningBytes()
		require.NoError(t, err)
		assert.Equal(t, before, after)
	})

	t.Run("value required", func(t *testing.T) {
		_, err := (&Transaction{}).SigningBytes()
		require.Error(t, err)
	})
}

func TestTransaction_Wire(t *testing.T) {
	tx := NewTransfer(testNetwork(t), 1, "erd1from", "erd1to", big.NewInt(10))
	tx.Signature = []byte{0xab, 0xcd}

	w := tx.Wire()
	assert.Equal(t, "abcd", w.Signature)
	assert.Equal(t, "10", w.Value)
	assert.Equal(t, "", w.Data)
	assert.Equal(t, "500000000000000", new(big.Int).Mul(tx.Fee(), big.NewInt(10)).String())
}

func TestNewTransfer_CopiesValue(t *testing.T) {
	v := big.NewInt(5)
	tx := NewTransfer(testNetwork(t), 0, "a", "b", v)
	v.SetInt64(6)
	assert.Equal(t, "5", tx.Value.String())
}
