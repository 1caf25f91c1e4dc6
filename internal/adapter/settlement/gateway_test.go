package settlement

import (
	"context"
	"fmt"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGateway(t *testing.T, dir Directory) *Gateway {
	t.Helper()
	feePayer := solana.NewWallet()
	g, err := NewGateway("http://localhost:8899", feePayer.PrivateKey.String(), dir)
	require.NoError(t, err)
	return g
}

func TestParseDirectory(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	walletA := solana.NewWallet().PublicKey()
	walletB := solana.NewWallet().PublicKey()

	t.Run("empty spec yields empty directory", func(t *testing.T) {
		dir, err := ParseDirectory("  ")
		require.NoError(t, err)
		assert.Empty(t, dir)
	})

	t.Run("valid entries", func(t *testing.T) {
		spec := fmt.Sprintf("%s=%s, %s=%s", a, walletA, b, walletB)
		dir, err := ParseDirectory(spec)
		require.NoError(t, err)
		require.Len(t, dir, 2)

		got, ok := dir.WalletFor(a)
		require.True(t, ok)
		assert.Equal(t, walletA, got)

		_, ok = dir.WalletFor(uuid.New())
		assert.False(t, ok)
	})

	tests := []struct {
		name string
		spec string
	}{
		{name: "missing separator", spec: a.String()},
		{name: "bad identity", spec: "not-a-uuid=" + walletA.String()},
		{name: "bad wallet", spec: a.String() + "=not-base58!"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDirectory(tt.spec)
			assert.Error(t, err)
		})
	}
}

func TestNewGateway_InvalidFeePayerKey(t *testing.T) {
	_, err := NewGateway("http://localhost:8899", "garbage", StaticDirectory{})
	assert.ErrorContains(t, err, "invalid fee payer key")
}

func TestRegisterMint(t *testing.T) {
	g := newTestGateway(t, StaticDirectory{})

	require.NoError(t, g.RegisterMint(1, solana.NewWallet().PublicKey().String()))

	err := g.RegisterMint(2, "!!!")
	assert.ErrorContains(t, err, "invalid mint for asset 2")
}

func TestPrepareControlTransfer_LookupFailures(t *testing.T) {
	sender, recipient := uuid.New(), uuid.New()
	dir := StaticDirectory{sender: solana.NewWallet().PublicKey()}
	g := newTestGateway(t, dir)
	require.NoError(t, g.RegisterMint(1, solana.NewWallet().PublicKey().String()))

	ctx := context.Background()

	t.Run("unregistered mint", func(t *testing.T) {
		_, err := g.PrepareControlTransfer(ctx, 99, sender, recipient)
		assert.ErrorContains(t, err, "no control mint registered for asset 99")
	})

	t.Run("unknown sender wallet", func(t *testing.T) {
		_, err := g.PrepareControlTransfer(ctx, 1, uuid.New(), recipient)
		assert.ErrorContains(t, err, "no wallet registered for sender")
	})

	t.Run("unknown recipient wallet", func(t *testing.T) {
		_, err := g.PrepareControlTransfer(ctx, 1, sender, recipient)
		assert.ErrorContains(t, err, "no wallet registered for recipient")
	})
}

func TestSubmitSigned_MalformedInput(t *testing.T) {
	g := newTestGateway(t, StaticDirectory{})
	ctx := context.Background()

	_, err := g.SubmitSigned(ctx, "not base64 ###")
	assert.ErrorContains(t, err, "failed to decode signed transaction")

	_, err = g.SubmitSigned(ctx, "aGVsbG8=")
	assert.ErrorContains(t, err, "failed to deserialize signed transaction")
}
