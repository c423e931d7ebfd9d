package wallet

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BeArt-PDD/beart-labs/internal/siwe"
)

// Hardhat's first development account.
const (
	devKey     = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	devAddress = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
)

func TestFromHex(t *testing.T) {
	w, err := FromHex(devKey, 1)
	require.NoError(t, err)

	address, err := w.Address(context.Background())
	require.NoError(t, err)
	assert.Equal(t, devAddress, address)

	chainID, err := w.ChainID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), chainID)

	_, err = FromHex("not-a-key", 1)
	assert.Error(t, err)

	_, err = FromHex(devKey, 0)
	assert.ErrorIs(t, err, ErrInvalidChainID)
}

func TestKeyFileRoundTrip(t *testing.T) {
	w, err := Generate(137)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "wallet.key")
	require.NoError(t, w.SaveKeyFile(path))

	loaded, err := FromKeyFile(path, 137)
	require.NoError(t, err)
	assert.Equal(t, w.PrivateKeyHex(), loaded.PrivateKeyHex())

	_, err = FromKeyFile(filepath.Join(t.TempDir(), "missing.key"), 1)
	assert.Error(t, err)
}

func TestSignMessageRecoversToAddress(t *testing.T) {
	w, err := Generate(1)
	require.NoError(t, err)
	address, _ := w.Address(context.Background())

	message := []byte("app.example wants you to sign in with your Ethereum account:\n" + address)
	signature, err := w.SignMessage(context.Background(), message)
	require.NoError(t, err)
	assert.Len(t, signature, 2+65*2)

	recovered, err := siwe.EIP191Recoverer{}.Recover(message, signature)
	require.NoError(t, err)
	assert.Equal(t, address, recovered)
}

func TestSignMessageCancelled(t *testing.T) {
	w, err := Generate(1)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = w.SignMessage(ctx, []byte("hello"))
	assert.ErrorIs(t, err, context.Canceled)
}
