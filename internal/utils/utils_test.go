package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChainRegistry(t *testing.T) {
	info, ok := GlobalChainRegistry.Get(1)
	require.True(t, ok)
	assert.Equal(t, "Ethereum", info.Name)

	assert.Equal(t, "BSC", GlobalChainRegistry.Name(56))
	assert.Equal(t, "chain-999999", GlobalChainRegistry.Name(999999))

	registry := NewChainRegistry()
	require.NoError(t, registry.Register(&ChainInfo{ChainID: 31337, Name: "Hardhat", Symbol: "ETH"}))
	assert.Equal(t, "Hardhat", registry.Name(31337))
	assert.Error(t, registry.Register(&ChainInfo{ChainID: 0, Name: "zero"}))
	assert.Error(t, registry.Register(&ChainInfo{ChainID: 5}))

	chains := GlobalChainRegistry.GetAllChains()
	require.NotEmpty(t, chains)
	for i := 1; i < len(chains); i++ {
		assert.Less(t, chains[i-1].ChainID, chains[i].ChainID)
	}
}

func TestNormalizeEvmAddress(t *testing.T) {
	assert.Equal(t, "0x196a28d05bA75C8dC35B0F6e71DD622D1aC82b7E", NormalizeEvmAddress(" 196a28d05bA75C8dC35B0F6e71DD622D1aC82b7E "))
	assert.Equal(t, "0x196a28d05ba75c8dc35b0f6e71dd622d1ac82b7e", NormalizeEvmAddress("0X196a28d05ba75c8dc35b0f6e71dd622d1ac82b7e"))
	assert.Equal(t, "garbage", NormalizeEvmAddress("garbage"))

	assert.True(t, IsEvmAddress("196a28d05ba75c8dc35b0f6e71dd622d1ac82b7e"))
	assert.False(t, IsEvmAddress("0x1234"))
}

func TestShortAddress(t *testing.T) {
	assert.Equal(t, "0x196a…2b7E", ShortAddress("0x196a28d05bA75C8dC35B0F6e71DD622D1aC82b7E"))
	assert.Equal(t, "0x12", ShortAddress("0x12"))
}
