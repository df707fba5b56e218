package chains

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func testRegistry() *Registry {
	return New([]Chain{
		{ID: "ethereum", Name: "Ethereum", NativeSymbol: "ETH"},
		{ID: "binance-smart-chain", Name: "BNB Smart Chain", NativeSymbol: "BNB"},
		{ID: "polygon-pos", Name: "Polygon", NativeSymbol: "MATIC"},
		{ID: "arbitrum-one", Name: "Arbitrum One"},
	})
}

func TestNativeChainIsCaseInsensitive(t *testing.T) {
	r := testRegistry()

	for _, symbol := range []string{"ETH", "eth", "Eth"} {
		id, ok := r.NativeChain(symbol)
		require.True(t, ok, "symbol %q", symbol)
		require.Equal(t, "ethereum", id)
	}

	_, ok := r.NativeChain("PEPE")
	require.False(t, ok)

	// Chains without a native symbol never match.
	_, ok = r.NativeChain("")
	require.False(t, ok)
}

func TestKnown(t *testing.T) {
	r := testRegistry()
	require.True(t, r.Known("polygon-pos"))
	require.False(t, r.Known("polygon"))
}

func TestSuggest(t *testing.T) {
	r := testRegistry()

	got := r.Suggest("polygn", 3)
	require.NotEmpty(t, got)
	require.Equal(t, "polygon-pos", got[0])

	// n bounds the result set.
	got = r.Suggest("n", 2)
	require.LessOrEqual(t, len(got), 2)

	require.Nil(t, r.Suggest("x", 0))
}
