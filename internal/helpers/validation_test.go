package helpers

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateAddress(t *testing.T) {
	addr, err := ValidateAddress("0x6982508145454ce325ddbe47a25d4ec3d2311933")
	require.NoError(t, err)
	require.Equal(t, "0x6982508145454Ce325dDbE47a25d4ec3d2311933", addr.Hex())

	_, err = ValidateAddress("pepe")
	require.Error(t, err)

	_, err = ValidateAddress("0x0000000000000000000000000000000000000000")
	require.Error(t, err, "zero address rejected")
}

func TestNormalizeSymbol(t *testing.T) {
	require.Equal(t, "PEPE", NormalizeSymbol("  pepe "))
	require.Equal(t, "ETH", NormalizeSymbol("eTh"))
}
