package etherscan

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vaskers5/crypto-token-fraud-analyzer/internal/retry"
)

const testAddress = "0x6982508145454ce325ddbe47a25d4ec3d2311933"

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "test-key", 5*time.Second)
}

func TestScanABIIsCaseInsensitiveSubstring(t *testing.T) {
	flags := ScanABI(`[{"name":"ReMint","type":"function"},{"name":"setFeePercent","type":"function"}]`)

	require.True(t, flags["has_mint"], "ReMint contains mint")
	require.True(t, flags["has_setfee"], "setFeePercent contains setfee")
	require.False(t, flags["has_blacklist"])
	require.False(t, flags["has_pause"])
}

func TestScanABICoversWholeVocabulary(t *testing.T) {
	abi := `mint blacklist setFee withdraw unlock pause changeFee owner`
	flags := ScanABI(abi)
	for _, name := range SuspiciousFunctions {
		require.True(t, flags["has_"+name], "expected has_%s", name)
	}
}

func TestContractProfileVerified(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "contract", r.URL.Query().Get("module"))
		require.Equal(t, "test-key", r.URL.Query().Get("apikey"))
		switch r.URL.Query().Get("action") {
		case "getabi":
			w.Write([]byte(`{"status":"1","message":"OK","result":"[{\"name\":\"mintTo\",\"type\":\"function\"},{\"name\":\"owner\",\"type\":\"function\"}]"}`))
		case "getsourcecode":
			w.Write([]byte(`{"status":"1","message":"OK","result":[{"OptimizationUsed":"1"}]}`))
		default:
			t.Fatalf("unexpected action %q", r.URL.Query().Get("action"))
		}
	})

	profile, err := c.ContractProfile(context.Background(), testAddress)
	require.NoError(t, err)
	require.True(t, profile.IsVerified)
	require.True(t, profile.Flags["has_mint"])
	require.True(t, profile.Flags["has_owner"])
	require.False(t, profile.Flags["has_blacklist"])
	require.Equal(t, "1", profile.OptimizationUsed)
}

func TestContractProfileUnverifiedSentinel(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("action") {
		case "getabi":
			// Status 1 plus the sentinel still means unverified.
			w.Write([]byte(`{"status":"1","message":"OK","result":"Contract source code not verified"}`))
		case "getsourcecode":
			w.Write([]byte(`{"status":"0","message":"NOTOK","result":[]}`))
		}
	})

	profile, err := c.ContractProfile(context.Background(), testAddress)
	require.NoError(t, err)
	require.False(t, profile.IsVerified)
	for _, name := range SuspiciousFunctions {
		require.False(t, profile.Flags["has_"+name], "unverified contract leaves has_%s false", name)
	}
}

func TestContractProfileRejectsBadAddress(t *testing.T) {
	c := NewClient("http://unused", "k", time.Second)
	_, err := c.ContractProfile(context.Background(), "not-an-address")
	require.Error(t, err)
	require.False(t, retry.IsTransient(err))
}

func TestContractProfileServerErrorIsTransient(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	})

	_, err := c.ContractProfile(context.Background(), testAddress)
	require.Error(t, err)
	require.True(t, retry.IsTransient(err))
}
