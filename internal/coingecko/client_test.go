package coingecko

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vaskers5/crypto-token-fraud-analyzer/internal/retry"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, 5*time.Second)
}

func TestSearchCoinIDExactSymbolMatch(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/search", r.URL.Path)
		require.Equal(t, "pepe", r.URL.Query().Get("query"))
		w.Write([]byte(`{"coins":[
			{"id":"pepe-2", "symbol":"PEPE2"},
			{"id":"pepe", "symbol":"PEPE"},
			{"id":"pepe-classic", "symbol":"PEPE"}
		]}`))
	})

	id, err := c.SearchCoinID(context.Background(), "PEPE")
	require.NoError(t, err)
	require.Equal(t, "pepe", id, "first exact match wins")
}

func TestSearchCoinIDNoMatch(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"coins":[{"id":"other", "symbol":"OTHER"}]}`))
	})

	_, err := c.SearchCoinID(context.Background(), "NOPE")
	require.ErrorIs(t, err, ErrTokenNotFound)
	require.False(t, retry.IsTransient(err), "not-found is terminal")
}

func TestSearchCoinIDServerErrorIsTransient(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream broke", http.StatusBadGateway)
	})

	_, err := c.SearchCoinID(context.Background(), "PEPE")
	require.Error(t, err)
	require.True(t, retry.IsTransient(err))
}

func TestCoinPlatformsDropsEmptyAddresses(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/coins/pepe", r.URL.Path)
		require.Equal(t, "false", r.URL.Query().Get("localization"))
		require.Equal(t, "false", r.URL.Query().Get("market_data"))
		w.Write([]byte(`{
			"id":"pepe", "symbol":"pepe", "asset_platform_id":"ethereum",
			"platforms":{"ethereum":"0x6982508145454ce325ddbe47a25d4ec3d2311933","fantom":""}
		}`))
	})

	platforms, err := c.CoinPlatforms(context.Background(), "pepe")
	require.NoError(t, err)
	require.Equal(t, map[string]string{
		"ethereum": "0x6982508145454ce325ddbe47a25d4ec3d2311933",
	}, platforms)
}

func TestCoinPlatformsEmptyMapping(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"ghost", "symbol":"ghost", "asset_platform_id":"ethereum", "platforms":{"ethereum":""}}`))
	})

	_, err := c.CoinPlatforms(context.Background(), "ghost")
	require.ErrorIs(t, err, ErrNoContractAddress)
}

func TestCoinPlatformsNativeAssetShortCircuits(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		// Native assets report a null platform id and name their chain
		// under the empty platform key.
		w.Write([]byte(`{"id":"binancecoin", "symbol":"bnb", "asset_platform_id":null, "platforms":{"":"binancecoin"}}`))
	})

	_, err := c.CoinPlatforms(context.Background(), "binancecoin")
	var native *NativeTokenError
	require.ErrorAs(t, err, &native)
	require.Equal(t, "BNB", native.Symbol)
	require.Equal(t, "binancecoin", native.Chain)
	// Native detection must win over the empty-mapping check.
	require.NotErrorIs(t, err, ErrNoContractAddress)
}

func TestContractInfo(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/coins/ethereum/contract/0xabc", r.URL.Path)
		w.Write([]byte(`{
			"id":"sometoken",
			"market_data":{
				"total_volume":{"usd":123456.5},
				"price_change_percentage_24h":-3.2,
				"price_change_percentage_7d":11.8
			}
		}`))
	})

	coin, err := c.ContractInfo(context.Background(), "0xabc")
	require.NoError(t, err)
	require.Equal(t, "sometoken", coin.ID)
	require.Equal(t, 123456.5, coin.Market.TradingVolume24h)
	require.Equal(t, -3.2, coin.Market.PriceChange24h)
	require.Equal(t, 11.8, coin.Market.PriceChange7d)
}

func TestContractInfoUnknownAddress(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":"coin not found"}`))
	})

	coin, err := c.ContractInfo(context.Background(), "0xdead")
	require.NoError(t, err)
	require.Nil(t, coin, "unknown address is not a failure")
}

func TestTickerMarkets(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/coins/sometoken/tickers", r.URL.Path)
		w.Write([]byte(`{"tickers":[
			{"market":{"identifier":"binance"}},
			{"market":{"identifier":"uniswap_v3"}}
		]}`))
	})

	markets, err := c.TickerMarkets(context.Background(), "sometoken")
	require.NoError(t, err)
	require.Equal(t, []string{"binance", "uniswap_v3"}, markets)
}

func TestMarketChart(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/coins/sometoken/market_chart", r.URL.Path)
		require.Equal(t, "usd", r.URL.Query().Get("vs_currency"))
		require.Equal(t, "7", r.URL.Query().Get("days"))
		w.Write([]byte(`{"prices":[[1000,100.0],[2000,95.5],[3000,60.1]]}`))
	})

	prices, err := c.MarketChart(context.Background(), "sometoken", 7)
	require.NoError(t, err)
	require.Equal(t, []float64{100.0, 95.5, 60.1}, prices)
}
