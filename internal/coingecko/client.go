// Package coingecko is a thin client for the CoinGecko v3 API: symbol
// search, coin detail (contract platforms), contract lookup, tickers and
// 7-day market charts.
//
// Transport and HTTP-status failures are wrapped with retry.Transient so
// the shared retry policy knows they are worth another attempt. Domain
// conditions decoded out of a well-formed response (no match, no contracts,
// native asset) are terminal.
package coingecko

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/vaskers5/crypto-token-fraud-analyzer/internal/retry"
)

var (
	ErrTokenNotFound     = errors.New("no token matches the given symbol")
	ErrNoContractAddress = errors.New("no contract address available")
)

// NativeTokenError reports that the symbol is a chain's base asset rather
// than a deployed contract. It short-circuits classification, it is not a
// failure.
type NativeTokenError struct {
	Symbol string
	Chain  string
}

func (e *NativeTokenError) Error() string {
	return fmt.Sprintf("token %s is native to chain %s", e.Symbol, e.Chain)
}

type Client struct {
	baseURL string
	hc      *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		hc:      &http.Client{Timeout: timeout},
	}
}

func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return retry.Transient(fmt.Errorf("coingecko %s: %w", path, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return retry.Transient(fmt.Errorf("coingecko %s: unexpected status %s", path, resp.Status))
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return retry.Transient(fmt.Errorf("coingecko %s: read body: %w", path, err))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("coingecko %s: decode: %w", path, err)
	}
	return nil
}

type searchResponse struct {
	Coins []struct {
		ID     string `json:"id"`
		Symbol string `json:"symbol"`
	} `json:"coins"`
}

// SearchCoinID resolves a ticker symbol to a coin identifier. Among the
// search results only exact (case-insensitive) symbol matches count; the
// first one returned by the service wins.
func (c *Client) SearchCoinID(ctx context.Context, symbol string) (string, error) {
	var resp searchResponse
	params := url.Values{"query": {strings.ToLower(symbol)}}
	if err := c.getJSON(ctx, "/search", params, &resp); err != nil {
		return "", err
	}
	want := strings.ToLower(symbol)
	for _, coin := range resp.Coins {
		if strings.ToLower(coin.Symbol) == want {
			return coin.ID, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrTokenNotFound, symbol)
}

type coinDetailResponse struct {
	ID     string `json:"id"`
	Symbol string `json:"symbol"`
	// RawMessage so that an explicit null is distinguishable from the
	// field being absent: present-and-null marks a chain-native asset.
	AssetPlatformID json.RawMessage   `json:"asset_platform_id"`
	Platforms       map[string]string `json:"platforms"`
}

// CoinPlatforms fetches the chain→contract-address mapping for a coin,
// suppressing every auxiliary payload section. Chains with an empty address
// are dropped.
func (c *Client) CoinPlatforms(ctx context.Context, id string) (map[string]string, error) {
	params := url.Values{
		"localization":   {"false"},
		"tickers":        {"false"},
		"market_data":    {"false"},
		"community_data": {"false"},
		"developer_data": {"false"},
		"sparkline":      {"false"},
	}
	var resp coinDetailResponse
	if err := c.getJSON(ctx, "/coins/"+url.PathEscape(id), params, &resp); err != nil {
		return nil, err
	}

	// Native assets report no host platform; this must win over the
	// empty-mapping check below.
	if len(resp.AssetPlatformID) > 0 && string(resp.AssetPlatformID) == "null" {
		if chain := resp.Platforms[""]; chain != "" {
			return nil, &NativeTokenError{
				Symbol: strings.ToUpper(resp.Symbol),
				Chain:  chain,
			}
		}
	}

	platforms := make(map[string]string)
	for chain, addr := range resp.Platforms {
		if chain != "" && addr != "" {
			platforms[chain] = addr
		}
	}
	if len(platforms) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoContractAddress, id)
	}
	return platforms, nil
}

// MarketData is the subset of market metrics the fraud features use.
type MarketData struct {
	TradingVolume24h float64
	PriceChange24h   float64
	PriceChange7d    float64
}

// ContractCoin is the result of resolving a contract address to a listed
// coin on the price aggregator.
type ContractCoin struct {
	ID     string
	Market MarketData
}

type contractResponse struct {
	ID         string `json:"id"`
	MarketData struct {
		TotalVolume struct {
			USD float64 `json:"usd"`
		} `json:"total_volume"`
		PriceChangePercentage24h float64 `json:"price_change_percentage_24h"`
		PriceChangePercentage7d  float64 `json:"price_change_percentage_7d"`
	} `json:"market_data"`
}

// ContractInfo looks a contract address up on the ethereum platform. A
// well-formed response without a coin id means the address is unknown to
// the aggregator; callers treat that as "no market data", not a failure.
func (c *Client) ContractInfo(ctx context.Context, address string) (*ContractCoin, error) {
	var resp contractResponse
	if err := c.getJSON(ctx, "/coins/ethereum/contract/"+url.PathEscape(address), nil, &resp); err != nil {
		return nil, err
	}
	if resp.ID == "" {
		return nil, nil
	}
	return &ContractCoin{
		ID: resp.ID,
		Market: MarketData{
			TradingVolume24h: resp.MarketData.TotalVolume.USD,
			PriceChange24h:   resp.MarketData.PriceChangePercentage24h,
			PriceChange7d:    resp.MarketData.PriceChangePercentage7d,
		},
	}, nil
}

type tickersResponse struct {
	Tickers []struct {
		Market struct {
			Identifier string `json:"identifier"`
		} `json:"market"`
	} `json:"tickers"`
}

// TickerMarkets returns the market identifiers of every known trading pair
// for the coin.
func (c *Client) TickerMarkets(ctx context.Context, id string) ([]string, error) {
	var resp tickersResponse
	if err := c.getJSON(ctx, "/coins/"+url.PathEscape(id)+"/tickers", nil, &resp); err != nil {
		return nil, err
	}
	out := make([]string, 0, len(resp.Tickers))
	for _, t := range resp.Tickers {
		out = append(out, t.Market.Identifier)
	}
	return out, nil
}

type marketChartResponse struct {
	Prices [][]float64 `json:"prices"`
}

// MarketChart returns the USD price series over the given number of days at
// the service's native granularity.
func (c *Client) MarketChart(ctx context.Context, id string, days int) ([]float64, error) {
	params := url.Values{
		"vs_currency": {"usd"},
		"days":        {fmt.Sprintf("%d", days)},
	}
	var resp marketChartResponse
	if err := c.getJSON(ctx, "/coins/"+url.PathEscape(id)+"/market_chart", params, &resp); err != nil {
		return nil, err
	}
	prices := make([]float64, 0, len(resp.Prices))
	for _, point := range resp.Prices {
		// Each point is [timestamp, price].
		if len(point) >= 2 {
			prices = append(prices, point[1])
		}
	}
	return prices, nil
}
