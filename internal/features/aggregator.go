package features

import (
	"context"
	"fmt"
	"sync"

	"github.com/vaskers5/crypto-token-fraud-analyzer/internal/coingecko"
	"github.com/vaskers5/crypto-token-fraud-analyzer/internal/etherscan"
	"github.com/vaskers5/crypto-token-fraud-analyzer/internal/retry"
	"github.com/vaskers5/crypto-token-fraud-analyzer/internal/telemetry"
)

// CEXWhitelist is the fixed set of centralized exchanges whose listing
// counts as a trust signal.
var CEXWhitelist = map[string]bool{
	"binance":  true,
	"kraken":   true,
	"coinbase": true,
	"huobi":    true,
	"okex":     true,
}

const chartDays = 7

type ContractAPI interface {
	ContractProfile(ctx context.Context, address string) (*etherscan.Profile, error)
}

type MarketAPI interface {
	ContractInfo(ctx context.Context, address string) (*coingecko.ContractCoin, error)
	TickerMarkets(ctx context.Context, id string) ([]string, error)
	MarketChart(ctx context.Context, id string, days int) ([]float64, error)
}

// Aggregator merges the contract and market sub-fetches into one Record.
// The two phases are independent: each must tolerate total failure of the
// other. The market phase degrades to defaults on any failure; the contract
// phase, after retries, is fatal for the aggregate.
type Aggregator struct {
	contracts ContractAPI
	markets   MarketAPI
	policy    retry.Policy
}

func NewAggregator(contracts ContractAPI, markets MarketAPI, policy retry.Policy) *Aggregator {
	return &Aggregator{contracts: contracts, markets: markets, policy: policy}
}

type marketPart struct {
	cexListings        bool
	largeDumpsDetected bool
	market             coingecko.MarketData
}

func (a *Aggregator) Aggregate(ctx context.Context, address string) (*Record, error) {
	var (
		wg       sync.WaitGroup
		contract Outcome[*etherscan.Profile]
		market   Outcome[marketPart]
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		contract = a.fetchContract(ctx, address)
	}()
	go func() {
		defer wg.Done()
		market = a.fetchMarket(ctx, address)
	}()
	wg.Wait()

	if contract.Status == StatusFatal {
		return nil, fmt.Errorf("contract metadata for %s: %w", address, contract.Err)
	}
	if market.Status == StatusDegraded {
		telemetry.Debugf("[features] market phase degraded for %s: %v", address, market.Err)
	}

	record := &Record{
		IsVerified:         contract.Value.IsVerified,
		OptimizationUsed:   contract.Value.OptimizationUsed,
		CEXListings:        market.Value.cexListings,
		LargeDumpsDetected: market.Value.largeDumpsDetected,
		TradingVolume24h:   market.Value.market.TradingVolume24h,
		PriceChange24h:     market.Value.market.PriceChange24h,
		PriceChange7d:      market.Value.market.PriceChange7d,
	}
	record.applyFlags(contract.Value.Flags)
	return record, nil
}

func (a *Aggregator) fetchContract(ctx context.Context, address string) Outcome[*etherscan.Profile] {
	var profile *etherscan.Profile
	err := a.policy.Do(ctx, func() error {
		var opErr error
		profile, opErr = a.contracts.ContractProfile(ctx, address)
		return opErr
	})
	if err != nil {
		return Fatal[*etherscan.Profile](err)
	}
	return Ok(profile)
}

// fetchMarket never fails: any sub-call error contributes only its field's
// defaults and degrades the outcome.
func (a *Aggregator) fetchMarket(ctx context.Context, address string) Outcome[marketPart] {
	var part marketPart

	coin, err := a.markets.ContractInfo(ctx, address)
	if err != nil {
		return Degraded(part, err)
	}
	if coin == nil {
		// The aggregator does not know this address at all.
		return Degraded(part, fmt.Errorf("no market identifier for %s", address))
	}
	part.market = coin.Market

	degradedErr := error(nil)

	if markets, err := a.markets.TickerMarkets(ctx, coin.ID); err != nil {
		degradedErr = err
	} else {
		for _, m := range markets {
			if CEXWhitelist[m] {
				part.cexListings = true
				break
			}
		}
	}

	if prices, err := a.markets.MarketChart(ctx, coin.ID, chartDays); err != nil {
		degradedErr = err
	} else {
		part.largeDumpsDetected = DetectLargeDumps(prices)
	}

	if degradedErr != nil {
		return Degraded(part, degradedErr)
	}
	return Ok(part)
}
