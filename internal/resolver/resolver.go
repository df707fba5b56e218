// Package resolver turns a ticker symbol into the token's deployed
// contract addresses by chain, memoized through the durable cache.
package resolver

import (
	"context"

	"github.com/vaskers5/crypto-token-fraud-analyzer/internal/retry"
	"github.com/vaskers5/crypto-token-fraud-analyzer/internal/telemetry"
)

// CoinAPI is the search-then-detail lookup surface of the price-data
// service.
type CoinAPI interface {
	SearchCoinID(ctx context.Context, symbol string) (string, error)
	CoinPlatforms(ctx context.Context, id string) (map[string]string, error)
}

// Cache is the read-through memoization layer.
type Cache interface {
	Lookup(symbol string) (map[string]string, bool, error)
	Store(symbol string, platforms map[string]string) error
}

type Resolver struct {
	coins  CoinAPI
	cache  Cache
	policy retry.Policy
}

func New(coins CoinAPI, cache Cache, policy retry.Policy) *Resolver {
	return &Resolver{coins: coins, cache: cache, policy: policy}
}

// Resolve returns the chain→contract-address mapping for symbol. Cache
// hits short-circuit the network entirely. Both the search and the detail
// phase run under the shared retry policy; terminal conditions
// (ErrTokenNotFound, ErrNoContractAddress, NativeTokenError) propagate
// after a single attempt. Successful resolutions are written through to
// the cache before returning.
func (r *Resolver) Resolve(ctx context.Context, symbol string) (map[string]string, error) {
	if platforms, ok, err := r.cache.Lookup(symbol); err != nil {
		// A broken cache must not take resolution down with it.
		telemetry.Warnf("[resolver] cache lookup for %q failed: %v", symbol, err)
	} else if ok {
		telemetry.Debugf("[resolver] cache hit for %q", symbol)
		return platforms, nil
	}

	var coinID string
	err := r.policy.Do(ctx, func() error {
		var opErr error
		coinID, opErr = r.coins.SearchCoinID(ctx, symbol)
		return opErr
	})
	if err != nil {
		return nil, err
	}

	var platforms map[string]string
	err = r.policy.Do(ctx, func() error {
		var opErr error
		platforms, opErr = r.coins.CoinPlatforms(ctx, coinID)
		return opErr
	})
	if err != nil {
		return nil, err
	}

	if err := r.cache.Store(symbol, platforms); err != nil {
		telemetry.Warnf("[resolver] cache store for %q failed: %v", symbol, err)
	}
	return platforms, nil
}
