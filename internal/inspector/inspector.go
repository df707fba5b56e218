// Package inspector composes resolution, feature aggregation,
// classification and narrative generation into one inspect operation.
package inspector

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/vaskers5/crypto-token-fraud-analyzer/internal/chains"
	"github.com/vaskers5/crypto-token-fraud-analyzer/internal/coingecko"
	"github.com/vaskers5/crypto-token-fraud-analyzer/internal/features"
	"github.com/vaskers5/crypto-token-fraud-analyzer/internal/helpers"
	"github.com/vaskers5/crypto-token-fraud-analyzer/internal/telemetry"
)

type PlatformResolver interface {
	Resolve(ctx context.Context, symbol string) (map[string]string, error)
}

type Aggregator interface {
	Aggregate(ctx context.Context, address string) (*features.Record, error)
}

type Predictor interface {
	Predict(r *features.Record) bool
	PredictProbability(r *features.Record) float64
}

type Narrator interface {
	Generate(ctx context.Context, prompt string) string
}

// Options collapses the behaviour variants into one orchestrator.
type Options struct {
	// NativeTokenShortCircuit skips resolution and classification for
	// symbols found in the native-symbol table.
	NativeTokenShortCircuit bool
	// ExtendedNarrative issues an additional background-analysis prompt
	// concurrently with the feature report.
	ExtendedNarrative bool
}

type Inspector struct {
	resolver   PlatformResolver
	aggregator Aggregator
	predictor  Predictor
	narrator   Narrator
	registry   *chains.Registry
	opts       Options
}

func New(resolver PlatformResolver, aggregator Aggregator, predictor Predictor, narrator Narrator, registry *chains.Registry, opts Options) *Inspector {
	return &Inspector{
		resolver:   resolver,
		aggregator: aggregator,
		predictor:  predictor,
		narrator:   narrator,
		registry:   registry,
		opts:       opts,
	}
}

// Result is the outcome of one inspection. Optional fields stay nil when a
// stage was skipped (native tokens, pending chain choice).
type Result struct {
	Symbol   string
	Address  string
	Chain    string
	Features *features.Record

	Prediction  *bool
	Probability *float64
	Report      string

	// NeedsChain is set when the token is deployed on several chains and
	// the caller must pick one from Platforms before proceeding.
	NeedsChain bool
	Platforms  map[string]string

	// NativeChain names the chain whose base asset the symbol is; set
	// only on the native short-circuit path.
	NativeChain string
}

// UnknownChainError reports an invalid chain selection together with
// fuzzy-matched alternatives from the known chain identifiers.
type UnknownChainError struct {
	Chain       string
	Suggestions []string
}

func (e *UnknownChainError) Error() string {
	if len(e.Suggestions) == 0 {
		return fmt.Sprintf("unknown chain %q", e.Chain)
	}
	return fmt.Sprintf("unknown chain %q, did you mean: %s", e.Chain, strings.Join(e.Suggestions, ", "))
}

// Inspect runs the full pipeline for a ticker symbol.
func (i *Inspector) Inspect(ctx context.Context, symbol string) (*Result, error) {
	symbol = helpers.NormalizeSymbol(symbol)

	if i.opts.NativeTokenShortCircuit {
		if chainID, ok := i.registry.NativeChain(symbol); ok {
			telemetry.Debugf("[inspector] %s is native to %s, skipping classification", symbol, chainID)
			return i.nativeResult(ctx, symbol, chainID), nil
		}
	}

	platforms, err := i.resolver.Resolve(ctx, symbol)
	if err != nil {
		var native *coingecko.NativeTokenError
		if errors.As(err, &native) {
			// The service itself flags some symbols as chain-native ones
			// the static table misses.
			return i.nativeResult(ctx, symbol, native.Chain), nil
		}
		return nil, err
	}

	if len(platforms) > 1 {
		return &Result{Symbol: symbol, NeedsChain: true, Platforms: platforms}, nil
	}

	chain, address := preferredPlatform(platforms)
	return i.InspectAddress(ctx, symbol, chain, address)
}

// SelectChain resumes a NeedsChain inspection with the user's choice.
func (i *Inspector) SelectChain(ctx context.Context, symbol string, platforms map[string]string, chain string) (*Result, error) {
	address, ok := platforms[chain]
	if !ok {
		return nil, &UnknownChainError{
			Chain:       chain,
			Suggestions: i.registry.Suggest(chain, 3),
		}
	}
	return i.InspectAddress(ctx, symbol, chain, address)
}

// InspectAddress aggregates, classifies and narrates one concrete
// contract address.
func (i *Inspector) InspectAddress(ctx context.Context, symbol, chain, address string) (*Result, error) {
	symbol = helpers.NormalizeSymbol(symbol)

	record, err := i.aggregator.Aggregate(ctx, address)
	if err != nil {
		return nil, err
	}

	isScam := i.predictor.Predict(record)
	probability := i.predictor.PredictProbability(record)

	prompts := []string{featureReportPrompt(symbol, address, record, isScam, probability)}
	if i.opts.ExtendedNarrative {
		prompts = append(prompts, backgroundPrompt(symbol))
	}

	return &Result{
		Symbol:      symbol,
		Address:     address,
		Chain:       chain,
		Features:    record,
		Prediction:  &isScam,
		Probability: &probability,
		Report:      i.narrate(ctx, prompts),
	}, nil
}

func (i *Inspector) nativeResult(ctx context.Context, symbol, chainID string) *Result {
	return &Result{
		Symbol:      symbol,
		NativeChain: chainID,
		Report:      i.narrate(ctx, []string{nativeTokenPrompt(symbol, chainID)}),
	}
}

// narrate fans the prompts out concurrently and joins the answers in
// order. A failed slot contributes the narrator's fallback string, never
// an aborted batch.
func (i *Inspector) narrate(ctx context.Context, prompts []string) string {
	parts := make([]string, len(prompts))
	var wg sync.WaitGroup
	for idx, prompt := range prompts {
		wg.Add(1)
		go func(idx int, prompt string) {
			defer wg.Done()
			parts[idx] = i.narrator.Generate(ctx, prompt)
		}(idx, prompt)
	}
	wg.Wait()
	return strings.Join(parts, "\n\n")
}

// preferredPlatform picks the address to inspect: ethereum when present,
// otherwise the first chain in lexical order so the choice is
// deterministic.
func preferredPlatform(platforms map[string]string) (string, string) {
	if addr, ok := platforms["ethereum"]; ok {
		return "ethereum", addr
	}
	keys := make([]string, 0, len(platforms))
	for chain := range platforms {
		keys = append(keys, chain)
	}
	sort.Strings(keys)
	if len(keys) == 0 {
		return "", ""
	}
	return keys[0], platforms[keys[0]]
}
