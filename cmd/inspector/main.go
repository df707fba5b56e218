package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/vaskers5/crypto-token-fraud-analyzer/internal/cache"
	"github.com/vaskers5/crypto-token-fraud-analyzer/internal/chains"
	"github.com/vaskers5/crypto-token-fraud-analyzer/internal/classifier"
	"github.com/vaskers5/crypto-token-fraud-analyzer/internal/coingecko"
	"github.com/vaskers5/crypto-token-fraud-analyzer/internal/config"
	"github.com/vaskers5/crypto-token-fraud-analyzer/internal/etherscan"
	"github.com/vaskers5/crypto-token-fraud-analyzer/internal/features"
	"github.com/vaskers5/crypto-token-fraud-analyzer/internal/gemini"
	"github.com/vaskers5/crypto-token-fraud-analyzer/internal/inspector"
	"github.com/vaskers5/crypto-token-fraud-analyzer/internal/resolver"
	"github.com/vaskers5/crypto-token-fraud-analyzer/internal/retry"
	"github.com/vaskers5/crypto-token-fraud-analyzer/internal/telegram"
	"github.com/vaskers5/crypto-token-fraud-analyzer/internal/telemetry"
)

func main() {
	telemetry.Start()
	defer telemetry.Stop()

	// Ctrl-C / SIGTERM handling
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load config (creates config.yml if missing)
	cfg, err := config.Load(config.DefaultPath)
	if err != nil {
		log.Fatalf("config load: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config validation: %v", err)
	}
	telemetry.EnableDebug(cfg.DEBUG)

	registry, err := chains.Load(cfg.CHAINS_PATH)
	if err != nil {
		log.Fatalf("chain registry load: %v", err)
	}

	store, err := cache.Open(cfg.CACHE_PATH)
	if err != nil {
		log.Fatalf("cache open: %v", err)
	}
	defer store.Close()

	model, err := classifier.Load(cfg.FRAUD_MODEL_PATH)
	if err != nil {
		log.Fatalf("model load: %v", err)
	}

	timeout := time.Duration(cfg.REQUEST_TIMEOUT_SECONDS) * time.Second
	policy := retry.Policy{
		MaxAttempts: cfg.MAX_RETRIES,
		Delay:       time.Duration(cfg.RETRY_DELAY_SECONDS) * time.Second,
	}

	coins := coingecko.NewClient(cfg.COINGECKO_API_BASE, timeout)
	contracts := etherscan.NewClient(cfg.ETHERSCAN_API_BASE, cfg.ETHERSCAN_API_KEY, timeout)
	narrator := gemini.NewClient(cfg.GEMINI_API_BASE, cfg.GEMINI_API_KEY, cfg.GEMINI_MODEL, timeout)

	insp := inspector.New(
		resolver.New(coins, store, policy),
		features.NewAggregator(contracts, coins, policy),
		model,
		narrator,
		registry,
		inspector.Options{
			NativeTokenShortCircuit: cfg.NATIVE_TOKEN_SHORT_CIRCUIT,
			ExtendedNarrative:       cfg.EXTENDED_NARRATIVE,
		},
	)

	ctrl, err := telegram.NewController(cfg, config.DefaultPath, insp, registry)
	if err != nil {
		log.Fatalf("telegram init: %v", err)
	}

	telemetry.Infof("listening for commands")
	if err := ctrl.Start(ctx); err != nil {
		log.Fatalf("controller error: %v", err)
	}
	telemetry.Infof("shutting down")
}
