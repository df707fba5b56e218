package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	TELEGRAM_TOKEN   string `yaml:"TELEGRAM_TOKEN"`
	TELEGRAM_CHAT_ID int64  `yaml:"TELEGRAM_CHAT_ID"`

	// secrets kept in YAML (NOT via telegram)
	ETHERSCAN_API_KEY string `yaml:"ETHERSCAN_API_KEY"`
	GEMINI_API_KEY    string `yaml:"GEMINI_API_KEY"`

	// Collaborator endpoints
	COINGECKO_API_BASE string `yaml:"COINGECKO_API_BASE"`
	ETHERSCAN_API_BASE string `yaml:"ETHERSCAN_API_BASE"`
	GEMINI_API_BASE    string `yaml:"GEMINI_API_BASE"`
	GEMINI_MODEL       string `yaml:"GEMINI_MODEL"`

	// Artifacts & local state
	FRAUD_MODEL_PATH string `yaml:"FRAUD_MODEL_PATH"`
	CACHE_PATH       string `yaml:"CACHE_PATH"`
	CHAINS_PATH      string `yaml:"CHAINS_PATH"`

	// HTTP behaviour
	REQUEST_TIMEOUT_SECONDS int `yaml:"REQUEST_TIMEOUT_SECONDS"`
	MAX_RETRIES             int `yaml:"MAX_RETRIES"`
	RETRY_DELAY_SECONDS     int `yaml:"RETRY_DELAY_SECONDS"`

	// Orchestration
	WORKER_POOL_SIZE           int  `yaml:"WORKER_POOL_SIZE"`
	NATIVE_TOKEN_SHORT_CIRCUIT bool `yaml:"NATIVE_TOKEN_SHORT_CIRCUIT"`
	EXTENDED_NARRATIVE         bool `yaml:"EXTENDED_NARRATIVE"`

	DEBUG bool `yaml:"DEBUG"`
}

const DefaultPath = "config.yml"

func Default() *Config {
	return &Config{
		TELEGRAM_TOKEN:   "",
		TELEGRAM_CHAT_ID: 0,

		ETHERSCAN_API_KEY: "",
		GEMINI_API_KEY:    "",

		COINGECKO_API_BASE: "https://api.coingecko.com/api/v3",
		ETHERSCAN_API_BASE: "https://api.etherscan.io/api",
		GEMINI_API_BASE:    "https://generativelanguage.googleapis.com/v1beta",
		GEMINI_MODEL:       "gemini-2.0-flash-lite",

		FRAUD_MODEL_PATH: "models/fraud_model.txt",
		CACHE_PATH:       "token_cache.db",
		CHAINS_PATH:      "data/supported_chains.json",

		REQUEST_TIMEOUT_SECONDS: 10,
		MAX_RETRIES:             3,
		RETRY_DELAY_SECONDS:     5,

		WORKER_POOL_SIZE:           4,
		NATIVE_TOKEN_SHORT_CIRCUIT: true,
		EXTENDED_NARRATIVE:         false,

		DEBUG: false,
	}
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("TELEGRAM_TOKEN"); v != "" {
		c.TELEGRAM_TOKEN = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.TELEGRAM_CHAT_ID = id
		}
	}
	if v := os.Getenv("ETHERSCAN_API_KEY"); v != "" {
		c.ETHERSCAN_API_KEY = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		c.GEMINI_API_KEY = v
	}
	if v := os.Getenv("FRAUD_MODEL_PATH"); v != "" {
		c.FRAUD_MODEL_PATH = v
	}
	if v := os.Getenv("DEBUG"); v != "" {
		c.DEBUG = v == "true" || v == "1"
	}
}

func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}
	// create if missing
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := Default()
		if err := Save(path, cfg); err != nil {
			return nil, fmt.Errorf("create default config: %w", err)
		}
		cfg.applyEnvOverrides()
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	cfg.applyEnvOverrides()
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.TELEGRAM_TOKEN == "" {
		return fmt.Errorf("TELEGRAM_TOKEN is required (set in config.yml or TELEGRAM_TOKEN env)")
	}
	if c.MAX_RETRIES < 1 {
		return fmt.Errorf("MAX_RETRIES must be at least 1, got %d", c.MAX_RETRIES)
	}
	if c.REQUEST_TIMEOUT_SECONDS < 1 {
		return fmt.Errorf("REQUEST_TIMEOUT_SECONDS must be at least 1, got %d", c.REQUEST_TIMEOUT_SECONDS)
	}
	if c.WORKER_POOL_SIZE < 1 {
		return fmt.Errorf("WORKER_POOL_SIZE must be at least 1, got %d", c.WORKER_POOL_SIZE)
	}
	return nil
}

func Save(path string, cfg *Config) error {
	if path == "" {
		path = DefaultPath
	}
	out, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, out, 0644)
}
