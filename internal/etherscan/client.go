// Package etherscan profiles a contract through the block explorer API:
// source verification status, the ABI text, and presence flags for a fixed
// vocabulary of suspicious function names.
package etherscan

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/vaskers5/crypto-token-fraud-analyzer/internal/retry"
)

const notVerifiedSentinel = "Contract source code not verified"

// SuspiciousFunctions is scanned as case-insensitive substrings of the ABI
// text, so e.g. "mintTo" or "ReMint" both count as mint.
var SuspiciousFunctions = []string{
	"mint", "blacklist", "setfee", "withdraw",
	"unlock", "pause", "changefee", "owner",
}

// Profile is the contract half of the feature record. Zero value means
// "unknown": an unverified contract leaves every flag false.
type Profile struct {
	IsVerified bool
	Flags      map[string]bool // keyed "has_mint", "has_blacklist", ...

	// Informational only, not a model feature.
	OptimizationUsed string
}

type Client struct {
	baseURL string
	apiKey  string
	hc      *http.Client
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		hc:      &http.Client{Timeout: timeout},
	}
}

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

func (c *Client) get(ctx context.Context, action, address string) (*envelope, error) {
	params := url.Values{
		"module":  {"contract"},
		"action":  {action},
		"address": {address},
		"apikey":  {c.apiKey},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, retry.Transient(fmt.Errorf("etherscan %s: %w", action, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, retry.Transient(fmt.Errorf("etherscan %s: unexpected status %s", action, resp.Status))
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, retry.Transient(fmt.Errorf("etherscan %s: read body: %w", action, err))
	}
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("etherscan %s: decode: %w", action, err)
	}
	return &env, nil
}

// ContractProfile fetches the ABI and source metadata for address and
// derives the verification flag plus the suspicious-function flags.
func (c *Client) ContractProfile(ctx context.Context, address string) (*Profile, error) {
	if !common.IsHexAddress(address) {
		return nil, fmt.Errorf("invalid contract address: %s", address)
	}
	addr := common.HexToAddress(address).Hex()

	profile := &Profile{Flags: defaultFlags()}

	abiEnv, err := c.get(ctx, "getabi", addr)
	if err != nil {
		return nil, err
	}
	var abiText string
	if err := json.Unmarshal(abiEnv.Result, &abiText); err != nil {
		// Some explorer errors put an object in result; treat as unverified.
		abiText = notVerifiedSentinel
	}
	if abiEnv.Status == "1" && !strings.Contains(abiText, notVerifiedSentinel) {
		profile.IsVerified = true
		profile.Flags = ScanABI(abiText)
	}

	srcEnv, err := c.get(ctx, "getsourcecode", addr)
	if err != nil {
		return nil, err
	}
	if srcEnv.Status == "1" {
		var sources []struct {
			OptimizationUsed string `json:"OptimizationUsed"`
		}
		if err := json.Unmarshal(srcEnv.Result, &sources); err == nil && len(sources) > 0 {
			profile.OptimizationUsed = sources[0].OptimizationUsed
		}
	}

	return profile, nil
}

// ScanABI flags suspicious function names in the ABI text. Substring
// search, not exact matching: "mintTo" sets has_mint.
func ScanABI(abiText string) map[string]bool {
	flags := defaultFlags()
	lower := strings.ToLower(abiText)
	for _, name := range SuspiciousFunctions {
		flags["has_"+name] = strings.Contains(lower, name)
	}
	return flags
}

func defaultFlags() map[string]bool {
	flags := make(map[string]bool, len(SuspiciousFunctions))
	for _, name := range SuspiciousFunctions {
		flags["has_"+name] = false
	}
	return flags
}
