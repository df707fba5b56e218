// Package features builds the fixed-schema feature record a token
// inspection feeds into the fraud classifier: contract flags from the block
// explorer merged with market signals from the price aggregator.
package features

import "fmt"

// Record is the merged feature vector. Every field has a safe
// unknown/false/zero default rather than being absent.
type Record struct {
	// Contract metadata
	IsVerified   bool
	HasMint      bool
	HasBlacklist bool
	HasSetFee    bool
	HasWithdraw  bool
	HasUnlock    bool
	HasPause     bool
	HasChangeFee bool
	HasOwner     bool

	// Market metadata
	CEXListings        bool
	LargeDumpsDetected bool
	TradingVolume24h   float64
	PriceChange24h     float64
	PriceChange7d      float64

	// Informational, not a model feature.
	OptimizationUsed string
}

// Field is one named feature, used for prompt building and reports.
type Field struct {
	Name  string
	Value string
}

// Fields lists the record in a stable order.
func (r *Record) Fields() []Field {
	b := func(v bool) string { return fmt.Sprintf("%v", v) }
	f := func(v float64) string { return fmt.Sprintf("%g", v) }
	return []Field{
		{"is_verified", b(r.IsVerified)},
		{"has_mint", b(r.HasMint)},
		{"has_blacklist", b(r.HasBlacklist)},
		{"has_setfee", b(r.HasSetFee)},
		{"has_withdraw", b(r.HasWithdraw)},
		{"has_unlock", b(r.HasUnlock)},
		{"has_pause", b(r.HasPause)},
		{"has_changefee", b(r.HasChangeFee)},
		{"has_owner", b(r.HasOwner)},
		{"cex_listings", b(r.CEXListings)},
		{"large_dumps_detected", b(r.LargeDumpsDetected)},
		{"trading_volume_24h", f(r.TradingVolume24h)},
		{"price_change_24h", f(r.PriceChange24h)},
		{"price_change_7d", f(r.PriceChange7d)},
	}
}

func (r *Record) applyFlags(flags map[string]bool) {
	r.HasMint = flags["has_mint"]
	r.HasBlacklist = flags["has_blacklist"]
	r.HasSetFee = flags["has_setfee"]
	r.HasWithdraw = flags["has_withdraw"]
	r.HasUnlock = flags["has_unlock"]
	r.HasPause = flags["has_pause"]
	r.HasChangeFee = flags["has_changefee"]
	r.HasOwner = flags["has_owner"]
}
