// Package classifier wraps the pretrained gradient-boosting model. The
// artifact is loaded once at startup and consumed as a pure function from
// feature record to (label, probability).
package classifier

import (
	"fmt"

	"github.com/dmitryikh/leaves"

	"github.com/vaskers5/crypto-token-fraud-analyzer/internal/features"
)

// FeatureColumns is the fixed input order the model was trained with.
var FeatureColumns = []string{
	"cex_listings", "large_dumps_detected", "is_verified",
	"has_mint", "has_blacklist", "has_setfee", "has_withdraw",
	"has_unlock", "has_pause", "has_changefee", "has_owner",
}

type ensemble interface {
	PredictSingle(fvals []float64, nEstimators int) float64
}

type Classifier struct {
	model ensemble
}

// Load reads a LightGBM text artifact. The transformation (sigmoid) is
// loaded with the model so PredictSingle yields the scam-class probability.
func Load(path string) (*Classifier, error) {
	model, err := leaves.LGEnsembleFromFile(path, true)
	if err != nil {
		return nil, fmt.Errorf("load fraud model %s: %w", path, err)
	}
	return &Classifier{model: model}, nil
}

// New wraps an already-loaded ensemble; used by tests.
func New(model ensemble) *Classifier {
	return &Classifier{model: model}
}

// Vector projects the record onto FeatureColumns, coercing booleans to 0/1.
func Vector(r *features.Record) []float64 {
	b := func(v bool) float64 {
		if v {
			return 1
		}
		return 0
	}
	byName := map[string]float64{
		"cex_listings":         b(r.CEXListings),
		"large_dumps_detected": b(r.LargeDumpsDetected),
		"is_verified":          b(r.IsVerified),
		"has_mint":             b(r.HasMint),
		"has_blacklist":        b(r.HasBlacklist),
		"has_setfee":           b(r.HasSetFee),
		"has_withdraw":         b(r.HasWithdraw),
		"has_unlock":           b(r.HasUnlock),
		"has_pause":            b(r.HasPause),
		"has_changefee":        b(r.HasChangeFee),
		"has_owner":            b(r.HasOwner),
	}
	vec := make([]float64, len(FeatureColumns))
	for i, col := range FeatureColumns {
		vec[i] = byName[col] // missing columns stay 0
	}
	return vec
}

// Predict reports whether the record is classified as a scam.
func (c *Classifier) Predict(r *features.Record) bool {
	return c.scamProbability(r) >= 0.5
}

// PredictProbability returns the probability of the predicted class as a
// percentage in [0, 100].
func (c *Classifier) PredictProbability(r *features.Record) float64 {
	p := c.scamProbability(r)
	if p >= 0.5 {
		return p * 100
	}
	return (1 - p) * 100
}

func (c *Classifier) scamProbability(r *features.Record) float64 {
	return c.model.PredictSingle(Vector(r), 0)
}
