package features

// dumpThreshold flags a single-step drop of more than 25% between two
// consecutive price samples.
const dumpThreshold = -0.25

// DetectLargeDumps scans a price series at the source's native granularity
// and reports whether any two consecutive samples show a drop beyond the
// threshold. Gradual declines across several steps do not count.
func DetectLargeDumps(prices []float64) bool {
	for i := 1; i < len(prices); i++ {
		prev, curr := prices[i-1], prices[i]
		if prev == 0 {
			continue
		}
		if (curr-prev)/prev < dumpThreshold {
			return true
		}
	}
	return false
}
