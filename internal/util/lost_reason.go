package util

import (
	"strings"
)

// lostReasonRules map free-text loss reasons onto canonical buckets. Matching
// is keyword-based on the lower-cased reason; the first matching rule wins.
// Each canonical label matches its own rule, which keeps normalization
// idempotent.
var lostReasonRules = []struct {
	matches   func(s string) bool
	canonical string
}{
	{
		matches:   func(s string) bool { return strings.Contains(s, "fora do icp") },
		canonical: "Fora do ICP",
	},
	{
		matches: func(s string) bool {
			return strings.Contains(s, "desqualificado") && strings.Contains(s, "brandspot")
		},
		canonical: "Desqualificado (BrandSpot)",
	},
	{
		matches:   func(s string) bool { return strings.Contains(s, "sem contato") },
		canonical: "Sem contato",
	},
}

// NormalizeLostReason collapses a raw loss reason into its canonical bucket.
// Unmatched reasons pass through verbatim.
func NormalizeLostReason(raw string) string {
	s := strings.ToLower(raw)
	for _, rule := range lostReasonRules {
		if rule.matches(s) {
			return rule.canonical
		}
	}
	return raw
}

// MergeLostReasons normalizes every reason of a raw count map and merges the
// counts of reasons that collapse into the same bucket.
func MergeLostReasons(raw map[string]int) map[string]int {
	if raw == nil {
		return nil
	}
	merged := make(map[string]int, len(raw))
	for reason, count := range raw {
		merged[NormalizeLostReason(reason)] += count
	}
	return merged
}
