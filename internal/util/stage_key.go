package util

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/brandspot/funnel-backend/internal/model"
)

var parentheticalRe = regexp.MustCompile(`\([^)]*\)`)

// StageSlug derives the name-based lookup key fragment for a stage: the name
// is lower-cased, parenthetical suffixes are removed, and trailing descriptors
// after the first word are dropped. "MQL (qualificado)" becomes "mql".
func StageSlug(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = parentheticalRe.ReplaceAllString(s, "")
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// ResolveConversion looks up the conversion rate for the transition between
// two stages. The numeric-id composite key is tried first, then the
// name-slug key; an unresolved transition yields 0 ("no movement recorded"),
// never null. The returned tag reports which path fired.
func ResolveConversion(conversions map[string]float64, from, to *model.StageInfo) (float64, model.ResolvedBy) {
	if conversions != nil {
		idKey := strconv.Itoa(from.ID) + "_" + strconv.Itoa(to.ID)
		if rate, ok := conversions[idKey]; ok {
			return rate, model.ResolvedByID
		}

		nameKey := StageSlug(from.Name) + "_to_" + StageSlug(to.Name)
		if rate, ok := conversions[nameKey]; ok {
			return rate, model.ResolvedByName
		}
	}
	return 0, model.Unresolved
}
