package util

import (
	"fmt"
	"math"

	"gopkg.in/guregu/null.v3"

	"github.com/brandspot/funnel-backend/internal/model"
)

// PercentVariation returns the percentage delta between two counts. Growth
// from a zero base is reported as 100 when the current value is positive, and
// as null otherwise: an undefined variation is never coerced to 0.
func PercentVariation(current, previous float64) null.Float {
	if previous == 0 {
		if current > 0 {
			return null.FloatFrom(100)
		}
		return null.Float{}
	}
	return null.FloatFrom((current - previous) / previous * 100)
}

// PointsVariation returns the percentage-point delta between two rates. Rates
// are null-screened upstream, so the result is always defined.
func PointsVariation(currentRate, previousRate float64) float64 {
	return currentRate - previousRate
}

// ClassifyTrend buckets a variation into up/down/stable against a threshold.
// A null variation is stable. The threshold is per call site so that small
// samples can use a wider stability band.
func ClassifyTrend(variation null.Float, threshold float64) model.Trend {
	if !variation.Valid {
		return model.TrendStable
	}
	if variation.Float64 > threshold {
		return model.TrendUp
	}
	if variation.Float64 < -threshold {
		return model.TrendDown
	}
	return model.TrendStable
}

// FormatVariation renders a variation for display. Null becomes an em-dash
// placeholder. Values are signed and integer-rounded, except that nonzero
// magnitudes below 1 keep one decimal place so small deltas don't show as +0%.
func FormatVariation(variation null.Float, isPoints bool) string {
	if !variation.Valid {
		return "—"
	}
	suffix := "%"
	if isPoints {
		suffix = "pp"
	}
	v := variation.Float64
	if v != 0 && math.Abs(v) < 1 {
		return fmt.Sprintf("%+.1f%s", v, suffix)
	}
	return fmt.Sprintf("%+d%s", int(math.Round(v)), suffix)
}
