package model

import (
	"gopkg.in/guregu/null.v3"

	"github.com/brandspot/funnel-backend/internal/pkg/period"
)

// Trend classifies a variation's direction against a noise threshold.
type Trend string

const (
	TrendUp     Trend = "up"
	TrendDown   Trend = "down"
	TrendStable Trend = "stable"
)

// MetricComparison is one period-over-period row. Variation is a percentage
// delta for counts and a percentage-point delta for rates; an invalid (null)
// variation means no meaningful comparison exists and is never rendered as 0.
type MetricComparison struct {
	Metric    string     `json:"metric"`
	Current   float64    `json:"current"`
	Previous  float64    `json:"previous"`
	Variation null.Float `json:"variation"`
	Points    bool       `json:"points"`
	Display   string     `json:"display"`
	Trend     Trend      `json:"trend"`
}

// FunnelComparison is the assembled period-over-period report: the primary
// window's funnel next to the comparison window's, with per-metric rows.
type FunnelComparison struct {
	PipelineID      int                `json:"pipeline_id"`
	PrimaryRange    period.Range       `json:"primary_range"`
	ComparisonRange *period.Range      `json:"comparison_range,omitempty"`
	Current         *FunnelReport      `json:"current"`
	Previous        *FunnelReport      `json:"previous,omitempty"`
	Leads           *MetricComparison  `json:"leads,omitempty"`
	Stages          []MetricComparison `json:"stages,omitempty"`
	Conversions     []MetricComparison `json:"conversions,omitempty"`
}
