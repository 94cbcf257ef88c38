package model

import (
	"time"

	"github.com/brandspot/funnel-backend/internal/pkg/period"
)

// ResolvedBy tags which lookup path produced a transition's conversion rate.
type ResolvedBy string

const (
	ResolvedByID   ResolvedBy = "id"
	ResolvedByName ResolvedBy = "name"
	Unresolved     ResolvedBy = "unresolved"
)

// StageTransition is the conversion between two rank-adjacent stages. An
// unresolved lookup yields rate 0, meaning "no movement recorded", which is
// distinct from the null-on-undefined rule of variations.
type StageTransition struct {
	From       *StageInfo `json:"from"`
	To         *StageInfo `json:"to"`
	Rate       float64    `json:"rate"`
	ResolvedBy ResolvedBy `json:"resolved_by"`
}

// StageMetric is one stage's count under the report's view mode, with its
// share of the pipeline's lead total.
type StageMetric struct {
	Stage *StageInfo `json:"stage"`
	Count int        `json:"count"`
	Share float64    `json:"share"`
}

// BreakdownEntry is one ranked row of a breakdown view. Share is the entry's
// percentage of the pre-truncation total, so dropped tail entries still weigh
// into the denominator.
type BreakdownEntry struct {
	Key   string  `json:"key"`
	Count int     `json:"count"`
	Share float64 `json:"share"`
}

// FunnelReport is the fully aggregated funnel for one pipeline and window.
type FunnelReport struct {
	PipelineID  int                                 `json:"pipeline_id"`
	ViewMode    ViewMode                            `json:"view_mode"`
	Range       *period.Range                       `json:"range,omitempty"`
	LeadsCount  int                                 `json:"leads_count"`
	Stages      []StageMetric                       `json:"stages"`
	Transitions []StageTransition                   `json:"transitions"`
	LostReasons []BreakdownEntry                    `json:"lost_reasons"`
	Breakdowns  map[BreakdownLevel][]BreakdownEntry `json:"breakdowns"`
	LastUpdated time.Time                           `json:"last_updated"`
}
