package model

// ViewMode selects the meaning of stage metrics: arrivals within the requested
// window (period) or deals currently sitting in each stage (snapshot, which
// ignores the date range entirely). The two must never be mixed in one view.
type ViewMode string

const (
	ViewModePeriod   ViewMode = "period"
	ViewModeSnapshot ViewMode = "snapshot"
)

// StageInfo identifies a pipeline stage and its rank. Transitions are always
// formed between rank-adjacent stages in ascending OrderNr.
type StageInfo struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	OrderNr int    `json:"order_nr"`
}

// SnapshotStageCounts holds, per stage id, the number of currently-open deals
// sitting in that stage (point-in-time semantics).
type SnapshotStageCounts map[int]int

// PeriodStageArrivals holds, per stage id, the number of deals that newly
// reached that stage within the requested window (period semantics).
//
// SnapshotStageCounts and PeriodStageArrivals are deliberately distinct types:
// an aggregation accepts exactly one of them, so snapshot and period numbers
// cannot be cross-wired by accident.
type PeriodStageArrivals map[int]int

// BreakdownLevel names one of the dimensions a funnel can be broken down by.
type BreakdownLevel string

const (
	BreakdownCampaign   BreakdownLevel = "campaign"
	BreakdownAdset      BreakdownLevel = "adset"
	BreakdownCreative   BreakdownLevel = "creative"
	BreakdownLeadSource BreakdownLevel = "leadSource"
	BreakdownSector     BreakdownLevel = "sector"
)

// BreakdownLevels lists every level in report order.
var BreakdownLevels = []BreakdownLevel{
	BreakdownCampaign,
	BreakdownAdset,
	BreakdownCreative,
	BreakdownLeadSource,
	BreakdownSector,
}

// BreakdownTotalKey is the pseudo stage-filter key holding the all-stage total
// of a breakdown entry.
const BreakdownTotalKey = "total"

// BreakdownCounts holds raw counts for one breakdown level: outer key is the
// entry (campaign name, lead source, ...) used verbatim as returned by the CRM,
// inner key is the stage id rendered as a string, plus BreakdownTotalKey.
type BreakdownCounts map[string]map[string]int

// FunnelData is the raw per-pipeline payload returned by the CRM boundary for
// one window. All aggregation derives from this snapshot; nothing in it is
// persisted beyond the in-memory memoization cache.
type FunnelData struct {
	Stages        []*StageInfo        `json:"stages"`
	Conversions   map[string]float64  `json:"conversions"`
	LeadsCount    int                 `json:"leads_count"`
	StageCounts   SnapshotStageCounts `json:"stage_counts"`
	StageArrivals PeriodStageArrivals `json:"stage_arrivals"`
	LostReasons   map[string]int      `json:"lost_reasons"`
	Campaigns     BreakdownCounts     `json:"campaigns"`
	Adsets        BreakdownCounts     `json:"adsets"`
	Creatives     BreakdownCounts     `json:"creatives"`
	LeadSources   BreakdownCounts     `json:"lead_sources"`
	Sectors       BreakdownCounts     `json:"sectors"`
}

// Breakdown returns the raw counts for one level, or nil when the CRM did not
// deliver that level.
func (d *FunnelData) Breakdown(level BreakdownLevel) BreakdownCounts {
	switch level {
	case BreakdownCampaign:
		return d.Campaigns
	case BreakdownAdset:
		return d.Adsets
	case BreakdownCreative:
		return d.Creatives
	case BreakdownLeadSource:
		return d.LeadSources
	case BreakdownSector:
		return d.Sectors
	default:
		return nil
	}
}

// CampaignTracking is the payload of the campaign tracking actions: the three
// ad-platform breakdown levels for one pipeline.
type CampaignTracking struct {
	Campaigns BreakdownCounts `json:"campaigns"`
	Adsets    BreakdownCounts `json:"adsets"`
	Creatives BreakdownCounts `json:"creatives"`
}

// CallMetrics is the payload of the SQL-call metrics action.
type CallMetrics struct {
	CallsScheduled int `json:"calls_scheduled"`
	CallsCompleted int `json:"calls_completed"`
	CallsNoShow    int `json:"calls_no_show"`
}

// Deal is a single CRM deal as returned by the stage-deals action.
type Deal struct {
	ID       int     `json:"id"`
	Title    string  `json:"title"`
	Value    float64 `json:"value"`
	Currency string  `json:"currency"`
	Status   string  `json:"status"`
	StageID  int     `json:"stage_id"`
	AddTime  string  `json:"add_time"`
}
