package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	linq "github.com/ahmetb/go-linq/v3"
	"github.com/samber/lo"

	"github.com/brandspot/funnel-backend/internal/app/appconfig"
	"github.com/brandspot/funnel-backend/internal/constant"
	"github.com/brandspot/funnel-backend/internal/model"
	modelcache "github.com/brandspot/funnel-backend/internal/model/cache"
	"github.com/brandspot/funnel-backend/internal/pkg/period"
	"github.com/brandspot/funnel-backend/internal/repo"
	"github.com/brandspot/funnel-backend/internal/util"
)

// Funnel builds pipeline reports from raw CRM funnel payloads.
type Funnel struct {
	CRMRepo *repo.CRM

	topN int
}

func NewFunnel(conf *appconfig.Config, crmRepo *repo.CRM) *Funnel {
	topN := conf.BreakdownTopN
	if topN <= 0 {
		topN = constant.DefaultBreakdownTopN
	}
	return &Funnel{
		CRMRepo: crmRepo,
		topN:    topN,
	}
}

// GetFunnelReport fetches the funnel payload for the given pipeline and
// period and aggregates it into a report. Results are memoized by the
// request signature; force bypasses both the memo and upstream caches.
func (s *Funnel) GetFunnelReport(ctx context.Context, pipelineID int, rng *period.Range, mode model.ViewMode, stageFilter string, force bool) (*model.FunnelReport, error) {
	sig := ReportSignature(pipelineID, rng, mode, stageFilter)

	valueFunc := func() (model.FunnelReport, error) {
		raw, err := s.CRMRepo.GetFunnelData(ctx, pipelineID, rng, mode, force)
		if err != nil {
			return model.FunnelReport{}, err
		}
		report := *s.Aggregate(pipelineID, raw, rng, mode, stageFilter)
		_ = modelcache.LastModifiedTime.Set("report"+constant.CacheSep+sig, report.LastUpdated, 0)
		return report, nil
	}

	var report model.FunnelReport
	if force {
		var err error
		report, err = valueFunc()
		if err != nil {
			return nil, err
		}
		_ = modelcache.FunnelReportBySignature.Set(sig, report, 0)
	} else if _, err := modelcache.FunnelReportBySignature.MutexGetSet(sig, &report, valueFunc, 0); err != nil {
		return nil, err
	}
	return &report, nil
}

// Aggregate derives a full report from one raw funnel payload. It is pure:
// no fetching, no caching.
func (s *Funnel) Aggregate(pipelineID int, raw *model.FunnelData, rng *period.Range, mode model.ViewMode, stageFilter string) *model.FunnelReport {
	var stages []*model.StageInfo
	linq.From(raw.Stages).
		OrderByT(func(st *model.StageInfo) int { return st.OrderNr }).
		ToSlice(&stages)

	var metrics []model.StageMetric
	switch mode {
	case model.ViewModeSnapshot:
		metrics = snapshotMetrics(stages, raw.StageCounts, raw.LeadsCount)
	default:
		metrics = arrivalMetrics(stages, raw.StageArrivals, raw.LeadsCount)
	}

	transitions := make([]model.StageTransition, 0, len(stages))
	for i := 0; i+1 < len(stages); i++ {
		rate, by := util.ResolveConversion(raw.Conversions, stages[i], stages[i+1])
		transitions = append(transitions, model.StageTransition{
			From:       stages[i],
			To:         stages[i+1],
			Rate:       rate,
			ResolvedBy: by,
		})
	}

	breakdowns := make(map[model.BreakdownLevel][]model.BreakdownEntry)
	for _, level := range model.BreakdownLevels {
		counts := raw.Breakdown(level)
		if counts == nil {
			continue
		}
		breakdowns[level] = s.rankBreakdown(counts, stageFilter)
	}

	return &model.FunnelReport{
		PipelineID:  pipelineID,
		ViewMode:    mode,
		Range:       rng,
		LeadsCount:  raw.LeadsCount,
		Stages:      metrics,
		Transitions: transitions,
		LostReasons: rankLostReasons(raw.LostReasons),
		Breakdowns:  breakdowns,
		LastUpdated: time.Now(),
	}
}

func snapshotMetrics(stages []*model.StageInfo, counts model.SnapshotStageCounts, leads int) []model.StageMetric {
	return stageMetrics(stages, map[int]int(counts), leads)
}

func arrivalMetrics(stages []*model.StageInfo, arrivals model.PeriodStageArrivals, leads int) []model.StageMetric {
	return stageMetrics(stages, map[int]int(arrivals), leads)
}

func stageMetrics(stages []*model.StageInfo, counts map[int]int, leads int) []model.StageMetric {
	metrics := make([]model.StageMetric, 0, len(stages))
	for _, st := range stages {
		count := counts[st.ID]
		var share float64
		if leads > 0 {
			share = float64(count) / float64(leads) * 100
		}
		metrics = append(metrics, model.StageMetric{
			Stage: st,
			Count: count,
			Share: share,
		})
	}
	return metrics
}

// rankBreakdown orders one breakdown level by descending count at the
// selected stage and keeps the top entries. Shares are computed against the
// pre-truncation total so the kept slice still tells how much of the whole
// it covers.
func (s *Funnel) rankBreakdown(counts model.BreakdownCounts, stageFilter string) []model.BreakdownEntry {
	stageKey := stageFilter
	if stageKey == "" {
		stageKey = model.BreakdownTotalKey
	}

	type row struct {
		key   string
		count int
	}
	rows := lo.FilterMap(lo.Keys(counts), func(key string, _ int) (row, bool) {
		count, ok := counts[key][stageKey]
		return row{key: key, count: count}, ok
	})

	total := lo.SumBy(rows, func(r row) int { return r.count })

	var ranked []row
	linq.From(rows).
		OrderByDescendingT(func(r row) int { return r.count }).
		ThenByT(func(r row) string { return r.key }).
		ToSlice(&ranked)

	if len(ranked) > s.topN {
		ranked = ranked[:s.topN]
	}

	return lo.Map(ranked, func(r row, _ int) model.BreakdownEntry {
		var share float64
		if total > 0 {
			share = float64(r.count) / float64(total) * 100
		}
		return model.BreakdownEntry{
			Key:   r.key,
			Count: r.count,
			Share: share,
		}
	})
}

func rankLostReasons(raw map[string]int) []model.BreakdownEntry {
	merged := util.MergeLostReasons(raw)
	total := lo.Sum(lo.Values(merged))

	type row struct {
		key   string
		count int
	}
	var ranked []row
	linq.From(lo.Keys(merged)).
		SelectT(func(key string) row { return row{key: key, count: merged[key]} }).
		OrderByDescendingT(func(r row) int { return r.count }).
		ThenByT(func(r row) string { return r.key }).
		ToSlice(&ranked)

	return lo.Map(ranked, func(r row, _ int) model.BreakdownEntry {
		var share float64
		if total > 0 {
			share = float64(r.count) / float64(total) * 100
		}
		return model.BreakdownEntry{
			Key:   r.key,
			Count: r.count,
			Share: share,
		}
	})
}

// GetStageDeals lists the deals currently sitting in one stage.
func (s *Funnel) GetStageDeals(ctx context.Context, pipelineID, stageID int, force bool) ([]*model.Deal, error) {
	return s.CRMRepo.GetStageDeals(ctx, pipelineID, stageID, force)
}

// GetCampaignSnapshot fetches campaign breakdowns in snapshot semantics:
// no window, counts reflect deals currently sitting in each stage. Memoized
// until the next refresh.
func (s *Funnel) GetCampaignSnapshot(ctx context.Context, pipelineID int, force bool) (*model.CampaignTracking, error) {
	sig := "snapshot" + constant.CacheSep + strconv.Itoa(pipelineID)

	valueFunc := func() (model.CampaignTracking, error) {
		data, err := s.CRMRepo.GetCampaignTrackingSnapshot(ctx, pipelineID, force)
		if err != nil {
			return model.CampaignTracking{}, err
		}
		return *data, nil
	}

	var tracking model.CampaignTracking
	if force {
		var err error
		tracking, err = valueFunc()
		if err != nil {
			return nil, err
		}
		_ = modelcache.CampaignTrackingBySignature.Set(sig, tracking, 0)
	} else if _, err := modelcache.CampaignTrackingBySignature.MutexGetSet(sig, &tracking, valueFunc, 0); err != nil {
		return nil, err
	}
	return &tracking, nil
}

// GetCallMetrics fetches SQL call metrics for the period.
func (s *Funnel) GetCallMetrics(ctx context.Context, pipelineID int, rng period.Range, force bool) (*model.CallMetrics, error) {
	return s.CRMRepo.GetSQLCallMetrics(ctx, pipelineID, rng, force)
}

// PurgeReports drops every memoized report and comparison. Used by forced
// refreshes so subsequent reads rebuild from fresh upstream data.
func (s *Funnel) PurgeReports() {
	modelcache.FunnelReportBySignature.Flush()
	modelcache.ComparisonBySignature.Flush()
}

// ReportSignature keys one report request for memoization and last-modified
// bookkeeping.
func ReportSignature(pipelineID int, rng *period.Range, mode model.ViewMode, stageFilter string) string {
	parts := []string{strconv.Itoa(pipelineID), string(mode), stageFilter}
	if rng != nil {
		parts = append(parts, rng.FormatStart(), rng.FormatEnd())
	}
	return strings.Join(parts, constant.CacheSep)
}
