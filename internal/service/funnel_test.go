package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brandspot/funnel-backend/internal/app/appconfig"
	"github.com/brandspot/funnel-backend/internal/model"
	modelcache "github.com/brandspot/funnel-backend/internal/model/cache"
	"github.com/brandspot/funnel-backend/internal/pkg/period"
	"github.com/brandspot/funnel-backend/internal/repo"
)

func newTestFunnel(topN int) *Funnel {
	conf := &appconfig.Config{}
	conf.BreakdownTopN = topN
	return NewFunnel(conf, nil)
}

func testRange() *period.Range {
	rng := period.NewRange(
		time.Date(2023, time.June, 8, 0, 0, 0, 0, time.UTC),
		time.Date(2023, time.June, 14, 0, 0, 0, 0, time.UTC),
	)
	return &rng
}

func TestAggregateOrdersStagesAndResolvesTransitions(t *testing.T) {
	raw := &model.FunnelData{
		Stages: []*model.StageInfo{
			{ID: 3, Name: "SQL", OrderNr: 3},
			{ID: 1, Name: "Lead", OrderNr: 1},
			{ID: 4, Name: "Won", OrderNr: 4},
			{ID: 2, Name: "MQL (qualificado)", OrderNr: 2},
		},
		Conversions: map[string]float64{
			"1_2":        35.5,
			"mql_to_sql": 12,
		},
		LeadsCount:    200,
		StageArrivals: model.PeriodStageArrivals{1: 200, 2: 71, 3: 24, 4: 6},
	}

	s := newTestFunnel(10)
	report := s.Aggregate(7, raw, testRange(), model.ViewModePeriod, "")

	require.Len(t, report.Stages, 4)
	assert.Equal(t, "Lead", report.Stages[0].Stage.Name)
	assert.Equal(t, "MQL (qualificado)", report.Stages[1].Stage.Name)
	assert.Equal(t, "SQL", report.Stages[2].Stage.Name)
	assert.Equal(t, "Won", report.Stages[3].Stage.Name)

	require.Len(t, report.Transitions, 3)

	assert.Equal(t, 35.5, report.Transitions[0].Rate)
	assert.Equal(t, model.ResolvedByID, report.Transitions[0].ResolvedBy)

	// "MQL (qualificado)" slugs to "mql", matching the name-keyed entry
	assert.Equal(t, float64(12), report.Transitions[1].Rate)
	assert.Equal(t, model.ResolvedByName, report.Transitions[1].ResolvedBy)

	assert.Zero(t, report.Transitions[2].Rate)
	assert.Equal(t, model.Unresolved, report.Transitions[2].ResolvedBy)
}

func TestAggregateViewModeSelectsCounts(t *testing.T) {
	raw := &model.FunnelData{
		Stages: []*model.StageInfo{
			{ID: 1, Name: "Lead", OrderNr: 1},
			{ID: 2, Name: "MQL", OrderNr: 2},
		},
		LeadsCount:    10,
		StageCounts:   model.SnapshotStageCounts{1: 4, 2: 9},
		StageArrivals: model.PeriodStageArrivals{1: 10, 2: 3},
	}

	s := newTestFunnel(10)

	periodReport := s.Aggregate(7, raw, testRange(), model.ViewModePeriod, "")
	assert.Equal(t, 10, periodReport.Stages[0].Count)
	assert.Equal(t, 3, periodReport.Stages[1].Count)
	assert.InDelta(t, 30.0, periodReport.Stages[1].Share, 1e-9)

	snapshotReport := s.Aggregate(7, raw, nil, model.ViewModeSnapshot, "")
	assert.Equal(t, 4, snapshotReport.Stages[0].Count)
	assert.Equal(t, 9, snapshotReport.Stages[1].Count)
}

func TestRankBreakdownTruncatesAfterTotal(t *testing.T) {
	counts := model.BreakdownCounts{
		"camp-a": {model.BreakdownTotalKey: 50},
		"camp-b": {model.BreakdownTotalKey: 30},
		"camp-c": {model.BreakdownTotalKey: 15},
		"camp-d": {model.BreakdownTotalKey: 4},
		"camp-e": {model.BreakdownTotalKey: 1},
	}

	s := newTestFunnel(3)
	ranked := s.rankBreakdown(counts, "")

	require.Len(t, ranked, 3)
	assert.Equal(t, "camp-a", ranked[0].Key)
	assert.Equal(t, "camp-b", ranked[1].Key)
	assert.Equal(t, "camp-c", ranked[2].Key)

	// shares keep the dropped tail in the denominator (total 100)
	assert.InDelta(t, 50.0, ranked[0].Share, 1e-9)
	assert.InDelta(t, 30.0, ranked[1].Share, 1e-9)
	assert.InDelta(t, 15.0, ranked[2].Share, 1e-9)
}

func TestRankBreakdownStageFilter(t *testing.T) {
	counts := model.BreakdownCounts{
		"camp-a": {model.BreakdownTotalKey: 50, "2": 5},
		"camp-b": {model.BreakdownTotalKey: 30, "2": 12},
		"camp-c": {model.BreakdownTotalKey: 15},
	}

	s := newTestFunnel(10)
	ranked := s.rankBreakdown(counts, "2")

	// entries without the stage key are excluded, not counted as zero
	require.Len(t, ranked, 2)
	assert.Equal(t, "camp-b", ranked[0].Key)
	assert.Equal(t, 12, ranked[0].Count)
	assert.Equal(t, "camp-a", ranked[1].Key)
	assert.InDelta(t, 100.0*12/17, ranked[0].Share, 1e-9)
}

func TestRankBreakdownTiesBreakByKey(t *testing.T) {
	counts := model.BreakdownCounts{
		"zz": {model.BreakdownTotalKey: 10},
		"aa": {model.BreakdownTotalKey: 10},
		"mm": {model.BreakdownTotalKey: 10},
	}

	s := newTestFunnel(10)
	ranked := s.rankBreakdown(counts, "")

	require.Len(t, ranked, 3)
	assert.Equal(t, "aa", ranked[0].Key)
	assert.Equal(t, "mm", ranked[1].Key)
	assert.Equal(t, "zz", ranked[2].Key)
}

func TestLostReasonsMergedAndRanked(t *testing.T) {
	raw := &model.FunnelData{
		Stages:     []*model.StageInfo{{ID: 1, Name: "Lead", OrderNr: 1}},
		LeadsCount: 10,
		LostReasons: map[string]int{
			"fora do ICP":   2,
			"Fora do ICP":   3,
			"Preço elevado": 4,
		},
	}

	s := newTestFunnel(10)
	report := s.Aggregate(7, raw, testRange(), model.ViewModePeriod, "")

	require.Len(t, report.LostReasons, 2)
	assert.Equal(t, "Fora do ICP", report.LostReasons[0].Key)
	assert.Equal(t, 5, report.LostReasons[0].Count)
	assert.Equal(t, "Preço elevado", report.LostReasons[1].Key)
	assert.InDelta(t, 100.0*5/9, report.LostReasons[0].Share, 1e-9)
}

func TestAggregateSkipsAbsentBreakdownLevels(t *testing.T) {
	raw := &model.FunnelData{
		Stages:     []*model.StageInfo{{ID: 1, Name: "Lead", OrderNr: 1}},
		LeadsCount: 10,
		Campaigns: model.BreakdownCounts{
			"camp-a": {model.BreakdownTotalKey: 10},
		},
	}

	s := newTestFunnel(10)
	report := s.Aggregate(7, raw, testRange(), model.ViewModePeriod, "")

	assert.Contains(t, report.Breakdowns, model.BreakdownCampaign)
	assert.NotContains(t, report.Breakdowns, model.BreakdownAdset)
	assert.NotContains(t, report.Breakdowns, model.BreakdownSector)
}

func newUpstreamFunnel(t *testing.T, calls *atomic.Int64) *Funnel {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{
			"success": true,
			"data": {
				"stages": [{"id": 1, "name": "Lead", "order_nr": 1}],
				"leads_count": 42,
				"stage_arrivals": {"1": 42}
			}
		}`))
	}))
	t.Cleanup(srv.Close)

	conf := &appconfig.Config{}
	conf.CRMProxyURL = srv.URL
	conf.CRMRetryAttempts = 1
	conf.BreakdownTopN = 10

	return NewFunnel(conf, repo.NewCRM(conf, &http.Client{Timeout: time.Second}))
}

func TestGetFunnelReportMemoizesBySignature(t *testing.T) {
	modelcache.Initialize()

	var calls atomic.Int64
	s := newUpstreamFunnel(t, &calls)
	ctx := context.Background()

	first, err := s.GetFunnelReport(ctx, 901, testRange(), model.ViewModePeriod, "", false)
	require.NoError(t, err)
	assert.Equal(t, 42, first.LeadsCount)
	assert.EqualValues(t, 1, calls.Load())

	second, err := s.GetFunnelReport(ctx, 901, testRange(), model.ViewModePeriod, "", false)
	require.NoError(t, err)
	assert.Equal(t, first.LastUpdated, second.LastUpdated)
	assert.EqualValues(t, 1, calls.Load())

	// a different window is a different signature
	other := period.NewRange(
		time.Date(2023, time.June, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2023, time.June, 7, 0, 0, 0, 0, time.UTC),
	)
	_, err = s.GetFunnelReport(ctx, 901, &other, model.ViewModePeriod, "", false)
	require.NoError(t, err)
	assert.EqualValues(t, 2, calls.Load())
}

func TestGetFunnelReportForceBypassesMemo(t *testing.T) {
	modelcache.Initialize()

	var calls atomic.Int64
	s := newUpstreamFunnel(t, &calls)
	ctx := context.Background()

	_, err := s.GetFunnelReport(ctx, 902, testRange(), model.ViewModePeriod, "", false)
	require.NoError(t, err)
	_, err = s.GetFunnelReport(ctx, 902, testRange(), model.ViewModePeriod, "", true)
	require.NoError(t, err)
	assert.EqualValues(t, 2, calls.Load())

	// the forced result replaces the memoized one
	_, err = s.GetFunnelReport(ctx, 902, testRange(), model.ViewModePeriod, "", false)
	require.NoError(t, err)
	assert.EqualValues(t, 2, calls.Load())
}

func TestGetCampaignSnapshotMemoizesPerPipeline(t *testing.T) {
	modelcache.Initialize()

	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{
			"success": true,
			"data": {"campaigns": {"camp-a": {"total": 3}}}
		}`))
	}))
	t.Cleanup(srv.Close)

	conf := &appconfig.Config{}
	conf.CRMProxyURL = srv.URL
	conf.CRMRetryAttempts = 1
	conf.BreakdownTopN = 10
	s := NewFunnel(conf, repo.NewCRM(conf, &http.Client{Timeout: time.Second}))
	ctx := context.Background()

	tracking, err := s.GetCampaignSnapshot(ctx, 903, false)
	require.NoError(t, err)
	assert.Equal(t, 3, tracking.Campaigns["camp-a"][model.BreakdownTotalKey])
	assert.EqualValues(t, 1, calls.Load())

	_, err = s.GetCampaignSnapshot(ctx, 903, false)
	require.NoError(t, err)
	assert.EqualValues(t, 1, calls.Load())

	_, err = s.GetCampaignSnapshot(ctx, 903, true)
	require.NoError(t, err)
	assert.EqualValues(t, 2, calls.Load())
}
