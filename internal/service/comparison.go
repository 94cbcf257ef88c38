package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/guregu/null.v3"

	"github.com/brandspot/funnel-backend/internal/app/appconfig"
	"github.com/brandspot/funnel-backend/internal/constant"
	"github.com/brandspot/funnel-backend/internal/model"
	modelcache "github.com/brandspot/funnel-backend/internal/model/cache"
	"github.com/brandspot/funnel-backend/internal/pkg/period"
	"github.com/brandspot/funnel-backend/internal/util"
)

// Comparison assembles period-over-period funnel reports: the primary window's
// funnel next to the comparison window's, with a variation row per metric.
type Comparison struct {
	FunnelService *Funnel

	resolver  *period.Resolver
	threshold float64
}

func NewComparison(conf *appconfig.Config, funnelService *Funnel) *Comparison {
	threshold := conf.TrendThreshold
	if threshold <= 0 {
		threshold = constant.DefaultTrendThreshold
	}
	return &Comparison{
		FunnelService: funnelService,
		resolver:      period.NewResolver(nil),
		threshold:     threshold,
	}
}

// ComparisonQuery carries one comparison request. CustomRange and
// CustomComparison only apply when the matching preset is the custom one.
type ComparisonQuery struct {
	PipelineID  int
	Preset      period.Preset
	CustomRange *period.Range
	Config      period.ComparisonConfig
	ViewMode    model.ViewMode
	StageFilter string
	Force       bool
}

// GetComparison resolves both windows, builds a report for each and compares
// them metric by metric. With comparison disabled (or unresolvable) only the
// primary report is returned.
func (s *Comparison) GetComparison(ctx context.Context, q ComparisonQuery) (*model.FunnelComparison, error) {
	primary := s.resolver.Primary(q.Preset, q.CustomRange)
	cmpRange := s.resolver.Comparison(primary, q.Preset, q.Config)

	sig := comparisonSignature(q, primary, cmpRange)

	valueFunc := func() (model.FunnelComparison, error) {
		result, err := s.build(ctx, q, primary, cmpRange)
		if err != nil {
			return model.FunnelComparison{}, err
		}
		return *result, nil
	}

	var result model.FunnelComparison
	if q.Force {
		var err error
		result, err = valueFunc()
		if err != nil {
			return nil, err
		}
		_ = modelcache.ComparisonBySignature.Set(sig, result, 0)
	} else if _, err := modelcache.ComparisonBySignature.MutexGetSet(sig, &result, valueFunc, 0); err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *Comparison) build(ctx context.Context, q ComparisonQuery, primary period.Range, cmpRange *period.Range) (*model.FunnelComparison, error) {
	current, err := s.FunnelService.GetFunnelReport(ctx, q.PipelineID, &primary, q.ViewMode, q.StageFilter, q.Force)
	if err != nil {
		return nil, err
	}

	result := &model.FunnelComparison{
		PipelineID:   q.PipelineID,
		PrimaryRange: primary,
		Current:      current,
	}
	if cmpRange == nil {
		return result, nil
	}

	previous, err := s.FunnelService.GetFunnelReport(ctx, q.PipelineID, cmpRange, q.ViewMode, q.StageFilter, q.Force)
	if err != nil {
		return nil, err
	}

	result.ComparisonRange = cmpRange
	result.Previous = previous
	result.Leads = s.countRow("Leads", float64(current.LeadsCount), float64(previous.LeadsCount))
	result.Stages = s.stageRows(current, previous)
	result.Conversions = s.conversionRows(current, previous)
	return result, nil
}

// countRow compares two absolute counts by percentage variation.
func (s *Comparison) countRow(metric string, current, previous float64) *model.MetricComparison {
	variation := util.PercentVariation(current, previous)
	return &model.MetricComparison{
		Metric:    metric,
		Current:   current,
		Previous:  previous,
		Variation: variation,
		Display:   util.FormatVariation(variation, false),
		Trend:     util.ClassifyTrend(variation, s.threshold),
	}
}

// rateRow compares two rates by percentage-point difference. The delta is
// always defined, so the row never carries a null variation.
func (s *Comparison) rateRow(metric string, current, previous float64) model.MetricComparison {
	variation := null.FloatFrom(util.PointsVariation(current, previous))
	return model.MetricComparison{
		Metric:    metric,
		Current:   current,
		Previous:  previous,
		Variation: variation,
		Points:    true,
		Display:   util.FormatVariation(variation, true),
		Trend:     util.ClassifyTrend(variation, s.threshold),
	}
}

// stageRows pairs stages by id. A stage absent from the previous report
// counts as 0 there, so newly introduced stages still produce a row.
func (s *Comparison) stageRows(current, previous *model.FunnelReport) []model.MetricComparison {
	prevByStage := make(map[int]float64, len(previous.Stages))
	for _, m := range previous.Stages {
		prevByStage[m.Stage.ID] = float64(m.Count)
	}

	rows := make([]model.MetricComparison, 0, len(current.Stages))
	for _, m := range current.Stages {
		rows = append(rows, *s.countRow(m.Stage.Name, float64(m.Count), prevByStage[m.Stage.ID]))
	}
	return rows
}

func (s *Comparison) conversionRows(current, previous *model.FunnelReport) []model.MetricComparison {
	prevByPair := make(map[string]float64, len(previous.Transitions))
	for _, t := range previous.Transitions {
		prevByPair[transitionKey(t)] = t.Rate
	}

	rows := make([]model.MetricComparison, 0, len(current.Transitions))
	for _, t := range current.Transitions {
		metric := fmt.Sprintf("%s > %s", t.From.Name, t.To.Name)
		rows = append(rows, s.rateRow(metric, t.Rate, prevByPair[transitionKey(t)]))
	}
	return rows
}

func transitionKey(t model.StageTransition) string {
	return strconv.Itoa(t.From.ID) + "_" + strconv.Itoa(t.To.ID)
}

func comparisonSignature(q ComparisonQuery, primary period.Range, cmpRange *period.Range) string {
	parts := []string{
		strconv.Itoa(q.PipelineID),
		string(q.ViewMode),
		q.StageFilter,
		primary.FormatStart(),
		primary.FormatEnd(),
	}
	if cmpRange != nil {
		parts = append(parts, cmpRange.FormatStart(), cmpRange.FormatEnd())
	} else {
		parts = append(parts, "off")
	}
	return strings.Join(parts, constant.CacheSep)
}
