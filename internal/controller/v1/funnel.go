package v1

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/fx"

	"github.com/brandspot/funnel-backend/internal/constant"
	"github.com/brandspot/funnel-backend/internal/model"
	modelcache "github.com/brandspot/funnel-backend/internal/model/cache"
	"github.com/brandspot/funnel-backend/internal/pkg/bserr"
	"github.com/brandspot/funnel-backend/internal/pkg/cachectrl"
	"github.com/brandspot/funnel-backend/internal/pkg/period"
	"github.com/brandspot/funnel-backend/internal/pkg/rekuest"
	"github.com/brandspot/funnel-backend/internal/server/svr"
	"github.com/brandspot/funnel-backend/internal/service"
)

// resolver turns preset query params into concrete calendar ranges.
var resolver = period.NewResolver(nil)

type Funnel struct {
	fx.In

	FunnelService     *service.Funnel
	ComparisonService *service.Comparison
	FeedsService      *service.Feeds
}

func RegisterFunnel(v1 *svr.V1, c Funnel) {
	v1.Get("/funnel", c.GetFunnel)
	v1.Get("/funnel/comparison", c.GetComparison)
	v1.Get("/funnel/snapshot", c.GetSnapshot)
	v1.Get("/funnel/campaign-tracking", c.GetCampaignTracking)
	v1.Get("/funnel/stage-deals", c.GetStageDeals)
	v1.Get("/funnel/call-metrics", c.GetCallMetrics)
	v1.Post("/funnel/refresh", c.Refresh)
}

type funnelRequest struct {
	PipelineID int    `query:"pipelineId" validate:"required,min=1"`
	Preset     string `query:"preset" validate:"omitempty,caseinsensitiveoneof=today yesterday thisWeek last7Days last14Days last30Days last90Days thisMonth lastMonth thisYear lastYear custom"`
	StartDate  string `query:"startDate" validate:"omitempty,datetime=2006-01-02"`
	EndDate    string `query:"endDate" validate:"omitempty,datetime=2006-01-02"`
	ViewMode   string `query:"viewMode" validate:"omitempty,caseinsensitiveoneof=period snapshot"`
	Stage      string `query:"stage"`
	Force      bool   `query:"force"`
}

func (r *funnelRequest) preset() period.Preset {
	// the validator matches case-insensitively, so canonicalize before use
	if p, ok := period.CanonicalPreset(r.Preset); ok {
		return p
	}
	return period.PresetLast7Days
}

func (r *funnelRequest) viewMode() model.ViewMode {
	if strings.EqualFold(r.ViewMode, string(model.ViewModeSnapshot)) {
		return model.ViewModeSnapshot
	}
	return model.ViewModePeriod
}

// customRange builds the explicit range for the custom preset. Both bounds
// must be present together and ordered.
func (r *funnelRequest) customRange() (*period.Range, error) {
	if r.StartDate == "" && r.EndDate == "" {
		return nil, nil
	}
	if r.StartDate == "" || r.EndDate == "" {
		return nil, bserr.ErrInvalidReq.Msg("startDate and endDate must be provided together")
	}
	start, err := period.ParseDate(r.StartDate)
	if err != nil {
		return nil, bserr.ErrInvalidReq.Msg("invalid startDate: %s", r.StartDate)
	}
	end, err := period.ParseDate(r.EndDate)
	if err != nil {
		return nil, bserr.ErrInvalidReq.Msg("invalid endDate: %s", r.EndDate)
	}
	rng := period.NewRange(start, end)
	if !rng.Valid() {
		return nil, bserr.ErrInvalidReq.Msg("startDate must not be after endDate")
	}
	return &rng, nil
}

func (c *Funnel) GetFunnel(ctx *fiber.Ctx) error {
	var req funnelRequest
	if err := rekuest.ValidQuery(ctx, &req); err != nil {
		return err
	}
	custom, err := req.customRange()
	if err != nil {
		return err
	}

	// snapshot reports ignore the window: counts are point-in-time
	var rng *period.Range
	if req.viewMode() == model.ViewModePeriod {
		resolved := resolver.Primary(req.preset(), custom)
		rng = &resolved
	}
	report, err := c.FunnelService.GetFunnelReport(ctx.UserContext(), req.PipelineID, rng, req.viewMode(), req.Stage, req.Force)
	if err != nil {
		return err
	}

	var lastModifiedTime time.Time
	sig := service.ReportSignature(req.PipelineID, rng, req.viewMode(), req.Stage)
	if err := modelcache.LastModifiedTime.Get("report"+constant.CacheSep+sig, &lastModifiedTime); err != nil {
		lastModifiedTime = time.Now()
	}
	cachectrl.OptIn(ctx, lastModifiedTime)
	return ctx.JSON(report)
}

type comparisonRequest struct {
	funnelRequest
	Compare      string `query:"compare" validate:"omitempty,caseinsensitiveoneof=auto previousMonth previousQuarter sameLastYear custom off"`
	CompareStart string `query:"compareStart" validate:"omitempty,datetime=2006-01-02"`
	CompareEnd   string `query:"compareEnd" validate:"omitempty,datetime=2006-01-02"`
}

func (r *comparisonRequest) comparisonConfig() (period.ComparisonConfig, error) {
	cfg := period.ComparisonConfig{Enabled: true, Preset: period.CompareAuto}
	preset, ok := period.CanonicalComparisonPreset(r.Compare)
	if !ok {
		// absent compare param defaults to the auto mirror
		return cfg, nil
	}
	switch preset {
	case period.CompareAuto:
	case period.CompareOff:
		return period.ComparisonConfig{}, nil
	case period.CompareCustom:
		if r.CompareStart == "" || r.CompareEnd == "" {
			return cfg, bserr.ErrInvalidReq.Msg("compareStart and compareEnd are required for custom comparison")
		}
		start, err := period.ParseDate(r.CompareStart)
		if err != nil {
			return cfg, bserr.ErrInvalidReq.Msg("invalid compareStart: %s", r.CompareStart)
		}
		end, err := period.ParseDate(r.CompareEnd)
		if err != nil {
			return cfg, bserr.ErrInvalidReq.Msg("invalid compareEnd: %s", r.CompareEnd)
		}
		rng := period.NewRange(start, end)
		if !rng.Valid() {
			return cfg, bserr.ErrInvalidReq.Msg("compareStart must not be after compareEnd")
		}
		cfg.Preset = period.CompareCustom
		cfg.CustomRange = &rng
	default:
		cfg.Preset = preset
	}
	return cfg, nil
}

func (c *Funnel) GetComparison(ctx *fiber.Ctx) error {
	var req comparisonRequest
	if err := rekuest.ValidQuery(ctx, &req); err != nil {
		return err
	}
	custom, err := req.customRange()
	if err != nil {
		return err
	}
	cfg, err := req.comparisonConfig()
	if err != nil {
		return err
	}

	result, err := c.ComparisonService.GetComparison(ctx.UserContext(), service.ComparisonQuery{
		PipelineID:  req.PipelineID,
		Preset:      req.preset(),
		CustomRange: custom,
		Config:      cfg,
		ViewMode:    req.viewMode(),
		StageFilter: req.Stage,
		Force:       req.Force,
	})
	if err != nil {
		return err
	}
	return ctx.JSON(result)
}

type snapshotRequest struct {
	PipelineID int  `query:"pipelineId" validate:"required,min=1"`
	Force      bool `query:"force"`
}

func (c *Funnel) GetSnapshot(ctx *fiber.Ctx) error {
	var req snapshotRequest
	if err := rekuest.ValidQuery(ctx, &req); err != nil {
		return err
	}

	view := c.FeedsService.GetSnapshot(ctx.UserContext(), req.PipelineID, req.Force)
	if view.Error != "" && !view.HasData {
		return bserr.ErrUpstream.Msg("%s", view.Error)
	}
	cachectrl.OptIn(ctx, view.LastUpdated)
	return ctx.JSON(view)
}

type campaignTrackingRequest struct {
	funnelRequest
	Wait bool `query:"wait"`
}

func (c *Funnel) GetCampaignTracking(ctx *fiber.Ctx) error {
	var req campaignTrackingRequest
	if err := rekuest.ValidQuery(ctx, &req); err != nil {
		return err
	}
	custom, err := req.customRange()
	if err != nil {
		return err
	}

	// snapshot tracking has no window, so the range feed does not apply
	if req.viewMode() == model.ViewModeSnapshot {
		tracking, err := c.FunnelService.GetCampaignSnapshot(ctx.UserContext(), req.PipelineID, req.Force)
		if err != nil {
			return err
		}
		return ctx.JSON(tracking)
	}

	rng := resolver.Primary(req.preset(), custom)
	view := c.FeedsService.TrackCampaigns(ctx.UserContext(), req.PipelineID, rng, req.Wait, req.Force)
	return ctx.JSON(view)
}

type stageDealsRequest struct {
	PipelineID int  `query:"pipelineId" validate:"required,min=1"`
	StageID    int  `query:"stageId" validate:"required,min=1"`
	Force      bool `query:"force"`
}

func (c *Funnel) GetStageDeals(ctx *fiber.Ctx) error {
	var req stageDealsRequest
	if err := rekuest.ValidQuery(ctx, &req); err != nil {
		return err
	}

	deals, err := c.FunnelService.GetStageDeals(ctx.UserContext(), req.PipelineID, req.StageID, req.Force)
	if err != nil {
		return err
	}
	return ctx.JSON(deals)
}

func (c *Funnel) GetCallMetrics(ctx *fiber.Ctx) error {
	var req funnelRequest
	if err := rekuest.ValidQuery(ctx, &req); err != nil {
		return err
	}
	custom, err := req.customRange()
	if err != nil {
		return err
	}

	rng := resolver.Primary(req.preset(), custom)
	metrics, err := c.FunnelService.GetCallMetrics(ctx.UserContext(), req.PipelineID, rng, req.Force)
	if err != nil {
		return err
	}
	return ctx.JSON(metrics)
}

type refreshRequest struct {
	PipelineID int `json:"pipelineId" validate:"required,min=1"`
}

func (c *Funnel) Refresh(ctx *fiber.Ctx) error {
	var req refreshRequest
	if err := rekuest.ValidBody(ctx, &req); err != nil {
		return err
	}

	view := c.FeedsService.Refresh(ctx.UserContext(), req.PipelineID, c.FunnelService)
	if view.Error != "" && !view.HasData {
		return bserr.ErrUpstream.Msg("%s", view.Error)
	}
	return ctx.JSON(view)
}
