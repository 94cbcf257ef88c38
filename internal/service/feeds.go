package service

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/brandspot/funnel-backend/internal/app/appconfig"
	"github.com/brandspot/funnel-backend/internal/model"
	modelcache "github.com/brandspot/funnel-backend/internal/model/cache"
	"github.com/brandspot/funnel-backend/internal/pkg/period"
	"github.com/brandspot/funnel-backend/internal/repo"
)

// trackingParams keys one campaign tracking request. Equal values mean the
// same upstream call.
type trackingParams struct {
	PipelineID int
	Start      string
	End        string
}

// Feeds multiplexes per-pipeline data feeds. Snapshot feeds refetch
// immediately when addressed; campaign tracking feeds debounce range changes
// so a user dragging a date picker does not spray upstream calls.
type Feeds struct {
	CRMRepo *repo.CRM

	debounce time.Duration

	mu       sync.Mutex
	snapshot map[int]*Feed[int, *model.FunnelData]
	tracking map[int]*Feed[trackingParams, *model.CampaignTracking]
}

func NewFeeds(conf *appconfig.Config, crmRepo *repo.CRM) *Feeds {
	return &Feeds{
		CRMRepo:  crmRepo,
		debounce: conf.FetchDebounce,
		snapshot: make(map[int]*Feed[int, *model.FunnelData]),
		tracking: make(map[int]*Feed[trackingParams, *model.CampaignTracking]),
	}
}

func (s *Feeds) snapshotFeed(pipelineID int) *Feed[int, *model.FunnelData] {
	s.mu.Lock()
	defer s.mu.Unlock()
	feed, ok := s.snapshot[pipelineID]
	if !ok {
		feed = NewFeed(func(ctx context.Context, id int, force bool) (*model.FunnelData, error) {
			return s.CRMRepo.GetFunnelData(ctx, id, nil, model.ViewModeSnapshot, force)
		}, 0)
		s.snapshot[pipelineID] = feed
	}
	return feed
}

func (s *Feeds) trackingFeed(pipelineID int) *Feed[trackingParams, *model.CampaignTracking] {
	s.mu.Lock()
	defer s.mu.Unlock()
	feed, ok := s.tracking[pipelineID]
	if !ok {
		feed = NewFeed(func(ctx context.Context, p trackingParams, force bool) (*model.CampaignTracking, error) {
			start, err := period.ParseDate(p.Start)
			if err != nil {
				return nil, errors.WithStack(err)
			}
			end, err := period.ParseDate(p.End)
			if err != nil {
				return nil, errors.WithStack(err)
			}
			return s.CRMRepo.GetCampaignTracking(ctx, p.PipelineID, period.NewRange(start, end), force)
		}, s.debounce)
		s.tracking[pipelineID] = feed
	}
	return feed
}

// GetSnapshot returns the snapshot feed's state for one pipeline, refetching
// first. Snapshot data ignores date ranges entirely.
func (s *Feeds) GetSnapshot(ctx context.Context, pipelineID int, force bool) FeedView[*model.FunnelData] {
	feed := s.snapshotFeed(pipelineID)
	select {
	case <-feed.Refetch(ctx, pipelineID, force):
	case <-ctx.Done():
	}
	return feed.View()
}

// TrackCampaigns notes a range change on the pipeline's tracking feed and
// returns its current state. The actual fetch fires after the debounce
// delay, so callers see a loading view until it settles; wait blocks for the
// result instead, bypassing the debounce. force always dispatches, even when
// the range is unchanged.
func (s *Feeds) TrackCampaigns(ctx context.Context, pipelineID int, rng period.Range, wait, force bool) FeedView[*model.CampaignTracking] {
	feed := s.trackingFeed(pipelineID)
	params := trackingParams{
		PipelineID: pipelineID,
		Start:      rng.FormatStart(),
		End:        rng.FormatEnd(),
	}
	if wait || force {
		select {
		case <-feed.Refetch(ctx, params, force):
		case <-ctx.Done():
		}
	} else {
		feed.Trigger(params)
	}
	return feed.View()
}

// Refresh force-refetches the pipeline's snapshot feed and drops memoized
// reports and the tracking feed's memo so the next reads rebuild from fresh
// upstream data.
func (s *Feeds) Refresh(ctx context.Context, pipelineID int, funnelService *Funnel) FeedView[*model.FunnelData] {
	funnelService.PurgeReports()
	_ = modelcache.CampaignTrackingBySignature.Flush()
	_ = modelcache.LastRefreshAt.Set(time.Now(), 0)

	s.mu.Lock()
	if feed, ok := s.tracking[pipelineID]; ok {
		feed.Invalidate()
	}
	s.mu.Unlock()

	return s.GetSnapshot(ctx, pipelineID, true)
}

// Close stops every feed. Called on service shutdown.
func (s *Feeds) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, feed := range s.snapshot {
		feed.Close()
	}
	for _, feed := range s.tracking {
		feed.Close()
	}
}
