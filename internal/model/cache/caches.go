package cache

import (
	"sync"
	"time"

	"github.com/brandspot/funnel-backend/internal/model"
	"github.com/brandspot/funnel-backend/internal/pkg/cache"
)

var (
	// FunnelReportBySignature memoizes aggregated funnel reports under the
	// request signature (pipeline + window + view mode).
	FunnelReportBySignature *cache.Set[model.FunnelReport]

	// ComparisonBySignature memoizes assembled period-over-period reports.
	ComparisonBySignature *cache.Set[model.FunnelComparison]

	// CampaignTrackingBySignature memoizes campaign tracking payloads.
	CampaignTrackingBySignature *cache.Set[model.CampaignTracking]

	// LastModifiedTime records when a cached value was last recalculated.
	LastModifiedTime *cache.Set[time.Time]

	// LastRefreshAt tracks the most recent user-forced refresh across all pipelines.
	LastRefreshAt *cache.Singular[time.Time]

	once sync.Once
)

func Initialize() {
	once.Do(initializeCaches)
}

func initializeCaches() {
	FunnelReportBySignature = cache.NewSet[model.FunnelReport]("funnelReport")
	ComparisonBySignature = cache.NewSet[model.FunnelComparison]("funnelComparison")
	CampaignTrackingBySignature = cache.NewSet[model.CampaignTracking]("campaignTracking")
	LastModifiedTime = cache.NewSet[time.Time]("lastModifiedTime")
	LastRefreshAt = cache.NewSingular[time.Time]("lastRefreshAt")
}
