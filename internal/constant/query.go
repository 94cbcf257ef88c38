package constant

const (
	// CacheSep separates the parts of a composite cache key.
	CacheSep = "#"

	// DefaultBreakdownTopN caps ranked breakdown views. Overridable via configuration;
	// the tail beyond the cap is dropped, never folded into an aggregate bucket.
	DefaultBreakdownTopN = 10

	// DefaultTrendThreshold is the variation magnitude, in percent or percentage points,
	// below which a trend is reported as stable.
	DefaultTrendThreshold = 2.0
)
