package appconfig

import (
	"time"

	"github.com/brandspot/funnel-backend/internal/app/appcontext"
)

type ConfigSpec struct {
	// ServiceAddress is the listen address would listen on for serving normal service requests.
	ServiceAddress string `required:"true" split_words:"true" default:"localhost:9030"`

	// LogJsonStdout is whether to log JSON logs (instead of pretty-print logs) to stdout for the ease of log collection.
	LogJsonStdout bool `split_words:"true" default:"false"`

	// TrustedProxies is a list of trusted proxies that are trusted to report a real IP via the X-Forwarded-For header.
	TrustedProxies []string `required:"true" split_words:"true" default:"::1,127.0.0.1,10.0.0.0/8"`

	// DevMode to indicate development mode. When true, the program would spin up utilities for debugging and
	// provide a more contextual message when encountered a panic. See internal/server/httpserver/http.go for the
	// actual implementation details.
	DevMode bool `split_words:"true"`

	// CRMProxyURL is the base URL of the proxied CRM API that serves funnel, campaign tracking
	// and stage-deal data. All requests of this backend go through this single boundary.
	CRMProxyURL string `required:"true" split_words:"true"`

	// CRMProxyToken is sent as a bearer token on every CRM proxy request. Leave empty when the
	// proxy is deployed inside the cluster without authentication.
	CRMProxyToken string `split_words:"true"`

	// CRMTimeout is the per-request timeout used against the CRM proxy. Transport-level retrying
	// stays inside the boundary client; nothing above it re-enforces a timeout.
	CRMTimeout time.Duration `split_words:"true" default:"10s"`

	// CRMRetryAttempts is the number of attempts for a single CRM proxy request.
	CRMRetryAttempts uint `split_words:"true" default:"3"`

	// FetchDebounce is the delay between a date-range change and the actual upstream fetch,
	// absorbing rapid consecutive range changes into one request. Snapshot feeds ignore it.
	FetchDebounce time.Duration `split_words:"true" default:"500ms"`

	// BreakdownTopN caps ranked breakdown views (campaign, ad set, creative, lead source,
	// sector) to the N highest-count entries. The remainder is dropped, not folded into an
	// "other" bucket.
	BreakdownTopN int `split_words:"true" default:"10"`

	// TrendThreshold is the percentage (or percentage-point) magnitude a variation must exceed
	// before it is classified as an up/down trend instead of stable.
	TrendThreshold float64 `split_words:"true" default:"2"`

	// SentryDSN is the DSN of the Sentry server. See https://pkg.go.dev/github.com/getsentry/sentry-go#ClientOptions
	SentryDSN string `split_words:"true"`

	// HTTPServerShutdownTimeout is the timeout for the HTTP server to shut down gracefully.
	HTTPServerShutdownTimeout time.Duration `required:"true" split_words:"true" default:"60s"`
}

type Config struct {
	// ConfigSpec is the configuration specification injected to the config.
	ConfigSpec

	// AppContext is the application context
	AppContext appcontext.Ctx
}
