package infra

import (
	"net/http"

	"github.com/brandspot/funnel-backend/internal/app/appconfig"
)

// CRMHTTPClient is the shared HTTP client used against the CRM proxy. The
// per-request timeout lives here; nothing above the boundary re-enforces one.
func CRMHTTPClient(conf *appconfig.Config) *http.Client {
	return &http.Client{
		Timeout: conf.CRMTimeout,
	}
}
