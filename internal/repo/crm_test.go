package repo

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brandspot/funnel-backend/internal/app/appconfig"
	"github.com/brandspot/funnel-backend/internal/model"
	"github.com/brandspot/funnel-backend/internal/pkg/period"
)

func newTestCRM(t *testing.T, handler http.HandlerFunc) *CRM {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	conf := &appconfig.Config{}
	conf.CRMProxyURL = srv.URL
	conf.CRMProxyToken = "test-token"
	conf.CRMRetryAttempts = 2

	return NewCRM(conf, &http.Client{Timeout: time.Second})
}

func TestGetFunnelDataDecodesEnvelope(t *testing.T) {
	crm := newTestCRM(t, func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		var req crmRequest
		require.NoError(t, json.Unmarshal(b, &req))

		assert.Equal(t, ActionGetFunnelData, req.Action)
		assert.Equal(t, 42, req.PipelineID)
		assert.Equal(t, "2023-06-08", req.StartDate)
		assert.Equal(t, "2023-06-14", req.EndDate)
		assert.Equal(t, "period", req.ViewMode)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		_, _ = w.Write([]byte(`{
			"success": true,
			"data": {
				"stages": [{"id": 1, "name": "Lead", "order_nr": 1}],
				"conversions": {"lead_to_mql": 40},
				"leads_count": 120,
				"stage_arrivals": {"1": 120},
				"lost_reasons": {"Sem contato": 3}
			}
		}`))
	})

	rng := period.NewRange(
		time.Date(2023, time.June, 8, 0, 0, 0, 0, time.UTC),
		time.Date(2023, time.June, 14, 0, 0, 0, 0, time.UTC),
	)
	data, err := crm.GetFunnelData(context.Background(), 42, &rng, model.ViewModePeriod, false)
	require.NoError(t, err)

	assert.Equal(t, 120, data.LeadsCount)
	require.Len(t, data.Stages, 1)
	assert.Equal(t, "Lead", data.Stages[0].Name)
	assert.Equal(t, 40.0, data.Conversions["lead_to_mql"])
	assert.Equal(t, model.PeriodStageArrivals{1: 120}, data.StageArrivals)
}

func TestUpstreamReportedError(t *testing.T) {
	calls := 0
	crm := newTestCRM(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		_, _ = w.Write([]byte(`{"success": false, "error": "pipeline not found"}`))
	})

	_, err := crm.GetFunnelData(context.Background(), 999, nil, model.ViewModeSnapshot, false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUpstream))
	assert.Contains(t, err.Error(), "pipeline not found")
	// reported failures are not transient; no retry should happen
	assert.Equal(t, 1, calls)
}

func TestUpstreamErrorWithoutMessage(t *testing.T) {
	crm := newTestCRM(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success": false}`))
	})

	_, err := crm.GetFunnelData(context.Background(), 1, nil, model.ViewModeSnapshot, false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUpstream))
}

func TestTransportFailureRetries(t *testing.T) {
	calls := 0
	crm := newTestCRM(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"success": true, "data": {"calls_scheduled": 7, "calls_completed": 5, "calls_no_show": 2}}`))
	})

	rng := period.NewRange(
		time.Date(2023, time.June, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2023, time.June, 14, 0, 0, 0, 0, time.UTC),
	)
	metrics, err := crm.GetSQLCallMetrics(context.Background(), 42, rng, false)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 7, metrics.CallsScheduled)
	assert.Equal(t, 5, metrics.CallsCompleted)
	assert.Equal(t, 2, metrics.CallsNoShow)
}

func TestRequestSignature(t *testing.T) {
	a := crmRequest{Action: ActionGetFunnelData, PipelineID: 1, StartDate: "2023-06-01", EndDate: "2023-06-14", ViewMode: "period"}
	b := a
	assert.Equal(t, a.signature(), b.signature())

	b.EndDate = "2023-06-15"
	assert.NotEqual(t, a.signature(), b.signature())

	c := a
	c.ViewMode = "snapshot"
	assert.NotEqual(t, a.signature(), c.signature())
}
