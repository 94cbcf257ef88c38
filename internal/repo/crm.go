package repo

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/avast/retry-go/v4"
	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/brandspot/funnel-backend/internal/app/appconfig"
	"github.com/brandspot/funnel-backend/internal/model"
	"github.com/brandspot/funnel-backend/internal/pkg/period"
)

const (
	ActionGetFunnelData               = "get_funnel_data"
	ActionGetCampaignTracking         = "get_campaign_tracking"
	ActionGetCampaignTrackingSnapshot = "get_campaign_tracking_snapshot"
	ActionGetSQLCallMetrics           = "get_sql_call_metrics"
	ActionGetStageDeals               = "get_stage_deals"
)

// ErrUpstream wraps any failure of the CRM proxy, transport or reported.
var ErrUpstream = errors.New("funnel data source request failed")

// CRM is the single boundary to the proxied CRM API. Everything this backend
// knows about deals and stages comes through it. Identical concurrent
// requests are collapsed via singleflight unless forced.
type CRM struct {
	client  *http.Client
	baseURL string
	token   string
	retries uint

	sf singleflight.Group
}

func NewCRM(conf *appconfig.Config, client *http.Client) *CRM {
	return &CRM{
		client:  client,
		baseURL: strings.TrimRight(conf.CRMProxyURL, "/"),
		token:   conf.CRMProxyToken,
		retries: conf.CRMRetryAttempts,
	}
}

type crmRequest struct {
	Action     string `json:"action"`
	PipelineID int    `json:"pipeline_id"`
	StageID    int    `json:"stage_id,omitempty"`
	StartDate  string `json:"start_date,omitempty"`
	EndDate    string `json:"end_date,omitempty"`
	Force      bool   `json:"force,omitempty"`
	ViewMode   string `json:"view_mode,omitempty"`
}

type crmEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

func (r crmRequest) signature() string {
	return strings.Join([]string{
		r.Action,
		strconv.Itoa(r.PipelineID),
		strconv.Itoa(r.StageID),
		r.StartDate,
		r.EndDate,
		r.ViewMode,
	}, "|")
}

// GetFunnelData fetches the raw funnel payload for one pipeline and window.
func (r *CRM) GetFunnelData(ctx context.Context, pipelineID int, rng *period.Range, mode model.ViewMode, force bool) (*model.FunnelData, error) {
	req := crmRequest{
		Action:     ActionGetFunnelData,
		PipelineID: pipelineID,
		ViewMode:   string(mode),
		Force:      force,
	}
	if rng != nil {
		req.StartDate = rng.FormatStart()
		req.EndDate = rng.FormatEnd()
	}
	var data model.FunnelData
	if err := r.do(ctx, req, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetCampaignTracking fetches the campaign/ad-set/creative breakdowns for a window.
func (r *CRM) GetCampaignTracking(ctx context.Context, pipelineID int, rng period.Range, force bool) (*model.CampaignTracking, error) {
	req := crmRequest{
		Action:     ActionGetCampaignTracking,
		PipelineID: pipelineID,
		StartDate:  rng.FormatStart(),
		EndDate:    rng.FormatEnd(),
		Force:      force,
	}
	var data model.CampaignTracking
	if err := r.do(ctx, req, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetCampaignTrackingSnapshot fetches the breakdowns in snapshot semantics:
// no window, counts reflect deals currently sitting in each stage.
func (r *CRM) GetCampaignTrackingSnapshot(ctx context.Context, pipelineID int, force bool) (*model.CampaignTracking, error) {
	req := crmRequest{
		Action:     ActionGetCampaignTrackingSnapshot,
		PipelineID: pipelineID,
		ViewMode:   string(model.ViewModeSnapshot),
		Force:      force,
	}
	var data model.CampaignTracking
	if err := r.do(ctx, req, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetSQLCallMetrics fetches the SQL-call metrics for a window.
func (r *CRM) GetSQLCallMetrics(ctx context.Context, pipelineID int, rng period.Range, force bool) (*model.CallMetrics, error) {
	req := crmRequest{
		Action:     ActionGetSQLCallMetrics,
		PipelineID: pipelineID,
		StartDate:  rng.FormatStart(),
		EndDate:    rng.FormatEnd(),
		Force:      force,
	}
	var data model.CallMetrics
	if err := r.do(ctx, req, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetStageDeals fetches the open deals currently sitting in one stage.
func (r *CRM) GetStageDeals(ctx context.Context, pipelineID, stageID int, force bool) ([]*model.Deal, error) {
	req := crmRequest{
		Action:     ActionGetStageDeals,
		PipelineID: pipelineID,
		StageID:    stageID,
		Force:      force,
	}
	var data []*model.Deal
	if err := r.do(ctx, req, &data); err != nil {
		return nil, err
	}
	return data, nil
}

// Ping probes the CRM proxy for liveness.
func (r *CRM) Ping(ctx context.Context) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL, nil)
	if err != nil {
		return errors.WithStack(err)
	}
	resp, err := r.client.Do(httpReq)
	if err != nil {
		return errors.Wrap(ErrUpstream, err.Error())
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusInternalServerError {
		return errors.Wrapf(ErrUpstream, "unexpected status %d", resp.StatusCode)
	}
	return nil
}

func (r *CRM) do(ctx context.Context, req crmRequest, dest any) error {
	// forced requests bypass singleflight so a user-initiated refresh is
	// never satisfied by an in-flight stale request
	if req.Force {
		return r.roundTrip(ctx, req, dest)
	}

	raw, err, _ := r.sf.Do(req.signature(), func() (any, error) {
		var envData json.RawMessage
		if err := r.roundTrip(ctx, req, &envData); err != nil {
			return nil, err
		}
		return envData, nil
	})
	if err != nil {
		return err
	}
	return errors.WithStack(json.Unmarshal(raw.(json.RawMessage), dest))
}

func (r *CRM) roundTrip(ctx context.Context, req crmRequest, dest any) error {
	body, err := json.Marshal(req)
	if err != nil {
		return errors.WithStack(err)
	}

	var payload json.RawMessage
	err = retry.Do(func() error {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL, bytes.NewReader(body))
		if err != nil {
			return retry.Unrecoverable(errors.WithStack(err))
		}
		httpReq.Header.Set("Content-Type", "application/json")
		if r.token != "" {
			httpReq.Header.Set("Authorization", "Bearer "+r.token)
		}

		resp, err := r.client.Do(httpReq)
		if err != nil {
			return errors.Wrap(ErrUpstream, err.Error())
		}
		defer resp.Body.Close()

		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return errors.Wrap(ErrUpstream, err.Error())
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			return errors.Wrapf(ErrUpstream, "unexpected status %d", resp.StatusCode)
		}

		var env crmEnvelope
		if err := json.Unmarshal(b, &env); err != nil {
			return errors.Wrap(ErrUpstream, err.Error())
		}
		if !env.Success {
			msg := env.Error
			if msg == "" {
				msg = "upstream reported failure without a message"
			}
			// upstream-reported failures are not transient
			return retry.Unrecoverable(errors.Wrap(ErrUpstream, msg))
		}
		payload = env.Data
		return nil
	},
		retry.Attempts(r.retries),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.Warn().Err(err).Uint("attempt", n).Str("action", req.Action).Msg("retrying CRM proxy request")
		}),
	)
	if err != nil {
		return err
	}

	if dest == nil || len(payload) == 0 {
		return nil
	}
	return errors.WithStack(json.Unmarshal(payload, dest))
}
