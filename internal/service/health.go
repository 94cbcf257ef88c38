package service

import (
	"context"

	"github.com/brandspot/funnel-backend/internal/repo"
)

// Health reports whether the service and its upstream dependency are usable.
type Health struct {
	CRMRepo *repo.CRM
}

func NewHealth(crmRepo *repo.CRM) *Health {
	return &Health{CRMRepo: crmRepo}
}

// Ping probes the CRM proxy.
func (s *Health) Ping(ctx context.Context) error {
	return s.CRMRepo.Ping(ctx)
}
