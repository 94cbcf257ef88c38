package meta

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/fx"

	modelcache "github.com/brandspot/funnel-backend/internal/model/cache"
	"github.com/brandspot/funnel-backend/internal/pkg/bininfo"
	"github.com/brandspot/funnel-backend/internal/pkg/bserr"
	"github.com/brandspot/funnel-backend/internal/pkg/cachectrl"
	"github.com/brandspot/funnel-backend/internal/server/svr"
	"github.com/brandspot/funnel-backend/internal/service"
)

type Meta struct {
	fx.In

	HealthService *service.Health
}

func RegisterMeta(meta *svr.Meta, c Meta) {
	meta.Get("/health", c.Health)
	meta.Get("/bininfo", c.BinInfo)
}

// Health reports liveness of the service and its CRM boundary.
func (c *Meta) Health(ctx *fiber.Ctx) error {
	cachectrl.OptOut(ctx)
	if err := c.HealthService.Ping(ctx.UserContext()); err != nil {
		return bserr.ErrUpstream.Msg("crm proxy unreachable: %s", err)
	}

	body := fiber.Map{"status": "ok"}
	var lastRefresh time.Time
	if err := modelcache.LastRefreshAt.Get(&lastRefresh); err == nil {
		body["lastRefresh"] = lastRefresh
	}
	return ctx.JSON(body)
}

func (c *Meta) BinInfo(ctx *fiber.Ctx) error {
	return ctx.JSON(fiber.Map{
		"version":   bininfo.Version,
		"buildTime": bininfo.BuildTime,
	})
}
