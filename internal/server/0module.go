package server

import (
	"go.uber.org/fx"

	"github.com/brandspot/funnel-backend/internal/server/httpserver"
	"github.com/brandspot/funnel-backend/internal/server/svr"
)

func Module() fx.Option {
	return fx.Module("server",
		fx.Provide(httpserver.Create),
		fx.Provide(svr.CreateEndpointGroups))
}
