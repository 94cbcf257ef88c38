package server

import (
	"context"
	"net"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"go.uber.org/fx"

	"github.com/brandspot/funnel-backend/internal/app/appconfig"
	"github.com/brandspot/funnel-backend/internal/service"
)

func serve(app *fiber.App, conf *appconfig.Config, feeds *service.Feeds, lc fx.Lifecycle) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", conf.ServiceAddress)
			if err != nil {
				return err
			}
			log.Info().Str("address", conf.ServiceAddress).Msg("http server listening")

			go func() {
				if err := app.Listener(ln); err != nil {
					log.Error().Err(err).Msg("server terminated unexpectedly")
				}
			}()

			return nil
		},
		OnStop: func(ctx context.Context) error {
			feeds.Close()
			return app.Shutdown()
		},
	})
}
