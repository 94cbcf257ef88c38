package app

import (
	"os"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/brandspot/funnel-backend/cmd/app/server"
	"github.com/brandspot/funnel-backend/internal/pkg/bininfo"
)

func Run() {
	app := &cli.App{
		Name:        "funnel-backend",
		Description: "The BrandSpot sales-funnel analytics backend. Built with Go, fiber and go.uber.org/fx. Consumes a proxied CRM API as its only upstream.",
		Version:     bininfo.Version,
		Commands: []*cli.Command{
			server.Command(),
		},
	}
	if err := app.Run(os.Args); err != nil {
		log.Fatal().Err(err).Msg("failed to run app")
	}
}
