package server

import (
	"github.com/urfave/cli/v2"
	"go.uber.org/fx"

	"github.com/brandspot/funnel-backend/internal/app"
	"github.com/brandspot/funnel-backend/internal/app/appcontext"
)

func Command() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "start the analytics API server",
		Action: func(c *cli.Context) error {
			app.New(appcontext.Declare(appcontext.EnvServer), fx.Invoke(serve)).Run()
			return nil
		},
	}
}
