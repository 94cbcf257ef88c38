package main

import (
	"github.com/brandspot/funnel-backend/cmd/app"
)

func main() {
	app.Run()
}
