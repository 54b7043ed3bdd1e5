package main

import (
	// Importing the package to automatically set GOMAXPROCS.
	_ "go.uber.org/automaxprocs"

	"github.com/autopeer-io/evfleet/cmd/fleet-dashboard/app"
)

func main() {
	app.NewApp().Run()
}
