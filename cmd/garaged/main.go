package main

import (
	_ "go.uber.org/automaxprocs"

	"github.com/autopeer-io/garage/cmd/garaged/app"
)

func main() {
	app.NewApp().Run()
}
