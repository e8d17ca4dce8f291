package main

import (
	"os"

	"github.com/autopeer-io/garage/cmd/garagectl/app"
)

func main() {
	if err := app.NewGaragectlCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
