package app

import (
	"fmt"

	genericapiserver "k8s.io/apiserver/pkg/server"

	"github.com/autopeer-io/garage/cmd/garaged/app/options"
	"github.com/autopeer-io/garage/pkg/app"
	"github.com/autopeer-io/garage/pkg/log"
)

const (
	commandName = "garaged"
	commandDesc = `The garage daemon keeps a persistent collection of cars, sports cars and
trucks, runs their actions and maintenance logs, and serves them over an HTTP API.
It also publishes garage events and appointment reminders to MQTT or NATS.`
)

func NewApp() *app.App {
	opts := options.NewGarageOptions()
	application := app.NewApp(
		commandName,
		"Launch the virtual garage server",
		app.WithDescription(commandDesc),
		app.WithOptions(opts),
		app.WithDefaultValidArgs(),
		app.WithWatchConfig(),
		app.WithRunFunc(run(opts)),
	)
	return application
}

func run(opts *options.GarageOptions) app.RunFunc {
	return func() error {
		log.Init(opts.Log)
		defer log.Sync()

		ctx := genericapiserver.SetupSignalContext()

		cfg, err := opts.Config()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		server, err := cfg.NewGarageServer(ctx)
		if err != nil {
			return fmt.Errorf("failed to create garage server: %w", err)
		}

		return server.Run(ctx)
	}
}
