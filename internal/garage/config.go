package garage

import (
	"context"
	"errors"
	"fmt"

	"github.com/autopeer-io/garage/internal/garage/details"
	"github.com/autopeer-io/garage/internal/garage/model"
	"github.com/autopeer-io/garage/internal/garage/notifier"
	"github.com/autopeer-io/garage/internal/garage/server"
	"github.com/autopeer-io/garage/internal/garage/server/http"
	"github.com/autopeer-io/garage/internal/garage/service"
	"github.com/autopeer-io/garage/internal/garage/storage"
	"github.com/autopeer-io/garage/internal/garage/weather"
	"github.com/autopeer-io/garage/pkg/log"
	"github.com/autopeer-io/garage/pkg/options"
)

type Config struct {
	HttpOptions     *options.HttpOptions
	StoreOptions    *options.StoreOptions
	S3Options       *options.S3Options
	NotifierOptions *options.NotifierOptions
	MqttOptions     *options.MqttOptions
	WeatherOptions  *options.WeatherOptions
	DetailsOptions  *options.DetailsOptions
	GarageOptions   *options.GarageOptions
}

// NewGarageServer wires the adapters around the garage and restores the
// persisted state.
func (cfg *Config) NewGarageServer(ctx context.Context) (*GarageServer, error) {
	tag, unit, err := model.ParseMoneyFormat(cfg.GarageOptions.Locale, cfg.GarageOptions.Currency)
	if err != nil {
		return nil, fmt.Errorf("invalid money format: %w", err)
	}
	model.SetMoneyFormat(tag, unit)

	// 1. Infrastructure: Storage
	store, err := storage.New(ctx, cfg.StoreOptions, cfg.S3Options)
	if err != nil {
		return nil, fmt.Errorf("failed to init store: %w", err)
	}

	// 2. Infrastructure: Notifier
	notif, err := notifier.New(ctx, cfg.NotifierOptions, cfg.MqttOptions)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to init notifier: %w", err)
	}

	// 3. Core domain
	g := service.New(store,
		service.WithNotifier(notif),
		service.WithKeys(service.Keys{Vehicles: cfg.GarageOptions.VehiclesKey, Selected: cfg.GarageOptions.SelectedKey}),
		service.WithLocale(tag),
		service.WithLogger(log.WithName("garage")),
	)
	if err := g.Load(ctx); err != nil {
		if !errors.Is(err, service.ErrCorruptData) {
			notif.Close()
			store.Close()
			return nil, fmt.Errorf("failed to load garage: %w", err)
		}
		log.Warn("Stored garage data was corrupt and has been reset")
	}

	var sent []string
	if cfg.GarageOptions.NotifyOnStart {
		for _, r := range g.Reminders(cfg.GarageOptions.ReminderWindow) {
			log.Info(r.Message, "vehicleID", r.VehicleID)
			g.PublishReminder(ctx, r)
			sent = append(sent, r.RecordID)
		}
	}

	// 4. Ingress
	deps := http.Deps{
		Garage:  g,
		Weather: weather.New(cfg.WeatherOptions),
	}
	if p := details.New(cfg.DetailsOptions); p != nil {
		deps.Details = p
	}

	srvManager := server.NewManager(&server.Config{
		HttpOptions:      cfg.HttpOptions,
		ReminderWindow:   cfg.GarageOptions.ReminderWindow,
		ReminderInterval: cfg.GarageOptions.ReminderInterval,
		SentReminders:    sent,
	}, deps)

	return &GarageServer{
		serverManager: srvManager,
		garage:        g,
		store:         store,
		notifier:      notif,
	}, nil
}
