package garage

import (
	"context"
	"testing"
	"time"

	"github.com/autopeer-io/garage/internal/garage/model"
	"github.com/autopeer-io/garage/pkg/options"
)

func testConfig(t *testing.T) *Config {
	t.Helper()
	store := options.NewStoreOptions()
	store.Backend = options.StoreSQLite
	store.SQLitePath = t.TempDir() + "/garage.db"

	notif := options.NewNotifierOptions()
	notif.Kind = options.NotifierNone

	httpOpts := options.NewHttpOptions()
	httpOpts.Addr = "127.0.0.1:0"

	return &Config{
		HttpOptions:     httpOpts,
		StoreOptions:    store,
		S3Options:       options.NewS3Options(),
		NotifierOptions: notif,
		MqttOptions:     options.NewMqttOptions(),
		WeatherOptions:  options.NewWeatherOptions(),
		DetailsOptions:  &options.DetailsOptions{},
		GarageOptions:   options.NewGarageOptions(),
	}
}

func TestGarageServerRestartKeepsState(t *testing.T) {
	cfg := testConfig(t)

	srv, err := cfg.NewGarageServer(context.Background())
	if err != nil {
		t.Fatalf("NewGarageServer() error = %v", err)
	}
	v, _ := model.NewTruck("Atlas", "White", 5000)
	if res, err := srv.garage.Add(context.Background(), v); !res.Success || err != nil {
		t.Fatalf("Add() = %+v, %v", res, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := srv.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	srv, err = cfg.NewGarageServer(context.Background())
	if err != nil {
		t.Fatalf("second NewGarageServer() error = %v", err)
	}
	defer srv.store.Close()
	if view, ok := srv.garage.View(v.ID); !ok || view.Model != "Atlas" {
		t.Errorf("vehicle not restored: %+v", view)
	}
}

func TestNewGarageServerRejectsUnknownStore(t *testing.T) {
	cfg := testConfig(t)
	cfg.StoreOptions.Backend = "floppy"

	if _, err := cfg.NewGarageServer(context.Background()); err == nil {
		t.Error("expected an error for an unknown store backend")
	}
}
