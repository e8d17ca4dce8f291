package options

import (
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func TestValidateAddress(t *testing.T) {
	tests := []struct {
		addr    string
		wantErr bool
	}{
		{"0.0.0.0:8080", false},
		{":8080", false},
		{"localhost:9000", false},
		{"[::1]:443", false},
		{"localhost", true},
		{"host:http", true},
		{"host:70000", true},
		{"bad host!:80", true},
	}

	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			if err := ValidateAddress(tt.addr); (err != nil) != tt.wantErr {
				t.Errorf("ValidateAddress(%q) = %v, wantErr %v", tt.addr, err, tt.wantErr)
			}
		})
	}
}

func TestDefaultsAreValid(t *testing.T) {
	all := map[string]IOptions{
		"http":     NewHttpOptions(),
		"s3":       NewS3Options(),
		"mqtt":     NewMqttOptions(),
		"store":    NewStoreOptions(),
		"notifier": NewNotifierOptions(),
		"weather":  NewWeatherOptions(),
		"details":  NewDetailsOptions(),
		"garage":   NewGarageOptions(),
	}

	for name, opts := range all {
		if errs := opts.Validate(); len(errs) != 0 {
			t.Errorf("%s defaults invalid: %v", name, errs)
		}
	}
}

func TestInvalidOptions(t *testing.T) {
	store := NewStoreOptions()
	store.Backend = "floppy"

	notifier := NewNotifierOptions()
	notifier.Kind = "pigeon"

	garage := NewGarageOptions()
	garage.SelectedKey = garage.VehiclesKey
	garage.Currency = "XX"

	mqtt := NewMqttOptions()
	mqtt.QoS = 5

	for name, opts := range map[string]IOptions{"store": store, "notifier": notifier, "garage": garage, "mqtt": mqtt} {
		if errs := opts.Validate(); len(errs) == 0 {
			t.Errorf("%s: expected validation errors", name)
		}
	}
}

func TestAddFlags(t *testing.T) {
	opts := NewGarageOptions()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	opts.AddFlags(fs)

	if err := fs.Parse([]string{"--garage.reminder-window=72h", "--garage.locale=en-US"}); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if opts.ReminderWindow != 72*time.Hour || opts.Locale != "en-US" {
		t.Errorf("flags not bound: %+v", opts)
	}
}

func TestMqttClientConfigHasWill(t *testing.T) {
	cfg := NewMqttOptions().ToClientConfig()
	if cfg.WillTopic != "garage/v1/status/garaged" || !cfg.WillRetain {
		t.Errorf("unexpected will settings: %+v", cfg)
	}
	if cfg.KeepAlive != 60 {
		t.Errorf("keep alive = %d, want 60", cfg.KeepAlive)
	}
}
