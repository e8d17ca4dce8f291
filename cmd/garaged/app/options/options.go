package options

import (
	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	cliflag "k8s.io/component-base/cli/flag"

	"github.com/autopeer-io/garage/internal/garage"
	"github.com/autopeer-io/garage/pkg/app"
	"github.com/autopeer-io/garage/pkg/log"
	"github.com/autopeer-io/garage/pkg/options"
)

type GarageOptions struct {
	HttpOptions     *options.HttpOptions     `json:"http" mapstructure:"http"`
	StoreOptions    *options.StoreOptions    `json:"store" mapstructure:"store"`
	S3Options       *options.S3Options       `json:"s3" mapstructure:"s3"`
	NotifierOptions *options.NotifierOptions `json:"notifier" mapstructure:"notifier"`
	MqttOptions     *options.MqttOptions     `json:"mqtt" mapstructure:"mqtt"`
	WeatherOptions  *options.WeatherOptions  `json:"weather" mapstructure:"weather"`
	DetailsOptions  *options.DetailsOptions  `json:"details" mapstructure:"details"`
	GarageOptions   *options.GarageOptions   `json:"garage" mapstructure:"garage"`
	Log             *log.Options             `json:"log" mapstructure:"log"`
}

var _ app.NamedFlagSetOptions = (*GarageOptions)(nil)

func NewGarageOptions() *GarageOptions {
	o := &GarageOptions{
		HttpOptions:     options.NewHttpOptions(),
		StoreOptions:    options.NewStoreOptions(),
		S3Options:       options.NewS3Options(),
		NotifierOptions: options.NewNotifierOptions(),
		MqttOptions:     options.NewMqttOptions(),
		WeatherOptions:  options.NewWeatherOptions(),
		DetailsOptions:  options.NewDetailsOptions(),
		GarageOptions:   options.NewGarageOptions(),
		Log:             log.NewOptions(),
	}

	return o
}

func (o *GarageOptions) Flags() cliflag.NamedFlagSets {
	fss := cliflag.NamedFlagSets{}
	o.HttpOptions.AddFlags(fss.FlagSet("http"))
	o.StoreOptions.AddFlags(fss.FlagSet("store"))
	o.S3Options.AddFlags(fss.FlagSet("s3"))
	o.NotifierOptions.AddFlags(fss.FlagSet("notifier"))
	o.MqttOptions.AddFlags(fss.FlagSet("mqtt"))
	o.WeatherOptions.AddFlags(fss.FlagSet("weather"))
	o.DetailsOptions.AddFlags(fss.FlagSet("details"))
	o.GarageOptions.AddFlags(fss.FlagSet("garage"))
	o.Log.AddFlags(fss.FlagSet("log"))
	return fss
}

func (o *GarageOptions) Complete() error {
	if o.MqttOptions.ClientID == "" {
		o.MqttOptions.ClientID = o.Log.Name
	}
	return nil
}

func (o *GarageOptions) Validate() error {
	errs := []error{}
	errs = append(errs, o.HttpOptions.Validate()...)
	errs = append(errs, o.StoreOptions.Validate()...)
	if o.StoreOptions.Backend == options.StoreS3 {
		errs = append(errs, o.S3Options.Validate()...)
	}
	errs = append(errs, o.NotifierOptions.Validate()...)
	if o.NotifierOptions.Kind == options.NotifierMQTT {
		errs = append(errs, o.MqttOptions.Validate()...)
	}
	errs = append(errs, o.WeatherOptions.Validate()...)
	errs = append(errs, o.DetailsOptions.Validate()...)
	errs = append(errs, o.GarageOptions.Validate()...)
	errs = append(errs, o.Log.Validate()...)
	return utilerrors.NewAggregate(errs)
}

func (o *GarageOptions) Config() (*garage.Config, error) {
	return &garage.Config{
		HttpOptions:     o.HttpOptions,
		StoreOptions:    o.StoreOptions,
		S3Options:       o.S3Options,
		NotifierOptions: o.NotifierOptions,
		MqttOptions:     o.MqttOptions,
		WeatherOptions:  o.WeatherOptions,
		DetailsOptions:  o.DetailsOptions,
		GarageOptions:   o.GarageOptions,
	}, nil
}
