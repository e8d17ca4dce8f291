package options

import (
	"time"

	"github.com/spf13/pflag"
)

var _ IOptions = (*DetailsOptions)(nil)

// DetailsOptions points at the vehicle detail catalogue.
type DetailsOptions struct {
	// Source is a local file path or an http(s) URL of a JSON array.
	// Empty disables the lookup.
	Source  string        `json:"source" mapstructure:"source"`
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`
}

func NewDetailsOptions() *DetailsOptions {
	return &DetailsOptions{
		Source:  "./data/vehicle-details.json",
		Timeout: 5 * time.Second,
	}
}

func (o *DetailsOptions) Validate() []error {
	return nil
}

func (o *DetailsOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.Source, "details.source", o.Source, "File path or URL of the vehicle details catalogue.")
	fs.DurationVar(&o.Timeout, "details.timeout", o.Timeout, "Timeout for fetching remote details.")
}
