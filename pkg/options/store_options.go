package options

import (
	"fmt"
	"slices"

	"github.com/spf13/pflag"
)

var _ IOptions = (*StoreOptions)(nil)

// Store backends.
const (
	StoreMemory = "memory"
	StoreBadger = "badger"
	StoreSQLite = "sqlite"
	StoreS3     = "s3"
)

var storeBackends = []string{StoreMemory, StoreBadger, StoreSQLite, StoreS3}

// StoreOptions selects and configures the key-value store holding the garage.
// The s3 backend is configured by S3Options.
type StoreOptions struct {
	Backend string `json:"backend" mapstructure:"backend"`

	// BadgerDir is the badger database directory.
	BadgerDir string `json:"badger-dir" mapstructure:"badger-dir"`

	// SQLitePath is the sqlite database file.
	SQLitePath string `json:"sqlite-path" mapstructure:"sqlite-path"`
}

func NewStoreOptions() *StoreOptions {
	return &StoreOptions{
		Backend:    StoreBadger,
		BadgerDir:  "./data/badger",
		SQLitePath: "./data/garage.db",
	}
}

func (o *StoreOptions) Validate() []error {
	if o == nil {
		return nil
	}

	errors := []error{}

	if !slices.Contains(storeBackends, o.Backend) {
		errors = append(errors, fmt.Errorf("--store.backend must be one of %v, got %q", storeBackends, o.Backend))
	}
	if o.Backend == StoreBadger && o.BadgerDir == "" {
		errors = append(errors, fmt.Errorf("--store.badger-dir is required for the badger backend"))
	}
	if o.Backend == StoreSQLite && o.SQLitePath == "" {
		errors = append(errors, fmt.Errorf("--store.sqlite-path is required for the sqlite backend"))
	}

	return errors
}

func (o *StoreOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.Backend, "store.backend", o.Backend, fmt.Sprintf("Storage backend for the garage state %v.", storeBackends))
	fs.StringVar(&o.BadgerDir, "store.badger-dir", o.BadgerDir, "Directory of the badger database.")
	fs.StringVar(&o.SQLitePath, "store.sqlite-path", o.SQLitePath, "Path of the sqlite database file.")
}
