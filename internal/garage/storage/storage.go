package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/autopeer-io/garage/internal/garage/core"
	"github.com/autopeer-io/garage/pkg/options"
)

// New opens the backend selected by opts.
func New(ctx context.Context, opts *options.StoreOptions, s3 *options.S3Options) (core.Store, error) {
	switch opts.Backend {
	case options.StoreMemory:
		return NewMemoryStore(), nil
	case options.StoreBadger:
		if err := os.MkdirAll(opts.BadgerDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create badger dir: %w", err)
		}
		s, err := NewBadgerStore(opts.BadgerDir)
		if err != nil {
			return nil, err
		}
		return s, nil
	case options.StoreSQLite:
		if dir := filepath.Dir(opts.SQLitePath); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create sqlite dir: %w", err)
			}
		}
		s, err := NewSQLiteStore(opts.SQLitePath)
		if err != nil {
			return nil, err
		}
		return s, nil
	case options.StoreS3:
		s, err := NewMinIOStore(ctx, s3)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", opts.Backend)
	}
}
