package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/autopeer-io/garage/internal/garage/core"
	"github.com/autopeer-io/garage/pkg/log"
)

// BadgerStore implements core.Store on an embedded badger database.
type BadgerStore struct {
	db *badger.DB
}

var _ core.Store = (*BadgerStore)(nil)

// NewBadgerStore opens (or creates) the database in dir.
func NewBadgerStore(dir string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(filepath.Clean(dir))
	opts.Logger = &badgerLogger{l: log.WithName("badger")}
	opts = opts.WithValueLogFileSize(1 << 24)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger at %s: %w", dir, err)
	}
	return &BadgerStore{db: db}, nil
}

func (s *BadgerStore) Get(_ context.Context, key string) ([]byte, error) {
	var out []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return core.ErrNotFound
			}
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *BadgerStore) Put(_ context.Context, key string, value []byte) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
}

func (s *BadgerStore) Delete(_ context.Context, key string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}

// badgerLogger routes badger's printf-style logging into pkg/log.
type badgerLogger struct {
	l log.Logger
}

func (b *badgerLogger) Errorf(format string, args ...any) {
	b.l.Error(nil, trim(format, args...))
}

func (b *badgerLogger) Warningf(format string, args ...any) {
	b.l.Warn(trim(format, args...))
}

func (b *badgerLogger) Infof(format string, args ...any) {
	b.l.Debug(trim(format, args...))
}

func (b *badgerLogger) Debugf(format string, args ...any) {
	b.l.Debug(trim(format, args...))
}

func trim(format string, args ...any) string {
	return strings.TrimSpace(fmt.Sprintf(format, args...))
}
