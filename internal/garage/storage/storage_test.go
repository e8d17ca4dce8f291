package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/autopeer-io/garage/internal/garage/core"
	"github.com/autopeer-io/garage/pkg/options"
)

func testStore(t *testing.T, s core.Store) {
	t.Helper()
	ctx := context.Background()

	if _, err := s.Get(ctx, "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("Get(missing) = %v, want ErrNotFound", err)
	}

	if err := s.Put(ctx, "garage.vehicles", []byte(`[]`)); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := s.Put(ctx, "garage.vehicles", []byte(`[{"id":"1"}]`)); err != nil {
		t.Fatalf("Put overwrite: %v", err)
	}

	got, err := s.Get(ctx, "garage.vehicles")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != `[{"id":"1"}]` {
		t.Errorf("Get = %s", got)
	}

	if err := s.Delete(ctx, "garage.vehicles"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(ctx, "garage.vehicles"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Get after Delete = %v, want ErrNotFound", err)
	}
	if err := s.Delete(ctx, "never-there"); err != nil {
		t.Errorf("Delete(missing) = %v", err)
	}
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	testStore(t, s)
}

func TestMemoryStoreCopiesValues(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	buf := []byte("abc")
	s.Put(ctx, "k", buf)
	buf[0] = 'x'

	got, _ := s.Get(ctx, "k")
	if string(got) != "abc" {
		t.Errorf("stored value aliased caller buffer: %s", got)
	}
}

func TestBadgerStore(t *testing.T) {
	s, err := NewBadgerStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewBadgerStore: %v", err)
	}
	defer s.Close()
	testStore(t, s)
}

func TestSQLiteStore(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "garage.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	defer s.Close()
	testStore(t, s)
}

func TestSQLiteStoreSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garage.db")
	ctx := context.Background()

	s, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	if err := s.Put(ctx, "garage.selectedId", []byte("abc")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	s.Close()

	s, err = NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()

	got, err := s.Get(ctx, "garage.selectedId")
	if err != nil || string(got) != "abc" {
		t.Errorf("Get after reopen = %q, %v", got, err)
	}
}

func TestNew(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		opts    *options.StoreOptions
		wantErr bool
	}{
		{"memory", &options.StoreOptions{Backend: options.StoreMemory}, false},
		{"badger", &options.StoreOptions{Backend: options.StoreBadger, BadgerDir: filepath.Join(dir, "badger")}, false},
		{"sqlite", &options.StoreOptions{Backend: options.StoreSQLite, SQLitePath: filepath.Join(dir, "db", "garage.db")}, false},
		{"unknown", &options.StoreOptions{Backend: "tape"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := New(context.Background(), tt.opts, options.NewS3Options())
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if s != nil {
				s.Close()
			}
		})
	}
}
