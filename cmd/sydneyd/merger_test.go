package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/sydneydb/sydney/internal/btreedriver"
	"github.com/sydneydb/sydney/internal/fileparam"
	"github.com/sydneydb/sydney/internal/lockregistry"
	lf "github.com/sydneydb/sydney/internal/logicalfile"
	"github.com/sydneydb/sydney/internal/merge"
)

func TestDriverMergerDispatchesToRegisteredDriver(t *testing.T) {
	dir := t.TempDir()
	reg := lockregistry.New()
	d := btreedriver.New(reg, lockregistry.Owner(1), btreedriver.Config{
		FileName:  filepath.Join(dir, "idx1"),
		KeyFields: []lf.FieldDescriptor{{Type: lf.FieldInt}},
	})
	ctx := context.Background()
	if err := d.Create(ctx, fileparam.FileIdentity{}, nil); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := d.Open(ctx, lf.OpenOption{Mode: lf.ModeUpdate}, nil); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := d.Insert(ctx, lf.Tuple{int64(1), "a"}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := d.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}

	m := newDriverMerger()
	id := fileparam.FileIdentity{DatabaseID: 1, TableID: 2, FileID: 3}
	m.Register(id, d)

	if err := m.Merge(ctx, merge.Entry{File: id}); err != nil {
		t.Fatalf("Merge: %v", err)
	}

	n, err := d.GetCount(ctx)
	if err != nil || n != 1 {
		t.Fatalf("expected 1 row to survive merge, got %d err=%v", n, err)
	}

	m.Unregister(id)
	if err := m.Merge(ctx, merge.Entry{File: id}); err != lf.ErrFileNotFound {
		t.Fatalf("expected ErrFileNotFound after Unregister, got %v", err)
	}
}
