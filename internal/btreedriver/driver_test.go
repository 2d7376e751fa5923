package btreedriver

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/sydneydb/sydney/internal/fileparam"
	"github.com/sydneydb/sydney/internal/lockregistry"
	lf "github.com/sydneydb/sydney/internal/logicalfile"
)

func deleteRow(t *testing.T, d *Driver, key lf.Tuple) {
	t.Helper()
	ctx := context.Background()
	if err := d.Open(ctx, lf.OpenOption{Mode: lf.ModeUpdate}, nil); err != nil {
		t.Fatalf("Open(update): %v", err)
	}
	defer d.Close(ctx)
	for {
		row, ok, err := d.Get(ctx)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if !ok {
			t.Fatalf("key %v not found for delete", key)
		}
		if row[0] == key[0] {
			if err := d.Expunge(ctx); err != nil {
				t.Fatalf("Expunge: %v", err)
			}
			return
		}
	}
}

func newTestDriver(t *testing.T) *Driver {
	t.Helper()
	dir := t.TempDir()
	reg := lockregistry.New()
	d := New(reg, lockregistry.Owner(1), Config{
		FileName:  filepath.Join(dir, "orders"),
		KeyFields: []lf.FieldDescriptor{{Type: lf.FieldInt}},
	})
	if err := d.Create(context.Background(), fileparam.FileIdentity{}, nil); err != nil {
		t.Fatalf("Create: %v", err)
	}
	return d
}

func insertRow(t *testing.T, d *Driver, row lf.Tuple) {
	t.Helper()
	ctx := context.Background()
	if err := d.Open(ctx, lf.OpenOption{Mode: lf.ModeUpdate}, nil); err != nil {
		t.Fatalf("Open(update): %v", err)
	}
	if err := d.Insert(ctx, row); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := d.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestInsertThenFetch(t *testing.T) {
	d := newTestDriver(t)
	insertRow(t, d, lf.Tuple{int64(1), "alpha"})

	row, found, err := d.Fetch(context.Background(), lf.Tuple{int64(1)})
	if err != nil || !found {
		t.Fatalf("Fetch: found=%v err=%v", found, err)
	}
	if row[1] != "alpha" {
		t.Fatalf("unexpected row: %+v", row)
	}
}

func TestScanAllRowsInKeyOrder(t *testing.T) {
	d := newTestDriver(t)
	insertRow(t, d, lf.Tuple{int64(3), "c"})
	insertRow(t, d, lf.Tuple{int64(1), "a"})
	insertRow(t, d, lf.Tuple{int64(2), "b"})

	ctx := context.Background()
	if err := d.Open(ctx, lf.OpenOption{Mode: lf.ModeRead, SubMode: lf.SubModeScan}, nil); err != nil {
		t.Fatalf("Open(scan): %v", err)
	}
	defer d.Close(ctx)

	var keys []int64
	for {
		row, ok, err := d.Get(ctx)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if !ok {
			break
		}
		keys = append(keys, row[0].(int64))
	}
	if len(keys) != 3 || keys[0] != 1 || keys[1] != 2 || keys[2] != 3 {
		t.Fatalf("expected ordered keys [1 2 3], got %v", keys)
	}
}

func TestSearchRangeFiltersExactly(t *testing.T) {
	d := newTestDriver(t)
	for i := int64(0); i < 5; i++ {
		insertRow(t, d, lf.Tuple{i, "row"})
	}

	opt := lf.OpenOption{
		Mode: lf.ModeSearch,
		Bounds: []lf.SearchBound{{
			FieldIndex: 0,
			HasStart:   true, Start: "1", StartOpe: lf.OpGreaterThan,
			HasStop: true, Stop: "3", StopOpe: lf.OpLessThanEquals,
		}},
	}
	ctx := context.Background()
	if err := d.Open(ctx, opt, nil); err != nil {
		t.Fatalf("Open(search): %v", err)
	}
	defer d.Close(ctx)

	var keys []int64
	for {
		row, ok, err := d.Get(ctx)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if !ok {
			break
		}
		keys = append(keys, row[0].(int64))
	}
	if len(keys) != 2 || keys[0] != 2 || keys[1] != 3 {
		t.Fatalf("expected [2 3], got %v", keys)
	}
}

func TestEmptySetOpenYieldsNoRows(t *testing.T) {
	d := newTestDriver(t)
	insertRow(t, d, lf.Tuple{int64(1), "a"})

	ctx := context.Background()
	if err := d.Open(ctx, lf.OpenOption{Mode: lf.ModeSearch}, nil); err != nil {
		t.Fatalf("Open(empty): %v", err)
	}
	defer d.Close(ctx)

	_, ok, err := d.Get(ctx)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Fatal("expected no rows from an empty-set search")
	}
}

func TestExpungeRemovesRow(t *testing.T) {
	d := newTestDriver(t)
	insertRow(t, d, lf.Tuple{int64(1), "a"})

	ctx := context.Background()
	if err := d.Open(ctx, lf.OpenOption{Mode: lf.ModeUpdate}, nil); err != nil {
		t.Fatalf("Open(update): %v", err)
	}
	if _, ok, err := d.Get(ctx); err != nil || !ok {
		t.Fatalf("Get before expunge: ok=%v err=%v", ok, err)
	}
	if err := d.Expunge(ctx); err != nil {
		t.Fatalf("Expunge: %v", err)
	}
	if err := d.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}

	_, found, err := d.Fetch(ctx, lf.Tuple{int64(1)})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if found {
		t.Fatal("expected row to be gone after expunge")
	}
}

func TestCompactPreservesLiveRowsAfterExpunge(t *testing.T) {
	d := newTestDriver(t)
	for i := int64(0); i < 6; i++ {
		insertRow(t, d, lf.Tuple{i, "x"})
	}
	deleteRow(t, d, lf.Tuple{int64(2)})
	deleteRow(t, d, lf.Tuple{int64(4)})

	if err := d.Compact(context.Background()); err != nil {
		t.Fatalf("Compact: %v", err)
	}

	n, err := d.GetCount(context.Background())
	if err != nil {
		t.Fatalf("GetCount: %v", err)
	}
	if n != 4 {
		t.Fatalf("expected 4 live rows after compact, got %d", n)
	}
	for _, want := range []int64{0, 1, 3, 5} {
		_, found, err := d.Fetch(context.Background(), lf.Tuple{want})
		if err != nil {
			t.Fatalf("Fetch(%d): %v", want, err)
		}
		if !found {
			t.Fatalf("expected key %d to survive compact", want)
		}
	}
	for _, gone := range []int64{2, 4} {
		_, found, err := d.Fetch(context.Background(), lf.Tuple{gone})
		if err != nil {
			t.Fatalf("Fetch(%d): %v", gone, err)
		}
		if found {
			t.Fatalf("expected key %d to stay gone after compact", gone)
		}
	}
}

func TestCompactHonorsCanceledContext(t *testing.T) {
	d := newTestDriver(t)
	insertRow(t, d, lf.Tuple{int64(1), "a"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := d.Compact(ctx)
	if lf.KindOf(err) != lf.KindCancel {
		t.Fatalf("expected a cancel error, got %v", err)
	}
}

func TestGetCountReflectsInserts(t *testing.T) {
	d := newTestDriver(t)
	for i := int64(0); i < 4; i++ {
		insertRow(t, d, lf.Tuple{i, "x"})
	}
	n, err := d.GetCount(context.Background())
	if err != nil {
		t.Fatalf("GetCount: %v", err)
	}
	if n != 4 {
		t.Fatalf("expected count 4, got %d", n)
	}
}
