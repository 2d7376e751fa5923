package execruntime

import (
	"context"

	"github.com/sydneydb/sydney/internal/lockregistry"
	lf "github.com/sydneydb/sydney/internal/logicalfile"
)

// FileAccess is a locked, optionally bit-set-pushed-down handle onto one
// FileDriver (spec §4.5: "Collections ... and FileAccess (locked,
// optionally bit-set-pushed-down driver handles)"). It is not an
// Iterator itself — the Input iterator drives one through its
// initialize/next cycle — but it owns the lock acquisition the driver
// itself does not perform.
type FileAccess struct {
	Driver   lf.FileDriver
	Registry *lockregistry.Registry
	Owner    lockregistry.Owner
	FileName string

	bitSet map[int64]struct{} // optional row-id push-down filter
	opened bool
}

// NewFileAccess wraps driver with the latch the registry enforces for
// concurrent access to fileName.
func NewFileAccess(driver lf.FileDriver, registry *lockregistry.Registry, owner lockregistry.Owner, fileName string) *FileAccess {
	return &FileAccess{Driver: driver, Registry: registry, Owner: owner, FileName: fileName}
}

// PushDownBitSet restricts subsequent Next calls to row-ids present in
// ids — the RowIDCheck operator's built bitset flows in here rather than
// being re-filtered row by row downstream.
func (f *FileAccess) PushDownBitSet(ids map[int64]struct{}) {
	f.bitSet = ids
}

const wholeFilePage lockregistry.PageID = 0

// Open acquires the whole-file latch (the coarse stand-in documented in
// internal/btreedriver for drivers without fine-grained page touches) and
// opens the underlying driver.
// opt, including opt.GetByBitSet, is passed to the driver unchanged; a
// driver that ignores the flag scans normally, since Next re-filters
// against the pushed-down bitset anyway.
func (f *FileAccess) Open(ctx context.Context, opt lf.OpenOption) error {
	f.Registry.Insert(f.FileName, wholeFilePage, f.Owner)
	if err := f.Driver.Open(ctx, opt, nil); err != nil {
		f.Registry.Erase(f.FileName, wholeFilePage, f.Owner)
		return err
	}
	f.opened = true
	return nil
}

// Next returns the next row, applying the push-down bitset filter (if
// one is set) by re-deriving a row-id from field 0 — the spec's ObjectID
// convention. Rows whose field 0 is not an int64 pass unfiltered.
func (f *FileAccess) Next(ctx context.Context) (lf.Tuple, bool, error) {
	for {
		row, ok, err := f.Driver.Get(ctx)
		if err != nil || !ok {
			return row, ok, err
		}
		if f.bitSet == nil {
			return row, true, nil
		}
		id, isInt := row[0].(int64)
		if !isInt {
			return row, true, nil
		}
		if _, present := f.bitSet[id]; present {
			return row, true, nil
		}
	}
}

// Close releases the driver and the whole-file latch.
func (f *FileAccess) Close(ctx context.Context) error {
	if !f.opened {
		return nil
	}
	f.opened = false
	err := f.Driver.Close(ctx)
	f.Registry.Erase(f.FileName, wholeFilePage, f.Owner)
	return err
}
