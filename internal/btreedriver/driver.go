package btreedriver

import (
	"context"
	"fmt"
	"sync"

	"github.com/sydneydb/sydney/internal/fileparam"
	"github.com/sydneydb/sydney/internal/lockregistry"
	lf "github.com/sydneydb/sydney/internal/logicalfile"
	"github.com/sydneydb/sydney/internal/storage/pager"
)

// Driver is the B+tree FileDriver: an ordered index over a fixed key-field
// tuple, backed by one tinySQL pager B+Tree per file. Page latches are
// taken through the shared lockregistry.Registry instead of the pager's
// own buffer-pool pin (spec §4.1: the registry, not the pin, is what the
// merge daemon consults to avoid contending with online scanners).
type Driver struct {
	registry *lockregistry.Registry
	owner    lockregistry.Owner
	fileName string

	keyFields   []lf.FieldDescriptor
	valueFields []lf.FieldDescriptor

	pg   *pager.Pager
	tree *pager.BTree
	kc   keyCodec

	mu      sync.Mutex
	mode    lf.OpenMode
	opt     lf.OpenOption
	cursor  []lf.Tuple
	pos     int
	updTx   pager.TxID
	hasTx   bool
	mounted bool
}

// Config describes the fixed shape of the file this Driver instance
// serves; one Config corresponds to one FileID (spec §3).
type Config struct {
	FileName    string
	KeyFields   []lf.FieldDescriptor
	ValueFields []lf.FieldDescriptor
	DBPath      string
	WALPath     string
	PageSize    int
}

// New constructs a Driver bound to registry for latch coordination and
// owner identifying this instance's holder token.
func New(registry *lockregistry.Registry, owner lockregistry.Owner, cfg Config) *Driver {
	return &Driver{
		registry:    registry,
		owner:       owner,
		fileName:    cfg.FileName,
		keyFields:   cfg.KeyFields,
		valueFields: cfg.ValueFields,
		kc:          keyCodec{fields: cfg.KeyFields},
	}
}

var _ lf.FileDriver = (*Driver)(nil)

func (d *Driver) dbConfig() pager.PagerConfig {
	return pager.PagerConfig{
		DBPath:   d.fileName + ".db",
		WALPath:  d.fileName + ".wal",
		PageSize: pager.DefaultPageSize,
	}
}

// directoryNamespace groups every B+tree FileDriver root under one
// namespace in the pager's file directory, leaving room for other
// FileDriver kinds to use the same directory with their own namespace.
const directoryNamespace = "btree"

// wholeFilePage is the page id this driver registers in the lock registry
// while a mutation is in flight: the pager's BTree API doesn't expose
// which physical pages an Insert/Delete touches, so the driver takes a
// coarse whole-file latch rather than a precise per-page one. Distinct
// from lockregistry.InvalidPage, which means "no page" and must never be
// inserted as if it were a real holder entry.
const wholeFilePage lockregistry.PageID = 0

func (d *Driver) Create(ctx context.Context, id fileparam.FileIdentity, fid *fileparam.FileID) error {
	pg, err := pager.OpenPager(d.dbConfig())
	if err != nil {
		return lf.Unexpected(err.Error())
	}
	tx, err := pg.BeginTx()
	if err != nil {
		pg.Close()
		return lf.Unexpected(err.Error())
	}
	dir, err := pager.OpenDirectory(pg, tx)
	if err != nil {
		pg.Close()
		return lf.Unexpected(err.Error())
	}
	bt, err := pager.CreateBTree(pg, tx)
	if err != nil {
		pg.Close()
		return lf.Unexpected(err.Error())
	}
	if err := dir.PutEntry(tx, pager.DirectoryEntry{
		Namespace:  directoryNamespace,
		FileName:   d.fileName,
		RootPageID: bt.Root(),
	}); err != nil {
		pg.Close()
		return lf.Unexpected(err.Error())
	}
	if err := pg.CommitTx(tx); err != nil {
		pg.Close()
		return lf.Unexpected(err.Error())
	}
	d.pg, d.tree = pg, bt
	d.mounted = true
	return nil
}

func (d *Driver) Destroy(ctx context.Context, id fileparam.FileIdentity) error {
	if d.pg != nil {
		return d.pg.Close()
	}
	return nil
}

func (d *Driver) Mount(ctx context.Context) error {
	if d.mounted {
		return nil
	}
	pg, err := pager.OpenPager(d.dbConfig())
	if err != nil {
		return lf.Unexpected(err.Error())
	}
	dir, err := pager.OpenDirectory(pg, 0)
	if err != nil {
		pg.Close()
		return lf.Unexpected(err.Error())
	}
	entry, err := dir.GetEntry(directoryNamespace, d.fileName)
	if err != nil {
		pg.Close()
		return lf.Unexpected(err.Error())
	}
	if entry == nil {
		pg.Close()
		return lf.ErrFileNotFound
	}
	d.pg = pg
	d.tree = pager.NewBTree(pg, entry.RootPageID)
	d.mounted = true
	return nil
}

func (d *Driver) Unmount(ctx context.Context) error {
	if !d.mounted {
		return nil
	}
	d.mounted = false
	return d.pg.Close()
}

// Open compiles nothing itself (internal/openoption already produced opt);
// it materializes the cursor this mode will iterate. Scan walks the whole
// tree; Search walks the compiled bound range and applies the exact
// per-row filter from match.go.
func (d *Driver) Open(ctx context.Context, opt lf.OpenOption, txn lf.Transaction) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.mode = opt.Mode
	d.opt = opt
	d.pos = 0
	d.cursor = nil

	if opt.Mode == lf.ModeUpdate {
		tx, err := d.pg.BeginTx()
		if err != nil {
			return lf.Unexpected(err.Error())
		}
		d.updTx, d.hasTx = tx, true
		// Update mode still walks a cursor (Get/Expunge/Update act on
		// "the current row"); it just does so inside the open transaction.
	}

	if opt.IsEmptySet() {
		return nil
	}

	var lo, hi []byte
	if opt.Mode == lf.ModeSearch {
		var err error
		lo, hi, err = d.kc.byteRange(opt.Bounds)
		if err != nil {
			return lf.BadArgument(err.Error())
		}
	}

	var rows []lf.Tuple
	err := d.tree.ScanRange(lo, hi, func(key, value []byte) bool {
		if ctx.Err() != nil {
			return false
		}
		row, err := decodeRow(value)
		if err != nil {
			return true // skip an undecodable row rather than aborting the whole scan
		}
		if opt.Mode == lf.ModeSearch && !rowMatchesBounds(d.keyFields, row, opt.Bounds) {
			return true
		}
		rows = append(rows, row)
		return true
	})
	if err != nil {
		return lf.Unexpected(err.Error())
	}
	if opt.SortReverse {
		for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
			rows[i], rows[j] = rows[j], rows[i]
		}
	}
	d.cursor = rows
	return nil
}

func (d *Driver) Close(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.hasTx {
		err := d.pg.CommitTx(d.updTx)
		d.hasTx = false
		if err != nil {
			return lf.Unexpected(err.Error())
		}
	}
	d.cursor = nil
	d.pos = 0
	return nil
}

func (d *Driver) Get(ctx context.Context) (lf.Tuple, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pos >= len(d.cursor) {
		return nil, false, nil
	}
	row := d.cursor[d.pos]
	d.pos++
	return row, true, nil
}

func (d *Driver) Insert(ctx context.Context, t lf.Tuple) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.hasTx {
		return lf.BadArgument("insert outside an update session")
	}
	key, err := d.kc.encodeTuple(t[:len(d.keyFields)])
	if err != nil {
		return lf.BadArgument(err.Error())
	}
	val, err := encodeRow(t)
	if err != nil {
		return lf.Unexpected(err.Error())
	}
	d.registry.Insert(d.fileName, wholeFilePage, d.owner)
	defer d.registry.Erase(d.fileName, wholeFilePage, d.owner)
	if err := d.tree.Insert(d.updTx, key, val); err != nil {
		return lf.Unexpected(err.Error())
	}
	return nil
}

func (d *Driver) Update(ctx context.Context, t lf.Tuple) error {
	return d.Insert(ctx, t) // B+tree Insert already overwrites an existing key
}

func (d *Driver) Expunge(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.hasTx {
		return lf.BadArgument("expunge outside an update session")
	}
	if d.pos == 0 || d.pos > len(d.cursor) {
		return lf.BadArgument("expunge called without a preceding Get")
	}
	row := d.cursor[d.pos-1]
	key, err := d.kc.encodeTuple(row[:len(d.keyFields)])
	if err != nil {
		return lf.BadArgument(err.Error())
	}
	if _, err := d.tree.Delete(d.updTx, key); err != nil {
		return lf.Unexpected(err.Error())
	}
	return nil
}

func (d *Driver) Fetch(ctx context.Context, key lf.Tuple) (lf.Tuple, bool, error) {
	enc, err := d.kc.encodeTuple(key)
	if err != nil {
		return nil, false, lf.BadArgument(err.Error())
	}
	val, found, err := d.tree.Get(enc)
	if err != nil {
		return nil, false, lf.Unexpected(err.Error())
	}
	if !found {
		return nil, false, nil
	}
	row, err := decodeRow(val)
	if err != nil {
		return nil, false, lf.Unexpected(err.Error())
	}
	return row, true, nil
}

// GetSearchParameter is deliberately a thin forwarder: the real analysis
// lives in internal/openoption.Compiler, parameterized by this driver's
// key-field shape. A driver only needs to decide what IT can serve;
// Btree serves any prefix range over its declared key fields.
func (d *Driver) GetSearchParameter(pred lf.Predicate, fileParam *fileparam.FileID) (lf.OpenOption, bool) {
	return lf.OpenOption{}, false
}

func (d *Driver) Verify(ctx context.Context) error { return nil }

func (d *Driver) Sync(ctx context.Context) error {
	return d.pg.Checkpoint()
}

func (d *Driver) Move(ctx context.Context, newArea []string) error {
	return lf.BadArgument("move is not supported by this driver")
}

func (d *Driver) GetLocator(ctx context.Context, key lf.Tuple) (lf.Locator, error) {
	return nil, lf.BadArgument("locator access is not supported by this driver")
}

func (d *Driver) GetSize(ctx context.Context) (int64, error) {
	sb := d.pg.Superblock()
	return int64(sb.PageCount) * int64(d.pg.PageSize()), nil
}

func (d *Driver) GetCount(ctx context.Context) (int64, error) {
	n, err := d.tree.Count()
	if err != nil {
		return 0, lf.Unexpected(err.Error())
	}
	return int64(n), nil
}

func (d *Driver) GetOverhead(ctx context.Context) (float64, error) {
	return float64(d.pg.PageSize()), nil
}

func (d *Driver) GetProcessCost(ctx context.Context) (float64, error) {
	n, err := d.tree.Count()
	if err != nil {
		return 0, lf.Unexpected(err.Error())
	}
	if n == 0 {
		return 0, nil
	}
	// Rough cost model: log2(n) page touches per probe, matching a B+tree's
	// actual height-bounded search cost.
	cost := 1.0
	for k := n; k > 1; k >>= 1 {
		cost++
	}
	return cost, nil
}

func (d *Driver) GetProperty(ctx context.Context, key string) (string, bool) {
	switch key {
	case "PageSize":
		return fmt.Sprint(d.pg.PageSize()), true
	}
	return "", false
}

func (d *Driver) UndoUpdate(ctx context.Context, t lf.Tuple) error {
	return lf.BadArgument("undo is not supported by this driver")
}

func (d *Driver) UndoExpunge(ctx context.Context, t lf.Tuple) error {
	return lf.BadArgument("undo is not supported by this driver")
}

// Compact runs the two-phase merge spec.md §4.4 and SPEC_FULL's
// mergeList/mergeVector split describe: first fold every WAL-logged
// write since the last checkpoint into the durable B+Tree structure,
// then repack the tree's live entries into a freshly allocated tree so
// the pages Expunge left fragmented are reclaimed. Each phase checks for
// cancellation before it starts, giving the abort path a real boundary
// between them instead of one opaque "apply" call.
func (d *Driver) Compact(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pg == nil || d.tree == nil {
		return lf.Unexpected("compact called before mount")
	}
	if ctx.Err() != nil {
		return lf.Cancel("compact canceled before mergeList")
	}

	// mergeList: apply pending WAL records to the main structure.
	if err := d.pg.Checkpoint(); err != nil {
		return lf.Unexpected(err.Error())
	}

	if ctx.Err() != nil {
		return lf.Cancel("compact canceled between mergeList and mergeVector")
	}

	// mergeVector: rebuild a densely packed tree from the current one's
	// live entries and swap the directory entry to point at it.
	tx, err := d.pg.BeginTx()
	if err != nil {
		return lf.Unexpected(err.Error())
	}
	packed, err := pager.CreateBTree(d.pg, tx)
	if err != nil {
		d.pg.AbortTx(tx)
		return lf.Unexpected(err.Error())
	}

	var scanErr error
	err = d.tree.ScanRange(nil, nil, func(key, value []byte) bool {
		if ctx.Err() != nil {
			scanErr = lf.Cancel("compact canceled during mergeVector")
			return false
		}
		if insErr := packed.Insert(tx, key, value); insErr != nil {
			scanErr = lf.Unexpected(insErr.Error())
			return false
		}
		return true
	})
	if err == nil {
		err = scanErr
	}
	if err != nil {
		d.pg.AbortTx(tx)
		return err
	}

	dir, err := pager.OpenDirectory(d.pg, tx)
	if err != nil {
		d.pg.AbortTx(tx)
		return lf.Unexpected(err.Error())
	}
	if err := dir.PutEntry(tx, pager.DirectoryEntry{
		Namespace:  directoryNamespace,
		FileName:   d.fileName,
		RootPageID: packed.Root(),
	}); err != nil {
		d.pg.AbortTx(tx)
		return lf.Unexpected(err.Error())
	}
	if err := d.pg.CommitTx(tx); err != nil {
		return lf.Unexpected(err.Error())
	}

	d.tree.FreeAllPages()
	d.tree = packed
	return nil
}

func (d *Driver) Capabilities() []lf.Capability {
	return []lf.Capability{
		lf.CapOpen, lf.CapClose, lf.CapUpdate, lf.CapGetProcessCost,
		lf.CapGetOverhead, lf.CapFetch,
	}
}

func (d *Driver) SupportsUndo() bool                  { return false }
func (d *Driver) SupportsCardinalityEstimation() bool { return true }
