// Package logicalfile defines the polymorphic FileDriver base (spec §4.2):
// the uniform opener/scanner/updater contract every storage index kind
// (B+tree, full-text, KD-tree, …) implements, plus the shared data-model
// types from spec §3 (FileIdentity already lives in internal/fileparam;
// FieldDescriptor, OpenMode, Locator, and capability flags live here).
//
// Grounded on _examples/original_source/sydney/Kernel/LogicalFile/LogicalFile/File.h
// (the method set) and tinySQL's internal/storage/db.go Column/Table
// structs for the Go idiom of describing typed fields.
package logicalfile

import (
	"context"

	"github.com/sydneydb/sydney/internal/fileparam"
)

// FieldType enumerates the element types a FieldDescriptor can carry.
// Deliberately small and orthogonal to storage.ColType: this layer only
// needs to know enough to size and compare key fields.
type FieldType int

const (
	FieldInt FieldType = iota
	FieldLong
	FieldDouble
	FieldString
	FieldBinary
	FieldDate
)

// FieldDescriptor describes one field of a file's key or value tuple
// (spec §3). Fixed fields have a defined byte width; variable fields up to
// 8 bytes are in-lined by convention, larger ones spill to an overflow
// area (mirrored by btreedriver's use of pager overflow pages).
type FieldDescriptor struct {
	Type        FieldType
	IsFixed     bool
	MaxLength   int
	IsArray     bool
	ElementType FieldType
	ElementMax  int
	Collation   string // consulted via internal/openoption's collator for string fields
}

// OpenMode is the primary mode a FileDriver operates in once Open succeeds
// (spec §4.2).
type OpenMode int

const (
	ModeRead OpenMode = iota
	ModeSearch
	ModeUpdate
)

// Capability flags: which operations require the caller to hold a page
// latch (typically Open/Close/Update) versus which a driver can execute
// lock-free (typically GetProcessCost/GetOverhead/Fetch).
type Capability int

const (
	CapOpen Capability = iota
	CapClose
	CapUpdate
	CapGetProcessCost
	CapGetOverhead
	CapFetch
	CapUndo
	CapCardinalityEstimation
)

// Tuple is a driver-agnostic row: positional values keyed by field index.
// The execution runtime (internal/execruntime) copies Tuples between
// iterators; FileDrivers produce and consume them directly.
type Tuple []any

// Locator is a driver-provided handle to one row's binary payload,
// supporting partial read/overwrite (BLOB-style API), per the glossary and
// _examples/original_source/sydney/Kernel/LogicalFile/Locator.cpp.
type Locator interface {
	Read(offset, length int) ([]byte, error)
	Write(offset int, data []byte) error
	Length() (int, error)
}

// FileDriver is the capability interface every index kind implements
// (spec §4.2). Every driver declares its own Capabilities() so callers
// (ExecutionRuntime's FileAccess, MergeScheduler) know which calls need a
// lock-registry latch around them.
type FileDriver interface {
	// Lifecycle.
	Create(ctx context.Context, id fileparam.FileIdentity, fid *fileparam.FileID) error
	Destroy(ctx context.Context, id fileparam.FileIdentity) error
	Mount(ctx context.Context) error
	Unmount(ctx context.Context) error

	// Open/close. After Open succeeds exactly one of ModeRead/ModeSearch/
	// ModeUpdate is active until Close.
	Open(ctx context.Context, opt OpenOption, txn Transaction) error
	Close(ctx context.Context) error

	// Single-tuple access.
	Get(ctx context.Context) (Tuple, bool, error)
	Insert(ctx context.Context, t Tuple) error
	Update(ctx context.Context, t Tuple) error
	Expunge(ctx context.Context) error
	Fetch(ctx context.Context, key Tuple) (Tuple, bool, error)

	// getSearchParameter: given a predicate, decide fast-access vs full
	// scan. This is the entry point internal/openoption's Compiler calls
	// into per driver kind. Implemented per-driver because the key shape
	// (B+tree prefix range vs KD-tree bounding box) differs.
	GetSearchParameter(pred Predicate, fileParam *fileparam.FileID) (OpenOption, bool)

	// Maintenance.
	Verify(ctx context.Context) error
	Sync(ctx context.Context) error
	Move(ctx context.Context, newArea []string) error
	GetLocator(ctx context.Context, key Tuple) (Locator, error)

	// Cost / size estimation, lock-free (CapGetProcessCost/CapGetOverhead).
	GetSize(ctx context.Context) (int64, error)
	GetCount(ctx context.Context) (int64, error)
	GetOverhead(ctx context.Context) (float64, error)
	GetProcessCost(ctx context.Context) (float64, error)
	GetProperty(ctx context.Context, key string) (string, bool)

	// Undo support (optional: a driver that doesn't support it returns
	// logicalfile.BadArgument; SupportsUndo() tells callers up front).
	UndoUpdate(ctx context.Context, t Tuple) error
	UndoExpunge(ctx context.Context, t Tuple) error

	// Background-merge maintenance (no-op for drivers with no delta area).
	Compact(ctx context.Context) error

	Capabilities() []Capability
	SupportsUndo() bool
	SupportsCardinalityEstimation() bool
}

// Transaction is the narrow contract FileDriver.Open needs from the
// transaction layer. The full transaction manager is out of this
// subsystem's scope (spec §1); drivers only need an id to log against and
// an isolation level to honor.
type Transaction interface {
	ID() uint64
	IsCanceled() bool
}
