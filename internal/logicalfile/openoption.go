package logicalfile

// ReadSubMode distinguishes a full scan from an indexed fetch within
// ModeRead (spec §6).
type ReadSubMode int

const (
	SubModeScan ReadSubMode = iota
	SubModeFetch
)

// CompareOp enumerates the operators a search bound can carry (spec §6
// SearchStartOpe/SearchStopOpe).
type CompareOp int

const (
	OpEquals CompareOp = iota
	OpGreaterThan
	OpGreaterThanEquals
	OpLessThan
	OpLessThanEquals
	OpIsNull
	OpLike
)

// SortKey distinguishes sorting by rowid vs by a key field (spec §6).
type SortKey int

const (
	SortNone SortKey = iota
	SortByObjectID
	SortByKeyField
)

// SearchBound is one (field, operator, value) entry of a compiled search
// range. The compiler emits these in strictly increasing FieldIndex order
// (spec §8 invariant #2).
type SearchBound struct {
	FieldIndex int
	Start      string
	StartOpe   CompareOp
	HasStart   bool
	Stop       string
	StopOpe    CompareOp
	HasStop    bool
}

// OpenOption is the versioned key-value record passed to FileDriver.Open
// (spec §4.3.5, §6). Unlike the general fileparam.Parameter, the key set
// here is small and fixed, so it is represented directly as a struct
// rather than through the generic layout map — the compiler that builds it
// needs structured access to SearchBound order, not free-form key lookup.
type OpenOption struct {
	Mode        OpenMode
	SubMode     ReadSubMode
	FetchFields []int // FetchFieldIndex[i]; len = FetchFieldNumber

	Bounds []SearchBound // len = SearchFieldNumber; 0 means empty result set

	SortKey     SortKey
	SortReverse bool

	Escape string // LIKE escape character, set alongside a Like bound

	GetByBitSet    bool
	CacheAllObject bool
}

// IsEmptySet reports the "predicate is known unsatisfiable" signal: Search
// mode with zero bounds (spec §4.2, §4.3.5, §8 boundary behavior).
func (o OpenOption) IsEmptySet() bool {
	return o.Mode == ModeSearch && len(o.Bounds) == 0
}
