// Package fileparam implements the versioned key-value parameter record
// described in spec §4.6: the shared serialization mechanism behind both
// FileID (file-creation parameters) and OpenOption (query-open parameters).
//
// Grounded on _examples/original_source/sydney/Kernel/LogicalFile/Parameter.cpp
// (a version-indexed layout map plus an auxiliary hash for keys the current
// layout doesn't know about) and on tinySQL's internal/storage/db.go, which
// registers types with encoding/gob for its own versioned snapshot format.
package fileparam

import (
	"encoding/gob"
	"fmt"
	"sync"
)

func init() {
	gob.Register(FileID{})
	gob.Register(map[Key]Value{})
}

// Key identifies a parameter slot. Keys are stable 32-bit integers (see
// the named constants below); Index distinguishes array-valued parameters
// such as FieldType[i].
type Key struct {
	ID    int32
	Index int
}

// ValueKind tags the dynamic type carried by a Value.
type ValueKind uint8

const (
	KindString ValueKind = iota
	KindInteger
	KindLongLong
	KindBoolean
	KindDouble
	KindFileID
)

// Value is a tagged union over the types a Parameter slot can hold. Object
// pointers (opaque, driver-private handles) are deliberately not
// representable here: the source marks them "not serialized" and so are
// never round-tripped.
type Value struct {
	Kind    ValueKind
	Str     string
	Int     int32
	Long    int64
	Bool    bool
	Double  float64
	FileID  *FileID
}

func StringValue(s string) Value   { return Value{Kind: KindString, Str: s} }
func IntValue(i int32) Value       { return Value{Kind: KindInteger, Int: i} }
func LongValue(l int64) Value      { return Value{Kind: KindLongLong, Long: l} }
func BoolValue(b bool) Value       { return Value{Kind: KindBoolean, Bool: b} }
func DoubleValue(d float64) Value  { return Value{Kind: KindDouble, Double: d} }
func NestedValue(f *FileID) Value  { return Value{Kind: KindFileID, FileID: f} }

// layout is the set of keys recognized by one serialization version. Older
// versions are kept around forever: loading an older record under a newer
// layout must not lose keys the newer layout no longer declares.
type layout struct {
	version int32
	keys    map[int32]struct{}
}

// Parameter is a thread-safe, versioned key-value record. Every Parameter
// instance serializes reads and writes on one mutex (spec §5: "each
// Parameter uses one per-instance critical section; parameter objects are
// freely shared").
type Parameter struct {
	mu      sync.Mutex
	version int32
	known   map[Key]Value // keys present in `version`'s layout
	aux     map[Key]Value // keys not in the current layout, preserved verbatim
}

// layouts holds every layout version ever registered by a call to
// RegisterLayout, keyed by version. Call sites register all versions
// they support at package init time.
var (
	layoutsMu sync.Mutex
	layouts   = map[int32]layout{}
)

// RegisterLayout declares which key ids belong to serialization version v.
// Safe to call from multiple package init()s (e.g. one per driver kind).
func RegisterLayout(v int32, keyIDs []int32) {
	layoutsMu.Lock()
	defer layoutsMu.Unlock()
	ks := make(map[int32]struct{}, len(keyIDs))
	for _, k := range keyIDs {
		ks[k] = struct{}{}
	}
	layouts[v] = layout{version: v, keys: ks}
}

func layoutFor(v int32) (layout, bool) {
	layoutsMu.Lock()
	defer layoutsMu.Unlock()
	l, ok := layouts[v]
	return l, ok
}

// New returns an empty Parameter tagged with the given layout version.
func New(version int32) *Parameter {
	return &Parameter{
		version: version,
		known:   make(map[Key]Value),
		aux:     make(map[Key]Value),
	}
}

// Version returns the layout version this Parameter was constructed with.
func (p *Parameter) Version() int32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.version
}

// Set stores a value under key, classifying it as known (if the current
// layout declares key.ID) or auxiliary (otherwise). Auxiliary keys are
// never dropped by Load/Store round-trips, satisfying spec §4.6's
// invariant.
func (p *Parameter) Set(key Key, v Value) {
	p.mu.Lock()
	defer p.mu.Unlock()
	l, ok := layoutFor(p.version)
	if ok {
		if _, declared := l.keys[key.ID]; declared {
			p.known[key] = v
			delete(p.aux, key)
			return
		}
	}
	p.aux[key] = v
	delete(p.known, key)
}

// Get retrieves the value for key, looking in both the known and the
// auxiliary maps.
func (p *Parameter) Get(key Key) (Value, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if v, ok := p.known[key]; ok {
		return v, true
	}
	v, ok := p.aux[key]
	return v, ok
}

// Keys returns every key currently set, known and auxiliary combined.
func (p *Parameter) Keys() []Key {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Key, 0, len(p.known)+len(p.aux))
	for k := range p.known {
		out = append(out, k)
	}
	for k := range p.aux {
		out = append(out, k)
	}
	return out
}

// wireRecord is the gob-serializable snapshot of a Parameter.
type wireRecord struct {
	Version int32
	Known   map[Key]Value
	Aux     map[Key]Value
}

// Store snapshots p as if serialized under targetVersion: known keys the
// target layout doesn't declare are demoted to auxiliary (and vice versa),
// without losing any key. This mirrors Parameter::serialize in the
// original, which always writes both the known-layout map and the
// auxiliary hash.
func (p *Parameter) Store(targetVersion int32) []byte {
	p.mu.Lock()
	all := make(map[Key]Value, len(p.known)+len(p.aux))
	for k, v := range p.known {
		all[k] = v
	}
	for k, v := range p.aux {
		all[k] = v
	}
	p.mu.Unlock()

	rec := wireRecord{Version: targetVersion, Known: make(map[Key]Value), Aux: make(map[Key]Value)}
	l, hasLayout := layoutFor(targetVersion)
	for k, v := range all {
		if hasLayout {
			if _, declared := l.keys[k.ID]; declared {
				rec.Known[k] = v
				continue
			}
		}
		rec.Aux[k] = v
	}

	buf, err := gobEncode(rec)
	if err != nil {
		// Encoding a Parameter built from well-typed Values never fails;
		// a failure here is a programming error in Value, not caller input.
		panic(fmt.Sprintf("fileparam: encode: %v", err))
	}
	return buf
}

// Load reconstructs a Parameter from bytes produced by Store, reinterpreted
// under loadVersion's layout. Keys the stored record carries that
// loadVersion's layout doesn't declare land in the auxiliary map rather
// than being discarded, so load(store(p, vA), vB) for vA<=vB preserves
// every key-value pair vA wrote (spec §4.6).
func Load(data []byte, loadVersion int32) (*Parameter, error) {
	var rec wireRecord
	if err := gobDecode(data, &rec); err != nil {
		return nil, fmt.Errorf("fileparam: decode: %w", err)
	}
	p := New(loadVersion)
	l, hasLayout := layoutFor(loadVersion)
	for k, v := range rec.Known {
		if hasLayout {
			if _, declared := l.keys[k.ID]; declared {
				p.known[k] = v
				continue
			}
		}
		p.aux[k] = v
	}
	for k, v := range rec.Aux {
		p.aux[k] = v
	}
	return p, nil
}
