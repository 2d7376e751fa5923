package fileparam

// Key ids for the FileID layout (spec §6, "FileID key set"). These are
// stable across versions; a version only changes which subset is
// *declared* (see RegisterLayout), never what an id means.
const (
	KeyMounted = iota + 1
	KeyArea // array: Area[i]
	KeyTemporary
	KeyReadOnly
	KeyPageSize
	KeyFieldNumber
	KeyFieldType // array: FieldType[i]
	KeyFieldLength
	KeyFieldFraction
	KeyFieldEncodingForm
	KeyFieldFixed
	KeyFieldCollation
	KeyElementType
	KeyElementLength
	KeyElementFixed
	KeyKeyFieldNumber
	KeyUnique
	KeyVersion
	KeySchemaDatabaseID
	KeySchemaTableID
	KeySchemaFileObjectID
)

// UniqueMode enumerates FileID's Unique key values.
type UniqueMode int32

const (
	UniqueNone UniqueMode = iota
	UniqueObject
	UniqueKeyField
)

// FileIdentity is the stable triple identifying a file for the lifetime of
// a session (spec §3): derived once at attach, never changes afterwards.
type FileIdentity struct {
	DatabaseID int64
	TableID    int64
	FileID     int64
}

// FileID is the versioned key-value record describing one file's schema
// and storage parameters (spec §4.6, glossary). It is built on top of
// Parameter so it gets the same round-trip guarantees.
type FileID struct {
	p *Parameter
}

// NewFileID returns an empty FileID tagged with layout version v.
func NewFileID(v int32) *FileID {
	return &FileID{p: New(v)}
}

func (f *FileID) Version() int32 { return f.p.Version() }

func (f *FileID) SetMounted(b bool)  { f.p.Set(Key{ID: KeyMounted}, BoolValue(b)) }
func (f *FileID) Mounted() bool      { v, _ := f.p.Get(Key{ID: KeyMounted}); return v.Bool }

func (f *FileID) SetTemporary(b bool) { f.p.Set(Key{ID: KeyTemporary}, BoolValue(b)) }
func (f *FileID) Temporary() bool     { v, _ := f.p.Get(Key{ID: KeyTemporary}); return v.Bool }

func (f *FileID) SetReadOnly(b bool) { f.p.Set(Key{ID: KeyReadOnly}, BoolValue(b)) }
func (f *FileID) ReadOnly() bool     { v, _ := f.p.Get(Key{ID: KeyReadOnly}); return v.Bool }

func (f *FileID) SetPageSize(n int32) { f.p.Set(Key{ID: KeyPageSize}, IntValue(n)) }
func (f *FileID) PageSize() int32     { v, _ := f.p.Get(Key{ID: KeyPageSize}); return v.Int }

func (f *FileID) SetArea(i int, path string) { f.p.Set(Key{ID: KeyArea, Index: i}, StringValue(path)) }
func (f *FileID) Area(i int) string {
	v, _ := f.p.Get(Key{ID: KeyArea, Index: i})
	return v.Str
}

func (f *FileID) SetFieldNumber(n int32) { f.p.Set(Key{ID: KeyFieldNumber}, IntValue(n)) }
func (f *FileID) FieldNumber() int32     { v, _ := f.p.Get(Key{ID: KeyFieldNumber}); return v.Int }

func (f *FileID) SetFieldType(i int, t int32)  { f.p.Set(Key{ID: KeyFieldType, Index: i}, IntValue(t)) }
func (f *FileID) FieldType(i int) int32 {
	v, _ := f.p.Get(Key{ID: KeyFieldType, Index: i})
	return v.Int
}

func (f *FileID) SetFieldLength(i int, l int32) { f.p.Set(Key{ID: KeyFieldLength, Index: i}, IntValue(l)) }
func (f *FileID) FieldLength(i int) int32 {
	v, _ := f.p.Get(Key{ID: KeyFieldLength, Index: i})
	return v.Int
}

func (f *FileID) SetFieldFixed(i int, b bool) { f.p.Set(Key{ID: KeyFieldFixed, Index: i}, BoolValue(b)) }
func (f *FileID) FieldFixed(i int) bool {
	v, _ := f.p.Get(Key{ID: KeyFieldFixed, Index: i})
	return v.Bool
}

func (f *FileID) SetFieldCollation(i int, name string) {
	f.p.Set(Key{ID: KeyFieldCollation, Index: i}, StringValue(name))
}
func (f *FileID) FieldCollation(i int) string {
	v, _ := f.p.Get(Key{ID: KeyFieldCollation, Index: i})
	return v.Str
}

func (f *FileID) SetKeyFieldNumber(n int32) { f.p.Set(Key{ID: KeyKeyFieldNumber}, IntValue(n)) }
func (f *FileID) KeyFieldNumber() int32     { v, _ := f.p.Get(Key{ID: KeyKeyFieldNumber}); return v.Int }

func (f *FileID) SetUnique(m UniqueMode) { f.p.Set(Key{ID: KeyUnique}, IntValue(int32(m))) }
func (f *FileID) Unique() UniqueMode {
	v, _ := f.p.Get(Key{ID: KeyUnique})
	return UniqueMode(v.Int)
}

func (f *FileID) SetSchemaIDs(dbID, tableID, fileObjID int64) {
	f.p.Set(Key{ID: KeySchemaDatabaseID}, LongValue(dbID))
	f.p.Set(Key{ID: KeySchemaTableID}, LongValue(tableID))
	f.p.Set(Key{ID: KeySchemaFileObjectID}, LongValue(fileObjID))
}
func (f *FileID) SchemaIDs() (dbID, tableID, fileObjID int64) {
	a, _ := f.p.Get(Key{ID: KeySchemaDatabaseID})
	b, _ := f.p.Get(Key{ID: KeySchemaTableID})
	c, _ := f.p.Get(Key{ID: KeySchemaFileObjectID})
	return a.Long, b.Long, c.Long
}

// Store/Load delegate to the underlying Parameter so FileID gets the same
// version round-trip guarantees (spec §4.6 invariant, testable property #5).
func (f *FileID) Store(targetVersion int32) []byte { return f.p.Store(targetVersion) }

func LoadFileID(data []byte, loadVersion int32) (*FileID, error) {
	p, err := Load(data, loadVersion)
	if err != nil {
		return nil, err
	}
	return &FileID{p: p}, nil
}

// GobEncode/GobDecode let a FileID nested inside a Value be serialized as
// its own Parameter record, stored and reloaded under its own version.
func (f *FileID) GobEncode() ([]byte, error) { return f.p.Store(f.p.Version()), nil }

func (f *FileID) GobDecode(data []byte) error {
	var rec wireRecord
	if err := gobDecode(data, &rec); err != nil {
		return err
	}
	p, err := Load(data, rec.Version)
	if err != nil {
		return err
	}
	f.p = p
	return nil
}
