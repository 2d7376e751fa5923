package fileparam

import "testing"

func TestRoundTripSameVersion(t *testing.T) {
	f := NewFileID(CurrentVersion)
	f.SetPageSize(4096)
	f.SetFieldNumber(3)
	f.SetFieldType(0, 1)
	f.SetFieldCollation(0, "unicode_ci")
	f.SetUnique(UniqueKeyField)

	data := f.Store(CurrentVersion)
	loaded, err := LoadFileID(data, CurrentVersion)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.PageSize() != 4096 {
		t.Fatalf("page size mismatch: %d", loaded.PageSize())
	}
	if loaded.FieldNumber() != 3 {
		t.Fatalf("field number mismatch: %d", loaded.FieldNumber())
	}
	if loaded.FieldCollation(0) != "unicode_ci" {
		t.Fatalf("collation mismatch: %q", loaded.FieldCollation(0))
	}
	if loaded.Unique() != UniqueKeyField {
		t.Fatalf("unique mode mismatch: %v", loaded.Unique())
	}
}

func TestRoundTripOldToNewPreservesKeys(t *testing.T) {
	// Stored under v1 (no FieldCollation in its layout), loaded under v2.
	f := NewFileID(1)
	f.SetPageSize(8192)
	f.SetFieldNumber(2)
	data := f.Store(1)

	loaded, err := LoadFileID(data, 2)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.PageSize() != 8192 || loaded.FieldNumber() != 2 {
		t.Fatal("v1 keys must survive being loaded under v2's layout")
	}
	// v2-only keys are simply absent/zero, not an error.
	if loaded.FieldCollation(0) != "" {
		t.Fatal("collation should be unset when the source record predates it")
	}
}

func TestUnknownKeysSurviveAsAuxiliary(t *testing.T) {
	f := NewFileID(CurrentVersion)
	// A key id no registered layout declares.
	unknown := Key{ID: 9999}
	f.p.Set(unknown, StringValue("future-value"))

	data := f.Store(CurrentVersion)
	loaded, err := LoadFileID(data, CurrentVersion)
	if err != nil {
		t.Fatal(err)
	}
	v, ok := loaded.p.Get(unknown)
	if !ok || v.Str != "future-value" {
		t.Fatal("unknown key must round-trip through the auxiliary hash")
	}
}

func TestLoadStoreInvariantAcrossVersions(t *testing.T) {
	// load(store(p, vA), vB) for vA <= vB must preserve vA's key-value
	// content (spec §4.6 invariant).
	f := NewFileID(1)
	f.SetPageSize(1024)
	f.SetKeyFieldNumber(1)

	for _, vB := range []int32{1, 2} {
		data := f.Store(1)
		loaded, err := LoadFileID(data, vB)
		if err != nil {
			t.Fatal(err)
		}
		if loaded.PageSize() != 1024 || loaded.KeyFieldNumber() != 1 {
			t.Fatalf("v1->v%d round trip lost data", vB)
		}
	}
}
