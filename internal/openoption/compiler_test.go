package openoption

import (
	"testing"

	lf "github.com/sydneydb/sydney/internal/logicalfile"
)

func twoIntKeys() []lf.FieldDescriptor {
	return []lf.FieldDescriptor{
		{Type: lf.FieldInt},
		{Type: lf.FieldInt},
	}
}

func eq(field int, val string) *lf.Predicate {
	return &lf.Predicate{Type: lf.PredEquals, FieldIndex: field, Value: val}
}

func gt(field int, val string) *lf.Predicate {
	return &lf.Predicate{Type: lf.PredGreaterThan, FieldIndex: field, Value: val}
}

func ge(field int, val string) *lf.Predicate {
	return &lf.Predicate{Type: lf.PredGreaterThanEquals, FieldIndex: field, Value: val}
}

func lt(field int, val string) *lf.Predicate {
	return &lf.Predicate{Type: lf.PredLessThan, FieldIndex: field, Value: val}
}

func le(field int, val string) *lf.Predicate {
	return &lf.Predicate{Type: lf.PredLessThanEquals, FieldIndex: field, Value: val}
}

func and(children ...*lf.Predicate) *lf.Predicate {
	return &lf.Predicate{Type: lf.PredAnd, Children: children}
}

// Scenario 1: no predicate compiles to a plain scan.
func TestCompileSearch_Scan(t *testing.T) {
	c := &Compiler{KeyFields: twoIntKeys()}
	opt, ok := c.CompileSearch(nil)
	if !ok {
		t.Fatal("expected scan to be servable")
	}
	if opt.Mode != lf.ModeRead || opt.SubMode != lf.SubModeScan {
		t.Fatalf("expected read/scan, got %+v", opt)
	}
}

// Scenario 2: a single equality on the leading key compiles to one bound.
func TestCompileSearch_SingleEquality(t *testing.T) {
	c := &Compiler{KeyFields: twoIntKeys()}
	opt, ok := c.CompileSearch(eq(0, "10"))
	if !ok {
		t.Fatal("expected equality to be servable")
	}
	if len(opt.Bounds) != 1 {
		t.Fatalf("expected 1 bound, got %d", len(opt.Bounds))
	}
	b := opt.Bounds[0]
	if !b.HasStart || b.StartOpe != lf.OpEquals || b.Start != "10" || b.HasStop {
		t.Fatalf("unexpected bound: %+v", b)
	}
}

// Scenario 3: a >= 10 AND a <= 5 is a contradictory range — empty set.
func TestCompileSearch_ContradictoryRange(t *testing.T) {
	c := &Compiler{KeyFields: twoIntKeys()}
	opt, ok := c.CompileSearch(and(ge(0, "10"), le(0, "5")))
	if !ok {
		t.Fatal("expected the driver to recognize this, not bail to scan")
	}
	if !opt.IsEmptySet() {
		t.Fatalf("expected an empty result set, got %+v", opt)
	}
}

// Scenario 4: a >= 10 AND a <= 10 rewrites to a = 10.
func TestCompileSearch_RangeRewriteToEquality(t *testing.T) {
	c := &Compiler{KeyFields: twoIntKeys()}
	opt, ok := c.CompileSearch(and(ge(0, "10"), le(0, "10")))
	if !ok {
		t.Fatal("expected this to be servable")
	}
	if len(opt.Bounds) != 1 {
		t.Fatalf("expected 1 bound, got %d: %+v", len(opt.Bounds), opt.Bounds)
	}
	b := opt.Bounds[0]
	if b.HasStop {
		t.Fatalf("expected stop slot cleared after rewrite, got %+v", b)
	}
	if b.StartOpe != lf.OpEquals || b.Start != "10" {
		t.Fatalf("expected rewritten equality bound, got %+v", b)
	}
}

// Scenario 5: equality on the leading field plus a range on the next field
// — a common prefix-range pattern.
func TestCompileSearch_MultiFieldPrefix(t *testing.T) {
	c := &Compiler{KeyFields: twoIntKeys()}
	opt, ok := c.CompileSearch(and(eq(0, "1"), ge(1, "100"), lt(1, "200")))
	if !ok {
		t.Fatal("expected this to be servable")
	}
	if len(opt.Bounds) != 2 {
		t.Fatalf("expected 2 bounds, got %d: %+v", len(opt.Bounds), opt.Bounds)
	}
	if opt.Bounds[0].StartOpe != lf.OpEquals || opt.Bounds[0].Start != "1" {
		t.Fatalf("unexpected leading bound: %+v", opt.Bounds[0])
	}
	second := opt.Bounds[1]
	if !second.HasStart || second.StartOpe != lf.OpGreaterThanEquals || second.Start != "100" {
		t.Fatalf("unexpected second-field start: %+v", second)
	}
	if !second.HasStop || second.StopOpe != lf.OpLessThan || second.Stop != "200" {
		t.Fatalf("unexpected second-field stop: %+v", second)
	}
}

func TestCompileSearch_LeadingFieldMustHaveBound(t *testing.T) {
	c := &Compiler{KeyFields: twoIntKeys()}
	_, ok := c.CompileSearch(eq(1, "5"))
	if ok {
		t.Fatal("expected a bound on a non-leading field alone to be unservable")
	}
}

func TestCompileSearch_TrailingNonEqualMustBeLast(t *testing.T) {
	c := &Compiler{KeyFields: twoIntKeys()}
	_, ok := c.CompileSearch(and(gt(0, "1"), eq(1, "5")))
	if ok {
		t.Fatal("expected a range on a non-trailing field to be unservable")
	}
}

func TestCompileSearch_SameSlotIllegalCombination(t *testing.T) {
	c := &Compiler{KeyFields: twoIntKeys()}
	// Both GreaterThan and GreaterThanEquals write the start slot; different
	// constants with neither side an equality is illegal, not a range.
	_, ok := c.CompileSearch(and(gt(0, "1"), ge(0, "5")))
	if ok {
		t.Fatal("expected two conflicting start-slot operators on different constants to be unservable")
	}
}

func TestCompileSearch_SameSlotEmptyOnDifferentEqualityConstants(t *testing.T) {
	c := &Compiler{KeyFields: twoIntKeys()}
	opt, ok := c.CompileSearch(and(eq(0, "1"), eq(0, "2")))
	if !ok {
		t.Fatal("expected recognized contradiction")
	}
	if !opt.IsEmptySet() {
		t.Fatalf("expected empty set, got %+v", opt)
	}
}

func TestCompileSearch_EqualsToNullOnlyOnLeadingField(t *testing.T) {
	c := &Compiler{KeyFields: twoIntKeys()}
	_, ok := c.CompileSearch(&lf.Predicate{Type: lf.PredEqualsToNull, FieldIndex: 1})
	if ok {
		t.Fatal("expected EqualsToNull on a non-leading field to be unservable")
	}
}

func TestCompileFetch_ObjectIDAlone(t *testing.T) {
	c := &Compiler{KeyFields: twoIntKeys()}
	opt, ok := c.CompileFetch([]int{ObjectIDField})
	if !ok {
		t.Fatal("expected object-id fetch to be servable")
	}
	if len(opt.FetchFields) != 1 || opt.FetchFields[0] != ObjectIDField {
		t.Fatalf("unexpected fetch fields: %+v", opt.FetchFields)
	}
}

func TestCompileFetch_ObjectIDMustBeAlone(t *testing.T) {
	c := &Compiler{KeyFields: twoIntKeys()}
	_, ok := c.CompileFetch([]int{ObjectIDField, 0})
	if ok {
		t.Fatal("expected object-id combined with a key field to be rejected")
	}
}

func TestCompileSort_ObjectIDIncompatibleWithKeyRangeSearch(t *testing.T) {
	c := &Compiler{KeyFields: twoIntKeys()}
	opt, ok := c.CompileSearch(eq(0, "1"))
	if !ok {
		t.Fatal("expected equality to be servable")
	}
	if c.CompileSort(&opt, lf.SortByObjectID, false) {
		t.Fatal("expected object-id sort to be rejected when key bounds are present")
	}
}

func TestCompileSort_KeyFieldIncompatibleWithObjectIDFetch(t *testing.T) {
	c := &Compiler{KeyFields: twoIntKeys()}
	opt, ok := c.CompileFetch([]int{ObjectIDField})
	if !ok {
		t.Fatal("expected object-id fetch to be servable")
	}
	if c.CompileSort(&opt, lf.SortByKeyField, false) {
		t.Fatal("expected key-field sort to be rejected alongside object-id fetch")
	}
}

func TestCompileSearch_LikeOnLeadingStringField(t *testing.T) {
	c := &Compiler{KeyFields: []lf.FieldDescriptor{{Type: lf.FieldString}}}
	opt, ok := c.CompileSearch(&lf.Predicate{Type: lf.PredLike, FieldIndex: 0, Pattern: "abc%"})
	if !ok {
		t.Fatal("expected a non-wildcard-leading LIKE pattern to be servable")
	}
	if len(opt.Bounds) != 1 || opt.Bounds[0].StartOpe != lf.OpLike || opt.Bounds[0].Start != "abc%" {
		t.Fatalf("unexpected bound: %+v", opt.Bounds)
	}
}

func TestCompileSearch_LikeRejectsLeadingWildcard(t *testing.T) {
	c := &Compiler{KeyFields: []lf.FieldDescriptor{{Type: lf.FieldString}}}
	_, ok := c.CompileSearch(&lf.Predicate{Type: lf.PredLike, FieldIndex: 0, Pattern: "%abc"})
	if ok {
		t.Fatal("expected a leading-wildcard LIKE pattern to be unservable (forces full scan)")
	}
}

func TestCompileSearch_LikeRejectsMultiCharEscape(t *testing.T) {
	c := &Compiler{KeyFields: []lf.FieldDescriptor{{Type: lf.FieldString}}}
	_, ok := c.CompileSearch(&lf.Predicate{Type: lf.PredLike, FieldIndex: 0, Pattern: "abc%", Escape: "!!"})
	if ok {
		t.Fatal("expected a multi-character ESCAPE string to be rejected")
	}
}

func TestSetGetByBitSet_WinsOverCacheAllObject(t *testing.T) {
	c := &Compiler{KeyFields: twoIntKeys()}
	opt, _ := c.CompileSearch(eq(0, "1"))
	c.SetCacheAllObject(&opt, true)
	c.SetGetByBitSet(&opt, true)
	if opt.CacheAllObject {
		t.Fatal("expected GetByBitSet to clear CacheAllObject")
	}
	if !opt.GetByBitSet {
		t.Fatal("expected GetByBitSet to remain set")
	}
}
