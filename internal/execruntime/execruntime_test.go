package execruntime

import (
	"context"
	"testing"

	lf "github.com/sydneydb/sydney/internal/logicalfile"
)

func drain(t *testing.T, p *Program, id ID) []lf.Tuple {
	t.Helper()
	it := p.Iterator(id)
	if err := it.Initialize(p); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if _, err := it.StartUp(p); err != nil {
		t.Fatalf("StartUp: %v", err)
	}
	var out []lf.Tuple
	for {
		row, ok, err := it.Next(p)
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if !ok {
			break
		}
		out = append(out, row)
	}
	return out
}

func TestTuplesIteratorResetReplaysFromStart(t *testing.T) {
	p := NewProgram()
	id := p.AddIterator(NewTuplesIterator([]lf.Tuple{{int64(1)}, {int64(2)}}))

	got := drain(t, p, id)
	if len(got) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(got))
	}

	it := p.Iterator(id)
	if err := it.Reset(p); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if _, err := it.StartUp(p); err != nil {
		t.Fatalf("StartUp after reset: %v", err)
	}
	row, ok, err := it.Next(p)
	if err != nil || !ok || row[0] != int64(1) {
		t.Fatalf("expected first row after reset, got %+v ok=%v err=%v", row, ok, err)
	}
}

func TestFilterStreamsMatchingRows(t *testing.T) {
	p := NewProgram()
	src := p.AddIterator(NewTuplesIterator([]lf.Tuple{{int64(1)}, {int64(2)}, {int64(3)}}))
	filt := p.AddIterator(NewFilterIterator(src, func(t lf.Tuple) (bool, error) {
		return t[0].(int64)%2 == 1, nil
	}))

	got := drain(t, p, filt)
	if len(got) != 2 || got[0][0] != int64(1) || got[1][0] != int64(3) {
		t.Fatalf("expected odd rows [1 3], got %v", got)
	}
}

type countAgg struct {
	counts map[string]int64
	order  []string
}

func newCountAgg() *countAgg { return &countAgg{counts: make(map[string]int64)} }

func (a *countAgg) Key(t lf.Tuple) (string, error) {
	return t[0].(string), nil
}

func (a *countAgg) Accumulate(key string, t lf.Tuple) error {
	if _, seen := a.counts[key]; !seen {
		a.order = append(a.order, key)
	}
	a.counts[key]++
	return nil
}

func (a *countAgg) Rows() []lf.Tuple {
	var out []lf.Tuple
	for _, k := range a.order {
		out = append(out, lf.Tuple{k, a.counts[k]})
	}
	return out
}

func (a *countAgg) EmptyRow() lf.Tuple { return lf.Tuple{nil, int64(0)} }

func TestFilterAggregationGroupsByKey(t *testing.T) {
	p := NewProgram()
	src := p.AddIterator(NewTuplesIterator([]lf.Tuple{
		{"a", int64(1)}, {"b", int64(1)}, {"a", int64(1)},
	}))
	agg := newCountAgg()
	filt := p.AddIterator(NewFilterIterator(src, func(lf.Tuple) (bool, error) { return true, nil }).
		WithAggregation(agg, false))

	got := drain(t, p, filt)
	if len(got) != 2 {
		t.Fatalf("expected 2 groups, got %d: %v", len(got), got)
	}
	if got[0][0] != "a" || got[0][1] != int64(2) {
		t.Fatalf("expected group a -> 2, got %+v", got[0])
	}
	if got[1][0] != "b" || got[1][1] != int64(1) {
		t.Fatalf("expected group b -> 1, got %+v", got[1])
	}
}

func TestFilterAggregationEmptyGroupingEmitsDefaultRow(t *testing.T) {
	p := NewProgram()
	src := p.AddIterator(NewTuplesIterator(nil))
	agg := newCountAgg()
	filt := p.AddIterator(NewFilterIterator(src, func(lf.Tuple) (bool, error) { return true, nil }).
		WithAggregation(agg, true))

	got := drain(t, p, filt)
	if len(got) != 1 {
		t.Fatalf("expected one default aggregate row, got %d", len(got))
	}
	if got[0][1] != int64(0) {
		t.Fatalf("expected default count 0, got %+v", got[0])
	}
}

func TestMergeSortInterleavesSortedOperands(t *testing.T) {
	p := NewProgram()
	a := p.AddIterator(NewTuplesIterator([]lf.Tuple{{int64(1)}, {int64(3)}, {int64(5)}}))
	b := p.AddIterator(NewTuplesIterator([]lf.Tuple{{int64(2)}, {int64(4)}}))
	spec := SortSpec{Positions: []int{0}}
	m := p.AddIterator(NewMergeSortIterator([]ID{a, b}, spec))

	got := drain(t, p, m)
	want := []int64{1, 2, 3, 4, 5}
	if len(got) != len(want) {
		t.Fatalf("expected %d rows, got %d", len(want), len(got))
	}
	for i, w := range want {
		if got[i][0] != w {
			t.Fatalf("position %d: expected %d, got %v", i, w, got[i][0])
		}
	}
}

func TestUnionDistinctDropsDuplicateKeys(t *testing.T) {
	p := NewProgram()
	a := p.AddIterator(NewTuplesIterator([]lf.Tuple{{int64(1)}, {int64(2)}}))
	b := p.AddIterator(NewTuplesIterator([]lf.Tuple{{int64(2)}, {int64(3)}}))
	spec := SortSpec{Positions: []int{0}}
	u := p.AddIterator(NewUnionDistinctIterator([]ID{a, b}, spec))

	got := drain(t, p, u)
	want := []int64{1, 2, 3}
	if len(got) != len(want) {
		t.Fatalf("expected %d distinct rows, got %d: %v", len(want), len(got), got)
	}
	for i, w := range want {
		if got[i][0] != w {
			t.Fatalf("position %d: expected %d, got %v", i, w, got[i][0])
		}
	}
}

func TestCascadeInputConcatenatesInOrder(t *testing.T) {
	p := NewProgram()
	a := p.AddIterator(NewTuplesIterator([]lf.Tuple{{"a1"}, {"a2"}}))
	b := p.AddIterator(NewTuplesIterator([]lf.Tuple{{"b1"}}))
	c := p.AddIterator(NewCascadeInputIterator([]ID{a, b}))

	got := drain(t, p, c)
	if len(got) != 3 || got[0][0] != "a1" || got[1][0] != "a2" || got[2][0] != "b1" {
		t.Fatalf("expected [a1 a2 b1], got %v", got)
	}
}

func TestEmptyNullEmitsDefaultOnlyWhenOperandEmpty(t *testing.T) {
	p := NewProgram()
	empty := p.AddIterator(NewTuplesIterator(nil))
	en := p.AddIterator(NewEmptyNullIterator(empty, lf.Tuple{"default"}))

	got := drain(t, p, en)
	if len(got) != 1 || got[0][0] != "default" {
		t.Fatalf("expected default row, got %v", got)
	}

	p2 := NewProgram()
	nonEmpty := p2.AddIterator(NewTuplesIterator([]lf.Tuple{{"real"}}))
	en2 := p2.AddIterator(NewEmptyNullIterator(nonEmpty, lf.Tuple{"default"}))
	got2 := drain(t, p2, en2)
	if len(got2) != 1 || got2[0][0] != "real" {
		t.Fatalf("expected real row to pass through, got %v", got2)
	}
}

func TestLimitWholeAppliesOffsetAndCount(t *testing.T) {
	lim := &Limit{Offset: 1, Count: 2}
	rows := []lf.Tuple{{int64(0)}, {int64(1)}, {int64(2)}, {int64(3)}}
	var kept []lf.Tuple
	for _, r := range rows {
		keep, done, err := lim.Apply(r)
		if err != nil {
			t.Fatalf("Apply: %v", err)
		}
		if keep {
			kept = append(kept, r)
		}
		if done {
			break
		}
	}
	if len(kept) != 2 || kept[0][0] != int64(1) || kept[1][0] != int64(2) {
		t.Fatalf("expected rows [1 2], got %v", kept)
	}
}

func TestRowIDCheckBitSetProbe(t *testing.T) {
	p := NewProgram()
	inner := p.AddIterator(NewTuplesIterator([]lf.Tuple{{int64(10)}, {int64(20)}}))
	check := &RowIDCheck{Inner: inner, Kind: RowIDCheckBitSet}
	if err := check.Build(p); err != nil {
		t.Fatalf("Build: %v", err)
	}
	if _, ok, err := check.Probe(p, 10); err != nil || !ok {
		t.Fatalf("expected 10 present: ok=%v err=%v", ok, err)
	}
	if _, ok, err := check.Probe(p, 99); err != nil || ok {
		t.Fatalf("expected 99 absent: ok=%v err=%v", ok, err)
	}
}

func TestRowIDCheckEmptyBuildIsNeverTrue(t *testing.T) {
	p := NewProgram()
	inner := p.AddIterator(NewTuplesIterator(nil))
	check := &RowIDCheck{Inner: inner, Kind: RowIDCheckBitSet}
	if err := check.Build(p); err != nil {
		t.Fatalf("Build: %v", err)
	}
	if _, ok, err := check.Probe(p, 1); err != nil || ok {
		t.Fatalf("expected empty bitset to never match: ok=%v err=%v", ok, err)
	}
}

func TestIsSubstringOfContiguousMatch(t *testing.T) {
	var op IsSubstringOf
	b := []any{int64(1), int64(2), int64(3), int64(4)}
	if !op.Check([]any{int64(2), int64(3)}, b) {
		t.Fatal("expected [2 3] to be a contiguous substring of [1 2 3 4]")
	}
	if op.Check([]any{int64(2), int64(4)}, b) {
		t.Fatal("did not expect non-contiguous [2 4] to match")
	}
	if op.Check(nil, b) {
		t.Fatal("empty array must never match")
	}
}

func TestCollectionCheckContainsMatchesOnKey(t *testing.T) {
	p := NewProgram()
	side := p.AddCollection(NewArrayCollection(WithProbeOnly))
	coll := p.Collection(side)
	if _, err := coll.PutData(p, lf.Tuple{int64(5)}); err != nil {
		t.Fatalf("PutData: %v", err)
	}
	check := &CollectionCheck{Side: side, KeyFn: func(t lf.Tuple) (any, error) { return t[0], nil }}
	ok, err := check.Contains(p, lf.Tuple{int64(5)})
	if err != nil || !ok {
		t.Fatalf("expected membership match: ok=%v err=%v", ok, err)
	}
	ok, err = check.Contains(p, lf.Tuple{int64(6)})
	if err != nil || ok {
		t.Fatalf("expected no match: ok=%v err=%v", ok, err)
	}
}

func TestProgramCancelIsCooperative(t *testing.T) {
	p := NewProgram()
	p.Cancel()
	err := p.CheckCanceled(context.Background())
	if err == nil {
		t.Fatal("expected a cancel error")
	}
	if lf.KindOf(err) != lf.KindCancel {
		t.Fatalf("expected KindCancel, got %v", lf.KindOf(err))
	}
}

func TestProgramVariables(t *testing.T) {
	p := NewProgram()
	id := p.AddVariable("limit", int64(10))
	if p.GetVariable(id) != int64(10) {
		t.Fatal("expected initial variable value")
	}
	p.SetVariable(id, int64(20))
	if p.GetVariable(id) != int64(20) {
		t.Fatal("expected updated variable value")
	}
}
