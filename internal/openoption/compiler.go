// Package openoption implements the OpenOptionCompiler (spec §4.3), the
// hardest sub-subsystem of the logical-file runtime: a pure analyzer that
// walks a predicate tree and a list of projected/sort fields and decides
// whether a FileDriver can serve the query without a full scan.
//
// Grounded throughout on
// _examples/original_source/sydney/Driver/Btree/OpenOptionAnalyzer.cpp and
// Btree/FileParameter.h. Pure algorithm, no I/O; the decision-table walk
// is plain Go, and the only non-stdlib dependency is golang.org/x/text,
// which compare.go uses for collation-aware string ordering.
package openoption

import (
	"strconv"

	lf "github.com/sydneydb/sydney/internal/logicalfile"
)

// Compiler analyzes predicate trees against one file's key-field shape. A
// Compiler instance is stateless and safe for concurrent use; all state
// lives in the OpenOption being built.
type Compiler struct {
	// KeyFields describes the ordered key tuple (k0, k1, …) the index is
	// built over. KeyFields[0] is the leading key field — only it may
	// carry a single bare comparison (spec §4.3.1).
	KeyFields []lf.FieldDescriptor
}

// fieldSlots tracks the start/stop bound under construction for one key
// field during multi-field analysis (spec §4.3.2's "field that already has
// operator O1 with constant c1").
type fieldSlots struct {
	hasStart bool
	startOp  lf.CompareOp
	startVal string

	hasStop bool
	stopOp  lf.CompareOp
	stopVal string
}

// CompileSearch walks pred and produces an OpenOption, reporting whether
// the driver can serve it (true) or must fall back to a full scan (false).
// A true result with zero Bounds means the predicate is known
// unsatisfiable: the driver must yield zero rows without scanning
// (spec §4.2, §4.3.5).
func (c *Compiler) CompileSearch(pred *lf.Predicate) (lf.OpenOption, bool) {
	var opt lf.OpenOption
	// The original always resets CacheAllObject to false at entry
	// (OpenOptionAnalyzer::getSearchParameter), so a reused OpenOption
	// never leaks a stale true from a previous compile (SPEC_FULL #1).
	opt.CacheAllObject = false

	if pred == nil {
		opt.Mode = lf.ModeRead
		opt.SubMode = lf.SubModeScan
		return opt, true
	}

	switch pred.Type {
	case lf.PredScan:
		opt.Mode = lf.ModeRead
		opt.SubMode = lf.SubModeScan
		return opt, true

	case lf.PredFetch:
		return c.compileFetchPredicate(pred)

	case lf.PredLike:
		return c.compileLike(pred)

	case lf.PredEquals, lf.PredGreaterThan, lf.PredGreaterThanEquals,
		lf.PredLessThan, lf.PredLessThanEquals:
		return c.compileSingle(pred)

	case lf.PredEqualsToNull:
		return c.compileEqualsToNull(pred)

	case lf.PredAnd, lf.PredList:
		return c.compileMulti(pred.Children)

	default:
		return lf.OpenOption{}, false
	}
}

// compileSingle handles a single bare comparison — only legal on the
// leading key field (spec §4.3.1).
func (c *Compiler) compileSingle(pred *lf.Predicate) (lf.OpenOption, bool) {
	if pred.FieldIndex != 0 {
		return lf.OpenOption{}, false
	}
	return c.compileMulti([]*lf.Predicate{pred})
}

func (c *Compiler) compileEqualsToNull(pred *lf.Predicate) (lf.OpenOption, bool) {
	// Open question resolved in DESIGN.md: EqualsToNull is only valid on
	// the leading key field.
	if pred.FieldIndex != 0 {
		return lf.OpenOption{}, false
	}
	return c.compileMulti([]*lf.Predicate{pred})
}

// compileLike handles LIKE on a string leading-key field (spec §4.3.1).
// The leading pattern character must not be a wildcard; ESCAPE, when
// given, must be exactly one character (DESIGN.md Open Question
// decision).
func (c *Compiler) compileLike(pred *lf.Predicate) (lf.OpenOption, bool) {
	if pred.FieldIndex != 0 {
		return lf.OpenOption{}, false
	}
	if len(c.KeyFields) == 0 || c.KeyFields[0].Type != lf.FieldString {
		return lf.OpenOption{}, false
	}
	if pred.Pattern == "" {
		return lf.OpenOption{}, false
	}
	if pred.Pattern[0] == '%' || pred.Pattern[0] == '_' {
		return lf.OpenOption{}, false
	}
	if len(pred.Escape) > 1 {
		return lf.OpenOption{}, false
	}
	var opt lf.OpenOption
	opt.Mode = lf.ModeSearch
	opt.Escape = pred.Escape
	opt.Bounds = []lf.SearchBound{{
		FieldIndex: 0,
		Start:      pred.Pattern,
		StartOpe:   lf.OpLike,
		HasStart:   true,
	}}
	return opt, true
}

// compileFetchPredicate handles an explicit Fetch node; reuses the fetch
// compiler with the field list attached to the node.
func (c *Compiler) compileFetchPredicate(pred *lf.Predicate) (lf.OpenOption, bool) {
	opt, ok := c.CompileFetch(pred.FetchFields)
	if !ok {
		return opt, false
	}
	opt.Mode = lf.ModeRead
	opt.SubMode = lf.SubModeFetch
	return opt, true
}

// compileMulti is the heart of the compiler: §4.3.2's per-field slot merge
// followed by §4.3.3's multi-field validation.
func (c *Compiler) compileMulti(conds []*lf.Predicate) (lf.OpenOption, bool) {
	slots := make([]fieldSlots, len(c.KeyFields))

	for _, cond := range conds {
		if cond.FieldIndex < 0 || cond.FieldIndex >= len(c.KeyFields) {
			return lf.OpenOption{}, false
		}
		fd := c.KeyFields[cond.FieldIndex]
		if fd.Type == lf.FieldBinary {
			// Binary-typed fields may not appear in search keys (§4.3.4).
			return lf.OpenOption{}, false
		}
		s := &slots[cond.FieldIndex]

		switch cond.Type {
		case lf.PredEqualsToNull:
			res := mergeInto(&s.hasStart, &s.startOp, &s.startVal, lf.OpIsNull, "0")
			switch res {
			case resIllegal:
				return lf.OpenOption{}, false
			case resEmpty:
				return emptySet(), true
			}
		case lf.PredLessThan, lf.PredLessThanEquals:
			op := toOp(cond.Type)
			res := mergeInto(&s.hasStop, &s.stopOp, &s.stopVal, op, cond.Value)
			switch res {
			case resIllegal:
				return lf.OpenOption{}, false
			case resEmpty:
				return emptySet(), true
			}
		case lf.PredEquals, lf.PredGreaterThan, lf.PredGreaterThanEquals:
			op := toOp(cond.Type)
			res := mergeInto(&s.hasStart, &s.startOp, &s.startVal, op, cond.Value)
			switch res {
			case resIllegal:
				return lf.OpenOption{}, false
			case resEmpty:
				return emptySet(), true
			}
		default:
			return lf.OpenOption{}, false
		}
	}

	return c.finalizeMulti(slots)
}

// mergeInto applies mergeSameSlot against whatever is already in the slot
// (if anything), writing the winner back. Returns resKeep/resOverwrite/
// resEqual on success so callers can ignore them, or resEmpty/resIllegal
// to unwind.
func mergeInto(has *bool, op *lf.CompareOp, val *string, newOp lf.CompareOp, newVal string) mergeResult {
	if !*has {
		*has, *op, *val = true, newOp, newVal
		return resOverwrite
	}
	wOp, wVal, res := mergeSameSlot(*op, *val, newOp, newVal)
	*op, *val = wOp, wVal
	return res
}

func toOp(t lf.PredicateType) lf.CompareOp {
	switch t {
	case lf.PredEquals:
		return lf.OpEquals
	case lf.PredGreaterThan:
		return lf.OpGreaterThan
	case lf.PredGreaterThanEquals:
		return lf.OpGreaterThanEquals
	case lf.PredLessThan:
		return lf.OpLessThan
	case lf.PredLessThanEquals:
		return lf.OpLessThanEquals
	}
	return lf.OpEquals
}

func emptySet() lf.OpenOption {
	return lf.OpenOption{Mode: lf.ModeSearch}
}

// finalizeMulti implements spec §4.3.3's multi-field validation over the
// per-field slots produced by compileMulti.
func (c *Compiler) finalizeMulti(slots []fieldSlots) (lf.OpenOption, bool) {
	// 1. The leading key field must have at least one bound.
	if len(slots) == 0 || (!slots[0].hasStart && !slots[0].hasStop) {
		return lf.OpenOption{}, false
	}

	// Find the trailing bounded field. Bounded fields must form an
	// unbroken prefix (spec §4.3.1's "leading key fields"); anything past
	// a gap is unreachable by a prefix range scan.
	lastBounded := -1
	for i := range slots {
		if slots[i].hasStart || slots[i].hasStop {
			lastBounded = i
		}
	}
	for i := 0; i <= lastBounded; i++ {
		if !slots[i].hasStart && !slots[i].hasStop {
			return lf.OpenOption{}, false
		}
	}

	bounds := make([]lf.SearchBound, 0, len(slots))

	for i := 0; i <= lastBounded; i++ {
		s := &slots[i]

		// 2. A field with only a stop bound is normalized into the start
		// slot, so the driver always reads [start, stop].
		if !s.hasStart && s.hasStop {
			s.hasStart, s.startOp, s.startVal = true, s.stopOp, s.stopVal
			s.hasStop = false
		}

		fd := c.KeyFields[i]

		if s.hasStart && s.hasStop {
			// 5. start == stop consolidation.
			cmp := compareValues(fd, s.startVal, s.stopVal)
			if cmp == 0 {
				startIsEqOrGe := s.startOp == lf.OpGreaterThanEquals || s.startOp == lf.OpEquals
				stopIsLe := s.stopOp == lf.OpLessThanEquals
				if startIsEqOrGe && stopIsLe {
					s.startOp, s.hasStop = lf.OpEquals, false
				} else if s.startOp == lf.OpEquals && s.stopOp == lf.OpLessThan {
					return lf.OpenOption{}, false // (=, <) alone: illegal
				} else {
					return emptySet(), true
				}
			} else if cmp > 0 {
				// 4. start > stop: empty set.
				return emptySet(), true
			}
		}

		isEquality := s.startOp == lf.OpEquals || s.startOp == lf.OpIsNull
		if s.hasStop {
			isEquality = false // a genuine residual range, not reducible to equality
		}

		// 3. at most one field may carry a non-= operator, and it must be
		// the trailing bounded field: anything short of lastBounded must
		// have resolved to a plain equality by now.
		if !isEquality && i != lastBounded {
			return lf.OpenOption{}, false
		}

		b := lf.SearchBound{FieldIndex: i, HasStart: true, Start: s.startVal, StartOpe: s.startOp}
		if s.hasStop {
			b.HasStop, b.Stop, b.StopOpe = true, s.stopVal, s.stopOp
		}
		bounds = append(bounds, b)
	}

	var opt lf.OpenOption
	opt.Mode = lf.ModeSearch
	opt.Bounds = bounds
	return opt, true
}

// CompileFetch compiles an explicit fetch field list (spec §4.3.4):
// fetch by object-id (index 0 in the caller's 0-based-with-objectid
// convention is represented here as fields containing ObjectIDField) must
// be the only fetch field; fetch by key must not include the object id.
const ObjectIDField = -1

func (c *Compiler) CompileFetch(fields []int) (lf.OpenOption, bool) {
	if len(fields) == 0 {
		return lf.OpenOption{}, false
	}
	hasObjectID := false
	for _, f := range fields {
		if f == ObjectIDField {
			hasObjectID = true
		}
	}
	if hasObjectID && len(fields) != 1 {
		return lf.OpenOption{}, false
	}
	for _, f := range fields {
		if f != ObjectIDField {
			if f < 0 || f >= len(c.KeyFields) {
				return lf.OpenOption{}, false
			}
			if c.KeyFields[f].Type == lf.FieldBinary {
				return lf.OpenOption{}, false
			}
		}
	}
	return lf.OpenOption{FetchFields: append([]int(nil), fields...)}, true
}

// CompileSort validates and applies a sort request against an OpenOption
// already (partially) built by CompileSearch, per spec §4.3.4: sort by
// object-id is incompatible with key-range search, sort by key is
// incompatible with object-id search.
func (c *Compiler) CompileSort(opt *lf.OpenOption, key lf.SortKey, reverse bool) bool {
	if key == lf.SortByObjectID && len(opt.Bounds) > 0 {
		return false
	}
	if key == lf.SortByKeyField && opt.FetchFields != nil {
		for _, f := range opt.FetchFields {
			if f == ObjectIDField {
				return false
			}
		}
	}
	opt.SortKey = key
	opt.SortReverse = reverse
	return true
}

// applyBitSetPolicy resolves the GetByBitSet/CacheAllObject interaction
// (DESIGN.md Open Question decision): GetByBitSet wins when both are
// requested, since bitset delivery is incompatible with materializing full
// rows at open time.
func applyBitSetPolicy(opt *lf.OpenOption) {
	if opt.GetByBitSet {
		opt.CacheAllObject = false
	}
}

// SetGetByBitSet and SetCacheAllObject are the narrow setters callers use
// after CompileSearch to request bitset delivery or eager materialization;
// routing through here keeps the interaction policy in one place.
func (c *Compiler) SetGetByBitSet(opt *lf.OpenOption, v bool) {
	opt.GetByBitSet = v
	applyBitSetPolicy(opt)
}

func (c *Compiler) SetCacheAllObject(opt *lf.OpenOption, v bool) {
	opt.CacheAllObject = v
	applyBitSetPolicy(opt)
}

// parseIntField parses a string-serialized integer SearchStart/SearchStop
// bound back into an int64.
func parseIntField(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}
