package openoption

import lf "github.com/sydneydb/sydney/internal/logicalfile"

// mergeResult is the outcome of merging a new bound into a slot that
// already holds one, for the SAME constant value (spec §4.3.2). Named
// after the original OpenOptionAnalyzer::isContradict's DecisionType enum
// (ILL/NLL/EQU/OVR/KEP), grounded on
// _examples/original_source/sydney/Driver/Btree/OpenOptionAnalyzer.cpp.
type mergeResult int

const (
	resKeep mergeResult = iota // KEP: discard the incoming condition, keep what's stored
	resOverwrite               // OVR: the incoming condition replaces what's stored
	resEqual                   // EQU: rewrite the slot as an equality bound
	resEmpty                   // NLL: the combination can never match — empty result set
	resIllegal                 // ILL: the driver cannot serve this combination at all
)

// opIndex maps the six operators the decision table covers (everything but
// Like, which never enters per-field merging) to a 0..5 row/column.
func opIndex(op lf.CompareOp) int {
	switch op {
	case lf.OpEquals:
		return 0
	case lf.OpGreaterThan:
		return 1
	case lf.OpGreaterThanEquals:
		return 2
	case lf.OpLessThan:
		return 3
	case lf.OpLessThanEquals:
		return 4
	case lf.OpIsNull:
		return 5
	}
	return -1
}

// decisionTable is spec §4.3.2's table verbatim: rows = new operator,
// columns = existing operator already occupying the slot.
var decisionTable = [6][6]mergeResult{
	/* new=EQ     */ {resKeep, resEmpty, resOverwrite, resEmpty, resOverwrite, resIllegal},
	/* new=GT     */ {resEmpty, resKeep, resOverwrite, resEmpty, resEmpty, resIllegal},
	/* new=GE     */ {resEqual, resKeep, resKeep, resEmpty, resEqual, resIllegal},
	/* new=LT     */ {resEmpty, resEmpty, resEmpty, resKeep, resOverwrite, resIllegal},
	/* new=LE     */ {resEqual, resEmpty, resEqual, resKeep, resKeep, resIllegal},
	/* new=IsNull */ {resIllegal, resIllegal, resIllegal, resIllegal, resIllegal, resKeep},
}

// mergeSameSlot merges a new (op, value) condition into a slot that already
// holds (existingOp, existingVal), per spec §4.3.2: equal constants consult
// the decision table; unequal constants are empty-set if either side is an
// equality, illegal otherwise.
func mergeSameSlot(existingOp lf.CompareOp, existingVal string, newOp lf.CompareOp, newVal string) (lf.CompareOp, string, mergeResult) {
	if existingVal != newVal {
		if existingOp == lf.OpEquals || newOp == lf.OpEquals {
			return existingOp, existingVal, resEmpty
		}
		return existingOp, existingVal, resIllegal
	}
	ei, ni := opIndex(existingOp), opIndex(newOp)
	if ei < 0 || ni < 0 {
		return existingOp, existingVal, resIllegal
	}
	switch decisionTable[ni][ei] {
	case resKeep:
		return existingOp, existingVal, resKeep
	case resOverwrite:
		return newOp, newVal, resOverwrite
	case resEqual:
		return lf.OpEquals, newVal, resEqual
	case resEmpty:
		return existingOp, existingVal, resEmpty
	default:
		return existingOp, existingVal, resIllegal
	}
}
