package logicalfile

// PredicateType enumerates the shapes of predicate tree node the compiler
// in internal/openoption understands (spec §4.3.1). Named after the
// original's LogicalFile::TreeNodeInterface::Type enum.
type PredicateType int

const (
	PredScan PredicateType = iota // nil Predicate is equivalent to this
	PredFetch
	PredEquals
	PredGreaterThan
	PredGreaterThanEquals
	PredLessThan
	PredLessThanEquals
	PredEqualsToNull
	PredLike
	PredAnd
	PredList
)

// Predicate is a node in the predicate tree handed to
// FileDriver.GetSearchParameter / the OpenOptionCompiler. A nil *Predicate
// means "no predicate" (Scan).
type Predicate struct {
	Type PredicateType

	// For comparisons (Equals/GreaterThan/.../Like/EqualsToNull): the
	// field being compared and the constant it's compared against.
	FieldIndex int
	Value      string // string-serialized constant, per OpenOption's SearchStart/Stop convention

	// For Like: the pattern and optional escape character.
	Pattern string
	Escape  string

	// For Fetch: the ordered fetch field indices (0 = object-id).
	FetchFields []int

	// For And/List: the conjuncts.
	Children []*Predicate
}
