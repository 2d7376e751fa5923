package execruntime

import lf "github.com/sydneydb/sydney/internal/logicalfile"

// Collection is the sort/group/bitset store contract iterators read from
// and write to (spec §4.5.4): a Put half for producers, a Get half for
// consumers, matching Execution::Interface::ICollection's two nested
// interfaces rather than a single read/write API — a collection can be
// put-only (a bitset accumulator) or get-only (a pre-sorted spill file).
type Collection interface {
	// PutData stores t, returning false if the caller must call Shift
	// before retrying (capped or spillable collections signal backpressure
	// this way instead of blocking).
	PutData(p *Program, t lf.Tuple) (bool, error)
	// Shift drops the collection's oldest entries to make room for more
	// PutData calls; a no-op for unbounded collections.
	Shift(p *Program) error
	// FinishPut flushes any buffered writes (sort collections materialize
	// their run here).
	FinishPut(p *Program) error
	// LastPosition returns the id of the most recently stored tuple, for
	// random-probe consumers (RowIDCheck's map-based fast path).
	LastPosition(p *Program) (int, error)

	// GetData yields the next tuple in sequential order, or ok=false at
	// end of data.
	GetData(p *Program) (lf.Tuple, bool, error)
	// GetDataAt is the optional random-access form; implementations that
	// don't support it return ok=false, supported=false.
	GetDataAt(p *Program, position int) (t lf.Tuple, ok bool, supported bool, err error)
	// Reset restarts Get iteration from the beginning.
	Reset(p *Program) error

	// IsEmptyGrouping reports whether this collection should emit a
	// single aggregate row even when nothing was ever put into it (an
	// empty GROUP BY collapses to one row, a non-empty one to zero).
	IsEmptyGrouping() bool
	// IsGetNextOperand reports whether a feeding iterator should keep
	// producing tuples after one has been accepted, or stop (a
	// first-match-only probe collection returns false here).
	IsGetNextOperand() bool
}

// ArrayCollection is the in-memory Collection backing ordinary
// materialization (sort buffers, grouping tables, EXISTS/IN probe sets).
// It never blocks PutData and supports random access, corresponding to
// the original's simplest in-memory Collection::Array implementation.
type ArrayCollection struct {
	rows          []lf.Tuple
	pos           int
	emptyGrouping bool
	getNext       bool
}

// NewArrayCollection returns an ArrayCollection. emptyGrouping controls
// IsEmptyGrouping; getNext controls IsGetNextOperand. emptyGrouping
// defaults to false and getNext to true (ordinary materialization, not a
// probe collection) unless overridden via the With* options.
func NewArrayCollection(opts ...func(*ArrayCollection)) *ArrayCollection {
	c := &ArrayCollection{getNext: true}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithEmptyGrouping sets IsEmptyGrouping to true (used for aggregate
// queries with no GROUP BY clause).
func WithEmptyGrouping(c *ArrayCollection) { c.emptyGrouping = true }

// WithProbeOnly sets IsGetNextOperand to false (used for EXISTS/IN probe
// collections that only need the first matching tuple).
func WithProbeOnly(c *ArrayCollection) { c.getNext = false }

func (c *ArrayCollection) PutData(p *Program, t lf.Tuple) (bool, error) {
	c.rows = append(c.rows, t)
	return true, nil
}

func (c *ArrayCollection) Shift(p *Program) error { return nil }

func (c *ArrayCollection) FinishPut(p *Program) error { return nil }

func (c *ArrayCollection) LastPosition(p *Program) (int, error) {
	return len(c.rows) - 1, nil
}

func (c *ArrayCollection) GetData(p *Program) (lf.Tuple, bool, error) {
	if c.pos >= len(c.rows) {
		return nil, false, nil
	}
	t := c.rows[c.pos]
	c.pos++
	return t, true, nil
}

func (c *ArrayCollection) GetDataAt(p *Program, position int) (lf.Tuple, bool, bool, error) {
	if position < 0 || position >= len(c.rows) {
		return nil, false, true, nil
	}
	return c.rows[position], true, true, nil
}

func (c *ArrayCollection) Reset(p *Program) error {
	c.pos = 0
	return nil
}

func (c *ArrayCollection) IsEmptyGrouping() bool  { return c.emptyGrouping }
func (c *ArrayCollection) IsGetNextOperand() bool { return c.getNext }

// Len reports how many rows have been put so far.
func (c *ArrayCollection) Len() int { return len(c.rows) }

// Rows exposes the underlying slice for callers that need direct row
// access rather than the sequential Get protocol.
func (c *ArrayCollection) Rows() []lf.Tuple { return c.rows }
