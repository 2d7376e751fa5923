package execruntime

import lf "github.com/sydneydb/sydney/internal/logicalfile"

// Predicate tests whether a row should pass a FilterIterator.
type Predicate func(t lf.Tuple) (bool, error)

// Aggregator groups rows by key and produces one output row per group,
// backing FilterIterator's grouping mode (spec §4.5.2: "with aggregation,
// grouping rows; empty grouping ⇒ emits a single aggregate row even on
// empty input").
type Aggregator interface {
	// Key returns the grouping key for t ("" for whole-relation
	// aggregation with no GROUP BY).
	Key(t lf.Tuple) (string, error)
	// Accumulate folds t into the running aggregate for key.
	Accumulate(key string, t lf.Tuple) error
	// Rows returns one finished row per group seen so far.
	Rows() []lf.Tuple
	// EmptyRow returns the row to emit when no input ever matched and
	// the grouping is of the empty-produces-one-row kind (e.g. COUNT(*)
	// with no GROUP BY still returns 0).
	EmptyRow() lf.Tuple
}

// FilterIterator filters one operand's rows by a Predicate, optionally
// aggregating matches through an Aggregator (spec §4.5.2 "Filter").
// Without an Aggregator it streams row by row; with one, it must
// materialize every matching row from the operand before yielding the
// first aggregate row, since a group's final value isn't known until
// every contributing row has been seen.
type FilterIterator struct {
	base
	operand       ID
	pred          Predicate
	agg           Aggregator
	emptyGrouping bool

	materialized bool
	out          []lf.Tuple
	pos          int
}

// NewFilterIterator streams operand's rows through pred.
func NewFilterIterator(operand ID, pred Predicate) *FilterIterator {
	return &FilterIterator{operand: operand, pred: pred}
}

// WithAggregation switches the iterator into grouping mode: matching rows
// are folded through agg instead of streamed directly. emptyGrouping
// mirrors Collection.IsEmptyGrouping for the zero-groups case.
func (it *FilterIterator) WithAggregation(agg Aggregator, emptyGrouping bool) *FilterIterator {
	it.agg = agg
	it.emptyGrouping = emptyGrouping
	return it
}

func (it *FilterIterator) Initialize(p *Program) error {
	if err := it.base.Initialize(p); err != nil {
		return err
	}
	return p.Iterator(it.operand).Initialize(p)
}

func (it *FilterIterator) StartUp(p *Program) (Status, error) {
	it.materialized = false
	it.out = nil
	it.pos = 0
	return p.Iterator(it.operand).StartUp(p)
}

func (it *FilterIterator) Next(p *Program) (lf.Tuple, bool, error) {
	if it.wasLast {
		return nil, false, nil
	}
	if it.agg != nil {
		return it.nextAggregated(p)
	}
	for {
		row, ok, err := p.Iterator(it.operand).Next(p)
		if err != nil {
			return nil, false, err
		}
		if !ok {
			return nil, false, nil
		}
		match, err := it.pred(row)
		if err != nil {
			return nil, false, err
		}
		if match {
			return row, true, nil
		}
	}
}

func (it *FilterIterator) nextAggregated(p *Program) (lf.Tuple, bool, error) {
	if !it.materialized {
		if err := it.materialize(p); err != nil {
			return nil, false, err
		}
	}
	if it.pos >= len(it.out) {
		return nil, false, nil
	}
	row := it.out[it.pos]
	it.pos++
	return row, true, nil
}

func (it *FilterIterator) materialize(p *Program) error {
	it.materialized = true
	sawAny := false
	for {
		row, ok, err := p.Iterator(it.operand).Next(p)
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		match, err := it.pred(row)
		if err != nil {
			return err
		}
		if !match {
			continue
		}
		sawAny = true
		key, err := it.agg.Key(row)
		if err != nil {
			return err
		}
		if err := it.agg.Accumulate(key, row); err != nil {
			return err
		}
	}
	it.out = it.agg.Rows()
	if !sawAny && it.emptyGrouping && len(it.out) == 0 {
		it.out = []lf.Tuple{it.agg.EmptyRow()}
	}
	return nil
}

func (it *FilterIterator) Reset(p *Program) error {
	it.wasLast = false
	it.materialized = false
	it.out = nil
	it.pos = 0
	return p.Iterator(it.operand).Reset(p)
}

func (it *FilterIterator) Finish(p *Program) error {
	return p.Iterator(it.operand).Finish(p)
}

func (it *FilterIterator) Terminate(p *Program) error {
	if err := it.base.Terminate(p); err != nil {
		return err
	}
	return p.Iterator(it.operand).Terminate(p)
}
