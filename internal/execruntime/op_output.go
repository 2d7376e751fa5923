package execruntime

import lf "github.com/sydneydb/sydney/internal/logicalfile"

// Output writes the current tuple into a target Collection (spec §4.5.3
// "Output"). The Array variant accumulates rows into an in-memory array
// value instead of a Collection, for callers that want the result as a
// single in-process value (a scalar sub-query's materialized array).
type Output struct {
	Target ID
}

// Write stores row into the target Collection, retrying through Shift if
// PutData reports backpressure.
func (op *Output) Write(p *Program, row lf.Tuple) error {
	c := p.Collection(op.Target)
	for {
		ok, err := c.PutData(p, row)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		if err := c.Shift(p); err != nil {
			return err
		}
	}
}

// OutputArray is the Array variant: it accumulates into an in-memory
// slice directly rather than routing through a Collection, for a caller
// that wants the whole result as one array-typed value.
type OutputArray struct {
	rows []lf.Tuple
}

// Write appends row to the accumulated array.
func (op *OutputArray) Write(row lf.Tuple) {
	op.rows = append(op.rows, row)
}

// Rows returns every row written so far.
func (op *OutputArray) Rows() []lf.Tuple { return op.rows }
