package execruntime

import lf "github.com/sydneydb/sydney/internal/logicalfile"

// Status is the result of an Iterator's startUp phase (spec §4.5.1).
type Status int

const (
	StatusSuccess Status = iota
	StatusFalse
	StatusContinue
	StatusBreak
)

// Iterator is the node contract every concrete iterator in this package
// satisfies. Method names follow the original's initialize/startUp/
// next/reset/finish/terminate/setWasLast cycle rather than a Go-ier
// Next()-only shape, because the multi-phase lifecycle (idempotent
// initialize, a startUp that can short-circuit the whole loop, separate
// finish/terminate) is load-bearing: compound iterators rely on calling
// each phase on every operand in declared order.
type Iterator interface {
	Initialize(p *Program) error
	StartUp(p *Program) (Status, error)
	Next(p *Program) (lf.Tuple, bool, error)
	Reset(p *Program) error
	Finish(p *Program) error
	Terminate(p *Program) error
	SetWasLast(p *Program)
}

// base embeds the plumbing common to every concrete iterator: the
// was-last ceiling flag and a one-shot initialize guard, matching the
// original's shared Iterator base behavior.
type base struct {
	initialized bool
	wasLast     bool
}

func (b *base) Initialize(p *Program) error {
	b.initialized = true
	return nil
}

func (b *base) Terminate(p *Program) error {
	b.initialized = false
	b.wasLast = false
	return nil
}

func (b *base) SetWasLast(p *Program) { b.wasLast = true }

func (b *base) Finish(p *Program) error { return nil }
