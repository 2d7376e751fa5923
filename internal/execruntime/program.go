// Package execruntime is the ExecutionRuntime: a directed graph of
// Iterators, Operators, Collections, and FileAccesses wired together by a
// Program and driven to completion by a single Worker thread.
//
// Grounded on the node-graph shape of
// _examples/original_source/sydney/Kernel/Execution/Interface/IProgram.h
// and Execution/Action/IteratorHolder.{h,cpp} (dense integer ids assigned
// at registration, looked up by the driving operator at run time), with
// the Go idiom — interfaces over the concrete node kinds, slice-backed
// registries instead of a template-heavy object store — following
// tinySQL's internal/engine/exec.go Row/ResultSet style for the leaf
// data shape (a Row is a plain map-free ordered tuple here, since file
// access already works in terms of logicalfile.Tuple).
package execruntime

import (
	"context"

	lf "github.com/sydneydb/sydney/internal/logicalfile"
)

// ID identifies one node (Iterator, Collection, FileAccess, or Variable)
// within a Program; assigned densely starting at 0 in registration order.
type ID int

// Variable is a single named runtime slot a Program threads between
// nodes — a correlation value, a computed limit, a cancellation flag.
type Variable struct {
	Name  string
	Value any
}

// Program owns every node reachable during one statement's execution and
// the Variables they share. It does not itself drive execution — a
// top-level Operator (normally Iterate) does that — but every node asks
// its Program to resolve ids into neighbors.
type Program struct {
	iterators   []Iterator
	collections []Collection
	files       []*FileAccess
	variables   []Variable

	canceled bool
}

// NewProgram returns an empty Program ready for node registration.
func NewProgram() *Program {
	return &Program{}
}

// AddIterator registers it and returns its freshly assigned ID.
func (p *Program) AddIterator(it Iterator) ID {
	p.iterators = append(p.iterators, it)
	return ID(len(p.iterators) - 1)
}

// Iterator resolves an ID previously returned by AddIterator.
func (p *Program) Iterator(id ID) Iterator {
	return p.iterators[id]
}

// AddCollection registers c and returns its ID.
func (p *Program) AddCollection(c Collection) ID {
	p.collections = append(p.collections, c)
	return ID(len(p.collections) - 1)
}

// Collection resolves an ID previously returned by AddCollection.
func (p *Program) Collection(id ID) Collection {
	return p.collections[id]
}

// AddFileAccess registers f and returns its ID.
func (p *Program) AddFileAccess(f *FileAccess) ID {
	p.files = append(p.files, f)
	return ID(len(p.files) - 1)
}

// FileAccess resolves an ID previously returned by AddFileAccess.
func (p *Program) FileAccess(id ID) *FileAccess {
	return p.files[id]
}

// AddVariable registers a named variable and returns its ID.
func (p *Program) AddVariable(name string, initial any) ID {
	p.variables = append(p.variables, Variable{Name: name, Value: initial})
	return ID(len(p.variables) - 1)
}

// GetVariable returns the current value of variable id.
func (p *Program) GetVariable(id ID) any {
	return p.variables[id].Value
}

// SetVariable overwrites the value of variable id.
func (p *Program) SetVariable(id ID, v any) {
	p.variables[id].Value = v
}

// Cancel marks the Program's statement as canceled. Iterators do not
// check the flag themselves; the driving loop sees it at its next
// CheckCanceled call (cooperative cancellation, blocking I/O completes
// first).
func (p *Program) Cancel() { p.canceled = true }

// IsCanceled reports whether Cancel was called for this Program's
// statement.
func (p *Program) IsCanceled() bool { return p.canceled }

// CheckCanceled returns a Cancel-kind error if the Program's statement has
// been canceled, else nil — call at the top of any loop that might run
// long.
func (p *Program) CheckCanceled(ctx context.Context) error {
	if p.canceled {
		return lf.Cancel("statement canceled")
	}
	if err := ctx.Err(); err != nil {
		return lf.Cancel(err.Error())
	}
	return nil
}
