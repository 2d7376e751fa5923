package execruntime

import lf "github.com/sydneydb/sydney/internal/logicalfile"

// InputIterator reads sequentially from one Collection (spec §4.5.2
// "Input"). The optional "InputThread" variant — startUp spawns a
// producer goroutine that fills the collection concurrently with this
// iterator's consumption — is supported via WithProducer; without it,
// the collection is assumed already populated (e.g. a FileAccess scan
// collected eagerly before Input starts consuming).
type InputIterator struct {
	base
	collection ID
	producer   func(p *Program) error
	done       chan error
}

// NewInputIterator reads sequentially from collection.
func NewInputIterator(collection ID) *InputIterator {
	return &InputIterator{collection: collection}
}

// WithProducer attaches a producer function run on its own goroutine
// during StartUp, matching the original's InputThread startUp hook.
func (it *InputIterator) WithProducer(fn func(p *Program) error) *InputIterator {
	it.producer = fn
	return it
}

func (it *InputIterator) StartUp(p *Program) (Status, error) {
	if err := p.Collection(it.collection).Reset(p); err != nil {
		return StatusFalse, err
	}
	if it.producer != nil {
		it.done = make(chan error, 1)
		go func() { it.done <- it.producer(p) }()
	}
	return StatusSuccess, nil
}

func (it *InputIterator) Next(p *Program) (lf.Tuple, bool, error) {
	if it.wasLast {
		return nil, false, nil
	}
	return p.Collection(it.collection).GetData(p)
}

func (it *InputIterator) Reset(p *Program) error {
	it.wasLast = false
	return p.Collection(it.collection).Reset(p)
}

// Finish joins the producer goroutine, if one was started, surfacing any
// error it returned.
func (it *InputIterator) Finish(p *Program) error {
	if it.done == nil {
		return nil
	}
	err := <-it.done
	it.done = nil
	return err
}
