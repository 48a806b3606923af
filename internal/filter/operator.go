package filter

import "github.com/roach88/wherekit/internal/predicate"

// OperatorContext decides which operator applies to the next append.
//
// An operator is either sticky (it stays in effect until changed) or
// one-shot (it applies to exactly one Read, then the previous sticky
// operator comes back). Superseded sticky operators are kept on a history
// stack so Reset can restore them.
//
// The zero value is ready to use and defaults to AND.
type OperatorContext struct {
	def     predicate.Operator
	current predicate.Operator
	oneShot bool

	// history holds the permanent operators replaced by later SetOperator
	// calls. It never contains a pending one-shot value.
	history []predicate.Operator
}

// NewOperatorContext returns a context whose initial and fallback operator
// is def. An empty def means AND.
func NewOperatorContext(def predicate.Operator) *OperatorContext {
	if def == "" {
		def = predicate.OpAnd
	}
	return &OperatorContext{def: def, current: def}
}

// Default returns the fallback operator used when the history is exhausted.
func (o *OperatorContext) Default() predicate.Operator {
	if o.def == "" {
		return predicate.OpAnd
	}
	return o.def
}

// SetOperator makes tok the current operator. The previous operator is
// pushed onto the history only when it was permanent; a pending one-shot
// value is discarded instead.
func (o *OperatorContext) SetOperator(tok predicate.Operator, oneShot bool) {
	if !o.oneShot {
		o.history = append(o.history, o.cur())
	}
	o.current = tok
	o.oneShot = oneShot
}

// SetSticky is SetOperator(tok, false).
func (o *OperatorContext) SetSticky(tok predicate.Operator) { o.SetOperator(tok, false) }

// SetOnce is SetOperator(tok, true).
func (o *OperatorContext) SetOnce(tok predicate.Operator) { o.SetOperator(tok, true) }

// Read returns the current operator. A one-shot operator is consumed: the
// context resets as a side effect.
func (o *OperatorContext) Read() predicate.Operator {
	op := o.cur()
	if o.oneShot {
		o.Reset()
	}
	return op
}

// PeekPermanent returns the operator that will be in effect once any
// pending one-shot value is gone. It never consumes anything.
func (o *OperatorContext) PeekPermanent() predicate.Operator {
	if !o.oneShot {
		return o.cur()
	}
	if n := len(o.history); n > 0 {
		return o.history[n-1]
	}
	return o.Default()
}

// Pending reports whether a one-shot operator is waiting to be read.
func (o *OperatorContext) Pending() bool { return o.oneShot }

// Reset restores the most recent permanent operator, or the default when
// the history is empty. It never fails.
func (o *OperatorContext) Reset() {
	if n := len(o.history); n > 0 {
		o.current = o.history[n-1]
		o.history = o.history[:n-1]
	} else {
		o.current = o.Default()
	}
	o.oneShot = false
}

// Clone returns an independent copy; the history stack is not shared.
func (o *OperatorContext) Clone() *OperatorContext {
	c := *o
	c.history = append([]predicate.Operator(nil), o.history...)
	return &c
}

// cur maps the zero value's empty current operator to the default.
func (o *OperatorContext) cur() predicate.Operator {
	if o.current == "" {
		return o.Default()
	}
	return o.current
}
