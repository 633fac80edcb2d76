package simulate

import (
	"go.uber.org/atomic"
)

// Cell is a Go-level stand-in for a refcounted heap value (spec §4.7): a boxed record, byte
// string, closure, or variant payload. count mirrors the word lower/refcount.go's
// incRefcount/dropHeapPointer atomically add to ahead of the value itself; onZero mirrors the
// drop helper a Record/Variant/Function's drop_fn_ptr chain would call once the count reaches
// zero, and free mirrors the FreeHeapInst dropHeapPointer always emits right after.
type Cell struct {
	count     atomic.Int64
	freeCount atomic.Int64
	OnZero    func()
}

// NewCell returns a live Cell with refcount 1, the state a value has immediately after
// AllocateHeapInst, before any Clone or Drop touches it.
func NewCell(onZero func()) *Cell {
	c := &Cell{OnZero: onZero}
	c.count.Store(1)
	return c
}

// Clone bumps the refcount, mirroring incRefcount — a pure counter increment, no branching.
func (c *Cell) Clone() {
	c.count.Inc()
}

// Drop mirrors dropHeapPointer: atomically decrement, and if the count just prior to this
// decrement was 1, run OnZero (dropping owned constituents) and then free exactly once.
func (c *Cell) Drop() {
	prior := c.count.Load()
	for !c.count.CAS(prior, prior-1) {
		prior = c.count.Load()
	}
	if prior == 1 {
		if c.OnZero != nil {
			c.OnZero()
		}
		c.freeCount.Inc()
	}
}

// Count returns the current refcount, for tests asserting conservation (every Clone paired
// with a Drop nets back to the starting count).
func (c *Cell) Count() int64 {
	return c.count.Load()
}

// FreeCount returns how many times this Cell's free path actually ran — must be exactly 1 for
// any Cell that was ever dropped to zero, never more.
func (c *Cell) FreeCount() int64 {
	return c.freeCount.Load()
}
