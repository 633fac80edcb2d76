// id.go provides a thread safe monotonically increasing sequence, the same mechanism
// vslc/src/ir/lir/module.go uses to hand out unique identifiers to every child of a Module.

package util

import "sync"

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Sequence is a mutex-guarded counter used to generate unique, deterministic names and ids
// for anonymous helpers (thunk entry trio, curried-entry trampolines, per-record clone/drop
// functions). Determinism of the counter given the same input module order is what makes
// lowering reproducible modulo anonymous-name-generator seeding.
type Sequence struct {
	n  int
	mu sync.Mutex
}

// ---------------------
// ----- functions -----
// ---------------------

// Next returns the next value in the sequence, starting at 0.
func (s *Sequence) Next() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.n
	s.n++
	return n
}
