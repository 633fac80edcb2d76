// unreachable.go centralises the panic idiom the teacher uses ad hoc at call sites such as
// vslc/src/ir/lir/function.go's CreateParam: an internal invariant that a well-typed module
// should have already ruled out.

package util

import "fmt"

// ---------------------
// ----- functions -----
// ---------------------

// Unreachable panics with a formatted message. Call it at any point lowering reaches a state
// that a well-typed sfir.Module must never produce; reaching it is a bug in the checker or the
// lowering itself, not a user-facing error.
func Unreachable(format string, args ...interface{}) {
	panic(fmt.Sprintf("unreachable: "+format, args...))
}
