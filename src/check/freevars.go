package check

import (
	"github.com/bits-and-blooms/bitset"

	"github.com/hhramberg/closurec/src/sfir"
)

// freeVarTable assigns every name visible to a LetRecursive group a stable bit index, so
// checking a sibling definition's captured environment against "outer scope union group
// siblings" (spec §9: reject groups whose environments depend on un-allocated values outside
// the group) runs as an O(1) bitset subset test per definition instead of a map scan per
// captured name.
type freeVarTable struct {
	index map[string]uint
}

// newFreeVarTable builds a table over every name currently bound in vars.
func newFreeVarTable(vars scope) *freeVarTable {
	t := &freeVarTable{index: make(map[string]uint, len(vars))}
	for name := range vars {
		t.index[name] = uint(len(t.index))
	}
	return t
}

// bitsetOf returns the bit set of names, ignoring any name not present in the table (callers
// check membership separately so an unrecognized name is reported with its own name, not
// folded silently into the set).
func (t *freeVarTable) bitsetOf(names []string) *bitset.BitSet {
	bs := bitset.New(uint(len(t.index)))
	for _, n := range names {
		if idx, ok := t.index[n]; ok {
			bs.Set(idx)
		}
	}
	return bs
}

// checkLetRecursiveEnvironments rejects a LetRecursive group if any definition's declared
// Environment names a variable that is neither bound in the outer scope (vars, as seen before
// the group) nor the name of a sibling definition in the same group — the allocate-then-fill
// protocol closures.go implements only guarantees a stable pointer for those two cases.
func checkLetRecursiveEnvironments(n sfir.LetRecursive, vars scope) error {
	siblingNames := make([]string, len(n.Definitions))
	for i, d := range n.Definitions {
		siblingNames[i] = d.Name
	}

	// full is every name allocate-then-fill guarantees a stable pointer for by the time any
	// sibling's environment is filled: the outer scope (already allocated before the group) plus
	// the group's own siblings (allocated in phase 1, regardless of declaration order).
	full := vars.clone()
	for _, name := range siblingNames {
		full[name] = nil
	}
	table := newFreeVarTable(full)
	universe := table.bitsetOf(append(append([]string{}, siblingNames...), namesOf(vars)...))

	for _, d := range n.Definitions {
		names := make([]string, len(d.Environment))
		for i, a := range d.Environment {
			if _, ok := table.index[a.Name]; !ok {
				return errVariableNotFound(a.Name)
			}
			names[i] = a.Name
		}
		captured := table.bitsetOf(names)
		// A name that resolved to no bit (not in table.index) drops silently out of captured,
		// so comparing cardinalities also catches a captured name outside the full universe.
		if !captured.IsSubset(universe) || captured.Count() != uint(len(names)) {
			return errVariableNotFound(d.Name)
		}
	}
	return nil
}

func namesOf(vars scope) []string {
	out := make([]string, 0, len(vars))
	for k := range vars {
		out = append(out, k)
	}
	return out
}
