package lower

import (
	log "github.com/sirupsen/logrus"

	"github.com/hhramberg/closurec/src/llir"
	"github.com/hhramberg/closurec/src/sfir"
)

// Module lowers a well-typed sfir.Module to an llir.Module. Callers are expected to have
// already run check.Check over m; Module does not re-verify types, only panics (via
// unreachable) on shapes a well-typed module could never produce.
//
// Lowering proceeds in the order a Module's fields are declared, except Definitions, which run
// in the shell/body/fill three phases closures.go documents, and ForeignDefinitions, which run
// last since they alias an already-lowered name:
//
//  1. ForeignDeclarations: each wrapped as a closure global (foreign.go), registered in both
//     ctx.closures and ctx.globals.
//  2. Declarations: no-op placeholders — the matching Definition elsewhere in m supplies the
//     real closure global under the same name.
//  3. Definitions: shell every one (registering ctx.closures/ctx.globals), then body every one,
//     then fill every one's captured environment — always empty at top level, but the same
//     three-call shape LetRecursive uses locally.
//  4. ForeignDefinitions: alias fd.Name onto the already-lowered fd.ForeignName in both
//     ctx.closures and ctx.globals.
//
// A pre-pass over every Definition body collects the module's variant tag registry
// (collectVariantTags) before any lowering touches an expression that might reference one.
func Module(m sfir.Module) (*llir.Module, error) {
	c := newContext(m)
	c.debugf("lowering module: %d foreign declarations, %d declarations, %d definitions, %d foreign definitions",
		len(m.ForeignDeclarations), len(m.Declarations), len(m.Definitions), len(m.ForeignDefinitions))

	c.collectVariantTags(m)

	for _, fd := range m.ForeignDeclarations {
		c.lowerForeignDeclaration(fd)
	}

	// Declarations carry no body of their own to lower: the matching Definition elsewhere in m
	// registers the real closure global under the same name when it is shelled below.

	for _, d := range m.Definitions {
		c.shellClosure(d, allocGlobal, nil)
		info := c.closures[d.Name]
		if d.IsThunk {
			c.globals.bindThunk(d.Name, info.ptr, d.Type())
		} else {
			c.globals.bind(d.Name, info.ptr, d.Type())
		}
	}
	for _, d := range m.Definitions {
		c.bodyClosure(d, allocGlobal, c.globals, nil)
	}
	for _, d := range m.Definitions {
		// A top-level definition's environment is always empty: only LetRecursive-local
		// definitions capture enclosing values.
		c.fillEnvironment(d.Name, nil, nil)
	}

	for _, fd := range m.ForeignDefinitions {
		target, ok := c.closures[fd.ForeignName]
		if !ok {
			unreachable("lower: foreign definition %s remaps unresolved name %s", fd.Name, fd.ForeignName)
		}
		c.closures[fd.Name] = target
		c.globals[fd.Name] = c.globals[fd.ForeignName]
	}

	log.WithField("component", "lower").Debugf("lowered module with %d closures", len(c.closures))
	return c.out, nil
}
