package driver

import (
	"fmt"

	"github.com/sunholo/amc/internal/lower"
)

// stripStructural removes the structural entry markers inlining leaves
// behind (ENTERFN, ENTERCONDFN) and converts each TAIL into a REREF of its
// input, so a fully lowered handler carries only addressable value nodes.
// Recurses into closure bodies. EXIT survives: it is the user's `exit`
// statement, not inlining bracketing.
func stripStructural(list []*lower.Microstatement) []*lower.Microstatement {
	out := make([]*lower.Microstatement, 0, len(list))
	for _, ms := range list {
		if len(ms.ClosureStatements) > 0 {
			ms.ClosureStatements = stripStructural(ms.ClosureStatements)
		}
		switch ms.StatementType {
		case lower.ENTERFN, lower.ENTERCONDFN:
			continue
		case lower.TAIL:
			ms.StatementType = lower.REREF
		}
		out = append(out, ms)
	}
	return out
}

// hoistConstants walks every handler's microstatement list (recursing into
// ClosureStatements), removing each literal CONSTDEC (one with no Fns). The
// first occurrence of a (literal token, type) key becomes a global
// constant; every later occurrence is dropped and its OutputName recorded
// in the rename table so later passes redirect references to the survivor.
// Returns the hoisted globals in first-seen order plus the rename table.
func hoistConstants(units []handlerUnit) ([]*lower.Microstatement, map[string]string) {
	seen := make(map[string]*lower.Microstatement)
	rename := make(map[string]string)
	var globals []*lower.Microstatement

	for i := range units {
		units[i].body = hoistList(units[i].body, seen, rename, &globals)
	}
	return globals, rename
}

func constKey(ms *lower.Microstatement) string {
	var lit interface{}
	if len(ms.InputNames) > 0 {
		lit = ms.InputNames[0]
	}
	return fmt.Sprintf("%v|%s", lit, ms.OutputType.Typename)
}

func hoistList(list []*lower.Microstatement, seen map[string]*lower.Microstatement, rename map[string]string, globals *[]*lower.Microstatement) []*lower.Microstatement {
	out := make([]*lower.Microstatement, 0, len(list))
	for _, ms := range list {
		if len(ms.ClosureStatements) > 0 {
			ms.ClosureStatements = hoistList(ms.ClosureStatements, seen, rename, globals)
		}
		if ms.StatementType == lower.CONSTDEC && len(ms.Fns) == 0 {
			key := constKey(ms)
			if existing, ok := seen[key]; ok {
				rename[ms.OutputName] = existing.OutputName
				continue
			}
			seen[key] = ms
			*globals = append(*globals, ms)
			continue
		}
		out = append(out, ms)
	}
	return out
}

// finalDedupe re-walks every handler (and nested closures), rewriting
// InputNames references through the rename table accumulated by
// hoistConstants. LETDEC and CLOSURE/CLOSUREDEF output names are never
// renamed: a mutable let-binding or a closure stays addressed by its own
// name even when its initializer shared a literal token with a hoisted
// constant; only the references flowing in through InputNames collapse.
func finalDedupe(units []handlerUnit, rename map[string]string) {
	if len(rename) == 0 {
		return
	}
	for i := range units {
		dedupeList(units[i].body, rename)
	}
}

func dedupeList(list []*lower.Microstatement, rename map[string]string) {
	for _, ms := range list {
		if len(ms.ClosureStatements) > 0 {
			dedupeList(ms.ClosureStatements, rename)
		}
		for i, in := range ms.InputNames {
			if to, ok := rename[in]; ok {
				ms.InputNames[i] = to
			}
		}
	}
}
