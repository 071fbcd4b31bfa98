package driver

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sunholo/amc/internal/lower"
	"github.com/sunholo/amc/internal/types"
)

// serialize renders the fully hoisted, deduplicated program as AMM text:
// global constants, then non-built-in events with at least one handler,
// then every handler block, in that order.
func serialize(globals []*lower.Microstatement, units []handlerUnit, events map[string]eventMeta) string {
	var b strings.Builder

	index := make(map[string]*lower.Microstatement)
	for _, g := range globals {
		indexInto(index, g)
	}
	for _, u := range units {
		for _, ms := range u.body {
			indexInto(index, ms)
		}
	}

	for _, g := range globals {
		b.WriteString(renderGlobal(g))
		b.WriteString("\n")
	}
	if len(globals) > 0 {
		b.WriteString("\n")
	}

	names := eventNamesWithHandlers(units)
	for _, name := range names {
		meta, ok := events[name]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "event %s: %s\n", name, meta.carries.String())
	}
	if len(names) > 0 {
		b.WriteString("\n")
	}

	for _, u := range units {
		b.WriteString(renderHandler(u, index))
		b.WriteString("\n")
	}

	return b.String()
}

func indexInto(index map[string]*lower.Microstatement, ms *lower.Microstatement) {
	index[ms.OutputName] = ms
	for _, inner := range ms.ClosureStatements {
		indexInto(index, inner)
	}
}

func eventNamesWithHandlers(units []handlerUnit) []string {
	seen := make(map[string]bool)
	var names []string
	for _, u := range units {
		if u.event == startEvent || seen[u.event] {
			continue
		}
		seen[u.event] = true
		names = append(names, u.event)
	}
	sort.Strings(names)
	return names
}

// renderGlobal renders one hoisted constant line. Globals always print
// under their synthetic OutputName: the surface alias a user gave in one
// handler has no meaning program-wide once the constant is shared.
func renderGlobal(ms *lower.Microstatement) string {
	typeName := ""
	if ms.OutputType != nil {
		typeName = ms.OutputType.String()
	}
	if len(ms.InputNames) == 0 {
		return fmt.Sprintf("const %s: %s", ms.OutputName, typeName)
	}
	return fmt.Sprintf("const %s: %s = %s", ms.OutputName, typeName, ms.InputNames[0])
}

func renderHandler(u handlerUnit, index map[string]*lower.Microstatement) string {
	var b strings.Builder
	args := make([]string, len(u.fn.Args))
	for i, a := range u.fn.Args {
		args[i] = fmt.Sprintf("%s: %s", a.Name, a.Type.String())
	}
	ret := types.Void.String()
	if u.fn.ReturnType != nil {
		ret = u.fn.ReturnType.String()
	}
	fmt.Fprintf(&b, "on %s fn (%s): %s {\n", u.event, strings.Join(args, ", "), ret)

	for _, ms := range u.body {
		line := renderStmt(ms, index)
		if line == "" {
			continue
		}
		b.WriteString("  ")
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("}")
	return b.String()
}

// renderStmt renders one microstatement's textual form. REREF, ARG,
// ENTERFN, ENTERCONDFN, TAIL and CLOSUREDEF render to the empty string:
// the first five because they carry no runtime operation of their own,
// CLOSUREDEF because its body is instead inlined wherever a CALL
// references it as an argument (see renderArg).
func renderStmt(ms *lower.Microstatement, index map[string]*lower.Microstatement) string {
	switch ms.StatementType {
	case lower.REREF, lower.ARG, lower.ENTERFN, lower.ENTERCONDFN, lower.TAIL, lower.CLOSUREDEF:
		return ""
	case lower.CONSTDEC, lower.LETDEC:
		return renderDecl(ms, index)
	case lower.ASSIGNMENT:
		return fmt.Sprintf("%s = %s", ms.OutputName, renderValue(ms, index))
	case lower.CALL:
		return fmt.Sprintf("%s = %s", ms.OutputName, renderValue(ms, index))
	case lower.EMIT:
		if len(ms.InputNames) > 0 {
			return fmt.Sprintf("emit %s %s", ms.Alias, renderArg(ms.InputNames[0], index))
		}
		return fmt.Sprintf("emit %s", ms.Alias)
	case lower.EXIT:
		if len(ms.InputNames) > 0 {
			return fmt.Sprintf("exit %s", renderArg(ms.InputNames[0], index))
		}
		return "exit"
	case lower.CLOSURE:
		return fmt.Sprintf("%s = %s", ms.OutputName, renderClosureBody(ms, index))
	default:
		return ""
	}
}

func renderDecl(ms *lower.Microstatement, index map[string]*lower.Microstatement) string {
	kw := "const"
	if ms.StatementType == lower.LETDEC {
		kw = "let"
	}
	// Declarations print their synthetic name: the AMM consumer addresses
	// values positionally by these names, and the surface alias only ever
	// mattered to lowering-time scope lookups.
	name := ms.OutputName
	typeName := ""
	if ms.OutputType != nil {
		typeName = ms.OutputType.String()
	}
	if len(ms.Fns) == 0 {
		if len(ms.InputNames) == 0 {
			return fmt.Sprintf("%s %s: %s", kw, name, typeName)
		}
		return fmt.Sprintf("%s %s: %s = %s", kw, name, typeName, renderArg(ms.InputNames[0], index))
	}
	return fmt.Sprintf("%s %s: %s = %s", kw, name, typeName, renderValue(ms, index))
}

func renderValue(ms *lower.Microstatement, index map[string]*lower.Microstatement) string {
	if len(ms.Fns) == 0 {
		if len(ms.InputNames) > 0 {
			return renderArg(ms.InputNames[0], index)
		}
		return "void"
	}
	fnName := ms.Fns[0].Opcode
	if fnName == "" && ms.Fns[0].Fn != nil {
		fnName = ms.Fns[0].Fn.Name
	}
	args := make([]string, len(ms.InputNames))
	for i, in := range ms.InputNames {
		args[i] = renderArg(in, index)
	}
	return fmt.Sprintf("%s(%s)", fnName, strings.Join(args, ", "))
}

// renderArg resolves a microstatement reference for use as a call argument.
// A REREF is chased through to the value it re-exposes (it prints no line
// of its own, so its name must never surface in output); a CLOSUREDEF is
// rendered inline as a `fn { ... }` literal.
func renderArg(name string, index map[string]*lower.Microstatement) string {
	for {
		ms, ok := index[name]
		if !ok {
			return name
		}
		switch ms.StatementType {
		case lower.REREF, lower.TAIL:
			if len(ms.InputNames) == 0 {
				return name
			}
			name = ms.InputNames[0]
		case lower.CLOSUREDEF:
			return renderClosureBody(ms, index)
		default:
			return name
		}
	}
}

func renderClosureBody(ms *lower.Microstatement, index map[string]*lower.Microstatement) string {
	var b strings.Builder
	b.WriteString("fn { ")
	for _, inner := range ms.ClosureStatements {
		line := renderStmt(inner, index)
		if line == "" {
			continue
		}
		b.WriteString(line)
		b.WriteString("; ")
	}
	b.WriteString("}")
	return b.String()
}
