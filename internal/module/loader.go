package module

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/sunholo/amc/internal/ast"
	"github.com/sunholo/amc/internal/errors"
	"github.com/sunholo/amc/internal/lexer"
	"github.com/sunholo/amc/internal/lower"
	"github.com/sunholo/amc/internal/opcode"
	"github.com/sunholo/amc/internal/parser"
	"github.com/sunholo/amc/internal/scope"
	"github.com/sunholo/amc/internal/types"
)

// Module is one parsed, populated source file: its AST, its scope (chained
// to the opcode scope; imports are bound into it by name), and the import
// paths it depends on.
type Module struct {
	Identity string
	FilePath string
	Program  *ast.Program
	Scope    *scope.Scope
	// ExportScope holds only the bindings named by `export` declarations;
	// standard imports bind it (never the full module scope) under the
	// import alias.
	ExportScope *scope.Scope
	Deps        []string
	Exports     map[string]bool
	Handlers    []HandlerBinding
}

// Loader loads and populates modules by import path, caching by identity
// and detecting import cycles via a load stack checked on every recursive
// Load call.
type Loader struct {
	resolver  *Resolver
	mu        sync.RWMutex
	cache     map[string]*Module
	loadStack []string
}

func NewLoader() *Loader {
	return &Loader{resolver: NewResolver(), cache: make(map[string]*Module)}
}

// Module looks up a cached module by identity.
func (l *Loader) Module(identity string) (*Module, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	mod, ok := l.cache[identity]
	return mod, ok
}

// Modules returns every module loaded so far, keyed by identity.
func (l *Loader) Modules() map[string]*Module {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make(map[string]*Module, len(l.cache))
	for id, mod := range l.cache {
		out[id] = mod
	}
	return out
}

// LoadRoot loads and populates the program at filePath as the root module
// (no import path to resolve; it names itself, conventionally "main").
func (l *Loader) LoadRoot(filePath string) (*Module, error) {
	abs, err := filepath.Abs(filePath)
	if err != nil {
		return nil, errors.New(errors.DRV002, ast.Pos{}, fmt.Sprintf("root source file not found: %s", filePath))
	}
	if _, err := os.Stat(abs); err != nil {
		return nil, errors.New(errors.DRV002, ast.Pos{}, fmt.Sprintf("root source file not found: %s", filePath))
	}
	return l.parseAndPopulate("main", abs)
}

// Load resolves importPath relative to currentFile, then parses and
// populates it if not already cached.
func (l *Loader) Load(importPath, currentFile string) (*Module, error) {
	identity := normalizeIdentity(importPath)

	if mod := l.getCached(identity); mod != nil {
		return mod, nil
	}
	if err := l.checkCycle(identity); err != nil {
		return nil, err
	}
	l.pushStack(identity)
	defer l.popStack()

	filePath, err := l.resolver.ResolveImport(importPath, currentFile)
	if err != nil {
		return nil, errors.New(errors.MOD001, ast.Pos{}, fmt.Sprintf("unresolved import %q: %v", importPath, err))
	}
	return l.parseAndPopulate(identity, filePath)
}

func (l *Loader) parseAndPopulate(identity, filePath string) (*Module, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, errors.New(errors.MOD001, ast.Pos{}, fmt.Sprintf("failed to read %s: %v", filePath, err))
	}
	normalized := lexer.Normalize(content)
	lex := lexer.New(string(normalized), filePath)
	p := parser.New(lex, filePath)
	program := p.Parse()
	if errs := p.Errors(); len(errs) > 0 {
		return nil, errs[0]
	}

	mod := &Module{Identity: identity, FilePath: filePath, Program: program}
	mod.Deps = extractDependencies(program)

	modScope := scope.New(opcode.Scope())
	mod.Scope = modScope
	modScope.Put("event:start", builtinStart)

	if err := l.populateImports(mod, modScope); err != nil {
		return nil, err
	}
	if err := populateModule(mod, modScope); err != nil {
		return nil, err
	}

	l.cacheModule(mod)
	return mod, nil
}

// populateImports loads every dependency first (so later declarations can
// reference imported types/functions/interfaces), binding each from-import
// name directly into modScope and each standard import under its alias as
// a nested *scope.Scope reachable by dotted lookup.
func (l *Loader) populateImports(mod *Module, modScope *scope.Scope) error {
	for _, imp := range mod.Program.Imports {
		dep, err := l.Load(imp.Path, mod.FilePath)
		if err != nil {
			return err
		}
		if imp.IsFrom {
			for _, name := range imp.FromNames {
				if !dep.Exports[name.Name] {
					return errors.New(errors.MOD001, imp.Pos, fmt.Sprintf("import %q not exported by %q", name.Name, imp.Path))
				}
				bound, ok := dep.Scope.ShallowGet(name.Name)
				if !ok {
					return errors.New(errors.MOD001, imp.Pos, fmt.Sprintf("import %q not exported by %q", name.Name, imp.Path))
				}
				bindImport(modScope, name.Alias, bound)
				if t, ok := bound.(*types.Type); ok && t.Iface != nil {
					pullInterfaceMatches(modScope, dep, t.Iface)
				}
			}
			continue
		}
		alias := imp.Alias
		if alias == "" {
			alias = lastSegment(imp.Path)
		}
		modScope.Put(alias, dep.ExportScope)
	}
	return nil
}

// bindImport installs an imported binding into dest. Function and operator
// bindings merge by concatenation when dest already has an entry under the
// same name; everything else overwrites.
func bindImport(dest *scope.Scope, name string, bound interface{}) {
	switch v := bound.(type) {
	case lower.FuncSet:
		if existing, ok := dest.ShallowGet(name); ok {
			if set, ok := existing.(lower.FuncSet); ok {
				dest.Put(name, append(append(lower.FuncSet{}, set...), v...))
				return
			}
		}
		dest.Put(name, v)
	case *types.Operator:
		if existing, ok := dest.ShallowGet(name); ok {
			if op, ok := existing.(*types.Operator); ok {
				op.Append(v.Funcs, v.Targets)
				return
			}
		}
		dest.Put(name, v)
	default:
		dest.Put(name, bound)
	}
}

// pullInterfaceMatches implements import-by-interface: when a from-imported
// binding is a type wrapping an interface, every exported type of the
// source module that satisfies the interface is pulled into dest under its
// own name, along with the source module's bindings for each function and
// operator name the interface requires.
func pullInterfaceMatches(dest *scope.Scope, src *Module, iface *types.Interface) {
	for name := range src.Exports {
		bound, ok := src.Scope.ShallowGet(name)
		if !ok {
			continue
		}
		t, ok := bound.(*types.Type)
		if !ok || t.Iface != nil {
			continue
		}
		if iface.TypeApplies(t, src.Scope) {
			bindImport(dest, name, t)
		}
	}
	for _, req := range iface.Funcs {
		if req.Name == "" {
			continue
		}
		if bound, ok := src.Scope.ShallowGet(req.Name); ok {
			bindImport(dest, req.Name, bound)
		}
	}
	for _, req := range iface.Operators {
		key := "operator:" + req.Op
		if bound, ok := src.Scope.ShallowGet(key); ok {
			bindImport(dest, key, bound)
		}
	}
}

func lastSegment(path string) string {
	parts := strings.Split(path, "/")
	return parts[len(parts)-1]
}

func extractDependencies(p *ast.Program) []string {
	deps := make([]string, 0, len(p.Imports))
	for _, imp := range p.Imports {
		deps = append(deps, imp.Path)
	}
	return deps
}

func normalizeIdentity(path string) string {
	path = strings.TrimSuffix(path, ".amm")
	return strings.ReplaceAll(path, "\\", "/")
}

func (l *Loader) getCached(identity string) *Module {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.cache[identity]
}

func (l *Loader) cacheModule(mod *Module) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cache[mod.Identity] = mod
}

func (l *Loader) checkCycle(identity string) error {
	for _, id := range l.loadStack {
		if id == identity {
			return errors.New(errors.MOD004, ast.Pos{}, fmt.Sprintf("circular import: %s -> %s", strings.Join(l.loadStack, " -> "), identity))
		}
	}
	return nil
}

func (l *Loader) pushStack(identity string) { l.loadStack = append(l.loadStack, identity) }
func (l *Loader) popStack() {
	if len(l.loadStack) > 0 {
		l.loadStack = l.loadStack[:len(l.loadStack)-1]
	}
}

// TopologicalSort returns every cached module's identity in dependency
// order (Kahn's algorithm), used by internal/driver to walk events and
// handlers module by module, dependencies first.
func (l *Loader) TopologicalSort() ([]string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	inDegree := make(map[string]int)
	dependents := make(map[string][]string)
	for id := range l.cache {
		inDegree[id] = 0
	}
	for id, mod := range l.cache {
		for _, dep := range mod.Deps {
			depID := normalizeIdentity(dep)
			if _, ok := l.cache[depID]; !ok {
				continue
			}
			dependents[depID] = append(dependents[depID], id)
			inDegree[id]++
		}
	}

	// Seed the queue in sorted identity order so the result, and with it
	// the driver's handler emission order, is stable across runs.
	var queue []string
	for id, deg := range inDegree {
		if deg == 0 {
			queue = append(queue, id)
		}
	}
	sort.Strings(queue)
	var order []string
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		order = append(order, id)
		ready := dependents[id]
		sort.Strings(ready)
		for _, dependent := range ready {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				queue = append(queue, dependent)
			}
		}
	}
	if len(order) != len(l.cache) {
		return nil, errors.New(errors.MOD004, ast.Pos{}, "circular dependency detected during topological sort")
	}
	return order, nil
}
