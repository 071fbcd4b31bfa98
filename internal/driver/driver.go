// Package driver resolves a root source file, loads its transitive module
// graph (including the bundled standard library), lowers every event
// handler reachable from it into microstatements, hoists constants across
// the whole program, and serializes the result as AMM text.
package driver

import (
	"fmt"

	"github.com/sunholo/amc/internal/lower"
	"github.com/sunholo/amc/internal/module"
	"github.com/sunholo/amc/internal/stdlib"
	"github.com/sunholo/amc/internal/types"
)

// startEvent is the built-in event every program implicitly has; it is
// never declared by user source and never gets an `event` line in AMM
// output (its handlers still render as `on start` blocks).
const startEvent = "start"

// handlerUnit is one lowered handler, ready for hoisting and emission.
type handlerUnit struct {
	event string
	fn    *lower.UserFunction
	body  []*lower.Microstatement
}

// eventMeta is the rendering-relevant part of a declared event: the type
// it carries (types.Void for a bare event).
type eventMeta struct {
	carries *types.Type
}

// Driver runs one end-to-end lowering pass: load, lower, hoist, serialize.
// A Driver is single-use; construct a fresh one per invocation so its name
// generator and rename table start clean.
type Driver struct {
	Loader  *module.Loader
	ctx     *lower.Ctx
	Verbose bool
	trace   []string
}

// New creates a driver with its own module loader and lowering context.
// Call stdlib.Prepare before New: the loader's resolver reads AMC_STDLIB
// once, at construction, so the standard library must already be
// extracted and the environment variable set by the time New runs.
func New() *Driver {
	return &Driver{Loader: module.NewLoader(), ctx: lower.NewCtx()}
}

// Trace returns the verbose per-phase log recorded during the last Run,
// when Verbose was set before calling it.
func (d *Driver) Trace() []string { return d.trace }

func (d *Driver) log(format string, args ...interface{}) {
	if d.Verbose {
		d.trace = append(d.trace, fmt.Sprintf(format, args...))
	}
}

// Run loads the standard library base module (stdlib.Load), then rootFile
// and every module it transitively imports into the same loader, lowers
// every handler bound anywhere in the program, and returns the final AMM
// text.
func (d *Driver) Run(rootFile string) (string, error) {
	if err := stdlib.Load(d.Loader); err != nil {
		return "", err
	}
	d.log("loaded standard library base module %s", stdlib.RootModule)

	root, err := d.Loader.LoadRoot(rootFile)
	if err != nil {
		return "", err
	}
	d.log("loaded root module %s", root.Identity)

	order, err := d.Loader.TopologicalSort()
	if err != nil {
		return "", err
	}

	events := make(map[string]eventMeta)
	finalName := make(map[*module.EventInfo]string)
	var units []handlerUnit

	for _, id := range order {
		mod, ok := d.Loader.Module(id)
		if !ok {
			continue
		}
		for _, ev := range mod.Program.Events {
			bound, ok := mod.Scope.ShallowGet("event:" + ev.Name)
			if !ok {
				continue
			}
			info := bound.(*module.EventInfo)
			name := ev.Name
			if _, taken := events[name]; taken {
				// Two modules declared the same event name. Suffix the
				// later one so each declaration keeps its own identity in
				// the output.
				name = name + "_" + d.ctx.Gen.Collision()
				d.log("event name collision: %q renamed to %q in %s", ev.Name, name, mod.Identity)
			}
			finalName[info] = name
			events[name] = eventMeta{carries: info.Carries}
		}
		for _, hb := range mod.Handlers {
			d.log("lowering handler on %q in %s", hb.Event, mod.Identity)
			body, err := d.lowerHandler(hb)
			if err != nil {
				return "", err
			}
			eventName := hb.Event
			if bound, ok := mod.Scope.DeepGet("event:" + hb.Event); ok {
				if info, ok := bound.(*module.EventInfo); ok {
					if renamed, ok := finalName[info]; ok {
						eventName = renamed
					}
				}
			}
			units = append(units, handlerUnit{event: eventName, fn: hb.Fn, body: body})
		}
	}

	globals, rename := hoistConstants(units)
	finalDedupe(units, rename)
	d.log("hoisted %d constants, renamed %d duplicates", len(globals), len(rename))

	return serialize(globals, units, events), nil
}

// lowerHandler lowers one handler's body into a standalone microstatement
// list via lower.LowerFunctionBody, then strips the structural bracketing
// that inlined user-function calls leave behind: ENTERFN / ENTERCONDFN are
// removed and each TAIL becomes a REREF.
func (d *Driver) lowerHandler(hb module.HandlerBinding) ([]*lower.Microstatement, error) {
	body, err := lower.LowerFunctionBody(d.ctx, hb.Fn)
	if err != nil {
		return nil, err
	}
	return stripStructural(body), nil
}
