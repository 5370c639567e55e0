package ir

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/naml-lang/namlc/internal/mir"
	"github.com/naml-lang/namlc/internal/rt"
)

// yieldFn backs the Yield statement and the select busy-wait loop. A var so
// tests can swap it for something deterministic instead of sleeping on the
// scheduler.
var yieldFn = runtime.Gosched

// Executor runs a MIR module by walking it directly, the "namlc run --jit"
// path named in spec section 4.1 as an alternative to the AOT
// lower-to-LLVM-then-link pipeline cmd/namlc's "build"/"run" shells out to
// clang/llc for.
type Executor struct {
	module *mir.Module
	funcs  map[string]*mir.Function

	legionWG  sync.WaitGroup
	onLegionErr func(fn string, err error)
}

// NewExecutor indexes a MIR module's functions by name for dispatch.
func NewExecutor(module *mir.Module) *Executor {
	funcs := make(map[string]*mir.Function, len(module.Functions))
	for _, fn := range module.Functions {
		funcs[fn.Name] = fn
	}
	return &Executor{module: module, funcs: funcs}
}

// OnLegionError installs a callback invoked when a spawned legion's call
// returns an error; by default such errors are silently dropped, same as
// a detached pthread whose return value nobody joins on.
func (e *Executor) OnLegionError(fn func(name string, err error)) {
	e.onLegionErr = fn
}

// Run calls the named entry function (almost always "main") with args and
// waits for every legion it spawned (directly or transitively) to finish
// before returning - the interpreter's equivalent of the AOT binary's
// process exit waiting on its pthreads via runtime_spawn_closure's handle.
func (e *Executor) Run(entry string, args ...interface{}) (interface{}, error) {
	result, err := e.callNamed(entry, args)
	e.legionWG.Wait()
	return result, err
}

// spawnFn runs body on a new goroutine, tracked so Run can wait for it.
func (e *Executor) spawnFn(body func()) {
	e.legionWG.Add(1)
	go func() {
		defer e.legionWG.Done()
		body()
	}()
}

func (e *Executor) reportLegionError(fn string, err error) {
	if e.onLegionErr != nil {
		e.onLegionErr(fn, err)
	}
}

// callNamed looks up fn by name and calls it in a fresh frame with a new
// exception slot - Run's entry call and each spawned legion start this way,
// while ordinary calls (execCall) get a fresh frame sharing the caller's
// slot. No callee resolves anything through a caller's frame, since MIR's
// lowerer has already flattened any captured state into leading parameters
// (internal/mir/lower_spawn.go).
func (e *Executor) callNamed(name string, args []interface{}) (interface{}, error) {
	fn, ok := e.funcs[name]
	if !ok {
		return nil, fmt.Errorf("ir: function %q not found", name)
	}
	frame := NewFrame(rt.NewExceptionSlot())
	return e.callFunction(frame, fn, args)
}

// callFunction binds fn's parameters into frame and runs its entry block
// through to a Return terminator.
func (e *Executor) callFunction(frame *Frame, fn *mir.Function, args []interface{}) (interface{}, error) {
	if len(args) != len(fn.Params) {
		return nil, fmt.Errorf("ir: %s expects %d arguments, got %d", fn.Name, len(fn.Params), len(args))
	}
	for i, param := range fn.Params {
		frame.Set(param.ID, args[i])
	}

	block := fn.Entry
	for block != nil {
		frame.markVisited(block)
		for _, stmt := range block.Statements {
			if err := e.execStmt(frame, stmt); err != nil {
				return nil, fmt.Errorf("ir: %s: %w", fn.Name, err)
			}
		}
		if block.Terminator == nil {
			return nil, nil
		}
		result, err := e.execTerminator(frame, block.Terminator)
		if err != nil {
			return nil, fmt.Errorf("ir: %s: %w", fn.Name, err)
		}
		if result.returned {
			return result.value, nil
		}
		block = result.next
	}
	return nil, nil
}
