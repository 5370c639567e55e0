// Package ir is the JIT-like execution backend for "namlc run --jit":
// instead of lowering MIR to LLVM IR and shelling out to clang/llc (the
// internal/codegen/mir2llvm + cmd/namlc AOT path), it walks the MIR
// directly and evaluates it against internal/rt's Go-native runtime.
//
// The per-call Frame here is grounded on yaegi's interpreter
// (_examples/other_examples, breadchris/yaegi's interp.go): a frame per
// call carries a flat slot of values keyed by variable identity, the same
// shape as yaegi's `frame{data []reflect.Value}` - generalized from
// yaegi's reflect.Value slots to MIR's own Local.ID-keyed values, since
// MIR's lowerer already flattens closures/legion captures into explicit
// leading parameters (see internal/mir/lower_spawn.go) rather than
// needing yaegi's frame.anc ancestor chain to resolve a lexical capture.
package ir

import (
	"github.com/naml-lang/namlc/internal/mir"
	"github.com/naml-lang/namlc/internal/rt"
)

// Frame holds the Local values for a single call's execution, plus the
// exception slot of whichever legion is running it (shared across every
// frame that legion creates, per the runtime ABI's one-slot-per-thread
// contract) and the set of blocks visited so far in this call (used only
// to resolve mir.Phi inputs to the predecessor that actually ran, when the
// optional SSA pass in internal/mir/ssa has introduced phi nodes).
type Frame struct {
	values  map[int]interface{}
	slot    *rt.ExceptionSlot
	visited map[*mir.BasicBlock]bool
}

// NewFrame creates a frame for a function call within a legion identified
// by slot (its thread-local exception slot).
func NewFrame(slot *rt.ExceptionSlot) *Frame {
	return &Frame{
		values:  make(map[int]interface{}),
		slot:    slot,
		visited: make(map[*mir.BasicBlock]bool),
	}
}

// Get resolves a local's current value.
func (f *Frame) Get(id int) interface{} { return f.values[id] }

// Set binds a local's value in this frame.
func (f *Frame) Set(id int, v interface{}) { f.values[id] = v }

// ExceptionSlot returns this call's legion's thread-local exception slot.
func (f *Frame) ExceptionSlot() *rt.ExceptionSlot { return f.slot }

// markVisited records that block has started executing in this call.
func (f *Frame) markVisited(block *mir.BasicBlock) { f.visited[block] = true }

// wasVisited reports whether block has already run in this call.
func (f *Frame) wasVisited(block *mir.BasicBlock) bool { return f.visited[block] }
