// Package builtins is the strategy registry the code generator consults to
// lower a call site: operator intrinsics that inline directly to LLVM
// instructions, and named builtins (println, len, push, ...) that dispatch
// to a runtime ABI function chosen by the argument's static type.
//
// Grounded on internal/codegen/mir2llvm/statements.go's existing
// isOperatorIntrinsic list and its hand-written println-to-runtime-function
// switch: this package pulls both out of that file into a declarative
// table, the way spec.md section 4.5 describes the registry ("each
// strategy describes exactly how to lower a call site... argument
// coercion, calling convention into the runtime... type-directed
// dispatch"), and generalizes the println-only special case to any builtin
// that needs to pick its runtime function from the argument's type.
package builtins

import "github.com/naml-lang/namlc/internal/runtimeabi"

// TypeClass is the small set of LLVM-ish type categories builtins dispatch
// on — the same buckets internal/codegen/mir2llvm already infers from an
// operand's type.
type TypeClass string

const (
	ClassI64    TypeClass = "i64"
	ClassI32    TypeClass = "i32"
	ClassI8     TypeClass = "i8"
	ClassDouble TypeClass = "double"
	ClassBool   TypeClass = "bool"
	ClassString TypeClass = "string"
	ClassSlice  TypeClass = "slice"
	ClassMap    TypeClass = "map"
	ClassChan   TypeClass = "channel"
)

// Operator describes a synthetic operator call (`__add__`, `__lt__`, ...)
// the lowerer emits for infix/prefix expressions. These never reach the
// runtime ABI: codegen inlines them as direct LLVM instructions.
type Operator struct {
	Name     string
	Arity    int
	MayThrow bool // division/modulo can trap on a zero divisor
}

// Operators is the full set of synthetic operator names the lowerer can
// emit, replacing the hardcoded isOperatorIntrinsic list that used to live
// directly in internal/codegen/mir2llvm/statements.go.
var Operators = []Operator{
	{Name: "__add__", Arity: 2},
	{Name: "__sub__", Arity: 2},
	{Name: "__mul__", Arity: 2},
	{Name: "__div__", Arity: 2, MayThrow: true},
	{Name: "__mod__", Arity: 2, MayThrow: true},
	{Name: "__eq__", Arity: 2},
	{Name: "__ne__", Arity: 2},
	{Name: "__lt__", Arity: 2},
	{Name: "__le__", Arity: 2},
	{Name: "__gt__", Arity: 2},
	{Name: "__ge__", Arity: 2},
	{Name: "__and__", Arity: 2},
	{Name: "__or__", Arity: 2},
	{Name: "__neg__", Arity: 1},
	{Name: "__not__", Arity: 1},
}

var operatorSet map[string]Operator

func init() {
	operatorSet = make(map[string]Operator, len(Operators))
	for _, op := range Operators {
		operatorSet[op.Name] = op
	}
}

// IsOperator reports whether funcName is a synthetic operator intrinsic.
func IsOperator(funcName string) bool {
	_, ok := operatorSet[funcName]
	return ok
}

// OperatorMayThrow reports whether the named operator can set the
// exception slot (only the integer division family can).
func OperatorMayThrow(funcName string) bool {
	return operatorSet[funcName].MayThrow
}

// Strategy describes a named builtin call (as opposed to an operator):
// which runtime ABI function backs it per argument type class, and
// whether the call is void (no result local to store into).
type Strategy struct {
	Name string
	// ABI maps an inferred TypeClass to the concrete runtime_* function.
	// A strategy that ignores argument type (e.g. gc_init) uses a single
	// entry keyed by "".
	ABI map[TypeClass]string
	Void bool
}

// Registry is the named-builtin strategy table. Small relative to the
// spec's full standard library, but real and dispatched through by
// codegen instead of the builtin's logic being special-cased inline -
// see internal/codegen/mir2llvm/statements.go's generateCall.
var Registry = map[string]Strategy{
	"println": {
		Name: "println",
		Void: true,
		ABI: map[TypeClass]string{
			ClassI64:    "runtime_println_i64",
			ClassI32:    "runtime_println_i32",
			ClassI8:     "runtime_println_i8",
			ClassDouble: "runtime_println_double",
			ClassBool:   "runtime_println_bool",
			ClassString: "runtime_println_string",
		},
	},
	"len": {
		Name: "len",
		ABI: map[TypeClass]string{
			ClassSlice: "runtime_slice_len",
			ClassMap:   "runtime_hashmap_len",
		},
	},
	"is_empty": {
		Name: "is_empty",
		ABI: map[TypeClass]string{
			ClassSlice: "runtime_slice_is_empty",
			ClassMap:   "runtime_hashmap_is_empty",
		},
	},
	"push": {
		Name: "push",
		Void: true,
		ABI: map[TypeClass]string{
			ClassSlice: "runtime_slice_push",
		},
	},
	"pop": {
		Name: "pop",
		ABI: map[TypeClass]string{
			ClassSlice: "runtime_slice_pop",
		},
	},
}

// Lookup returns the strategy for a named builtin call, if any.
func Lookup(name string) (Strategy, bool) {
	s, ok := Registry[name]
	return s, ok
}

// ResolveABI picks the concrete runtime function for a strategy given the
// argument's type class. Returns "" if the strategy has no entry for that
// class (a type error the checker should already have caught).
func (s Strategy) ResolveABI(class TypeClass) string {
	if fn, ok := s.ABI[class]; ok {
		return fn
	}
	if fn, ok := s.ABI[""]; ok {
		return fn
	}
	return ""
}

// MayThrow reports whether a named call (operator or builtin-registry
// entry or raw ABI symbol) can populate the exception slot.
func MayThrow(funcName string) bool {
	if IsOperator(funcName) {
		return OperatorMayThrow(funcName)
	}
	if s, ok := Lookup(funcName); ok {
		for _, abi := range s.ABI {
			if e, ok := runtimeabi.Lookup(abi); ok && e.MayThrow {
				return true
			}
		}
		return false
	}
	return runtimeabi.MayThrow(funcName)
}
