package ir

import (
	"fmt"

	"github.com/naml-lang/namlc/internal/builtins"
	"github.com/naml-lang/namlc/internal/rt"
)

// evalBuiltin executes one of internal/builtins' named-registry strategies
// (println, len, push, pop, is_empty) directly against internal/rt, rather
// than resolving the strategy to a concrete runtime_* symbol and emitting a
// `call` the way mir2llvm's generateCall does - the interpreter already has
// the receiver value in hand, so it dispatches on its dynamic Go type
// instead of the static TypeClass codegen infers from MIR types.
func evalBuiltin(name string, args []interface{}) (interface{}, error) {
	switch name {
	case "println":
		if len(args) == 0 {
			rt.Println(nil)
			return nil, nil
		}
		rt.Println(args[0])
		return nil, nil

	case "len":
		switch v := args[0].(type) {
		case *rt.Slice:
			return v.Len(), nil
		case *rt.HashMap:
			return v.Len(), nil
		}
		return nil, fmt.Errorf("ir: len unsupported for %T", args[0])

	case "is_empty":
		switch v := args[0].(type) {
		case *rt.Slice:
			return v.IsEmpty(), nil
		case *rt.HashMap:
			return v.IsEmpty(), nil
		}
		return nil, fmt.Errorf("ir: is_empty unsupported for %T", args[0])

	case "push":
		s, ok := args[0].(*rt.Slice)
		if !ok {
			return nil, fmt.Errorf("ir: push unsupported for %T", args[0])
		}
		s.Push(args[1])
		return nil, nil

	case "pop":
		s, ok := args[0].(*rt.Slice)
		if !ok {
			return nil, fmt.Errorf("ir: pop unsupported for %T", args[0])
		}
		return s.Pop()

	default:
		return nil, fmt.Errorf("ir: unknown builtin %s", name)
	}
}

// builtinMayThrow mirrors builtins.MayThrow's decision for whether an
// exception check statement should follow this call in the interpreted
// control flow too (kept even though the interpreter enforces nothing on
// its own: a legion that never checks the slot it populated still behaves
// like compiled code that skips the check - it reads stale state next time).
func builtinMayThrow(name string) bool {
	return builtins.MayThrow(name)
}
