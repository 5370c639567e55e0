package ir

import (
	"fmt"

	"github.com/naml-lang/namlc/internal/rt"
)

// evalOperator evaluates one of internal/builtins' synthetic operator
// intrinsics (__add__, __lt__, ...) against already-resolved argument
// values - the interpreter's counterpart to mir2llvm/statements.go's
// arithmetic/comparison instruction emission (generateCall) for the same
// names.
func evalOperator(name string, args []interface{}, slot *rt.ExceptionSlot) (interface{}, error) {
	if name == "__not__" {
		return !asBool(args[0]), nil
	}
	if name == "__neg__" {
		if isFloat(args[0]) {
			return -asFloat64(args[0]), nil
		}
		return -asInt64(args[0]), nil
	}
	if len(args) != 2 {
		return nil, fmt.Errorf("ir: operator %s expects 2 operands, got %d", name, len(args))
	}
	a, b := args[0], args[1]

	if s, ok := a.(*rt.String); ok {
		if name == "__add__" {
			ob, ok := b.(*rt.String)
			if !ok {
				return nil, fmt.Errorf("ir: __add__ on string requires a string operand")
			}
			return s.Concat(ob), nil
		}
		if name == "__eq__" || name == "__ne__" {
			ob, _ := b.(*rt.String)
			eq := ob != nil && s.Equal(ob)
			if name == "__ne__" {
				return !eq, nil
			}
			return eq, nil
		}
	}

	if name == "__and__" {
		return asBool(a) && asBool(b), nil
	}
	if name == "__or__" {
		return asBool(a) || asBool(b), nil
	}

	if isFloat(a) || isFloat(b) {
		x, y := asFloat64(a), asFloat64(b)
		switch name {
		case "__add__":
			return x + y, nil
		case "__sub__":
			return x - y, nil
		case "__mul__":
			return x * y, nil
		case "__div__":
			if y == 0 {
				slot.Set(0, rt.NewString("division by zero"))
				return float64(0), nil
			}
			return x / y, nil
		case "__eq__":
			return x == y, nil
		case "__ne__":
			return x != y, nil
		case "__lt__":
			return x < y, nil
		case "__le__":
			return x <= y, nil
		case "__gt__":
			return x > y, nil
		case "__ge__":
			return x >= y, nil
		}
	}

	x, y := asInt64(a), asInt64(b)
	switch name {
	case "__add__":
		return x + y, nil
	case "__sub__":
		return x - y, nil
	case "__mul__":
		return x * y, nil
	case "__div__":
		if y == 0 {
			slot.Set(0, rt.NewString("division by zero"))
			return int64(0), nil
		}
		return x / y, nil
	case "__mod__":
		if y == 0 {
			slot.Set(0, rt.NewString("modulo by zero"))
			return int64(0), nil
		}
		return x % y, nil
	case "__eq__":
		return x == y, nil
	case "__ne__":
		return x != y, nil
	case "__lt__":
		return x < y, nil
	case "__le__":
		return x <= y, nil
	case "__gt__":
		return x > y, nil
	case "__ge__":
		return x >= y, nil
	}

	return nil, fmt.Errorf("ir: unhandled operator %s", name)
}
