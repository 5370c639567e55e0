package ir

import (
	"fmt"

	"github.com/naml-lang/namlc/internal/mir"
	"github.com/naml-lang/namlc/internal/rt"
)

// evalOperand resolves a MIR operand to its interpreter-side Go value,
// mirroring mir2llvm's generateOperand but returning a value instead of an
// LLVM register.
func (e *Executor) evalOperand(frame *Frame, op mir.Operand) (interface{}, error) {
	switch o := op.(type) {
	case *mir.LocalRef:
		return frame.Get(o.Local.ID), nil
	case *mir.Literal:
		return e.evalLiteral(o)
	default:
		return nil, fmt.Errorf("ir: unsupported operand type %T", op)
	}
}

// evalLiteral materializes a literal, heap-allocating strings through
// internal/rt the same way runtime_string_new backs a compiled string
// constant.
func (e *Executor) evalLiteral(lit *mir.Literal) (interface{}, error) {
	switch v := lit.Value.(type) {
	case int64, float64, bool:
		return v, nil
	case int:
		return int64(v), nil
	case string:
		return rt.NewString(v), nil
	case nil:
		return nil, nil
	default:
		return nil, fmt.Errorf("ir: unsupported literal value %T", v)
	}
}

// evalOperands resolves a slice of operands in order.
func (e *Executor) evalOperands(frame *Frame, ops []mir.Operand) ([]interface{}, error) {
	vals := make([]interface{}, len(ops))
	for i, op := range ops {
		v, err := e.evalOperand(frame, op)
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}
	return vals, nil
}

func asInt64(v interface{}) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}

func asFloat64(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	case int:
		return float64(n)
	default:
		return 0
	}
}

func asBool(v interface{}) bool {
	b, _ := v.(bool)
	return b
}

func isFloat(v interface{}) bool {
	_, ok := v.(float64)
	return ok
}
