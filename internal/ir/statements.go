package ir

import (
	"fmt"

	"github.com/naml-lang/namlc/internal/builtins"
	"github.com/naml-lang/namlc/internal/mir"
	"github.com/naml-lang/namlc/internal/rt"
	"github.com/naml-lang/namlc/internal/types"
)

// execStmt evaluates a single non-terminating MIR statement against frame,
// mirroring mir2llvm/statements.go's generateStatement but interpreting
// directly instead of emitting LLVM instructions.
func (e *Executor) execStmt(frame *Frame, stmt mir.Statement) error {
	switch s := stmt.(type) {
	case *mir.Assign:
		v, err := e.evalOperand(frame, s.RHS)
		if err != nil {
			return err
		}
		frame.Set(s.Local.ID, v)
		return nil

	case *mir.Call:
		return e.execCall(frame, s)

	case *mir.Spawn:
		return e.execSpawn(frame, s)

	case *mir.Yield:
		yieldFn()
		return nil

	case *mir.Load:
		addr, err := e.evalOperand(frame, s.Address)
		if err != nil {
			return err
		}
		if ptr, ok := addr.(*LocalPointer); ok {
			frame.Set(s.Result.ID, ptr.Frame.Get(ptr.ID))
			return nil
		}
		frame.Set(s.Result.ID, addr)
		return nil

	case *mir.LoadField:
		target, err := e.evalOperand(frame, s.Target)
		if err != nil {
			return err
		}
		sv, ok := target.(*StructValue)
		if !ok {
			return fmt.Errorf("ir: LoadField on non-struct value %T", target)
		}
		frame.Set(s.Result.ID, sv.Fields[s.Field])
		return nil

	case *mir.StoreField:
		target, err := e.evalOperand(frame, s.Target)
		if err != nil {
			return err
		}
		sv, ok := target.(*StructValue)
		if !ok {
			return fmt.Errorf("ir: StoreField on non-struct value %T", target)
		}
		val, err := e.evalOperand(frame, s.Value)
		if err != nil {
			return err
		}
		sv.Fields[s.Field] = val
		return nil

	case *mir.LoadIndex:
		return e.execLoadIndex(frame, s)

	case *mir.StoreIndex:
		return e.execStoreIndex(frame, s)

	case *mir.ConstructStruct:
		fields := make(map[string]interface{}, len(s.Fields))
		for name, op := range s.Fields {
			v, err := e.evalOperand(frame, op)
			if err != nil {
				return err
			}
			fields[name] = v
		}
		frame.Set(s.Result.ID, &StructValue{TypeName: typeName(s.Type), Fields: fields})
		return nil

	case *mir.ConstructArray:
		sl := rt.NewSlice(int64(len(s.Elements)))
		for _, op := range s.Elements {
			v, err := e.evalOperand(frame, op)
			if err != nil {
				return err
			}
			sl.Push(v)
		}
		frame.Set(s.Result.ID, sl)
		return nil

	case *mir.ConstructTuple:
		elems := make([]interface{}, len(s.Elements))
		for i, op := range s.Elements {
			v, err := e.evalOperand(frame, op)
			if err != nil {
				return err
			}
			elems[i] = v
		}
		frame.Set(s.Result.ID, &TupleValue{Elements: elems})
		return nil

	case *mir.ConstructEnum:
		vals := make([]interface{}, len(s.Values))
		for i, op := range s.Values {
			v, err := e.evalOperand(frame, op)
			if err != nil {
				return err
			}
			vals[i] = v
		}
		frame.Set(s.Result.ID, &EnumValue{
			TypeName:     s.Type,
			Variant:      s.Variant,
			VariantIndex: s.VariantIndex,
			Payload:      vals,
		})
		return nil

	case *mir.Discriminant:
		target, err := e.evalOperand(frame, s.Target)
		if err != nil {
			return err
		}
		ev, ok := target.(*EnumValue)
		if !ok {
			return fmt.Errorf("ir: Discriminant on non-enum value %T", target)
		}
		frame.Set(s.Result.ID, int64(ev.VariantIndex))
		return nil

	case *mir.AccessVariantPayload:
		target, err := e.evalOperand(frame, s.Target)
		if err != nil {
			return err
		}
		ev, ok := target.(*EnumValue)
		if !ok {
			return fmt.Errorf("ir: AccessVariantPayload on non-enum value %T", target)
		}
		if s.MemberIndex < 0 || s.MemberIndex >= len(ev.Payload) {
			return fmt.Errorf("ir: variant payload index %d out of range", s.MemberIndex)
		}
		frame.Set(s.Result.ID, ev.Payload[s.MemberIndex])
		return nil

	case *mir.MakeChannel:
		cap := int64(0)
		if s.Capacity != nil {
			v, err := e.evalOperand(frame, s.Capacity)
			if err != nil {
				return err
			}
			cap = asInt64(v)
		}
		frame.Set(s.Result.ID, rt.NewChannel(cap))
		return nil

	case *mir.Send:
		chVal, err := e.evalOperand(frame, s.Channel)
		if err != nil {
			return err
		}
		ch, ok := chVal.(*rt.Channel)
		if !ok {
			return fmt.Errorf("ir: Send on non-channel value %T", chVal)
		}
		v, err := e.evalOperand(frame, s.Value)
		if err != nil {
			return err
		}
		ch.Send(v)
		return nil

	case *mir.Receive:
		chVal, err := e.evalOperand(frame, s.Channel)
		if err != nil {
			return err
		}
		ch, ok := chVal.(*rt.Channel)
		if !ok {
			return fmt.Errorf("ir: Receive on non-channel value %T", chVal)
		}
		v, err := ch.Recv()
		if err != nil {
			frame.ExceptionSlot().Set(0, rt.NewString(err.Error()))
			frame.Set(s.Result.ID, nil)
			return nil
		}
		frame.Set(s.Result.ID, v)
		return nil

	case *mir.SizeOf:
		frame.Set(s.Result.ID, typeSize(s.Type))
		return nil

	case *mir.AlignOf:
		frame.Set(s.Result.ID, typeAlign(s.Type))
		return nil

	case *mir.AddressOf:
		frame.Set(s.Result.ID, &LocalPointer{Frame: frame, ID: s.Target.ID})
		return nil

	case *mir.Cast:
		v, err := e.evalOperand(frame, s.Operand)
		if err != nil {
			return err
		}
		frame.Set(s.Result.ID, castValue(v, s.Type))
		return nil

	case *mir.MakeClosure:
		var env interface{}
		if s.Env != nil {
			v, err := e.evalOperand(frame, s.Env)
			if err != nil {
				return err
			}
			env = v
		}
		frame.Set(s.Result.ID, &ClosureValue{Func: s.Func, Env: env})
		return nil

	case *mir.Incref:
		v, err := e.evalOperand(frame, s.Target)
		if err != nil {
			return err
		}
		rt.Incref(v)
		return nil

	case *mir.Decref:
		v, err := e.evalOperand(frame, s.Target)
		if err != nil {
			return err
		}
		rt.Decref(v)
		return nil

	case *mir.ExceptionCheck:
		frame.Set(s.Result.ID, frame.ExceptionSlot().Check())
		return nil

	case *mir.Phi:
		// Phi nodes only arise where the lowerer keeps blocks in SSA form;
		// the interpreter walks the CFG procedurally so a phi is resolved by
		// picking whichever predecessor's value is already bound in frame -
		// no predecessor-tracking is needed since Inputs keys by *BasicBlock
		// pointer, and only one predecessor's block can have actually run.
		for pred, op := range s.Inputs {
			if frame.wasVisited(pred) {
				v, err := e.evalOperand(frame, op)
				if err != nil {
					return err
				}
				frame.Set(s.Result.ID, v)
				return nil
			}
		}
		return nil

	default:
		return fmt.Errorf("ir: unsupported statement type %T", stmt)
	}
}

func (e *Executor) execCall(frame *Frame, call *mir.Call) error {
	args, err := e.evalOperands(frame, call.Args)
	if err != nil {
		return err
	}

	if builtins.IsOperator(call.Func) {
		v, err := evalOperator(call.Func, args, frame.ExceptionSlot())
		if err != nil {
			return err
		}
		frame.Set(call.Result.ID, v)
		return nil
	}

	if _, ok := builtins.Lookup(call.Func); ok {
		v, err := evalBuiltin(call.Func, args)
		if err != nil {
			return err
		}
		frame.Set(call.Result.ID, v)
		return nil
	}

	if call.FuncOperand != nil {
		fnVal, err := e.evalOperand(frame, call.FuncOperand)
		if err != nil {
			return err
		}
		closure, ok := fnVal.(*ClosureValue)
		if !ok {
			return fmt.Errorf("ir: indirect call target is not a closure (%T)", fnVal)
		}
		callArgs := args
		if closure.Env != nil {
			callArgs = append([]interface{}{closure.Env}, args...)
		}
		fn, ok := e.funcs[closure.Func]
		if !ok {
			return fmt.Errorf("ir: function %q not found", closure.Func)
		}
		result, err := e.callFunction(NewFrame(frame.ExceptionSlot()), fn, callArgs)
		if err != nil {
			return err
		}
		frame.Set(call.Result.ID, result)
		return nil
	}

	fn, ok := e.funcs[call.Func]
	if !ok {
		return fmt.Errorf("ir: function %q not found", call.Func)
	}
	result, err := e.callFunction(NewFrame(frame.ExceptionSlot()), fn, args)
	if err != nil {
		return err
	}
	frame.Set(call.Result.ID, result)
	return nil
}

func (e *Executor) execSpawn(frame *Frame, spawn *mir.Spawn) error {
	args, err := e.evalOperands(frame, spawn.Args)
	if err != nil {
		return err
	}
	e.spawnFn(func() {
		if _, err := e.callNamed(spawn.Func, args); err != nil {
			e.reportLegionError(spawn.Func, err)
		}
	})
	return nil
}

func (e *Executor) execLoadIndex(frame *Frame, s *mir.LoadIndex) error {
	target, err := e.evalOperand(frame, s.Target)
	if err != nil {
		return err
	}
	indices, err := e.evalOperands(frame, s.Indices)
	if err != nil {
		return err
	}
	if len(indices) != 1 {
		return fmt.Errorf("ir: LoadIndex expects exactly one index, got %d", len(indices))
	}

	switch tv := target.(type) {
	case *rt.Slice:
		v, err := tv.Get(asInt64(indices[0]))
		if err != nil {
			frame.ExceptionSlot().Set(0, rt.NewString(err.Error()))
			frame.Set(s.Result.ID, nil)
			return nil
		}
		frame.Set(s.Result.ID, v)
		return nil
	case *rt.HashMap:
		key, ok := indices[0].(*rt.String)
		if !ok {
			return fmt.Errorf("ir: hashmap index must be a string, got %T", indices[0])
		}
		v, err := tv.Get(key.Data)
		if err != nil {
			frame.ExceptionSlot().Set(0, rt.NewString(err.Error()))
			frame.Set(s.Result.ID, nil)
			return nil
		}
		frame.Set(s.Result.ID, v)
		return nil
	case *TupleValue:
		i := asInt64(indices[0])
		if i < 0 || int(i) >= len(tv.Elements) {
			return fmt.Errorf("ir: tuple index %d out of range", i)
		}
		frame.Set(s.Result.ID, tv.Elements[i])
		return nil
	default:
		return fmt.Errorf("ir: LoadIndex on unsupported value %T", target)
	}
}

func (e *Executor) execStoreIndex(frame *Frame, s *mir.StoreIndex) error {
	target, err := e.evalOperand(frame, s.Target)
	if err != nil {
		return err
	}
	indices, err := e.evalOperands(frame, s.Indices)
	if err != nil {
		return err
	}
	val, err := e.evalOperand(frame, s.Value)
	if err != nil {
		return err
	}
	if len(indices) != 1 {
		return fmt.Errorf("ir: StoreIndex expects exactly one index, got %d", len(indices))
	}

	switch tv := target.(type) {
	case *rt.Slice:
		if err := tv.Set(asInt64(indices[0]), val); err != nil {
			frame.ExceptionSlot().Set(0, rt.NewString(err.Error()))
		}
		return nil
	case *rt.HashMap:
		key, ok := indices[0].(*rt.String)
		if !ok {
			return fmt.Errorf("ir: hashmap index must be a string, got %T", indices[0])
		}
		tv.Put(key.Data, val)
		return nil
	default:
		return fmt.Errorf("ir: StoreIndex on unsupported value %T", target)
	}
}

func typeName(t types.Type) string {
	if t == nil {
		return ""
	}
	return t.String()
}

// typeSize is a coarse byte-size table used only for sizeof()/alignof()
// builtins; it doesn't need to match the AOT backend's LLVM datalayout
// exactly since interpreted code never links against object code that
// also computed a size.
func typeSize(t types.Type) int64 {
	switch tt := t.(type) {
	case *types.Primitive:
		switch tt.Kind {
		case types.Int8:
			return 1
		case types.Int16:
			return 2
		case types.Int32:
			return 4
		case types.Bool:
			return 1
		case types.Void:
			return 0
		default:
			return 8
		}
	default:
		return 8
	}
}

func typeAlign(t types.Type) int64 {
	size := typeSize(t)
	if size == 0 {
		return 1
	}
	return size
}

func castValue(v interface{}, target types.Type) interface{} {
	prim, ok := target.(*types.Primitive)
	if !ok {
		return v
	}
	switch prim.Kind {
	case types.Float:
		return asFloat64(v)
	case types.Bool:
		return asBool(v)
	case types.String:
		if s, ok := v.(*rt.String); ok {
			return s
		}
		return v
	default:
		if isFloat(v) {
			return asInt64(v)
		}
		return asInt64(v)
	}
}
