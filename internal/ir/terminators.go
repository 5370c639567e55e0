package ir

import (
	"fmt"

	"github.com/naml-lang/namlc/internal/mir"
	"github.com/naml-lang/namlc/internal/rt"
)

// blockResult is what running one basic block's terminator produces: either
// a value returned from the enclosing function, or the next block to run.
type blockResult struct {
	returned bool
	value    interface{}
	next     *mir.BasicBlock
}

// execTerminator evaluates a basic block's terminator, mirroring
// mir2llvm's terminators.go but resolving to an interpreter decision
// (return vs. which successor block runs next) instead of emitting a
// `ret`/`br` instruction.
func (e *Executor) execTerminator(frame *Frame, term mir.Terminator) (blockResult, error) {
	switch t := term.(type) {
	case *mir.Return:
		if t.Value == nil {
			return blockResult{returned: true}, nil
		}
		v, err := e.evalOperand(frame, t.Value)
		if err != nil {
			return blockResult{}, err
		}
		return blockResult{returned: true, value: v}, nil

	case *mir.Goto:
		return blockResult{next: t.Target}, nil

	case *mir.Branch:
		v, err := e.evalOperand(frame, t.Condition)
		if err != nil {
			return blockResult{}, err
		}
		if asBool(v) {
			return blockResult{next: t.True}, nil
		}
		return blockResult{next: t.False}, nil

	case *mir.Select:
		return e.execSelect(frame, t)

	default:
		return blockResult{}, fmt.Errorf("ir: unsupported terminator type %T", term)
	}
}

// execSelect evaluates a select statement's cases, blocking until one of
// its channel operations (or a "default" case) is ready - the interpreter's
// counterpart to whatever channel multiplexing codegen the AOT backend
// would emit for the same construct.
func (e *Executor) execSelect(frame *Frame, sel *mir.Select) (blockResult, error) {
	var defaultCase *mir.SelectCase

	for {
		for i := range sel.Cases {
			c := &sel.Cases[i]
			switch c.Kind {
			case "default":
				defaultCase = c
				continue
			case "send":
				ch, sendVal, ok, err := e.resolveSelectSend(frame, c)
				if err != nil {
					return blockResult{}, err
				}
				if ok && ch.TrySend(sendVal) {
					return blockResult{next: c.Target}, nil
				}
			case "recv":
				ch, err := e.resolveSelectChannel(frame, c)
				if err != nil {
					return blockResult{}, err
				}
				if v, ok := ch.TryRecv(); ok {
					if c.Result != nil {
						frame.Set(c.Result.ID, v)
					}
					return blockResult{next: c.Target}, nil
				}
			}
		}
		if defaultCase != nil {
			return blockResult{next: defaultCase.Target}, nil
		}
		yieldFn()
	}
}

func (e *Executor) resolveSelectChannel(frame *Frame, c *mir.SelectCase) (*rt.Channel, error) {
	v, err := e.evalOperand(frame, c.Channel)
	if err != nil {
		return nil, err
	}
	ch, ok := v.(*rt.Channel)
	if !ok {
		return nil, fmt.Errorf("ir: select case on non-channel value %T", v)
	}
	return ch, nil
}

func (e *Executor) resolveSelectSend(frame *Frame, c *mir.SelectCase) (*rt.Channel, interface{}, bool, error) {
	ch, err := e.resolveSelectChannel(frame, c)
	if err != nil {
		return nil, nil, false, err
	}
	v, err := e.evalOperand(frame, c.Value)
	if err != nil {
		return nil, nil, false, err
	}
	return ch, v, true, nil
}
