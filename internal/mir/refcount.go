package mir

import "github.com/naml-lang/namlc/internal/types"

// isRefCounted reports whether values of t carry a heap header the runtime
// reference-counts (spec's ownership contract: every heap pointer that
// survives past end-of-scope needs a matching incref/decref pair).
func isRefCounted(t types.Type) bool {
	switch tt := t.(type) {
	case *types.Primitive:
		return tt.Kind == types.String
	case *types.Struct, *types.Enum, *types.Slice, *types.Map, *types.Array:
		return true
	case *types.Named:
		if tt.Ref != nil {
			return isRefCounted(tt.Ref)
		}
		return false
	case *types.GenericInstance:
		return isRefCounted(tt.Base)
	default:
		return false
	}
}

// increfBinding emits an Incref for a newly-bound local that aliases an
// already-owned heap value (the RHS is itself a local reference, not a
// freshly constructed value) — the second name is a second owner.
func (l *Lowerer) increfBinding(local Local, rhs Operand) {
	if !isRefCounted(local.Type) {
		return
	}
	if _, aliasesExisting := rhs.(*LocalRef); !aliasesExisting {
		return
	}
	l.currentBlock.Statements = append(l.currentBlock.Statements, &Incref{
		Target: &LocalRef{Local: local},
	})
}

// scopeSnapshot captures which local names are already bound before
// entering a block, so releaseScope can tell which locals were introduced
// by that block and need a decref when it exits.
func (l *Lowerer) scopeSnapshot() map[string]bool {
	before := make(map[string]bool, len(l.locals))
	for name := range l.locals {
		before[name] = true
	}
	return before
}

// releaseScope emits a Decref for every heap-typed local introduced since
// `before` was captured, except the one being handed off as the block's
// own value (ownership of that one transfers to the caller, it isn't
// dropped here). Only runs when the block fell through normally; a block
// that already terminated (return/break/continue) leaves cleanup to the
// terminator's own target scope.
func (l *Lowerer) releaseScope(before map[string]bool, keep Operand) {
	if l.currentBlock == nil || l.currentBlock.Terminator != nil {
		return
	}

	var keepID int = -1
	if ref, ok := keep.(*LocalRef); ok {
		keepID = ref.Local.ID
	}

	for name, local := range l.locals {
		if before[name] {
			continue
		}
		if local.ID == keepID {
			continue
		}
		if !isRefCounted(local.Type) {
			continue
		}
		l.currentBlock.Statements = append(l.currentBlock.Statements, &Decref{
			Target: &LocalRef{Local: local},
		})
	}
}
