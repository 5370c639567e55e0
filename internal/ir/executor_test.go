package ir

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/naml-lang/namlc/internal/mir"
	"github.com/naml-lang/namlc/internal/rt"
	"github.com/naml-lang/namlc/internal/types"
)

// addFunction builds a MIR function `fn add(a, b int) int { return a + b }`
// by hand, exercising the Call/__add__/Return path end to end.
func addFunction() *mir.Function {
	a := mir.Local{ID: 0, Name: "a", Type: types.TypeInt}
	b := mir.Local{ID: 1, Name: "b", Type: types.TypeInt}
	result := mir.Local{ID: 2, Name: "result", Type: types.TypeInt}

	entry := &mir.BasicBlock{Label: "entry"}
	entry.Statements = []mir.Statement{
		&mir.Call{
			Result: result,
			Func:   "__add__",
			Args:   []mir.Operand{&mir.LocalRef{Local: a}, &mir.LocalRef{Local: b}},
		},
	}
	entry.Terminator = &mir.Return{Value: &mir.LocalRef{Local: result}}

	return &mir.Function{
		Name:       "add",
		Params:     []mir.Local{a, b},
		ReturnType: types.TypeInt,
		Blocks:     []*mir.BasicBlock{entry},
		Entry:      entry,
	}
}

func TestExecutorRunsArithmetic(t *testing.T) {
	module := &mir.Module{Functions: []*mir.Function{addFunction()}}
	exec := NewExecutor(module)

	result, err := exec.Run("add", int64(2), int64(3))
	require.NoError(t, err)
	assert.Equal(t, int64(5), result)
}

// branchFunction builds `fn max(a, b int) int { if a < b { return b } return a }`.
func branchFunction() *mir.Function {
	a := mir.Local{ID: 0, Name: "a", Type: types.TypeInt}
	b := mir.Local{ID: 1, Name: "b", Type: types.TypeInt}
	cond := mir.Local{ID: 2, Name: "cond", Type: types.TypeBool}

	thenBlock := &mir.BasicBlock{Label: "then"}
	thenBlock.Terminator = &mir.Return{Value: &mir.LocalRef{Local: b}}

	elseBlock := &mir.BasicBlock{Label: "else"}
	elseBlock.Terminator = &mir.Return{Value: &mir.LocalRef{Local: a}}

	entry := &mir.BasicBlock{Label: "entry"}
	entry.Statements = []mir.Statement{
		&mir.Call{
			Result: cond,
			Func:   "__lt__",
			Args:   []mir.Operand{&mir.LocalRef{Local: a}, &mir.LocalRef{Local: b}},
		},
	}
	entry.Terminator = &mir.Branch{Condition: &mir.LocalRef{Local: cond}, True: thenBlock, False: elseBlock}

	return &mir.Function{
		Name:       "max",
		Params:     []mir.Local{a, b},
		ReturnType: types.TypeInt,
		Blocks:     []*mir.BasicBlock{entry, thenBlock, elseBlock},
		Entry:      entry,
	}
}

func TestExecutorRunsBranch(t *testing.T) {
	module := &mir.Module{Functions: []*mir.Function{branchFunction()}}
	exec := NewExecutor(module)

	result, err := exec.Run("max", int64(2), int64(7))
	require.NoError(t, err)
	assert.Equal(t, int64(7), result)

	result, err = exec.Run("max", int64(9), int64(1))
	require.NoError(t, err)
	assert.Equal(t, int64(9), result)
}

func TestExecutorDivisionByZeroSetsExceptionSlot(t *testing.T) {
	a := mir.Local{ID: 0, Name: "a", Type: types.TypeInt}
	b := mir.Local{ID: 1, Name: "b", Type: types.TypeInt}
	quotient := mir.Local{ID: 2, Name: "quotient", Type: types.TypeInt}
	checked := mir.Local{ID: 3, Name: "checked", Type: types.TypeBool}

	entry := &mir.BasicBlock{Label: "entry"}
	entry.Statements = []mir.Statement{
		&mir.Call{Result: quotient, Func: "__div__", Args: []mir.Operand{&mir.LocalRef{Local: a}, &mir.LocalRef{Local: b}}},
		&mir.ExceptionCheck{Result: checked},
	}
	entry.Terminator = &mir.Return{Value: &mir.LocalRef{Local: checked}}

	fn := &mir.Function{
		Name:       "divcheck",
		Params:     []mir.Local{a, b},
		ReturnType: types.TypeBool,
		Blocks:     []*mir.BasicBlock{entry},
		Entry:      entry,
	}

	exec := NewExecutor(&mir.Module{Functions: []*mir.Function{fn}})
	result, err := exec.Run("divcheck", int64(10), int64(0))
	require.NoError(t, err)
	assert.Equal(t, true, result)
}

// TestExecutorSpawnRunsLegionToCompletion builds `fn main() { spawn worker(); }`
// where worker pushes onto a shared slice, exercising execSpawn + legion
// wait-for-completion.
func TestExecutorSpawnRunsLegionToCompletion(t *testing.T) {
	sliceLocal := mir.Local{ID: 0, Name: "s", Type: &types.Slice{Elem: types.TypeInt}}
	vLocal := mir.Local{ID: 1, Name: "v", Type: types.TypeInt}

	workerEntry := &mir.BasicBlock{Label: "entry"}
	workerEntry.Statements = []mir.Statement{
		&mir.Call{
			Result: mir.Local{ID: 2, Name: "_", Type: types.TypeVoid},
			Func:   "push",
			Args:   []mir.Operand{&mir.LocalRef{Local: sliceLocal}, &mir.LocalRef{Local: vLocal}},
		},
	}
	workerEntry.Terminator = &mir.Return{}

	worker := &mir.Function{
		Name:       "spawn_lambda_0",
		Params:     []mir.Local{sliceLocal, vLocal},
		ReturnType: types.TypeVoid,
		Blocks:     []*mir.BasicBlock{workerEntry},
		Entry:      workerEntry,
	}

	mainEntry := &mir.BasicBlock{Label: "entry"}
	mainEntry.Statements = []mir.Statement{
		&mir.Spawn{Func: "spawn_lambda_0", Args: []mir.Operand{&mir.LocalRef{Local: sliceLocal}, &mir.LocalRef{Local: vLocal}}},
	}
	mainEntry.Terminator = &mir.Return{}

	main := &mir.Function{
		Name:       "main",
		Params:     []mir.Local{sliceLocal, vLocal},
		ReturnType: types.TypeVoid,
		Blocks:     []*mir.BasicBlock{mainEntry},
		Entry:      mainEntry,
	}

	exec := NewExecutor(&mir.Module{Functions: []*mir.Function{main, worker}})
	shared := rt.NewSlice(1)

	_, err := exec.Run("main", shared, int64(42))
	require.NoError(t, err)

	require.Eventually(t, func() bool { return shared.Len() == 1 }, time.Second, time.Millisecond)
	v, err := shared.Get(0)
	require.NoError(t, err)
	assert.Equal(t, int64(42), v)
}
