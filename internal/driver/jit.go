package driver

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/naml-lang/namlc/internal/ir"
	"github.com/naml-lang/namlc/internal/mir"
)

// RunJIT executes module directly via internal/ir's interpreter instead of
// lowering to LLVM and shelling out to llc/clang - the backend for
// "namlc run --jit", which needs neither LLVM nor a system C compiler.
func (p *Pipeline) RunJIT(module *mir.Module, entry string, args ...interface{}) (interface{}, error) {
	exec := ir.NewExecutor(module)
	exec.OnLegionError(func(name string, err error) {
		p.Log.Error("legion failed", zap.String("legion", name), zap.Error(err))
	})

	result, err := exec.Run(entry, args...)
	if err != nil {
		return nil, errors.Wrapf(err, "interpreting %s", entry)
	}
	return result, nil
}
