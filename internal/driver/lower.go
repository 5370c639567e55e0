package driver

import (
	"github.com/pkg/errors"

	"github.com/naml-lang/namlc/internal/ast"
	"github.com/naml-lang/namlc/internal/mir"
	"github.com/naml-lang/namlc/internal/types"
)

// Lower runs AST-to-MIR lowering followed by monomorphization of generic
// functions, the two phases shared by both the AOT and JIT backends.
func (p *Pipeline) Lower(file *ast.File, checker *types.Checker) (*mir.Module, error) {
	p.Log.Debug("lowering AST to MIR")
	lowerer := mir.NewLowerer(checker.NodeTypes(), checker.CallTypeArgs)
	module, err := lowerer.LowerModule(file)
	if err != nil {
		return nil, errors.Wrap(err, "MIR lowering")
	}

	p.Log.Debug("monomorphizing generic functions")
	monomorphizer := mir.NewMonomorphizer(module)
	if err := monomorphizer.Monomorphize(); err != nil {
		return nil, errors.Wrap(err, "MIR monomorphization")
	}

	return module, nil
}
