package mir

import (
	"fmt"
	"sort"

	"github.com/naml-lang/namlc/internal/ast"
	"github.com/naml-lang/namlc/internal/types"
)

// lowerSpawnStmt lowers a spawn statement (creates and starts a legion)
func (l *Lowerer) lowerSpawnStmt(stmt *ast.SpawnStmt) error {
	// Determine spawn form and get function name + arguments
	var funcName string
	var args []Operand
	var err error

	if stmt.Call != nil {
		// Form 1: spawn worker(args)
		// Extract function name
		funcName = l.getCalleeName(stmt.Call.Callee)
		if funcName == "" {
			return fmt.Errorf("cannot determine function name for spawn")
		}

		// Lower arguments
		args, err = l.lowerArgs(stmt.Call.Args)
		if err != nil {
			return err
		}

	} else if stmt.Block != nil {
		// Form 2: spawn { ... }
		// Free variables referenced in the block become the wrapper
		// function's leading parameters; pass the matching operands from
		// the enclosing scope as Args in the same order.
		captures := l.captureLocals(stmt.Block)
		funcName = l.createBlockWrapper(stmt.Block, captures)
		args = capturesToArgs(captures)

	} else if stmt.FunctionLiteral != nil {
		// Form 3: spawn |x| { ... }(args)
		// The literal's own params are supplied by stmt.Args at the call
		// site; anything it references beyond those params is captured
		// from the enclosing scope and passed first.
		captures := l.captureLocals(stmt.FunctionLiteral)
		funcName = l.createFunctionLiteralWrapper(stmt.FunctionLiteral, captures)

		callArgs, lowerErr := l.lowerArgs(stmt.Args)
		if lowerErr != nil {
			return lowerErr
		}
		args = append(capturesToArgs(captures), callArgs...)

	} else {
		return fmt.Errorf("spawn statement must have a call, block, or function literal")
	}

	// Get type arguments if this is a generic function call
	var typeArgs []types.Type
	if stmt.Call != nil {
		if callTypeArgs, ok := l.CallTypeArgs[stmt.Call]; ok {
			typeArgs = callTypeArgs
		}
	}

	// Add Spawn instruction to current block
	l.currentBlock.Statements = append(l.currentBlock.Statements, &Spawn{
		Func:     funcName,
		Args:     args,
		TypeArgs: typeArgs,
	})

	return nil
}

// freeIdentNames returns the set of identifier names referenced under node
// that are not bound by a let, parameter, or for-loop index/iterator inside
// node itself - the names a spawned wrapper function needs captured from
// its enclosing scope.
func freeIdentNames(node ast.Node) map[string]bool {
	bound := make(map[string]bool)
	used := make(map[string]bool)

	ast.Walk(node, func(n ast.Node) bool {
		switch nn := n.(type) {
		case *ast.LetStmt:
			if nn.Name != nil {
				bound[nn.Name.Name] = true
			}
		case *ast.Param:
			if nn.Name != nil {
				bound[nn.Name.Name] = true
			}
		case *ast.ForStmt:
			if nn.Index != nil {
				bound[nn.Index.Name] = true
			}
			if nn.Iterator != nil {
				bound[nn.Iterator.Name] = true
			}
		case *ast.Ident:
			used[nn.Name] = true
		}
		return true
	})

	free := make(map[string]bool)
	for name := range used {
		if !bound[name] {
			free[name] = true
		}
	}
	return free
}

// captureLocals resolves the free identifiers under node against the
// lowerer's current scope, returning the enclosing Locals a spawned wrapper
// must capture, in a stable order (sorted by name).
func (l *Lowerer) captureLocals(node ast.Node) []Local {
	free := freeIdentNames(node)
	captures := make([]Local, 0, len(free))
	for name, local := range l.locals {
		if free[name] {
			captures = append(captures, local)
		}
	}
	sort.Slice(captures, func(i, j int) bool { return captures[i].Name < captures[j].Name })
	return captures
}

// createBlockWrapper creates a MIR function for a spawn block. captures are
// the enclosing Locals the block's body refers to (from captureLocals); they
// become the wrapper's leading parameters, pre-seeded into its scope so the
// block's own statements resolve them by name.
func (l *Lowerer) createBlockWrapper(block *ast.BlockExpr, captures []Local) string {
	// Generate unique function name
	funcName := fmt.Sprintf("spawn_block_%d", l.localCounter)
	l.localCounter++

	mirFunc := &Function{
		Name:       funcName,
		TypeParams: []types.TypeParam{},
		Params:     captures,
		ReturnType: &types.Primitive{Kind: types.Void},
		Locals:     []Local{},
		Blocks:     []*BasicBlock{},
	}

	// Create entry block
	entryBlock := &BasicBlock{
		Label:      "entry",
		Statements: []Statement{},
		Terminator: nil,
	}
	mirFunc.Blocks = append(mirFunc.Blocks, entryBlock)
	mirFunc.Entry = entryBlock

	// Save current lowerer state
	oldFunc := l.currentFunc
	oldBlock := l.currentBlock
	oldLocals := l.locals

	// Set up new context for lowering the block, pre-seeded with captures
	l.currentFunc = mirFunc
	l.currentBlock = entryBlock
	l.locals = make(map[string]Local, len(captures))
	for _, c := range captures {
		l.locals[c.Name] = c
	}

	// Lower the block statements
	for _, stmt := range block.Stmts {
		if err := l.lowerStmt(stmt); err != nil {
			// If lowering fails, restore state and return error name
			// In production, we'd propagate the error properly
			l.currentFunc = oldFunc
			l.currentBlock = oldBlock
			l.locals = oldLocals
			return funcName // Return name anyway for now
		}
	}

	// Add return terminator
	if entryBlock.Terminator == nil {
		entryBlock.Terminator = &Return{Value: nil}
	}

	// Restore lowerer state
	l.currentFunc = oldFunc
	l.currentBlock = oldBlock
	l.locals = oldLocals

	// Add the new function to the module
	l.Module.Functions = append(l.Module.Functions, mirFunc)

	return funcName
}

// createFunctionLiteralWrapper creates a MIR function for a spawn function
// literal. captures are the enclosing Locals the literal's body refers to
// beyond its own declared params (from captureLocals); they become leading
// parameters ahead of the literal's declared ones.
func (l *Lowerer) createFunctionLiteralWrapper(lit *ast.FunctionLiteral, captures []Local) string {
	// Generate unique function name
	funcName := fmt.Sprintf("spawn_lambda_%d", l.localCounter)
	l.localCounter++

	// Create parameters from the function literal, each with a globally
	// unique Local.ID so they can't collide with the captures' IDs.
	declared := make([]Local, len(lit.Params))
	for i, param := range lit.Params {
		paramType := l.getType(param, l.TypeInfo)
		if paramType == nil {
			paramType = &types.Primitive{Kind: types.Int} // fallback
		}
		declared[i] = l.newLocal(param.Name.Name, paramType)
	}

	params := append(append([]Local{}, captures...), declared...)

	// Determine return type (assume void for now)
	returnType := &types.Primitive{Kind: types.Void}

	// Create a new MIR function
	mirFunc := &Function{
		Name:       funcName,
		TypeParams: []types.TypeParam{},
		Params:     params,
		ReturnType: returnType,
		Locals:     []Local{},
		Blocks:     []*BasicBlock{},
	}

	// Create entry block
	entryBlock := &BasicBlock{
		Label:      "entry",
		Statements: []Statement{},
		Terminator: nil,
	}
	mirFunc.Blocks = append(mirFunc.Blocks, entryBlock)
	mirFunc.Entry = entryBlock

	// Save current lowerer state
	oldFunc := l.currentFunc
	oldBlock := l.currentBlock
	oldLocals := l.locals

	// Set up new context
	l.currentFunc = mirFunc
	l.currentBlock = entryBlock
	l.locals = make(map[string]Local)

	// Add parameters (captures, then declared) to locals
	for _, param := range params {
		l.locals[param.Name] = param
	}

	// Lower the function literal body
	for _, stmt := range lit.Body.Stmts {
		if err := l.lowerStmt(stmt); err != nil {
			// Restore state on error
			l.currentFunc = oldFunc
			l.currentBlock = oldBlock
			l.locals = oldLocals
			return funcName
		}
	}

	// Add return terminator if not present
	if entryBlock.Terminator == nil {
		entryBlock.Terminator = &Return{Value: nil}
	}

	// Restore state
	l.currentFunc = oldFunc
	l.currentBlock = oldBlock
	l.locals = oldLocals

	// Add function to module
	l.Module.Functions = append(l.Module.Functions, mirFunc)

	return funcName
}

// capturesToArgs turns a wrapper's captured Locals into operands referencing
// those locals in the enclosing scope, in the same order as the wrapper's
// leading parameters.
func capturesToArgs(captures []Local) []Operand {
	args := make([]Operand, len(captures))
	for i, c := range captures {
		args[i] = &LocalRef{Local: c}
	}
	return args
}

// lowerArgs lowers a slice of argument expressions to operands
func (l *Lowerer) lowerArgs(args []ast.Expr) ([]Operand, error) {
	operands := make([]Operand, 0, len(args))
	for _, arg := range args {
		op, err := l.lowerExpr(arg)
		if err != nil {
			return nil, err
		}
		operands = append(operands, op)
	}
	return operands, nil
}
