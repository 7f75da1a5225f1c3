package compiler

import (
	"github.com/pepper-lang/pepper/internal/ast"
	"github.com/pepper-lang/pepper/internal/code"
	"github.com/pepper-lang/pepper/internal/symbol"
)

func (c *Compiler) compileStatement(stmt ast.Statement) error {
	switch node := stmt.(type) {
	case *ast.ExpressionStatement:
		if err := c.compileExpression(node.Expression); err != nil {
			return err
		}
		c.emit(code.OpPop)

	case *ast.LetStatement:
		return c.compileLetStatement(node)

	case *ast.ReturnStatement:
		return c.compileReturnStatement(node)

	case *ast.BlockStatement:
		for _, s := range node.Statements {
			if err := c.compileStatement(s); err != nil {
				return err
			}
		}

	case *ast.WhileStatement:
		return c.compileWhileStatement(node)

	case *ast.ForStatement:
		return c.compileForStatement(node)

	case *ast.BreakStatement:
		return c.compileBreakStatement(node)

	case *ast.ContinueStatement:
		return c.compileContinueStatement(node)

	default:
		return newErr(ErrMalformedAST, "unknown statement type %T", stmt)
	}
	return nil
}

// compileLetStatement compiles the bound expression, then defines the
// name in the current scope and emits the matching OP_SET_* — spec.md
// §4.3's "Variable resolution": global if the current scope is
// outermost, else local.
func (c *Compiler) compileLetStatement(stmt *ast.LetStatement) error {
	if err := c.compileExpression(stmt.Value); err != nil {
		return err
	}

	sym := c.symbolTable.Define(stmt.Name.Value)
	c.emitSetSymbol(sym)
	return nil
}

func (c *Compiler) emitSetSymbol(sym symbol.Symbol) {
	switch sym.Scope {
	case symbol.GlobalScope:
		c.emit(code.OpSetGlobal, sym.Index)
	default:
		c.emit(code.OpSetLocal, sym.Index)
	}
}

func (c *Compiler) compileReturnStatement(stmt *ast.ReturnStatement) error {
	if stmt.ReturnValue == nil {
		c.emit(code.OpReturn)
		return nil
	}
	if err := c.compileExpression(stmt.ReturnValue); err != nil {
		return err
	}
	c.emit(code.OpReturnValue)
	return nil
}

// compileWhileStatement implements spec.md §4.3's while-loop shape:
// record a start offset, compile the condition, jump past the body if
// falsy, compile the body, jump back to start, patch the exit.
func (c *Compiler) compileWhileStatement(stmt *ast.WhileStatement) error {
	startPos := len(c.currentInstructions())

	if err := c.compileExpression(stmt.Condition); err != nil {
		return err
	}
	exitJumpPos := c.emit(code.OpJumpNotTruthy, 9999)

	c.loops = append(c.loops, loopContext{continueTarget: startPos})

	if err := c.compileStatement(stmt.Body); err != nil {
		return err
	}
	c.emit(code.OpJump, startPos)

	afterBodyPos := len(c.currentInstructions())
	c.changeOperand(exitJumpPos, afterBodyPos)

	loop := c.loops[len(c.loops)-1]
	c.loops = c.loops[:len(c.loops)-1]
	for _, pos := range loop.breakJumps {
		c.changeOperand(pos, afterBodyPos)
	}
	return nil
}

// compileForStatement lowers `for (init; cond; post) body` to
// `{ init; while (cond) { body; post; } }` inside a dedicated block
// scope, per spec.md §4.3, so loop-local `let`s don't leak past the loop
// and `continue` still lands on the post clause rather than skipping it.
func (c *Compiler) compileForStatement(stmt *ast.ForStatement) error {
	c.symbolTable.PushBlockScope()
	defer c.symbolTable.PopScope()

	if stmt.Init != nil {
		if err := c.compileStatement(stmt.Init); err != nil {
			return err
		}
	}

	startPos := len(c.currentInstructions())

	var exitJumpPos int
	if stmt.Condition != nil {
		if err := c.compileExpression(stmt.Condition); err != nil {
			return err
		}
		exitJumpPos = c.emit(code.OpJumpNotTruthy, 9999)
	}

	c.loops = append(c.loops, loopContext{continueTarget: -1})

	if err := c.compileStatement(stmt.Body); err != nil {
		return err
	}

	// continue must still run Post before looping, so its target is the
	// post clause's offset, known only once Post itself is compiled; every
	// continue inside Body emitted a placeholder jump, backfilled here.
	postPos := len(c.currentInstructions())
	if stmt.Post != nil {
		if err := c.compileStatement(stmt.Post); err != nil {
			return err
		}
	}
	c.emit(code.OpJump, startPos)

	afterBodyPos := len(c.currentInstructions())
	if stmt.Condition != nil {
		c.changeOperand(exitJumpPos, afterBodyPos)
	}

	loop := c.loops[len(c.loops)-1]
	c.loops = c.loops[:len(c.loops)-1]
	for _, pos := range loop.breakJumps {
		c.changeOperand(pos, afterBodyPos)
	}
	for _, pos := range loop.continueJumps {
		c.changeOperand(pos, postPos)
	}
	return nil
}

// compileBreakStatement and compileContinueStatement emit placeholder
// jumps and record them on the innermost loopContext to be backfilled
// once that loop's boundaries are known (spec.md §4.3). Used outside any
// loop, both are CompileErrors.
func (c *Compiler) compileBreakStatement(stmt *ast.BreakStatement) error {
	if len(c.loops) == 0 {
		return newErr(ErrUnresolvedBreak, "break outside loop")
	}
	pos := c.emit(code.OpJump, 9999)
	top := len(c.loops) - 1
	c.loops[top].breakJumps = append(c.loops[top].breakJumps, pos)
	return nil
}

// compileContinueStatement jumps straight to the condition re-check for a
// while-loop (continueTarget known up front), or emits a placeholder for a
// for-loop, backfilled once the post clause's offset is known
// (compileForStatement).
func (c *Compiler) compileContinueStatement(stmt *ast.ContinueStatement) error {
	if len(c.loops) == 0 {
		return newErr(ErrUnresolvedContinue, "continue outside loop")
	}
	top := len(c.loops) - 1
	if target := c.loops[top].continueTarget; target >= 0 {
		c.emit(code.OpJump, target)
		return nil
	}
	pos := c.emit(code.OpJump, 9999)
	c.loops[top].continueJumps = append(c.loops[top].continueJumps, pos)
	return nil
}
