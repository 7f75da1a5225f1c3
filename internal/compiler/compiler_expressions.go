package compiler

import (
	"github.com/pepper-lang/pepper/internal/ast"
	"github.com/pepper-lang/pepper/internal/code"
	"github.com/pepper-lang/pepper/internal/object"
	"github.com/pepper-lang/pepper/internal/symbol"
)

func (c *Compiler) compileExpression(expr ast.Expression) error {
	switch node := expr.(type) {
	case *ast.IntegerLiteral:
		c.emit(code.OpConstant, c.addConstant(&object.Integer{Value: node.Value}))

	case *ast.StringLiteral:
		c.emit(code.OpConstant, c.addConstant(&object.String{Value: node.Value}))

	case *ast.Boolean:
		if node.Value {
			c.emit(code.OpTrue)
		} else {
			c.emit(code.OpFalse)
		}

	case *ast.NullLiteral:
		c.emit(code.OpNull)

	case *ast.PrefixExpression:
		return c.compilePrefixExpression(node)

	case *ast.InfixExpression:
		return c.compileInfixExpression(node)

	case *ast.IfExpression:
		return c.compileIfExpression(node)

	case *ast.Identifier:
		return c.compileIdentifier(node)

	case *ast.AssignExpression:
		return c.compileAssignExpression(node)

	case *ast.ArrayLiteral:
		for _, el := range node.Elements {
			if err := c.compileExpression(el); err != nil {
				return err
			}
		}
		c.emit(code.OpArray, len(node.Elements))

	case *ast.HashLiteral:
		for _, p := range node.Pairs {
			if err := c.compileExpression(p.Key); err != nil {
				return err
			}
			if err := c.compileExpression(p.Value); err != nil {
				return err
			}
		}
		c.emit(code.OpHash, len(node.Pairs)*2)

	case *ast.IndexExpression:
		if err := c.compileExpression(node.Left); err != nil {
			return err
		}
		if err := c.compileExpression(node.Index); err != nil {
			return err
		}
		c.emit(code.OpIndex)

	case *ast.FunctionLiteral:
		return c.compileFunctionLiteral(node)

	case *ast.CallExpression:
		return c.compileCallExpression(node)

	default:
		return newErr(ErrMalformedAST, "unknown expression type %T", expr)
	}
	return nil
}

func (c *Compiler) compilePrefixExpression(node *ast.PrefixExpression) error {
	if err := c.compileExpression(node.Right); err != nil {
		return err
	}
	switch node.Operator {
	case "!":
		c.emit(code.OpBang)
	case "-":
		c.emit(code.OpMinus)
	default:
		return newErr(ErrMalformedAST, "unknown prefix operator %s", node.Operator)
	}
	return nil
}

// compileInfixExpression maps source operators to opcodes per spec.md
// §4.3: `<` and `<=` are compiled by swapping operands and emitting
// OP_GREATER_THAN / OP_GREATER_EQUAL, so the VM only ever implements
// greater-than comparisons.
func (c *Compiler) compileInfixExpression(node *ast.InfixExpression) error {
	if node.Operator == "<" || node.Operator == "<=" {
		if err := c.compileExpression(node.Right); err != nil {
			return err
		}
		if err := c.compileExpression(node.Left); err != nil {
			return err
		}
		if node.Operator == "<" {
			c.emit(code.OpGreaterThan)
		} else {
			c.emit(code.OpGreaterEqual)
		}
		return nil
	}

	if err := c.compileExpression(node.Left); err != nil {
		return err
	}
	if err := c.compileExpression(node.Right); err != nil {
		return err
	}

	switch node.Operator {
	case "+":
		c.emit(code.OpAdd)
	case "-":
		c.emit(code.OpSub)
	case "*":
		c.emit(code.OpMul)
	case "/":
		c.emit(code.OpDiv)
	case "%":
		c.emit(code.OpMod)
	case "==":
		c.emit(code.OpEqual)
	case "!=":
		c.emit(code.OpNotEqual)
	case ">":
		c.emit(code.OpGreaterThan)
	case ">=":
		c.emit(code.OpGreaterEqual)
	case "&&":
		c.emit(code.OpAnd)
	case "||":
		c.emit(code.OpOr)
	default:
		return newErr(ErrMalformedAST, "unknown infix operator %s", node.Operator)
	}
	return nil
}

// compileIfExpression follows spec.md §4.3's layout exactly: condition,
// jump-if-false to the else branch, consequence, jump to end, (patch),
// alternative or OP_NULL, (patch). A statement-position `if` whose branch
// ends with OP_POP has that trailing pop elided so the whole expression
// still yields a value on the stack for the enclosing context to pop (or
// keep, if it's itself in tail position of a function body).
func (c *Compiler) compileIfExpression(node *ast.IfExpression) error {
	if err := c.compileExpression(node.Condition); err != nil {
		return err
	}

	jumpNotTruthyPos := c.emit(code.OpJumpNotTruthy, 9999)

	if err := c.compileStatement(node.Consequence); err != nil {
		return err
	}
	if c.lastInstructionIs(code.OpPop) {
		c.removeLastPop()
	}

	jumpPos := c.emit(code.OpJump, 9999)

	afterConsequencePos := len(c.currentInstructions())
	c.changeOperand(jumpNotTruthyPos, afterConsequencePos)

	if node.Alternative == nil {
		c.emit(code.OpNull)
	} else {
		if err := c.compileStatement(node.Alternative); err != nil {
			return err
		}
		if c.lastInstructionIs(code.OpPop) {
			c.removeLastPop()
		}
	}

	afterAlternativePos := len(c.currentInstructions())
	c.changeOperand(jumpPos, afterAlternativePos)

	return nil
}

func (c *Compiler) compileIdentifier(node *ast.Identifier) error {
	sym, ok := c.symbolTable.Resolve(node.Value)
	if !ok {
		return newErr(ErrUnknownIdentifier, "unknown identifier: %s", node.Value)
	}
	c.emitLoadSymbol(sym)
	return nil
}

func (c *Compiler) emitLoadSymbol(sym symbol.Symbol) {
	switch sym.Scope {
	case symbol.GlobalScope:
		c.emit(code.OpGetGlobal, sym.Index)
	case symbol.LocalScope:
		c.emit(code.OpGetLocal, sym.Index)
	case symbol.FreeScope:
		c.emit(code.OpGetFree, sym.Index)
	case symbol.BuiltinScope:
		c.emit(code.OpGetBuiltin, sym.Index)
	case symbol.FunctionScope:
		c.emit(code.OpCurrentClosure)
	}
}

// compileAssignExpression compiles `target = value`. Target must be an
// identifier bound to a global or local (spec.md §4.3: only OP_SET_GLOBAL
// and OP_SET_LOCAL exist — free variables are captured by value at
// closure-creation time, so there's no slot to write back through), or an
// index expression `arr[i] = v`.
func (c *Compiler) compileAssignExpression(node *ast.AssignExpression) error {
	switch target := node.Target.(type) {
	case *ast.Identifier:
		sym, ok := c.symbolTable.Resolve(target.Value)
		if !ok {
			return newErr(ErrUnknownIdentifier, "unknown identifier: %s", target.Value)
		}
		if sym.Scope != symbol.GlobalScope && sym.Scope != symbol.LocalScope {
			return newErr(ErrInvalidAssignTarget, "cannot assign to %s", target.Value)
		}
		if err := c.compileExpression(node.Value); err != nil {
			return err
		}
		c.emitSetSymbol(sym)
		// Assignment is itself an expression: leave the assigned value on
		// the stack so `x = (y = 1)` and statement-position `x = 1;`
		// (popped by the enclosing ExpressionStatement) both work.
		c.emitLoadSymbol(sym)
		return nil

	case *ast.IndexExpression:
		// spec.md §4.3: "arr[i] = v: compile v, arr, i, then OP_SET_INDEX."
		if err := c.compileExpression(node.Value); err != nil {
			return err
		}
		if err := c.compileExpression(target.Left); err != nil {
			return err
		}
		if err := c.compileExpression(target.Index); err != nil {
			return err
		}
		c.emit(code.OpSetIndex)
		return nil

	default:
		return newErr(ErrInvalidAssignTarget, "invalid assignment target %T", node.Target)
	}
}

func (c *Compiler) compileFunctionLiteral(node *ast.FunctionLiteral) error {
	c.enterScope()

	if node.Name != "" {
		c.symbolTable.DefineFunctionName(node.Name)
	}
	for _, p := range node.Parameters {
		c.symbolTable.Define(p.Value)
	}

	if err := c.compileStatement(node.Body); err != nil {
		return err
	}

	// spec.md §4.3 step 2: an implicit trailing pop becomes a value
	// return; an empty or non-return-terminated body gets an implicit
	// null return appended.
	if c.lastInstructionIs(code.OpPop) {
		c.replaceLastPopWithReturn()
	}
	if !c.lastInstructionIs(code.OpReturnValue) && !c.lastInstructionIs(code.OpReturn) {
		c.emit(code.OpReturn)
	}

	instructions, popped := c.leaveScope()

	for _, sym := range popped.FreeSymbols {
		c.emitLoadSymbol(sym)
	}

	compiledFn := &object.CompiledFunction{
		Instructions:  instructions,
		NumLocals:     popped.NumDefinitions,
		NumParameters: len(node.Parameters),
		Name:          node.Name,
	}
	fnIndex := c.addConstant(compiledFn)
	c.emit(code.OpClosure, fnIndex, len(popped.FreeSymbols))
	return nil
}

func (c *Compiler) compileCallExpression(node *ast.CallExpression) error {
	if err := c.compileExpression(node.Function); err != nil {
		return err
	}
	for _, a := range node.Arguments {
		if err := c.compileExpression(a); err != nil {
			return err
		}
	}
	c.emit(code.OpCall, len(node.Arguments))
	return nil
}
