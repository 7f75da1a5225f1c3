// Package compiler implements the single-pass compiler of spec.md §4.3: a
// depth-first walk of the AST that emits bytecode, resolves names through a
// symbol.Table, patches forward jumps, and builds the CompiledFunction
// constants a closure wraps at runtime.
//
// Grounded on the teacher's compiler.go/compiler_expressions.go/
// compiler_statements.go/compiler_scope.go split (funvibe-funxy/internal/vm),
// generalized down to the Monkey-style single-pass shape spec.md actually
// specifies: the teacher's compiler also does type inference, trait
// dispatch and monomorphization, none of which spec.md's language has.
package compiler

import (
	"fmt"

	"github.com/pepper-lang/pepper/internal/ast"
	"github.com/pepper-lang/pepper/internal/builtins"
	"github.com/pepper-lang/pepper/internal/code"
	"github.com/pepper-lang/pepper/internal/object"
	"github.com/pepper-lang/pepper/internal/symbol"
)

// Bytecode is the outermost-scope program the compiler hands to the VM:
// instructions plus the constant pool, per spec.md §3.
type Bytecode struct {
	Instructions code.Instructions
	Constants    []object.Object
}

// CompileError is the taxonomy spec.md §7 names for the compiler: unknown
// identifier, invalid assign target, break/continue outside a loop,
// malformed AST. Each carries a fixed Code so callers can branch on the
// condition without parsing the message.
type CompileError struct {
	Code    string
	Message string
}

func (e *CompileError) Error() string { return e.Message }

const (
	ErrUnknownIdentifier   = "unknown_identifier"
	ErrInvalidAssignTarget = "invalid_assign_target"
	ErrUnresolvedBreak     = "unresolved_break"
	ErrUnresolvedContinue  = "unresolved_continue"
	ErrMalformedAST        = "malformed_ast"
)

func newErr(code, format string, args ...interface{}) *CompileError {
	return &CompileError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// emittedInstruction records an opcode and the byte offset it was emitted
// at, so the compiler can elide a trailing OP_POP or rewrite it into a
// return instruction (spec.md §4.3, function-body compilation step 2).
type emittedInstruction struct {
	Opcode   code.Opcode
	Position int
}

// compilationScope is one entry in the per-function scope stack of
// spec.md §3: a growable instructions buffer plus the last two emitted
// instructions, used to elide redundant pops and to patch conditional
// jumps.
type compilationScope struct {
	instructions        code.Instructions
	lastInstruction     emittedInstruction
	previousInstruction emittedInstruction
}

// loopContext tracks the break/continue patch lists and continue-target
// offset for one lexically enclosing loop (spec.md §4.3, "Loops and
// branches").
type loopContext struct {
	continueTarget int   // fixed offset (while-loops); -1 means deferred
	breakJumps     []int // placeholder jump positions, backfilled at loop exit
	continueJumps  []int // placeholder jump positions, backfilled once known (for-loops only)
}

// Compiler drives the AST walk. The state it compiles against (symbol
// table and constant pool) can span many REPL submissions (spec.md §3's
// "Global lifetime contract"): NewWithState builds a fresh Compiler over
// the state an earlier one left behind.
type Compiler struct {
	constants []object.Object

	symbolTable *symbol.Table

	scopes     []compilationScope
	scopeIndex int

	loops []loopContext
}

// New constructs a Compiler with a fresh symbol table and constant pool,
// with the builtin registry pre-defined at their fixed indices.
func New() *Compiler {
	symTable := symbol.New()
	for i, b := range builtins.Builtins {
		symTable.DefineBuiltin(i, b.Name)
	}

	return &Compiler{
		constants:   []object.Object{},
		symbolTable: symTable,
		scopes:      []compilationScope{{}},
	}
}

// NewWithState constructs a Compiler that reuses an existing symbol table
// and constant pool, so that a REPL's successive submissions extend prior
// state instead of starting over (spec.md §4.3, compile_with_state).
func NewWithState(symTable *symbol.Table, constants []object.Object) *Compiler {
	return &Compiler{
		constants:   constants,
		symbolTable: symTable,
		scopes:      []compilationScope{{}},
	}
}

// SymbolTable exposes the compiler's symbol table so a REPL can carry it
// into the next submission's NewWithState call.
func (c *Compiler) SymbolTable() *symbol.Table { return c.symbolTable }

func (c *Compiler) currentInstructions() code.Instructions {
	return c.scopes[c.scopeIndex].instructions
}

// Compile compiles program as the outermost function body.
func (c *Compiler) Compile(program *ast.Program) error {
	for _, s := range program.Statements {
		if err := c.compileStatement(s); err != nil {
			return err
		}
	}
	return nil
}

// Bytecode returns the outermost scope's instructions and the constant
// pool, per spec.md §4.3's get_bytecode().
func (c *Compiler) Bytecode() *Bytecode {
	return &Bytecode{
		Instructions: c.currentInstructions(),
		Constants:    c.constants,
	}
}

// ---- emit / patch helpers ----

func (c *Compiler) addConstant(obj object.Object) int {
	c.constants = append(c.constants, obj)
	return len(c.constants) - 1
}

// emit assembles ins, appends it to the current scope's buffer, and
// records it as last/previous so a later compileStatement can elide a
// trailing pop or patch a jump target.
func (c *Compiler) emit(op code.Opcode, operands ...int) int {
	ins := code.Make(op, operands...)
	pos := len(c.currentInstructions())

	scope := &c.scopes[c.scopeIndex]
	scope.instructions = append(scope.instructions, ins...)

	scope.previousInstruction = scope.lastInstruction
	scope.lastInstruction = emittedInstruction{Opcode: op, Position: pos}
	return pos
}

func (c *Compiler) lastInstructionIs(op code.Opcode) bool {
	if len(c.currentInstructions()) == 0 {
		return false
	}
	return c.scopes[c.scopeIndex].lastInstruction.Opcode == op
}

// removeLastPop drops the trailing OP_POP from the current scope's buffer
// (used when an expression's value must survive, e.g. the last statement
// of a function body, or a statement-position `if` whose branch ends in a
// pop per spec.md §4.3).
func (c *Compiler) removeLastPop() {
	scope := &c.scopes[c.scopeIndex]
	last := scope.lastInstruction
	scope.instructions = scope.instructions[:last.Position]
	scope.lastInstruction = scope.previousInstruction
}

// replaceInstruction overwrites the bytes at pos with newInstruction,
// which must be the same length as what's already there — used for jump
// back-patching (spec.md §4.3, "Jump patching") and for rewriting a
// trailing OP_POP into OP_RETURN_VALUE.
func (c *Compiler) replaceInstruction(pos int, newInstruction []byte) {
	ins := c.currentInstructions()
	copy(ins[pos:], newInstruction)
}

// changeOperand rewrites the operand of the instruction at pos, keeping
// its opcode. Used exclusively for 2-byte jump targets.
func (c *Compiler) changeOperand(pos int, operand int) {
	op := code.Opcode(c.currentInstructions()[pos])
	newInstruction := code.Make(op, operand)
	c.replaceInstruction(pos, newInstruction)
}

func (c *Compiler) replaceLastPopWithReturn() {
	lastPos := c.scopes[c.scopeIndex].lastInstruction.Position
	newInstruction := code.Make(code.OpReturnValue)
	c.replaceInstruction(lastPos, newInstruction)
	c.scopes[c.scopeIndex].lastInstruction.Opcode = code.OpReturnValue
}

// ---- scope stack (function compilation) ----

func (c *Compiler) enterScope() {
	c.scopes = append(c.scopes, compilationScope{})
	c.scopeIndex++
	c.symbolTable.PushFunctionScope()
}

// leaveScope pops both the compilation scope and the symbol-table scope
// together, returning the instructions the popped scope accumulated plus
// the free/local-count bookkeeping the enclosing OP_CLOSURE emission
// needs (spec.md §4.3, function compilation steps 3-6).
func (c *Compiler) leaveScope() (code.Instructions, symbol.Popped) {
	instructions := c.currentInstructions()

	c.scopes = c.scopes[:len(c.scopes)-1]
	c.scopeIndex--

	popped := c.symbolTable.PopScope()
	return instructions, popped
}
