// Package repl implements the read-eval-print loop of spec.md §6: prompt
// ">> ", read a line, compile it as a program, execute, print the last
// popped stack value unless it's a function value (CompiledFunction or
// Closure) or a Builtin. Parse,
// compile, and runtime errors are printed and the loop continues with
// state intact.
//
// Grounded on reusee-tai's cmd/taigo/repl.go for the readline wiring
// (history file, Ctrl-C/Ctrl-D handling) and the original's tny.c repl()
// for the persistence contract (spec.md §3's "Global lifetime contract").
package repl

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/chzyer/readline"
	"github.com/mattn/go-isatty"

	"github.com/pepper-lang/pepper/internal/compiler"
	"github.com/pepper-lang/pepper/internal/config"
	"github.com/pepper-lang/pepper/internal/lexer"
	"github.com/pepper-lang/pepper/internal/object"
	"github.com/pepper-lang/pepper/internal/parser"
	"github.com/pepper-lang/pepper/internal/symbol"
	"github.com/pepper-lang/pepper/internal/vm"
)

const prompt = ">> "

// REPL owns the state that spec.md §3 says must persist across
// submissions: the symbol table, the constant pool, and the globals
// store. A single compiler.Compiler and vm.VM are built fresh for each
// line, but they're seeded from (and hand their results back into) this
// shared state.
type REPL struct {
	symbolTable *symbol.Table
	constants   []object.Object
	globals     *vm.GlobalStore

	log *slog.Logger
	out io.Writer
}

// New returns a REPL with empty shared state, ready for its first
// submission.
func New(out io.Writer, logger *slog.Logger) *REPL {
	return &REPL{
		symbolTable: freshSymbolTable(),
		constants:   []object.Object{},
		globals:     vm.NewGlobalStore(),
		log:         logger,
		out:         out,
	}
}

func freshSymbolTable() *symbol.Table {
	// compiler.New() builds a symbol table with builtins pre-defined at
	// their fixed indices; reuse that rather than duplicating the
	// registration loop here.
	return compiler.New().SymbolTable()
}

// Run drives the prompt/read/eval/print cycle until the input stream
// closes (Ctrl-D) or the user presses Ctrl-C, per spec.md §6.
func (r *REPL) Run() error {
	historyFile := ""
	if home, err := os.UserHomeDir(); err == nil {
		historyFile = filepath.Join(home, config.HistoryFileName)
	}

	effectivePrompt := prompt
	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		effectivePrompt = ""
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:      effectivePrompt,
		HistoryFile: historyFile,
	})
	if err != nil {
		return err
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err != nil { // io.EOF (Ctrl-D) or readline.ErrInterrupt (Ctrl-C)
			return nil
		}
		if line == "" {
			continue
		}
		r.evalLine(line)
	}
}

// evalLine compiles and executes a single submission, printing either its
// result or the error, and never aborting the loop.
func (r *REPL) evalLine(line string) {
	l := lexer.New(line)
	p := parser.New(l)
	program := p.ParseProgram()

	if errs := p.Errors(); len(errs) > 0 {
		for _, e := range errs {
			fmt.Fprintf(r.out, "ParseError: %s\n", e.Error())
		}
		return
	}

	comp := compiler.NewWithState(r.symbolTable, r.constants)
	if err := comp.Compile(program); err != nil {
		fmt.Fprintf(r.out, "CompileError: %s\n", err.Error())
		return
	}

	bytecode := comp.Bytecode()
	r.constants = bytecode.Constants

	machine := vm.NewWithGlobalsStore(bytecode, r.globals)
	if err := machine.Run(); err != nil {
		fmt.Fprintf(r.out, "RuntimeError: %s\n", err.Error())
		return
	}

	r.log.Debug("submission evaluated", "source", line)

	result := machine.StackLastPopped()
	if result == nil {
		return
	}
	switch result.(type) {
	case *object.CompiledFunction, *object.Closure, *object.Builtin:
		return
	default:
		fmt.Fprintln(r.out, result.Inspect())
	}
}
