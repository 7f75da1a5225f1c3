// Command pepper is Pepper's CLI: no arguments enters the REPL,
// "--version" prints a banner and exits 0, any other single argument is
// treated as a source file path to compile and run (spec.md §6).
//
// Grounded on the teacher's cmd/funxy/main.go manual os.Args dispatch —
// no flag framework, since the grammar here is the three cases the
// original tny.c main() already has.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/pepper-lang/pepper/internal/compiler"
	"github.com/pepper-lang/pepper/internal/config"
	"github.com/pepper-lang/pepper/internal/lexer"
	"github.com/pepper-lang/pepper/internal/parser"
	"github.com/pepper-lang/pepper/internal/pepperlog"
	"github.com/pepper-lang/pepper/internal/repl"
	"github.com/pepper-lang/pepper/internal/vm"
)

func main() {
	logger := pepperlog.New()

	switch len(os.Args) {
	case 1:
		runREPL(logger)
	case 2:
		if os.Args[1] == "--version" {
			printVersion()
			return
		}
		runFile(os.Args[1], logger)
	default:
		fmt.Fprintf(os.Stderr, "usage: %s [--version | script.pep]\n", os.Args[0])
		os.Exit(1)
	}
}

func printVersion() {
	banner := fmt.Sprintf("pepper %s", config.Version)
	if isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		banner = "\033[1m" + banner + "\033[0m"
	}
	fmt.Println(banner)
}

func runREPL(logger *slog.Logger) {
	r := repl.New(os.Stdout, logger)
	if err := r.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "repl error: %s\n", err)
		os.Exit(1)
	}
}

// runFile reads path, compiles it as a single program, and executes it
// on a fresh VM. Exit code 0 on success, non-zero on any parse, compile,
// or runtime error (spec.md §6).
func runFile(path string, logger *slog.Logger) {
	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %s\n", path, err)
		os.Exit(1)
	}

	l := lexer.New(string(src))
	p := parser.New(l)
	program := p.ParseProgram()

	if errs := p.Errors(); len(errs) > 0 {
		for _, e := range errs {
			fmt.Fprintf(os.Stderr, "ParseError: %s\n", e.Error())
		}
		os.Exit(1)
	}

	comp := compiler.New()
	if err := comp.Compile(program); err != nil {
		fmt.Fprintf(os.Stderr, "CompileError: %s\n", err)
		os.Exit(1)
	}

	machine := vm.New(comp.Bytecode())
	if err := machine.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "RuntimeError: %s\n", err)
		os.Exit(1)
	}
}
