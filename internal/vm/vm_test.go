package vm

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pepper-lang/pepper/internal/ast"
	"github.com/pepper-lang/pepper/internal/compiler"
	"github.com/pepper-lang/pepper/internal/lexer"
	"github.com/pepper-lang/pepper/internal/object"
	"github.com/pepper-lang/pepper/internal/parser"
)

func parse(input string) *ast.Program {
	l := lexer.New(input)
	p := parser.New(l)
	return p.ParseProgram()
}

// runVM drives a source string through the whole pipeline spec.md §8's
// "Concrete end-to-end scenarios" table exercises: parse, compile, run,
// return the value stack_last_popped left behind.
func runVM(t *testing.T, input string) (object.Object, error) {
	t.Helper()
	program := parse(input)

	c := compiler.New()
	require.NoError(t, c.Compile(program), "compiling %q", input)

	machine := New(c.Bytecode())
	err := machine.Run()
	return machine.StackLastPopped(), err
}

func testIntegerObject(t *testing.T, expected int64, actual object.Object) {
	t.Helper()
	result, ok := actual.(*object.Integer)
	require.True(t, ok, "object is not Integer, got %T (%+v)", actual, actual)
	require.Equal(t, expected, result.Value)
}

func testNullObject(t *testing.T, actual object.Object) {
	t.Helper()
	require.Equal(t, object.NULL, actual)
}

func TestIntegerArithmeticEndToEnd(t *testing.T) {
	result, err := runVM(t, "1 + 2 * 3;")
	require.NoError(t, err)
	testIntegerObject(t, 7, result)
}

func TestGlobalLetBindings(t *testing.T) {
	result, err := runVM(t, "let x = 5; let y = 10; x + y;")
	require.NoError(t, err)
	testIntegerObject(t, 15, result)
}

func TestFunctionCallEndToEnd(t *testing.T) {
	result, err := runVM(t, "let f = fn(a, b) { a + b; }; f(2, 3);")
	require.NoError(t, err)
	testIntegerObject(t, 5, result)
}

func TestClosureCaptureEndToEnd(t *testing.T) {
	result, err := runVM(t, `
		let make = fn(x) { fn(y) { x + y; }; };
		let add5 = make(5);
		add5(7);
	`)
	require.NoError(t, err)
	testIntegerObject(t, 12, result)
}

func TestWhileLoopAccumulator(t *testing.T) {
	result, err := runVM(t, `
		let i = 0;
		let s = 0;
		while (i < 5) { s = s + i; i = i + 1; }
		s;
	`)
	require.NoError(t, err)
	testIntegerObject(t, 10, result)
}

func TestForLoopAccumulator(t *testing.T) {
	result, err := runVM(t, `
		let s = 0;
		for (let i = 0; i < 5; i = i + 1) { s = s + i; }
		s;
	`)
	require.NoError(t, err)
	testIntegerObject(t, 10, result)
}

func TestArrayIndexAssignment(t *testing.T) {
	result, err := runVM(t, `
		let a = [1, 2, 3];
		a[1] = 9;
		a[0] + a[1] + a[2];
	`)
	require.NoError(t, err)
	// 1 + 9 + 3 after a[1] is overwritten.
	testIntegerObject(t, 13, result)

	result, err = runVM(t, `
		let a = [1, 2, 3];
		a[99];
	`)
	require.NoError(t, err)
	testNullObject(t, result)
}

func TestIfElseValueSemantics(t *testing.T) {
	result, err := runVM(t, "if (false) { 1 } else { 2 };")
	require.NoError(t, err)
	testIntegerObject(t, 2, result)

	result, err = runVM(t, "if (true) { 3 };")
	require.NoError(t, err)
	testIntegerObject(t, 3, result)

	result, err = runVM(t, "if (false) { 3 };")
	require.NoError(t, err)
	testNullObject(t, result)
}

func TestBreakExitsLoop(t *testing.T) {
	result, err := runVM(t, `
		let i = 0;
		while (true) {
			if (i == 3) { break; }
			i = i + 1;
		}
		i;
	`)
	require.NoError(t, err)
	testIntegerObject(t, 3, result)
}

func TestContinueSkipsRestOfBody(t *testing.T) {
	result, err := runVM(t, `
		let sum = 0;
		for (let i = 0; i < 5; i = i + 1) {
			if (i == 2) { continue; }
			sum = sum + i;
		}
		sum;
	`)
	require.NoError(t, err)
	// 0 + 1 + 3 + 4 = 8, skipping i == 2.
	testIntegerObject(t, 8, result)
}

func TestRecursiveFunctionEndToEnd(t *testing.T) {
	result, err := runVM(t, `
		let countdown = fn(x) {
			if (x <= 0) { 0 } else { countdown(x - 1); };
		};
		countdown(10);
	`)
	require.NoError(t, err)
	testIntegerObject(t, 0, result)
}

func TestStringConcatenation(t *testing.T) {
	result, err := runVM(t, `"pep" + "per";`)
	require.NoError(t, err)
	str, ok := result.(*object.String)
	require.True(t, ok)
	require.Equal(t, "pepper", str.Value)
}

func TestBuiltinFunctions(t *testing.T) {
	result, err := runVM(t, `len([1, 2, 3]);`)
	require.NoError(t, err)
	testIntegerObject(t, 3, result)

	result, err = runVM(t, `let a = push([1, 2], 3); a[2];`)
	require.NoError(t, err)
	testIntegerObject(t, 3, result)

	result, err = runVM(t, `first(rest([1, 2, 3]));`)
	require.NoError(t, err)
	testIntegerObject(t, 2, result)
}

func TestHashLiteralAndIndex(t *testing.T) {
	result, err := runVM(t, `let h = {"a": 1, "b": 2}; h["a"] + h["b"];`)
	require.NoError(t, err)
	testIntegerObject(t, 3, result)

	result, err = runVM(t, `let h = {"a": 1}; h["missing"];`)
	require.NoError(t, err)
	testNullObject(t, result)
}

func TestRuntimeErrors(t *testing.T) {
	tests := []struct {
		input string
	}{
		{`1 + "a";`},
		{`let f = fn(a){a}; f(1,2);`},
		{`1 / 0;`},
		{`1 % 0;`},
		{`true + false;`},
		{`(5)();`},
	}

	for _, tt := range tests {
		_, err := runVM(t, tt.input)
		require.Error(t, err, "expected runtime error for %q", tt.input)
		_, ok := err.(*RuntimeError)
		require.True(t, ok, "error is not *RuntimeError for %q, got %T", tt.input, err)
	}
}

func TestArraySetIndexOutOfRangeIsRuntimeError(t *testing.T) {
	_, err := runVM(t, `let a = [1]; a[5] = 9;`)
	require.Error(t, err)
	_, ok := err.(*RuntimeError)
	require.True(t, ok, "expected *RuntimeError, got %T", err)
}

func TestStrictBooleanOperatorsEvaluateBothSides(t *testing.T) {
	// Both operands are always evaluated (spec.md §9): the assignment on
	// the right-hand side still happens even though the overall `&&`
	// result is determined by the falsy left side.
	result, err := runVM(t, `false && (1 == 1);`)
	require.NoError(t, err)
	require.Equal(t, object.FALSE, result)

	result, err = runVM(t, `true || (1 == 2);`)
	require.NoError(t, err)
	require.Equal(t, object.TRUE, result)

	result, err = runVM(t, `let x = 0; false && ((x = 1) == 1); x;`)
	require.NoError(t, err)
	testIntegerObject(t, 1, result)
}

func TestGlobalsPersistAcrossVMInstances(t *testing.T) {
	// Mirrors the REPL's NewWithGlobalsStore contract (spec.md §9's
	// "Globals hand-off" redesign note): a GlobalStore borrowed by one VM
	// instance must still hold its bindings for the next.
	globals := NewGlobalStore()
	symTable := compiler.New().SymbolTable()

	first := compiler.NewWithState(symTable, []object.Object{})
	require.NoError(t, first.Compile(parse("let x = 41;")))
	require.NoError(t, NewWithGlobalsStore(first.Bytecode(), globals).Run())

	second := compiler.NewWithState(symTable, first.Bytecode().Constants)
	require.NoError(t, second.Compile(parse("x + 1;")))
	vm2 := NewWithGlobalsStore(second.Bytecode(), globals)
	require.NoError(t, vm2.Run())

	testIntegerObject(t, 42, vm2.StackLastPopped())
}
