package symbol

import "testing"

func TestDefine(t *testing.T) {
	tbl := New()

	a := tbl.Define("a")
	if a != (Symbol{Name: "a", Scope: GlobalScope, Index: 0}) {
		t.Errorf("expected a=%+v, got=%+v", Symbol{Name: "a", Scope: GlobalScope, Index: 0}, a)
	}

	b := tbl.Define("b")
	if b != (Symbol{Name: "b", Scope: GlobalScope, Index: 1}) {
		t.Errorf("expected b=%+v, got=%+v", Symbol{Name: "b", Scope: GlobalScope, Index: 1}, b)
	}

	tbl.PushFunctionScope()
	c := tbl.Define("c")
	if c != (Symbol{Name: "c", Scope: LocalScope, Index: 0}) {
		t.Errorf("expected c=%+v, got=%+v", Symbol{Name: "c", Scope: LocalScope, Index: 0}, c)
	}
}

func TestResolveGlobal(t *testing.T) {
	tbl := New()
	tbl.Define("a")
	tbl.Define("b")

	for _, want := range []Symbol{
		{Name: "a", Scope: GlobalScope, Index: 0},
		{Name: "b", Scope: GlobalScope, Index: 1},
	} {
		got, ok := tbl.Resolve(want.Name)
		if !ok {
			t.Fatalf("name %s not resolvable", want.Name)
		}
		if got != want {
			t.Errorf("expected %s to resolve to %+v, got=%+v", want.Name, want, got)
		}
	}
}

func TestResolveNestedLocal(t *testing.T) {
	tbl := New()
	tbl.Define("a")

	tbl.PushFunctionScope()
	tbl.Define("b")

	tbl.PushFunctionScope()
	tbl.Define("c")

	got, ok := tbl.Resolve("a")
	if !ok || got.Scope != GlobalScope {
		t.Errorf("a should resolve to global, got=%+v ok=%v", got, ok)
	}
	got, ok = tbl.Resolve("b")
	if !ok || got.Scope != FreeScope {
		t.Errorf("b should resolve to free (captured across one function boundary), got=%+v ok=%v", got, ok)
	}
	got, ok = tbl.Resolve("c")
	if !ok || got.Scope != LocalScope {
		t.Errorf("c should resolve to local, got=%+v ok=%v", got, ok)
	}
}

// TestTopLevelForLoopStaysGlobal guards the scoping fix: a for-loop's block
// scope at top level must still tag its `let` as Global, since PushBlockScope
// doesn't cross a function boundary.
func TestTopLevelForLoopStaysGlobal(t *testing.T) {
	tbl := New()
	tbl.Define("total")

	tbl.PushBlockScope()
	i := tbl.Define("i")
	if i.Scope != GlobalScope {
		t.Errorf("loop variable at top level should be Global, got=%s", i.Scope)
	}
	popped := tbl.PopScope()
	if popped.NumDefinitions != 2 {
		t.Errorf("expected 2 definitions propagated to the enclosing scope, got=%d", popped.NumDefinitions)
	}

	if _, ok := tbl.Resolve("i"); ok {
		t.Errorf("i should not resolve after its block scope is popped")
	}
	if _, ok := tbl.Resolve("total"); !ok {
		t.Errorf("total should still resolve after the block scope is popped")
	}
}

// TestBlockScopeInsideFunctionStaysLocal mirrors the top-level case one
// function boundary in: a for-loop inside a function body must tag its
// loop variable Local, sharing the function's slot numbering.
func TestBlockScopeInsideFunctionStaysLocal(t *testing.T) {
	tbl := New()
	tbl.PushFunctionScope()
	tbl.Define("x")

	tbl.PushBlockScope()
	i := tbl.Define("i")
	if i.Scope != LocalScope {
		t.Errorf("loop variable inside a function should be Local, got=%s", i.Scope)
	}
	if i.Index != 1 {
		t.Errorf("loop variable should continue the function's local numbering at 1, got=%d", i.Index)
	}
	popped := tbl.PopScope()
	if popped.NumDefinitions != 2 {
		t.Errorf("expected 2 definitions propagated to the function scope, got=%d", popped.NumDefinitions)
	}
}

func TestDefineResolveBuiltins(t *testing.T) {
	tbl := New()
	expected := []Symbol{
		{Name: "len", Scope: BuiltinScope, Index: 0},
		{Name: "puts", Scope: BuiltinScope, Index: 1},
	}
	for i, sym := range expected {
		tbl.DefineBuiltin(i, sym.Name)
	}

	tbl.PushFunctionScope()
	tbl.PushFunctionScope()

	for _, want := range expected {
		got, ok := tbl.Resolve(want.Name)
		if !ok {
			t.Fatalf("name %s not resolvable", want.Name)
		}
		if got != want {
			t.Errorf("expected %s to resolve to %+v, got=%+v", want.Name, want, got)
		}
	}
}

func TestResolveFunctionName(t *testing.T) {
	tbl := New()
	tbl.PushFunctionScope()
	tbl.DefineFunctionName("factorial")

	want := Symbol{Name: "factorial", Scope: FunctionScope, Index: 0}
	got, ok := tbl.Resolve("factorial")
	if !ok || got != want {
		t.Errorf("expected factorial=%+v, got=%+v ok=%v", want, got, ok)
	}
}

// TestMultiLevelFreeCapture checks that a name defined two function scopes
// out gets its own Free slot in every intervening scope, not just the
// innermost one (spec.md §9's closure-capture design note).
func TestMultiLevelFreeCapture(t *testing.T) {
	tbl := New()
	tbl.Define("a")

	tbl.PushFunctionScope()
	tbl.Define("b")

	tbl.PushFunctionScope()
	tbl.Define("c")

	tbl.PushFunctionScope()
	tbl.Define("d")

	got, ok := tbl.Resolve("b")
	if !ok || got.Scope != FreeScope || got.Index != 0 {
		t.Errorf("b should resolve to free[0] in the innermost scope, got=%+v ok=%v", got, ok)
	}

	innerPopped := tbl.PopScope()
	if len(innerPopped.FreeSymbols) != 1 || innerPopped.FreeSymbols[0].Name != "b" {
		t.Errorf("innermost scope should have captured exactly b, got=%+v", innerPopped.FreeSymbols)
	}

	middlePopped := tbl.PopScope()
	foundB := false
	for _, s := range middlePopped.FreeSymbols {
		if s.Name == "b" {
			foundB = true
		}
	}
	if !foundB {
		t.Errorf("the intervening scope must also capture b, got=%+v", middlePopped.FreeSymbols)
	}
}
