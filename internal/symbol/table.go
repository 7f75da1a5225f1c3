// Package symbol implements the compile-time scope resolver of spec.md
// §4.2: a stack of scopes mapping names to storage class (global, local,
// free, builtin, or a function's own name for self-reference), with
// multi-level free-variable promotion so a deeply nested closure's capture
// chain gets a slot in every intervening function's free list.
//
// There is no off-the-shelf library for this — every interpreter in the
// pack that needs lexical scoping (funvibe-funxy's compiler_scope.go,
// reusee-tai's tailang) hand-rolls its own scope stack the same way; this
// is the idiomatic shape for the concern, grounded on the teacher's
// enclosing-compiler/local-array pattern but generalized to the explicit
// define/resolve/push_scope/pop_scope contract spec.md requires, since the
// teacher's own upvalue-by-slot scheme doesn't expose that contract.
package symbol

// Scope tags the storage class a Symbol resolves to.
type Scope int

const (
	GlobalScope Scope = iota
	LocalScope
	FreeScope
	BuiltinScope
	FunctionScope
)

func (s Scope) String() string {
	switch s {
	case GlobalScope:
		return "GLOBAL"
	case LocalScope:
		return "LOCAL"
	case FreeScope:
		return "FREE"
	case BuiltinScope:
		return "BUILTIN"
	case FunctionScope:
		return "FUNCTION"
	default:
		return "UNKNOWN"
	}
}

// Symbol is what a name resolves to: its storage class and slot index.
type Symbol struct {
	Name  string
	Scope Scope
	Index int
}

// frame is one entry in the scope stack.
type frame struct {
	store          map[string]Symbol
	numDefinitions int
	freeSymbols    []Symbol
	isFunction     bool // true at a closure boundary; false for a nested block
	funcDepth      int  // count of function-scope boundaries from the global frame down to this one
}

func newFrame(isFunction bool, startIndex, funcDepth int) *frame {
	return &frame{
		store:          make(map[string]Symbol),
		numDefinitions: startIndex,
		isFunction:     isFunction,
		funcDepth:      funcDepth,
	}
}

// Popped is what PopScope hands back: the state the compiler needs to
// finish building a CompiledFunction (free list, local count) or to know
// how far a block scope grew its enclosing function's local count.
type Popped struct {
	FreeSymbols    []Symbol
	NumDefinitions int
}

// Table is the symbol table: a LIFO stack of scopes, per spec.md §4.2.
// The outermost frame (index 0) is the program's global scope and is
// never popped; a single Table instance is meant to survive across
// REPL submissions so global bindings persist (spec.md §3's "Global
// lifetime contract").
type Table struct {
	frames []*frame
}

// New returns a Table with just the global scope pushed.
func New() *Table {
	return &Table{frames: []*frame{newFrame(true, 0, 0)}}
}

func (t *Table) top() *frame { return t.frames[len(t.frames)-1] }

// PushFunctionScope opens a new closure boundary: a fresh local-slot
// space starting at 0, and a fresh free-variable list.
func (t *Table) PushFunctionScope() {
	t.frames = append(t.frames, newFrame(true, 0, t.top().funcDepth+1))
}

// PushBlockScope opens a scope for shadowing purposes only (e.g. a
// for-loop's dedicated block scope, spec.md §4.3): names defined inside it
// go out of scope on PopScope, but its local slots continue the enclosing
// function's numbering so every local in one function activation still
// lives at a unique, stable stack offset. Unlike PushFunctionScope it does
// not cross a function boundary, so Define still tags a name Global here
// if the block sits at top level (e.g. a top-level `for` loop's `let`).
func (t *Table) PushBlockScope() {
	t.frames = append(t.frames, newFrame(false, t.top().numDefinitions, t.top().funcDepth))
}

// PopScope pops the current scope and returns what it held. Popping a
// block scope propagates its final local count into the new top so
// sibling blocks and the enclosing function continue numbering from
// there; popping a function scope does not (the enclosing scope belongs
// to a different function and is unaffected by this one's local count).
func (t *Table) PopScope() Popped {
	popped := t.top()
	t.frames = t.frames[:len(t.frames)-1]

	if !popped.isFunction && len(t.frames) > 0 {
		if popped.numDefinitions > t.top().numDefinitions {
			t.top().numDefinitions = popped.numDefinitions
		}
	}

	return Popped{FreeSymbols: popped.freeSymbols, NumDefinitions: popped.numDefinitions}
}

// Define inserts name in the current scope: Global if no function scope
// encloses it (the outermost scope, or a block scope opened directly or
// indirectly under it), Local otherwise. A redefinition in the same scope shadows the
// previous symbol under that name.
func (t *Table) Define(name string) Symbol {
	f := t.top()
	scopeTag := LocalScope
	if f.funcDepth == 0 {
		scopeTag = GlobalScope
	}
	sym := Symbol{Name: name, Scope: scopeTag, Index: f.numDefinitions}
	f.store[name] = sym
	f.numDefinitions++
	return sym
}

// DefineBuiltin registers a host-provided function at the outermost scope
// under the fixed index the VM's builtin table assigns it.
func (t *Table) DefineBuiltin(index int, name string) Symbol {
	sym := Symbol{Name: name, Scope: BuiltinScope, Index: index}
	t.frames[0].store[name] = sym
	return sym
}

// DefineFunctionName records the enclosing function's own name in its own
// scope, so a recursive call can resolve it via OP_CURRENT_CLOSURE instead
// of OP_GET_GLOBAL/OP_GET_LOCAL.
func (t *Table) DefineFunctionName(name string) Symbol {
	sym := Symbol{Name: name, Scope: FunctionScope, Index: 0}
	t.top().store[name] = sym
	return sym
}

// defineFree records that a value from an enclosing function is captured
// by the current function, appending it to this scope's free list.
func (t *Table) defineFree(f *frame, original Symbol) Symbol {
	f.freeSymbols = append(f.freeSymbols, original)
	sym := Symbol{Name: original.Name, Scope: FreeScope, Index: len(f.freeSymbols) - 1}
	f.store[original.Name] = sym
	return sym
}

// Resolve looks up name, searching outward through enclosing scopes. A
// name found beyond a function boundary is promoted to Free in every
// intervening function scope it transits, unless it resolves to Global or
// Builtin, which are visible everywhere without capture (spec.md §4.2).
func (t *Table) Resolve(name string) (Symbol, bool) {
	return t.resolveAt(len(t.frames)-1, name)
}

func (t *Table) resolveAt(i int, name string) (Symbol, bool) {
	f := t.frames[i]
	if sym, ok := f.store[name]; ok {
		return sym, true
	}
	if i == 0 {
		return Symbol{}, false
	}

	sym, ok := t.resolveAt(i-1, name)
	if !ok {
		return Symbol{}, false
	}

	// A block scope shares its enclosing function's local-slot space, so a
	// name visible just outside it is visible unchanged inside it too.
	if !f.isFunction {
		f.store[name] = sym
		return sym, true
	}

	if sym.Scope == GlobalScope || sym.Scope == BuiltinScope {
		return sym, true
	}
	return t.defineFree(f, sym), true
}
