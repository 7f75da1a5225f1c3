// Package builtins holds the host-provided functions exposed to Pepper
// programs through OP_GET_BUILTIN. Their order fixes their index, shared
// between the compiler (which assigns the index via
// symbol.Table.DefineBuiltin at startup) and the VM (which looks them up
// in this same slice at OP_GET_BUILTIN i).
package builtins

import (
	"fmt"

	"github.com/pepper-lang/pepper/internal/object"
)

// Named pairs a builtin with the name it's bound to in the global scope.
type Named struct {
	Name    string
	Builtin *object.Builtin
}

// Builtins is the fixed, ordered registry SPEC_FULL.md's supplemented
// builtin set reduces to: len, first, last, rest, push, puts.
var Builtins = []Named{
	{"len", &object.Builtin{Name: "len", Fn: builtinLen}},
	{"first", &object.Builtin{Name: "first", Fn: builtinFirst}},
	{"last", &object.Builtin{Name: "last", Fn: builtinLast}},
	{"rest", &object.Builtin{Name: "rest", Fn: builtinRest}},
	{"push", &object.Builtin{Name: "push", Fn: builtinPush}},
	{"puts", &object.Builtin{Name: "puts", Fn: builtinPuts}},
}

// Get returns the builtin registered at index i, or nil if out of range.
func Get(i int) *object.Builtin {
	if i < 0 || i >= len(Builtins) {
		return nil
	}
	return Builtins[i].Builtin
}

func wrongArgCount(got int, want string) error {
	return fmt.Errorf("wrong number of arguments: got %d, want %s", got, want)
}

func builtinLen(args ...object.Object) (object.Object, error) {
	if len(args) != 1 {
		return nil, wrongArgCount(len(args), "1")
	}
	switch arg := args[0].(type) {
	case *object.String:
		return &object.Integer{Value: int64(len(arg.Value))}, nil
	case *object.Array:
		return &object.Integer{Value: int64(len(arg.Elements))}, nil
	default:
		return nil, fmt.Errorf("argument to `len` not supported, got %s", arg.Type())
	}
}

func builtinFirst(args ...object.Object) (object.Object, error) {
	if len(args) != 1 {
		return nil, wrongArgCount(len(args), "1")
	}
	arr, ok := args[0].(*object.Array)
	if !ok {
		return nil, fmt.Errorf("argument to `first` must be ARRAY, got %s", args[0].Type())
	}
	if len(arr.Elements) == 0 {
		return object.NULL, nil
	}
	return arr.Elements[0], nil
}

func builtinLast(args ...object.Object) (object.Object, error) {
	if len(args) != 1 {
		return nil, wrongArgCount(len(args), "1")
	}
	arr, ok := args[0].(*object.Array)
	if !ok {
		return nil, fmt.Errorf("argument to `last` must be ARRAY, got %s", args[0].Type())
	}
	if len(arr.Elements) == 0 {
		return object.NULL, nil
	}
	return arr.Elements[len(arr.Elements)-1], nil
}

func builtinRest(args ...object.Object) (object.Object, error) {
	if len(args) != 1 {
		return nil, wrongArgCount(len(args), "1")
	}
	arr, ok := args[0].(*object.Array)
	if !ok {
		return nil, fmt.Errorf("argument to `rest` must be ARRAY, got %s", args[0].Type())
	}
	if len(arr.Elements) == 0 {
		return object.NULL, nil
	}
	rest := make([]object.Object, len(arr.Elements)-1)
	copy(rest, arr.Elements[1:])
	return &object.Array{Elements: rest}, nil
}

func builtinPush(args ...object.Object) (object.Object, error) {
	if len(args) != 2 {
		return nil, wrongArgCount(len(args), "2")
	}
	arr, ok := args[0].(*object.Array)
	if !ok {
		return nil, fmt.Errorf("argument to `push` must be ARRAY, got %s", args[0].Type())
	}
	newElems := make([]object.Object, len(arr.Elements)+1)
	copy(newElems, arr.Elements)
	newElems[len(arr.Elements)] = args[1]
	return &object.Array{Elements: newElems}, nil
}

func builtinPuts(args ...object.Object) (object.Object, error) {
	for _, a := range args {
		fmt.Println(a.Inspect())
	}
	return object.NULL, nil
}
