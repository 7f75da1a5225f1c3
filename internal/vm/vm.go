// Package vm implements the stack-based virtual machine of spec.md §4.4:
// call frames, a value stack, a globals store, and the fetch-decode-
// execute loop that drives bytecode to completion.
//
// Grounded on the teacher's VM struct shape (funvibe-funxy/internal/vm/
// vm.go) and its dedicated vm_exec.go/vm_ops.go/vm_calls.go split, reduced
// to the opcode set spec.md §6 actually names.
package vm

import (
	"fmt"

	"github.com/pepper-lang/pepper/internal/builtins"
	"github.com/pepper-lang/pepper/internal/code"
	"github.com/pepper-lang/pepper/internal/compiler"
	"github.com/pepper-lang/pepper/internal/object"
)

const (
	// StackSize is the fixed value-stack capacity, per spec.md §4.4.
	StackSize = 2048
	// MaxFrames is the fixed call-frame stack depth, per spec.md §4.4.
	MaxFrames = 1024
)

// RuntimeError is the taxonomy spec.md §7 names for the VM: type
// mismatch, arity mismatch, division/modulo by zero, stack/frame
// overflow, out-of-range SET_INDEX, unknown opcode.
type RuntimeError struct {
	Message string
}

func (e *RuntimeError) Error() string { return e.Message }

func runtimeErrorf(format string, args ...interface{}) *RuntimeError {
	return &RuntimeError{Message: fmt.Sprintf(format, args...)}
}

// VM executes one compiled program to completion. It owns the value stack
// and frame stack exclusively for the duration of Run (spec.md §5); the
// globals store and constant pool may be shared across successive
// instances in REPL mode.
type VM struct {
	constants []object.Object

	stack []object.Object
	sp    int // points to the next free slot; stack[0:sp] is live

	globals *GlobalStore

	frames     []*Frame
	frameIndex int

	lastPoppedStackElem object.Object
}

// New constructs a VM over bytecode with a fresh GlobalStore — used by the
// one-shot script runner, which has no need to persist globals past this
// single run.
func New(bytecode *compiler.Bytecode) *VM {
	return NewWithGlobalsStore(bytecode, NewGlobalStore())
}

// NewWithGlobalsStore constructs a VM that borrows globals for the
// duration of Run rather than copying it in and out (spec.md §9's
// redesign note) — used by the REPL, which owns one GlobalStore across
// every submission in its session.
func NewWithGlobalsStore(bytecode *compiler.Bytecode, globals *GlobalStore) *VM {
	mainFn := &object.CompiledFunction{Instructions: bytecode.Instructions, Name: "<main>"}
	mainClosure := &object.Closure{Fn: mainFn}
	mainFrame := NewFrame(mainClosure, 0)

	frames := make([]*Frame, MaxFrames)
	frames[0] = mainFrame

	return &VM{
		constants:  bytecode.Constants,
		stack:      make([]object.Object, StackSize),
		sp:         0,
		globals:    globals,
		frames:     frames,
		frameIndex: 1,
	}
}

// StackLastPopped returns the value most recently removed from the stack
// by OP_POP — how the REPL obtains an expression's result (spec.md §4.4).
func (vm *VM) StackLastPopped() object.Object {
	return vm.lastPoppedStackElem
}

func (vm *VM) currentFrame() *Frame {
	return vm.frames[vm.frameIndex-1]
}

func (vm *VM) pushFrame(f *Frame) error {
	if vm.frameIndex >= MaxFrames {
		return runtimeErrorf("frame overflow")
	}
	vm.frames[vm.frameIndex] = f
	vm.frameIndex++
	return nil
}

func (vm *VM) popFrame() *Frame {
	vm.frameIndex--
	return vm.frames[vm.frameIndex]
}

func (vm *VM) push(obj object.Object) error {
	if vm.sp >= StackSize {
		return runtimeErrorf("stack overflow")
	}
	vm.stack[vm.sp] = obj
	vm.sp++
	return nil
}

func (vm *VM) pop() object.Object {
	obj := vm.stack[vm.sp-1]
	vm.sp--
	return obj
}

// Run drives the fetch-decode-execute cycle until the frame stack is
// empty or an error occurs (spec.md §4.4). No suspension point exists —
// Run returns only on completion or error, per spec.md §5.
func (vm *VM) Run() error {
	for vm.currentFrame().ip < len(vm.currentFrame().Instructions())-1 {
		vm.currentFrame().ip++

		ip := vm.currentFrame().ip
		ins := vm.currentFrame().Instructions()
		op := code.Opcode(ins[ip])

		if err := vm.execute(op); err != nil {
			return err
		}
	}
	return nil
}

func (vm *VM) readUint16() uint16 {
	f := vm.currentFrame()
	v := code.ReadUint16(f.Instructions(), f.ip+1)
	f.ip += 2
	return v
}

func (vm *VM) readUint8() uint8 {
	f := vm.currentFrame()
	v := code.ReadUint8(f.Instructions(), f.ip+1)
	f.ip += 1
	return v
}

func (vm *VM) builtinAt(i int) *object.Builtin {
	return builtins.Get(i)
}
