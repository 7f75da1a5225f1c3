package vm

import (
	"github.com/pepper-lang/pepper/internal/code"
	"github.com/pepper-lang/pepper/internal/object"
)

// Frame is one activation of a closure on the VM's call stack (spec.md
// §3, "Call frame"): the closure itself, an instruction pointer into its
// instructions, and the base pointer marking where its locals begin on
// the shared value stack.
type Frame struct {
	cl          *object.Closure
	ip          int
	basePointer int
}

func NewFrame(cl *object.Closure, basePointer int) *Frame {
	return &Frame{cl: cl, ip: -1, basePointer: basePointer}
}

func (f *Frame) Instructions() code.Instructions {
	return f.cl.Fn.Instructions
}
