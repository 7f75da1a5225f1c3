package vm

import "github.com/pepper-lang/pepper/internal/object"

// executeCall implements spec.md §4.4's OP_CALL n: the callee sits just
// below its n arguments on the stack. A Closure callee gets a new frame;
// a Builtin is invoked directly; anything else is a runtime error.
func (vm *VM) executeCall(numArgs int) error {
	callee := vm.stack[vm.sp-1-numArgs]

	switch callee := callee.(type) {
	case *object.Closure:
		return vm.callClosure(callee, numArgs)
	case *object.Builtin:
		return vm.callBuiltin(callee, numArgs)
	default:
		return runtimeErrorf("calling non-function: %s", callee.Type())
	}
}

func (vm *VM) callClosure(cl *object.Closure, numArgs int) error {
	if numArgs != cl.Fn.NumParameters {
		return runtimeErrorf("wrong number of arguments: want=%d, got=%d", cl.Fn.NumParameters, numArgs)
	}

	frame := NewFrame(cl, vm.sp-numArgs)
	if err := vm.pushFrame(frame); err != nil {
		return err
	}

	// locals live in the frame window above the arguments already on the
	// stack (spec.md §4.4: "extend sp by num_locals - num_parameters").
	vm.sp = frame.basePointer + cl.Fn.NumLocals
	return nil
}

func (vm *VM) callBuiltin(b *object.Builtin, numArgs int) error {
	args := vm.stack[vm.sp-numArgs : vm.sp]

	result, err := b.Fn(args...)
	if err != nil {
		return runtimeErrorf("%s", err.Error())
	}

	vm.sp = vm.sp - numArgs - 1
	if result == nil {
		result = object.NULL
	}
	return vm.push(result)
}

// pushClosure implements spec.md §4.4's OP_CLOSURE const_idx num_free: pop
// num_free values off the stack (the free variables in definition order,
// pushed by the creator just before this opcode per the compiler's
// function-compilation step 4) and wrap them with the CompiledFunction
// constant into a new Closure.
func (vm *VM) pushClosure(constIndex, numFree int) error {
	constant := vm.constants[constIndex]
	fn, ok := constant.(*object.CompiledFunction)
	if !ok {
		return runtimeErrorf("not a function: %+v", constant)
	}

	free := make([]object.Object, numFree)
	for i := 0; i < numFree; i++ {
		free[i] = vm.stack[vm.sp-numFree+i]
	}
	vm.sp = vm.sp - numFree

	return vm.push(&object.Closure{Fn: fn, Free: free})
}
