package vm

import (
	"github.com/pepper-lang/pepper/internal/code"
	"github.com/pepper-lang/pepper/internal/object"
)

// execute dispatches a single decoded opcode, consuming any inline
// operands via readUint16/readUint8 before returning (spec.md §4.4,
// "Dispatch"). The compiler is trusted to emit well-formed programs, so
// there's no bounds checking on the instruction stream beyond the
// operand widths code.OperandWidths defines.
func (vm *VM) execute(op code.Opcode) error {
	switch op {
	case code.OpConstant:
		idx := vm.readUint16()
		return vm.push(vm.constants[idx])

	case code.OpTrue:
		return vm.push(object.TRUE)
	case code.OpFalse:
		return vm.push(object.FALSE)
	case code.OpNull:
		return vm.push(object.NULL)

	case code.OpPop:
		vm.lastPoppedStackElem = vm.pop()
		return nil

	case code.OpAdd, code.OpSub, code.OpMul, code.OpDiv, code.OpMod:
		return vm.execBinaryOp(op)

	case code.OpEqual, code.OpNotEqual, code.OpGreaterThan, code.OpGreaterEqual:
		return vm.execComparison(op)

	case code.OpAnd, code.OpOr:
		return vm.execBooleanOp(op)

	case code.OpMinus:
		return vm.execMinus()
	case code.OpBang:
		return vm.execBang()

	case code.OpJump:
		pos := int(vm.readUint16())
		vm.currentFrame().ip = pos - 1
		return nil

	case code.OpJumpNotTruthy:
		pos := int(vm.readUint16())
		condition := vm.pop()
		if !object.IsTruthy(condition) {
			vm.currentFrame().ip = pos - 1
		}
		return nil

	case code.OpSetGlobal:
		idx := vm.readUint16()
		vm.globals.Set(int(idx), vm.pop())
		return nil
	case code.OpGetGlobal:
		idx := vm.readUint16()
		return vm.push(vm.globals.Get(int(idx)))

	case code.OpSetLocal:
		idx := vm.readUint8()
		frame := vm.currentFrame()
		vm.stack[frame.basePointer+int(idx)] = vm.pop()
		return nil
	case code.OpGetLocal:
		idx := vm.readUint8()
		frame := vm.currentFrame()
		return vm.push(vm.stack[frame.basePointer+int(idx)])

	case code.OpGetFree:
		idx := vm.readUint8()
		cl := vm.currentFrame().cl
		return vm.push(cl.Free[idx])

	case code.OpGetBuiltin:
		idx := vm.readUint8()
		b := vm.builtinAt(int(idx))
		if b == nil {
			return runtimeErrorf("unknown builtin index %d", idx)
		}
		return vm.push(b)

	case code.OpCurrentClosure:
		return vm.push(vm.currentFrame().cl)

	case code.OpArray:
		n := int(vm.readUint16())
		arr := vm.buildArray(vm.sp-n, vm.sp)
		vm.sp -= n
		return vm.push(arr)

	case code.OpHash:
		n := int(vm.readUint16())
		h, err := vm.buildHash(vm.sp-n, vm.sp)
		if err != nil {
			return err
		}
		vm.sp -= n
		return vm.push(h)

	case code.OpIndex:
		index := vm.pop()
		left := vm.pop()
		return vm.execIndex(left, index)

	case code.OpSetIndex:
		return vm.execSetIndex()

	case code.OpCall:
		numArgs := int(vm.readUint8())
		return vm.executeCall(numArgs)

	case code.OpReturnValue:
		returnValue := vm.pop()
		frame := vm.popFrame()
		vm.sp = frame.basePointer - 1
		return vm.push(returnValue)

	case code.OpReturn:
		frame := vm.popFrame()
		vm.sp = frame.basePointer - 1
		return vm.push(object.NULL)

	case code.OpClosure:
		constIndex := vm.readUint16()
		numFree := int(vm.readUint8())
		return vm.pushClosure(int(constIndex), numFree)

	default:
		return runtimeErrorf("unknown opcode %d", op)
	}
}

func (vm *VM) buildArray(startIndex, endIndex int) object.Object {
	elements := make([]object.Object, endIndex-startIndex)
	copy(elements, vm.stack[startIndex:endIndex])
	return &object.Array{Elements: elements}
}

func (vm *VM) buildHash(startIndex, endIndex int) (object.Object, error) {
	h := object.NewHash()
	for i := startIndex; i < endIndex; i += 2 {
		key := vm.stack[i]
		value := vm.stack[i+1]
		if err := h.Set(key, value); err != nil {
			return nil, runtimeErrorf("%s", err.Error())
		}
	}
	return h, nil
}

// execIndex implements spec.md §4.1's indexing rules: array index outside
// [0, len) yields Null, map lookup miss yields Null, anything else is a
// runtime type error.
func (vm *VM) execIndex(left, index object.Object) error {
	switch {
	case left.Type() == object.ARRAY_OBJ && index.Type() == object.INTEGER_OBJ:
		arr := left.(*object.Array)
		i := index.(*object.Integer).Value
		if i < 0 || i >= int64(len(arr.Elements)) {
			return vm.push(object.NULL)
		}
		return vm.push(arr.Elements[i])

	case left.Type() == object.HASH_OBJ:
		h := left.(*object.Hash)
		val, ok := h.Get(index)
		if !ok {
			return vm.push(object.NULL)
		}
		return vm.push(val)

	default:
		return runtimeErrorf("index operator not supported: %s", left.Type())
	}
}

// execSetIndex implements `arr[i] = v` at runtime: stack holds v, arr, i
// (bottom to top, per the compiler's emission order in spec.md §4.3),
// popped i, arr, v in that order.
func (vm *VM) execSetIndex() error {
	index := vm.pop()
	container := vm.pop()
	value := vm.pop()

	switch c := container.(type) {
	case *object.Array:
		i, ok := index.(*object.Integer)
		if !ok {
			return runtimeErrorf("array index must be INTEGER, got %s", index.Type())
		}
		if i.Value < 0 || i.Value >= int64(len(c.Elements)) {
			return runtimeErrorf("index out of range: %d", i.Value)
		}
		c.Elements[i.Value] = value
		return vm.push(value)

	case *object.Hash:
		if err := c.Set(index, value); err != nil {
			return runtimeErrorf("%s", err.Error())
		}
		return vm.push(value)

	default:
		return runtimeErrorf("index assignment not supported: %s", container.Type())
	}
}
