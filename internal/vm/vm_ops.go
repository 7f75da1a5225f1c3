package vm

import (
	"github.com/pepper-lang/pepper/internal/code"
	"github.com/pepper-lang/pepper/internal/object"
)

// execBinaryOp implements spec.md §4.4's arithmetic rules: both operands
// Integer for arithmetic, or both String for `+` (concatenation). Any
// other combination is a runtime type error; division/modulo by zero is
// a runtime error.
func (vm *VM) execBinaryOp(op code.Opcode) error {
	right := vm.pop()
	left := vm.pop()

	leftInt, leftIsInt := left.(*object.Integer)
	rightInt, rightIsInt := right.(*object.Integer)

	if leftIsInt && rightIsInt {
		return vm.execIntegerBinaryOp(op, leftInt, rightInt)
	}

	leftStr, leftIsStr := left.(*object.String)
	rightStr, rightIsStr := right.(*object.String)
	if op == code.OpAdd && leftIsStr && rightIsStr {
		return vm.push(&object.String{Value: leftStr.Value + rightStr.Value})
	}

	return runtimeErrorf("type mismatch: %s %s %s", left.Type(), opSymbol(op), right.Type())
}

// execIntegerBinaryOp uses Go's native int64 wraparound to give spec.md
// §3's "two's-complement 64-bit semantics with wrap on overflow" for free.
func (vm *VM) execIntegerBinaryOp(op code.Opcode, left, right *object.Integer) error {
	l, r := left.Value, right.Value
	var result int64

	switch op {
	case code.OpAdd:
		result = l + r
	case code.OpSub:
		result = l - r
	case code.OpMul:
		result = l * r
	case code.OpDiv:
		if r == 0 {
			return runtimeErrorf("division by zero")
		}
		result = l / r
	case code.OpMod:
		if r == 0 {
			return runtimeErrorf("modulo by zero")
		}
		result = l % r
	default:
		return runtimeErrorf("unknown integer operator %s", op)
	}
	return vm.push(&object.Integer{Value: result})
}

func opSymbol(op code.Opcode) string {
	switch op {
	case code.OpAdd:
		return "+"
	case code.OpSub:
		return "-"
	case code.OpMul:
		return "*"
	case code.OpDiv:
		return "/"
	case code.OpMod:
		return "%"
	default:
		return op.String()
	}
}

// execComparison implements spec.md §4.4: equality works on any two
// values without error, but ordering (GreaterThan/GreaterEqual) is
// Integer-only.
func (vm *VM) execComparison(op code.Opcode) error {
	right := vm.pop()
	left := vm.pop()

	switch op {
	case code.OpEqual:
		return vm.push(object.NativeBool(object.Equal(left, right)))
	case code.OpNotEqual:
		return vm.push(object.NativeBool(!object.Equal(left, right)))
	}

	leftInt, leftIsInt := left.(*object.Integer)
	rightInt, rightIsInt := right.(*object.Integer)
	if !leftIsInt || !rightIsInt {
		return runtimeErrorf("type mismatch: %s %s %s", left.Type(), opSymbol(op), right.Type())
	}

	switch op {
	case code.OpGreaterThan:
		return vm.push(object.NativeBool(leftInt.Value > rightInt.Value))
	case code.OpGreaterEqual:
		return vm.push(object.NativeBool(leftInt.Value >= rightInt.Value))
	default:
		return runtimeErrorf("unknown comparison operator %s", op)
	}
}

// execBooleanOp implements spec.md §9's strict (non-short-circuiting)
// OP_AND/OP_OR: both operands are already evaluated and on the stack by
// the time this runs, so both are unconditionally combined.
func (vm *VM) execBooleanOp(op code.Opcode) error {
	right := vm.pop()
	left := vm.pop()

	l, r := object.IsTruthy(left), object.IsTruthy(right)
	switch op {
	case code.OpAnd:
		return vm.push(object.NativeBool(l && r))
	case code.OpOr:
		return vm.push(object.NativeBool(l || r))
	default:
		return runtimeErrorf("unknown boolean operator %s", op)
	}
}

func (vm *VM) execMinus() error {
	operand := vm.pop()
	i, ok := operand.(*object.Integer)
	if !ok {
		return runtimeErrorf("unsupported type for negation: %s", operand.Type())
	}
	return vm.push(&object.Integer{Value: -i.Value})
}

func (vm *VM) execBang() error {
	operand := vm.pop()
	return vm.push(object.NativeBool(!object.IsTruthy(operand)))
}
