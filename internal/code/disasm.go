package code

import (
	"bytes"
	"fmt"
)

// String disassembles ins into a human-readable listing. It exists purely
// as a test and error-message aid (spec.md's Non-goals rule out a debugger;
// this never becomes a stepping facility, only a textual dump).
func (ins Instructions) String() string {
	var out bytes.Buffer

	i := 0
	for i < len(ins) {
		op := Opcode(ins[i])
		operands, read := ReadOperands(op, ins[i+1:])

		fmt.Fprintf(&out, "%04d %s\n", i, formatInstruction(op, operands))
		i += 1 + read
	}
	return out.String()
}

func formatInstruction(op Opcode, operands []int) string {
	widthCount := len(OperandWidths(op))
	if len(operands) != widthCount {
		return fmt.Sprintf("ERROR: operand count %d does not match width count %d for %s", len(operands), widthCount, op)
	}

	switch widthCount {
	case 0:
		return op.String()
	case 1:
		return fmt.Sprintf("%s %d", op, operands[0])
	case 2:
		return fmt.Sprintf("%s %d %d", op, operands[0], operands[1])
	default:
		return fmt.Sprintf("ERROR: unhandled operand count for %s", op)
	}
}
