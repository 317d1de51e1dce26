package commandlib

import (
	"github.com/pkg/errors"

	"dauphin/internal/errkind"
	"dauphin/ir"
)

// binaryNumeric is the Descriptor for a two-input, one-output arithmetic
// command (add/sub/mul): two Number inputs, one Number output, folded to a
// Constant outcome once both operands are known.
type binaryNumeric struct {
	name string
	fold func(a, b float64) float64
}

func (b binaryNumeric) Schema() Schema {
	return Schema{Inputs: []ValueType{TNumber, TNumber}, Outputs: []ValueType{TNumber}}
}

func (b binaryNumeric) FromInstruction(instr ir.Instruction) (CompiledCommand, error) {
	if len(instr.Regs) != 3 {
		return nil, errors.Errorf("%s: expected 3 registers (out, lhs, rhs), got %d", b.name, len(instr.Regs))
	}
	return &binaryNumericCmd{def: b, out: instr.Regs[0], lhs: instr.Regs[1], rhs: instr.Regs[2]}, nil
}

type binaryNumericCmd struct {
	def      binaryNumeric
	out, lhs, rhs ir.Register
}

func (c *binaryNumericCmd) Preimage(ctx *ir.PreImageContext) (ir.PreImageOutcome, error) {
	lv, lok := ctx.Value(c.lhs)
	rv, rok := ctx.Value(c.rhs)
	if !lok || !rok {
		return ir.NewSkip(nil), nil
	}
	lf, ok1 := lv.(float64)
	rf, ok2 := rv.(float64)
	if !ok1 || !ok2 {
		return ir.PreImageOutcome{}, errkind.With(errkind.Internal,
			errors.Errorf("%s: non-numeric operand committed", c.def.name))
	}
	result := c.def.fold(lf, rf)
	ctx.CommitValue(c.out, result)
	return ir.NewConstant([]ir.Register{c.out}, []interface{}{result}), nil
}

func (c *binaryNumericCmd) ExecutionTime(ctx *ir.PreImageContext) (float64, error) {
	return 1, nil
}

// Add, Sub, Mul are the registrable descriptors for the three arithmetic
// commands, grounded on the opcode-per-operator dispatch style of the
// teacher's VM (each opcode a small, independently testable function).
var (
	Add = binaryNumeric{name: "add", fold: func(a, b float64) float64 { return a + b }}
	Sub = binaryNumeric{name: "sub", fold: func(a, b float64) float64 { return a - b }}
	Mul = binaryNumeric{name: "mul", fold: func(a, b float64) float64 { return a * b }}
)
