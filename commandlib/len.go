package commandlib

import (
	"github.com/pkg/errors"

	"dauphin/internal/errkind"
	"dauphin/ir"
)

// Len is the descriptor for the one-input length command: a string or
// list in, a Number out.
var Len lenDescriptor

type lenDescriptor struct{}

func (lenDescriptor) Schema() Schema {
	return Schema{Inputs: []ValueType{TAny}, Outputs: []ValueType{TNumber}}
}

func (lenDescriptor) FromInstruction(instr ir.Instruction) (CompiledCommand, error) {
	if len(instr.Regs) != 2 {
		return nil, errors.Errorf("len: expected 2 registers (out, in), got %d", len(instr.Regs))
	}
	return &lenCmd{out: instr.Regs[0], in: instr.Regs[1]}, nil
}

type lenCmd struct {
	out, in ir.Register
}

func (c *lenCmd) Preimage(ctx *ir.PreImageContext) (ir.PreImageOutcome, error) {
	v, ok := ctx.Value(c.in)
	if !ok {
		if size, ok := ctx.Size(c.in); ok {
			ctx.CommitValue(c.out, float64(size))
			return ir.NewConstant([]ir.Register{c.out}, []interface{}{float64(size)}), nil
		}
		return ir.NewSkip(nil), nil
	}

	n, err := lengthOf(v)
	if err != nil {
		return ir.PreImageOutcome{}, errkind.With(errkind.Internal, errors.Wrap(err, "len"))
	}
	result := float64(n)
	ctx.CommitValue(c.out, result)
	return ir.NewConstant([]ir.Register{c.out}, []interface{}{result}), nil
}

func (c *lenCmd) ExecutionTime(ctx *ir.PreImageContext) (float64, error) {
	return 1, nil
}

func lengthOf(v interface{}) (int, error) {
	switch x := v.(type) {
	case string:
		return len(x), nil
	case []interface{}:
		return len(x), nil
	default:
		return 0, errors.Errorf("len: unsupported operand kind %T", v)
	}
}
