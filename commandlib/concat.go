package commandlib

import (
	"fmt"

	"github.com/pkg/errors"

	"dauphin/internal/errkind"
	"dauphin/ir"
)

// Concat is the descriptor for the two-input string/list concatenation
// command: folds to a Constant once both operands are committed, otherwise
// Skips with a size hint once both operand sizes are known even if their
// contents aren't (spec §4.3.3's "apply any size hints from sizes").
var Concat concatDescriptor

type concatDescriptor struct{}

func (concatDescriptor) Schema() Schema {
	return Schema{Inputs: []ValueType{TAny, TAny}, Outputs: []ValueType{TAny}}
}

func (concatDescriptor) FromInstruction(instr ir.Instruction) (CompiledCommand, error) {
	if len(instr.Regs) != 3 {
		return nil, errors.Errorf("concat: expected 3 registers (out, lhs, rhs), got %d", len(instr.Regs))
	}
	return &concatCmd{out: instr.Regs[0], lhs: instr.Regs[1], rhs: instr.Regs[2]}, nil
}

type concatCmd struct {
	out, lhs, rhs ir.Register
}

func (c *concatCmd) Preimage(ctx *ir.PreImageContext) (ir.PreImageOutcome, error) {
	lv, lok := ctx.Value(c.lhs)
	rv, rok := ctx.Value(c.rhs)
	if !lok || !rok {
		if lsz, lok := ctx.Size(c.lhs); lok {
			if rsz, rok := ctx.Size(c.rhs); rok {
				return ir.NewSkip([]ir.RegisterSize{{Reg: c.out, Size: lsz + rsz}}), nil
			}
		}
		return ir.NewSkip(nil), nil
	}

	result, err := concatValues(lv, rv)
	if err != nil {
		return ir.PreImageOutcome{}, errkind.With(errkind.Internal, errors.Wrap(err, "concat"))
	}
	ctx.CommitValue(c.out, result)
	return ir.NewConstant([]ir.Register{c.out}, []interface{}{result}), nil
}

func (c *concatCmd) ExecutionTime(ctx *ir.PreImageContext) (float64, error) {
	return 1, nil
}

func concatValues(lv, rv interface{}) (interface{}, error) {
	switch l := lv.(type) {
	case string:
		r, ok := rv.(string)
		if !ok {
			return nil, errors.New("concat: mismatched operand kinds")
		}
		return l + r, nil
	case []interface{}:
		r, ok := rv.([]interface{})
		if !ok {
			return nil, errors.New("concat: mismatched operand kinds")
		}
		return append(append([]interface{}(nil), l...), r...), nil
	default:
		return nil, fmt.Errorf("concat: unsupported operand kind %T", lv)
	}
}
