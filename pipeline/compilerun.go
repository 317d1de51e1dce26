package pipeline

import (
	"math"

	"github.com/pkg/errors"

	"dauphin/ir"
)

// compileRun builds the compile-run pass (spec §4.3.3), the first of
// which is fixed and the rest selectable via the "c" tag in the optional
// sequence. first/last bracket the overall pre-image sequence: Replace is
// forbidden once last is true, and a fully concrete program is expected
// to be a fixed point of this pass on its own last run (property 6, §8).
func compileRun(first, last bool) func(*run) error {
	return func(r *run) error {
		ctx := ir.NewPreImageContext(r.linker, first, last)
		pending := append([]ir.Instruction(nil), r.ctx.Instructions...)
		out := make([]ir.Instruction, 0, len(pending))
		currentLine := 0

		for i := 0; i < len(pending); {
			instr := pending[i]

			if instr.Kind == ir.LineNumber {
				currentLine = instr.Line
				out = append(out, instr)
				i++
				continue
			}

			if instr.Kind == ir.Command {
				outcome, err := evalPreimage(r, ctx, instr)
				if err != nil {
					return errors.Wrapf(err, "preimaging %s (line %d)", instr.Name, currentLine)
				}
				switch outcome.Kind {
				case ir.Skip:
					out = append(out, instr)
					for _, reg := range instr.Outputs() {
						ctx.Invalidate(reg)
					}
					for _, sz := range outcome.Sizes {
						ctx.SetSize(sz.Reg, sz.Size)
					}
					i++
				case ir.Replace:
					if last {
						return errors.Errorf("preimaging %s (line %d): Replace returned on the final pre-image pass", instr.Name, currentLine)
					}
					spliced := make([]ir.Instruction, 0, len(pending)-1+len(outcome.Instrs))
					spliced = append(spliced, pending[:i]...)
					spliced = append(spliced, outcome.Instrs...)
					spliced = append(spliced, pending[i+1:]...)
					pending = spliced
					// reprocess starting at the same index: it now holds
					// the first replacement instruction.
				case ir.Constant:
					for idx, reg := range outcome.Regs {
						ctx.CommitValue(reg, outcome.Values[idx])
						out = append(out, materialize(r.ctx.Allocator, reg, outcome.Values[idx])...)
					}
					i++
				case ir.SkipConstant:
					out = append(out, instr)
					for _, reg := range outcome.Regs {
						ctx.MarkValid(reg)
					}
					i++
				}
				continue
			}

			out = append(out, applyNative(ctx, instr))
			i++
		}

		r.ctx.Replace(out)
		return nil
	}
}

func evalPreimage(r *run, ctx *ir.PreImageContext, instr ir.Instruction) (ir.PreImageOutcome, error) {
	v, err := r.interp.Eval(func() (interface{}, error) {
		return r.linker.Preimage(ctx, instr)
	})
	if err != nil {
		return ir.PreImageOutcome{}, err
	}
	outcome, ok := v.(ir.PreImageOutcome)
	if !ok {
		return ir.PreImageOutcome{}, errors.Errorf("preimage fragment returned unexpected type %T", v)
	}
	return outcome, nil
}

// applyNative folds the IR's own constant-bearing instruction kinds
// directly, without consulting the linker — Nil/Const/NumberConst/
// BooleanConst/StringConst/BytesConst/Copy/Append are language primitives,
// not command-library commands.
func applyNative(ctx *ir.PreImageContext, instr ir.Instruction) ir.Instruction {
	switch instr.Kind {
	case ir.NumberConst:
		ctx.CommitValue(instr.Regs[0], instr.Number)
	case ir.BooleanConst:
		ctx.CommitValue(instr.Regs[0], instr.Boolean)
	case ir.StringConst:
		ctx.CommitValue(instr.Regs[0], instr.Str)
	case ir.BytesConst:
		ctx.CommitValue(instr.Regs[0], instr.Bytes)
	case ir.Const:
		val := make([]interface{}, len(instr.Indexes))
		for i, idx := range instr.Indexes {
			val[i] = idx
		}
		ctx.CommitValue(instr.Regs[0], val)
	case ir.Nil:
		ctx.CommitValue(instr.Regs[0], []interface{}{})
	case ir.Append:
		list, item := instr.Regs[0], instr.Regs[1]
		lv, lok := ctx.Value(list)
		iv, iok := ctx.Value(item)
		if lok && iok {
			arr, _ := lv.([]interface{})
			ctx.CommitValue(list, append(append([]interface{}(nil), arr...), iv))
		} else {
			ctx.Invalidate(list)
		}
	case ir.Copy:
		dst, src := instr.Regs[0], instr.Regs[1]
		if v, ok := ctx.Value(src); ok {
			ctx.CommitValue(dst, v)
		} else {
			ctx.Invalidate(dst)
		}
	}
	return instr
}

// materialize emits the instruction(s) that commit value into reg in the
// output program (spec §4.3.3): long arrays become a Nil+Append run, a
// single-element array uses the scalar literal, and a whole non-negative
// number converts to an Const index literal rather than a NumberConst when
// that conversion is lossless.
func materialize(alloc *ir.Allocator, reg ir.Register, value interface{}) []ir.Instruction {
	if arr, ok := value.([]interface{}); ok {
		switch len(arr) {
		case 0:
			return []ir.Instruction{ir.NewNil(reg)}
		case 1:
			return materializeScalar(reg, arr[0])
		default:
			out := []ir.Instruction{ir.NewNil(reg)}
			for _, item := range arr {
				itemReg := alloc.Fresh()
				out = append(out, materializeScalar(itemReg, item)...)
				out = append(out, ir.NewAppend(reg, itemReg))
			}
			return out
		}
	}
	return materializeScalar(reg, value)
}

func materializeScalar(reg ir.Register, value interface{}) []ir.Instruction {
	switch v := value.(type) {
	case float64:
		if v >= 0 && v == math.Trunc(v) {
			return []ir.Instruction{ir.NewConst(reg, []int{int(v)})}
		}
		return []ir.Instruction{ir.NewNumberConst(reg, v)}
	case int:
		return []ir.Instruction{ir.NewConst(reg, []int{v})}
	case bool:
		return []ir.Instruction{ir.NewBooleanConst(reg, v)}
	case string:
		return []ir.Instruction{ir.NewStringConst(reg, v)}
	case []byte:
		return []ir.Instruction{ir.NewBytesConst(reg, v)}
	default:
		return []ir.Instruction{ir.NewNumberConst(reg, 0)}
	}
}
