package pipeline

import (
	"github.com/pkg/errors"

	"dauphin/ir"
)

// pauseInsert builds the fixed post-sequence's final step (SPEC_FULL
// pass_pause): walk the finalized instruction list accumulating each
// command's execution_time(ctx) since the last pause, and insert a
// Pause(Yield) whenever that accumulation crosses budget. Non-Command
// instructions are cheap and accrue a small fixed cost so a long run of
// native const/append instructions still eventually yields.
func pauseInsert(budget float64) func(*run) error {
	const nativeCost = 0.1
	return func(r *run) error {
		ctx := ir.NewPreImageContext(r.linker, false, false)
		out := make([]ir.Instruction, 0, len(r.ctx.Instructions))
		acc := 0.0

		for _, instr := range r.ctx.Instructions {
			out = append(out, instr)
			if !instr.IsAccounted() {
				continue
			}

			cost := nativeCost
			if instr.Kind == ir.Command {
				c, err := r.linker.ExecutionTime(ctx, instr)
				if err != nil {
					return errors.Wrapf(err, "execution_time %s", instr.Name)
				}
				cost = c
			}
			acc += cost

			if acc >= budget {
				out = append(out, ir.NewPause(ir.Yield))
				acc = 0
			}
		}

		r.ctx.Replace(out)
		return nil
	}
}
