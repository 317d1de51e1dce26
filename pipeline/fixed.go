package pipeline

import (
	"github.com/pkg/errors"

	"dauphin/ir"
)

// Macro is a call-site macro body the call pass can expand: body is a
// template over Params, in order; expanding binds each Param to the
// corresponding actual register at the call site and copies body with
// every other register replaced by a fresh one, so two expansions of the
// same macro never collide on registers.
type Macro struct {
	Params []ir.Register
	Body   []ir.Instruction
}

func passCall(r *run) error {
	if len(r.macros) == 0 {
		return nil
	}
	out := make([]ir.Instruction, 0, len(r.ctx.Instructions))
	for _, instr := range r.ctx.Instructions {
		macro, ok := r.macros[instr.Name]
		if instr.Kind != ir.Command || !ok {
			out = append(out, instr)
			continue
		}
		if len(instr.Regs) != len(macro.Params) {
			return errors.Errorf("call %s: expected %d args, got %d", instr.Name, len(macro.Params), len(instr.Regs))
		}
		out = append(out, expandMacro(r.ctx.Allocator, macro, instr.Regs)...)
	}
	r.ctx.Replace(out)
	return nil
}

func expandMacro(alloc *ir.Allocator, macro Macro, actuals []ir.Register) []ir.Instruction {
	rename := make(map[ir.Register]ir.Register, len(macro.Params))
	for i, p := range macro.Params {
		rename[p] = actuals[i]
	}
	fresh := func(reg ir.Register) ir.Register {
		if mapped, ok := rename[reg]; ok {
			return mapped
		}
		mapped := alloc.Fresh()
		rename[reg] = mapped
		return mapped
	}

	out := make([]ir.Instruction, len(macro.Body))
	for i, instr := range macro.Body {
		copied := instr
		copied.Regs = make([]ir.Register, len(instr.Regs))
		for j, reg := range instr.Regs {
			copied.Regs[j] = fresh(reg)
		}
		out[i] = copied
	}
	return out
}

// passSimplify lowers the remaining high-level shape to pure register
// form. With no source surface syntax left to lower by the time the IR
// reaches this pipeline, its concrete job here is removing no-op
// self-copies a front end may have emitted (Copy(x, x)) — dealias handles
// the general aliasing case right after.
func passSimplify(r *run) error {
	out := r.ctx.Instructions[:0]
	for _, instr := range r.ctx.Instructions {
		if instr.Kind == ir.Copy && instr.Regs[0] == instr.Regs[1] {
			continue
		}
		out = append(out, instr)
	}
	r.ctx.Replace(out)
	return nil
}

// passLinearize checks that every Append targets a register already
// seeded by a Nil or a prior Append to the same register — the invariant
// that lets later passes treat a Nil+Append run as one flat array tracked
// by (data, offset, length) without walking a nested structure (spec
// §4.3.1). The IR arriving here is already flat by construction, so this
// pass's real job is catching a malformed producer rather than
// restructuring anything.
func passLinearize(r *run) error {
	seeded := make(map[ir.Register]bool)
	for _, instr := range r.ctx.Instructions {
		switch instr.Kind {
		case ir.Nil:
			seeded[instr.Regs[0]] = true
		case ir.Append:
			list := instr.Regs[0]
			if !seeded[list] {
				return errors.Errorf("append to register %s before it was seeded by Nil", list)
			}
		}
	}
	return nil
}

// passDealias removes Copy-chain aliases: every Copy(dst, src) is dropped
// and every later reference to dst is rewritten to src's ultimate
// canonical register (spec §4.3.1).
func passDealias(r *run) error {
	canonical := make(map[ir.Register]ir.Register)
	resolve := func(reg ir.Register) ir.Register {
		for {
			next, ok := canonical[reg]
			if !ok || next == reg {
				return reg
			}
			reg = next
		}
	}

	out := make([]ir.Instruction, 0, len(r.ctx.Instructions))
	for _, instr := range r.ctx.Instructions {
		if instr.Kind == ir.Copy {
			dst, src := instr.Regs[0], instr.Regs[1]
			canonical[dst] = resolve(src)
			continue
		}
		copied := instr
		if len(instr.Regs) > 0 {
			copied.Regs = make([]ir.Register, len(instr.Regs))
			for i, reg := range instr.Regs {
				copied.Regs[i] = resolve(reg)
			}
		}
		out = append(out, copied)
	}
	r.ctx.Replace(out)
	r.remapProtected(resolve)
	return nil
}
