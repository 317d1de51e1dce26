package pipeline

import "dauphin/ir"

// passPrune removes instructions whose output registers are never read
// again and are not among the program's protected (live-out) registers
// (spec §4.3.2 "p").
func passPrune(r *run) error {
	live := make(map[ir.Register]bool, len(r.protected))
	for _, reg := range r.protected {
		live[reg] = true
	}

	kept := make([]ir.Instruction, 0, len(r.ctx.Instructions))
	for i := len(r.ctx.Instructions) - 1; i >= 0; i-- {
		instr := r.ctx.Instructions[i]
		outputs := instr.Outputs()

		keep := len(outputs) == 0
		for _, o := range outputs {
			if live[o] {
				keep = true
			}
		}
		if !keep {
			continue
		}
		for _, reg := range instr.Regs {
			live[reg] = true
		}
		kept = append(kept, instr)
	}

	out := make([]ir.Instruction, len(kept))
	for i, instr := range kept {
		out[len(kept)-1-i] = instr
	}
	r.ctx.Replace(out)
	return nil
}

// passReuseRegs renames an instruction's single output register to one of
// its input registers when that input is dead after this instruction —
// the classic "reuse a dying operand's slot" reuse (spec §4.3.2 "u").
func passReuseRegs(r *run) error {
	r.markSpeculative()
	last := lastUse(r.ctx.Instructions)
	rename := make(map[ir.Register]ir.Register)
	resolve := func(reg ir.Register) ir.Register {
		for {
			next, ok := rename[reg]
			if !ok {
				return reg
			}
			reg = next
		}
	}

	out := make([]ir.Instruction, len(r.ctx.Instructions))
	for i, instr := range r.ctx.Instructions {
		copied := instr
		if len(instr.Regs) > 0 {
			copied.Regs = make([]ir.Register, len(instr.Regs))
			for j, reg := range instr.Regs {
				copied.Regs[j] = resolve(reg)
			}
		}
		outputs := copied.Outputs()
		if len(outputs) == 1 && len(copied.Regs) > 1 {
			dying := copied.Regs[1]
			if last[instr.Regs[1]] == i && dying != outputs[0] {
				rename[outputs[0]] = dying
				copied.Regs[0] = dying
			}
		}
		out[i] = copied
	}
	r.ctx.Replace(out)
	r.remapProtected(resolve)
	return nil
}

// passUseEarliest coalesces duplicate constant-producing instructions,
// renaming later occurrences to the earliest register already holding an
// identical constant value (spec §4.3.2 "e").
func passUseEarliest(r *run) error {
	r.markSpeculative()
	type key struct {
		kind ir.Kind
		lit  string
	}
	seen := make(map[key]ir.Register)
	rename := make(map[ir.Register]ir.Register)
	resolve := func(reg ir.Register) ir.Register {
		for {
			next, ok := rename[reg]
			if !ok {
				return reg
			}
			reg = next
		}
	}

	out := make([]ir.Instruction, 0, len(r.ctx.Instructions))
	for _, instr := range r.ctx.Instructions {
		copied := instr
		if len(instr.Regs) > 0 {
			copied.Regs = make([]ir.Register, len(instr.Regs))
			for i, reg := range instr.Regs {
				copied.Regs[i] = resolve(reg)
			}
		}

		k, ok := constKey(copied)
		if ok {
			if earliest, dup := seen[k]; dup {
				rename[copied.Regs[0]] = earliest
				continue
			}
			seen[k] = copied.Regs[0]
		}
		out = append(out, copied)
	}
	r.ctx.Replace(out)
	r.remapProtected(resolve)
	return nil
}

func constKey(instr ir.Instruction) (struct {
	kind ir.Kind
	lit  string
}, bool) {
	type key = struct {
		kind ir.Kind
		lit  string
	}
	switch instr.Kind {
	case ir.NumberConst:
		return key{instr.Kind, formatFloat(instr.Number)}, true
	case ir.BooleanConst:
		return key{instr.Kind, formatBool(instr.Boolean)}, true
	case ir.StringConst:
		return key{instr.Kind, instr.Str}, true
	default:
		return key{}, false
	}
}

// passReuseDead coalesces registers whose live ranges never overlap into
// one representative register, a greedy interval-graph coloring (spec
// §4.3.2 "d").
func passReuseDead(r *run) error {
	r.markSpeculative()
	last := lastUse(r.ctx.Instructions)
	firstDef := make(map[ir.Register]int)
	for i, instr := range r.ctx.Instructions {
		for _, reg := range instr.Outputs() {
			if _, ok := firstDef[reg]; !ok {
				firstDef[reg] = i
			}
		}
	}

	type bucket struct {
		rep        ir.Register
		freeAtLine int
	}
	var buckets []*bucket
	rename := make(map[ir.Register]ir.Register)

	order := make([]ir.Register, 0, len(firstDef))
	for reg := range firstDef {
		order = append(order, reg)
	}
	sortRegistersByFirstDef(order, firstDef)

	for _, reg := range order {
		start, end := firstDef[reg], last[reg]
		placed := false
		for _, b := range buckets {
			if b.freeAtLine <= start {
				rename[reg] = b.rep
				b.freeAtLine = end
				placed = true
				break
			}
		}
		if !placed {
			buckets = append(buckets, &bucket{rep: reg, freeAtLine: end})
		}
	}

	resolve := func(reg ir.Register) ir.Register {
		if mapped, ok := rename[reg]; ok {
			return mapped
		}
		return reg
	}

	out := make([]ir.Instruction, len(r.ctx.Instructions))
	for i, instr := range r.ctx.Instructions {
		copied := instr
		if len(instr.Regs) > 0 {
			copied.Regs = make([]ir.Register, len(instr.Regs))
			for j, reg := range instr.Regs {
				copied.Regs[j] = resolve(reg)
			}
		}
		out[i] = copied
	}
	r.ctx.Replace(out)
	r.remapProtected(resolve)
	return nil
}

func sortRegistersByFirstDef(regs []ir.Register, firstDef map[ir.Register]int) {
	for i := 1; i < len(regs); i++ {
		for j := i; j > 0 && firstDef[regs[j-1]] > firstDef[regs[j]]; j-- {
			regs[j-1], regs[j] = regs[j], regs[j-1]
		}
	}
}

// passAssignRegs finalizes register assignments densely, in order of
// first appearance (spec §4.3.2 "a"; also the fixed post-sequence step if
// "a" was not already in the optional sequence).
func passAssignRegs(r *run) error {
	alloc := ir.NewAllocator()
	rename := make(map[ir.Register]ir.Register)
	resolve := func(reg ir.Register) ir.Register {
		mapped, ok := rename[reg]
		if !ok {
			mapped = alloc.Fresh()
			rename[reg] = mapped
		}
		return mapped
	}

	out := make([]ir.Instruction, len(r.ctx.Instructions))
	for i, instr := range r.ctx.Instructions {
		copied := instr
		if len(instr.Regs) > 0 {
			copied.Regs = make([]ir.Register, len(instr.Regs))
			for j, reg := range instr.Regs {
				copied.Regs[j] = resolve(reg)
			}
		}
		out[i] = copied
	}
	r.ctx.Replace(out)
	r.ctx.Allocator = alloc
	r.remapProtected(resolve)
	r.assignRegsRan = true
	return nil
}

// passPeephole removes a LineNumber instruction that repeats the
// immediately preceding one's line (spec §4.3.2 "m"). A Nil instruction
// feeding only a contiguous run of Appends is already the flattest form
// this IR has — there is no richer list-literal instruction to collapse
// it into, so that half of "m" is a no-op here by construction.
func passPeephole(r *run) error {
	out := make([]ir.Instruction, 0, len(r.ctx.Instructions))
	currentLine := -1
	haveLine := false
	for _, instr := range r.ctx.Instructions {
		if instr.Kind == ir.LineNumber {
			if haveLine && instr.Line == currentLine {
				continue
			}
			currentLine = instr.Line
			haveLine = true
		}
		out = append(out, instr)
	}
	r.ctx.Replace(out)
	return nil
}

// passRetreat reverts to the snapshot captured by the first speculative
// pass (u/e/d) in this optimization sequence if it did not shrink the
// accounted instruction count (spec §4.3.2 "r").
func passRetreat(r *run) error {
	if r.speculative == nil {
		return nil
	}
	before := ir.NewGenContext(r.speculative, nil).AccountedLen()
	after := r.ctx.AccountedLen()
	if after >= before {
		r.ctx.Replace(r.speculative)
	}
	r.speculative = nil
	return nil
}

func (r *run) markSpeculative() {
	if r.speculative == nil {
		r.speculative = append([]ir.Instruction(nil), r.ctx.Instructions...)
	}
}
