package pipeline

import "dauphin/ir"

// lastUse returns, for every register referenced anywhere in instrs, the
// index of the last instruction that references it — the liveness metric
// the register-reuse passes reuse-regs (u) and reuse-dead (d) key off of.
func lastUse(instrs []ir.Instruction) map[ir.Register]int {
	last := make(map[ir.Register]int)
	for i, instr := range instrs {
		for _, reg := range instr.Regs {
			last[reg] = i
		}
	}
	return last
}
