package ir

// GenContext is the mutable instruction list a pass transforms, plus the
// allocator it draws fresh registers from (spec §3.3). Passes are pure
// functions of GenContext in the sense that their effect on the
// instruction list could equally be expressed as producing a new list;
// mutating in place just avoids a full copy per pass.
type GenContext struct {
	Instructions []Instruction
	Allocator    *Allocator
}

// NewGenContext starts a fresh context over program, allocating registers
// from alloc (shared with whatever front end produced program, so newly
// minted registers there never collide with ones this pipeline mints).
func NewGenContext(program []Instruction, alloc *Allocator) *GenContext {
	if alloc == nil {
		alloc = NewAllocator()
	}
	return &GenContext{Instructions: program, Allocator: alloc}
}

// Replace swaps the instruction list wholesale — the shape every pass
// uses to install its rewritten output.
func (g *GenContext) Replace(instrs []Instruction) {
	g.Instructions = instrs
}

// AccountedLen returns the count of instructions that count toward
// instrumentation (excludes Pause and LineNumber, spec §4.3.4).
func (g *GenContext) AccountedLen() int {
	n := 0
	for _, instr := range g.Instructions {
		if instr.IsAccounted() {
			n++
		}
	}
	return n
}
