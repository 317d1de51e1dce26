package pipeline

import (
	"github.com/pkg/errors"

	"dauphin/interp"
	"dauphin/ir"
)

// pass is a named function object over a GenContext (spec §9: "model each
// pass as a named function object ... rather than a class hierarchy").
// The pipeline itself is just an ordered list of these.
type pass struct {
	Tag  string // single-letter tag for the optional sequence, "" for fixed passes
	Name string
	Fn   func(*run) error
}

// run is the mutable state threaded through one full pipeline invocation:
// the instruction list, the command-library linker, the embedded
// interpreter, and the bookkeeping assign-regs/pause-insert need to know
// whether they've already run.
type run struct {
	ctx       *ir.GenContext
	linker    ir.Linker
	cfg       Config
	macros    map[string]Macro
	protected []ir.Register
	interp    *interp.Interpreter

	assignRegsRan bool
	speculative   []ir.Instruction
	instr         *instrumentation
}

// remapProtected rewrites r.protected through resolve — every pass that
// renames or coalesces registers must call this, or a later prune sees a
// stale liveness root and deletes a register the caller still needs.
func (r *run) remapProtected(resolve func(ir.Register) ir.Register) {
	if len(r.protected) == 0 {
		return
	}
	out := make([]ir.Register, len(r.protected))
	for i, reg := range r.protected {
		out[i] = resolve(reg)
	}
	r.protected = out
}

func runPass(r *run, p pass) error {
	before := r.instr.start(p.Name, r.ctx)
	err := p.Fn(r)
	r.instr.finish(p.Name, r.ctx, before)
	if err != nil {
		return errors.Wrapf(err, "generate step %s", p.Name)
	}
	return nil
}
