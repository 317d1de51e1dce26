// Package pipeline implements the Pre-image Compiler Pipeline (spec §4.3):
// a fixed pre-sequence, a caller-selected optional sequence of single-letter
// passes, and a fixed post-sequence, transforming a register-machine IR
// instruction list into its final, pre-imaged, pause-annotated form.
package pipeline

import (
	"strings"

	"github.com/pkg/errors"

	"dauphin/commandlib"
	"dauphin/interp"
	"dauphin/ir"
)

// Request bundles everything one pipeline invocation needs: the program,
// its register allocator, the command-library linker to preimage against,
// the optimization sequence (already expanded from an --opt-level if the
// caller used one), and the registers whose final values the caller
// actually needs (spec's "emit" — prune's live-out root set).
type Request struct {
	Program   []ir.Instruction
	Allocator *ir.Allocator
	Linker    ir.Linker
	OptSeq    string
	Protected []ir.Register
	Macros    map[string]Macro
	Config    Config
}

// Run executes the full pipeline and returns the transformed program
// together with the final register ids of req.Protected — every
// register-renaming pass may reassign registers, so the caller cannot
// assume its original Protected ids still name anything in the output.
func Run(req Request) (instrs []ir.Instruction, protected []ir.Register, err error) {
	if req.Linker == nil {
		req.Linker = commandlib.NewStdLoader()
	}
	if req.Allocator == nil {
		req.Allocator = ir.NewAllocator()
	}

	r := &run{
		ctx:       ir.NewGenContext(req.Program, req.Allocator),
		linker:    req.Linker,
		cfg:       req.Config,
		macros:    req.Macros,
		protected: req.Protected,
		interp:    interp.New(),
		instr:     newInstrumentation(req.Config),
	}

	compileRunCount := 1 + strings.Count(req.OptSeq, "c")
	compileRunSeen := 0
	nextCompileRun := func() (first, last bool) {
		compileRunSeen++
		return compileRunSeen == 1, compileRunSeen == compileRunCount
	}

	fixedFirst, fixedLast := nextCompileRun()
	fixedPre := []pass{
		{Name: "call", Fn: passCall},
		{Name: "simplify", Fn: passSimplify},
		{Name: "linearize", Fn: passLinearize},
		{Name: "dealias", Fn: passDealias},
		{Name: "compile-run", Fn: compileRun(fixedFirst, fixedLast)},
	}
	for _, p := range fixedPre {
		if err := runPass(r, p); err != nil {
			return nil, nil, err
		}
	}

	for _, tag := range req.OptSeq {
		p, perr := optionalPass(string(tag), nextCompileRun)
		if perr != nil {
			return nil, nil, perr
		}
		if err := runPass(r, p); err != nil {
			return nil, nil, err
		}
	}

	if !r.assignRegsRan {
		if err := runPass(r, pass{Name: "assign-regs", Fn: passAssignRegs}); err != nil {
			return nil, nil, err
		}
	}
	if err := runPass(r, pass{Name: "pause-insert", Fn: pauseInsert(r.cfg.pauseBudget())}); err != nil {
		return nil, nil, err
	}

	return r.ctx.Instructions, r.protected, nil
}

func optionalPass(tag string, nextCompileRun func() (bool, bool)) (pass, error) {
	switch tag {
	case "c":
		first, last := nextCompileRun()
		return pass{Tag: "c", Name: "compile-run", Fn: compileRun(first, last)}, nil
	case "p":
		return pass{Tag: "p", Name: "prune", Fn: passPrune}, nil
	case "u":
		return pass{Tag: "u", Name: "reuse-regs", Fn: passReuseRegs}, nil
	case "e":
		return pass{Tag: "e", Name: "use-earliest", Fn: passUseEarliest}, nil
	case "d":
		return pass{Tag: "d", Name: "reuse-dead", Fn: passReuseDead}, nil
	case "a":
		return pass{Tag: "a", Name: "assign-regs", Fn: passAssignRegs}, nil
	case "m":
		return pass{Tag: "m", Name: "peephole", Fn: passPeephole}, nil
	case "r":
		return pass{Tag: "r", Name: "retreat", Fn: passRetreat}, nil
	default:
		return pass{}, errors.Errorf("optimization sequence: unknown pass tag %q", tag)
	}
}
