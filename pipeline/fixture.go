package pipeline

import (
	"github.com/pkg/errors"

	"dauphin/ir"
)

// Fixture is a golden pass-preservation scenario (spec §8 property 7): a
// small program expressed over named registers, the optional sequence it
// should be run through, and the value the protected register must hold
// afterward — modeled on the teacher conformance pack's declarative YAML
// test cases, but over IR programs instead of verb source.
type Fixture struct {
	Name      string          `yaml:"name"`
	Program   []FixtureInstr  `yaml:"program"`
	OptSeq    string          `yaml:"opt_seq"`
	Protected string          `yaml:"protected"`
	Expect    interface{}     `yaml:"expect"`
}

// FixtureInstr is one instruction over register names instead of
// allocator-assigned Register ids; build resolves names to registers as
// they're first seen.
type FixtureInstr struct {
	Op      string   `yaml:"op"`
	Out     string   `yaml:"out,omitempty"`
	Args    []string `yaml:"args,omitempty"`
	Number  *float64 `yaml:"number,omitempty"`
	Boolean *bool    `yaml:"boolean,omitempty"`
	Str     *string  `yaml:"str,omitempty"`
}

// Build lowers a Fixture's named-register program into an IR instruction
// list plus the allocator that produced it and the named-register lookup
// table, so callers can resolve Fixture.Protected to an ir.Register.
func (f Fixture) Build() ([]ir.Instruction, *ir.Allocator, map[string]ir.Register, error) {
	alloc := ir.NewAllocator()
	names := make(map[string]ir.Register)
	reg := func(name string) ir.Register {
		if r, ok := names[name]; ok {
			return r
		}
		r := alloc.Fresh()
		names[name] = r
		return r
	}

	var instrs []ir.Instruction
	for _, fi := range f.Program {
		switch fi.Op {
		case "number_const":
			if fi.Number == nil {
				return nil, nil, nil, errors.Errorf("%s: number_const requires number", fi.Out)
			}
			instrs = append(instrs, ir.NewNumberConst(reg(fi.Out), *fi.Number))
		case "boolean_const":
			if fi.Boolean == nil {
				return nil, nil, nil, errors.Errorf("%s: boolean_const requires boolean", fi.Out)
			}
			instrs = append(instrs, ir.NewBooleanConst(reg(fi.Out), *fi.Boolean))
		case "string_const":
			if fi.Str == nil {
				return nil, nil, nil, errors.Errorf("%s: string_const requires str", fi.Out)
			}
			instrs = append(instrs, ir.NewStringConst(reg(fi.Out), *fi.Str))
		case "command":
			if len(fi.Args) == 0 {
				return nil, nil, nil, errors.Errorf("%s: command requires a name in args[0]", fi.Out)
			}
			regs := []ir.Register{reg(fi.Out)}
			for _, a := range fi.Args[1:] {
				regs = append(regs, reg(a))
			}
			instrs = append(instrs, ir.NewCommand(fi.Args[0], regs, 1))
		default:
			return nil, nil, nil, errors.Errorf("unknown fixture op %q", fi.Op)
		}
	}
	return instrs, alloc, names, nil
}

// Run executes the fixture's program through the pipeline with its
// declared OptSeq and returns the concrete value materialized at its
// protected register.
func (f Fixture) Run() (interface{}, error) {
	return f.RunWithOptSeq(f.OptSeq)
}

// RunWithOptSeq is Run with an overridden optional sequence — used to
// compare an optimized run against an unoptimized one for the same
// program (property 7: pass preservation).
func (f Fixture) RunWithOptSeq(optSeq string) (interface{}, error) {
	out, protected, err := f.Compile(nil, optSeq, Config{})
	if err != nil {
		return nil, err
	}
	v, _ := EvalConst(out, protected)
	return v, nil
}

// Compile runs the fixture's program through the pipeline with an
// explicit linker, optional-sequence override, and Config — the entry
// point the CLI driver uses, where a custom (or --nostd-trimmed) linker
// and instrumentation settings matter and a bare materialized value does
// not.
func (f Fixture) Compile(linker ir.Linker, optSeq string, cfg Config) ([]ir.Instruction, ir.Register, error) {
	instrs, alloc, names, err := f.Build()
	if err != nil {
		return nil, ir.Register{}, err
	}
	protected, ok := names[f.Protected]
	if !ok {
		return nil, ir.Register{}, errors.Errorf("fixture %s: protected register %q never assigned", f.Name, f.Protected)
	}

	out, finalProtected, err := Run(Request{
		Program:   instrs,
		Allocator: alloc,
		Linker:    linker,
		OptSeq:    optSeq,
		Protected: []ir.Register{protected},
		Config:    cfg,
	})
	if err != nil {
		return nil, ir.Register{}, err
	}
	return out, finalProtected[0], nil
}
