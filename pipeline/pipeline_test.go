package pipeline

import (
	"testing"

	"dauphin/commandlib"
	"dauphin/ir"
)

// S5: "a := const 2; b := const 3; c := add a,b; emit c" collapses to a
// single materialized constant at c after pre-imaging.
func TestScenarioConstantFoldingCollapsesAddChain(t *testing.T) {
	alloc := ir.NewAllocator()
	a, b, c := alloc.Fresh(), alloc.Fresh(), alloc.Fresh()

	program := []ir.Instruction{
		ir.NewNumberConst(a, 2),
		ir.NewNumberConst(b, 3),
		ir.NewCommand("add", []ir.Register{c, a, b}, 1),
	}

	out, protected, err := Run(Request{
		Program:   program,
		Allocator: alloc,
		OptSeq:    "",
		Protected: []ir.Register{c},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	v, ok := EvalConst(out, protected[0])
	if !ok {
		t.Fatalf("expected c to materialize a constant, got %#v", out)
	}
	if v != float64(5) {
		t.Fatalf("expected c == 5, got %v", v)
	}
}

// replaceAlways is a test-only Descriptor whose Preimage always asks to
// splice replacement instructions in, regardless of pass. Used to exercise
// S6: Replace returned during the final pre-image pass must fail instead
// of silently emitting a program.
type replaceAlways struct{}

func (replaceAlways) Schema() commandlib.Schema { return commandlib.Schema{} }

func (replaceAlways) FromInstruction(instr ir.Instruction) (commandlib.CompiledCommand, error) {
	return replaceAlwaysCmd{}, nil
}

type replaceAlwaysCmd struct{}

func (replaceAlwaysCmd) Preimage(ctx *ir.PreImageContext) (ir.PreImageOutcome, error) {
	return ir.NewReplace([]ir.Instruction{}), nil
}

func (replaceAlwaysCmd) ExecutionTime(ctx *ir.PreImageContext) (float64, error) { return 1, nil }

// S6: a command whose pre-image always returns Replace must fail the
// pipeline on the final compile-run, not emit a program.
func TestScenarioReplaceOnFinalPassFails(t *testing.T) {
	loader := commandlib.NewLoader()
	if err := loader.Register("boom", replaceAlways{}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	alloc := ir.NewAllocator()
	out := alloc.Fresh()
	program := []ir.Instruction{ir.NewCommand("boom", []ir.Register{out}, 1)}

	_, _, err := Run(Request{
		Program:   program,
		Allocator: alloc,
		Linker:    loader,
		OptSeq:    "",
		Protected: []ir.Register{out},
	})
	if err == nil {
		t.Fatal("expected Run to fail when Replace is returned on the final pre-image pass")
	}
}

// Property 6: a fully-constant program is a fixed point of compile-run —
// running the pipeline again over its own output (as the unoptimized
// baseline, opt_seq "") must not change the materialized value.
func TestPropertyPreImageIdempotence(t *testing.T) {
	alloc := ir.NewAllocator()
	a, b, c := alloc.Fresh(), alloc.Fresh(), alloc.Fresh()
	program := []ir.Instruction{
		ir.NewNumberConst(a, 7),
		ir.NewNumberConst(b, 1),
		ir.NewCommand("mul", []ir.Register{c, a, b}, 1),
	}

	first, firstProtected, err := Run(Request{Program: program, Allocator: alloc, Protected: []ir.Register{c}})
	if err != nil {
		t.Fatalf("first Run: %v", err)
	}
	firstValue, _ := EvalConst(first, firstProtected[0])

	alloc2 := ir.NewAllocator()
	remapped := make([]ir.Instruction, len(first))
	seen := make(map[ir.Register]ir.Register)
	reg := func(r ir.Register) ir.Register {
		if nr, ok := seen[r]; ok {
			return nr
		}
		nr := alloc2.Fresh()
		seen[r] = nr
		return nr
	}
	for i, instr := range first {
		ni := instr
		regs := make([]ir.Register, len(instr.Regs))
		for j, r := range instr.Regs {
			regs[j] = reg(r)
		}
		ni.Regs = regs
		remapped[i] = ni
	}
	protected := reg(firstProtected[0])

	second, secondProtected, err := Run(Request{Program: remapped, Allocator: alloc2, Protected: []ir.Register{protected}})
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	secondValue, _ := EvalConst(second, secondProtected[0])

	if firstValue != secondValue {
		t.Fatalf("pre-image not idempotent: first=%v second=%v", firstValue, secondValue)
	}
}

// Property 7: pass preservation. Every golden fixture under testdata/ must
// produce the same materialized value whether run unoptimized or through
// its declared optimization sequence, and that value must match the
// fixture's declared expectation.
func TestPropertyPassPreservationGoldenFixtures(t *testing.T) {
	fixtures, err := LoadFixtures("testdata")
	if err != nil {
		t.Fatalf("LoadFixtures: %v", err)
	}
	if len(fixtures) == 0 {
		t.Fatal("no fixtures loaded from testdata")
	}

	for _, f := range fixtures {
		f := f
		t.Run(f.Name, func(t *testing.T) {
			unopt, err := f.RunWithOptSeq("")
			if err != nil {
				t.Fatalf("unoptimized run: %v", err)
			}
			opt, err := f.RunWithOptSeq(f.OptSeq)
			if err != nil {
				t.Fatalf("optimized run: %v", err)
			}
			if !numericEqual(unopt, opt) {
				t.Fatalf("pass preservation violated: unoptimized=%v optimized=%v", unopt, opt)
			}
			if !numericEqual(opt, f.Expect) {
				t.Fatalf("expected %v, got %v", f.Expect, opt)
			}
		})
	}
}

// numericEqual compares fixture values loosely: YAML decodes plain
// integers as int while EvalConst always produces float64 for numeric
// literals, so normalize both sides before comparing.
func numericEqual(a, b interface{}) bool {
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if aok && bok {
		return af == bf
	}
	return a == b
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}
