package commandlib

import (
	"testing"

	"dauphin/ir"
)

func TestAddFoldsWhenOperandsKnown(t *testing.T) {
	alloc := ir.NewAllocator()
	out, lhs, rhs := alloc.Fresh(), alloc.Fresh(), alloc.Fresh()
	ctx := ir.NewPreImageContext(nil, true, false)
	ctx.CommitValue(lhs, 2.0)
	ctx.CommitValue(rhs, 3.0)

	cmd, err := Add.FromInstruction(ir.NewCommand("add", []ir.Register{out, lhs, rhs}, 1))
	if err != nil {
		t.Fatalf("FromInstruction: %v", err)
	}
	outcome, err := cmd.Preimage(ctx)
	if err != nil {
		t.Fatalf("Preimage: %v", err)
	}
	if !outcome.IsConstant() {
		t.Fatalf("outcome kind = %v, want Constant", outcome.Kind)
	}
	if outcome.Values[0].(float64) != 5.0 {
		t.Fatalf("folded value = %v, want 5.0", outcome.Values[0])
	}
}

func TestAddSkipsWhenOperandUnknown(t *testing.T) {
	alloc := ir.NewAllocator()
	out, lhs, rhs := alloc.Fresh(), alloc.Fresh(), alloc.Fresh()
	ctx := ir.NewPreImageContext(nil, true, false)
	ctx.CommitValue(lhs, 2.0)

	cmd, _ := Add.FromInstruction(ir.NewCommand("add", []ir.Register{out, lhs, rhs}, 1))
	outcome, err := cmd.Preimage(ctx)
	if err != nil {
		t.Fatalf("Preimage: %v", err)
	}
	if !outcome.IsSkip() {
		t.Fatalf("outcome kind = %v, want Skip", outcome.Kind)
	}
}

func TestConcatFoldsStrings(t *testing.T) {
	alloc := ir.NewAllocator()
	out, lhs, rhs := alloc.Fresh(), alloc.Fresh(), alloc.Fresh()
	ctx := ir.NewPreImageContext(nil, true, false)
	ctx.CommitValue(lhs, "foo")
	ctx.CommitValue(rhs, "bar")

	cmd, _ := Concat.FromInstruction(ir.NewCommand("concat", []ir.Register{out, lhs, rhs}, 1))
	outcome, err := cmd.Preimage(ctx)
	if err != nil {
		t.Fatalf("Preimage: %v", err)
	}
	if !outcome.IsConstant() || outcome.Values[0].(string) != "foobar" {
		t.Fatalf("outcome = %+v, want Constant(\"foobar\")", outcome)
	}
}

func TestLenFoldsKnownString(t *testing.T) {
	alloc := ir.NewAllocator()
	out, in := alloc.Fresh(), alloc.Fresh()
	ctx := ir.NewPreImageContext(nil, true, false)
	ctx.CommitValue(in, "hello")

	cmd, _ := Len.FromInstruction(ir.NewCommand("len", []ir.Register{out, in}, 1))
	outcome, err := cmd.Preimage(ctx)
	if err != nil {
		t.Fatalf("Preimage: %v", err)
	}
	if !outcome.IsConstant() || outcome.Values[0].(float64) != 5 {
		t.Fatalf("outcome = %+v, want Constant(5)", outcome)
	}
}

func TestLoaderDrivesPreimageByName(t *testing.T) {
	loader := NewStdLoader()
	alloc := ir.NewAllocator()
	out, lhs, rhs := alloc.Fresh(), alloc.Fresh(), alloc.Fresh()
	ctx := ir.NewPreImageContext(loader, true, false)
	ctx.CommitValue(lhs, 4.0)
	ctx.CommitValue(rhs, 5.0)

	instr := ir.NewCommand("mul", []ir.Register{out, lhs, rhs}, 1)
	outcome, err := loader.Preimage(ctx, instr)
	if err != nil {
		t.Fatalf("Preimage: %v", err)
	}
	if !outcome.IsConstant() || outcome.Values[0].(float64) != 20 {
		t.Fatalf("outcome = %+v, want Constant(20)", outcome)
	}
}

func TestLoaderRejectsDuplicateRegistration(t *testing.T) {
	loader := NewLoader()
	if err := loader.Register("add", Add); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if err := loader.Register("add", Add); err == nil {
		t.Fatalf("expected error on duplicate registration")
	}
}

func TestCommandSetDerivesArityFromSchema(t *testing.T) {
	loader := NewStdLoader()
	set := loader.CommandSet("std", 1, 0)

	if set.ID.Name != "std" || set.ID.Major != 1 || set.ID.Minor != 0 {
		t.Fatalf("unexpected set id %+v", set.ID)
	}
	if set.ID.Trace == 0 {
		t.Fatalf("expected a non-zero trace hash")
	}
	if len(set.Commands) != len(loader.Names()) {
		t.Fatalf("commands = %d, want %d", len(set.Commands), len(loader.Names()))
	}
	// add: 2 inputs + 1 output = 3 registers, matching the (out, lhs, rhs)
	// shape FromInstruction expects.
	for _, c := range set.Commands {
		if c.Name == "add" && c.Arity != 3 {
			t.Fatalf("add arity = %d, want 3", c.Arity)
		}
	}
}
