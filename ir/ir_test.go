package ir

import "testing"

func TestAllocatorHandsOutDistinctRegisters(t *testing.T) {
	a := NewAllocator()
	r1, r2 := a.Fresh(), a.Fresh()
	if r1 == r2 {
		t.Fatalf("Fresh returned the same register twice: %v", r1)
	}
	if a.Count() != 2 {
		t.Fatalf("Count() = %d, want 2", a.Count())
	}
}

func TestAccountedLenExcludesPauseAndLineNumber(t *testing.T) {
	a := NewAllocator()
	out := a.Fresh()
	ctx := NewGenContext([]Instruction{
		NewLineNumber(12),
		NewNumberConst(out, 5),
		NewPause(Yield),
	}, a)

	if got := ctx.AccountedLen(); got != 1 {
		t.Fatalf("AccountedLen() = %d, want 1", got)
	}
}

func TestPreImageContextValidityAndSize(t *testing.T) {
	a := NewAllocator()
	reg := a.Fresh()
	ctx := NewPreImageContext(nil, true, false)

	if ctx.IsValid(reg) {
		t.Fatalf("register should start invalid")
	}
	ctx.MarkValid(reg)
	ctx.SetSize(reg, 3)
	if !ctx.IsValid(reg) {
		t.Fatalf("register should be valid after MarkValid")
	}
	if size, ok := ctx.Size(reg); !ok || size != 3 {
		t.Fatalf("Size() = (%d, %v), want (3, true)", size, ok)
	}
	ctx.Invalidate(reg)
	if ctx.IsValid(reg) {
		t.Fatalf("register should be invalid after Invalidate")
	}
}

func TestPreImageContextValueRespectsInvalidation(t *testing.T) {
	a := NewAllocator()
	reg := a.Fresh()
	ctx := NewPreImageContext(nil, true, false)

	ctx.CommitValue(reg, 5.0)
	if v, ok := ctx.Value(reg); !ok || v != 5.0 {
		t.Fatalf("Value() = (%v, %v), want (5.0, true)", v, ok)
	}

	ctx.Invalidate(reg)
	if v, ok := ctx.Value(reg); ok {
		t.Fatalf("Value() = (%v, %v) after Invalidate, want ok=false", v, ok)
	}
}

func TestPreImageOutcomeKindPredicates(t *testing.T) {
	a := NewAllocator()
	reg := a.Fresh()

	if !NewSkip(nil).IsSkip() {
		t.Fatalf("NewSkip should be IsSkip")
	}
	if !NewReplace(nil).IsReplace() {
		t.Fatalf("NewReplace should be IsReplace")
	}
	if !NewConstant([]Register{reg}, []interface{}{5.0}).IsConstant() {
		t.Fatalf("NewConstant should be IsConstant")
	}
	if !NewSkipConstant([]Register{reg}).IsSkipConstant() {
		t.Fatalf("NewSkipConstant should be IsSkipConstant")
	}
}
