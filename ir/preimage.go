package ir

// OutcomeKind discriminates the four pre-image outcomes a command's
// preimage policy can return (spec §4.3.3, §9 "tagged union").
type OutcomeKind int

const (
	Skip OutcomeKind = iota
	Replace
	Constant
	SkipConstant
)

func (k OutcomeKind) String() string {
	switch k {
	case Skip:
		return "Skip"
	case Replace:
		return "Replace"
	case Constant:
		return "Constant"
	case SkipConstant:
		return "SkipConstant"
	default:
		return "Unknown"
	}
}

// RegisterSize is the size hint a Skip or Constant outcome may attach to a
// register — the cached length the pipeline uses instead of recomputing
// it from a fully concrete value.
type RegisterSize struct {
	Reg  Register
	Size int
}

// PreImageOutcome is the tagged union a command's preimage() call returns:
// exactly one of Skip, Replace, Constant, SkipConstant is populated,
// selected by Kind.
type PreImageOutcome struct {
	Kind OutcomeKind

	Sizes    []RegisterSize // Skip
	Instrs   []Instruction  // Replace
	Regs     []Register     // Constant, SkipConstant
	Values   []interface{}  // Constant: concrete value per entry in Regs
}

func NewSkip(sizes []RegisterSize) PreImageOutcome {
	return PreImageOutcome{Kind: Skip, Sizes: sizes}
}

func NewReplace(instrs []Instruction) PreImageOutcome {
	return PreImageOutcome{Kind: Replace, Instrs: instrs}
}

func NewConstant(regs []Register, values []interface{}) PreImageOutcome {
	return PreImageOutcome{Kind: Constant, Regs: regs, Values: values}
}

func NewSkipConstant(regs []Register) PreImageOutcome {
	return PreImageOutcome{Kind: SkipConstant, Regs: regs}
}

func (o PreImageOutcome) IsSkip() bool         { return o.Kind == Skip }
func (o PreImageOutcome) IsReplace() bool      { return o.Kind == Replace }
func (o PreImageOutcome) IsConstant() bool     { return o.Kind == Constant }
func (o PreImageOutcome) IsSkipConstant() bool { return o.Kind == SkipConstant }

// Linker is what a PreImageContext needs from the command-library loader:
// enough to ask a named command for its preimage policy and estimated
// execution cost, without the ir package depending on the loader package
// that implements it (spec §6.2).
type Linker interface {
	Preimage(ctx *PreImageContext, instr Instruction) (PreImageOutcome, error)
	ExecutionTime(ctx *PreImageContext, instr Instruction) (float64, error)
}

// PreImageContext is the per-pass runtime state threaded through a single
// compile-run pass (spec §3.3): which registers are fully computed, their
// cached sizes, a handle back to the linker for command descriptors, and
// the First/Last bracketing flags.
type PreImageContext struct {
	Linker Linker

	valid  map[Register]bool
	size   map[Register]int
	values map[Register]interface{}

	First bool
	Last  bool
}

// NewPreImageContext returns a context for one compile-run pass.
func NewPreImageContext(linker Linker, first, last bool) *PreImageContext {
	return &PreImageContext{
		Linker: linker,
		valid:  make(map[Register]bool),
		size:   make(map[Register]int),
		values: make(map[Register]interface{}),
		First:  first,
		Last:   last,
	}
}

// IsValid reports whether reg has been fully computed in this pass.
func (c *PreImageContext) IsValid(reg Register) bool { return c.valid[reg] }

// MarkValid records reg as fully computed.
func (c *PreImageContext) MarkValid(reg Register) { c.valid[reg] = true }

// Invalidate clears validity for reg — used after a Skip instruction's
// output registers, whose value this pass did not compute.
func (c *PreImageContext) Invalidate(reg Register) { delete(c.valid, reg) }

// Size returns the cached length for reg, if known.
func (c *PreImageContext) Size(reg Register) (int, bool) {
	s, ok := c.size[reg]
	return s, ok
}

// SetSize records a size hint for reg.
func (c *PreImageContext) SetSize(reg Register, size int) { c.size[reg] = size }

// Value returns the concrete value committed for reg, if this pass (or an
// earlier one feeding the same context) has folded it to a constant. A
// register that was committed and later Invalidate'd is no longer valid
// even though a stale entry may still sit in the values map, so validity
// gates the lookup rather than map presence alone.
func (c *PreImageContext) Value(reg Register) (interface{}, bool) {
	if !c.valid[reg] {
		return nil, false
	}
	v, ok := c.values[reg]
	return v, ok
}

// CommitValue records reg's fully-computed concrete value and marks it
// valid in one step — the action every native constant instruction and
// every Constant preimage outcome performs (spec §4.3.3's "commit the
// interpreter's register-register buffer").
func (c *PreImageContext) CommitValue(reg Register, value interface{}) {
	c.values[reg] = value
	c.valid[reg] = true
}
