package ir

import (
	"fmt"
	"strings"
)

// Kind discriminates the tagged union of instruction shapes an
// Instruction can carry (spec §3.3). Kept as a single struct with a
// discriminator plus factory constructors and predicates, the same shape
// the teacher pack uses for its own small tagged unions rather than an
// interface-per-variant hierarchy.
type Kind int

const (
	Nil Kind = iota
	Append
	Copy
	Const
	NumberConst
	BooleanConst
	StringConst
	BytesConst
	Pause
	LineNumber
	Command
)

func (k Kind) String() string {
	switch k {
	case Nil:
		return "Nil"
	case Append:
		return "Append"
	case Copy:
		return "Copy"
	case Const:
		return "Const"
	case NumberConst:
		return "NumberConst"
	case BooleanConst:
		return "BooleanConst"
	case StringConst:
		return "StringConst"
	case BytesConst:
		return "BytesConst"
	case Pause:
		return "Pause"
	case LineNumber:
		return "LineNumber"
	case Command:
		return "Command"
	default:
		return "Unknown"
	}
}

// PauseKind distinguishes why a Pause instruction was inserted.
type PauseKind int

const (
	// Yield marks a pause inserted by the pause-insert pass once
	// accumulated execution cost crosses the configured budget.
	Yield PauseKind = iota
	// Debug marks a pause requested explicitly via source, surviving
	// optimization rather than being scheduler-inserted.
	Debug
)

// Instruction is one step of the register-machine IR: a Kind discriminator,
// an ordered register list, and whichever payload field that Kind uses.
// Only one payload field is meaningful per Kind; the rest are zero.
type Instruction struct {
	Kind Kind
	Regs []Register

	Indexes []int     // Const
	Number  float64   // NumberConst
	Boolean bool       // BooleanConst
	Str     string    // StringConst
	Bytes   []byte    // BytesConst
	PauseOf PauseKind // Pause
	Line    int       // LineNumber
	Name    string    // Command: the command's registered name

	// NumOutputs is the count of leading registers in Regs that Command
	// actually writes, per its schema's "outputs then inputs" ordering
	// (commandlib.Schema). The rest of Regs are operands it only reads.
	NumOutputs int
}

func NewNil(out Register) Instruction { return Instruction{Kind: Nil, Regs: []Register{out}} }

func NewAppend(list, item Register) Instruction {
	return Instruction{Kind: Append, Regs: []Register{list, item}}
}

func NewCopy(dst, src Register) Instruction {
	return Instruction{Kind: Copy, Regs: []Register{dst, src}}
}

func NewConst(out Register, indexes []int) Instruction {
	return Instruction{Kind: Const, Regs: []Register{out}, Indexes: indexes}
}

func NewNumberConst(out Register, n float64) Instruction {
	return Instruction{Kind: NumberConst, Regs: []Register{out}, Number: n}
}

func NewBooleanConst(out Register, b bool) Instruction {
	return Instruction{Kind: BooleanConst, Regs: []Register{out}, Boolean: b}
}

func NewStringConst(out Register, s string) Instruction {
	return Instruction{Kind: StringConst, Regs: []Register{out}, Str: s}
}

func NewBytesConst(out Register, b []byte) Instruction {
	return Instruction{Kind: BytesConst, Regs: []Register{out}, Bytes: b}
}

func NewPause(kind PauseKind) Instruction { return Instruction{Kind: Pause, PauseOf: kind} }

func NewLineNumber(line int) Instruction { return Instruction{Kind: LineNumber, Line: line} }

// NewCommand builds a Command instruction. numOutputs is the count of
// leading registers in regs that the command writes — the rest are
// operands it only reads (commandlib.Schema orders a command's registers
// outputs-then-inputs, and FromInstruction binds them in that order).
func NewCommand(name string, regs []Register, numOutputs int) Instruction {
	return Instruction{Kind: Command, Name: name, Regs: regs, NumOutputs: numOutputs}
}

// Outputs returns the registers this instruction writes to — by
// convention the leading registers for the Kinds that produce a value, and
// none for structural Kinds (Pause, LineNumber).
func (i Instruction) Outputs() []Register {
	switch i.Kind {
	case Nil, Const, NumberConst, BooleanConst, StringConst, BytesConst, Copy:
		if len(i.Regs) > 0 {
			return i.Regs[:1]
		}
		return nil
	case Append:
		if len(i.Regs) > 0 {
			return i.Regs[:1]
		}
		return nil
	case Command:
		n := i.NumOutputs
		if n > len(i.Regs) {
			n = len(i.Regs)
		}
		return i.Regs[:n]
	default:
		return nil
	}
}

// String renders one disassembly line: the output registers, the Kind,
// and whichever payload or operand registers that Kind carries. Used by
// the CLI driver's compile/run dumps (§6.4), not by any pass logic.
func (i Instruction) String() string {
	regs := make([]string, len(i.Regs))
	for j, r := range i.Regs {
		regs[j] = r.String()
	}
	switch i.Kind {
	case NumberConst:
		return fmt.Sprintf("%s = number_const %g", regs[0], i.Number)
	case BooleanConst:
		return fmt.Sprintf("%s = boolean_const %v", regs[0], i.Boolean)
	case StringConst:
		return fmt.Sprintf("%s = string_const %q", regs[0], i.Str)
	case BytesConst:
		return fmt.Sprintf("%s = bytes_const %d bytes", regs[0], len(i.Bytes))
	case Const:
		return fmt.Sprintf("%s = const %v", regs[0], i.Indexes)
	case Nil:
		return fmt.Sprintf("%s = nil", regs[0])
	case Append:
		return fmt.Sprintf("append %s, %s", regs[0], regs[1])
	case Copy:
		return fmt.Sprintf("%s = copy %s", regs[0], regs[1])
	case Command:
		n := i.NumOutputs
		if n > len(regs) {
			n = len(regs)
		}
		if n == 0 {
			return fmt.Sprintf("command %s(%s)", i.Name, strings.Join(regs, ", "))
		}
		return fmt.Sprintf("%s = command %s(%s)", strings.Join(regs[:n], ", "), i.Name, strings.Join(regs[n:], ", "))
	case Pause:
		return "pause"
	case LineNumber:
		return fmt.Sprintf("line %d", i.Line)
	default:
		return "unknown"
	}
}

// Dump renders a full instruction list as a numbered disassembly listing.
func Dump(instrs []Instruction) string {
	var b strings.Builder
	for i, instr := range instrs {
		fmt.Fprintf(&b, "%4d: %s\n", i, instr)
	}
	return b.String()
}

// IsAccounted reports whether this instruction counts toward the
// instrumentation and pause-budget instruction tallies — Pause and
// LineNumber are structural bookkeeping, not computation (spec §4.3.4).
func (i Instruction) IsAccounted() bool {
	return i.Kind != Pause && i.Kind != LineNumber
}
