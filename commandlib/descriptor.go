package commandlib

import (
	"github.com/pkg/errors"

	"dauphin/commandset"
	"dauphin/internal/errkind"
	"dauphin/ir"
)

// CompiledCommand is the compile-time object from_instruction() produces:
// one instruction's worth of a command, bound to its actual registers, able
// to answer the pre-image pass (spec §6.2 preimage/execution_time).
type CompiledCommand interface {
	Preimage(ctx *ir.PreImageContext) (ir.PreImageOutcome, error)
	ExecutionTime(ctx *ir.PreImageContext) (float64, error)
}

// Descriptor is what a command library registers per command name (spec
// §6.2): a schema plus a compiler from an IR instruction to a
// CompiledCommand.
type Descriptor interface {
	Schema() Schema
	FromInstruction(instr ir.Instruction) (CompiledCommand, error)
}

// Loader is the host-side command-library loader: a name-keyed table of
// descriptors, implementing ir.Linker so the pipeline can drive preimage
// and execution-time queries without knowing about this package's types.
type Loader struct {
	descriptors map[string]Descriptor
	order       []string
}

// NewLoader returns an empty loader.
func NewLoader() *Loader {
	return &Loader{descriptors: make(map[string]Descriptor)}
}

// Register adds name's descriptor. Registering the same name twice is a
// Malformed error — command libraries, like command sets, may not
// silently shadow each other.
func (l *Loader) Register(name string, d Descriptor) error {
	if _, dup := l.descriptors[name]; dup {
		return errkind.With(errkind.Malformed, errors.Errorf("command %q: already registered", name))
	}
	l.descriptors[name] = d
	l.order = append(l.order, name)
	return nil
}

// Names returns every registered command name, in registration order.
func (l *Loader) Names() []string {
	return append([]string(nil), l.order...)
}

// CommandSet builds the commandset.Library describing this loader's
// registered commands — registration order, and each command's arity
// taken as its schema's total register count (outputs then inputs, the
// same order FromInstruction expects them bound in). The registry uses
// this to assign opcodes and compute the set's trace hash (§3.2, §4.2.1).
func (l *Loader) CommandSet(name string, major, minor int) commandset.Library {
	commands := make([]commandset.Command, len(l.order))
	for i, n := range l.order {
		schema := l.descriptors[n].Schema()
		commands[i] = commandset.Command{
			Name:  n,
			Arity: len(schema.Outputs) + len(schema.Inputs),
		}
	}
	return commandset.NewLibrary(name, major, minor, commands)
}

func (l *Loader) compile(instr ir.Instruction) (CompiledCommand, error) {
	d, ok := l.descriptors[instr.Name]
	if !ok {
		return nil, errkind.With(errkind.Internal, errors.Errorf("command %q: not registered", instr.Name))
	}
	cmd, err := d.FromInstruction(instr)
	if err != nil {
		return nil, errkind.With(errkind.Internal, errors.Wrapf(err, "command %q: from_instruction", instr.Name))
	}
	return cmd, nil
}

// Preimage implements ir.Linker: compiles instr and asks it for its
// preimage policy.
func (l *Loader) Preimage(ctx *ir.PreImageContext, instr ir.Instruction) (ir.PreImageOutcome, error) {
	cmd, err := l.compile(instr)
	if err != nil {
		return ir.PreImageOutcome{}, err
	}
	outcome, err := cmd.Preimage(ctx)
	if err != nil {
		return ir.PreImageOutcome{}, errkind.With(errkind.Internal, errors.Wrapf(err, "preimaging %s", instr.Name))
	}
	return outcome, nil
}

// ExecutionTime implements ir.Linker: compiles instr and asks it for its
// estimated cost, used by the pause-insert pass (spec §4.3.4, SPEC_FULL
// pass_pause).
func (l *Loader) ExecutionTime(ctx *ir.PreImageContext, instr ir.Instruction) (float64, error) {
	cmd, err := l.compile(instr)
	if err != nil {
		return 0, err
	}
	cost, err := cmd.ExecutionTime(ctx)
	if err != nil {
		return 0, errkind.With(errkind.Internal, errors.Wrapf(err, "execution_time %s", instr.Name))
	}
	return cost, nil
}
