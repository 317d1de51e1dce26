package commandset

import (
	"fmt"

	"github.com/pkg/errors"

	"dauphin/internal/errkind"
)

// Command is one opcode's static shape as declared by a command library:
// just enough for the registry to assign it a slot and for the remapper
// to know how many operand registers follow it in a program (§4.2.1,
// §6.3). Richer behavior (from_instruction, preimage, execution_time)
// lives in the commandlib package, which depends on this one rather than
// the reverse.
type Command struct {
	Name  string
	Arity int
}

// Library is a named, versioned set of commands a compile suite can
// register (§3.2).
type Library struct {
	ID       ID
	Commands []Command
}

type registeredSet struct {
	entry    Entry
	commands []Command
	byName   map[string]int // command name -> offset within the set
}

// Registry is the host-side Command-Suite Registry (§4.2.1): it assigns
// each registered library a contiguous, dense slice of the opcode space in
// registration order, and answers arity/opcode lookups for the remapper
// and the pre-image pipeline.
type Registry struct {
	sets       []*registeredSet
	byName     map[string]*registeredSet
	nextOpcode int
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]*registeredSet)}
}

// Register adds every command in lib to the suite, reporting a Malformed
// error if a library with the same name is already registered or if lib
// declares no commands.
func (r *Registry) Register(lib Library) error {
	if len(lib.Commands) == 0 {
		return errkind.With(errkind.Malformed, errors.Errorf("command set %s: no commands declared", lib.ID))
	}
	if _, dup := r.byName[lib.ID.Name]; dup {
		return errkind.With(errkind.Malformed, errors.Errorf("command set %s: already registered", lib.ID.Name))
	}

	set := &registeredSet{
		entry:    Entry{ID: lib.ID, Base: r.nextOpcode},
		commands: append([]Command(nil), lib.Commands...),
		byName:   make(map[string]int, len(lib.Commands)),
	}
	for i, c := range lib.Commands {
		set.byName[c.Name] = i
	}
	r.nextOpcode += len(lib.Commands)

	r.sets = append(r.sets, set)
	r.byName[lib.ID.Name] = set
	return nil
}

// Serialize produces the wire-format mapping for every registered set, in
// registration order, ready to ship alongside compiled bytecode.
func (r *Registry) Serialize() Mapping {
	entries := make([]Entry, 0, len(r.sets))
	for _, s := range r.sets {
		entries = append(entries, s.entry)
	}
	return Mapping{Entries: entries}
}

// OpcodeFor returns the host opcode assigned to commandName within setName,
// used when generating code directly against the host's own suite.
func (r *Registry) OpcodeFor(setName, commandName string) (int, bool) {
	set, ok := r.byName[setName]
	if !ok {
		return 0, false
	}
	offset, ok := set.byName[commandName]
	if !ok {
		return 0, false
	}
	return set.entry.Base + offset, true
}

// Arity returns the operand count for a host-space opcode, used by
// RemapProgram to know how many operands follow an opcode.
func (r *Registry) Arity(opcode int) (int, bool) {
	for _, s := range r.sets {
		if opcode < s.entry.Base || opcode >= s.entry.Base+len(s.commands) {
			continue
		}
		return s.commands[opcode-s.entry.Base].Arity, true
	}
	return 0, false
}

// Describe dumps every registered set and its opcode range, for the
// --verbose diagnostic surface (§6.4).
func (r *Registry) Describe() []string {
	out := make([]string, 0, len(r.sets))
	for _, s := range r.sets {
		out = append(out, fmt.Sprintf("%s base=%d count=%d", s.entry.ID, s.entry.Base, len(s.commands)))
	}
	return out
}
