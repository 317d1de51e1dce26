package commandset

import (
	"github.com/pkg/errors"

	"dauphin/internal/errkind"
)

// Remapper translates opcodes from a foreign mapping's numbering onto this
// host's own, built once a foreign program's declared command sets have
// been checked for compatibility against the host registry (§4.2.2).
type Remapper struct {
	host    *Registry
	foreign Mapping
	// hostBase[name] is the host's base opcode for a command set the
	// foreign program also declares.
	hostBase map[string]int
}

// NewRemapper validates that every command set foreign declares is known
// to host and compatible (same name and major version, host minor >= the
// minor foreign was compiled against), then returns a Remapper ready to
// translate opcodes. Property 3 in §8: an identity mapping (foreign ==
// host's own Serialize output) always yields remap_opcode(x) == x.
func NewRemapper(host *Registry, foreign Mapping) (*Remapper, error) {
	hostBase := make(map[string]int, len(foreign.Entries))
	for _, fe := range foreign.Entries {
		hostEntry, ok := hostSetEntry(host, fe.ID.Name)
		if !ok {
			return nil, errkind.With(errkind.Integration,
				errors.Errorf("command set %s: not known to this host", fe.ID.Name))
		}
		if !fe.ID.SameFamily(hostEntry.ID) {
			return nil, errkind.With(errkind.Integration,
				errors.Errorf("command set %s: family mismatch (foreign %s, host %s)", fe.ID.Name, fe.ID, hostEntry.ID))
		}
		if hostEntry.ID.Minor < fe.ID.Minor {
			return nil, errkind.With(errkind.Integration,
				errors.Errorf("command set %s: host minor %d older than foreign minor %d", fe.ID.Name, hostEntry.ID.Minor, fe.ID.Minor))
		}
		hostBase[fe.ID.Name] = hostEntry.Base
	}
	return &Remapper{host: host, foreign: foreign, hostBase: hostBase}, nil
}

func hostSetEntry(host *Registry, name string) (Entry, bool) {
	for _, s := range host.sets {
		if s.entry.ID.Name == name {
			return s.entry, true
		}
	}
	return Entry{}, false
}

// RemapOpcode translates a single opcode from the foreign program's
// numbering to the host's.
func (rm *Remapper) RemapOpcode(foreignOpcode int) (int, error) {
	fe, ok := rm.foreign.entryFor(foreignOpcode)
	if !ok {
		return 0, errkind.With(errkind.Malformed, errors.Errorf("opcode %d: not covered by any declared command set", foreignOpcode))
	}
	base, ok := rm.hostBase[fe.ID.Name]
	if !ok {
		return 0, errkind.With(errkind.Internal, errors.Errorf("opcode %d: set %s validated but missing host base", foreignOpcode, fe.ID.Name))
	}
	return base + (foreignOpcode - fe.Base), nil
}

// RemapProgram walks a flat instruction stream (opcode, then its operand
// registers, repeated) and rewrites every opcode to host numbering,
// leaving operand values untouched. Arity for the copy is read from the
// host registry once an opcode is remapped, per §4.2.1: the descriptor that
// decides how many registers follow an opcode always comes from the side
// that is about to execute it.
func (rm *Remapper) RemapProgram(code []int) ([]int, error) {
	out := make([]int, 0, len(code))
	for i := 0; i < len(code); {
		hostOp, err := rm.RemapOpcode(code[i])
		if err != nil {
			return nil, err
		}
		arity, ok := rm.host.Arity(hostOp)
		if !ok {
			return nil, errkind.With(errkind.Internal, errors.Errorf("opcode %d: host registry has no arity entry", hostOp))
		}
		if i+1+arity > len(code) {
			return nil, errkind.With(errkind.Malformed, errors.Errorf("opcode %d at %d: truncated operand list", code[i], i))
		}
		out = append(out, hostOp)
		out = append(out, code[i+1:i+1+arity]...)
		i += 1 + arity
	}
	return out, nil
}
