// Package commandset implements the Command-Suite Registry & Remapper
// (spec §4.2): a versioned command-set registry that lets independently
// authored command libraries share one opcode space, plus the remapper
// that translates a foreign program's opcodes into the host's view.
package commandset

import "fmt"

// ID identifies a command library by name, (major, minor) version, and a
// content-addressing trace hash (§3.2). Two sets with the same name and
// major version are compatible; minor versions are monotone within that.
type ID struct {
	Name  string
	Major int
	Minor int
	Trace uint64
}

func (id ID) String() string {
	return fmt.Sprintf("%s(%d.%d)#%016x", id.Name, id.Major, id.Minor, id.Trace)
}

// SameFamily reports whether id and other share a name and major version
// — the compatibility test from §3.2/§4.2.2.
func (id ID) SameFamily(other ID) bool {
	return id.Name == other.Name && id.Major == other.Major
}
