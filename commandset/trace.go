package commandset

import (
	"bytes"
	"encoding/binary"

	"github.com/OneOfOne/xxhash"
)

// TraceOf computes the content-addressing trace hash for a command
// library's declared commands (§3.2): two builds that register the exact
// same (name, arity) pairs in the same order hash identically, and a
// library that adds, removes, or reorders a command gets a different one.
func TraceOf(commands []Command) uint64 {
	var buf bytes.Buffer
	for _, c := range commands {
		buf.WriteString(c.Name)
		buf.WriteByte(0)
		binary.Write(&buf, binary.LittleEndian, int32(c.Arity))
	}
	return xxhash.Checksum64(buf.Bytes())
}

// NewLibrary builds a Library whose ID.Trace is always derived from its
// own Commands, so a caller can never register a trace hash that has
// drifted out of sync with what the library actually declares.
func NewLibrary(name string, major, minor int, commands []Command) Library {
	return Library{
		ID:       ID{Name: name, Major: major, Minor: minor, Trace: TraceOf(commands)},
		Commands: commands,
	}
}
