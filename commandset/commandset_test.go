package commandset

import (
	"reflect"
	"testing"
)

func stdLibrary() Library {
	return Library{
		ID: ID{Name: "std", Major: 1, Minor: 0, Trace: 0xaaaa},
		Commands: []Command{
			{Name: "const", Arity: 1},
			{Name: "add", Arity: 2},
			{Name: "concat", Arity: 2},
		},
	}
}

func stringsLibrary(minor int) Library {
	return Library{
		ID: ID{Name: "strings", Major: 2, Minor: minor, Trace: 0xbbbb},
		Commands: []Command{
			{Name: "upper", Arity: 1},
			{Name: "lower", Arity: 1},
		},
	}
}

func TestRegistryAssignsContiguousBases(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(stdLibrary()); err != nil {
		t.Fatalf("register std: %v", err)
	}
	if err := r.Register(stringsLibrary(1)); err != nil {
		t.Fatalf("register strings: %v", err)
	}

	if op, ok := r.OpcodeFor("std", "add"); !ok || op != 1 {
		t.Fatalf("std.add opcode = (%d, %v), want (1, true)", op, ok)
	}
	if op, ok := r.OpcodeFor("strings", "upper"); !ok || op != 3 {
		t.Fatalf("strings.upper opcode = (%d, %v), want (3, true)", op, ok)
	}
	if arity, ok := r.Arity(1); !ok || arity != 2 {
		t.Fatalf("arity(1) = (%d, %v), want (2, true)", arity, ok)
	}
}

func TestRegistryRejectsDuplicateName(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(stdLibrary()); err != nil {
		t.Fatalf("register std: %v", err)
	}
	if err := r.Register(stdLibrary()); err == nil {
		t.Fatalf("expected error on duplicate registration")
	}
}

// TestMappingRoundTrip is property 4 from §8: serialize then deserialize
// an opcode mapping is lossless.
func TestMappingRoundTrip(t *testing.T) {
	r := NewRegistry()
	_ = r.Register(stdLibrary())
	_ = r.Register(stringsLibrary(1))

	mapping := r.Serialize()
	data, err := mapping.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	got, err := UnmarshalMapping(data)
	if err != nil {
		t.Fatalf("UnmarshalMapping: %v", err)
	}
	if !reflect.DeepEqual(got, mapping) {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, mapping)
	}
}

func TestMappingRejectsCorruption(t *testing.T) {
	r := NewRegistry()
	_ = r.Register(stdLibrary())
	data, _ := r.Serialize().Marshal()
	data[0] ^= 0xff

	if _, err := UnmarshalMapping(data); err == nil {
		t.Fatalf("expected checksum failure on corrupted mapping")
	}
}

// TestRemapIdentity is property 3 from §8: remapping a program against the
// host's own serialized mapping is the identity function.
func TestRemapIdentity(t *testing.T) {
	r := NewRegistry()
	_ = r.Register(stdLibrary())
	_ = r.Register(stringsLibrary(1))

	rm, err := NewRemapper(r, r.Serialize())
	if err != nil {
		t.Fatalf("NewRemapper: %v", err)
	}
	for op := 0; op < 5; op++ {
		got, err := rm.RemapOpcode(op)
		if err != nil {
			t.Fatalf("RemapOpcode(%d): %v", op, err)
		}
		if got != op {
			t.Fatalf("RemapOpcode(%d) = %d, want %d (identity)", op, got, op)
		}
	}
}

// TestRemapTranslatesForeignProgram is scenario S3 from §8: a foreign
// program compiled against a command suite with different base opcodes is
// remapped onto the host's numbering, operands untouched.
func TestRemapTranslatesForeignProgram(t *testing.T) {
	host := NewRegistry()
	_ = host.Register(stdLibrary())
	_ = host.Register(stringsLibrary(1))

	// Foreign host registered the same sets in the opposite order, so
	// "strings" gets base 0 and "std" gets base 2.
	foreignRegistry := NewRegistry()
	_ = foreignRegistry.Register(stringsLibrary(1))
	_ = foreignRegistry.Register(stdLibrary())
	foreignMapping := foreignRegistry.Serialize()

	rm, err := NewRemapper(host, foreignMapping)
	if err != nil {
		t.Fatalf("NewRemapper: %v", err)
	}

	// foreign "std.add" = base 2 + offset 1 = opcode 3, arity 2, registers [10, 11].
	foreignProgram := []int{3, 10, 11}
	hostProgram, err := rm.RemapProgram(foreignProgram)
	if err != nil {
		t.Fatalf("RemapProgram: %v", err)
	}
	wantOp, _ := host.OpcodeFor("std", "add")
	if !reflect.DeepEqual(hostProgram, []int{wantOp, 10, 11}) {
		t.Fatalf("RemapProgram = %v, want [%d 10 11]", hostProgram, wantOp)
	}
}

// TestRemapRefusesIncompatibleMajorVersion is scenario S4 from §8: a
// foreign command set with a different major version is rejected rather
// than silently misremapped.
func TestRemapRefusesIncompatibleMajorVersion(t *testing.T) {
	host := NewRegistry()
	_ = host.Register(stdLibrary())

	foreignRegistry := NewRegistry()
	_ = foreignRegistry.Register(Library{
		ID:       ID{Name: "std", Major: 2, Minor: 0, Trace: 0xaaaa},
		Commands: stdLibrary().Commands,
	})

	if _, err := NewRemapper(host, foreignRegistry.Serialize()); err == nil {
		t.Fatalf("expected error remapping incompatible major version")
	}
}

func TestRemapRefusesNewerMinorThanHost(t *testing.T) {
	host := NewRegistry()
	_ = host.Register(stringsLibrary(1))

	foreignRegistry := NewRegistry()
	_ = foreignRegistry.Register(stringsLibrary(5))

	if _, err := NewRemapper(host, foreignRegistry.Serialize()); err == nil {
		t.Fatalf("expected error when foreign minor is newer than host's")
	}
}
