package commandset

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/pkg/errors"
	"golang.org/x/crypto/blake2b"

	"dauphin/internal/errkind"
)

// Entry is one command set's slot in an opcode mapping: the set's
// identity plus the base opcode its commands start at. Offsets within the
// set are assigned by the set's own declaration order (§4.2.1).
type Entry struct {
	ID   ID
	Base int
}

// Mapping is the wire-level description of how a full opcode space is
// carved up among command sets, in registration order (§6.3). It is the
// artifact a compiled program ships next to its bytecode so a different
// host binary can remap it onto its own opcode space.
type Mapping struct {
	Entries []Entry
}

// entryFor returns the set whose range contains opcode, found by locating
// the entry with the greatest base not exceeding it — ranges are
// contiguous and ordered by registration, so this is sufficient without
// carrying explicit per-set counts on the wire.
func (m Mapping) entryFor(opcode int) (Entry, bool) {
	best := -1
	for i, e := range m.Entries {
		if e.Base <= opcode && (best == -1 || e.Base > m.Entries[best].Base) {
			best = i
		}
	}
	if best == -1 {
		return Entry{}, false
	}
	return m.Entries[best], true
}

func (m Mapping) byName(name string) (Entry, bool) {
	for _, e := range m.Entries {
		if e.ID.Name == name {
			return e, true
		}
	}
	return Entry{}, false
}

// Marshal writes the mapping in the spec's wire format: a count, then each
// entry's (name, major, minor, trace, base) tuple, followed by a blake2b-256
// checksum over everything written so far. The format is fixed by the
// on-disk contract rather than chosen freely, so it is hand-encoded; the
// checksum is the one part an ecosystem library earns its keep on.
func (m Mapping) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, uint32(len(m.Entries))); err != nil {
		return nil, errkind.With(errkind.Internal, errors.Wrap(err, "write entry count"))
	}
	for _, e := range m.Entries {
		if err := writeString(&buf, e.ID.Name); err != nil {
			return nil, errkind.With(errkind.Internal, err)
		}
		for _, v := range []int64{int64(e.ID.Major), int64(e.ID.Minor), int64(e.ID.Trace), int64(e.Base)} {
			if err := binary.Write(&buf, binary.LittleEndian, v); err != nil {
				return nil, errkind.With(errkind.Internal, errors.Wrap(err, "write entry field"))
			}
		}
	}
	sum := blake2b.Sum256(buf.Bytes())
	buf.Write(sum[:])
	return buf.Bytes(), nil
}

func writeString(buf *bytes.Buffer, s string) error {
	if err := binary.Write(buf, binary.LittleEndian, uint32(len(s))); err != nil {
		return errors.Wrap(err, "write string length")
	}
	buf.WriteString(s)
	return nil
}

// UnmarshalMapping parses the format Marshal produces and verifies the
// trailing checksum, returning a Malformed error if it does not match —
// the mapping is the first thing read off a foreign program, so corruption
// here must be caught before any opcode is trusted (§4.2.3).
func UnmarshalMapping(data []byte) (Mapping, error) {
	const sumLen = 32
	if len(data) < sumLen {
		return Mapping{}, errkind.With(errkind.Malformed, errors.New("opcode mapping: truncated"))
	}
	body, sum := data[:len(data)-sumLen], data[len(data)-sumLen:]
	want := blake2b.Sum256(body)
	if !bytes.Equal(sum, want[:]) {
		return Mapping{}, errkind.With(errkind.Malformed, errors.New("opcode mapping: checksum mismatch"))
	}

	r := bytes.NewReader(body)
	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return Mapping{}, errkind.With(errkind.Malformed, errors.Wrap(err, "read entry count"))
	}
	entries := make([]Entry, 0, count)
	for i := uint32(0); i < count; i++ {
		name, err := readString(r)
		if err != nil {
			return Mapping{}, errkind.With(errkind.Malformed, err)
		}
		var major, minor, trace, base int64
		for _, dst := range []*int64{&major, &minor, &trace, &base} {
			if err := binary.Read(r, binary.LittleEndian, dst); err != nil {
				return Mapping{}, errkind.With(errkind.Malformed, errors.Wrap(err, "read entry field"))
			}
		}
		entries = append(entries, Entry{
			ID:   ID{Name: name, Major: int(major), Minor: int(minor), Trace: uint64(trace)},
			Base: int(base),
		})
	}
	return Mapping{Entries: entries}, nil
}

func readString(r *bytes.Reader) (string, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return "", errors.Wrap(err, "read string length")
	}
	b := make([]byte, n)
	if _, err := r.Read(b); err != nil {
		return "", errors.Wrap(err, "read string bytes")
	}
	return string(b), nil
}

func (m Mapping) String() string {
	return fmt.Sprintf("Mapping(%d sets)", len(m.Entries))
}
