// Package commandlib implements the Command-Library Loader contract
// (spec §6.2): command descriptors that compile an IR Command instruction
// into a runtime object answering schema, preimage policy, and estimated
// execution cost. It also supplies one concrete, deterministic command
// library — arithmetic and list-construction primitives — so the
// pre-image pipeline has something real to fold end-to-end (spec.md is
// silent on which commands exist; this repo needs at least one to be
// testable).
package commandlib

// ValueType names the kind of value a command's register carries. The
// preimage pass only needs enough of this to fold arithmetic and string
// commands; it is not a full type system.
type ValueType int

const (
	TNumber ValueType = iota
	TBoolean
	TString
	TBytes
	TList
	TAny
)

func (t ValueType) String() string {
	switch t {
	case TNumber:
		return "number"
	case TBoolean:
		return "boolean"
	case TString:
		return "string"
	case TBytes:
		return "bytes"
	case TList:
		return "list"
	default:
		return "any"
	}
}

// Schema declares a command's input and output register types, in
// registration order (spec §6.2 descriptor.schema()).
type Schema struct {
	Inputs  []ValueType
	Outputs []ValueType
}
