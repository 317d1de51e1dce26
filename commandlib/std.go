package commandlib

// NewStdLoader returns a Loader with the arithmetic and list-construction
// commands registered — the concrete command library referenced by
// SPEC_FULL.md's Command-Library Loader module, registered in the same
// name-then-implementation order the teacher's builtin registry uses.
func NewStdLoader() *Loader {
	l := NewLoader()
	must := func(err error) {
		if err != nil {
			panic(err)
		}
	}
	must(l.Register("add", Add))
	must(l.Register("sub", Sub))
	must(l.Register("mul", Mul))
	must(l.Register("concat", Concat))
	must(l.Register("len", Len))
	return l
}
