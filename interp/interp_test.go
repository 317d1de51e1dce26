package interp

import (
	"errors"
	"testing"
)

func TestEvalReturnsValue(t *testing.T) {
	in := New()
	v, err := in.Eval(func() (interface{}, error) { return 7, nil })
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if v != 7 {
		t.Fatalf("Eval() = %v, want 7", v)
	}
}

func TestEvalPropagatesError(t *testing.T) {
	in := New()
	_, err := in.Eval(func() (interface{}, error) { return nil, errBoom })
	if err == nil {
		t.Fatalf("expected error from Eval")
	}
}

func TestEvalRecoversPanic(t *testing.T) {
	in := New()
	_, err := in.Eval(func() (interface{}, error) {
		panic("fragment exploded")
	})
	if err == nil {
		t.Fatalf("expected error recovering panic")
	}
}

var errBoom = errors.New("boom")
