package check

import (
	"errors"
	"testing"
)

func TestState_ReturnsStateErrorOnFalse(t *testing.T) {
	err := State(false, "not ready")
	if err == nil {
		t.Fatal("expected error")
	}
	var se *StateError
	if !errors.As(err, &se) {
		t.Fatalf("expected StateError, got %T", err)
	}
	if se.Message != "not ready" {
		t.Errorf("unexpected message: %q", se.Message)
	}
	if err := State(true, "ok"); err != nil {
		t.Errorf("expected nil for true condition, got %v", err)
	}
}

func TestArgf_FormatsMessage(t *testing.T) {
	err := Argf(false, "port %d out of range", 70000)
	if err == nil {
		t.Fatal("expected error")
	}
	var ae *ArgError
	if !errors.As(err, &ae) {
		t.Fatalf("expected ArgError, got %T", err)
	}
	if ae.Message != "port 70000 out of range" {
		t.Errorf("unexpected message: %q", ae.Message)
	}
}

func TestNotNil_DetectsTypedNil(t *testing.T) {
	var p *int
	if err := NotNil(p, "p"); err == nil {
		t.Error("typed nil pointer should fail")
	}
	var m map[string]int
	if err := NotNil(m, "m"); err == nil {
		t.Error("nil map should fail")
	}
	if err := NotNil(42, "n"); err != nil {
		t.Errorf("non-nil value should pass, got %v", err)
	}
	x := 1
	if err := NotNil(&x, "x"); err != nil {
		t.Errorf("non-nil pointer should pass, got %v", err)
	}
}

func TestNonEmpty(t *testing.T) {
	if err := NonEmpty("", "name"); err == nil {
		t.Error("empty string should fail")
	}
	if err := NonEmpty("x", "name"); err != nil {
		t.Errorf("non-empty string should pass, got %v", err)
	}
}

func TestOne(t *testing.T) {
	v, err := One([]string{"only"})
	if err != nil || v != "only" {
		t.Fatalf("got %q, %v", v, err)
	}
	if _, err := One([]string{}); err == nil {
		t.Error("empty slice should fail")
	}
	if _, err := One([]string{"a", "b"}); err == nil {
		t.Error("two elements should fail")
	}
}
