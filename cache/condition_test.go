package cache

import (
	"context"
	"testing"
)

func newCELEvaluator(t *testing.T) ConditionEvaluator {
	t.Helper()
	eval, err := NewCELEvaluator()
	if err != nil {
		t.Fatalf("NewCELEvaluator: %v", err)
	}
	return eval
}

func TestCELEvaluator_Evaluate(t *testing.T) {
	eval := newCELEvaluator(t)

	tests := []struct {
		name   string
		expr   string
		method string
		args   []any
		want   bool
	}{
		{"non-empty key", `args[0] != ""`, "user.by_id", []any{"42"}, true},
		{"empty key", `args[0] != ""`, "user.by_id", []any{""}, false},
		{"method match", `method == "user.by_id"`, "user.by_id", nil, true},
		{"small batch", `size(args[0]) <= 3`, "user.by_ids", []any{[]any{"1", "2"}}, true},
		{"large batch", `size(args[0]) <= 3`, "user.by_ids", []any{[]any{"1", "2", "3", "4"}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := eval.Evaluate(tt.expr, tt.method, tt.args)
			if err != nil {
				t.Fatalf("Evaluate: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestCELEvaluator_CompileErrorSurfaces(t *testing.T) {
	eval := newCELEvaluator(t)

	if _, err := eval.Evaluate(`args[0] !!`, "m", []any{"x"}); err == nil {
		t.Fatal("expected compile error")
	}
}

func TestCELEvaluator_NonBooleanExpression(t *testing.T) {
	eval := newCELEvaluator(t)

	if _, err := eval.Evaluate(`"just a string"`, "m", nil); err == nil {
		t.Fatal("expected error for non-boolean expression")
	}
}

func TestCELEvaluator_ProgramIsCached(t *testing.T) {
	eval := newCELEvaluator(t).(*celEvaluator)

	if _, err := eval.Evaluate(`args[0] != ""`, "m", []any{"x"}); err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if _, ok := eval.programs.Load(`args[0] != ""`); !ok {
		t.Error("expected compiled program to be cached")
	}
}

func TestDispatch_ConditionGatesCaching(t *testing.T) {
	backend := newStubBackend()
	d := newTestDispatcher(t, backend, policyMap{
		"user.by_id": {KeyPrefix: "user", TTL: Forever(), Condition: `args[0] != ""`},
	})

	// A failing condition routes straight to the computation.
	inv := &countingInvocation{args: []any{""}, result: "anon"}
	got, err := d.ReadWrite(context.Background(), "user.by_id", inv)
	if err != nil {
		t.Fatalf("ReadWrite returned error: %v", err)
	}
	if got != "anon" {
		t.Errorf("expected computed value, got %v", got)
	}
	if backend.opCount() != 0 {
		t.Errorf("backend must be untouched when the condition fails, ops=%v", backend.opLog())
	}

	// A passing condition caches as usual.
	inv = &countingInvocation{args: []any{"42"}, result: "Alice"}
	if _, err := d.ReadWrite(context.Background(), "user.by_id", inv); err != nil {
		t.Fatalf("ReadWrite returned error: %v", err)
	}
	if _, ok := backend.store["user::42"]; !ok {
		t.Error("expected write-back when the condition holds")
	}
}

func TestDispatch_ConditionErrorIsConfigError(t *testing.T) {
	backend := newStubBackend()
	d := newTestDispatcher(t, backend, policyMap{
		"user.by_id": {KeyPrefix: "user", TTL: Forever(), Condition: `args[0] !!`},
	})

	inv := &countingInvocation{args: []any{"42"}, result: "Alice"}
	if _, err := d.ReadWrite(context.Background(), "user.by_id", inv); err == nil {
		t.Fatal("a broken condition expression must surface, not fail open")
	}
	if inv.callCount() != 0 {
		t.Error("computation must not run when the condition cannot be evaluated")
	}
}
