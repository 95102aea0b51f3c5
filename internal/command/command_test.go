package command

import (
	"testing"

	"jsengine/internal/scope"
)

func TestVerifyBalancedReturn(t *testing.T) {
	var b Buffer
	b.Number(1)
	b.Number(2)
	b.Binary(OpAdd)
	b.Return()

	if err := Verify(&b); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestVerifyUnbalancedStackIsRejected(t *testing.T) {
	var b Buffer
	b.Number(1)
	b.Number(2)
	b.Return()

	if err := Verify(&b); err == nil {
		t.Fatal("expected an imbalance error, got nil")
	}
}

func TestVerifyUndefinedLabelIsRejected(t *testing.T) {
	var b Buffer
	b.Boolean(true)
	b.BranchIfFalse(Label(99))
	b.Return()

	if err := Verify(&b); err == nil {
		t.Fatal("expected an undefined-label error, got nil")
	}
}

func TestVerifyBranchToLabel(t *testing.T) {
	var b Buffer
	skip := b.NewLabel()
	b.Boolean(false)
	b.BranchIfFalse(skip)
	b.Number(1)
	b.Discard()
	b.PlaceLabel(skip)
	b.Undefined()
	b.Return()

	if err := Verify(&b); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestVariableRefCarriesLocator(t *testing.T) {
	var b Buffer
	loc := scope.Locator{Kind: scope.LocatorLocal, Index: 3}
	b.VariableRef(scope.Symbol(7), loc)
	b.Return()

	got := b.Commands[0]
	if got.Symbol != 7 || got.Locator != loc {
		t.Fatalf("variable-reference payload mismatch: %+v", got)
	}
}
