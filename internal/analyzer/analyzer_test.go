// ==============================================================================================
// FILE: internal/analyzer/analyzer_test.go
// ==============================================================================================
// PACKAGE: analyzer
// PURPOSE: Exercises Reduce end-to-end through internal/parser, checking the shape of the
//          resulting command streams rather than re-deriving the LALR tables by hand.
// ==============================================================================================

package analyzer

import (
	"testing"

	"jsengine/internal/command"
	"jsengine/internal/parser"
)

func compile(t *testing.T, src string) *Analyzer {
	t.Helper()
	p, err := parser.New(src, nil)
	if err != nil {
		t.Fatalf("parser.New(%q): %v", src, err)
	}
	a := New()
	if _, err := p.Parse(a); err != nil {
		t.Fatalf("Parse(%q): %v", src, err)
	}
	return a
}

func countOp(cmds []command.Command, op command.Op) int {
	n := 0
	for _, c := range cmds {
		if c.Op == op {
			n++
		}
	}
	return n
}

func TestNumberLiteralStatementDiscardsItsValue(t *testing.T) {
	a := compile(t, "1;")
	top := a.Program()[len(a.Program())-1]
	if countOp(top.Buf.Commands, command.OpNumber) != 1 {
		t.Fatalf("expected exactly one number command, got %v", top.Buf.Commands)
	}
	if countOp(top.Buf.Commands, command.OpDiscard) != 1 {
		t.Fatalf("expected the expression statement to discard its value, got %v", top.Buf.Commands)
	}
}

func TestIfElseProducesBalancedBranches(t *testing.T) {
	a := compile(t, "if (1) { 2; } else { 3; }")
	top := a.Program()[len(a.Program())-1]
	if err := command.Verify(&top.Buf); err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if countOp(top.Buf.Commands, command.OpJump) != 1 {
		t.Fatalf("expected one jump over the else-branch, got %v", top.Buf.Commands)
	}
	if countOp(top.Buf.Commands, command.OpBranchIfFalse) != 1 {
		t.Fatalf("expected one branch-if-false guarding the then-branch, got %v", top.Buf.Commands)
	}
}

func TestWhileLoopJumpsBackToItsCondition(t *testing.T) {
	a := compile(t, "while (x < 10) { x = x + 1; }")
	top := a.Program()[len(a.Program())-1]
	if err := command.Verify(&top.Buf); err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if countOp(top.Buf.Commands, command.OpJump) != 1 {
		t.Fatalf("expected one backward jump to the loop test, got %v", top.Buf.Commands)
	}
}

func TestForLoopSplicesTestBodyUpdateInRuntimeOrder(t *testing.T) {
	a := compile(t, "for (let i = 0; i < 10; i = i + 1) { x = i; }")
	top := a.Program()[len(a.Program())-1]
	if err := command.Verify(&top.Buf); err != nil {
		t.Fatalf("Verify: %v", err)
	}

	if countOp(top.Buf.Commands, command.OpLess) != 1 {
		t.Fatalf("expected exactly one loop test comparison, got %v", top.Buf.Commands)
	}
	if countOp(top.Buf.Commands, command.OpAdd) != 1 {
		t.Fatalf("expected exactly one update-clause addition, got %v", top.Buf.Commands)
	}
}

func TestFunctionDeclarationProducesANestedRecordAndClosure(t *testing.T) {
	a := compile(t, "function add(a, b) { return a + b; }")
	if len(a.Program()) < 2 {
		t.Fatalf("expected at least two function records (add + program), got %d", len(a.Program()))
	}
	top := a.Program()[len(a.Program())-1]
	if countOp(top.Buf.Commands, command.OpLambda) != 1 {
		t.Fatalf("expected the program body to create exactly one lambda, got %v", top.Buf.Commands)
	}
	if countOp(top.Buf.Commands, command.OpClosure) != 1 {
		t.Fatalf("expected the program body to create exactly one closure, got %v", top.Buf.Commands)
	}
}

func TestArrowFunctionCapturesEnclosingVariable(t *testing.T) {
	a := compile(t, "function outer(a) { return x => x + a; }")
	if len(a.Program()) < 2 {
		t.Fatalf("expected at least two function records, got %d", len(a.Program()))
	}
	arrow := a.Program()[0]
	if len(arrow.Captures) != 1 {
		t.Fatalf("expected the arrow to capture exactly one variable, got %v", arrow.Captures)
	}
}

func TestCompoundAssignLoadsSwapsThenStores(t *testing.T) {
	a := compile(t, "let x = 1; x += 2;")
	top := a.Program()[len(a.Program())-1]
	if err := command.Verify(&top.Buf); err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if countOp(top.Buf.Commands, command.OpSwap) != 1 {
		t.Fatalf("expected exactly one swap for the compound assignment, got %v", top.Buf.Commands)
	}
}

func TestPostfixIncrementPreservesOldValue(t *testing.T) {
	a := compile(t, "let x = 1; x++;")
	top := a.Program()[len(a.Program())-1]
	if err := command.Verify(&top.Buf); err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if countOp(top.Buf.Commands, command.OpDuplicate) != 1 {
		t.Fatalf("expected postfix ++ to duplicate the old value, got %v", top.Buf.Commands)
	}
}

func TestShortCircuitOrSkipsRightOperandBranch(t *testing.T) {
	a := compile(t, "let x = true || false;")
	top := a.Program()[len(a.Program())-1]
	if err := command.Verify(&top.Buf); err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if countOp(top.Buf.Commands, command.OpBranchIfTrue) != 1 {
		t.Fatalf("expected || to lower to one branch-if-true, got %v", top.Buf.Commands)
	}
}

func TestThrowAndTryCatchBalanceTheStack(t *testing.T) {
	a := compile(t, "try { throw 1; } catch (e) { e; }")
	top := a.Program()[len(a.Program())-1]
	if err := command.Verify(&top.Buf); err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if countOp(top.Buf.Commands, command.OpPushHandler) != 1 {
		t.Fatalf("expected try to lower to one push-handler, got %v", top.Buf.Commands)
	}
	if countOp(top.Buf.Commands, command.OpPopHandler) != 1 {
		t.Fatalf("expected try to lower to one pop-handler, got %v", top.Buf.Commands)
	}
	if countOp(top.Buf.Commands, command.OpLoadPendingException) != 1 {
		t.Fatalf("expected the catch parameter to lower to one load-pending-exception, got %v", top.Buf.Commands)
	}
}

func TestAsyncFunctionDeclarationIsMarkedCoroutine(t *testing.T) {
	a := compile(t, "async function f() { await 1; }")
	var found *FunctionRecord
	for _, fr := range a.Program() {
		if fr.IsCoroutine {
			found = fr
		}
	}
	if found == nil {
		t.Fatalf("expected one function record marked as a coroutine, got %v", a.Program())
	}
}

func TestSyntaxErrorPropagatesFromParser(t *testing.T) {
	p, err := parser.New(")))", nil)
	if err != nil {
		t.Fatalf("parser.New: %v", err)
	}
	if _, err := p.Parse(New()); err == nil {
		t.Fatal("expected a syntax error")
	}
}
