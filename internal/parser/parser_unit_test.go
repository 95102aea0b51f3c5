// ==============================================================================================
// FILE: internal/parser/parser_unit_test.go
// ==============================================================================================
// PURPOSE: Unit tests exercising the table-driven shift/reduce loop in isolation, using a no-op
//          Handler that only records which rules fired.
// ==============================================================================================

package parser

import (
	"testing"

	"jsengine/internal/token"
)

// recordingHandler satisfies Handler while doing no semantic work beyond recording the sequence
// of reduced rule names, for assertions about which productions a given source exercises.
type recordingHandler struct {
	reduced []string
}

func (h *recordingHandler) Shift(tok token.Token) (Value, error) {
	return tok, nil
}

func (h *recordingHandler) Reduce(rule Rule, popped []Value) (Value, error) {
	h.reduced = append(h.reduced, rule.NonTerminal)
	return nil, nil
}

func parseOK(t *testing.T, src string) *recordingHandler {
	t.Helper()
	p, err := New(src, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	h := &recordingHandler{}
	if _, err := p.Parse(h); err != nil {
		t.Fatalf("Parse(%q): %v", src, err)
	}
	return h
}

func TestParseNumberLiteralStatement(t *testing.T) {
	h := parseOK(t, "1;")
	if !contains(h.reduced, "PrimaryExpr") {
		t.Errorf("expected a PrimaryExpr reduction, got %v", h.reduced)
	}
}

func TestParseIfElse(t *testing.T) {
	parseOK(t, "if (1) { 2; } else { 3; }")
}

func TestParseFunctionDeclaration(t *testing.T) {
	h := parseOK(t, "function add(a, b) { return a + b; }")
	if !contains(h.reduced, "FuncDecl") {
		t.Errorf("expected a FuncDecl reduction, got %v", h.reduced)
	}
}

func TestParseVarDeclarationNoSemicolonAtEOF(t *testing.T) {
	// Exercises automatic semicolon insertion at end-of-input (spec.md §4.2).
	parseOK(t, "let x = 1")
}

func TestParseAutomaticSemicolonBeforeClosingBrace(t *testing.T) {
	parseOK(t, "function f() { return 1 }")
}

func TestSyntaxErrorOnGarbage(t *testing.T) {
	p, err := New(")))", nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := p.Parse(&recordingHandler{}); err == nil {
		t.Fatal("expected a syntax error, got nil")
	}
}

func contains(xs []string, want string) bool {
	for _, x := range xs {
		if x == want {
			return true
		}
	}
	return false
}
