package lalr

import (
	"testing"

	"jsengine/internal/grammar"
)

// additionGrammar is the textbook unambiguous left-recursive sum grammar: S -> E, E -> E + T | T,
// T -> id. It is LALR(1) by construction, so BuildTables must return no conflicts and FIRST(E)
// must include "id" — the two invariants spec.md §8 names ("no table encodes a conflict").
func additionGrammar() *grammar.Grammar {
	tok := func(s string) grammar.Term { return grammar.Term{Type: grammar.TermToken, Token: s} }
	nt := func(s string) grammar.Term { return grammar.Term{Type: grammar.TermNonTerminal, NonTerminal: s} }

	return &grammar.Grammar{
		OriginalRules: map[*grammar.Rule]*grammar.Rule{},
		Rules: []*grammar.Rule{
			{Name: "S", Production: []grammar.Term{nt("E")}},
			{Name: "E", Production: []grammar.Term{nt("E"), tok("+"), nt("T")}},
			{Name: "E", Production: []grammar.Term{nt("T")}},
			{Name: "T", Production: []grammar.Term{tok("id")}},
		},
	}
}

func TestComputeFirstSetsPropagatesThroughNonTerminals(t *testing.T) {
	lg := Build(additionGrammar(), "S")
	first := ComputeFirstSets(lg)

	if !first.sets["T"]["id"] {
		t.Fatalf("FIRST(T) must contain \"id\", got %v", first.sets["T"])
	}
	if !first.sets["E"]["id"] {
		t.Fatalf("FIRST(E) must contain \"id\" (via T), got %v", first.sets["E"])
	}
	if !first.sets["S"]["id"] {
		t.Fatalf("FIRST(S) must contain \"id\" (via E), got %v", first.sets["S"])
	}
}

func TestBuildTablesProducesNoConflictsAndAnAcceptState(t *testing.T) {
	doc, err := BuildTables(additionGrammar(), "S", nil)
	if err != nil {
		t.Fatalf("BuildTables: %v", err)
	}
	if len(doc.States) == 0 {
		t.Fatal("expected at least one state")
	}

	foundAccept := false
	for _, st := range doc.States {
		for _, entry := range st.Actions {
			tok, _ := entry[0].(string)
			act, _ := entry[1].(Action)
			if tok == endOfInput && act.Kind == ActionAccept {
				foundAccept = true
			}
		}
	}
	if !foundAccept {
		t.Error("expected some state to accept on end-of-input")
	}
}

func TestBuildTablesRejectsAGenuineConflict(t *testing.T) {
	// After "x", both A -> x and B -> x are complete and both reduce on end-of-input, with
	// different rule identities: a reduce/reduce conflict that must surface as an error, not be
	// silently resolved one way.
	tok := func(s string) grammar.Term { return grammar.Term{Type: grammar.TermToken, Token: s} }
	nt := func(s string) grammar.Term { return grammar.Term{Type: grammar.TermNonTerminal, NonTerminal: s} }
	g := &grammar.Grammar{
		OriginalRules: map[*grammar.Rule]*grammar.Rule{},
		Rules: []*grammar.Rule{
			{Name: "S", Production: []grammar.Term{nt("A")}},
			{Name: "A", Production: []grammar.Term{tok("x")}},
			{Name: "A", Production: []grammar.Term{nt("B")}},
			{Name: "B", Production: []grammar.Term{tok("x")}},
		},
	}
	if _, err := BuildTables(g, "S", nil); err == nil {
		t.Fatal("expected a reduce/reduce conflict error for the ambiguous grammar")
	}
}
