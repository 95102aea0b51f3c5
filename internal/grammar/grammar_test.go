package grammar

import "testing"

func TestParseDecodesRulesAndTerms(t *testing.T) {
	doc := []byte(`
- name: Stmt
  production:
    - {type: non-terminal, data: Expr}
    - {type: token, data: ";"}
- name: Expr
  production:
    - {type: token, data: NUMBER}
`)
	g, err := Parse(doc)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if g.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", g.Len())
	}
	exprRules := g.NonTerminalRules("Expr")
	if len(exprRules) != 1 {
		t.Fatalf("NonTerminalRules(Expr) = %d rules, want 1", len(exprRules))
	}
	stmt := g.NonTerminalRules("Stmt")[0]
	if len(stmt.Production) != 2 || stmt.Production[0].NonTerminal != "Expr" || stmt.Production[1].Token != ";" {
		t.Errorf("Stmt production decoded wrong: %+v", stmt.Production)
	}
}

func TestLookaheadConsumeSingleTokenPhrase(t *testing.T) {
	la := &Lookahead{Kind: LookaheadInclude, Phrases: PhraseSet{{"b"}}}
	if status, _ := la.Consume("b"); status != Matched {
		t.Errorf("Consume(b) = %v, want Matched", status)
	}
	if status, _ := la.Consume("x"); status != Unmatched {
		t.Errorf("Consume(x) = %v, want Unmatched", status)
	}
}

func TestLookaheadConsumeMultiTokenPhraseNarrows(t *testing.T) {
	la := &Lookahead{Kind: LookaheadInclude, Phrases: PhraseSet{{"a", "b"}}}
	status, next := la.Consume("a")
	if status != Remaining {
		t.Fatalf("Consume(a) = %v, want Remaining", status)
	}
	if status2, _ := next.Consume("b"); status2 != Matched {
		t.Errorf("Consume(b) on the narrowed set = %v, want Matched", status2)
	}
}

func TestLookaheadExcludeInverts(t *testing.T) {
	la := &Lookahead{Kind: LookaheadExclude, Phrases: PhraseSet{{"b"}}}
	if status, _ := la.Consume("b"); status != Unmatched {
		t.Errorf("exclude Consume(b) = %v, want Unmatched", status)
	}
	if status, _ := la.Consume("x"); status != Matched {
		t.Errorf("exclude Consume(x) = %v, want Matched", status)
	}
}

// TestPreprocessExpandsNonTailLookaheadIntoVariant exercises the variant-expansion half of
// Preprocess: a non-tail lookahead ahead of a non-terminal clones that non-terminal's rules into
// a fresh variant carrying the restriction, rather than leaving the restriction embedded
// mid-production; the variant's copy of the restriction is then resolved against the variant's
// first token.
func TestPreprocessExpandsNonTailLookaheadIntoVariant(t *testing.T) {
	g := &Grammar{
		OriginalRules: map[*Rule]*Rule{},
		Rules: []*Rule{
			{Name: "A", Production: []Term{
				{Type: TermLookahead, Lookahead: &Lookahead{Kind: LookaheadInclude, Phrases: PhraseSet{{"b"}}}},
				{Type: TermNonTerminal, NonTerminal: "B"},
				{Type: TermToken, Token: "c"},
			}},
			{Name: "B", Production: []Term{{Type: TermToken, Token: "b"}}},
		},
	}

	out := Preprocess(g)

	var aRule *Rule
	for _, r := range out.Rules {
		if r.Name == "A" {
			aRule = r
		}
	}
	if aRule == nil {
		t.Fatal("rule A missing from the preprocessed grammar")
	}
	if len(aRule.Production) != 2 {
		t.Fatalf("expected A's production to collapse to 2 terms, got %d: %+v", len(aRule.Production), aRule.Production)
	}
	variantName := aRule.Production[0].NonTerminal
	if aRule.Production[0].Type != TermNonTerminal || variantName == "B" {
		t.Fatalf("expected a fresh variant non-terminal distinct from B, got %+v", aRule.Production[0])
	}

	var variantRule *Rule
	for _, r := range out.Rules {
		if r.Name == variantName {
			variantRule = r
		}
	}
	if variantRule == nil {
		t.Fatalf("no rule found for generated variant %q", variantName)
	}
	if len(variantRule.Production) != 1 || variantRule.Production[0].Type != TermToken || variantRule.Production[0].Token != "b" {
		t.Errorf("variant rule's lookahead must be resolved away against its first token b, got %+v", variantRule.Production)
	}
}

// TestRemoveInvalidatedRulesCascades pins spec.md §9's "doing it once is a known pitfall": a rule
// invalidated by the first pass (Y, which references an undefined non-terminal) must in turn
// invalidate whatever depends on it (X, which only references Y) in a second pass, not be missed.
func TestRemoveInvalidatedRulesCascades(t *testing.T) {
	z := &Rule{Name: "Z", Production: []Term{{Type: TermToken, Token: "tok"}}}
	y := &Rule{Name: "Y", Production: []Term{{Type: TermNonTerminal, NonTerminal: "Q"}}}
	x := &Rule{Name: "X", Production: []Term{{Type: TermNonTerminal, NonTerminal: "Y"}}}

	kept := removeInvalidatedRules([]*Rule{z, y, x})

	if len(kept) != 1 || kept[0].Name != "Z" {
		names := make([]string, len(kept))
		for i, r := range kept {
			names[i] = r.Name
		}
		t.Fatalf("expected only Z to survive the cascade, got %v", names)
	}
}
