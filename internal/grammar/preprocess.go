// ==============================================================================================
// FILE: internal/grammar/preprocess.go
// ==============================================================================================
// PACKAGE: grammar
// PURPOSE: Eliminates inner lookahead restrictions by cloning production suffixes into variant
//          non-terminals (spec.md §4.2 "Grammar preprocessing"), then deletes any rule that
//          transitively references a non-terminal invalidated by the expansion, iterating to a
//          fixed point — the exact two-phase shape of
//          original_source/bins/lalrgen/src/preprocess.rs.
// ==============================================================================================

package grammar

import "fmt"

// variantKey identifies one (non-terminal, lookahead) pairing that has already been cloned into
// a variant non-terminal, the same role original_source's VariantNameTable.map plays.
type variantKey struct {
	nonTerminal string
	lookahead   string
}

type variantTable struct {
	nextID int
	names  map[variantKey]string
}

func newVariantTable() *variantTable {
	return &variantTable{nextID: 1, names: map[variantKey]string{}}
}

func (t *variantTable) nameFor(nonTerminal string, la *Lookahead) (string, bool) {
	key := variantKey{nonTerminal, la.String()}
	if name, ok := t.names[key]; ok {
		return name, true
	}
	name := fmt.Sprintf("%s#%d", nonTerminal, t.nextID)
	t.nextID++
	t.names[key] = name
	return name, false
}

// Preprocess resolves every inner lookahead restriction in g and returns a new Grammar with no
// inner restrictions remaining (trailing/outer restrictions — those in tail position — are left
// untouched, matching spec.md's distinction between inner and outer restrictions).
func Preprocess(g *Grammar) *Grammar {
	variants := newVariantTable()
	original := map[*Rule]*Rule{}
	for r, o := range g.OriginalRules {
		original[r] = o
	}

	remaining := append([]*Rule(nil), g.Rules...)
	var expanded []*Rule
	changed := false

	for len(remaining) > 0 {
		rule := remaining[0]
		remaining = remaining[1:]

		n := len(rule.Production)
		if n < 2 || !hasNonTailLookahead(rule.Production) {
			expanded = append(expanded, rule)
			continue
		}
		changed = true

		pp := &lookaheadPreprocessor{
			grammar:  g,
			table:    variants,
			original: original,
		}
		invalid := false
		for _, term := range rule.Production {
			if !pp.step(rule.Name, term) {
				invalid = true
				break
			}
		}
		remaining = append(remaining, pp.variantRules...)
		if invalid {
			continue
		}
		modified := &Rule{Name: rule.Name, Production: pp.takeProduction()}
		original[modified] = originalOf(original, rule)
		expanded = append(expanded, modified)
	}

	if !changed {
		return &Grammar{Rules: append([]*Rule(nil), g.Rules...), OriginalRules: original}
	}

	expanded = removeInvalidatedRules(expanded)
	return &Grammar{Rules: expanded, OriginalRules: original}
}

func originalOf(original map[*Rule]*Rule, r *Rule) *Rule {
	if o, ok := original[r]; ok {
		return o
	}
	return r
}

func hasNonTailLookahead(production []Term) bool {
	if len(production) == 0 {
		return false
	}
	for _, t := range production[:len(production)-1] {
		if t.IsLookahead() {
			return true
		}
	}
	return false
}

// lookaheadPreprocessor walks one rule's production left to right, carrying the lookahead
// restriction currently in effect (if any) so it can be applied to the next term — mirroring
// original_source's LookaheadPreprocessor state machine exactly.
type lookaheadPreprocessor struct {
	grammar      *Grammar
	table        *variantTable
	original     map[*Rule]*Rule
	lookahead    *Lookahead
	production   []Term
	variantRules []*Rule
	invalid      bool
}

// step processes one term of the production being scanned. It returns false once the rule has
// been determined unsatisfiable (an active lookahead restriction rejects a concrete token).
func (p *lookaheadPreprocessor) step(nonTerminal string, term Term) bool {
	if p.lookahead == nil {
		if term.IsLookahead() {
			p.lookahead = term.Lookahead
			return true
		}
		p.production = append(p.production, term)
		return true
	}

	la := p.lookahead
	p.lookahead = nil

	if term.Type == TermNonTerminal {
		variantName, existed := p.table.nameFor(term.NonTerminal, la)
		if !existed {
			for _, rule := range p.grammar.NonTerminalRules(term.NonTerminal) {
				variantProduction := append([]Term{{Type: TermLookahead, Lookahead: la}}, rule.Production...)
				variant := &Rule{Name: variantName, Production: variantProduction}
				p.original[variant] = originalOf(p.original, rule)
				p.variantRules = append(p.variantRules, variant)
			}
		}
		p.production = append(p.production, Term{Type: TermNonTerminal, NonTerminal: variantName})
		return true
	}

	status, next := la.Consume(term.String())
	switch status {
	case Matched:
		p.production = append(p.production, term)
		return true
	case Remaining:
		p.production = append(p.production, term)
		p.lookahead = next
		return true
	default: // Unmatched
		p.invalid = true
		return false
	}
}

func (p *lookaheadPreprocessor) takeProduction() []Term {
	production := p.production
	if p.lookahead != nil {
		production = append(production, Term{Type: TermLookahead, Lookahead: p.lookahead})
	}
	return production
}

// removeInvalidatedRules iterates rule removal to a fixed point: a rule referencing a
// non-terminal that no longer has any rule of its own is dropped, which may in turn invalidate
// rules that referenced *that* rule's non-terminal, and so on. spec.md §9 calls doing this only
// once "a known pitfall" — the loop below is the fix.
func removeInvalidatedRules(rules []*Rule) []*Rule {
	for {
		live := map[string]bool{}
		for _, r := range rules {
			live[r.Name] = true
		}
		kept := make([]*Rule, 0, len(rules))
		for _, r := range rules {
			ok := true
			for _, t := range r.Production {
				if t.Type == TermNonTerminal && !live[t.NonTerminal] {
					ok = false
					break
				}
			}
			if ok {
				kept = append(kept, r)
			}
		}
		if len(kept) == len(rules) {
			return kept
		}
		rules = kept
	}
}
