// ==============================================================================================
// FILE: internal/lalr/table.go
// ==============================================================================================
// PACKAGE: lalr
// PURPOSE: spec.md §4.2 steps 4–5 (emit per-state ACTION/GOTO/lexical-goal tables) and the §6
//          JSON wire format the generator hands to the runtime parser.
// ==============================================================================================

package lalr

import (
	"encoding/json"
	"fmt"

	"jsengine/internal/grammar"
	"jsengine/internal/token"
)

// ActionKind discriminates one ACTION table cell.
type ActionKind string

const (
	ActionShift  ActionKind = "shift"
	ActionReduce ActionKind = "reduce"
	ActionAccept ActionKind = "accept"
)

// Action is one ACTION[state][token] cell.
type Action struct {
	Kind ActionKind `json:"type"`
	// Shift
	State int `json:"data,omitempty"`
	// Reduce
	NonTerminal   string `json:"-"`
	SymbolsPopped int    `json:"-"`
	RuleString    string `json:"-"`
}

// MarshalJSON renders Action in the exact schema of spec.md §6:
// `{type: shift, data: state-id}` or `{type: reduce, data: [non-terminal-name, symbols-popped, rule-string]}`
// or `{type: accept}`.
func (a Action) MarshalJSON() ([]byte, error) {
	switch a.Kind {
	case ActionShift:
		return json.Marshal(struct {
			Type string `json:"type"`
			Data int    `json:"data"`
		}{string(a.Kind), a.State})
	case ActionReduce:
		return json.Marshal(struct {
			Type string `json:"type"`
			Data []any  `json:"data"`
		}{string(a.Kind), []any{a.NonTerminal, a.SymbolsPopped, a.RuleString}})
	default:
		return json.Marshal(struct {
			Type string `json:"type"`
		}{string(a.Kind)})
	}
}

// StateTable is one entry of the `states` array in the generator's JSON output. The base schema
// of spec.md §6 lists only `actions`/`gotos`; `lexical_goal` is a documented, additive field
// this implementation uses to carry spec.md §4.2 step 5's "lexical-goal table (state → lexer
// goal)" inline rather than as a separate artifact the runtime would otherwise have to keep in
// lock-step with state ids.
type StateTable struct {
	Actions     [][2]any `json:"actions"`
	Gotos       [][2]any `json:"gotos"`
	LexicalGoal string   `json:"lexical_goal"`
}

// Document is the full generator output document of spec.md §6.
type Document struct {
	GoalSymbols     []string              `json:"goal_symbols"`
	NonTerminals    []string              `json:"non_terminals"`
	ProductionRules []string              `json:"production_rules"`
	Starts          map[string]int        `json:"starts"`
	States          []StateTable          `json:"states"`
}

// BuildTables runs the full offline pipeline (spec.md §4.2 steps 1–5) and returns the document
// ready to be written out as the parser's build-time tables. goalLexicalGoal assigns a lexical
// goal to each state, typically by inspecting which productions are live in that state (states
// expecting a RegExp-starting expression select InputElementRegExp; the rest select
// InputElementDiv).
func BuildTables(g *grammar.Grammar, goalSymbol string, goalLexicalGoal func(*State) token.Goal) (*Document, error) {
	lg := Build(g, goalSymbol)
	automaton := BuildAutomaton(lg)
	first := ComputeFirstSets(lg)
	if err := automaton.computeLookaheads(first); err != nil {
		return nil, err
	}

	doc := &Document{
		GoalSymbols: []string{goalSymbol},
		Starts:      map[string]int{goalSymbol: 0},
	}
	seenNT := map[string]bool{}
	for _, r := range lg.rules {
		doc.ProductionRules = append(doc.ProductionRules, r.String())
		if !seenNT[r.Name] {
			seenNT[r.Name] = true
			doc.NonTerminals = append(doc.NonTerminals, r.Name)
		}
	}

	for _, state := range automaton.States {
		st := StateTable{LexicalGoal: "InputElementDiv"}
		if goalLexicalGoal != nil && goalLexicalGoal(state) == token.InputElementRegExp {
			st.LexicalGoal = "InputElementRegExp"
		}

		actionsByToken := map[string]Action{}

		// Shifts, from transitions on terminal symbols.
		for sym, target := range state.Transitions {
			if isTerminalSymbol(lg, sym) {
				if err := setAction(actionsByToken, sym, Action{Kind: ActionShift, State: target}); err != nil {
					return nil, err
				}
			}
		}

		// Reduces and accept, from completed items.
		for it := range state.Items {
			if _, more := lg.skipNonGrammarTerms(it); more {
				continue // dot is not at the end of the (grammar-symbol) production
			}
			rule := lg.rule(it.Rule)
			if it.Rule == 0 {
				// [goal' -> goal ., $end] : accept.
				if state.Lookahead[it][endOfInput] {
					if err := setAction(actionsByToken, endOfInput, Action{Kind: ActionAccept}); err != nil {
						return nil, err
					}
				}
				continue
			}
			popped := countGrammarSymbols(rule)
			for tok := range state.Lookahead[it] {
				if err := setAction(actionsByToken, tok, Action{
					Kind: ActionReduce, NonTerminal: rule.Name,
					SymbolsPopped: popped, RuleString: rule.String(),
				}); err != nil {
					return nil, fmt.Errorf("state %d: %w", state.ID, err)
				}
			}
		}

		for tok, act := range actionsByToken {
			st.Actions = append(st.Actions, [2]any{tok, act})
		}
		for sym, target := range state.Transitions {
			if !isTerminalSymbol(lg, sym) {
				st.Gotos = append(st.Gotos, [2]any{sym, target})
			}
		}
		doc.States = append(doc.States, st)
	}
	return doc, nil
}

func setAction(m map[string]Action, tok string, act Action) error {
	if existing, ok := m[tok]; ok {
		if existing.Kind != act.Kind || !sameAction(existing, act) {
			return fmt.Errorf("grammar conflict on token %q: %s vs %s (fatal per spec.md §4.2 step 4)", tok, existing.Kind, act.Kind)
		}
		return nil
	}
	m[tok] = act
	return nil
}

func sameAction(a, b Action) bool {
	return a.Kind == b.Kind && a.State == b.State && a.NonTerminal == b.NonTerminal
}

func isTerminalSymbol(g *Grammar, name string) bool {
	for _, r := range g.rules {
		if r.Name == name {
			return false
		}
	}
	return true
}

// countGrammarSymbols counts the token/non-terminal terms of a production (i.e. the number of
// stack entries a reduce of this rule pops), ignoring lookahead/disallow/empty terms.
func countGrammarSymbols(r *grammar.Rule) int {
	n := 0
	for _, t := range r.Production {
		if t.Type == grammar.TermToken || t.Type == grammar.TermNonTerminal {
			n++
		}
	}
	return n
}
