// ==============================================================================================
// FILE: internal/parser/tables.go
// ==============================================================================================
// PACKAGE: parser
// PURPOSE: Loads the ACTION/GOTO/lexical-goal tables spec.md §4.2 describes as the output of an
//          offline "companion tool". This package builds the table in-process once from the
//          embedded grammar via internal/lalr (BuiltinTables, the path cmd/jsengine uses), or
//          decodes a lalr.Document JSON supplied by the caller (FromJSON); no command in this
//          repository writes such a JSON document.
// ==============================================================================================

package parser

import (
	"encoding/json"
	"fmt"
	"sync"

	"jsengine/internal/esgrammar"
	"jsengine/internal/grammar"
	"jsengine/internal/lalr"
	"jsengine/internal/token"
)

const endOfInput = "$end"

// Tables is the runtime-friendly index over a lalr.Document: per-state maps from token/non-
// terminal name to ACTION/GOTO cell, avoiding a linear scan of the `[2]any` pairs on every step.
type Tables struct {
	Doc     *lalr.Document
	Start   int
	actions []map[string]lalr.Action
	gotos   []map[string]int
}

func indexDocument(doc *lalr.Document) *Tables {
	t := &Tables{
		Doc:     doc,
		Start:   doc.Starts[esgrammar.GoalSymbol],
		actions: make([]map[string]lalr.Action, len(doc.States)),
		gotos:   make([]map[string]int, len(doc.States)),
	}
	for i, st := range doc.States {
		am := make(map[string]lalr.Action, len(st.Actions))
		for _, pair := range st.Actions {
			tok, _ := pair[0].(string)
			act, _ := pair[1].(lalr.Action)
			am[tok] = act
		}
		t.actions[i] = am

		gm := make(map[string]int, len(st.Gotos))
		for _, pair := range st.Gotos {
			nt, _ := pair[0].(string)
			next, _ := pair[1].(int)
			gm[nt] = next
		}
		t.gotos[i] = gm
	}
	return t
}

func (t *Tables) action(state int, tokenName string) (lalr.Action, bool) {
	act, ok := t.actions[state][tokenName]
	return act, ok
}

func (t *Tables) gotoState(state int, nonTerminal string) (int, bool) {
	s, ok := t.gotos[state][nonTerminal]
	return s, ok
}

// lexicalGoal returns the lexer goal the parser must request of the lexer while in state.
func (t *Tables) lexicalGoal(state int) token.Goal {
	if t.Doc.States[state].LexicalGoal == "InputElementRegExp" {
		return token.InputElementRegExp
	}
	return token.InputElementDiv
}

var (
	builtOnce   sync.Once
	builtTables *Tables
	buildErr    error
)

// BuiltinTables returns the Tables built from the engine's embedded ECMAScript-subset grammar
// (internal/esgrammar), computed once per process. This is the table an internal/executor-owned
// Parser uses unless a prebuilt JSON document is supplied via FromJSON.
func BuiltinTables() (*Tables, error) {
	builtOnce.Do(func() {
		g, err := grammar.Parse(esgrammar.Source)
		if err != nil {
			buildErr = fmt.Errorf("parser: parsing embedded grammar: %w", err)
			return
		}
		doc, err := lalr.BuildTables(g, esgrammar.GoalSymbol, nil)
		if err != nil {
			buildErr = fmt.Errorf("parser: building tables: %w", err)
			return
		}
		builtTables = indexDocument(doc)
	})
	return builtTables, buildErr
}

// FromJSON decodes a lalr.Document in its JSON form (spec.md §6's generator output schema) and
// indexes it for runtime use.
func FromJSON(data []byte) (*Tables, error) {
	var raw struct {
		GoalSymbols     []string        `json:"goal_symbols"`
		NonTerminals    []string        `json:"non_terminals"`
		ProductionRules []string        `json:"production_rules"`
		Starts          map[string]int  `json:"starts"`
		States          []rawStateTable `json:"states"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parser: decoding table document: %w", err)
	}
	doc := &lalr.Document{
		GoalSymbols:     raw.GoalSymbols,
		NonTerminals:    raw.NonTerminals,
		ProductionRules: raw.ProductionRules,
		Starts:          raw.Starts,
	}
	for _, rs := range raw.States {
		st := lalr.StateTable{LexicalGoal: rs.LexicalGoal}
		for _, pair := range rs.Actions {
			act, err := decodeAction(pair.Data)
			if err != nil {
				return nil, err
			}
			st.Actions = append(st.Actions, [2]any{pair.Token, act})
		}
		for _, pair := range rs.Gotos {
			st.Gotos = append(st.Gotos, [2]any{pair.Symbol, pair.State})
		}
		doc.States = append(doc.States, st)
	}
	return indexDocument(doc), nil
}

type rawStateTable struct {
	Actions []rawActionPair `json:"actions"`
	Gotos   []rawGotoPair   `json:"gotos"`
	LexicalGoal string      `json:"lexical_goal"`
}

type rawActionPair struct {
	Token string
	Data  json.RawMessage
}

func (p *rawActionPair) UnmarshalJSON(b []byte) error {
	var pair [2]json.RawMessage
	if err := json.Unmarshal(b, &pair); err != nil {
		return err
	}
	if err := json.Unmarshal(pair[0], &p.Token); err != nil {
		return err
	}
	p.Data = pair[1]
	return nil
}

type rawGotoPair struct {
	Symbol string
	State  int
}

func (p *rawGotoPair) UnmarshalJSON(b []byte) error {
	var pair [2]json.RawMessage
	if err := json.Unmarshal(b, &pair); err != nil {
		return err
	}
	if err := json.Unmarshal(pair[0], &p.Symbol); err != nil {
		return err
	}
	return json.Unmarshal(pair[1], &p.State)
}

func decodeAction(raw json.RawMessage) (lalr.Action, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return lalr.Action{}, err
	}
	switch head.Type {
	case string(lalr.ActionShift):
		var body struct {
			Data int `json:"data"`
		}
		if err := json.Unmarshal(raw, &body); err != nil {
			return lalr.Action{}, err
		}
		return lalr.Action{Kind: lalr.ActionShift, State: body.Data}, nil
	case string(lalr.ActionReduce):
		var body struct {
			Data []any `json:"data"`
		}
		if err := json.Unmarshal(raw, &body); err != nil {
			return lalr.Action{}, err
		}
		nt, _ := body.Data[0].(string)
		popped, _ := body.Data[1].(float64)
		rule, _ := body.Data[2].(string)
		return lalr.Action{Kind: lalr.ActionReduce, NonTerminal: nt, SymbolsPopped: int(popped), RuleString: rule}, nil
	case string(lalr.ActionAccept):
		return lalr.Action{Kind: lalr.ActionAccept}, nil
	default:
		return lalr.Action{}, fmt.Errorf("parser: unknown action type %q", head.Type)
	}
}
