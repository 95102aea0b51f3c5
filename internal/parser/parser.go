// ==============================================================================================
// FILE: internal/parser/parser.go
// ==============================================================================================
// PACKAGE: parser
// PURPOSE: The runtime half of spec.md §4.2: a table-driven LALR(1) parser that maintains a
//          stack of (state, semantic-value), consults ACTION/GOTO from Tables, and drives a
//          caller-supplied Handler (internal/analyzer, in production) on every shift and reduce.
//          Automatic semicolon insertion and error reporting follow spec.md §4.2's "Runtime"
//          and §7 policy.
// ==============================================================================================

package parser

import (
	"fmt"

	"jsengine/internal/lalr"
	"jsengine/internal/lexer"
	"jsengine/internal/token"
)

// Value is whatever a Handler chooses to carry on the parse stack: a token.Token for a shifted
// terminal, or a Handler-defined result for a reduced non-terminal.
type Value any

// Rule describes the production a Handler.Reduce call is satisfying.
type Rule struct {
	NonTerminal   string
	SymbolsPopped int
	RuleString    string
}

// Handler is supplied by the semantic analyzer (internal/analyzer). It is invoked as the
// "reduction handler of the parser" per spec.md §4.3.
type Handler interface {
	// Shift produces the semantic value to push for a freshly lexed terminal.
	Shift(tok token.Token) (Value, error)
	// Reduce produces the semantic value to push for rule, given the popped values of its
	// right-hand side in left-to-right order.
	Reduce(rule Rule, popped []Value) (Value, error)
}

// SyntaxError reports a parse failure; spec.md §7 kind 2 ("Syntactic").
type SyntaxError struct {
	Token   token.Token
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax-error: %s at %s (line %d, column %d)", e.Message, e.Token, e.Token.Line, e.Token.Column)
}

type stackEntry struct {
	state int
	value Value
}

// Parser drives one parse of a token stream against a fixed Tables.
type Parser struct {
	tables *Tables
	lex    *lexer.Lexer
}

// New constructs a Parser over src using tables. Pass nil to use BuiltinTables().
func New(src string, tables *Tables) (*Parser, error) {
	if tables == nil {
		var err error
		tables, err = BuiltinTables()
		if err != nil {
			return nil, err
		}
	}
	return &Parser{tables: tables, lex: lexer.New(src)}, nil
}

// Parse runs the shift/reduce loop to completion, invoking handler on every shift and reduce, and
// returns the semantic value of the accepted start symbol.
func (p *Parser) Parse(handler Handler) (Value, error) {
	stack := []stackEntry{{state: p.tables.Start}}

	cur := p.lex.NextToken(p.tables.lexicalGoal(stack[len(stack)-1].state))
	synthesizedSemi := false
	semiShifted := false // a synthesized ";" was just shifted ahead of cur; ASI does not fire again for cur

	for {
		top := stack[len(stack)-1]
		tokName := tokenName(cur)

		act, ok := p.tables.action(top.state, tokName)
		if !ok {
			// Automatic semicolon insertion, per spec.md §4.2: offending token is `}`, EOF, or
			// preceded by a line terminator, and the grammar accepts `;` here.
			if !semiShifted && (cur.Kind == token.RBRACE || cur.Kind == token.EOF || cur.PrecededByLineTerminator) {
				if semiAct, ok2 := p.tables.action(top.state, ";"); ok2 {
					act = semiAct
					ok = true
					synthesizedSemi = true
				}
			}
			if !ok {
				return nil, &SyntaxError{Token: cur, Message: "unexpected token"}
			}
		} else {
			synthesizedSemi = false
		}

		switch act.Kind {
		case lalr.ActionShift:
			val, err := handler.Shift(syntheticSemiOr(cur, synthesizedSemi))
			if err != nil {
				return nil, err
			}
			stack = append(stack, stackEntry{state: act.State, value: val})
			semiShifted = synthesizedSemi
			if !synthesizedSemi {
				cur = p.lex.NextToken(p.tables.lexicalGoal(act.State))
			}
			// else: re-examine the same `cur` token against the post-shift state, since the
			// synthesized `;` was consumed but the offending token itself never was.

		case lalr.ActionReduce:
			n := act.SymbolsPopped
			popped := make([]Value, n)
			for i := 0; i < n; i++ {
				popped[i] = stack[len(stack)-n+i].value
			}
			stack = stack[:len(stack)-n]
			newTop := stack[len(stack)-1]
			val, err := handler.Reduce(Rule{NonTerminal: act.NonTerminal, SymbolsPopped: n, RuleString: act.RuleString}, popped)
			if err != nil {
				return nil, err
			}
			next, ok := p.tables.gotoState(newTop.state, act.NonTerminal)
			if !ok {
				return nil, fmt.Errorf("parser: no GOTO[%d][%s]", newTop.state, act.NonTerminal)
			}
			stack = append(stack, stackEntry{state: next, value: val})

		case lalr.ActionAccept:
			return stack[len(stack)-1].value, nil

		default:
			return nil, fmt.Errorf("parser: unknown action kind %v", act.Kind)
		}
	}
}

func tokenName(tok token.Token) string {
	if tok.Kind == token.EOF {
		return endOfInput
	}
	return token.KindName(tok.Kind)
}

// syntheticSemiOr returns a synthesized `;` token in place of tok when ASI has just fired,
// otherwise tok unchanged.
func syntheticSemiOr(tok token.Token, synthesized bool) token.Token {
	if !synthesized {
		return tok
	}
	return token.Token{Kind: token.SEMI, Start: tok.Start, End: tok.Start, Line: tok.Line, Column: tok.Column, Literal: ";"}
}
