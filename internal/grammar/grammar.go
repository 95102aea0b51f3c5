// ==============================================================================================
// FILE: internal/grammar/grammar.go
// ==============================================================================================
// PACKAGE: grammar
// PURPOSE: The YAML grammar input format of spec.md §4.2/§6 ("Grammar input file (for the
//          parser-generator collaborator)") and the lookahead-restriction preprocessing step
//          that turns *inner* lookahead restrictions into variant non-terminals, grounded on
//          original_source/bins/lalrgen/src/preprocess.rs.
// ==============================================================================================

package grammar

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// TermType discriminates a production-rule term, mirroring the `type` discriminator of the
// YAML schema in spec.md §6.
type TermType string

const (
	TermToken       TermType = "token"
	TermNonTerminal TermType = "non-terminal"
	TermLookahead   TermType = "lookahead"
	TermDisallow    TermType = "disallow"
	TermEmpty       TermType = "empty"
)

// LookaheadKind is the `type` field of a lookahead restriction's data.
type LookaheadKind string

const (
	LookaheadInclude LookaheadKind = "include"
	LookaheadExclude LookaheadKind = "exclude"
)

// PhraseSet is a `Set` of token-name phrases a lookahead restriction matches against. Each
// phrase is itself a sequence of token names (spec.md calls this a "PhraseSet"); single-token
// restrictions are the common case, but `[lookahead ∈ {a b, a c}]`-style multi-token phrases are
// supported for fidelity with the source grammar.
type PhraseSet [][]string

// Lookahead is a resolved `[lookahead ∈ Set]` / `[lookahead ∉ Set]` restriction.
type Lookahead struct {
	Kind    LookaheadKind
	Phrases PhraseSet
}

func (la *Lookahead) String() string {
	op := "∈"
	if la.Kind == LookaheadExclude {
		op = "∉"
	}
	return fmt.Sprintf("[lookahead %s %v]", op, la.Phrases)
}

// MatchStatus is the result of feeding one more token name into a Lookahead in progress,
// mirrored from original_source's `phrase::MatchStatus` (Matched/Unmatched/Remaining).
type MatchStatus int

const (
	Matched MatchStatus = iota
	Unmatched
	Remaining
)

// Consume narrows la against one more observed token name. For a single-token phrase set this
// resolves immediately; for multi-token phrases it narrows the phrase set and returns a new
// Lookahead describing what must still match.
func (la *Lookahead) Consume(tokenName string) (MatchStatus, *Lookahead) {
	var remaining PhraseSet
	matchedOne := false
	for _, phrase := range la.Phrases {
		if len(phrase) == 0 {
			continue
		}
		if phrase[0] != tokenName {
			continue
		}
		if len(phrase) == 1 {
			matchedOne = true
			continue
		}
		remaining = append(remaining, phrase[1:])
	}
	switch la.Kind {
	case LookaheadInclude:
		if matchedOne {
			return Matched, nil
		}
		if len(remaining) > 0 {
			return Remaining, &Lookahead{Kind: la.Kind, Phrases: remaining}
		}
		return Unmatched, nil
	default: // exclude
		if matchedOne {
			return Unmatched, nil
		}
		if len(remaining) > 0 {
			return Remaining, &Lookahead{Kind: la.Kind, Phrases: remaining}
		}
		return Matched, nil
	}
}

// Term is one element of a production's right-hand side.
type Term struct {
	Type TermType
	// Token is set when Type == TermToken.
	Token string
	// NonTerminal is set when Type == TermNonTerminal.
	NonTerminal string
	// Lookahead is set when Type == TermLookahead.
	Lookahead *Lookahead
	// Disallow is set when Type == TermDisallow (a "no LineTerminator here"-style restriction
	// encoded as "disallow token-name", deflecting to an error state per spec.md §4.2).
	Disallow string
}

func (t Term) IsLookahead() bool { return t.Type == TermLookahead }

func (t Term) String() string {
	switch t.Type {
	case TermToken:
		return t.Token
	case TermNonTerminal:
		return t.NonTerminal
	case TermLookahead:
		return t.Lookahead.String()
	case TermDisallow:
		return "disallow(" + t.Disallow + ")"
	default:
		return "ε"
	}
}

// Rule is one production: Name -> Production.
type Rule struct {
	Name       string
	Production []Term
}

func (r *Rule) String() string {
	s := r.Name + " ->"
	for _, t := range r.Production {
		s += " " + t.String()
	}
	return s
}

// Grammar is an ordered set of rules plus an index from original (post-expansion, pre-variant)
// rule to the rule it was derived from — used only for diagnostics, as
// original_source/preprocess.rs does with its `original_rules` map.
type Grammar struct {
	Rules         []*Rule
	OriginalRules map[*Rule]*Rule
}

func (g *Grammar) Len() int { return len(g.Rules) }

// NonTerminalRules returns every rule whose left-hand side is name.
func (g *Grammar) NonTerminalRules(name string) []*Rule {
	var out []*Rule
	for _, r := range g.Rules {
		if r.Name == name {
			out = append(out, r)
		}
	}
	return out
}

// ---- YAML document schema (spec.md §6) ----------------------------------------------------

type yamlDoc []yamlRule

type yamlRule struct {
	Name       string     `yaml:"name"`
	Production []yamlTerm `yaml:"production"`
}

type yamlTerm struct {
	Type string `yaml:"type"`
	Data any    `yaml:"data"`
}

// Load reads a grammar YAML document from path and decodes it into a Grammar. This is the
// reader half of the parser-generator collaborator's input boundary (spec.md §6). It opens a
// local path only; a grammar document already held in memory is decoded with Parse.
func Load(path string) (*Grammar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("grammar: open %s: %w", path, err)
	}
	defer f.Close()
	var doc yamlDoc
	if err := yaml.NewDecoder(f).Decode(&doc); err != nil {
		return nil, fmt.Errorf("grammar: decode %s: %w", path, err)
	}
	return fromYAML(doc)
}

// Parse decodes a grammar YAML document already held in memory (used by tests and by embedded
// fixture grammars).
func Parse(data []byte) (*Grammar, error) {
	var doc yamlDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("grammar: decode: %w", err)
	}
	return fromYAML(doc)
}

func fromYAML(doc yamlDoc) (*Grammar, error) {
	g := &Grammar{OriginalRules: map[*Rule]*Rule{}}
	for _, yr := range doc {
		terms := make([]Term, 0, len(yr.Production))
		for _, yt := range yr.Production {
			term, err := termFromYAML(yt)
			if err != nil {
				return nil, fmt.Errorf("grammar: rule %s: %w", yr.Name, err)
			}
			terms = append(terms, term)
		}
		g.Rules = append(g.Rules, &Rule{Name: yr.Name, Production: terms})
	}
	return g, nil
}

func termFromYAML(yt yamlTerm) (Term, error) {
	switch TermType(yt.Type) {
	case TermToken:
		s, _ := yt.Data.(string)
		return Term{Type: TermToken, Token: s}, nil
	case TermNonTerminal:
		s, _ := yt.Data.(string)
		return Term{Type: TermNonTerminal, NonTerminal: s}, nil
	case TermDisallow:
		s, _ := yt.Data.(string)
		return Term{Type: TermDisallow, Disallow: s}, nil
	case TermEmpty:
		return Term{Type: TermEmpty}, nil
	case TermLookahead:
		m, ok := yt.Data.(map[string]any)
		if !ok {
			return Term{}, fmt.Errorf("lookahead term missing data map")
		}
		kind, _ := m["type"].(string)
		raw, _ := m["data"].([]any)
		var phrases PhraseSet
		for _, p := range raw {
			switch v := p.(type) {
			case string:
				phrases = append(phrases, []string{v})
			case []any:
				phrase := make([]string, 0, len(v))
				for _, tok := range v {
					if s, ok := tok.(string); ok {
						phrase = append(phrase, s)
					}
				}
				phrases = append(phrases, phrase)
			}
		}
		return Term{Type: TermLookahead, Lookahead: &Lookahead{Kind: LookaheadKind(kind), Phrases: phrases}}, nil
	default:
		return Term{}, fmt.Errorf("unknown term type %q", yt.Type)
	}
}
