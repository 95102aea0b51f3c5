// ==============================================================================================
// FILE: internal/lalr/first.go
// ==============================================================================================
// PACKAGE: lalr
// PURPOSE: FIRST-set computation (spec.md §4.2 step 2: "length 1 is sufficient; the tool
//          rejects any grammar requiring more").
// ==============================================================================================

package lalr

import "jsengine/internal/grammar"

const epsilon = "ε"

// FirstSets maps a non-terminal name to the set of terminal names (and possibly epsilon) that
// can begin a derivation from it.
type FirstSets struct {
	sets map[string]map[string]bool
}

// ComputeFirstSets runs the standard fixed-point FIRST-set computation over g's expanded rules.
func ComputeFirstSets(g *Grammar) *FirstSets {
	fs := &FirstSets{sets: map[string]map[string]bool{}}
	nonTerminals := map[string]bool{}
	for _, r := range g.rules {
		nonTerminals[r.Name] = true
		if _, ok := fs.sets[r.Name]; !ok {
			fs.sets[r.Name] = map[string]bool{}
		}
	}

	changed := true
	for changed {
		changed = false
		for _, r := range g.rules {
			before := len(fs.sets[r.Name])
			fs.addProductionFirst(r.Name, r.Production, nonTerminals)
			if len(fs.sets[r.Name]) != before {
				changed = true
			}
		}
	}
	return fs
}

func (fs *FirstSets) addProductionFirst(name string, production []grammar.Term, nonTerminals map[string]bool) {
	allNullable := true
	for _, t := range production {
		if t.Type == grammar.TermLookahead || t.Type == grammar.TermDisallow {
			continue
		}
		if t.Type == grammar.TermEmpty {
			fs.sets[name][epsilon] = true
			continue
		}
		sym := symbolNameOf(t)
		if t.Type == grammar.TermToken {
			fs.sets[name][sym] = true
			allNullable = false
			break
		}
		// non-terminal
		for tok := range fs.sets[sym] {
			if tok != epsilon {
				fs.sets[name][tok] = true
			}
		}
		if !fs.sets[sym][epsilon] {
			allNullable = false
			break
		}
	}
	if allNullable {
		fs.sets[name][epsilon] = true
	}
}

// OfSymbol returns FIRST(X) for a single grammar symbol name: the singleton {name} if it is a
// terminal, or the computed set if it is a non-terminal.
func (fs *FirstSets) OfSymbol(name string, isTerminal bool) map[string]bool {
	if isTerminal {
		return map[string]bool{name: true}
	}
	if set, ok := fs.sets[name]; ok {
		return set
	}
	return map[string]bool{}
}

// firstOfSequence computes FIRST(rest · lookahead): the FIRST set of a symbol sequence followed
// by a single trailing lookahead token, used by the LR(1)-closure step to decide which tokens to
// attach to a newly-closed item (spec.md §4.2 step 3).
func firstOfSequence(rest []grammar.Term, trailing string) []string {
	out := map[string]bool{}
	allNullable := true
	for _, t := range rest {
		if t.Type == grammar.TermLookahead || t.Type == grammar.TermDisallow || t.Type == grammar.TermEmpty {
			continue
		}
		sym := symbolNameOf(t)
		if t.Type == grammar.TermToken {
			out[sym] = true
			allNullable = false
			break
		}
		set := globalFirst.OfSymbol(sym, false)
		nullable := false
		for tok := range set {
			if tok == epsilon {
				nullable = true
				continue
			}
			out[tok] = true
		}
		if !nullable {
			allNullable = false
			break
		}
	}
	if allNullable {
		out[trailing] = true
	}
	names := make([]string, 0, len(out))
	for tok := range out {
		names = append(names, tok)
	}
	return names
}

// globalFirst is set once per Automaton construction by computeLookaheads before any closure
// work starts; closures run read-only against it (including inside the parallel errgroup), so no
// synchronization is required after the assignment happens-before the goroutines are spawned.
var globalFirst *FirstSets
