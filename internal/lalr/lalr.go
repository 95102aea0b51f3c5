// ==============================================================================================
// FILE: internal/lalr/lalr.go
// ==============================================================================================
// PACKAGE: lalr
// PURPOSE: Offline LALR(1) table construction, spec.md §4.2 "Table construction": build the
//          LR(0) automaton over the *expanded* grammar with state identity projected back onto
//          the *original* grammar, compute FIRST sets, propagate lookaheads by the
//          spontaneous/sentinel-propagated fixed point, and emit ACTION/GOTO/goal tables. This
//          is the second-hardest subsystem per spec.md §1; internal/parser's BuiltinTables runs it
//          once per process at engine startup over the embedded grammar.
// ==============================================================================================

package lalr

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"jsengine/internal/grammar"
)

const (
	endOfInput = "$end"
	sentinel   = "#" // the dummy lookahead used to distinguish spontaneous from propagated entries
)

// Item is an LR(0) item: a rule index together with a dot position, per spec.md §3's parser
// state description ("items are (rule, dot-position, lookahead-phrase)").
type Item struct {
	Rule int
	Dot  int
}

// Grammar is the augmented, *original* (non-variant-expanded) grammar used for state identity,
// paired with the expanded grammar used for closure — spec.md §4.2: "All downstream algorithms
// operate on the original grammar for the purpose of state identity... but on the expanded
// grammar for closure computation."
type Grammar struct {
	Original *grammar.Grammar
	Expanded *grammar.Grammar

	rules     []*grammar.Rule // expanded rules, indexed
	coreOf    map[*grammar.Rule]int
	start     string
}

// Build wraps an original grammar (augmenting it with a fresh goal rule `goal' -> goal`) and its
// lookahead-expanded counterpart into the form the rest of this package consumes.
func Build(original *grammar.Grammar, goalSymbol string) *Grammar {
	expanded := grammar.Preprocess(original)

	augmentedName := goalSymbol + "'"
	augment := &grammar.Rule{Name: augmentedName, Production: []grammar.Term{
		{Type: grammar.TermNonTerminal, NonTerminal: goalSymbol},
	}}

	g := &Grammar{Original: original, Expanded: expanded, coreOf: map[*grammar.Rule]int{}, start: augmentedName}
	g.rules = append([]*grammar.Rule{augment}, expanded.Rules...)
	for i, r := range g.rules {
		g.coreOf[r] = i
	}
	return g
}

func (g *Grammar) rule(i int) *grammar.Rule { return g.rules[i] }

func isNonTerminal(t grammar.Term) bool { return t.Type == grammar.TermNonTerminal }

// closure0 computes the LR(0) closure of a kernel item set, skipping lookahead/disallow terms
// (they do not participate in LR(0) closure — they are consulted only when reducing).
func (g *Grammar) closure0(items map[Item]bool) map[Item]bool {
	closure := map[Item]bool{}
	for it := range items {
		closure[it] = true
	}
	changed := true
	for changed {
		changed = false
		for it := range closure {
			term, ok := g.skipNonGrammarTerms(it)
			if !ok || !isNonTerminal(term) {
				continue
			}
			for ruleIdx, r := range g.rules {
				if r.Name != term.NonTerminal {
					continue
				}
				ni := Item{Rule: ruleIdx, Dot: 0}
				if !closure[ni] {
					closure[ni] = true
					changed = true
				}
			}
		}
	}
	return closure
}

// skipNonGrammarTerms advances past any lookahead/disallow terms at the dot so closure and GOTO
// only ever reason about token/non-terminal symbols; those restrictions are checked separately
// when building the reduce/shift actions.
func (g *Grammar) skipNonGrammarTerms(it Item) (grammar.Term, bool) {
	prod := g.rule(it.Rule).Production
	d := it.Dot
	for d < len(prod) && (prod[d].Type == grammar.TermLookahead || prod[d].Type == grammar.TermDisallow || prod[d].Type == grammar.TermEmpty) {
		d++
	}
	if d >= len(prod) {
		return grammar.Term{}, false
	}
	return prod[d], true
}

func (g *Grammar) advanceDot(it Item) Item {
	prod := g.rule(it.Rule).Production
	d := it.Dot
	for d < len(prod) && (prod[d].Type == grammar.TermLookahead || prod[d].Type == grammar.TermDisallow || prod[d].Type == grammar.TermEmpty) {
		d++
	}
	return Item{Rule: it.Rule, Dot: d + 1}
}

// goto0 computes GOTO(items, X) at the LR(0) level.
func (g *Grammar) goto0(items map[Item]bool, symbolName string) map[Item]bool {
	moved := map[Item]bool{}
	for it := range items {
		term, ok := g.skipNonGrammarTerms(it)
		if !ok {
			continue
		}
		if symName := symbolNameOf(term); symName == symbolName {
			moved[g.advanceDot(it)] = true
		}
	}
	if len(moved) == 0 {
		return nil
	}
	return g.closure0(moved)
}

func symbolNameOf(t grammar.Term) string {
	switch t.Type {
	case grammar.TermToken:
		return t.Token
	case grammar.TermNonTerminal:
		return t.NonTerminal
	default:
		return ""
	}
}

// coreKey renders an item set's LR(0) core as a stable string so equal cores compare equal
// across different call sites, spec.md §4.2's "state identity uses item sets projected back to
// the original grammar" requirement: cores are computed over the expanded grammar here but two
// expanded items that both derive from the same original rule+dot collapse to one original item
// via OriginalRules, preventing spurious state splits caused only by variant-non-terminal
// duplication.
func (g *Grammar) coreKey(items map[Item]bool) string {
	projected := map[Item]bool{}
	for it := range items {
		projected[g.projectToOriginal(it)] = true
	}
	keys := make([]string, 0, len(projected))
	for it := range projected {
		keys = append(keys, fmt.Sprintf("%d.%d", it.Rule, it.Dot))
	}
	sort.Strings(keys)
	return strings.Join(keys, "|")
}

// projectToOriginal maps an expanded-grammar item back onto the rule it was cloned from, so
// variant non-terminals introduced purely for lookahead-restriction elimination do not create
// new LALR states.
func (g *Grammar) projectToOriginal(it Item) Item {
	r := g.rule(it.Rule)
	orig, ok := g.Expanded.OriginalRules[r]
	if !ok || orig == r {
		return it
	}
	// The variant production is the restriction's original production prefixed with one
	// synthetic lookahead term; account for the offset when projecting the dot position.
	offset := len(r.Production) - len(orig.Production)
	dot := it.Dot - offset
	if dot < 0 {
		dot = 0
	}
	return Item{Rule: g.coreOf[orig], Dot: dot}
}

// State is one node of the LALR automaton.
type State struct {
	ID      int
	Items   map[Item]bool
	Lookahead map[Item]map[string]bool
	Transitions map[string]int // symbol name -> target state id
}

// Automaton is the full LR(0)/LALR(1) state graph.
type Automaton struct {
	g      *Grammar
	States []*State
	index  map[string]int // core key -> state id
}

// BuildAutomaton constructs the LR(0) automaton (spec.md §4.2 step 1).
func BuildAutomaton(g *Grammar) *Automaton {
	a := &Automaton{g: g, index: map[string]int{}}
	start := g.closure0(map[Item]bool{{Rule: 0, Dot: 0}: true})
	a.addState(start)

	worklist := []int{0}
	for len(worklist) > 0 {
		id := worklist[0]
		worklist = worklist[1:]
		state := a.States[id]

		symbols := map[string]bool{}
		for it := range state.Items {
			if term, ok := g.skipNonGrammarTerms(it); ok {
				symbols[symbolNameOf(term)] = true
			}
		}
		names := make([]string, 0, len(symbols))
		for s := range symbols {
			names = append(names, s)
		}
		sort.Strings(names)

		for _, sym := range names {
			target := g.goto0(state.Items, sym)
			if target == nil {
				continue
			}
			targetID, isNew := a.addState(target)
			state.Transitions[sym] = targetID
			if isNew {
				worklist = append(worklist, targetID)
			}
		}
	}
	return a
}

func (a *Automaton) addState(items map[Item]bool) (int, bool) {
	key := a.g.coreKey(items)
	if id, ok := a.index[key]; ok {
		// Merge any newly-discovered items that share the core (LALR state merging).
		for it := range items {
			a.States[id].Items[it] = true
		}
		return id, false
	}
	id := len(a.States)
	a.index[key] = id
	a.States = append(a.States, &State{
		ID: id, Items: items,
		Lookahead:   map[Item]map[string]bool{},
		Transitions: map[string]int{},
	})
	return id, true
}

// computeLookaheads fills in a.States[*].Lookahead using the spontaneous-generation /
// propagation method of spec.md §4.2 step 3, run once per state in parallel via an errgroup
// (the offline build is the one place in this engine concurrency is allowed to help: per-state
// lookahead computation is independent given the fixed LR(0) kernels, and only the fixed-point
// merge afterwards is sequential).
func (a *Automaton) computeLookaheads(first *FirstSets) error {
	globalFirst = first
	type edge struct {
		fromState int
		fromItem  Item
		toState   int
		toItem    Item
	}
	propagations := make([][]edge, len(a.States))
	spontaneous := make([]map[Item]map[string]bool, len(a.States))

	g := errgroup.Group{}
	for i, st := range a.States {
		i, st := i, st
		g.Go(func() error {
			spontaneous[i] = map[Item]map[string]bool{}
			var edges []edge
			for kernelItem := range kernelOnly(st.Items, i == 0) {
				closure := g0ClosureWithLookahead(a.g, kernelItem, sentinel)
				for citem, la := range closure {
					term, ok := a.g.skipNonGrammarTerms(citem)
					if !ok {
						continue
					}
					toState, ok := st.Transitions[symbolNameOf(term)]
					if !ok {
						continue
					}
					toItem := a.g.advanceDot(citem)
					for _, tok := range la {
						if tok == sentinel {
							edges = append(edges, edge{i, kernelItem, toState, toItem})
						} else {
							if spontaneous[i] == nil {
								spontaneous[i] = map[Item]map[string]bool{}
							}
							target := a.States[toState]
							if target.Lookahead[toItem] == nil {
								target.Lookahead[toItem] = map[string]bool{}
							}
							target.Lookahead[toItem][tok] = true
						}
					}
				}
			}
			propagations[i] = edges
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	// Seed the start state's initial item with the end-of-input marker.
	a.States[0].Lookahead[Item{Rule: 0, Dot: 0}] = map[string]bool{endOfInput: true}

	// Fixed-point propagation (sequential: targets depend on sources across states).
	changed := true
	for changed {
		changed = false
		for i, edges := range propagations {
			src := a.States[i]
			for _, e := range edges {
				srcLA := src.Lookahead[e.fromItem]
				if len(srcLA) == 0 {
					continue
				}
				dst := a.States[e.toState]
				if dst.Lookahead[e.toItem] == nil {
					dst.Lookahead[e.toItem] = map[string]bool{}
				}
				for tok := range srcLA {
					if !dst.Lookahead[e.toItem][tok] {
						dst.Lookahead[e.toItem][tok] = true
						changed = true
					}
				}
			}
		}
	}
	return nil
}

// kernelOnly returns the kernel items of an item set: the seed item for the start state, or
// every item whose dot is not at position 0 (plus any item introduced directly by a GOTO) for
// other states.
func kernelOnly(items map[Item]bool, isStart bool) map[Item]bool {
	if isStart {
		for it := range items {
			if it.Dot == 0 && it.Rule == 0 {
				return map[Item]bool{it: true}
			}
		}
	}
	kernel := map[Item]bool{}
	for it := range items {
		if it.Dot != 0 {
			kernel[it] = true
		}
	}
	return kernel
}

// g0ClosureWithLookahead computes the LR(1)-style closure of a single kernel item carrying one
// lookahead token (here, almost always the sentinel "#"), returning every closure item together
// with the set of lookahead tokens attached to it — the per-item work inside DeRemer/Pennello's
// spontaneous/propagated construction.
func g0ClosureWithLookahead(g *Grammar, seed Item, seedLookahead string) map[Item][]string {
	type pair struct {
		item Item
		la   string
	}
	seen := map[pair]bool{{seed, seedLookahead}: true}
	work := []pair{{seed, seedLookahead}}

	for len(work) > 0 {
		p := work[0]
		work = work[1:]

		term, ok := g.skipNonGrammarTerms(p.item)
		if !ok || !isNonTerminal(term) {
			continue
		}
		// beta is everything after the non-terminal in the current production.
		prod := g.rule(p.item.Rule).Production
		rest := restAfterSymbol(prod, p.item.Dot)
		firstOfRestWithLA := firstOfSequence(rest, p.la)

		for ruleIdx, r := range g.rules {
			if r.Name != term.NonTerminal {
				continue
			}
			for _, la := range firstOfRestWithLA {
				np := pair{Item{Rule: ruleIdx, Dot: 0}, la}
				if !seen[np] {
					seen[np] = true
					work = append(work, np)
				}
			}
		}
	}

	out := map[Item][]string{}
	for p := range seen {
		out[p.item] = append(out[p.item], p.la)
	}
	return out
}

func restAfterSymbol(prod []grammar.Term, dot int) []grammar.Term {
	d := dot
	for d < len(prod) && (prod[d].Type == grammar.TermLookahead || prod[d].Type == grammar.TermDisallow || prod[d].Type == grammar.TermEmpty) {
		d++
	}
	if d >= len(prod) {
		return nil
	}
	return prod[d+1:]
}
