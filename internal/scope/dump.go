// ==============================================================================================
// FILE: internal/scope/dump.go
// ==============================================================================================
// PACKAGE: scope
// PURPOSE: A one-shot ASCII rendering of a scope tree for diagnostics — the same class of
//          helper as Eloquence's object.Inspect(), not an interactive tool, so it does not
//          conflict with spec.md §1's "debugger UI" non-goal.
// ==============================================================================================

package scope

import (
	"fmt"
	"strings"

	"github.com/m1gwings/treedrawer/tree"
)

var kindLabel = map[Kind]string{
	KindFunction: "function", KindBlock: "block", KindCatch: "catch",
	KindWith: "with", KindModule: "module",
}

// Dump renders the scope subtree rooted at ref as an ASCII tree, labeling each scope with its
// kind, its Ref, and each binding's name (looked up through names.Name) with its locator.
func (t *Tree) Dump(ref Ref, names *SymbolTable) string {
	root := tree.NewTree(tree.NodeString(t.label(ref, names)))
	t.fillChildren(root, ref, names)
	return root.String()
}

func (t *Tree) fillChildren(node *tree.Tree, ref Ref, names *SymbolTable) {
	for _, child := range t.scopes[ref].Children {
		childNode := node.AddChild(tree.NodeString(t.label(child, names)))
		t.fillChildren(childNode, child, names)
	}
}

func (t *Tree) label(ref Ref, names *SymbolTable) string {
	s := t.scopes[ref]
	return fmt.Sprintf("%s#%d [%s]", kindLabel[s.Kind], ref, strings.Join(bindingLabels(s, names), ", "))
}

func bindingLabels(s *Scope, names *SymbolTable) []string {
	labels := make([]string, 0, len(s.Bindings))
	for sym, b := range s.Bindings {
		labels = append(labels, fmt.Sprintf("%s:%s", names.Name(sym), b.Locator.String()))
	}
	return labels
}
