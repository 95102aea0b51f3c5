package scope

import "testing"

func TestSymbolTableInternsByName(t *testing.T) {
	st := NewSymbolTable()
	a := st.Intern("x")
	b := st.Intern("y")
	c := st.Intern("x")
	if a != c {
		t.Errorf("Intern(x) twice must return the same symbol, got %d and %d", a, c)
	}
	if a == b {
		t.Errorf("Intern(x) and Intern(y) must return distinct symbols")
	}
	if st.Name(a) != "x" || st.Name(b) != "y" {
		t.Errorf("Name() did not round-trip: Name(a)=%q Name(b)=%q", st.Name(a), st.Name(b))
	}
}

func TestTreeDeclareRejectsDuplicateLexicalBinding(t *testing.T) {
	tree, root := NewTree()
	st := NewSymbolTable()
	x := st.Intern("x")

	if _, err := tree.Declare(root, x, BindingMutable, Locator{Kind: LocatorLocal, Index: 0}); err != nil {
		t.Fatalf("first Declare: %v", err)
	}
	if _, err := tree.Declare(root, x, BindingMutable, Locator{Kind: LocatorLocal, Index: 1}); err == nil {
		t.Error("redeclaring a `let`-kind binding in the same scope must error")
	}
}

func TestTreeDeclareAllowsHoistableFunctionRedeclaration(t *testing.T) {
	tree, root := NewTree()
	st := NewSymbolTable()
	f := st.Intern("f")

	first, err := tree.Declare(root, f, BindingFunctionDecl, Locator{Kind: LocatorLocal, Index: 0})
	if err != nil {
		t.Fatalf("first Declare: %v", err)
	}
	second, err := tree.Declare(root, f, BindingFunctionDecl, Locator{Kind: LocatorLocal, Index: 0})
	if err != nil {
		t.Fatalf("hoistable redeclaration must not error: %v", err)
	}
	if first != second {
		t.Error("a hoist-compatible redeclaration must return the existing binding, not a new one")
	}
}

func TestResolveFindsBindingInSameFunctionScope(t *testing.T) {
	tree, root := NewTree()
	st := NewSymbolTable()
	x := st.Intern("x")
	tree.Declare(root, x, BindingMutable, Locator{Kind: LocatorLocal, Index: 3})

	block := tree.Push(root, KindBlock)
	res := tree.Resolve(block, x, func(Ref, Symbol) uint16 {
		t.Fatal("onCapture must not be called when the binding is in the same function scope")
		return 0
	})
	if res.Locator.Kind != LocatorLocal || res.Locator.Index != 3 {
		t.Errorf("Resolve found wrong locator: %+v", res.Locator)
	}
}

func TestResolveCrossesFunctionBoundaryAsCapture(t *testing.T) {
	tree, root := NewTree()
	st := NewSymbolTable()
	n := st.Intern("n")
	tree.Declare(root, n, BindingMutable, Locator{Kind: LocatorLocal, Index: 0})

	inner := tree.Push(root, KindFunction)
	captured := false
	res := tree.Resolve(inner, n, func(funcScope Ref, sym Symbol) uint16 {
		captured = true
		if sym != n {
			t.Errorf("onCapture got symbol %d, want %d", sym, n)
		}
		return 7
	})
	if !captured {
		t.Error("resolving a binding from an enclosing function scope must invoke onCapture")
	}
	if res.Locator.Kind != LocatorCapture || res.Locator.Index != 7 {
		t.Errorf("Resolve did not produce a capture locator: %+v", res.Locator)
	}
}

func TestResolveUnboundSymbolFallsBackToGlobal(t *testing.T) {
	tree, root := NewTree()
	st := NewSymbolTable()
	undeclared := st.Intern("neverDeclared")

	res := tree.Resolve(root, undeclared, func(Ref, Symbol) uint16 {
		t.Fatal("onCapture must not be called for an unbound symbol")
		return 0
	})
	if res.Locator.Kind != LocatorGlobal {
		t.Errorf("expected a global locator, got %+v", res.Locator)
	}
}
