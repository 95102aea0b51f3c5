// ==============================================================================================
// FILE: internal/analyzer/analyzer.go
// ==============================================================================================
// PACKAGE: analyzer
// PURPOSE: The semantic analyzer of spec.md §4.3: "runs as the reduction handler of the parser."
//          Analyzer implements internal/parser.Handler directly — there is no intermediate AST,
//          the same "evaluate while walking" spirit as evaluator.Eval in the teacher repo, except
//          here the walk is driven by LALR reductions instead of recursive descent over an
//          ast.Node tree, and it appends command.Command values instead of producing object.Object
//          values.
//
//          A handful of grammar non-terminals exist purely as mid-rule actions (see the comment
//          atop es_subset.yaml): an LALR reduction fires only once a whole right-hand side is
//          recognized, but scope creation and branch placement must happen *before* some of that
//          right-hand side is parsed. Each "*Mark"/"*Enter" rule is one of these; its Reduce case
//          below does the early work and threads whatever the enclosing rule needs (a label, a
//          scope ref) back through its semantic value.
// ==============================================================================================

package analyzer

import (
	"fmt"

	"jsengine/internal/command"
	"jsengine/internal/engineerr"
	"jsengine/internal/parser"
	"jsengine/internal/scope"
	"jsengine/internal/token"
)

// Value is the semantic value threaded through the parse stack. Only the fields relevant to the
// producing rule are meaningful; see the rule-by-rule comments in reduce.go.
type Value struct {
	Tok    token.Token
	Count  int
	Index  int
	Label  command.Label
	Label2 command.Label
	Scope  scope.Ref
	Buf    *command.Buffer
}

func box(v Value) parser.Value { return &v }

func unbox(v parser.Value) Value {
	if v == nil {
		return Value{}
	}
	p, ok := v.(*Value)
	if !ok {
		return Value{}
	}
	return *p
}

// FunctionRecord is spec.md §3's "Function record": created on entering a function production,
// finalized on exit.
type FunctionRecord struct {
	ID          int
	ScopeRef    scope.Ref
	Buf         command.Buffer
	NumParams   int
	NextLocal   uint16
	IsCoroutine bool

	Captures []scope.Symbol
	capIndex map[scope.Symbol]int
}

func newFunctionRecord(id int, ref scope.Ref) *FunctionRecord {
	return &FunctionRecord{ID: id, ScopeRef: ref, capIndex: map[scope.Symbol]int{}}
}

// registerCapture records that sym (bound in some ancestor function scope) is captured by this
// function, returning its dense capture-slot index. Satisfies the onCapture callback signature
// scope.Tree.Resolve expects.
func (fr *FunctionRecord) registerCapture(sym scope.Symbol) uint16 {
	if idx, ok := fr.capIndex[sym]; ok {
		return uint16(idx)
	}
	idx := len(fr.Captures)
	fr.Captures = append(fr.Captures, sym)
	fr.capIndex[sym] = idx
	return uint16(idx)
}

// Analyzer implements parser.Handler and owns the four things spec.md §4.3 names: the scope-ref
// stack, the function-record stack, the global symbol table, and (via the top function record)
// the output command buffer.
type Analyzer struct {
	Symbols *scope.SymbolTable
	Scopes  *scope.Tree

	scopeStack []scope.Ref
	funcStack  []*FunctionRecord
	emitStack  []*command.Buffer // the active emission target; see For-loop splicing in reduce.go

	Functions []*FunctionRecord // completed records, children before parents (spec.md §4.4)
	nextFuncID int

	lastIdent token.Token // most recently shifted IDENT; ArrowEnter's only way to see it (§ see reduce.go)

	curVarKind          scope.BindingKind // set by VarKind, read by Binding
	curVarFunctionScoped bool              // true for `var` (function-scoped), false for `let`/`const`

	ifStack []command.Label // pending "skip-then-branch" labels; see IfThenMark/IfElseMark in reduce.go

	tryStack    []command.Label // pending catch-entry labels; see TryEnter/CatchEnter in reduce.go
	tryEndStack []command.Label // pending try-statement end labels; see CatchEnter in reduce.go
}

// New creates an Analyzer with a fresh module-kind root scope and its implicit top-level
// function record (FunctionID 0 — the program entry, per spec.md §4.6 "invokes the program's
// entry function").
func New() *Analyzer {
	tree, root := scope.NewTree()
	a := &Analyzer{Symbols: scope.NewSymbolTable(), Scopes: tree}
	a.scopeStack = []scope.Ref{root}
	fr := a.newFunction(root)
	a.funcStack = []*FunctionRecord{fr}
	a.emitStack = []*command.Buffer{&fr.Buf}
	return a
}

func (a *Analyzer) newFunction(ref scope.Ref) *FunctionRecord {
	fr := newFunctionRecord(a.nextFuncID, ref)
	a.nextFuncID++
	return fr
}

func (a *Analyzer) curScope() scope.Ref        { return a.scopeStack[len(a.scopeStack)-1] }
func (a *Analyzer) curFunc() *FunctionRecord    { return a.funcStack[len(a.funcStack)-1] }
func (a *Analyzer) buf() *command.Buffer       { return a.emitStack[len(a.emitStack)-1] }

func (a *Analyzer) pushScope(kind scope.Kind) scope.Ref {
	ref := a.Scopes.Push(a.curScope(), kind)
	a.scopeStack = append(a.scopeStack, ref)
	a.buf().PushScope(ref)
	return ref
}

func (a *Analyzer) popScope() {
	ref := a.curScope()
	a.buf().PopScope(ref)
	a.scopeStack = a.scopeStack[:len(a.scopeStack)-1]
}

// pushEmit redirects subsequent emission to buf (used to splice for-loop test/update clauses
// into the right place after the loop body has been parsed; see reduce.go).
func (a *Analyzer) pushEmit(buf *command.Buffer) { a.emitStack = append(a.emitStack, buf) }
func (a *Analyzer) popEmit() *command.Buffer {
	buf := a.emitStack[len(a.emitStack)-1]
	a.emitStack = a.emitStack[:len(a.emitStack)-1]
	return buf
}

// declareBinding interns name and declares it as kind within target, assigning it the next
// free local slot of the CURRENT function (locals are addressed flatly per function frame,
// regardless of which nested block scope declares them — spec.md §3's locator model).
func (a *Analyzer) declareBinding(target scope.Ref, name string, kind scope.BindingKind) (*scope.Binding, error) {
	fr := a.curFunc()
	sym := a.Symbols.Intern(name)
	loc := scope.Locator{Kind: scope.LocatorLocal, Index: fr.NextLocal}
	b, err := a.Scopes.Declare(target, sym, kind, loc)
	if err != nil {
		return nil, err
	}
	if b.Locator == loc { // freshly declared, as opposed to a hoist-compatible redeclaration
		fr.NextLocal++
	}
	b.Initialized = true
	return b, nil
}

// declareLocal declares name in the current (innermost) scope — the target for `let`/`const`.
func (a *Analyzer) declareLocal(name string, kind scope.BindingKind) (*scope.Binding, error) {
	return a.declareBinding(a.curScope(), name, kind)
}

// declareVarScoped declares name in the current function's own scope, bypassing any
// intervening block/catch scopes — the target `var` hoisting requires.
func (a *Analyzer) declareVarScoped(name string, kind scope.BindingKind) (*scope.Binding, error) {
	return a.declareBinding(a.curFunc().ScopeRef, name, kind)
}

func (a *Analyzer) newLabel() command.Label { return a.curFunc().Buf.NewLabel() }

// declareArgument declares a formal parameter at its positional argument index.
func (a *Analyzer) declareArgument(name string, index int) error {
	sym := a.Symbols.Intern(name)
	loc := scope.Locator{Kind: scope.LocatorArgument, Index: uint16(index)}
	b, err := a.Scopes.Declare(a.curScope(), sym, scope.BindingFormalParameter, loc)
	if err != nil {
		return err
	}
	b.Initialized = true
	return nil
}

// onCapture adapts FunctionRecord.registerCapture to the signature scope.Tree.Resolve expects.
func (a *Analyzer) onCapture(funcScope scope.Ref, sym scope.Symbol) uint16 {
	return a.funcRecordByScope(funcScope).registerCapture(sym)
}

func (a *Analyzer) funcRecordByScope(ref scope.Ref) *FunctionRecord {
	for _, fr := range a.funcStack {
		if fr.ScopeRef == ref {
			return fr
		}
	}
	// Reaching here would mean a capture crossed into a function whose record already
	// finalized, which cannot happen: Resolve only walks ancestors of the in-progress scope
	// chain, all of which are still open on funcStack.
	panic(fmt.Sprintf("analyzer: no open function record for scope %d", ref))
}

// emitIdentLoad resolves tok (an IDENT) against the current scope chain and appends the
// matching variable-reference command followed by load-reference, leaving its current value
// (not merely a reference to it) on top of the operand stack.
func (a *Analyzer) emitIdentLoad(tok token.Token) scope.Resolution {
	sym := a.Symbols.Intern(tok.Literal)
	res := a.Scopes.Resolve(a.curScope(), sym, a.onCapture)
	a.buf().VariableRef(sym, res.Locator)
	a.buf().LoadReference()
	return res
}

// emitPlainAssign stores whatever value is currently on top of the stack into tok's binding,
// leaving that same value on top afterward (assignment is itself an expression in this
// language, per spec.md's AssignExpr).
func (a *Analyzer) emitPlainAssign(tok token.Token) {
	sym := a.Symbols.Intern(tok.Literal)
	res := a.Scopes.Resolve(a.curScope(), sym, a.onCapture)
	a.buf().VariableRef(sym, res.Locator)
	a.buf().StoreReference()
}

// emitCompoundAssign implements `IDENT op= AssignExpr`: the right-hand side's value is already
// on the stack by the time this runs (it was parsed, and so emitted, before this call), so the
// left-hand side's current value is loaded and swapped into the correct operand order before
// applying op.
func (a *Analyzer) emitCompoundAssign(tok token.Token, op command.Op) {
	sym := a.Symbols.Intern(tok.Literal)
	res := a.Scopes.Resolve(a.curScope(), sym, a.onCapture)
	a.buf().VariableRef(sym, res.Locator)
	a.buf().LoadReference() // [rhs, lhs]
	a.buf().Swap()          // [lhs, rhs]
	a.buf().Binary(op)      // [result]
	a.buf().VariableRef(sym, res.Locator)
	a.buf().StoreReference()
}

// emitPostfix implements `CallExpr ++`/`CallExpr --` for the common case where CallExpr is a
// bare identifier reference (the value PrimaryExpr -> IDENT already loaded is reused as the
// postfix expression's own result, per JS's "return old value" semantics).
func (a *Analyzer) emitPostfix(tok token.Token, delta float64) {
	sym := a.Symbols.Intern(tok.Literal)
	res := a.Scopes.Resolve(a.curScope(), sym, a.onCapture)
	a.buf().Duplicate(0)
	a.buf().Number(delta)
	a.buf().Binary(command.OpAdd)
	a.buf().VariableRef(sym, res.Locator)
	a.buf().StoreReference()
	a.buf().Discard()
}

// closeFunction finalizes the current function record with an implicit `return undefined`
// fallthrough (spec.md's "falling off the end of a function body returns undefined"), verifies
// its command buffer, and pops it off every analyzer stack. Children close before their
// parents, so appending to a.Functions here produces exactly the compilation order spec.md
// §4.4 requires.
func (a *Analyzer) closeFunction() (*FunctionRecord, error) {
	fr := a.curFunc()
	fr.Buf.Undefined()
	fr.Buf.Return()
	return a.finishFunction(fr)
}

// closeFunctionReturningTOS finalizes fr by returning whatever value its body already left on
// the operand stack — used by the single-parameter arrow form, whose body is a bare
// AssignExpr rather than a Block with explicit `return` statements.
func (a *Analyzer) closeFunctionReturningTOS() (*FunctionRecord, error) {
	fr := a.curFunc()
	fr.Buf.Return()
	return a.finishFunction(fr)
}

// finishFunction verifies fr's finished command buffer (every nested function gets the same
// static check the top-level Program record does, not just it) and pops fr off every analyzer
// stack. A Verify failure means the analyzer itself emitted an unbalanced or mistargeted command
// stream — a bug in this package, not a malformed source program — so it panics with
// *engineerr.CompilerBug rather than threading back as an ordinary error a caller might catch
// and report as a parse failure (spec.md §7: "compiler assertions are never caught").
func (a *Analyzer) finishFunction(fr *FunctionRecord) (*FunctionRecord, error) {
	if err := command.Verify(&fr.Buf); err != nil {
		panic(&engineerr.CompilerBug{Msg: fmt.Sprintf("function %d: %v", fr.ID, err)})
	}
	a.popEmit()
	a.funcStack = a.funcStack[:len(a.funcStack)-1]
	a.scopeStack = a.scopeStack[:len(a.scopeStack)-1]
	a.Functions = append(a.Functions, fr)
	return fr, nil
}

// emitClosureCreation emits, into the now-restored enclosing buffer, the capture operands and
// lambda/closure commands spec.md §4.4 describes for turning a finished function record into a
// runtime closure value.
func (a *Analyzer) emitClosureCreation(fr *FunctionRecord) {
	for _, capSym := range fr.Captures {
		res := a.Scopes.Resolve(a.curScope(), capSym, a.onCapture)
		a.buf().VariableRef(capSym, res.Locator)
		if res.Locator.Kind == scope.LocatorLocal || res.Locator.Kind == scope.LocatorArgument {
			// First time this binding escapes into a closure: box it so later stores/loads
			// against it (from either side) go through the same Capture cell.
			a.buf().CaptureEscaped()
		}
		// Already scope.LocatorCapture: the enclosing function captured it itself, and
		// variable-reference against a capture locator already yields the boxed Capture.
	}
	a.buf().Lambda(fr.ID)
	a.buf().Closure(len(fr.Captures))
}

// Shift implements parser.Handler: every shifted terminal is boxed uniformly so Reduce
// never has to special-case "is this popped entry a token or a prior reduction". It also
// tracks the most recently shifted IDENT, which ArrowEnter needs (see reduce.go) despite its
// own production carrying no symbols.
func (a *Analyzer) Shift(tok token.Token) (parser.Value, error) {
	if tok.Kind == token.IDENT {
		a.lastIdent = tok
	}
	return box(Value{Tok: tok}), nil
}

// Program returns the finished Analyzer's completed function records once parsing the whole
// source has accepted, in children-before-parents order (spec.md §4.4), the last entry being
// the implicit top-level program function.
func (a *Analyzer) Program() []*FunctionRecord { return a.Functions }
