// ==============================================================================================
// FILE: internal/analyzer/reduce.go
// ==============================================================================================
// PACKAGE: analyzer
// PURPOSE: Analyzer.Reduce: one case per grammar production that needs real semantic work —
//          emitting commands, pushing/popping scope, or threading metadata a sibling production
//          needs. Productions that are pure unit renames (Stmt -> OpenStmt, CallExpr ->
//          PrimaryExpr, AddExpr -> MulExpr, and so on) fall to the default case, which simply
//          forwards the single child's Value unchanged — their children already emitted every
//          command needed, in the right linear order, by the time the parent reduces.
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

// Reduce implements parser.Handler.
func (a *Analyzer) Reduce(rule parser.Rule, popped []parser.Value) (parser.Value, error) {
	switch rule.RuleString {

	// ------------------------------------------------------------------------------------
	// Program / statement sequencing
	// ------------------------------------------------------------------------------------

	case "Program -> StmtList":
		fr := a.curFunc()
		fr.Buf.Undefined()
		fr.Buf.Return()
		if err := command.Verify(&fr.Buf); err != nil {
			panic(&engineerr.CompilerBug{Msg: fmt.Sprintf("program: %v", err)})
		}
		a.Functions = append(a.Functions, fr)
		return nil, nil

	// ------------------------------------------------------------------------------------
	// if / else — IfThenMark emits the test-failure branch; IfElseMark (reached only on the
	// else-bearing alternatives) closes the then-branch and opens the else-branch, recovering
	// IfThenMark's label via a.ifStack since grammar siblings cannot see each other's Values.
	// ------------------------------------------------------------------------------------

	case "IfThenMark ->":
		skip := a.newLabel()
		a.buf().Convert(command.OpToBoolean)
		a.buf().BranchIfFalse(skip)
		a.ifStack = append(a.ifStack, skip)
		return box(Value{Label: skip}), nil

	case "IfElseMark ->":
		skip := a.ifStack[len(a.ifStack)-1]
		a.ifStack = a.ifStack[:len(a.ifStack)-1]
		end := a.newLabel()
		a.buf().Jump(end)
		a.buf().PlaceLabel(skip)
		return box(Value{Label: end}), nil

	case "OpenStmt -> if ( Expr ) IfThenMark Stmt":
		skip := unbox(popped[4]).Label
		a.ifStack = a.ifStack[:len(a.ifStack)-1] // balance IfThenMark's unconditional push
		a.buf().PlaceLabel(skip)
		return nil, nil

	case "OpenStmt -> if ( Expr ) IfThenMark ClosedStmt IfElseMark else OpenStmt",
		"ClosedStmt -> if ( Expr ) IfThenMark ClosedStmt IfElseMark else ClosedStmt":
		end := unbox(popped[6]).Label
		a.buf().PlaceLabel(end)
		return nil, nil

	// ------------------------------------------------------------------------------------
	// while — WhileMark places the loop-start label before the condition; WhileCondMark
	// allocates the exit label and branches past the (not yet parsed) body. Both labels are
	// direct siblings of the enclosing while-rule, so no side channel is needed here.
	// ------------------------------------------------------------------------------------

	case "WhileMark ->":
		start := a.newLabel()
		a.buf().PlaceLabel(start)
		return box(Value{Label: start}), nil

	case "WhileCondMark ->":
		end := a.newLabel()
		a.buf().Convert(command.OpToBoolean)
		a.buf().BranchIfFalse(end)
		return box(Value{Label: end}), nil

	case "OpenStmt -> while ( WhileMark Expr ) WhileCondMark OpenStmt",
		"ClosedStmt -> while ( WhileMark Expr ) WhileCondMark ClosedStmt":
		start := unbox(popped[2]).Label
		end := unbox(popped[5]).Label
		a.buf().Jump(start)
		a.buf().PlaceLabel(end)
		return nil, nil

	// ------------------------------------------------------------------------------------
	// for — the trickiest splice: test/update are lexically first but must run after the
	// body each iteration, so ForTestMark/ForUpdateMark/ForBodyMark redirect emission into
	// scratch buffers that the top-level for-rule reassembles into the right runtime order.
	// ------------------------------------------------------------------------------------

	case "ForTestMark ->":
		testLabel := a.newLabel()
		a.pushEmit(&command.Buffer{})
		return box(Value{Label: testLabel}), nil

	case "ForUpdateMark ->":
		testBuf := a.popEmit()
		updateLabel := a.newLabel()
		a.pushEmit(&command.Buffer{})
		return box(Value{Buf: testBuf, Label: updateLabel}), nil

	case "ForBodyMark ->":
		updateBuf := a.popEmit()
		bodyLabel := a.newLabel()
		endLabel := a.newLabel()
		return box(Value{Buf: updateBuf, Label: bodyLabel, Label2: endLabel, Index: len(a.buf().Commands)}), nil

	case "OpenStmt -> for ( ForInit ; ForTestMark ExprOpt ; ForUpdateMark ExprOpt ) ForBodyMark OpenStmt",
		"ClosedStmt -> for ( ForInit ; ForTestMark ExprOpt ; ForUpdateMark ExprOpt ) ForBodyMark ClosedStmt":
		return a.assembleForLoop(popped)

	case "ForInit -> ExprOpt":
		if unbox(popped[0]).Count != 0 {
			a.buf().Discard()
		}
		return nil, nil

	case "ExprOpt -> Expr":
		return box(Value{Count: 1}), nil

	// ------------------------------------------------------------------------------------
	// Blocks, try/catch
	// ------------------------------------------------------------------------------------

	case "BlockEnter ->":
		a.pushScope(scope.KindBlock)
		return nil, nil

	case "Block -> { BlockEnter StmtList }":
		a.popScope()
		return nil, nil

	case "TryEnter ->":
		catchLabel := a.newLabel()
		a.buf().PushHandler(catchLabel)
		a.tryStack = append(a.tryStack, catchLabel)
		return nil, nil

	case "CatchEnter ->":
		catchLabel := a.tryStack[len(a.tryStack)-1]
		a.tryStack = a.tryStack[:len(a.tryStack)-1]
		end := a.newLabel()
		a.buf().PopHandler()
		a.buf().Jump(end)
		a.buf().PlaceLabel(catchLabel)
		a.tryEndStack = append(a.tryEndStack, end)
		a.pushScope(scope.KindCatch)
		return nil, nil

	case "CatchParam -> IDENT":
		tok := unbox(popped[0]).Tok
		b, err := a.declareLocal(tok.Literal, scope.BindingMutable)
		if err != nil {
			return nil, err
		}
		sym := a.Symbols.Intern(tok.Literal)
		a.buf().LoadPendingException()
		a.buf().VariableRef(sym, b.Locator)
		a.buf().StoreReference()
		a.buf().Discard()
		return nil, nil

	case "SimpleStmt -> try TryEnter Block catch ( CatchEnter CatchParam ) Block":
		end := a.tryEndStack[len(a.tryEndStack)-1]
		a.tryEndStack = a.tryEndStack[:len(a.tryEndStack)-1]
		a.popScope()
		a.buf().PlaceLabel(end)
		return nil, nil

	// ------------------------------------------------------------------------------------
	// Simple statements
	// ------------------------------------------------------------------------------------

	case "SimpleStmt -> Expr ;":
		a.buf().Discard()
		return nil, nil

	case "SimpleStmt -> return ;":
		a.buf().Undefined()
		a.buf().Return()
		return nil, nil

	case "SimpleStmt -> return Expr ;":
		a.buf().Return()
		return nil, nil

	case "SimpleStmt -> throw Expr ;":
		a.buf().Throw()
		return nil, nil

	// ------------------------------------------------------------------------------------
	// var/let/const declarations
	// ------------------------------------------------------------------------------------

	case "VarKind -> var":
		a.curVarKind = scope.BindingMutable
		a.curVarFunctionScoped = true
		return nil, nil

	case "VarKind -> let":
		a.curVarKind = scope.BindingMutable
		a.curVarFunctionScoped = false
		return nil, nil

	case "VarKind -> const":
		a.curVarKind = scope.BindingImmutable
		a.curVarFunctionScoped = false
		return nil, nil

	case "Binding -> IDENT":
		tok := unbox(popped[0]).Tok
		if _, err := a.declareVarOrLet(tok.Literal); err != nil {
			return nil, err
		}
		return nil, nil

	case "Binding -> IDENT = AssignExpr":
		tok := unbox(popped[0]).Tok
		b, err := a.declareVarOrLet(tok.Literal)
		if err != nil {
			return nil, err
		}
		a.buf().VariableRef(a.Symbols.Intern(tok.Literal), b.Locator)
		a.buf().StoreReference()
		a.buf().Discard()
		return nil, nil

	// ------------------------------------------------------------------------------------
	// Functions and closures
	// ------------------------------------------------------------------------------------

	case "FuncEnter ->":
		a.enterFunction()
		return nil, nil

	case "ArrowEnter ->":
		paramTok := a.lastIdent
		a.enterFunction()
		if err := a.declareArgument(paramTok.Literal, 0); err != nil {
			return nil, err
		}
		a.curFunc().NumParams = 1
		return nil, nil

	case "ParamList -> IDENT":
		tok := unbox(popped[0]).Tok
		if err := a.declareArgument(tok.Literal, a.curFunc().NumParams); err != nil {
			return nil, err
		}
		a.curFunc().NumParams++
		return nil, nil

	case "ParamList -> ParamList , IDENT":
		tok := unbox(popped[2]).Tok
		if err := a.declareArgument(tok.Literal, a.curFunc().NumParams); err != nil {
			return nil, err
		}
		a.curFunc().NumParams++
		return nil, nil

	case "FuncDecl -> function IDENT ( FuncEnter ParamListOpt ) Block":
		return a.finalizeNamedFuncDecl(unbox(popped[1]).Tok)

	case "FuncDecl -> async function IDENT ( FuncEnter ParamListOpt ) Block":
		a.curFunc().IsCoroutine = true
		fr, err := a.closeFunction()
		if err != nil {
			return nil, err
		}
		return a.finalizeNamedFuncDeclRecord(fr, unbox(popped[2]).Tok)

	case "PrimaryExpr -> function ( FuncEnter ParamListOpt ) Block":
		fr, err := a.closeFunction()
		if err != nil {
			return nil, err
		}
		a.emitClosureCreation(fr)
		return nil, nil

	case "PrimaryExpr -> ( FuncEnter ) => Block":
		fr, err := a.closeFunction()
		if err != nil {
			return nil, err
		}
		a.emitClosureCreation(fr)
		return nil, nil

	case "PrimaryExpr -> IDENT ArrowEnter => AssignExpr":
		fr, err := a.closeFunctionReturningTOS()
		if err != nil {
			return nil, err
		}
		a.emitClosureCreation(fr)
		return nil, nil

	// ------------------------------------------------------------------------------------
	// Assignment expressions
	// ------------------------------------------------------------------------------------

	case "AssignExpr -> IDENT = AssignExpr":
		a.emitPlainAssign(unbox(popped[0]).Tok)
		return nil, nil

	case "AssignExpr -> IDENT += AssignExpr":
		a.emitCompoundAssign(unbox(popped[0]).Tok, command.OpAdd)
		return nil, nil

	case "AssignExpr -> IDENT -= AssignExpr":
		a.emitCompoundAssign(unbox(popped[0]).Tok, command.OpSub)
		return nil, nil

	// ------------------------------------------------------------------------------------
	// Short-circuit ||/&&
	// ------------------------------------------------------------------------------------

	case "OrMark ->":
		trueLabel := a.newLabel()
		a.buf().Duplicate(0)
		a.buf().Convert(command.OpToBoolean)
		a.buf().BranchIfTrue(trueLabel)
		a.buf().Discard()
		return box(Value{Label: trueLabel}), nil

	case "LogOrExpr -> LogOrExpr || OrMark LogAndExpr":
		a.buf().PlaceLabel(unbox(popped[2]).Label)
		return nil, nil

	case "AndMark ->":
		falseLabel := a.newLabel()
		a.buf().Duplicate(0)
		a.buf().Convert(command.OpToBoolean)
		a.buf().BranchIfFalse(falseLabel)
		a.buf().Discard()
		return box(Value{Label: falseLabel}), nil

	case "LogAndExpr -> LogAndExpr && AndMark EqExpr":
		a.buf().PlaceLabel(unbox(popped[2]).Label)
		return nil, nil

	// ------------------------------------------------------------------------------------
	// Comparison / arithmetic
	// ------------------------------------------------------------------------------------

	case "EqExpr -> EqExpr == RelExpr":
		a.buf().Binary(command.OpLooseEq)
		return nil, nil
	case "EqExpr -> EqExpr === RelExpr":
		a.buf().Binary(command.OpStrictEq)
		return nil, nil
	case "RelExpr -> RelExpr < AddExpr":
		a.buf().Binary(command.OpLess)
		return nil, nil
	case "RelExpr -> RelExpr > AddExpr":
		a.buf().Binary(command.OpGreater)
		return nil, nil
	case "AddExpr -> AddExpr + MulExpr":
		a.buf().Binary(command.OpAdd)
		return nil, nil
	case "AddExpr -> AddExpr - MulExpr":
		a.buf().Binary(command.OpSub)
		return nil, nil
	case "MulExpr -> MulExpr * UnaryExpr":
		a.buf().Binary(command.OpMul)
		return nil, nil
	case "MulExpr -> MulExpr / UnaryExpr":
		a.buf().Binary(command.OpDiv)
		return nil, nil

	// ------------------------------------------------------------------------------------
	// Unary / postfix
	// ------------------------------------------------------------------------------------

	case "UnaryExpr -> ! UnaryExpr":
		a.buf().Unary(command.OpLogicalNot)
		return nil, nil
	case "UnaryExpr -> - UnaryExpr":
		a.buf().Unary(command.OpNeg)
		return nil, nil
	case "UnaryExpr -> typeof UnaryExpr":
		a.buf().Unary(command.OpTypeOf)
		return nil, nil
	case "UnaryExpr -> await UnaryExpr":
		a.curFunc().IsCoroutine = true
		a.buf().Await()
		return nil, nil

	case "PostfixExpr -> CallExpr ++":
		if v := unbox(popped[0]); v.Tok.Kind == token.IDENT {
			a.emitPostfix(v.Tok, 1)
		}
		return nil, nil
	case "PostfixExpr -> CallExpr --":
		if v := unbox(popped[0]); v.Tok.Kind == token.IDENT {
			a.emitPostfix(v.Tok, -1)
		}
		return nil, nil

	// ------------------------------------------------------------------------------------
	// Calls / member access
	// ------------------------------------------------------------------------------------

	case "CallExpr -> CallExpr ( ArgListOpt )":
		a.buf().Call(unbox(popped[2]).Count)
		return nil, nil

	case "CallExpr -> CallExpr . IDENT":
		a.buf().PropertyRef(unbox(popped[2]).Tok.Literal)
		return nil, nil

	case "ArgList -> AssignExpr":
		return box(Value{Count: 1}), nil
	case "ArgList -> ArgList , AssignExpr":
		return box(Value{Count: unbox(popped[0]).Count + 1}), nil

	// ------------------------------------------------------------------------------------
	// Primary expressions
	// ------------------------------------------------------------------------------------

	case "PrimaryExpr -> NUMBER":
		tok := unbox(popped[0]).Tok
		a.buf().Number(tok.NumberValue)
		return nil, nil
	case "PrimaryExpr -> STRING":
		tok := unbox(popped[0]).Tok
		a.buf().String(tok.Literal)
		return nil, nil
	case "PrimaryExpr -> true":
		a.buf().Boolean(true)
		return nil, nil
	case "PrimaryExpr -> false":
		a.buf().Boolean(false)
		return nil, nil
	case "PrimaryExpr -> null":
		a.buf().Null()
		return nil, nil
	case "PrimaryExpr -> undefined":
		a.buf().Undefined()
		return nil, nil
	case "PrimaryExpr -> IDENT":
		tok := unbox(popped[0]).Tok
		a.emitIdentLoad(tok)
		return box(Value{Tok: tok}), nil // Tok forwarded so PostfixExpr can recover the binding

	default:
		if len(popped) == 1 {
			return popped[0], nil
		}
		return nil, nil
	}
}

// enterFunction pushes a fresh function scope and record, redirecting emission to it. Shared by
// every FuncEnter occurrence and by ArrowEnter (which additionally declares its own parameter).
func (a *Analyzer) enterFunction() {
	fnScopeRef := a.Scopes.Push(a.curScope(), scope.KindFunction)
	a.scopeStack = append(a.scopeStack, fnScopeRef)
	fr := a.newFunction(fnScopeRef)
	a.funcStack = append(a.funcStack, fr)
	a.pushEmit(&fr.Buf)
}

// declareVarOrLet declares name per the VarKind most recently seen, at the scope VarKind
// selected (the enclosing function's own scope for `var`, the current lexical scope for
// `let`/`const`).
func (a *Analyzer) declareVarOrLet(name string) (*scope.Binding, error) {
	if a.curVarFunctionScoped {
		return a.declareVarScoped(name, a.curVarKind)
	}
	return a.declareLocal(name, a.curVarKind)
}

// finalizeNamedFuncDecl closes the current function record, declares its name as a hoisted
// binding in the enclosing scope, and stores the resulting closure into that binding.
func (a *Analyzer) finalizeNamedFuncDecl(nameTok token.Token) (parser.Value, error) {
	fr, err := a.closeFunction()
	if err != nil {
		return nil, err
	}
	return a.finalizeNamedFuncDeclRecord(fr, nameTok)
}

func (a *Analyzer) finalizeNamedFuncDeclRecord(fr *FunctionRecord, nameTok token.Token) (parser.Value, error) {
	a.emitClosureCreation(fr)
	b, err := a.declareVarScoped(nameTok.Literal, scope.BindingFunctionDecl)
	if err != nil {
		return nil, err
	}
	sym := a.Symbols.Intern(nameTok.Literal)
	a.buf().VariableRef(sym, b.Locator)
	a.buf().StoreReference()
	a.buf().Discard()
	return nil, nil
}

// assembleForLoop reassembles a for-statement's finished pieces (head commands already in the
// target buffer, plus the test/update scratch buffers ForTestMark/ForUpdateMark/ForBodyMark set
// aside) into the runtime order: test, branch-past-end, body, update, jump-to-test, end.
func (a *Analyzer) assembleForLoop(popped []parser.Value) (parser.Value, error) {
	testLabel := unbox(popped[4]).Label
	testEmpty := unbox(popped[5]).Count == 0
	updateVal := unbox(popped[7])
	testBuf := updateVal.Buf
	updateLabel := updateVal.Label
	updateEmpty := unbox(popped[8]).Count == 0
	bodyVal := unbox(popped[10])
	updateBuf := bodyVal.Buf
	bodyLabel := bodyVal.Label
	endLabel := bodyVal.Label2
	bodyStart := bodyVal.Index

	if testBuf == nil || updateBuf == nil {
		return nil, fmt.Errorf("analyzer: internal for-loop splice error")
	}

	target := a.buf()
	head := append([]command.Command(nil), target.Commands[:bodyStart]...)
	bodyCmds := append([]command.Command(nil), target.Commands[bodyStart:]...)

	final := &command.Buffer{}
	final.Commands = append(final.Commands, head...)
	final.PlaceLabel(testLabel)
	if !testEmpty {
		final.Commands = append(final.Commands, testBuf.Commands...)
		final.Convert(command.OpToBoolean)
		final.BranchIfFalse(endLabel)
	}
	final.PlaceLabel(bodyLabel)
	final.Commands = append(final.Commands, bodyCmds...)
	final.PlaceLabel(updateLabel)
	if !updateEmpty {
		final.Commands = append(final.Commands, updateBuf.Commands...)
		final.Discard()
	}
	final.Jump(testLabel)
	final.PlaceLabel(endLabel)
	target.Commands = final.Commands

	return nil, nil
}
