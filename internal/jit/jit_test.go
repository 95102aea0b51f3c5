package jit

import (
	"testing"

	"jsengine/internal/command"
	"jsengine/internal/ir"
	"jsengine/internal/scope"
)

// numberAddCommands compiles to `1 + 2`, returned, the minimal program
// exercising lowerNumericBinary's OpAdd path.
func numberAddCommands() []command.Command {
	return []command.Command{
		{Op: command.OpNumber, Number: 1},
		{Op: command.OpNumber, Number: 2},
		{Op: command.OpAdd},
		{Op: command.OpReturn},
	}
}

func lastInstr(f *ir.Function) ir.Instr {
	blk := f.Blocks[len(f.Blocks)-1]
	return blk.Instrs[len(blk.Instrs)-2] // the instruction before the terminating return
}

func TestCompileOptimizedNumberAddUsesBinaryOp(t *testing.T) {
	mod, err := Compile([]FunctionInput{{ID: 0, Commands: numberAddCommands()}}, Options{Optimize: true})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	f := mod.Lookup(0)
	if f == nil {
		t.Fatal("function 0 missing from module")
	}
	instr := lastInstr(f)
	if instr.Op != ir.OpBinary || instr.SubOp != "add" {
		t.Errorf("with Optimize on, known-number + known-number must lower to OpBinary(add), got %s(%s)", instr.Op, instr.SubOp)
	}
}

func TestCompileUnoptimizedNumberAddRoutesThroughBridge(t *testing.T) {
	mod, err := Compile([]FunctionInput{{ID: 0, Commands: numberAddCommands()}}, Options{Optimize: false})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	f := mod.Lookup(0)
	instr := lastInstr(f)
	if instr.Op != ir.OpCallBridge || instr.SubOp != "add" {
		t.Errorf("with Optimize off, even known-number + known-number must lower to OpCallBridge(add), got %s(%s)", instr.Op, instr.SubOp)
	}
}

func TestCompileAddWithNonNumberOperandAlwaysBridges(t *testing.T) {
	cmds := []command.Command{
		{Op: command.OpString, StringVal: "a"},
		{Op: command.OpNumber, Number: 2},
		{Op: command.OpAdd},
		{Op: command.OpReturn},
	}
	mod, err := Compile([]FunctionInput{{ID: 0, Commands: cmds}}, Options{Optimize: true})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	instr := lastInstr(mod.Lookup(0))
	if instr.Op != ir.OpCallBridge || instr.SubOp != "add_any" {
		t.Errorf("string + number must bridge via add_any regardless of Optimize, got %s(%s)", instr.Op, instr.SubOp)
	}
}

func TestCompileScopeCheckEnabledEmitsScopeEnterLeave(t *testing.T) {
	cmds := []command.Command{
		{Op: command.OpPushScope, ScopeRef: scope.Ref(3)},
		{Op: command.OpPopScope, ScopeRef: scope.Ref(3)},
		{Op: command.OpUndefined},
		{Op: command.OpReturn},
	}
	mod, err := Compile([]FunctionInput{{ID: 0, Commands: cmds}}, Options{ScopeCheckEnabled: true})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	instrs := mod.Lookup(0).Blocks[0].Instrs
	if len(instrs) < 2 || instrs[0].Op != ir.OpScopeEnter || instrs[1].Op != ir.OpScopeLeave {
		t.Fatalf("expected OpScopeEnter then OpScopeLeave, got %v", instrs)
	}
	if instrs[0].Symbol != 3 || instrs[1].Symbol != 3 {
		t.Errorf("scope-enter/leave must carry the scope ref as Symbol, got %d and %d", instrs[0].Symbol, instrs[1].Symbol)
	}
}

func TestCompileScopeCheckDisabledEmitsNoScopeInstructions(t *testing.T) {
	cmds := []command.Command{
		{Op: command.OpPushScope, ScopeRef: scope.Ref(3)},
		{Op: command.OpPopScope, ScopeRef: scope.Ref(3)},
		{Op: command.OpUndefined},
		{Op: command.OpReturn},
	}
	mod, err := Compile([]FunctionInput{{ID: 0, Commands: cmds}}, Options{})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	for _, instr := range mod.Lookup(0).Blocks[0].Instrs {
		if instr.Op == ir.OpScopeEnter || instr.Op == ir.OpScopeLeave {
			t.Fatalf("scope checker disabled but found %s", instr.Op)
		}
	}
}

func TestCompileVariableStoreThenLoadRoundTrips(t *testing.T) {
	sym := scope.Symbol(1)
	local := scope.Locator{Kind: scope.LocatorLocal, Index: 0}
	cmds := []command.Command{
		{Op: command.OpNumber, Number: 9},
		{Op: command.OpVariableRef, Symbol: sym, Locator: local},
		{Op: command.OpStoreReference},
		{Op: command.OpDiscard},
		{Op: command.OpVariableRef, Symbol: sym, Locator: local},
		{Op: command.OpLoadReference},
		{Op: command.OpReturn},
	}
	mod, err := Compile([]FunctionInput{{ID: 0, NumLocals: 1, Commands: cmds}}, Options{})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	instrs := mod.Lookup(0).Blocks[0].Instrs
	var sawStore, sawLoad bool
	for _, instr := range instrs {
		if instr.Op == ir.OpStoreSlot {
			sawStore = true
		}
		if instr.Op == ir.OpLoadSlot {
			sawLoad = true
		}
	}
	if !sawStore || !sawLoad {
		t.Errorf("expected both OpStoreSlot and OpLoadSlot, got %v", instrs)
	}
}

func TestCompileLoadReferenceWithoutRefOnStackErrors(t *testing.T) {
	cmds := []command.Command{
		{Op: command.OpNumber, Number: 1},
		{Op: command.OpLoadReference},
		{Op: command.OpReturn},
	}
	if _, err := Compile([]FunctionInput{{ID: 0, Commands: cmds}}, Options{}); err == nil {
		t.Fatal("expected an error when load-reference has no reference on the stack")
	}
}
