// ==============================================================================================
// FILE: internal/ir/ir.go
// ==============================================================================================
// PACKAGE: ir
// PURPOSE: The low-level IR backend spec.md §1/§9 leaves as "any low-level IR with blocks, SSA
//          values, and function emission suffices; only the contract consumed is specified."
//          SPEC_FULL.md §1 resolves the open question by committing to this self-contained
//          backend rather than a native-codegen library. A Function is a sequence of basic
//          blocks; each instruction defines at most one fresh Value (the SSA discipline), and
//          mutable source-level locals are modeled the conventional way — a stack slot plus
//          explicit LoadSlot/StoreSlot instructions, the same load/store-to-memory pattern
//          LLVM's mem2reg cleans up, chosen here over block-argument phi nodes because
//          internal/jit's lowering never needs to merge two predecessors' *local-variable*
//          values, only branch on control flow the command stream already makes explicit.
// ==============================================================================================

package ir

import "fmt"

// Op discriminates one IR instruction.
type Op int

const (
	OpConstNumber Op = iota
	OpConstBool
	OpConstString
	OpConstUndefined
	OpConstNull

	OpLoadArg
	OpLoadSlot
	OpStoreSlot
	OpLoadCapture
	OpStoreCapture
	OpLoadGlobal
	OpStoreGlobal
	OpLoadProperty
	OpStoreProperty

	OpBinary
	OpUnary
	OpConvert

	OpCreateClosure
	OpCaptureEscaped
	OpCallClosure
	OpCallBridge

	OpAwait
	OpResume

	// OpScopeEnter/OpScopeLeave implement spec.md §9's scope-cleanup checker: a debug-only
	// push/pop of Symbol (the static scope id) onto internal/runtime's per-invocation check
	// stack. internal/jit only emits these when the scope checker is enabled; otherwise
	// push-scope/pop-scope lower to nothing, matching the release path spec.md §9 describes.
	OpScopeEnter
	OpScopeLeave

	// Exception handlers, mirroring internal/command's OpPushHandler/OpPopHandler/
	// OpLoadPendingException one-for-one: internal/jit does no handler-stack reasoning itself,
	// it only carries the bracketing markers through to internal/runtime, which is what actually
	// maintains the per-invocation handler stack at execution time.
	OpPushHandler
	OpPopHandler
	OpLoadPendingException

	// Terminators (always the last instruction of a block).
	OpJump
	OpBranch
	OpReturn
	OpThrow
)

func (op Op) String() string {
	names := [...]string{
		"const-number", "const-bool", "const-string", "const-undefined", "const-null",
		"load-arg", "load-slot", "store-slot", "load-capture", "store-capture",
		"load-global", "store-global", "load-property", "store-property",
		"binary", "unary", "convert",
		"create-closure", "capture-escaped", "call-closure", "call-bridge",
		"await", "resume",
		"scope-enter", "scope-leave",
		"push-handler", "pop-handler", "load-pending-exception",
		"jump", "branch", "return", "throw",
	}
	if int(op) < len(names) {
		return names[op]
	}
	return fmt.Sprintf("Op(%d)", int(op))
}

// Value names the result of an instruction within one Function. Zero is reserved (no value).
type Value int

// BlockID names a basic block within one Function.
type BlockID int

// Instr is one IR instruction. Fields are interpreted according to Op, mirroring
// internal/command.Command's tagged-struct convention rather than one Go type per opcode.
type Instr struct {
	Op Op

	Dst  Value   // the value this instruction defines (0 if none, e.g. a store)
	Args []Value // operand values, left to right

	Number  float64
	Bool    bool
	Str     string
	Symbol  uint32
	SubOp   string // which binary/unary/convert/bridge operation (e.g. "add", "to_numeric")
	SlotIdx int    // load-slot/store-slot/load-capture/store-capture index
	FuncID  int    // create-closure target

	// Terminator operands.
	Target    BlockID
	TrueTarg  BlockID
	FalseTarg BlockID
}

// Block is a single-entry, single-exit run of instructions ending in a terminator.
type Block struct {
	ID     BlockID
	Instrs []Instr
}

// Function is one compiled unit: spec.md §4.4's "one native function" stand-in, with the calling
// convention `fn(runtime_ptr, context_ptr, argc, argv, retv) -> Status` realized as
// internal/runtime.Interpreter.Invoke rather than emitted machine code.
type Function struct {
	ID          int
	NumParams   int
	NumSlots    int // flat local-slot count, spec.md's "local-variable count"
	IsCoroutine bool
	NumCaptures int

	Blocks   []*Block
	nextVal  Value
	nextBlk  BlockID
}

// NewFunction creates an empty function with block 0 as its entry block.
func NewFunction(id, numParams, numSlots, numCaptures int, coroutine bool) *Function {
	f := &Function{ID: id, NumParams: numParams, NumSlots: numSlots, NumCaptures: numCaptures, IsCoroutine: coroutine}
	f.NewBlock()
	return f
}

// NewBlock appends a fresh block and returns its id.
func (f *Function) NewBlock() BlockID {
	id := f.nextBlk
	f.nextBlk++
	f.Blocks = append(f.Blocks, &Block{ID: id})
	return id
}

func (f *Function) block(id BlockID) *Block { return f.Blocks[id] }

// newValue allocates a fresh SSA value id.
func (f *Function) newValue() Value {
	f.nextVal++
	return f.nextVal
}

// Emit appends instr to block id, assigning it a fresh Dst if the instruction produces a value
// (anything other than a store, a terminator, a handler push/pop or a scope enter/leave), and
// returns that Dst (0 if none).
func (f *Function) Emit(id BlockID, instr Instr) Value {
	switch instr.Op {
	case OpStoreSlot, OpStoreCapture, OpStoreGlobal, OpStoreProperty, OpJump, OpBranch, OpReturn, OpThrow,
		OpPushHandler, OpPopHandler, OpScopeEnter, OpScopeLeave:
		// no value produced
	default:
		instr.Dst = f.newValue()
	}
	f.block(id).Instrs = append(f.block(id).Instrs, instr)
	return instr.Dst
}

// EntryBlock is the function's unique entry point.
func (f *Function) EntryBlock() BlockID { return 0 }

// Module is the finished output of internal/jit: one Function per analyzer.FunctionRecord,
// indexed by FunctionID — spec.md §4.4's "compilation order children before parents" is preserved
// in Functions' slice order but Lookup works by id regardless of order.
type Module struct {
	Functions []*Function
}

// Lookup returns the function compiled for id.
func (m *Module) Lookup(id int) *Function {
	for _, f := range m.Functions {
		if f.ID == id {
			return f
		}
	}
	return nil
}
