// ==============================================================================================
// FILE: internal/runtime/interpreter.go
// ==============================================================================================
// PACKAGE: runtime
// PURPOSE: The execution core that plays the part of spec.md §4.4's emitted native code: Invoke
//          walks one internal/ir.Function's blocks directly instead of running machine code a
//          real JIT backend would have produced (see DESIGN.md's internal/jit entry for why no
//          native codegen exists in this build). Calling convention, Status discipline, and the
//          per-invocation exception-handler stack all follow spec.md §4.4/§4.6 exactly; only the
//          "how is the function body executed" step is substituted.
// ==============================================================================================

package runtime

import (
	"fmt"

	"jsengine/internal/engineerr"
	"jsengine/internal/ir"
)

// Status is spec.md §4.4's three-valued compiled-function return discipline.
type Status int

const (
	StatusNormal Status = iota
	StatusException
	StatusSuspend
)

func (s Status) String() string {
	switch s {
	case StatusException:
		return "exception"
	case StatusSuspend:
		return "suspend"
	default:
		return "normal"
	}
}

// execState is the live state of one in-progress invocation: its argument/local slots, the
// register file backing every IR value produced so far, and the dynamic try/catch handler stack.
// For a coroutine, this is exactly the state persisted across a suspend/resume boundary (see
// coroutine.go's file header on why no separate byte-packed scratch buffer exists).
type execState struct {
	args       []Value
	slots      []Value
	captures   []*Capture
	registers  map[ir.Value]Value
	handlers   []handlerFrame
	pendingExc Value
	// scopeCheck is spec.md §9's scope-cleanup checker stack, only ever pushed to/popped from
	// when internal/jit was built with Options.ScopeCheckEnabled; otherwise no OpScopeEnter/
	// OpScopeLeave instruction exists in the compiled function and this field stays empty.
	scopeCheck []uint32
	// escapedCells maps the ir.Value produced by an OpCaptureEscaped/"cell"-kind OpLoadCapture
	// instruction to the *Capture it stands for, since Value itself has no capture-cell Kind —
	// OpCreateClosure resolves its capture-list operands through this side table instead.
	escapedCells map[ir.Value]*Capture
}

func blockByID(blocks []*ir.Block, id ir.BlockID) *ir.Block {
	for _, b := range blocks {
		if b.ID == id {
			return b
		}
	}
	return nil
}

// Invoke runs closure with args to completion or suspension, realizing spec.md §4.4's
// `fn(runtime_ptr, context_ptr, argc, argv, retv) -> Status` calling convention as a direct Go
// call instead of a function-pointer indirection.
func (rt *Runtime) Invoke(closure *Closure, args []Value) (Status, Value) {
	if closure.Host != nil {
		return closure.Host(rt, args)
	}
	lambda := closure.Lambda
	if lambda.IsCoroutine {
		return rt.spawnCoroutine(closure, args)
	}
	st := &execState{
		args:      args,
		slots:     make([]Value, lambda.NumSlots),
		captures:  closure.Captures,
		registers: map[ir.Value]Value{},
	}
	status, val, _ := rt.run(lambda.Blocks, st, lambda.Blocks[0].ID, 0)
	return status, val
}

// run executes lambda.Blocks starting at (startBlock, startInstr) against st until the function
// returns, throws past every installed handler, or suspends at an await whose promise is still
// pending. On suspension the returned Value is the promise being awaited (not a function result)
// and resumePoint names exactly where to continue.
func (rt *Runtime) run(blocks []*ir.Block, st *execState, startBlock ir.BlockID, startInstr int) (Status, Value, resumePoint) {
	cur := startBlock
	idx := startInstr

	for {
		block := blockByID(blocks, cur)
		if block == nil {
			return StatusException, StringValue(fmt.Sprintf("runtime: no block %d", cur)), resumePoint{}
		}

		jumped := false
		for ; idx < len(block.Instrs); idx++ {
			instr := block.Instrs[idx]

			switch instr.Op {
			case ir.OpConstNumber:
				st.registers[instr.Dst] = NumberValue(instr.Number)
			case ir.OpConstBool:
				st.registers[instr.Dst] = BooleanValue(instr.Bool)
			case ir.OpConstString:
				st.registers[instr.Dst] = StringValue(instr.Str)
			case ir.OpConstUndefined:
				st.registers[instr.Dst] = Undefined
			case ir.OpConstNull:
				st.registers[instr.Dst] = Null

			case ir.OpLoadArg:
				st.registers[instr.Dst] = st.args[instr.SlotIdx]
			case ir.OpLoadSlot:
				st.registers[instr.Dst] = st.slots[instr.SlotIdx]
			case ir.OpStoreSlot:
				st.slots[instr.SlotIdx] = st.registers[instr.Args[0]]
			case ir.OpLoadCapture:
				if instr.SubOp == "cell" {
					// Re-forwarding an outer capture cell to a nested closure: record the cell
					// itself under this instruction's Dst so OpCreateClosure can resolve it,
					// rather than loading the capture's current value.
					if st.escapedCells == nil {
						st.escapedCells = map[ir.Value]*Capture{}
					}
					st.escapedCells[instr.Dst] = st.captures[instr.SlotIdx]
					break
				}
				st.registers[instr.Dst] = st.captures[instr.SlotIdx].Get()
			case ir.OpStoreCapture:
				st.captures[instr.SlotIdx].Set(st.registers[instr.Args[0]])
			case ir.OpLoadGlobal:
				st.registers[instr.Dst] = rt.Get(instr.Symbol)
			case ir.OpStoreGlobal:
				rt.Set(instr.Symbol, st.registers[instr.Args[0]])
			case ir.OpLoadProperty:
				st.registers[instr.Dst] = rt.loadProperty(st.registers[instr.Args[0]], instr.Str)
			case ir.OpStoreProperty:
				rt.storeProperty(st.registers[instr.Args[0]], instr.Str, st.registers[instr.Args[1]])

			case ir.OpBinary:
				l := ToNumeric(st.registers[instr.Args[0]])
				r := ToNumeric(st.registers[instr.Args[1]])
				st.registers[instr.Dst] = runBinary(instr.SubOp, l, r)
			case ir.OpUnary:
				st.registers[instr.Dst] = runUnary(instr.SubOp, st.registers[instr.Args[0]])
			case ir.OpConvert:
				st.registers[instr.Dst] = runConvert(instr.SubOp, st.registers[instr.Args[0]])
			case ir.OpCallBridge:
				bridgeArgs := make([]Value, len(instr.Args))
				for i, a := range instr.Args {
					bridgeArgs[i] = st.registers[a]
				}
				st.registers[instr.Dst] = runBridgeCall(instr.SubOp, bridgeArgs)

			case ir.OpCreateClosure:
				lambda := rt.Module.Lookup(instr.FuncID)
				caps := make([]*Capture, len(instr.Args))
				for i, a := range instr.Args {
					caps[i] = rt.resolveCaptureCell(st, a)
				}
				st.registers[instr.Dst] = ClosureValue(rt.AllocateClosure(&Lambda{
					FuncID: lambda.ID, NumParams: lambda.NumParams, NumSlots: lambda.NumSlots,
					IsCoroutine: lambda.IsCoroutine, NumCaptures: lambda.NumCaptures, Blocks: lambda.Blocks,
				}, caps))
			case ir.OpCaptureEscaped:
				cell := rt.localCaptureCell(st, instr.SlotIdx, instr.SubOp)
				cell.Escape()
				if st.escapedCells == nil {
					st.escapedCells = map[ir.Value]*Capture{}
				}
				st.escapedCells[instr.Dst] = cell

			case ir.OpCallClosure:
				callee := st.registers[instr.Args[0]].Closure
				callArgs := make([]Value, len(instr.Args)-1)
				for i, a := range instr.Args[1:] {
					callArgs[i] = st.registers[a]
				}
				status, val := rt.Invoke(callee, callArgs)
				if status == StatusException {
					if ok, newBlock := st.popHandler(val); ok {
						cur = newBlock
						idx = 0
						jumped = true
					} else {
						return StatusException, val, resumePoint{}
					}
					goto nextIter
				}
				st.registers[instr.Dst] = val

			case ir.OpAwait:
				awaited := st.registers[instr.Args[0]]
				if awaited.Kind == KindPromise {
					p := rt.promise(awaited.Promise)
					if p.State == PromisePending {
						return StatusSuspend, awaited, resumePoint{block: cur, instr: idx + 1}
					}
					if p.State == PromiseRejected {
						if ok, newBlock := st.popHandler(p.Value); ok {
							cur = newBlock
							idx = 0
							jumped = true
							goto nextIter
						}
						return StatusException, p.Value, resumePoint{}
					}
					st.registers[instr.Dst] = p.Value
				} else {
					st.registers[instr.Dst] = awaited
				}

			case ir.OpPushHandler:
				st.handlers = append(st.handlers, handlerFrame{target: instr.Target})
			case ir.OpPopHandler:
				st.handlers = st.handlers[:len(st.handlers)-1]
			case ir.OpLoadPendingException:
				st.registers[instr.Dst] = st.pendingExc

			case ir.OpScopeEnter:
				st.scopeCheck = append(st.scopeCheck, instr.Symbol)
			case ir.OpScopeLeave:
				n := len(st.scopeCheck)
				if n == 0 || st.scopeCheck[n-1] != instr.Symbol {
					panic(&engineerr.CompilerBug{Msg: fmt.Sprintf("scope-cleanup checker: pop(%d) does not match top of stack", instr.Symbol)})
				}
				st.scopeCheck = st.scopeCheck[:n-1]

			case ir.OpJump:
				cur = instr.Target
				idx = 0
				jumped = true
				goto nextIter

			case ir.OpBranch:
				if ToBoolean(st.registers[instr.Args[0]]) {
					cur = instr.TrueTarg
				} else {
					cur = instr.FalseTarg
				}
				idx = 0
				jumped = true
				goto nextIter

			case ir.OpReturn:
				return StatusNormal, st.registers[instr.Args[0]], resumePoint{}

			case ir.OpThrow:
				val := st.registers[instr.Args[0]]
				if ok, newBlock := st.popHandler(val); ok {
					cur = newBlock
					idx = 0
					jumped = true
					goto nextIter
				}
				return StatusException, val, resumePoint{}

			default:
				return StatusException, StringValue(fmt.Sprintf("runtime: unhandled ir op %s", instr.Op)), resumePoint{}
			}
		}
	nextIter:
		if !jumped {
			// Fell off the end of a block with no terminator: only reachable for a malformed
			// function (internal/jit always seals a block with jump/branch/return/throw).
			return StatusException, StringValue("runtime: block fell through without a terminator"), resumePoint{}
		}
	}
}

// popHandler pops the innermost handler (if any), records val as the pending exception, and
// reports the block to jump to — the dynamic counterpart of spec.md §4.6's "unwinds to the
// nearest try handler (encoded by the semantic analyzer as compare-and-branch on status)".
func (st *execState) popHandler(val Value) (bool, ir.BlockID) {
	if len(st.handlers) == 0 {
		return false, 0
	}
	h := st.handlers[len(st.handlers)-1]
	st.handlers = st.handlers[:len(st.handlers)-1]
	st.pendingExc = val
	return true, h.target
}

// resolveCaptureCell resolves one OpCreateClosure capture operand: both OpCaptureEscaped and a
// "cell"-kind OpLoadCapture record their *Capture under their own Dst in st.escapedCells (see
// those cases above), so every capture-list entry internal/jit emits resolves the same way here.
func (rt *Runtime) resolveCaptureCell(st *execState, v ir.Value) *Capture {
	return st.escapedCells[v]
}

// localCaptureCell returns (creating on first use) the Capture cell for a local/argument slot
// being captured, tracked per execState so repeated captures of the same slot share one cell.
func (rt *Runtime) localCaptureCell(st *execState, idx int, kind string) *Capture {
	if st.escapedCells == nil {
		st.escapedCells = map[ir.Value]*Capture{}
	}
	var target *Value
	if kind == "argument" {
		target = &st.args[idx]
	} else {
		target = &st.slots[idx]
	}
	cell := rt.AllocateCapture(target)
	return cell
}
