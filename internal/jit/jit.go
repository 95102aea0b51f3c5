// ==============================================================================================
// FILE: internal/jit/jit.go
// ==============================================================================================
// PACKAGE: jit
// PURPOSE: spec.md §4.4's JIT Compiler: lowers one function's compile-command stream into one
//          internal/ir.Function, maintaining at compile time a typed operand stack of (ir value,
//          static type, optional constant) the way §4.4 describes as "the key idea" — it lets
//          Compile pick a specialized numeric path when both operands are already known numbers
//          and fall back to a runtime-bridge coercion call otherwise. There is no native-code
//          backend in this build (see DESIGN.md/SPEC_FULL.md §1's Open-Question resolution);
//          internal/runtime's Interpreter is the thing that actually executes the emitted
//          internal/ir.Function, the way a real JIT's emitted machine code would run on the CPU.
// ==============================================================================================

package jit

import (
	"fmt"

	"jsengine/internal/command"
	"jsengine/internal/ir"
	"jsengine/internal/scope"
)

// Type is the compile-time static type tracked alongside each operand-stack entry.
type Type int

const (
	TypeAny Type = iota
	TypeNumber
	TypeBoolean
	TypeString
	TypeClosure
)

// entry is one compile-time operand-stack slot. A reference produced by variable-reference or
// property-reference is left unresolved (no ir.Value yet) until load-reference or
// store-reference consumes it, matching command.go's documented convention that
// variable-reference always pushes a reference, never a value.
type entry struct {
	isRef bool
	ref   refInfo

	isLambda bool
	lambdaID int

	val Value
}

// Value pairs an ir.Value with the static type the compiler proved for it, and (for numbers and
// booleans) the known constant so binary-op lowering can pick the specialized numeric path spec.md
// §4.4 describes instead of always routing through a bridge call.
type Value struct {
	v         ir.Value
	typ       Type
	numConst  *float64
	boolConst *bool
}

type refKind int

const (
	refArgument refKind = iota
	refLocal
	refCapture
	refGlobal
	refProperty
)

func refKindName(k refKind) string {
	switch k {
	case refArgument:
		return "argument"
	case refLocal:
		return "local"
	case refCapture:
		return "capture"
	case refGlobal:
		return "global"
	default:
		return "property"
	}
}

type refInfo struct {
	kind refKind
	idx  int
	sym  uint32
	base ir.Value // for refProperty: the already-evaluated object value
	key  string   // for refProperty
}

// FunctionInput is the subset of analyzer.FunctionRecord the compiler needs; kept as a plain
// struct (rather than importing internal/analyzer directly) so internal/jit does not depend on
// the parser/grammar stack, only on the command stream and scope locator shapes it consumes.
type FunctionInput struct {
	ID          int
	NumParams   int
	NumLocals   int
	IsCoroutine bool
	NumCaptures int
	Commands    []command.Command
}

// Options gates the optional compile-time behaviors spec.md §9 documents as debug/release
// switches rather than always-on semantics.
type Options struct {
	// Optimize selects the specialized numeric fast path for OpAdd/OpSub/... when both operands
	// are already proven numbers (spec.md §4.4's "key idea"). Disabling it routes every binary
	// op through the runtime-bridge coercion call instead, trading speed for a smaller, more
	// uniform code path — useful for isolating a miscompile to "is this the fast path's fault".
	Optimize bool
	// ScopeCheckEnabled emits spec.md §9's scope-cleanup checker (OpScopeEnter/OpScopeLeave)
	// instead of letting push-scope/pop-scope lower to nothing.
	ScopeCheckEnabled bool
}

// Compile lowers every function in fns into one internal/ir.Module.
func Compile(fns []FunctionInput, opts Options) (*ir.Module, error) {
	mod := &ir.Module{}
	for _, fn := range fns {
		f, err := compileFunction(fn, opts)
		if err != nil {
			return nil, fmt.Errorf("jit: function %d: %w", fn.ID, err)
		}
		mod.Functions = append(mod.Functions, f)
	}
	return mod, nil
}

type compiler struct {
	f           *ir.Function
	stack       []entry
	cur         ir.BlockID
	labelBlocks map[command.Label]ir.BlockID
	opts        Options
}

func compileFunction(fn FunctionInput, opts Options) (*ir.Function, error) {
	f := ir.NewFunction(fn.ID, fn.NumParams, fn.NumLocals, fn.NumCaptures, fn.IsCoroutine)
	c := &compiler{f: f, cur: f.EntryBlock(), labelBlocks: map[command.Label]ir.BlockID{}, opts: opts}

	for _, cmd := range fn.Commands {
		if err := c.lower(cmd); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func (c *compiler) blockFor(l command.Label) ir.BlockID {
	if b, ok := c.labelBlocks[l]; ok {
		return b
	}
	b := c.f.NewBlock()
	c.labelBlocks[l] = b
	return b
}

func (c *compiler) push(e entry) { c.stack = append(c.stack, e) }
func (c *compiler) pop() entry {
	e := c.stack[len(c.stack)-1]
	c.stack = c.stack[:len(c.stack)-1]
	return e
}

func (c *compiler) emit(instr ir.Instr) ir.Value { return c.f.Emit(c.cur, instr) }

func toRefKind(lk scope.LocatorKind) refKind {
	switch lk {
	case scope.LocatorArgument:
		return refArgument
	case scope.LocatorLocal:
		return refLocal
	case scope.LocatorCapture:
		return refCapture
	default:
		return refGlobal
	}
}

// loadRef materializes a reference into a value, dispatching on locator kind per spec.md §4.4's
// "dereference each (materialize reads from locator or property)".
func (c *compiler) loadRef(r refInfo) entry {
	switch r.kind {
	case refArgument:
		v := c.emit(ir.Instr{Op: ir.OpLoadArg, SlotIdx: r.idx})
		return entry{val: Value{v: v, typ: TypeAny}}
	case refLocal:
		v := c.emit(ir.Instr{Op: ir.OpLoadSlot, SlotIdx: r.idx})
		return entry{val: Value{v: v, typ: TypeAny}}
	case refCapture:
		v := c.emit(ir.Instr{Op: ir.OpLoadCapture, SlotIdx: r.idx})
		return entry{val: Value{v: v, typ: TypeAny}}
	case refGlobal:
		v := c.emit(ir.Instr{Op: ir.OpLoadGlobal, Symbol: r.sym})
		return entry{val: Value{v: v, typ: TypeAny}}
	default: // refProperty
		v := c.emit(ir.Instr{Op: ir.OpLoadProperty, Args: []ir.Value{r.base}, Str: r.key})
		return entry{val: Value{v: v, typ: TypeAny}}
	}
}

func (c *compiler) storeRef(r refInfo, val ir.Value) {
	switch r.kind {
	case refArgument, refLocal:
		c.emit(ir.Instr{Op: ir.OpStoreSlot, Args: []ir.Value{val}, SlotIdx: r.idx})
	case refCapture:
		c.emit(ir.Instr{Op: ir.OpStoreCapture, Args: []ir.Value{val}, SlotIdx: r.idx})
	case refGlobal:
		c.emit(ir.Instr{Op: ir.OpStoreGlobal, Args: []ir.Value{val}, Symbol: r.sym})
	default: // refProperty
		c.emit(ir.Instr{Op: ir.OpStoreProperty, Args: []ir.Value{r.base, val}, Str: r.key})
	}
}

// captureOperand resolves one OpClosure capture-list entry: an already-materialized value (from
// capture-escaped) passes through unchanged; a still-unresolved reference to an already-capture-
// kind locator means this function is re-forwarding an outer capture cell to an inner closure, so
// it is loaded as the cell itself rather than its pointed-to value.
func (c *compiler) captureOperand(e entry) ir.Value {
	if !e.isRef {
		return e.val.v
	}
	return c.emit(ir.Instr{Op: ir.OpLoadCapture, SlotIdx: e.ref.idx, SubOp: "cell"})
}

func (c *compiler) ensureBoolean(e entry) ir.Value {
	if e.isRef {
		e = c.loadRef(e.ref)
	}
	if e.val.typ == TypeBoolean {
		return e.val.v
	}
	return c.emit(ir.Instr{Op: ir.OpConvert, Args: []ir.Value{e.val.v}, SubOp: "to_boolean"})
}

func (c *compiler) lowerConvert(bridge string, result Type) {
	e := c.pop()
	if e.isRef {
		e = c.loadRef(e.ref)
	}
	v := c.emit(ir.Instr{Op: ir.OpConvert, Args: []ir.Value{e.val.v}, SubOp: bridge})
	c.push(entry{val: Value{v: v, typ: result}})
}

func (c *compiler) lowerBridgeUnary(bridge string, result Type) {
	e := c.pop()
	if e.isRef {
		e = c.loadRef(e.ref)
	}
	v := c.emit(ir.Instr{Op: ir.OpCallBridge, Args: []ir.Value{e.val.v}, SubOp: bridge})
	c.push(entry{val: Value{v: v, typ: result}})
}

func (c *compiler) lowerNumericUnary(subOp string) {
	e := c.pop()
	if e.isRef {
		e = c.loadRef(e.ref)
	}
	operand := e.val.v
	if e.val.typ != TypeNumber {
		operand = c.emit(ir.Instr{Op: ir.OpConvert, Args: []ir.Value{operand}, SubOp: "to_numeric"})
	}
	v := c.emit(ir.Instr{Op: ir.OpUnary, Args: []ir.Value{operand}, SubOp: subOp})
	c.push(entry{val: Value{v: v, typ: TypeNumber}})
}

var binarySubOp = map[command.Op]string{
	command.OpAdd: "add", command.OpSub: "sub", command.OpMul: "mul", command.OpDiv: "div", command.OpRem: "rem",
	command.OpBitwiseAnd: "bitwise_and", command.OpBitwiseOr: "bitwise_or", command.OpBitwiseXor: "bitwise_xor",
	command.OpShl: "shl", command.OpShr: "shr", command.OpUShr: "ushr",
	command.OpLess: "less", command.OpGreater: "greater",
}

// lowerNumericBinary is spec.md §4.4's "the key idea": when both operands are already known
// Number values, emit the specialized arithmetic op directly; otherwise bridge through
// to_numeric first, matching the rule table's "falling back to runtime coercions for any+any".
// OpAdd is further special-cased: string concatenation is possible at the `+` operator (unlike
// the other arithmetic ops), so a non-numeric static type there routes through a dedicated
// bridge call instead of a blind to_numeric coercion.
func (c *compiler) lowerNumericBinary(op command.Op) {
	rhs := c.pop()
	lhs := c.pop()
	if lhs.isRef {
		lhs = c.loadRef(lhs.ref)
	}
	if rhs.isRef {
		rhs = c.loadRef(rhs.ref)
	}
	sub := binarySubOp[op]

	if op == command.OpAdd && (lhs.val.typ != TypeNumber || rhs.val.typ != TypeNumber) {
		v := c.emit(ir.Instr{Op: ir.OpCallBridge, Args: []ir.Value{lhs.val.v, rhs.val.v}, SubOp: "add_any"})
		c.push(entry{val: Value{v: v, typ: TypeAny}})
		return
	}

	// With the fast path disabled, route every arithmetic/relational op through the bridge
	// regardless of static type, the uniform path Options.Optimize trades speed away for.
	if !c.opts.Optimize {
		l := lhs.val.v
		if lhs.val.typ != TypeNumber {
			l = c.emit(ir.Instr{Op: ir.OpConvert, Args: []ir.Value{l}, SubOp: "to_numeric"})
		}
		r := rhs.val.v
		if rhs.val.typ != TypeNumber {
			r = c.emit(ir.Instr{Op: ir.OpConvert, Args: []ir.Value{r}, SubOp: "to_numeric"})
		}
		result := TypeNumber
		if op == command.OpLess || op == command.OpGreater {
			result = TypeBoolean
		}
		v := c.emit(ir.Instr{Op: ir.OpCallBridge, Args: []ir.Value{l, r}, SubOp: sub})
		c.push(entry{val: Value{v: v, typ: result}})
		return
	}

	l, r := lhs.val.v, rhs.val.v
	if lhs.val.typ != TypeNumber {
		l = c.emit(ir.Instr{Op: ir.OpConvert, Args: []ir.Value{l}, SubOp: "to_numeric"})
	}
	if rhs.val.typ != TypeNumber {
		r = c.emit(ir.Instr{Op: ir.OpConvert, Args: []ir.Value{r}, SubOp: "to_numeric"})
	}
	result := TypeNumber
	if op == command.OpLess || op == command.OpGreater {
		result = TypeBoolean
	}
	v := c.emit(ir.Instr{Op: ir.OpBinary, Args: []ir.Value{l, r}, SubOp: sub})
	c.push(entry{val: Value{v: v, typ: result}})
}

func (c *compiler) lowerEqualityBridge(bridge string) {
	rhs := c.pop()
	lhs := c.pop()
	if lhs.isRef {
		lhs = c.loadRef(lhs.ref)
	}
	if rhs.isRef {
		rhs = c.loadRef(rhs.ref)
	}
	v := c.emit(ir.Instr{Op: ir.OpCallBridge, Args: []ir.Value{lhs.val.v, rhs.val.v}, SubOp: bridge})
	c.push(entry{val: Value{v: v, typ: TypeBoolean}})
}

func (c *compiler) lower(cmd command.Command) error {
	switch cmd.Op {
	case command.OpNumber:
		v := c.emit(ir.Instr{Op: ir.OpConstNumber, Number: cmd.Number})
		n := cmd.Number
		c.push(entry{val: Value{v: v, typ: TypeNumber, numConst: &n}})
	case command.OpBoolean:
		v := c.emit(ir.Instr{Op: ir.OpConstBool, Bool: cmd.Boolean})
		b := cmd.Boolean
		c.push(entry{val: Value{v: v, typ: TypeBoolean, boolConst: &b}})
	case command.OpUndefined:
		v := c.emit(ir.Instr{Op: ir.OpConstUndefined})
		c.push(entry{val: Value{v: v, typ: TypeAny}})
	case command.OpNull:
		v := c.emit(ir.Instr{Op: ir.OpConstNull})
		c.push(entry{val: Value{v: v, typ: TypeAny}})
	case command.OpString:
		v := c.emit(ir.Instr{Op: ir.OpConstString, Str: cmd.StringVal})
		c.push(entry{val: Value{v: v, typ: TypeString}})

	case command.OpVariableRef:
		c.push(entry{isRef: true, ref: refInfo{
			kind: toRefKind(cmd.Locator.Kind),
			idx:  int(cmd.Locator.Index),
			sym:  uint32(cmd.Symbol),
		}})
	case command.OpPropertyRef:
		base := c.pop()
		if base.isRef {
			base = c.loadRef(base.ref)
		}
		c.push(entry{isRef: true, ref: refInfo{kind: refProperty, base: base.val.v, key: cmd.Key}})

	case command.OpLoadReference:
		r := c.pop()
		if !r.isRef {
			return fmt.Errorf("jit: load-reference with no reference on stack")
		}
		c.push(c.loadRef(r.ref))

	case command.OpStoreReference:
		r := c.pop()
		val := c.pop()
		if !r.isRef {
			return fmt.Errorf("jit: store-reference with no reference on stack")
		}
		if val.isRef {
			val = c.loadRef(val.ref)
		}
		c.storeRef(r.ref, val.val.v)
		c.push(val)

	case command.OpAllocateLocals, command.OpDeclareVars:
		// Pure bookkeeping for the analyzer/scope package; nothing for the backend to lower.

	case command.OpPushScope:
		if c.opts.ScopeCheckEnabled {
			c.emit(ir.Instr{Op: ir.OpScopeEnter, Symbol: uint32(cmd.ScopeRef)})
		}
	case command.OpPopScope:
		if c.opts.ScopeCheckEnabled {
			c.emit(ir.Instr{Op: ir.OpScopeLeave, Symbol: uint32(cmd.ScopeRef)})
		}

	case command.OpDiscard:
		c.pop()
	case command.OpSwap:
		n := len(c.stack)
		c.stack[n-1], c.stack[n-2] = c.stack[n-2], c.stack[n-1]
	case command.OpDuplicate:
		n := len(c.stack)
		c.push(c.stack[n-1-cmd.Count])

	case command.OpAdd, command.OpSub, command.OpMul, command.OpDiv, command.OpRem,
		command.OpBitwiseAnd, command.OpBitwiseOr, command.OpBitwiseXor,
		command.OpShl, command.OpShr, command.OpUShr,
		command.OpLess, command.OpGreater:
		c.lowerNumericBinary(cmd.Op)
	case command.OpLooseEq:
		c.lowerEqualityBridge("is_loosely_equal")
	case command.OpStrictEq:
		c.lowerEqualityBridge("is_strictly_equal")

	case command.OpNeg:
		c.lowerNumericUnary("neg")
	case command.OpLogicalNot:
		e := c.pop()
		if e.isRef {
			e = c.loadRef(e.ref)
		}
		cond := e.val.v
		if e.val.typ != TypeBoolean {
			cond = c.emit(ir.Instr{Op: ir.OpConvert, Args: []ir.Value{cond}, SubOp: "to_boolean"})
		}
		v := c.emit(ir.Instr{Op: ir.OpUnary, Args: []ir.Value{cond}, SubOp: "logical_not"})
		c.push(entry{val: Value{v: v, typ: TypeBoolean}})
	case command.OpBitwiseNot:
		c.lowerNumericUnary("bitwise_not")
	case command.OpToBoolean:
		c.lowerConvert("to_boolean", TypeBoolean)
	case command.OpToNumeric:
		c.lowerConvert("to_numeric", TypeNumber)
	case command.OpToInt32:
		c.lowerConvert("to_int32", TypeNumber)
	case command.OpToUint32:
		c.lowerConvert("to_uint32", TypeNumber)
	case command.OpToObject:
		c.lowerConvert("to_object", TypeAny)
	case command.OpTypeOf:
		c.lowerBridgeUnary("type_of", TypeString)

	case command.OpBranchIfTrue, command.OpBranchIfFalse:
		cond := c.pop()
		condVal := c.ensureBoolean(cond)
		target := c.blockFor(cmd.Target)
		fallthroughBlk := c.f.NewBlock()
		if cmd.Op == command.OpBranchIfTrue {
			c.emit(ir.Instr{Op: ir.OpBranch, Args: []ir.Value{condVal}, TrueTarg: target, FalseTarg: fallthroughBlk})
		} else {
			c.emit(ir.Instr{Op: ir.OpBranch, Args: []ir.Value{condVal}, TrueTarg: fallthroughBlk, FalseTarg: target})
		}
		c.cur = fallthroughBlk
	case command.OpJump:
		target := c.blockFor(cmd.Target)
		c.emit(ir.Instr{Op: ir.OpJump, Target: target})
	case command.OpLabel:
		target := c.blockFor(cmd.Self)
		c.emit(ir.Instr{Op: ir.OpJump, Target: target})
		c.cur = target

	case command.OpCall:
		args := make([]ir.Value, cmd.Count)
		for i := cmd.Count - 1; i >= 0; i-- {
			e := c.pop()
			if e.isRef {
				e = c.loadRef(e.ref)
			}
			args[i] = e.val.v
		}
		callee := c.pop()
		if callee.isRef {
			callee = c.loadRef(callee.ref)
		}
		v := c.emit(ir.Instr{Op: ir.OpCallClosure, Args: append([]ir.Value{callee.val.v}, args...)})
		c.push(entry{val: Value{v: v, typ: TypeAny}})
	case command.OpReturn:
		v := c.pop()
		if v.isRef {
			v = c.loadRef(v.ref)
		}
		c.emit(ir.Instr{Op: ir.OpReturn, Args: []ir.Value{v.val.v}})
	case command.OpThrow:
		v := c.pop()
		if v.isRef {
			v = c.loadRef(v.ref)
		}
		c.emit(ir.Instr{Op: ir.OpThrow, Args: []ir.Value{v.val.v}})

	case command.OpLambda:
		c.push(entry{isLambda: true, lambdaID: cmd.FunctionID})
	case command.OpClosure:
		lambda := c.pop()
		if !lambda.isLambda {
			return fmt.Errorf("jit: closure(%d) expected a lambda on top of stack", cmd.Count)
		}
		caps := make([]ir.Value, cmd.Count)
		for i := cmd.Count - 1; i >= 0; i-- {
			caps[i] = c.captureOperand(c.pop())
		}
		v := c.emit(ir.Instr{Op: ir.OpCreateClosure, FuncID: lambda.lambdaID, Args: caps})
		c.push(entry{val: Value{v: v, typ: TypeClosure}})
	case command.OpCaptureEscaped:
		r := c.pop()
		if !r.isRef {
			return fmt.Errorf("jit: capture-escaped with no reference on stack")
		}
		v := c.emit(ir.Instr{Op: ir.OpCaptureEscaped, SlotIdx: r.ref.idx, SubOp: refKindName(r.ref.kind)})
		c.push(entry{val: Value{v: v, typ: TypeAny}})
	case command.OpLoadCapture:
		v := c.emit(ir.Instr{Op: ir.OpLoadCapture, SlotIdx: cmd.CaptureIdx})
		c.push(entry{val: Value{v: v, typ: TypeAny}})
	case command.OpStoreCapture:
		val := c.pop()
		if val.isRef {
			val = c.loadRef(val.ref)
		}
		c.emit(ir.Instr{Op: ir.OpStoreCapture, Args: []ir.Value{val.val.v}, SlotIdx: cmd.CaptureIdx})
		c.push(val)

	case command.OpAwait:
		v := c.pop()
		if v.isRef {
			v = c.loadRef(v.ref)
		}
		out := c.emit(ir.Instr{Op: ir.OpAwait, Args: []ir.Value{v.val.v}})
		c.push(entry{val: Value{v: out, typ: TypeAny}})
	case command.OpResume, command.OpEmitPromiseResolved:
		// Not emitted by internal/analyzer: async-function completion is driven by
		// internal/runtime observing a coroutine's normal return, not by an explicit compiled
		// command (see DESIGN.md).

	case command.OpPushHandler:
		target := c.blockFor(cmd.Target)
		c.emit(ir.Instr{Op: ir.OpPushHandler, Target: target})
	case command.OpPopHandler:
		c.emit(ir.Instr{Op: ir.OpPopHandler})
	case command.OpLoadPendingException:
		v := c.emit(ir.Instr{Op: ir.OpLoadPendingException})
		c.push(entry{val: Value{v: v, typ: TypeAny}})

	default:
		return fmt.Errorf("jit: unhandled compile command %s", cmd.Op)
	}
	return nil
}
