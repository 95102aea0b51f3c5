// ==============================================================================================
// FILE: internal/command/command.go
// ==============================================================================================
// PACKAGE: command
// PURPOSE: The compile-command stream of spec.md §3/§4.3: the tagged-variant intermediate form
//          the semantic analyzer emits and internal/jit lowers to internal/ir. Op is a dense int
//          (not a string) for the same table-indexing reason token.Kind is, per token/token.go.
// ==============================================================================================

package command

import (
	"fmt"

	"jsengine/internal/scope"
)

// Op discriminates a Command's tagged variant. The set is closed: spec.md §3's "Compile command"
// essential-variant list, plus the less/greater comparisons and the extra opcodes documented at
// their declarations below (load/store-reference, typeof, and the exception-handler trio).
type Op int

const (
	// Literals
	OpNumber Op = iota
	OpBoolean
	OpUndefined
	OpNull
	OpString

	// References
	OpVariableRef
	OpPropertyRef
	// OpLoadReference and OpStoreReference are not named in spec.md §3's essential-variant list,
	// but its §4.4 lowering rules presume them: `add` "dereference[s] each (materialize reads
	// from locator or property)", which requires some command consuming a reference and
	// producing its value. These two give that operation a name instead of folding it silently
	// into every consuming opcode.
	OpLoadReference
	OpStoreReference

	// Scope lifecycle
	OpAllocateLocals
	OpDeclareVars
	OpPushScope
	OpPopScope

	// Stack manipulation
	OpDiscard
	OpSwap
	OpDuplicate

	// Arithmetic / logical / comparison
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpRem
	OpNeg
	OpLogicalNot
	OpBitwiseAnd
	OpBitwiseOr
	OpBitwiseXor
	OpBitwiseNot
	OpShl
	OpShr
	OpUShr
	OpLooseEq
	OpStrictEq
	OpLess
	OpGreater

	// Conversion
	OpToBoolean
	OpToNumeric
	OpToInt32
	OpToUint32
	OpToObject
	// OpTypeOf is, like OpLoadReference/OpStoreReference above, a named opcode for behavior
	// spec.md §3's essential-variant list implies (`UnaryExpr -> typeof UnaryExpr` must lower
	// to something) without spelling out a name for it.
	OpTypeOf

	// Control flow
	OpBranchIfTrue
	OpBranchIfFalse
	OpJump
	OpLabel

	// Invocation
	OpCall
	OpReturn
	OpThrow

	// Closures
	OpLambda
	OpClosure
	OpCaptureEscaped
	OpLoadCapture
	OpStoreCapture

	// Coroutines
	OpAwait
	OpResume
	OpEmitPromiseResolved

	// Exception handlers. spec.md §4.6 describes try/catch dispatch ("catchable by try/catch
	// encoded in commands") without naming the commands that encode it; these three give that
	// encoding a name, the same way OpLoadReference/OpStoreReference/OpTypeOf do for their own
	// spec-implied-but-unnamed behavior. push-handler/pop-handler bracket a try body's dynamic
	// extent; a throw (or a call whose callee returns Status::exception) within that extent
	// transfers control to the handler's label instead of unwinding the whole function, storing
	// the thrown value where load-pending-exception can retrieve it for the catch binding.
	OpPushHandler
	OpPopHandler
	OpLoadPendingException
)

var opNames = map[Op]string{
	OpNumber: "number", OpBoolean: "boolean", OpUndefined: "undefined", OpNull: "null", OpString: "string",
	OpVariableRef: "variable-reference", OpPropertyRef: "property-reference",
	OpLoadReference: "load-reference", OpStoreReference: "store-reference",
	OpAllocateLocals: "allocate-locals", OpDeclareVars: "declare-vars", OpPushScope: "push-scope", OpPopScope: "pop-scope",
	OpDiscard: "discard", OpSwap: "swap", OpDuplicate: "duplicate",
	OpAdd: "add", OpSub: "sub", OpMul: "mul", OpDiv: "div", OpRem: "rem", OpNeg: "neg",
	OpLogicalNot: "logical-not", OpBitwiseAnd: "bitwise-and", OpBitwiseOr: "bitwise-or", OpBitwiseXor: "bitwise-xor",
	OpBitwiseNot: "bitwise-not", OpShl: "bitwise-shl", OpShr: "bitwise-shr", OpUShr: "bitwise-ushr",
	OpLooseEq: "loose-eq", OpStrictEq: "strict-eq", OpLess: "less", OpGreater: "greater",
	OpToBoolean: "to-boolean", OpToNumeric: "to-numeric", OpToInt32: "to-int32", OpToUint32: "to-uint32", OpToObject: "to-object",
	OpTypeOf: "typeof",
	OpBranchIfTrue: "branch-if-true", OpBranchIfFalse: "branch-if-false", OpJump: "jump", OpLabel: "label",
	OpCall: "call", OpReturn: "return", OpThrow: "throw",
	OpLambda: "lambda", OpClosure: "closure", OpCaptureEscaped: "capture-escaped",
	OpLoadCapture: "load-capture", OpStoreCapture: "store-capture",
	OpAwait: "await", OpResume: "resume", OpEmitPromiseResolved: "emit-promise-resolved",
	OpPushHandler: "push-handler", OpPopHandler: "pop-handler", OpLoadPendingException: "load-pending-exception",
}

func (op Op) String() string {
	if n, ok := opNames[op]; ok {
		return n
	}
	return fmt.Sprintf("Op(%d)", int(op))
}

// Label identifies a branch/jump target within one function's command buffer.
type Label int

// Command is one entry of the compile-command stream. Only the fields relevant to Op are
// meaningful; this mirrors the teacher's object.Object tagged-union-by-struct-field style
// (object/object.go) rather than an interface-per-variant scheme, since commands are produced
// and consumed in tight loops where a vtable dispatch would cost more than it is worth.
type Command struct {
	Op Op

	// Literal payloads.
	Number    float64
	Boolean   bool
	StringVal string

	// References.
	Symbol  scope.Symbol
	Locator scope.Locator
	Key     string

	// Scope lifecycle / stack manipulation / closures.
	ScopeRef   scope.Ref
	Count      int // allocate-locals(n), duplicate(depth), closure(num-captures), call(argc)
	FunctionID int // lambda(function-id)
	CaptureIdx int // load-capture(index) / store-capture(index)

	// Control flow.
	Target Label // branch-*/jump
	Self   Label // label(l)
}

func (c Command) String() string {
	switch c.Op {
	case OpNumber:
		return fmt.Sprintf("number(%v)", c.Number)
	case OpBoolean:
		return fmt.Sprintf("boolean(%v)", c.Boolean)
	case OpString:
		return fmt.Sprintf("string(%q)", c.StringVal)
	case OpVariableRef:
		return fmt.Sprintf("variable-reference(%d, %s)", c.Symbol, c.Locator)
	case OpPropertyRef:
		return fmt.Sprintf("property-reference(%s)", c.Key)
	case OpAllocateLocals:
		return fmt.Sprintf("allocate-locals(%d)", c.Count)
	case OpDeclareVars, OpPushScope, OpPopScope:
		return fmt.Sprintf("%s(%d)", c.Op, c.ScopeRef)
	case OpDuplicate:
		return fmt.Sprintf("duplicate(%d)", c.Count)
	case OpBranchIfTrue, OpBranchIfFalse, OpJump:
		return fmt.Sprintf("%s(%d)", c.Op, c.Target)
	case OpLabel:
		return fmt.Sprintf("label(%d)", c.Self)
	case OpCall:
		return fmt.Sprintf("call(%d)", c.Count)
	case OpLambda:
		return fmt.Sprintf("lambda(%d)", c.FunctionID)
	case OpClosure:
		return fmt.Sprintf("closure(%d)", c.Count)
	case OpLoadCapture:
		return fmt.Sprintf("load-capture(%d)", c.CaptureIdx)
	case OpStoreCapture:
		return fmt.Sprintf("store-capture(%d)", c.CaptureIdx)
	default:
		return c.Op.String()
	}
}

// Buffer is the growable command stream of one function under construction, plus the label
// allocator for that function (spec.md §3 "command buffer" field of a function record).
type Buffer struct {
	Commands []Command
	nextLabel Label
}

// NewLabel allocates a fresh label unique within this buffer.
func (b *Buffer) NewLabel() Label {
	l := b.nextLabel
	b.nextLabel++
	return l
}

func (b *Buffer) emit(c Command) { b.Commands = append(b.Commands, c) }

func (b *Buffer) Number(v float64)        { b.emit(Command{Op: OpNumber, Number: v}) }
func (b *Buffer) Boolean(v bool)          { b.emit(Command{Op: OpBoolean, Boolean: v}) }
func (b *Buffer) Undefined()              { b.emit(Command{Op: OpUndefined}) }
func (b *Buffer) Null()                   { b.emit(Command{Op: OpNull}) }
func (b *Buffer) String(v string)         { b.emit(Command{Op: OpString, StringVal: v}) }
func (b *Buffer) VariableRef(sym scope.Symbol, loc scope.Locator) {
	b.emit(Command{Op: OpVariableRef, Symbol: sym, Locator: loc})
}
func (b *Buffer) PropertyRef(key string) { b.emit(Command{Op: OpPropertyRef, Key: key}) }
func (b *Buffer) LoadReference()  { b.emit(Command{Op: OpLoadReference}) }
func (b *Buffer) StoreReference() { b.emit(Command{Op: OpStoreReference}) }

func (b *Buffer) AllocateLocals(n int)       { b.emit(Command{Op: OpAllocateLocals, Count: n}) }
func (b *Buffer) DeclareVars(ref scope.Ref)  { b.emit(Command{Op: OpDeclareVars, ScopeRef: ref}) }
func (b *Buffer) PushScope(ref scope.Ref)    { b.emit(Command{Op: OpPushScope, ScopeRef: ref}) }
func (b *Buffer) PopScope(ref scope.Ref)     { b.emit(Command{Op: OpPopScope, ScopeRef: ref}) }

func (b *Buffer) Discard()          { b.emit(Command{Op: OpDiscard}) }
func (b *Buffer) Swap()             { b.emit(Command{Op: OpSwap}) }
func (b *Buffer) Duplicate(depth int) { b.emit(Command{Op: OpDuplicate, Count: depth}) }

func (b *Buffer) Binary(op Op)  { b.emit(Command{Op: op}) }
func (b *Buffer) Unary(op Op)   { b.emit(Command{Op: op}) }
func (b *Buffer) Convert(op Op) { b.emit(Command{Op: op}) }

// Note on reference/value convention (internal/analyzer relies on this): variable-reference
// always pushes a reference, never a value; load-reference/store-reference are the only
// commands that cross from a reference to a value or back. store-reference's calling
// convention is [..., value, reference] bottom-to-top = reference on top (pushed last) — pop
// reference, pop value, push value back, so the assignment expression's own value survives.

func (b *Buffer) BranchIfTrue(l Label)  { b.emit(Command{Op: OpBranchIfTrue, Target: l}) }
func (b *Buffer) BranchIfFalse(l Label) { b.emit(Command{Op: OpBranchIfFalse, Target: l}) }
func (b *Buffer) Jump(l Label)          { b.emit(Command{Op: OpJump, Target: l}) }
func (b *Buffer) PlaceLabel(l Label)    { b.emit(Command{Op: OpLabel, Self: l}) }

func (b *Buffer) Call(argc int) { b.emit(Command{Op: OpCall, Count: argc}) }
func (b *Buffer) Return()       { b.emit(Command{Op: OpReturn}) }
func (b *Buffer) Throw()        { b.emit(Command{Op: OpThrow}) }

func (b *Buffer) Lambda(fid int)       { b.emit(Command{Op: OpLambda, FunctionID: fid}) }
func (b *Buffer) Closure(numCaptures int) { b.emit(Command{Op: OpClosure, Count: numCaptures}) }
func (b *Buffer) CaptureEscaped()      { b.emit(Command{Op: OpCaptureEscaped}) }
func (b *Buffer) LoadCapture(idx int)  { b.emit(Command{Op: OpLoadCapture, CaptureIdx: idx}) }
func (b *Buffer) StoreCapture(idx int) { b.emit(Command{Op: OpStoreCapture, CaptureIdx: idx}) }

func (b *Buffer) Await()                 { b.emit(Command{Op: OpAwait}) }
func (b *Buffer) Resume()                { b.emit(Command{Op: OpResume}) }
func (b *Buffer) EmitPromiseResolved()   { b.emit(Command{Op: OpEmitPromiseResolved}) }

func (b *Buffer) PushHandler(l Label)     { b.emit(Command{Op: OpPushHandler, Target: l}) }
func (b *Buffer) PopHandler()             { b.emit(Command{Op: OpPopHandler}) }
func (b *Buffer) LoadPendingException()   { b.emit(Command{Op: OpLoadPendingException}) }
