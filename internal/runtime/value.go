// ==============================================================================================
// FILE: internal/runtime/value.go
// ==============================================================================================
// PACKAGE: runtime
// PURPOSE: spec.md §3's Value tagged union, and the Closure/Capture/Coroutine records built on
//          top of it. Go has no two-machine-word struct-packing concern to honor, so Value is a
//          plain tagged struct rather than a packed union — the invariant this repo keeps from
//          spec.md is observable behavior (Kind discriminates exactly one payload field), not the
//          byte layout.
// ==============================================================================================

package runtime

import (
	"fmt"

	"jsengine/internal/ir"
)

// Kind discriminates a Value's payload, per spec.md §3's {none, undefined, null, boolean,
// number, closure-pointer, promise-id, object-pointer, string-handle} tagged union.
type Kind int

const (
	KindNone Kind = iota // internal sentinel, never observable to a program
	KindUndefined
	KindNull
	KindBoolean
	KindNumber
	KindString
	KindClosure
	KindPromise
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindUndefined:
		return "undefined"
	case KindNull:
		return "null"
	case KindBoolean:
		return "boolean"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindClosure:
		return "function"
	case KindPromise:
		return "object"
	case KindObject:
		return "object"
	default:
		return "none"
	}
}

// Value is the engine's one runtime value representation.
type Value struct {
	Kind    Kind
	Number  float64
	Boolean bool
	Str     string
	Closure *Closure
	Promise PromiseID
	Object  *Object
}

var (
	Undefined = Value{Kind: KindUndefined}
	Null      = Value{Kind: KindNull}
	None      = Value{Kind: KindNone}
)

func NumberValue(v float64) Value  { return Value{Kind: KindNumber, Number: v} }
func BooleanValue(v bool) Value    { return Value{Kind: KindBoolean, Boolean: v} }
func StringValue(v string) Value   { return Value{Kind: KindString, Str: v} }
func ClosureValue(c *Closure) Value { return Value{Kind: KindClosure, Closure: c} }
func PromiseValue(id PromiseID) Value { return Value{Kind: KindPromise, Promise: id} }

func (v Value) String() string {
	switch v.Kind {
	case KindUndefined:
		return "undefined"
	case KindNull:
		return "null"
	case KindBoolean:
		return fmt.Sprintf("%t", v.Boolean)
	case KindNumber:
		return fmt.Sprintf("%v", v.Number)
	case KindString:
		return v.Str
	case KindClosure:
		return fmt.Sprintf("[function %d]", v.Closure.Lambda.FuncID)
	case KindPromise:
		return fmt.Sprintf("[object Promise(%d)]", v.Promise)
	case KindObject:
		return "[object Object]"
	default:
		return "<none>"
	}
}

// Object is the engine's minimal dictionary-property-bag object (spec.md §9's "naive dictionary
// semantics... an implementation is free to optimize below the contract" — this build does not).
type Object struct {
	Properties map[string]Value
}

func NewObject() *Object { return &Object{Properties: map[string]Value{}} }

// Lambda is a compiled function, looked up by FuncID; the thing Invoke actually runs. It stands
// in for spec.md §4.4's "native function" — this build runs the IR directly instead of emitting
// machine code (see DESIGN.md's internal/jit entry).
type Lambda struct {
	FuncID      int
	NumParams   int
	NumSlots    int
	IsCoroutine bool
	NumCaptures int
	Blocks      []*ir.Block
}

// Capture is spec.md §3's {target-pointer, escaped-value}: while a closure's defining frame is
// still live, Target points at that frame's local slot; once the frame returns (or is never
// stack-resident to begin with, as with a coroutine's persisted register file) the capture
// "escapes": Target is repointed at Escaped, which now owns the value. Encoding the escaped/
// borrowed distinction as pointer identity (not a separate bool) follows spec.md §9 exactly.
type Capture struct {
	Target  *Value
	Escaped Value
}

func NewCapture(target *Value) *Capture {
	c := &Capture{}
	c.Target = target
	return c
}

// Escape severs a Capture from its defining stack frame, copying the frame's current value into
// the capture's own storage and repointing Target at it.
func (c *Capture) Escape() {
	if c.Target == &c.Escaped {
		return
	}
	c.Escaped = *c.Target
	c.Target = &c.Escaped
}

func (c *Capture) Get() Value  { return *c.Target }
func (c *Capture) Set(v Value) { *c.Target = v }

// Closure is spec.md §3's {lambda-pointer, num-captures} header followed by capture pointers.
// Host is non-nil for closures backed by a native function (spec.md §6's registered host
// functions, and this build's Promise.prototype.then binding) instead of a compiled Lambda.
type Closure struct {
	Lambda   *Lambda
	Captures []*Capture
	Host     HostFn
}
