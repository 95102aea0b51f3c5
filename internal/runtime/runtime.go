// ==============================================================================================
// FILE: internal/runtime/runtime.go
// ==============================================================================================
// PACKAGE: runtime
// PURPOSE: The Runtime record spec.md §9 requires ("constructed explicitly... passed as the first
//          argument of every runtime-bridge call... Do not use ambient globals"): owns the bump
//          allocator, the promise registry, the global object, and the compiled module's
//          function table, all in one place threaded explicitly through Invoke/bridge calls
//          rather than package-level state.
// ==============================================================================================

package runtime

import (
	"fmt"

	"jsengine/internal/ir"
)

// HostFn is spec.md §6's host-function signature, generalized from `(&mut Runtime, args) ->
// (Status, Value)` with Go's explicit multi-return replacing the out-parameter pair.
type HostFn func(rt *Runtime, args []Value) (Status, Value)

// arena is spec.md §3/§9's "bump allocator... does not free individual objects within a run."
// Go's own garbage collector already owns real memory management underneath; arena exists so
// every Capture/Closure/Coroutine this engine creates is born through one explicit allocation
// point (matching the "single bump allocator owned by the runtime" contract) rather than scattered
// bare composite literals, which is what would make a future relocating collector (spec.md §9's
// open question) impossible to retrofit. The one exception is the host-backed `.then` closure
// that object.go builds as a bare literal on each property load.
type arena struct {
	captures   int
	closures   int
	coroutines int
}

// Runtime is the single explicit context every generated call and bridge function receives.
type Runtime struct {
	Module *ir.Module

	arena arena

	Globals map[uint32]Value

	promises    []*Promise
	coroutines  map[int]*Coroutine
	nextCoID    int
	readyJobs   []func()

	symbolName func(uint32) string // for to-string diagnostics only; optional
}

// NewRuntime creates a Runtime bound to a compiled module, ready to Invoke its entry function.
func NewRuntime(mod *ir.Module) *Runtime {
	return NewRuntimeSized(mod, 0)
}

// NewRuntimeSized is NewRuntime plus a capacity hint for the global-binding map (engineopts'
// ArenaHint, spec.md §9's "allocator" arena sized up front rather than grown one rehash at a
// time — a program that declares many top-level bindings avoids the repeated map growth).
func NewRuntimeSized(mod *ir.Module, globalsHint int) *Runtime {
	return &Runtime{
		Module:     mod,
		Globals:    make(map[uint32]Value, globalsHint),
		coroutines: map[int]*Coroutine{},
	}
}

// SetSymbolNamer installs a diagnostic-only symbol-to-name function (internal/scope.SymbolTable.
// Name), used only for error messages; no runtime decision depends on it.
func (rt *Runtime) SetSymbolNamer(f func(uint32) string) { rt.symbolName = f }

func (rt *Runtime) nameOf(sym uint32) string {
	if rt.symbolName != nil {
		return rt.symbolName(sym)
	}
	return fmt.Sprintf("#%d", sym)
}

// RegisterHostFunction installs a host function into the global object under name, per spec.md
// §6. The symbol is resolved by the caller (the executor knows the interned Symbol for name);
// here it is addressed directly by its already-interned uint32 id.
func (rt *Runtime) RegisterHostFunction(sym uint32, fn HostFn) {
	rt.arena.closures++
	rt.Globals[sym] = ClosureValue(&Closure{Host: fn})
}

// Get implements the `get(symbol)` runtime-bridge function: global-object accessor.
func (rt *Runtime) Get(sym uint32) Value {
	if v, ok := rt.Globals[sym]; ok {
		return v
	}
	return Undefined
}

// Set implements the `set(symbol, value)` runtime-bridge function.
func (rt *Runtime) Set(sym uint32, v Value) { rt.Globals[sym] = v }

// AllocateCapture implements `create_capture(target)`.
func (rt *Runtime) AllocateCapture(target *Value) *Capture {
	rt.arena.captures++
	return NewCapture(target)
}

// AllocateClosure implements `create_closure(lambda, n)`.
func (rt *Runtime) AllocateClosure(lambda *Lambda, captures []*Capture) *Closure {
	rt.arena.closures++
	return &Closure{Lambda: lambda, Captures: captures}
}

// AllocateCoroutine implements `create_coroutine(closure, nlocals, scratch_len)`. It takes no
// scratch_len, and nlocals comes from the closure's Lambda.NumSlots: this interpreter's
// persisted register map (see coroutine.go) already holds every live value a compiler-sized
// scratch buffer would, so there is no separate byte-packed region to size.
func (rt *Runtime) AllocateCoroutine(closure *Closure, args []Value) *Coroutine {
	rt.arena.coroutines++
	rt.nextCoID++
	co := &Coroutine{
		ID:        rt.nextCoID,
		Closure:   closure,
		Args:      args,
		Slots:     make([]Value, closure.Lambda.NumSlots),
		registers: map[ir.Value]Value{},
	}
	rt.coroutines[co.ID] = co
	return co
}

// RegisterPromise implements `register_promise(coroutine)`: inserts a fresh pending promise and
// returns its id. Promise ids are never reused within a run (spec.md §3), guaranteed here by a
// monotonic slice index.
func (rt *Runtime) RegisterPromise() PromiseID {
	id := PromiseID(len(rt.promises))
	rt.promises = append(rt.promises, &Promise{ID: id, State: PromisePending})
	return id
}

func (rt *Runtime) promise(id PromiseID) *Promise { return rt.promises[id] }

// AwaitPromise implements `await_promise(id, awaiting_id)`: adds a coroutine waiter to id's list.
func (rt *Runtime) AwaitPromise(id PromiseID, coroutineID int) {
	p := rt.promise(id)
	if p.State != PromisePending {
		resumeID := coroutineID
		rt.readyJobs = append(rt.readyJobs, func() { rt.Resume(resumeID) })
		return
	}
	p.Waiters = append(p.Waiters, waiter{coroutineID: coID(coroutineID)})
}

// waiter is one entry of a Promise's FIFO waiter list: either a suspended coroutine to resume, or
// a `.then` callback closure to invoke with the resolved value.
type waiter struct {
	coroutineID coID
	callback    *Closure
}

type coID int

func (c coID) valid() bool { return c != 0 }

// AwaitPromiseWithCallback registers cb to be invoked with id's eventual value — the runtime-
// bridge realization of `Promise.prototype.then`, which this engine's minimal object model
// exposes as a host-backed method value rather than a declared PropertyRef target (see
// loadProperty in object.go).
func (rt *Runtime) AwaitPromiseWithCallback(id PromiseID, cb *Closure) {
	p := rt.promise(id)
	if p.State == PromiseFulfilled {
		v := p.Value
		rt.readyJobs = append(rt.readyJobs, func() { rt.Invoke(cb, []Value{v}) })
		return
	}
	if p.State == PromiseRejected {
		// No distinct onRejected handler in this subset's `.then(fn)` single-argument form;
		// a rejected promise with only a fulfillment callback registered simply never fires it.
		return
	}
	p.Waiters = append(p.Waiters, waiter{callback: cb})
}

// EmitPromiseResolved implements `emit_promise_resolved(id, value)`: transitions id to fulfilled
// and schedules its waiters, preserving spec.md §5's "promise resolution order equals the order
// in which emit_promise_resolved is called" by appending jobs in waiter-list order.
func (rt *Runtime) EmitPromiseResolved(id PromiseID, v Value) {
	p := rt.promise(id)
	if p.State != PromisePending {
		return
	}
	p.State = PromiseFulfilled
	p.Value = v
	rt.scheduleWaiters(p)
}

// RejectPromise is this build's addition for the async-function-throws path spec.md §4.6
// describes only by name ("propagated by returning exception from the current function") without
// giving the promise-side transition its own bridge-function name; `emit_promise_resolved` is
// explicitly fulfillment-only, so rejection needs a sibling.
func (rt *Runtime) RejectPromise(id PromiseID, v Value) {
	p := rt.promise(id)
	if p.State != PromisePending {
		return
	}
	p.State = PromiseRejected
	p.Value = v
	rt.scheduleWaiters(p)
}

func (rt *Runtime) scheduleWaiters(p *Promise) {
	for _, w := range p.Waiters {
		w := w
		if w.coroutineID.valid() {
			rt.readyJobs = append(rt.readyJobs, func() { rt.Resume(int(w.coroutineID)) })
		} else if w.callback != nil {
			rt.readyJobs = append(rt.readyJobs, func() { rt.Invoke(w.callback, []Value{p.Value}) })
		}
	}
	p.Waiters = nil
}

// DrainJobs runs the executor's job queue to quiescence (spec.md §4.6: "while promises remain
// that have both resolved and waiters, pick one and invoke resume(waiter)... when the queue is
// empty, run ends"), in FIFO order; a job may itself enqueue further jobs (a chained `.then` or a
// coroutine resuming into its own next await), so the queue is re-checked every iteration.
func (rt *Runtime) DrainJobs() {
	for len(rt.readyJobs) > 0 {
		job := rt.readyJobs[0]
		rt.readyJobs = rt.readyJobs[1:]
		job()
	}
}
