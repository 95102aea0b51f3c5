package runtime

import (
	"testing"

	"jsengine/internal/ir"
)

// buildAsyncReturn42 builds a one-block coroutine function: `return 42;` with no await at all,
// the minimal case of spec.md §8 scenario 4 (`async function f(){ return 42; } f().then(print);`).
func buildAsyncReturn42() *ir.Function {
	f := ir.NewFunction(0, 0, 0, 0, true)
	b := f.EntryBlock()
	v := f.Emit(b, ir.Instr{Op: ir.OpConstNumber, Number: 42})
	f.Emit(b, ir.Instr{Op: ir.OpReturn, Args: []ir.Value{v}})
	return f
}

func TestSpawnCoroutineReturnsPromiseSynchronously(t *testing.T) {
	fn := buildAsyncReturn42()
	mod := &ir.Module{Functions: []*ir.Function{fn}}
	rt := NewRuntime(mod)

	closure := &Closure{Lambda: &Lambda{FuncID: fn.ID, IsCoroutine: true, Blocks: fn.Blocks}}
	status, val := rt.Invoke(closure, nil)

	if status != StatusNormal {
		t.Fatalf("spawning a coroutine must return StatusNormal synchronously, got %v", status)
	}
	if val.Kind != KindPromise {
		t.Fatalf("expected a promise value, got %v", val.Kind)
	}

	p := rt.promise(val.Promise)
	if p.State != PromiseFulfilled {
		t.Fatalf("a coroutine that never awaits must settle synchronously, got state %v", p.State)
	}
	if p.Value.Number != 42 {
		t.Fatalf("expected resolved value 42, got %v", p.Value)
	}
}

func TestPromiseThenInvokesCallbackOnDrain(t *testing.T) {
	fn := buildAsyncReturn42()
	mod := &ir.Module{Functions: []*ir.Function{fn}}
	rt := NewRuntime(mod)

	closure := &Closure{Lambda: &Lambda{FuncID: fn.ID, IsCoroutine: true, Blocks: fn.Blocks}}
	_, promiseVal := rt.Invoke(closure, nil)

	thenFn := rt.loadProperty(promiseVal, "then")
	if thenFn.Kind != KindClosure {
		t.Fatalf("expected .then to be a closure, got %v", thenFn.Kind)
	}

	var captured Value
	recorder := &Closure{Host: func(rt *Runtime, args []Value) (Status, Value) {
		captured = args[0]
		return StatusNormal, Undefined
	}}

	rt.Invoke(thenFn.Closure, []Value{ClosureValue(recorder)})
	rt.DrainJobs()

	if captured.Number != 42 {
		t.Fatalf("expected .then callback to observe 42, got %v", captured)
	}
}
