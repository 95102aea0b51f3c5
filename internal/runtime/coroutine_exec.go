// ==============================================================================================
// FILE: internal/runtime/coroutine_exec.go
// ==============================================================================================
// PACKAGE: runtime
// PURPOSE: Driving a coroutine-flagged Lambda through the shared `run` loop: spawning it on first
//          call (spec.md §8 scenario 4's `async function f(){...}`, which must synchronously
//          return a promise regardless of whether its body ever actually suspends) and resuming
//          it later from the executor's job queue once an awaited promise resolves.
// ==============================================================================================

package runtime

func (rt *Runtime) spawnCoroutine(closure *Closure, args []Value) (Status, Value) {
	co := rt.AllocateCoroutine(closure, args)
	co.State = CoroutineRunning
	ownID := rt.RegisterPromise()
	co.ownPromise = ownID

	st := &execState{args: args, slots: co.Slots, captures: closure.Captures, registers: co.registers}
	status, val, resume := rt.run(closure.Lambda.Blocks, st, closure.Lambda.Blocks[0].ID, 0)
	rt.settleCoroutine(co, st, status, val, resume)
	return StatusNormal, PromiseValue(ownID)
}

// Resume implements the `resume(id)` runtime-bridge function: drives a suspended coroutine from
// its saved point until its next suspension or completion.
func (rt *Runtime) Resume(id int) {
	co := rt.coroutines[id]
	if co == nil || co.State != CoroutineSuspended {
		return
	}
	co.State = CoroutineRunning

	block := blockByID(co.Closure.Lambda.Blocks, co.resume.block)
	resolved := rt.promise(awaitedPromiseOf(co)).Value
	awaitInstr := block.Instrs[co.resume.instr-1]
	co.registers[awaitInstr.Dst] = resolved

	st := &execState{args: co.Args, slots: co.Slots, captures: co.Closure.Captures, registers: co.registers, handlers: co.handlers}
	status, val, resume := rt.run(co.Closure.Lambda.Blocks, st, co.resume.block, co.resume.instr)
	rt.settleCoroutine(co, st, status, val, resume)
}

func (rt *Runtime) settleCoroutine(co *Coroutine, st *execState, status Status, val Value, resume resumePoint) {
	switch status {
	case StatusSuspend:
		co.State = CoroutineSuspended
		co.resume = resume
		co.handlers = st.handlers
		co.awaiting = val.Promise
		rt.AwaitPromise(val.Promise, co.ID)
	case StatusException:
		co.State = CoroutineDone
		co.Err = val
		rt.RejectPromise(co.ownPromise, val)
	default:
		co.State = CoroutineDone
		co.Result = val
		rt.EmitPromiseResolved(co.ownPromise, val)
	}
}

func awaitedPromiseOf(co *Coroutine) PromiseID { return co.awaiting }
