// ==============================================================================================
// FILE: internal/executor/executor.go
// ==============================================================================================
// PACKAGE: executor
// PURPOSE: spec.md §4.6's Executor: the source-to-engine boundary's far side. Compile loads,
//          lexes, parses, analyzes and JIT-compiles a program into a ready-to-run internal/ir
//          Module ("program identifier usable with run(program_id, optimize)", per spec.md §6);
//          Run invokes its entry function and drains the job queue to quiescence, the behavior
//          spec.md §4.6's "Executor state machine" describes. Mirrors main.go's runFile — lex,
//          parse, evaluate — generalized from Eloquence's tree-walking single pass to this
//          engine's four-stage compile pipeline plus a separate run step.
// ==============================================================================================

package executor

import (
	"fmt"

	"jsengine/internal/analyzer"
	"jsengine/internal/engineerr"
	"jsengine/internal/enginelog"
	"jsengine/internal/engineopts"
	"jsengine/internal/ir"
	"jsengine/internal/jit"
	"jsengine/internal/parser"
	"jsengine/internal/runtime"
	"jsengine/internal/scope"
)

// Program is the compiled artifact spec.md §6 calls a "program identifier": a finished IR module
// plus the symbol table needed to resolve host-function names and the analyzer's entry function
// id, everything run(program_id, optimize) needs without re-reading source.
type Program struct {
	Module     *ir.Module
	Symbols    *analyzer.Analyzer // kept for its *scope.SymbolTable; see Executor.RegisterHost
	EntryFuncID int
}

// Executor holds the parser tables and the Logger/Options threaded through every call (each
// Runtime is built separately by NewRuntime and passed to Run), per spec.md §9's
// "construct explicitly... no ambient globals" and SPEC_FULL.md §10's logging convention.
type Executor struct {
	opts engineopts.Options
	log  *enginelog.Logger

	tables *parser.Tables
}

// New creates an Executor. tables is the LALR ACTION/GOTO table internal/grammar+internal/lalr
// produce offline (see parser.BuiltinTables for the checked-in default).
func New(tables *parser.Tables, opts engineopts.Options, log *enginelog.Logger) *Executor {
	if log == nil {
		log = enginelog.Discard()
	}
	return &Executor{opts: opts, log: log, tables: tables}
}

// Compile lexes, parses, analyzes and JIT-compiles src into a Program, realizing the source-to-
// engine boundary of spec.md §6 ("Input: source text plus goal... Output: a program identifier
// usable with run(program_id, optimize), or a parse error").
func (ex *Executor) Compile(src string) (*Program, error) {
	ex.log.Debug("compiling", "bytes", len(src), "goal", ex.opts.Goal.String())

	p, err := parser.New(src, ex.tables)
	if err != nil {
		return nil, engineerr.Compilation("constructing parser", err)
	}

	a := analyzer.New()
	if _, err := p.Parse(a); err != nil {
		if se, ok := err.(*parser.SyntaxError); ok {
			return nil, engineerr.Syntax(se.Error(), err)
		}
		return nil, engineerr.Declaration("semantic analysis failed", err)
	}

	if ex.opts.ScopeCheckerEnabled {
		ex.log.Debug("scope tree", "tree", a.Scopes.Dump(scope.Ref(0), a.Symbols))
	}

	records := a.Program()
	inputs := make([]jit.FunctionInput, 0, len(records))
	for _, fr := range records {
		inputs = append(inputs, jit.FunctionInput{
			ID:          fr.ID,
			NumParams:   fr.NumParams,
			NumLocals:   int(fr.NextLocal),
			IsCoroutine: fr.IsCoroutine,
			NumCaptures: len(fr.Captures),
			Commands:    fr.Buf.Commands,
		})
	}

	mod, err := jit.Compile(inputs, jit.Options{
		Optimize:          ex.opts.Optimize,
		ScopeCheckEnabled: ex.opts.ScopeCheckerEnabled,
	})
	if err != nil {
		return nil, engineerr.Compilation("lowering compile commands to IR", err)
	}

	ex.log.Info("compiled", "functions", len(mod.Functions))
	return &Program{Module: mod, Symbols: a, EntryFuncID: 0}, nil
}

// NewRuntime builds a Runtime bound to prog, with diagnostics named through prog's symbol table.
func (ex *Executor) NewRuntime(prog *Program) *runtime.Runtime {
	rt := runtime.NewRuntimeSized(prog.Module, ex.opts.ArenaHint)
	rt.SetSymbolNamer(prog.Symbols.Symbols.Name)
	return rt
}

// RegisterHost installs a host function under name (interned through prog's own symbol table, so
// a reference to name anywhere in the compiled program resolves to this binding — spec.md §6's
// "Host function registration"). Call before Run.
func (ex *Executor) RegisterHost(rt *runtime.Runtime, prog *Program, name string, fn runtime.HostFn) {
	sym := prog.Symbols.Symbols.Intern(name)
	rt.RegisterHostFunction(uint32(sym), fn)
}

// Run invokes prog's entry function with args and drains the job queue to quiescence, per
// spec.md §4.6: "the executor invokes the program's entry function... when the queue is empty,
// run ends." Returns the entry function's own Status/Value in addition to running every promise-
// queue job scheduled along the way.
func (ex *Executor) Run(rt *runtime.Runtime, prog *Program, args []runtime.Value) (runtime.Status, runtime.Value, error) {
	entry := prog.Module.Lookup(prog.EntryFuncID)
	if entry == nil {
		return runtime.StatusException, runtime.Undefined, engineerr.Runtime(fmt.Sprintf("no entry function %d", prog.EntryFuncID), nil)
	}

	closure := runtime.ClosureValue(&runtime.Closure{Lambda: &runtime.Lambda{
		FuncID: entry.ID, NumParams: entry.NumParams, NumSlots: entry.NumSlots,
		IsCoroutine: entry.IsCoroutine, NumCaptures: entry.NumCaptures, Blocks: entry.Blocks,
	}})

	status, val := rt.Invoke(closure.Closure, args)
	rt.DrainJobs()

	if status == runtime.StatusException {
		ex.log.Warn("program raised an uncaught exception", "value", val.String())
		return status, val, engineerr.Runtime("uncaught exception", fmt.Errorf("%s", val.String()))
	}
	return status, val, nil
}
