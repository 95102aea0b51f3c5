// ==============================================================================================
// FILE: cmd/jsengine/main.go
// ==============================================================================================
// PACKAGE: main
// PURPOSE: The engine CLI driver spec.md §1 explicitly scopes out as "a serious subsystem" — a
//          thin script-mode/REPL-mode dispatcher generalizing main.go's runFile/repl.Start split
//          from Eloquence's tree-walking pipeline to this engine's compile-then-run pipeline, and
//          the one place spec.md §7's "Compiler assertions are never caught" policy is honored at
//          the process boundary: a *engineerr.CompilerBug panic is recovered here and reported as
//          an engine bug instead of crashing the process silently.
// ==============================================================================================

package main

import (
	"bufio"
	"context"
	"fmt"
	"os"

	"jsengine/internal/engineerr"
	"jsengine/internal/enginelog"
	"jsengine/internal/engineopts"
	"jsengine/internal/executor"
	"jsengine/internal/parser"
	"jsengine/internal/runtime"
	"jsengine/internal/source"
)

func main() {
	os.Exit(run())
}

// run implements spec.md §6's exit-code contract: 0 success, 1 fatal engine error, 2 usage error.
func run() (code int) {
	defer func() {
		if r := recover(); r != nil {
			if bug, ok := r.(*engineerr.CompilerBug); ok {
				fmt.Fprintf(os.Stderr, "jsengine: internal compiler error: %v\n", bug)
			} else {
				fmt.Fprintf(os.Stderr, "jsengine: internal error: %v\n", r)
			}
			code = 1
		}
	}()

	if len(os.Args) > 2 {
		fmt.Fprintln(os.Stderr, "usage: jsengine [file.js]")
		return 2
	}

	tables, err := parser.BuiltinTables()
	if err != nil {
		fmt.Fprintf(os.Stderr, "jsengine: loading grammar tables: %v\n", err)
		return 1
	}

	log := enginelog.Default()
	ex := executor.New(tables, engineopts.New(), log)

	if len(os.Args) > 1 {
		return runFile(ex, os.Args[1])
	}
	runREPL(ex, os.Stdin, os.Stdout)
	return 0
}

func runFile(ex *executor.Executor, path string) int {
	loader := source.New()
	src, err := loader.LoadProgram(context.Background(), path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "jsengine: %v\n", err)
		return 1
	}

	prog, err := ex.Compile(src)
	if err != nil {
		fmt.Fprintf(os.Stderr, "jsengine: %v\n", err)
		return 1
	}

	rt := ex.NewRuntime(prog)
	registerBuiltins(ex, rt, prog, os.Stdout)

	if _, _, err := ex.Run(rt, prog, nil); err != nil {
		fmt.Fprintf(os.Stderr, "jsengine: %v\n", err)
		return 1
	}
	return 0
}

// registerBuiltins wires the host functions spec.md §8's scenarios depend on (`print`), per
// spec.md §6's "Host function registration" boundary.
func registerBuiltins(ex *executor.Executor, rt *runtime.Runtime, prog *executor.Program, out *os.File) {
	ex.RegisterHost(rt, prog, "print", func(rt *runtime.Runtime, args []runtime.Value) (runtime.Status, runtime.Value) {
		for i, a := range args {
			if i > 0 {
				fmt.Fprint(out, " ")
			}
			fmt.Fprint(out, a.String())
		}
		fmt.Fprintln(out)
		return runtime.StatusNormal, runtime.Undefined
	})
}

// runREPL compiles and runs each line as its own program, the engine's closest analog to
// Eloquence's persistent-environment REPL — this engine's symbol table and globals are scoped
// per compiled Program rather than carried across lines, since a coroutine/promise-registry
// runtime has no natural notion of "append one more top-level statement to an already-running
// program."
func runREPL(ex *executor.Executor, in *os.File, out *os.File) {
	fmt.Fprintln(out, "jsengine — type an expression, or .exit to quit")
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, ">> ")
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		if line == ".exit" {
			return
		}
		if line == "" {
			continue
		}

		prog, err := ex.Compile(line)
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			continue
		}
		rt := ex.NewRuntime(prog)
		registerBuiltins(ex, rt, prog, out)
		if _, _, err := ex.Run(rt, prog, nil); err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
		}
	}
}
