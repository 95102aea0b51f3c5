// ==============================================================================================
// FILE: internal/executor/executor_test.go
// ==============================================================================================
// PACKAGE: executor
// PURPOSE: Drives internal/fixtures' bundled scenarios through the full lex -> parse -> analyze
//          -> JIT -> run pipeline, asserting on captured `print` output — spec.md §8's end-to-end
//          scenarios, the one place nothing shorter than the whole pipeline can stand in for the
//          real behavior.
// ==============================================================================================

package executor

import (
	"bytes"
	"strings"
	"testing"

	"jsengine/internal/engineopts"
	"jsengine/internal/enginelog"
	"jsengine/internal/fixtures"
	"jsengine/internal/parser"
	"jsengine/internal/runtime"
)

func TestEndToEndFixtures(t *testing.T) {
	cases, err := fixtures.Load(fixtures.E2E())
	if err != nil {
		t.Fatalf("fixtures.Load: %v", err)
	}
	if len(cases) == 0 {
		t.Fatal("no fixtures loaded")
	}

	tables, err := parser.BuiltinTables()
	if err != nil {
		t.Fatalf("parser.BuiltinTables: %v", err)
	}

	for _, c := range cases {
		c := c
		t.Run(c.Name, func(t *testing.T) {
			ex := New(tables, engineopts.Default(), enginelog.Discard())

			prog, err := ex.Compile(c.Source)
			if c.ExpectErr != "" {
				if err == nil {
					t.Fatalf("Compile(%q): expected an error, got none", c.Name)
				}
				return
			}
			if err != nil {
				t.Fatalf("Compile(%q): %v", c.Name, err)
			}

			rt := ex.NewRuntime(prog)
			var out bytes.Buffer
			ex.RegisterHost(rt, prog, "print", func(rt *runtime.Runtime, args []runtime.Value) (runtime.Status, runtime.Value) {
				for i, a := range args {
					if i > 0 {
						out.WriteByte(' ')
					}
					out.WriteString(a.String())
				}
				out.WriteByte('\n')
				return runtime.StatusNormal, runtime.Undefined
			})

			if _, _, err := ex.Run(rt, prog, nil); err != nil {
				t.Fatalf("Run(%q): %v", c.Name, err)
			}

			got := strings.TrimSuffix(out.String(), "\n")
			if got != c.Want {
				t.Errorf("%s: output %q, want %q", c.Name, got, c.Want)
			}
		})
	}
}

// TestCompileRejectsUnterminatedString is the same boundary case as the fixture archive's
// unterminated-string entry, pinned directly so a future fixture edit cannot silently drop
// coverage of the parse-error path.
func TestCompileRejectsUnterminatedString(t *testing.T) {
	tables, err := parser.BuiltinTables()
	if err != nil {
		t.Fatalf("parser.BuiltinTables: %v", err)
	}
	ex := New(tables, engineopts.Default(), enginelog.Discard())
	if _, err := ex.Compile("print(\"oops\n"); err == nil {
		t.Fatal("expected a compile error for an unterminated string literal")
	}
}
