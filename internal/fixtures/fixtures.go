// ==============================================================================================
// FILE: internal/fixtures/fixtures.go
// ==============================================================================================
// PACKAGE: fixtures
// PURPOSE: Loads the spec.md §8 end-to-end scenarios and small test262-style programs from
//          golang.org/x/tools/txtar archives — one archive bundles many tiny source+expected
//          fixtures in a single human-readable file, the idiomatic Go answer to "many small named
//          text blobs" that the pack's own golang.org/x/tools dependency already provides.
// ==============================================================================================

package fixtures

import (
	_ "embed"
	"fmt"
	"strings"

	"golang.org/x/tools/txtar"
)

// e2eData bundles spec.md §8's six end-to-end scenarios plus a syntax-error boundary case.
// internal/executor's end-to-end test is Load's only caller.
//
//go:embed e2e.txtar
var e2eData []byte

// E2E returns the bundled end-to-end scenario archive, ready for Load.
func E2E() []byte { return e2eData }

// Case is one named fixture: a program and the output or error it is expected to produce.
type Case struct {
	Name    string
	Source  string
	Want    string // expected stdout (host `print` calls, newline-joined), if ExpectErr == ""
	ExpectErr string // non-empty if the fixture expects a parse-error or runtime-error instead
}

// Load parses a txtar archive into a list of Cases. Archive layout: each case is a pair of files
// "<name>/source.js" and "<name>/want.txt" (or "<name>/error.txt" for a fixture expected to fail).
func Load(data []byte) ([]Case, error) {
	arc := txtar.Parse(data)
	byName := map[string]*Case{}
	var order []string

	for _, f := range arc.Files {
		name, kind, ok := splitFixtureName(f.Name)
		if !ok {
			continue
		}
		c, exists := byName[name]
		if !exists {
			c = &Case{Name: name}
			byName[name] = c
			order = append(order, name)
		}
		switch kind {
		case "source.js":
			c.Source = string(f.Data)
		case "want.txt":
			c.Want = strings.TrimSuffix(string(f.Data), "\n")
		case "error.txt":
			c.ExpectErr = strings.TrimSuffix(string(f.Data), "\n")
		}
	}

	cases := make([]Case, 0, len(order))
	for _, name := range order {
		cases = append(cases, *byName[name])
	}
	return cases, nil
}

func splitFixtureName(path string) (name, kind string, ok bool) {
	i := strings.LastIndex(path, "/")
	if i < 0 {
		return "", "", false
	}
	return path[:i], path[i+1:], true
}

// EventType is the test reporter protocol's `type` field, per spec.md §6: "One JSON line per
// event... Event types: start, pass, parse-error, runtime-error, print." Grounded on
// original_source's bins/test262/src/driver.rs for which events a conformance run actually emits.
type EventType string

const (
	EventStart       EventType = "start"
	EventPass        EventType = "pass"
	EventParseError  EventType = "parse-error"
	EventRuntimeError EventType = "runtime-error"
	EventPrint       EventType = "print"
)

// Event is one line of the reporter's JSON line protocol.
type Event struct {
	Type EventType `json:"type"`
	Data EventData `json:"data"`
}

// EventData is the `data` object accompanying every Event; fields not relevant to a given Type
// are left zero.
type EventData struct {
	Timestamp int64  `json:"timestamp"` // Unix milliseconds
	Name      string `json:"name,omitempty"`
	Message   string `json:"message,omitempty"`
}

func (e Event) String() string {
	return fmt.Sprintf("%s %s@%d %s", e.Type, e.Data.Name, e.Data.Timestamp, e.Data.Message)
}
