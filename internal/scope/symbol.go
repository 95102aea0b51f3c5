// ==============================================================================================
// FILE: internal/scope/symbol.go
// ==============================================================================================
// PACKAGE: scope
// PURPOSE: The global symbol table of spec.md §3: "A symbol is an interned identifier (unique
//          small integer)." Interning is keyed by HighwayHash rather than hash/fnv — the same
//          fast-hash choice viant-linager makes for its own identifier-heavy indexing — since
//          every identifier token in a program passes through here exactly once.
// ==============================================================================================

package scope

import (
	"sync"

	"github.com/minio/highwayhash"
)

// Symbol is an interned identifier: a small dense integer, per spec.md §3.
type Symbol uint32

// hashKey is a fixed, arbitrary 32-byte HighwayHash key. It does not need to be secret (symbol
// interning is not a security boundary) — only stable for the lifetime of one engine process,
// which a package-level constant guarantees.
var hashKey = [32]byte{
	0x6a, 0x09, 0xe6, 0x67, 0xf3, 0xbc, 0xc9, 0x08,
	0xbb, 0x67, 0xae, 0x85, 0x84, 0xca, 0xa7, 0x3b,
	0x3c, 0x6e, 0xf3, 0x72, 0xfe, 0x94, 0xf8, 0x2b,
	0xa5, 0x4f, 0xf5, 0x3a, 0x5f, 0x1d, 0x36, 0xf1,
}

// SymbolTable interns identifier names into dense Symbol ids. One SymbolTable is shared across
// an entire parse (spec.md §4.3: "the global symbol table (interning)" is one of the four things
// the semantic analyzer owns).
type SymbolTable struct {
	mu      sync.Mutex
	byHash  map[uint64][]internedName
	names   []string
}

type internedName struct {
	name   string
	symbol Symbol
}

// NewSymbolTable returns an empty table.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{byHash: make(map[uint64][]internedName)}
}

// Intern returns the Symbol for name, allocating a fresh one on first sight.
func (t *SymbolTable) Intern(name string) Symbol {
	t.mu.Lock()
	defer t.mu.Unlock()

	h := highwayhash.Sum64([]byte(name), hashKey[:])
	for _, candidate := range t.byHash[h] {
		if candidate.name == name {
			return candidate.symbol
		}
	}
	sym := Symbol(len(t.names))
	t.names = append(t.names, name)
	t.byHash[h] = append(t.byHash[h], internedName{name: name, symbol: sym})
	return sym
}

// Name returns the original spelling of sym; used only for diagnostics (error messages, the
// scope-tree Dump).
func (t *SymbolTable) Name(sym Symbol) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if int(sym) < len(t.names) {
		return t.names[sym]
	}
	return "<unknown>"
}
