// ==============================================================================================
// FILE: internal/source/source.go
// ==============================================================================================
// PACKAGE: source
// PURPOSE: spec.md §6's "Source-to-engine boundary": loads program text (and, offline, a grammar
//          table file) through github.com/viant/afs, the way viant-linager's repository/detector.go
//          reads a go.mod off disk via fs.DownloadWithURL — generalized here from "read one repo
//          file" to "read one script, from a local path, an in-memory fixture, or an unchanged
//          remote object-store URL, without internal/lexer or internal/parser caring which."
// ==============================================================================================

package source

import (
	"context"
	"fmt"

	"github.com/viant/afs"
)

// Loader resolves program and grammar-table text from any afs-supported location (local path,
// mem://, s3://, gs://, ...).
type Loader struct {
	fs afs.Service
}

// New creates a Loader backed by afs's default service registry.
func New() *Loader {
	return &Loader{fs: afs.New()}
}

// LoadProgram reads the source text at url, per spec.md §6's "Input: source text plus goal."
func (l *Loader) LoadProgram(ctx context.Context, url string) (string, error) {
	data, err := l.fs.DownloadWithURL(ctx, url)
	if err != nil {
		return "", fmt.Errorf("source: loading program %q: %w", url, err)
	}
	return string(data), nil
}

// LoadGrammarTable reads a precomputed LALR table (internal/parser.Tables' JSON form, produced
// offline by internal/grammar+internal/lalr) from url, so a build can ship a prebuilt table
// instead of recomputing the LALR automaton at process start.
func (l *Loader) LoadGrammarTable(ctx context.Context, url string) ([]byte, error) {
	data, err := l.fs.DownloadWithURL(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("source: loading grammar table %q: %w", url, err)
	}
	return data, nil
}
