// ==============================================================================================
// FILE: internal/esgrammar/esgrammar.go
// ==============================================================================================
// PACKAGE: esgrammar
// PURPOSE: Embeds the grammar input file (spec.md §6) for the ECMAScript subset this engine
//          implements, so internal/parser can build its LALR tables without a separate
//          install-time asset.
// ==============================================================================================

package esgrammar

import _ "embed"

//go:embed es_subset.yaml
var Source []byte

// GoalSymbol is the augmented grammar's start symbol (spec.md §4.2: "the augmented goal").
const GoalSymbol = "Program"
