package token

import "testing"

func TestLookupIdentClassifiesKeywordsOnly(t *testing.T) {
	if got := LookupIdent("function"); got != FUNCTION {
		t.Errorf("LookupIdent(function) = %v, want FUNCTION", got)
	}
	if got := LookupIdent("undefined"); got != UNDEFINED_KW {
		t.Errorf("LookupIdent(undefined) = %v, want UNDEFINED_KW", got)
	}
	if got := LookupIdent("notAKeyword"); got != IDENT {
		t.Errorf("LookupIdent(notAKeyword) = %v, want IDENT", got)
	}
}

func TestIsKeywordBoundaries(t *testing.T) {
	if IsKeyword(keywordsStart) {
		t.Error("the keywordsStart sentinel itself must not count as a keyword")
	}
	if IsKeyword(keywordsEnd) {
		t.Error("the keywordsEnd sentinel itself must not count as a keyword")
	}
	if !IsKeyword(RETURN) {
		t.Error("RETURN must count as a keyword")
	}
	if IsKeyword(IDENT) {
		t.Error("IDENT must not count as a keyword")
	}
}

func TestKindNameCoversEveryKeyword(t *testing.T) {
	for k := keywordsStart + 1; k < keywordsEnd; k++ {
		if KindName(k) == "UNKNOWN" {
			t.Errorf("KindName(%d) has no entry in kindNames", k)
		}
	}
}

func TestTokenStringFormat(t *testing.T) {
	tok := Token{Kind: IDENT, Literal: "x"}
	if got, want := tok.String(), "IDENT(x)"; got != want {
		t.Errorf("Token.String() = %q, want %q", got, want)
	}
}
