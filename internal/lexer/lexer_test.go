package lexer

import (
	"testing"

	"jsengine/internal/token"
)

func TestNextTokenKeywordVsIdentifier(t *testing.T) {
	l := New("let x = 1;")
	kinds := []token.Kind{}
	for {
		tok := l.NextToken(token.InputElementDiv)
		if tok.Kind == token.EOF {
			break
		}
		kinds = append(kinds, tok.Kind)
	}
	want := []token.Kind{token.LET, token.IDENT, token.ASSIGN, token.NUMBER, token.SEMI}
	if len(kinds) != len(want) {
		t.Fatalf("got %d tokens, want %d: %v", len(kinds), len(want), kinds)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("token %d: got %v, want %v", i, kinds[i], want[i])
		}
	}
}

func TestNextTokenRegExpGoalSensitivity(t *testing.T) {
	l := New("/ab/g")
	tok := l.NextToken(token.InputElementRegExp)
	if tok.Kind != token.REGEXP {
		t.Fatalf("with InputElementRegExp goal, '/' must start a RegExp literal, got %v", tok.Kind)
	}
	if tok.Literal != "/ab/g" {
		t.Errorf("regexp literal = %q, want \"/ab/g\"", tok.Literal)
	}

	l2 := New("/ 2")
	tok2 := l2.NextToken(token.InputElementDiv)
	if tok2.Kind != token.SLASH {
		t.Fatalf("with InputElementDiv goal, '/' must be division, got %v", tok2.Kind)
	}
}

func TestNextTokenPunctuatorMaximalMunch(t *testing.T) {
	cases := []struct {
		src  string
		want token.Kind
	}{
		{"===", token.SEQ},
		{"==", token.EQ},
		{"=", token.ASSIGN},
		{">>>=", token.USHR_ASSIGN},
		{">>>", token.USHR},
		{">>", token.SHR},
		{"=>", token.ARROW},
		{"??=", token.QQ_ASSIGN},
	}
	for _, c := range cases {
		tok := New(c.src).NextToken(token.InputElementDiv)
		if tok.Kind != c.want {
			t.Errorf("NextToken(%q) = %v, want %v", c.src, tok.Kind, c.want)
		}
		if tok.Literal != c.src {
			t.Errorf("NextToken(%q).Literal = %q, want %q", c.src, tok.Literal, c.src)
		}
	}
}

func TestNextTokenStringEscapes(t *testing.T) {
	tok := New(`"a\nbA"`).NextToken(token.InputElementDiv)
	if tok.Kind != token.STRING {
		t.Fatalf("expected STRING, got %v", tok.Kind)
	}
	if want := "a\nbA"; tok.Literal != want {
		t.Errorf("string literal = %q, want %q", tok.Literal, want)
	}
}

func TestNextTokenUnterminatedStringIsIllegal(t *testing.T) {
	tok := New(`"abc`).NextToken(token.InputElementDiv)
	if tok.Kind != token.ILLEGAL {
		t.Fatalf("expected ILLEGAL for an unterminated string, got %v", tok.Kind)
	}
}

func TestNextTokenNumberForms(t *testing.T) {
	cases := []struct {
		src  string
		want float64
	}{
		{"0x1F", 31},
		{"0o17", 15},
		{"0b101", 5},
		{"3.25", 3.25},
		{"1e3", 1000},
	}
	for _, c := range cases {
		tok := New(c.src).NextToken(token.InputElementDiv)
		if tok.Kind != token.NUMBER {
			t.Fatalf("NextToken(%q).Kind = %v, want NUMBER", c.src, tok.Kind)
		}
		if tok.NumberValue != c.want {
			t.Errorf("NextToken(%q).NumberValue = %v, want %v", c.src, tok.NumberValue, c.want)
		}
	}
}

func TestNextTokenPrecededByLineTerminator(t *testing.T) {
	l := New("a\nb")
	first := l.NextToken(token.InputElementDiv)
	if first.PrecededByLineTerminator {
		t.Error("the first token must not be marked as preceded by a line terminator")
	}
	second := l.NextToken(token.InputElementDiv)
	if !second.PrecededByLineTerminator {
		t.Error("a token after a newline must be marked PrecededByLineTerminator")
	}
}

func TestNextTokenSkipsCommentsAsTrivia(t *testing.T) {
	l := New("// line comment\n/* block */ x")
	tok := l.NextToken(token.InputElementDiv)
	if tok.Kind != token.IDENT || tok.Literal != "x" {
		t.Fatalf("expected IDENT(x) after skipping comments, got %v", tok)
	}
}
