package lexer

import "testing"

func TestNextToken(t *testing.T) {
	input := `fn add(a: int64, b: int64): int64 { return a + b }`

	tests := []struct {
		expectedType    TokenType
		expectedLiteral string
	}{
		{FN, "fn"}, {IDENT, "add"}, {LPAREN, "("},
		{IDENT, "a"}, {COLON, ":"}, {IDENT, "int64"}, {COMMA, ","},
		{IDENT, "b"}, {COLON, ":"}, {IDENT, "int64"}, {RPAREN, ")"},
		{COLON, ":"}, {IDENT, "int64"}, {LBRACE, "{"},
		{RETURN, "return"}, {IDENT, "a"}, {PLUS, "+"}, {IDENT, "b"},
		{RBRACE, "}"}, {EOF, ""},
	}

	l := New(input, "test.src")
	for i, tt := range tests {
		tok := l.NextToken()
		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%s, got=%s", i, tt.expectedType, tok.Type)
		}
		if tok.Literal != tt.expectedLiteral {
			t.Fatalf("tests[%d] - literal wrong. expected=%q, got=%q", i, tt.expectedLiteral, tok.Literal)
		}
	}
}

func TestLineAndColumn(t *testing.T) {
	input := "fn f() {\n  x\n}"
	l := New(input, "f.src")
	var last Token
	for {
		tok := l.NextToken()
		if tok.Type == EOF {
			break
		}
		last = tok
	}
	if last.Type != RBRACE || last.Line != 3 {
		t.Fatalf("expected final token on line 3, got %+v", last)
	}
}

func TestComments(t *testing.T) {
	input := "// a comment\nfn f() { x }"
	l := New(input, "f.src")
	tok := l.NextToken()
	if tok.Type != FN {
		t.Fatalf("expected comment to be skipped, got %s", tok.Type)
	}
}
