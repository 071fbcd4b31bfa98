package lexer

import "testing"

func TestBOMStripping(t *testing.T) {
	src := append([]byte{0xEF, 0xBB, 0xBF}, []byte("fn f() {}")...)
	out := Normalize(src)
	if string(out) != "fn f() {}" {
		t.Fatalf("expected BOM stripped, got %q", out)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	src := []byte("const name: string = \"café\"")
	once := Normalize(src)
	twice := Normalize(once)
	if string(once) != string(twice) {
		t.Fatalf("Normalize is not idempotent")
	}
}
