package lexer

import (
	"bytes"

	"golang.org/x/text/unicode/norm"
)

var bomUTF8 = []byte{0xEF, 0xBB, 0xBF}

// Normalize prepares raw source bytes for lexing: it strips a UTF-8 BOM
// when present and applies Unicode NFC normalization, so lexically
// equivalent source produces identical token streams regardless of how the
// file was encoded. Runs once per file, before the lexer sees a byte.
func Normalize(src []byte) []byte {
	src = bytes.TrimPrefix(src, bomUTF8)
	if !norm.NFC.IsNormal(src) {
		src = norm.NFC.Bytes(src)
	}
	return src
}
