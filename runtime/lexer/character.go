package lexer

// ASCII character lookup tables for fast classification (zero-allocation)
//
// Use inline bounds-checked lookups:
//
//	if ch < 128 && isNamePart[ch] { ... }
//
// Bytes >= 128 never belong to a bare variable name, so no unicode fallback
// is needed.
var (
	isSpace    [128]bool // C isspace: space, \t, \n, \v, \f, \r
	isLetter   [128]bool // a-z, A-Z
	isDigit    [128]bool // 0-9
	isNamePart [128]bool // Letter, digit or _
)

func init() {
	for i := 0; i < 128; i++ {
		ch := byte(i)

		isSpace[i] = ch == ' ' || ch == '\t' || ch == '\n' || ch == '\v' || ch == '\f' || ch == '\r'
		isLetter[i] = ('a' <= ch && ch <= 'z') || ('A' <= ch && ch <= 'Z')
		isDigit[i] = '0' <= ch && ch <= '9'
		isNamePart[i] = isLetter[i] || isDigit[i] || ch == '_'
	}
}

// Bare reference names: $[#][A-Za-z0-9_]*
//
// The optional leading # is a sigil used by a handful of variables. Brace
// references accept anything up to the matching close brace.

// isBareNameByte reports whether ch continues a bare $name.
func isBareNameByte(ch byte) bool {
	return ch < 128 && isNamePart[ch]
}

// trimLeftSpace removes leading C-locale whitespace.
func trimLeftSpace(s string) string {
	i := 0
	for i < len(s) && s[i] < 128 && isSpace[s[i]] {
		i++
	}
	return s[i:]
}
