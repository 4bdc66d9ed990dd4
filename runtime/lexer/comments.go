package lexer

import "strings"

// skipComment returns the offset just past the comment starting at
// input[pos] == '#'. The comment runs through the next newline inclusive, or
// to the end of input. newline reports whether a newline was consumed.
func skipComment(input []byte, pos int) (end int, newline bool) {
	for end = pos; end < len(input); end++ {
		if input[end] == '\n' {
			return end + 1, true
		}
	}
	return end, false
}

// StripComments removes every #-to-end-of-line comment from s, newline
// included, and collapses each \# to a literal #. It returns the compacted
// string and the number of bytes removed. s is never modified.
//
//	StripComments("a\\#b#c\nd") == "a#bd", 4
func StripComments(s string) (string, int) {
	if strings.IndexByte(s, '#') < 0 {
		return s, 0
	}

	input := []byte(s)
	var out strings.Builder
	out.Grow(len(input))

	for pos := 0; pos < len(input); {
		ch := input[pos]
		switch {
		case ch == '\\' && pos+1 < len(input) && input[pos+1] == '#':
			out.WriteByte('#')
			pos += 2
		case ch == '#':
			pos, _ = skipComment(input, pos)
		default:
			out.WriteByte(ch)
			pos++
		}
	}

	return out.String(), len(input) - out.Len()
}
