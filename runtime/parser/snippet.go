package parser

import (
	"fmt"
	"strings"

	"github.com/opal-lang/monitext/core/errors"
)

// Snippet renders the source line at line in Rust/Clang style. input is the
// template whose first byte is on startLine. column is the 1-based column of
// the reference to underline; 0 underlines the first reference on the line.
// It returns "" when line is out of range.
//
//	  --> line 2:6
//	   |
//	 2 | $cpu $bad
//	   |      ^^^^
func Snippet(input string, startLine, line, column int) string {
	index := line - startLine
	if input == "" || index < 0 {
		return ""
	}

	lines := strings.Split(input, "\n")
	if index >= len(lines) {
		return ""
	}
	content := strings.TrimRight(lines[index], "\r")

	start := strings.IndexByte(content, '$')
	if column > 0 && column <= len(content) && content[column-1] == '$' {
		start = column - 1
	}

	var b strings.Builder
	if start >= 0 {
		b.WriteString(fmt.Sprintf("  --> line %d:%d\n", line, start+1))
	} else {
		b.WriteString(fmt.Sprintf("  --> line %d\n", line))
	}
	b.WriteString("   |\n")
	b.WriteString(fmt.Sprintf("%3d | %s\n", line, content))
	b.WriteString("   | ")
	if start >= 0 {
		end := referenceEnd(content, start)
		b.WriteString(strings.Repeat(" ", start) + strings.Repeat("^", end-start))
	}

	return b.String()
}

// referenceEnd returns the offset just past the reference starting at the
// '$' at start. An unclosed brace runs to the end of the line.
func referenceEnd(content string, start int) int {
	end := start + 1
	if end < len(content) && content[end] == '{' {
		depth := 0
		for ; end < len(content); end++ {
			switch content[end] {
			case '{':
				depth++
			case '}':
				depth--
			}
			if depth == 0 {
				return end + 1
			}
		}
		return len(content)
	}
	for end < len(content) && (content[end] == '#' || isNameByte(content[end])) {
		end++
	}
	return end
}

// FormatError renders a parse error together with the offending source line.
func FormatError(input string, startLine int, err error) string {
	if err == nil {
		return ""
	}
	snippet := Snippet(input, startLine, errors.LineOf(err), errors.ColumnOf(err))
	if snippet == "" {
		return err.Error()
	}
	return err.Error() + "\n" + snippet
}

func isNameByte(ch byte) bool {
	return ch == '_' || ('a' <= ch && ch <= 'z') || ('A' <= ch && ch <= 'Z') || ('0' <= ch && ch <= '9')
}
