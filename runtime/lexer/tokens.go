package lexer

import "fmt"

// TokenType represents the lexical spans of a display template
type TokenType int

const (
	EOF    TokenType = iota
	TEXT             // Literal run with comments removed and \# collapsed
	DOLLAR           // $$, a literal dollar sign
	REF              // $name or ${name arg}
)

var tokenNames = [...]string{
	EOF:    "EOF",
	TEXT:   "TEXT",
	DOLLAR: "DOLLAR",
	REF:    "REF",
}

func (t TokenType) String() string {
	if int(t) < len(tokenNames) {
		return tokenNames[t]
	}
	return fmt.Sprintf("TokenType(%d)", int(t))
}

// Token is one span of the template.
type Token struct {
	Type TokenType
	Text string // Literal text (TEXT, DOLLAR) or raw source of the reference (REF)
	Name string // REF only, case preserved
	Arg  string // REF only, "" when absent
	Line int    // Line where the span begins

	// REF only: 1-based columns of the '$' and of the argument's first byte
	// (0 when there is no argument).
	Column    int
	ArgColumn int

	// Byte offsets of the span in the scanned input.
	Start int
	End   int
}

func (t Token) String() string {
	switch t.Type {
	case REF:
		if t.Arg != "" {
			return fmt.Sprintf("REF(%s %q)@%d", t.Name, t.Arg, t.Line)
		}
		return fmt.Sprintf("REF(%s)@%d", t.Name, t.Line)
	case EOF:
		return fmt.Sprintf("EOF@%d", t.Line)
	default:
		return fmt.Sprintf("%s(%q)@%d", t.Type, t.Text, t.Line)
	}
}

// WarningKind identifies a recoverable lexical problem.
type WarningKind int

const (
	WarnTruncatedName       WarningKind = iota // Reference text longer than the name buffer
	WarnEmptyReference                         // $ followed by nothing that forms a name
	WarnUnterminatedBrace                      // ${ without a matching }
)

func (k WarningKind) String() string {
	switch k {
	case WarnTruncatedName:
		return "truncated-name"
	case WarnEmptyReference:
		return "empty-reference"
	case WarnUnterminatedBrace:
		return "unterminated-brace"
	default:
		return fmt.Sprintf("WarningKind(%d)", int(k))
	}
}

// Warning is a non-fatal lexical diagnostic.
type Warning struct {
	Kind    WarningKind
	Message string
	Line    int
}
