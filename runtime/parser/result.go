package parser

import (
	"fmt"

	"github.com/opal-lang/monitext/core/textobj"
	"github.com/opal-lang/monitext/runtime/lexer"
)

// Result is a compiled template. The caller owns Chain and must call Release
// (or textobj.Teardown) when done with it.
type Result struct {
	Chain     textobj.Chain
	Warnings  []Warning
	EndLine   int             // Line of the last scanned byte
	Telemetry *ParseTelemetry // nil unless WithTelemetry
}

// Release tears down the compiled chain.
func (r *Result) Release() {
	if r == nil {
		return
	}
	textobj.Teardown(r.Chain)
	r.Chain = nil
}

// HasWarnings reports whether any non-fatal diagnostic was recorded.
func (r *Result) HasWarnings() bool {
	return len(r.Warnings) > 0
}

// WarningKind identifies a non-fatal structural problem.
type WarningKind int

const (
	WarnUnterminatedBlock  WarningKind = iota // Block opener with no end marker
	WarnUnmatchedBlockEnd                     // End marker with no open block
	WarnStrayElse                             // Else marker outside a block
	WarnTruncatedName                         // Reference longer than the name buffer
	WarnEmptyReference                        // $ or ${} without a variable name
	WarnUnterminatedBrace                     // ${ with no matching }
	WarnTemplateTruncated                     // Template longer than the size cap
)

var warningNames = [...]string{
	WarnUnterminatedBlock: "unterminated-block",
	WarnUnmatchedBlockEnd: "unmatched-block-end",
	WarnStrayElse:         "stray-else",
	WarnTruncatedName:     "truncated-name",
	WarnEmptyReference:    "empty-reference",
	WarnUnterminatedBrace: "unterminated-brace",
	WarnTemplateTruncated: "template-truncated",
}

func (k WarningKind) String() string {
	if int(k) >= 0 && int(k) < len(warningNames) {
		return warningNames[k]
	}
	return fmt.Sprintf("WarningKind(%d)", int(k))
}

// Warning represents a non-fatal parse warning with helpful context
type Warning struct {
	Kind       WarningKind
	Message    string // Clear, specific: "one or more $endif's are missing"
	Line       int
	Suggestion string // Actionable fix, may be empty
}

func (w Warning) String() string {
	if w.Suggestion != "" {
		return fmt.Sprintf("line %d: %s (%s)", w.Line, w.Message, w.Suggestion)
	}
	return fmt.Sprintf("line %d: %s", w.Line, w.Message)
}

func fromLexerWarning(w lexer.Warning) Warning {
	kind := WarnEmptyReference
	switch w.Kind {
	case lexer.WarnTruncatedName:
		kind = WarnTruncatedName
	case lexer.WarnUnterminatedBrace:
		kind = WarnUnterminatedBrace
	}
	return Warning{Kind: kind, Message: w.Message, Line: w.Line}
}
