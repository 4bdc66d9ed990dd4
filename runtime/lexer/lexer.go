// Package lexer splits a display template into literal runs and variable
// references in a single forward pass. Comments are stripped inline and line
// numbers are tracked across every consumed newline, including newlines
// inside comments and inside ${...}.
package lexer

import (
	"bytes"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/opal-lang/monitext/core/invariant"
)

// DefaultMaxNameLength bounds the captured text of one reference.
const DefaultMaxNameLength = 256

// LexerOpt represents a lexer configuration option
type LexerOpt func(*LexerConfig)

// LexerConfig holds lexer configuration
type LexerConfig struct {
	maxNameLength int
	startLine     int
	startColumn   int
	telemetry     bool
}

// WithMaxNameLength bounds the captured text of a reference. Longer text is
// truncated and a WarnTruncatedName warning is recorded.
func WithMaxNameLength(n int) LexerOpt {
	return func(c *LexerConfig) {
		c.maxNameLength = n
	}
}

// WithStartLine sets the line number of the first byte of input.
func WithStartLine(line int) LexerOpt {
	return func(c *LexerConfig) {
		c.startLine = line
	}
}

// WithStartColumn sets the column of the first byte of input on its line,
// for input that begins mid-line.
func WithStartColumn(column int) LexerOpt {
	return func(c *LexerConfig) {
		c.startColumn = column
	}
}

// WithTelemetry enables token and comment counters.
func WithTelemetry() LexerOpt {
	return func(c *LexerConfig) {
		c.telemetry = true
	}
}

// Telemetry holds lexer counters (nil when disabled)
type Telemetry struct {
	TokenCounts      map[TokenType]int
	CommentsStripped int
	BytesStripped    int
	Truncations      int
	Duration         time.Duration
}

// Lexer tokenizes one template.
type Lexer struct {
	input    []byte
	position int
	line     int

	maxNameLength int
	startLine     int
	startColumn   int

	text     strings.Builder // Pending literal run
	textLine int
	textPos  int

	tokens   []Token
	warnings []Warning

	telemetry *Telemetry
}

// NewLexer creates a new lexer instance with optional configuration
func NewLexer(input string, opts ...LexerOpt) *Lexer {
	config := &LexerConfig{
		maxNameLength: DefaultMaxNameLength,
		startLine:     1,
		startColumn:   1,
	}
	for _, opt := range opts {
		opt(config)
	}

	invariant.Positive(config.maxNameLength, "max name length")
	invariant.Positive(config.startLine, "start line")
	invariant.Positive(config.startColumn, "start column")

	l := &Lexer{
		maxNameLength: config.maxNameLength,
		startLine:     config.startLine,
		startColumn:   config.startColumn,
	}
	if config.telemetry {
		l.telemetry = &Telemetry{TokenCounts: make(map[TokenType]int)}
	}

	l.Init([]byte(input))
	return l
}

// Init resets the lexer with new input (following Go scanner pattern)
func (l *Lexer) Init(input []byte) {
	l.input = input
	l.position = 0
	l.line = l.startLine
	l.text.Reset()
	l.tokens = l.tokens[:0]
	l.warnings = l.warnings[:0]

	if l.telemetry != nil {
		l.telemetry = &Telemetry{TokenCounts: make(map[TokenType]int)}
	}
}

// GetTokens scans the whole input and returns its spans in source order,
// terminated by an EOF token carrying the final line number.
func (l *Lexer) GetTokens() []Token {
	var start time.Time
	if l.telemetry != nil {
		start = time.Now()
	}

	for l.position < len(l.input) {
		before := l.position
		l.lexSpan()
		invariant.Invariant(l.position > before, "lexer stuck at offset %d", before)
	}
	l.flushText(len(l.input))
	l.emit(Token{Type: EOF, Line: l.line, Start: len(l.input), End: len(l.input)})

	if l.telemetry != nil {
		l.telemetry.Duration = time.Since(start)
	}

	tokens := make([]Token, len(l.tokens))
	copy(tokens, l.tokens)
	return tokens
}

// Warnings returns the diagnostics recorded by the last GetTokens call.
func (l *Lexer) Warnings() []Warning {
	if len(l.warnings) == 0 {
		return nil
	}
	result := make([]Warning, len(l.warnings))
	copy(result, l.warnings)
	return result
}

// Line returns the current line; after GetTokens it is the line of the last
// byte scanned.
func (l *Lexer) Line() int {
	return l.line
}

// GetTelemetry returns a copy of the counters, or nil when disabled.
func (l *Lexer) GetTelemetry() *Telemetry {
	if l.telemetry == nil {
		return nil
	}
	result := *l.telemetry
	result.TokenCounts = make(map[TokenType]int, len(l.telemetry.TokenCounts))
	for k, v := range l.telemetry.TokenCounts {
		result.TokenCounts[k] = v
	}
	return &result
}

// lexSpan consumes at least one byte of input.
func (l *Lexer) lexSpan() {
	ch := l.input[l.position]

	switch {
	case ch == '\\' && l.peek(1) == '#':
		l.appendText('#')
		l.position += 2

	case ch == '#':
		end, newline := skipComment(l.input, l.position)
		if l.telemetry != nil {
			l.telemetry.CommentsStripped++
			l.telemetry.BytesStripped += end - l.position
		}
		l.position = end
		if newline {
			l.line++
		}

	case ch == '$':
		l.lexDollar()

	default:
		l.appendText(ch)
		l.position++
		if ch == '\n' {
			l.line++
		}
	}
}

// lexDollar handles $$, ${...} and bare $name at l.position.
func (l *Lexer) lexDollar() {
	start := l.position
	line := l.line

	switch l.peek(1) {
	case '$':
		l.flushText(start)
		l.position += 2
		l.emit(Token{Type: DOLLAR, Text: "$", Line: line, Start: start, End: l.position})
		return

	case '{':
		l.lexBraceRef(start, line)
		return
	}

	pos := start + 1
	if pos < len(l.input) && l.input[pos] == '#' {
		pos++
	}
	for pos < len(l.input) && isBareNameByte(l.input[pos]) {
		pos++
	}

	if pos == start+1 {
		l.warn(WarnEmptyReference, line, "'$' is not followed by a variable name; kept as text")
		l.appendText('$')
		l.position++
		return
	}

	l.position = pos
	l.emitRef(string(l.input[start+1:pos]), start, line)
}

// lexBraceRef captures ${...} using a brace-depth counter so literal braces
// may nest inside the argument.
func (l *Lexer) lexBraceRef(start, line int) {
	depth := 1
	pos := start + 2
	newlines := 0
	for ; pos < len(l.input); pos++ {
		switch l.input[pos] {
		case '{':
			depth++
		case '}':
			depth--
		case '\n':
			newlines++
		}
		if depth == 0 {
			break
		}
	}

	if depth != 0 {
		l.warn(WarnUnterminatedBrace, line, "'${' has no matching '}'; kept as text")
		for _, ch := range l.input[start:] {
			l.appendText(ch)
		}
		l.position = len(l.input)
		l.line += newlines
		return
	}

	l.position = pos + 1
	l.line += newlines
	l.emitRef(string(l.input[start+2:pos]), start, line)
}

// emitRef splits captured text into name and argument at the first space.
func (l *Lexer) emitRef(captured string, start, line int) {
	if len(captured) > l.maxNameLength {
		cut := l.maxNameLength
		for cut > 0 && !utf8.RuneStart(captured[cut]) {
			cut--
		}
		l.warn(WarnTruncatedName, line,
			fmt.Sprintf("reference %q exceeds %d bytes and was truncated", abbreviate(captured), l.maxNameLength))
		if l.telemetry != nil {
			l.telemetry.Truncations++
		}
		captured = captured[:cut]
	}

	capStart := start + 1
	if l.input[capStart] == '{' {
		capStart++
	}

	name, arg, argColumn := captured, "", 0
	if i := strings.IndexByte(captured, ' '); i >= 0 {
		name = captured[:i]
		rest := captured[i+1:]
		arg = trimLeftSpace(rest)
		if arg != "" {
			argColumn = l.column(capStart + i + 1 + len(rest) - len(arg))
		}
	}

	if name == "" {
		l.warn(WarnEmptyReference, line, "reference has an empty variable name; kept as text")
		l.textAppend(string(l.input[start:l.position]), line, start)
		return
	}

	l.flushText(start)
	l.emit(Token{
		Type:      REF,
		Text:      string(l.input[start:l.position]),
		Name:      name,
		Arg:       arg,
		Line:      line,
		Column:    l.column(start),
		ArgColumn: argColumn,
		Start:     start,
		End:       l.position,
	})
}

// column returns the 1-based column of offset on its source line.
func (l *Lexer) column(offset int) int {
	nl := bytes.LastIndexByte(l.input[:offset], '\n')
	if nl < 0 {
		return l.startColumn + offset
	}
	return offset - nl
}

func (l *Lexer) peek(offset int) byte {
	if l.position+offset < len(l.input) {
		return l.input[l.position+offset]
	}
	return 0
}

func (l *Lexer) appendText(ch byte) {
	if l.text.Len() == 0 {
		l.textLine = l.line
		l.textPos = l.position
	}
	l.text.WriteByte(ch)
}

func (l *Lexer) textAppend(s string, line, pos int) {
	if l.text.Len() == 0 {
		l.textLine = line
		l.textPos = pos
	}
	l.text.WriteString(s)
}

// flushText emits the pending literal run ending at offset end. Empty runs
// are never emitted.
func (l *Lexer) flushText(end int) {
	if l.text.Len() == 0 {
		return
	}
	l.emit(Token{Type: TEXT, Text: l.text.String(), Line: l.textLine, Start: l.textPos, End: end})
	l.text.Reset()
}

func (l *Lexer) emit(tok Token) {
	l.tokens = append(l.tokens, tok)
	if l.telemetry != nil {
		l.telemetry.TokenCounts[tok.Type]++
	}
}

func (l *Lexer) warn(kind WarningKind, line int, message string) {
	l.warnings = append(l.warnings, Warning{Kind: kind, Message: message, Line: line})
}

func abbreviate(s string) string {
	const limit = 24
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
