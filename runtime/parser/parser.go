// Package parser compiles a macro-expanded display template into a tree of
// text objects.
//
// The pipeline is: comment stripping and scanning (runtime/lexer), then
// resolution of each reference (environment first, then the variable-kind
// constructor), then building the chain with block bodies compiled
// recursively into sub-chains. A constructor failure aborts the parse and
// tears down everything built so far; structural problems are reported as
// warnings next to a still usable chain.
package parser

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/opal-lang/monitext/core/errors"
	"github.com/opal-lang/monitext/core/invariant"
	"github.com/opal-lang/monitext/core/textobj"
	"github.com/opal-lang/monitext/runtime/lexer"
)

// parser holds the state shared by one Parse call and every fragment it
// compiles recursively (block bodies and argument sub-templates).
type parser struct {
	cfg       *Config
	logger    zerolog.Logger
	warnings  []Warning
	telemetry *ParseTelemetry
}

// Parse compiles template. On success the caller owns the returned chain. On
// failure the error is an object-creation *errors.Error carrying the variable
// name and source line, and nothing built during the call survives.
func Parse(template string, opts ...Opt) (*Result, error) {
	cfg := newConfig(opts)
	invariant.Positive(cfg.maxNameLength, "max name length")
	invariant.Positive(cfg.startLine, "start line")
	invariant.Precondition(cfg.maxTemplateSize >= 0, "max template size must not be negative")
	invariant.NotNil(cfg.constructor, "constructor")
	invariant.NotNil(cfg.env, "environment lookup")

	p := &parser{
		cfg:    cfg,
		logger: cfg.logger.With().Str("component", "parser").Logger(),
	}
	if cfg.telemetry {
		p.telemetry = &ParseTelemetry{}
	}

	start := time.Now()

	if limit := cfg.maxTemplateSize - 1; cfg.maxTemplateSize > 0 && len(template) > limit {
		cut := limit
		for cut > 0 && !utf8.RuneStart(template[cut]) {
			cut--
		}
		p.warn(Warning{
			Kind:       WarnTemplateTruncated,
			Message:    fmt.Sprintf("template is %d bytes, truncated to %d", len(template), cut),
			Line:       cfg.startLine,
			Suggestion: "increase max_user_text",
		})
		template = template[:cut]
	}

	chain, endLine, err := p.compile(template, cfg.startLine, 1)
	if err != nil {
		p.logger.Debug().Err(err).Int("line", errors.LineOf(err)).Msg("parse aborted")
		return nil, err
	}

	result := &Result{
		Chain:    chain,
		Warnings: p.warnings,
		EndLine:  endLine,
	}
	if p.telemetry != nil {
		p.telemetry.TotalTime = time.Since(start)
		p.telemetry.BuildTime = p.telemetry.TotalTime - p.telemetry.LexTime
		p.telemetry.ObjectCount = chain.Count()
		result.Telemetry = p.telemetry
	}

	p.logger.Debug().
		Int("objects", chain.Count()).
		Int("warnings", len(p.warnings)).
		Int("end_line", endLine).
		Msg("template compiled")

	return result, nil
}

// compile runs the whole pipeline over one fragment whose first byte is at
// startLine and startColumn. It returns the chain and the line of the last byte scanned.
func (p *parser) compile(template string, startLine, startColumn int) (textobj.Chain, int, error) {
	lexStart := time.Now()
	lx := lexer.NewLexer(template, p.lexerOptions(startLine, startColumn)...)
	tokens := lx.GetTokens()

	if p.telemetry != nil {
		p.telemetry.LexTime += time.Since(lexStart)
		p.telemetry.TokenCount += len(tokens)
		p.telemetry.CommentsStripped += lx.GetTelemetry().CommentsStripped
	}

	for _, w := range lx.Warnings() {
		warning := fromLexerWarning(w)
		if warning.Kind == WarnTruncatedName {
			warning.Suggestion = "increase text_buffer_size; the truncated name may match a different variable"
		}
		p.warn(warning)
	}

	eof := tokens[len(tokens)-1]
	invariant.Postcondition(eof.Type == lexer.EOF, "token stream must end with EOF")

	chain, err := p.build(tokens[:len(tokens)-1], 0)
	if err != nil {
		return nil, 0, err
	}
	return chain, eof.Line, nil
}

// lexerOptions configures the scanner for one fragment. Lexer counters are
// only kept while parse telemetry is on.
func (p *parser) lexerOptions(startLine, startColumn int) []lexer.LexerOpt {
	opts := []lexer.LexerOpt{
		lexer.WithMaxNameLength(p.cfg.maxNameLength),
		lexer.WithStartLine(startLine),
		lexer.WithStartColumn(startColumn),
	}
	if p.telemetry != nil {
		opts = append(opts, lexer.WithTelemetry())
	}
	return opts
}

// build turns a token run into a chain. depth is the block nesting of the run
// within the current fragment. On error every object built by this call has
// been torn down and the returned chain is nil.
func (p *parser) build(tokens []lexer.Token, depth int) (chain textobj.Chain, err error) {
	defer func() {
		if err != nil {
			textobj.Teardown(chain)
			chain = nil
		}
	}()

	if p.telemetry != nil && depth > p.telemetry.MaxBlockDepth {
		p.telemetry.MaxBlockDepth = depth
	}

	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]

		if tok.Type != lexer.REF {
			if obj := textobj.NewPlainText(tok.Text, tok.Line); obj != nil {
				chain = append(chain, obj)
			}
			continue
		}

		switch p.classify(tok) {
		case textobj.BlockClose:
			p.warn(Warning{
				Kind:    WarnUnmatchedBlockEnd,
				Message: fmt.Sprintf("$%s without a matching block opener", strings.ToLower(tok.Name)),
				Line:    tok.Line,
			})

		case textobj.BlockElse:
			if depth == 0 {
				p.warn(Warning{
					Kind:    WarnStrayElse,
					Message: fmt.Sprintf("$%s outside of a block", strings.ToLower(tok.Name)),
					Line:    tok.Line,
				})
				continue
			}
			obj, err := p.resolve(tok)
			if err != nil {
				return chain, err
			}
			if obj != nil {
				chain = append(chain, obj)
			}

		case textobj.BlockOpen:
			end, closed := p.matchBlock(tokens, i)
			if !closed {
				p.warn(Warning{
					Kind:       WarnUnterminatedBlock,
					Message:    "one or more $endif's are missing",
					Line:       tok.Line,
					Suggestion: fmt.Sprintf("close $%s with $endif", strings.ToLower(tok.Name)),
				})
			}

			obj, err := p.buildBlock(tok, tokens[i+1:end], depth)
			if err != nil {
				return chain, err
			}
			if obj != nil {
				chain = append(chain, obj)
			}
			i = end

		default:
			obj, err := p.resolve(tok)
			if err != nil {
				return chain, err
			}
			if obj != nil {
				chain = append(chain, obj)
			}
		}
	}

	return chain, nil
}

// buildBlock constructs a block opener and compiles body into its sub-chain.
// A suppressed opener drops its body unbuilt.
func (p *parser) buildBlock(tok lexer.Token, body []lexer.Token, depth int) (*textobj.Object, error) {
	obj, err := p.resolve(tok)
	if err != nil || obj == nil {
		return nil, err
	}

	sub, err := p.build(body, depth+1)
	if err != nil {
		textobj.Release(obj)
		return nil, err
	}
	if len(sub) > 0 {
		obj.Sub = append(obj.Sub, sub...)
	}
	return obj, nil
}

// matchBlock returns the index of the end marker closing the opener at
// tokens[open], counting nested openers. When there is none it returns
// len(tokens) and false, so the body runs to the end of the fragment.
func (p *parser) matchBlock(tokens []lexer.Token, open int) (int, bool) {
	depth := 1
	for j := open + 1; j < len(tokens); j++ {
		if tokens[j].Type != lexer.REF {
			continue
		}
		switch p.classify(tokens[j]) {
		case textobj.BlockOpen:
			depth++
		case textobj.BlockClose:
			depth--
			if depth == 0 {
				return j, true
			}
		}
	}
	return len(tokens), false
}

// classify asks the constructor for the block role of a reference. Names
// shadowed by the environment are plain text and never block markers.
func (p *parser) classify(tok lexer.Token) textobj.BlockRole {
	if _, ok := p.cfg.env(tok.Name); ok {
		return textobj.BlockNone
	}
	return p.cfg.constructor.BlockRole(strings.ToLower(tok.Name))
}

// resolve turns one reference into an object: the environment wins, then the
// lowercased name goes to the constructor. A nil object with a nil error
// means the reference contributes nothing.
func (p *parser) resolve(tok lexer.Token) (*textobj.Object, error) {
	if value, ok := p.cfg.env(tok.Name); ok {
		if p.telemetry != nil {
			p.telemetry.EnvHits++
		}
		return textobj.NewPlainText(value, tok.Line), nil
	}

	name := strings.ToLower(tok.Name)
	obj, err := p.cfg.constructor.Construct(Request{
		Name:     name,
		Arg:      tok.Arg,
		Line:     tok.Line,
		ParseSub: p.subParser(tok),
	})
	if err != nil {
		if !errors.IsObjectCreation(err) {
			err = errors.NewObjectCreationError(name, tok.Line, err).AtColumn(tok.Column)
		}
		return nil, err
	}
	if obj == nil {
		return nil, nil
	}

	if obj.Line == 0 {
		obj.Line = tok.Line
	}
	if p.telemetry != nil {
		p.telemetry.Constructed++
	}
	p.logger.Trace().Str("variable", name).Int("line", tok.Line).Msg("object constructed")
	return obj, nil
}

// subParser compiles the argument of ref as a nested template starting at
// the argument's position. Warnings join the enclosing parse.
func (p *parser) subParser(ref lexer.Token) func(string) (textobj.Chain, error) {
	column := max(ref.ArgColumn, 1)
	return func(template string) (textobj.Chain, error) {
		chain, _, err := p.compile(template, ref.Line, column)
		return chain, err
	}
}

func (p *parser) warn(w Warning) {
	p.warnings = append(p.warnings, w)
	p.logger.Warn().
		Str("kind", w.Kind.String()).
		Int("line", w.Line).
		Msg(w.Message)
}
