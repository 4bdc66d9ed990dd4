package parser

import (
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/opal-lang/monitext/core/textobj"
	"github.com/opal-lang/monitext/runtime/lexer"
	"github.com/opal-lang/monitext/runtime/registry"
)

// DefaultMaxTemplateSize mirrors the default max_user_text: templates are cut
// to one byte less than this before scanning.
const DefaultMaxTemplateSize = 16384

// Request is the construction request handed to a Constructor.
type Request = registry.Request

// Constructor is the variable-kind capability the compiler depends on.
//
// Construct returns (nil, nil) when a reference deliberately contributes
// nothing. BlockRole classifies a lowercased name for block matching without
// constructing anything. *registry.Registry implements Constructor.
type Constructor interface {
	Construct(req Request) (*textobj.Object, error)
	BlockRole(name string) textobj.BlockRole
}

// EnvLookup reads a process environment variable.
type EnvLookup func(name string) (string, bool)

// Opt represents a parser configuration option
type Opt func(*Config)

// Config holds parser configuration
type Config struct {
	maxNameLength   int
	startLine       int
	maxTemplateSize int
	constructor     Constructor
	env             EnvLookup
	logger          zerolog.Logger
	telemetry       bool
}

func newConfig(opts []Opt) *Config {
	c := &Config{
		maxNameLength:   lexer.DefaultMaxNameLength,
		startLine:       1,
		maxTemplateSize: DefaultMaxTemplateSize,
		constructor:     registry.Default(),
		env:             os.LookupEnv,
		logger:          zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithMaxNameLength bounds the captured text of one reference (the text
// buffer size). Longer references are truncated with a warning.
func WithMaxNameLength(n int) Opt {
	return func(c *Config) {
		c.maxNameLength = n
	}
}

// WithStartLine sets the source line of the template's first byte.
func WithStartLine(line int) Opt {
	return func(c *Config) {
		c.startLine = line
	}
}

// WithMaxTemplateSize caps the template at n-1 bytes. Zero disables the cap.
func WithMaxTemplateSize(n int) Opt {
	return func(c *Config) {
		c.maxTemplateSize = n
	}
}

// WithConstructor replaces the default global registry.
func WithConstructor(constructor Constructor) Opt {
	return func(c *Config) {
		c.constructor = constructor
	}
}

// WithEnv replaces os.LookupEnv for environment shadowing.
func WithEnv(env EnvLookup) Opt {
	return func(c *Config) {
		c.env = env
	}
}

// WithEnvMap shadows variables from a fixed map instead of the process
// environment.
func WithEnvMap(vars map[string]string) Opt {
	return WithEnv(func(name string) (string, bool) {
		v, ok := vars[name]
		return v, ok
	})
}

// WithLogger routes parse diagnostics to logger.
func WithLogger(logger zerolog.Logger) Opt {
	return func(c *Config) {
		c.logger = logger
	}
}

// WithTelemetry enables ParseTelemetry on the result.
func WithTelemetry() Opt {
	return func(c *Config) {
		c.telemetry = true
	}
}

// ParseTelemetry holds parser performance metrics (production-safe)
type ParseTelemetry struct {
	LexTime          time.Duration // Time spent lexing
	BuildTime        time.Duration // Time spent resolving and building
	TotalTime        time.Duration // Total parse time
	TokenCount       int           // Tokens across every lexed fragment
	ObjectCount      int           // Objects in the final tree
	Constructed      int           // Successful constructor calls
	EnvHits          int           // References shadowed by the environment
	CommentsStripped int           // Comments removed by the lexer
	MaxBlockDepth    int           // Deepest block nesting seen
}
