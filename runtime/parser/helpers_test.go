package parser

import (
	"fmt"
	"strings"
	"testing"

	"github.com/opal-lang/monitext/core/errors"
	"github.com/opal-lang/monitext/core/textobj"
)

// testKind is a variable kind whose objects are counted by their constructor.
type testKind struct {
	name string
	role textobj.BlockRole
	c    *testConstructor
}

func (k *testKind) Name() string            { return k.name }
func (k *testKind) Role() textobj.BlockRole { return k.role }

func (k *testKind) Release(obj *textobj.Object) {
	k.c.live--
	if sub, ok := obj.Payload.(textobj.Chain); ok {
		textobj.Teardown(sub)
	}
}

// testConstructor is an allocation-counting Constructor: live is the number
// of constructed objects not yet released.
type testConstructor struct {
	kinds     map[string]*testKind
	calls     []Request
	live      int
	failAfter int             // Fail the nth Construct call (1-based), 0 disables
	none      map[string]bool // Names that deliberately produce no object
}

// newTestConstructor registers names. Names starting with "if_" open blocks,
// "else" splits them and "endif" closes them. "sub" compiles its argument as
// a nested template into its payload.
func newTestConstructor(names ...string) *testConstructor {
	c := &testConstructor{
		kinds: make(map[string]*testKind),
		none:  make(map[string]bool),
	}
	for _, name := range names {
		role := textobj.BlockNone
		switch {
		case strings.HasPrefix(name, "if_"):
			role = textobj.BlockOpen
		case name == "else":
			role = textobj.BlockElse
		case name == "endif":
			role = textobj.BlockClose
		}
		c.kinds[name] = &testKind{name: name, role: role, c: c}
	}
	return c
}

func (c *testConstructor) BlockRole(name string) textobj.BlockRole {
	if k, ok := c.kinds[name]; ok {
		return k.role
	}
	return textobj.BlockNone
}

func (c *testConstructor) Construct(req Request) (*textobj.Object, error) {
	c.calls = append(c.calls, req)

	k, ok := c.kinds[req.Name]
	if !ok {
		return nil, errors.NewUnknownVariableError(req.Name, "")
	}
	if c.failAfter > 0 && len(c.calls) == c.failAfter {
		return nil, fmt.Errorf("$%s: sensor unavailable", req.Name)
	}
	if c.none[req.Name] {
		return nil, nil
	}

	var payload any = req.Arg
	if req.Name == "sub" {
		chain, err := req.Sub(req.Arg)
		if err != nil {
			return nil, err
		}
		payload = chain
	}

	c.live++
	return &textobj.Object{Kind: k, Payload: payload, Line: req.Line}, nil
}

func (c *testConstructor) calledNames() []string {
	names := make([]string, 0, len(c.calls))
	for _, req := range c.calls {
		names = append(names, req.Name)
	}
	return names
}

// parse compiles template with c and an empty environment unless opts
// override it.
func parse(t *testing.T, c *testConstructor, template string, opts ...Opt) (*Result, error) {
	t.Helper()
	base := []Opt{WithConstructor(c), WithEnvMap(nil)}
	return Parse(template, append(base, opts...)...)
}

// shape renders a chain as indented lines for structural comparison.
func shape(chain textobj.Chain) []string {
	var out []string
	chain.Walk(func(depth int, obj *textobj.Object) bool {
		out = append(out, strings.Repeat("  ", depth)+obj.String())
		return true
	})
	return out
}

func warningKinds(ws []Warning) []WarningKind {
	kinds := make([]WarningKind, 0, len(ws))
	for _, w := range ws {
		kinds = append(kinds, w.Kind)
	}
	return kinds
}
