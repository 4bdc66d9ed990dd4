// Package textobj defines the compiled form of a display template: a tree of
// text objects, each either literal text or an instance of a registered
// variable kind, optionally owning a nested chain for block bodies.
//
// Ownership is strict. A chain exclusively owns its objects, an object
// exclusively owns its sub-chain, payload and update registration, and
// Teardown is the only way any of them is released.
package textobj

import "fmt"

// BlockRole classifies a variable kind for block matching.
type BlockRole int

const (
	BlockNone  BlockRole = iota // Plain value, no block structure
	BlockOpen                   // Opens a block whose body becomes the sub-chain (if_*)
	BlockElse                   // Splits a block body (else)
	BlockClose                  // Closes the innermost open block (endif)
)

func (r BlockRole) String() string {
	switch r {
	case BlockNone:
		return "none"
	case BlockOpen:
		return "open"
	case BlockElse:
		return "else"
	case BlockClose:
		return "close"
	default:
		return fmt.Sprintf("BlockRole(%d)", int(r))
	}
}

// Kind identifies the behaviour of an object. Every variable kind implements
// it once; objects point at their kind.
type Kind interface {
	Name() string
	Role() BlockRole
}

// Releaser is implemented by kinds whose payload holds resources that must be
// freed explicitly (open files, child processes, buffers shared with a
// backend). Release is called once per object during Teardown.
type Releaser interface {
	Release(obj *Object)
}

// Registration is an owned handle to a periodic recompute. Release must be
// idempotent.
type Registration interface {
	Release()
}

// Object is one compiled node.
type Object struct {
	Kind    Kind
	Payload any          // Literal string for plain text, kind-specific otherwise
	Sub     Chain        // Owned body; nil when the body is empty
	Update  Registration // Owned periodic update, may be nil
	Line    int          // 1-based line where the node begins
}

// Chain is an ordered sequence of sibling objects in template order.
type Chain []*Object

type plainText struct{}

func (plainText) Name() string    { return "text" }
func (plainText) Role() BlockRole { return BlockNone }

// PlainText is the kind of literal text objects.
var PlainText Kind = plainText{}

// NewPlainText returns a literal text object, or nil when s is empty.
func NewPlainText(s string, line int) *Object {
	if s == "" {
		return nil
	}
	return &Object{Kind: PlainText, Payload: s, Line: line}
}

// IsPlainText reports whether o is literal text.
func (o *Object) IsPlainText() bool {
	return o.Kind == PlainText
}

// Text returns the literal text of a plain text object, or "".
func (o *Object) Text() string {
	if !o.IsPlainText() {
		return ""
	}
	s, _ := o.Payload.(string)
	return s
}

// Role returns the block role of the object's kind.
func (o *Object) Role() BlockRole {
	if o.Kind == nil {
		return BlockNone
	}
	return o.Kind.Role()
}

// String renders a compact debug form: "text(\"abc\")@1" or "if_existing[2]@3".
func (o *Object) String() string {
	if o.Kind == nil {
		return "<released>"
	}
	if o.IsPlainText() {
		return fmt.Sprintf("text(%q)@%d", o.Text(), o.Line)
	}
	if len(o.Sub) > 0 {
		return fmt.Sprintf("%s[%d]@%d", o.Kind.Name(), len(o.Sub), o.Line)
	}
	return fmt.Sprintf("%s@%d", o.Kind.Name(), o.Line)
}

// Walk visits every object depth-first in template order, parents before
// their sub-chains. Returning false from fn stops the walk.
func (c Chain) Walk(fn func(depth int, obj *Object) bool) {
	c.walk(0, fn)
}

func (c Chain) walk(depth int, fn func(int, *Object) bool) bool {
	for _, obj := range c {
		if !fn(depth, obj) {
			return false
		}
		if !obj.Sub.walk(depth+1, fn) {
			return false
		}
	}
	return true
}

// Count returns the number of objects in c including all sub-chains.
func (c Chain) Count() int {
	n := 0
	c.Walk(func(int, *Object) bool {
		n++
		return true
	})
	return n
}
