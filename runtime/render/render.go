// Package render turns a compiled chain into text. Plain text is copied
// verbatim, value kinds supply their current value and block kinds choose
// between the two halves of their body split at the first top-level $else.
//
// Render only reads the tree; ownership stays with the caller.
package render

import (
	"fmt"
	"strings"

	"github.com/opal-lang/monitext/core/textobj"
)

// Valuer is implemented by kinds that produce text.
type Valuer interface {
	Value(obj *textobj.Object) (string, error)
}

// Conditional is implemented by block-opening kinds. render renders any
// chain the condition owns, such as a compiled argument.
type Conditional interface {
	Evaluate(obj *textobj.Object, render func(textobj.Chain) (string, error)) (bool, error)
}

// Error reports a kind that failed while rendering.
type Error struct {
	Name string
	Line int
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("line %d: $%s: %v", e.Line, e.Name, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Render renders chain. It stops at the first failing object.
func Render(chain textobj.Chain) (string, error) {
	var b strings.Builder
	if err := renderChain(&b, chain); err != nil {
		return "", err
	}
	return b.String(), nil
}

func renderChain(b *strings.Builder, chain textobj.Chain) error {
	for _, obj := range chain {
		if err := renderObject(b, obj); err != nil {
			return err
		}
	}
	return nil
}

func renderObject(b *strings.Builder, obj *textobj.Object) error {
	if obj == nil || obj.Kind == nil {
		return nil
	}
	if obj.IsPlainText() {
		b.WriteString(obj.Text())
		return nil
	}

	switch obj.Kind.Role() {
	case textobj.BlockOpen:
		return renderBlock(b, obj)
	case textobj.BlockElse, textobj.BlockClose:
		// Markers outside a block body render nothing.
		return nil
	}

	v, ok := obj.Kind.(Valuer)
	if !ok {
		return nil
	}
	s, err := v.Value(obj)
	if err != nil {
		return &Error{Name: obj.Kind.Name(), Line: obj.Line, Err: err}
	}
	b.WriteString(s)
	return nil
}

func renderBlock(b *strings.Builder, obj *textobj.Object) error {
	then, otherwise := Split(obj.Sub)

	cond, ok := obj.Kind.(Conditional)
	if !ok {
		return renderChain(b, then)
	}
	truth, err := cond.Evaluate(obj, Render)
	if err != nil {
		return &Error{Name: obj.Kind.Name(), Line: obj.Line, Err: err}
	}
	if truth {
		return renderChain(b, then)
	}
	return renderChain(b, otherwise)
}

// Split divides a block body at its first top-level else marker. The marker
// itself belongs to neither half. Nested blocks keep their own markers in
// their own sub-chains.
func Split(body textobj.Chain) (then, otherwise textobj.Chain) {
	for i, obj := range body {
		if obj != nil && obj.Kind != nil && obj.Kind.Role() == textobj.BlockElse {
			return body[:i], body[i+1:]
		}
	}
	return body, nil
}
