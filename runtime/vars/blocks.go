package vars

import (
	"bytes"
	"os"
	"strings"

	"github.com/opal-lang/monitext/core/textobj"
	"github.com/opal-lang/monitext/runtime/registry"
)

// existingCond is the payload of ${if_existing PATH [TEXT]}.
type existingCond struct {
	path string
	text string // Optional content the file must contain
}

type ifExistingKind struct{}

func (ifExistingKind) Name() string            { return "if_existing" }
func (ifExistingKind) Role() textobj.BlockRole { return textobj.BlockOpen }
func (ifExistingKind) Usage() string           { return "${if_existing PATH [TEXT]}" }
func (ifExistingKind) Summary() string {
	return "Block shown when PATH exists (and contains TEXT, if given)"
}

func (k ifExistingKind) New(req registry.Request) (*textobj.Object, error) {
	if err := requireArg(req, "path"); err != nil {
		return nil, err
	}
	path, text, _ := strings.Cut(req.Arg, " ")
	return &textobj.Object{
		Kind:    k,
		Payload: existingCond{path: path, text: strings.TrimSpace(text)},
		Line:    req.Line,
	}, nil
}

func (ifExistingKind) Evaluate(obj *textobj.Object, _ func(textobj.Chain) (string, error)) (bool, error) {
	cond := obj.Payload.(existingCond)
	if cond.text == "" {
		_, err := os.Stat(cond.path)
		return err == nil, nil
	}
	data, err := os.ReadFile(cond.path)
	if err != nil {
		return false, nil
	}
	return bytes.Contains(data, []byte(cond.text)), nil
}

func (ifExistingKind) Detail(obj *textobj.Object) string {
	cond := obj.Payload.(existingCond)
	if cond.text == "" {
		return cond.path
	}
	return cond.path + " " + cond.text
}

// ifEmptyKind compiles its argument as a nested template. The compiled
// argument lives in the payload; Sub stays reserved for the block body.
type ifEmptyKind struct{}

func (ifEmptyKind) Name() string            { return "if_empty" }
func (ifEmptyKind) Role() textobj.BlockRole { return textobj.BlockOpen }
func (ifEmptyKind) Usage() string           { return "${if_empty TEMPLATE}" }
func (ifEmptyKind) Summary() string         { return "Block shown when TEMPLATE renders to nothing" }

func (k ifEmptyKind) New(req registry.Request) (*textobj.Object, error) {
	if err := requireArg(req, "template"); err != nil {
		return nil, err
	}
	arg, err := req.Sub(req.Arg)
	if err != nil {
		return nil, err
	}
	return &textobj.Object{Kind: k, Payload: arg, Line: req.Line}, nil
}

// Release tears down the compiled argument.
func (ifEmptyKind) Release(obj *textobj.Object) {
	if arg, ok := obj.Payload.(textobj.Chain); ok {
		textobj.Teardown(arg)
	}
}

func (ifEmptyKind) Evaluate(obj *textobj.Object, render func(textobj.Chain) (string, error)) (bool, error) {
	arg, _ := obj.Payload.(textobj.Chain)
	out, err := render(arg)
	if err != nil {
		return false, err
	}
	return out == "", nil
}

type elseKind struct{}

func (elseKind) Name() string            { return "else" }
func (elseKind) Role() textobj.BlockRole { return textobj.BlockElse }
func (elseKind) Usage() string           { return "$else" }
func (elseKind) Summary() string         { return "Splits a block into its true and false branches" }

func (k elseKind) New(req registry.Request) (*textobj.Object, error) {
	return &textobj.Object{Kind: k, Line: req.Line}, nil
}

type endifKind struct{}

func (endifKind) Name() string            { return "endif" }
func (endifKind) Role() textobj.BlockRole { return textobj.BlockClose }
func (endifKind) Usage() string           { return "$endif" }
func (endifKind) Summary() string         { return "Closes the innermost open block" }

// New is never reached through the compiler, which consumes closers while
// matching blocks.
func (endifKind) New(registry.Request) (*textobj.Object, error) {
	return nil, nil
}
