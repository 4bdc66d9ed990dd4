package vars

import (
	"strconv"
	"strings"
	"time"

	"github.com/lestrrat-go/strftime"

	"github.com/opal-lang/monitext/core/errors"
	"github.com/opal-lang/monitext/core/textobj"
	"github.com/opal-lang/monitext/runtime/registry"
)

// DefaultTimeFormat is used by $time without an argument.
const DefaultTimeFormat = "%F %T"

// maxRuleWidth caps ${hr N}.
const maxRuleWidth = 1024

type nodenameKind struct {
	hostname func() (string, error)
}

func (nodenameKind) Name() string            { return "nodename" }
func (nodenameKind) Role() textobj.BlockRole { return textobj.BlockNone }
func (nodenameKind) Usage() string           { return "$nodename" }
func (nodenameKind) Summary() string         { return "Host name of the machine" }

func (k nodenameKind) New(req registry.Request) (*textobj.Object, error) {
	return &textobj.Object{Kind: k, Line: req.Line}, nil
}

func (k nodenameKind) Value(*textobj.Object) (string, error) {
	return k.hostname()
}

type timeKind struct {
	now func() time.Time
}

func (timeKind) Name() string            { return "time" }
func (timeKind) Role() textobj.BlockRole { return textobj.BlockNone }
func (timeKind) Usage() string           { return "${time [FORMAT]}" }
func (timeKind) Summary() string         { return "Local time formatted with strftime (default %F %T)" }

// New compiles the format once so bad patterns fail at parse time.
func (k timeKind) New(req registry.Request) (*textobj.Object, error) {
	pattern := req.Arg
	if pattern == "" {
		pattern = DefaultTimeFormat
	}
	f, err := strftime.New(pattern)
	if err != nil {
		return nil, errors.NewInvalidArgumentError(req.Name, "bad time format").
			AtLine(req.Line).
			WithContext("format", pattern)
	}
	return &textobj.Object{Kind: k, Payload: f, Line: req.Line}, nil
}

func (k timeKind) Value(obj *textobj.Object) (string, error) {
	f := obj.Payload.(*strftime.Strftime)
	return f.FormatString(k.now()), nil
}

func (timeKind) Detail(obj *textobj.Object) string {
	return obj.Payload.(*strftime.Strftime).Pattern()
}

type hrKind struct{}

func (hrKind) Name() string            { return "hr" }
func (hrKind) Role() textobj.BlockRole { return textobj.BlockNone }
func (hrKind) Usage() string           { return "${hr [WIDTH]}" }
func (hrKind) Summary() string         { return "Horizontal rule of WIDTH dashes (default 1)" }

func (k hrKind) New(req registry.Request) (*textobj.Object, error) {
	width := 1
	if req.HasArg() {
		n, err := strconv.Atoi(strings.TrimSpace(req.Arg))
		if err != nil || n < 1 || n > maxRuleWidth {
			return nil, errors.NewInvalidArgumentError(req.Name,
				"width must be a number between 1 and "+strconv.Itoa(maxRuleWidth)).AtLine(req.Line)
		}
		width = n
	}
	return &textobj.Object{Kind: k, Payload: strings.Repeat("-", width), Line: req.Line}, nil
}

func (hrKind) Value(obj *textobj.Object) (string, error) {
	return obj.Payload.(string), nil
}
