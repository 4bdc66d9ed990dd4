package vars

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/opal-lang/monitext/core/errors"
	"github.com/opal-lang/monitext/core/textobj"
	"github.com/opal-lang/monitext/runtime/registry"
	"github.com/opal-lang/monitext/runtime/update"
)

type catKind struct{}

func (catKind) Name() string            { return "cat" }
func (catKind) Role() textobj.BlockRole { return textobj.BlockNone }
func (catKind) Usage() string           { return "${cat FILE}" }
func (catKind) Summary() string         { return "Contents of FILE, read on every render" }

func (k catKind) New(req registry.Request) (*textobj.Object, error) {
	if err := requireArg(req, "file path"); err != nil {
		return nil, err
	}
	return &textobj.Object{Kind: k, Payload: req.Arg, Line: req.Line}, nil
}

func (catKind) Value(obj *textobj.Object) (string, error) {
	data, err := os.ReadFile(obj.Payload.(string))
	if err != nil {
		return "", err
	}
	return trimOutput(string(data)), nil
}

func (catKind) Detail(obj *textobj.Object) string {
	return obj.Payload.(string)
}

type execKind struct {
	run     func(ctx context.Context, command string) (string, error)
	timeout time.Duration
}

func (*execKind) Name() string            { return "exec" }
func (*execKind) Role() textobj.BlockRole { return textobj.BlockNone }
func (*execKind) Usage() string           { return "${exec COMMAND}" }
func (*execKind) Summary() string         { return "Output of a shell command, run on every render" }

func (k *execKind) New(req registry.Request) (*textobj.Object, error) {
	if err := requireArg(req, "command"); err != nil {
		return nil, err
	}
	return &textobj.Object{Kind: k, Payload: req.Arg, Line: req.Line}, nil
}

func (k *execKind) Value(obj *textobj.Object) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), k.timeout)
	defer cancel()

	out, err := k.run(ctx, obj.Payload.(string))
	if err != nil {
		return "", fmt.Errorf("exec %q: %w", obj.Payload.(string), err)
	}
	return trimOutput(out), nil
}

func (*execKind) Detail(obj *textobj.Object) string {
	return obj.Payload.(string)
}

// execiOutput is the last result of a periodic command.
type execiOutput struct {
	command  string
	interval time.Duration

	mu  sync.Mutex
	out string
	err error
}

func (o *execiOutput) set(out string, err error) {
	o.mu.Lock()
	o.out, o.err = trimOutput(out), err
	o.mu.Unlock()
}

func (o *execiOutput) get() (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.out, o.err
}

type execiKind struct {
	run       func(ctx context.Context, command string) (string, error)
	timeout   time.Duration
	scheduler *update.Scheduler
}

func (*execiKind) Name() string            { return "execi" }
func (*execiKind) Role() textobj.BlockRole { return textobj.BlockNone }
func (*execiKind) Usage() string           { return "${execi INTERVAL COMMAND}" }
func (*execiKind) Summary() string {
	return "Output of a shell command, rerun every INTERVAL (seconds or a Go duration)"
}

// New registers the periodic recompute on the object; teardown stops it.
func (k *execiKind) New(req registry.Request) (*textobj.Object, error) {
	if err := requireArg(req, "interval and command"); err != nil {
		return nil, err
	}
	every, command, _ := strings.Cut(req.Arg, " ")
	command = strings.TrimSpace(command)
	if command == "" {
		return nil, errors.NewInvalidArgumentError(req.Name, "command required after the interval").AtLine(req.Line)
	}
	interval, err := parseInterval(every)
	if err != nil {
		return nil, errors.NewInvalidArgumentError(req.Name, err.Error()).AtLine(req.Line)
	}

	state := &execiOutput{command: command, interval: interval}
	obj := &textobj.Object{Kind: k, Payload: state, Line: req.Line}
	obj.Update = k.scheduler.Register(k.Name(), interval, func(ctx context.Context) {
		runCtx, cancel := context.WithTimeout(ctx, k.timeout)
		defer cancel()
		state.set(k.run(runCtx, command))
	})
	return obj, nil
}

func (*execiKind) Value(obj *textobj.Object) (string, error) {
	state := obj.Payload.(*execiOutput)
	out, err := state.get()
	if err != nil {
		return "", fmt.Errorf("execi %q: %w", state.command, err)
	}
	return out, nil
}

func (*execiKind) Detail(obj *textobj.Object) string {
	state := obj.Payload.(*execiOutput)
	return state.interval.String() + " " + state.command
}

// parseInterval accepts plain seconds ("1.5") or a Go duration ("1m30s").
func parseInterval(s string) (time.Duration, error) {
	var d time.Duration
	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		d = time.Duration(secs * float64(time.Second))
	} else if d, err = time.ParseDuration(s); err != nil {
		return 0, fmt.Errorf("invalid interval %q", s)
	}
	if d <= 0 {
		return 0, fmt.Errorf("interval must be positive, got %q", s)
	}
	return d, nil
}
