// Package vars provides the built-in variable kinds: a small standard
// library (host name, clock, files, commands and conditional blocks) so
// templates are useful without any sensor integration.
//
// Importing the package registers every kind in registry.Default().
// Tests and embedders that need a private registry call Register.
package vars

import (
	"context"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/opal-lang/monitext/core/errors"
	"github.com/opal-lang/monitext/runtime/registry"
	"github.com/opal-lang/monitext/runtime/update"
)

// Options wires the built-in kinds to their collaborators.
type Options struct {
	Scheduler *update.Scheduler      // Periodic recomputes for execi
	Now       func() time.Time       // Clock for time
	Hostname  func() (string, error) // Host name for nodename

	// Run executes a shell command for exec and execi and returns stdout.
	Run         func(ctx context.Context, command string) (string, error)
	ExecTimeout time.Duration // Upper bound for one command
}

// DefaultExecTimeout bounds one exec or execi command.
const DefaultExecTimeout = 10 * time.Second

var defaultScheduler = update.NewScheduler()

// DefaultScheduler returns the scheduler used by kinds in registry.Default().
func DefaultScheduler() *update.Scheduler {
	return defaultScheduler
}

func init() {
	if err := Register(registry.Default(), Options{Scheduler: defaultScheduler}); err != nil {
		panic(err)
	}
}

func (o *Options) setDefaults() {
	if o.Scheduler == nil {
		o.Scheduler = defaultScheduler
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Hostname == nil {
		o.Hostname = os.Hostname
	}
	if o.Run == nil {
		o.Run = runShell
	}
	if o.ExecTimeout <= 0 {
		o.ExecTimeout = DefaultExecTimeout
	}
}

// Register adds every built-in kind to r.
func Register(r *registry.Registry, opts Options) error {
	opts.setDefaults()

	kinds := []registry.Kind{
		nodenameKind{hostname: opts.Hostname},
		timeKind{now: opts.Now},
		hrKind{},
		catKind{},
		devnameKind{},
		&execKind{run: opts.Run, timeout: opts.ExecTimeout},
		&execiKind{run: opts.Run, timeout: opts.ExecTimeout, scheduler: opts.Scheduler},
		ifExistingKind{},
		ifEmptyKind{},
		elseKind{},
		endifKind{},
	}
	for _, kind := range kinds {
		if err := r.Register(kind); err != nil {
			return err
		}
	}
	return nil
}

// runShell runs command with sh -c and returns its stdout.
func runShell(ctx context.Context, command string) (string, error) {
	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	out, err := cmd.Output()
	return string(out), err
}

// requireArg fails construction when the reference carried no argument.
func requireArg(req registry.Request, what string) error {
	if !req.HasArg() {
		return errors.NewInvalidArgumentError(req.Name, what+" required").AtLine(req.Line)
	}
	return nil
}

// trimOutput drops one trailing newline, as command output usually ends
// with one the template does not want.
func trimOutput(s string) string {
	s = strings.TrimSuffix(s, "\n")
	return strings.TrimSuffix(s, "\r")
}
