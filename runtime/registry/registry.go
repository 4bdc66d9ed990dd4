// Package registry maps lowercased variable names to the kinds that build
// them. It is the single extension point through which data sources plug
// into the template compiler.
package registry

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/opal-lang/monitext/core/errors"
	"github.com/opal-lang/monitext/core/textobj"
)

// Request carries one resolved reference to a kind's constructor.
type Request struct {
	Name string // Lowercased variable name
	Arg  string // Argument with leading whitespace trimmed, "" when absent
	Line int    // Source line of the reference

	// ParseSub compiles a template fragment with the caller's options,
	// starting at Line. Nil outside a parse.
	ParseSub func(template string) (textobj.Chain, error)
}

// HasArg reports whether the reference carried an argument.
func (r Request) HasArg() bool {
	return r.Arg != ""
}

// Sub compiles template as a nested chain. It fails when the request was
// built outside a parse.
func (r Request) Sub(template string) (textobj.Chain, error) {
	if r.ParseSub == nil {
		return nil, fmt.Errorf("$%s: sub-templates are not available outside a parse", r.Name)
	}
	return r.ParseSub(template)
}

// Kind is a variable kind that can construct objects.
//
// New returns (nil, nil) when the reference deliberately contributes
// nothing. On error New must release anything it allocated itself.
type Kind interface {
	textobj.Kind
	New(req Request) (*textobj.Object, error)
}

// Describer is optionally implemented by kinds for tooling output.
type Describer interface {
	Usage() string   // e.g. "${exec COMMAND}"
	Summary() string // One-line description
}

// Descriptor describes a registered kind.
type Descriptor struct {
	Name    string
	Role    textobj.BlockRole
	Usage   string
	Summary string
}

// Registry holds registered variable kinds.
// Uses the database/sql driver registration pattern.
type Registry struct {
	mu    sync.RWMutex
	kinds map[string]Kind // lowercased name -> kind
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		kinds: make(map[string]Kind),
	}
}

// Global registry instance (database/sql pattern)
var global = NewRegistry()

// Default returns the process-wide registry populated by init-time Register calls.
func Default() *Registry {
	return global
}

// Register adds a kind to the global registry.
//
// Example:
//
//	func init() {
//	    registry.MustRegister(nodenameKind{})
//	    registry.MustRegister(execKind{})
//	}
func Register(kind Kind) error {
	return global.Register(kind)
}

// MustRegister is Register that panics on error, for init functions.
func MustRegister(kind Kind) {
	if err := global.Register(kind); err != nil {
		panic(err)
	}
}

// Register adds kind under its name. Names must be lowercase and unique.
func (r *Registry) Register(kind Kind) error {
	if kind == nil {
		return fmt.Errorf("registry: nil kind")
	}
	name := kind.Name()
	if name == "" {
		return fmt.Errorf("registry: kind has an empty name")
	}
	if name != strings.ToLower(name) {
		return fmt.Errorf("registry: kind name %q must be lowercase", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.kinds[name]; exists {
		return fmt.Errorf("registry: kind %q already registered", name)
	}
	r.kinds[name] = kind
	return nil
}

// Lookup retrieves a kind by its lowercased name.
func (r *Registry) Lookup(name string) (Kind, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kind, ok := r.kinds[name]
	return kind, ok
}

// Names returns all registered names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.kinds))
	for name := range r.kinds {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// BlockRole classifies name for block matching. Unknown names are BlockNone.
func (r *Registry) BlockRole(name string) textobj.BlockRole {
	kind, ok := r.Lookup(name)
	if !ok {
		return textobj.BlockNone
	}
	return kind.Role()
}

// Construct builds the object for req. Unknown names fail with an
// ErrUnknownVariable error carrying a "did you mean" suggestion when one is
// close enough.
func (r *Registry) Construct(req Request) (*textobj.Object, error) {
	kind, ok := r.Lookup(req.Name)
	if !ok {
		return nil, errors.NewUnknownVariableError(req.Name, r.Suggest(req.Name))
	}

	obj, err := kind.New(req)
	if err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, nil
	}
	if obj.Kind == nil {
		obj.Kind = kind
	}
	if obj.Line == 0 {
		obj.Line = req.Line
	}
	return obj, nil
}

// Export returns descriptors for all registered kinds, sorted by name (for
// tooling/docs).
func (r *Registry) Export() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	descriptors := make([]Descriptor, 0, len(r.kinds))
	for name, kind := range r.kinds {
		desc := Descriptor{Name: name, Role: kind.Role()}
		if d, ok := kind.(Describer); ok {
			desc.Usage = d.Usage()
			desc.Summary = d.Summary()
		}
		descriptors = append(descriptors, desc)
	}
	sort.Slice(descriptors, func(i, j int) bool {
		return descriptors[i].Name < descriptors[j].Name
	})
	return descriptors
}
