// Package objfmt is the canonical, serializable form of a compiled template.
//
// A compiled chain holds live payloads (open formatters, update handles)
// that cannot be serialized. Canonicalize reduces it to plain data: kind
// names, block roles, lines, literal text and an optional per-kind detail.
// The canonical form is what the CLI dumps and what Fingerprint hashes.
package objfmt

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"golang.org/x/crypto/blake2b"

	"github.com/opal-lang/monitext/core/textobj"
)

// Version of the canonical format. Bump when the encoding changes shape.
const Version uint8 = 1

// Detailer is optionally implemented by kinds to expose the argument they
// were built from (a command, a path, a format).
type Detailer interface {
	Detail(obj *textobj.Object) string
}

// Template is a compiled chain in canonical form.
type Template struct {
	Version uint8    `json:"version" yaml:"version"`
	Objects []Object `json:"objects" yaml:"objects"`
}

// Object is one compiled node in canonical form.
type Object struct {
	Kind   string   `json:"kind" yaml:"kind"`
	Role   string   `json:"role,omitempty" yaml:"role,omitempty"` // Empty for plain values
	Line   int      `json:"line" yaml:"line"`
	Text   string   `json:"text,omitempty" yaml:"text,omitempty"`     // Literal text
	Detail string   `json:"detail,omitempty" yaml:"detail,omitempty"` // From Detailer
	Update bool     `json:"update,omitempty" yaml:"update,omitempty"` // Has a periodic recompute
	Sub    []Object `json:"sub,omitempty" yaml:"sub,omitempty"`
}

// Canonicalize converts chain into its canonical form. Released objects are
// skipped.
func Canonicalize(chain textobj.Chain) *Template {
	return &Template{
		Version: Version,
		Objects: canonicalizeChain(chain),
	}
}

func canonicalizeChain(chain textobj.Chain) []Object {
	if len(chain) == 0 {
		return nil
	}
	objects := make([]Object, 0, len(chain))
	for _, obj := range chain {
		if obj == nil || obj.Kind == nil {
			continue
		}
		objects = append(objects, canonicalizeObject(obj))
	}
	return objects
}

func canonicalizeObject(obj *textobj.Object) Object {
	co := Object{
		Kind:   obj.Kind.Name(),
		Line:   obj.Line,
		Update: obj.Update != nil,
		Sub:    canonicalizeChain(obj.Sub),
	}
	if obj.IsPlainText() {
		co.Text = obj.Text()
		return co
	}
	if role := obj.Role(); role != textobj.BlockNone {
		co.Role = role.String()
	}
	if d, ok := obj.Kind.(Detailer); ok {
		co.Detail = d.Detail(obj)
	}
	return co
}

// MarshalBinary produces deterministic CBOR encoding of the template.
func (t *Template) MarshalBinary() ([]byte, error) {
	encMode, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		return nil, fmt.Errorf("failed to create CBOR encoder: %w", err)
	}

	// Alias so the encoder does not call MarshalBinary recursively.
	type templateAlias Template
	data, err := encMode.Marshal((*templateAlias)(t))
	if err != nil {
		return nil, fmt.Errorf("CBOR encoding failed: %w", err)
	}
	return data, nil
}

// UnmarshalBinary decodes a template produced by MarshalBinary.
func (t *Template) UnmarshalBinary(data []byte) error {
	type templateAlias Template
	var alias templateAlias
	if err := cbor.Unmarshal(data, &alias); err != nil {
		return fmt.Errorf("CBOR decoding failed: %w", err)
	}
	if alias.Version != Version {
		return fmt.Errorf("unsupported canonical format version %d (want %d)", alias.Version, Version)
	}
	*t = Template(alias)
	return nil
}

// Encode returns the canonical CBOR bytes of chain.
func Encode(chain textobj.Chain) ([]byte, error) {
	return Canonicalize(chain).MarshalBinary()
}

// Decode parses canonical CBOR bytes.
func Decode(data []byte) (*Template, error) {
	var t Template
	if err := t.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	return &t, nil
}

// Hash computes the BLAKE2b-256 hash of the canonical encoding.
func (t *Template) Hash() ([32]byte, error) {
	data, err := t.MarshalBinary()
	if err != nil {
		return [32]byte{}, err
	}
	return blake2b.Sum256(data), nil
}

// Fingerprint identifies the structure of a compiled chain.
// Returns hex-encoded hash: "blake2b:a3f8b2c1d4e5f6a7..."
func Fingerprint(chain textobj.Chain) (string, error) {
	hash, err := Canonicalize(chain).Hash()
	if err != nil {
		return "", fmt.Errorf("failed to fingerprint template: %w", err)
	}
	return fmt.Sprintf("blake2b:%x", hash), nil
}

// Count returns the number of objects in t including all sub-chains.
func (t *Template) Count() int {
	return countObjects(t.Objects)
}

func countObjects(objects []Object) int {
	n := len(objects)
	for i := range objects {
		n += countObjects(objects[i].Sub)
	}
	return n
}
