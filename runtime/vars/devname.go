package vars

import (
	"path/filepath"
	"strings"

	"github.com/opal-lang/monitext/core/textobj"
	"github.com/opal-lang/monitext/runtime/registry"
)

// devnameKind resolves its path on every render so a moved link is followed.
type devnameKind struct{}

func (devnameKind) Name() string            { return "devname" }
func (devnameKind) Role() textobj.BlockRole { return textobj.BlockNone }
func (devnameKind) Usage() string           { return "${devname PATH}" }
func (devnameKind) Summary() string         { return "Device name behind PATH, without /dev/" }

func (k devnameKind) New(req registry.Request) (*textobj.Object, error) {
	if err := requireArg(req, "device path"); err != nil {
		return nil, err
	}
	return &textobj.Object{Kind: k, Payload: req.Arg, Line: req.Line}, nil
}

func (devnameKind) Value(obj *textobj.Object) (string, error) {
	return DevName(obj.Payload.(string)), nil
}

func (devnameKind) Detail(obj *textobj.Object) string {
	return obj.Payload.(string)
}

// DevName returns the device name for path: symlinks are resolved and a
// leading "/dev/" is stripped. Paths that cannot be resolved are used as
// given. The result is always a new string.
func DevName(path string) string {
	if path == "" {
		return ""
	}
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		resolved = path
	}
	return strings.TrimPrefix(resolved, "/dev/")
}
