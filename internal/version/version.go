package version

import "strings"

// Build information set by ldflags
var (
	Version = "0.1.0"   // -X github.com/opal-lang/monitext/internal/version.Version={{.Version}}
	Commit  = "unknown" // -X github.com/opal-lang/monitext/internal/version.Commit={{.Commit}}
	Date    = "unknown" // -X github.com/opal-lang/monitext/internal/version.Date={{.Date}}
)

// Semver returns Version in the "vMAJOR.MINOR.PATCH" form golang.org/x/mod/semver expects.
func Semver() string {
	return Canonical(Version)
}

// Canonical adds the "v" prefix semver comparisons need.
func Canonical(v string) string {
	if v == "" || strings.HasPrefix(v, "v") {
		return v
	}
	return "v" + v
}
