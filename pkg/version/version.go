// Package version parses and orders the dotted-numeric version strings that
// library copies declare, e.g. "2.7.0.0". Components are compared as integers
// left to right; a shorter version is padded with zeros, so "2.7" == "2.7.0.0".
package version

import (
	goversion "github.com/hashicorp/go-version"

	"github.com/modkit-go/unison/pkg/errors"
)

// Version is a parsed, comparable library version.
type Version struct {
	raw    string
	parsed *goversion.Version
}

// Parse parses a dotted-numeric version string. Malformed strings return a
// MALFORMED_VERSION error; they never panic.
func Parse(s string) (*Version, error) {
	if s == "" {
		return nil, errors.New(errors.ErrMalformedVersion, "version string is empty")
	}

	parsed, err := goversion.NewVersion(s)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrMalformedVersion, "cannot parse version %q", s)
	}

	return &Version{raw: s, parsed: parsed}, nil
}

// Compare returns -1, 0, or 1 when v is less than, equal to, or greater than
// other under dotted-numeric precedence.
func (v *Version) Compare(other *Version) int {
	return v.parsed.Compare(other.parsed)
}

// LessThan reports whether v orders strictly before other.
func (v *Version) LessThan(other *Version) bool {
	return v.parsed.LessThan(other.parsed)
}

// String returns the original string the version was parsed from, so that
// diagnostics and blackboard entries show exactly what the module declared.
func (v *Version) String() string {
	return v.raw
}

// IsValid reports whether s parses as a version.
func IsValid(s string) bool {
	_, err := Parse(s)
	return err == nil
}
