// Package pep440 parses and canonicalizes package version identifiers and
// sanitizes free-form strings (rendered templates, tag names) into them.
package pep440

import (
	"errors"
	"fmt"
	"strings"

	pyversion "github.com/aquasecurity/go-pep440-version"
)

// ErrInvalidVersion is returned when a string is not a valid version identifier.
var ErrInvalidVersion = errors.New("invalid version")

// Version is a parsed version identifier in canonical form.
// This type is immutable.
type Version struct {
	public string
	local  []string
}

// Parse parses s and normalizes it. Alternate spellings are accepted
// ("1.0-alpha.1", "1.0_post", "v2.0-r3") and rendered canonically by String.
func Parse(s string) (Version, error) {
	parsed, err := pyversion.Parse(s)
	if err != nil {
		return Version{}, fmt.Errorf("%w: %q: %v", ErrInvalidVersion, s, err)
	}

	public, local, _ := strings.Cut(parsed.String(), "+")
	v := Version{public: public}
	if local != "" {
		v.local = normalizeLocal(local)
	}
	return v, nil
}

// MustParse is like Parse but panics on error.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// Public returns the canonical version without the local segment
// (e.g., "1!2.0rc1.post3.dev4").
func (v Version) Public() string {
	return v.public
}

// LocalString returns the dotted local segment, or "" when there is none.
func (v Version) LocalString() string {
	return strings.Join(v.local, ".")
}

// String returns the canonical form (e.g., "1.0.0.post1+git.abcdef12").
func (v Version) String() string {
	if local := v.LocalString(); local != "" {
		return v.public + "+" + local
	}
	return v.public
}

// IsZero reports whether v is the zero Version (nothing parsed).
func (v Version) IsZero() bool {
	return v.public == ""
}

// normalizeLocal lower-cases the local segment, splits it on any of "-_."
// and drops leading zeros from purely numeric parts.
func normalizeLocal(local string) []string {
	parts := strings.FieldsFunc(strings.ToLower(local), func(r rune) bool {
		return r == '-' || r == '_' || r == '.'
	})
	for i, part := range parts {
		if isDigits(part) {
			if t := strings.TrimLeft(part, "0"); t != "" {
				parts[i] = t
			} else {
				parts[i] = "0"
			}
		}
	}
	return parts
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
