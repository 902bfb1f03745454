package pep440

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	publicUnsupported = regexp.MustCompile(`[^A-Za-z0-9!]+`)
	localUnsupported  = regexp.MustCompile(`[^A-Za-z0-9]+`)
	leadingNonDigits  = regexp.MustCompile(`^[^0-9]+`)
)

// SanitizeString rewrites raw so that it only contains characters allowed in
// a version identifier. "feature/ABC-123" becomes "feature.ABC.123" in the
// local segment, and a leading release prefix such as "v" is dropped from the
// public segment. The result is stable: SanitizeString(SanitizeString(x)) ==
// SanitizeString(x).
func SanitizeString(raw string) string {
	public, local, hasLocal := strings.Cut(raw, "+")

	public = publicUnsupported.ReplaceAllString(public, ".")
	public = leadingNonDigits.ReplaceAllString(public, "")
	public = strings.TrimRight(public, ".")

	if !hasLocal {
		return public
	}

	local = strings.Trim(localUnsupported.ReplaceAllString(local, "."), ".")
	return public + "+" + local
}

// Sanitize sanitizes raw and parses the result into a canonical Version.
func Sanitize(raw string) (Version, error) {
	sanitized := SanitizeString(raw)
	v, err := Parse(sanitized)
	if err != nil {
		return Version{}, fmt.Errorf("%w: %q (sanitized from %q)", ErrInvalidVersion, sanitized, raw)
	}
	return v, nil
}
