package resolver

import (
	"fmt"

	"github.com/MyCarrier-DevOps/go-gitversioning/internal/pep440"
)

// Source names where a resolved version came from.
type Source string

const (
	SourcePkgInfo         Source = "pkg-info"
	SourceCallback        Source = "callback"
	SourceVersionFile     Source = "version-file"
	SourceTag             Source = "tag"
	SourceStartingVersion Source = "starting-version"
)

// Template names, as they appear in configuration.
const (
	TemplateRelease = "template"
	TemplateDev     = "dev_template"
	TemplateDirty   = "dirty_template"
)

// Snapshot holds the repository facts gathered for one resolution. Nil
// pointers are unknown.
type Snapshot struct {
	HeadSha string
	// Tag is the value used for {tag}: the latest filtered tag after
	// formatting, or the version file content.
	Tag    string
	TagSha string
	OnTag  bool
	Dirty  bool
	CCount *int
	Branch *string
}

// Result is the outcome of a resolution.
type Result struct {
	Version pep440.Version
	// Raw is the string handed to the sanitizer (or, for PKG-INFO, the
	// recorded version).
	Raw    string
	Source Source
	// Template is the name of the rendered template, empty when no
	// template was used.
	Template string
	Snapshot Snapshot
	// Steps records the reasoning chain in order.
	Steps []string
}

func (r *Result) addf(format string, args ...any) {
	r.Steps = append(r.Steps, fmt.Sprintf(format, args...))
}
