package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/MyCarrier-DevOps/go-gitversioning/internal/resolver"
)

const arrowPrefix = "\u2192"

// WriteExplanation writes how the version was resolved: the repository
// facts, each reasoning step, and the result.
func WriteExplanation(w io.Writer, res *resolver.Result) error {
	snap := res.Snapshot

	fmt.Fprintln(w, "Repository:")
	fmt.Fprintf(w, "  %-8s %s\n", "HEAD:", orUnknown(snap.HeadSha))
	if snap.Tag != "" {
		fmt.Fprintf(w, "  %-8s %s\n", "Tag:", snap.Tag)
	}
	if snap.Branch != nil {
		fmt.Fprintf(w, "  %-8s %s\n", "Branch:", *snap.Branch)
	}
	fmt.Fprintf(w, "  %-8s %t\n", "Dirty:", snap.Dirty)

	if len(res.Steps) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Steps:")
		for _, step := range res.Steps {
			fmt.Fprintf(w, "  %s %s\n", arrowPrefix, step)
		}
	}

	fmt.Fprintln(w)
	if res.Template != "" {
		fmt.Fprintf(w, "Result: %s (source: %s, template: %s)\n", res.Version, res.Source, res.Template)
	} else {
		fmt.Fprintf(w, "Result: %s (source: %s)\n", res.Version, res.Source)
	}

	return nil
}

// FormatExplanation returns the explain output as a string.
func FormatExplanation(res *resolver.Result) string {
	var sb strings.Builder
	_ = WriteExplanation(&sb, res)
	return sb.String()
}

func orUnknown(s string) string {
	if s == "" {
		return "(unknown)"
	}
	return s
}
