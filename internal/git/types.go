// Package git provides the repository queries used by version resolution,
// backed by go-git, plus tag ordering shared by every backend.
package git

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/blang/semver/v4"
	"gopkg.in/yaml.v3"
)

// SortKey selects how tags are ordered before the latest one is picked.
type SortKey string

const (
	SortByCreatorDate   SortKey = "creatordate"
	SortByTaggerDate    SortKey = "taggerdate"
	SortByCommitterDate SortKey = "committerdate"
	SortByRefName       SortKey = "refname"
	SortByVersion       SortKey = "version:refname"
)

// DefaultSortKey is used when no sort key is configured.
const DefaultSortKey = SortByCreatorDate

// ParseSortKey parses a sort key. A leading "-" is accepted for
// compatibility with git's --sort syntax; order is always descending.
func ParseSortKey(s string) (SortKey, error) {
	key := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "-"))
	switch key {
	case "", string(SortByCreatorDate):
		return SortByCreatorDate, nil
	case string(SortByTaggerDate):
		return SortByTaggerDate, nil
	case string(SortByCommitterDate):
		return SortByCommitterDate, nil
	case string(SortByRefName):
		return SortByRefName, nil
	case string(SortByVersion), "v:refname":
		return SortByVersion, nil
	default:
		return "", fmt.Errorf("unknown sort key %q", s)
	}
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *SortKey) UnmarshalText(text []byte) error {
	parsed, err := ParseSortKey(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (k *SortKey) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	return k.UnmarshalText([]byte(s))
}

// TagInfo carries what tag ordering needs to know about one tag.
type TagInfo struct {
	Name string
	// TaggerDate is zero for lightweight tags.
	TaggerDate    time.Time
	CommitterDate time.Time
}

func (t TagInfo) creatorDate() time.Time {
	if !t.TaggerDate.IsZero() {
		return t.TaggerDate
	}
	return t.CommitterDate
}

// SortTags sorts tags in place, newest/highest first. Ties are broken by
// name ascending, matching git's refname fallback.
func SortTags(tags []TagInfo, key SortKey) {
	slices.SortStableFunc(tags, func(a, b TagInfo) int {
		var c int
		switch key {
		case SortByTaggerDate:
			c = a.TaggerDate.Compare(b.TaggerDate)
		case SortByCommitterDate:
			c = a.CommitterDate.Compare(b.CommitterDate)
		case SortByRefName:
			c = strings.Compare(a.Name, b.Name)
		case SortByVersion:
			c = compareVersionNames(a.Name, b.Name)
		default:
			c = a.creatorDate().Compare(b.creatorDate())
		}
		if c != 0 {
			return -c
		}
		return strings.Compare(a.Name, b.Name)
	})
}

// compareVersionNames orders names that parse as versions above names that
// don't, and falls back to plain string order.
func compareVersionNames(a, b string) int {
	va, errA := semver.ParseTolerant(a)
	vb, errB := semver.ParseTolerant(b)
	switch {
	case errA == nil && errB == nil:
		return va.Compare(vb)
	case errA == nil:
		return 1
	case errB == nil:
		return -1
	default:
		return cmp.Compare(a, b)
	}
}

// ShortSha returns the first n characters of sha.
func ShortSha(sha string, n int) string {
	if n >= len(sha) {
		return sha
	}
	return sha[:n]
}
