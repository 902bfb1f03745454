package git

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParseSortKey(t *testing.T) {
	tests := []struct {
		input string
		want  SortKey
	}{
		{"", SortByCreatorDate},
		{"creatordate", SortByCreatorDate},
		{"-creatordate", SortByCreatorDate},
		{"TaggerDate", SortByTaggerDate},
		{"committerdate", SortByCommitterDate},
		{"refname", SortByRefName},
		{"version:refname", SortByVersion},
		{"v:refname", SortByVersion},
		{"-v:refname", SortByVersion},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseSortKey(tt.input)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestParseSortKey_Unknown(t *testing.T) {
	_, err := ParseSortKey("authordate")
	require.Error(t, err)
	require.Contains(t, err.Error(), `unknown sort key "authordate"`)
}

func TestSortKey_UnmarshalYAML(t *testing.T) {
	var doc struct {
		SortBy SortKey `yaml:"sort_by"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("sort_by: -v:refname\n"), &doc))
	require.Equal(t, SortByVersion, doc.SortBy)

	require.Error(t, yaml.Unmarshal([]byte("sort_by: nope\n"), &doc))
}

func TestSortTags(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	day := 24 * time.Hour

	tags := func() []TagInfo {
		return []TagInfo{
			{Name: "v1.10.0", CommitterDate: base},
			{Name: "v1.2.0", TaggerDate: base.Add(3 * day), CommitterDate: base.Add(day)},
			{Name: "v1.9.0", CommitterDate: base.Add(2 * day)},
			{Name: "release", CommitterDate: base.Add(-day)},
		}
	}

	tests := []struct {
		key  SortKey
		want []string
	}{
		{SortByCreatorDate, []string{"v1.2.0", "v1.9.0", "v1.10.0", "release"}},
		{SortByCommitterDate, []string{"v1.9.0", "v1.2.0", "v1.10.0", "release"}},
		{SortByTaggerDate, []string{"v1.2.0", "release", "v1.10.0", "v1.9.0"}},
		{SortByRefName, []string{"v1.9.0", "v1.2.0", "v1.10.0", "release"}},
		{SortByVersion, []string{"v1.10.0", "v1.9.0", "v1.2.0", "release"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.key), func(t *testing.T) {
			in := tags()
			SortTags(in, tt.key)
			require.Equal(t, tt.want, tagNames(in))
		})
	}
}

func TestSortTags_TiesByNameAscending(t *testing.T) {
	when := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	in := []TagInfo{
		{Name: "a", CommitterDate: when},
		{Name: "c", CommitterDate: when},
		{Name: "b", CommitterDate: when},
	}
	SortTags(in, SortByCreatorDate)
	require.Equal(t, []string{"a", "b", "c"}, tagNames(in))
}

func tagNames(in []TagInfo) []string {
	out := make([]string, 0, len(in))
	for _, t := range in {
		out = append(out, t.Name)
	}
	return out
}

func TestShortSha(t *testing.T) {
	sha := "0123456789abcdef0123456789abcdef01234567"
	require.Equal(t, "01234567", ShortSha(sha, 8))
	require.Equal(t, "abc", ShortSha("abc", 8))
	require.Equal(t, "", ShortSha("", 8))
}
