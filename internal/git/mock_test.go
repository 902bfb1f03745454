package git

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMockRepository_Defaults(t *testing.T) {
	m := &MockRepository{}

	require.Empty(t, m.WorkingDirectory())
	require.Nil(t, m.Tags(DefaultSortKey))
	require.Empty(t, m.CommitSha("HEAD"))
	require.False(t, m.IsDirty())
	n, ok := m.CountSince("v1.0")
	require.Zero(t, n)
	require.False(t, ok)
	require.Empty(t, m.Branch())
	require.Empty(t, m.LatestFileCommit("VERSION"))

	require.Equal(t, []string{
		"WorkingDirectory", "Tags", "CommitSha", "IsDirty",
		"CountSince", "Branch", "LatestFileCommit",
	}, m.Calls)
}

func TestMockRepository_Funcs(t *testing.T) {
	var gotSort SortKey
	m := &MockRepository{
		TagsFunc: func(k SortKey) []string {
			gotSort = k
			return []string{"v2", "v1"}
		},
		CommitShaFunc: func(ref string) string { return "sha-" + ref },
		IsDirtyFunc:   func() bool { return true },
		CountSinceFunc: func(ref string) (int, bool) {
			return len(ref), true
		},
		BranchFunc: func() string { return "main" },
	}

	require.Equal(t, []string{"v2", "v1"}, m.Tags(SortByRefName))
	require.Equal(t, SortByRefName, gotSort)
	require.Equal(t, "sha-HEAD", m.CommitSha("HEAD"))
	require.True(t, m.IsDirty())
	n, ok := m.CountSince("v1")
	require.True(t, ok)
	require.Equal(t, 2, n)
	require.Equal(t, "main", m.Branch())
}

func TestUnavailable(t *testing.T) {
	var r Repository = Unavailable{}

	require.Empty(t, r.WorkingDirectory())
	require.Empty(t, r.Tags(DefaultSortKey))
	require.Empty(t, r.CommitSha("HEAD"))
	require.False(t, r.IsDirty())
	_, ok := r.CountSince("v1")
	require.False(t, ok)
	require.Empty(t, r.Branch())
	require.Empty(t, r.LatestFileCommit("VERSION"))
}
