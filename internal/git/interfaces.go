package git

// Repository answers the handful of repository questions version resolution
// needs. Implementations never fail: anything that cannot be determined (no
// git metadata, unborn HEAD, shallow history, unresolvable ref) comes back as
// the zero value, and the caller treats it as "unknown".
type Repository interface {
	// WorkingDirectory returns the root of the working tree, or "" when there
	// is none.
	WorkingDirectory() string

	// Tags returns the names of tags pointing at HEAD or one of its
	// ancestors, sorted descending by sortBy.
	Tags(sortBy SortKey) []string

	// CommitSha resolves ref (branch, tag, sha, "HEAD") to a full commit SHA,
	// peeling annotated tags.
	CommitSha(ref string) string

	// IsDirty reports whether the working tree has staged, unstaged or
	// untracked changes.
	IsDirty() bool

	// CountSince returns the number of commits reachable from HEAD but not
	// from ref. The boolean is false when the count is unknown.
	CountSince(ref string) (int, bool)

	// Branch returns the short name of the checked out branch, "HEAD" for a
	// detached HEAD, or "" when unknown.
	Branch() string

	// LatestFileCommit returns the SHA of the newest commit reachable from
	// HEAD that touched path. path is relative to the project root the
	// repository was opened from.
	LatestFileCommit(path string) string
}

// TagWalker is implemented by backends where checking that a tag is merged
// into HEAD costs a remote call. WalkTags visits merged tags in the order
// Tags would return them and stops as soon as visit returns false or an
// error.
type TagWalker interface {
	WalkTags(sortBy SortKey, visit func(name string) (bool, error)) error
}
