package git

// Compile-time check that Unavailable implements Repository.
var _ Repository = Unavailable{}

// Unavailable is the Repository used when the project is not inside a git
// repository. Every query is unknown.
type Unavailable struct{}

func (Unavailable) WorkingDirectory() string { return "" }

func (Unavailable) Tags(SortKey) []string { return nil }

func (Unavailable) CommitSha(string) string { return "" }

func (Unavailable) IsDirty() bool { return false }

func (Unavailable) CountSince(string) (int, bool) { return 0, false }

func (Unavailable) Branch() string { return "" }

func (Unavailable) LatestFileCommit(string) string { return "" }
