package git

// Compile-time check that MockRepository implements Repository.
var _ Repository = (*MockRepository)(nil)

// MockRepository is a configurable mock implementation of Repository for testing.
// Each method is backed by a function field. If the function field is nil,
// the method reports "unknown".
type MockRepository struct {
	WorkingDirectoryFunc func() string
	TagsFunc             func(SortKey) []string
	CommitShaFunc        func(string) string
	IsDirtyFunc          func() bool
	CountSinceFunc       func(string) (int, bool)
	BranchFunc           func() string
	LatestFileCommitFunc func(string) string

	// Calls records every method invocation by name, in order.
	Calls []string
}

func (m *MockRepository) WorkingDirectory() string {
	m.Calls = append(m.Calls, "WorkingDirectory")
	if m.WorkingDirectoryFunc != nil {
		return m.WorkingDirectoryFunc()
	}
	return ""
}

func (m *MockRepository) Tags(sortBy SortKey) []string {
	m.Calls = append(m.Calls, "Tags")
	if m.TagsFunc != nil {
		return m.TagsFunc(sortBy)
	}
	return nil
}

func (m *MockRepository) CommitSha(ref string) string {
	m.Calls = append(m.Calls, "CommitSha")
	if m.CommitShaFunc != nil {
		return m.CommitShaFunc(ref)
	}
	return ""
}

func (m *MockRepository) IsDirty() bool {
	m.Calls = append(m.Calls, "IsDirty")
	if m.IsDirtyFunc != nil {
		return m.IsDirtyFunc()
	}
	return false
}

func (m *MockRepository) CountSince(ref string) (int, bool) {
	m.Calls = append(m.Calls, "CountSince")
	if m.CountSinceFunc != nil {
		return m.CountSinceFunc(ref)
	}
	return 0, false
}

func (m *MockRepository) Branch() string {
	m.Calls = append(m.Calls, "Branch")
	if m.BranchFunc != nil {
		return m.BranchFunc()
	}
	return ""
}

func (m *MockRepository) LatestFileCommit(path string) string {
	m.Calls = append(m.Calls, "LatestFileCommit")
	if m.LatestFileCommitFunc != nil {
		return m.LatestFileCommitFunc(path)
	}
	return ""
}
