package github

import (
	"context"
	"regexp"
	"strings"

	gh "github.com/google/go-github/v68/github"
	"go.uber.org/zap"

	"github.com/MyCarrier-DevOps/go-gitversioning/internal/git"
)

var (
	_ git.Repository = (*Repository)(nil)
	_ git.TagWalker  = (*Repository)(nil)
)

var hexPattern = regexp.MustCompile(`^[0-9a-f]{40}$`)

// Repository implements git.Repository over the GitHub REST API. HEAD is the
// configured ref, or the default branch when no ref is set. Failed API
// calls are logged and reported as unknown values.
type Repository struct {
	client *gh.Client
	owner  string
	repo   string
	ref    string
	ctx    context.Context
	logger *zap.Logger

	headRef     string
	headSha     string
	headLoaded  bool
	comparisons map[string]*gh.CommitsComparison
}

// Option configures a Repository.
type Option func(*Repository)

// WithRef sets the branch, tag or SHA treated as HEAD.
func WithRef(ref string) Option {
	return func(r *Repository) { r.ref = ref }
}

// WithContext sets the context used for API requests.
func WithContext(ctx context.Context) Option {
	return func(r *Repository) { r.ctx = ctx }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Repository) { r.logger = logger }
}

// NewRepository creates a Repository for owner/repo.
func NewRepository(client *gh.Client, owner, repo string, opts ...Option) *Repository {
	r := &Repository{
		client:      client,
		owner:       owner,
		repo:        repo,
		ctx:         context.Background(),
		logger:      zap.NewNop(),
		comparisons: make(map[string]*gh.CommitsComparison),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Slug returns "owner/repo".
func (r *Repository) Slug() string {
	return r.owner + "/" + r.repo
}

// Ref returns the ref HEAD resolves from, looking up the default branch
// when none was configured.
func (r *Repository) Ref() string {
	r.loadHead()
	return r.headRef
}

func (r *Repository) WorkingDirectory() string {
	return ""
}

// IsDirty is always false: a remote ref has no working tree.
func (r *Repository) IsDirty() bool {
	return false
}

func (r *Repository) loadHead() {
	if r.headLoaded {
		return
	}
	r.headLoaded = true

	r.headRef = r.ref
	if r.headRef == "" {
		info, _, err := r.client.Repositories.Get(r.ctx, r.owner, r.repo)
		if err != nil {
			r.logger.Debug("cannot read repository info", zap.String("repo", r.Slug()), zap.Error(err))
			return
		}
		r.headRef = info.GetDefaultBranch()
	}
	r.headSha = r.commitSha(r.headRef)
}

func (r *Repository) CommitSha(ref string) string {
	if ref == "HEAD" {
		r.loadHead()
		return r.headSha
	}
	return r.commitSha(ref)
}

func (r *Repository) commitSha(ref string) string {
	if ref == "" {
		return ""
	}
	if hexPattern.MatchString(ref) {
		return ref
	}
	sha, _, err := r.client.Repositories.GetCommitSHA1(r.ctx, r.owner, r.repo, ref, "")
	if err != nil {
		r.logger.Debug("cannot resolve ref", zap.String("ref", ref), zap.Error(err))
		return ""
	}
	return sha
}

// compare returns the comparison of base against HEAD, caching results per
// base commit.
func (r *Repository) compare(base string) *gh.CommitsComparison {
	if c, ok := r.comparisons[base]; ok {
		return c
	}
	r.loadHead()
	if r.headSha == "" {
		return nil
	}
	c, _, err := r.client.Repositories.CompareCommits(r.ctx, r.owner, r.repo, base, r.headSha, &gh.ListOptions{PerPage: 1})
	if err != nil {
		r.logger.Debug("cannot compare commits", zap.String("base", base), zap.Error(err))
		c = nil
	}
	r.comparisons[base] = c
	return c
}

// Tags lists every tag, keeps those whose commit HEAD contains and sorts
// them by sortBy.
func (r *Repository) Tags(sortBy git.SortKey) []string {
	var names []string
	_ = r.WalkTags(sortBy, func(name string) (bool, error) {
		names = append(names, name)
		return true, nil
	})
	return names
}

// WalkTags visits merged tags in sortBy order. Keys that order by name or
// tagger date are sorted before any commit is compared, so the walk stops
// comparing at the first tag visit rejects. Committer dates only come with
// a comparison, so date keys compare every tag up front.
func (r *Repository) WalkTags(sortBy git.SortKey, visit func(name string) (bool, error)) error {
	r.loadHead()
	if r.headSha == "" {
		return nil
	}

	refs, err := r.tagRefs()
	if err != nil {
		r.logger.Debug("cannot list tags", zap.String("repo", r.Slug()), zap.Error(err))
		return nil
	}

	var (
		infos   []git.TagInfo
		commits = make(map[string]string, len(refs))
	)
	for _, ref := range refs {
		info, commit, ok := r.tagInfo(ref)
		if !ok {
			continue
		}
		infos = append(infos, info)
		commits[info.Name] = commit
	}

	lazy := sortBy == git.SortByRefName || sortBy == git.SortByVersion || sortBy == git.SortByTaggerDate
	if !lazy {
		merged := infos[:0]
		for _, info := range infos {
			c := r.compare(commits[info.Name])
			if !isMerged(c) {
				continue
			}
			info.CommitterDate = c.GetBaseCommit().GetCommit().GetCommitter().GetDate().Time
			merged = append(merged, info)
		}
		infos = merged
	}
	git.SortTags(infos, sortBy)

	defer func() {
		r.logger.Debug("walked tags",
			zap.String("repo", r.Slug()),
			zap.Int("tags", len(refs)),
			zap.Int("comparisons", len(r.comparisons)))
	}()
	for _, info := range infos {
		if lazy && !isMerged(r.compare(commits[info.Name])) {
			continue
		}
		more, err := visit(info.Name)
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
	}
	return nil
}

// isMerged reports whether the compared base is HEAD or one of its ancestors.
func isMerged(c *gh.CommitsComparison) bool {
	if c == nil {
		return false
	}
	switch c.GetStatus() {
	case "ahead", "identical":
		return true
	}
	return false
}

func (r *Repository) tagRefs() ([]*gh.Reference, error) {
	opts := &gh.ReferenceListOptions{Ref: "tags", ListOptions: gh.ListOptions{PerPage: 100}}
	var all []*gh.Reference
	for {
		refs, resp, err := r.client.Git.ListMatchingRefs(r.ctx, r.owner, r.repo, opts)
		if err != nil {
			return nil, err
		}
		all = append(all, refs...)
		if resp.NextPage == 0 {
			return all, nil
		}
		opts.Page = resp.NextPage
	}
}

// tagInfo peels an annotated tag to its commit and records the tagger date.
func (r *Repository) tagInfo(ref *gh.Reference) (git.TagInfo, string, bool) {
	info := git.TagInfo{Name: strings.TrimPrefix(ref.GetRef(), "refs/tags/")}
	obj := ref.GetObject()
	if obj.GetType() != "tag" {
		return info, obj.GetSHA(), obj.GetSHA() != ""
	}

	tag, _, err := r.client.Git.GetTag(r.ctx, r.owner, r.repo, obj.GetSHA())
	if err != nil {
		r.logger.Debug("cannot read annotated tag", zap.String("tag", info.Name), zap.Error(err))
		return info, "", false
	}
	info.TaggerDate = tag.GetTagger().GetDate().Time
	if tag.GetObject().GetType() != "commit" {
		return info, "", false
	}
	return info, tag.GetObject().GetSHA(), true
}

func (r *Repository) CountSince(ref string) (int, bool) {
	sha := r.CommitSha(ref)
	if sha == "" {
		return 0, false
	}
	c := r.compare(sha)
	if c == nil {
		return 0, false
	}
	return c.GetAheadBy(), true
}

// Branch returns the configured ref when it names a branch, "HEAD" when it
// names a tag or commit, and "" when unknown.
func (r *Repository) Branch() string {
	r.loadHead()
	ref := r.headRef
	switch {
	case ref == "":
		return ""
	case hexPattern.MatchString(ref):
		return "HEAD"
	}
	ref = strings.TrimPrefix(ref, "refs/heads/")

	_, _, err := r.client.Repositories.GetBranch(r.ctx, r.owner, r.repo, ref, 0)
	switch {
	case err == nil:
		return ref
	case IsNotFoundError(err):
		return "HEAD"
	default:
		r.logger.Debug("cannot read branch", zap.String("branch", ref), zap.Error(err))
		return ""
	}
}

func (r *Repository) LatestFileCommit(path string) string {
	r.loadHead()
	if r.headSha == "" {
		return ""
	}
	commits, _, err := r.client.Repositories.ListCommits(r.ctx, r.owner, r.repo, &gh.CommitsListOptions{
		SHA:         r.headSha,
		Path:        path,
		ListOptions: gh.ListOptions{PerPage: 1},
	})
	if err != nil {
		r.logger.Debug("cannot list commits", zap.String("path", path), zap.Error(err))
		return ""
	}
	if len(commits) == 0 {
		return ""
	}
	return commits[0].GetSHA()
}
