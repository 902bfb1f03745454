package git

import (
	"errors"
	"fmt"
	"path/filepath"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"go.uber.org/zap"
)

// Compile-time check that GoGitRepository implements Repository.
var _ Repository = (*GoGitRepository)(nil)

// GoGitRepository implements Repository using go-git.
type GoGitRepository struct {
	repo    *gogit.Repository
	root    string // project root the repository was opened from
	workDir string
	logger  *zap.Logger
}

// Open opens the git repository containing path. The .git directory is
// searched for upwards, so path may be a sub-directory of the working tree.
func Open(path string, logger *zap.Logger) (*GoGitRepository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	root, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving path %s: %w", path, err)
	}

	r, err := gogit.PlainOpenWithOptions(root, &gogit.PlainOpenOptions{
		DetectDotGit:          true,
		EnableDotGitCommonDir: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening git repository at %s: %w", path, err)
	}

	wt, err := r.Worktree()
	if err != nil {
		return nil, fmt.Errorf("getting worktree: %w", err)
	}

	return &GoGitRepository{
		repo:    r,
		root:    root,
		workDir: wt.Filesystem.Root(),
		logger:  logger,
	}, nil
}

// Detect opens the repository containing path, falling back to Unavailable
// when there is none (or it cannot be read).
func Detect(path string, logger *zap.Logger) Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	repo, err := Open(path, logger)
	if err != nil {
		if errors.Is(err, gogit.ErrRepositoryNotExists) {
			logger.Info("not a git repository", zap.String("path", path))
		} else {
			logger.Warn("git repository is unreadable, treating it as absent", zap.String("path", path), zap.Error(err))
		}
		return Unavailable{}
	}
	return repo
}

func (r *GoGitRepository) WorkingDirectory() string {
	return r.workDir
}

func (r *GoGitRepository) Tags(sortBy SortKey) []string {
	head, ok := r.headCommit()
	if !ok {
		return nil
	}

	iter, err := r.repo.Tags()
	if err != nil {
		r.logger.Debug("listing tags failed", zap.Error(err))
		return nil
	}

	var tags []TagInfo
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		info, commit, err := r.describeTag(ref)
		if err != nil {
			r.logger.Debug("skipping tag", zap.String("tag", ref.Name().Short()), zap.Error(err))
			return nil
		}

		merged := commit.Hash == head.Hash
		if !merged {
			merged, err = commit.IsAncestor(head)
			if err != nil {
				r.logger.Debug("skipping tag", zap.String("tag", info.Name), zap.Error(err))
				return nil
			}
		}
		if merged {
			tags = append(tags, info)
		}
		return nil
	})
	if err != nil {
		r.logger.Debug("iterating tags failed", zap.Error(err))
		return nil
	}

	SortTags(tags, sortBy)

	names := make([]string, 0, len(tags))
	for _, t := range tags {
		names = append(names, t.Name)
	}
	return names
}

func (r *GoGitRepository) CommitSha(ref string) string {
	c, err := r.resolveCommit(ref)
	if err != nil {
		r.logger.Debug("resolving ref failed", zap.String("ref", ref), zap.Error(err))
		return ""
	}
	return c.Hash.String()
}

func (r *GoGitRepository) IsDirty() bool {
	wt, err := r.repo.Worktree()
	if err != nil {
		r.logger.Debug("getting worktree failed", zap.Error(err))
		return false
	}

	status, err := wt.Status()
	if err != nil {
		r.logger.Debug("getting worktree status failed", zap.Error(err))
		return false
	}

	return !status.IsClean()
}

func (r *GoGitRepository) CountSince(ref string) (int, bool) {
	head, ok := r.headCommit()
	if !ok {
		return 0, false
	}

	base, err := r.resolveCommit(ref)
	if err != nil {
		r.logger.Debug("resolving ref failed", zap.String("ref", ref), zap.Error(err))
		return 0, false
	}

	excluded := make(map[plumbing.Hash]bool)
	err = object.NewCommitPreorderIter(base, nil, nil).ForEach(func(c *object.Commit) error {
		excluded[c.Hash] = true
		return nil
	})
	if err != nil {
		r.logger.Debug("walking history failed", zap.String("ref", ref), zap.Error(err))
		return 0, false
	}

	count := 0
	err = object.NewCommitPreorderIter(head, excluded, nil).ForEach(func(*object.Commit) error {
		count++
		return nil
	})
	if err != nil {
		r.logger.Debug("walking history failed", zap.String("ref", "HEAD"), zap.Error(err))
		return 0, false
	}

	return count, true
}

func (r *GoGitRepository) Branch() string {
	ref, err := r.repo.Head()
	if err != nil {
		r.logger.Debug("getting HEAD failed", zap.Error(err))
		return ""
	}
	if ref.Name().IsBranch() {
		return ref.Name().Short()
	}
	return "HEAD"
}

func (r *GoGitRepository) LatestFileCommit(path string) string {
	head, ok := r.headCommit()
	if !ok {
		return ""
	}

	name, err := r.worktreePath(path)
	if err != nil {
		r.logger.Debug("file is outside the working tree", zap.String("path", path), zap.Error(err))
		return ""
	}

	iter, err := r.repo.Log(&gogit.LogOptions{
		From:     head.Hash,
		FileName: &name,
	})
	if err != nil {
		r.logger.Debug("getting file log failed", zap.String("path", name), zap.Error(err))
		return ""
	}
	defer iter.Close()

	c, err := iter.Next()
	if err != nil {
		r.logger.Debug("no commit touches file", zap.String("path", name), zap.Error(err))
		return ""
	}
	return c.Hash.String()
}

// headCommit returns the commit HEAD points to, if any.
func (r *GoGitRepository) headCommit() (*object.Commit, bool) {
	ref, err := r.repo.Head()
	if err != nil {
		r.logger.Debug("getting HEAD failed", zap.Error(err))
		return nil, false
	}

	c, err := r.repo.CommitObject(ref.Hash())
	if err != nil {
		r.logger.Debug("loading HEAD commit failed", zap.Error(err))
		return nil, false
	}
	return c, true
}

// resolveCommit resolves a revision to a commit, peeling annotated tags.
func (r *GoGitRepository) resolveCommit(ref string) (*object.Commit, error) {
	hash, err := r.repo.ResolveRevision(plumbing.Revision(ref))
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", ref, err)
	}
	c, err := r.repo.CommitObject(*hash)
	if err != nil {
		return nil, fmt.Errorf("loading commit %s: %w", hash.String(), err)
	}
	return c, nil
}

// describeTag peels a tag reference to its commit and collects its dates.
func (r *GoGitRepository) describeTag(ref *plumbing.Reference) (TagInfo, *object.Commit, error) {
	info := TagInfo{Name: ref.Name().Short()}

	// Annotated tags point at a tag object (possibly nested).
	if tagObj, err := r.repo.TagObject(ref.Hash()); err == nil {
		commit, err := tagObj.Commit()
		if err != nil {
			return TagInfo{}, nil, fmt.Errorf("peeling annotated tag %s: %w", info.Name, err)
		}
		info.TaggerDate = tagObj.Tagger.When
		info.CommitterDate = commit.Committer.When
		return info, commit, nil
	}

	commit, err := r.repo.CommitObject(ref.Hash())
	if err != nil {
		return TagInfo{}, nil, fmt.Errorf("tag %s does not point to a commit: %w", info.Name, err)
	}
	info.CommitterDate = commit.Committer.When
	return info, commit, nil
}

// worktreePath converts a path relative to the project root into the
// slash-separated path git uses, relative to the working tree root.
func (r *GoGitRepository) worktreePath(path string) (string, error) {
	abs := path
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(r.root, path)
	}
	rel, err := filepath.Rel(r.workDir, abs)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}
