// Package resolver decides which version a project carries: it picks the
// data source (PKG-INFO, callback, version file or tag), selects and renders
// a template, and sanitizes the result.
package resolver

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/MyCarrier-DevOps/go-gitversioning/internal/callable"
	"github.com/MyCarrier-DevOps/go-gitversioning/internal/config"
	"github.com/MyCarrier-DevOps/go-gitversioning/internal/git"
	"github.com/MyCarrier-DevOps/go-gitversioning/internal/pep440"
	"github.com/MyCarrier-DevOps/go-gitversioning/internal/subst"
)

// PkgInfoFile is the metadata file of a built source distribution.
const PkgInfoFile = "PKG-INFO"

// Resolver resolves versions for one project. It holds no state between
// calls; every Resolve gathers fresh facts.
type Resolver struct {
	repo   git.Repository
	fsys   fs.FS
	root   string
	loader *callable.Loader
	logger *zap.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithRoot sets the project directory on disk. A version_file that points
// outside fsys (such as ../VERSION) is read relative to it.
func WithRoot(dir string) Option {
	return func(r *Resolver) { r.root = dir }
}

// New creates a resolver. fsys is rooted at the project root and is used
// for PKG-INFO and the version file. A nil loader uses the default
// registry with no plugin root; a nil logger discards output.
func New(repo git.Repository, fsys fs.FS, loader *callable.Loader, logger *zap.Logger, opts ...Option) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loader == nil {
		loader = callable.NewLoader("", nil, logger)
	}
	r := &Resolver{
		repo:   repo,
		fsys:   fsys,
		loader: loader,
		logger: logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve computes the version for opts.
func (r *Resolver) Resolve(opts config.Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	res := &Result{}

	recorded, ok, err := r.pkgInfoVersion()
	if err != nil {
		return nil, err
	}
	if ok {
		r.logger.Info("using version recorded in PKG-INFO", zap.String("version", recorded))
		res.addf("%s records Version: %s", PkgInfoFile, recorded)
		v, err := pep440.Parse(recorded)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", PkgInfoFile, err)
		}
		res.Raw = recorded
		res.Source = SourcePkgInfo
		res.Version = v
		return res, nil
	}

	if opts.VersionCallback.IsSet() {
		out, err := r.loader.Version(opts.VersionCallback)
		if err != nil {
			return nil, err
		}
		res.addf("version_callback %s returned %q", opts.VersionCallback, out)
		return r.finish(res, SourceCallback, out)
	}

	snap := &res.Snapshot
	snap.HeadSha = r.repo.CommitSha("HEAD")
	r.logger.Info("HEAD", zap.String("sha", snap.HeadSha))

	filter, err := r.loader.Load(callable.TagFilter, opts.TagFilter)
	if err != nil {
		return nil, err
	}
	tag, err := r.latestTag(opts.SortBy, filter)
	if err != nil {
		return nil, err
	}
	if tag == "" {
		r.logger.Info("no tags found")
		res.addf("no tags merged into HEAD")
	} else {
		snap.TagSha = r.repo.CommitSha(tag)
		snap.OnTag = snap.HeadSha != "" && snap.HeadSha == snap.TagSha
		r.logger.Info("latest tag", zap.String("tag", tag), zap.String("sha", snap.TagSha), zap.Bool("on_tag", snap.OnTag))
		res.addf("latest tag %s at %s (HEAD is tagged: %t)", tag, git.ShortSha(snap.TagSha, 8), snap.OnTag)
	}

	source := SourceTag
	switch {
	case opts.VersionFile != "":
		content, found, err := r.readVersionFile(opts.VersionFile)
		if err != nil {
			return nil, err
		}
		tag = content
		switch {
		case !found:
			r.logger.Info("version_file does not exist", zap.String("path", opts.VersionFile))
			res.addf("version_file %s does not exist", opts.VersionFile)
		case tag == "":
			r.logger.Info("version_file is empty", zap.String("path", opts.VersionFile))
			res.addf("version_file %s is empty", opts.VersionFile)
		case !opts.CountCommitsFromVersionFile:
			res.addf("version_file %s contains %q", opts.VersionFile, tag)
			return r.finish(res, SourceVersionFile, tag)
		default:
			source = SourceVersionFile
			res.addf("version_file %s contains %q", opts.VersionFile, tag)
			fileSha := r.repo.LatestFileCommit(opts.VersionFile)
			if fileSha != "" {
				snap.CCount = r.countSince(fileSha)
			}
			res.addf("commits since last change of %s: %s", opts.VersionFile, formatCount(snap.CCount))
		}

	case snap.HeadSha == "":
		r.logger.Info("not a git repository, or repository without commits")
		res.addf("HEAD is unknown")

	case snap.TagSha != "":
		snap.CCount = r.countSince(snap.TagSha)
		res.addf("commits since %s: %s", tag, formatCount(snap.CCount))

		format, err := r.loader.Load(callable.TagFormatter, opts.TagFormatter)
		if err != nil {
			return nil, err
		}
		if format != nil {
			formatted, err := format(tag)
			if err != nil {
				return nil, fmt.Errorf("tag_formatter: %w", err)
			}
			r.logger.Debug("tag after formatting", zap.String("tag", formatted))
			res.addf("tag_formatter: %s -> %q", tag, formatted)
			tag = formatted
		}
	}

	if tag == "" {
		res.addf("no source for version, using starting_version %q", opts.StartingVersion)
		return r.finish(res, SourceStartingVersion, opts.StartingVersion)
	}
	snap.Tag = tag

	snap.Dirty = r.repo.IsDirty()
	r.logger.Info("working tree", zap.Bool("dirty", snap.Dirty))

	if branch := r.repo.Branch(); branch != "" {
		format, err := r.loader.Load(callable.BranchFormatter, opts.BranchFormatter)
		if err != nil {
			return nil, err
		}
		if format != nil {
			formatted, err := format(branch)
			if err != nil {
				return nil, fmt.Errorf("branch_formatter: %w", err)
			}
			res.addf("branch_formatter: %s -> %q", branch, formatted)
			branch = formatted
		}
		snap.Branch = &branch
		r.logger.Info("current branch", zap.String("branch", branch))
	}

	var template string
	switch {
	case snap.Dirty:
		res.Template, template = TemplateDirty, opts.DirtyTemplate
		res.addf("working tree is dirty, using %s", TemplateDirty)
	case !snap.OnTag && snap.CCount != nil:
		res.Template, template = TemplateDev, opts.DevTemplate
		res.addf("HEAD is ahead of %s, using %s", tag, TemplateDev)
	default:
		res.Template, template = TemplateRelease, opts.Template
		res.addf("using %s", TemplateRelease)
	}
	r.logger.Info("selected template", zap.String("name", res.Template), zap.String("template", template))
	if snap.CCount == nil && strings.Contains(template, "{ccount") {
		r.logger.Warn("commit count is unknown and renders empty", zap.String("template", template))
		res.addf("commit count is unknown, {ccount} renders empty")
	}

	engine := subst.NewEngine(opts.Env, r.logger)
	rendered, err := engine.Resolve(template, subst.Fields{
		Tag:     tag,
		Sha:     git.ShortSha(snap.HeadSha, 8),
		FullSha: snap.HeadSha,
		CCount:  snap.CCount,
		Branch:  snap.Branch,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", res.Template, err)
	}
	res.addf("rendered %q", rendered)

	return r.finish(res, source, rendered)
}

func (r *Resolver) finish(res *Result, source Source, raw string) (*Result, error) {
	v, err := pep440.Sanitize(raw)
	if err != nil {
		return nil, err
	}
	r.logger.Info("resolved version", zap.String("raw", raw), zap.String("version", v.String()))
	res.addf("sanitized %q -> %s", raw, v)

	res.Raw = raw
	res.Source = source
	res.Version = v
	return res, nil
}

// latestTag returns the first tag, in sort order, accepted by filter.
// A filter accepts a tag by returning a non-empty string.
func (r *Resolver) latestTag(sortBy git.SortKey, filter callable.Func) (string, error) {
	r.logger.Debug("listing tags", zap.String("sort_by", string(sortBy)))
	var latest string
	visit := func(tag string) (bool, error) {
		if filter == nil {
			latest = tag
			return false, nil
		}
		out, err := filter(tag)
		if err != nil {
			return false, fmt.Errorf("tag_filter: %w", err)
		}
		if out != "" {
			latest = tag
			return false, nil
		}
		r.logger.Debug("tag filtered out", zap.String("tag", tag))
		return true, nil
	}

	if walker, ok := r.repo.(git.TagWalker); ok {
		if err := walker.WalkTags(sortBy, visit); err != nil {
			return "", err
		}
		return latest, nil
	}
	for _, tag := range r.repo.Tags(sortBy) {
		more, err := visit(tag)
		if err != nil {
			return "", err
		}
		if !more {
			break
		}
	}
	return latest, nil
}

func (r *Resolver) countSince(ref string) *int {
	n, ok := r.repo.CountSince(ref)
	if !ok {
		r.logger.Info("commit count is unknown", zap.String("since", ref))
		return nil
	}
	return &n
}

// pkgInfoVersion returns the Version: line of PKG-INFO, if there is one.
func (r *Resolver) pkgInfoVersion() (string, bool, error) {
	if r.fsys == nil {
		return "", false, nil
	}
	data, err := fs.ReadFile(r.fsys, PkgInfoFile)
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading %s: %w", PkgInfoFile, err)
	}

	r.logger.Info("found metadata file", zap.String("file", PkgInfoFile))
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		if v, ok := strings.CutPrefix(scanner.Text(), "Version:"); ok {
			return strings.TrimSpace(v), true, nil
		}
	}
	return "", false, scanner.Err()
}

// readVersionFile returns the trimmed file content. found is false when the
// file does not exist. Paths that leave the project root are read from disk
// relative to the root set by WithRoot.
func (r *Resolver) readVersionFile(name string) (content string, found bool, err error) {
	var data []byte
	rel := path.Clean(filepath.ToSlash(name))
	switch {
	case filepath.IsAbs(name):
		data, err = os.ReadFile(name)
	case !fs.ValidPath(rel) && r.root != "":
		data, err = os.ReadFile(filepath.Join(r.root, filepath.FromSlash(rel)))
	case r.fsys != nil:
		data, err = fs.ReadFile(r.fsys, rel)
	default:
		err = fs.ErrNotExist
	}
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading version_file %s: %w", name, err)
	}
	return strings.TrimSpace(string(data)), true, nil
}

func formatCount(n *int) string {
	if n == nil {
		return "unknown"
	}
	return fmt.Sprint(*n)
}
