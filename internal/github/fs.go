package github

import (
	"bytes"
	"context"
	"io/fs"
	"path"
	"time"

	gh "github.com/google/go-github/v68/github"
)

// FS exposes the files of a repository at a ref as a read-only fs.FS.
// Directories cannot be opened.
type FS struct {
	client *gh.Client
	owner  string
	repo   string
	ref    string
	ctx    context.Context
}

var _ fs.ReadFileFS = (*FS)(nil)

// NewFS returns a file system over owner/repo at ref. An empty ref reads the
// default branch.
func NewFS(ctx context.Context, client *gh.Client, owner, repo, ref string) *FS {
	return &FS{client: client, owner: owner, repo: repo, ref: ref, ctx: ctx}
}

// ReadFile fetches the content of name.
func (f *FS) ReadFile(name string) ([]byte, error) {
	if !fs.ValidPath(name) || name == "." {
		return nil, &fs.PathError{Op: "read", Path: name, Err: fs.ErrInvalid}
	}
	file, _, _, err := f.client.Repositories.GetContents(f.ctx, f.owner, f.repo, name,
		&gh.RepositoryContentGetOptions{Ref: f.ref})
	if err != nil {
		if IsNotFoundError(err) {
			return nil, &fs.PathError{Op: "read", Path: name, Err: fs.ErrNotExist}
		}
		return nil, &fs.PathError{Op: "read", Path: name, Err: err}
	}
	if file == nil {
		return nil, &fs.PathError{Op: "read", Path: name, Err: fs.ErrInvalid}
	}
	content, err := file.GetContent()
	if err != nil {
		return nil, &fs.PathError{Op: "read", Path: name, Err: err}
	}
	return []byte(content), nil
}

// Open implements fs.FS.
func (f *FS) Open(name string) (fs.File, error) {
	data, err := f.ReadFile(name)
	if err != nil {
		if pe, ok := err.(*fs.PathError); ok {
			pe.Op = "open"
		}
		return nil, err
	}
	return &remoteFile{Reader: bytes.NewReader(data), name: path.Base(name), size: int64(len(data))}, nil
}

type remoteFile struct {
	*bytes.Reader
	name string
	size int64
}

func (f *remoteFile) Stat() (fs.FileInfo, error) { return f, nil }
func (f *remoteFile) Close() error { return nil }

func (f *remoteFile) Name() string { return f.name }
func (f *remoteFile) Size() int64 { return f.size }
func (f *remoteFile) Mode() fs.FileMode { return 0o444 }
func (f *remoteFile) ModTime() time.Time { return time.Time{} }
func (f *remoteFile) IsDir() bool { return false }
func (f *remoteFile) Sys() any { return nil }
