package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
)

// MaxRemoteFileSize is the largest file the fetcher downloads.
const MaxRemoteFileSize = 5 * 1024 * 1024

// Fetcher downloads every file under a repository directory.
type Fetcher struct {
	api         ContentAPI
	maxFileSize int64
	log         *slog.Logger
}

// NewFetcher creates a Fetcher over the given API. A nil logger means
// slog.Default().
func NewFetcher(api ContentAPI, log *slog.Logger) *Fetcher {
	if log == nil {
		log = slog.Default()
	}
	return &Fetcher{api: api, maxFileSize: MaxRemoteFileSize, log: log}
}

// FetchSource fetches the files a source reference points at. When the ref
// was defaulted and does not exist, it retries once on the repository's
// default branch. The returned SourceRef carries the ref actually used.
func (f *Fetcher) FetchSource(ctx context.Context, src SourceRef) ([]RemoteFile, SourceRef, error) {
	if !src.Valid {
		return nil, src, fmt.Errorf("%w: %s", ErrInvalidSource, src.String())
	}

	files, err := f.Fetch(ctx, src.Owner, src.Repo, src.Path, src.Ref)
	if err == nil || src.RefExplicit || !errors.Is(err, ErrNotFound) {
		return files, src, err
	}

	branch, branchErr := f.api.DefaultBranch(ctx, src.Owner, src.Repo)
	if branchErr != nil || branch == "" || branch == src.Ref {
		// Report the original failure.
		return nil, src, err
	}
	f.log.Debug("ref not found, falling back to default branch",
		"repo", src.Owner+"/"+src.Repo, "ref", src.Ref, "branch", branch)

	src.Ref = branch
	files, err = f.Fetch(ctx, src.Owner, src.Repo, src.Path, src.Ref)
	return files, src, err
}

// Fetch walks subpath (the repository root when empty) depth-first in name
// order and returns every regular file with its full repository path.
// Files over the size ceiling are skipped with a warning.
func (f *Fetcher) Fetch(ctx context.Context, owner, repo, subpath, ref string) ([]RemoteFile, error) {
	entries, err := f.api.Contents(ctx, owner, repo, subpath, ref)
	if err != nil {
		return nil, err
	}
	var files []RemoteFile
	if err := f.walk(ctx, owner, repo, ref, entries, &files); err != nil {
		return nil, err
	}
	return files, nil
}

func (f *Fetcher) walk(ctx context.Context, owner, repo, ref string, entries []ContentEntry, out *[]RemoteFile) error {
	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })

	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		switch e.Type {
		case "dir":
			children, err := f.api.Contents(ctx, owner, repo, e.Path, ref)
			if err != nil {
				return err
			}
			if err := f.walk(ctx, owner, repo, ref, children, out); err != nil {
				return err
			}

		case "file":
			if e.Size > f.maxFileSize {
				f.log.Warn("skipping large file", "path", e.Path, "size", e.Size, "limit", f.maxFileSize)
				continue
			}
			data, err := f.api.File(ctx, owner, repo, e.Path, ref)
			if err != nil {
				if errors.Is(err, ErrNotFound) {
					f.log.Warn("skipping file that disappeared during fetch", "path", e.Path)
					continue
				}
				return err
			}
			*out = append(*out, RemoteFile{Path: e.Path, Content: string(data), Size: int64(len(data))})

		default:
			// Symlinks and submodules are not followed.
			f.log.Debug("skipping entry", "path", e.Path, "type", e.Type)
		}
	}
	return nil
}

// LatestCommit returns the newest commit touching the source's path.
func (f *Fetcher) LatestCommit(ctx context.Context, src SourceRef) (string, error) {
	return f.api.LatestCommit(ctx, src.Owner, src.Repo, src.Path, src.Ref)
}
