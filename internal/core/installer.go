package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/barysiuk/crs/internal/core/system"
)

// Installer runs the remote import pipeline: parse the source, fetch it,
// validate, restructure, store the profile and record the source in the
// registry.
type Installer struct {
	fetcher  *Fetcher
	paths    *Paths
	registry *Registry
	opts     StoreOptions
	log      *slog.Logger
}

// NewInstaller creates an Installer. opts configures the profile stores it
// writes through.
func NewInstaller(fetcher *Fetcher, paths *Paths, opts StoreOptions) *Installer {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Installer{
		fetcher:  fetcher,
		paths:    paths,
		registry: NewRegistry(paths),
		opts:     opts,
		log:      log,
	}
}

// Registry returns the registry the installer records sources in.
func (i *Installer) Registry() *Registry { return i.registry }

func (i *Installer) store(sys system.System) *ProfileStore {
	return NewProfileStore(i.paths, sys, i.opts)
}

// InstallOptions configures an install from a URL.
type InstallOptions struct {
	Description string
	Tool        string // overrides the detected tool when set
	Save        bool   // record the source in the registry under the profile name
}

// InstallResult is the outcome of an install or sync.
type InstallResult struct {
	Profile    *Profile
	Source     SourceRef // as fetched, with the ref actually used
	Validation *ValidationResult
	Remote     *RemoteSource // set when the source was recorded
	Fetched    int           // files downloaded before filtering
	IsCurrent  bool          // the synced profile is the live one
}

// PreviewResult describes what an install would do without writing.
type PreviewResult struct {
	Source      SourceRef
	Validation  *ValidationResult
	ToolType    string // tool the files would be installed for, empty if unknown
	SourceFiles []RemoteFile
	SourceSize  int64
	Install     []RemoteFile
	InstallSize int64
	Categories  map[string]int // install files per top-level directory; "" for root files
}

// Skipped is the number of fetched files left out of the install.
func (p *PreviewResult) Skipped() int { return len(p.SourceFiles) - len(p.Install) }

// Preview fetches and validates a source and computes its install plan.
func (i *Installer) Preview(ctx context.Context, url, tool string) (*PreviewResult, error) {
	files, src, err := i.fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	res := &PreviewResult{
		Source:      src,
		Validation:  ValidateTemplateFor(files, tool),
		SourceFiles: files,
		SourceSize:  totalSize(files),
		Categories:  make(map[string]int),
	}
	res.ToolType = res.Validation.ToolType
	if tool != "" {
		res.ToolType = tool
	}
	if res.ToolType == "" {
		return res, nil
	}

	sys, err := system.Lookup(res.ToolType)
	if err != nil {
		return nil, err
	}
	res.Install, _ = PrepareInstall(files, sys)
	res.InstallSize = totalSize(res.Install)
	for _, f := range res.Install {
		dir, _, ok := strings.Cut(f.Path, "/")
		if !ok {
			dir = ""
		}
		res.Categories[dir]++
	}
	return res, nil
}

// InstallFromURL imports a source as a new profile. Name conflicts are
// checked before anything is written, and before fetching when the tool is
// known up front. When validation fails the result carries the findings and
// the error wraps ErrValidation.
func (i *Installer) InstallFromURL(ctx context.Context, url, name string, opts InstallOptions) (*InstallResult, error) {
	if err := ValidateProfileName(name); err != nil {
		return nil, err
	}
	if opts.Tool != "" {
		sys, err := system.Lookup(opts.Tool)
		if err != nil {
			return nil, err
		}
		if err := i.store(sys).checkAvailable(name); err != nil {
			return nil, err
		}
	}
	if opts.Save {
		if _, err := i.registry.Get(name); err == nil {
			return nil, fmt.Errorf("remote %q: %w", name, ErrAlreadyExists)
		} else if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}

	files, src, err := i.fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	res, sys, bundle, err := i.prepare(files, src, opts.Tool)
	if err != nil {
		return res, err
	}

	store := i.store(sys)
	description := opts.Description
	if description == "" {
		description = "Imported from " + src.String()
	}
	res.Profile, err = store.CreateFromBundle(name, description, bundle)
	if err != nil {
		return res, err
	}
	i.log.Info("installed profile from remote", "profile", name, "source", src.String(), "files", bundle.FileCount())

	if opts.Save {
		remote := RemoteSource{
			Name:        name,
			URL:         url,
			ToolType:    sys.Name(),
			Branch:      src.Ref,
			Path:        src.Path,
			LastSync:    i.now(),
			LastCommit:  i.latestCommit(ctx, src),
			Description: opts.Description,
		}
		if err := i.registry.Upsert(remote); err != nil {
			return res, err
		}
		res.Remote = &remote
	}
	return res, nil
}

// AddRemote registers a source under name and installs it as the profile of
// the same name.
func (i *Installer) AddRemote(ctx context.Context, name, url string, opts InstallOptions) (*InstallResult, error) {
	opts.Save = true
	return i.InstallFromURL(ctx, url, name, opts)
}

// UseRemote copies the profile installed for a registered remote into a new
// profile.
func (i *Installer) UseRemote(remoteName, profileName, description string) (*Profile, error) {
	remote, err := i.registry.Get(remoteName)
	if err != nil {
		return nil, err
	}
	sys, err := system.Lookup(remote.ToolType)
	if err != nil {
		return nil, err
	}
	store := i.store(sys)
	p, err := store.LoadProfile(remote.Name)
	if err != nil {
		return nil, fmt.Errorf("remote %q has no installed profile: %w", remoteName, err)
	}
	if description == "" {
		description = p.Description
	}
	return store.CreateFromBundle(profileName, description, p.Bundle)
}

// SyncRemote re-fetches a registered remote and overwrites its profile,
// keeping the profile's creation time and description. The live directory
// is not touched even when the profile is current.
func (i *Installer) SyncRemote(ctx context.Context, name string) (*InstallResult, error) {
	remote, err := i.registry.Get(name)
	if err != nil {
		return nil, err
	}

	src := ParseSourceRef(remote.URL)
	if !src.Valid {
		return nil, fmt.Errorf("remote %q: %w: %s", name, ErrInvalidSource, remote.URL)
	}
	if remote.Branch != "" {
		src.Ref, src.RefExplicit = remote.Branch, true
	}
	if remote.Path != "" {
		src.Path = remote.Path
	}

	files, src, err := i.fetcher.FetchSource(ctx, src)
	if err != nil {
		return nil, err
	}
	res, sys, bundle, err := i.prepare(files, src, remote.ToolType)
	if err != nil {
		return res, err
	}

	store := i.store(sys)
	p := &Profile{
		ProfileMetadata: ProfileMetadata{
			Name:        name,
			Description: remote.Description,
			CreatedAt:   i.now(),
		},
		Bundle: bundle,
	}
	if existing, err := store.LoadProfile(name); err == nil {
		p.ProfileMetadata = existing.ProfileMetadata
	} else if !errors.Is(err, ErrNotFound) {
		return res, err
	}
	if p.Description == "" {
		p.Description = "Imported from " + src.String()
	}
	if err := store.SaveProfile(p); err != nil {
		return res, err
	}
	res.Profile = p
	current, ok := store.CurrentProfile()
	res.IsCurrent = ok && current == name

	remote.LastSync = i.now()
	if commit := i.latestCommit(ctx, src); commit != "" {
		remote.LastCommit = commit
	}
	if err := i.registry.Upsert(remote); err != nil {
		return res, err
	}
	res.Remote = &remote
	i.log.Info("synced remote", "remote", name, "files", bundle.FileCount())
	return res, nil
}

// RemoveRemote deletes a registry entry and the profile installed for it.
// The current profile cannot be removed this way.
func (i *Installer) RemoveRemote(name string) error {
	remote, err := i.registry.Get(name)
	if err != nil {
		return err
	}
	sys, err := system.Lookup(remote.ToolType)
	if err != nil {
		return err
	}
	store := i.store(sys)
	if store.ProfileExists(name) {
		if err := store.DeleteProfile(name); err != nil {
			return err
		}
	}
	return i.registry.Remove(name)
}

// fetch parses url and downloads the files it points at.
func (i *Installer) fetch(ctx context.Context, url string) ([]RemoteFile, SourceRef, error) {
	src := ParseSourceRef(url)
	if !src.Valid {
		return nil, src, fmt.Errorf("%w: %q (use owner/repo[@ref][:path] or a github.com URL)", ErrInvalidSource, url)
	}
	return i.fetcher.FetchSource(ctx, src)
}

// prepare validates fetched files and turns them into a bundle for tool, or
// for the detected tool when tool is empty.
func (i *Installer) prepare(files []RemoteFile, src SourceRef, tool string) (*InstallResult, system.System, system.Bundle, error) {
	res := &InstallResult{Source: src, Validation: ValidateTemplateFor(files, tool), Fetched: len(files)}
	if !res.Validation.Valid {
		return res, nil, nil, fmt.Errorf("%w: %s", ErrValidation, strings.Join(res.Validation.Errors, "; "))
	}
	for _, w := range res.Validation.Warnings {
		i.log.Debug("validation warning", "warning", w)
	}

	if tool == "" {
		tool = res.Validation.ToolType
	}
	sys, err := system.Lookup(tool)
	if err != nil {
		return res, nil, nil, err
	}

	install, dropped := PrepareInstall(files, sys)
	for _, p := range dropped {
		i.log.Warn("skipping duplicate path after restructuring", "path", p)
	}

	bundleFiles := make([]system.File, len(install))
	for n, f := range install {
		bundleFiles[n] = system.File{Path: f.Path, Content: f.Content}
	}
	bundle, skipped := sys.FromFiles(bundleFiles)
	for _, p := range skipped {
		i.log.Debug("path has no place in the profile", "path", p)
	}
	if bundle.FileCount() == 0 {
		return res, nil, nil, fmt.Errorf("no %s files found in %s", sys.DisplayName(), src.String())
	}
	return res, sys, bundle, nil
}

// latestCommit looks up the newest commit for src. Failures only cost the
// registry its lastCommit field.
func (i *Installer) latestCommit(ctx context.Context, src SourceRef) string {
	sha, err := i.fetcher.LatestCommit(ctx, src)
	if err != nil {
		i.log.Warn("could not resolve latest commit", "source", src.String(), "error", err)
		return ""
	}
	return sha
}

func (i *Installer) now() time.Time {
	if i.opts.Now != nil {
		return i.opts.Now().UTC()
	}
	return time.Now().UTC()
}

func totalSize(files []RemoteFile) int64 {
	var n int64
	for _, f := range files {
		n += f.Size
	}
	return n
}
