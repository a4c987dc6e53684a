package core

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const githubTimeout = 30 * time.Second

// ContentEntry is one item of a GitHub contents listing.
type ContentEntry struct {
	Name string `json:"name"`
	Path string `json:"path"`
	Type string `json:"type"` // "file", "dir", "symlink", "submodule"
	Size int64  `json:"size"`
}

// ContentAPI is the part of the GitHub API the fetcher depends on.
type ContentAPI interface {
	// Contents lists a directory. For a file path it returns that single entry.
	Contents(ctx context.Context, owner, repo, path, ref string) ([]ContentEntry, error)
	// File returns the raw content of a file.
	File(ctx context.Context, owner, repo, path, ref string) ([]byte, error)
	// DefaultBranch returns the repository's default branch.
	DefaultBranch(ctx context.Context, owner, repo string) (string, error)
	// LatestCommit returns the SHA of the newest commit touching path on ref.
	LatestCommit(ctx context.Context, owner, repo, path, ref string) (string, error)
}

// GitHubClient is a minimal GitHub REST client for repository contents.
type GitHubClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
	userAgent  string
}

// NewGitHubClient creates a client for the API at baseURL. An empty token
// means unauthenticated requests.
func NewGitHubClient(baseURL, token string) *GitHubClient {
	return &GitHubClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: githubTimeout},
		userAgent:  "crs",
	}
}

// HasToken reports whether requests are authenticated.
func (c *GitHubClient) HasToken() bool { return c.token != "" }

func (c *GitHubClient) Contents(ctx context.Context, owner, repo, path, ref string) ([]ContentEntry, error) {
	endpoint := c.contentsURL(owner, repo, path, ref)
	body, err := c.get(ctx, endpoint, "application/vnd.github+json", owner, repo, path, ref)
	if err != nil {
		return nil, err
	}

	// A directory is an array; a file is a single object.
	trimmed := strings.TrimSpace(string(body))
	if strings.HasPrefix(trimmed, "[") {
		var entries []ContentEntry
		if err := json.Unmarshal(body, &entries); err != nil {
			return nil, fmt.Errorf("decoding contents of %s/%s/%s: %w", owner, repo, path, err)
		}
		return entries, nil
	}
	var entry ContentEntry
	if err := json.Unmarshal(body, &entry); err != nil {
		return nil, fmt.Errorf("decoding contents of %s/%s/%s: %w", owner, repo, path, err)
	}
	return []ContentEntry{entry}, nil
}

func (c *GitHubClient) File(ctx context.Context, owner, repo, path, ref string) ([]byte, error) {
	return c.get(ctx, c.contentsURL(owner, repo, path, ref), "application/vnd.github.raw", owner, repo, path, ref)
}

func (c *GitHubClient) DefaultBranch(ctx context.Context, owner, repo string) (string, error) {
	endpoint := fmt.Sprintf("%s/repos/%s/%s", c.baseURL, url.PathEscape(owner), url.PathEscape(repo))
	body, err := c.get(ctx, endpoint, "application/vnd.github+json", owner, repo, "", "")
	if err != nil {
		return "", err
	}
	var info struct {
		DefaultBranch string `json:"default_branch"`
	}
	if err := json.Unmarshal(body, &info); err != nil {
		return "", fmt.Errorf("decoding repository %s/%s: %w", owner, repo, err)
	}
	return info.DefaultBranch, nil
}

func (c *GitHubClient) LatestCommit(ctx context.Context, owner, repo, path, ref string) (string, error) {
	q := url.Values{"per_page": {"1"}}
	if path != "" {
		q.Set("path", path)
	}
	if ref != "" {
		q.Set("sha", ref)
	}
	endpoint := fmt.Sprintf("%s/repos/%s/%s/commits?%s", c.baseURL, url.PathEscape(owner), url.PathEscape(repo), q.Encode())
	body, err := c.get(ctx, endpoint, "application/vnd.github+json", owner, repo, path, ref)
	if err != nil {
		return "", err
	}
	var commits []struct {
		SHA string `json:"sha"`
	}
	if err := json.Unmarshal(body, &commits); err != nil {
		return "", fmt.Errorf("decoding commits of %s/%s: %w", owner, repo, err)
	}
	if len(commits) == 0 {
		return "", &FetchError{Kind: FetchErrNotFound, Owner: owner, Repo: repo, Path: path, Ref: ref, Message: "no commits"}
	}
	return commits[0].SHA, nil
}

func (c *GitHubClient) contentsURL(owner, repo, path, ref string) string {
	var segments []string
	for _, s := range strings.Split(strings.Trim(path, "/"), "/") {
		if s != "" {
			segments = append(segments, url.PathEscape(s))
		}
	}
	endpoint := fmt.Sprintf("%s/repos/%s/%s/contents/%s",
		c.baseURL, url.PathEscape(owner), url.PathEscape(repo), strings.Join(segments, "/"))
	if ref != "" {
		endpoint += "?ref=" + url.QueryEscape(ref)
	}
	return endpoint
}

// get performs a GET and converts non-2xx responses into *FetchError.
func (c *GitHubClient) get(ctx context.Context, endpoint, accept, owner, repo, path, ref string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", accept)
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{
			Kind: FetchErrNetwork, Owner: owner, Repo: repo, Path: path, Ref: ref,
			Message: err.Error(), Hints: hintsForFetchError(FetchErrNetwork, c.HasToken()), Err: err,
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{
			Kind: FetchErrNetwork, Owner: owner, Repo: repo, Path: path, Ref: ref,
			Message: err.Error(), Hints: hintsForFetchError(FetchErrNetwork, c.HasToken()), Err: err,
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr struct {
			Message string `json:"message"`
		}
		_ = json.Unmarshal(body, &apiErr)
		if apiErr.Message == "" {
			apiErr.Message = resp.Status
		}
		kind := classifyStatus(resp.StatusCode, resp.Header, apiErr.Message)
		return nil, &FetchError{
			Kind: kind, Owner: owner, Repo: repo, Path: path, Ref: ref,
			Status: resp.StatusCode, Message: apiErr.Message,
			Hints: hintsForFetchError(kind, c.HasToken()),
		}
	}
	return body, nil
}
