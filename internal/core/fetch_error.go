package core

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// FetchErrorKind classifies why a GitHub request failed.
type FetchErrorKind int

const (
	// FetchErrUnknown is an unclassified failure.
	FetchErrUnknown FetchErrorKind = iota
	// FetchErrNotFound means the repository, path or ref does not exist, or
	// is private and the token has no access.
	FetchErrNotFound
	// FetchErrAuth means the token is missing, invalid or lacks permission.
	FetchErrAuth
	// FetchErrRateLimit means the API rate limit is exhausted.
	FetchErrRateLimit
	// FetchErrNetwork means the API host could not be reached.
	FetchErrNetwork
)

// String returns a human-readable label for the error kind.
func (k FetchErrorKind) String() string {
	switch k {
	case FetchErrNotFound:
		return "Not Found"
	case FetchErrAuth:
		return "Authentication Required"
	case FetchErrRateLimit:
		return "Rate Limit Exceeded"
	case FetchErrNetwork:
		return "Network Error"
	default:
		return "Unknown Error"
	}
}

// FetchError is a structured error returned when the GitHub API fails.
// It carries the repository location and actionable hints for the user.
type FetchError struct {
	Kind    FetchErrorKind
	Owner   string
	Repo    string
	Path    string
	Ref     string
	Status  int    // HTTP status, 0 for transport failures
	Message string // message from the API or the transport
	Hints   []string
	Err     error // underlying transport error, if any
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	loc := e.Owner + "/" + e.Repo
	if e.Path != "" {
		loc += "/" + e.Path
	}
	if e.Ref != "" {
		loc += " (ref: " + e.Ref + ")"
	}
	msg := e.Message
	if msg == "" {
		msg = "request failed"
	}
	return fmt.Sprintf("github fetch failed (%s): %s: %s", e.Kind, loc, msg)
}

// Unwrap returns the underlying transport error.
func (e *FetchError) Unwrap() error { return e.Err }

// Is makes a not-found FetchError match ErrNotFound.
func (e *FetchError) Is(target error) bool {
	return target == ErrNotFound && e.Kind == FetchErrNotFound
}

// IsFetchError checks whether an error is a *FetchError and returns it.
func IsFetchError(err error) (*FetchError, bool) {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}

// classifyStatus maps an API response to an error kind. GitHub signals an
// exhausted quota with 403 or 429 and X-RateLimit-Remaining: 0.
func classifyStatus(status int, header http.Header, message string) FetchErrorKind {
	switch {
	case status == http.StatusNotFound:
		return FetchErrNotFound
	case status == http.StatusTooManyRequests:
		return FetchErrRateLimit
	case status == http.StatusForbidden:
		if header.Get("X-RateLimit-Remaining") == "0" ||
			strings.Contains(strings.ToLower(message), "rate limit") {
			return FetchErrRateLimit
		}
		return FetchErrAuth
	case status == http.StatusUnauthorized:
		return FetchErrAuth
	default:
		return FetchErrUnknown
	}
}

// hintsForFetchError returns actionable suggestions based on the error kind.
func hintsForFetchError(kind FetchErrorKind, hasToken bool) []string {
	switch kind {
	case FetchErrNotFound:
		hints := []string{
			"Verify the owner, repository, branch and path are spelled correctly",
			"Specify the branch explicitly, e.g. owner/repo@master",
		}
		if !hasToken {
			hints = append(hints, "If the repository is private, set GITHUB_TOKEN")
		}
		return hints

	case FetchErrAuth:
		if hasToken {
			return []string{
				"The token was rejected; check that GITHUB_TOKEN is valid and not expired",
				"Ensure the token can read repository contents",
			}
		}
		return []string{
			"Set GITHUB_TOKEN (or GH_TOKEN) to a personal access token",
			"Or add a token under [github] in config.toml",
		}

	case FetchErrRateLimit:
		if hasToken {
			return []string{"The authenticated rate limit is exhausted; try again later"}
		}
		return []string{
			"Unauthenticated requests are limited to 60 per hour",
			"Set GITHUB_TOKEN (or GH_TOKEN) to raise the limit",
		}

	case FetchErrNetwork:
		return []string{
			"Check your internet connection",
			"If behind a proxy, set HTTPS_PROXY",
		}

	default:
		return []string{"Try again, or open the repository in a browser to check it is reachable"}
	}
}
