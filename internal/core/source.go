package core

import (
	"net/url"
	"regexp"
	"strings"
)

// DefaultRef is the ref used when a source reference does not name one.
const DefaultRef = "main"

// segmentPattern matches a single GitHub owner or repository name.
var segmentPattern = regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`)

// ParseSourceRef parses a GitHub source reference into a SourceRef.
// It never fails: unrecognized input yields a SourceRef with Valid false.
//
// Supported formats:
//   - "owner/repo"                                → repo root on main
//   - "owner/repo@ref"                            → repo root on ref
//   - "owner/repo@ref:path/to/dir"                → subdirectory on ref
//   - "owner/repo:path/to/dir"                    → subdirectory on main
//   - "https://github.com/owner/repo"             → repo root on main
//   - "https://github.com/owner/repo/tree/ref/p"  → subdirectory on ref
//   - "https://github.com/owner/repo/blob/ref/p"  → same as tree
//   - "https://github.com/owner/repo/commit/sha"  → repo root at commit
func ParseSourceRef(input string) SourceRef {
	input = strings.TrimSpace(input)
	if strings.HasPrefix(input, "https://") || strings.HasPrefix(input, "http://") {
		return parseSourceURL(input)
	}
	return parseShortSource(input)
}

func parseSourceURL(input string) SourceRef {
	ref := SourceRef{Ref: DefaultRef}

	u, err := url.Parse(input)
	if err != nil {
		return ref
	}
	host := strings.ToLower(u.Hostname())
	if host != "github.com" && host != "www.github.com" {
		return ref
	}

	// Parse path segments: /owner/repo[/{tree|blob}/ref[/subpath]] or /owner/repo/commit/sha
	var parts []string
	for _, p := range strings.Split(u.Path, "/") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) < 2 {
		return ref
	}

	ref.Owner = parts[0]
	ref.Repo = strings.TrimSuffix(parts[1], ".git")

	if len(parts) > 3 {
		switch parts[2] {
		case "tree", "blob":
			ref.Ref = parts[3]
			ref.RefExplicit = true
			if len(parts) > 4 {
				ref.Path = strings.Join(parts[4:], "/")
			}
		case "commit":
			ref.Ref = parts[3]
			ref.RefExplicit = true
		}
	}

	ref.Valid = segmentPattern.MatchString(ref.Owner) && segmentPattern.MatchString(ref.Repo)
	return ref
}

func parseShortSource(input string) SourceRef {
	ref := SourceRef{Ref: DefaultRef}

	repoPart := input
	if before, after, ok := strings.Cut(input, ":"); ok {
		repoPart = before
		ref.Path = strings.Trim(strings.TrimSpace(after), "/")
	}

	if before, after, ok := strings.Cut(repoPart, "@"); ok {
		repoPart = before
		if r := strings.TrimSpace(after); r != "" {
			ref.Ref = r
			ref.RefExplicit = true
		}
	}

	parts := strings.Split(repoPart, "/")
	if len(parts) != 2 {
		return ref
	}
	ref.Owner = strings.TrimSpace(parts[0])
	ref.Repo = strings.TrimSuffix(strings.TrimSpace(parts[1]), ".git")
	ref.Valid = segmentPattern.MatchString(ref.Owner) && segmentPattern.MatchString(ref.Repo)
	return ref
}

// String renders the reference in short form: owner/repo[@ref][:path].
// A defaulted ref is omitted.
func (r SourceRef) String() string {
	var b strings.Builder
	b.WriteString(r.Owner + "/" + r.Repo)
	if r.RefExplicit {
		b.WriteString("@" + r.Ref)
	}
	if r.Path != "" {
		b.WriteString(":" + r.Path)
	}
	return b.String()
}

// WebURL renders the reference as a github.com URL.
func (r SourceRef) WebURL() string {
	u := "https://github.com/" + r.Owner + "/" + r.Repo
	if r.RefExplicit || r.Path != "" {
		u += "/tree/" + r.Ref
	}
	if r.Path != "" {
		u += "/" + r.Path
	}
	return u
}
