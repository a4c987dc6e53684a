package core

import (
	"path"
	"sort"
	"strings"

	"github.com/barysiuk/crs/internal/core/system"
)

// promptsDir is the one directory a single-document tool keeps besides its
// root document.
const promptsDir = "prompts"

// PrepareInstall turns a validated remote file list into the canonical file
// set of a profile for sys: filter by tool, drop sensitive files,
// restructure, then strip any shared prefix. Paths that collided after
// restructuring are returned as dropped; the first occurrence wins.
//
// PrepareInstall is idempotent: feeding its output back in yields the same
// output.
func PrepareInstall(files []RemoteFile, sys system.System) (install []RemoteFile, dropped []string) {
	filtered := FilterByTool(files, sys)
	safe := FilterSensitiveFiles(filtered)
	restructured, dropped := RestructurePaths(safe, sys)
	return StripCommonPrefix(restructured), dropped
}

// FilterByTool keeps only the files relevant to sys.
//
// For a single-document tool that is the shallowest root document. For a
// markdown tool the shallowest root document anchors the import: its own
// root document is kept along with the category files of the most populated
// container below it. Without an anchor every category markdown file in the
// tree is kept.
func FilterByTool(files []RemoteFile, sys system.System) []RemoteFile {
	anchor, ok := shallowest(files, sys.RootDocument())

	if len(sys.Categories()) == 0 {
		if !ok {
			return nil
		}
		return []RemoteFile{files[anchor]}
	}

	if !ok {
		var kept []RemoteFile
		for _, f := range files {
			if categoryIndex(splitPath(f.Path), structuredCategories) >= 0 && isMarkdown(f.Path) {
				kept = append(kept, f)
			}
		}
		return kept
	}

	anchorDir := splitPath(files[anchor].Path)
	anchorDir = anchorDir[:len(anchorDir)-1]

	counts := make(map[string]int)
	for _, f := range files {
		rel, ok := relativeTo(splitPath(f.Path), anchorDir)
		if !ok || !isMarkdown(f.Path) {
			continue
		}
		if i := categoryIndex(rel, structuredCategories); i >= 0 {
			counts[strings.Join(rel[:i], "/")]++
		}
	}
	container := busiestContainer(counts)

	kept := []RemoteFile{files[anchor]}
	for i, f := range files {
		if i == anchor {
			continue
		}
		rel, ok := relativeTo(splitPath(f.Path), anchorDir)
		if !ok || !isMarkdown(f.Path) {
			continue
		}
		if ci := categoryIndex(rel, structuredCategories); ci >= 0 && strings.Join(rel[:ci], "/") == container {
			kept = append(kept, f)
		}
	}
	return kept
}

// RestructurePaths rewrites each path into the profile layout of sys. The
// root document lands at the root under its canonical name; category
// directories (or prompts/ for single-document tools) are hoisted to the
// root; anything else is flattened to its basename.
func RestructurePaths(files []RemoteFile, sys system.System) (out []RemoteFile, dropped []string) {
	hoist := sys.Categories()
	last := false
	if len(hoist) == 0 {
		hoist = []string{promptsDir}
		last = true
	}

	seen := make(map[string]bool, len(files))
	for _, f := range files {
		parts := splitPath(f.Path)
		var p string
		switch i := hoistIndex(parts, hoist, last); {
		case strings.EqualFold(parts[len(parts)-1], sys.RootDocument()):
			p = sys.RootDocument()
		case i >= 0:
			parts[i] = strings.ToLower(parts[i])
			p = strings.Join(parts[i:], "/")
		default:
			p = parts[len(parts)-1]
		}
		if seen[p] {
			dropped = append(dropped, f.Path)
			continue
		}
		seen[p] = true
		f.Path = p
		out = append(out, f)
	}
	return out, dropped
}

// StripCommonPrefix removes leading directories shared by every path. It
// never strips a category directory, and never a file name.
func StripCommonPrefix(files []RemoteFile) []RemoteFile {
	if len(files) == 0 {
		return files
	}
	split := make([][]string, len(files))
	for i, f := range files {
		split[i] = splitPath(f.Path)
	}

	n := 0
	for ; ; n++ {
		seg := ""
		shared := true
		for i, parts := range split {
			if len(parts) <= n+1 {
				shared = false
				break
			}
			if i == 0 {
				seg = parts[n]
			} else if parts[n] != seg {
				shared = false
				break
			}
		}
		if !shared || isKnownDir(seg) {
			break
		}
	}
	if n == 0 {
		return files
	}

	out := make([]RemoteFile, len(files))
	for i, f := range files {
		f.Path = strings.Join(split[i][n:], "/")
		out[i] = f
	}
	return out
}

// shallowest returns the index of the file named name (case-insensitive)
// with the fewest path segments. Ties go to the earlier file.
func shallowest(files []RemoteFile, name string) (int, bool) {
	best, depth := -1, 0
	for i, f := range files {
		parts := splitPath(f.Path)
		if !strings.EqualFold(parts[len(parts)-1], name) {
			continue
		}
		if best < 0 || len(parts) < depth {
			best, depth = i, len(parts)
		}
	}
	return best, best >= 0
}

// busiestContainer picks the container with the most category files,
// preferring shallower and then lexically smaller containers on ties.
func busiestContainer(counts map[string]int) string {
	if len(counts) == 0 {
		return ""
	}
	containers := make([]string, 0, len(counts))
	for c := range counts {
		containers = append(containers, c)
	}
	depth := func(c string) int {
		if c == "" {
			return 0
		}
		return len(splitPath(c))
	}
	sort.Slice(containers, func(i, j int) bool {
		a, b := containers[i], containers[j]
		if counts[a] != counts[b] {
			return counts[a] > counts[b]
		}
		if depth(a) != depth(b) {
			return depth(a) < depth(b)
		}
		return a < b
	})
	return containers[0]
}

// categoryIndex returns the index of the first directory segment of parts
// that names one of categories, or -1.
func categoryIndex(parts, categories []string) int {
	for i := 0; i < len(parts)-1; i++ {
		for _, c := range categories {
			if strings.EqualFold(parts[i], c) {
				return i
			}
		}
	}
	return -1
}

// hoistIndex is categoryIndex, optionally searching for the last match.
func hoistIndex(parts, dirs []string, last bool) int {
	if !last {
		return categoryIndex(parts, dirs)
	}
	for i := len(parts) - 2; i >= 0; i-- {
		for _, d := range dirs {
			if strings.EqualFold(parts[i], d) {
				return i
			}
		}
	}
	return -1
}

func relativeTo(parts, dir []string) ([]string, bool) {
	if len(parts) <= len(dir) {
		return nil, false
	}
	for i, seg := range dir {
		if parts[i] != seg {
			return nil, false
		}
	}
	return parts[len(dir):], true
}

func isKnownDir(seg string) bool {
	if strings.EqualFold(seg, promptsDir) {
		return true
	}
	for _, s := range system.All() {
		for _, c := range s.Categories() {
			if strings.EqualFold(seg, c) {
				return true
			}
		}
	}
	return false
}

func isMarkdown(p string) bool {
	return strings.EqualFold(path.Ext(p), ".md")
}

// splitPath normalizes separators and splits p into segments. The result
// always has at least one element.
func splitPath(p string) []string {
	p = strings.Trim(strings.ReplaceAll(p, `\`, "/"), "/")
	if p == "" {
		return []string{""}
	}
	return strings.Split(p, "/")
}
