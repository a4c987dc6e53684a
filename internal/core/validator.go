package core

import (
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/barysiuk/crs/internal/core/asset"
	"github.com/barysiuk/crs/internal/core/system"
)

const (
	maxSingleFileSize = 1024 * 1024
	maxTotalSize      = 10 * 1024 * 1024
)

var (
	// dangerousFilePattern matches executables and scripts; always fatal.
	dangerousFilePattern = regexp.MustCompile(`(?i)\.(exe|dll|so|dylib|sh|bat|cmd|ps1|app)$`)

	// sensitiveFilePattern matches credentials and keys; warned about here,
	// dropped by FilterSensitiveFiles.
	sensitiveFilePattern = regexp.MustCompile(`(?i)\.(env|key|pem|p12|pfx|cer|crt|credentials)$`)

	// dangerousContentPatterns flag content without rejecting it.
	dangerousContentPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)eval\s*\(`),
		regexp.MustCompile(`(?i)exec\s*\(`),
		regexp.MustCompile(`(?i)rm\s+-rf`),
		regexp.MustCompile(`(?i)del\s+/[sS]\s+/[qQ]`),
	}
)

// structuredCategories are the claude collections whose files must be
// markdown. Skills may ship helper files and are not checked.
var structuredCategories = []string{"agents", "workflows", "commands"}

// ValidateTemplate checks a fetched file list: it detects the target tool,
// checks structure, flags unsafe files and content, and warns about size.
func ValidateTemplate(files []RemoteFile) *ValidationResult {
	return ValidateTemplateFor(files, "")
}

// ValidateTemplateFor is ValidateTemplate with the structure checked against
// tool instead of the detected tool. ToolType still reports the detection.
func ValidateTemplateFor(files []RemoteFile, tool string) *ValidationResult {
	result := &ValidationResult{Files: files}

	if len(files) == 0 {
		result.Errors = append(result.Errors, "No files found in the remote template")
		return result
	}

	sys, ok := detectSystem(files)
	if !ok {
		var docs []string
		for _, s := range system.All() {
			docs = append(docs, fmt.Sprintf("%s (%s)", s.RootDocument(), s.DisplayName()))
		}
		result.Errors = append(result.Errors,
			"Cannot detect tool type. Required: "+strings.Join(docs, " or "))
		return result
	}
	result.ToolType = sys.Name()

	if tool != "" {
		target, err := system.Lookup(tool)
		if err != nil {
			result.Errors = append(result.Errors, err.Error())
			return result
		}
		sys = target
	}

	result.Errors = append(result.Errors, checkStructure(files, sys)...)

	errs, warnings := checkSecurity(files)
	result.Errors = append(result.Errors, errs...)
	result.Warnings = append(result.Warnings, warnings...)
	result.Warnings = append(result.Warnings, checkFrontmatter(files)...)
	result.Warnings = append(result.Warnings, checkFileSizes(files)...)

	result.Valid = len(result.Errors) == 0
	return result
}

// detectSystem picks the first registered system whose root document
// appears anywhere in the file list.
func detectSystem(files []RemoteFile) (system.System, bool) {
	names := make(map[string]bool, len(files))
	for _, f := range files {
		names[strings.ToLower(path.Base(f.Path))] = true
	}
	for _, s := range system.All() {
		if names[strings.ToLower(s.RootDocument())] {
			return s, true
		}
	}
	return nil, false
}

// checkStructure requires the root document of sys and markdown files in
// its structured categories. The root document check only fails when sys
// was chosen explicitly, since detection already found one otherwise.
func checkStructure(files []RemoteFile, sys system.System) []string {
	var errs []string

	found := false
	for _, f := range files {
		if strings.EqualFold(path.Base(f.Path), sys.RootDocument()) {
			found = true
			break
		}
	}
	if !found {
		errs = append(errs, "Missing required file: "+sys.RootDocument())
	}

	if len(sys.Categories()) == 0 {
		return errs
	}
	for _, f := range files {
		p := normalizePath(f.Path)
		dir, _, ok := strings.Cut(p, "/")
		if !ok {
			continue
		}
		for _, cat := range structuredCategories {
			if dir == cat && !strings.HasSuffix(p, ".md") {
				errs = append(errs, fmt.Sprintf("Invalid file in %s/: %s (expected .md files)", cat, f.Path))
			}
		}
	}
	return errs
}

func checkSecurity(files []RemoteFile) (errs, warnings []string) {
	for _, f := range files {
		name := path.Base(f.Path)

		if dangerousFilePattern.MatchString(name) {
			errs = append(errs, fmt.Sprintf("Dangerous file type detected: %s (executable or script)", f.Path))
			continue
		}
		if sensitiveFilePattern.MatchString(name) {
			warnings = append(warnings, fmt.Sprintf("Potentially sensitive file: %s (will not be installed)", f.Path))
			continue
		}
		for _, re := range dangerousContentPatterns {
			if re.MatchString(f.Content) {
				warnings = append(warnings, fmt.Sprintf("Potentially dangerous content in %s (contains: %s)", f.Path, re.String()))
			}
		}
	}
	return errs, warnings
}

// checkFrontmatter warns about markdown files whose frontmatter block does
// not parse; the assistant would ignore their name and description.
func checkFrontmatter(files []RemoteFile) []string {
	var warnings []string
	for _, f := range files {
		if !strings.HasSuffix(strings.ToLower(f.Path), ".md") {
			continue
		}
		if err := asset.Check(f.Content, f.Path); err != nil {
			warnings = append(warnings, fmt.Sprintf("Malformed frontmatter in %s: %v", f.Path, err))
		}
	}
	return warnings
}

func checkFileSizes(files []RemoteFile) []string {
	var warnings []string
	var total int64
	for _, f := range files {
		total += f.Size
		if f.Size > maxSingleFileSize {
			warnings = append(warnings, fmt.Sprintf("Large file detected: %s (%s)", f.Path, FormatBytes(f.Size)))
		}
	}
	if total > maxTotalSize {
		warnings = append(warnings, fmt.Sprintf("Template size is large: %s (may take longer to download)", FormatBytes(total)))
	}
	return warnings
}

// FilterSensitiveFiles drops credential and key files.
func FilterSensitiveFiles(files []RemoteFile) []RemoteFile {
	var kept []RemoteFile
	for _, f := range files {
		if !sensitiveFilePattern.MatchString(path.Base(f.Path)) {
			kept = append(kept, f)
		}
	}
	return kept
}

// FormatBytes renders a byte count for humans.
func FormatBytes(n int64) string {
	switch {
	case n < 1024:
		return fmt.Sprintf("%d B", n)
	case n < 1024*1024:
		return fmt.Sprintf("%.1f KB", float64(n)/1024)
	default:
		return fmt.Sprintf("%.1f MB", float64(n)/(1024*1024))
	}
}

func normalizePath(p string) string {
	return strings.TrimLeft(strings.ReplaceAll(strings.ToLower(p), `\`, "/"), "/")
}
