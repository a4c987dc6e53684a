package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path"
	"path/filepath"
	"strings"
	"testing"

	"github.com/barysiuk/crs/cmd/crs/cmd"
	"github.com/rogpeppe/go-internal/testscript"
)

func TestMain(m *testing.M) {
	testscript.Main(m, map[string]func(){
		"crs": func() {
			if err := cmd.Execute(); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
		},
	})
}

func TestScript(t *testing.T) {
	testscript.Run(t, testscript.Params{
		Dir:                 filepath.Join("testdata", "script"),
		RequireExplicitExec: true,
		Setup: func(e *testscript.Env) error {
			// HOME=WORK puts ~/.crs-profiles, ~/.claude and ~/.codex in the temp dir.
			e.Vars = append(e.Vars,
				"HOME="+e.WorkDir,
				"CLAUDE_CONFIG_DIR=",
				"CODEX_HOME=",
				"CRS_HOME=",
				"GITHUB_TOKEN=",
				"GH_TOKEN=",
			)
			return nil
		},
		Cmds: map[string]func(ts *testscript.TestScript, neg bool, args []string){
			// file-contains asserts that a file contains (or doesn't contain) a substring.
			// Usage: [!] file-contains <path> <substring>
			"file-contains": cmdFileContains,

			// dir-not-exists asserts that a directory does not exist.
			// Usage: [!] dir-not-exists <path>
			"dir-not-exists": cmdDirNotExists,

			// count-dirs asserts how many non-dot subdirectories a directory has.
			// Usage: count-dirs <path> <n>
			"count-dirs": cmdCountDirs,

			// oldest-dir sets <var> to the name of the lexically first
			// non-dot subdirectory, which for backups is the oldest.
			// Usage: oldest-dir <path> <var>
			"oldest-dir": cmdOldestDir,

			// serve-github serves the repositories under <dir> through a fake
			// GitHub contents API and points crs at it. Repositories live at
			// <dir>/<owner>/<repo>; every ref resolves to the same tree.
			// Usage: serve-github <dir>
			"serve-github": cmdServeGitHub,
		},
	})
}

// cmdFileContains checks if a file contains a substring.
func cmdFileContains(ts *testscript.TestScript, neg bool, args []string) {
	if len(args) < 2 {
		ts.Fatalf("usage: file-contains <path> <substring>")
	}
	p := ts.MkAbs(args[0])
	substr := args[1]

	data, err := os.ReadFile(p)
	if err != nil {
		ts.Fatalf("reading %s: %v", args[0], err)
	}

	contains := strings.Contains(string(data), substr)
	if neg {
		if contains {
			ts.Fatalf("file %s contains %q (expected not to)", args[0], substr)
		}
	} else {
		if !contains {
			ts.Fatalf("file %s does not contain %q\nContent:\n%s", args[0], substr, string(data))
		}
	}
}

// cmdDirNotExists checks that a directory does not exist.
func cmdDirNotExists(ts *testscript.TestScript, neg bool, args []string) {
	if len(args) != 1 {
		ts.Fatalf("usage: dir-not-exists <path>")
	}
	_, err := os.Stat(ts.MkAbs(args[0]))
	doesNotExist := os.IsNotExist(err)

	if neg {
		// ! dir-not-exists == dir exists
		if doesNotExist {
			ts.Fatalf("%s does not exist (expected it to exist)", args[0])
		}
	} else {
		if !doesNotExist {
			ts.Fatalf("%s exists (expected it not to)", args[0])
		}
	}
}

// cmdCountDirs checks the number of subdirectories, ignoring dot entries.
func cmdCountDirs(ts *testscript.TestScript, neg bool, args []string) {
	if neg {
		ts.Fatalf("count-dirs does not support negation")
	}
	if len(args) != 2 {
		ts.Fatalf("usage: count-dirs <path> <n>")
	}
	entries, err := os.ReadDir(ts.MkAbs(args[0]))
	if err != nil {
		ts.Fatalf("reading %s: %v", args[0], err)
	}
	n := 0
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			n++
		}
	}
	if got := fmt.Sprint(n); got != args[1] {
		ts.Fatalf("%s has %d directories, want %s", args[0], n, args[1])
	}
}

// cmdOldestDir stores the first subdirectory name in an env var.
func cmdOldestDir(ts *testscript.TestScript, neg bool, args []string) {
	if neg {
		ts.Fatalf("oldest-dir does not support negation")
	}
	if len(args) != 2 {
		ts.Fatalf("usage: oldest-dir <path> <var>")
	}
	entries, err := os.ReadDir(ts.MkAbs(args[0]))
	if err != nil {
		ts.Fatalf("reading %s: %v", args[0], err)
	}
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			ts.Setenv(args[1], e.Name())
			return
		}
	}
	ts.Fatalf("%s has no subdirectories", args[0])
}

// cmdServeGitHub starts a fake GitHub API over a directory tree.
func cmdServeGitHub(ts *testscript.TestScript, neg bool, args []string) {
	if neg {
		ts.Fatalf("serve-github does not support negation")
	}
	if len(args) != 1 {
		ts.Fatalf("usage: serve-github <dir>")
	}
	srv := httptest.NewServer(fakeGitHub(ts.MkAbs(args[0])))
	ts.Defer(srv.Close)
	ts.Setenv("CRS_GITHUB_API_URL", srv.URL)
}

// fakeGitHub implements the repository, contents and commits endpoints over
// root/<owner>/<repo>.
func fakeGitHub(root string) http.Handler {
	notFound := func(w http.ResponseWriter) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"message":"Not Found"}`)
	}
	writeJSON := func(w http.ResponseWriter, v any) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(v)
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// /repos/<owner>/<repo>[/<endpoint>[/<path>]]
		parts := strings.SplitN(strings.TrimPrefix(r.URL.Path, "/repos/"), "/", 4)
		if len(parts) < 2 {
			notFound(w)
			return
		}
		repoDir := filepath.Join(root, parts[0], parts[1])
		if info, err := os.Stat(repoDir); err != nil || !info.IsDir() {
			notFound(w)
			return
		}

		switch {
		case len(parts) == 2:
			writeJSON(w, map[string]string{"default_branch": "main"})
		case parts[2] == "commits":
			writeJSON(w, []map[string]string{{"sha": "0123456789abcdef"}})
		case parts[2] == "contents":
			rel := ""
			if len(parts) == 4 {
				rel = strings.Trim(parts[3], "/")
			}
			full := filepath.Join(repoDir, filepath.FromSlash(rel))
			info, err := os.Stat(full)
			if err != nil {
				notFound(w)
				return
			}
			if !info.IsDir() {
				if r.Header.Get("Accept") == "application/vnd.github.raw" {
					data, err := os.ReadFile(full)
					if err != nil {
						notFound(w)
						return
					}
					_, _ = w.Write(data)
					return
				}
				writeJSON(w, contentEntry(rel, info))
				return
			}
			entries, err := os.ReadDir(full)
			if err != nil {
				notFound(w)
				return
			}
			list := []map[string]any{}
			for _, e := range entries {
				info, err := e.Info()
				if err != nil {
					continue
				}
				list = append(list, contentEntry(path.Join(rel, e.Name()), info))
			}
			writeJSON(w, list)
		default:
			notFound(w)
		}
	})
}

func contentEntry(rel string, info os.FileInfo) map[string]any {
	typ := "file"
	if info.IsDir() {
		typ = "dir"
	}
	return map[string]any{
		"name": path.Base(rel),
		"path": rel,
		"type": typ,
		"size": info.Size(),
	}
}
