package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richinex/staxchange/model"
)

// fakeHost is a minimal GitHub REST stand-in for one repository.
type fakeHost struct {
	t        *testing.T
	branch   string
	sha      string
	entries  []map[string]string
	contents map[string]string
	large    map[string]bool // served with encoding "none"
	// renamed is the name the host gives a created repository; empty keeps
	// the requested name.
	renamed string

	contentCalls atomic.Int32
	created      []string
	createdRepo  string
}

func (f *fakeHost) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /repos/{owner}/{repo}/branches/{branch}", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(f.t, "Bearer tok", r.Header.Get("Authorization"))
		if r.PathValue("branch") != f.branch {
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"message":"Branch not found"}`)
			return
		}
		writeJSON(w, map[string]any{"name": f.branch, "commit": map[string]any{"sha": f.sha}})
	})

	mux.HandleFunc("GET /repos/{owner}/{repo}/git/trees/{sha}", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(f.t, f.sha, r.PathValue("sha"))
		assert.Equal(f.t, "1", r.URL.Query().Get("recursive"))
		writeJSON(w, map[string]any{"sha": f.sha, "tree": f.entries, "truncated": false})
	})

	mux.HandleFunc("GET /repos/{owner}/{repo}/contents/{path...}", func(w http.ResponseWriter, r *http.Request) {
		f.contentCalls.Add(1)
		assert.Equal(f.t, f.branch, r.URL.Query().Get("ref"))
		path := r.PathValue("path")
		if f.large[path] {
			writeJSON(w, map[string]any{"type": "file", "encoding": "none", "path": path, "content": "", "size": 5 << 20})
			return
		}
		content, ok := f.contents[path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"message":"Not Found"}`)
			return
		}
		// GitHub wraps base64 at 60 columns.
		enc := base64.StdEncoding.EncodeToString([]byte(content))
		wrapped := ""
		for len(enc) > 60 {
			wrapped += enc[:60] + "\n"
			enc = enc[60:]
		}
		wrapped += enc + "\n"
		writeJSON(w, map[string]any{"type": "file", "encoding": "base64", "path": path, "content": wrapped})
	})

	mux.HandleFunc("GET /user/repos", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(f.t, "updated", r.URL.Query().Get("sort"))
		assert.Equal(f.t, "100", r.URL.Query().Get("per_page"))
		writeJSON(w, []map[string]any{{"name": "alpha", "full_name": "me/alpha"}, {"name": "beta", "full_name": "me/beta"}})
	})

	mux.HandleFunc("GET /repos/{owner}/{repo}/branches", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(f.t, "100", r.URL.Query().Get("per_page"))
		writeJSON(w, []map[string]any{{"name": "main"}, {"name": "dev"}})
	})

	mux.HandleFunc("GET /repos/{owner}/{repo}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"name": r.PathValue("repo"), "default_branch": "main"})
	})

	mux.HandleFunc("POST /user/repos", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		assert.NoError(f.t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(f.t, true, body["auto_init"])
		assert.Equal(f.t, false, body["private"])
		f.createdRepo, _ = body["name"].(string)
		name := f.createdRepo
		if f.renamed != "" {
			name = f.renamed
		}
		w.WriteHeader(http.StatusCreated)
		writeJSON(w, map[string]any{
			"name":      name,
			"full_name": "me/" + name,
			"owner":     map[string]any{"login": "me"},
			"html_url":  "https://github.com/me/" + name,
		})
	})

	mux.HandleFunc("PUT /repos/{owner}/{repo}/contents/{path...}", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(f.t, "me", r.PathValue("owner"))
		existing := f.createdRepo
		if f.renamed != "" {
			existing = f.renamed
		}
		if r.PathValue("repo") != existing {
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"message":"Not Found"}`)
			return
		}
		var body struct {
			Message string `json:"message"`
			Content string `json:"content"`
		}
		assert.NoError(f.t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(f.t, "add "+r.PathValue("path"), body.Message)
		f.created = append(f.created, r.PathValue("path"))
		w.WriteHeader(http.StatusCreated)
		writeJSON(w, map[string]any{"content": map[string]any{"path": r.PathValue("path")}})
	})

	return mux
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func newTestClient(t *testing.T, host *fakeHost, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(host.handler())
	t.Cleanup(srv.Close)
	return NewClient(append([]Option{WithBaseURL(srv.URL)}, opts...)...)
}

func blob(path string) map[string]string {
	return map[string]string{"path": path, "type": "blob", "mode": "100644"}
}

func tree(path string) map[string]string {
	return map[string]string{"path": path, "type": "tree", "mode": "040000"}
}

func TestIsCodeFile(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"src/app.ts", true},
		{"src/App.TSX", true},
		{"main.go", true},
		{"deploy/values.YAML", true},
		{"scripts/run.sh", true},
		{"README.md", false},
		{"logo.png", false},
		{"Makefile", false},
		{"archive.tsx.bak", false},
		{"go", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, IsCodeFile(tt.path))
		})
	}
}

func TestFetchSourceFiles(t *testing.T) {
	host := &fakeHost{
		t:      t,
		branch: "main",
		sha:    "abc123",
		entries: []map[string]string{
			tree("src"),
			blob("src/a.py"),
			blob("README.md"),
			blob("src/b.ts"),
			blob("assets/logo.png"),
		},
		contents: map[string]string{
			"src/a.py": "print('hello')\n",
			"src/b.ts": "export const x = 1;\n// long enough to wrap past sixty base64 columns\n",
		},
	}
	client := newTestClient(t, host)

	files, err := client.FetchSourceFiles(context.Background(), "tok", "o", "r", "main")
	require.NoError(t, err)

	want := []model.SourceFile{
		{Path: "src/a.py", Content: "print('hello')\n"},
		{Path: "src/b.ts", Content: "export const x = 1;\n// long enough to wrap past sixty base64 columns\n"},
	}
	if diff := cmp.Diff(want, files); diff != "" {
		t.Errorf("files mismatch (-want +got):\n%s", diff)
	}
}

func TestFetchSourceFilesKeepsOversizedFileEmpty(t *testing.T) {
	host := &fakeHost{
		t:        t,
		branch:   "main",
		sha:      "abc",
		entries:  []map[string]string{blob("package-lock.json"), blob("a.py")},
		contents: map[string]string{"a.py": "print(1)"},
		large:    map[string]bool{"package-lock.json": true},
	}
	client := newTestClient(t, host)

	files, err := client.FetchSourceFiles(context.Background(), "tok", "o", "r", "main")
	require.NoError(t, err)

	want := []model.SourceFile{
		{Path: "package-lock.json", Content: ""},
		{Path: "a.py", Content: "print(1)"},
	}
	if diff := cmp.Diff(want, files); diff != "" {
		t.Errorf("files mismatch (-want +got):\n%s", diff)
	}
}

func TestFetchSourceFilesCapsFileCount(t *testing.T) {
	host := &fakeHost{t: t, branch: "main", sha: "abc", contents: map[string]string{}}
	for i := 0; i < 60; i++ {
		p := fmt.Sprintf("f%02d.js", i)
		host.entries = append(host.entries, blob(p))
		host.contents[p] = "x"
	}
	client := newTestClient(t, host)

	files, err := client.FetchSourceFiles(context.Background(), "tok", "o", "r", "main")
	require.NoError(t, err)
	require.Len(t, files, DefaultMaxFiles)
	assert.Equal(t, "f00.js", files[0].Path)
	assert.Equal(t, "f49.js", files[49].Path)
	assert.Equal(t, int32(DefaultMaxFiles), host.contentCalls.Load())
}

func TestFetchSourceFilesCustomCap(t *testing.T) {
	host := &fakeHost{t: t, branch: "main", sha: "abc", contents: map[string]string{}}
	for i := 0; i < 5; i++ {
		p := fmt.Sprintf("f%d.go", i)
		host.entries = append(host.entries, blob(p))
		host.contents[p] = "package f"
	}
	client := newTestClient(t, host, WithMaxFiles(2))

	files, err := client.FetchSourceFiles(context.Background(), "tok", "o", "r", "main")
	require.NoError(t, err)
	assert.Len(t, files, 2)
}

func TestFetchSourceFilesUnknownBranch(t *testing.T) {
	host := &fakeHost{t: t, branch: "main", sha: "abc"}
	client := newTestClient(t, host)

	_, err := client.FetchSourceFiles(context.Background(), "tok", "o", "r", "nope")
	require.Error(t, err)

	var ue *model.UpstreamError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, http.StatusNotFound, ue.StatusCode)
	assert.Contains(t, err.Error(), "GitHub API error 404")
	assert.Zero(t, host.contentCalls.Load())
}

func TestFetchSourceFilesContentFailureAborts(t *testing.T) {
	host := &fakeHost{
		t:        t,
		branch:   "main",
		sha:      "abc",
		entries:  []map[string]string{blob("a.py"), blob("missing.py"), blob("c.py")},
		contents: map[string]string{"a.py": "1", "c.py": "3"},
	}
	client := newTestClient(t, host)

	files, err := client.FetchSourceFiles(context.Background(), "tok", "o", "r", "main")
	assert.Nil(t, files)
	assert.True(t, model.IsUpstream(err))
	assert.Contains(t, err.Error(), "missing.py")
	assert.Equal(t, int32(2), host.contentCalls.Load())
}

func TestListRepos(t *testing.T) {
	client := newTestClient(t, &fakeHost{t: t})

	repos, err := client.ListRepos(context.Background(), "tok")
	require.NoError(t, err)
	require.Len(t, repos, 2)
	assert.Equal(t, "me/alpha", repos[0].GetFullName())
}

func TestListBranches(t *testing.T) {
	client := newTestClient(t, &fakeHost{t: t})

	list, err := client.ListBranches(context.Background(), "tok", "me", "alpha")
	require.NoError(t, err)
	assert.Equal(t, "main", list.DefaultBranch)
	require.Len(t, list.Branches, 2)
	assert.Equal(t, "dev", list.Branches[1].GetName())

	raw, err := json.Marshal(list)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"default":"main"`)
}

func TestExportRepo(t *testing.T) {
	host := &fakeHost{t: t}
	client := newTestClient(t, host)

	url, err := client.ExportRepo(context.Background(), "tok", "converted", []model.SourceFile{
		{Path: "/src/main.go", Content: "package main"},
		{Path: "go.mod", Content: "module x"},
	})
	require.NoError(t, err)
	assert.Equal(t, "https://github.com/me/converted", url)
	assert.Equal(t, "converted", host.createdRepo)
	assert.Equal(t, []string{"src/main.go", "go.mod"}, host.created)
}

func TestExportRepoUsesCreatedName(t *testing.T) {
	host := &fakeHost{t: t, renamed: "my-repo"}
	client := newTestClient(t, host)

	url, err := client.ExportRepo(context.Background(), "tok", "my repo", []model.SourceFile{
		{Path: "a.ts", Content: "export {}"},
	})
	require.NoError(t, err)
	assert.Equal(t, "https://github.com/me/my-repo", url)
	assert.Equal(t, "my repo", host.createdRepo)
	assert.Equal(t, []string{"a.ts"}, host.created)
}

func TestUpstreamErrorOnTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	client := NewClient(WithBaseURL(url))
	_, err := client.ListRepos(context.Background(), "tok")

	var ue *model.UpstreamError
	require.ErrorAs(t, err, &ue)
	assert.Zero(t, ue.StatusCode)
}

func TestEscapePath(t *testing.T) {
	assert.Equal(t, "src/my%20file.go", escapePath("src/my file.go"))
	assert.Equal(t, "a/b/c.ts", escapePath("a/b/c.ts"))
}
