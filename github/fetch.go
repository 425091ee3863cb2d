package github

import (
	"context"
	"fmt"
	"regexp"

	gh "github.com/google/go-github/v57/github"

	"github.com/richinex/staxchange/model"
)

// codeFilePattern is the case-insensitive extension allow-list.
var codeFilePattern = regexp.MustCompile(`(?i)\.(ts|tsx|js|jsx|py|cs|java|go|rs|php|rb|kt|scala|sql|sh|yml|yaml|json)$`)

// IsCodeFile reports whether path has a convertible extension.
func IsCodeFile(path string) bool {
	return codeFilePattern.MatchString(path)
}

// FetchSourceFiles resolves branch to a commit, lists the full tree, keeps
// the first MaxFiles code blobs in tree order and downloads each one.
//
// Any failure aborts the fetch and is returned as *model.UpstreamError.
// Files are fetched one at a time.
func (c *Client) FetchSourceFiles(ctx context.Context, token, owner, repo, branch string) ([]model.SourceFile, error) {
	api := c.api(token)

	b, resp, err := api.Repositories.GetBranch(ctx, owner, repo, branch, 1)
	if err != nil {
		return nil, upstream("get branch "+branch, resp, err)
	}
	sha := b.GetCommit().GetSHA()
	if sha == "" {
		return nil, upstream("get branch "+branch, resp, fmt.Errorf("branch has no commit"))
	}

	tree, resp, err := api.Git.GetTree(ctx, owner, repo, sha, true)
	if err != nil {
		return nil, upstream("get tree "+sha, resp, err)
	}
	if tree.GetTruncated() {
		c.logger.Warn("repository tree truncated by host", "owner", owner, "repo", repo, "sha", sha)
	}

	paths := selectPaths(tree.Entries, c.maxFiles)
	c.logger.Debug("selected source files",
		"owner", owner, "repo", repo, "branch", branch,
		"tree_entries", len(tree.Entries), "selected", len(paths))

	files := make([]model.SourceFile, 0, len(paths))
	opts := &gh.RepositoryContentGetOptions{Ref: branch}
	for _, path := range paths {
		content, err := c.fetchFile(ctx, api, owner, repo, path, opts)
		if err != nil {
			return nil, err
		}
		files = append(files, model.SourceFile{Path: path, Content: content})
	}
	return files, nil
}

// selectPaths keeps blob entries with a code extension, capped at limit.
func selectPaths(entries []*gh.TreeEntry, limit int) []string {
	var paths []string
	for _, e := range entries {
		if len(paths) >= limit {
			break
		}
		if e.GetType() != "blob" || !IsCodeFile(e.GetPath()) {
			continue
		}
		paths = append(paths, e.GetPath())
	}
	return paths
}

func (c *Client) fetchFile(ctx context.Context, api *gh.Client, owner, repo, path string, opts *gh.RepositoryContentGetOptions) (string, error) {
	op := "get contents " + path
	file, _, resp, err := api.Repositories.GetContents(ctx, owner, repo, path, opts)
	if err != nil {
		return "", upstream(op, resp, err)
	}
	if file == nil {
		return "", upstream(op, resp, fmt.Errorf("path is not a file"))
	}
	// Files over 1 MB come back with encoding "none" and no inline content.
	if file.GetEncoding() == "none" {
		c.logger.Warn("file too large for inline content, keeping it empty",
			"owner", owner, "repo", repo, "path", path, "size", file.GetSize())
		return "", nil
	}
	content, err := file.GetContent()
	if err != nil {
		return "", upstream(op, resp, fmt.Errorf("decode content: %w", err))
	}
	return content, nil
}
